// Package config holds the indexer's startup configuration (spec §6
// "Configuration flags"). Grounded on cuemby-warren/cmd/warren/main.go's
// persistent-flag style: a plain struct populated once from cobra flags at
// process start, never reloaded (spec §9 "Global state": "no dynamic
// reloading").
package config

import (
	"fmt"
	"strings"
)

// Config is every flag spec §6 recognizes, with the effects described
// there.
type Config struct {
	// SuiRPCURL is the remote chain endpoint used by the L1 cache adapter
	// and by cache priming (--sui-rpc-url).
	SuiRPCURL string
	// PackageID is the application's origin package id; the event filter
	// gate for the checkpoint processor (--package-id).
	PackageID string
	// DubhePackageID is the dubhe framework's package id (--dubhe-package-id).
	DubhePackageID string
	// DubheObjectID is the hub object id cache priming walks from
	// (--dubhe-object-id).
	DubheObjectID string
	// Signer is a keypair reference used only by the legacy
	// /set_storage demo handler (--signer); not read by the core pipeline.
	Signer string
	// SchemaPath is the path to the declarative schema JSON (--config /
	// --config-json).
	SchemaPath string
	// DatabaseURL is the relational store connection string
	// (--database-url).
	DatabaseURL string
	// StartCheckpoint is the first checkpoint sequence to index
	// (--start-checkpoint). 0 falls back to the schema's start_checkpoint,
	// and polling begins at that sequence number as given; the chain's
	// latest checkpoint is not looked up.
	StartCheckpoint uint64
	// Force clears the relational store before starting. Only honored
	// against a local database (--force).
	Force bool
	// WorkerPoolNumber is the object cache's L1 bridge worker count
	// (--worker-pool-number). The checkpoint pipeline does not use it: it
	// processes one checkpoint at a time.
	WorkerPoolNumber int
}

// Validate reports the minimal set of flags every run needs regardless of
// subcommand (spec §7 "Config — startup only; fatal").
func (c Config) Validate() error {
	if c.SchemaPath == "" {
		return fmt.Errorf("config: --config/--config-json is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: --database-url is required")
	}
	return nil
}

// IsLocalDatabase reports whether DatabaseURL points at a local file
// rather than a shared/remote server, the gate spec §6 places on --force
// ("clear the relational store before starting (local only; otherwise
// refused)").
func (c Config) IsLocalDatabase() bool {
	return len(c.DatabaseURL) > 0 && c.DatabaseURL[0] != ':' &&
		!strings.HasPrefix(c.DatabaseURL, "postgres://") &&
		!strings.HasPrefix(c.DatabaseURL, "postgresql://") &&
		!strings.HasPrefix(c.DatabaseURL, "mysql://")
}
