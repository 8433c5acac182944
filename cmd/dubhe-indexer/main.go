// Command dubhe-indexer runs the indexer-and-simulator described in the
// package docs of pkg/checkpoint, pkg/cache, pkg/vm, pkg/submit and
// pkg/query. Grounded on cuemby-warren/cmd/warren/main.go's cobra root
// command shape: persistent logging flags, cobra.OnInitialize, and
// subcommands added in init(); the orchestrator-specific subcommands
// (cluster/manager/worker/service/...) are replaced by this binary's own
// surface (serve, migrate).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/0xobelisk/dubhe-indexer-go/pkg/config"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/log"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "dubhe-indexer",
	Short:   "Indexer and simulator for a Move-based dapp's store events",
	Version: Version,
}

var cfg config.Config

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("dubhe-indexer %s (%s)\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	rootCmd.PersistentFlags().StringVar(&cfg.SuiRPCURL, "sui-rpc-url", "", "Remote chain JSON-RPC endpoint")
	rootCmd.PersistentFlags().StringVar(&cfg.PackageID, "package-id", "", "Application origin package id")
	rootCmd.PersistentFlags().StringVar(&cfg.DubhePackageID, "dubhe-package-id", "", "Dubhe framework package id")
	rootCmd.PersistentFlags().StringVar(&cfg.DubheObjectID, "dubhe-object-id", "", "Dubhe hub object id used to prime the cache")
	rootCmd.PersistentFlags().StringVar(&cfg.Signer, "signer", "", "Keypair used by the legacy /set_storage demo path")
	rootCmd.PersistentFlags().StringVar(&cfg.SchemaPath, "config", "", "Path to the schema JSON")
	rootCmd.PersistentFlags().StringVar(&cfg.SchemaPath, "config-json", "", "Alias of --config")
	rootCmd.PersistentFlags().StringVar(&cfg.DatabaseURL, "database-url", "", "Relational store connection string (sqlite DSN)")
	rootCmd.PersistentFlags().Uint64Var(&cfg.StartCheckpoint, "start-checkpoint", 0, "First checkpoint to index; 0 uses the schema's start_checkpoint")
	rootCmd.PersistentFlags().BoolVar(&cfg.Force, "force", false, "Clear the relational store before starting (local database only)")
	rootCmd.PersistentFlags().IntVar(&cfg.WorkerPoolNumber, "worker-pool-number", 4, "Number of cache L1 bridge workers (the checkpoint pipeline is sequential)")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOutput, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOutput})
}
