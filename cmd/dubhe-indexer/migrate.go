package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/0xobelisk/dubhe-indexer-go/pkg/committer"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/log"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/schema"
)

// migrateCmd applies CREATE TABLE DDL for every table the schema
// declares (supplemented feature, §SPEC_FULL.md "Schema migration DDL"),
// folded in here as a subcommand rather than the teacher's separate
// cmd/warren-migrate binary since the surface is small.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create (or recreate, with --force) every table the schema declares",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	logger := log.WithComponent("migrate")

	if cfg.SchemaPath == "" {
		logger.Fatal().Msg("--config/--config-json is required")
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("--database-url is required")
	}

	schemaJSON, err := os.ReadFile(cfg.SchemaPath)
	if err != nil {
		return err
	}
	sch, err := schema.Load(schemaJSON)
	if err != nil {
		return err
	}

	store, err := committer.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	if cfg.Force {
		if !cfg.IsLocalDatabase() {
			logger.Fatal().Msg("--force is refused against a non-local --database-url")
		}
		for _, t := range sch.Tables {
			if _, err := store.DB().ExecContext(ctx, "DROP TABLE IF EXISTS store_"+t.Name+";"); err != nil {
				return err
			}
		}
	}

	if err := store.Migrate(ctx, sch.DDL()); err != nil {
		return err
	}

	logger.Info().Int("tables", len(sch.Tables)).Msg("migration complete")
	return nil
}
