package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"job-assistant/infrastructure"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		seed, _ := cmd.Flags().GetBool("seed")
		return migrate(cmd.Context(), seed)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().Bool("seed", false, "insert sample job postings into an empty table")
}

func migrate(ctx context.Context, seed bool) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := infrastructure.OpenDatabase(cfg.Database, logger)
	if err != nil {
		logger.Error("opening database", zap.Error(err))
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	return infrastructure.Migrate(ctx, db, seed || cfg.Database.Seed, logger)
}
