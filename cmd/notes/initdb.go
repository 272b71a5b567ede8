package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/carlofelipe-hub/coolifytest/internal/config"
	"github.com/carlofelipe-hub/coolifytest/internal/db"
)

func newInitDBCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the notes table if it does not exist",
		Long: `init-db connects to DATABASE_URL (POSTGRES_URL is also accepted; .env.local
and .env are loaded first) and creates the notes table. It is safe to run
repeatedly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initDB(cmd.Context()); err != nil {
				fmt.Fprintln(opts.stderr, "Error initializing database:", err)
				return reportedError{err}
			}
			fmt.Fprintln(opts.stdout, "Database initialized successfully")
			return nil
		},
	}
}

func initDB(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	config.LoadDotEnv()
	cfg, err := config.LoadConfig(config.Flags{})
	if err != nil {
		return err
	}

	store, err := db.Open(cfg.DBOptions())
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return store.EnsureSchema(ctx)
}
