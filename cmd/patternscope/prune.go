package main

import (
	"errors"
	"fmt"
	"time"

	"patternscope/pkg/storage/postgres"

	"github.com/spf13/cobra"
)

func newPruneCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete stored detections older than --older-than",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cfg.Postgres.Enabled {
				return errors.New("postgres is disabled (postgres.enabled=false)")
			}
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive, got %s", olderThan)
			}

			pg, err := postgres.InitializeAndMigrate(cfg.Postgres, false)
			if err != nil {
				return err
			}
			defer pg.Close()

			n, err := pg.DeleteOldPatterns(cmd.Context(), time.Now().UTC().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d stored detections\n", n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 365*24*time.Hour, "retention window")
	return cmd
}
