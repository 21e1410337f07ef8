package main

import (
	"fmt"
	"os"

	"patternscope/config"
	"patternscope/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg *config.Config
	log *zap.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "patternscope",
		Short:         "Detect double bottoms and head-and-shoulders in daily stock charts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// viper config
			c, err := config.Load()
			if err != nil {
				return err
			}
			cfg = c

			// zap logger
			l, err := logger.New(cfg.Log)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			log = l
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if log != nil {
				_ = log.Sync()
			}
		},
	}

	root.AddCommand(newServeCmd(), newAnalyzeCmd(), newPruneCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
