package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"patternscope/internal/app"
	"patternscope/internal/dashboard"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pattern dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port > 0 {
				cfg.App.Port = port
			}

			a, err := app.New(cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var scanDone <-chan struct{}
			if cfg.Watchlist.DailyScan {
				scanDone = a.Scheduler().Start(ctx)
			}

			srv := dashboard.NewServer(cfg.App.Port, a.Handler(), log)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			var runErr error
			select {
			case runErr = <-errCh:
			case <-ctx.Done():
				log.Info("shutdown signal received")
			}
			stop()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if runErr == nil {
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.Warn("graceful shutdown failed", zap.Error(err))
					runErr = err
				}
			}

			// storage is closed by the deferred a.Close once the scan has returned
			if !waitFor(shutdownCtx, scanDone) {
				log.Warn("watchlist scan still running at shutdown")
			}
			return runErr
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides app.port)")
	return cmd
}

// waitFor blocks until done is closed or ctx ends; a nil done counts as closed.
func waitFor(ctx context.Context, done <-chan struct{}) bool {
	if done == nil {
		return true
	}
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
