package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/dataprep-cli/internal/metrics"
	"github.com/KaramelBytes/dataprep-cli/internal/server"
	"github.com/KaramelBytes/dataprep-cli/internal/snapshot"
)

var (
	servePort    int
	serveBackend string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API: upload and profile, then download the cleaned CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		if servePort > 0 {
			c.Server.Port = servePort
		}
		if serveBackend != "" {
			c.Snapshot.Backend = serveBackend
		}
		log, err := newLogger(c)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer log.Sync() //nolint:errcheck

		store, err := snapshot.Open(cmd.Context(), c.Snapshot, log.WithComponent("snapshot").Logger)
		if err != nil {
			return fmt.Errorf("open snapshot store: %w", err)
		}
		defer store.Close()

		srv, err := server.New(c, store, metrics.New(), log)
		if err != nil {
			return err
		}

		serverErrors := make(chan error, 1)
		go func() {
			serverErrors <- srv.Start()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if err != nil {
				log.Error("Server error", zap.Error(err))
			}
			return err
		case sig := <-shutdown:
			log.Info("Shutdown signal received", zap.String("signal", sig.String()))

			// Give outstanding requests 30 seconds to complete
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Stop(ctx); err != nil {
				return fmt.Errorf("graceful shutdown: %w", err)
			}
			log.Info("Server shutdown complete")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides server.port)")
	serveCmd.Flags().StringVar(&serveBackend, "snapshot-backend", "", "snapshot store: memory|redis (overrides snapshot.backend)")
}
