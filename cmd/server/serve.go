package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgallion1/companyapi/internal/api"
	"github.com/spf13/cobra"
)

func newServeCmd(configPath *string) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}

			log := newLogger(os.Stdout, cfg.Log)
			a := newApp(cfg, log)
			defer a.Close()

			srv := api.NewServer(api.Deps{
				Service:  a.service,
				Stats:    a.stats,
				Metrics:  a.metrics,
				Upstream: a.fetcher.BaseURL(),
				Log:      log,
			})

			httpServer := &http.Server{
				Addr:         ":" + cfg.Server.Port,
				Handler:      srv,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("starting companyapi", "port", cfg.Server.Port, "upstream", a.fetcher.BaseURL())
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					log.Error("server error", "error", err)
					return err
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				log.Error("shutdown error", "error", err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides server.port)")
	return cmd
}
