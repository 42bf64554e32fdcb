package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tbxark/mediaplan/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Serves sessions and conversation turns as a JSON API, with prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		a, err := loadApp(cmd.Context(), path)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				a.logger.Warn("close resources failed", "err", err)
			}
		}()
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			a.conf.Server.Addr = addr
		}

		srv := &http.Server{
			Addr: a.conf.Server.Addr,
			Handler: server.New(a.orchestrator, a.sessions,
				server.WithTurnTimeout(a.conf.TurnTimeout),
				server.WithMetricsHandler(a.metrics.Handler()),
				server.WithLogger(a.logger),
			).Handler(),
		}

		serverErrors := make(chan error, 1)
		go func() {
			a.logger.Info("starting server", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case sig := <-shutdown:
			a.logger.Info("shutting down", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), a.conf.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				a.logger.Error("graceful shutdown did not complete", "timeout", a.conf.Server.ShutdownTimeout, "err", err)
				return srv.Close()
			}
			a.logger.Info("server stopped gracefully")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Listen address, overrides server.addr")
}
