package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/h0rv/flowcanvas/internal/api"
	"github.com/spf13/cobra"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long:  "Serve the JSON API. The caller identity is read from the X-Account-Id, X-Cloud-Id and X-Project-Key headers of each request.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides http_addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx, setupOptions{upstream: true})
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.HTTPAddr
	if flagAddr != "" {
		addr = flagAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(a.cfg.Env, a.log, a.svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
		a.log.Info().Msg("shutting down...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
