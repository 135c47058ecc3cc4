package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"ewintr.nl/yttoolkit/handler"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/exp/slog"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func serveCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the video api over http",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runService(cmd.Context(), v)
		},
	}
	cmd.Flags().Int("port", 8080, "port to listen on (env API_PORT)")
	v.BindPFlag("api_port", cmd.Flags().Lookup("port"))

	return cmd
}

func runService(ctx context.Context, v *viper.Viper) error {
	a, err := newApp(ctx, v)
	if err != nil {
		return err
	}
	logger := a.logger

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", v.GetInt("api_port")),
		Handler:           handler.NewServer(a.scraper, a.youtube, a.youtube, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	listenErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()
	logger.Info("http server started", slog.String("addr", srv.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt)
	defer signal.Stop(done)

	select {
	case err := <-listenErr:
		logger.Error("http server failed", slog.String("error", err.Error()))
		return fmt.Errorf("http server failed: %w", err)
	case <-done:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("unable to stop http server", slog.String("error", err.Error()))
	}

	logger.Info("service stopped")
	return nil
}
