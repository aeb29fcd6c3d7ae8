package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"

	"github.com/Juanes7222/AppNotify/internal/api/handlers/notification"
	"github.com/Juanes7222/AppNotify/internal/api/router"
	"github.com/Juanes7222/AppNotify/internal/api/server"
	"github.com/Juanes7222/AppNotify/internal/config"
	"github.com/Juanes7222/AppNotify/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the delivery sweeper",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	// Ticks outlive the signal; Stop bounds them with the shutdown timeout.
	sweeper := worker.NewSweeper(a.service, cfg.Sweep.Interval)
	if err := sweeper.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	handler := notification.NewHandler(a.service, validator.New(), cfg)
	s := server.New(cfg.Server.HTTPPort, router.New(handler))

	go func() {
		zlog.Logger.Info().Str("addr", cfg.Server.HTTPPort).Msg("starting server")
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Logger.Error().Err(err).Msg("failed to start server")
			stop()
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}

	if err := sweeper.Stop(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to stop sweeper")
	}

	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

	return nil
}
