package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/kinetic/internal/grpcapi"
	"github.com/BrandonDHaskell/kinetic/internal/httpapi"
)

func runServe(cmd *cobra.Command, cfgFile string) error {
	cfg, logger, err := loadConfig(cmd, cfgFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grpcSrv := grpcapi.NewServer(grpcapi.Dependencies{Logger: logger, Addr: cfg.GRPCAddr})

	a, err := buildApp(ctx, cfg, logger, grpcSrv)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close store", "err", err)
		}
	}()

	if a.syncer != nil {
		a.syncer.Load(ctx)
		a.syncer.Start(ctx)
		defer a.syncer.Stop()
	}

	httpSrv := httpapi.NewServer(httpapi.Dependencies{
		Logger:  logger,
		Addr:    cfg.HTTPAddr,
		Service: a.svc,
		Metrics: a.metrics.Handler(),
	})

	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr, "driver", cfg.Snapshot.Driver, "env", cfg.Env)
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
			stop()
		}
	}()
	go func() {
		if err := grpcSrv.Start(); err != nil {
			logger.Error("grpc server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	_ = grpcSrv.Shutdown(shutdownCtx)
	return nil
}
