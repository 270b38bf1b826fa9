package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claimtoken/ledger/cmd/ledgerd/bootstrap"
	"github.com/claimtoken/ledger/cmd/ledgerd/handlers"
	"github.com/claimtoken/ledger/internal/platform/logger"

	"go.uber.org/zap"
)

var (
	buildVersion = "unknown"
	buildDate    = "unknown"
)

// Request Ledger Daemon
func main() {
	ctx := bootstrap.NewContextWithDevelopmentLogger()

	logger.Info(ctx, "Started : application initializing",
		zap.String("version", buildVersion),
		zap.String("build_date", buildDate))
	defer logger.Info(ctx, "Completed")

	cfg := bootstrap.NewConfigFromEnv(ctx)
	masterDB := bootstrap.NewMasterDB(ctx, cfg)
	defer masterDB.Close()

	deployment := bootstrap.Deploy(ctx, cfg, masterDB)

	auth := &handlers.Authenticator{
		Secret: []byte(cfg.Auth.Secret),
		Issuer: cfg.Auth.Issuer,
	}

	server := &http.Server{
		Addr:         cfg.Web.Address,
		Handler:      handlers.NewRouter(auth, deployment, masterDB),
		ReadTimeout:  time.Duration(cfg.Web.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Web.WriteTimeout) * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(ctx, "API listening", zap.String("address", cfg.Web.Address))
		serverErrors <- server.ListenAndServe()
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatal(ctx, "Server failed", zap.Error(err))

	case sig := <-osSignals:
		logger.Info(ctx, "Shutdown requested", zap.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(ctx,
			time.Duration(cfg.Web.ShutdownTimeout)*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "Graceful shutdown failed", zap.Error(err))
			if err := server.Close(); err != nil {
				logger.Fatal(ctx, "Forced shutdown failed", zap.Error(err))
			}
		}
	}
}
