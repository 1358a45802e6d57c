package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arnavshah/roster-api-go/internal/app"
	"github.com/arnavshah/roster-api-go/internal/config"
	"github.com/arnavshah/roster-api-go/internal/logger"
	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

func run() int {
	// .env is optional; look in the working directory and its parents
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		logger.New().WithError(err).Error("failed to load configuration")
		return 1
	}
	logger.Setup(cfg.LogLevel)
	log := logger.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Error("failed to initialize application")
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.WithError(err).Warn("failed to close resources")
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithFields(map[string]interface{}{
			"port":        cfg.Port,
			"environment": cfg.Environment,
		}).Info("server starting")
		serverErr <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("shutdown signal received")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("failed to shutdown server")
			return 1
		}
		log.Info("server exited properly")
		return 0

	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return 0
		}
		log.WithError(err).Error("server exited with error")
		return 1
	}
}
