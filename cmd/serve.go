package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"jobboard/infrastructure"
	"jobboard/interfaces"
	"jobboard/logger"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the HTTP server (JSON API and pages)",
	RunE:    runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and seed categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig
		db, err := infrastructure.NewDatabase(cfg.Database, logger.ComponentLogger("database"))
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		logger.Logger.Infow("Database is up to date", "driver", cfg.Database.Driver)
		return nil
	},
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	gin.SetMode(cfg.Server.Mode)
	log := logger.ComponentLogger("http")

	a, err := newApp(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	engine, err := interfaces.NewRouter(a.services, cfg, log)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           interfaces.WithCORS(engine, cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infow("Server running", "address", cfg.Server.Addr, "mode", cfg.Server.Mode)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server stopped")
		}
		return nil
	case <-ctx.Done():
	}

	log.Infow("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
