package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"smart-notes/api"
	"smart-notes/auth"
	"smart-notes/config"
	"smart-notes/db"
	"smart-notes/handlers"
	"smart-notes/logging"
	"smart-notes/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runServer(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// stores bundles the persistence backends selected by DB_DRIVER.
type stores struct {
	users  handlers.UserStore
	notes  handlers.NoteStore
	pinger api.Pinger
	close  func() error
}

func openStores(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger logrus.FieldLogger) (*stores, error) {
	if cfg.DBDriver == config.DriverMemory {
		logger.Warn("Using the in-memory store, data is lost on exit")
		mem := db.NewMemoryStore()
		return &stores{users: mem, notes: mem, pinger: mem, close: func() error { return nil }}, nil
	}

	conn, err := db.Connect(ctx, cfg.DSN, cfg.DBPingTimeout)
	if err != nil {
		return nil, fmt.Errorf("database setup failed: %w", err)
	}
	if err := db.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	m.WatchDB(conn, "smart_notes")
	logger.Info("Database connection successful")

	return &stores{
		users:  db.NewUserRepository(conn),
		notes:  db.NewNoteRepository(conn),
		pinger: conn,
		close:  conn.Close,
	}, nil
}

func buildRouter(cfg *config.Config, s *stores, m *metrics.Metrics, logger logrus.FieldLogger) http.Handler {
	tokens := auth.NewTokenService(cfg.JWTSecret)
	return api.SetupRoutes(
		handlers.NewAuthHandler(s.users, tokens),
		handlers.NewNoteHandler(s.notes),
		tokens,
		s.pinger,
		m,
		logger,
		cfg.CORSOrigin,
	)
}

func runServer(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	m := metrics.New(prometheus.NewRegistry())

	s, err := openStores(ctx, cfg, m, logger)
	if err != nil {
		return err
	}
	defer s.close()

	errorLog := logger.WriterLevel(logrus.ErrorLevel)
	defer errorLog.Close()

	server := &http.Server{
		Addr:     ":" + cfg.Port,
		Handler:  buildRouter(cfg, s, m, logger),
		ErrorLog: log.New(errorLog, "", 0),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Server running on http://localhost:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutdown signal received, initiating graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("Server gracefully stopped")
	return nil
}
