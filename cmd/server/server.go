package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"chat-log-server/internal/config"
	"chat-log-server/internal/db"
	"chat-log-server/internal/handlers"
	"chat-log-server/internal/services"
	"chat-log-server/pkg/logger"
	"chat-log-server/router"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupServer initializes a configured HTTP server and the database behind it.
// The caller owns the database and closes it once the server has stopped.
func SetupServer(cfg *config.Config) (*http.Server, *db.Database, error) {
	if cfg == nil {
		return nil, nil, errors.New("configuration is required")
	}

	if cfg.Server.Port <= 0 {
		return nil, nil, errors.New("invalid server port")
	}

	gin.SetMode(gin.ReleaseMode)

	// Initialize database
	database, err := db.NewDatabase(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	handler := newHandler(cfg, database)

	// Create server with security timeouts
	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	logger.Info("Server configured",
		zap.String("addr", srv.Addr),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("features", enabledFeatures(cfg)),
	)

	return srv, database, nil
}

// newHandler wires repositories, services and handlers into the router
func newHandler(cfg *config.Config, database *db.Database) http.Handler {
	// Initialize repositories
	messageRepo := db.NewMessageRepository(database)
	contactRepo := db.NewContactRepository(database)
	alertRepo := db.NewAlertRepository(database)
	automationRepo := db.NewAutomationRepository(database)
	filterRepo := db.NewFilterRepository(database)

	// Initialize services
	messageService := services.NewMessageService(messageRepo, alertRepo, cfg.Features.AutoAlerts)
	exclusionService := services.NewExclusionService(filterRepo)
	aggregationService := services.NewAggregationService(messageRepo, contactRepo, exclusionService, services.AggregationOptions{
		ExclusionFilters: cfg.Features.ExclusionFilters,
		ContactDirectory: cfg.Features.ContactDirectory,
	})
	contactService := services.NewContactService(contactRepo)
	automationService := services.NewAutomationService(automationRepo)
	alertService := services.NewAlertService(alertRepo)
	sessionService := services.NewSessionService(messageRepo, cfg.Session.Window)

	return router.NewRouter(&router.Handlers{
		Messages:   handlers.NewMessageHandler(messageService),
		Contacts:   handlers.NewContactHandler(aggregationService, contactService),
		Automation: handlers.NewAutomationHandler(automationService),
		Alerts:     handlers.NewAlertHandler(alertService),
		Filters:    handlers.NewFilterHandler(exclusionService),
		Sessions:   handlers.NewSessionHandler(sessionService),
	}, router.Options{
		Version:      version,
		Features:     enabledFeatures(cfg),
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		ForceHTTPS:   cfg.Server.ForceHTTPS,
		Store:        database,
	})
}

func enabledFeatures(cfg *config.Config) []string {
	features := []string{"message_logging", "conversation_management", "automation_toggles", "session_window"}
	if cfg.Features.ExclusionFilters {
		features = append(features, "exclusion_filters")
	}
	if cfg.Features.ContactDirectory {
		features = append(features, "contact_directory")
	}
	if cfg.Features.AutoAlerts {
		features = append(features, "auto_alerts")
	}
	return features
}

// StartServer starts the HTTP server and handles graceful shutdown. store,
// if not nil, is closed after the server stops.
func StartServer(srv *http.Server, store io.Closer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return StartServerWithContext(ctx, srv, store)
}

// StartServerWithContext starts the HTTP server with a context for shutdown
// control. In-flight requests are drained before store is closed.
func StartServerWithContext(ctx context.Context, srv *http.Server, store io.Closer) error {
	defer closeStore(store)

	errCh := make(chan error, 1)

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	// Create a timeout context for shutdown
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}

func closeStore(store io.Closer) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		logger.Warn("Failed to close database", zap.Error(err))
	}
}
