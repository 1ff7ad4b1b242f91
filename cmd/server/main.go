package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-ai/internal/api"
	"quiz-ai/internal/config"
	"quiz-ai/internal/db"
	"quiz-ai/internal/logger"
	"quiz-ai/internal/services"
	"quiz-ai/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Setup(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				slog.Warn("telemetry shutdown", "error", err)
			}
		}()
	}
	inst, err := telemetry.NewInstruments()
	if err != nil {
		return fmt.Errorf("create instruments: %w", err)
	}

	var store services.KVStore
	if cfg.Database.Path == config.InMemoryDatabase {
		slog.Warn("in-memory store selected, decks and sessions are lost on restart")
		store = db.NewMemoryStore()
	} else {
		conn, err := db.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer conn.Close()
		store = db.NewSQLiteStore(conn)
	}

	if cfg.Gateway.APIKey == "" {
		slog.Warn("AI_GATEWAY_API_KEY is not set, question generation will fail until it is configured")
	}

	pdfService := services.NewPDFService()
	aiService := services.NewAIService(cfg.Gateway, inst)
	questionService := services.NewQuestionService(pdfService, aiService, cfg.Gateway.Model, inst)
	flashcardService := services.NewFlashcardService(store, pdfService)
	sessionService := services.NewSessionService(store)

	server := api.NewServer(cfg.Uploads, pdfService, questionService, flashcardService, sessionService)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.Gateway.Timeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", srv.Addr, "model", cfg.Gateway.Model)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
