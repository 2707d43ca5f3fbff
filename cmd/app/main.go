package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatrelay/internal/commands"
	"chatrelay/internal/config"
	"chatrelay/internal/httpserver"
	"chatrelay/internal/llm"
	"chatrelay/internal/memory"
	"chatrelay/internal/observability"
	"chatrelay/internal/session"
	"chatrelay/internal/telegram"
	"chatrelay/internal/transport"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.LogLevel)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(cfg.MetricsNamespace, registry)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, backend := memory.Open(ctx, memory.Options{
		Connection:   cfg.Memory.Connection,
		TableName:    cfg.Memory.TableName,
		SessionTTL:   cfg.Memory.SessionTTL,
		StoreTimeout: cfg.Memory.StoreTimeout,
	}, logger)
	if closer, ok := store.(memory.Closer); ok {
		defer closer.Close()
	}
	logger.Info("memory store ready", slog.String("backend", backend))

	commandTable, err := commands.LoadTable(cfg.CommandsFile)
	if err != nil {
		log.Fatalf("failed to load commands: %v", err)
	}

	httpClient := transport.NewHTTPClient(cfg.RequestTimeout)
	completer := llm.NewCompleter(cfg.LLM, cfg.EchoOnly, httpClient, logger)
	telegramClient := telegram.NewClient(cfg.Telegram, httpClient)
	logWebhookState(ctx, telegramClient, logger)

	svc := session.NewService(session.Deps{
		Store:        memory.NewSafeStore(store, backend, logger, metrics),
		Completer:    completer,
		Sender:       telegramClient,
		Commands:     commandTable,
		SystemPrompt: cfg.SystemPrompt,
		MaxTurns:     cfg.Memory.MaxHistoryTurns,
		Logger:       logger,
		Metrics:      metrics,
	})

	webhookHandler := telegram.NewWebhookHandler(telegram.WebhookDeps{
		Session:       svc,
		Logger:        logger,
		WebhookSecret: cfg.Telegram.WebhookSecret,
	})

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Logger:          logger,
		Metrics:         metrics,
		MetricsHandler:  observability.Handler(registry),
		TelegramHandler: webhookHandler,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", slog.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

// logWebhookState пишет в лог состояние вебхука; ошибки не мешают старту.
func logWebhookState(ctx context.Context, client telegram.BotClient, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	info, err := client.GetWebhookInfo(ctx)
	if err != nil {
		logger.Warn("telegram webhook info unavailable", slog.String("error", err.Error()))
		return
	}
	logger.Info("telegram webhook",
		slog.String("url", info.URL),
		slog.Int("pending_update_count", info.PendingUpdateCount),
		slog.String("last_error_message", info.LastErrorMessage))
}

func newLogger(level string) *slog.Logger {
	slogLevel := slog.LevelInfo
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
}
