package main

import (
	"TradeTechCircuit/api"
	"TradeTechCircuit/internal/command"
	"TradeTechCircuit/internal/config"
	"TradeTechCircuit/internal/core"
	"TradeTechCircuit/internal/data"
	"TradeTechCircuit/internal/gateway"
	"TradeTechCircuit/internal/mock"
	"TradeTechCircuit/internal/service"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg := config.Load("")
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	slog.SetDefault(logger)

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Activity log and the broadcaster that streams it to live log clients
	broadcaster := core.NewLogBroadcaster(logger)
	broadcaster.Start(ctx)
	activity := data.NewInMemoryActivityLogWithConfig(data.ActivityLogConfig{Capacity: cfg.ActivityCapacity}).
		WithSink(broadcaster.GetEntryChannel())

	// 2. Exchange facade (real testnet/production or in-process paper exchange)
	exchange := newExchange(ctx, cfg, logger)

	// 3. Trading bot; startup validation failure is fatal and the server never starts
	initCtx, initCancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	bot, err := service.NewTradingBot(initCtx, exchange, activity, cfg.Symbol, logger)
	initCancel()
	if err != nil {
		logger.Error("failed to initialize trading bot", "error", err)
		fmt.Fprintf(os.Stderr, "Failed to initialize trading bot: %v\n", err)
		closeLog()
		os.Exit(1)
	}

	// 4. Chat dispatcher and HTTP surface
	dispatcher := command.NewDispatcher(bot, activity, logger)
	apiHandler := api.NewAPIHandler(bot, dispatcher, activity, broadcaster, logger)
	server := apiHandler.NewServer(cfg.Port)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			cancel()
		}
	}()

	fmt.Printf("Trading service for %s starting on port %d (%s mode)\n", bot.Symbol(), cfg.Port, cfg.ExchangeMode)
	fmt.Printf("Endpoints:\n")
	fmt.Printf("  GET  /                  order form and chat\n")
	fmt.Printf("  GET  /live_log          live activity log\n")
	fmt.Printf("  POST /api/v1/orders\n")
	fmt.Printf("  GET  /api/v1/orders/:id\n")
	fmt.Printf("  POST /api/v1/chat       {\"command\": \"help\"}\n")
	fmt.Printf("  GET  /health\n")
	fmt.Printf("Press Ctrl+C to gracefully shutdown\n")

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		fmt.Println("\nReceived shutdown signal, stopping services...")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}
}

// newLogger writes text logs to stdout and the configured log file
func newLogger(cfg config.Config) (*slog.Logger, func(), error) {
	var out io.Writer = os.Stdout
	closeFn := func() {}

	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(os.Stdout, file)
		closeFn = func() { file.Close() }
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.LogLevel}))
	return logger, closeFn, nil
}

func newExchange(ctx context.Context, cfg config.Config, logger *slog.Logger) service.Exchange {
	if cfg.ExchangeMode == config.ModePaper {
		paper := mock.NewPaperExchangeWithConfig(mock.DefaultPaperExchangeConfig())
		mock.NewMarkPriceFeed(paper, logger).Start(ctx)
		logger.Info("using paper exchange")
		return paper
	}

	baseURL := gateway.BaseURLFor(cfg.Testnet)
	logger.Info("using binance futures gateway", "base_url", baseURL)
	return gateway.NewBinanceFuturesGateway(
		gateway.NewHTTPClientWithTimeout(cfg.RequestTimeout),
		gateway.BinanceFuturesConfig{
			APIKey:    cfg.APIKey,
			APISecret: cfg.APISecret,
			BaseURL:   baseURL,
		},
		logger,
	)
}
