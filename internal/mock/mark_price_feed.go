package mock

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

// MarkPriceFeedConfig holds configuration for the mark price feed
type MarkPriceFeedConfig struct {
	Interval   time.Duration
	Volatility float64
	Seed       int64
}

// DefaultMarkPriceFeedConfig returns a sensible default configuration
func DefaultMarkPriceFeedConfig() MarkPriceFeedConfig {
	return MarkPriceFeedConfig{
		Interval:   2 * time.Second,
		Volatility: 0.001, // 0.1% per tick
		Seed:       time.Now().UnixNano(),
	}
}

// MarkPriceFeed random-walks the mark prices of a paper exchange so resting orders can fill
type MarkPriceFeed struct {
	exchange *PaperExchange
	config   MarkPriceFeedConfig
	rng      *rand.Rand
	logger   *slog.Logger
}

// NewMarkPriceFeed creates a feed with default config
func NewMarkPriceFeed(exchange *PaperExchange, logger *slog.Logger) *MarkPriceFeed {
	return NewMarkPriceFeedWithConfig(exchange, DefaultMarkPriceFeedConfig(), logger)
}

// NewMarkPriceFeedWithConfig creates a feed with custom config
func NewMarkPriceFeedWithConfig(exchange *PaperExchange, config MarkPriceFeedConfig, logger *slog.Logger) *MarkPriceFeed {
	if logger == nil {
		logger = slog.Default()
	}

	return &MarkPriceFeed{
		exchange: exchange,
		config:   config,
		rng:      rand.New(rand.NewSource(config.Seed)),
		logger:   logger,
	}
}

// Start moves prices every interval until ctx is cancelled
func (f *MarkPriceFeed) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(f.config.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				f.Tick()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Tick advances every listed symbol by one step
func (f *MarkPriceFeed) Tick() {
	for _, symbol := range f.exchange.Symbols() {
		current, exists := f.exchange.MarkPrice(symbol)
		if !exists {
			continue
		}

		next := f.step(current)
		filled := f.exchange.UpdateMarkPrice(symbol, next)
		for _, orderID := range filled {
			f.logger.Info("paper order filled", "symbol", symbol, "order_id", orderID, "mark_price", next.String())
		}
	}
}

// step draws the next price from a normal distribution around current
func (f *MarkPriceFeed) step(current decimal.Decimal) decimal.Decimal {
	price := current.InexactFloat64()
	next := price + f.rng.NormFloat64()*f.config.Volatility*price

	// Ensure price doesn't go negative
	if next <= 0 {
		next = price * 0.99
	}
	return decimal.NewFromFloat(next).Round(2)
}
