package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Exchange modes
const (
	ModeBinance = "binance"
	ModePaper   = "paper"
)

// Config holds everything read from the environment at startup
type Config struct {
	APIKey           string
	APISecret        string
	Testnet          bool
	Symbol           string
	ExchangeMode     string
	Port             int
	RequestTimeout   time.Duration
	LogFile          string
	LogLevel         slog.Level
	ActivityCapacity int
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		Testnet:          true,
		Symbol:           "BTCUSDT",
		ExchangeMode:     ModeBinance,
		Port:             8080,
		RequestTimeout:   30 * time.Second,
		LogFile:          "trading_bot.log",
		LogLevel:         slog.LevelDebug,
		ActivityCapacity: 50,
	}
}

// Load reads an optional .env file and applies environment overrides on top of the defaults.
// Priority: ENV > .env file > defaults
func Load(envPath string) Config {
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	cfg := Default()

	cfg.APIKey = GetEnv("BINANCE_API_KEY", "")
	cfg.APISecret = GetEnv("BINANCE_API_SECRET", "")

	if testnet := os.Getenv("BINANCE_TESTNET"); testnet != "" {
		if v, err := strconv.ParseBool(testnet); err == nil {
			cfg.Testnet = v
		}
	}

	cfg.Symbol = strings.ToUpper(GetEnv("TRADING_SYMBOL", cfg.Symbol))
	cfg.ExchangeMode = strings.ToLower(GetEnv("EXCHANGE_MODE", cfg.ExchangeMode))
	cfg.LogFile = GetEnv("LOG_FILE", cfg.LogFile)

	if port := os.Getenv("HTTP_PORT"); port != "" {
		if v, err := strconv.Atoi(port); err == nil {
			cfg.Port = v
		}
	}

	if timeout := os.Getenv("REQUEST_TIMEOUT_MS"); timeout != "" {
		if ms, err := strconv.Atoi(timeout); err == nil && ms > 0 {
			cfg.RequestTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		var parsed slog.Level
		if err := parsed.UnmarshalText([]byte(level)); err == nil {
			cfg.LogLevel = parsed
		}
	}

	if capacity := os.Getenv("ACTIVITY_LOG_CAPACITY"); capacity != "" {
		if v, err := strconv.Atoi(capacity); err == nil && v > 0 {
			cfg.ActivityCapacity = v
		}
	}

	return cfg
}

// Validate reports configuration that must stop the service from starting
func (c Config) Validate() error {
	switch c.ExchangeMode {
	case ModeBinance:
		if c.APIKey == "" || c.APISecret == "" {
			return errors.New("BINANCE_API_KEY and BINANCE_API_SECRET must be set. Check your .env file")
		}
	case ModePaper:
	default:
		return fmt.Errorf("unknown EXCHANGE_MODE %q (expected %q or %q)", c.ExchangeMode, ModeBinance, ModePaper)
	}

	if c.Symbol == "" {
		return errors.New("TRADING_SYMBOL must not be empty")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("HTTP_PORT %d is out of range", c.Port)
	}

	return nil
}

// GetEnv returns the value of key or fallback when it is unset
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
