package service

import (
	"TradeTechCircuit/internal/data"
	"TradeTechCircuit/internal/mock"
	"TradeTechCircuit/internal/model"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBot(t *testing.T) (*TradingBot, *mock.PaperExchange, *data.InMemoryActivityLog) {
	t.Helper()

	exchange := mock.NewPaperExchange()
	activity := data.NewInMemoryActivityLog()
	bot, err := NewTradingBot(context.Background(), exchange, activity, "BTCUSDT", setupTestLogger())
	require.NoError(t, err)
	return bot, exchange, activity
}

func lastMessage(activity *data.InMemoryActivityLog) string {
	entries := activity.Recent(1)
	if len(entries) == 0 {
		return ""
	}
	return entries[0].Message
}

func TestNewTradingBot(t *testing.T) {
	bot, exchange, activity := newTestBot(t)

	assert.Equal(t, "BTCUSDT", bot.Symbol())
	assert.Equal(t, 1, exchange.Calls("ServerTime"))
	assert.Equal(t, 1, exchange.Calls("SymbolInfo"))

	messages := make([]string, 0)
	for _, entry := range activity.All() {
		messages = append(messages, entry.Message)
	}
	require.Len(t, messages, 3)
	assert.True(t, strings.HasPrefix(messages[0], "API connection validated: Server time = "))
	assert.Equal(t, "Symbol BTCUSDT validated", messages[1])
	assert.Equal(t, "TradingBot initialized for BTCUSDT", messages[2])
}

func TestNewTradingBot_UnknownSymbolIsFatal(t *testing.T) {
	exchange := mock.NewPaperExchange()
	activity := data.NewInMemoryActivityLog()

	bot, err := NewTradingBot(context.Background(), exchange, activity, "DOGEUSDT", setupTestLogger())

	require.Error(t, err)
	assert.Nil(t, bot)
	assert.Contains(t, err.Error(), "symbol DOGEUSDT not found on the exchange")
	assert.True(t, strings.HasPrefix(lastMessage(activity), "Initialization failed:"))
}

func TestNewTradingBot_SymbolLookupErrorIsFatal(t *testing.T) {
	exchange := mock.NewPaperExchange()
	exchange.FailSymbolInfo(&model.ExchangeError{Code: -1121, Message: "Invalid symbol."})

	bot, err := NewTradingBot(context.Background(), exchange, data.NewInMemoryActivityLog(), "BTCUSDT", setupTestLogger())

	require.Error(t, err)
	assert.Nil(t, bot)
}

func TestNewTradingBot_ConnectionFailureIsFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bot, err := NewTradingBot(ctx, mock.NewPaperExchange(), data.NewInMemoryActivityLog(), "BTCUSDT", setupTestLogger())

	require.Error(t, err)
	assert.Nil(t, bot)
	assert.Contains(t, err.Error(), "invalid API key or connection")
}

func TestPlaceMarketOrder(t *testing.T) {
	bot, exchange, activity := newTestBot(t)

	order, err := bot.PlaceMarketOrder(context.Background(), "buy", "0.0014")

	require.NoError(t, err)
	require.NotNil(t, order.OrderID)
	assert.Equal(t, "0.001", *order.OrigQty)
	assert.Equal(t, "FILLED", *order.Status)
	assert.Equal(t, 1, exchange.Calls("CreateOrder"))

	recent := activity.Recent(2)
	assert.Equal(t, "Attempting market order: BUY 0.001 BTCUSDT", recent[0].Message)
	assert.Equal(t, "Market order placed: BUY 0.001 BTCUSDT - Order ID: 4000000001", recent[1].Message)
}

func TestPlaceLimitOrder(t *testing.T) {
	bot, _, activity := newTestBot(t)

	order, err := bot.PlaceLimitOrder(context.Background(), "SELL", "0.002", "30000.555")

	require.NoError(t, err)
	assert.Equal(t, "30000.56", *order.Price)
	assert.Equal(t, "NEW", *order.Status)
	assert.Equal(t, "Limit order placed: SELL 0.002 BTCUSDT at 30000.56 - Order ID: 4000000001", lastMessage(activity))
}

func TestPlaceStopLimitOrder(t *testing.T) {
	bot, _, activity := newTestBot(t)

	order, err := bot.PlaceStopLimitOrder(context.Background(), "buy", "0.001", "29000", "29500")

	require.NoError(t, err)
	assert.Equal(t, "STOP", *order.Type)
	assert.Equal(t, "29000", *order.StopPrice)
	assert.Equal(t, "29500", *order.Price)
	assert.Equal(t, "Stop-limit order placed: BUY 0.001 BTCUSDT stop=29000, limit=29500 - Order ID: 4000000001", lastMessage(activity))
}

func TestPlaceOrder_InvalidInputDoesNotReachExchange(t *testing.T) {
	bot, exchange, activity := newTestBot(t)

	_, err := bot.PlaceMarketOrder(context.Background(), "buy", "-1")

	require.Error(t, err)
	assert.Equal(t, model.KindInvalidInput, model.KindOf(err))
	assert.Equal(t, 0, exchange.Calls("CreateOrder"))
	assert.Equal(t, "Market order failed: Quantity must be positive", lastMessage(activity))
}

func TestPlaceOrder_ExchangeRejectionIsNotRetried(t *testing.T) {
	bot, exchange, activity := newTestBot(t)
	exchange.RejectOrders(&model.ExchangeError{Code: -2019, Message: "Margin is insufficient."})

	_, err := bot.PlaceLimitOrder(context.Background(), "buy", "0.001", "30000")

	require.Error(t, err)
	var exchangeErr *model.ExchangeError
	require.True(t, errors.As(err, &exchangeErr))
	assert.Equal(t, -2019, exchangeErr.Code)
	assert.Equal(t, "Margin is insufficient.", exchangeErr.Message)
	assert.Equal(t, 1, exchange.Calls("CreateOrder"))
	assert.Equal(t, "Limit order failed: APIError(code=-2019): Margin is insufficient.", lastMessage(activity))
}

func TestPlaceOrder_MetadataFailureFallsBackToDefaults(t *testing.T) {
	bot, exchange, activity := newTestBot(t)
	exchange.FailSymbolInfo(errors.New("connection reset"))

	order, err := bot.PlaceLimitOrder(context.Background(), "buy", "0.0016", "30000.126")

	require.NoError(t, err)
	assert.Equal(t, "0.002", *order.OrigQty)
	assert.Equal(t, "30000.13", *order.Price)

	fallback := fallbackEntries(activity)
	require.Len(t, fallback, 1)
	assert.Contains(t, fallback[0], "connection reset")
	assert.True(t, strings.HasSuffix(fallback[0], "Using default precision 3 (quantity), 2 (price)"), fallback[0])
}

func TestPlaceOrder_MetadataFailureMarketReportsQuantityOnly(t *testing.T) {
	bot, exchange, activity := newTestBot(t)
	exchange.FailSymbolInfo(errors.New("connection reset"))

	_, err := bot.PlaceMarketOrder(context.Background(), "sell", "0.001")
	require.NoError(t, err)

	fallback := fallbackEntries(activity)
	require.Len(t, fallback, 1)
	assert.True(t, strings.HasSuffix(fallback[0], "Using default precision 3"), fallback[0])
}

func fallbackEntries(activity *data.InMemoryActivityLog) []string {
	var messages []string
	for _, entry := range activity.All() {
		if strings.HasPrefix(entry.Message, "Error fetching symbol info:") {
			messages = append(messages, entry.Message)
		}
	}
	return messages
}

func TestPlaceOrder_MissingPrecisionFallsBack(t *testing.T) {
	config := mock.DefaultPaperExchangeConfig()
	config.Symbols["BTCUSDT"] = model.SymbolMetadata{Symbol: "BTCUSDT"}
	exchange := mock.NewPaperExchangeWithConfig(config)
	activity := data.NewInMemoryActivityLog()
	bot, err := NewTradingBot(context.Background(), exchange, activity, "BTCUSDT", setupTestLogger())
	require.NoError(t, err)

	_, err = bot.PlaceLimitOrder(context.Background(), "buy", "0.001", "30000")
	require.NoError(t, err)

	var warnings []string
	for _, entry := range activity.All() {
		if strings.HasPrefix(entry.Message, "Warning: Using default") {
			warnings = append(warnings, entry.Message)
		}
	}
	assert.Equal(t, []string{
		"Warning: Using default quantity precision 3 for BTCUSDT",
		"Warning: Using default price precision 2 for BTCUSDT",
	}, warnings)
}

func TestPlaceOrderForm(t *testing.T) {
	bot, _, _ := newTestBot(t)

	tests := []struct {
		name    string
		form    OrderForm
		wantErr bool
	}{
		{name: "market", form: OrderForm{OrderType: "market", Side: "BUY", Quantity: "0.001"}},
		{name: "limit", form: OrderForm{OrderType: "limit", Side: "SELL", Quantity: "0.001", Price: "31000"}},
		{name: "stop limit", form: OrderForm{OrderType: "stop_limit", Side: "BUY", Quantity: "0.001", StopPrice: "29000", LimitPrice: "29100"}},
		{name: "unknown type", form: OrderForm{OrderType: "iceberg", Side: "BUY", Quantity: "0.001"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bot.PlaceOrder(context.Background(), tt.form)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, "Invalid order type", err.Error())
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestGetOrderStatusAndCancel(t *testing.T) {
	bot, _, activity := newTestBot(t)
	ctx := context.Background()

	placed, err := bot.PlaceLimitOrder(ctx, "buy", "0.001", "30000")
	require.NoError(t, err)

	order, err := bot.GetOrderStatus(ctx, *placed.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "NEW", *order.Status)
	assert.Equal(t, "Order status checked: 4000000001 - NEW", lastMessage(activity))

	require.NoError(t, bot.CancelOrder(ctx, *placed.OrderID))
	assert.Equal(t, "Order cancelled: 4000000001 BTCUSDT", lastMessage(activity))

	order, err = bot.GetOrderStatus(ctx, *placed.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "CANCELED", *order.Status)

	err = bot.CancelOrder(ctx, *placed.OrderID)
	assert.Equal(t, model.KindExchangeRejected, model.KindOf(err))
}

func TestGetOrderStatus_Unknown(t *testing.T) {
	bot, _, _ := newTestBot(t)

	_, err := bot.GetOrderStatus(context.Background(), 123)

	var exchangeErr *model.ExchangeError
	require.True(t, errors.As(err, &exchangeErr))
	assert.Equal(t, -2013, exchangeErr.Code)
}

func TestGetBalances(t *testing.T) {
	bot, _, activity := newTestBot(t)

	balances, err := bot.GetBalances(context.Background())

	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "USDT", balances[0].Asset)
	assert.Equal(t, "Balance checked: 1 assets", lastMessage(activity))
}

func TestDescribe_WarnsOnMissingTimestamp(t *testing.T) {
	bot, exchange, activity := newTestBot(t)
	exchange.OmitTimestamps(true)

	order, err := bot.PlaceMarketOrder(context.Background(), "buy", "0.001")
	require.NoError(t, err)

	record := bot.Describe(order)

	assert.Equal(t, model.Unavailable, record.Time)
	assert.Equal(t, "Warning: Order response missing timestamp for order 4000000001", lastMessage(activity))
}
