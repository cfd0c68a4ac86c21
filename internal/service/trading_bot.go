package service

import (
	"TradeTechCircuit/internal/model"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Exchange is the capability set the bot needs from a derivatives exchange
type Exchange interface {
	ServerTime(ctx context.Context) (time.Time, error)
	SymbolInfo(ctx context.Context, symbol string) (*model.SymbolMetadata, error)
	CreateOrder(ctx context.Context, req model.OrderRequest) (model.OrderResponse, error)
	GetOrder(ctx context.Context, symbol string, orderID int64) (model.OrderResponse, error)
	CancelOrder(ctx context.Context, symbol string, orderID int64) error
	Account(ctx context.Context) ([]model.Balance, error)
}

// ActivityLog receives human readable summaries of trading events
type ActivityLog interface {
	Append(message string) model.LogEntry
}

// TradingBot is the session context shared by every request handler.
// It trades a single symbol fixed at construction.
type TradingBot struct {
	exchange Exchange
	activity ActivityLog
	symbol   string
	logger   *slog.Logger
}

// NewTradingBot validates the exchange session and the symbol. Any error here must abort startup.
func NewTradingBot(ctx context.Context, exchange Exchange, activity ActivityLog, symbol string, logger *slog.Logger) (*TradingBot, error) {
	if logger == nil {
		logger = slog.Default()
	}

	b := &TradingBot{
		exchange: exchange,
		activity: activity,
		symbol:   strings.ToUpper(strings.TrimSpace(symbol)),
		logger:   logger,
	}

	if err := b.validateAPIConnection(ctx); err != nil {
		b.initFailed(err)
		return nil, err
	}

	if err := b.validateSymbol(ctx); err != nil {
		b.initFailed(err)
		return nil, err
	}

	b.activity.Append(fmt.Sprintf("TradingBot initialized for %s", b.symbol))
	b.logger.Info("trading bot initialized", "symbol", b.symbol)
	return b, nil
}

// Symbol returns the fixed trading pair
func (b *TradingBot) Symbol() string {
	return b.symbol
}

func (b *TradingBot) validateAPIConnection(ctx context.Context) error {
	serverTime, err := b.exchange.ServerTime(ctx)
	if err != nil {
		b.logger.Error("API connection failed", "error", err)
		b.activity.Append(fmt.Sprintf("API connection failed: %v", err))
		return fmt.Errorf("invalid API key or connection: %w", err)
	}

	b.logger.Info("API connection validated", "server_time", serverTime.UnixMilli())
	b.activity.Append(fmt.Sprintf("API connection validated: Server time = %d", serverTime.UnixMilli()))
	return nil
}

func (b *TradingBot) validateSymbol(ctx context.Context) error {
	info, err := b.exchange.SymbolInfo(ctx, b.symbol)
	if err != nil {
		b.logger.Error("failed to validate symbol", "symbol", b.symbol, "error", err)
		b.activity.Append(fmt.Sprintf("Failed to validate symbol %s: %v", b.symbol, err))
		return fmt.Errorf("failed to validate symbol %s: %w", b.symbol, err)
	}
	if info == nil {
		return fmt.Errorf("symbol %s not found on the exchange", b.symbol)
	}

	b.logger.Info("symbol validated", "symbol", b.symbol)
	b.activity.Append(fmt.Sprintf("Symbol %s validated", b.symbol))
	return nil
}

func (b *TradingBot) initFailed(err error) {
	b.logger.Error("initialization failed", "error", err)
	b.activity.Append(fmt.Sprintf("Initialization failed: %v", err))
}

// precision fetches symbol metadata and falls back to the defaults when it is missing.
// The fallback is a degraded continuation, never a failure.
func (b *TradingBot) precision(ctx context.Context, needPrice bool) Precision {
	precision := DefaultPrecision()

	info, err := b.exchange.SymbolInfo(ctx, b.symbol)
	if err != nil {
		err = fmt.Errorf("%w: %v", model.ErrMetadataUnavailable, err)
		b.logger.Warn("error fetching symbol info, using default precision",
			"symbol", b.symbol,
			"quantity_precision", precision.Quantity,
			"price_precision", precision.Price,
			"error", err)
		if needPrice {
			b.activity.Append(fmt.Sprintf("Error fetching symbol info: %v. Using default precision %d (quantity), %d (price)",
				err, precision.Quantity, precision.Price))
		} else {
			b.activity.Append(fmt.Sprintf("Error fetching symbol info: %v. Using default precision %d", err, precision.Quantity))
		}
		return precision
	}

	if info == nil || info.QuantityPrecision == nil {
		b.logger.Warn("symbol info missing quantityPrecision, using default",
			"symbol", b.symbol,
			"precision", precision.Quantity)
		b.activity.Append(fmt.Sprintf("Warning: Using default quantity precision %d for %s", precision.Quantity, b.symbol))
	} else {
		precision.Quantity = *info.QuantityPrecision
	}

	if !needPrice {
		return precision
	}

	if info == nil || info.PricePrecision == nil {
		b.logger.Warn("symbol info missing pricePrecision, using default",
			"symbol", b.symbol,
			"precision", precision.Price)
		b.activity.Append(fmt.Sprintf("Warning: Using default price precision %d for %s", precision.Price, b.symbol))
	} else {
		precision.Price = *info.PricePrecision
	}

	return precision
}

// PlaceOrder routes a form submission to the builder for its order type
func (b *TradingBot) PlaceOrder(ctx context.Context, form OrderForm) (model.OrderResponse, error) {
	switch strings.ToLower(strings.TrimSpace(form.OrderType)) {
	case "market":
		return b.PlaceMarketOrder(ctx, form.Side, form.Quantity)
	case "limit":
		return b.PlaceLimitOrder(ctx, form.Side, form.Quantity, form.Price)
	case "stop_limit":
		return b.PlaceStopLimitOrder(ctx, form.Side, form.Quantity, form.StopPrice, form.LimitPrice)
	default:
		return model.OrderResponse{}, model.NewValidationError("order_type", "Invalid order type")
	}
}

// PlaceMarketOrder submits a market order. Placement is at most once; nothing is retried.
func (b *TradingBot) PlaceMarketOrder(ctx context.Context, side, quantity string) (model.OrderResponse, error) {
	const label = "Market order"

	req, err := BuildMarketOrder(b.symbol, side, quantity, b.precision(ctx, false))
	if err != nil {
		return model.OrderResponse{}, b.orderFailed(label, err)
	}

	b.activity.Append(fmt.Sprintf("Attempting market order: %s %s %s", req.Side, req.Quantity, b.symbol))
	return b.submit(ctx, label, req, "")
}

// PlaceLimitOrder submits a GTC limit order
func (b *TradingBot) PlaceLimitOrder(ctx context.Context, side, quantity, price string) (model.OrderResponse, error) {
	const label = "Limit order"

	req, err := BuildLimitOrder(b.symbol, side, quantity, price, b.precision(ctx, true))
	if err != nil {
		return model.OrderResponse{}, b.orderFailed(label, err)
	}

	return b.submit(ctx, label, req, fmt.Sprintf(" at %s", req.Price))
}

// PlaceStopLimitOrder submits a GTC limit order that activates once stopPrice is crossed
func (b *TradingBot) PlaceStopLimitOrder(ctx context.Context, side, quantity, stopPrice, limitPrice string) (model.OrderResponse, error) {
	const label = "Stop-limit order"

	req, err := BuildStopLimitOrder(b.symbol, side, quantity, stopPrice, limitPrice, b.precision(ctx, true))
	if err != nil {
		return model.OrderResponse{}, b.orderFailed(label, err)
	}

	return b.submit(ctx, label, req, fmt.Sprintf(" stop=%s, limit=%s", req.StopPrice, req.Price))
}

func (b *TradingBot) submit(ctx context.Context, label string, req model.OrderRequest, detail string) (model.OrderResponse, error) {
	b.logger.Info("submitting order",
		"kind", req.Kind,
		"side", req.Side,
		"quantity", req.Quantity.String(),
		"symbol", req.Symbol)

	order, err := b.exchange.CreateOrder(ctx, req)
	if err != nil {
		return model.OrderResponse{}, b.orderFailed(label, err)
	}

	orderID := orderIDString(order)
	b.logger.Info("order placed", "kind", req.Kind, "order_id", orderID)
	b.logger.Debug("full order response", "order", order)
	b.activity.Append(fmt.Sprintf("%s placed: %s %s %s%s - Order ID: %s",
		label, req.Side, req.Quantity, b.symbol, detail, orderID))
	return order, nil
}

// orderFailed records a failed order action and returns err unchanged
func (b *TradingBot) orderFailed(label string, err error) error {
	var exchangeErr *model.ExchangeError
	switch {
	case errors.As(err, &exchangeErr):
		b.logger.Error(strings.ToLower(label)+" rejected",
			"code", exchangeErr.Code,
			"message", exchangeErr.Message)
	case model.KindOf(err) == model.KindInvalidInput:
		b.logger.Info(strings.ToLower(label)+" invalid", "reason", err.Error())
	default:
		b.logger.Error(strings.ToLower(label)+" failed", "error", err)
	}

	b.activity.Append(fmt.Sprintf("%s failed: %v", label, err))
	return err
}

// GetOrderStatus fetches an order of the bot's symbol
func (b *TradingBot) GetOrderStatus(ctx context.Context, orderID int64) (model.OrderResponse, error) {
	order, err := b.exchange.GetOrder(ctx, b.symbol, orderID)
	if err != nil {
		return model.OrderResponse{}, b.orderFailed("Order status check", err)
	}

	status := model.Unavailable
	if order.Status != nil {
		status = *order.Status
	}
	b.logger.Info("order status checked", "order_id", orderIDString(order), "status", status)
	b.activity.Append(fmt.Sprintf("Order status checked: %s - %s", orderIDString(order), status))
	return order, nil
}

// CancelOrder cancels an open order of the bot's symbol
func (b *TradingBot) CancelOrder(ctx context.Context, orderID int64) error {
	if err := b.exchange.CancelOrder(ctx, b.symbol, orderID); err != nil {
		return b.orderFailed("Order cancel", err)
	}

	b.logger.Info("order cancelled", "order_id", orderID)
	b.activity.Append(fmt.Sprintf("Order cancelled: %d %s", orderID, b.symbol))
	return nil
}

// GetBalances returns the account balances
func (b *TradingBot) GetBalances(ctx context.Context) ([]model.Balance, error) {
	balances, err := b.exchange.Account(ctx)
	if err != nil {
		return nil, b.orderFailed("Balance check", err)
	}

	b.logger.Info("balance checked", "assets", len(balances))
	b.activity.Append(fmt.Sprintf("Balance checked: %d assets", len(balances)))
	return balances, nil
}

// Describe formats an order for display and records a warning when it carries no timestamp
func (b *TradingBot) Describe(order model.OrderResponse) model.OrderRecord {
	record := FormatOrderDetails(order)
	if record.Time == model.Unavailable {
		b.logger.Warn("order response missing time and transactTime", "order", order)
		b.activity.Append(fmt.Sprintf("Warning: Order response missing timestamp for order %s", record.OrderID))
	}
	return record
}

func orderIDString(order model.OrderResponse) string {
	if order.OrderID == nil {
		return model.Unavailable
	}
	return strconv.FormatInt(*order.OrderID, 10)
}
