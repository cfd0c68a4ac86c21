package mock

import (
	"TradeTechCircuit/internal/model"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order statuses reported by the paper exchange
const (
	StatusNew      = "NEW"
	StatusFilled   = "FILLED"
	StatusCanceled = "CANCELED"
)

// PaperExchangeConfig holds configuration for the paper exchange
type PaperExchangeConfig struct {
	Symbols    map[string]model.SymbolMetadata
	MarkPrices map[string]decimal.Decimal
	Balances   []model.Balance
}

// DefaultPaperExchangeConfig returns a BTCUSDT futures account funded with testnet USDT
func DefaultPaperExchangeConfig() PaperExchangeConfig {
	quantityPrecision := int32(3)
	pricePrecision := int32(2)

	return PaperExchangeConfig{
		Symbols: map[string]model.SymbolMetadata{
			"BTCUSDT": {
				Symbol:            "BTCUSDT",
				QuantityPrecision: &quantityPrecision,
				PricePrecision:    &pricePrecision,
			},
		},
		MarkPrices: map[string]decimal.Decimal{
			"BTCUSDT": decimal.NewFromInt(50000),
		},
		Balances: []model.Balance{
			{
				Asset:            "USDT",
				WalletBalance:    decimal.NewFromInt(15000),
				AvailableBalance: decimal.NewFromInt(15000),
			},
		},
	}
}

// PaperExchange is an in-memory derivatives exchange used for offline runs and tests.
// Market orders fill immediately at the mark price, limit and stop orders rest as NEW.
type PaperExchange struct {
	config        PaperExchangeConfig
	orders        map[int64]model.OrderResponse
	nextOrderID   int64
	symbolInfoErr error
	rejectWith    *model.ExchangeError
	omitTimestamp bool
	calls         map[string]int
	now           func() time.Time
	mu            sync.Mutex
}

// NewPaperExchange creates a paper exchange with default config
func NewPaperExchange() *PaperExchange {
	return NewPaperExchangeWithConfig(DefaultPaperExchangeConfig())
}

// NewPaperExchangeWithConfig creates a paper exchange with custom config
func NewPaperExchangeWithConfig(config PaperExchangeConfig) *PaperExchange {
	return &PaperExchange{
		config:      config,
		orders:      make(map[int64]model.OrderResponse),
		nextOrderID: 4000000001,
		calls:       make(map[string]int),
		now:         time.Now,
	}
}

// FailSymbolInfo makes SymbolInfo return err until called again with nil
func (p *PaperExchange) FailSymbolInfo(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.symbolInfoErr = err
}

// RejectOrders makes CreateOrder reject with err until called again with nil
func (p *PaperExchange) RejectOrders(err *model.ExchangeError) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejectWith = err
}

// OmitTimestamps drops time and transactTime from order responses
func (p *PaperExchange) OmitTimestamps(omit bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitTimestamp = omit
}

// Calls returns how often the named method was invoked
func (p *PaperExchange) Calls(method string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[method]
}

// TotalCalls returns the number of calls across all methods
func (p *PaperExchange) TotalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, n := range p.calls {
		total += n
	}
	return total
}

func (p *PaperExchange) ServerTime(ctx context.Context) (time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls["ServerTime"]++

	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	return p.now(), nil
}

func (p *PaperExchange) SymbolInfo(ctx context.Context, symbol string) (*model.SymbolMetadata, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls["SymbolInfo"]++

	if p.symbolInfoErr != nil {
		return nil, p.symbolInfoErr
	}

	info, exists := p.config.Symbols[symbol]
	if !exists {
		return nil, nil
	}
	return &info, nil
}

func (p *PaperExchange) CreateOrder(ctx context.Context, req model.OrderRequest) (model.OrderResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls["CreateOrder"]++

	if p.rejectWith != nil {
		return model.OrderResponse{}, p.rejectWith
	}

	info, exists := p.config.Symbols[req.Symbol]
	if !exists {
		return model.OrderResponse{}, &model.ExchangeError{Code: -1121, Message: "Invalid symbol."}
	}
	if exceedsPrecision(req.Quantity, info.QuantityPrecision) ||
		(req.Price != nil && exceedsPrecision(*req.Price, info.PricePrecision)) ||
		(req.StopPrice != nil && exceedsPrecision(*req.StopPrice, info.PricePrecision)) {
		return model.OrderResponse{}, &model.ExchangeError{Code: -1111, Message: "Precision is over the maximum defined for this asset."}
	}

	price := p.config.MarkPrices[req.Symbol]
	if req.Price != nil {
		price = *req.Price
	}
	if req.Quantity.Mul(price).GreaterThan(p.available()) {
		return model.OrderResponse{}, &model.ExchangeError{Code: -2019, Message: "Margin is insufficient."}
	}

	orderID := p.nextOrderID
	p.nextOrderID++

	status := StatusNew
	if req.Kind == model.KindMarket {
		status = StatusFilled
	}

	orderType := string(req.Kind)
	if req.Kind == model.KindStopLimit {
		orderType = "STOP"
	}

	order := model.OrderResponse{
		OrderID:       &orderID,
		ClientOrderID: stringPtr(uuid.NewString()),
		Symbol:        stringPtr(req.Symbol),
		Side:          stringPtr(string(req.Side)),
		Type:          stringPtr(orderType),
		OrigQty:       stringPtr(req.Quantity.String()),
		Status:        stringPtr(status),
		Price:         stringPtr("0"),
		StopPrice:     stringPtr("0"),
	}
	if req.Price != nil {
		order.Price = stringPtr(req.Price.String())
	}
	if req.StopPrice != nil {
		order.StopPrice = stringPtr(req.StopPrice.String())
	}

	p.orders[orderID] = order

	response := order
	if !p.omitTimestamp {
		transactTime := p.now().UnixMilli()
		response.TransactTime = &transactTime

		stored := p.orders[orderID]
		stored.Time = &transactTime
		p.orders[orderID] = stored
	}
	return response, nil
}

func (p *PaperExchange) GetOrder(ctx context.Context, symbol string, orderID int64) (model.OrderResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls["GetOrder"]++

	order, exists := p.orders[orderID]
	if !exists || order.Symbol == nil || *order.Symbol != symbol {
		return model.OrderResponse{}, &model.ExchangeError{Code: -2013, Message: "Order does not exist."}
	}

	if p.omitTimestamp {
		order.Time = nil
		order.TransactTime = nil
	}
	return order, nil
}

func (p *PaperExchange) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls["CancelOrder"]++

	order, exists := p.orders[orderID]
	if !exists || order.Symbol == nil || *order.Symbol != symbol || *order.Status != StatusNew {
		return &model.ExchangeError{Code: -2011, Message: "Unknown order sent."}
	}

	order.Status = stringPtr(StatusCanceled)
	p.orders[orderID] = order
	return nil
}

func (p *PaperExchange) Account(ctx context.Context) ([]model.Balance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls["Account"]++

	balances := make([]model.Balance, len(p.config.Balances))
	copy(balances, p.config.Balances)
	return balances, nil
}

// MarkPrice returns the current mark price for symbol
func (p *PaperExchange) MarkPrice(symbol string) (decimal.Decimal, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	price, exists := p.config.MarkPrices[symbol]
	return price, exists
}

// Symbols returns the listed symbols
func (p *PaperExchange) Symbols() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	symbols := make([]string, 0, len(p.config.Symbols))
	for symbol := range p.config.Symbols {
		symbols = append(symbols, symbol)
	}
	return symbols
}

// UpdateMarkPrice moves the mark price of symbol and fills resting orders it crosses.
// It returns the IDs of the orders that filled.
func (p *PaperExchange) UpdateMarkPrice(symbol string, price decimal.Decimal) []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.config.MarkPrices == nil {
		p.config.MarkPrices = make(map[string]decimal.Decimal)
	}
	p.config.MarkPrices[symbol] = price

	var filled []int64
	for id, order := range p.orders {
		if order.Symbol == nil || *order.Symbol != symbol || *order.Status != StatusNew {
			continue
		}
		if crosses(order, price) {
			order.Status = stringPtr(StatusFilled)
			p.orders[id] = order
			filled = append(filled, id)
		}
	}
	sort.Slice(filled, func(i, j int) bool { return filled[i] < filled[j] })
	return filled
}

// crosses reports whether mark reaches the order's limit or stop trigger
func crosses(order model.OrderResponse, mark decimal.Decimal) bool {
	buy := order.Side != nil && *order.Side == string(model.SideBuy)

	if order.Type != nil && *order.Type == "STOP" {
		stop, err := decimal.NewFromString(*order.StopPrice)
		if err != nil {
			return false
		}
		if buy {
			return mark.GreaterThanOrEqual(stop)
		}
		return mark.LessThanOrEqual(stop)
	}

	limit, err := decimal.NewFromString(*order.Price)
	if err != nil {
		return false
	}
	if buy {
		return mark.LessThanOrEqual(limit)
	}
	return mark.GreaterThanOrEqual(limit)
}

// available returns the USDT margin that can back a new order. Caller holds mu.
func (p *PaperExchange) available() decimal.Decimal {
	for _, balance := range p.config.Balances {
		if balance.Asset == "USDT" {
			return balance.AvailableBalance
		}
	}
	return decimal.Zero
}

func exceedsPrecision(value decimal.Decimal, precision *int32) bool {
	if precision == nil {
		return false
	}
	return !value.Equal(value.Truncate(*precision))
}

func stringPtr(s string) *string {
	return &s
}
