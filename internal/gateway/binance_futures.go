package gateway

import (
	"TradeTechCircuit/internal/model"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Futures REST base URLs
const (
	TestnetBaseURL    = "https://testnet.binancefuture.com"
	ProductionBaseURL = "https://fapi.binance.com"
)

const (
	apiKeyHeader = "X-MBX-APIKEY"
	recvWindow   = "5000"
)

// BinanceFuturesConfig holds credentials and endpoint for the gateway
type BinanceFuturesConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string
}

// BinanceFuturesGateway talks to the USDT-margined futures REST API
type BinanceFuturesGateway struct {
	httpClient *HTTPClient
	config     BinanceFuturesConfig
	now        func() time.Time
	logger     *slog.Logger
}

// NewBinanceFuturesGateway creates a gateway. An empty BaseURL selects the testnet.
func NewBinanceFuturesGateway(httpClient *HTTPClient, config BinanceFuturesConfig, logger *slog.Logger) *BinanceFuturesGateway {
	if config.BaseURL == "" {
		config.BaseURL = TestnetBaseURL
	}
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &BinanceFuturesGateway{
		httpClient: httpClient,
		config:     config,
		now:        time.Now,
		logger:     logger,
	}
}

// BaseURLFor returns the REST endpoint for testnet or production
func BaseURLFor(testnet bool) string {
	if testnet {
		return TestnetBaseURL
	}
	return ProductionBaseURL
}

type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

type orderPayload struct {
	model.OrderResponse
	UpdateTime *int64 `json:"updateTime,omitempty"`
}

// toResponse maps futures updateTime onto transactTime when the latter is absent
func (p orderPayload) toResponse() model.OrderResponse {
	response := p.OrderResponse
	if response.TransactTime == nil && p.UpdateTime != nil {
		updateTime := *p.UpdateTime
		response.TransactTime = &updateTime
	}
	return response
}

// ServerTime returns the exchange clock
func (g *BinanceFuturesGateway) ServerTime(ctx context.Context) (time.Time, error) {
	var payload struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := g.call(ctx, http.MethodGet, "/fapi/v1/time", nil, false, &payload); err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(payload.ServerTime), nil
}

// SymbolInfo returns the precision rules of symbol, or nil when it is not listed
func (g *BinanceFuturesGateway) SymbolInfo(ctx context.Context, symbol string) (*model.SymbolMetadata, error) {
	var payload struct {
		Symbols []model.SymbolMetadata `json:"symbols"`
	}
	if err := g.call(ctx, http.MethodGet, "/fapi/v1/exchangeInfo", nil, false, &payload); err != nil {
		return nil, err
	}

	for _, info := range payload.Symbols {
		if info.Symbol == symbol {
			found := info
			return &found, nil
		}
	}
	return nil, nil
}

// CreateOrder submits a new order. Stop-limit orders are sent as the futures STOP type.
func (g *BinanceFuturesGateway) CreateOrder(ctx context.Context, req model.OrderRequest) (model.OrderResponse, error) {
	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", string(req.Side))
	params.Set("quantity", req.Quantity.String())
	params.Set("newClientOrderId", uuid.NewString())

	switch req.Kind {
	case model.KindStopLimit:
		params.Set("type", "STOP")
	default:
		params.Set("type", string(req.Kind))
	}

	if req.Price != nil {
		params.Set("price", req.Price.String())
	}
	if req.StopPrice != nil {
		params.Set("stopPrice", req.StopPrice.String())
	}
	if req.TimeInForce != "" {
		params.Set("timeInForce", string(req.TimeInForce))
	}

	var payload orderPayload
	if err := g.call(ctx, http.MethodPost, "/fapi/v1/order", params, true, &payload); err != nil {
		return model.OrderResponse{}, err
	}

	g.logger.Debug("order accepted by exchange",
		"symbol", req.Symbol,
		"client_order_id", params.Get("newClientOrderId"),
		"type", params.Get("type"))

	return payload.toResponse(), nil
}

// GetOrder queries an order by ID
func (g *BinanceFuturesGateway) GetOrder(ctx context.Context, symbol string, orderID int64) (model.OrderResponse, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", strconv.FormatInt(orderID, 10))

	var payload orderPayload
	if err := g.call(ctx, http.MethodGet, "/fapi/v1/order", params, true, &payload); err != nil {
		return model.OrderResponse{}, err
	}
	return payload.toResponse(), nil
}

// CancelOrder cancels an open order by ID
func (g *BinanceFuturesGateway) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", strconv.FormatInt(orderID, 10))

	return g.call(ctx, http.MethodDelete, "/fapi/v1/order", params, true, nil)
}

// Account returns the futures wallet balances
func (g *BinanceFuturesGateway) Account(ctx context.Context) ([]model.Balance, error) {
	var payload []struct {
		Asset            string          `json:"asset"`
		Balance          decimal.Decimal `json:"balance"`
		AvailableBalance decimal.Decimal `json:"availableBalance"`
	}
	if err := g.call(ctx, http.MethodGet, "/fapi/v2/balance", nil, true, &payload); err != nil {
		return nil, err
	}

	balances := make([]model.Balance, 0, len(payload))
	for _, b := range payload {
		balances = append(balances, model.Balance{
			Asset:            b.Asset,
			WalletBalance:    b.Balance,
			AvailableBalance: b.AvailableBalance,
		})
	}
	return balances, nil
}

// call sends one request and decodes the body into out. Non-2xx bodies are decoded as the {code,msg} envelope.
func (g *BinanceFuturesGateway) call(ctx context.Context, method, path string, params url.Values, signed bool, out any) error {
	if params == nil {
		params = url.Values{}
	}

	headers := map[string]string{}
	query := params.Encode()
	if signed {
		params.Set("timestamp", strconv.FormatInt(g.now().UnixMilli(), 10))
		params.Set("recvWindow", recvWindow)
		query = params.Encode()
		query += "&signature=" + g.sign(query)
		headers[apiKeyHeader] = g.config.APIKey
	}

	endpoint := g.config.BaseURL + path
	if query != "" {
		endpoint += "?" + query
	}

	body, status, err := g.httpClient.Do(ctx, method, endpoint, headers)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}

	if status < 200 || status >= 300 {
		var envelope apiError
		if err := json.Unmarshal(body, &envelope); err != nil || envelope.Code == 0 {
			return fmt.Errorf("unexpected status %d from %s %s: %s", status, method, path, string(body))
		}
		g.logger.Debug("exchange rejected request", "path", path, "code", envelope.Code, "msg", envelope.Msg)
		return &model.ExchangeError{Code: envelope.Code, Message: envelope.Msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s response: %w", path, err)
	}
	return nil
}

// sign returns the hex HMAC-SHA256 of the query string keyed by the API secret
func (g *BinanceFuturesGateway) sign(query string) string {
	h := hmac.New(sha256.New, []byte(g.config.APISecret))
	h.Write([]byte(query))
	return hex.EncodeToString(h.Sum(nil))
}
