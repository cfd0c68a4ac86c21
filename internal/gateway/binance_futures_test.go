package gateway

import (
	"TradeTechCircuit/internal/model"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGateway(t *testing.T, handler http.HandlerFunc) *BinanceFuturesGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	g := NewBinanceFuturesGateway(NewHTTPClient(), BinanceFuturesConfig{
		APIKey:    "test-key",
		APISecret: "test-secret",
		BaseURL:   server.URL,
	}, setupTestLogger())
	g.now = func() time.Time { return time.UnixMilli(1704164645000) }
	return g
}

// verifySignature checks that the trailing signature matches the rest of the query
func verifySignature(t *testing.T, r *http.Request) {
	t.Helper()
	raw := r.URL.RawQuery
	idx := strings.LastIndex(raw, "&signature=")
	require.NotEqual(t, -1, idx, "request is not signed")

	h := hmac.New(sha256.New, []byte("test-secret"))
	h.Write([]byte(raw[:idx]))
	assert.Equal(t, hex.EncodeToString(h.Sum(nil)), raw[idx+len("&signature="):])
	assert.Equal(t, "test-key", r.Header.Get("X-MBX-APIKEY"))
	assert.Equal(t, "1704164645000", r.URL.Query().Get("timestamp"))
}

func TestBaseURLFor(t *testing.T) {
	assert.Equal(t, TestnetBaseURL, BaseURLFor(true))
	assert.Equal(t, ProductionBaseURL, BaseURLFor(false))
}

func TestNewBinanceFuturesGateway_DefaultsToTestnet(t *testing.T) {
	g := NewBinanceFuturesGateway(nil, BinanceFuturesConfig{}, nil)
	assert.Equal(t, TestnetBaseURL, g.config.BaseURL)
	assert.NotNil(t, g.httpClient)
}

func TestServerTime(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/time", r.URL.Path)
		assert.Empty(t, r.Header.Get("X-MBX-APIKEY"))
		w.Write([]byte(`{"serverTime":1704164645000}`))
	})

	now, err := g.ServerTime(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(1704164645000), now.UnixMilli())
}

func TestSymbolInfo(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/exchangeInfo", r.URL.Path)
		w.Write([]byte(`{"symbols":[
			{"symbol":"ETHUSDT","quantityPrecision":3,"pricePrecision":2},
			{"symbol":"BTCUSDT","quantityPrecision":3,"pricePrecision":1,"status":"TRADING"},
			{"symbol":"XRPUSDT"}
		]}`))
	})

	info, err := g.SymbolInfo(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, int32(3), *info.QuantityPrecision)
	assert.Equal(t, int32(1), *info.PricePrecision)

	info, err = g.SymbolInfo(context.Background(), "XRPUSDT")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Nil(t, info.QuantityPrecision)
	assert.Nil(t, info.PricePrecision)

	info, err = g.SymbolInfo(context.Background(), "DOGEUSDT")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestCreateOrder_Market(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/fapi/v1/order", r.URL.Path)
		verifySignature(t, r)

		q := r.URL.Query()
		assert.Equal(t, "BTCUSDT", q.Get("symbol"))
		assert.Equal(t, "BUY", q.Get("side"))
		assert.Equal(t, "MARKET", q.Get("type"))
		assert.Equal(t, "0.001", q.Get("quantity"))
		assert.NotEmpty(t, q.Get("newClientOrderId"))
		assert.Empty(t, q.Get("price"))
		assert.Empty(t, q.Get("timeInForce"))

		w.Write([]byte(`{"orderId":4052,"clientOrderId":"abc","symbol":"BTCUSDT","side":"BUY","type":"MARKET",
			"origQty":"0.001","status":"NEW","price":"0","stopPrice":"0","updateTime":1704164645000}`))
	})

	order, err := g.CreateOrder(context.Background(), model.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     model.SideBuy,
		Kind:     model.KindMarket,
		Quantity: decimal.RequireFromString("0.001"),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(4052), *order.OrderID)
	assert.Equal(t, "NEW", *order.Status)
	require.NotNil(t, order.TransactTime)
	assert.Equal(t, int64(1704164645000), *order.TransactTime)
}

func TestCreateOrder_StopLimitSentAsStop(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		verifySignature(t, r)

		q := r.URL.Query()
		assert.Equal(t, "STOP", q.Get("type"))
		assert.Equal(t, "29500", q.Get("price"))
		assert.Equal(t, "29000", q.Get("stopPrice"))
		assert.Equal(t, "GTC", q.Get("timeInForce"))

		w.Write([]byte(`{"orderId":7,"type":"STOP","status":"NEW","transactTime":1,"updateTime":2}`))
	})

	price := decimal.RequireFromString("29500")
	stop := decimal.RequireFromString("29000")
	order, err := g.CreateOrder(context.Background(), model.OrderRequest{
		Symbol:      "BTCUSDT",
		Side:        model.SideBuy,
		Kind:        model.KindStopLimit,
		Quantity:    decimal.RequireFromString("0.001"),
		Price:       &price,
		StopPrice:   &stop,
		TimeInForce: model.TimeInForceGTC,
	})

	require.NoError(t, err)
	assert.Equal(t, "STOP", *order.Type)
	// transactTime wins when both are present
	assert.Equal(t, int64(1), *order.TransactTime)
}

func TestCreateOrder_ExchangeRejection(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-2019,"msg":"Margin is insufficient."}`))
	})

	_, err := g.CreateOrder(context.Background(), model.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     model.SideBuy,
		Kind:     model.KindMarket,
		Quantity: decimal.NewFromInt(10),
	})

	var exchangeErr *model.ExchangeError
	require.True(t, errors.As(err, &exchangeErr))
	assert.Equal(t, -2019, exchangeErr.Code)
	assert.Equal(t, "Margin is insufficient.", exchangeErr.Message)
	assert.Equal(t, model.KindExchangeRejected, model.KindOf(err))
}

func TestCall_UnexpectedStatusWithoutEnvelope(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>bad gateway</html>`))
	})

	_, err := g.ServerTime(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
	assert.Equal(t, model.KindUnexpected, model.KindOf(err))
}

func TestCall_MalformedBody(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})

	_, err := g.ServerTime(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal")
}

func TestCall_ContextCancelled(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"serverTime":1}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.ServerTime(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetOrder(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		verifySignature(t, r)
		assert.Equal(t, "4052", r.URL.Query().Get("orderId"))

		w.Write([]byte(`{"orderId":4052,"symbol":"BTCUSDT","status":"FILLED","time":1704164645000,"updateTime":1704164646000}`))
	})

	order, err := g.GetOrder(context.Background(), "BTCUSDT", 4052)

	require.NoError(t, err)
	assert.Equal(t, "FILLED", *order.Status)
	assert.Equal(t, int64(1704164645000), *order.Time)
}

func TestCancelOrder(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		verifySignature(t, r)

		if r.URL.Query().Get("orderId") == "1" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":-2011,"msg":"Unknown order sent."}`))
			return
		}
		w.Write([]byte(`{"orderId":2,"status":"CANCELED"}`))
	})

	assert.NoError(t, g.CancelOrder(context.Background(), "BTCUSDT", 2))

	err := g.CancelOrder(context.Background(), "BTCUSDT", 1)
	var exchangeErr *model.ExchangeError
	require.True(t, errors.As(err, &exchangeErr))
	assert.Equal(t, -2011, exchangeErr.Code)
}

func TestAccount(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v2/balance", r.URL.Path)
		verifySignature(t, r)

		w.Write([]byte(`[
			{"accountAlias":"x","asset":"USDT","balance":"15000.00000000","availableBalance":"14950.5"},
			{"asset":"BNB","balance":"0.5","availableBalance":"0.5"}
		]`))
	})

	balances, err := g.Account(context.Background())

	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, "USDT", balances[0].Asset)
	assert.True(t, balances[0].WalletBalance.Equal(decimal.NewFromInt(15000)))
	assert.True(t, balances[0].AvailableBalance.Equal(decimal.RequireFromString("14950.5")))
	assert.Equal(t, "BNB", balances[1].Asset)
}
