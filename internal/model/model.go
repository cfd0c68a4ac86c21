package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Unavailable marks a display field the exchange did not report
const Unavailable = "N/A"

// Fallback precisions used when symbol metadata is missing or cannot be fetched
const (
	DefaultQuantityPrecision int32 = 3
	DefaultPricePrecision    int32 = 2
)

// Side is the direction of an order
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide accepts buy/sell in any case
func ParseSide(raw string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(raw))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	default:
		return "", NewValidationError("side", fmt.Sprintf("side must be BUY or SELL, got %q", raw))
	}
}

// OrderKind is one of the three supported order types
type OrderKind string

const (
	KindMarket    OrderKind = "MARKET"
	KindLimit     OrderKind = "LIMIT"
	KindStopLimit OrderKind = "STOP_LIMIT"
)

// TimeInForce for resting orders
type TimeInForce string

const TimeInForceGTC TimeInForce = "GTC"

// SymbolMetadata holds the precision rules of a trading pair.
// A nil precision means the exchange did not report it.
type SymbolMetadata struct {
	Symbol            string `json:"symbol"`
	QuantityPrecision *int32 `json:"quantityPrecision,omitempty"`
	PricePrecision    *int32 `json:"pricePrecision,omitempty"`
}

// OrderRequest is a validated order ready to be sent to the exchange
type OrderRequest struct {
	Symbol      string
	Side        Side
	Kind        OrderKind
	Quantity    decimal.Decimal
	Price       *decimal.Decimal
	StopPrice   *decimal.Decimal
	TimeInForce TimeInForce
}

// OrderResponse is the raw order payload returned by the exchange.
// Every field is optional because different endpoints report different subsets.
type OrderResponse struct {
	OrderID       *int64  `json:"orderId,omitempty"`
	ClientOrderID *string `json:"clientOrderId,omitempty"`
	Symbol        *string `json:"symbol,omitempty"`
	Side          *string `json:"side,omitempty"`
	Type          *string `json:"type,omitempty"`
	OrigQty       *string `json:"origQty,omitempty"`
	Status        *string `json:"status,omitempty"`
	Time          *int64  `json:"time,omitempty"`
	TransactTime  *int64  `json:"transactTime,omitempty"`
	Price         *string `json:"price,omitempty"`
	StopPrice     *string `json:"stopPrice,omitempty"`
}

// OrderRecord is the display projection of an order shared by the form and chat surfaces
type OrderRecord struct {
	OrderID   string `json:"order_id"`
	Symbol    string `json:"symbol"`
	Side      string `json:"side"`
	Type      string `json:"type"`
	Quantity  string `json:"quantity"`
	Status    string `json:"status"`
	Time      string `json:"time"`
	Price     string `json:"price,omitempty"`
	StopPrice string `json:"stop_price,omitempty"`
}

// Balance is a single asset balance of the futures account
type Balance struct {
	Asset            string          `json:"asset"`
	WalletBalance    decimal.Decimal `json:"walletBalance"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
}

// LogEntry is one line of the activity log
type LogEntry struct {
	Timestamp string `json:"timestamp"` // "2006-01-02 | 15:04:05"
	Message   string `json:"message"`
}

// String renders the entry as a single display line
func (e LogEntry) String() string {
	return e.Timestamp + " - " + e.Message
}
