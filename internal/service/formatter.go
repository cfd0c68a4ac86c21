package service

import (
	"TradeTechCircuit/internal/model"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// RecordTimeLayout is the display format of order timestamps (UTC)
const RecordTimeLayout = "2006-01-02 15:04:05"

// FormatOrderDetails projects a raw exchange order onto its display record.
// It has no side effects so the form and chat surfaces render orders identically.
func FormatOrderDetails(order model.OrderResponse) model.OrderRecord {
	record := model.OrderRecord{
		OrderID:  model.Unavailable,
		Symbol:   stringOrUnavailable(order.Symbol),
		Side:     stringOrUnavailable(order.Side),
		Type:     stringOrUnavailable(order.Type),
		Quantity: stringOrUnavailable(order.OrigQty),
		Status:   stringOrUnavailable(order.Status),
		Time:     model.Unavailable,
	}

	if order.OrderID != nil {
		record.OrderID = strconv.FormatInt(*order.OrderID, 10)
	}

	// transactTime is the fallback; a missing time is never replaced with now
	timestamp := order.Time
	if timestamp == nil || *timestamp == 0 {
		timestamp = order.TransactTime
	}
	if timestamp != nil && *timestamp != 0 {
		record.Time = time.UnixMilli(*timestamp).UTC().Format(RecordTimeLayout)
	}

	if isMeaningfulPrice(order.Price) {
		record.Price = *order.Price
	}
	if isMeaningfulPrice(order.StopPrice) {
		record.StopPrice = *order.StopPrice
	}

	return record
}

func stringOrUnavailable(value *string) string {
	if value == nil || *value == "" {
		return model.Unavailable
	}
	return *value
}

// isMeaningfulPrice reports whether a price is present and not zero ("0", "0.00")
func isMeaningfulPrice(value *string) bool {
	if value == nil || *value == "" {
		return false
	}
	parsed, err := decimal.NewFromString(*value)
	if err != nil {
		return *value != "0"
	}
	return !parsed.IsZero()
}
