package service

import (
	"TradeTechCircuit/internal/model"
	"fmt"
	"strconv"
	"strings"
)

// OrderForm carries the raw fields of the order form surface
type OrderForm struct {
	OrderType  string `form:"order_type" json:"order_type"`
	Side       string `form:"side" json:"side"`
	Quantity   string `form:"quantity" json:"quantity"`
	Price      string `form:"price" json:"price"`
	StopPrice  string `form:"stop_price" json:"stop_price"`
	LimitPrice string `form:"limit_price" json:"limit_price"`
}

// BuildMarketOrder validates side and quantity into a market order request
func BuildMarketOrder(symbol, side, quantityRaw string, precision Precision) (model.OrderRequest, error) {
	parsedSide, err := model.ParseSide(side)
	if err != nil {
		return model.OrderRequest{}, err
	}

	quantity, err := ValidateQuantity(quantityRaw, precision.Quantity)
	if err != nil {
		return model.OrderRequest{}, err
	}

	return model.OrderRequest{
		Symbol:   symbol,
		Side:     parsedSide,
		Kind:     model.KindMarket,
		Quantity: quantity,
	}, nil
}

// BuildLimitOrder validates quantity and price independently and reports the first failure
func BuildLimitOrder(symbol, side, quantityRaw, priceRaw string, precision Precision) (model.OrderRequest, error) {
	parsedSide, err := model.ParseSide(side)
	if err != nil {
		return model.OrderRequest{}, err
	}

	quantity, quantityErr := ValidateQuantity(quantityRaw, precision.Quantity)
	price, priceErr := ValidatePrice(priceRaw, precision.Price)
	if quantityErr != nil {
		return model.OrderRequest{}, quantityErr
	}
	if priceErr != nil {
		return model.OrderRequest{}, priceErr
	}

	return model.OrderRequest{
		Symbol:      symbol,
		Side:        parsedSide,
		Kind:        model.KindLimit,
		Quantity:    quantity,
		Price:       &price,
		TimeInForce: model.TimeInForceGTC,
	}, nil
}

// BuildStopLimitOrder validates quantity, stop price and limit price.
// Stop and limit prices share the symbol's price precision.
func BuildStopLimitOrder(symbol, side, quantityRaw, stopPriceRaw, limitPriceRaw string, precision Precision) (model.OrderRequest, error) {
	parsedSide, err := model.ParseSide(side)
	if err != nil {
		return model.OrderRequest{}, err
	}

	quantity, quantityErr := ValidateQuantity(quantityRaw, precision.Quantity)
	stopPrice, stopErr := validatePositive("stop_price", "Stop price", stopPriceRaw, precision.Price)
	limitPrice, limitErr := validatePositive("limit_price", "Limit price", limitPriceRaw, precision.Price)
	for _, err := range []error{quantityErr, stopErr, limitErr} {
		if err != nil {
			return model.OrderRequest{}, err
		}
	}

	return model.OrderRequest{
		Symbol:      symbol,
		Side:        parsedSide,
		Kind:        model.KindStopLimit,
		Quantity:    quantity,
		Price:       &limitPrice,
		StopPrice:   &stopPrice,
		TimeInForce: model.TimeInForceGTC,
	}, nil
}

// ParseOrderID converts a user supplied order id
func ParseOrderID(raw string) (int64, error) {
	trimmed := strings.TrimSpace(raw)
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, model.NewValidationError("order_id", fmt.Sprintf("Order ID must be an integer, got %q", trimmed))
	}
	if id <= 0 {
		return 0, model.NewValidationError("order_id", "Order ID must be positive")
	}
	return id, nil
}
