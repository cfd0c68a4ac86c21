package api

import (
	"TradeTechCircuit/internal/model"
	"TradeTechCircuit/internal/service"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
)

// ChatRequest is the body of POST /api/v1/chat
type ChatRequest struct {
	Command string `json:"command" form:"command"`
}

// Index handles GET / requests
func (h *APIHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Symbol": h.trader.Symbol(),
		"Error":  c.Query("error"),
	})
}

// PlaceOrderForm handles POST /place_order requests
func (h *APIHandler) PlaceOrderForm(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	var form service.OrderForm
	if err := c.ShouldBind(&form); err != nil {
		h.redirectWithError(c, "Error placing order: "+err.Error())
		return
	}

	order, err := h.trader.PlaceOrder(ctx, form)
	if err != nil {
		h.redirectWithError(c, "Error placing order: "+h.userMessage(c, err))
		return
	}

	c.HTML(http.StatusOK, "order_result.html", gin.H{
		"Message": "Order placed successfully!",
		"Order":   h.trader.Describe(order),
	})
}

// CheckStatusForm handles POST /check_status requests
func (h *APIHandler) CheckStatusForm(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	orderID, err := h.validator.ValidateOrderID(c.PostForm("order_id"))
	if err != nil {
		h.redirectWithError(c, "Error checking order status: "+err.Error())
		return
	}

	order, err := h.trader.GetOrderStatus(ctx, orderID)
	if err != nil {
		h.redirectWithError(c, "Error checking order status: "+h.userMessage(c, err))
		return
	}

	c.HTML(http.StatusOK, "order_result.html", gin.H{
		"Message": "Order status retrieved successfully!",
		"Order":   h.trader.Describe(order),
	})
}

// LiveLogPage handles GET /live_log requests
func (h *APIHandler) LiveLogPage(c *gin.Context) {
	c.HTML(http.StatusOK, "live_log.html", gin.H{
		"Entries": h.activity.All(),
	})
}

// CreateOrder handles POST /api/v1/orders requests
func (h *APIHandler) CreateOrder(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	var form service.OrderForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.handleValidationError(c, errors.New("request body must be a JSON order"))
		return
	}

	order, err := h.trader.PlaceOrder(ctx, form)
	if err != nil {
		h.handleTradingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.trader.Describe(order))
}

// GetOrder handles GET /api/v1/orders/:id requests
func (h *APIHandler) GetOrder(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	orderID, err := h.validator.ValidateOrderID(c.Param("id"))
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	order, err := h.trader.GetOrderStatus(ctx, orderID)
	if err != nil {
		h.handleTradingError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.trader.Describe(order))
}

// CancelOrder handles DELETE /api/v1/orders/:id requests
func (h *APIHandler) CancelOrder(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	orderID, err := h.validator.ValidateOrderID(c.Param("id"))
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	if err := h.trader.CancelOrder(ctx, orderID); err != nil {
		h.handleTradingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id": orderID,
		"status":   "CANCELED",
	})
}

// GetBalance handles GET /api/v1/balance requests
func (h *APIHandler) GetBalance(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	balances, err := h.trader.GetBalances(ctx)
	if err != nil {
		h.handleTradingError(c, err)
		return
	}

	c.JSON(http.StatusOK, balances)
}

// GetLogs handles GET /api/v1/logs requests
func (h *APIHandler) GetLogs(c *gin.Context) {
	limit, err := h.validator.ValidateLogLimit(c.Query("limit"), h.activity.Capacity())
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.activity.Recent(limit))
}

// Chat handles POST /api/v1/chat requests
func (h *APIHandler) Chat(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	var req ChatRequest
	if err := c.ShouldBind(&req); err != nil {
		h.handleValidationError(c, errors.New("request body must contain a command"))
		return
	}

	c.JSON(http.StatusOK, h.commander.Dispatch(ctx, h.validator.SanitizeCommand(req.Command)))
}

// HealthCheck handles GET /health requests
func (h *APIHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"service":   ServiceName,
		"symbol":    h.trader.Symbol(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   ServiceVersion,
	})
}

// userMessage resolves a trading error into the text shown on the form pages
func (h *APIHandler) userMessage(c *gin.Context, err error) string {
	switch model.KindOf(err) {
	case model.KindInvalidInput, model.KindExchangeRejected:
		return err.Error()
	default:
		h.logger.Error("form request failed",
			slog.String("request_id", requestIDFrom(c)),
			slog.String("path", c.Request.URL.Path),
			slog.String("error", err.Error()),
		)
		return "unexpected error, see the service log"
	}
}

func (h *APIHandler) redirectWithError(c *gin.Context, message string) {
	c.Redirect(http.StatusSeeOther, "/?error="+url.QueryEscape(message))
}

// handleTradingError maps an error kind onto a status code
func (h *APIHandler) handleTradingError(c *gin.Context, err error) {
	var exchangeErr *model.ExchangeError
	switch model.KindOf(err) {
	case model.KindInvalidInput:
		h.handleValidationError(c, err)
	case model.KindExchangeRejected:
		errors.As(err, &exchangeErr)
		h.logger.Warn("exchange rejected request",
			slog.String("request_id", requestIDFrom(c)),
			slog.String("path", c.Request.URL.Path),
			slog.Int("code", exchangeErr.Code),
			slog.String("message", exchangeErr.Message),
		)
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      exchangeErr.Message,
			"code":       exchangeErr.Code,
			"request_id": requestIDFrom(c),
		})
	default:
		h.handleError(c, err, http.StatusInternalServerError, "Internal server error")
	}
}

// handleError logs the error and sends appropriate HTTP response
func (h *APIHandler) handleError(c *gin.Context, err error, statusCode int, userMessage string) {
	requestIDStr := requestIDFrom(c)

	h.logger.Error("API error",
		slog.String("request_id", requestIDStr),
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("error", err.Error()),
		slog.Int("status_code", statusCode),
	)

	c.JSON(statusCode, gin.H{
		"error":      userMessage,
		"request_id": requestIDStr,
	})
}

// handleValidationError answers 400 with the validation message
func (h *APIHandler) handleValidationError(c *gin.Context, err error) {
	h.logger.Info("invalid request",
		slog.String("request_id", requestIDFrom(c)),
		slog.String("path", c.Request.URL.Path),
		slog.String("error", err.Error()),
	)

	c.JSON(http.StatusBadRequest, gin.H{
		"error":      err.Error(),
		"request_id": requestIDFrom(c),
	})
}

func requestIDFrom(c *gin.Context) string {
	if requestID, exists := c.Get(RequestIDContextKey); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return "unknown"
}
