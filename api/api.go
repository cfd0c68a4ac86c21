package api

import (
	"TradeTechCircuit/internal/command"
	"TradeTechCircuit/internal/model"
	"TradeTechCircuit/internal/service"
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// This file defines the APIHandler struct and its dependencies.
// - api.go: main API handler, dependencies and routes (this file)
// - handler.go: form, JSON and chat handlers
// - websocket.go: live activity log stream
// - middleware.go: middleware functions
// - validator.go: request validation

// Constants
const (
	DefaultTimeout      = 30 * time.Second
	DefaultLogLimit     = 0 // 0 means the whole log
	ServiceVersion      = "1.0.0"
	ServiceName         = "trade-tech-circuit"
	RequestIDContextKey = "request_id"
	RequestIDHeaderKey  = "X-Request-ID"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Trader is the trading capability behind the form and JSON surfaces
type Trader interface {
	Symbol() string
	PlaceOrder(ctx context.Context, form service.OrderForm) (model.OrderResponse, error)
	GetOrderStatus(ctx context.Context, orderID int64) (model.OrderResponse, error)
	CancelOrder(ctx context.Context, orderID int64) error
	GetBalances(ctx context.Context) ([]model.Balance, error)
	Describe(order model.OrderResponse) model.OrderRecord
}

// Commander handles one free-text chat command
type Commander interface {
	Dispatch(ctx context.Context, input string) command.Result
}

// ActivityReader exposes the activity log
type ActivityReader interface {
	Recent(n int) []model.LogEntry
	All() []model.LogEntry
	Capacity() int
}

// LogSubscriber streams new activity log entries
type LogSubscriber interface {
	Subscribe() (<-chan model.LogEntry, func())
}

// APIHandler handles HTTP requests using Gin framework
type APIHandler struct {
	trader     Trader
	commander  Commander
	activity   ActivityReader
	subscriber LogSubscriber
	templates  *template.Template
	validator  *Validator
	logger     *slog.Logger
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(trader Trader, commander Commander, activity ActivityReader, subscriber LogSubscriber, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &APIHandler{
		trader:     trader,
		commander:  commander,
		activity:   activity,
		subscriber: subscriber,
		templates:  template.Must(template.ParseFS(templatesFS, "templates/*.html")),
		validator:  GetValidator(),
		logger:     logger,
	}
}

// NewServer wraps the routes in an http.Server so the caller controls shutdown
func (h *APIHandler) NewServer(port int) *http.Server {
	return &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           h.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// SetupRoutes configures all routes
func (h *APIHandler) SetupRoutes() *gin.Engine {
	// Set Gin to release mode for production
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.SetHTMLTemplate(h.templates)

	// Add middleware
	router.Use(requestIDMiddleware())
	router.Use(ginLoggerMiddleware())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Form surface
	router.GET("/", h.Index)
	router.POST("/place_order", h.PlaceOrderForm)
	router.POST("/check_status", h.CheckStatusForm)
	router.GET("/live_log", h.LiveLogPage)

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.CreateOrder)
		v1.GET("/orders/:id", h.GetOrder)
		v1.DELETE("/orders/:id", h.CancelOrder)
		v1.GET("/balance", h.GetBalance)
		v1.GET("/logs", h.GetLogs)
		v1.POST("/chat", h.Chat)
	}

	router.GET("/ws/live_log", h.LiveLogSocket)
	router.GET("/health", h.HealthCheck)

	return router
}
