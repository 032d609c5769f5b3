package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pradeep8949yadav/Live-Quant-Analytics/internal/model"
)

// This file serves as the main entry point for the API package. It defines the APIHandler struct and its dependencies.
// The actual implementation of the HTTP handlers, routing, server management, middleware, and validation are organized into separate files for better maintainability.
// The package structure is as follows:
// - api.go: Main API handler and dependencies (this file)
// - handler.go: HTTP request handlers
// - middleware.go: Middleware functions
// - validator.go: Request validation

// Constants
const (
	DefaultTimeout      = 30 * time.Second
	ShutdownTimeout     = 10 * time.Second
	ServiceVersion      = "1.0.0"
	ServiceName         = "quant-analytics-service"
	RequestIDContextKey = "request_id"
	RequestIDHeaderKey  = "X-Request-ID"

	DefaultWindowLimit  = 50
	DefaultHistoryLimit = 100
	DefaultAlertLimit   = 100
	DefaultExportHours  = 1
	DefaultZThreshold   = 3.0
)

// AnalyticsService is an interface defining the query and command surface the handlers depend on
type AnalyticsService interface {
	ConnectionStatus() model.ConnectionStatus
	GetSnapshot(symbol string) (model.MetricsSnapshot, error)
	GetAllSnapshots() map[string]model.MetricsSnapshot
	GetPriceHistory(symbol string, limit int) []float64
	GetCorrelations() map[string]float64
	GetClusters() [][]string
	RunBacktest(symbol string) model.BacktestResult
	GetAnomalies(symbol string, zThreshold float64) []float64
	GetRecentWindows(ctx context.Context, symbol string, limit int) ([]model.AggregatedWindow, error)
	ExportCSV(ctx context.Context, symbol string, hours int) (string, error)
	CreateAlertRule(symbol, metric, condition string, threshold float64, enabled bool) (model.AlertRule, error)
	UpdateAlertRule(ruleID, symbol, metric, condition string, threshold float64, enabled bool) (model.AlertRule, error)
	DeleteAlertRule(ruleID string) error
	ListAlertRules() []model.AlertRule
	GetAlertHistory(limit int) []model.AlertEvent
}

// APIHandler handles HTTP requests using Gin framework
type APIHandler struct {
	service   AnalyticsService
	validator *Validator
	logger    *slog.Logger
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(service AnalyticsService, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &APIHandler{
		service:   service,
		validator: GetValidator(),
		logger:    logger,
	}
}

// StartServer runs the HTTP server until ctx is cancelled, then drains
// in-flight requests before returning. A clean shutdown returns nil.
func (h *APIHandler) StartServer(ctx context.Context, port int) error {
	server := &http.Server{
		Addr:    ":" + strconv.Itoa(port),
		Handler: h.SetupRoutes(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			h.logger.Error("server shutdown failed", "error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// SetupRoutes configures all API routes
func (h *APIHandler) SetupRoutes() *gin.Engine {
	// Set Gin to release mode for production
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Add middleware
	router.Use(requestIDMiddleware())
	router.Use(accessLogMiddleware(h.logger))
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Service health and feed status
	router.GET("/health", h.HealthCheck)
	router.GET("/status", h.GetStatus)

	// Analytics routes
	router.GET("/windows", h.GetWindows)
	router.GET("/analytics", h.GetAllAnalytics)
	router.GET("/analytics/:symbol", h.GetSymbolAnalytics)
	router.GET("/price-history/:symbol", h.GetPriceHistory)
	router.GET("/correlations", h.GetCorrelations)
	router.GET("/clustering", h.GetClustering)
	router.GET("/backtest/:symbol", h.RunBacktest)
	router.GET("/anomalies/:symbol", h.GetAnomalies)
	router.GET("/export/csv", h.ExportCSV)

	// Alert rule management
	router.POST("/alerts/rules", h.CreateAlertRule)
	router.GET("/alerts/rules", h.ListAlertRules)
	router.PUT("/alerts/rules/:id", h.UpdateAlertRule)
	router.DELETE("/alerts/rules/:id", h.DeleteAlertRule)
	router.GET("/alerts/history", h.GetAlertHistory)

	return router
}
