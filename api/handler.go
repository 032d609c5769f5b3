package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pradeep8949yadav/Live-Quant-Analytics/internal/alerts"
	"github.com/pradeep8949yadav/Live-Quant-Analytics/internal/service"
)

// AlertRuleRequest is the payload for creating and updating alert rules
type AlertRuleRequest struct {
	Symbol    string  `json:"symbol" binding:"required"`
	Metric    string  `json:"metric" binding:"required"`
	Condition string  `json:"condition" binding:"required"`
	Threshold float64 `json:"threshold"`
	Enabled   *bool   `json:"enabled"`
}

// HealthCheck handles GET /health requests
func (h *APIHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"service":   ServiceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   ServiceVersion,
	})
}

// GetStatus handles GET /status requests
func (h *APIHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ConnectionStatus())
}

// GetWindows handles GET /windows requests
func (h *APIHandler) GetWindows(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	symbol, err := h.validator.ValidateSymbol(c.Query("symbol"))
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	limit, err := h.validator.ValidateLimit(c.Query("limit"), DefaultWindowLimit)
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	windows, err := h.service.GetRecentWindows(ctx, symbol, limit)
	if err != nil {
		h.handleError(c, err, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, windows)
}

// GetAllAnalytics handles GET /analytics requests
func (h *APIHandler) GetAllAnalytics(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.GetAllSnapshots())
}

// GetSymbolAnalytics handles GET /analytics/:symbol requests
func (h *APIHandler) GetSymbolAnalytics(c *gin.Context) {
	symbol, err := h.validator.ValidateSymbol(c.Param("symbol"))
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	snapshot, err := h.service.GetSnapshot(symbol)
	if err != nil {
		if errors.Is(err, service.ErrNoMetrics) {
			h.handleError(c, err, http.StatusNotFound, "No metrics available for symbol")
			return
		}
		h.handleError(c, err, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetPriceHistory handles GET /price-history/:symbol requests
func (h *APIHandler) GetPriceHistory(c *gin.Context) {
	symbol, err := h.validator.ValidateSymbol(c.Param("symbol"))
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	limit, err := h.validator.ValidateLimit(c.Query("limit"), DefaultHistoryLimit)
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	prices := h.service.GetPriceHistory(symbol, limit)

	c.JSON(http.StatusOK, gin.H{
		"symbol": symbol,
		"prices": prices,
		"count":  len(prices),
	})
}

// GetCorrelations handles GET /correlations requests
func (h *APIHandler) GetCorrelations(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.GetCorrelations())
}

// GetClustering handles GET /clustering requests
func (h *APIHandler) GetClustering(c *gin.Context) {
	clusters := h.service.GetClusters()

	c.JSON(http.StatusOK, gin.H{
		"clusters": clusters,
		"count":    len(clusters),
	})
}

// RunBacktest handles GET /backtest/:symbol requests
func (h *APIHandler) RunBacktest(c *gin.Context) {
	symbol, err := h.validator.ValidateSymbol(c.Param("symbol"))
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.service.RunBacktest(symbol))
}

// GetAnomalies handles GET /anomalies/:symbol requests
func (h *APIHandler) GetAnomalies(c *gin.Context) {
	symbol, err := h.validator.ValidateSymbol(c.Param("symbol"))
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	threshold, err := h.validator.ValidateThreshold(c.Query("threshold"), DefaultZThreshold)
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	anomalies := h.service.GetAnomalies(symbol, threshold)

	c.JSON(http.StatusOK, gin.H{
		"symbol":    symbol,
		"threshold": threshold,
		"anomalies": anomalies,
		"count":     len(anomalies),
	})
}

// ExportCSV handles GET /export/csv requests
func (h *APIHandler) ExportCSV(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	symbol, err := h.validator.ValidateSymbol(c.Query("symbol"))
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	hours, err := h.validator.ValidateHours(c.Query("hours"), DefaultExportHours)
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	csvData, err := h.service.ExportCSV(ctx, symbol, hours)
	if err != nil {
		h.handleError(c, err, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+symbol+"_metrics.csv")
	c.Data(http.StatusOK, "text/csv", []byte(csvData))
}

// CreateAlertRule handles POST /alerts/rules requests
func (h *APIHandler) CreateAlertRule(c *gin.Context) {
	var req AlertRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleValidationError(c, err)
		return
	}

	symbol, err := h.validator.ValidateAlertRuleRequest(req.Symbol, req.Metric, req.Condition)
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	rule, err := h.service.CreateAlertRule(symbol, req.Metric, req.Condition, req.Threshold, enabled)
	if err != nil {
		h.handleError(c, err, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusCreated, rule)
}

// ListAlertRules handles GET /alerts/rules requests
func (h *APIHandler) ListAlertRules(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ListAlertRules())
}

// UpdateAlertRule handles PUT /alerts/rules/:id requests
func (h *APIHandler) UpdateAlertRule(c *gin.Context) {
	ruleID := c.Param("id")

	var req AlertRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleValidationError(c, err)
		return
	}

	symbol, err := h.validator.ValidateAlertRuleRequest(req.Symbol, req.Metric, req.Condition)
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	rule, err := h.service.UpdateAlertRule(ruleID, symbol, req.Metric, req.Condition, req.Threshold, enabled)
	if err != nil {
		if errors.Is(err, alerts.ErrRuleNotFound) {
			h.handleError(c, err, http.StatusNotFound, "Alert rule not found")
			return
		}
		h.handleError(c, err, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, rule)
}

// DeleteAlertRule handles DELETE /alerts/rules/:id requests
func (h *APIHandler) DeleteAlertRule(c *gin.Context) {
	ruleID := c.Param("id")

	if err := h.service.DeleteAlertRule(ruleID); err != nil {
		if errors.Is(err, alerts.ErrRuleNotFound) {
			h.handleError(c, err, http.StatusNotFound, "Alert rule not found")
			return
		}
		h.handleError(c, err, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": ruleID})
}

// GetAlertHistory handles GET /alerts/history requests
func (h *APIHandler) GetAlertHistory(c *gin.Context) {
	limit, err := h.validator.ValidateLimit(c.Query("limit"), DefaultAlertLimit)
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.service.GetAlertHistory(limit))
}

// handleError logs the error and sends appropriate HTTP response
func (h *APIHandler) handleError(c *gin.Context, err error, statusCode int, userMessage string) {
	requestID, exists := c.Get(RequestIDContextKey)
	requestIDStr := "unknown"
	if exists {
		if id, ok := requestID.(string); ok {
			requestIDStr = id
		}
	}

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

// handleValidationError handles validation errors specifically
func (h *APIHandler) handleValidationError(c *gin.Context, err error) {
	h.handleError(c, err, http.StatusBadRequest, err.Error())
}
