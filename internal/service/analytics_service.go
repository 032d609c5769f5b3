package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pradeep8949yadav/Live-Quant-Analytics/internal/model"
)

// ErrNoMetrics is returned when no snapshot has been computed for a symbol yet
var ErrNoMetrics = errors.New("service: no metrics for symbol")

// MetricsEngine exposes the read-only analytics queries
type MetricsEngine interface {
	Snapshot(symbol string) (model.MetricsSnapshot, bool)
	AllSnapshots() map[string]model.MetricsSnapshot
	PriceHistory(symbol string, limit int) []float64
	CorrelationMatrix() map[string]float64
	Clusters() [][]string
	Backtest(symbol string) model.BacktestResult
	Anomalies(symbol string, zThreshold float64) []float64
}

// StatusProvider reports the feed connection state
type StatusProvider interface {
	Status() model.ConnectionStatus
}

// RuleStore owns alert rules and the trigger log
type RuleStore interface {
	CreateRule(symbol, metric, condition string, threshold float64, enabled bool) (model.AlertRule, error)
	UpdateRule(ruleID, symbol, metric, condition string, threshold float64, enabled bool) (model.AlertRule, error)
	DeleteRule(ruleID string) error
	Rules() []model.AlertRule
	Events(limit int) []model.AlertEvent
}

// WindowStore is the persistence-side read surface used by the API
type WindowStore interface {
	RecentWindows(ctx context.Context, symbol string, limit int) ([]model.AggregatedWindow, error)
	ExportMetricsCSV(ctx context.Context, symbol string, hours int) (string, error)
	SaveRules(rules []model.AlertRule) error
}

// AnalyticsService fronts the engine, feed, rule store, and sink for the API
// layer, keeping HTTP concerns out of the core.
type AnalyticsService struct {
	engine MetricsEngine
	feed   StatusProvider
	rules  RuleStore
	store  WindowStore
	logger *slog.Logger
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(engine MetricsEngine, feed StatusProvider, rules RuleStore, store WindowStore) *AnalyticsService {
	return &AnalyticsService{
		engine: engine,
		feed:   feed,
		rules:  rules,
		store:  store,
		logger: slog.Default(),
	}
}

// ConnectionStatus returns the current feed state
func (as *AnalyticsService) ConnectionStatus() model.ConnectionStatus {
	if as.feed == nil {
		return model.ConnectionStatus{Status: "disconnected"}
	}
	return as.feed.Status()
}

// GetSnapshot returns the latest metrics snapshot for one symbol
func (as *AnalyticsService) GetSnapshot(symbol string) (model.MetricsSnapshot, error) {
	snapshot, ok := as.engine.Snapshot(symbol)
	if !ok {
		return model.MetricsSnapshot{}, fmt.Errorf("%w: %s", ErrNoMetrics, symbol)
	}
	return snapshot, nil
}

// GetAllSnapshots returns the latest snapshot for every tracked symbol
func (as *AnalyticsService) GetAllSnapshots() map[string]model.MetricsSnapshot {
	return as.engine.AllSnapshots()
}

// GetPriceHistory returns up to limit recent prices for a symbol, oldest first
func (as *AnalyticsService) GetPriceHistory(symbol string, limit int) []float64 {
	return as.engine.PriceHistory(symbol, limit)
}

// GetCorrelations returns the pairwise correlation map
func (as *AnalyticsService) GetCorrelations() map[string]float64 {
	return as.engine.CorrelationMatrix()
}

// GetClusters returns the correlation-based symbol clusters
func (as *AnalyticsService) GetClusters() [][]string {
	return as.engine.Clusters()
}

// RunBacktest replays a symbol's history through the mean-reversion simulator
func (as *AnalyticsService) RunBacktest(symbol string) model.BacktestResult {
	return as.engine.Backtest(symbol)
}

// GetAnomalies returns prices beyond the z-score threshold
func (as *AnalyticsService) GetAnomalies(symbol string, zThreshold float64) []float64 {
	return as.engine.Anomalies(symbol, zThreshold)
}

// GetRecentWindows returns recent aggregated windows from the sink
func (as *AnalyticsService) GetRecentWindows(ctx context.Context, symbol string, limit int) ([]model.AggregatedWindow, error) {
	windows, err := as.store.RecentWindows(ctx, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent windows for symbol %s: %w", symbol, err)
	}
	return windows, nil
}

// ExportCSV renders recent metrics for a symbol as CSV
func (as *AnalyticsService) ExportCSV(ctx context.Context, symbol string, hours int) (string, error) {
	csv, err := as.store.ExportMetricsCSV(ctx, symbol, hours)
	if err != nil {
		return "", fmt.Errorf("failed to export metrics for symbol %s: %w", symbol, err)
	}
	return csv, nil
}

// CreateAlertRule registers a new rule and persists the rule set
func (as *AnalyticsService) CreateAlertRule(symbol, metric, condition string, threshold float64, enabled bool) (model.AlertRule, error) {
	rule, err := as.rules.CreateRule(symbol, metric, condition, threshold, enabled)
	if err != nil {
		return model.AlertRule{}, err
	}
	as.persistRules()
	return rule, nil
}

// UpdateAlertRule updates an existing rule and persists the rule set
func (as *AnalyticsService) UpdateAlertRule(ruleID, symbol, metric, condition string, threshold float64, enabled bool) (model.AlertRule, error) {
	rule, err := as.rules.UpdateRule(ruleID, symbol, metric, condition, threshold, enabled)
	if err != nil {
		return model.AlertRule{}, err
	}
	as.persistRules()
	return rule, nil
}

// DeleteAlertRule removes a rule and persists the rule set
func (as *AnalyticsService) DeleteAlertRule(ruleID string) error {
	if err := as.rules.DeleteRule(ruleID); err != nil {
		return err
	}
	as.persistRules()
	return nil
}

// ListAlertRules returns every configured rule
func (as *AnalyticsService) ListAlertRules() []model.AlertRule {
	return as.rules.Rules()
}

// GetAlertHistory returns up to limit recent alert triggers, oldest first
func (as *AnalyticsService) GetAlertHistory(limit int) []model.AlertEvent {
	return as.rules.Events(limit)
}

// persistRules saves the rule set to the sink. Persistence failures do not
// fail the command; the in-memory rule set is authoritative.
func (as *AnalyticsService) persistRules() {
	if as.store == nil {
		return
	}
	if err := as.store.SaveRules(as.rules.Rules()); err != nil {
		as.logger.Error("failed to persist alert rules", "error", err)
	}
}
