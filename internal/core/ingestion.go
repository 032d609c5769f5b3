package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/pradeep8949yadav/Live-Quant-Analytics/internal/model"
)

// Analytics consumes aggregated windows and derives indicator snapshots
type Analytics interface {
	ProcessWindow(window model.AggregatedWindow) model.MetricsSnapshot
}

// AlertEvaluator matches a fresh snapshot against the configured alert rules
type AlertEvaluator interface {
	Evaluate(snapshot model.MetricsSnapshot) []model.AlertEvent
}

// Sink receives finished records for persistence. The pipeline never reads
// anything back from it.
type Sink interface {
	InsertTrade(event model.TradeEvent) error
	InsertWindow(window model.AggregatedWindow) error
	InsertMetrics(snapshot model.MetricsSnapshot) error
	InsertAlertEvent(event model.AlertEvent) error
}

// IngestionService receives trade events from a channel, buffers them in the
// aggregator, and drives the periodic flush that feeds analytics, alerting,
// and the sink.
type IngestionService struct {
	aggregator    *WindowAggregator
	analytics     Analytics
	evaluator     AlertEvaluator
	sink          Sink
	tradeChan     chan model.TradeEvent
	flushInterval time.Duration
	logger        *slog.Logger
}

// NewIngestionService creates a new ingestion service. bufferSize bounds the
// trade channel; senders block when it is full.
func NewIngestionService(analytics Analytics, evaluator AlertEvaluator, sink Sink, flushInterval time.Duration, bufferSize int) *IngestionService {
	return &IngestionService{
		aggregator:    NewWindowAggregator(),
		analytics:     analytics,
		evaluator:     evaluator,
		sink:          sink,
		tradeChan:     make(chan model.TradeEvent, bufferSize),
		flushInterval: flushInterval,
		logger:        slog.Default(),
	}
}

// Start launches the ingestion and flush goroutines. Both stop when ctx is
// cancelled.
func (is *IngestionService) Start(ctx context.Context) {
	is.logger.Info("starting ingestion service", "flush_interval", is.flushInterval)

	go func() {
		defer is.logger.Info("ingestion loop stopped")
		for {
			select {
			case event := <-is.tradeChan:
				is.aggregator.Add(event)
				if is.sink != nil {
					if err := is.sink.InsertTrade(event); err != nil {
						is.logger.Error("failed to persist trade",
							"symbol", event.Symbol,
							"error", err)
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		defer is.logger.Info("flush loop stopped")
		ticker := time.NewTicker(is.flushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !is.aggregator.ShouldFlush(is.flushInterval) {
					continue
				}
				is.flush()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// flush drains the aggregator and runs every window through analytics,
// alerting, and persistence. Sink failures are logged and never interrupt
// the pipeline.
func (is *IngestionService) flush() {
	windows := is.aggregator.Flush()

	for _, window := range windows {
		if is.sink != nil {
			if err := is.sink.InsertWindow(window); err != nil {
				is.logger.Error("failed to persist window",
					"symbol", window.Symbol,
					"error", err)
			}
		}

		snapshot := is.analytics.ProcessWindow(window)

		if is.sink != nil {
			if err := is.sink.InsertMetrics(snapshot); err != nil {
				is.logger.Error("failed to persist metrics",
					"symbol", snapshot.Symbol,
					"error", err)
			}
		}

		if is.evaluator == nil {
			continue
		}
		for _, alertEvent := range is.evaluator.Evaluate(snapshot) {
			is.logger.Warn("alert triggered",
				"rule_id", alertEvent.RuleID,
				"symbol", alertEvent.Symbol,
				"metric", alertEvent.Metric,
				"actual_value", alertEvent.ActualValue,
				"threshold", alertEvent.Threshold)
			if is.sink != nil {
				if err := is.sink.InsertAlertEvent(alertEvent); err != nil {
					is.logger.Error("failed to persist alert event",
						"rule_id", alertEvent.RuleID,
						"error", err)
				}
			}
		}

		is.logger.Debug("flushed window",
			"symbol", window.Symbol,
			"mean_price", window.MeanPrice,
			"trade_count", window.TradeCount)
	}
}

// TradeChannel returns the channel for sending trade events into the service
func (is *IngestionService) TradeChannel() chan<- model.TradeEvent {
	return is.tradeChan
}
