package alerts

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pradeep8949yadav/Live-Quant-Analytics/internal/model"
)

// ErrRuleNotFound is returned for operations on an unknown rule id
var ErrRuleNotFound = errors.New("alerts: rule not found")

// equalityEpsilon tolerates floating-point noise in == and != comparisons
const equalityEpsilon = 1e-6

// Metric names a rule may reference
const (
	MetricZScore    = "z_score"
	MetricVol       = "volatility"
	MetricMeanPrice = "mean_price"
	MetricRSI       = "rsi_14"
)

var validConditions = map[string]bool{
	">": true, "<": true, ">=": true, "<=": true, "==": true, "!=": true,
}

var validMetrics = map[string]bool{
	MetricZScore:    true,
	MetricVol:       true,
	MetricMeanPrice: true,
	MetricRSI:       true,
}

// ValidMetric reports whether name is a metric rules may reference
func ValidMetric(name string) bool {
	return validMetrics[name]
}

// ValidCondition reports whether cond is a supported comparator
func ValidCondition(cond string) bool {
	return validConditions[cond]
}

// Store owns the alert rule set and the bounded trailing log of triggers.
// Rule mutations and evaluation are serialized, so a CRUD call always takes
// effect atomically before the next flush evaluation.
type Store struct {
	rules     map[string]*model.AlertRule
	events    []model.AlertEvent
	maxEvents int
	mu        sync.RWMutex
	logger    *slog.Logger
}

// NewStore creates a rule store whose trigger log keeps at most maxEvents
// entries, oldest evicted first.
func NewStore(maxEvents int) *Store {
	return &Store{
		rules:     make(map[string]*model.AlertRule),
		maxEvents: maxEvents,
		logger:    slog.Default(),
	}
}

func validateRule(symbol, metric, condition string) error {
	if symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if !validMetrics[metric] {
		return fmt.Errorf("unknown metric %q", metric)
	}
	if !validConditions[condition] {
		return fmt.Errorf("unknown condition %q", condition)
	}
	return nil
}

// CreateRule validates and registers a new rule, assigning it a fresh id
func (s *Store) CreateRule(symbol, metric, condition string, threshold float64, enabled bool) (model.AlertRule, error) {
	if err := validateRule(symbol, metric, condition); err != nil {
		return model.AlertRule{}, err
	}

	rule := model.AlertRule{
		RuleID:    uuid.New().String(),
		Symbol:    symbol,
		Metric:    metric,
		Condition: condition,
		Threshold: threshold,
		Enabled:   enabled,
	}

	s.mu.Lock()
	s.rules[rule.RuleID] = &rule
	s.mu.Unlock()

	s.logger.Info("alert rule created", "rule_id", rule.RuleID, "symbol", symbol, "metric", metric)
	return rule, nil
}

// UpdateRule replaces an existing rule's condition fields, preserving its
// trigger count.
func (s *Store) UpdateRule(ruleID, symbol, metric, condition string, threshold float64, enabled bool) (model.AlertRule, error) {
	if err := validateRule(symbol, metric, condition); err != nil {
		return model.AlertRule{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rule, ok := s.rules[ruleID]
	if !ok {
		return model.AlertRule{}, ErrRuleNotFound
	}
	rule.Symbol = symbol
	rule.Metric = metric
	rule.Condition = condition
	rule.Threshold = threshold
	rule.Enabled = enabled
	return *rule, nil
}

// DeleteRule removes a rule
func (s *Store) DeleteRule(ruleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[ruleID]; !ok {
		return ErrRuleNotFound
	}
	delete(s.rules, ruleID)
	return nil
}

// GetRule returns a copy of one rule
func (s *Store) GetRule(ruleID string) (model.AlertRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.rules[ruleID]
	if !ok {
		return model.AlertRule{}, ErrRuleNotFound
	}
	return *rule, nil
}

// Rules returns copies of every rule, ordered by id for stable output
func (s *Store) Rules() []model.AlertRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.AlertRule, 0, len(s.rules))
	for _, rule := range s.rules {
		out = append(out, *rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RuleID < out[j].RuleID })
	return out
}

// RestoreRules loads persisted rules, keeping their ids and trigger counts.
// Used once at startup before evaluation begins.
func (s *Store) RestoreRules(rules []model.AlertRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range rules {
		rule := rules[i]
		s.rules[rule.RuleID] = &rule
	}
}

// Events returns up to limit most recent trigger events, oldest first.
// limit <= 0 means all.
func (s *Store) Events(limit int) []model.AlertEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := s.events
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	out := make([]model.AlertEvent, len(events))
	copy(out, events)
	return out
}

// Evaluate matches the snapshot against every enabled rule for its symbol,
// incrementing trigger counts and appending to the bounded log on match.
// Rules referencing a metric the snapshot cannot provide are skipped.
func (s *Store) Evaluate(snapshot model.MetricsSnapshot) []model.AlertEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	var triggered []model.AlertEvent

	for _, rule := range s.rules {
		if !rule.Enabled || rule.Symbol != snapshot.Symbol {
			continue
		}

		actual, ok := resolveMetric(rule.Metric, snapshot)
		if !ok {
			continue
		}

		if !compare(actual, rule.Condition, rule.Threshold) {
			continue
		}

		rule.TriggeredCount++
		event := model.AlertEvent{
			RuleID:      rule.RuleID,
			Timestamp:   time.Now().UnixMilli(),
			Symbol:      snapshot.Symbol,
			Metric:      rule.Metric,
			ActualValue: actual,
			Threshold:   rule.Threshold,
		}
		triggered = append(triggered, event)

		s.events = append(s.events, event)
		if len(s.events) > s.maxEvents {
			s.events = s.events[len(s.events)-s.maxEvents:]
		}
	}

	return triggered
}

func resolveMetric(name string, snapshot model.MetricsSnapshot) (float64, bool) {
	switch name {
	case MetricZScore:
		return snapshot.ZScore, true
	case MetricVol:
		return snapshot.Volatility, true
	case MetricMeanPrice:
		return snapshot.MeanPrice, true
	case MetricRSI:
		return snapshot.RSI14, true
	}
	return 0, false
}

func compare(value float64, condition string, threshold float64) bool {
	switch condition {
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	case ">=":
		return value >= threshold
	case "<=":
		return value <= threshold
	case "==":
		return math.Abs(value-threshold) < equalityEpsilon
	case "!=":
		return math.Abs(value-threshold) >= equalityEpsilon
	}
	return false
}
