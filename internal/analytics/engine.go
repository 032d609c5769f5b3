package analytics

import (
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/pradeep8949yadav/Live-Quant-Analytics/internal/model"
)

// Config holds the tunables for indicator computation and the on-demand
// backtest/clustering queries.
type Config struct {
	MaxHistory       int
	ZScoreWindow     int
	MAPeriod         int
	RSIPeriod        int
	GarchAlpha       float64
	GarchBeta        float64
	MinCorrelation   float64
	CorrelationPeers map[string]string
	BacktestPeriod   int
	EntryThreshold   float64
	ExitThreshold    float64
}

// DefaultConfig returns sensible defaults matching a 5-second flush cadence
func DefaultConfig() Config {
	return Config{
		MaxHistory:     500,
		ZScoreWindow:   60,
		MAPeriod:       20,
		RSIPeriod:      14,
		GarchAlpha:     0.1,
		GarchBeta:      0.85,
		MinCorrelation: 0.7,
		CorrelationPeers: map[string]string{
			"BTCUSDT": "ETHUSDT",
			"ETHUSDT": "BTCUSDT",
		},
		BacktestPeriod: 20,
		EntryThreshold: 2.0,
		ExitThreshold:  0.0,
	}
}

// Engine maintains bounded per-symbol price histories and derives indicator
// snapshots from them. ProcessWindow is the only writer; every query takes a
// read lock so it observes a consistent flush generation, including queries
// that read two histories together.
type Engine struct {
	config    Config
	histories map[string]*symbolHistory
	latest    map[string]model.MetricsSnapshot
	mu        sync.RWMutex
	logger    *slog.Logger
}

// NewEngine creates an analytics engine with the given configuration
func NewEngine(config Config) *Engine {
	return &Engine{
		config:    config,
		histories: make(map[string]*symbolHistory),
		latest:    make(map[string]model.MetricsSnapshot),
		logger:    slog.Default(),
	}
}

func (e *Engine) history(symbol string) *symbolHistory {
	h, ok := e.histories[symbol]
	if !ok {
		h = newSymbolHistory(e.config.MaxHistory)
		e.histories[symbol] = h
	}
	return h
}

// ProcessWindow appends an aggregated window to the symbol's history and
// computes a fresh metrics snapshot, replacing the cached one.
func (e *Engine) ProcessWindow(window model.AggregatedWindow) model.MetricsSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	h := e.history(window.Symbol)
	h.append(window.MeanPrice, window.TotalVolume, window.Timestamp)

	prices := h.prices.values(0)
	returns := h.returns.values(0)

	meanPrice := Mean(prices)
	stdPrice := Std(prices)

	volatility := 0.0
	if meanPrice > 0 {
		volatility = stdPrice / meanPrice
	}

	// Z-score against the recent window only, not the full history
	recent := prices
	if len(prices) >= e.config.ZScoreWindow {
		recent = prices[len(prices)-e.config.ZScoreWindow:]
	}
	zScore := ZScore(window.MeanPrice, Mean(recent), Std(recent))

	sma := SMA(prices, e.config.MAPeriod)
	ema := EMA(prices, e.config.MAPeriod)

	snapshot := model.MetricsSnapshot{
		Timestamp:     window.Timestamp,
		Symbol:        window.Symbol,
		MeanPrice:     meanPrice,
		StdPrice:      stdPrice,
		Volatility:    volatility,
		ZScore:        zScore,
		SMA20:         sma,
		EMA20:         ema,
		RSI14:         RSI(prices, e.config.RSIPeriod),
		Correlation:   e.peerCorrelation(window.Symbol, prices),
		GarchForecast: GarchForecast(returns, e.config.GarchAlpha, e.config.GarchBeta),
		ADFPValue:     StationarityPValue(prices),
		Trend:         DetectTrend(sma, ema, window.MeanPrice),
	}

	e.latest[window.Symbol] = snapshot

	e.logger.Debug("processed window",
		"symbol", window.Symbol,
		"mean_price", meanPrice,
		"z_score", zScore,
		"trend", snapshot.Trend)

	return snapshot
}

// peerCorrelation computes correlation against the configured peer symbol.
// Nil when no peer is configured or the histories have diverging lengths.
// Caller must hold at least a read lock.
func (e *Engine) peerCorrelation(symbol string, prices []float64) *float64 {
	peer, ok := e.config.CorrelationPeers[symbol]
	if !ok {
		return nil
	}
	peerHistory, ok := e.histories[peer]
	if !ok {
		return nil
	}
	peerPrices := peerHistory.prices.values(0)
	if len(peerPrices) != len(prices) {
		return nil
	}
	return Correlation(prices, peerPrices)
}

// Snapshot returns the latest cached metrics for a symbol
func (e *Engine) Snapshot(symbol string) (model.MetricsSnapshot, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.latest[symbol]
	return s, ok
}

// AllSnapshots returns a copy of the latest metrics for every symbol
func (e *Engine) AllSnapshots() map[string]model.MetricsSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]model.MetricsSnapshot, len(e.latest))
	for symbol, s := range e.latest {
		out[symbol] = s
	}
	return out
}

// PriceHistory returns up to limit most recent prices, oldest first
func (e *Engine) PriceHistory(symbol string, limit int) []float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.histories[symbol]
	if !ok {
		return []float64{}
	}
	return h.prices.values(limit)
}

// Symbols returns the tracked symbols in lexicographic order
func (e *Engine) Symbols() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sortedSymbolsLocked()
}

func (e *Engine) sortedSymbolsLocked() []string {
	symbols := make([]string, 0, len(e.histories))
	for symbol := range e.histories {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// CorrelationMatrix returns pairwise correlations keyed "SYM1-SYM2" for every
// pair with equal-length, non-degenerate histories. Both histories are read
// under one lock so the pair belongs to the same flush generation.
func (e *Engine) CorrelationMatrix() map[string]float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make(map[string]float64)
	symbols := e.sortedSymbolsLocked()

	for i, sym1 := range symbols {
		prices1 := e.histories[sym1].prices.values(0)
		for _, sym2 := range symbols[i+1:] {
			prices2 := e.histories[sym2].prices.values(0)
			if len(prices1) != len(prices2) || len(prices1) == 0 {
				continue
			}
			if corr := Correlation(prices1, prices2); corr != nil {
				result[sym1+"-"+sym2] = *corr
			}
		}
	}

	return result
}

// Clusters groups symbols whose price correlation to a cluster seed meets the
// configured minimum. See cluster.go for the greedy pass.
func (e *Engine) Clusters() [][]string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	symbols := e.sortedSymbolsLocked()
	histories := make(map[string][]float64, len(symbols))
	for _, symbol := range symbols {
		histories[symbol] = e.histories[symbol].prices.values(0)
	}

	return clusterByCorrelation(symbols, histories, e.config.MinCorrelation)
}

// Backtest replays the symbol's price history through the mean-reversion
// position machine using the configured thresholds.
func (e *Engine) Backtest(symbol string) model.BacktestResult {
	e.mu.RLock()
	prices := []float64{}
	if h, ok := e.histories[symbol]; ok {
		prices = h.prices.values(0)
	}
	e.mu.RUnlock()

	result := runMeanReversion(prices, e.config.BacktestPeriod, e.config.EntryThreshold, e.config.ExitThreshold)
	result.Symbol = symbol
	return result
}

// Anomalies returns the prices whose z-score against the full history exceeds
// the threshold in absolute value. Empty with fewer than 10 points.
func (e *Engine) Anomalies(symbol string, zThreshold float64) []float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	h, ok := e.histories[symbol]
	if !ok {
		return []float64{}
	}
	prices := h.prices.values(0)
	if len(prices) < 10 {
		return []float64{}
	}

	mean := Mean(prices)
	std := Std(prices)

	anomalies := []float64{}
	for _, price := range prices {
		if math.Abs(ZScore(price, mean, std)) > zThreshold {
			anomalies = append(anomalies, price)
		}
	}
	return anomalies
}
