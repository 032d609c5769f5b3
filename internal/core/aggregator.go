package core

import (
	"math"
	"sync"
	"time"

	"github.com/pradeep8949yadav/Live-Quant-Analytics/internal/analytics"
	"github.com/pradeep8949yadav/Live-Quant-Analytics/internal/model"
)

// WindowAggregator buffers raw trade events per symbol and aggregates each
// buffer into one AggregatedWindow on flush. Add and Flush are safe to call
// from different goroutines; Flush clears every buffer and resets the flush
// clock in the same critical section, so no event is dropped or counted twice.
type WindowAggregator struct {
	buffers   map[string][]model.TradeEvent
	lastFlush time.Time
	mu        sync.Mutex
}

// NewWindowAggregator creates an empty aggregator with the flush clock
// starting now.
func NewWindowAggregator() *WindowAggregator {
	return &WindowAggregator{
		buffers:   make(map[string][]model.TradeEvent),
		lastFlush: time.Now(),
	}
}

// Add appends a trade event to its symbol's buffer; O(1).
func (a *WindowAggregator) Add(event model.TradeEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buffers[event.Symbol] = append(a.buffers[event.Symbol], event)
}

// ShouldFlush reports whether the flush interval has elapsed since the last
// flush. Pure time check; no side effects.
func (a *WindowAggregator) ShouldFlush(interval time.Duration) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return time.Since(a.lastFlush) >= interval
}

// Flush aggregates every non-empty buffer into one window per symbol, clears
// all buffers, and resets the flush clock. Symbols with no trades in the
// interval produce no window.
func (a *WindowAggregator) Flush() []model.AggregatedWindow {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now().UnixMilli()
	windows := make([]model.AggregatedWindow, 0, len(a.buffers))

	for symbol, events := range a.buffers {
		if len(events) == 0 {
			continue
		}

		prices := make([]float64, len(events))
		quantities := make([]float64, len(events))
		minPrice := math.Inf(1)
		maxPrice := math.Inf(-1)
		totalVolume := 0.0

		for i, e := range events {
			prices[i] = e.Price
			quantities[i] = e.Quantity
			totalVolume += e.Quantity
			if e.Price < minPrice {
				minPrice = e.Price
			}
			if e.Price > maxPrice {
				maxPrice = e.Price
			}
		}

		windows = append(windows, model.AggregatedWindow{
			Timestamp:   now,
			Symbol:      symbol,
			MeanPrice:   analytics.Mean(prices),
			StdPrice:    analytics.Std(prices),
			MinPrice:    minPrice,
			MaxPrice:    maxPrice,
			TotalVolume: totalVolume,
			TradeCount:  len(events),
			VWAP:        analytics.VWAP(prices, quantities),
		})
	}

	a.buffers = make(map[string][]model.TradeEvent)
	a.lastFlush = time.Now()

	return windows
}
