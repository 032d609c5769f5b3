package analytics

import (
	"reflect"
	"testing"
)

// oscillating builds a repeating 99/100/101 pattern. Every trailing 3-window
// over it is a rotation of the same three values, so the z-score cycles
// through -1.2247, 0, +1.2247.
func oscillating(n int) []float64 {
	pattern := []float64{99, 100, 101}
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = pattern[i%3]
	}
	return prices
}

func TestRunMeanReversionShortHistory(t *testing.T) {
	prices := []float64{100, 101, 99, 100, 102}
	result := runMeanReversion(prices, 3, 2.0, 0.5)

	if result.TradeCount != 0 || result.TotalPnL != 0 || result.WinRate != 0 {
		t.Errorf("Expected zero result for short history, got %+v", result)
	}
}

func TestRunMeanReversionOscillatingSeries(t *testing.T) {
	prices := oscillating(24)
	result := runMeanReversion(prices, 3, 1.0, 0.5)

	// One long entry at the first 99, then a short on every 101 afterwards,
	// each closed at the following 100 for +1. The final short is left open
	// and discarded.
	if result.TradeCount != 7 {
		t.Errorf("TradeCount = %d, want 7", result.TradeCount)
	}
	if result.Wins != 7 || result.Losses != 0 {
		t.Errorf("Wins/Losses = %d/%d, want 7/0", result.Wins, result.Losses)
	}
	if !almostEqual(result.WinRate, 1.0) {
		t.Errorf("WinRate = %f, want 1.0", result.WinRate)
	}
	if !almostEqual(result.TotalPnL, 7.0) {
		t.Errorf("TotalPnL = %f, want 7.0", result.TotalPnL)
	}
	if !almostEqual(result.AvgPnL, 1.0) {
		t.Errorf("AvgPnL = %f, want 1.0", result.AvgPnL)
	}
}

func TestRunMeanReversionNeverEnters(t *testing.T) {
	// Entry threshold above the series' maximum |z| of ~1.2247
	result := runMeanReversion(oscillating(30), 3, 2.0, 0.5)

	if result.TradeCount != 0 {
		t.Errorf("Expected no trades with unreachable entry threshold, got %d", result.TradeCount)
	}
}

func TestRunMeanReversionZeroExitNeverCloses(t *testing.T) {
	// |z| < 0 is never true, so positions open but none close
	result := runMeanReversion(oscillating(30), 3, 1.0, 0.0)

	if result.TradeCount != 0 {
		t.Errorf("Expected no closed trades with zero exit threshold, got %d", result.TradeCount)
	}
}

func TestRunMeanReversionDeterministic(t *testing.T) {
	prices := oscillating(60)

	first := runMeanReversion(prices, 5, 1.0, 0.5)
	second := runMeanReversion(prices, 5, 1.0, 0.5)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical results across runs: %+v vs %+v", first, second)
	}
}

func TestRunMeanReversionFlatSeries(t *testing.T) {
	flat := make([]float64, 30)
	for i := range flat {
		flat[i] = 100.0
	}

	// Zero std forces every z-score to 0, so nothing ever enters
	result := runMeanReversion(flat, 5, 1.0, 0.5)
	if result.TradeCount != 0 {
		t.Errorf("Expected no trades on flat series, got %d", result.TradeCount)
	}
}
