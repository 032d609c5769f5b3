package analytics

import (
	"reflect"
	"testing"
)

func TestRingAppendAndValues(t *testing.T) {
	r := newRing(3)

	if r.len() != 0 {
		t.Errorf("Expected new ring to be empty, got len %d", r.len())
	}
	if _, ok := r.last(); ok {
		t.Error("Expected last() on empty ring to report not ok")
	}

	r.append(1)
	r.append(2)
	if got := r.values(0); !reflect.DeepEqual(got, []float64{1, 2}) {
		t.Errorf("values(0) = %v, want [1 2]", got)
	}

	r.append(3)
	r.append(4) // evicts 1
	r.append(5) // evicts 2

	if r.len() != 3 {
		t.Errorf("Expected len 3 after overflow, got %d", r.len())
	}
	if got := r.values(0); !reflect.DeepEqual(got, []float64{3, 4, 5}) {
		t.Errorf("values(0) = %v, want [3 4 5]", got)
	}
	if v, ok := r.last(); !ok || v != 5 {
		t.Errorf("last() = %v, %v, want 5, true", v, ok)
	}
}

func TestRingValuesLimit(t *testing.T) {
	r := newRing(5)
	for i := 1; i <= 5; i++ {
		r.append(float64(i))
	}

	tests := []struct {
		name     string
		limit    int
		expected []float64
	}{
		{"limit smaller than count", 2, []float64{4, 5}},
		{"limit equal to count", 5, []float64{1, 2, 3, 4, 5}},
		{"limit larger than count", 10, []float64{1, 2, 3, 4, 5}},
		{"zero limit returns all", 0, []float64{1, 2, 3, 4, 5}},
		{"negative limit returns all", -1, []float64{1, 2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.values(tt.limit); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("values(%d) = %v, want %v", tt.limit, got, tt.expected)
			}
		})
	}
}

func TestRingFixedBackingArray(t *testing.T) {
	r := newRing(4)
	for i := 0; i < 100; i++ {
		r.append(float64(i))
	}

	if r.len() != 4 {
		t.Errorf("Expected len to stay at capacity 4, got %d", r.len())
	}
	if got := r.values(0); !reflect.DeepEqual(got, []float64{96, 97, 98, 99}) {
		t.Errorf("values(0) = %v, want [96 97 98 99]", got)
	}
}

func TestSymbolHistoryReturns(t *testing.T) {
	h := newSymbolHistory(10)

	// First window has no prior price, so no return is recorded
	h.append(100, 1.0, 1000)
	if h.returns.len() != 0 {
		t.Errorf("Expected no returns after first append, got %d", h.returns.len())
	}

	h.append(110, 2.0, 2000)
	returns := h.returns.values(0)
	if len(returns) != 1 || !almostEqual(returns[0], 0.1) {
		t.Errorf("returns = %v, want [0.1]", returns)
	}

	// Returns lag prices by one
	h.append(99, 1.5, 3000)
	if h.prices.len() != 3 || h.returns.len() != 2 {
		t.Errorf("Expected 3 prices and 2 returns, got %d and %d", h.prices.len(), h.returns.len())
	}
}

func TestSymbolHistorySkipsZeroPrevPrice(t *testing.T) {
	h := newSymbolHistory(10)

	h.append(0, 1.0, 1000)
	h.append(100, 1.0, 2000)

	// Division against a zero previous price is skipped
	if h.returns.len() != 0 {
		t.Errorf("Expected return against zero price to be skipped, got %d returns", h.returns.len())
	}
}
