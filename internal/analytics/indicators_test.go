package analytics

import (
	"math"
	"testing"

	"github.com/pradeep8949yadav/Live-Quant-Analytics/internal/model"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestMean(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"empty input", []float64{}, 0.0},
		{"single value", []float64{5.0}, 5.0},
		{"several values", []float64{1.0, 2.0, 3.0}, 2.0},
		{"negative values", []float64{-2.0, 2.0}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mean(tt.values); !almostEqual(got, tt.expected) {
				t.Errorf("Mean(%v) = %f, want %f", tt.values, got, tt.expected)
			}
		})
	}
}

func TestStd(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"empty input", []float64{}, 0.0},
		{"single value", []float64{5.0}, 0.0},
		{"known population std", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 2.0},
		{"constant series", []float64{3, 3, 3, 3}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Std(tt.values); !almostEqual(got, tt.expected) {
				t.Errorf("Std(%v) = %f, want %f", tt.values, got, tt.expected)
			}
		})
	}
}

func TestVWAP(t *testing.T) {
	tests := []struct {
		name     string
		prices   []float64
		volumes  []float64
		expected float64
	}{
		{"empty input", []float64{}, []float64{}, 0.0},
		{"mismatched lengths", []float64{10, 20}, []float64{1}, 0.0},
		{"zero volume", []float64{10, 20}, []float64{0, 0}, 0.0},
		{"weighted average", []float64{10, 20}, []float64{1, 3}, 17.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VWAP(tt.prices, tt.volumes); !almostEqual(got, tt.expected) {
				t.Errorf("VWAP(%v, %v) = %f, want %f", tt.prices, tt.volumes, got, tt.expected)
			}
		})
	}
}

func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	if got := SMA(values, 3); !almostEqual(got, 4.0) {
		t.Errorf("SMA(period 3) = %f, want 4.0", got)
	}
	// Shorter than period falls back to the mean of everything
	if got := SMA(values, 10); !almostEqual(got, 3.0) {
		t.Errorf("SMA(period 10) = %f, want 3.0", got)
	}
	if got := SMA([]float64{}, 3); !almostEqual(got, 0.0) {
		t.Errorf("SMA(empty) = %f, want 0.0", got)
	}
}

func TestEMA(t *testing.T) {
	if got := EMA([]float64{}, 3); !almostEqual(got, 0.0) {
		t.Errorf("EMA(empty) = %f, want 0.0", got)
	}

	// Shorter than period falls back to the mean
	if got := EMA([]float64{2, 4}, 3); !almostEqual(got, 3.0) {
		t.Errorf("EMA(short) = %f, want 3.0", got)
	}

	// k = 0.5 for period 3; seeded with the first element
	// 1 -> 1.5 -> 2.25 -> 3.125
	if got := EMA([]float64{1, 2, 3, 4}, 3); !almostEqual(got, 3.125) {
		t.Errorf("EMA([1 2 3 4], 3) = %f, want 3.125", got)
	}
}

func TestRSI(t *testing.T) {
	increasing := make([]float64, 20)
	decreasing := make([]float64, 20)
	constant := make([]float64, 20)
	for i := range increasing {
		increasing[i] = 100.0 + float64(i)
		decreasing[i] = 100.0 - float64(i)
		constant[i] = 100.0
	}

	tests := []struct {
		name     string
		values   []float64
		period   int
		expected float64
	}{
		{"insufficient data returns neutral", []float64{1, 2, 3}, 14, 50.0},
		{"all gains", increasing, 14, 100.0},
		{"all losses", decreasing, 14, 0.0},
		{"no movement returns neutral", constant, 14, 50.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RSI(tt.values, tt.period); !almostEqual(got, tt.expected) {
				t.Errorf("RSI = %f, want %f", got, tt.expected)
			}
		})
	}

	// Mixed gains and losses stay strictly between the extremes
	mixed := []float64{100, 102, 101, 103, 102, 104, 103, 105, 104, 106, 105, 107, 106, 108, 107, 109}
	got := RSI(mixed, 14)
	if got <= 0 || got >= 100 {
		t.Errorf("RSI(mixed) = %f, want value in (0, 100)", got)
	}
}

func TestZScore(t *testing.T) {
	if got := ZScore(12, 10, 2); !almostEqual(got, 1.0) {
		t.Errorf("ZScore(12, 10, 2) = %f, want 1.0", got)
	}
	if got := ZScore(8, 10, 2); !almostEqual(got, -1.0) {
		t.Errorf("ZScore(8, 10, 2) = %f, want -1.0", got)
	}
	// Zero std yields 0.0 rather than dividing
	if got := ZScore(12, 10, 0); !almostEqual(got, 0.0) {
		t.Errorf("ZScore with zero std = %f, want 0.0", got)
	}
}

func TestCorrelation(t *testing.T) {
	t.Run("perfect positive", func(t *testing.T) {
		got := Correlation([]float64{1, 2, 3}, []float64{2, 4, 6})
		if got == nil || !almostEqual(*got, 1.0) {
			t.Errorf("Correlation = %v, want 1.0", got)
		}
	})

	t.Run("perfect negative", func(t *testing.T) {
		got := Correlation([]float64{1, 2, 3}, []float64{6, 4, 2})
		if got == nil || !almostEqual(*got, -1.0) {
			t.Errorf("Correlation = %v, want -1.0", got)
		}
	})

	t.Run("mismatched lengths", func(t *testing.T) {
		if got := Correlation([]float64{1, 2, 3}, []float64{1, 2}); got != nil {
			t.Errorf("Correlation = %v, want nil", got)
		}
	})

	t.Run("too short", func(t *testing.T) {
		if got := Correlation([]float64{1}, []float64{2}); got != nil {
			t.Errorf("Correlation = %v, want nil", got)
		}
	})

	t.Run("zero variance", func(t *testing.T) {
		if got := Correlation([]float64{1, 2, 3}, []float64{5, 5, 5}); got != nil {
			t.Errorf("Correlation = %v, want nil", got)
		}
	})

	t.Run("symmetry", func(t *testing.T) {
		x := []float64{1, 3, 2, 5, 4}
		y := []float64{2, 1, 4, 3, 6}
		xy := Correlation(x, y)
		yx := Correlation(y, x)
		if xy == nil || yx == nil || !almostEqual(*xy, *yx) {
			t.Errorf("Correlation not symmetric: %v vs %v", xy, yx)
		}
	})
}

func TestDetectTrend(t *testing.T) {
	tests := []struct {
		name     string
		sma      float64
		ema      float64
		price    float64
		expected string
	}{
		{"uptrend", 10, 9, 11, model.TrendUp},
		{"downtrend", 10, 11, 9, model.TrendDown},
		{"price between averages", 10, 9, 9.5, model.TrendNeutral},
		{"flat", 10, 10, 10, model.TrendNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectTrend(tt.sma, tt.ema, tt.price); got != tt.expected {
				t.Errorf("DetectTrend(%f, %f, %f) = %s, want %s", tt.sma, tt.ema, tt.price, got, tt.expected)
			}
		})
	}
}

func TestStationarityPValue(t *testing.T) {
	t.Run("insufficient data", func(t *testing.T) {
		if got := StationarityPValue([]float64{1, 2, 3}); got != nil {
			t.Errorf("StationarityPValue = %v, want nil", got)
		}
	})

	t.Run("zero variance", func(t *testing.T) {
		constant := make([]float64, 12)
		for i := range constant {
			constant[i] = 7.0
		}
		got := StationarityPValue(constant)
		if got == nil || !almostEqual(*got, 1.0) {
			t.Errorf("StationarityPValue(constant) = %v, want 1.0", got)
		}
	})

	t.Run("bounded output", func(t *testing.T) {
		alternating := make([]float64, 20)
		for i := range alternating {
			alternating[i] = float64(1 + i%2)
		}
		got := StationarityPValue(alternating)
		if got == nil || *got <= 0 || *got > 1 {
			t.Errorf("StationarityPValue(alternating) = %v, want value in (0, 1]", got)
		}
	})
}

func TestGarchForecast(t *testing.T) {
	t.Run("insufficient data", func(t *testing.T) {
		if got := GarchForecast([]float64{0.01, 0.02}, 0.1, 0.85); got != nil {
			t.Errorf("GarchForecast = %v, want nil", got)
		}
	})

	t.Run("constant returns", func(t *testing.T) {
		returns := make([]float64, 12)
		for i := range returns {
			returns[i] = 0.1
		}
		// Zero variance backs omega out to zero, leaving only the
		// alpha term: sqrt(0.1 * 0.01)
		got := GarchForecast(returns, 0.1, 0.85)
		if got == nil || !almostEqual(*got, math.Sqrt(0.001)) {
			t.Errorf("GarchForecast(constant) = %v, want %f", got, math.Sqrt(0.001))
		}
	})

	t.Run("non-negative forecast", func(t *testing.T) {
		returns := []float64{0.01, -0.02, 0.015, -0.005, 0.02, -0.01, 0.005, -0.015, 0.01, -0.02, 0.03}
		got := GarchForecast(returns, 0.1, 0.85)
		if got == nil || *got < 0 {
			t.Errorf("GarchForecast = %v, want non-negative value", got)
		}
	})
}
