package core

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/pradeep8949yadav/Live-Quant-Analytics/internal/model"
)

func tradeEvent(symbol string, price, quantity float64) model.TradeEvent {
	return model.TradeEvent{
		Timestamp: time.Now().UnixMilli(),
		Symbol:    symbol,
		Price:     price,
		Quantity:  quantity,
	}
}

func findWindow(t *testing.T, windows []model.AggregatedWindow, symbol string) model.AggregatedWindow {
	t.Helper()
	for _, w := range windows {
		if w.Symbol == symbol {
			return w
		}
	}
	t.Fatalf("No window for symbol %s in %v", symbol, windows)
	return model.AggregatedWindow{}
}

func TestFlushAggregatesPerSymbol(t *testing.T) {
	agg := NewWindowAggregator()

	agg.Add(tradeEvent("BTCUSDT", 100, 1))
	agg.Add(tradeEvent("BTCUSDT", 101, 2))
	agg.Add(tradeEvent("BTCUSDT", 99, 1))
	agg.Add(tradeEvent("ETHUSDT", 3000, 0.5))

	windows := agg.Flush()
	if len(windows) != 2 {
		t.Fatalf("Expected 2 windows, got %d", len(windows))
	}

	btc := findWindow(t, windows, "BTCUSDT")
	if btc.MeanPrice != 100.0 {
		t.Errorf("MeanPrice = %f, want 100.0", btc.MeanPrice)
	}
	if btc.MinPrice != 99.0 || btc.MaxPrice != 101.0 {
		t.Errorf("Min/Max = %f/%f, want 99/101", btc.MinPrice, btc.MaxPrice)
	}
	if btc.TotalVolume != 4.0 {
		t.Errorf("TotalVolume = %f, want 4.0", btc.TotalVolume)
	}
	if btc.TradeCount != 3 {
		t.Errorf("TradeCount = %d, want 3", btc.TradeCount)
	}
	// (100*1 + 101*2 + 99*1) / 4
	if math.Abs(btc.VWAP-100.25) > 1e-9 {
		t.Errorf("VWAP = %f, want 100.25", btc.VWAP)
	}
	if btc.StdPrice <= 0 {
		t.Errorf("StdPrice = %f, want positive", btc.StdPrice)
	}
	if btc.Timestamp == 0 {
		t.Error("Expected flush timestamp to be set")
	}

	eth := findWindow(t, windows, "ETHUSDT")
	if eth.TradeCount != 1 || eth.MeanPrice != 3000.0 {
		t.Errorf("ETH window = %+v, want single 3000 trade", eth)
	}
	if eth.StdPrice != 0 {
		t.Errorf("Single-trade StdPrice = %f, want 0", eth.StdPrice)
	}
}

func TestFlushClearsBuffers(t *testing.T) {
	agg := NewWindowAggregator()
	agg.Add(tradeEvent("BTCUSDT", 100, 1))

	first := agg.Flush()
	if len(first) != 1 {
		t.Fatalf("Expected 1 window, got %d", len(first))
	}

	// Nothing buffered since the flush, so no windows
	second := agg.Flush()
	if len(second) != 0 {
		t.Errorf("Expected no windows on empty flush, got %v", second)
	}
}

func TestFlushEmptyAggregator(t *testing.T) {
	agg := NewWindowAggregator()

	windows := agg.Flush()
	if len(windows) != 0 {
		t.Errorf("Expected no windows, got %v", windows)
	}
}

func TestShouldFlush(t *testing.T) {
	agg := NewWindowAggregator()

	if agg.ShouldFlush(time.Hour) {
		t.Error("Expected ShouldFlush to be false right after creation")
	}
	if !agg.ShouldFlush(0) {
		t.Error("Expected ShouldFlush to be true with zero interval")
	}

	// Flush resets the clock
	agg.lastFlush = time.Now().Add(-time.Minute)
	if !agg.ShouldFlush(time.Second) {
		t.Error("Expected ShouldFlush to be true after elapsed interval")
	}
	agg.Flush()
	if agg.ShouldFlush(time.Second) {
		t.Error("Expected flush to reset the clock")
	}
}

func TestAggregatorConcurrentAdds(t *testing.T) {
	agg := NewWindowAggregator()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				agg.Add(tradeEvent("BTCUSDT", 100.0, 1.0))
			}
		}()
	}
	wg.Wait()

	windows := agg.Flush()
	if len(windows) != 1 {
		t.Fatalf("Expected 1 window, got %d", len(windows))
	}
	if windows[0].TradeCount != 800 {
		t.Errorf("TradeCount = %d, want 800", windows[0].TradeCount)
	}
	if windows[0].TotalVolume != 800.0 {
		t.Errorf("TotalVolume = %f, want 800.0", windows[0].TotalVolume)
	}
}
