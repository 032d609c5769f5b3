package analytics

import (
	"math"

	"github.com/pradeep8949yadav/Live-Quant-Analytics/internal/model"
)

type positionSide int

const (
	sideLong positionSide = iota
	sideShort
)

type position struct {
	side  positionSide
	price float64
}

// runMeanReversion replays a price series through a single-position
// mean-reversion state machine. At each step the z-score of the current price
// is taken against the trailing period-window (excluding the current point);
// |z| above entry opens a position against the move, |z| below exit closes it.
// The trailing mean/std are recomputed per step rather than maintained
// incrementally: the per-step cost is tiny at these history sizes and the
// rounding trajectory stays identical run to run.
// A position still open at the end of the series is discarded unrealized.
func runMeanReversion(prices []float64, period int, entryThreshold, exitThreshold float64) model.BacktestResult {
	var result model.BacktestResult
	if len(prices) < 20 {
		return result
	}

	var pnls []float64
	var open *position

	for i := period; i < len(prices); i++ {
		recent := prices[i-period : i]
		mean := Mean(recent)
		std := Std(recent)
		z := ZScore(prices[i], mean, std)

		if open == nil {
			if z > entryThreshold {
				open = &position{side: sideShort, price: prices[i]}
			} else if z < -entryThreshold {
				open = &position{side: sideLong, price: prices[i]}
			}
		} else if math.Abs(z) < exitThreshold {
			var pnl float64
			if open.side == sideLong {
				pnl = prices[i] - open.price
			} else {
				pnl = open.price - prices[i]
			}
			pnls = append(pnls, pnl)
			open = nil
		}
	}

	for _, pnl := range pnls {
		if pnl > 0 {
			result.Wins++
		} else {
			result.Losses++
		}
		result.TotalPnL += pnl
	}
	result.TradeCount = len(pnls)
	if result.TradeCount > 0 {
		result.WinRate = float64(result.Wins) / float64(result.TradeCount)
		result.AvgPnL = result.TotalPnL / float64(result.TradeCount)
	}

	return result
}
