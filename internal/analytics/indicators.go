package analytics

import (
	"math"

	"github.com/pradeep8949yadav/Live-Quant-Analytics/internal/model"
)

// Stateless indicator math over price/volume/return slices. Every function
// defines an explicit fallback for short or degenerate input; none of them
// can fail.

// Mean returns the arithmetic mean, 0.0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Std returns the population standard deviation, 0.0 for fewer than 2 samples.
func Std(values []float64) float64 {
	if len(values) < 2 {
		return 0.0
	}
	m := Mean(values)
	var sumSquares float64
	for _, v := range values {
		diff := v - m
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(values)))
}

// VWAP returns the volume-weighted average price, 0.0 when total volume is
// zero or the slices are mismatched.
func VWAP(prices, volumes []float64) float64 {
	if len(prices) == 0 || len(prices) != len(volumes) {
		return 0.0
	}
	var num, denom float64
	for i := range prices {
		num += prices[i] * volumes[i]
		denom += volumes[i]
	}
	if denom <= 0 {
		return 0.0
	}
	return num / denom
}

// SMA returns the mean of the last period samples, falling back to the mean
// of everything available.
func SMA(values []float64, period int) float64 {
	if len(values) < period {
		return Mean(values)
	}
	return Mean(values[len(values)-period:])
}

// EMA returns the exponential moving average seeded with the first sample and
// walked oldest to newest. Falls back to SMA when fewer than period samples.
func EMA(values []float64, period int) float64 {
	if len(values) == 0 {
		return 0.0
	}
	if len(values) < period {
		return Mean(values)
	}
	k := 2.0 / float64(period+1)
	ema := values[0]
	for _, v := range values[1:] {
		ema = v*k + ema*(1-k)
	}
	return ema
}

// RSI returns the relative strength index over the last period deltas.
// Returns the neutral 50.0 with fewer than period+1 samples, and 100.0 when
// there are gains but no losses.
func RSI(values []float64, period int) float64 {
	if len(values) < period+1 {
		return 50.0
	}
	changes := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		changes = append(changes, values[i]-values[i-1])
	}
	var avgGain, avgLoss float64
	for _, c := range changes[len(changes)-period:] {
		if c > 0 {
			avgGain += c
		} else {
			avgLoss += -c
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	if avgLoss == 0 {
		if avgGain > 0 {
			return 100.0
		}
		return 50.0
	}

	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// ZScore returns (value-mean)/std, 0.0 when std is zero.
func ZScore(value, mean, std float64) float64 {
	if std == 0 {
		return 0.0
	}
	return (value - mean) / std
}

// Correlation returns the Pearson coefficient, or nil when the series are
// mismatched, shorter than 2, or either has zero variance. Absence is a
// routine outcome here, not an error.
func Correlation(x, y []float64) *float64 {
	if len(x) < 2 || len(y) < 2 || len(x) != len(y) {
		return nil
	}
	xMean := Mean(x)
	yMean := Mean(y)

	var numerator float64
	for i := range x {
		numerator += (x[i] - xMean) * (y[i] - yMean)
	}

	xStd := Std(x)
	yStd := Std(y)
	if xStd == 0 || yStd == 0 {
		return nil
	}

	corr := numerator / (float64(len(x)) * xStd * yStd)
	return &corr
}

// DetectTrend classifies the trend from the current price against its moving
// averages.
func DetectTrend(sma, ema, currentPrice float64) string {
	switch {
	case currentPrice > sma && sma > ema:
		return model.TrendUp
	case currentPrice < sma && sma < ema:
		return model.TrendDown
	default:
		return model.TrendNeutral
	}
}

// StationarityPValue returns a cheap stationarity proxy: lag-1 autocorrelation
// folded into a pseudo p-value 1/(1+|autocorr|), where lower means more
// mean-reverting. Nil with fewer than 10 samples; 1.0 when variance is zero.
// This is a deliberate shortcut, not a real ADF test.
func StationarityPValue(values []float64) *float64 {
	if len(values) < 10 {
		return nil
	}
	mean := Mean(values)
	var autocov, variance float64
	for i := 1; i < len(values); i++ {
		autocov += (values[i] - mean) * (values[i-1] - mean)
	}
	autocov /= float64(len(values))
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))

	if variance == 0 {
		one := 1.0
		return &one
	}

	autocorr := autocov / variance
	p := 1.0 / (1.0 + math.Abs(autocorr))
	return &p
}

// GarchForecast returns a one-step GARCH(1,1)-style volatility forecast with
// fixed alpha/beta and omega backed out from the long-term variance. Nil with
// fewer than 10 returns. A cheap stand-in for a fitted model.
func GarchForecast(returns []float64, alpha, beta float64) *float64 {
	if len(returns) < 10 {
		return nil
	}

	currentReturn := returns[len(returns)-1]
	currentVolSq := Std(returns) * Std(returns)

	longTermVar := populationVariance(returns)
	omega := (1 - alpha - beta) * longTermVar

	forecastVolSq := omega + alpha*currentReturn*currentReturn + beta*currentVolSq
	f := math.Sqrt(math.Max(forecastVolSq, 0.0))
	return &f
}

func populationVariance(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	mean := Mean(values)
	var sumSquares float64
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}
