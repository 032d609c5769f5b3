package model

// TradeEvent represents a single trade received from the exchange feed
type TradeEvent struct {
	Timestamp int64   `json:"timestamp"`
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Quantity  float64 `json:"quantity"`
}

// AggregatedWindow represents per-symbol trade statistics over one flush interval
type AggregatedWindow struct {
	Timestamp   int64   `json:"timestamp"`
	Symbol      string  `json:"symbol"`
	MeanPrice   float64 `json:"mean_price"`
	StdPrice    float64 `json:"std_price"`
	MinPrice    float64 `json:"min_price"`
	MaxPrice    float64 `json:"max_price"`
	TotalVolume float64 `json:"total_volume"`
	TradeCount  int     `json:"trade_count"`
	VWAP        float64 `json:"vwap"`
}

// Trend labels reported in MetricsSnapshot.Trend
const (
	TrendUp      = "uptrend"
	TrendDown    = "downtrend"
	TrendNeutral = "neutral"
)

// MetricsSnapshot holds the derived indicators computed for a symbol on each flush.
// Pointer fields are nil when there is not enough history to compute them.
type MetricsSnapshot struct {
	Timestamp     int64    `json:"timestamp"`
	Symbol        string   `json:"symbol"`
	MeanPrice     float64  `json:"mean_price"`
	StdPrice      float64  `json:"std_price"`
	Volatility    float64  `json:"volatility"`
	ZScore        float64  `json:"z_score"`
	SMA20         float64  `json:"sma_20"`
	EMA20         float64  `json:"ema_20"`
	RSI14         float64  `json:"rsi_14"`
	Correlation   *float64 `json:"correlation,omitempty"`
	GarchForecast *float64 `json:"garch_forecast,omitempty"`
	ADFPValue     *float64 `json:"adf_pvalue,omitempty"`
	Trend         string   `json:"trend"`
}

// AlertRule defines a threshold condition evaluated against fresh metrics
type AlertRule struct {
	RuleID         string  `json:"rule_id"`
	Symbol         string  `json:"symbol"`
	Metric         string  `json:"metric"`
	Condition      string  `json:"condition"`
	Threshold      float64 `json:"threshold"`
	Enabled        bool    `json:"enabled"`
	TriggeredCount int     `json:"triggered_count"`
}

// AlertEvent records a single rule trigger
type AlertEvent struct {
	RuleID      string  `json:"rule_id"`
	Timestamp   int64   `json:"timestamp"`
	Symbol      string  `json:"symbol"`
	Metric      string  `json:"metric"`
	ActualValue float64 `json:"actual_value"`
	Threshold   float64 `json:"threshold"`
}

// BacktestResult summarizes a mean-reversion backtest over one symbol's history
type BacktestResult struct {
	Symbol     string  `json:"symbol"`
	TradeCount int     `json:"trades"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	WinRate    float64 `json:"win_rate"`
	TotalPnL   float64 `json:"total_pnl"`
	AvgPnL     float64 `json:"avg_pnl"`
}

// ConnectionStatus reports the feed client state for the status endpoint
type ConnectionStatus struct {
	Status            string  `json:"status"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
	TicksReceived     int64   `json:"ticks_received"`
	LastTickTimestamp *int64  `json:"last_tick_timestamp,omitempty"`
}
