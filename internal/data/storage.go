// Package data provides the SQLite persistence sink for trades, windows,
// metrics, and alert state. The ingestion pipeline only writes to it; reads
// serve the query API (recent windows, CSV export) and rule restore at
// startup.
package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pradeep8949yadav/Live-Quant-Analytics/internal/model"
)

// Storage wraps a SQLite database for all persistence operations
type Storage struct {
	db *sql.DB
}

// New opens or creates the SQLite database at dbPath
func New(dbPath string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Storage{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ticks (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			symbol    TEXT NOT NULL,
			price     REAL NOT NULL,
			quantity  REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sampled_windows (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			symbol       TEXT NOT NULL,
			mean_price   REAL NOT NULL,
			std_price    REAL NOT NULL,
			min_price    REAL NOT NULL,
			max_price    REAL NOT NULL,
			total_volume REAL NOT NULL,
			trade_count  INTEGER NOT NULL,
			vwap         REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS metrics (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			symbol         TEXT NOT NULL,
			mean_price     REAL NOT NULL,
			std_price      REAL NOT NULL,
			volatility     REAL NOT NULL,
			z_score        REAL NOT NULL,
			sma_20         REAL NOT NULL,
			ema_20         REAL NOT NULL,
			rsi_14         REAL NOT NULL,
			correlation    REAL,
			garch_forecast REAL,
			adf_pvalue     REAL,
			trend          TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alert_rules (
			rule_id         TEXT PRIMARY KEY,
			symbol          TEXT NOT NULL,
			metric          TEXT NOT NULL,
			condition       TEXT NOT NULL,
			threshold       REAL NOT NULL,
			enabled         INTEGER NOT NULL,
			triggered_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alert_triggers (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			rule_id      TEXT NOT NULL,
			timestamp    INTEGER NOT NULL,
			symbol       TEXT NOT NULL,
			metric       TEXT NOT NULL,
			actual_value REAL NOT NULL,
			threshold    REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ticks_timestamp ON ticks(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_ticks_symbol ON ticks(symbol)`,
		`CREATE INDEX IF NOT EXISTS idx_windows_timestamp ON sampled_windows(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_timestamp ON metrics(timestamp)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertTrade persists one raw trade event
func (s *Storage) InsertTrade(event model.TradeEvent) error {
	_, err := s.db.Exec(`
		INSERT INTO ticks (timestamp, symbol, price, quantity)
		VALUES (?, ?, ?, ?)`,
		event.Timestamp, event.Symbol, event.Price, event.Quantity)
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	return nil
}

// InsertWindow persists one aggregated window
func (s *Storage) InsertWindow(window model.AggregatedWindow) error {
	_, err := s.db.Exec(`
		INSERT INTO sampled_windows
			(timestamp, symbol, mean_price, std_price, min_price, max_price, total_volume, trade_count, vwap)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		window.Timestamp, window.Symbol, window.MeanPrice, window.StdPrice,
		window.MinPrice, window.MaxPrice, window.TotalVolume, window.TradeCount, window.VWAP)
	if err != nil {
		return fmt.Errorf("failed to insert window: %w", err)
	}
	return nil
}

// InsertMetrics persists one metrics snapshot
func (s *Storage) InsertMetrics(snapshot model.MetricsSnapshot) error {
	_, err := s.db.Exec(`
		INSERT INTO metrics
			(timestamp, symbol, mean_price, std_price, volatility, z_score, sma_20, ema_20, rsi_14,
			 correlation, garch_forecast, adf_pvalue, trend)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snapshot.Timestamp, snapshot.Symbol, snapshot.MeanPrice, snapshot.StdPrice,
		snapshot.Volatility, snapshot.ZScore, snapshot.SMA20, snapshot.EMA20, snapshot.RSI14,
		nullable(snapshot.Correlation), nullable(snapshot.GarchForecast), nullable(snapshot.ADFPValue),
		snapshot.Trend)
	if err != nil {
		return fmt.Errorf("failed to insert metrics: %w", err)
	}
	return nil
}

// InsertAlertEvent persists one alert trigger
func (s *Storage) InsertAlertEvent(event model.AlertEvent) error {
	_, err := s.db.Exec(`
		INSERT INTO alert_triggers (rule_id, timestamp, symbol, metric, actual_value, threshold)
		VALUES (?, ?, ?, ?, ?, ?)`,
		event.RuleID, event.Timestamp, event.Symbol, event.Metric, event.ActualValue, event.Threshold)
	if err != nil {
		return fmt.Errorf("failed to insert alert event: %w", err)
	}
	return nil
}

// RecentWindows returns up to limit most recent windows for a symbol,
// oldest first.
func (s *Storage) RecentWindows(ctx context.Context, symbol string, limit int) ([]model.AggregatedWindow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, symbol, mean_price, std_price, min_price, max_price, total_volume, trade_count, vwap
		FROM sampled_windows
		WHERE symbol = ?
		ORDER BY timestamp DESC
		LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query windows: %w", err)
	}
	defer rows.Close()

	var windows []model.AggregatedWindow
	for rows.Next() {
		var w model.AggregatedWindow
		if err := rows.Scan(&w.Timestamp, &w.Symbol, &w.MeanPrice, &w.StdPrice,
			&w.MinPrice, &w.MaxPrice, &w.TotalVolume, &w.TradeCount, &w.VWAP); err != nil {
			return nil, fmt.Errorf("failed to scan window: %w", err)
		}
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into oldest-first order
	for i, j := 0, len(windows)-1; i < j; i, j = i+1, j-1 {
		windows[i], windows[j] = windows[j], windows[i]
	}
	if windows == nil {
		windows = []model.AggregatedWindow{}
	}
	return windows, nil
}

// csvHeader is the column order for metric exports
const csvHeader = "timestamp,symbol,mean_price,std_price,volatility,z_score,sma_20,ema_20,rsi_14,correlation,garch_forecast,adf_pvalue,trend"

// ExportMetricsCSV renders the symbol's metrics from the last hours as CSV.
// Optional columns are left empty when absent.
func (s *Storage) ExportMetricsCSV(ctx context.Context, symbol string, hours int) (string, error) {
	cutoff := time.Now().UnixMilli() - int64(hours)*3600*1000

	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, symbol, mean_price, std_price, volatility, z_score, sma_20, ema_20, rsi_14,
		       correlation, garch_forecast, adf_pvalue, trend
		FROM metrics
		WHERE symbol = ? AND timestamp > ?
		ORDER BY timestamp ASC`, symbol, cutoff)
	if err != nil {
		return "", fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	var sb strings.Builder
	sb.WriteString(csvHeader)
	sb.WriteByte('\n')

	for rows.Next() {
		var (
			timestamp                                                    int64
			sym, trend                                                   string
			meanPrice, stdPrice, volatility, zScore, sma20, ema20, rsi14 float64
			correlation, garchForecast, adfPValue                        sql.NullFloat64
		)
		if err := rows.Scan(&timestamp, &sym, &meanPrice, &stdPrice, &volatility, &zScore,
			&sma20, &ema20, &rsi14, &correlation, &garchForecast, &adfPValue, &trend); err != nil {
			return "", fmt.Errorf("failed to scan metrics: %w", err)
		}

		fields := []string{
			strconv.FormatInt(timestamp, 10),
			sym,
			formatFloat(meanPrice),
			formatFloat(stdPrice),
			formatFloat(volatility),
			formatFloat(zScore),
			formatFloat(sma20),
			formatFloat(ema20),
			formatFloat(rsi14),
			formatNullFloat(correlation),
			formatNullFloat(garchForecast),
			formatNullFloat(adfPValue),
			trend,
		}
		sb.WriteString(strings.Join(fields, ","))
		sb.WriteByte('\n')
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// CleanupOlderThan removes time-series rows older than the retention period.
// Rules are configuration, not time series, and are never cleaned up.
func (s *Storage) CleanupOlderThan(retentionDays int) error {
	cutoff := time.Now().UnixMilli() - int64(retentionDays)*24*3600*1000
	for _, table := range []string{"ticks", "sampled_windows", "metrics", "alert_triggers"} {
		if _, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE timestamp < ?", table), cutoff); err != nil {
			return fmt.Errorf("failed to clean up %s: %w", table, err)
		}
	}
	return nil
}

// SaveRules replaces the persisted rule set with the given rules
func (s *Storage) SaveRules(rules []model.AlertRule) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM alert_rules`); err != nil {
		return fmt.Errorf("failed to clear rules: %w", err)
	}
	for _, rule := range rules {
		if _, err := tx.Exec(`
			INSERT INTO alert_rules (rule_id, symbol, metric, condition, threshold, enabled, triggered_count)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rule.RuleID, rule.Symbol, rule.Metric, rule.Condition, rule.Threshold,
			boolToInt(rule.Enabled), rule.TriggeredCount); err != nil {
			return fmt.Errorf("failed to insert rule: %w", err)
		}
	}
	return tx.Commit()
}

// LoadRules returns every persisted alert rule
func (s *Storage) LoadRules() ([]model.AlertRule, error) {
	rows, err := s.db.Query(`
		SELECT rule_id, symbol, metric, condition, threshold, enabled, triggered_count
		FROM alert_rules`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var rules []model.AlertRule
	for rows.Next() {
		var rule model.AlertRule
		var enabled int
		if err := rows.Scan(&rule.RuleID, &rule.Symbol, &rule.Metric, &rule.Condition,
			&rule.Threshold, &enabled, &rule.TriggeredCount); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rule.Enabled = enabled != 0
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatNullFloat(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return formatFloat(v.Float64)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
