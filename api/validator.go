package api

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Validator handles validation logic separate from HTTP concerns
type Validator struct {
	supportedMetrics    map[string]bool
	supportedConditions map[string]bool
	symbolRegex         *regexp.Regexp
}

var (
	validatorInstance *Validator
	validatorOnce     sync.Once
)

// GetValidator returns the singleton validator instance
func GetValidator() *Validator {
	validatorOnce.Do(func() {
		validatorInstance = &Validator{
			supportedMetrics: map[string]bool{
				"z_score":    true,
				"volatility": true,
				"mean_price": true,
				"rsi_14":     true,
			},
			supportedConditions: map[string]bool{
				">":  true,
				"<":  true,
				">=": true,
				"<=": true,
				"==": true,
				"!=": true,
			},
			// Binance-style pair symbols, e.g. BTCUSDT
			symbolRegex: regexp.MustCompile(`^[A-Z0-9]{5,12}$`),
		}
	})
	return validatorInstance
}

// ValidateSymbol validates and normalizes a trading symbol
func (v *Validator) ValidateSymbol(symbol string) (string, error) {
	cleanSymbol := strings.ToUpper(v.sanitizeInput(symbol))

	if cleanSymbol == "" {
		return "", errors.New("symbol parameter is required")
	}

	if !v.symbolRegex.MatchString(cleanSymbol) {
		return "", errors.New("symbol must be 5-12 uppercase letters or digits, e.g. BTCUSDT")
	}

	return cleanSymbol, nil
}

// ValidateLimit validates the limit parameter, falling back to def when absent
func (v *Validator) ValidateLimit(limitStr string, def int) (int, error) {
	if limitStr == "" {
		return def, nil
	}

	limitStr = v.sanitizeInput(limitStr)

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return 0, errors.New("limit must be a valid number")
	}

	if limit < 1 || limit > 1000 {
		return 0, errors.New("limit must be between 1 and 1000")
	}

	return limit, nil
}

// ValidateHours validates the hours parameter for CSV export, up to one week
func (v *Validator) ValidateHours(hoursStr string, def int) (int, error) {
	if hoursStr == "" {
		return def, nil
	}

	hoursStr = v.sanitizeInput(hoursStr)

	hours, err := strconv.Atoi(hoursStr)
	if err != nil {
		return 0, errors.New("hours must be a valid number")
	}

	if hours < 1 || hours > 168 {
		return 0, errors.New("hours must be between 1 and 168")
	}

	return hours, nil
}

// ValidateThreshold validates an optional float threshold parameter
func (v *Validator) ValidateThreshold(thresholdStr string, def float64) (float64, error) {
	if thresholdStr == "" {
		return def, nil
	}

	thresholdStr = v.sanitizeInput(thresholdStr)

	threshold, err := strconv.ParseFloat(thresholdStr, 64)
	if err != nil {
		return 0, errors.New("threshold must be a valid number")
	}

	if threshold <= 0 {
		return 0, errors.New("threshold must be positive")
	}

	return threshold, nil
}

// ValidateAlertRuleRequest validates the fields of an alert rule payload
func (v *Validator) ValidateAlertRuleRequest(symbol, metric, condition string) (string, error) {
	cleanSymbol, err := v.ValidateSymbol(symbol)
	if err != nil {
		return "", err
	}

	if !v.supportedMetrics[metric] {
		return "", fmt.Errorf("invalid metric '%s'. Supported values: z_score, volatility, mean_price, rsi_14", metric)
	}

	if !v.supportedConditions[condition] {
		return "", fmt.Errorf("invalid condition '%s'. Supported values: >, <, >=, <=, ==, !=", condition)
	}

	return cleanSymbol, nil
}

// sanitizeInput removes potentially dangerous characters and trims whitespace
func (v *Validator) sanitizeInput(input string) string {
	// Trim whitespace
	input = strings.TrimSpace(input)

	// Remove null bytes and control characters
	input = strings.ReplaceAll(input, "\x00", "")
	input = strings.Map(func(r rune) rune {
		// Keep printable ASCII and common symbols, remove control chars
		if r < 32 && r != 9 && r != 10 && r != 13 { // Keep tab, LF, CR
			return -1 // Remove character
		}
		return r
	}, input)

	// Limit length to prevent DoS
	if len(input) > 100 {
		input = input[:100]
	}

	return input
}
