package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pradeep8949yadav/Live-Quant-Analytics/internal/model"
)

// ErrMaxRetries is returned by Run after the reconnect budget is exhausted.
// The client is in the failed state and will not retry on its own.
var ErrMaxRetries = errors.New("feed: max reconnect attempts reached")

// State is the feed connection lifecycle state
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Config holds feed connection parameters
type Config struct {
	WSURL         string
	Symbols       []string
	BaseBackoff   time.Duration
	MaxBackoff    time.Duration
	MaxReconnects int
}

// aggTradeMessage is the combined-stream trade payload. Price and quantity
// arrive string-encoded.
type aggTradeMessage struct {
	Stream string `json:"stream"`
	Data   struct {
		Symbol    string `json:"s"`
		Price     string `json:"p"`
		Quantity  string `json:"q"`
		TradeTime int64  `json:"T"`
	} `json:"data"`
}

// Client maintains the websocket subscription to the combined trade stream
// and forwards parsed trade events to the out channel. One Run call owns the
// connection lifecycle; Status is safe to call concurrently from anywhere.
type Client struct {
	config Config
	out    chan<- model.TradeEvent

	mu          sync.RWMutex
	state       State
	connectTime time.Time
	ticks       int64
	lastTick    int64

	logger *slog.Logger
	rng    *rand.Rand
}

// NewClient creates a feed client that sends parsed trades to out
func NewClient(config Config, out chan<- model.TradeEvent) *Client {
	return &Client{
		config: config,
		out:    out,
		state:  StateDisconnected,
		logger: slog.Default(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// streamURL builds the combined multi-symbol aggTrade subscription URL
func (c *Client) streamURL() string {
	streams := make([]string, len(c.config.Symbols))
	for i, symbol := range c.config.Symbols {
		streams[i] = strings.ToLower(symbol) + "@aggTrade"
	}
	return fmt.Sprintf("%s?streams=%s", c.config.WSURL, strings.Join(streams, "/"))
}

// Run connects and processes messages until ctx is cancelled or the
// reconnect budget runs out. On unexpected disconnects it retries with
// exponential backoff, resetting the attempt counter after every successful
// connect. Returns ErrMaxRetries from the failed terminal state.
func (c *Client) Run(ctx context.Context) error {
	url := c.streamURL()
	attempt := 0

	for attempt < c.config.MaxReconnects {
		if ctx.Err() != nil {
			c.setState(StateClosed)
			return ctx.Err()
		}

		c.setState(StateConnecting)
		c.logger.Info("connecting to feed", "url", url, "attempt", attempt)

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err == nil {
			c.mu.Lock()
			c.state = StateConnected
			c.connectTime = time.Now()
			c.mu.Unlock()
			attempt = 0
			c.logger.Info("feed connected")

			err = c.listen(ctx, conn)
			conn.Close()
			if ctx.Err() != nil {
				c.setState(StateClosed)
				return ctx.Err()
			}
			c.logger.Warn("feed connection lost", "error", err)
		} else {
			c.logger.Error("feed dial failed", "error", err)
		}

		attempt++
		if attempt >= c.config.MaxReconnects {
			break
		}

		c.setState(StateReconnecting)
		wait := backoffDelay(attempt, c.config.BaseBackoff, c.config.MaxBackoff) +
			time.Duration(c.rng.Float64()*float64(time.Second))
		c.logger.Info("reconnecting", "wait", wait, "attempt", attempt)

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			c.setState(StateClosed)
			return ctx.Err()
		}
	}

	c.setState(StateFailed)
	c.logger.Error("feed failed", "attempts", c.config.MaxReconnects)
	return ErrMaxRetries
}

// listen reads messages until the connection drops or ctx is cancelled
func (c *Client) listen(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		event, ok := c.parseMessage(raw)
		if !ok {
			continue
		}

		c.mu.Lock()
		c.ticks++
		c.lastTick = event.Timestamp
		c.mu.Unlock()

		select {
		case c.out <- event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// parseMessage converts a raw stream message into a trade event. Malformed
// or schema-mismatched messages are dropped at debug level, never surfaced
// as errors.
func (c *Client) parseMessage(raw []byte) (model.TradeEvent, bool) {
	var msg aggTradeMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.logger.Debug("dropping unparseable message", "error", err)
		return model.TradeEvent{}, false
	}
	if msg.Data.Symbol == "" || msg.Data.Price == "" {
		c.logger.Debug("dropping message with unexpected shape")
		return model.TradeEvent{}, false
	}

	price, err := strconv.ParseFloat(msg.Data.Price, 64)
	if err != nil || price <= 0 {
		c.logger.Debug("dropping message with bad price", "price", msg.Data.Price)
		return model.TradeEvent{}, false
	}
	quantity, err := strconv.ParseFloat(msg.Data.Quantity, 64)
	if err != nil || quantity < 0 {
		c.logger.Debug("dropping message with bad quantity", "quantity", msg.Data.Quantity)
		return model.TradeEvent{}, false
	}

	timestamp := msg.Data.TradeTime
	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}

	return model.TradeEvent{
		Timestamp: timestamp,
		Symbol:    strings.ToUpper(msg.Data.Symbol),
		Price:     price,
		Quantity:  quantity,
	}, true
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Status reports the current connection state, uptime, and tick counters
func (c *Client) Status() model.ConnectionStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := model.ConnectionStatus{
		Status:        c.state.String(),
		TicksReceived: c.ticks,
	}
	if c.state == StateConnected && !c.connectTime.IsZero() {
		status.UptimeSeconds = time.Since(c.connectTime).Seconds()
	}
	if c.lastTick != 0 {
		last := c.lastTick
		status.LastTickTimestamp = &last
	}
	return status
}

// backoffDelay returns the deterministic part of the reconnect wait:
// base*2^attempt capped at max. Jitter is added by the caller.
func backoffDelay(attempt int, base, max time.Duration) time.Duration {
	wait := float64(base) * math.Pow(2, float64(attempt))
	if wait > float64(max) {
		return max
	}
	return time.Duration(wait)
}
