// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/teradata-labs/devflow/internal/pubsub"
)

const (
	// BaseBackoff is the delay before the first reconnect attempt.
	BaseBackoff = time.Second
	// MaxBackoff caps the reconnect delay.
	MaxBackoff = 30 * time.Second

	previewLen = 100
)

// Conn is the subset of a websocket connection the client needs.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens a connection to the relay.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// Timer is a pending reconnect.
type Timer interface {
	Stop() bool
}

// Clock schedules reconnects.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// WebsocketDialer dials with a gorilla websocket.Dialer.
type WebsocketDialer struct {
	Dialer *websocket.Dialer
}

func (d WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ClientConfig configures a relay Client.
type ClientConfig struct {
	// URL of the relay. Defaults to URL(Host, Port).
	URL  string
	Host string
	// Port defaults to ResolvePort(nil).
	Port   int
	Logger *zap.Logger
	Dialer Dialer
	Clock  Clock
}

// Client is the agent-side relay connection. It reconnects on its own until
// Disconnect is called, and its send path never returns an error to the
// caller.
type Client struct {
	url    string
	logger *zap.Logger
	dialer Dialer
	clock  Clock
	taps   *pubsub.Broker[Frame]

	mu       sync.Mutex
	state    ClientState
	conn     Conn
	attempts int
	timer    Timer
	timerSeq uint64
	stopped  bool
	gen      uint64
	cancel   context.CancelFunc

	writeMu sync.Mutex
}

// NewClient creates a client and begins connecting in the background.
func NewClient(cfg ClientConfig) *Client {
	c := newClient(cfg)
	c.Connect()
	return c
}

func newClient(cfg ClientConfig) *Client {
	if cfg.URL == "" {
		port := cfg.Port
		if port == 0 {
			port = ResolvePort(nil)
		}
		cfg.URL = URL(cfg.Host, port)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Dialer == nil {
		cfg.Dialer = WebsocketDialer{}
	}
	if cfg.Clock == nil {
		cfg.Clock = realClock{}
	}
	return &Client{
		url:    cfg.URL,
		logger: cfg.Logger.Named("relay.client").With(zap.String("url", cfg.URL)),
		dialer: cfg.Dialer,
		clock:  cfg.Clock,
		taps:   pubsub.NewBroker[Frame](0),
	}
}

// Backoff returns the reconnect delay after n consecutive failures:
// min(1s * 2^n, 30s).
func Backoff(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	if n >= 5 {
		return MaxBackoff
	}
	d := BaseBackoff << n
	if d > MaxBackoff {
		return MaxBackoff
	}
	return d
}

// Connect starts a connection attempt if none is open or in flight. It also
// re-enables automatic reconnects after Disconnect.
func (c *Client) Connect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = false
	c.connectLocked()
}

func (c *Client) connectLocked() {
	if c.state != Disconnected || c.stopped {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.state = Connecting
	c.gen++
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.dial(ctx, c.gen)
}

func (c *Client) dial(ctx context.Context, gen uint64) {
	conn, err := c.dialer.Dial(ctx, c.url)

	c.mu.Lock()
	if c.gen != gen || c.stopped {
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		c.state = Disconnected
		c.handleFailureLocked(err, false)
		c.mu.Unlock()
		return
	}
	c.conn = conn
	c.state = Connected
	c.attempts = 0
	c.logger.Info("connected to relay")
	c.mu.Unlock()

	c.readLoop(conn, gen)
}

// readLoop hands inbound frames to subscribers and reports when the
// connection ends.
func (c *Client) readLoop(conn Conn, gen uint64) {
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			c.onClose(gen, err)
			return
		}
		c.taps.Publish(pubsub.UpdatedEvent, Frame{Type: messageType, Data: data})
	}
}

// Subscribe observes frames as UpdatedEvent: those the relay delivers to
// this client and those this client writes, since the relay never echoes
// them back. The channel closes when ctx is done.
func (c *Client) Subscribe(ctx context.Context) <-chan pubsub.Event[Frame] {
	return c.taps.Subscribe(ctx)
}

func (c *Client) onClose(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.stopped {
		return
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.state = Disconnected
	c.handleFailureLocked(err, true)
}

func (c *Client) handleFailureLocked(err error, wasOpen bool) {
	switch {
	case wasOpen:
		c.logger.Info("disconnected from relay, will reconnect", zap.Error(err))
	case isRefused(err):
		if c.attempts == 0 {
			c.logger.Warn("relay not reachable, notifications disabled until it is",
				zap.Error(err))
		}
	default:
		c.logger.Warn("relay connection error", zap.Error(err))
	}
	c.scheduleReconnectLocked()
}

func (c *Client) scheduleReconnectLocked() {
	if c.stopped {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	delay := Backoff(c.attempts)
	c.attempts++
	c.timerSeq++
	seq := c.timerSeq
	c.logger.Debug("scheduling reconnect", zap.Duration("delay", delay),
		zap.Int("attempt", c.attempts))
	c.timer = c.clock.AfterFunc(delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if seq != c.timerSeq {
			return
		}
		c.timer = nil
		c.connectLocked()
	})
}

func isRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}

// Disconnect closes the connection and cancels any pending reconnect. No
// automatic reconnect happens afterwards until Connect is called.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.stopped = true
	c.gen++
	c.timerSeq++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	conn := c.conn
	c.conn = nil
	c.state = Disconnected
	c.mu.Unlock()

	if conn != nil {
		c.closeConn(conn)
	}
}

func (c *Client) closeConn(conn Conn) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("relay close panicked", zap.Any("panic", r))
		}
		_ = conn.Close()
	}()
	_ = c.write(conn, websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// write serializes writes on conn. The lock is released even if the
// underlying write panics.
func (c *Client) write(conn Conn, messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(messageType, data)
}

// Send writes data when connected and drops it otherwise. It never panics.
func (c *Client) Send(data []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("relay send panicked", zap.Any("panic", r))
		}
	}()

	c.mu.Lock()
	conn := c.conn
	connected := c.state == Connected
	c.mu.Unlock()

	if !connected || conn == nil {
		c.logger.Debug("relay not connected, dropping message",
			zap.String("preview", preview(data)))
		return
	}

	if err := c.write(conn, websocket.TextMessage, data); err != nil {
		c.logger.Debug("relay send failed", zap.Error(err))
		return
	}
	c.taps.Publish(pubsub.UpdatedEvent, Frame{Type: websocket.TextMessage, Data: data})
}

// BroadcastUpdate serializes v as JSON and sends it. Failures are logged and
// swallowed.
func (c *Client) BroadcastUpdate(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("relay message not serializable", zap.Error(err),
			zap.String("type", fmt.Sprintf("%T", v)))
		return
	}
	c.Send(data)
}

// IsConnected reports whether the connection is open.
func (c *Client) IsConnected() bool {
	return c.State() == Connected
}

// State returns the connection state.
func (c *Client) State() ClientState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts returns the number of consecutive failed attempts.
func (c *Client) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// URL returns the relay endpoint.
func (c *Client) URL() string {
	return c.url
}

func preview(data []byte) string {
	if len(data) <= previewLen {
		return string(data)
	}
	return string(data[:previewLen]) + "..."
}
