package ws

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// State is the connection lifecycle phase of the realtime channel.
type State int32

// Connection states. The cycle runs Disconnected through Connected and back
// on loss; Stopped is terminal and reachable from anywhere.
const (
	StateDisconnected State = iota
	StateResolving
	StateConnecting
	StateAuthenticating
	StateConnected
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateResolving:
		return "resolving"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateConnected:
		return "connected"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Default client timings.
const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultCommandTimeout   = 10 * time.Second
	defaultPingInterval     = 15 * time.Second
	controlWriteWait        = 5 * time.Second
)

// Config holds the realtime channel settings.
type Config struct {
	// DispatchURL is the base URL of the dispatch service that assigns a
	// gateway host, e.g. "https://eu-dispa.coolkit.cc".
	DispatchURL string

	// Endpoint, when set, is used directly as the WebSocket address and
	// the dispatch service is skipped.
	Endpoint string

	// APIKey is the account API key announced with the session.
	APIKey string

	// AppID is the registered application identifier.
	AppID string

	// AccessToken authenticates the session announce.
	AccessToken string

	// HandshakeTimeout bounds the WebSocket dial. Default 10s.
	HandshakeTimeout time.Duration

	// CommandTimeout bounds the wait for a command acknowledgement.
	// Default 10s.
	CommandTimeout time.Duration

	// PingInterval is the keepalive ping cadence. Default 15s.
	PingInterval time.Duration

	// HTTPClient performs dispatch requests. Defaults to a client with the
	// handshake timeout.
	HTTPClient *http.Client

	// Logger is optional.
	Logger Logger
}

// Stats is a snapshot of channel counters.
type Stats struct {
	State           string `json:"state"`
	FramesReceived  uint64 `json:"frames_received"`
	CommandsSent    uint64 `json:"commands_sent"`
	SessionsTotal   uint64 `json:"sessions_total"`
	PendingCommands int    `json:"pending_commands"`
}

// Client owns the persistent realtime connection.
//
// One supervising goroutine runs the connect/read/reconnect cycle; commands
// and frame handling happen on the caller's and reader's goroutines. See the
// package documentation for the lifecycle description.
type Client struct {
	cfg        Config
	logger     Logger
	httpClient *http.Client

	correlator *Correlator

	// onFrame receives every inbound text frame. Set before Start.
	onFrame   func([]byte)
	handlerMu sync.RWMutex

	conn    *websocket.Conn
	connMu  sync.RWMutex
	writeMu sync.Mutex

	state atomic.Int32

	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup

	framesRx      atomic.Uint64
	commandsTx    atomic.Uint64
	sessionsTotal atomic.Uint64
}

// New creates a realtime client. Call Start to begin connecting.
func New(cfg Config) *Client {
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	if cfg.CommandTimeout == 0 {
		cfg.CommandTimeout = defaultCommandTimeout
	}
	if cfg.PingInterval == 0 {
		cfg.PingInterval = defaultPingInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HandshakeTimeout}
	}

	return &Client{
		cfg:        cfg,
		logger:     logger,
		httpClient: httpClient,
		correlator: NewCorrelator(),
	}
}

// SetHandler installs the inbound frame handler. Must be called before
// Start; typically wired to Router.Route.
func (c *Client) SetHandler(fn func([]byte)) {
	c.handlerMu.Lock()
	c.onFrame = fn
	c.handlerMu.Unlock()
}

// Correlator returns the channel's acknowledgement correlator.
func (c *Client) Correlator() *Correlator {
	return c.correlator
}

// State returns the current lifecycle phase.
func (c *Client) State() State {
	return State(c.state.Load())
}

// IsConnected reports whether commands can currently be sent.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Stats returns a snapshot of channel counters.
func (c *Client) Stats() Stats {
	return Stats{
		State:           c.State().String(),
		FramesReceived:  c.framesRx.Load(),
		CommandsSent:    c.commandsTx.Load(),
		SessionsTotal:   c.sessionsTotal.Load(),
		PendingCommands: c.correlator.PendingCount(),
	}
}

// Start launches the supervising goroutine. The channel keeps reconnecting
// until ctx is cancelled or Stop is called.
func (c *Client) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.run(runCtx)
}

// Stop tears the channel down: the supervising context is cancelled, the
// socket closed, and no further reconnect is scheduled. Safe to call more
// than once.
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
		c.closeConn()
		c.wg.Wait()
		c.setState(StateStopped)
	})
}

// run is the supervising loop: one session per iteration, backoff between
// failures. The backoff resets once a session is established, so the first
// retry after a healthy session waits the initial delay again.
func (c *Client) run(ctx context.Context) {
	defer c.wg.Done()

	b := newBackoff(initialReconnectDelay, reconnectDelayStep, maxReconnectDelay)

	for {
		if ctx.Err() != nil {
			c.setState(StateStopped)
			return
		}

		err := c.session(ctx, b)

		if ctx.Err() != nil {
			c.setState(StateStopped)
			return
		}

		delay := b.Next()
		c.logger.Info("realtime channel down, reconnecting",
			"delay", delay.String(), "error", err)

		if !sleepCtx(ctx, delay) {
			c.setState(StateStopped)
			return
		}
	}
}

// session performs one connect cycle: resolve, dial, announce, then read
// until the connection drops. Returns the error that ended the session.
func (c *Client) session(ctx context.Context, b *backoff) error {
	c.setState(StateResolving)
	endpoint, err := c.resolveEndpoint(ctx)
	if err != nil {
		c.setState(StateDisconnected)
		return err
	}

	c.setState(StateConnecting)
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("dialing %s: %w", endpoint, err)
	}

	c.setConn(conn)
	defer func() {
		c.closeConn()
		c.setState(StateDisconnected)
		// Waiters fail immediately rather than sitting out their timers.
		c.correlator.FailAll(ErrConnectionLost)
	}()

	c.setState(StateAuthenticating)
	announce := newOnlineAnnounce(c.cfg.APIKey, c.cfg.AppID, c.cfg.AccessToken,
		c.correlator.NextSequence())
	if err := c.writeJSON(announce); err != nil {
		return fmt.Errorf("sending session announce: %w", err)
	}

	// The announce gets no direct confirmation; traffic implies success.
	c.setState(StateConnected)
	b.Reset()
	c.sessionsTotal.Add(1)
	c.logger.Info("realtime channel connected", "endpoint", endpoint)

	pingCtx, stopPing := context.WithCancel(ctx)
	defer stopPing()
	c.wg.Add(1)
	go c.pingLoop(pingCtx, conn)

	return c.readLoop(ctx, conn)
}

// readLoop delivers inbound text frames to the handler until the connection
// fails or the context is cancelled.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %w", ErrConnectionLost, err)
		}
		if msgType != websocket.TextMessage {
			continue
		}
		c.framesRx.Add(1)

		c.handlerMu.RLock()
		fn := c.onFrame
		c.handlerMu.RUnlock()
		if fn != nil {
			fn(data)
		}
	}
}

// pingLoop sends keepalive pings for the lifetime of one session.
func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(controlWriteWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// Do sends a control command to a device and waits for its acknowledgement.
//
// While the channel is not connected it fails fast with ErrNotConnected.
// A missing reply yields a synthesized timeout acknowledgement rather than
// an error; a connection loss mid-wait returns ErrConnectionLost.
func (c *Client) Do(ctx context.Context, deviceID, deviceKey string, params map[string]any) (*Ack, error) {
	if c.State() != StateConnected {
		return nil, ErrNotConnected
	}

	sequence := c.correlator.NextSequence()
	ch := c.correlator.register(sequence)

	cmd := commandEnvelope{
		Action:     ActionUpdate,
		APIKey:     deviceKey,
		DeviceID:   deviceID,
		Params:     params,
		SelfAPIKey: c.cfg.APIKey,
		Sequence:   sequence,
		UserAgent:  userAgent,
	}

	if err := c.writeJSON(cmd); err != nil {
		c.correlator.cancel(sequence)
		return nil, err
	}
	c.commandsTx.Add(1)
	c.logger.Debug("command sent", "deviceid", deviceID, "sequence", sequence)

	timer := time.NewTimer(c.cfg.CommandTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		return ackFromReply(res.reply), nil
	case <-timer.C:
		c.correlator.cancel(sequence)
		c.logger.Warn("command acknowledgement timed out",
			"deviceid", deviceID, "sequence", sequence)
		return timeoutAck(sequence), nil
	case <-ctx.Done():
		c.correlator.cancel(sequence)
		return nil, ctx.Err()
	}
}

// writeJSON serialises one frame onto the socket. Writes are serialised by
// a mutex; the socket does not allow concurrent writers.
func (c *Client) writeJSON(v any) error {
	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(v)
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
}

func (c *Client) closeConn() {
	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

// sleepCtx waits for d, returning false if ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
