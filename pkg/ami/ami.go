package ami

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// loginActionName is the only action exempt from implicit login.
const loginActionName = "Login"

// Reconnect backoff bounds. Attempts are unlimited; Close cancels the loop.
const (
	reconnectBaseDelay = 500 * time.Millisecond
	reconnectMaxDelay  = 30 * time.Second
)

// ConnectionState is the lifecycle state of the manager session.
type ConnectionState int

const (
	// StateDisconnected means no transport connection exists.
	StateDisconnected ConnectionState = iota
	// StateConnecting means the transport is open but the server greeting
	// has not been observed yet.
	StateConnecting
	// StateConnected means the greeting was observed; actions may be sent
	// but the session is not authenticated.
	StateConnected
	// StateAuthenticated means a Login action succeeded.
	StateAuthenticated
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateAuthenticated:
		return "Authenticated"
	default:
		return fmt.Sprintf("ConnectionState(%d)", int(s))
	}
}

// EventKind classifies a ConnectionEvent.
type EventKind int

const (
	// EventConnected is emitted when the server greeting is observed.
	EventConnected EventKind = iota
	// EventDisconnected is emitted when the connection closes; Err is set
	// if the closure was caused by a transport error.
	EventDisconnected
	// EventError is emitted for a transport error, ahead of the
	// EventDisconnected it causes.
	EventError
)

// ConnectionEvent notifies collaborators of connection lifecycle changes.
type ConnectionEvent struct {
	Kind EventKind
	Err  error
}

// Logger is an interface that wraps the basic logging methods
// and can be used to bridge [Client] with a real logger implementation
// (e.g., logrus, zap, etc.).
type Logger interface {
	Info(args ...interface{})
	Infof(template string, args ...interface{})
}

// nopLogger is a no-op implementation of [Logger] (does nothing)
type nopLogger struct{}

func (n *nopLogger) Info(_ ...interface{})            {}
func (n *nopLogger) Infof(_ string, _ ...interface{}) {}

// ClientStats holds counters describing a [Client] instance.
type ClientStats struct {
	TxStats struct {
		SuccessfulActions uint32 `json:"successful_actions"`
		FailedActions     uint32 `json:"failed_actions"`
		SuccessfulPings   uint32 `json:"successful_pings"`
		FailedPings       uint32 `json:"failed_pings"`
	} `json:"tx_stats"`
	RxStats struct {
		Packets        uint32 `json:"packet_count"`
		DroppedPackets uint32 `json:"dropped_packet_count"`
	} `json:"rx_stats"`
}

type clientCounters struct {
	successfulActions atomic.Uint32
	failedActions     atomic.Uint32
	successfulPings   atomic.Uint32
	failedPings       atomic.Uint32
	packets           atomic.Uint32
	droppedPackets    atomic.Uint32
}

// Client is a manager interface session over a single persistent TCP
// connection. It owns the connection lifecycle (connect, authenticate,
// keepalive, reconnect) and multiplexes concurrently outstanding actions by
// correlation identifier.
type Client struct {
	// CONFIG

	host              string
	port              uint16
	username          string
	secret            string
	autoReconnect     bool
	keepAlive         bool
	keepAliveInterval time.Duration
	decodeInterval    time.Duration
	connectTimeout    time.Duration
	writeTimeout      time.Duration
	logger            Logger

	// STATUS

	decoder *frameDecoder
	corr    *correlator

	// mu guards conn, state, closed and the cancel handles. All state
	// transitions happen under it.
	mu              sync.Mutex
	conn            net.Conn
	state           ConnectionState
	closed          bool
	connCtx         context.Context
	connCancel      context.CancelFunc
	reconnectCancel context.CancelFunc

	// txMu serializes writes to the connection.
	txMu sync.Mutex

	// loginMu serializes login attempts so concurrent implicit logins
	// collapse into one.
	loginMu sync.Mutex

	counters clientCounters

	// Channel of connection lifecycle events.
	events chan ConnectionEvent

	// Channel of every decoded packet, for collaborators that want
	// visibility beyond request/response pairing.
	packets chan *Packet
}

// New creates a new [Client] with the provided options.
// Options can be set using functional options like [SetAddress],
// [SetCredentials], [SetLogger], etc. If no options are provided, it will
// use default values.
func New(options ...func(*Client) error) (*Client, error) {
	c := &Client{
		host:              "127.0.0.1",
		port:              5038,
		autoReconnect:     true,
		keepAlive:         true,
		keepAliveInterval: 30 * time.Second,
		decodeInterval:    500 * time.Millisecond,
		connectTimeout:    10 * time.Second,
		writeTimeout:      time.Second,
		state:             StateDisconnected,
		decoder:           newFrameDecoder(),
		corr:              newCorrelator(),
		events:            make(chan ConnectionEvent, 100),
		packets:           make(chan *Packet, 100),
	}

	if err := c.SetOption(options...); err != nil {
		return nil, err
	}

	if c.logger == nil {
		c.logger = &nopLogger{} // Use a no-op logger if none is provided
	}

	c.decoder.onGreeting = c.handleGreeting

	return c, nil
}

// GetEventChan returns the receive-only channel of connection events.
func (c *Client) GetEventChan() <-chan ConnectionEvent {
	return c.events
}

// GetPacketChan returns the receive-only channel carrying every decoded
// packet, including unsolicited ones that match no pending action. Packets
// are dropped (and counted) if the consumer falls behind.
func (c *Client) GetPacketChan() <-chan *Packet {
	return c.packets
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stats returns a snapshot of the client counters.
func (c *Client) Stats() ClientStats {
	var s ClientStats
	s.TxStats.SuccessfulActions = c.counters.successfulActions.Load()
	s.TxStats.FailedActions = c.counters.failedActions.Load()
	s.TxStats.SuccessfulPings = c.counters.successfulPings.Load()
	s.TxStats.FailedPings = c.counters.failedPings.Load()
	s.RxStats.Packets = c.counters.packets.Load()
	s.RxStats.DroppedPackets = c.counters.droppedPackets.Load()
	return s
}

// Connect opens the transport connection and starts the read and decode
// loops. It is a no-op when a connection is already open. Authentication is
// a separate step, see [Client.Login].
func (c *Client) Connect() error {
	c.mu.Lock()
	c.closed = false
	c.mu.Unlock()
	return c.connect()
}

// connect is the reconnect-safe connect sequence: unlike Connect it never
// revives a session the user has closed.
func (c *Client) connect() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	addr := net.JoinHostPort(c.host, fmt.Sprintf("%d", c.port))
	c.mu.Unlock()

	c.logger.Infof("connecting to manager interface at %s", addr)
	conn, err := net.DialTimeout("tcp", addr, c.connectTimeout)
	if err != nil {
		return &ConnectionError{Op: "dial", Err: err}
	}

	c.mu.Lock()
	if c.closed || c.conn != nil {
		c.mu.Unlock()
		_ = conn.Close()
		return ErrSessionClosed
	}
	c.conn = conn
	c.state = StateConnecting
	ctx, cancel := context.WithCancel(context.Background())
	c.connCtx = ctx
	c.connCancel = cancel
	c.mu.Unlock()

	go c.readLoop(ctx, conn)
	go c.decodeLoop(ctx)

	return nil
}

// Login connects if needed and authenticates with the configured
// credentials. A server refusal returns (false, nil); transport failures
// return an error. On success the keepalive loop is armed if enabled.
func (c *Client) Login(ctx context.Context) (bool, error) {
	c.loginMu.Lock()
	defer c.loginMu.Unlock()

	if c.State() == StateAuthenticated {
		return true, nil
	}

	if err := c.Connect(); err != nil {
		return false, err
	}

	action := NewAction(loginActionName,
		Field{Name: "Username", Value: c.username},
		Field{Name: "Secret", Value: c.secret},
	)
	_, err := c.send(ctx, action)
	if err != nil {
		var ae *ActionError
		if errors.As(err, &ae) {
			c.logger.Infof("login refused by server: %s", ae.Message)
			return false, nil
		}
		return false, err
	}

	c.mu.Lock()
	// The connection may have died between the login response and here; in
	// that case the state stays Disconnected and no keepalive is armed.
	if c.conn != nil {
		c.state = StateAuthenticated
	}
	// Keepalives live exactly as long as the connection they probe: they
	// run on the per-connection context so a disconnect stops them.
	connCtx := c.connCtx
	c.mu.Unlock()

	c.logger.Info("authenticated with manager interface")

	if c.keepAlive && connCtx != nil {
		go c.keepAliveLoop(connCtx)
	}

	return true, nil
}

// Send issues an action and blocks until its response arrives, the context
// expires, or the session tears down. Non-Login actions sent while not
// authenticated first attempt an implicit login with the configured
// credentials; an authentication failure surfaces as the action's error.
//
// Single-packet responses resolve with that packet. Multi-packet list
// responses resolve once the trailer arrives, with items in receipt order.
// A response status other than Success rejects the action with an
// [ActionError] carrying the server's message.
func (c *Client) Send(ctx context.Context, action Action) (*Response, error) {
	if action.Name == "" {
		return nil, ErrMissingAction
	}

	if action.Name != loginActionName && c.State() != StateAuthenticated {
		ok, err := c.Login(ctx)
		if err != nil {
			return nil, fmt.Errorf("implicit login: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("implicit login: %w", ErrAuthenticationFailed)
		}
	}

	return c.send(ctx, action)
}

// send is the raw correlated request primitive: it registers the pending
// request before writing, so a response can never beat registration.
func (c *Client) send(ctx context.Context, action Action) (*Response, error) {
	if action.Name == "" {
		return nil, ErrMissingAction
	}

	id := uuid.NewString()
	pr := c.corr.register(id, action)

	if err := c.write(marshalAction(action, id)); err != nil {
		c.corr.drop(id)
		c.counters.failedActions.Add(1)
		return nil, err
	}
	c.counters.successfulActions.Add(1)

	select {
	case res := <-pr.done:
		return res.resp, res.err
	case <-ctx.Done():
		c.corr.drop(id)
		return nil, ctx.Err()
	}
}

// Ping issues a Ping action. It reports true only when the server answers
// Success with the Pong acknowledgement.
func (c *Client) Ping(ctx context.Context) (bool, error) {
	resp, err := c.Send(ctx, NewAction("Ping"))
	if err != nil {
		return false, err
	}
	return resp.Success() && resp.Packet.GetString("Ping") == "Pong", nil
}

// ModuleCheck reports whether the named module is loaded on the server.
// Any rejection, including "module not found", reads as false; no error
// detail is surfaced.
func (c *Client) ModuleCheck(ctx context.Context, module string) bool {
	resp, err := c.Send(ctx, NewAction("ModuleCheck", Field{Name: "Module", Value: module}))
	return err == nil && resp.Success()
}

// Close tears the session down: stops the keepalive and decode loops,
// clears the authenticated state, resets the decoder and forcibly closes
// the transport. Requests still pending are rejected with
// [ErrSessionClosed]. Close is idempotent and safe to call in any state.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.state = StateDisconnected
	conn := c.conn
	c.conn = nil
	c.connCtx = nil
	connCancel := c.connCancel
	c.connCancel = nil
	reconnectCancel := c.reconnectCancel
	c.reconnectCancel = nil
	c.mu.Unlock()

	if connCancel != nil {
		connCancel()
	}
	if reconnectCancel != nil {
		reconnectCancel()
	}

	var err error
	if conn != nil {
		err = multierr.Append(err, conn.Close())
		c.emit(ConnectionEvent{Kind: EventDisconnected})
	}

	c.decoder.Reset()
	c.corr.rejectAll(ErrSessionClosed)

	c.logger.Info("manager session closed")
	return err
}

// write hands serialized bytes to the transport under the tx mutex.
func (c *Client) write(p []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.txMu.Lock()
	defer c.txMu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	_, err := conn.Write(p)
	return err
}

// readLoop feeds everything the transport delivers into the frame decoder.
// Decoding itself happens on the decode schedule, not here.
func (c *Client) readLoop(ctx context.Context, conn net.Conn) {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			c.decoder.Feed(buf[:n])
		}
		if err != nil {
			if ctx.Err() == nil {
				c.handleDisconnect(conn, err)
			}
			return
		}
	}
}

// decodeLoop runs the periodic decode schedule. Bursts of input coalesce
// into one pass per tick; packets come out in exact receipt order.
func (c *Client) decodeLoop(ctx context.Context) {
	ticker := time.NewTicker(c.decodeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, pkt := range c.decoder.Decode() {
				c.counters.packets.Add(1)
				c.corr.dispatch(pkt)
				select {
				case c.packets <- pkt:
				default:
					c.counters.droppedPackets.Add(1)
				}
			}
		}
	}
}

// keepAliveLoop pings the server at the configured interval while the
// connection that armed it is alive. A failed ping is counted and logged
// but does not itself kill the connection; a dead transport surfaces
// through the read loop.
func (c *Client) keepAliveLoop(ctx context.Context) {
	ticker := time.NewTicker(c.keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("stopped sending keepalives")
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, c.keepAliveInterval)
			ok, err := c.Ping(pingCtx)
			cancel()
			if err != nil || !ok {
				c.counters.failedPings.Add(1)
				c.logger.Infof("keepalive ping failed; count of failed pings: %d", c.counters.failedPings.Load())
			} else {
				c.counters.successfulPings.Add(1)
			}
		}
	}
}

// handleGreeting is the decoder hook for the connection banner. It drives
// the Connecting -> Connected transition.
func (c *Client) handleGreeting() {
	c.mu.Lock()
	if c.state == StateConnecting {
		c.state = StateConnected
	}
	c.mu.Unlock()

	c.logger.Info("manager interface greeting observed")
	c.emit(ConnectionEvent{Kind: EventConnected})
}

// handleDisconnect reacts to an unexpected closure of conn: it rejects all
// pending requests, emits the closure event and, when enabled, starts the
// reconnect loop. Authentication is not re-attempted automatically.
func (c *Client) handleDisconnect(conn net.Conn, err error) {
	c.mu.Lock()
	if c.closed || c.conn != conn {
		// Deliberate Close, or a stale loop from an older connection.
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.connCtx = nil
	c.state = StateDisconnected
	cancel := c.connCancel
	c.connCancel = nil
	reconnect := c.autoReconnect

	var rctx context.Context
	if reconnect {
		rctx, c.reconnectCancel = context.WithCancel(context.Background())
	}
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	_ = conn.Close()

	c.decoder.Reset()
	c.corr.rejectAll(&ConnectionError{Op: "read", Err: err})

	ev := ConnectionEvent{Kind: EventDisconnected}
	if !errors.Is(err, io.EOF) {
		ev.Err = err
		c.emit(ConnectionEvent{Kind: EventError, Err: err})
	}
	c.emit(ev)
	c.logger.Infof("manager connection lost: %s", err)

	if reconnect {
		go c.reconnectLoop(rctx)
	}
}

// reconnectLoop re-runs the connect sequence with bounded exponential
// backoff until it succeeds or the session is closed.
func (c *Client) reconnectLoop(ctx context.Context) {
	backoff := reconnectBaseDelay
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		if err := c.connect(); err == nil {
			c.logger.Info("reconnected to manager interface")
			return
		} else if errors.Is(err, ErrSessionClosed) {
			return
		} else {
			c.logger.Infof("reconnect attempt failed: %s", err)
		}

		backoff *= 2
		if backoff > reconnectMaxDelay {
			backoff = reconnectMaxDelay
		}
	}
}

// emit delivers a connection event without ever blocking the protocol
// loops; a full channel drops the event.
func (c *Client) emit(ev ConnectionEvent) {
	select {
	case c.events <- ev:
	default:
	}
}
