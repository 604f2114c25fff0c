package redis

import (
	"bufio"
	"context"
	"errors"
	"net"
	"time"

	"github.com/pior/redis/internal/coarsetime"
	"github.com/pior/redis/resp"
)

var (
	// ErrConnectionClosed is returned by operations on a connection that is
	// disconnected or broken. The connection never reconnects on its own.
	ErrConnectionClosed = errors.New("redis: connection closed")
)

// State is the lifecycle state of a Connection.
type State int

const (
	// StateDisconnected: never connected, or closed explicitly.
	StateDisconnected State = iota
	// StateConnected: the transport is usable.
	StateConnected
	// StateBroken: an I/O or framing failure happened, the transport was discarded.
	StateBroken
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateBroken:
		return "broken"
	default:
		return "unknown"
	}
}

// DialFunc opens a new transport stream to the server.
type DialFunc func(ctx context.Context) (net.Conn, error)

// Connection owns exactly one transport stream to one server and runs one
// synchronous command/reply cycle at a time.
//
// A Connection is not safe for concurrent use: callers serialize access,
// including Reconnect.
type Connection struct {
	opts            Options
	dial            DialFunc
	readBufferSize  int
	writeBufferSize int

	conn     net.Conn
	reader   *bufio.Reader
	writer   *bufio.Writer
	state    State
	lastUsed time.Time
}

// Dial parses config.URL, connects to the server and runs the handshake
// (AUTH when the URL carries a password, SELECT when it names a database).
// Any failure is returned as a KindConnectFailed *Error.
func Dial(ctx context.Context, config Config) (*Connection, error) {
	opts, err := ParseURL(config.url())
	if err != nil {
		return nil, newError(KindConnectFailed, err.Error(), "", err)
	}

	dialer := config.Dialer
	if dialer == nil {
		dialer = &net.Dialer{Timeout: config.DialTimeout}
	}

	c := &Connection{
		opts: opts,
		dial: func(ctx context.Context) (net.Conn, error) {
			return dialer.DialContext(ctx, opts.Network, opts.Addr)
		},
		readBufferSize:  config.ReadBufferSize,
		writeBufferSize: config.WriteBufferSize,
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// NewConnection wraps an already established transport. No handshake is run.
// dial is used by Reconnect and may be nil, in which case Reconnect fails.
// A nil netConn yields a disconnected Connection.
func NewConnection(netConn net.Conn, dial DialFunc) *Connection {
	c := &Connection{dial: dial}
	if netConn == nil {
		return c
	}
	c.opts = Options{Network: netConn.RemoteAddr().Network(), Addr: netConn.RemoteAddr().String()}
	c.attach(netConn)
	return c
}

// connect dials and runs the handshake. On failure the state is left untouched
// and the new transport, if any, is closed.
func (c *Connection) connect(ctx context.Context) error {
	if c.dial == nil {
		return newError(KindConnectFailed, "no dialer configured", "", nil)
	}

	netConn, err := c.dial(ctx)
	if err != nil {
		log.Debugf("dial %s failed: %v", c.opts, err)
		return newError(KindConnectFailed, err.Error(), "", err)
	}

	prevState := c.state
	c.attach(netConn)

	if err := c.handshake(ctx); err != nil {
		_ = netConn.Close()
		c.conn = nil
		c.state = prevState
		log.Debugf("handshake with %s failed: %v", c.opts, err)
		return err
	}

	log.Debugf("connected to %s", c.opts)
	return nil
}

func (c *Connection) attach(netConn net.Conn) {
	c.conn = netConn
	if c.readBufferSize > 0 {
		c.reader = bufio.NewReaderSize(netConn, c.readBufferSize)
	} else {
		c.reader = bufio.NewReader(netConn)
	}
	if c.writeBufferSize > 0 {
		c.writer = bufio.NewWriterSize(netConn, c.writeBufferSize)
	} else {
		c.writer = bufio.NewWriter(netConn)
	}
	c.state = StateConnected
	c.lastUsed = coarsetime.Now()
}

// handshake authenticates and selects the database, as requested by the URL.
func (c *Connection) handshake(ctx context.Context) error {
	if c.opts.Password != "" {
		cmd := resp.NewCommand("AUTH")
		if c.opts.Username != "" {
			cmd = cmd.AppendString(c.opts.Username)
		}
		cmd = cmd.AppendString(c.opts.Password)
		if err := c.handshakeStep(ctx, cmd); err != nil {
			return err
		}
	}

	if c.opts.DB != 0 {
		cmd := resp.NewCommand("SELECT").AppendInt(int64(c.opts.DB))
		if err := c.handshakeStep(ctx, cmd); err != nil {
			return err
		}
	}

	return nil
}

func (c *Connection) handshakeStep(ctx context.Context, cmd resp.Command) error {
	reply, err := c.roundTrip(ctx, cmd)
	if err != nil {
		return newError(KindConnectFailed, err.Error(), "", err)
	}
	if replyErr := reply.AsError(); replyErr != nil {
		server := Classify(replyErr)
		return newError(KindConnectFailed, server.Detail, server.Code, replyErr)
	}
	return nil
}

// Do writes cmd, flushes, and reads exactly one reply. There is no retry.
//
// Error replies are returned as a Reply of KindError with a nil error.
// The returned error is one of:
//   - ErrConnectionClosed: the connection is disconnected or broken
//   - *resp.ConnectionError: I/O failure, the connection is now broken
//   - *resp.ParseError: malformed reply, the connection is now broken
//   - the context error, when ctx is done before anything was sent
//
// The ctx deadline, if any, bounds the whole cycle.
func (c *Connection) Do(ctx context.Context, cmd resp.Command) (resp.Reply, error) {
	if c.state != StateConnected {
		return resp.Reply{}, ErrConnectionClosed
	}

	if err := ctx.Err(); err != nil {
		return resp.Reply{}, err
	}

	return c.roundTrip(ctx, cmd)
}

func (c *Connection) roundTrip(ctx context.Context, cmd resp.Command) (resp.Reply, error) {
	if len(cmd) == 0 || len(cmd[0]) == 0 {
		return resp.Reply{}, resp.ErrEmptyCommand
	}

	// Set deadline based on context
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(deadline)
	} else {
		_ = c.conn.SetDeadline(time.Time{})
	}

	if err := resp.WriteCommand(c.writer, cmd); err != nil {
		c.markBroken(err)
		return resp.Reply{}, &resp.ConnectionError{Op: "write", Err: err}
	}

	reply, err := resp.ReadReply(c.reader)
	if err != nil {
		c.markBroken(err)
		var parseErr *resp.ParseError
		if errors.As(err, &parseErr) {
			return resp.Reply{}, err
		}
		return resp.Reply{}, &resp.ConnectionError{Op: "read", Err: err}
	}

	c.lastUsed = coarsetime.Now()
	return reply, nil
}

// markBroken discards the transport after a failure.
func (c *Connection) markBroken(cause error) {
	log.Warnf("connection to %s broken: %v", c.opts, cause)
	c.state = StateBroken
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Reconnect discards the current transport, ignoring its close error, and
// connects again to the original address. On failure the connection stays
// disconnected or broken.
func (c *Connection) Reconnect(ctx context.Context) error {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	if c.state == StateConnected {
		c.state = StateBroken
	}

	log.Debugf("reconnecting to %s", c.opts)
	return c.connect(ctx)
}

// IsOpen reports the last known liveness without probing the server.
// It may still be true right after the server closed its side.
func (c *Connection) IsOpen() bool {
	return c.state == StateConnected
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	return c.state
}

// LastUsed returns when the connection last completed a command.
func (c *Connection) LastUsed() time.Time {
	return c.lastUsed
}

// Options returns the parsed connection options.
func (c *Connection) Options() Options {
	return c.opts
}

// Close closes the transport. Later operations fail with ErrConnectionClosed
// until Reconnect succeeds.
func (c *Connection) Close() error {
	c.state = StateDisconnected
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
