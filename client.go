package redis

import (
	"context"

	"github.com/dapr/kit/logger"

	"github.com/pior/redis/resp"
)

var log = logger.NewLogger("redis.client")

// Client runs typed commands over a single Connection.
//
// A Client is an explicit value: several independent clients can live in the
// same process. Like Connection it is not safe for concurrent use; callers
// serialize access, including Reconnect.
type Client struct {
	conn    *Connection
	breaker CircuitBreaker // nil if not configured
	stats   *clientStatsCollector
}

// New connects to the server named by the connection string.
// See ParseURL for the accepted forms.
func New(ctx context.Context, url string) (*Client, error) {
	return NewClient(ctx, Config{URL: url})
}

// NewClient connects using config. Any failure is a KindConnectFailed *Error.
func NewClient(ctx context.Context, config Config) (*Client, error) {
	if err := config.validate(); err != nil {
		return nil, newError(KindConnectFailed, err.Error(), "", err)
	}

	conn, err := Dial(ctx, config)
	if err != nil {
		return nil, Classify(err)
	}

	return newClient(conn, config), nil
}

// NewClientWithConnection wraps an existing Connection, typically one built
// with NewConnection over a custom transport.
func NewClientWithConnection(conn *Connection, config Config) *Client {
	return newClient(conn, config)
}

func newClient(conn *Connection, config Config) *Client {
	c := &Client{
		conn:  conn,
		stats: newClientStatsCollector(),
	}
	if config.NewCircuitBreaker != nil {
		c.breaker = config.NewCircuitBreaker(conn.Options().String())
	}
	return c
}

// Reconnect replaces the transport with a fresh one to the original address.
// It must not overlap another call on the same Client.
func (c *Client) Reconnect(ctx context.Context) error {
	if err := c.conn.Reconnect(ctx); err != nil {
		c.stats.recordError()
		return Classify(err)
	}
	c.stats.recordReconnect()
	return nil
}

// IsOpen reports the last known liveness of the connection without probing it.
func (c *Client) IsOpen() bool {
	return c.conn.IsOpen()
}

// Close closes the connection. Later calls fail with a KindTransport error
// until Reconnect succeeds.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Connection returns the underlying connection.
func (c *Client) Connection() *Connection {
	return c.conn
}

// Stats returns a snapshot of client statistics.
func (c *Client) Stats() ClientStats {
	return c.stats.snapshot()
}

// CircuitBreaker returns the configured circuit breaker, or nil.
func (c *Client) CircuitBreaker() CircuitBreaker {
	return c.breaker
}

// exec runs one command cycle. Error replies are returned as errors, and every
// error is a classified *Error.
// If a circuit breaker is configured, the cycle is wrapped with it.
func (c *Client) exec(ctx context.Context, cmd resp.Command) (resp.Reply, error) {
	c.stats.recordCommand()

	var (
		reply resp.Reply
		err   error
	)
	if c.breaker != nil {
		reply, err = c.breaker.Execute(func() (resp.Reply, error) {
			return c.execDirect(ctx, cmd)
		})
	} else {
		reply, err = c.execDirect(ctx, cmd)
	}

	if err != nil {
		classified := Classify(err)
		if classified.Kind != KindTypeMismatch {
			c.stats.recordError()
		}
		return reply, classified
	}
	return reply, nil
}

// execDirect performs the actual command cycle without circuit breaker.
func (c *Client) execDirect(ctx context.Context, cmd resp.Command) (resp.Reply, error) {
	reply, err := c.conn.Do(ctx, cmd)
	if err != nil {
		return resp.Reply{}, err
	}
	return reply, reply.AsError()
}

// Do sends an arbitrary command and returns its reply.
// An error reply is returned both as the Reply and as a classified error.
func (c *Client) Do(ctx context.Context, args ...string) (resp.Reply, error) {
	if len(args) == 0 || args[0] == "" {
		return resp.Reply{}, Classify(resp.ErrEmptyCommand)
	}
	return c.exec(ctx, resp.NewCommand(args[0], args[1:]...))
}

// ExpectString sends an arbitrary command and requires a string or integer reply.
func (c *Client) ExpectString(ctx context.Context, args ...string) (string, error) {
	reply, err := c.Do(ctx, args...)
	if err != nil {
		return "", err
	}
	s, err := reply.AsString()
	if err != nil {
		return "", Classify(err)
	}
	return s, nil
}

// ExpectStrings sends an arbitrary command and requires an array of strings.
func (c *Client) ExpectStrings(ctx context.Context, args ...string) ([]string, error) {
	reply, err := c.Do(ctx, args...)
	if err != nil {
		return nil, err
	}
	values, err := reply.AsStrings()
	if err != nil {
		return nil, Classify(err)
	}
	return values, nil
}

// ExpectInteger sends an arbitrary command and requires an integer reply.
func (c *Client) ExpectInteger(ctx context.Context, args ...string) (int64, error) {
	reply, err := c.Do(ctx, args...)
	if err != nil {
		return 0, err
	}
	n, err := reply.AsInt()
	if err != nil {
		return 0, Classify(err)
	}
	return n, nil
}

// ExpectNil sends an arbitrary command and requires a nil reply.
func (c *Client) ExpectNil(ctx context.Context, args ...string) error {
	reply, err := c.Do(ctx, args...)
	if err != nil {
		return err
	}
	if !reply.IsNil() {
		return Classify(&resp.TypeError{Want: "nil", Got: reply.Kind})
	}
	return nil
}
