package connection

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/yndnr/shardkv/internal/protocol/resp"
)

// ErrClosed is returned when the client has been closed.
var ErrClosed = errors.New("connection: client closed")

// Client is a synchronous protocol client. It is not safe for concurrent use.
type Client struct {
	addr    string
	conn    net.Conn
	r       *bufio.Reader
	w       *bufio.Writer
	buf     []byte
	timeout time.Duration
	pending int
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each round trip. Zero disables deadlines.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// Dial connects to addr.
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connection: dial %s: %w", addr, err)
	}

	c := &Client{
		addr: addr,
		conn: conn,
		r:    bufio.NewReaderSize(conn, 16<<10),
		w:    bufio.NewWriterSize(conn, 16<<10),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Do sends one command and returns its reply. Error replies are returned
// as a Reply of KindError with a nil error.
func (c *Client) Do(args ...string) (resp.Reply, error) {
	bargs := make([][]byte, len(args))
	for i, a := range args {
		bargs[i] = []byte(a)
	}
	if err := c.Send(bargs...); err != nil {
		return resp.Reply{}, err
	}
	if err := c.Flush(); err != nil {
		return resp.Reply{}, err
	}
	return c.Receive()
}

// Send buffers one command without waiting for its reply.
func (c *Client) Send(args ...[]byte) error {
	if c.conn == nil {
		return ErrClosed
	}
	c.buf = resp.AppendCommand(c.buf[:0], args...)
	if _, err := c.w.Write(c.buf); err != nil {
		return fmt.Errorf("connection: write: %w", err)
	}
	c.pending++
	return nil
}

// Flush writes buffered commands to the server.
func (c *Client) Flush() error {
	if c.conn == nil {
		return ErrClosed
	}
	c.arm()
	if err := c.w.Flush(); err != nil {
		return fmt.Errorf("connection: flush: %w", err)
	}
	return nil
}

// Receive reads the next reply.
func (c *Client) Receive() (resp.Reply, error) {
	if c.conn == nil {
		return resp.Reply{}, ErrClosed
	}
	c.arm()
	reply, err := resp.ReadReply(c.r)
	if err != nil {
		return resp.Reply{}, fmt.Errorf("connection: read: %w", err)
	}
	if c.pending > 0 {
		c.pending--
	}
	return reply, nil
}

// Pending returns the number of sent commands whose replies have not been read.
func (c *Client) Pending() int {
	return c.pending
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) arm() {
	if c.timeout > 0 {
		c.conn.SetDeadline(time.Now().Add(c.timeout))
	}
}
