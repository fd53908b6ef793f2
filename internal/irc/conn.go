// Package irc holds the transport and wire codec for the small subset of
// IRC the relay speaks: registration, JOIN, PING/PONG and PRIVMSG.
package irc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// ReadBufferSize is the largest chunk a single Receive returns.
const ReadBufferSize = 2048

var (
	ErrConnect = errors.New("irc: connect failed")
	ErrStream  = errors.New("irc: stream failure")
)

// Sender writes one protocol line. Implementations add the CRLF terminator.
type Sender interface {
	Send(line string) error
}

// Conn is a single blocking duplex connection. Send is safe for concurrent
// use; Receive must only be called from one goroutine.
type Conn struct {
	nc  net.Conn
	buf []byte

	wmu       sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// Dial connects to addr. There is no retry.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Conn, error) {
	d := net.Dialer{Timeout: timeout}
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConnect, addr, err)
	}
	return NewConn(nc), nil
}

func NewConn(nc net.Conn) *Conn {
	return &Conn{nc: nc, buf: make([]byte, ReadBufferSize)}
}

func (c *Conn) Send(line string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := io.WriteString(c.nc, line+"\r\n"); err != nil {
		return fmt.Errorf("%w: write: %v", ErrStream, err)
	}
	return nil
}

// Receive blocks until the server sends data. It returns io.EOF once the
// peer has closed the stream.
func (c *Conn) Receive() ([]byte, error) {
	n, err := c.nc.Read(c.buf)
	if n > 0 {
		out := make([]byte, n)
		copy(out, c.buf[:n])
		return out, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	return nil, fmt.Errorf("%w: read: %v", ErrStream, err)
}

// Close closes the underlying connection. Only the first call has effect.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.nc.Close()
	})
	return c.closeErr
}
