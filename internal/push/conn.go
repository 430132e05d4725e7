// Package push is the server-to-client notice channel.
//
// Conn owns one websocket. It delivers raw frames in arrival order and never
// interprets them; decoding and dropping of unknown frames belong to the
// consumer.
package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
)

// Handshake is the first frame sent after connecting. The server files the
// socket under GameID and stops delivering to it when the socket closes.
type Handshake struct {
	GameID   int64 `json:"game_id"`
	PlayerID int64 `json:"player_id"`
}

const (
	defaultMaxTries   = 5
	defaultBufferSize = 64
	closeGracePeriod  = time.Second
)

type options struct {
	dialer     *websocket.Dialer
	maxTries   uint
	bufferSize int
}

// Option configures Dial.
type Option func(*options)

// WithDialer replaces websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(o *options) {
		o.dialer = d
	}
}

// WithMaxTries bounds the number of dial attempts. Zero means one attempt.
func WithMaxTries(n uint) Option {
	return func(o *options) {
		o.maxTries = max(n, 1)
	}
}

// WithBufferSize sets how many undelivered frames may queue before the reader
// blocks.
func WithBufferSize(n int) Option {
	return func(o *options) {
		o.bufferSize = n
	}
}

// Conn is an open push channel.
//
// Thread-safety: Frames may be consumed from one goroutine while Close is
// called from another.
type Conn struct {
	ws     *websocket.Conn
	frames chan []byte
	done   chan struct{}

	closeOnce sync.Once
	mu        sync.Mutex
	err       error
}

// Dial connects to url, retrying transient failures with exponential
// backoff, and sends hs as the first frame.
//
// A 4xx handshake response is not retried.
func Dial(ctx context.Context, url string, hs Handshake, opts ...Option) (*Conn, error) {
	o := options{
		dialer:     websocket.DefaultDialer,
		maxTries:   defaultMaxTries,
		bufferSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(&o)
	}

	attempt := 0
	ws, err := backoff.Retry(ctx, func() (*websocket.Conn, error) {
		attempt++
		ws, resp, err := o.dialer.DialContext(ctx, url, nil)
		if err == nil {
			return ws, nil
		}
		if resp != nil && resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError {
			return nil, backoff.Permanent(fmt.Errorf("dial %s: %s: %w", url, resp.Status, err))
		}
		slog.Debug("push dial failed", "url", url, "attempt", attempt, "error", err)
		return nil, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(o.maxTries))
	if err != nil {
		return nil, fmt.Errorf("push dial: %w", err)
	}

	if err := ws.WriteJSON(hs); err != nil {
		ws.Close()
		return nil, fmt.Errorf("push handshake: %w", err)
	}
	slog.Info("push connected", "url", url, "game_id", hs.GameID, "player_id", hs.PlayerID)

	c := &Conn{
		ws:     ws,
		frames: make(chan []byte, o.bufferSize),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Frames returns the frame stream. It is closed when the socket ends, either
// by Close or by a read error (see Err).
func (c *Conn) Frames() <-chan []byte {
	return c.frames
}

// Err returns the error that ended the stream, or nil while it is open or
// after a local Close.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close ends the stream. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		err = c.ws.Close()
	})
	return err
}

func (c *Conn) readLoop() {
	defer close(c.frames)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.finish(err)
			return
		}
		select {
		case c.frames <- data:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) finish(err error) {
	select {
	case <-c.done:
		// Local close; the read error is expected.
		return
	default:
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		slog.Info("push closed by server")
		return
	}
	if errors.Is(err, net.ErrClosed) {
		return
	}
	slog.Warn("push read failed", "error", err)
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}
