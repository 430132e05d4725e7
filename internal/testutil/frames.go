package testutil

import (
	"sync"

	"github.com/roach88/dobble/internal/session"
	"github.com/roach88/dobble/internal/wire"
)

// FramePipe stands in for an open push channel. Tests feed it raw frames or
// notices; the consumer reads them from Frames in order.
//
// Thread-safety: Send, SendNotice and Close are safe for concurrent use.
// Sends after Close are dropped.
type FramePipe struct {
	mu     sync.Mutex
	frames chan []byte
	closed bool
}

// NewFramePipe returns a pipe that buffers up to size frames.
func NewFramePipe(size int) *FramePipe {
	return &FramePipe{frames: make(chan []byte, size)}
}

// Frames returns the frame stream. It is closed by Close.
func (p *FramePipe) Frames() <-chan []byte {
	return p.frames
}

// Send queues a raw frame. Returns false if the pipe is closed.
func (p *FramePipe) Send(frame []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.frames <- frame
	return true
}

// SendNotice encodes n in wire form and queues it.
func (p *FramePipe) SendNotice(n session.PushNotice) error {
	frame, err := wire.EncodeNotice(n)
	if err != nil {
		return err
	}
	p.Send(frame)
	return nil
}

// Close ends the stream. Safe to call more than once.
func (p *FramePipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.frames)
	}
	return nil
}

// Closed reports whether Close has been called.
func (p *FramePipe) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
