package engine

import (
	"context"
	"log/slog"
)

// PumpFrames decodes push frames from frames and enqueues the notices.
//
// Frames that are not JSON, fail the notice schema or name an event this
// client does not reduce are dropped and logged at debug level.
//
// Returns nil when frames is closed, ctx.Err() on cancellation, and ErrClosed
// if the engine stops accepting events first.
func (e *Engine) PumpFrames(ctx context.Context, frames <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			notice, err := e.decoder.Decode(frame)
			if err != nil {
				slog.Debug("push frame dropped", "session", e.id, "error", err)
				continue
			}
			if !e.Enqueue(notice) {
				return ErrClosed
			}
		}
	}
}
