package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/dobble/internal/gateway"
	"github.com/roach88/dobble/internal/journal"
	"github.com/roach88/dobble/internal/session"
	"github.com/roach88/dobble/internal/wire"
)

// DefaultRequestTimeout bounds each gateway call made by the engine.
const DefaultRequestTimeout = 10 * time.Second

// Engine is the single-writer session loop.
//
// The engine owns one session. Push notices and action results are
// enqueued from any goroutine; Run reduces them one at a time in FIFO order
// and publishes a new View after every reduction that changed state.
//
// CRITICAL: All state transitions happen in the single Run goroutine.
// Gateway calls run on the caller's goroutine, outside the loop; their
// outcomes come back as ordinary events.
//
// Thread-safety model:
//   - Enqueue, View, Views and the action methods: safe from any goroutine
//   - Run: must be called from exactly one goroutine
//   - Close: safe from any goroutine, idempotent
type Engine struct {
	id      string
	gw      gateway.Gateway
	decoder *wire.Decoder
	clock   *Clock
	queue   *eventQueue
	journal *journal.Journal
	timeout time.Duration

	// state is read and written only by Run.
	state session.State

	mu      sync.Mutex
	view    session.View
	subs    map[int]chan session.View
	nextSub int

	running atomic.Bool
	done    chan struct{}

	// effectsCtx is derived from Run's context and cancelled at shutdown,
	// so an in-flight effect cannot hold up teardown. Set and read by Run.
	effectsCtx  context.Context
	stopEffects context.CancelFunc
	effects     sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithJournal records every reduced event in j.
func WithJournal(j *journal.Journal) Option {
	return func(e *Engine) {
		e.journal = j
	}
}

// WithClock replaces the engine's logical clock.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithRequestTimeout bounds each gateway call. Zero disables the bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// New creates an Engine for a fresh session named by ids.
func New(gw gateway.Gateway, ids SessionIDGenerator, opts ...Option) (*Engine, error) {
	dec, err := wire.NewDecoder()
	if err != nil {
		return nil, err
	}

	id := ids.Generate()
	e := &Engine{
		id:      id,
		gw:      gw,
		decoder: dec,
		clock:   NewClock(),
		queue:   newEventQueue(),
		timeout: DefaultRequestTimeout,
		state:   session.New(id),
		subs:    make(map[int]chan session.View),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.view = e.state.View()
	return e, nil
}

// ID returns the session instance id.
func (e *Engine) ID() string {
	return e.id
}

// Enqueue submits an event for reduction.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the engine has been closed; the event is dropped.
func (e *Engine) Enqueue(ev session.Event) bool {
	ok := e.queue.Enqueue(envelope{event: ev})
	if !ok {
		slog.Debug("event dropped after close", "session", e.id, "kind", ev.Kind())
	}
	return ok
}

// View returns the most recently published view.
func (e *Engine) View() session.View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view
}

// Views subscribes to published views. The channel holds at most one view;
// a slow reader skips intermediate views and always sees the latest. The
// current view is delivered immediately.
//
// The channel is closed when Run returns or cancel is called.
func (e *Engine) Views() (<-chan session.View, func()) {
	ch := make(chan session.View, 1)

	e.mu.Lock()
	defer e.mu.Unlock()

	select {
	case <-e.done:
		close(ch)
		return ch, func() {}
	default:
	}

	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	ch <- e.view

	cancel := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if c, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Done is closed when Run has returned.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Run starts the single-writer loop.
// Blocks until ctx is cancelled or Close is called and the queue drains.
//
// CRITICAL: Must be called from exactly ONE goroutine.
//
// ERROR HANDLING: The reducer never fails; journal write failures are
// logged and processing continues, since the journal is diagnostic.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("engine: Run called twice")
	}
	e.effectsCtx, e.stopEffects = context.WithCancel(ctx)
	defer e.shutdown()

	slog.Info("engine starting", "session", e.id)

	for {
		env, ok := e.queue.TryDequeue()
		if ok {
			e.process(ctx, env)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled", "session", e.id)
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes with the queue, so a closed queue
			// wakes this case immediately; stop once it has drained.
			if e.queue.Drained() {
				slog.Info("engine stopping: queue closed", "session", e.id)
				return nil
			}
		}
	}
}

// Close stops accepting events. Run finishes the queued ones, cancels any
// effect still in flight and returns.
func (e *Engine) Close() {
	e.queue.Close()
}

func (e *Engine) shutdown() {
	e.stopEffects()
	e.effects.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	close(e.done)
	for id, ch := range e.subs {
		delete(e.subs, id)
		close(ch)
	}
}

// process reduces one event.
// CRITICAL: Called only from Run() goroutine - single-writer guarantee.
func (e *Engine) process(ctx context.Context, env envelope) {
	seq := e.clock.Next()
	red := session.Reduce(e.state, env.event)

	if env.reply != nil {
		env.reply <- admission{state: red.State, err: red.Err}
	}

	if e.journal != nil {
		if err := e.journal.Append(ctx, e.id, seq, env.event); err != nil {
			slog.Error("journal append failed", "session", e.id, "seq", seq, "error", err)
		}
	}

	slog.Debug("event reduced",
		"session", e.id,
		"seq", seq,
		"kind", env.event.Kind(),
		"changed", red.Changed,
	)

	if red.Changed {
		e.state = red.State
		e.publish(seq)
	}

	for _, eff := range red.Effects {
		e.perform(e.effectsCtx, eff)
	}
}

func (e *Engine) publish(seq int64) {
	v := e.state.View()
	v.Seq = seq

	e.mu.Lock()
	defer e.mu.Unlock()
	e.view = v
	for _, ch := range e.subs {
		offerLatest(ch, v)
	}
}

// offerLatest replaces whatever ch holds with v without blocking. Callers
// hold e.mu, so there is one sender at a time.
func offerLatest(ch chan session.View, v session.View) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

// perform starts an effect. Effects run off the loop and report back
// through Enqueue. ctx is cancelled when Run returns.
func (e *Engine) perform(ctx context.Context, eff session.Effect) {
	switch eff {
	case session.EffectRefreshGames:
		e.effects.Add(1)
		go func() {
			defer e.effects.Done()
			_, err := e.RefreshGames(ctx)
			switch {
			case err == nil:
			case ctx.Err() != nil:
				slog.Debug("game list refresh abandoned at shutdown", "session", e.id)
			default:
				slog.Warn("game list refresh failed", "session", e.id, "error", err)
			}
		}()
	default:
		slog.Warn("unknown effect", "session", e.id, "effect", eff)
	}
}

func (e *Engine) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}
