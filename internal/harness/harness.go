package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/dobble/internal/engine"
	"github.com/roach88/dobble/internal/journal"
	"github.com/roach88/dobble/internal/session"
	"github.com/roach88/dobble/internal/wire"
)

// Harness is the test execution engine.
// It feeds scenario steps through the session reducer with a deterministic
// clock, journaling every reduced event exactly as the live engine does.
type Harness struct {
	journal   *journal.Journal
	decoder   *wire.Decoder
	clock     *engine.Clock
	logger    *slog.Logger
	sessionID string

	state session.State
	view  session.View
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh in-memory journal for isolation.
//
// Execution flow:
// 1. Create fresh in-memory journal
// 2. Feed steps through the reducer, checking step expectations
// 3. Replay the journal and compare the replayed view with the live one
// 4. Evaluate assertions against the trace and final view
//
// A returned error means the scenario itself could not be executed
// (bad event kind, bad payload). Expectation and assertion failures are
// reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	j, err := journal.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer j.Close()

	dec, err := wire.NewDecoder()
	if err != nil {
		return nil, fmt.Errorf("failed to build decoder: %w", err)
	}

	sessionID := scenario.SessionID
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	h := &Harness{
		journal:   j,
		decoder:   dec,
		clock:     engine.NewClock(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
		sessionID: sessionID,
		state:     session.New(sessionID),
	}
	h.view = h.state.View()

	ctx := context.Background()
	result := NewResult()

	if err := h.executeSteps(ctx, scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}
	result.View = h.view

	if err := h.verifyReplay(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to replay journal: %w", err)
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeSteps feeds every step to the reducer.
//
// Each step:
// 1. Resolves to an event (decoding raw frames like the live pump)
// 2. Takes exactly one seq from the clock
// 3. Reduces, then journals the event
// 4. Publishes a new view if the state changed
// 5. Records a trace entry and checks the step's expect clause
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		ev, dropped, err := h.resolve(step)
		if err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}

		if dropped != nil {
			h.logger.Debug("frame dropped", "step", i+1, "error", dropped)
			entry := h.entry(i+1, 0, KindDropped, session.Reduction{})
			result.AddTrace(entry)
			h.checkExpect(step.Expect, entry, true, result)
			continue
		}

		seq := h.clock.Next()
		red := session.Reduce(h.state, ev)

		if err := h.journal.Append(ctx, h.sessionID, seq, ev); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}

		if red.Changed {
			h.state = red.State
			h.view = h.state.View()
			h.view.Seq = seq
		}

		entry := h.entry(i+1, seq, ev.Kind(), red)
		result.AddTrace(entry)
		h.checkExpect(step.Expect, entry, false, result)

		h.logger.Info("step reduced",
			"step", i+1,
			"seq", seq,
			"kind", ev.Kind(),
			"changed", red.Changed,
		)
	}
	return nil
}

// resolve turns a step into an event. A frame that does not decode is
// returned as dropped rather than as an error.
func (h *Harness) resolve(step Step) (ev session.Event, dropped error, err error) {
	if step.Frame != "" {
		n, derr := h.decoder.Decode([]byte(step.Frame))
		if derr != nil {
			return nil, derr, nil
		}
		return n, nil, nil
	}

	payload := []byte("{}")
	if step.Payload != nil {
		payload, err = json.Marshal(step.Payload)
		if err != nil {
			return nil, nil, fmt.Errorf("encode payload for %s: %w", step.Event, err)
		}
	}
	ev, err = wire.DecodeEvent(h.decoder, step.Event, payload)
	if err != nil {
		return nil, nil, err
	}
	return ev, nil, nil
}

func (h *Harness) entry(step int, seq int64, kind string, red session.Reduction) TraceEntry {
	e := TraceEntry{
		Step:      step,
		Seq:       seq,
		Kind:      kind,
		Changed:   red.Changed,
		Status:    h.state.Session.Status.String(),
		Readiness: h.state.Readiness.State().String(),
	}
	for _, eff := range red.Effects {
		e.Effects = append(e.Effects, eff.String())
	}
	if red.Err != nil {
		e.Refused = red.Err.Error()
	}
	return e
}

// checkExpect validates a step against its expect clause, if any.
func (h *Harness) checkExpect(exp *StepExpect, e TraceEntry, dropped bool, result *Result) {
	if exp == nil {
		return
	}
	fail := func(format string, args ...any) {
		result.AddError(fmt.Sprintf("step %d (%s): ", e.Step, e.Kind) + fmt.Sprintf(format, args...))
	}

	if exp.Dropped != nil && *exp.Dropped != dropped {
		fail("dropped = %t, expected %t", dropped, *exp.Dropped)
	}
	if exp.Changed != nil && *exp.Changed != e.Changed {
		fail("changed = %t, expected %t", e.Changed, *exp.Changed)
	}
	if exp.Status != "" && exp.Status != e.Status {
		fail("status = %s, expected %s", e.Status, exp.Status)
	}
	if exp.Readiness != "" && exp.Readiness != e.Readiness {
		fail("readiness = %s, expected %s", e.Readiness, exp.Readiness)
	}
	if exp.Effects != nil && !slices.Equal(exp.Effects, e.Effects) {
		fail("effects = %v, expected %v", e.Effects, exp.Effects)
	}
	if exp.Refused != "" && !strings.Contains(e.Refused, exp.Refused) {
		if e.Refused == "" {
			fail("admitted, expected refusal containing %q", exp.Refused)
		} else {
			fail("refused with %q, expected %q", e.Refused, exp.Refused)
		}
	}
}

// verifyReplay re-reduces the journal and checks it reproduces the live
// view byte for byte.
func (h *Harness) verifyReplay(ctx context.Context, result *Result) error {
	entries, err := h.journal.ReadSession(ctx, h.sessionID)
	if err != nil {
		return err
	}

	_, digest, err := engine.VerifyReplay(h.decoder, h.sessionID, entries)
	if err != nil {
		return err
	}
	live, err := wire.ViewDigest(h.view)
	if err != nil {
		return err
	}

	result.Digest = digest
	if digest != live {
		result.AddError(fmt.Sprintf("replayed view %s does not match live view %s", digest, live))
	}
	return nil
}
