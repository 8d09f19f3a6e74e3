// Package command implements the high-level drive operations (jog, stop,
// operation-N, pause, trigger) as synchronous calls composed over a
// cyclic-sender session and a status decoder.
package command

import (
	"context"
	"time"

	"github.com/tturner/motordrive/internal/payloads"
	"github.com/tturner/motordrive/internal/status"
)

// Session is the slice of iosession.Session the command engine depends on.
// Keeping it as an interface lets tests drive the engine against a stub
// that doesn't open any sockets.
type Session interface {
	UpdateApp(app []byte)
	Decoder() *status.Decoder
}

// ProgressSnapshot is handed to an optional ProgressFunc once per poll
// inside any waiting operation.
type ProgressSnapshot struct {
	At        time.Time
	Elapsed   time.Duration
	Remaining time.Duration
	Offset    int
	RawStatus uint16
	InPos     bool
	Move      bool
	Ready     bool
	AppLen    int
}

// ProgressFunc is an optional capability the engine invokes once per poll.
// It is not part of the engine's contract: callers that don't need it
// simply pass nil.
type ProgressFunc func(ProgressSnapshot)

// Engine drives a session through named operations. Jog, Stop and Operation
// leave STOP asserted however they end; Pause and the one-shot assertions
// (Trigger, Detrigger, Free, NoOp) leave their own payload asserted.
type Engine struct {
	session  Session
	payloads payloads.Set
	rpi      time.Duration
	progress ProgressFunc
}

// New returns an Engine bound to session, using set as its payload
// table and rpi as the polling period (must match the cyclic sender's
// actual RPI or timing guarantees don't hold).
func New(session Session, set payloads.Set, rpi time.Duration, progress ProgressFunc) *Engine {
	return &Engine{session: session, payloads: set, rpi: rpi, progress: progress}
}

func (e *Engine) sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *Engine) emitProgress(start time.Time, timeout time.Duration) {
	if e.progress == nil {
		return
	}
	d := e.session.Decoder()
	offset, _ := d.Offset()
	elapsed := time.Since(start)
	remaining := timeout - elapsed
	if remaining < 0 {
		remaining = 0
	}
	e.progress(ProgressSnapshot{
		At:        time.Now(),
		Elapsed:   elapsed,
		Remaining: remaining,
		Offset:    offset,
		RawStatus: d.FixedOut(),
		InPos:     d.InPos(),
		Move:      d.Move(),
		Ready:     d.Ready(),
		AppLen:    len(d.LastInput()),
	})
}

// Stop asserts the STOP payload and waits 3 RPI cycles so status settles
// before the caller proceeds. It reads nothing itself; the session keeps
// its decoder current during the wait.
func (e *Engine) Stop(ctx context.Context) error {
	e.session.UpdateApp(e.payloads.Stop.Bytes())
	for i := 0; i < 3; i++ {
		if err := e.sleepCtx(ctx, e.pollInterval()); err != nil {
			return err
		}
	}
	return nil
}

// Jog asserts the JOG payload for duration, sleeping in RPI-sized steps,
// then restores STOP.
func (e *Engine) Jog(ctx context.Context, duration time.Duration) error {
	e.session.UpdateApp(e.payloads.Jog.Bytes())
	start := time.Now()
	for time.Since(start) < duration {
		if err := e.sleepCtx(ctx, e.pollInterval()); err != nil {
			e.Stop(context.Background())
			return err
		}
	}
	return e.Stop(ctx)
}

// Operation asserts the op-N START payload and polls until IN-POS asserts
// or timeout elapses. The engine does not wait for IN-POS to clear before
// starting; it always restores STOP before returning.
func (e *Engine) Operation(ctx context.Context, n int, timeout time.Duration) (bool, error) {
	payload, ok := e.payloads.OpPayload(n)
	if !ok {
		return false, &UnknownOperationError{N: n}
	}
	e.session.UpdateApp(payload.Bytes())

	start := time.Now()
	deadline := start.Add(timeout)
	for {
		if err := e.sleepCtx(ctx, e.pollInterval()); err != nil {
			e.Stop(context.Background())
			return false, err
		}
		e.emitProgress(start, timeout)
		if e.session.Decoder().InPos() {
			return true, e.Stop(ctx)
		}
		if time.Now().After(deadline) {
			return false, e.Stop(ctx)
		}
	}
}

// Pause holds the cyclic stream at a fixed payload for duration without
// disrupting cadence. It only sleeps; status stays fresh because the
// session keeps updating its decoder during the hold.
func (e *Engine) Pause(ctx context.Context, duration time.Duration, keep Keep) error {
	switch keep.kind {
	case keepStop:
		e.session.UpdateApp(e.payloads.Stop.Bytes())
	case keepHold:
		// leave whatever is currently asserted
	case keepCustom:
		e.session.UpdateApp(keep.custom[:])
	default:
		return &ConfigError{Reason: "unknown keep variant"}
	}

	granularity := e.pollInterval()
	if granularity < 5*time.Millisecond {
		granularity = 5 * time.Millisecond
	}
	start := time.Now()
	for time.Since(start) < duration {
		if err := e.sleepCtx(ctx, granularity); err != nil {
			return err
		}
	}
	return nil
}

// Trigger, Detrigger, Free, and NoOp are one-shot payload assertions with
// no completion wait.
func (e *Engine) Trigger(context.Context) error   { e.session.UpdateApp(e.payloads.Trigger.Bytes()); return nil }
func (e *Engine) Detrigger(context.Context) error { e.session.UpdateApp(e.payloads.Detrigger.Bytes()); return nil }
func (e *Engine) Free(context.Context) error      { e.session.UpdateApp(e.payloads.Free.Bytes()); return nil }
func (e *Engine) NoOp(context.Context) error      { e.session.UpdateApp(e.payloads.NoOp.Bytes()); return nil }

func (e *Engine) pollInterval() time.Duration {
	if e.rpi <= 0 {
		return 20 * time.Millisecond
	}
	return e.rpi
}
