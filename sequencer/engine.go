package sequencer

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go-steps/debug"
	"go-steps/tempo"
)

var (
	// ErrEmptySequence is returned when there is nothing to play
	ErrEmptySequence = errors.New("nothing queued")
	// ErrAlreadyRunning is returned by Engine.Start while a run is in progress
	ErrAlreadyRunning = errors.New("playback already running")
)

// State is the engine's playback state
type State int

const (
	Idle     State = iota
	Running        // walking a snapshot
	Stopping       // stop requested (or pass finished), run not yet torn down
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	}
	return "unknown"
}

// Clock suspends the run loop between steps
type Clock interface {
	// Wait blocks for d or until stop is closed, and reports whether d elapsed
	Wait(d time.Duration, stop <-chan struct{}) bool
}

type realClock struct{}

func (realClock) Wait(d time.Duration, stop <-chan struct{}) bool {
	if d <= 0 {
		select {
		case <-stop:
			return false
		default:
			return true
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-stop:
		return false
	case <-timer.C:
		return true
	}
}

// session is the state of one playback run, owned by its goroutine
type session struct {
	snapshot []Step
	stop     chan struct{} // closed by Stop
	halted   chan struct{} // closed once the session is no longer current
	done     chan struct{} // closed when the run goroutine exits
	stopping bool          // guarded by Engine.mu
}

func (s *session) stopRequested() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// Engine plays a snapshot of steps through a TriggerSink.
// At most one run is active at a time.
type Engine struct {
	sink     TriggerSink
	settings func() tempo.Settings
	hooks    Hooks
	clock    Clock

	mu      sync.Mutex
	current *session
	cursor  atomic.Int64

	// pending state changes, delivered in order by one goroutine at a time
	states    []bool
	queued    uint64
	delivered uint64
	flushing  bool
	flushed   *sync.Cond
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithClock replaces the wall clock (tests)
func WithClock(c Clock) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithHooks sets the notification callbacks
func WithHooks(h Hooks) EngineOption {
	return func(e *Engine) {
		e.hooks = h
	}
}

// NewEngine creates an idle engine. settings is read before every delay so
// tempo edits apply to the next step of an in-flight run.
func NewEngine(sink TriggerSink, settings func() tempo.Settings, opts ...EngineOption) *Engine {
	e := &Engine{
		sink:     sink,
		settings: settings,
		clock:    realClock{},
	}
	e.flushed = sync.NewCond(&e.mu)
	for _, opt := range opts {
		opt(e)
	}
	e.cursor.Store(-1)
	return e
}

// State returns the current playback state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.current == nil:
		return Idle
	case e.current.stopping:
		return Stopping
	default:
		return Running
	}
}

// Running returns true while a run is active and no stop is pending
func (e *Engine) Running() bool {
	return e.State() == Running
}

// Cursor returns the index of the last step reached, -1 when idle
func (e *Engine) Cursor() int {
	return int(e.cursor.Load())
}

// Start begins playing steps. The slice is copied; later edits to the
// caller's sequence never reach this run. If a previous run is still
// winding down, Start waits for it so runs never overlap.
func (e *Engine) Start(steps []Step) error {
	if len(steps) == 0 {
		debug.Log("engine", "start ignored: nothing queued")
		return ErrEmptySequence
	}

	e.mu.Lock()
	for e.current != nil {
		if !e.current.stopping {
			e.mu.Unlock()
			return ErrAlreadyRunning
		}
		halted := e.current.halted
		e.mu.Unlock()
		<-halted
		e.mu.Lock()
	}

	s := &session{
		snapshot: append([]Step(nil), steps...),
		stop:     make(chan struct{}),
		halted:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	e.current = s
	e.cursor.Store(-1)
	seq := e.queueState(true)
	e.mu.Unlock()

	debug.Log("engine", "start: %d steps", len(s.snapshot))
	e.deliverStates(seq, false)

	go e.run(s)
	return nil
}

// Stop requests the active run to halt at its next step boundary.
// It is a no-op when idle or already stopping.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.current
	if s == nil || s.stopping {
		return
	}
	s.stopping = true
	close(s.stop)
	debug.Log("engine", "stop requested at cursor %d", e.cursor.Load())
}

// Wait blocks until the active run, if any, has ended
func (e *Engine) Wait() {
	e.mu.Lock()
	s := e.current
	e.mu.Unlock()

	if s != nil {
		<-s.done
	}
}

func (e *Engine) run(s *session) {
	defer e.finish(s)

	for pass := 0; ; pass++ {
		for cursor, step := range s.snapshot {
			if cursor > 0 {
				delay := tempo.Delay(e.settings(), cursor)
				if !e.clock.Wait(delay, s.stop) {
					e.halt(pass, cursor)
					return
				}
			}
			if s.stopRequested() {
				e.halt(pass, cursor)
				return
			}

			e.cursor.Store(int64(cursor))
			if step.IsRest() {
				continue
			}

			if err := e.sink.Trigger(step.Sound); err != nil {
				debug.Warn("engine", "trigger failed: step=%d sound=%s err=%v", cursor, step.Sound, err)
				e.hooks.triggerFailed(cursor, step, err)
				continue
			}
			e.hooks.stepTriggered(cursor, step)
		}

		settings := e.settings()
		if !settings.Loop {
			debug.Log("engine", "finished after %d pass(es)", pass+1)
			return
		}
		if !e.clock.Wait(tempo.LoopDelay(settings), s.stop) {
			e.halt(pass, len(s.snapshot))
			return
		}
		debug.LogEvery(8, "engine", "loop restart")
	}
}

// halt silences the sink after a stop request
func (e *Engine) halt(pass, cursor int) {
	e.sink.StopCurrent()
	debug.Log("engine", "halted: pass=%d cursor=%d", pass, cursor)
}

func (e *Engine) finish(s *session) {
	e.mu.Lock()
	if e.current == s {
		e.current = nil
	}
	e.cursor.Store(-1)
	seq := e.queueState(false)
	e.mu.Unlock()
	close(s.halted)

	// Wait returns only after listeners have seen this run end
	e.deliverStates(seq, true)
	close(s.done)
}

// queueState records a state change. e.mu must be held.
func (e *Engine) queueState(running bool) uint64 {
	e.states = append(e.states, running)
	e.queued++
	return e.queued
}

// deliverStates hands queued state changes to the hook in order. If another
// goroutine is already delivering, the change is left to it; with wait set
// the caller blocks until change seq has gone out.
func (e *Engine) deliverStates(seq uint64, wait bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for e.flushing {
		if !wait || e.delivered >= seq {
			return
		}
		e.flushed.Wait()
	}

	e.flushing = true
	for len(e.states) > 0 {
		running := e.states[0]
		e.states = e.states[1:]

		e.mu.Unlock()
		e.hooks.playbackStateChanged(running)
		e.mu.Lock()

		e.delivered++
		e.flushed.Broadcast()
	}
	e.flushing = false
	e.flushed.Broadcast()
}
