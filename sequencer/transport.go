package sequencer

import (
	"errors"
	"sync"

	"go-steps/debug"
	"go-steps/tempo"
)

// Transport translates user intents into engine calls and owns the live
// sequence and tempo settings.
type Transport struct {
	engine *Engine
	sink   TriggerSink
	hooks  Hooks
	seq    *Sequence

	intentMu sync.Mutex // serializes start/stop so a double start becomes a stop

	mu       sync.RWMutex // protects settings
	settings tempo.Settings
}

// NewTransport creates a stopped transport with an empty sequence.
// An initial BPM below the floor falls back to tempo.DefaultBPM.
func NewTransport(sink TriggerSink, initial tempo.Settings, hooks Hooks, opts ...EngineOption) *Transport {
	if err := tempo.Validate(initial.BPM); err != nil {
		debug.Log("transport", "initial tempo rejected, using default: %v", err)
		initial.BPM = tempo.DefaultBPM
	}

	t := &Transport{
		sink:     sink,
		hooks:    hooks,
		seq:      NewSequence(),
		settings: initial,
	}
	opts = append([]EngineOption{WithHooks(hooks)}, opts...)
	t.engine = NewEngine(sink, t.Settings, opts...)
	return t
}

// Start plays a snapshot of the live sequence. While playing, Start acts as
// Stop. It returns true if a new run began.
func (t *Transport) Start() (bool, error) {
	t.intentMu.Lock()
	defer t.intentMu.Unlock()

	if t.engine.Running() {
		debug.Log("transport", "start while running: stopping")
		t.engine.Stop()
		return false, nil
	}

	err := t.engine.Start(t.seq.AsArray())
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrEmptySequence):
		t.hooks.nothingQueued()
		return false, err
	case errors.Is(err, ErrAlreadyRunning):
		t.engine.Stop()
		return false, nil
	default:
		return false, err
	}
}

// Stop requests playback to halt
func (t *Transport) Stop() {
	t.intentMu.Lock()
	defer t.intentMu.Unlock()
	t.engine.Stop()
}

// Close stops playback and waits for the run to end
func (t *Transport) Close() {
	t.Stop()
	t.engine.Wait()
}

// Wait blocks until the current run ends
func (t *Transport) Wait() {
	t.engine.Wait()
}

// IsPlaying returns true while a run is active
func (t *Transport) IsPlaying() bool {
	return t.engine.Running()
}

// State returns the engine state
func (t *Transport) State() State {
	return t.engine.State()
}

// Cursor returns the index of the step being played, -1 when stopped
func (t *Transport) Cursor() int {
	return t.engine.Cursor()
}

// Settings returns a copy of the current tempo settings
func (t *Transport) Settings() tempo.Settings {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.settings
}

// ToggleLoop flips looping and returns the new value
func (t *Transport) ToggleLoop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.settings.Loop = !t.settings.Loop
	debug.Log("transport", "loop=%v", t.settings.Loop)
	return t.settings.Loop
}

// ToggleSwing flips swing and returns the new value
func (t *Transport) ToggleSwing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.settings.Swing = !t.settings.Swing
	debug.Log("transport", "swing=%v", t.settings.Swing)
	return t.settings.Swing
}

// SetBPM replaces the tempo. Values below tempo.MinBPM are rejected and the
// previous tempo is kept.
func (t *Transport) SetBPM(bpm int) error {
	if err := tempo.Validate(bpm); err != nil {
		debug.Warn("transport", "bpm rejected: %v", err)
		t.hooks.bpmRejected(bpm, err)
		return err
	}

	t.mu.Lock()
	t.settings.BPM = bpm
	t.mu.Unlock()
	debug.Log("transport", "bpm=%d", bpm)
	return nil
}

// NudgeBPM adds delta to the current tempo
func (t *Transport) NudgeBPM(delta int) error {
	return t.SetBPM(t.Settings().BPM + delta)
}

// Preview plays a single step immediately, outside of any run
func (t *Transport) Preview(step Step) error {
	if step.IsRest() {
		return nil
	}
	return t.sink.Trigger(step.Sound)
}

// Sequence returns the live sequence
func (t *Transport) Sequence() *Sequence {
	return t.seq
}

// Append adds a step at the end of the live sequence
func (t *Transport) Append(step Step) {
	t.seq.Enqueue(step)
	debug.Log("transport", "append %q (len=%d)", step.Name, t.seq.Len())
}

// RemoveAt deletes the step at index i from the live sequence
func (t *Transport) RemoveAt(i int) (Step, bool) {
	step, ok := t.seq.RemoveAt(i)
	if ok {
		debug.Log("transport", "remove %q at %d", step.Name, i)
	}
	return step, ok
}

// Clear empties the live sequence
func (t *Transport) Clear() {
	t.seq.Clear()
}

// Steps returns a snapshot of the live sequence
func (t *Transport) Steps() []Step {
	return t.seq.AsArray()
}

// Len returns the number of steps in the live sequence
func (t *Transport) Len() int {
	return t.seq.Len()
}
