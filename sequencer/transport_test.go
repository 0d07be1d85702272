package sequencer

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"go-steps/tempo"
)

func TestSetBPM(t *testing.T) {
	rec := &hookRecorder{}
	tr := NewTransport(&recordingSink{}, tempo.Settings{BPM: 100}, rec.hooks())

	if err := tr.SetBPM(39); !errors.Is(err, tempo.ErrInvalidTempo) {
		t.Errorf("SetBPM(39) = %v, want ErrInvalidTempo", err)
	}
	if got := tr.Settings().BPM; got != 100 {
		t.Errorf("BPM = %d after rejected change, want 100", got)
	}
	if want, got := []int{39}, rec.snapshot().rejected; !reflect.DeepEqual(want, got) {
		t.Errorf("wrong rejections:\nwant: %v\ngot:  %v", want, got)
	}

	if err := tr.SetBPM(40); err != nil {
		t.Errorf("SetBPM(40) = %v", err)
	}
	if got := tr.Settings().BPM; got != 40 {
		t.Errorf("BPM = %d, want 40", got)
	}
}

func TestNudgeBPM(t *testing.T) {
	tr := NewTransport(&recordingSink{}, tempo.Settings{BPM: 42}, Hooks{})

	if err := tr.NudgeBPM(-5); err == nil {
		t.Error("NudgeBPM(-5) from 42 should be rejected")
	}
	if err := tr.NudgeBPM(5); err != nil {
		t.Errorf("NudgeBPM(5) = %v", err)
	}
	if got := tr.Settings().BPM; got != 47 {
		t.Errorf("BPM = %d, want 47", got)
	}
}

func TestInitialTempoBelowFloor(t *testing.T) {
	tr := NewTransport(&recordingSink{}, tempo.Settings{BPM: 10, Loop: true}, Hooks{})
	got := tr.Settings()
	if got.BPM != tempo.DefaultBPM || !got.Loop {
		t.Errorf("Settings() = %+v, want default BPM with loop kept", got)
	}
}

func TestToggles(t *testing.T) {
	tr := NewTransport(&recordingSink{}, tempo.DefaultSettings(), Hooks{})

	if !tr.ToggleLoop() || !tr.Settings().Loop {
		t.Error("ToggleLoop should enable looping")
	}
	if tr.ToggleLoop() || tr.Settings().Loop {
		t.Error("second ToggleLoop should disable looping")
	}
	if !tr.ToggleSwing() || !tr.Settings().Swing {
		t.Error("ToggleSwing should enable swing")
	}
}

func TestStartNothingQueued(t *testing.T) {
	sink := &recordingSink{}
	rec := &hookRecorder{}
	tr := NewTransport(sink, tempo.DefaultSettings(), rec.hooks())

	started, err := tr.Start()
	if started || !errors.Is(err, ErrEmptySequence) {
		t.Errorf("Start() = %v, %v; want false, ErrEmptySequence", started, err)
	}
	if rec.snapshot().empty != 1 {
		t.Error("OnNothingQueued not fired")
	}
	if triggers, _ := sink.calls(); len(triggers) != 0 {
		t.Errorf("sink triggered on empty start: %v", triggers)
	}
	if tr.IsPlaying() {
		t.Error("IsPlaying() true after empty start")
	}
}

func TestDoubleStartStops(t *testing.T) {
	sink := &recordingSink{}
	rec := &hookRecorder{}
	clock := newManualClock()
	tr := NewTransport(sink, tempo.Settings{BPM: 120}, rec.hooks(), WithClock(clock))
	tr.Append(NewStep("kick", "kick"))
	tr.Append(NewStep("snare", "snare"))

	if started, err := tr.Start(); !started || err != nil {
		t.Fatalf("first Start() = %v, %v", started, err)
	}
	clock.next(t) // waiting before snare
	if !tr.IsPlaying() {
		t.Fatal("IsPlaying() false during run")
	}

	if started, err := tr.Start(); started || err != nil {
		t.Errorf("second Start() = %v, %v; want false, nil", started, err)
	}
	tr.Wait()

	triggers, stops := sink.calls()
	if want := []SoundID{"kick"}; !reflect.DeepEqual(want, triggers) {
		t.Errorf("wrong triggers:\nwant: %v\ngot:  %v", want, triggers)
	}
	if stops != 1 {
		t.Errorf("StopCurrent called %d times, want 1", stops)
	}
	if tr.IsPlaying() {
		t.Error("IsPlaying() true after toggle stop")
	}
	if want, got := []bool{true, false}, rec.snapshot().states; !reflect.DeepEqual(want, got) {
		t.Errorf("wrong state hooks:\nwant: %v\ngot:  %v", want, got)
	}
}

func TestStateHookCanRestart(t *testing.T) {
	sink := &recordingSink{}
	var (
		mu       sync.Mutex
		states   []bool
		restarts int
		tr       *Transport
	)
	finished := make(chan struct{})

	hooks := Hooks{
		OnPlaybackStateChanged: func(running bool) {
			mu.Lock()
			states = append(states, running)
			again := !running && restarts == 0
			if again {
				restarts++
			}
			last := !running && !again
			mu.Unlock()

			switch {
			case again:
				if _, err := tr.Start(); err != nil {
					t.Errorf("Start() from hook = %v", err)
				}
			case last:
				close(finished)
			}
		},
	}
	tr = NewTransport(sink, tempo.Settings{BPM: 120}, hooks, WithClock(&instantClock{}))
	tr.Append(NewStep("kick", "kick"))

	if _, err := tr.Start(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("restart from the state hook never finished")
	}
	tr.Wait()

	triggers, _ := sink.calls()
	if want := []SoundID{"kick", "kick"}; !reflect.DeepEqual(want, triggers) {
		t.Errorf("wrong triggers:\nwant: %v\ngot:  %v", want, triggers)
	}
	mu.Lock()
	defer mu.Unlock()
	if want := []bool{true, false, true, false}; !reflect.DeepEqual(want, states) {
		t.Errorf("wrong state hooks:\nwant: %v\ngot:  %v", want, states)
	}
}

func TestLoopReplaysOriginalSnapshot(t *testing.T) {
	sink := &recordingSink{}
	clock := newManualClock()
	tr := NewTransport(sink, tempo.Settings{BPM: 75, Loop: true}, Hooks{}, WithClock(clock))
	tr.Append(NewStep("a", "a"))
	tr.Append(NewStep("b", "b"))

	if _, err := tr.Start(); err != nil {
		t.Fatal(err)
	}

	w := clock.next(t) // before b
	tr.Append(NewStep("c", "c"))
	tr.RemoveAt(0)
	w.release <- true

	w = clock.next(t) // loop delay
	if w.d != tempo.StepDelay(75) {
		t.Errorf("loop delay = %v, want %v", w.d, tempo.StepDelay(75))
	}
	w.release <- true

	clock.next(t) // before b, second pass
	tr.Stop()
	tr.Wait()

	triggers, stops := sink.calls()
	if want := []SoundID{"a", "b", "a"}; !reflect.DeepEqual(want, triggers) {
		t.Errorf("wrong triggers:\nwant: %v\ngot:  %v", want, triggers)
	}
	if stops != 1 {
		t.Errorf("StopCurrent called %d times, want 1", stops)
	}
	if want, got := []Step{NewStep("b", "b"), NewStep("c", "c")}, tr.Steps(); !reflect.DeepEqual(want, got) {
		t.Errorf("live sequence:\nwant: %v\ngot:  %v", want, got)
	}
}

func TestRemoveDuringRunKeepsSnapshot(t *testing.T) {
	sink := &recordingSink{}
	clock := newManualClock()
	tr := NewTransport(sink, tempo.Settings{BPM: 120}, Hooks{}, WithClock(clock))
	for _, s := range []string{"a", "b", "c"} {
		tr.Append(NewStep(s, SoundID(s)))
	}

	if _, err := tr.Start(); err != nil {
		t.Fatal(err)
	}
	w := clock.next(t)
	removed, ok := tr.RemoveAt(0)
	if !ok || removed.Sound != "a" {
		t.Fatalf("RemoveAt(0) = %v, %v", removed, ok)
	}
	if got, _ := tr.Sequence().At(0); got.Sound != "b" {
		t.Errorf("index 0 after removal = %v, want b", got)
	}
	w.release <- true
	clock.next(t).release <- true
	tr.Wait()

	triggers, _ := sink.calls()
	if want := []SoundID{"a", "b", "c"}; !reflect.DeepEqual(want, triggers) {
		t.Errorf("snapshot affected by live edit:\nwant: %v\ngot:  %v", want, triggers)
	}
	if tr.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tr.Len())
	}
}

func TestCursorTracksPlayback(t *testing.T) {
	clock := newManualClock()
	tr := NewTransport(&recordingSink{}, tempo.Settings{BPM: 120}, Hooks{}, WithClock(clock))
	tr.Append(NewStep("a", "a"))
	tr.Append(Rest())

	if tr.Cursor() != -1 {
		t.Errorf("Cursor() = %d before start, want -1", tr.Cursor())
	}
	if _, err := tr.Start(); err != nil {
		t.Fatal(err)
	}
	w := clock.next(t)
	if tr.Cursor() != 0 {
		t.Errorf("Cursor() = %d while waiting before step 1, want 0", tr.Cursor())
	}
	w.release <- true
	tr.Wait()

	if tr.Cursor() != -1 {
		t.Errorf("Cursor() = %d after run, want -1", tr.Cursor())
	}
}

func TestPreviewAndClose(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTransport(sink, tempo.DefaultSettings(), Hooks{})

	if err := tr.Preview(NewStep("kick", "kick")); err != nil {
		t.Fatal(err)
	}
	if err := tr.Preview(Rest()); err != nil {
		t.Fatal(err)
	}
	tr.Clear()
	tr.Close()

	triggers, stops := sink.calls()
	if want := []SoundID{"kick"}; !reflect.DeepEqual(want, triggers) {
		t.Errorf("wrong triggers:\nwant: %v\ngot:  %v", want, triggers)
	}
	if stops != 0 {
		t.Errorf("Close while idle called StopCurrent %d times", stops)
	}
}
