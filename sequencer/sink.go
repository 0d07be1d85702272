package sequencer

import "errors"

// TriggerSink emits sounds for the engine.
//
// Trigger starts the referenced sound from the beginning, restarting it when
// it is still sounding from an earlier trigger. It must not block for the
// length of the sound. StopCurrent silences whatever was triggered last and
// is a no-op when nothing is playing.
type TriggerSink interface {
	Trigger(sound SoundID) error
	StopCurrent()
}

// MultiSink fans triggers out to several sinks (e.g. speaker and MIDI)
type MultiSink []TriggerSink

// Trigger plays sound on every sink, joining the errors of those that fail
func (m MultiSink) Trigger(sound SoundID) error {
	var errs []error
	for _, s := range m {
		if err := s.Trigger(sound); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StopCurrent silences every sink
func (m MultiSink) StopCurrent() {
	for _, s := range m {
		s.StopCurrent()
	}
}

// Hooks receive playback notifications. Any field may be nil.
// They run on the engine goroutine and must not block. OnPlaybackStateChanged
// is called with no engine lock held, in the order the changes happened, and
// may start or stop the Transport.
type Hooks struct {
	OnStepTriggered        func(index int, step Step)
	OnPlaybackStateChanged func(running bool)
	OnBpmRejected          func(attempted int, reason error)
	OnTriggerFailed        func(index int, step Step, err error)
	OnNothingQueued        func()
}

func (h Hooks) stepTriggered(index int, step Step) {
	if h.OnStepTriggered != nil {
		h.OnStepTriggered(index, step)
	}
}

func (h Hooks) playbackStateChanged(running bool) {
	if h.OnPlaybackStateChanged != nil {
		h.OnPlaybackStateChanged(running)
	}
}

func (h Hooks) bpmRejected(attempted int, reason error) {
	if h.OnBpmRejected != nil {
		h.OnBpmRejected(attempted, reason)
	}
}

func (h Hooks) triggerFailed(index int, step Step, err error) {
	if h.OnTriggerFailed != nil {
		h.OnTriggerFailed(index, step, err)
	}
}

func (h Hooks) nothingQueued() {
	if h.OnNothingQueued != nil {
		h.OnNothingQueued()
	}
}
