package midi

import (
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-steps/debug"
)

// Keyboard turns NoteOns from a MIDI input into NoteEvents
type Keyboard struct {
	name     string
	stopFunc func()

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
	noteChan  chan NoteEvent
}

// NewKeyboard listens on inPort. A nil port gives a keyboard that only
// emits what is fed to it.
func NewKeyboard(name string, inPort drivers.In) (*Keyboard, error) {
	kb := &Keyboard{
		name:     name,
		noteChan: make(chan NoteEvent, 32),
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
			kb.handle(msg)
		})
		if err != nil {
			return nil, fault.Wrap(err,
				fmsg.WithDesc("open input "+name, "MIDI input "+name+" could not be opened."),
				ftag.With(ftag.Internal))
		}
		kb.stopFunc = stop
	}

	return kb, nil
}

// OpenKeyboard listens on the first input whose name matches
func OpenKeyboard(match string) (*Keyboard, error) {
	in, err := FindIn(match)
	if err != nil {
		return nil, err
	}
	kb, err := NewKeyboard(in.String(), in)
	if err != nil {
		return nil, err
	}
	debug.Log("midi", "keyboard listening on %s", in.String())
	return kb, nil
}

// Name returns the input port name
func (kb *Keyboard) Name() string {
	return kb.name
}

// Notes delivers played notes. Closed by Close.
func (kb *Keyboard) Notes() <-chan NoteEvent {
	return kb.noteChan
}

func (kb *Keyboard) handle(msg gomidi.Message) {
	var channel, note, vel uint8
	if !msg.GetNoteOn(&channel, &note, &vel) || vel == 0 {
		return
	}

	kb.mu.RLock()
	defer kb.mu.RUnlock()
	if kb.closed {
		return
	}
	select {
	case kb.noteChan <- NoteEvent{Note: note, Velocity: vel, Channel: channel}:
	default:
		debug.Warn("midi", "keyboard %s dropped note %d", kb.name, note)
	}
}

// Close stops listening and closes the Notes channel
func (kb *Keyboard) Close() error {
	kb.closeOnce.Do(func() {
		if kb.stopFunc != nil {
			kb.stopFunc()
		}
		kb.mu.Lock()
		kb.closed = true
		close(kb.noteChan)
		kb.mu.Unlock()
	})
	return nil
}
