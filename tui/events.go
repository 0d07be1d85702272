package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"go-steps/debug"
	"go-steps/midi"
	"go-steps/sequencer"
)

// Playback notifications, delivered from the engine goroutine
type (
	StepMsg struct {
		Index int
		Step  sequencer.Step
	}
	PlaybackMsg struct {
		Running bool
	}
	BpmRejectedMsg struct {
		Attempted int
		Reason    error
	}
	TriggerFailedMsg struct {
		Index int
		Step  sequencer.Step
		Err   error
	}
	NothingQueuedMsg struct{}
)

// NoteMsg is a note played on the MIDI keyboard
type NoteMsg struct {
	Event    midi.NoteEvent
	Keyboard *midi.Keyboard
}

// PortMsg is a MIDI port appearing or going away
type PortMsg midi.PortEvent

type keyboardClosedMsg struct {
	keyboard *midi.Keyboard
}

const eventBuffer = 64

// NewEvents makes the channel engine hooks post to
func NewEvents() chan tea.Msg {
	return make(chan tea.Msg, eventBuffer)
}

// Hooks forwards playback notifications to events. Sends never block the
// engine; when the UI falls behind, notifications are dropped.
func Hooks(events chan<- tea.Msg) sequencer.Hooks {
	post := func(msg tea.Msg) {
		select {
		case events <- msg:
		default:
			debug.Log("tui", "event dropped: %T", msg)
		}
	}
	return sequencer.Hooks{
		OnStepTriggered: func(index int, step sequencer.Step) {
			post(StepMsg{Index: index, Step: step})
		},
		OnPlaybackStateChanged: func(running bool) {
			post(PlaybackMsg{Running: running})
		},
		OnBpmRejected: func(attempted int, reason error) {
			post(BpmRejectedMsg{Attempted: attempted, Reason: reason})
		},
		OnTriggerFailed: func(index int, step sequencer.Step, err error) {
			post(TriggerFailedMsg{Index: index, Step: step, Err: err})
		},
		OnNothingQueued: func() {
			post(NothingQueuedMsg{})
		},
	}
}

func ListenForEvents(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

func ListenForPorts(w *midi.Watcher) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-w.Events()
		if !ok {
			return nil
		}
		return PortMsg(event)
	}
}

func ListenForNotes(kb *midi.Keyboard) tea.Cmd {
	return func() tea.Msg {
		note, ok := <-kb.Notes()
		if !ok {
			return keyboardClosedMsg{keyboard: kb}
		}
		return NoteMsg{Event: note, Keyboard: kb}
	}
}
