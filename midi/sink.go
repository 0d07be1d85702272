package midi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-steps/debug"
	"go-steps/sequencer"
)

var (
	// ErrNoOutput is returned when triggering without an open port
	ErrNoOutput = errors.New("no midi output")
	// ErrUnknownSound is returned when a sound id has no kit slot
	ErrUnknownSound = errors.New("sound not mapped to a kit slot")
)

const (
	// DefaultNoteLength is how long a triggered note is held
	DefaultNoteLength = 100 * time.Millisecond
	velocity          = 100
)

// Sender writes one message to an output port
type Sender func(gomidi.Message) error

// Sink plays sounds as drum notes on a MIDI output
type Sink struct {
	mu         sync.Mutex
	send       Sender
	port       drivers.Out
	portName   string
	channel    uint8 // 0-based on the wire
	kit        Kit
	noteLength time.Duration
	slots      map[sequencer.SoundID]int
	sounding   map[uint8]*heldNote // pending NoteOff per held note
	lastNote   int                 // -1 when nothing has played
}

// heldNote is one NoteOn waiting for its NoteOff
type heldNote struct {
	timer *time.Timer // guarded by Sink.mu
}

// NewSink creates a sink writing through send. channel is 1-16; a nil
// send leaves the sink detached until Attach.
func NewSink(send Sender, channel int, kit Kit, noteLength time.Duration) *Sink {
	if noteLength <= 0 {
		noteLength = DefaultNoteLength
	}
	return &Sink{
		send:       send,
		channel:    wireChannel(channel),
		kit:        kit,
		noteLength: noteLength,
		slots:      make(map[sequencer.SoundID]int),
		sounding:   make(map[uint8]*heldNote),
		lastNote:   -1,
	}
}

// Open finds the output port and returns a sink attached to it
func Open(portName string, channel int, kit Kit, noteLength time.Duration) (*Sink, error) {
	s := NewSink(nil, channel, kit, noteLength)
	if err := s.Attach(portName); err != nil {
		return nil, err
	}
	return s, nil
}

// Attach opens portName and sends through it from now on
func (s *Sink) Attach(portName string) error {
	out, err := FindOut(portName)
	if err != nil {
		return err
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return fault.Wrap(err,
			fmsg.WithDesc("open output "+out.String(), "MIDI output "+out.String()+" could not be opened."),
			ftag.With(ftag.Internal))
	}

	s.mu.Lock()
	s.send = send
	s.port = out
	s.portName = out.String()
	s.mu.Unlock()

	debug.Log("midi", "sink attached to %s ch %d", out.String(), s.channel+1)
	return nil
}

// Detach drops the output; triggers fail with ErrNoOutput until reattached
func (s *Sink) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAll()
	s.send = nil
	s.port = nil
	s.portName = ""
}

// PortName returns the attached port, or "" when detached
func (s *Sink) PortName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.portName
}

// Kit returns the note mapping in use
func (s *Sink) Kit() Kit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kit
}

// Map plays id on the given kit slot
func (s *Sink) Map(id sequencer.SoundID, slot int) error {
	if slot < 0 || slot >= SlotCount {
		return fmt.Errorf("slot %d out of range 0-%d", slot, SlotCount-1)
	}
	s.mu.Lock()
	s.slots[id] = slot
	s.mu.Unlock()
	return nil
}

// Trigger sends a NoteOn for id's slot and releases it after the note
// length. A note still held from an earlier trigger is released first.
func (s *Sink) Trigger(id sequencer.SoundID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.send == nil {
		return ErrNoOutput
	}
	slot, ok := s.slots[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSound, id)
	}
	note := s.kit.Notes[slot]

	if h, held := s.sounding[note]; held {
		h.timer.Stop()
		delete(s.sounding, note)
		s.noteOff(note)
	}

	if err := s.send(gomidi.NoteOn(s.channel, note, velocity)); err != nil {
		return fmt.Errorf("send note %d: %w", note, err)
	}
	s.lastNote = int(note)

	h := &heldNote{}
	h.timer = time.AfterFunc(s.noteLength, func() { s.release(note, h) })
	s.sounding[note] = h
	return nil
}

func (s *Sink) release(note uint8, h *heldNote) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// retriggered or stopped since this timer was armed
	if s.sounding[note] != h {
		return
	}
	delete(s.sounding, note)
	s.noteOff(note)
}

// noteOff sends a NoteOff if a port is attached. s.mu must be held.
func (s *Sink) noteOff(note uint8) {
	if s.send == nil {
		return
	}
	if err := s.send(gomidi.NoteOff(s.channel, note)); err != nil {
		debug.Warn("midi", "note off %d: %v", note, err)
	}
}

// StopCurrent releases the last triggered note if it is still held
func (s *Sink) StopCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastNote < 0 {
		return
	}
	note := uint8(s.lastNote)
	h, held := s.sounding[note]
	if !held {
		return
	}
	h.timer.Stop()
	delete(s.sounding, note)
	s.noteOff(note)
	debug.Log("midi", "stopped note %d", note)
}

// Close releases held notes and closes the port
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for note, h := range s.sounding {
		h.timer.Stop()
		s.noteOff(note)
	}
	s.sounding = make(map[uint8]*heldNote)
	s.send = nil

	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	s.portName = ""
	return err
}

func (s *Sink) cancelAll() {
	for _, h := range s.sounding {
		h.timer.Stop()
	}
	s.sounding = make(map[uint8]*heldNote)
}

// wireChannel converts a 1-16 channel to the 0-15 the wire uses
func wireChannel(ch int) uint8 {
	if ch < 1 {
		ch = 1
	}
	if ch > 16 {
		ch = 16
	}
	return uint8(ch - 1)
}
