package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"go-steps/debug"
	"go-steps/sequencer"
)

var (
	// ErrUnknownSound is returned when a sound id is not in the bank
	ErrUnknownSound = errors.New("unknown sound")
	// ErrNotInitialized is returned when triggering before Init
	ErrNotInitialized = errors.New("audio not initialized")
)

// speaker buffer; lower means less trigger latency, more underrun risk
const bufferDuration = 20 * time.Millisecond

// Sink plays bank sounds through the speaker
type Sink struct {
	mu          sync.Mutex
	bank        *Bank
	mixer       *beep.Mixer
	voices      map[sequencer.SoundID]*beep.Ctrl // latest voice per sound
	current     sequencer.SoundID                // last triggered sound
	volume      float64
	initialized bool
}

// NewSink creates a sink over bank at volume (0.0-1.0)
func NewSink(bank *Bank, volume float64) *Sink {
	return &Sink{
		bank:   bank,
		mixer:  &beep.Mixer{},
		voices: make(map[sequencer.SoundID]*beep.Ctrl),
		volume: clamp01(volume),
	}
}

// Init opens the speaker and starts the mixer. Safe to call twice.
func (s *Sink) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	format := s.bank.Format()
	if err := speaker.Init(format.SampleRate, format.SampleRate.N(bufferDuration)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}

	speaker.Play(s.mixer)
	s.initialized = true
	debug.Log("audio", "speaker ready at %d Hz", format.SampleRate)
	return nil
}

// Trigger starts id from the beginning. A still-sounding earlier trigger of
// the same sound is cut off; other sounds keep ringing.
func (s *Sink) Trigger(id sequencer.SoundID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}

	buf, ok := s.bank.Buffer(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSound, id)
	}

	ctrl := &beep.Ctrl{Streamer: newVolume(buf.Streamer(0, buf.Len()), s.volume)}

	speaker.Lock()
	if prev := s.voices[id]; prev != nil {
		prev.Streamer = nil // drained ctrls are dropped by the mixer
	}
	s.mixer.Add(ctrl)
	speaker.Unlock()

	s.voices[id] = ctrl
	s.current = id
	return nil
}

// StopCurrent silences the last triggered sound
func (s *Sink) StopCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctrl := s.voices[s.current]
	if ctrl == nil {
		return
	}

	speaker.Lock()
	ctrl.Streamer = nil
	speaker.Unlock()

	delete(s.voices, s.current)
	debug.Log("audio", "stopped %s", s.current)
}

// SetVolume sets playback volume (0.0-1.0) for subsequent triggers
func (s *Sink) SetVolume(vol float64) {
	s.mu.Lock()
	s.volume = clamp01(vol)
	s.mu.Unlock()
}

// Close silences everything and detaches from the speaker
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return
	}

	speaker.Lock()
	s.mixer.Clear()
	speaker.Unlock()

	s.voices = make(map[sequencer.SoundID]*beep.Ctrl)
	s.initialized = false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
