// Package tempo converts beats-per-minute settings into inter-step delays.
package tempo

import (
	"errors"
	"fmt"
	"time"
)

// MinBPM is the lowest accepted tempo. There is no upper bound.
const MinBPM = 40

// DefaultBPM gives a 200ms sixteenth step
const DefaultBPM = 75

// ErrInvalidTempo is returned for a BPM below MinBPM
var ErrInvalidTempo = errors.New("invalid tempo")

// Subdivision is the number of steps per quarter note
type Subdivision int

const (
	Quarter   Subdivision = 1
	Eighth    Subdivision = 2
	Sixteenth Subdivision = 4
)

// Swung steps lose base*2/5, i.e. base/2.5
const (
	swingNum = 2
	swingDen = 5
)

// Settings holds the values that govern inter-step timing
type Settings struct {
	BPM   int  `json:"bpm"`
	Swing bool `json:"swing"`
	Loop  bool `json:"loop"`
}

// DefaultSettings returns straight, non-looping playback at DefaultBPM
func DefaultSettings() Settings {
	return Settings{BPM: DefaultBPM}
}

// Validate reports whether bpm is an acceptable tempo
func Validate(bpm int) error {
	if bpm < MinBPM {
		return fmt.Errorf("%w: %d bpm is below the %d bpm floor", ErrInvalidTempo, bpm, MinBPM)
	}
	return nil
}

// StepDelay returns the length of one sixteenth step: 60000ms / (bpm * 4)
func StepDelay(bpm int) time.Duration {
	return StepDelayAt(bpm, Sixteenth)
}

// StepDelayAt returns the length of one step at the given subdivision
func StepDelayAt(bpm int, sub Subdivision) time.Duration {
	if bpm <= 0 || sub <= 0 {
		return 0
	}
	// two divisions so bpm*sub cannot overflow
	return time.Minute / time.Duration(bpm) / time.Duration(sub)
}

// SwungDelay returns the delay for the step at cursor with swing applied.
// Even cursors are shortened by 40% of the base delay, odd cursors keep it.
func SwungDelay(bpm int, cursor int) time.Duration {
	base := StepDelay(bpm)
	if cursor%2 == 0 {
		return base - base*swingNum/swingDen
	}
	return base
}

// Delay returns the wait inserted before the step at cursor.
// The first step of a run is never delayed.
func Delay(s Settings, cursor int) time.Duration {
	if cursor <= 0 {
		return 0
	}
	if s.Swing {
		return SwungDelay(s.BPM, cursor)
	}
	return StepDelay(s.BPM)
}

// LoopDelay returns the wait between the last step of a pass and the restart.
// It is never swung.
func LoopDelay(s Settings) time.Duration {
	return StepDelay(s.BPM)
}
