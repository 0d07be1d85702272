package sequencer

import "go-steps/queue"

// SoundID is an opaque handle to a playable sound, resolved by a TriggerSink
type SoundID string

// Step is one slot of a sequence. A step without a sound is a rest.
type Step struct {
	Name  string  `json:"name"`
	Sound SoundID `json:"sound,omitempty"`
}

// NewStep creates a step that plays sound
func NewStep(name string, sound SoundID) Step {
	return Step{Name: name, Sound: sound}
}

// Rest creates a silent step
func Rest() Step {
	return Step{Name: "rest"}
}

// IsRest returns true if no sound is attached
func (s Step) IsRest() bool {
	return s.Sound == ""
}

// Sequence is the live, editable list of steps awaiting playback
type Sequence = queue.Queue[Step]

// NewSequence creates a sequence holding steps in order
func NewSequence(steps ...Step) *Sequence {
	return queue.New(steps...)
}
