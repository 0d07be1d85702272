package audio

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"go-steps/debug"
	"go-steps/sequencer"
)

const (
	sampleRate = beep.SampleRate(44100)

	// resampleQuality is beep's interpolation window for WAVs at other rates
	resampleQuality = 4
)

// DefaultFormat is the format every sound is stored in
var DefaultFormat = beep.Format{SampleRate: sampleRate, NumChannels: 2, Precision: 2}

// Bank holds decoded sounds in memory, ready to be re-triggered
type Bank struct {
	mu      sync.RWMutex
	format  beep.Format
	buffers map[sequencer.SoundID]*beep.Buffer
}

// NewBank creates an empty bank storing sounds in DefaultFormat
func NewBank() *Bank {
	return &Bank{
		format:  DefaultFormat,
		buffers: make(map[sequencer.SoundID]*beep.Buffer),
	}
}

// Format returns the storage format
func (b *Bank) Format() beep.Format {
	return b.format
}

// LoadWAV decodes a WAV file into the bank under id
func (b *Bank) LoadWAV(id sequencer.SoundID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open sample %s: %w", path, err)
	}
	defer f.Close()

	if err := b.ReadWAV(id, f); err != nil {
		return fmt.Errorf("load sample %s: %w", path, err)
	}
	debug.Log("audio", "loaded %s from %s", id, path)
	return nil
}

// ReadWAV decodes WAV data from r into the bank under id
func (b *Bank) ReadWAV(id sequencer.SoundID, r io.Reader) error {
	streamer, format, err := wav.Decode(r)
	if err != nil {
		return fmt.Errorf("decode wav: %w", err)
	}
	defer streamer.Close()

	var s beep.Streamer = streamer
	if format.SampleRate != b.format.SampleRate {
		s = beep.Resample(resampleQuality, format.SampleRate, b.format.SampleRate, streamer)
	}

	buf := beep.NewBuffer(b.format)
	buf.Append(s)
	if err := streamer.Err(); err != nil {
		return fmt.Errorf("read wav: %w", err)
	}

	b.store(id, buf)
	return nil
}

// AddVoice renders a built-in voice into the bank under id
func (b *Bank) AddVoice(id sequencer.SoundID, v Voice) {
	buf := beep.NewBuffer(b.format)
	buf.Append(v.Streamer(b.format.SampleRate))
	b.store(id, buf)
	debug.Log("audio", "rendered voice %s as %s (%d samples)", v, id, buf.Len())
}

// Buffer returns the sound stored under id
func (b *Bank) Buffer(id sequencer.SoundID) (*beep.Buffer, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	buf, ok := b.buffers[id]
	return buf, ok
}

// IDs returns the stored sound ids, sorted
func (b *Bank) IDs() []sequencer.SoundID {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]sequencer.SoundID, 0, len(b.buffers))
	for id := range b.buffers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (b *Bank) store(id sequencer.SoundID, buf *beep.Buffer) {
	b.mu.Lock()
	b.buffers[id] = buf
	b.mu.Unlock()
}
