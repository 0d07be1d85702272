package audio

import (
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// Voice is a built-in drum sound, used when no sample file is configured
type Voice int

const (
	VoiceKick Voice = iota
	VoiceSnare
	VoiceHat
	VoiceClap
	VoiceTom
)

var voiceNames = map[string]Voice{
	"kick":  VoiceKick,
	"snare": VoiceSnare,
	"hat":   VoiceHat,
	"hihat": VoiceHat,
	"clap":  VoiceClap,
	"tom":   VoiceTom,
}

// ParseVoice maps a sound name (kick, snare, hihat, ...) to a built-in voice
func ParseVoice(name string) (Voice, bool) {
	v, ok := voiceNames[strings.ToLower(strings.TrimSpace(name))]
	return v, ok
}

func (v Voice) String() string {
	switch v {
	case VoiceKick:
		return "kick"
	case VoiceSnare:
		return "snare"
	case VoiceHat:
		return "hat"
	case VoiceClap:
		return "clap"
	case VoiceTom:
		return "tom"
	}
	return "unknown"
}

// Streamer renders the voice at rate. The stream ends with the sound.
func (v Voice) Streamer(rate beep.SampleRate) beep.Streamer {
	switch v {
	case VoiceKick:
		d := 250 * time.Millisecond
		body := newSweep(150, 45, d, WaveSine, rate)
		return newVolume(NewEnvelope(body, d, 2*time.Millisecond, 200*time.Millisecond, rate), 0.9)
	case VoiceSnare:
		d := 180 * time.Millisecond
		tone := NewEnvelope(NewOscillator(185, d, WaveSine, rate), d, time.Millisecond, 120*time.Millisecond, rate)
		noise := NewEnvelope(NewOscillator(0, d, WaveNoise, rate), d, time.Millisecond, 170*time.Millisecond, rate)
		return beep.Mix(newVolume(tone, 0.4), newVolume(noise, 0.5))
	case VoiceHat:
		d := 60 * time.Millisecond
		noise := NewEnvelope(NewOscillator(0, d, WaveNoise, rate), d, time.Millisecond, 55*time.Millisecond, rate)
		return newVolume(noise, 0.3)
	case VoiceClap:
		burst := 12 * time.Millisecond
		var parts []beep.Streamer
		for i := 0; i < 3; i++ {
			parts = append(parts, NewEnvelope(NewOscillator(0, burst, WaveNoise, rate), burst, time.Millisecond, 10*time.Millisecond, rate))
		}
		tail := 120 * time.Millisecond
		parts = append(parts, NewEnvelope(NewOscillator(0, tail, WaveNoise, rate), tail, time.Millisecond, 110*time.Millisecond, rate))
		return newVolume(beep.Seq(parts...), 0.5)
	case VoiceTom:
		d := 300 * time.Millisecond
		body := newSweep(140, 90, d, WaveSine, rate)
		return newVolume(NewEnvelope(body, d, 2*time.Millisecond, 250*time.Millisecond, rate), 0.7)
	}
	return beep.Silence(0)
}

// WaveType defines oscillator wave shapes
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveSaw
	WaveNoise
)

// oscillator generates raw audio waves, optionally sweeping its frequency
type oscillator struct {
	freq     float64
	endFreq  float64
	phase    float64
	duration int
	position int
	wave     WaveType
	rate     beep.SampleRate
}

// NewOscillator creates a fixed-frequency oscillator
func NewOscillator(freq float64, duration time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return newSweep(freq, freq, duration, wave, rate)
}

// newSweep glides exponentially from freq to endFreq over duration
func newSweep(freq, endFreq float64, duration time.Duration, wave WaveType, rate beep.SampleRate) *oscillator {
	return &oscillator{
		freq:     freq,
		endFreq:  endFreq,
		duration: rate.N(duration),
		wave:     wave,
		rate:     rate,
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}

		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveSquare:
			if o.phase < 0.5 {
				val = 1.0
			} else {
				val = -1.0
			}
		case WaveSaw:
			val = 2.0 * (o.phase - 0.5)
		case WaveNoise:
			val = rand.Float64()*2 - 1
		}

		samples[i][0] = val
		samples[i][1] = val

		freq := o.freq
		if o.endFreq != o.freq && o.freq > 0 && o.endFreq > 0 {
			t := float64(o.position) / float64(o.duration)
			freq = o.freq * math.Pow(o.endFreq/o.freq, t)
		}

		// Advance phase, keep in [0, 1)
		o.phase += freq / float64(o.rate)
		o.phase = o.phase - math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// envelope applies attack/release shaping to a stream
type envelope struct {
	streamer       beep.Streamer
	position       int
	attackSamples  int
	releaseSamples int
	sustainSamples int
	totalSamples   int
}

// NewEnvelope creates an attack/sustain/release envelope over s
func NewEnvelope(s beep.Streamer, duration, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	total := rate.N(duration)
	att := rate.N(attack)
	rel := rate.N(release)
	sus := total - att - rel
	if sus < 0 {
		sus = 0
	}

	return &envelope{
		streamer:       s,
		attackSamples:  att,
		releaseSamples: rel,
		sustainSamples: sus,
		totalSamples:   total,
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)

	for i := 0; i < n; i++ {
		if e.position >= e.totalSamples {
			return i, i > 0
		}

		vol := 1.0
		if e.position < e.attackSamples && e.attackSamples > 0 {
			vol = float64(e.position) / float64(e.attackSamples)
		}
		releaseStart := e.attackSamples + e.sustainSamples
		if e.position >= releaseStart && e.releaseSamples > 0 {
			remaining := e.totalSamples - e.position
			vol = float64(remaining) / float64(e.releaseSamples)
			if vol < 0 {
				vol = 0
			}
		}

		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}

	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// math.Log2(0) is -Inf, so 0 volume becomes silent
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}
