package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go-steps/tempo"
)

const (
	defaultVolume     = 0.8
	defaultNoteLength = 100 // ms
	defaultChannel    = 10  // GM drums
	slotCount         = 16
	maxPaletteSounds  = 9 // keys 1-9
)

// OutputConfig selects where triggered sounds go
type OutputConfig struct {
	Audio        bool    `json:"audio"`
	Volume       float64 `json:"volume,omitempty"`
	MIDIPort     string  `json:"midiPort,omitempty"`
	MIDIChannel  int     `json:"midiChannel,omitempty"`
	Kit          string  `json:"kit,omitempty"`
	NoteLengthMs int     `json:"noteLength,omitempty"`
}

// NoteLength returns how long MIDI notes are held
func (o OutputConfig) NoteLength() time.Duration {
	return time.Duration(o.NoteLengthMs) * time.Millisecond
}

// SoundConfig is one entry of the sound palette. An empty Path uses the
// built-in voice of the same name; Slot is the drum slot used for MIDI.
type SoundConfig struct {
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
	Slot int    `json:"slot"`
}

// InputConfig names a MIDI keyboard whose notes enqueue steps
type InputConfig struct {
	MIDIKeyboard string `json:"midiKeyboard,omitempty"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette string `json:"palette,omitempty"` // GPL file
}

// Config is the main configuration structure
type Config struct {
	Tempo  tempo.Settings `json:"tempo"`
	Output OutputConfig   `json:"output"`
	Sounds []SoundConfig  `json:"sounds,omitempty"`
	Input  InputConfig    `json:"input,omitempty"`
	UI     UIConfig       `json:"ui,omitempty"`
	Debug  bool           `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Tempo: tempo.DefaultSettings(),
		Output: OutputConfig{
			Audio:        true,
			Volume:       defaultVolume,
			MIDIChannel:  defaultChannel,
			Kit:          "gm",
			NoteLengthMs: defaultNoteLength,
		},
		Sounds: DefaultSounds(),
	}
}

// DefaultSounds is the starting palette
func DefaultSounds() []SoundConfig {
	return []SoundConfig{
		{Name: "hihat", Slot: 2},
		{Name: "snare", Slot: 1},
		{Name: "kick", Slot: 0},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-steps"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. Fields missing from the file keep
// their defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	cfg.Sounds = nil
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate repairs out-of-range values in place. The returned error lists
// what was changed; the config is usable either way.
func (c *Config) Validate() error {
	var errs []error

	if err := tempo.Validate(c.Tempo.BPM); err != nil {
		errs = append(errs, err)
		c.Tempo.BPM = tempo.DefaultBPM
	}

	switch ch := c.Output.MIDIChannel; {
	case ch == 0:
		c.Output.MIDIChannel = defaultChannel
	case ch < 1 || ch > 16:
		errs = append(errs, fmt.Errorf("midi channel %d outside 1-16", ch))
		c.Output.MIDIChannel = min(max(ch, 1), 16)
	}
	if c.Output.NoteLengthMs <= 0 {
		c.Output.NoteLengthMs = defaultNoteLength
	}
	switch v := c.Output.Volume; {
	case v == 0:
		c.Output.Volume = defaultVolume
	case v < 0 || v > 1:
		errs = append(errs, fmt.Errorf("volume %.2f outside 0-1", v))
		c.Output.Volume = defaultVolume
	}
	if c.Output.Kit == "" {
		c.Output.Kit = "gm"
	}

	var sounds []SoundConfig
	seen := make(map[string]bool)
	for _, s := range c.Sounds {
		switch {
		case s.Name == "":
			errs = append(errs, errors.New("sound without a name dropped"))
			continue
		case seen[s.Name]:
			errs = append(errs, fmt.Errorf("duplicate sound %q dropped", s.Name))
			continue
		case s.Slot < 0 || s.Slot >= slotCount:
			errs = append(errs, fmt.Errorf("sound %q slot %d outside 0-%d", s.Name, s.Slot, slotCount-1))
			s.Slot = 0
		}
		seen[s.Name] = true
		sounds = append(sounds, s)
	}
	if len(sounds) > maxPaletteSounds {
		errs = append(errs, fmt.Errorf("%d sounds configured, keeping the first %d", len(sounds), maxPaletteSounds))
		sounds = sounds[:maxPaletteSounds]
	}
	if len(sounds) == 0 {
		sounds = DefaultSounds()
	}
	c.Sounds = sounds

	return errors.Join(errs...)
}

// FindSound finds a sound by name
func (c *Config) FindSound(name string) *SoundConfig {
	for i := range c.Sounds {
		if c.Sounds[i].Name == name {
			return &c.Sounds[i]
		}
	}
	return nil
}

// SoundForSlot returns the first sound mapped to a drum slot
func (c *Config) SoundForSlot(slot int) *SoundConfig {
	for i := range c.Sounds {
		if c.Sounds[i].Slot == slot {
			return &c.Sounds[i]
		}
	}
	return nil
}
