package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"go-steps/audio"
	"go-steps/config"
	"go-steps/debug"
	"go-steps/midi"
	"go-steps/sequencer"
	"go-steps/theme"
	"go-steps/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Debug {
		if err := debug.Enable(debug.DefaultPath()); err != nil {
			fmt.Printf("debug log disabled: %v\n", err)
		}
		defer debug.Disable()
	}
	if err := cfg.Validate(); err != nil {
		debug.Warn("config", "repaired: %v", err)
	}

	th, err := theme.Load(cfg.UI.Palette)
	if err != nil {
		debug.Log("config", "palette: %v", err)
	}

	var sinks sequencer.MultiSink

	var audioSink *audio.Sink
	if cfg.Output.Audio {
		audioSink = audio.NewSink(loadBank(cfg.Sounds), cfg.Output.Volume)
		if err := audioSink.Init(); err != nil {
			fmt.Printf("audio disabled: %v\n", err)
			audioSink = nil
		} else {
			sinks = append(sinks, audioSink)
		}
	}

	var midiSink *midi.Sink
	if cfg.Output.MIDIPort != "" {
		midiSink = midi.NewSink(nil, cfg.Output.MIDIChannel, midi.GetKit(cfg.Output.Kit), cfg.Output.NoteLength())
		for _, s := range cfg.Sounds {
			midiSink.Map(sequencer.SoundID(s.Name), s.Slot)
		}
		// reattached by the watcher when the port shows up later
		if err := midiSink.Attach(cfg.Output.MIDIPort); err != nil {
			debug.Log("midi", "out %s not available yet: %v", cfg.Output.MIDIPort, err)
		}
		sinks = append(sinks, midiSink)
	}

	if len(sinks) == 0 {
		fmt.Println("no output configured - steps will play silently")
	}

	events := tui.NewEvents()
	tr := sequencer.NewTransport(sinks, cfg.Tempo, tui.Hooks(events))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var watcher *midi.Watcher
	if cfg.Output.MIDIPort != "" || cfg.Input.MIDIKeyboard != "" {
		watcher = midi.NewWatcher(time.Second)
		go watcher.Run(ctx)
	}

	m := tui.NewModel(tr, events, cfg, th)
	m.MIDISink = midiSink
	m.Watcher = watcher

	p := tea.NewProgram(m, tea.WithAltScreen())
	final, runErr := p.Run()

	tr.Close()
	if fm, ok := final.(tui.Model); ok {
		fm.Close()
	}
	if audioSink != nil {
		audioSink.Close()
	}
	if midiSink != nil {
		midiSink.Close()
	}

	cfg.Tempo = tr.Settings()
	if err := cfg.Save(); err != nil {
		debug.Log("config", "save: %v", err)
	}

	return runErr
}

// loadBank fills a bank from the palette: WAV files where a path is given,
// built-in voices otherwise
func loadBank(sounds []config.SoundConfig) *audio.Bank {
	bank := audio.NewBank()
	for _, s := range sounds {
		id := sequencer.SoundID(s.Name)
		if s.Path != "" {
			err := bank.LoadWAV(id, s.Path)
			if err == nil {
				continue
			}
			fmt.Printf("sample %s: %v (using built-in voice)\n", s.Name, err)
		}
		voice, ok := audio.ParseVoice(s.Name)
		if !ok {
			voice = voiceForSlot(s.Slot)
		}
		bank.AddVoice(id, voice)
	}
	return bank
}

// voiceForSlot picks a built-in voice close to a drum slot
func voiceForSlot(slot int) audio.Voice {
	switch slot {
	case 0:
		return audio.VoiceKick
	case 1, 10:
		return audio.VoiceSnare
	case 2, 3, 7, 8, 13:
		return audio.VoiceHat
	case 9, 12:
		return audio.VoiceClap
	}
	return audio.VoiceTom
}
