package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"go-steps/widgets"
)

type keyMap struct {
	Quit    key.Binding
	Sound   key.Binding
	Rest    key.Binding
	Left    key.Binding
	Right   key.Binding
	Delete  key.Binding
	Preview key.Binding
	Play    key.Binding
	Loop    key.Binding
	Swing   key.Binding
	Faster  key.Binding
	Slower  key.Binding
	SetBPM  key.Binding
	Clear   key.Binding
	Help    key.Binding

	// BPM entry box
	Confirm key.Binding
	Cancel  key.Binding
}

func bind(help, desc string, keyboardKey ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keyboardKey...), key.WithHelp(help, desc))
}

var keys = keyMap{
	Quit:    bind("q", "quit", "q", "ctrl+c"),
	Sound:   bind("1-9", "add", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
	Rest:    bind(".", "rest", "."),
	Left:    bind("h/l", "move", "h", "left"),
	Right:   bind("l", "right", "l", "right"),
	Delete:  bind("x", "delete", "x", "backspace", "delete"),
	Preview: bind("enter", "preview", "enter"),
	Play:    bind("space", "play/stop", " "),
	Loop:    bind("o", "loop", "o"),
	Swing:   bind("s", "swing", "s"),
	Faster:  bind("+/-", "tempo", "+", "="),
	Slower:  bind("-", "slower", "-", "_"),
	SetBPM:  bind("b", "set bpm", "b"),
	Clear:   bind("c", "clear", "c"),
	Help:    bind("?", "help", "?"),

	Confirm: bind("enter", "apply", "enter"),
	Cancel:  bind("esc", "cancel", "esc", "ctrl+c"),
}

// shortHelp lists the bindings shown on the help line
func (k keyMap) shortHelp() []key.Binding {
	return []key.Binding{
		k.Sound, k.Rest, k.Left, k.Delete, k.Preview, k.Play,
		k.Loop, k.Swing, k.Faster, k.SetBPM, k.Clear, k.Help, k.Quit,
	}
}

// fullHelp groups every binding for the help screen
func (k keyMap) fullHelp() []widgets.KeySection {
	sections := []struct {
		title    string
		bindings []key.Binding
	}{
		{"Sequence", []key.Binding{k.Sound, k.Rest, k.Left, k.Right, k.Delete, k.Clear}},
		{"Transport", []key.Binding{k.Play, k.Preview, k.Loop, k.Swing, k.Faster, k.Slower, k.SetBPM}},
		{"", []key.Binding{k.Help, k.Quit}},
	}
	out := make([]widgets.KeySection, len(sections))
	for i, sec := range sections {
		out[i].Title = sec.title
		for _, b := range sec.bindings {
			out[i].Keys = append(out[i].Keys, widgets.KeyBinding{Key: keyNames(b), Desc: b.Help().Desc})
		}
	}
	return out
}

func helpLine(bindings []key.Binding) string {
	out := make([]widgets.KeyBinding, 0, len(bindings))
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		out = append(out, widgets.KeyBinding{Key: h.Key, Desc: h.Desc})
	}
	return widgets.RenderKeyLine(out)
}

// keyNames spells out every key of a binding, "x/backspace/delete"
func keyNames(b key.Binding) string {
	if len(b.Keys()) > 4 {
		return b.Help().Key
	}
	names := make([]string, len(b.Keys()))
	for i, k := range b.Keys() {
		if k == " " {
			k = "space"
		}
		names[i] = k
	}
	return strings.Join(names, "/")
}
