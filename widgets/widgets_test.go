package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"go-steps/sequencer"
	"go-steps/theme"
)

func TestStepSymbol(t *testing.T) {
	sym := theme.New(nil).Symbols
	kick := sequencer.NewStep("kick", "kick")
	rest := sequencer.Rest()

	tests := []struct {
		name    string
		step    sequencer.Step
		cursor  bool
		playing bool
		want    rune
	}{
		{"sound", kick, false, false, sym.StepSound},
		{"rest", rest, false, false, sym.StepRest},
		{"sound under cursor", kick, true, false, sym.CursorSound},
		{"rest under cursor", rest, true, false, sym.CursorRest},
		{"playing", kick, false, true, sym.StepPlayhead},
		{"playing rest", rest, false, true, sym.StepPlayhead},
		{"playing under cursor", kick, true, true, sym.CursorPlayhead},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StepSymbol(sym, tt.step, tt.cursor, tt.playing); got != tt.want {
				t.Errorf("StepSymbol() = %c, want %c", got, tt.want)
			}
		})
	}
}

func TestRenderSteps(t *testing.T) {
	th := theme.New(nil)
	out := RenderSteps(th, StepStrip{
		Steps:    []sequencer.Step{sequencer.NewStep("kick", "kick"), sequencer.Rest(), sequencer.NewStep("snare", "snare")},
		Cursor:   1,
		Playhead: 2,
	})

	for _, want := range []string{"● kick", "○ rest", "▶ snare"} {
		if !strings.Contains(out, want) {
			t.Errorf("strip %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "\n") {
		t.Error("unwrapped strip spans lines")
	}

	if got := RenderSteps(th, StepStrip{Cursor: -1, Playhead: -1}); !strings.Contains(got, "empty") {
		t.Errorf("empty strip = %q", got)
	}
}

func TestWrapTiles(t *testing.T) {
	tiles := []string{"aaaa", "bbbb", "cccc"}

	if got := wrapTiles(tiles, "  ", 0); got != "aaaa  bbbb  cccc" {
		t.Errorf("no wrap = %q", got)
	}
	if got := wrapTiles(tiles, "  ", 10); got != "aaaa  bbbb\ncccc" {
		t.Errorf("wrap at 10 = %q", got)
	}
	// a tile wider than the line still gets its own line
	if got := wrapTiles([]string{"toolongtile", "x"}, " ", 4); got != "toolongtile\nx" {
		t.Errorf("wide tile = %q", got)
	}
}

func TestRenderPalette(t *testing.T) {
	th := theme.New(nil)
	out := RenderPalette(th, []PaletteEntry{
		{Key: "1", Name: "hihat", Color: lipgloss.Color("#ffffff")},
		{Key: "2", Name: "snare", Color: lipgloss.Color("#ff0000")},
	})
	for _, want := range []string{"hihat", "snare", "■"} {
		if !strings.Contains(out, want) {
			t.Errorf("palette %q missing %q", out, want)
		}
	}
}

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{{Title: "Transport", Keys: []KeyBinding{{Key: "space", Desc: "start/stop"}}}})
	if want := "Transport\n  space        start/stop"; out != want {
		t.Errorf("RenderKeyHelp() = %q, want %q", out, want)
	}
	if got := RenderKeyLine([]KeyBinding{{"q", "quit"}, {"o", "loop"}}); got != "q:quit  o:loop" {
		t.Errorf("RenderKeyLine() = %q", got)
	}
}
