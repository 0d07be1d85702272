package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-steps/sequencer"
	"go-steps/theme"
)

// StepStrip is the state needed to draw the sequence
type StepStrip struct {
	Steps    []sequencer.Step
	Cursor   int // -1 hides the cursor
	Playhead int // -1 when stopped
	Colors   map[sequencer.SoundID]lipgloss.Color
	Width    int // wrap width, 0 for one line
}

// PaletteEntry is one sound on the palette row
type PaletteEntry struct {
	Key   string
	Name  string
	Color lipgloss.Color
}

// StepSymbol picks the strip glyph for a step
func StepSymbol(sym theme.Symbols, step sequencer.Step, cursor, playing bool) rune {
	switch {
	case playing && cursor:
		return sym.CursorPlayhead
	case playing:
		return sym.StepPlayhead
	case step.IsRest() && cursor:
		return sym.CursorRest
	case step.IsRest():
		return sym.StepRest
	case cursor:
		return sym.CursorSound
	}
	return sym.StepSound
}

// RenderSteps draws the sequence as "● kick  · rest  ▶ snare" tiles
func RenderSteps(th *theme.Theme, s StepStrip) string {
	if len(s.Steps) == 0 {
		return lipgloss.NewStyle().Foreground(th.Muted()).Render("(empty)")
	}

	var tiles []string
	for i, step := range s.Steps {
		cursor := i == s.Cursor
		playing := i == s.Playhead

		style := lipgloss.NewStyle().Foreground(th.FG())
		switch {
		case playing:
			style = style.Foreground(th.Success()).Bold(true)
		case step.IsRest():
			style = style.Foreground(th.Muted())
		default:
			if c, ok := s.Colors[step.Sound]; ok {
				style = style.Foreground(c)
			}
		}
		if cursor {
			style = style.Underline(true)
		}

		tiles = append(tiles, style.Render(fmt.Sprintf("%c %s", StepSymbol(th.Symbols, step, cursor, playing), step.Name)))
	}

	return wrapTiles(tiles, "  ", s.Width)
}

// RenderPalette draws the sound palette row: "1 ■ hihat  2 ■ snare"
func RenderPalette(th *theme.Theme, entries []PaletteEntry) string {
	keyStyle := lipgloss.NewStyle().Foreground(th.Muted())
	nameStyle := lipgloss.NewStyle().Foreground(th.FG())

	tiles := make([]string, len(entries))
	for i, e := range entries {
		swatch := lipgloss.NewStyle().Foreground(e.Color).Render(string(th.Symbols.Swatch))
		tiles[i] = keyStyle.Render(e.Key) + " " + swatch + " " + nameStyle.Render(e.Name)
	}
	return strings.Join(tiles, "  ")
}

// wrapTiles joins tiles with sep, starting a new line before width is exceeded
func wrapTiles(tiles []string, sep string, width int) string {
	if width <= 0 {
		return strings.Join(tiles, sep)
	}

	var lines []string
	var line strings.Builder
	lineWidth := 0
	for _, tile := range tiles {
		w := lipgloss.Width(tile)
		if lineWidth > 0 && lineWidth+len(sep)+w > width {
			lines = append(lines, line.String())
			line.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			line.WriteString(sep)
			lineWidth += len(sep)
		}
		line.WriteString(tile)
		lineWidth += w
	}
	lines = append(lines, line.String())
	return strings.Join(lines, "\n")
}
