package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	Swatch rune // ■ palette color chip

	// Sequence strip (no cursor)
	StepSound    rune // ● plays a sound
	StepRest     rune // · silent step
	StepPlayhead rune // ▶ playing now

	// Sequence strip (with cursor)
	CursorSound    rune // ◉
	CursorRest     rune // ○
	CursorPlayhead rune // ▷
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Swatch: '■',

			StepSound:    '●',
			StepRest:     '·',
			StepPlayhead: '▶',

			CursorSound:    '◉',
			CursorRest:     '○',
			CursorPlayhead: '▷',
		},
	}
}

// Load builds a theme from a GPL file, or the default palette when path is empty
func Load(path string) (*Theme, error) {
	if path == "" {
		return New(nil), nil
	}
	p, err := LoadGPL(path)
	if err != nil {
		return New(nil), err
	}
	return New(p), nil
}

// Color roles mapped to palette positions (0-1)
const (
	RoleMuted   = 0.2
	RoleFG      = 0.4
	RoleAccent  = 0.5
	RoleCursor  = 0.6
	RoleWarning = 0.8
	RoleSuccess = 1.0

	// sound colors are spread over this range
	soundLo = 0.35
	soundHi = 0.95
)

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Cursor() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleCursor))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// SoundColor gives palette entry i of n its own color
func (t *Theme) SoundColor(i, n int) lipgloss.Color {
	if n <= 1 {
		return t.Color(soundLo)
	}
	return t.Color(soundLo + (soundHi-soundLo)*float64(i)/float64(n-1))
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
