package theme

import (
	"github.com/charmbracelet/lipgloss"

	"go-melodycards/melody"
)

type Theme struct {
	Palette *Palette
	Notes   *Palette
	Symbols Symbols
}

type Symbols struct {
	// Staff cells
	Empty    rune // · free unit
	Rhythm   rune // ♩ rhythm card only
	Pitch    rune // ♪ pitch card only
	Fused    rune // ♫ rhythm and pitch
	Bar      rune // │ measure line
	Playhead rune // ▼ playback cursor

	// Card marks
	Locked  rune // ■ in a completed measure
	Waiting rune // ◌ placed, measure not complete
	Cursor  rune // ▶ selection
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Theme{
		Palette: palette,
		Notes:   NotePalette(),
		Symbols: Symbols{
			Empty:    '·',
			Rhythm:   '♩',
			Pitch:    '♪',
			Fused:    '♫',
			Bar:      '│',
			Playhead: '▼',

			Locked:  '■',
			Waiting: '◌',
			Cursor:  '▶',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0
	RoleSurface = 0.1
	RoleMuted   = 0.2
	RoleFG      = 0.4
	RoleAccent  = 0.5
	RoleCursor  = 0.6
	RoleActive  = 0.7
	RoleWarning = 0.8
	RoleSuccess = 1.0
)

// unknownNote is used for malformed pitch names
const unknownNote = lipgloss.Color("#cccccc")

func (t *Theme) BG() lipgloss.Color      { return t.Color(RoleBG) }
func (t *Theme) Surface() lipgloss.Color { return t.Color(RoleSurface) }
func (t *Theme) FG() lipgloss.Color      { return t.Color(RoleFG) }
func (t *Theme) Accent() lipgloss.Color  { return t.Color(RoleAccent) }
func (t *Theme) Muted() lipgloss.Color   { return t.Color(RoleMuted) }
func (t *Theme) Active() lipgloss.Color  { return t.Color(RoleActive) }
func (t *Theme) Cursor() lipgloss.Color  { return t.Color(RoleCursor) }
func (t *Theme) Warning() lipgloss.Color { return t.Color(RoleWarning) }
func (t *Theme) Success() lipgloss.Color { return t.Color(RoleSuccess) }

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return lipgloss.Color(t.Palette.Lookup(norm).Hex())
}

// NoteColor is the pitch-class color of a note name
func (t *Theme) NoteColor(note string) lipgloss.Color {
	pc := melody.PitchClass(note)
	if pc < 0 {
		return unknownNote
	}
	return lipgloss.Color(t.Notes.Index(pc).Hex())
}

// NoteStyle renders text in a note's color
func (t *Theme) NoteStyle(note string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.NoteColor(note))
}
