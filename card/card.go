package card

import (
	"fmt"
	"strings"

	"go-melodycards/util"
)

// DefaultPitchUnits is how many eighth notes a lone pitch occupies
const DefaultPitchUnits = 1

// ID identifies a card; generators hand them out in increasing order
type ID int

// Kind is rhythm or pitch
type Kind int

const (
	Rhythm Kind = iota
	Pitch
)

func (k Kind) String() string {
	switch k {
	case Rhythm:
		return "rhythm"
	case Pitch:
		return "pitch"
	default:
		return "unknown"
	}
}

// Complement returns the kind a card of this kind fuses with
func (k Kind) Complement() Kind {
	if k == Rhythm {
		return Pitch
	}
	return Rhythm
}

// Status tracks a card's life on the staff
type Status int

const (
	Unplaced Status = iota
	Waiting
	Locked
)

func (s Status) String() string {
	switch s {
	case Unplaced:
		return "unplaced"
	case Waiting:
		return "waiting"
	case Locked:
		return "locked"
	default:
		return "unknown"
	}
}

// Card is a rhythm or pitch pattern. Patterns never change after creation;
// only the status moves.
type Card struct {
	ID      ID
	Kind    Kind
	Rhythm  []int    // eighth-note durations, rhythm cards only
	Pitches []string // note names like "C4", pitch cards only

	status Status
}

// NewRhythm creates a rhythm card
func NewRhythm(id ID, durations ...int) *Card {
	return &Card{ID: id, Kind: Rhythm, Rhythm: append([]int(nil), durations...)}
}

// NewPitch creates a pitch card
func NewPitch(id ID, notes ...string) *Card {
	return &Card{ID: id, Kind: Pitch, Pitches: append([]string(nil), notes...)}
}

// Length is the span in eighth notes at the default pitch unit
func (c *Card) Length() int {
	return c.LengthWith(DefaultPitchUnits)
}

// LengthWith is the span in eighth notes when a lone pitch takes pitchUnits
func (c *Card) LengthWith(pitchUnits int) int {
	if c.Kind == Rhythm {
		return util.Sum(c.Rhythm)
	}
	return len(c.Pitches) * pitchUnits
}

// Elements is the number of pattern entries
func (c *Card) Elements() int {
	if c.Kind == Rhythm {
		return len(c.Rhythm)
	}
	return len(c.Pitches)
}

func (c *Card) Status() Status { return c.status }
func (c *Card) IsLocked() bool { return c.status == Locked }
func (c *Card) IsWaiting() bool { return c.status == Waiting }

// Lock confirms the card permanently
func (c *Card) Lock() {
	c.status = Locked
}

// SetWaiting marks the card as hanging on an incomplete measure
func (c *Card) SetWaiting() {
	if c.status == Locked {
		return
	}
	c.status = Waiting
}

// ClearWaiting drops the waiting mark
func (c *Card) ClearWaiting() {
	if c.status == Waiting {
		c.status = Unplaced
	}
}

// Reset returns the card to its fresh state (used when it goes back to the pool
// or the staff is cleared)
func (c *Card) Reset() {
	c.status = Unplaced
}

func (c *Card) String() string {
	if c.Kind == Rhythm {
		parts := make([]string, len(c.Rhythm))
		for i, d := range c.Rhythm {
			parts[i] = fmt.Sprint(d)
		}
		return fmt.Sprintf("#%d rhythm[%s]", c.ID, strings.Join(parts, " "))
	}
	return fmt.Sprintf("#%d pitch[%s]", c.ID, strings.Join(c.Pitches, " "))
}
