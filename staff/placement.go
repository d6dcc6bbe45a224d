package staff

import (
	"fmt"

	"go-melodycards/card"
)

// PlacementID identifies a placement for move/return commands
type PlacementID int

// Shape is what a placement holds. It is either Single or Fused.
type Shape interface {
	cards() []*card.Card
	length(pitchUnits int) int
	String() string
}

// Single holds one card of either kind. A lone rhythm card is silent; a lone
// pitch card plays each pitch for the staff's pitch unit.
type Single struct {
	Card *card.Card
}

func (s Single) cards() []*card.Card { return []*card.Card{s.Card} }

func (s Single) length(pitchUnits int) int { return s.Card.LengthWith(pitchUnits) }

func (s Single) String() string { return s.Card.String() }

// Fused pairs a rhythm card with a pitch card at one start. The rhythm
// governs timing and length; the pitch supplies content.
type Fused struct {
	Rhythm *card.Card
	Pitch  *card.Card
}

func (f Fused) cards() []*card.Card { return []*card.Card{f.Rhythm, f.Pitch} }

func (f Fused) length(int) int { return f.Rhythm.Length() }

func (f Fused) String() string { return fmt.Sprintf("%v + %v", f.Rhythm, f.Pitch) }

// fuse orders two complementary cards into a Fused shape
func fuse(a, b *card.Card) (Fused, bool) {
	switch {
	case a.Kind == card.Rhythm && b.Kind == card.Pitch:
		return Fused{Rhythm: a, Pitch: b}, true
	case a.Kind == card.Pitch && b.Kind == card.Rhythm:
		return Fused{Rhythm: b, Pitch: a}, true
	}
	return Fused{}, false
}

// Placement anchors a shape to an eighth-note offset
type Placement struct {
	ID     PlacementID
	Start  int
	Length int
	Shape  Shape
}

// End is the first offset after the placement
func (p Placement) End() int { return p.Start + p.Length }

// Contains reports whether offset pos falls inside the placement
func (p Placement) Contains(pos int) bool {
	return p.Start <= pos && pos < p.End()
}

// Cards lists the cards held, rhythm first for fused placements
func (p Placement) Cards() []*card.Card { return p.Shape.cards() }

// Holds reports whether the card is part of this placement
func (p Placement) Holds(id card.ID) bool {
	for _, c := range p.Cards() {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Locked reports whether any held card is locked
func (p Placement) Locked() bool {
	for _, c := range p.Cards() {
		if c.IsLocked() {
			return true
		}
	}
	return false
}

// IsFused reports whether the placement pairs rhythm and pitch
func (p Placement) IsFused() bool {
	_, ok := p.Shape.(Fused)
	return ok
}

func (p Placement) overlaps(start, end int) bool {
	return start < p.End() && p.Start < end
}
