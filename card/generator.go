package card

import (
	"fmt"
	"math/rand"
)

var rhythmPatterns = [][]int{
	{8, 8, 4},    // steady
	{4, 8, 8},    // skip
	{8, 4, 8},    // jump
	{8, 8, 8, 8}, // even
	{4, 4, 8},    // stumble
	{8, 4, 4, 8}, // mixed
}

var (
	naturals   = []string{"C", "D", "E", "F", "G", "A", "B"}
	chromatic  = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	octaves    = []int{3, 4, 5}
	baseOctave = 4
)

// Generator deals cards with increasing IDs
type Generator struct {
	rng  *rand.Rand
	next ID
}

// NewGenerator seeds the pattern choice
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

func (g *Generator) nextID() ID {
	id := g.next
	g.next++
	return id
}

// Rhythm deals a rhythm card from the canned palette
func (g *Generator) Rhythm() *Card {
	p := rhythmPatterns[g.rng.Intn(len(rhythmPatterns))]
	return NewRhythm(g.nextID(), p...)
}

// Pitch deals a pitch card from one of six archetypes
func (g *Generator) Pitch() *Card {
	var notes []string
	switch g.rng.Intn(6) {
	case 0: // repeat one note
		n := g.randomNote()
		notes = []string{n, n, n}
	case 1: // repeat a pair
		a, b := g.randomNote(), g.randomNote()
		notes = []string{a, b, a, b}
	case 2: // ascending
		start := g.rng.Intn(5) + 3
		notes = []string{noteFromNumber(start, baseOctave), noteFromNumber(start+1, baseOctave), noteFromNumber(start+2, baseOctave)}
	case 3: // descending
		start := g.rng.Intn(5) + 5
		notes = []string{noteFromNumber(start, baseOctave), noteFromNumber(start-1, baseOctave), noteFromNumber(start-2, baseOctave)}
	case 4: // random triple
		notes = []string{g.randomNote(), g.randomNote(), g.randomNote()}
	default: // triad
		root := g.rng.Intn(7) + 3
		notes = []string{noteFromNumber(root, baseOctave), noteFromNumber(root+2, baseOctave), noteFromNumber(root+4, baseOctave)}
	}
	return NewPitch(g.nextID(), notes...)
}

// Deal returns one card of the given kind
func (g *Generator) Deal(k Kind) *Card {
	if k == Rhythm {
		return g.Rhythm()
	}
	return g.Pitch()
}

func (g *Generator) randomNote() string {
	n := naturals[g.rng.Intn(len(naturals))]
	o := octaves[g.rng.Intn(len(octaves))]
	return fmt.Sprintf("%s%d", n, o)
}

// noteFromNumber maps a semitone index above C of octave to a note name
func noteFromNumber(num, octave int) string {
	return fmt.Sprintf("%s%d", chromatic[num%12], octave+num/12)
}
