package card

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLength(t *testing.T) {
	assert := assert.New(t)

	r := NewRhythm(1, 8, 8, 4)
	assert.Equal(20, r.Length())
	assert.Equal(20, r.LengthWith(2))

	p := NewPitch(2, "C4", "E4", "G4")
	assert.Equal(3, p.Length())
	assert.Equal(6, p.LengthWith(2))
}

func TestStatusTransitions(t *testing.T) {
	assert := assert.New(t)
	c := NewPitch(1, "C4")

	assert.Equal(Unplaced, c.Status())
	c.SetWaiting()
	assert.True(c.IsWaiting())
	c.ClearWaiting()
	assert.Equal(Unplaced, c.Status())

	c.SetWaiting()
	c.Lock()
	assert.True(c.IsLocked())
	assert.False(c.IsWaiting())

	// waiting never downgrades a lock
	c.SetWaiting()
	c.ClearWaiting()
	assert.True(c.IsLocked())

	c.Reset()
	assert.Equal(Unplaced, c.Status())
}

func TestPatternsAreCopied(t *testing.T) {
	src := []int{8, 8, 4}
	c := NewRhythm(1, src...)
	src[0] = 1
	assert.Equal(t, []int{8, 8, 4}, c.Rhythm)
}

func TestKindComplement(t *testing.T) {
	assert.Equal(t, Pitch, Rhythm.Complement())
	assert.Equal(t, Rhythm, Pitch.Complement())
}

var noteRe = regexp.MustCompile(`^[A-G]#?[3-6]$`)

func TestGeneratorDealsNonEmptyPatternsWithMonotonicIDs(t *testing.T) {
	assert := assert.New(t)
	g := NewGenerator(42)

	last := ID(-1)
	for i := 0; i < 200; i++ {
		c := g.Deal(Kind(i % 2))
		assert.Greater(c.ID, last)
		last = c.ID

		assert.Greater(c.Elements(), 0)
		if c.Kind == Rhythm {
			for _, d := range c.Rhythm {
				assert.Greater(d, 0)
			}
			assert.Contains(rhythmPatterns, c.Rhythm)
		} else {
			for _, n := range c.Pitches {
				assert.Regexp(noteRe, n)
			}
		}
	}
}

func TestGeneratorIsDeterministicPerSeed(t *testing.T) {
	a, b := NewGenerator(7), NewGenerator(7)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Pitch().Pitches, b.Pitch().Pitches)
	}
}

func TestNoteFromNumber(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("D#4", noteFromNumber(3, 4))
	assert.Equal("C5", noteFromNumber(12, 4))
	assert.Equal("D5", noteFromNumber(14, 4))
}
