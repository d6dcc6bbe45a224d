package melody

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-melodycards/card"
	"go-melodycards/staff"
)

func TestFrequency(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(440.0, Frequency("A4"))
	assert.InDelta(261.63, Frequency("C4"), 0.01)
	assert.InDelta(880.0, Frequency("A5"), 1e-9)
	assert.InDelta(277.18, Frequency("C#4"), 0.01)
	assert.Equal(440.0, Frequency("Z9"))
	assert.Equal(440.0, Frequency(""))
	assert.Equal(440.0, Frequency("c4"))
	assert.Equal(440.0, Frequency("C4x"))
}

func TestMIDIKey(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(uint8(60), MIDIKey("C4"))
	assert.Equal(uint8(69), MIDIKey("A4"))
	assert.Equal(uint8(61), MIDIKey("C#4"))
	assert.Equal(uint8(48), MIDIKey("C3"))
	assert.Equal(uint8(69), MIDIKey("H2"))
}

func TestPitchClass(t *testing.T) {
	assert.Equal(t, 0, PitchClass("C5"))
	assert.Equal(t, 11, PitchClass("B3"))
	assert.Equal(t, -1, PitchClass("nope"))
}

func fused(start int, r, p *card.Card) staff.Placement {
	return staff.Placement{Start: start, Length: r.Length(), Shape: staff.Fused{Rhythm: r, Pitch: p}}
}

func single(start int, c *card.Card) staff.Placement {
	return staff.Placement{Start: start, Length: c.Length(), Shape: staff.Single{Card: c}}
}

func TestFusionRepeatsLastPitch(t *testing.T) {
	r := card.NewRhythm(1, 8, 8, 4)
	p := card.NewPitch(2, "C4", "E4")

	got := Compile([]staff.Placement{fused(0, r, p)}, 1)

	assert.Equal(t, []Event{
		{Pitch: "C4", Start: 0, Duration: 8},
		{Pitch: "E4", Start: 8, Duration: 8},
		{Pitch: "E4", Start: 16, Duration: 4},
	}, got)
}

func TestFusionDropsSurplusPitches(t *testing.T) {
	r := card.NewRhythm(1, 4, 4)
	p := card.NewPitch(2, "C4", "D4", "E4", "F4")

	got := Compile([]staff.Placement{fused(16, r, p)}, 1)

	assert.Equal(t, []Event{
		{Pitch: "C4", Start: 16, Duration: 4},
		{Pitch: "D4", Start: 20, Duration: 4},
	}, got)
}

func TestSinglePitchOneUnitPerNote(t *testing.T) {
	p := card.NewPitch(1, "C4", "E4", "G4", "C5")

	got := Compile([]staff.Placement{single(5, p)}, 1)

	require.Len(t, got, 4)
	for i, e := range got {
		assert.Equal(t, 5+i, e.Start)
		assert.Equal(t, 1, e.Duration)
		assert.Equal(t, p.Pitches[i], e.Pitch)
	}
}

func TestSinglePitchWithTwoUnits(t *testing.T) {
	p := card.NewPitch(1, "C4", "E4")
	got := Compile([]staff.Placement{single(0, p)}, 2)
	assert.Equal(t, []Event{
		{Pitch: "C4", Start: 0, Duration: 2},
		{Pitch: "E4", Start: 2, Duration: 2},
	}, got)
}

func TestRhythmAloneIsSilent(t *testing.T) {
	got := Compile([]staff.Placement{single(0, card.NewRhythm(1, 8, 8))}, 1)
	assert.Empty(t, got)
}

func TestCompileSortsStably(t *testing.T) {
	late := card.NewPitch(1, "G4")
	early := card.NewPitch(2, "C4", "D4")
	tie := card.NewPitch(3, "A4")

	got := Compile([]staff.Placement{
		single(10, late),
		single(0, early),
		single(10, tie),
	}, 1)

	pitches := make([]string, len(got))
	for i, e := range got {
		pitches[i] = e.Pitch
	}
	assert.Equal(t, []string{"C4", "D4", "G4", "A4"}, pitches)
}

func TestRange(t *testing.T) {
	first, last, ok := Range([]Event{
		{Pitch: "C4", Start: 4, Duration: 8},
		{Pitch: "D4", Start: 2, Duration: 1},
	})
	assert.True(t, ok)
	assert.Equal(t, 2, first)
	assert.Equal(t, 12, last)

	_, _, ok = Range(nil)
	assert.False(t, ok)
}

func TestCompileStaffAndCompleted(t *testing.T) {
	s, err := staff.New(staff.DefaultOptions())
	require.NoError(t, err)

	r := card.NewRhythm(1, 8, 8)
	p := card.NewPitch(2, "C4", "E4")
	extra := card.NewPitch(3, "G4")
	_, err = s.Place(r, 0)
	require.NoError(t, err)
	_, err = s.Place(p, 0)
	require.NoError(t, err)
	_, err = s.Place(extra, 40)
	require.NoError(t, err)
	s.ScanCompletions()

	assert.Len(t, CompileStaff(s), 3)
	assert.Equal(t, []Event{
		{Pitch: "C4", Start: 0, Duration: 8},
		{Pitch: "E4", Start: 8, Duration: 8},
	}, CompileCompleted(s))
}

func TestPreview(t *testing.T) {
	r := card.NewRhythm(1, 4, 8)
	assert.Equal(t, []Event{
		{Pitch: "C5", Start: 0, Duration: 4},
		{Pitch: "C5", Start: 4, Duration: 8},
	}, Preview(r, 1, "C5"))

	p := card.NewPitch(2, "D4")
	assert.Equal(t, []Event{{Pitch: "D4", Start: 0, Duration: 1}}, Preview(p, 1, "C5"))
}
