package melody

import (
	"math"
	"regexp"
	"strconv"

	"go-melodycards/debug"
)

// A4 is the tuning reference
const A4 = 440.0

var notePattern = regexp.MustCompile(`^([A-G])(#?)(\d+)$`)

var semitones = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// PitchClassNames indexes sharps-only names by semitone
var PitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// ParseNote splits a name like "C#4" into semitone (0-11, may be 12 for B#)
// and octave
func ParseNote(note string) (semitone, octave int, ok bool) {
	m := notePattern.FindStringSubmatch(note)
	if m == nil {
		return 0, 0, false
	}
	octave, err := strconv.Atoi(m[3])
	if err != nil {
		return 0, 0, false
	}
	semitone = semitones[m[1][0]]
	if m[2] == "#" {
		semitone++
	}
	return semitone, octave, true
}

// Frequency maps a note name to equal-tempered Hz. Malformed names fall back
// to A4.
func Frequency(note string) float64 {
	semi, oct, ok := ParseNote(note)
	if !ok {
		debug.Warn("melody", "malformed note %q, using A4", note)
		return A4
	}
	return A4 * math.Pow(2, float64(12*(oct-4)+semi-9)/12)
}

// MIDIKey maps a note name to its MIDI key number (C4 = 60). Malformed names
// map to A4 (69).
func MIDIKey(note string) uint8 {
	semi, oct, ok := ParseNote(note)
	if !ok {
		debug.Warn("melody", "malformed note %q, using A4", note)
		return 69
	}
	key := 12*(oct+1) + semi
	if key < 0 {
		key = 0
	}
	if key > 127 {
		key = 127
	}
	return uint8(key)
}

// PitchClass returns the semitone 0-11 of a note, or -1 if malformed
func PitchClass(note string) int {
	semi, _, ok := ParseNote(note)
	if !ok {
		return -1
	}
	return semi % 12
}
