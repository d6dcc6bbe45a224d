package synth

import (
	"encoding/binary"
	"io"
	"math"
	"sync"

	"go-melodycards/debug"
	"go-melodycards/playback"
)

// Bounce renders triggers offline on a private mixer, from time zero to the
// end of the last tone. Nothing is shared with a live mixer.
func Bounce(triggers []playback.Trigger, sampleRate int, volume float64) []float64 {
	m := NewMixer(sampleRate, volume)
	end := 0.0
	for _, t := range triggers {
		m.Trigger(t)
		end = math.Max(end, t.End())
	}
	out := make([]float64, int(math.Ceil(end*float64(m.rate))))
	m.Render(out)
	return out
}

// WritePCM writes samples as signed 16-bit little-endian mono
func WritePCM(w io.Writer, samples []float64) error {
	buf := make([]int16, len(samples))
	for i, s := range samples {
		buf[i] = int16(s * 32767)
	}
	return binary.Write(w, binary.LittleEndian, buf)
}

// Silent is a device with a wall clock that drops every trigger. It stands
// in when no audio output is available.
type Silent struct {
	clock *playback.WallClock

	mu       sync.Mutex
	triggers int
}

func NewSilent() *Silent {
	return &Silent{clock: playback.NewWallClock()}
}

func (s *Silent) Now() float64 { return s.clock.Now() }

func (s *Silent) Trigger(t playback.Trigger) {
	s.mu.Lock()
	s.triggers++
	s.mu.Unlock()
	debug.LogEvery(32, "synth", "silent: dropped %s at %.3f", t.Pitch, t.At)
}

func (s *Silent) Silence() {}

// Dropped counts triggers received
func (s *Silent) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.triggers
}
