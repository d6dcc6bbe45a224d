package playback

import "time"

// Clock is a monotonic clock in seconds
type Clock interface {
	Now() float64
}

// Trigger is one tone at an absolute device time
type Trigger struct {
	Pitch     string
	Key       uint8 // MIDI key
	Frequency float64
	At        float64 // device seconds
	Duration  float64 // seconds
	Amplitude float64 // 0-1
}

// End is the device time the tone stops
func (t Trigger) End() float64 { return t.At + t.Duration }

// Device is anything that can sound triggers against its own clock.
// Silence must drop every queued trigger and cut sounding tones at once.
type Device interface {
	Clock
	Trigger(t Trigger)
	Silence()
}

// Timer is a pending callback
type Timer interface {
	Stop() bool
}

// Timers creates callbacks that fire after a delay
type Timers interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealTimers uses time.AfterFunc
type RealTimers struct{}

func (RealTimers) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// WallClock adapts time.Now to a Clock, counting from creation
type WallClock struct {
	start time.Time
}

func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

func (c *WallClock) Now() float64 {
	return time.Since(c.start).Seconds()
}
