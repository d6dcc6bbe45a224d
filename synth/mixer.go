package synth

import (
	"math"
	"sync"

	"go-melodycards/debug"
	"go-melodycards/playback"
)

const (
	// DefaultSampleRate for live output
	DefaultSampleRate = 44100
	// envelopeSeconds is the attack and release ramp of every voice
	envelopeSeconds = 0.010
	// cutSeconds is how fast Silence fades sounding voices out
	cutSeconds = 0.002
)

// voice is one sine tone
type voice struct {
	freq   float64
	amp    float64
	start  int64 // sample index
	length int64 // samples
	cut    int64 // sample index Silence hit it, -1 if never
}

// Mixer sums sine voices into a mono stream. Its clock is the number of
// samples rendered so far, so triggers line up with what is actually heard.
type Mixer struct {
	rate   int
	volume float64
	ramp   int64 // envelope samples
	cutLen int64

	mu     sync.Mutex
	voices []*voice
	pos    int64
}

// NewMixer creates a mixer. Volume scales every voice.
func NewMixer(sampleRate int, volume float64) *Mixer {
	if sampleRate <= 0 {
		debug.Warn("synth", "sample rate %d invalid, using %d", sampleRate, DefaultSampleRate)
		sampleRate = DefaultSampleRate
	}
	if volume <= 0 || volume > 1 {
		volume = 1
	}
	return &Mixer{
		rate:   sampleRate,
		volume: volume,
		ramp:   int64(envelopeSeconds * float64(sampleRate)),
		cutLen: int64(math.Max(1, cutSeconds*float64(sampleRate))),
	}
}

func (m *Mixer) SampleRate() int { return m.rate }

// Now is the device clock in seconds
func (m *Mixer) Now() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(m.pos) / float64(m.rate)
}

// Trigger queues a tone. Tones whose start has passed begin immediately.
func (m *Mixer) Trigger(t playback.Trigger) {
	start := int64(math.Round(t.At * float64(m.rate)))
	length := int64(math.Round(t.Duration * float64(m.rate)))
	if length <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if start < m.pos {
		debug.Log("synth", "late trigger %s by %d samples", t.Pitch, m.pos-start)
		start = m.pos
	}
	m.voices = append(m.voices, &voice{
		freq:   t.Frequency,
		amp:    t.Amplitude,
		start:  start,
		length: length,
		cut:    -1,
	})
}

// Silence drops queued voices and fades sounding ones out at once
func (m *Mixer) Silence() {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.voices[:0]
	for _, v := range m.voices {
		if v.start >= m.pos {
			continue
		}
		if v.cut < 0 {
			v.cut = m.pos
		}
		kept = append(kept, v)
	}
	m.voices = kept
}

// Active is the number of queued or sounding voices
func (m *Mixer) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.voices)
}

// Render fills out with samples in [-1, 1] and advances the clock
func (m *Mixer) Render(out []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range out {
		out[i] = m.next()
	}
}

// Read implements io.Reader as signed 16-bit little-endian mono
func (m *Mixer) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(p) / 2
	for i := 0; i < n; i++ {
		v := int16(m.next() * 32767)
		p[2*i] = byte(v)
		p[2*i+1] = byte(v >> 8)
	}
	return n * 2, nil
}

// next renders one sample; caller holds mu
func (m *Mixer) next() float64 {
	var sum float64
	for idx := 0; idx < len(m.voices); idx++ {
		v := m.voices[idx]
		if m.pos < v.start {
			continue
		}
		val, done := m.sample(v)
		sum += val
		if done {
			m.voices = append(m.voices[:idx], m.voices[idx+1:]...)
			idx--
		}
	}
	m.pos++

	sum *= m.volume
	if sum > 1 {
		sum = 1
	} else if sum < -1 {
		sum = -1
	}
	return sum
}

func (m *Mixer) sample(v *voice) (float64, bool) {
	n := m.pos - v.start
	if n >= v.length {
		return 0, true
	}

	// notes shorter than two ramps share their length between attack and release
	ramp := m.ramp
	if 2*ramp > v.length {
		ramp = v.length / 2
	}
	env := 1.0
	if ramp > 0 {
		if n < ramp {
			env = float64(n) / float64(ramp)
		}
		if left := v.length - n; left < ramp {
			env = math.Min(env, float64(left)/float64(ramp))
		}
	}
	if v.cut >= 0 {
		k := m.pos - v.cut
		if k >= m.cutLen {
			return 0, true
		}
		env *= 1 - float64(k)/float64(m.cutLen)
	}

	phase := 2 * math.Pi * v.freq * float64(n) / float64(m.rate)
	return v.amp * env * math.Sin(phase), n == v.length-1
}
