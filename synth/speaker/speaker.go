// Package speaker streams a synth.Mixer to the system audio output
package speaker

import (
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/ebitengine/oto/v3"

	"go-melodycards/debug"
	"go-melodycards/synth"
)

// bufferTime keeps the mixer clock close to what is audible
const bufferTime = 40 * time.Millisecond

type Speaker struct {
	ctx    *oto.Context
	player *oto.Player
}

// Open starts pulling samples from m. Only one audio context may exist per
// process.
func Open(m *synth.Mixer) (*Speaker, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   m.SampleRate(),
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   bufferTime,
	})
	if err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("open audio context", "Audio output is not available."))
	}
	<-ready

	p := ctx.NewPlayer(m)
	// 16-bit mono
	p.SetBufferSize(int(bufferTime.Seconds()*float64(m.SampleRate())) * 2)
	p.Play()
	debug.Info("synth", "audio output open at %d Hz", m.SampleRate())
	return &Speaker{ctx: ctx, player: p}, nil
}

func (s *Speaker) Close() error {
	if err := s.player.Close(); err != nil {
		return fault.Wrap(err, fmsg.With("close audio player"))
	}
	return s.ctx.Suspend()
}
