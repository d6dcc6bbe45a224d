package cmd

import (
	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"go-melodycards/config"
	"go-melodycards/debug"
	"go-melodycards/midi"
	"go-melodycards/playback"
	"go-melodycards/synth"
	"go-melodycards/synth/speaker"
)

// openDevice opens the configured note output. Failures fall back to a
// silent device so the game stays playable.
func openDevice(c *config.Config) (playback.Device, func()) {
	switch c.Audio.Output {
	case config.OutputSynth:
		mixer := synth.NewMixer(c.Audio.SampleRate, 1)
		spk, err := speaker.Open(mixer)
		if err != nil {
			debug.Error("audio", err, "no audio output, continuing silently")
			break
		}
		return mixer, func() {
			mixer.Silence()
			if err := spk.Close(); err != nil {
				debug.Error("audio", err, "close speaker")
			}
		}

	case config.OutputMIDI:
		out, err := midi.OpenOutput(c.Audio.Port, playback.NewWallClock(), playback.RealTimers{})
		if err != nil {
			debug.Error("audio", err, "no midi output, continuing silently")
			gomidi.CloseDriver()
			break
		}
		return out, func() {
			if err := out.Close(); err != nil {
				debug.Error("audio", err, "close midi output")
			}
			gomidi.CloseDriver()
		}
	}

	debug.Warn("audio", "output %q: notes will not sound", c.Audio.Output)
	return synth.NewSilent(), func() {}
}
