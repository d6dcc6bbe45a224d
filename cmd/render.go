package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/spf13/cobra"

	"go-melodycards/library"
	"go-melodycards/melody"
	"go-melodycards/midi"
	"go-melodycards/playback"
	"go-melodycards/synth"
)

var (
	renderOut   string
	renderLoops int
	renderPCM   bool
)

var renderCmd = &cobra.Command{
	Use:   "render [melody.json]",
	Short: "Render a saved melody to a MIDI file or raw audio",
	Long: `Render reads a melody saved from the API (the body of GET /state, or
just its "melody" array) and writes a Standard MIDI File. With --pcm it
writes signed 16-bit little-endian mono samples at the configured rate.
Use "-" to read from stdin. A name listed by "saves" is looked up in the
melody library, and with no argument the newest save is rendered.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		events, err := readMelody(path)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return fault.New("empty melody", ftag.With(ftag.InvalidArgument),
				fmsg.WithDesc("empty melody", "The melody has no notes to render."))
		}

		var buf bytes.Buffer
		if renderPCM {
			capacity := cfg.MaxMeasures * cfg.TimeSignature.EighthNotesPerMeasure()
			triggers, err := playback.Render(events, cfg.Tempo, renderLoops, playback.LoopLimit(capacity, cfg.Tempo))
			if err != nil {
				return err
			}
			for i := range triggers {
				triggers[i].Amplitude = cfg.Audio.Volume
			}
			samples := synth.Bounce(triggers, cfg.Audio.SampleRate, 1)
			if err := synth.WritePCM(&buf, samples); err != nil {
				return fault.Wrap(err, fmsg.With("encode samples"))
			}
		} else {
			err := midi.WriteSMF(&buf, events, midi.Export{
				Tempo:         cfg.Tempo,
				TimeSignature: cfg.TimeSignature,
				Loops:         renderLoops,
			})
			if err != nil {
				return err
			}
		}

		if err := os.WriteFile(renderOut, buf.Bytes(), 0644); err != nil {
			return fault.Wrap(err, fmsg.With(fmt.Sprintf("write %s", renderOut)))
		}
		fmt.Printf("wrote %s (%d notes, %d loops)\n", renderOut, len(events), max(renderLoops, 1))
		return nil
	},
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderOut, "out", "o", "melody.mid", "output file")
	f.IntVar(&renderLoops, "loops", 1, "passes over the melody")
	f.BoolVar(&renderPCM, "pcm", false, "write raw 16-bit PCM instead of MIDI")
	rootCmd.AddCommand(renderCmd)
}

// readMelody accepts a bare event array or any object with a melody field.
// Paths that don't exist fall back to the melody library.
func readMelody(path string) ([]melody.Event, error) {
	var data []byte
	var err error
	switch {
	case path == "-":
		data, err = io.ReadAll(os.Stdin)
	case path == "" || !fileExists(path):
		return readSaved(path)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With(fmt.Sprintf("read %s", path)))
	}
	return parseMelody(data)
}

func parseMelody(data []byte) ([]melody.Event, error) {
	var events []melody.Event
	if err := json.Unmarshal(data, &events); err == nil {
		return events, nil
	}
	var wrapped struct {
		Melody []melody.Event `json:"melody"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fault.Wrap(err,
			ftag.With(ftag.InvalidArgument),
			fmsg.WithDesc("parse melody", "The file is not a melody or game state."),
		)
	}
	return wrapped.Melody, nil
}

func readSaved(name string) ([]melody.Event, error) {
	lib, err := library.Open(libraryDir)
	if err != nil {
		return nil, err
	}
	m, err := lib.Load(name)
	if err != nil {
		return nil, err
	}
	if m.Tempo > 0 {
		cfg.Tempo = m.Tempo
	}
	if m.TimeSignature.Valid() {
		cfg.TimeSignature = m.TimeSignature
	}
	return m.Melody, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
