package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-melodycards/melody"
	"go-melodycards/midi"
	"go-melodycards/playback"
)

var testPort bool

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI output ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer gomidi.CloseDriver()

		fmt.Println("=== MIDI Output Ports ===")
		fmt.Printf("(waiting up to %s...)\n", midi.PortTimeout)
		names, err := midi.OutPorts(midi.PortTimeout)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("  none")
		}
		for i, n := range names {
			fmt.Printf("  %d: %s\n", i, n)
		}

		if testPort {
			return scaleTest()
		}
		return nil
	},
}

func init() {
	portsCmd.Flags().BoolVar(&testPort, "test", false, "play a C major scale on the configured port")
	rootCmd.AddCommand(portsCmd)
}

// scaleTest sends a short scale through the configured port
func scaleTest() error {
	out, err := midi.OpenOutput(cfg.Audio.Port, playback.NewWallClock(), playback.RealTimers{})
	if err != nil {
		return err
	}
	defer out.Close()

	var events []melody.Event
	for i, p := range []string{"C4", "D4", "E4", "F4", "G4", "A4", "B4", "C5"} {
		events = append(events, melody.Event{Pitch: p, Start: i, Duration: 1})
	}
	fmt.Printf("\nplaying scale on %s\n", out.Name())

	start := out.Now() + playback.Latency
	triggers := playback.Schedule(events, cfg.Tempo, start)
	for _, t := range triggers {
		out.Trigger(t)
	}
	last := triggers[len(triggers)-1].End() - out.Now()
	time.Sleep(time.Duration(last*float64(time.Second)) + 100*time.Millisecond)
	return nil
}
