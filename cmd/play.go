package cmd

import (
	"context"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"go-melodycards/debug"
	"go-melodycards/game"
	"go-melodycards/library"
	"go-melodycards/theme"
	"go-melodycards/tui"
)

// refillEvery is how often the pool is topped up outside of commands
const refillEvery = 2 * time.Second

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
}

func runPlay(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	palette := theme.DefaultPalette()
	if cfg.Palette != "" {
		p, err := theme.LoadGPL(cfg.Palette)
		if err != nil {
			debug.Error("tui", err, "palette %s, using default", cfg.Palette)
		} else {
			palette = p
		}
	}
	th := theme.New(palette)

	device, closeDevice := openDevice(cfg)
	defer closeDevice()

	g, err := game.New(game.OptionsFromConfig(cfg), device, nil, nil)
	if err != nil {
		return err
	}
	go g.Run(ctx, refillEvery)

	m := tui.NewModel(g, th)
	m.Meter = cfg.TimeSignature
	if lib, err := library.Open(libraryDir); err != nil {
		debug.Error("tui", err, "melody library unavailable")
	} else {
		m.Library = lib
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fault.Wrap(err, fmsg.With("terminal ui"))
	}
	return nil
}
