package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go-melodycards/debug"
	"go-melodycards/game"
	"go-melodycards/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the game as a JSON API",
	Long: `Serve the game over HTTP for a browser front-end. Notes sound on this
machine through the configured output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			cfg.HTTP.Addr = serveAddr
		}
		if !debugLog {
			debug.EnableWriter(os.Stderr)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		device, closeDevice := openDevice(cfg)
		defer closeDevice()

		g, err := game.New(game.OptionsFromConfig(cfg), device, nil, nil)
		if err != nil {
			return err
		}
		go g.Run(ctx, refillEvery)

		srv := server.New(g, server.Options{
			Origins:       cfg.HTTP.Origins,
			TimeSignature: cfg.TimeSignature,
		})
		return srv.ListenAndServe(ctx, cfg.HTTP.Addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}
