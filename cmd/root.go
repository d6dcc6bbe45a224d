package cmd

import (
	"github.com/spf13/cobra"

	"go-melodycards/config"
	"go-melodycards/debug"
)

var (
	configPath string
	debugLog   bool
	logLevel   string
	tempo      float64
	seed       int64
	output     string
	libraryDir string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "melodycards",
	Short: "Build melodies from rhythm and pitch cards",
	Long: `Melody cards: drop rhythm and pitch cards on a staff, fuse them into
phrases, and fill measures to hear your melody loop. Runs in the terminal
by default; "serve" exposes the same game over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd.Context())
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&configPath, "config", "c", "", "config file (default ~/.config/go-melodycards/config.yaml)")
	f.BoolVar(&debugLog, "debug", false, "write a debug log")
	f.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	f.Float64Var(&tempo, "tempo", 0, "override tempo in BPM")
	f.Int64Var(&seed, "seed", 0, "card deal seed, 0 for random")
	f.StringVar(&output, "output", "", "note output: synth, midi or none")
	f.StringVar(&libraryDir, "library", "", "saved melody dir (default ~/.config/go-melodycards/melodies)")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func loadConfig(cmd *cobra.Command) error {
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("tempo") {
		cfg.Tempo = tempo
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("output") {
		cfg.Audio.Output = config.OutputType(output)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	cfg.Validate()

	if debugLog {
		if err := debug.Enable(); err != nil {
			return err
		}
	}
	if cfg.LogLevel != "" {
		debug.SetLevel(cfg.LogLevel)
	}
	return nil
}
