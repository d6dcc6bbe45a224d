package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"go-melodycards/config"
)

var writeConfig bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective config, or write it with --write",
	RunE: func(cmd *cobra.Command, args []string) error {
		if writeConfig {
			path := configPath
			if path == "" {
				p, err := config.ConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			if err := cfg.SaveFile(path); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		}
		return yaml.NewEncoder(os.Stdout).Encode(cfg)
	},
}

func init() {
	configCmd.Flags().BoolVar(&writeConfig, "write", false, "save to the config file")
	rootCmd.AddCommand(configCmd)
}
