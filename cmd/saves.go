package cmd

import (
	"fmt"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/ftag"
	"github.com/spf13/cobra"

	"go-melodycards/library"
)

var (
	renameSave string
	deleteSave string
)

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "List saved melodies, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := library.Open(libraryDir)
		if err != nil {
			return err
		}

		if deleteSave != "" {
			if err := lib.Delete(deleteSave); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", deleteSave)
			return nil
		}
		if renameSave != "" {
			if len(args) != 1 {
				return fault.New("--rename needs the new name as an argument", ftag.With(ftag.InvalidArgument))
			}
			name, err := lib.Rename(renameSave, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("renamed to %s\n", name)
			return nil
		}

		saves, err := lib.List()
		if err != nil {
			return err
		}
		fmt.Printf("=== %s ===\n", lib.Dir())
		if len(saves) == 0 {
			fmt.Println("  none")
		}
		for _, s := range saves {
			name := s.Name
			if name == "" {
				name = "(unnamed)"
			}
			fmt.Printf("  %s  %-20s %s\n", s.Timestamp.Format("2006-01-02 15:04"), name, s.Filename)
		}
		return nil
	},
}

func init() {
	f := savesCmd.Flags()
	f.StringVar(&renameSave, "rename", "", "save file to rename; the new name is the argument")
	f.StringVar(&deleteSave, "delete", "", "save file to delete")
	rootCmd.AddCommand(savesCmd)
}
