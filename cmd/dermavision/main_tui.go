//go:build tui

package main

import (
	"github.com/spf13/cobra"

	"github.com/unowned-ai/dermavision/pkg/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Show terminal UI",
	Long:  `Browse, annotate and export the skin journal in an interactive terminal UI.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbFile, err := resolveDBPath()
		if err != nil {
			return err
		}
		repo, dbConn, err := openRepositoryAt(cmd.Context(), dbFile)
		if err != nil {
			return err
		}
		defer closeDB(dbConn)

		return tui.ShowTUI(repo, tui.Options{DBFile: dbFile, ExportDir: ".", DynamicWidth: true})
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
