package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/dermavision/pkg/journal"
)

var exportDirFlag string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the journal as a JSON file",
	Long: `Write the whole journal, in the order entries were saved, to
dermavision-journal_<date>.json in the given directory (default: current directory).
Nothing is written when the journal is empty.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, dbConn, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB(dbConn)

		artifact, err := journal.Export(repo.Entries(), time.Now())
		if err != nil {
			return err
		}
		if artifact == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Journal is empty, nothing to export.")
			return nil
		}

		path, err := artifact.WriteFile(exportDirFlag)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", repo.Len(), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDirFlag, "dir", ".", "Directory to write the export file into")
	rootCmd.AddCommand(exportCmd)
}
