package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unowned-ai/dermavision/pkg/analysis"
	"github.com/unowned-ai/dermavision/pkg/journal"
	"github.com/unowned-ai/dermavision/pkg/session"
)

var (
	saveAnalysisFlag bool
	analyzeTitleFlag string
	analyzeNotesFlag string
	analyzeJSONFlag  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [image]",
	Short: "Analyze a skin photo",
	Long: `Send a photo of your skin to Gemini and print the detected issues with food and
over-the-counter recommendations. With --save the result is added to the journal,
optionally with a custom --title and --notes.

The API key is read from DERMAVISION_API_KEY (or API_KEY / GEMINI_API_KEY).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !saveAnalysisFlag && (analyzeTitleFlag != "" || analyzeNotesFlag != "") {
			return errors.New("--title and --notes only apply together with --save")
		}

		img, err := analysis.LoadImage(args[0])
		if err != nil {
			return err
		}

		repo, dbConn, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB(dbConn)

		sess := session.New(repo, newAnalyzer(), logger)
		sess.SetImage(img)

		if !analyzeJSONFlag {
			fmt.Fprintf(cmd.ErrOrStderr(), "Analyzing %s with %s...\n", args[0], cfg.Model)
		}
		result, err := sess.Analyze(cmd.Context())
		if err != nil {
			var cfgErr *analysis.ConfigurationError
			if errors.As(err, &cfgErr) {
				return fmt.Errorf("%w; set it in the environment or in config.yaml", err)
			}
			return fmt.Errorf("%s: %w", analysis.UserMessage, err)
		}

		var saved *journal.Entry
		if saveAnalysisFlag {
			entry, err := sess.Save(cmd.Context())
			if err != nil {
				return err
			}

			var patch journal.EntryPatch
			if strings.TrimSpace(analyzeTitleFlag) != "" {
				patch.Title = &analyzeTitleFlag
			}
			if analyzeNotesFlag != "" {
				patch.Notes = &analyzeNotesFlag
			}
			if patch.Title != nil || patch.Notes != nil {
				if err := repo.Update(cmd.Context(), entry.ID, patch); err != nil {
					return fmt.Errorf("entry %d saved but annotating it failed: %w", entry.ID, err)
				}
				entry, _ = repo.Get(entry.ID)
			}
			logger.Debug("Saved analysis", zap.Int64("id", entry.ID))
			saved = &entry
		}

		if analyzeJSONFlag {
			out := struct {
				Analysis journal.SkinAnalysis `json:"analysis"`
				Entry    *journal.Entry       `json:"entry,omitempty"`
			}{Analysis: result}
			if saved != nil {
				e := entriesForOutput([]journal.Entry{*saved})[0]
				out.Entry = &e
			}
			return writeJSON(cmd, out)
		}

		printAnalysis(cmd.OutOrStdout(), result)
		if saved != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "\nSaved to journal as entry %d (%q).\n", saved.ID, saved.Title)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&saveAnalysisFlag, "save", false, "Save the analysis to the journal")
	analyzeCmd.Flags().StringVar(&analyzeTitleFlag, "title", "", "Title for the saved entry (default: first detected issue)")
	analyzeCmd.Flags().StringVar(&analyzeNotesFlag, "notes", "", "Notes for the saved entry")
	analyzeCmd.Flags().BoolVar(&analyzeJSONFlag, "json", false, "Print JSON instead of text")
	rootCmd.AddCommand(analyzeCmd)
}
