package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/dermavision/pkg/journal"
)

var (
	jsonOutputFlag   bool
	includeImageFlag bool
	confirmClearFlag bool
)

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "Manage skin journal entries",
	Long:  `List, inspect, annotate, search and delete entries in the skin journal.`,
}

var listEntriesCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, dbConn, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB(dbConn)

		entries := journal.SortNewestFirst(repo.Entries())
		out := cmd.OutOrStdout()
		if jsonOutputFlag {
			return writeJSON(cmd, entriesForOutput(entries))
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "No entries found in the journal.")
			return nil
		}
		fmt.Fprintln(out, "Entries:")
		printEntryList(out, entries)
		return nil
	},
}

var getEntryCmd = &cobra.Command{
	Use:   "get [entry-id]",
	Short: "Get an entry by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseEntryID(args[0])
		if err != nil {
			return err
		}

		repo, dbConn, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB(dbConn)

		entry, ok := repo.Get(id)
		if !ok {
			return fmt.Errorf("entry not found: %d", id)
		}
		if jsonOutputFlag {
			return writeJSON(cmd, entriesForOutput([]journal.Entry{entry})[0])
		}
		printEntry(cmd.OutOrStdout(), entry)
		return nil
	},
}

var updateEntryCmd = &cobra.Command{
	Use:   "update [entry-id]",
	Short: "Update the title and/or notes of an entry",
	Long: `Update the title and/or notes of an entry. Only the flags you pass are changed;
--notes "" clears the notes. The title cannot be blank.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseEntryID(args[0])
		if err != nil {
			return err
		}

		var patch journal.EntryPatch
		if cmd.Flags().Changed("title") {
			title, _ := cmd.Flags().GetString("title")
			if strings.TrimSpace(title) == "" {
				return errors.New("entry title cannot be empty")
			}
			patch.Title = &title
		}
		if cmd.Flags().Changed("notes") {
			notes, _ := cmd.Flags().GetString("notes")
			patch.Notes = &notes
		}
		if patch.Title == nil && patch.Notes == nil {
			return errors.New("no update fields provided (use --title or --notes)")
		}

		repo, dbConn, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB(dbConn)

		if _, ok := repo.Get(id); !ok {
			return fmt.Errorf("entry not found: %d", id)
		}
		if err := repo.Update(cmd.Context(), id, patch); err != nil {
			return err
		}
		updated, _ := repo.Get(id)
		printEntry(cmd.OutOrStdout(), updated)
		return nil
	},
}

var deleteEntryCmd = &cobra.Command{
	Use:   "delete [entry-id]",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseEntryID(args[0])
		if err != nil {
			return err
		}

		repo, dbConn, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB(dbConn)

		if _, ok := repo.Get(id); !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "Entry %d not found, nothing to delete.\n", id)
			return nil
		}
		if err := repo.Remove(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Entry %d deleted successfully.\n", id)
		return nil
	},
}

var clearEntriesCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every entry in the journal",
	Long:  `Permanently delete every entry in the journal. Requires --yes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmClearFlag {
			return errors.New("refusing to clear the journal without --yes")
		}

		repo, dbConn, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB(dbConn)

		count := repo.Len()
		if err := repo.ClearAll(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Journal cleared, %d entries deleted.\n", count)
		return nil
	},
}

var searchEntriesCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find entries by title, notes or detected issue",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		repo, dbConn, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB(dbConn)

		matches := repo.Search(query)
		if jsonOutputFlag {
			return writeJSON(cmd, entriesForOutput(matches))
		}
		if len(matches) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No entries match %q.\n", query)
			return nil
		}
		printEntryList(cmd.OutOrStdout(), matches)
		return nil
	},
}

// entriesForOutput drops image data unless --image was given.
func entriesForOutput(entries []journal.Entry) []journal.Entry {
	out := make([]journal.Entry, len(entries))
	for i, e := range entries {
		if !includeImageFlag {
			e.ImageDataURL = ""
		}
		out[i] = e
	}
	return out
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	for _, c := range []*cobra.Command{listEntriesCmd, getEntryCmd, searchEntriesCmd} {
		c.Flags().BoolVar(&jsonOutputFlag, "json", false, "Print JSON instead of text")
		c.Flags().BoolVar(&includeImageFlag, "image", false, "Include base64 image data in JSON output")
	}
	updateEntryCmd.Flags().String("title", "", "New title for the entry")
	updateEntryCmd.Flags().String("notes", "", "New notes for the entry")
	clearEntriesCmd.Flags().BoolVar(&confirmClearFlag, "yes", false, "Confirm deleting every entry")

	entriesCmd.AddCommand(listEntriesCmd, getEntryCmd, updateEntryCmd, deleteEntryCmd, clearEntriesCmd, searchEntriesCmd)
	rootCmd.AddCommand(entriesCmd)
}
