package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unowned-ai/dermavision/pkg/journal"
)

// entriesMsg carries the journal, newest first.
type entriesMsg []journal.Entry

// statusMsg reports a finished mutation; the list is reloaded after it.
type statusMsg string

type exportedMsg struct {
	path string
}

// List entries from the repository and return tea data
func loadEntries(repo *journal.Repository) tea.Cmd {
	return func() tea.Msg {
		return entriesMsg(journal.SortNewestFirst(repo.Entries()))
	}
}

func updateEntry(repo *journal.Repository, id int64, patch journal.EntryPatch) tea.Cmd {
	return func() tea.Msg {
		if err := repo.Update(context.Background(), id, patch); err != nil {
			return err
		}
		return statusMsg("Entry updated.")
	}
}

func deleteEntry(repo *journal.Repository, id int64) tea.Cmd {
	return func() tea.Msg {
		if err := repo.Remove(context.Background(), id); err != nil {
			return err
		}
		return statusMsg("Entry deleted.")
	}
}

func clearJournal(repo *journal.Repository) tea.Cmd {
	return func() tea.Msg {
		if err := repo.ClearAll(context.Background()); err != nil {
			return err
		}
		return statusMsg("Journal cleared.")
	}
}

// Write the export file into dir. An empty journal exports nothing.
func exportJournal(repo *journal.Repository, dir string, now func() time.Time) tea.Cmd {
	return func() tea.Msg {
		artifact, err := journal.Export(repo.Entries(), now())
		if err != nil {
			return err
		}
		if artifact == nil {
			return statusMsg("Journal is empty, nothing to export.")
		}
		path, err := artifact.WriteFile(dir)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		return exportedMsg{path: path}
	}
}
