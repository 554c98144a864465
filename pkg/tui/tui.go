package tui

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unowned-ai/dermavision/pkg/journal"
)

type editField int

const (
	editNone editField = iota
	editTitle
	editNotes
)

// Options tune the browser. Zero values are fine.
type Options struct {
	DBFile       string
	ExportDir    string
	DynamicWidth bool
	Now          func() time.Time
}

type model struct {
	repo    *journal.Repository
	entries []journal.Entry // newest first

	cursor     int
	selectedID int64

	columnFocus int // 0 = entries, 1 = entry details
	width       int // Current terminal width (for layout)
	height      int // Current terminal height

	status        string
	statusIsError bool

	dbFilename   string
	exportDir    string
	now          func() time.Time
	dynamicWidth bool

	bordersAndPaddingWidth int

	quitting bool

	editing    editField
	titleInput textinput.Model
	notesInput textarea.Model

	deleting         bool
	deleteConfirmIdx int // 0 = "Yes" selected, 1 = "No"
	clearing         bool
	clearConfirmIdx  int // 0 = "Yes" selected, 1 = "No"

	// Animation state
	marqueeOffset int
	marqueeTimer  int
}

// Initialize TUI model
func initModel(repo *journal.Repository, opts Options) model {
	title := textinput.New()
	title.Placeholder = journal.PlaceholderTitle
	title.CharLimit = 256

	notes := textarea.New()
	notes.Placeholder = "Notes about this analysis"
	notes.CharLimit = 4096
	notes.SetHeight(6)

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	exportDir := opts.ExportDir
	if exportDir == "" {
		exportDir = "."
	}

	return model{
		repo:    repo,
		entries: []journal.Entry{},

		dbFilename:   filepath.Base(opts.DBFile),
		exportDir:    exportDir,
		now:          now,
		dynamicWidth: opts.DynamicWidth,

		bordersAndPaddingWidth: 4,

		titleInput:       title,
		notesInput:       notes,
		deleteConfirmIdx: 1,
		clearConfirmIdx:  1,
	}
}

// Execute commands concurrently with no ordering guarantees during initialization
func (m model) Init() tea.Cmd {
	return tea.Batch(
		loadEntries(m.repo),
		tea.Tick(marqueeTickDuration, func(t time.Time) tea.Msg {
			return t
		}),
	)
}

func (m model) selected() (journal.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return journal.Entry{}, false
	}
	return m.entries[m.cursor], true
}

func (m *model) moveCursor(idx int) {
	m.cursor = idx
	if e, ok := m.selected(); ok {
		m.selectedID = e.ID
	}
}

// Keep the selection on the same entry across reloads when it still exists
func (m *model) restoreCursor() {
	for i, e := range m.entries {
		if e.ID == m.selectedID {
			m.cursor = i
			return
		}
	}
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if e, ok := m.selected(); ok {
		m.selectedID = e.ID
	} else {
		m.selectedID = 0
		m.columnFocus = 0
	}
}

func (m *model) setStatus(text string, isError bool) {
	m.status = text
	m.statusIsError = isError
}

// Processes events like window resize, errors, loaded data, and key presses
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Save the new window size in the model for responsive layout
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case error:
		m.setStatus(fmt.Sprintf("Error: %v", msg), true)
		return m, loadEntries(m.repo)

	case entriesMsg:
		m.entries = msg
		m.restoreCursor()
		return m, nil

	case statusMsg:
		m.setStatus(string(msg), false)
		return m, loadEntries(m.repo)

	case exportedMsg:
		m.setStatus("Exported to "+msg.path, false)
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.editing != editNone:
			return m.updateEditing(msg)
		case m.deleting:
			return m.updateDeleting(msg)
		case m.clearing:
			return m.updateClearing(msg)
		}
		return m.updateNavigation(msg)

	case time.Time:
		// Update marquee animation every x ticks (adjust for speed)
		m.marqueeTimer++
		if m.marqueeTimer >= 10 {
			m.marqueeTimer = 0
			m.marqueeOffset++
		}
		return m, tea.Tick(marqueeTickDuration, func(t time.Time) tea.Msg {
			return t
		})
	}

	return m, nil
}

func (m model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entry, ok := m.selected()
	if !ok {
		m.editing = editNone
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		m.editing = editNone
		m.titleInput.Blur()
		m.notesInput.Blur()
		return m, nil

	case tea.KeyEnter:
		if m.editing == editTitle {
			title := strings.TrimSpace(m.titleInput.Value())
			if title == "" {
				m.setStatus("Title cannot be empty", true)
				return m, nil
			}
			m.editing = editNone
			m.titleInput.Blur()
			return m, updateEntry(m.repo, entry.ID, journal.EntryPatch{Title: &title})
		}

	case tea.KeyCtrlS:
		if m.editing == editNotes {
			notes := m.notesInput.Value()
			m.editing = editNone
			m.notesInput.Blur()
			return m, updateEntry(m.repo, entry.ID, journal.EntryPatch{Notes: &notes})
		}
	}

	// Route character input to the field being edited
	var cmd tea.Cmd
	if m.editing == editTitle {
		m.titleInput, cmd = m.titleInput.Update(msg)
	} else {
		m.notesInput, cmd = m.notesInput.Update(msg)
	}
	return m, cmd
}

func (m model) updateDeleting(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.deleteConfirmIdx = 0

	case "down", "j":
		m.deleteConfirmIdx = 1

	case "enter":
		m.deleting = false
		entry, ok := m.selected()
		if m.deleteConfirmIdx == 0 && ok {
			return m, deleteEntry(m.repo, entry.ID)
		}

	case "esc":
		m.deleting = false
	}
	return m, nil
}

func (m model) updateClearing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.clearConfirmIdx = 0

	case "down", "j":
		m.clearConfirmIdx = 1

	case "enter":
		m.clearing = false
		if m.clearConfirmIdx == 0 {
			return m, clearJournal(m.repo)
		}

	case "esc":
		m.clearing = false
	}
	return m, nil
}

func (m model) updateNavigation(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		// Exit alt screen before quitting so the goodbye message displays
		return m, tea.Sequence(tea.ExitAltScreen, tea.Quit)

	case "up", "k":
		if m.cursor > 0 {
			m.moveCursor(m.cursor - 1)
		}

	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.moveCursor(m.cursor + 1)
		}

	case "right", "l", "enter":
		if len(m.entries) > 0 {
			m.columnFocus = 1
		}

	case "left", "h":
		m.columnFocus = 0

	case "e":
		if entry, ok := m.selected(); ok {
			m.titleInput.SetValue(entry.Title)
			m.titleInput.CursorEnd()
			m.titleInput.Focus()
			m.editing = editTitle
			m.status = ""
		}

	case "o":
		if entry, ok := m.selected(); ok {
			m.notesInput.SetValue(entry.Notes)
			m.notesInput.Focus()
			m.editing = editNotes
			m.status = ""
		}

	case "d":
		if len(m.entries) > 0 {
			m.deleteConfirmIdx = 1
			m.deleting = true
		}

	case "C":
		if len(m.entries) > 0 {
			m.clearConfirmIdx = 1
			m.clearing = true
		}

	case "x":
		return m, exportJournal(m.repo, m.exportDir, m.now)
	}
	return m, nil
}

func confirmOptions(yesSelected bool) string {
	yesOpt, noOpt := "Yes", "No"
	if yesSelected {
		yesOpt = dangerSelectedStyle.Render(" >" + yesOpt)
		noOpt = inactiveStyle.Render("  " + noOpt)
	} else {
		yesOpt = inactiveStyle.Render("  " + yesOpt)
		noOpt = selectedStyle.Render(" >" + noOpt)
	}
	return fmt.Sprintf("%s\n%s\n\n", yesOpt, noOpt)
}

func renderList(b *strings.Builder, label string, items []string) {
	b.WriteString(labelStyle.Render(label) + "\n")
	if len(items) == 0 {
		b.WriteString("  -\n")
		return
	}
	for _, item := range items {
		b.WriteString("  • " + item + "\n")
	}
}

// Render the analysis of an entry for the details pane
func renderEntry(b *strings.Builder, entry journal.Entry) {
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(labelStyle.Render("Title: ")+inactiveStyle.Render(entry.Title)) + "\n")
	date := entry.Date
	if t := entry.CreatedAt(); !t.IsZero() {
		date = t.Local().Format("Jan 2, 2006 15:04")
	}
	b.WriteString(labelStyle.Render("Date: ") + dateStyle.Render(date) + "\n\n")

	notes := entry.Notes
	if notes == "" {
		notes = "-"
	}
	b.WriteString(labelStyle.Render("Notes: ") + inactiveStyle.Render(notes) + "\n\n")

	if len(entry.Analysis) == 0 {
		b.WriteString(dateStyle.Render("No skin issues were detected.") + "\n")
		return
	}
	for _, issue := range entry.Analysis {
		b.WriteString(issueStyle.Render(issue.Issue) + "\n")
		if issue.Description != "" {
			b.WriteString(inactiveStyle.Render(issue.Description) + "\n")
		}
		renderList(b, "Food", issue.FoodRecommendations)
		renderList(b, "Medicine", issue.MedicineRecommendations)
		b.WriteString("\n")
	}
}

// Assembles the UI string for each frame
func (m model) View() string {
	if m.quitting {
		return "Closing the skin journal... All changes are saved.\n"
	}

	titleBar := titleStyle.Width(m.width).Render("DermaVision - skin analysis journal")

	leftWidth, rightWidth := m.dynamicColumnWidth()
	pad := m.bordersAndPaddingWidth

	// Update input widths to match right pane
	m.titleInput.Width = rightWidth - pad
	m.notesInput.SetWidth(rightWidth - pad)

	quarterHeight := (m.height - pad) / 4

	// Left column: entries list and info
	var entriesBuilder, infoBuilder strings.Builder
	entriesBuilder.WriteString(subtitleStyle.Width(leftWidth - pad).Render("  Entries"))
	entriesBuilder.WriteString("\n\n")

	if len(m.entries) == 0 {
		entriesBuilder.WriteString("No entries yet. Analyze a photo with\n'dermavision analyze --save'.\n")
	} else {
		for i, entry := range m.entries {
			isSelected := i == m.cursor
			pointer := generateLinePointer(isSelected && m.columnFocus == 0, 2)
			itemStyle := inactiveStyle
			availableWidth := leftWidth - len(pointer) - pad - 1

			var title string
			if isSelected {
				itemStyle = selectedStyle
				title = m.marqueeText(entry.Title, availableWidth)
			} else {
				title = truncate(entry.Title, availableWidth)
			}
			title = lipgloss.NewStyle().MaxWidth(availableWidth).Render(title)
			entriesBuilder.WriteString(pointer + itemStyle.Render(title) + "\n")
		}
	}

	databaseStatus := 0
	if m.dbFilename != "" && m.dbFilename != "." {
		databaseStatus = 1
	}
	infoBuilder.WriteString(fmt.Sprintf("Entries: %v\nDatabase file: %v\n",
		TextStatusColorize(strconv.Itoa(len(m.entries)), 1),
		TextStatusColorize(m.dbFilename, databaseStatus)))
	if m.status != "" {
		statusColor := 1
		if m.statusIsError {
			statusColor = 2
		}
		infoBuilder.WriteString("\n" + TextStatusColorize(m.status, statusColor) + "\n")
	}

	entriesPanel := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, true, true, false).
		BorderForeground(lipgloss.Color(colorGray)).
		Padding(0, 2).
		Width(leftWidth).Height(quarterHeight * 3).
		Render(entriesBuilder.String())
	infoPanel := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(lipgloss.Color(colorGray)).
		Padding(1, 2).
		Width(leftWidth).Height(quarterHeight).
		Render(infoBuilder.String())
	leftPanel := lipgloss.JoinVertical(lipgloss.Left, entriesPanel, infoPanel)

	// Right column: entry details, edit forms or confirmation prompts
	var rightBuilder strings.Builder
	subtitle := "Entry"
	switch {
	case m.editing == editTitle:
		subtitle = "Edit Title"
	case m.editing == editNotes:
		subtitle = "Edit Notes"
	case m.deleting:
		subtitle = "Delete Entry"
	case m.clearing:
		subtitle = "Clear Journal"
	}
	rightBuilder.WriteString(subtitleStyle.Width(rightWidth - pad).Render(subtitle))
	rightBuilder.WriteString("\n\n")

	entry, hasEntry := m.selected()
	switch {
	case m.editing == editTitle:
		rightBuilder.WriteString("Title: " + m.titleInput.View() + "\n\n")
		rightBuilder.WriteString("(enter to save, esc to cancel)")
	case m.editing == editNotes:
		rightBuilder.WriteString(m.notesInput.View() + "\n\n")
		rightBuilder.WriteString("(ctrl+s to save, esc to cancel)")
	case m.deleting && hasEntry:
		rightBuilder.WriteString("Title: " + textRedStyle.Render(entry.Title) + "\n\n")
		rightBuilder.WriteString(confirmOptions(m.deleteConfirmIdx == 0))
		rightBuilder.WriteString("(enter to confirm, esc to cancel, up/down to switch)")
	case m.clearing:
		rightBuilder.WriteString(textRedStyle.Render(fmt.Sprintf("Delete all %d entries? This cannot be undone.", len(m.entries))) + "\n\n")
		rightBuilder.WriteString(confirmOptions(m.clearConfirmIdx == 0))
		rightBuilder.WriteString("(enter to confirm, esc to cancel, up/down to switch)")
	case hasEntry:
		renderEntry(&rightBuilder, entry)
	default:
		rightBuilder.WriteString("Select an entry to view its analysis.")
	}

	panelHeightPadding := 3
	rightPanel := lipgloss.NewStyle().Padding(0, 2).
		Width(rightWidth).Height(m.height - panelHeightPadding).
		Render(rightBuilder.String())

	columns := lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)

	footerText := "\n↑/↓ to navigate • e edit title • o edit notes • d delete • C clear all • x export • q quit"
	footerBar := footerStyle.Width(m.width).Render(footerText)

	return titleBar + "\n\n" + columns + footerBar
}

// Create and start the Bubble Tea TUI
func ShowTUI(repo *journal.Repository, opts Options) error {
	p := tea.NewProgram(initModel(repo, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
