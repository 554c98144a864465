package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/unowned-ai/dermavision/pkg/analysis"
	pkgdb "github.com/unowned-ai/dermavision/pkg/db"
	"github.com/unowned-ai/dermavision/pkg/journal"
	"github.com/unowned-ai/dermavision/pkg/kv"
	"github.com/unowned-ai/dermavision/pkg/utils"
)

// resolveDBPath turns the configured database path into the absolute path that gets opened.
func resolveDBPath() (string, error) {
	return utils.ResolveAndEnsureDBPath(cfg.DBPath)
}

// openRepository opens (and upgrades) the database and loads the journal,
// running the one-time legacy migration if needed. Close the returned DB when done.
func openRepository(ctx context.Context) (*journal.Repository, *sql.DB, error) {
	path, err := resolveDBPath()
	if err != nil {
		return nil, nil, err
	}
	return openRepositoryAt(ctx, path)
}

func openRepositoryAt(ctx context.Context, path string) (*journal.Repository, *sql.DB, error) {
	dbConn, err := pkgdb.Open(path, cfg.WAL, cfg.Sync, logger)
	if err != nil {
		return nil, nil, err
	}

	repo := journal.Open(ctx, journal.NewCodec(kv.NewSQLiteStore(dbConn)), journal.WithLogger(logger))
	return repo, dbConn, nil
}

func closeDB(dbConn *sql.DB) {
	if err := pkgdb.Close(dbConn, logger); err != nil {
		logger.Sugar().Warnf("Failed to close database: %v", err)
	}
}

// newAnalyzer builds the analyzer used by analyze and mcp. Tests replace it.
var newAnalyzer = func() analysis.Analyzer {
	return analysis.New(analysis.Config{APIKey: cfg.APIKey, Model: cfg.Model}, analysis.WithLogger(logger))
}

func parseEntryID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid entry ID %q: must be a number", raw)
	}
	return id, nil
}

// formatDate renders an entry date in local time, or as stored if it cannot be parsed.
func formatDate(entry journal.Entry) string {
	t := entry.CreatedAt()
	if t.IsZero() {
		return entry.Date
	}
	return t.Local().Format(time.RFC3339)
}

func printAnalysis(out io.Writer, result journal.SkinAnalysis) {
	if len(result) == 0 {
		fmt.Fprintln(out, "No skin issues were detected. Your skin looks healthy!")
		return
	}
	for i, issue := range result {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%d. %s\n", i+1, issue.Issue)
		if issue.Description != "" {
			fmt.Fprintf(out, "   %s\n", issue.Description)
		}
		fmt.Fprintf(out, "   Food:     %s\n", formatList(issue.FoodRecommendations))
		fmt.Fprintf(out, "   Medicine: %s\n", formatList(issue.MedicineRecommendations))
	}
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func printEntry(out io.Writer, entry journal.Entry) {
	fmt.Fprintln(out, "Entry Details:")
	fmt.Fprintf(out, "ID:      %d\n", entry.ID)
	fmt.Fprintf(out, "Title:   %s\n", entry.Title)
	fmt.Fprintf(out, "Date:    %s\n", formatDate(entry))
	fmt.Fprintf(out, "Image:   %s\n", imageSummary(entry.ImageDataURL))
	fmt.Fprintln(out, "\nNotes:")
	fmt.Fprintln(out, "------------------------------------------------------------")
	fmt.Fprintln(out, entry.Notes)
	fmt.Fprintln(out, "------------------------------------------------------------")
	fmt.Fprintln(out, "\nAnalysis:")
	printAnalysis(out, entry.Analysis)
}

func imageSummary(dataURL string) string {
	if dataURL == "" {
		return "none"
	}
	img, err := analysis.ParseDataURL(dataURL)
	if err != nil {
		return "stored (unreadable)"
	}
	return fmt.Sprintf("%s, %d bytes", img.MIMEType, len(img.Data))
}

func printEntryList(out io.Writer, entries []journal.Entry) {
	fmt.Fprintln(out, "ID | Title | Issues | Date")
	fmt.Fprintln(out, "------------------------------------------------------------")
	for _, e := range entries {
		fmt.Fprintf(out, "%d | %s | %d | %s\n", e.ID, e.Title, len(e.Analysis), formatDate(e))
	}
}
