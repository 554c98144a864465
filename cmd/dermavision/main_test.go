package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	dermavision "github.com/unowned-ai/dermavision/pkg"
	"github.com/unowned-ai/dermavision/pkg/analysis"
	"github.com/unowned-ai/dermavision/pkg/config"
	pkgdb "github.com/unowned-ai/dermavision/pkg/db"
	"github.com/unowned-ai/dermavision/pkg/journal"
	"github.com/unowned-ai/dermavision/pkg/kv"
)

// setupCLI creates a database holding the given entries and a quiet config file.
func setupCLI(t *testing.T, issues ...string) (dbPath, configPath string, ids []int64) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "journal.db")
	configPath = filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("log_level: error\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	dbConn, err := pkgdb.Open(dbPath, true, "NORMAL", nil)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	repo := journal.Open(context.Background(), journal.NewCodec(kv.NewSQLiteStore(dbConn)))
	for _, issue := range issues {
		a := journal.SkinAnalysis{{Issue: issue, Description: issue + " detected.", FoodRecommendations: []string{"Water"}, MedicineRecommendations: []string{}}}
		entry, err := repo.Add(context.Background(), a, "data:image/png;base64,AAAA")
		if err != nil {
			t.Fatalf("Failed to seed entry: %v", err)
		}
		ids = append(ids, entry.ID)
	}
	if err := pkgdb.Close(dbConn, nil); err != nil {
		t.Fatalf("Failed to close database: %v", err)
	}
	return dbPath, configPath, ids
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configFile = ""
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if strings.TrimSpace(out) != dermavision.Version {
		t.Errorf("Expected %s, got %q", dermavision.Version, out)
	}
}

func TestEntriesCommands(t *testing.T) {
	dbPath, configPath, ids := setupCLI(t, "Acne", "Eczema")

	out, err := runCLI(t, "entries", "list", "--db", dbPath, "--config", configPath)
	if err != nil {
		t.Fatalf("entries list failed: %v", err)
	}
	if !strings.Contains(out, "Acne") || !strings.Contains(out, "Eczema") {
		t.Errorf("Expected both entries in list output:\n%s", out)
	}
	if strings.Index(out, "Eczema") > strings.Index(out, "Acne") {
		t.Errorf("Expected newest entry first:\n%s", out)
	}

	id := strconv.FormatInt(ids[0], 10)
	out, err = runCLI(t, "entries", "update", id, "--notes", "Using benzoyl peroxide", "--db", dbPath, "--config", configPath)
	if err != nil {
		t.Fatalf("entries update failed: %v", err)
	}
	if !strings.Contains(out, "Using benzoyl peroxide") {
		t.Errorf("Expected updated notes in output:\n%s", out)
	}

	out, err = runCLI(t, "entries", "delete", "999", "--db", dbPath, "--config", configPath)
	if err != nil {
		t.Fatalf("Deleting an unknown entry should not fail: %v", err)
	}
	if !strings.Contains(out, "nothing to delete") {
		t.Errorf("Unexpected delete output: %s", out)
	}

	if _, err := runCLI(t, "entries", "clear", "--db", dbPath, "--config", configPath); err == nil {
		t.Errorf("Expected clear without --yes to fail")
	}

	out, err = runCLI(t, "entries", "search", "eczema", "--db", dbPath, "--config", configPath)
	if err != nil {
		t.Fatalf("entries search failed: %v", err)
	}
	if !strings.Contains(out, "Eczema") || strings.Contains(out, "Acne") {
		t.Errorf("Expected only the Eczema entry:\n%s", out)
	}

	// Everything above went through the database file, not memory.
	dbConn, err := pkgdb.Open(dbPath, true, "NORMAL", nil)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer dbConn.Close()
	repo := journal.Open(context.Background(), journal.NewCodec(kv.NewSQLiteStore(dbConn)))
	got, ok := repo.Get(ids[0])
	if !ok || got.Notes != "Using benzoyl peroxide" {
		t.Errorf("Expected notes to persist, got %+v", got)
	}
}

func TestExportCommand(t *testing.T) {
	dbPath, configPath, _ := setupCLI(t, "Rosacea")
	exportDir := t.TempDir()

	out, err := runCLI(t, "export", "--dir", exportDir, "--db", dbPath, "--config", configPath)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(out, "Exported 1 entries") {
		t.Errorf("Unexpected export output: %s", out)
	}

	files, err := filepath.Glob(filepath.Join(exportDir, journal.ExportPrefix+"_*.json"))
	if err != nil || len(files) != 1 {
		t.Fatalf("Expected one export file, got %v (%v)", files, err)
	}
	data, _ := os.ReadFile(files[0])
	if !strings.Contains(string(data), "\n  {\n    \"id\": ") {
		t.Errorf("Expected pretty-printed JSON, got:\n%s", data)
	}
}

func TestAnalyzeRequiresImageFile(t *testing.T) {
	dbPath, configPath, _ := setupCLI(t)
	missing := filepath.Join(t.TempDir(), "nope.jpg")

	if _, err := runCLI(t, "analyze", missing, "--db", dbPath, "--config", configPath); err == nil {
		t.Errorf("Expected analyze to fail for a missing image")
	}
}

func TestDBKeysCommand(t *testing.T) {
	dbPath, configPath, _ := setupCLI(t, "Acne")

	out, err := runCLI(t, "db", "keys", "--db", dbPath, "--config", configPath)
	if err != nil {
		t.Fatalf("db keys failed: %v", err)
	}
	if strings.TrimSpace(out) != journal.CurrentKey {
		t.Errorf("Expected only %q, got %q", journal.CurrentKey, out)
	}
}

type stubAnalyzer struct {
	result journal.SkinAnalysis
	calls  int
}

func (s *stubAnalyzer) Analyze(ctx context.Context, img analysis.Image) (journal.SkinAnalysis, error) {
	s.calls++
	return s.result, nil
}

// useStubAnalyzer swaps the analyzer used by the analyze command for the rest of the test.
func useStubAnalyzer(t *testing.T, result journal.SkinAnalysis) *stubAnalyzer {
	t.Helper()
	stub := &stubAnalyzer{result: result}
	original := newAnalyzer
	newAnalyzer = func() analysis.Analyzer { return stub }
	t.Cleanup(func() {
		newAnalyzer = original
		saveAnalysisFlag = false
		analyzeTitleFlag = ""
		analyzeNotesFlag = ""
		analyzeJSONFlag = false
	})
	return stub
}

func writeTestImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cheek.png")
	if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nfake-png-bytes"), 0644); err != nil {
		t.Fatalf("Failed to write image: %v", err)
	}
	return path
}

func loadJournal(t *testing.T, dbPath string) []journal.Entry {
	t.Helper()
	dbConn, err := pkgdb.Open(dbPath, true, "NORMAL", nil)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer pkgdb.Close(dbConn, nil)
	return journal.Open(context.Background(), journal.NewCodec(kv.NewSQLiteStore(dbConn))).Entries()
}

func TestAnalyzeSaveWithTitleAndNotesJSON(t *testing.T) {
	dbPath, configPath, _ := setupCLI(t)
	img := writeTestImage(t)
	stub := useStubAnalyzer(t, journal.SkinAnalysis{{
		Issue:                   "Rosacea",
		Description:             "Redness across the nose.",
		FoodRecommendations:     []string{"Green tea"},
		MedicineRecommendations: []string{"Azelaic acid"},
	}})

	out, err := runCLI(t, "analyze", img, "--save", "--title", "Left cheek", "--notes", "after sun",
		"--json", "--db", dbPath, "--config", configPath)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if stub.calls != 1 {
		t.Errorf("Expected one analysis call, got %d", stub.calls)
	}

	var got struct {
		Analysis journal.SkinAnalysis `json:"analysis"`
		Entry    *journal.Entry       `json:"entry"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("Failed to decode JSON output: %v\n%s", err, out)
	}
	if len(got.Analysis) != 1 || got.Analysis[0].Issue != "Rosacea" {
		t.Errorf("Unexpected analysis in output: %+v", got.Analysis)
	}
	if got.Entry == nil {
		t.Fatalf("Expected the saved entry in the output:\n%s", out)
	}
	if got.Entry.Title != "Left cheek" || got.Entry.Notes != "after sun" {
		t.Errorf("Expected title and notes applied, got %q / %q", got.Entry.Title, got.Entry.Notes)
	}
	if got.Entry.ImageDataURL != "" {
		t.Errorf("Expected image data left out of the output")
	}

	stored := loadJournal(t, dbPath)
	if len(stored) != 1 {
		t.Fatalf("Expected one stored entry, got %d", len(stored))
	}
	if stored[0].ID != got.Entry.ID || stored[0].Title != "Left cheek" || stored[0].Notes != "after sun" {
		t.Errorf("Stored entry does not match output: %+v", stored[0])
	}
	if !strings.HasPrefix(stored[0].ImageDataURL, "data:image/png;base64,") {
		t.Errorf("Expected the image stored as a data URL, got %.40q", stored[0].ImageDataURL)
	}
}

func TestAnalyzeWithoutSavePrintsText(t *testing.T) {
	dbPath, configPath, _ := setupCLI(t)
	img := writeTestImage(t)
	useStubAnalyzer(t, journal.SkinAnalysis{})

	out, err := runCLI(t, "analyze", img, "--db", dbPath, "--config", configPath)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if !strings.Contains(out, "No skin issues were detected") {
		t.Errorf("Unexpected output: %s", out)
	}
	if stored := loadJournal(t, dbPath); len(stored) != 0 {
		t.Errorf("Nothing should be saved without --save, got %d entries", len(stored))
	}
}

func TestAnalyzeTitleRequiresSave(t *testing.T) {
	dbPath, configPath, _ := setupCLI(t)
	img := writeTestImage(t)
	stub := useStubAnalyzer(t, journal.SkinAnalysis{})

	if _, err := runCLI(t, "analyze", img, "--title", "x", "--db", dbPath, "--config", configPath); err == nil {
		t.Error("Expected --title without --save to be rejected")
	}
	if stub.calls != 0 {
		t.Errorf("Analyzer should not run when the flags are invalid, got %d calls", stub.calls)
	}
}

func TestMCPBannerShowsResolvedDBPath(t *testing.T) {
	t.Chdir(t.TempDir())
	saved := cfg
	t.Cleanup(func() { cfg = saved })
	cfg = config.Config{DBPath: "skin.db", WAL: true, Sync: "NORMAL", APIKey: "key"}

	dbPath, err := resolveDBPath()
	if err != nil {
		t.Fatalf("resolveDBPath failed: %v", err)
	}
	want, _ := filepath.Abs("skin.db")
	if dbPath != want {
		t.Fatalf("Expected %s, got %s", want, dbPath)
	}

	var buf bytes.Buffer
	printMCPBanner(&buf, dbPath)
	if !strings.Contains(buf.String(), "DB: "+want+" ") {
		t.Errorf("Expected banner to name %s:\n%s", want, buf.String())
	}
	if strings.Contains(buf.String(), "Warning") {
		t.Errorf("No warning expected with an API key configured:\n%s", buf.String())
	}
}
