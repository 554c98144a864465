package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ExportPrefix starts every export file name.
const ExportPrefix = "dermavision-journal"

// Artifact is a named file ready to be written or downloaded.
type Artifact struct {
	Name string
	Data []byte
}

// ExportFileName names an export made at now, e.g. dermavision-journal_2024-05-01.json.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("%s_%s.json", ExportPrefix, now.UTC().Format("2006-01-02"))
}

// Export renders entries, in the order given, as pretty-printed JSON.
// It returns a nil artifact when there is nothing to export.
func Export(entries []Entry, now time.Time) (*Artifact, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode journal export: %w", err)
	}

	return &Artifact{Name: ExportFileName(now), Data: data}, nil
}

// WriteFile writes the artifact into dir and returns the full path.
func (a *Artifact) WriteFile(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory '%s': %w", dir, err)
	}
	path := filepath.Join(dir, a.Name)
	if err := os.WriteFile(path, a.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export '%s': %w", path, err)
	}
	return path, nil
}
