package mcp

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/unowned-ai/dermavision/pkg/journal"
)

// entrySummary is what list and search tools return when images are left out.
type entrySummary struct {
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	Date     string   `json:"date"`
	Notes    string   `json:"notes"`
	Issues   []string `json:"issues"`
	HasImage bool     `json:"has_image"`
}

func summarize(entries []journal.Entry) []entrySummary {
	out := make([]entrySummary, 0, len(entries))
	for _, e := range entries {
		issues := make([]string, 0, len(e.Analysis))
		for _, issue := range e.Analysis {
			issues = append(issues, issue.Issue)
		}
		out = append(out, entrySummary{
			ID:       e.ID,
			Title:    e.Title,
			Date:     e.Date,
			Notes:    e.Notes,
			Issues:   issues,
			HasImage: e.ImageDataURL != "",
		})
	}
	return out
}

// withoutImages blanks the image data of each entry. Images are large and
// rarely what a model needs.
func withoutImages(entries []journal.Entry) []journal.Entry {
	out := make([]journal.Entry, len(entries))
	for i, e := range entries {
		e.ImageDataURL = ""
		out[i] = e
	}
	return out
}

// argEntryID reads an entry id. JSON numbers arrive as float64; strings are accepted too.
func argEntryID(args map[string]interface{}, name string) (int64, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return 0, fmt.Errorf("'%s' parameter is required", name)
	}
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) || v < 0 {
			return 0, fmt.Errorf("'%s' must be a whole, non-negative number", name)
		}
		return int64(v), nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("'%s' must be a number: %w", name, err)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("'%s' has unsupported type %T", name, raw)
	}
}

func argBool(args map[string]interface{}, name string) bool {
	v, _ := args[name].(bool)
	return v
}

func jsonResult(v interface{}, what string) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize %s to JSON: %v", what, err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
