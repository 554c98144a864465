package journal

import (
	"sort"
	"time"
)

// PlaceholderTitle names entries whose analysis found no issues.
const PlaceholderTitle = "Clear Skin Analysis"

// DateLayout is the ISO-8601 form entry dates are written in (UTC, millisecond precision).
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

// SkinIssue is one finding returned by the analysis service.
type SkinIssue struct {
	Issue                   string   `json:"issue"`
	Description             string   `json:"description"`
	FoodRecommendations     []string `json:"food_recommendations"`
	MedicineRecommendations []string `json:"medicine_recommendations"`
}

// SkinAnalysis lists issues in the order the service detected them.
// An empty analysis means no issues were found.
type SkinAnalysis []SkinIssue

// Entry is one saved analysis session.
type Entry struct {
	ID           int64        `json:"id"`
	Title        string       `json:"title"`
	Date         string       `json:"date"`
	ImageDataURL string       `json:"imageDataUrl"`
	Analysis     SkinAnalysis `json:"analysis"`
	Notes        string       `json:"notes"`
}

// EntryPatch carries the editable fields of an entry. Nil fields are left alone.
type EntryPatch struct {
	Title *string
	Notes *string
}

// DefaultTitle derives an entry title from its analysis.
func DefaultTitle(analysis SkinAnalysis) string {
	if len(analysis) > 0 {
		return analysis[0].Issue
	}
	return PlaceholderTitle
}

// CreatedAt parses the entry date. The zero time is returned for unparseable dates.
func (e Entry) CreatedAt() time.Time {
	t, err := time.Parse(time.RFC3339Nano, e.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (e Entry) clone() Entry {
	e.Analysis = e.Analysis.clone()
	return e
}

func (a SkinAnalysis) clone() SkinAnalysis {
	if a == nil {
		return nil
	}
	out := make(SkinAnalysis, len(a))
	for i, issue := range a {
		issue.FoodRecommendations = cloneStrings(issue.FoodRecommendations)
		issue.MedicineRecommendations = cloneStrings(issue.MedicineRecommendations)
		out[i] = issue
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// SortNewestFirst returns a copy of entries in display order, most recent first.
// Storage order is never changed by this.
func SortNewestFirst(entries []Entry) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := sorted[i].CreatedAt(), sorted[j].CreatedAt()
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})
	return sorted
}
