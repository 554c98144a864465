package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/unowned-ai/dermavision/pkg/journal"
)

// wireIssue mirrors journal.SkinIssue with every field required.
// Pointers tell an absent (or null) field apart from an empty one.
type wireIssue struct {
	Issue                   *string   `json:"issue"`
	Description             *string   `json:"description"`
	FoodRecommendations     *[]string `json:"food_recommendations"`
	MedicineRecommendations *[]string `json:"medicine_recommendations"`
}

// ParseAnalysis validates a service response against the analysis schema:
// a JSON array whose elements all carry the four SkinIssue fields.
// Anything else is rejected as a whole; nothing is partially accepted.
func ParseAnalysis(raw []byte) (journal.SkinAnalysis, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidResponse)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	var wire []*wireIssue
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after the issue list", ErrInvalidResponse)
	}
	if wire == nil {
		return nil, fmt.Errorf("%w: expected an array of issues", ErrInvalidResponse)
	}

	analysis := make(journal.SkinAnalysis, 0, len(wire))
	for i, w := range wire {
		if w == nil {
			return nil, fmt.Errorf("%w: issue %d is null", ErrInvalidResponse, i)
		}
		if missing := w.missingField(); missing != "" {
			return nil, fmt.Errorf("%w: issue %d is missing required field %q", ErrInvalidResponse, i, missing)
		}
		analysis = append(analysis, journal.SkinIssue{
			Issue:                   *w.Issue,
			Description:             *w.Description,
			FoodRecommendations:     *w.FoodRecommendations,
			MedicineRecommendations: *w.MedicineRecommendations,
		})
	}
	return analysis, nil
}

func (w *wireIssue) missingField() string {
	switch {
	case w.Issue == nil:
		return "issue"
	case w.Description == nil:
		return "description"
	case w.FoodRecommendations == nil:
		return "food_recommendations"
	case w.MedicineRecommendations == nil:
		return "medicine_recommendations"
	}
	return ""
}
