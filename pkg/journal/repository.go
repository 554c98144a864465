package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrMissingImage = errors.New("an image is required to save a journal entry")
)

// Option configures a Repository.
type Option func(*Repository)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock replaces time.Now as the source of entry ids and dates.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// Repository owns the in-memory journal. Every mutation is persisted through the
// Codec before it returns; when persisting fails, memory is left as it was.
type Repository struct {
	mu      sync.Mutex
	codec   *Codec
	entries []Entry
	pending []Entry
	lastID  int64

	now    func() time.Time
	logger *zap.Logger
}

// Open runs the startup migration and returns a ready repository.
func Open(ctx context.Context, codec *Codec, opts ...Option) *Repository {
	r := &Repository{
		codec:  codec,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	result := Migrate(ctx, codec, r.logger)
	r.entries = result.Entries
	r.pending = result.Pending
	for _, list := range [][]Entry{r.entries, r.pending} {
		for _, entry := range list {
			if entry.ID > r.lastID {
				r.lastID = entry.ID
			}
		}
	}
	return r
}

// Add saves a new entry built from analysis and the image it was produced from.
func (r *Repository) Add(ctx context.Context, analysis SkinAnalysis, imageDataURL string) (Entry, error) {
	if imageDataURL == "" {
		return Entry{}, ErrMissingImage
	}
	if analysis == nil {
		analysis = SkinAnalysis{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	created := r.now().UTC()
	id := created.UnixMilli()
	if id <= r.lastID {
		id = r.lastID + 1
	}

	entry := Entry{
		ID:           id,
		Title:        DefaultTitle(analysis),
		Date:         created.Format(DateLayout),
		ImageDataURL: imageDataURL,
		Analysis:     analysis.clone(),
		Notes:        "",
	}

	next := append(r.snapshot(), entry)
	if err := r.persist(ctx, next); err != nil {
		return Entry{}, fmt.Errorf("failed to save journal entry: %w", err)
	}
	r.lastID = id

	r.logger.Debug("Journal entry added", zap.Int64("id", id), zap.String("title", entry.Title))
	return entry.clone(), nil
}

// Update applies patch to the entry with id. Unknown ids are ignored.
// A blank title keeps the current one so every entry stays titled.
func (r *Repository) Update(ctx context.Context, id int64, patch EntryPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return nil
	}

	next := r.snapshot()
	entry := next[idx]
	if patch.Title != nil && strings.TrimSpace(*patch.Title) != "" {
		entry.Title = *patch.Title
	}
	if patch.Notes != nil {
		entry.Notes = *patch.Notes
	}
	next[idx] = entry

	if err := r.persist(ctx, next); err != nil {
		return fmt.Errorf("failed to save journal entry %d: %w", id, err)
	}

	r.logger.Debug("Journal entry updated", zap.Int64("id", id))
	return nil
}

// Remove deletes the entry with id. Unknown ids are ignored and nothing is written.
func (r *Repository) Remove(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return nil
	}

	next := make([]Entry, 0, len(r.entries)-1)
	next = append(next, r.entries[:idx]...)
	next = append(next, r.entries[idx+1:]...)

	if err := r.persist(ctx, next); err != nil {
		return fmt.Errorf("failed to delete journal entry %d: %w", id, err)
	}

	r.logger.Debug("Journal entry removed", zap.Int64("id", id))
	return nil
}

// ClearAll empties the journal and removes it from the store, as if it had never been used.
func (r *Repository) ClearAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.codec.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear journal: %w", err)
	}
	cleared := len(r.entries)
	r.entries = []Entry{}

	r.logger.Info("Journal cleared", zap.Int("entries", cleared))
	return nil
}

// Entries returns a copy of the journal in insertion order.
func (r *Repository) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

func (r *Repository) Get(id int64) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return Entry{}, false
	}
	return r.entries[idx].clone(), true
}

func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Search returns entries whose title, notes or issue names contain query
// (case-insensitive), most recent first. An empty query matches everything.
func (r *Repository) Search(query string) []Entry {
	needle := strings.ToLower(strings.TrimSpace(query))

	var matches []Entry
	for _, entry := range r.Entries() {
		if needle == "" || entryMatches(entry, needle) {
			matches = append(matches, entry)
		}
	}
	return SortNewestFirst(matches)
}

func entryMatches(entry Entry, needle string) bool {
	if strings.Contains(strings.ToLower(entry.Title), needle) ||
		strings.Contains(strings.ToLower(entry.Notes), needle) {
		return true
	}
	for _, issue := range entry.Analysis {
		if strings.Contains(strings.ToLower(issue.Issue), needle) {
			return true
		}
	}
	return false
}

// persist saves next as the whole journal and makes it the in-memory state.
// Legacy entries left over from a failed startup migration are written first,
// then the legacy key is removed. Callers must hold r.mu.
func (r *Repository) persist(ctx context.Context, next []Entry) error {
	if len(r.pending) > 0 {
		next = append(cloneEntries(r.pending), next...)
	}
	if err := r.codec.Save(ctx, next); err != nil {
		return err
	}
	r.entries = next

	if len(r.pending) == 0 {
		return nil
	}
	migrated := len(r.pending)
	r.pending = nil
	if err := r.codec.ClearLegacy(ctx); err != nil {
		r.logger.Warn("Migrated journal saved but legacy key could not be removed",
			zap.String("key", LegacyKey), zap.Error(err))
	}
	r.logger.Info("Migrated journal from legacy key",
		zap.String("from", LegacyKey),
		zap.String("to", CurrentKey),
		zap.Int("entries", migrated))
	return nil
}

func (r *Repository) indexOf(id int64) int {
	for i, entry := range r.entries {
		if entry.ID == id {
			return i
		}
	}
	return -1
}

// snapshot deep-copies the current entries. Callers must hold r.mu.
func (r *Repository) snapshot() []Entry {
	return cloneEntries(r.entries)
}

func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, entry := range entries {
		out[i] = entry.clone()
	}
	return out
}
