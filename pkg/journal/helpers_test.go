package journal

import (
	"context"
	"testing"
	"time"

	"github.com/unowned-ai/dermavision/pkg/db"
	"github.com/unowned-ai/dermavision/pkg/kv"
)

// flakyStore lets tests make individual store operations fail.
type flakyStore struct {
	kv.Store
	failGet    error
	failSet    error
	failDelete error
	sets       int
}

func (s *flakyStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.failGet != nil {
		return "", false, s.failGet
	}
	return s.Store.Get(ctx, key)
}

func (s *flakyStore) Set(ctx context.Context, key, value string) error {
	s.sets++
	if s.failSet != nil {
		return s.failSet
	}
	return s.Store.Set(ctx, key, value)
}

func (s *flakyStore) Delete(ctx context.Context, key string) error {
	if s.failDelete != nil {
		return s.failDelete
	}
	return s.Store.Delete(ctx, key)
}

func setupTestStore(t *testing.T) *flakyStore {
	t.Helper()

	testDB, err := db.OpenDBConnection(db.MemoryDSN, false, "NORMAL")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	if err := db.InitializeSchema(testDB, db.TargetSchemaVersion); err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}
	t.Cleanup(func() { testDB.Close() })

	return &flakyStore{Store: kv.NewSQLiteStore(testDB)}
}

func rawValue(t *testing.T, store kv.Store, key string) (string, bool) {
	t.Helper()
	value, ok, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Failed to read key %q: %v", key, err)
	}
	return value, ok
}

func putRaw(t *testing.T, store kv.Store, key, value string) {
	t.Helper()
	if err := store.Set(context.Background(), key, value); err != nil {
		t.Fatalf("Failed to seed key %q: %v", key, err)
	}
}

// fixedClock returns a clock frozen at start. Advance moves it forward.
type fixedClock struct {
	now time.Time
}

func newFixedClock() *fixedClock {
	return &fixedClock{now: time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)}
}

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func acneAnalysis() SkinAnalysis {
	return SkinAnalysis{
		{
			Issue:                   "Acne",
			Description:             "Inflamed papules on the cheeks.",
			FoodRecommendations:     []string{"Leafy greens", "Salmon"},
			MedicineRecommendations: []string{"Benzoyl peroxide 2.5%"},
		},
		{
			Issue:                   "Hyperpigmentation",
			Description:             "Dark spots left by healed lesions.",
			FoodRecommendations:     []string{"Citrus fruits"},
			MedicineRecommendations: []string{"Niacinamide serum"},
		},
	}
}

func strPtr(s string) *string { return &s }
