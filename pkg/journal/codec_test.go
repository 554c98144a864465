package journal

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestCodecLoadAbsent(t *testing.T) {
	codec := NewCodec(setupTestStore(t))

	entries, ok, err := codec.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ok {
		t.Errorf("Expected absent journal, got %d entries", len(entries))
	}
}

func TestCodecRoundTrip(t *testing.T) {
	cases := map[string][]Entry{
		"empty": {},
		"nil":   nil,
		"single clear entry": {
			{ID: 1, Title: PlaceholderTitle, Date: "2024-01-01T00:00:00.000Z", ImageDataURL: "data:image/png;base64,AAAA", Analysis: SkinAnalysis{}},
		},
		"several entries": {
			{ID: 1700000000000, Title: "Acne", Date: "2023-11-14T22:13:20.000Z", ImageDataURL: "data:image/jpeg;base64,/9j/", Analysis: acneAnalysis(), Notes: "Started new cleanser"},
			{ID: 1700000000001, Title: "Week 2", Date: "2023-11-21T22:13:20.000Z", ImageDataURL: "data:image/jpeg;base64,/9k/", Analysis: SkinAnalysis{}, Notes: "ünïcödé ✓"},
		},
	}

	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			codec := NewCodec(setupTestStore(t))
			ctx := context.Background()

			if err := codec.Save(ctx, want); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			got, ok, err := codec.Load(ctx)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if !ok {
				t.Fatal("Expected journal to be present after Save")
			}
			if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCodecSaveNilWritesEmptyArray(t *testing.T) {
	store := setupTestStore(t)
	codec := NewCodec(store)

	if err := codec.Save(context.Background(), nil); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	value, ok := rawValue(t, store, CurrentKey)
	if !ok || value != "[]" {
		t.Errorf("Expected stored value '[]', got %q (present: %t)", value, ok)
	}
}

func TestCodecDecodeError(t *testing.T) {
	store := setupTestStore(t)
	codec := NewCodec(store)
	putRaw(t, store, CurrentKey, "{not json")

	_, ok, err := codec.Load(context.Background())
	if ok {
		t.Error("Expected malformed data not to be reported as present")
	}
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Expected *DecodeError, got %v", err)
	}
	if decodeErr.Key != CurrentKey {
		t.Errorf("Expected DecodeError for key %q, got %q", CurrentKey, decodeErr.Key)
	}
}

func TestCodecWrongShapeIsDecodeError(t *testing.T) {
	store := setupTestStore(t)
	codec := NewCodec(store)
	putRaw(t, store, CurrentKey, `{"id": 1}`)

	_, _, err := codec.Load(context.Background())
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Expected *DecodeError for an object instead of an array, got %v", err)
	}
}

func TestCodecStorageErrorIsNotDecodeError(t *testing.T) {
	store := setupTestStore(t)
	store.failGet = errors.New("disk on fire")
	codec := NewCodec(store)

	_, _, err := codec.Load(context.Background())
	if err == nil {
		t.Fatal("Expected Load to fail when the store fails")
	}
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		t.Errorf("Storage failures must not be reported as DecodeError: %v", err)
	}
}

func TestCodecClear(t *testing.T) {
	store := setupTestStore(t)
	codec := NewCodec(store)
	ctx := context.Background()

	if err := codec.Save(ctx, []Entry{{ID: 1, Title: "x"}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := codec.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := rawValue(t, store, CurrentKey); ok {
		t.Error("Expected current key to be removed by Clear")
	}
}

func TestCodecLegacyKey(t *testing.T) {
	store := setupTestStore(t)
	codec := NewCodec(store)
	ctx := context.Background()
	putRaw(t, store, LegacyKey, `[{"id":5,"date":"2023-01-01T00:00:00.000Z","imageDataUrl":"data:x","analysis":[],"notes":""}]`)

	entries, ok, err := codec.LoadLegacy(ctx)
	if err != nil {
		t.Fatalf("LoadLegacy failed: %v", err)
	}
	if !ok || len(entries) != 1 || entries[0].ID != 5 {
		t.Fatalf("Unexpected legacy entries: %+v (present: %t)", entries, ok)
	}
	if entries[0].Title != "" {
		t.Errorf("Codec must not invent titles, got %q", entries[0].Title)
	}

	if err := codec.ClearLegacy(ctx); err != nil {
		t.Fatalf("ClearLegacy failed: %v", err)
	}
	if _, ok := rawValue(t, store, LegacyKey); ok {
		t.Error("Expected legacy key to be removed by ClearLegacy")
	}
}
