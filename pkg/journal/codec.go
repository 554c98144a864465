package journal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/unowned-ai/dermavision/pkg/kv"
)

const (
	// CurrentKey holds the journal in the current schema.
	CurrentKey = "dermavision-journal"
	// LegacyKey is where older releases kept the journal. Only the migration reads it.
	LegacyKey = "derm-ai-journal"
)

// DecodeError reports a stored value that is not a well-formed serialized journal.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed journal data under key %q: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Codec transcodes the journal to and from the durable store. It keeps no copy of its own.
type Codec struct {
	store     kv.Store
	key       string
	legacyKey string
}

func NewCodec(store kv.Store) *Codec {
	return &Codec{store: store, key: CurrentKey, legacyKey: LegacyKey}
}

// Load reads the journal under the current key. ok is false when nothing is stored.
func (c *Codec) Load(ctx context.Context) ([]Entry, bool, error) {
	return c.load(ctx, c.key)
}

// Save replaces the stored journal with entries.
func (c *Codec) Save(ctx context.Context, entries []Entry) error {
	raw, err := Encode(entries)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, c.key, string(raw)); err != nil {
		return fmt.Errorf("failed to write journal under key %q: %w", c.key, err)
	}
	return nil
}

// Clear removes the stored journal entirely.
func (c *Codec) Clear(ctx context.Context) error {
	if err := c.store.Delete(ctx, c.key); err != nil {
		return fmt.Errorf("failed to remove journal under key %q: %w", c.key, err)
	}
	return nil
}

func (c *Codec) LoadLegacy(ctx context.Context) ([]Entry, bool, error) {
	return c.load(ctx, c.legacyKey)
}

func (c *Codec) ClearLegacy(ctx context.Context) error {
	if err := c.store.Delete(ctx, c.legacyKey); err != nil {
		return fmt.Errorf("failed to remove legacy journal under key %q: %w", c.legacyKey, err)
	}
	return nil
}

func (c *Codec) load(ctx context.Context, key string) ([]Entry, bool, error) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read journal under key %q: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	entries, err := Decode(key, []byte(raw))
	if err != nil {
		return nil, false, err
	}
	return entries, true, nil
}

// Encode serializes entries as a JSON array. A nil collection encodes as [].
func Encode(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode journal: %w", err)
	}
	return raw, nil
}

// Decode parses a serialized journal read from key.
func Decode(key string, raw []byte) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, &DecodeError{Key: key, Err: err}
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
