package journal

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Source tells where the initial journal state came from.
type Source string

const (
	SourceNone    Source = "none"
	SourceCurrent Source = "current"
	SourceLegacy  Source = "legacy"
)

// MigrationResult is the journal state produced at startup.
// Pending holds legacy entries that could not be written under the current key;
// they still live under the legacy key and must go out with the next save.
type MigrationResult struct {
	Entries  []Entry
	Pending  []Entry
	Migrated bool
	Source   Source
}

func emptyResult() MigrationResult {
	return MigrationResult{Entries: []Entry{}, Source: SourceNone}
}

// Migrate loads the journal, moving data from the legacy key to the current key when needed.
//
// Data under the current key always wins and the legacy key is then not consulted.
// Legacy data is written under the current key before the legacy key is removed.
// Migrate never fails: unreadable or inaccessible data is logged and yields an empty journal.
func Migrate(ctx context.Context, codec *Codec, logger *zap.Logger) MigrationResult {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, ok, err := codec.Load(ctx)
	if err != nil {
		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) {
			logger.Error("Failed to read journal, starting empty", zap.String("key", CurrentKey), zap.Error(err))
			return emptyResult()
		}
		logger.Warn("Ignoring malformed journal data", zap.String("key", CurrentKey), zap.Error(err))
		ok = false
	}
	if ok {
		return MigrationResult{Entries: backfillTitles(entries), Source: SourceCurrent}
	}

	legacy, ok, err := codec.LoadLegacy(ctx)
	if err != nil {
		logger.Warn("Ignoring unreadable legacy journal", zap.String("key", LegacyKey), zap.Error(err))
		return emptyResult()
	}
	if !ok {
		return emptyResult()
	}

	migrated := backfillTitles(legacy)
	if err := codec.Save(ctx, migrated); err != nil {
		logger.Error("Failed to persist migrated journal, legacy data left in place",
			zap.String("from", LegacyKey), zap.String("to", CurrentKey), zap.Error(err))
		result := emptyResult()
		result.Pending = migrated
		return result
	}
	if err := codec.ClearLegacy(ctx); err != nil {
		logger.Warn("Migrated journal saved but legacy key could not be removed",
			zap.String("key", LegacyKey), zap.Error(err))
	}

	logger.Info("Migrated journal from legacy key",
		zap.String("from", LegacyKey),
		zap.String("to", CurrentKey),
		zap.Int("entries", len(migrated)))

	return MigrationResult{Entries: migrated, Migrated: true, Source: SourceLegacy}
}

// backfillTitles gives every untitled entry its default title.
func backfillTitles(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, entry := range entries {
		if entry.Title == "" {
			entry.Title = DefaultTitle(entry.Analysis)
		}
		out[i] = entry
	}
	return out
}
