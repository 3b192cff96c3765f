package schedule

import "context"

// Repository persists the schedule set as two documents: the flat collection
// (source of truth) and the per-elderly-user index used for fast lookups.
// Replace swaps both documents; implementations must write the flat collection
// first so a crash in between is repairable by RebuildIndex.
type Repository interface {
	LoadAll(ctx context.Context) ([]Schedule, error)
	LoadForElderly(ctx context.Context, elderlyID string) ([]Schedule, error)
	Replace(ctx context.Context, all []Schedule, byElderly map[string][]Schedule) error
	// RebuildIndex re-derives the per-elderly document from the flat
	// collection. Run at startup to repair a partial write.
	RebuildIndex(ctx context.Context) error
}
