// Package schedulefile stores the schedule set as two JSON documents on disk:
// a flat array (the source of truth) and a map keyed by elderly user id. Both
// documents are rewritten on every mutation through temp-file-then-rename.
package schedulefile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	scheduledomain "care-companion-go/internal/domain/schedule"
	"care-companion-go/pkg/logger"
)

type FileRepository struct {
	schedulesPath string
	elderlyPath   string
	log           logger.Logger
}

func New(schedulesPath, elderlyPath string, log logger.Logger) *FileRepository {
	return &FileRepository{
		schedulesPath: schedulesPath,
		elderlyPath:   elderlyPath,
		log:           log,
	}
}

func (r *FileRepository) LoadAll(_ context.Context) ([]scheduledomain.Schedule, error) {
	raw, err := r.readDocument(r.schedulesPath)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return []scheduledomain.Schedule{}, nil
	}

	var all []scheduledomain.Schedule
	if err := json.Unmarshal(raw, &all); err != nil {
		// Malformed persisted state counts as no data.
		r.log.Warn("schedulefile: malformed schedules document treated as empty", "path", r.schedulesPath, "err", err)
		return []scheduledomain.Schedule{}, nil
	}
	if all == nil {
		all = []scheduledomain.Schedule{}
	}
	return all, nil
}

func (r *FileRepository) LoadForElderly(_ context.Context, elderlyID string) ([]scheduledomain.Schedule, error) {
	index, err := r.loadIndex()
	if err != nil {
		return nil, err
	}
	schedules := index[elderlyID]
	if schedules == nil {
		schedules = []scheduledomain.Schedule{}
	}
	return schedules, nil
}

// Replace swaps both documents, flat collection first. Each document is
// written to a temp file and renamed into place.
func (r *FileRepository) Replace(_ context.Context, all []scheduledomain.Schedule, byElderly map[string][]scheduledomain.Schedule) error {
	if all == nil {
		all = []scheduledomain.Schedule{}
	}
	if byElderly == nil {
		byElderly = map[string][]scheduledomain.Schedule{}
	}

	if err := writeDocument(r.schedulesPath, all); err != nil {
		return fmt.Errorf("write schedules document: %w", err)
	}
	if err := writeDocument(r.elderlyPath, byElderly); err != nil {
		return fmt.Errorf("write elderly index document: %w", err)
	}
	return nil
}

// RebuildIndex re-derives the per-elderly document from the flat collection.
// Repairs divergence left by a crash between the two renames in Replace.
func (r *FileRepository) RebuildIndex(ctx context.Context) error {
	all, err := r.LoadAll(ctx)
	if err != nil {
		return err
	}

	index := make(map[string][]scheduledomain.Schedule)
	for _, sched := range all {
		index[sched.ElderlyID] = append(index[sched.ElderlyID], sched)
	}

	if err := writeDocument(r.elderlyPath, index); err != nil {
		return fmt.Errorf("rebuild elderly index: %w", err)
	}
	return nil
}

func (r *FileRepository) loadIndex() (map[string][]scheduledomain.Schedule, error) {
	raw, err := r.readDocument(r.elderlyPath)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return map[string][]scheduledomain.Schedule{}, nil
	}

	var index map[string][]scheduledomain.Schedule
	if err := json.Unmarshal(raw, &index); err != nil {
		r.log.Warn("schedulefile: malformed elderly index treated as empty", "path", r.elderlyPath, "err", err)
		return map[string][]scheduledomain.Schedule{}, nil
	}
	if index == nil {
		index = map[string][]scheduledomain.Schedule{}
	}
	return index, nil
}

// readDocument returns the raw document, or nil when the file does not exist.
func (r *FileRepository) readDocument(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return raw, nil
}

func writeDocument(path string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
