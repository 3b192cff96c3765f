package schedule

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Service owns all schedule operations. A single RWMutex serializes every
// read-modify-write sequence so concurrent mutations cannot lose updates on
// the shared documents.
type Service struct {
	mu   sync.RWMutex
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create stamps the authoring family member, assigns an id when none is
// present, and appends the schedule to both documents. State is unchanged on
// any failure.
func (s *Service) Create(ctx context.Context, sched Schedule, familyUserID string) (*Schedule, error) {
	if err := validate(sched); err != nil {
		return nil, err
	}
	if strings.TrimSpace(familyUserID) == "" {
		return nil, fmt.Errorf("%w: family user id is required", ErrInvalidSchedule)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load schedules: %w", err)
	}

	if sched.ID == "" {
		sched.ID = uuid.NewString()
	} else {
		for _, existing := range all {
			if existing.ID == sched.ID {
				return nil, ErrScheduleExists
			}
		}
	}
	sched.CreatedBy = familyUserID

	all = append(all, sched)
	if err := s.repo.Replace(ctx, all, buildIndex(all)); err != nil {
		return nil, fmt.Errorf("persist schedules: %w", err)
	}
	return &sched, nil
}

func (s *Service) ListAll(ctx context.Context) ([]Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repo.LoadAll(ctx)
}

func (s *Service) ListForElderly(ctx context.Context, elderlyID string) ([]Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repo.LoadForElderly(ctx, elderlyID)
}

// ListForFamilyMember returns the schedules the family member authored across
// the given elderly users, ascending by scheduled time. Elderly ids without
// schedules contribute nothing.
func (s *Service) ListForFamilyMember(ctx context.Context, familyUserID string, elderlyIDs []string) ([]Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Schedule, 0)
	for _, elderlyID := range elderlyIDs {
		schedules, err := s.repo.LoadForElderly(ctx, elderlyID)
		if err != nil {
			return nil, fmt.Errorf("load schedules for %s: %w", elderlyID, err)
		}
		for _, sched := range schedules {
			if sched.CreatedBy == familyUserID {
				result = append(result, sched)
			}
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ScheduledAt < result[j].ScheduledAt
	})
	return result, nil
}

// Update replaces the schedule identified by scheduleID. The id is immutable;
// the stored entry keeps scheduleID regardless of the incoming value. When the
// elderly user changed, the entry moves between index lists.
func (s *Service) Update(ctx context.Context, scheduleID string, updated Schedule) (*Schedule, error) {
	if err := validate(updated); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load schedules: %w", err)
	}

	pos := indexOf(all, scheduleID)
	if pos < 0 {
		return nil, ErrScheduleNotFound
	}

	updated.ID = scheduleID
	if updated.CreatedBy == "" {
		updated.CreatedBy = all[pos].CreatedBy
	}
	all[pos] = updated

	if err := s.repo.Replace(ctx, all, buildIndex(all)); err != nil {
		return nil, fmt.Errorf("persist schedules: %w", err)
	}
	return &updated, nil
}

// Delete removes the schedule from both documents. Collections are untouched
// when the id is unknown.
func (s *Service) Delete(ctx context.Context, scheduleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load schedules: %w", err)
	}

	pos := indexOf(all, scheduleID)
	if pos < 0 {
		return ErrScheduleNotFound
	}

	all = append(all[:pos], all[pos+1:]...)
	if err := s.repo.Replace(ctx, all, buildIndex(all)); err != nil {
		return fmt.Errorf("persist schedules: %w", err)
	}
	return nil
}

func (s *Service) MarkComplete(ctx context.Context, scheduleID string) (*Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load schedules: %w", err)
	}

	pos := indexOf(all, scheduleID)
	if pos < 0 {
		return nil, ErrScheduleNotFound
	}

	all[pos].IsCompleted = true
	completed := all[pos]

	if err := s.repo.Replace(ctx, all, buildIndex(all)); err != nil {
		return nil, fmt.Errorf("persist schedules: %w", err)
	}
	return &completed, nil
}

// ListUpcoming returns the elderly user's pending schedules with a scheduled
// time in the future, ascending, capped at limit.
func (s *Service) ListUpcoming(ctx context.Context, elderlyID string, limit int) ([]Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedules, err := s.repo.LoadForElderly(ctx, elderlyID)
	if err != nil {
		return nil, fmt.Errorf("load schedules for %s: %w", elderlyID, err)
	}

	now := s.now().Unix()
	upcoming := make([]Schedule, 0)
	for _, sched := range schedules {
		if !sched.IsCompleted && sched.ScheduledAt > now {
			upcoming = append(upcoming, sched)
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].ScheduledAt < upcoming[j].ScheduledAt
	})
	if limit > 0 && len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming, nil
}

// ElderlyIDs returns the distinct elderly users present in the schedule set.
func (s *Service) ElderlyIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load schedules: %w", err)
	}

	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, sched := range all {
		if _, ok := seen[sched.ElderlyID]; ok {
			continue
		}
		seen[sched.ElderlyID] = struct{}{}
		ids = append(ids, sched.ElderlyID)
	}
	sort.Strings(ids)
	return ids, nil
}

func validate(sched Schedule) error {
	if strings.TrimSpace(sched.ElderlyID) == "" {
		return fmt.Errorf("%w: elderly id is required", ErrInvalidSchedule)
	}
	if strings.TrimSpace(sched.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidSchedule)
	}
	if !sched.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidSchedule, sched.Category)
	}
	return nil
}

func indexOf(schedules []Schedule, id string) int {
	for i := range schedules {
		if schedules[i].ID == id {
			return i
		}
	}
	return -1
}

// buildIndex derives the per-elderly document from the flat collection, which
// keeps the two documents consistent by construction on every mutation.
func buildIndex(all []Schedule) map[string][]Schedule {
	index := make(map[string][]Schedule)
	for _, sched := range all {
		index[sched.ElderlyID] = append(index[sched.ElderlyID], sched)
	}
	return index
}
