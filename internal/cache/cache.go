// Package cache implements the two-tier response cache: a bounded in-memory
// table in front of a persisted key-value store, with TTL-based expiry.
// The cache is a best-effort optimization over the authoritative repositories;
// storage failures degrade to a miss and are never surfaced to callers.
package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"care-companion-go/pkg/logger"
)

type Bucket string

const (
	BucketConversations Bucket = "conversations"
	BucketMemoirs       Bucket = "memoirs"
	BucketMessages      Bucket = "messages"
)

const (
	DefaultTTL      = 5 * time.Minute
	DefaultCapacity = 100
)

type Options struct {
	TTL      time.Duration
	Capacity int
}

type entry struct {
	payload   []byte
	createdAt time.Time
}

type Manager struct {
	mu       sync.Mutex
	items    map[string]entry
	store    Store
	ttl      time.Duration
	capacity int
	log      logger.Logger
	now      func() time.Time
}

type Status struct {
	Entries  int           `json:"entries"`
	Capacity int           `json:"capacity"`
	TTL      time.Duration `json:"ttl"`
	Keys     []string      `json:"keys"`
}

func New(store Store, opts Options, log logger.Logger) *Manager {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Manager{
		items:    make(map[string]entry),
		store:    store,
		ttl:      ttl,
		capacity: capacity,
		log:      log,
		now:      time.Now,
	}
}

// Key derives the persisted-store key for a bucket and scope, e.g.
// "conversations_<userID>" or "messages_<conversationID>".
func Key(bucket Bucket, scopeID string) string {
	return string(bucket) + "_" + scopeID
}

// Put stores payload under (bucket, scopeID) in both tiers. Payload must be a
// JSON document. Persisted-tier failures are logged and swallowed.
func (m *Manager) Put(ctx context.Context, bucket Bucket, scopeID string, payload []byte) {
	key := Key(bucket, scopeID)
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = entry{payload: clone(payload), createdAt: now}

	if err := m.store.Set(ctx, key, payload, now); err != nil {
		m.log.InternalError("cache: persist failed", err, "key", key)
	}

	m.evictOldest()
}

// Get returns the cached payload for (bucket, scopeID), or false on a miss.
// A fresh persisted entry is promoted into memory; an expired persisted entry
// is purged on this access.
func (m *Manager) Get(ctx context.Context, bucket Bucket, scopeID string) ([]byte, bool) {
	key := Key(bucket, scopeID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if item, ok := m.items[key]; ok {
		if !m.expired(item.createdAt) {
			return clone(item.payload), true
		}
		delete(m.items, key)
	}

	payload, createdAt, err := m.store.Get(ctx, key)
	if err != nil {
		if err != ErrNoEntry {
			m.log.InternalError("cache: persisted read failed", err, "key", key)
		}
		return nil, false
	}

	if m.expired(createdAt) {
		if err := m.store.Delete(ctx, key); err != nil {
			m.log.InternalError("cache: purge of expired entry failed", err, "key", key)
		}
		return nil, false
	}

	m.items[key] = entry{payload: clone(payload), createdAt: createdAt}
	return clone(payload), true
}

// Invalidate removes (bucket, scopeID) from both tiers.
func (m *Manager) Invalidate(ctx context.Context, bucket Bucket, scopeID string) {
	key := Key(bucket, scopeID)

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	if err := m.store.Delete(ctx, key); err != nil {
		m.log.InternalError("cache: invalidate failed", err, "key", key)
	}
}

// InvalidateAll clears both tiers entirely.
func (m *Manager) InvalidateAll(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make(map[string]entry)
	if err := m.store.Clear(ctx); err != nil {
		m.log.InternalError("cache: clear failed", err)
	}
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.items))
	for key := range m.items {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return Status{
		Entries:  len(m.items),
		Capacity: m.capacity,
		TTL:      m.ttl,
		Keys:     keys,
	}
}

func (m *Manager) expired(createdAt time.Time) bool {
	return m.now().Sub(createdAt) > m.ttl
}

// evictOldest trims the in-memory tier to capacity, dropping entries with the
// oldest createdAt first. The persisted tier keeps its copies until TTL expiry.
// Caller must hold m.mu.
func (m *Manager) evictOldest() {
	if len(m.items) <= m.capacity {
		return
	}

	type aged struct {
		key       string
		createdAt time.Time
	}
	entries := make([]aged, 0, len(m.items))
	for key, item := range m.items {
		entries = append(entries, aged{key: key, createdAt: item.createdAt})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].createdAt.Before(entries[j].createdAt)
	})

	for _, candidate := range entries {
		if len(m.items) <= m.capacity {
			break
		}
		delete(m.items, candidate.key)
	}
}

func clone(payload []byte) []byte {
	if payload == nil {
		return nil
	}
	cloned := make([]byte, len(payload))
	copy(cloned, payload)
	return cloned
}
