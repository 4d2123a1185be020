package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps idempotency records in process memory. It backs the
// in-memory deployment and follows the same claim rules as DynamoStore.
type MemoryStore struct {
	mu        sync.Mutex
	records   map[string]Record
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(ttlWindow time.Duration) *MemoryStore {
	return &MemoryStore{
		records:   map[string]Record{},
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

func (m *MemoryStore) CreateIfNotExists(ctx context.Context, key, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc().UTC()
	if rec, ok := m.records[key]; ok && !rec.Expired(now) {
		if rec.Status != StatusFailed || rec.SessionID != sessionID {
			return false, nil
		}
	}
	m.records[key] = Record{
		IdempotencyKey: key,
		SessionID:      sessionID,
		Status:         StatusInProgress,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(m.ttlWindow).Unix(),
	}
	return true, nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok || rec.Expired(m.nowFunc()) {
		return nil, nil
	}
	return &rec, nil
}

func (m *MemoryStore) MarkDone(ctx context.Context, key, responseBody string, responseStatus int) error {
	m.update(key, func(r *Record) {
		r.Status = StatusDone
		r.ResponseBody = responseBody
		r.ResponseStatus = responseStatus
	})
	return nil
}

func (m *MemoryStore) MarkFailed(ctx context.Context, key, note string) error {
	m.update(key, func(r *Record) {
		r.Status = StatusFailed
		r.Note = note
	})
	return nil
}

func (m *MemoryStore) update(key string, fn func(*Record)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		return
	}
	fn(&rec)
	rec.UpdatedAt = m.nowFunc().UTC()
	m.records[key] = rec
}
