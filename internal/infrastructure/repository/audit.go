package repository

import (
	"context"
	"sync"
	"time"

	"github.com/virtualclassroom/backend/internal/domain"
)

const DefaultAuditCapacity = 50_000

// InMemoryAuditRepository is a ring of recent presence events, newest last.
// Once full it drops the oldest half rather than tracking exact LRU order.
type InMemoryAuditRepository struct {
	mu       sync.RWMutex
	entries  []domain.SignalAuditLog
	capacity int
}

func NewInMemoryAuditRepository(capacity int) *InMemoryAuditRepository {
	if capacity <= 0 {
		capacity = DefaultAuditCapacity
	}

	return &InMemoryAuditRepository{
		entries:  make([]domain.SignalAuditLog, 0, 256),
		capacity: capacity,
	}
}

func (r *InMemoryAuditRepository) Log(_ context.Context, entry *domain.SignalAuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) >= r.capacity {
		half := len(r.entries) / 2
		r.entries = append(r.entries[:0], r.entries[half:]...)
	}

	r.entries = append(r.entries, *entry)
	return nil
}

func (r *InMemoryAuditRepository) GetByRoomID(_ context.Context, roomID string, limit int) ([]domain.SignalAuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var logs []domain.SignalAuditLog
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].RoomID != roomID {
			continue
		}
		logs = append(logs, r.entries[i])
		if limit > 0 && len(logs) >= limit {
			break
		}
	}

	return logs, nil
}

func (r *InMemoryAuditRepository) GetByEventType(_ context.Context, eventType domain.SignalEventType, from, to time.Time) ([]domain.SignalAuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var logs []domain.SignalAuditLog
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.EventType != eventType {
			continue
		}
		if e.Timestamp.Before(from) || e.Timestamp.After(to) {
			continue
		}
		logs = append(logs, e)
	}

	return logs, nil
}

func (r *InMemoryAuditRepository) DeleteOlderThan(_ context.Context, before time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	for _, e := range r.entries {
		if !e.Timestamp.Before(before) {
			kept = append(kept, e)
		}
	}
	r.entries = kept

	return nil
}

func (r *InMemoryAuditRepository) EnsureIndexes(_ context.Context) error {
	return nil
}
