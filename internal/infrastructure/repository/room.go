// Package repository provides bounded in-memory implementations of the
// domain repositories for single-node deployments that run without MongoDB.
package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/virtualclassroom/backend/internal/domain"
)

const (
	DefaultRoomCapacity = 10_000
	DefaultIdleExpiry   = 24 * time.Hour
)

type roomEntry struct {
	room       domain.Room
	lastAccess time.Time
}

// InMemoryRoomRepository keeps room metadata in process memory, capped at a
// fixed capacity. Rooms untouched for longer than the idle expiry are evicted
// by a background sweep.
type InMemoryRoomRepository struct {
	mu       sync.RWMutex
	rooms    map[string]*roomEntry
	capacity int
	expiry   time.Duration

	stop      chan struct{}
	closeOnce sync.Once
}

func NewInMemoryRoomRepository(capacity int, idleExpiry time.Duration) *InMemoryRoomRepository {
	if capacity <= 0 {
		capacity = DefaultRoomCapacity
	}
	if idleExpiry <= 0 {
		idleExpiry = DefaultIdleExpiry
	}

	r := &InMemoryRoomRepository{
		rooms:    make(map[string]*roomEntry),
		capacity: capacity,
		expiry:   idleExpiry,
		stop:     make(chan struct{}),
	}

	go r.sweep()

	return r
}

func (r *InMemoryRoomRepository) Create(_ context.Context, room *domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[room.ID]; ok {
		return domain.ErrRoomAlreadyExists
	}
	if len(r.rooms) >= r.capacity {
		r.evictOldestLocked()
	}

	r.rooms[room.ID] = &roomEntry{room: *room, lastAccess: time.Now()}
	return nil
}

func (r *InMemoryRoomRepository) GetByID(_ context.Context, id string) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	entry.lastAccess = time.Now()
	room := entry.room
	return &room, nil
}

func (r *InMemoryRoomRepository) List(_ context.Context) ([]domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]domain.Room, 0, len(r.rooms))
	for _, entry := range r.rooms {
		rooms = append(rooms, entry.room)
	}

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})

	return rooms, nil
}

func (r *InMemoryRoomRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[id]; !ok {
		return domain.ErrRoomNotFound
	}

	delete(r.rooms, id)
	return nil
}

func (r *InMemoryRoomRepository) EnsureIndexes(_ context.Context) error {
	return nil
}

func (r *InMemoryRoomRepository) Close() {
	r.closeOnce.Do(func() {
		close(r.stop)
	})
}

func (r *InMemoryRoomRepository) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-r.expiry)

			r.mu.Lock()
			for id, entry := range r.rooms {
				if entry.lastAccess.Before(cutoff) {
					delete(r.rooms, id)
				}
			}
			r.mu.Unlock()
		case <-r.stop:
			return
		}
	}
}

func (r *InMemoryRoomRepository) evictOldestLocked() {
	var oldestID string
	var oldest time.Time

	for id, entry := range r.rooms {
		if oldestID == "" || entry.lastAccess.Before(oldest) {
			oldestID = id
			oldest = entry.lastAccess
		}
	}

	if oldestID != "" {
		delete(r.rooms, oldestID)
	}
}
