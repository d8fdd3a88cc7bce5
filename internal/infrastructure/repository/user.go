package repository

import (
	"context"
	"sync"

	"github.com/virtualclassroom/backend/internal/domain"
)

// InMemoryUserRepository keeps accounts in process memory. Accounts are never
// evicted; a deployment that outgrows this should switch to MongoDB.
type InMemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
	byName  map[string]string
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
		byName:  make(map[string]string),
	}
}

func (r *InMemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return domain.ErrEmailTaken
	}
	if _, ok := r.byName[user.Username]; ok {
		return domain.ErrUsernameTaken
	}

	r.byID[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	r.byName[user.Username] = user.ID

	return nil
}

func (r *InMemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	user := r.byID[id]
	return &user, nil
}

func (r *InMemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	return &user, nil
}

func (r *InMemoryUserRepository) EnsureIndexes(_ context.Context) error {
	return nil
}
