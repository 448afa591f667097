package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bsc-kit/scorecard-api/internal/domain"
)

// memoryUserRepository keeps credentials in process memory. It backs
// DSN-less runs and tests.
type memoryUserRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]domain.User
}

// NewMemoryUserRepository returns an empty in-memory credential store.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: make(map[int64]domain.User)}
}

func (r *memoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(user.Email, 0) {
		return ErrDuplicateEmail
	}
	r.nextID++
	now := time.Now().UTC()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return ErrDuplicateEmail
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memoryUserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *memoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryUserRepository) List(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// emailTaken must be called with the lock held.
func (r *memoryUserRepository) emailTaken(email string, exceptID int64) bool {
	for id, user := range r.users {
		if id != exceptID && user.Email == email {
			return true
		}
	}
	return false
}
