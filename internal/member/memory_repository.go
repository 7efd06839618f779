package member

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]Member
	byEmail map[string]string
}

// NewMemoryRepository builds an in-memory member store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{byID: make(map[string]Member), byEmail: make(map[string]string)}
}

func (r *memoryRepository) Create(_ context.Context, m Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[m.Email]; exists {
		return ErrDuplicateEmail
	}
	for _, existing := range r.byID {
		if existing.Nickname == m.Nickname {
			return ErrDuplicateNickname
		}
	}
	r.byID[m.ID] = m
	r.byEmail[m.Email] = m.ID
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return Member{}, ErrNotFound
	}
	return m, nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return Member{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *memoryRepository) ExistsByNickname(_ context.Context, nickname string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.byID {
		if m.Nickname == nickname {
			return true, nil
		}
	}
	return false, nil
}
