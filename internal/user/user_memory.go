package user

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryUserRepository struct {
	mu     sync.RWMutex
	nextID uint
	users  map[uint]*User
}

// NewMemoryUserRepository returns a process-local UserRepository, used by
// the memory store driver and by tests.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: make(map[uint]*User)}
}

func (r *memoryUserRepository) CreateUser(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("duplicate email %q", u.Email)
		}
		if existing.Username == u.Username {
			return fmt.Errorf("duplicate username %q", u.Username)
		}
	}
	r.nextID++
	u.ID = r.nextID
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	stored := *u
	r.users[u.ID] = &stored
	return nil
}

func (r *memoryUserRepository) find(match func(*User) bool) *User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp
		}
	}
	return nil
}

func (r *memoryUserRepository) GetUserByID(_ context.Context, id uint) (*User, error) {
	return r.find(func(u *User) bool { return u.ID == id }), nil
}

func (r *memoryUserRepository) GetUserByEmail(_ context.Context, email string) (*User, error) {
	return r.find(func(u *User) bool { return u.Email == email }), nil
}

func (r *memoryUserRepository) GetUserByUsername(_ context.Context, username string) (*User, error) {
	return r.find(func(u *User) bool { return u.Username == username }), nil
}

func (r *memoryUserRepository) ListUsers(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *memoryUserRepository) UpdateBan(_ context.Context, id uint, banned bool, expiresAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	u.Banned = banned
	if expiresAt != nil {
		t := *expiresAt
		u.BanExpiresAt = &t
	} else {
		u.BanExpiresAt = nil
	}
	return nil
}

func (r *memoryUserRepository) ClearExpiredBans(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var cleared int64
	for _, u := range r.users {
		if u.BanExpired(now) {
			u.Banned = false
			u.BanExpiresAt = nil
			cleared++
		}
	}
	return cleared, nil
}

func (r *memoryUserRepository) ClearExpiredBan(_ context.Context, id uint, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || !u.BanExpired(now) {
		return false, nil
	}
	u.Banned = false
	u.BanExpiresAt = nil
	return true, nil
}
