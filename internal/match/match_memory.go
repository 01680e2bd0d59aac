package match

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryMatchRepository is a process-local MatchRepository for the memory
// store driver and tests. Stored values are copied in and out.
type MemoryMatchRepository struct {
	mu      sync.RWMutex
	nextID  uint
	matches map[uint]*Match
}

func NewMemoryMatchRepository() *MemoryMatchRepository {
	return &MemoryMatchRepository{matches: make(map[uint]*Match)}
}

func (r *MemoryMatchRepository) CreateMatch(_ context.Context, m *Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m.ID = r.nextID
	for i := range m.RankPrizes {
		m.RankPrizes[i].ID = uint(i + 1)
		m.RankPrizes[i].MatchID = m.ID
	}
	r.matches[m.ID] = m.clone()
	return nil
}

func (r *MemoryMatchRepository) GetMatchByID(_ context.Context, id uint) (*Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, nil
	}
	return m.clone(), nil
}

func (r *MemoryMatchRepository) ListMatches(_ context.Context) ([]Match, error) {
	return r.collect(func(*Match) bool { return true }), nil
}

func (r *MemoryMatchRepository) ListDue(_ context.Context, now time.Time) ([]Match, error) {
	return r.collect(func(m *Match) bool {
		return m.Status == StatusUpcoming && !m.ScheduledTime.After(now)
	}), nil
}

func (r *MemoryMatchRepository) collect(keep func(*Match) bool) []Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Match, 0, len(r.matches))
	for _, m := range r.matches {
		if keep(m) {
			out = append(out, *m.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledTime.Equal(out[j].ScheduledTime) {
			return out[i].ScheduledTime.Before(out[j].ScheduledTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *MemoryMatchRepository) UpdateMatch(_ context.Context, m *Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.matches[m.ID]
	if !ok {
		return nil
	}
	stored.Title = m.Title
	stored.Slug = m.Slug
	stored.GameType = m.GameType
	stored.MapName = m.MapName
	stored.MaxPlayers = m.MaxPlayers
	stored.EntryFee = m.EntryFee
	stored.PrizePerKill = m.PrizePerKill
	stored.ScheduledTime = m.ScheduledTime
	stored.RankPrizes = append([]RankPrize(nil), m.RankPrizes...)
	for i := range stored.RankPrizes {
		stored.RankPrizes[i].ID = uint(i + 1)
		stored.RankPrizes[i].MatchID = m.ID
	}
	stored.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *MemoryMatchRepository) DeleteMatch(_ context.Context, id uint) error {
	r.mu.Lock()
	delete(r.matches, id)
	r.mu.Unlock()
	return nil
}

func (r *MemoryMatchRepository) CompareAndSetStatus(_ context.Context, id uint, from, to Status, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok || m.Status != from {
		return false, nil
	}
	m.Status = to
	m.UpdatedAt = at
	return true, nil
}

func (r *MemoryMatchRepository) SetRoomCredential(_ context.Context, id uint, roomID, roomPassword string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.matches[id]; ok {
		m.RoomID = roomID
		m.RoomPassword = roomPassword
	}
	return nil
}

func (r *MemoryMatchRepository) SetRoomDetailsDisabled(_ context.Context, id uint, disabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.matches[id]; ok {
		m.RoomDetailsDisabled = disabled
	}
	return nil
}
