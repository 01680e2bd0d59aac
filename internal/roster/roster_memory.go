package roster

import (
	"context"
	"sort"
	"sync"
	"time"
)

type seatKey struct {
	matchID uint
	userID  uint
}

// MemoryRosterRepository keeps participants in process memory.
type MemoryRosterRepository struct {
	mu     sync.RWMutex
	nextID uint
	rows   map[seatKey]*Participant
}

func NewMemoryRosterRepository() *MemoryRosterRepository {
	return &MemoryRosterRepository{rows: make(map[seatKey]*Participant)}
}

func (r *MemoryRosterRepository) GetParticipant(_ context.Context, matchID, userID uint) (*Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.rows[seatKey{matchID, userID}]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryRosterRepository) CountJoined(_ context.Context, matchID uint) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.countLocked(matchID), nil
}

func (r *MemoryRosterRepository) countLocked(matchID uint) int64 {
	var n int64
	for k, p := range r.rows {
		if k.matchID == matchID && p.Joined() {
			n++
		}
	}
	return n
}

func (r *MemoryRosterRepository) CountJoinedByMatch(_ context.Context) (map[uint]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[uint]int64)
	for k, p := range r.rows {
		if p.Joined() {
			counts[k.matchID]++
		}
	}
	return counts, nil
}

func (r *MemoryRosterRepository) ListJoined(_ context.Context, matchID uint) ([]Participant, error) {
	r.mu.RLock()
	players := make([]Participant, 0)
	for k, p := range r.rows {
		if k.matchID == matchID && p.Joined() {
			players = append(players, *p)
		}
	}
	r.mu.RUnlock()

	sort.Slice(players, func(i, j int) bool {
		if !players[i].JoinedAt.Equal(players[j].JoinedAt) {
			return players[i].JoinedAt.Before(players[j].JoinedAt)
		}
		return players[i].UserID < players[j].UserID
	})
	return players, nil
}

func (r *MemoryRosterRepository) JoinedMatchIDs(_ context.Context, userID uint) ([]uint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []uint
	for k, p := range r.rows {
		if k.userID == userID && p.Joined() {
			ids = append(ids, k.matchID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *MemoryRosterRepository) Reserve(_ context.Context, p *Participant, maxPlayers int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countLocked(p.MatchID) >= int64(maxPlayers) {
		return ErrSeatsFull
	}

	now := p.JoinedAt
	key := seatKey{p.MatchID, p.UserID}
	p.Status = StatusJoined
	p.ExitedAt = nil
	p.UpdatedAt = now
	if existing, ok := r.rows[key]; ok {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		p.Kills = existing.Kills
		p.PositionRank = existing.PositionRank
		p.PrizeMoney = existing.PrizeMoney
	} else {
		r.nextID++
		p.ID = r.nextID
		p.CreatedAt = now
	}
	stored := *p
	r.rows[key] = &stored
	return nil
}

func (r *MemoryRosterRepository) Release(_ context.Context, matchID, userID uint, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[seatKey{matchID, userID}]
	if !ok || !p.Joined() {
		return false, nil
	}
	exitedAt := at
	p.Status = StatusExited
	p.ExitedAt = &exitedAt
	p.UpdatedAt = at
	return true, nil
}
