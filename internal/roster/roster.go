package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DhavalSuthar-24/arena/internal/common"
	"github.com/DhavalSuthar-24/arena/internal/keylock"
	"github.com/DhavalSuthar-24/arena/internal/match"
)

// MatchSource resolves a match or fails with a NotFound error.
type MatchSource interface {
	GetMatch(ctx context.Context, id uint) (*match.Match, error)
}

// Roster manages seats. Join and Exit for one match are serialized on the
// match's key; reads take no lock.
type Roster struct {
	repo    RosterRepository
	matches MatchSource
	locks   *keylock.Map
	log     *slog.Logger
}

func NewRoster(repo RosterRepository, matches MatchSource, locks *keylock.Map, logger *slog.Logger) *Roster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Roster{repo: repo, matches: matches, locks: locks, log: logger.With("component", "roster")}
}

// JoinRequest identifies who takes the seat.
type JoinRequest struct {
	MatchID    uint
	UserID     uint
	Username   string
	InGameName string
}

// Join takes a seat for the user. Failures, in order: NotFound,
// InvalidState (not UPCOMING at now), AlreadyJoined, Capacity.
func (r *Roster) Join(ctx context.Context, req JoinRequest, now time.Time) (*Participant, error) {
	unlock := r.locks.Lock(req.MatchID)
	defer unlock()

	m, err := r.matches.GetMatch(ctx, req.MatchID)
	if err != nil {
		return nil, err
	}
	if st := m.EffectiveStatus(now); st != match.StatusUpcoming {
		return nil, common.Errorf(common.KindInvalidState, "match %d is %s and no longer open for joining", m.ID, st)
	}

	existing, err := r.repo.GetParticipant(ctx, req.MatchID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load participant: %w", err)
	}
	if existing != nil && existing.Joined() {
		return nil, common.Errorf(common.KindAlreadyJoined, "you have already joined match %d", m.ID)
	}

	p := &Participant{
		MatchID:    req.MatchID,
		UserID:     req.UserID,
		Username:   req.Username,
		InGameName: req.InGameName,
		JoinedAt:   now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.repo.Reserve(ctx, p, m.MaxPlayers); err != nil {
		if errors.Is(err, ErrSeatsFull) {
			return nil, common.Errorf(common.KindCapacity, "match %d is full (%d players)", m.ID, m.MaxPlayers)
		}
		return nil, fmt.Errorf("reserve seat in match %d: %w", m.ID, err)
	}
	r.log.Info("player joined", "match_id", m.ID, "user_id", req.UserID, "rejoin", existing != nil)
	return p, nil
}

// Exit frees the user's seat. Failures, in order: NotFound, NotJoined,
// WindowClosed (now at or after scheduled time minus the cutoff lead).
func (r *Roster) Exit(ctx context.Context, matchID, userID uint, now time.Time) error {
	unlock := r.locks.Lock(matchID)
	defer unlock()

	m, err := r.matches.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	p, err := r.repo.GetParticipant(ctx, matchID, userID)
	if err != nil {
		return fmt.Errorf("load participant: %w", err)
	}
	if p == nil || !p.Joined() {
		return common.Errorf(common.KindNotJoined, "you have not joined match %d", matchID)
	}
	if !now.Before(m.Cutoff()) {
		return common.Errorf(common.KindWindowClosed,
			"cannot exit match %d within %d minutes of its start", matchID, int(match.CutoffLead/time.Minute))
	}

	released, err := r.repo.Release(ctx, matchID, userID, now)
	if err != nil {
		return fmt.Errorf("release seat in match %d: %w", matchID, err)
	}
	if !released {
		return common.Errorf(common.KindNotJoined, "you have not joined match %d", matchID)
	}
	r.log.Info("player exited", "match_id", matchID, "user_id", userID)
	return nil
}

// ListPlayers returns the JOINED participants of an existing match in join
// order.
func (r *Roster) ListPlayers(ctx context.Context, matchID uint) ([]Participant, error) {
	if _, err := r.matches.GetMatch(ctx, matchID); err != nil {
		return nil, err
	}
	players, err := r.repo.ListJoined(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("list players of match %d: %w", matchID, err)
	}
	return players, nil
}

func (r *Roster) IsJoined(ctx context.Context, matchID, userID uint) (bool, error) {
	p, err := r.repo.GetParticipant(ctx, matchID, userID)
	if err != nil {
		return false, fmt.Errorf("load participant: %w", err)
	}
	return p != nil && p.Joined(), nil
}

func (r *Roster) CountJoined(ctx context.Context, matchID uint) (int64, error) {
	return r.repo.CountJoined(ctx, matchID)
}

func (r *Roster) CountJoinedByMatch(ctx context.Context) (map[uint]int64, error) {
	return r.repo.CountJoinedByMatch(ctx)
}

// JoinedMatches returns the set of match ids the user holds a seat in.
func (r *Roster) JoinedMatches(ctx context.Context, userID uint) (map[uint]bool, error) {
	ids, err := r.repo.JoinedMatchIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list joined matches: %w", err)
	}
	joined := make(map[uint]bool, len(ids))
	for _, id := range ids {
		joined[id] = true
	}
	return joined, nil
}
