package match

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/DhavalSuthar-24/arena/internal/common"
	"github.com/DhavalSuthar-24/arena/internal/keylock"
)

// JoinedCounter reports how many participants currently hold a seat.
type JoinedCounter interface {
	CountJoined(ctx context.Context, matchID uint) (int64, error)
}

// Registry owns match records and is the single place a status changes.
// Every mutation of one match runs under that match's key in locks, the
// same keys the roster takes for join and exit.
type Registry struct {
	repo    MatchRepository
	counter JoinedCounter
	locks   *keylock.Map
	log     *slog.Logger
}

func NewRegistry(repo MatchRepository, counter JoinedCounter, locks *keylock.Map, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{repo: repo, counter: counter, locks: locks, log: logger.With("component", "match_registry")}
}

// GetMatch returns the match or a NotFound error.
func (r *Registry) GetMatch(ctx context.Context, id uint) (*Match, error) {
	m, err := r.repo.GetMatchByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load match %d: %w", id, err)
	}
	if m == nil {
		return nil, common.Errorf(common.KindNotFound, "match %d not found", id)
	}
	return m, nil
}

func (r *Registry) ListMatches(ctx context.Context) ([]Match, error) {
	matches, err := r.repo.ListMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return matches, nil
}

// CreateMatch validates spec and stores a new UPCOMING match.
func (r *Registry) CreateMatch(ctx context.Context, spec Spec, now time.Time) (*Match, error) {
	if err := validateTitle(spec.Title); err != nil {
		return nil, err
	}
	if err := validateKinds(spec.GameType, spec.MapName); err != nil {
		return nil, err
	}
	if spec.MaxPlayers < 1 {
		return nil, common.Errorf(common.KindValidation, "max players must be at least 1")
	}
	if err := validateMoney(spec.EntryFee, spec.PrizePerKill); err != nil {
		return nil, err
	}
	if !spec.ScheduledTime.After(now) {
		return nil, common.Errorf(common.KindValidation, "scheduled time must be in the future")
	}
	if err := validatePrizes(spec.RankPrizes); err != nil {
		return nil, err
	}

	m := &Match{
		Title:         strings.TrimSpace(spec.Title),
		Slug:          slug.Make(spec.Title),
		GameType:      spec.GameType,
		MapName:       spec.MapName,
		MaxPlayers:    spec.MaxPlayers,
		EntryFee:      spec.EntryFee,
		PrizePerKill:  spec.PrizePerKill,
		ScheduledTime: spec.ScheduledTime.UTC(),
		Status:        StatusUpcoming,
		RankPrizes:    append([]RankPrize(nil), spec.RankPrizes...),
	}
	m.CreatedAt, m.UpdatedAt = now, now
	if err := r.repo.CreateMatch(ctx, m); err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	r.log.Info("match created", "match_id", m.ID, "scheduled_time", m.ScheduledTime, "max_players", m.MaxPlayers)
	return m, nil
}

// UpdateMatch applies patch while the match is still UPCOMING at now.
// MaxPlayers may not drop below the seats already taken.
func (r *Registry) UpdateMatch(ctx context.Context, id uint, patch Patch, now time.Time) (*Match, error) {
	unlock := r.locks.Lock(id)
	defer unlock()

	m, err := r.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if st := m.EffectiveStatus(now); st != StatusUpcoming {
		return nil, common.Errorf(common.KindInvalidState, "match %d is %s and can no longer be edited", id, st)
	}

	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return nil, err
		}
		m.Title = strings.TrimSpace(*patch.Title)
		m.Slug = slug.Make(m.Title)
	}
	if patch.GameType != nil {
		m.GameType = *patch.GameType
	}
	if patch.MapName != nil {
		m.MapName = *patch.MapName
	}
	if err := validateKinds(m.GameType, m.MapName); err != nil {
		return nil, err
	}
	if patch.EntryFee != nil {
		m.EntryFee = *patch.EntryFee
	}
	if patch.PrizePerKill != nil {
		m.PrizePerKill = *patch.PrizePerKill
	}
	if err := validateMoney(m.EntryFee, m.PrizePerKill); err != nil {
		return nil, err
	}
	if patch.ScheduledTime != nil {
		if !patch.ScheduledTime.After(now) {
			return nil, common.Errorf(common.KindValidation, "scheduled time must be in the future")
		}
		m.ScheduledTime = patch.ScheduledTime.UTC()
	}
	if patch.RankPrizes != nil {
		if err := validatePrizes(*patch.RankPrizes); err != nil {
			return nil, err
		}
		m.RankPrizes = append([]RankPrize(nil), (*patch.RankPrizes)...)
	}
	if patch.MaxPlayers != nil {
		if *patch.MaxPlayers < 1 {
			return nil, common.Errorf(common.KindValidation, "max players must be at least 1")
		}
		joined, err := r.counter.CountJoined(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("count participants for match %d: %w", id, err)
		}
		if int64(*patch.MaxPlayers) < joined {
			return nil, common.Errorf(common.KindValidation,
				"max players cannot be lower than the %d players already joined", joined)
		}
		m.MaxPlayers = *patch.MaxPlayers
	}

	m.UpdatedAt = now
	if err := r.repo.UpdateMatch(ctx, m); err != nil {
		return nil, fmt.Errorf("update match %d: %w", id, err)
	}
	r.log.Info("match updated", "match_id", id)
	return r.GetMatch(ctx, id)
}

// DeleteMatch removes a match that has nobody joined, in any status.
func (r *Registry) DeleteMatch(ctx context.Context, id uint) error {
	unlock := r.locks.Lock(id)
	defer unlock()

	if _, err := r.GetMatch(ctx, id); err != nil {
		return err
	}
	joined, err := r.counter.CountJoined(ctx, id)
	if err != nil {
		return fmt.Errorf("count participants for match %d: %w", id, err)
	}
	if joined > 0 {
		return common.Errorf(common.KindConflict, "cannot delete match %d: %d players have joined", id, joined)
	}
	if err := r.repo.DeleteMatch(ctx, id); err != nil {
		return fmt.Errorf("delete match %d: %w", id, err)
	}
	r.log.Info("match deleted", "match_id", id)
	return nil
}

// SetStatus is the only path that writes a status. Allowed moves, judged
// from the effective status at now:
//
//	UPCOMING -> CANCELLED | FINISHED
//	UPCOMING -> LIVE      once now >= scheduled time
//	LIVE     -> FINISHED
//
// A match whose effective status is already LIVE may be set LIVE to
// persist the clock-driven transition.
func (r *Registry) SetStatus(ctx context.Context, id uint, to Status, now time.Time) (*Match, error) {
	unlock := r.locks.Lock(id)
	defer unlock()

	m, err := r.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	from := m.EffectiveStatus(now)
	if from.Terminal() {
		return nil, common.Errorf(common.KindInvalidState, "match %d is already %s", id, from)
	}
	if !allowed(from, to, m.Status) {
		if from == StatusUpcoming && to == StatusLive {
			return nil, common.Errorf(common.KindInvalidState, "match %d cannot go live before its scheduled time", id)
		}
		return nil, common.Errorf(common.KindInvalidState, "match %d cannot move from %s to %s", id, from, to)
	}

	ok, err := r.repo.CompareAndSetStatus(ctx, id, m.Status, to, now)
	if err != nil {
		return nil, fmt.Errorf("set status of match %d: %w", id, err)
	}
	if !ok {
		return nil, common.Errorf(common.KindInvalidState, "match %d changed status concurrently", id)
	}
	r.log.Info("match status changed", "match_id", id, "from", m.Status, "to", to)
	m.Status = to
	return m, nil
}

func allowed(from, to, stored Status) bool {
	switch from {
	case StatusUpcoming:
		return to == StatusCancelled || to == StatusFinished
	case StatusLive:
		return to == StatusFinished || (to == StatusLive && stored == StatusUpcoming)
	}
	return false
}

// CheckpointStatuses persists LIVE for every match the clock has already
// started. Reads never depend on it.
func (r *Registry) CheckpointStatuses(ctx context.Context, now time.Time) (int, error) {
	due, err := r.repo.ListDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list due matches: %w", err)
	}
	moved := 0
	for _, m := range due {
		if _, err := r.SetStatus(ctx, m.ID, StatusLive, now); err != nil {
			r.log.Warn("status checkpoint skipped", "match_id", m.ID, "error", err)
			continue
		}
		moved++
	}
	return moved, nil
}

// SetRoomCredential overwrites the room credential, whatever the status.
func (r *Registry) SetRoomCredential(ctx context.Context, id uint, roomID, roomPassword string) error {
	if _, err := r.GetMatch(ctx, id); err != nil {
		return err
	}
	if err := r.repo.SetRoomCredential(ctx, id, roomID, roomPassword); err != nil {
		return fmt.Errorf("set room credential for match %d: %w", id, err)
	}
	r.log.Info("room credential set", "match_id", id)
	return nil
}

func (r *Registry) SetRoomDetailsEnabled(ctx context.Context, id uint, enabled bool) error {
	if _, err := r.GetMatch(ctx, id); err != nil {
		return err
	}
	if err := r.repo.SetRoomDetailsDisabled(ctx, id, !enabled); err != nil {
		return fmt.Errorf("toggle room details for match %d: %w", id, err)
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return common.Errorf(common.KindValidation, "title is required")
	}
	return nil
}

func validateKinds(gt GameType, mn MapName) error {
	if !ValidGameType(string(gt)) {
		return common.Errorf(common.KindValidation, "unknown game type %q", gt)
	}
	if !ValidMapName(string(mn)) {
		return common.Errorf(common.KindValidation, "unknown map %q", mn)
	}
	return nil
}

func validateMoney(entryFee, prizePerKill float64) error {
	if entryFee < 0 {
		return common.Errorf(common.KindValidation, "entry fee cannot be negative")
	}
	if prizePerKill < 0 {
		return common.Errorf(common.KindValidation, "prize per kill cannot be negative")
	}
	return nil
}

func validatePrizes(prizes []RankPrize) error {
	seen := make(map[int]bool, len(prizes))
	for _, p := range prizes {
		if p.Rank < 1 {
			return common.Errorf(common.KindValidation, "rank must be at least 1")
		}
		if p.PrizeAmount < 0 {
			return common.Errorf(common.KindValidation, "prize for rank %d cannot be negative", p.Rank)
		}
		if seen[p.Rank] {
			return common.Errorf(common.KindValidation, "rank %d is listed more than once", p.Rank)
		}
		seen[p.Rank] = true
	}
	return nil
}
