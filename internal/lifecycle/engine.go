// Package lifecycle is the entry point for every external operation on
// matches, seats, room credentials and bans. Each operation reads the
// clock once and hands that instant to every component it calls.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DhavalSuthar-24/arena/internal/clock"
	"github.com/DhavalSuthar-24/arena/internal/credential"
	"github.com/DhavalSuthar-24/arena/internal/keylock"
	"github.com/DhavalSuthar-24/arena/internal/match"
	"github.com/DhavalSuthar-24/arena/internal/roster"
	"github.com/DhavalSuthar-24/arena/internal/session"
	"github.com/DhavalSuthar-24/arena/internal/user"
	"github.com/DhavalSuthar-24/arena/pkg/utils"
)

const generatedPasswordLength = 8

// Stores are the persistence backends the engine runs on.
type Stores struct {
	Matches     match.MatchRepository
	Roster      roster.RosterRepository
	Users       user.UserRepository
	Revocations session.Revocations
}

type Options struct {
	DefaultBan time.Duration
	Logger     *slog.Logger
}

type Engine struct {
	clock    clock.Clock
	guard    *session.Guard
	registry *match.Registry
	roster   *roster.Roster
	gate     *credential.Gate
	users    user.UserRepository
	log      *slog.Logger
}

// New wires the components over stores. Registry and roster share one set
// of per-match locks.
func New(stores Stores, tokens session.TokenResolver, clk clock.Clock, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	locks := keylock.New()
	registry := match.NewRegistry(stores.Matches, stores.Roster, locks, logger)
	rost := roster.NewRoster(stores.Roster, registry, locks, logger)
	return &Engine{
		clock:    clk,
		guard:    session.NewGuard(tokens, stores.Users, stores.Revocations, opts.DefaultBan, logger),
		registry: registry,
		roster:   rost,
		gate:     credential.NewGate(registry, rost, logger),
		users:    stores.Users,
		log:      logger.With("component", "lifecycle"),
	}
}

func (e *Engine) Registry() *match.Registry { return e.registry }
func (e *Engine) Guard() *session.Guard     { return e.guard }

// MatchSummary is a match as seen at one instant.
type MatchSummary struct {
	ID             uint              `json:"id"`
	Title          string            `json:"title"`
	Slug           string            `json:"slug"`
	GameType       match.GameType    `json:"game_type"`
	MapName        match.MapName     `json:"map_name"`
	MaxPlayers     int               `json:"max_players"`
	CurrentPlayers int64             `json:"current_players"`
	EntryFee       float64           `json:"entry_fee"`
	PrizePerKill   float64           `json:"prize_per_kill"`
	ScheduledTime  time.Time         `json:"scheduled_time"`
	ExitDeadline   time.Time         `json:"exit_deadline"`
	Status         match.Status      `json:"status"`
	RankPrizes     []match.RankPrize `json:"rank_prizes"`
	Joined         bool              `json:"joined"`
}

// MatchDetail adds the caller's credential view. When that view cannot be
// computed the rest of the detail is still returned with
// RoomDetailsUnavailable set.
type MatchDetail struct {
	MatchSummary
	Room                   *credential.View `json:"room,omitempty"`
	RoomDetailsUnavailable bool             `json:"room_details_unavailable,omitempty"`
}

func summarize(m *match.Match, now time.Time, current int64, joined bool) MatchSummary {
	prizes := m.RankPrizes
	if prizes == nil {
		prizes = []match.RankPrize{}
	}
	return MatchSummary{
		ID:             m.ID,
		Title:          m.Title,
		Slug:           m.Slug,
		GameType:       m.GameType,
		MapName:        m.MapName,
		MaxPlayers:     m.MaxPlayers,
		CurrentPlayers: current,
		EntryFee:       m.EntryFee,
		PrizePerKill:   m.PrizePerKill,
		ScheduledTime:  m.ScheduledTime,
		ExitDeadline:   m.Cutoff(),
		Status:         m.EffectiveStatus(now),
		RankPrizes:     prizes,
		Joined:         joined,
	}
}

// viewer authorizes token when one is given; an empty token is anonymous.
func (e *Engine) viewer(ctx context.Context, token string, now time.Time) (*session.Identity, error) {
	if token == "" {
		return nil, nil
	}
	id, err := e.guard.Authorize(ctx, token, now)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (e *Engine) summary(ctx context.Context, m *match.Match, now time.Time) (MatchSummary, error) {
	current, err := e.roster.CountJoined(ctx, m.ID)
	if err != nil {
		return MatchSummary{}, fmt.Errorf("count players of match %d: %w", m.ID, err)
	}
	return summarize(m, now, current, false), nil
}

// ListMatches returns every match with its effective status and, for an
// authenticated caller, whether they hold a seat.
func (e *Engine) ListMatches(ctx context.Context, token string) ([]MatchSummary, error) {
	now := e.clock.Now()
	viewer, err := e.viewer(ctx, token, now)
	if err != nil {
		return nil, err
	}
	matches, err := e.registry.ListMatches(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := e.roster.CountJoinedByMatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("count players: %w", err)
	}
	joined := map[uint]bool{}
	if viewer != nil {
		if joined, err = e.roster.JoinedMatches(ctx, viewer.UserID); err != nil {
			return nil, err
		}
	}

	out := make([]MatchSummary, 0, len(matches))
	for i := range matches {
		m := &matches[i]
		out = append(out, summarize(m, now, counts[m.ID], joined[m.ID]))
	}
	return out, nil
}

// GetMatch returns one match. Authenticated callers also get their
// credential view; a failure there degrades to RoomDetailsUnavailable.
func (e *Engine) GetMatch(ctx context.Context, token string, id uint) (*MatchDetail, error) {
	now := e.clock.Now()
	viewer, err := e.viewer(ctx, token, now)
	if err != nil {
		return nil, err
	}
	m, err := e.registry.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	s, err := e.summary(ctx, m, now)
	if err != nil {
		return nil, err
	}
	detail := &MatchDetail{MatchSummary: s}
	if viewer == nil {
		return detail, nil
	}

	// Membership is read through the gate so a failure there only costs
	// the room section.
	view, err := e.gate.View(ctx, id, viewer.UserID, now)
	if err != nil {
		e.log.Warn("room details unavailable", "match_id", id, "user_id", viewer.UserID, "error", err)
		detail.RoomDetailsUnavailable = true
		return detail, nil
	}
	detail.Joined = view.Outcome != credential.OutcomeNotJoined
	detail.Room = &view
	return detail, nil
}

// ListPlayers is public; it returns JOINED participants in join order.
func (e *Engine) ListPlayers(ctx context.Context, id uint) ([]roster.Participant, error) {
	return e.roster.ListPlayers(ctx, id)
}

// ViewDetails is the credential read for the authenticated caller.
func (e *Engine) ViewDetails(ctx context.Context, token string, id uint) (credential.View, error) {
	now := e.clock.Now()
	caller, err := e.guard.Authorize(ctx, token, now)
	if err != nil {
		return credential.View{}, err
	}
	return e.gate.View(ctx, id, caller.UserID, now)
}

func (e *Engine) Join(ctx context.Context, token string, id uint, inGameName string) (*roster.Participant, error) {
	now := e.clock.Now()
	caller, err := e.guard.Authorize(ctx, token, now)
	if err != nil {
		return nil, err
	}
	return e.roster.Join(ctx, roster.JoinRequest{
		MatchID:    id,
		UserID:     caller.UserID,
		Username:   caller.Username,
		InGameName: inGameName,
	}, now)
}

func (e *Engine) Exit(ctx context.Context, token string, id uint) error {
	now := e.clock.Now()
	caller, err := e.guard.Authorize(ctx, token, now)
	if err != nil {
		return err
	}
	return e.roster.Exit(ctx, id, caller.UserID, now)
}

func (e *Engine) CreateMatch(ctx context.Context, token string, spec match.Spec) (*MatchSummary, error) {
	now := e.clock.Now()
	if _, err := e.guard.Authorize(ctx, token, now, user.RoleAdmin); err != nil {
		return nil, err
	}
	m, err := e.registry.CreateMatch(ctx, spec, now)
	if err != nil {
		return nil, err
	}
	s := summarize(m, now, 0, false)
	return &s, nil
}

func (e *Engine) UpdateMatch(ctx context.Context, token string, id uint, patch match.Patch) (*MatchSummary, error) {
	now := e.clock.Now()
	if _, err := e.guard.Authorize(ctx, token, now, user.RoleAdmin); err != nil {
		return nil, err
	}
	m, err := e.registry.UpdateMatch(ctx, id, patch, now)
	if err != nil {
		return nil, err
	}
	s, err := e.summary(ctx, m, now)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (e *Engine) DeleteMatch(ctx context.Context, token string, id uint) error {
	now := e.clock.Now()
	if _, err := e.guard.Authorize(ctx, token, now, user.RoleAdmin); err != nil {
		return err
	}
	return e.registry.DeleteMatch(ctx, id)
}

// SetStatus is the admin cancel/finish path.
func (e *Engine) SetStatus(ctx context.Context, token string, id uint, status match.Status) (*MatchSummary, error) {
	now := e.clock.Now()
	if _, err := e.guard.Authorize(ctx, token, now, user.RoleAdmin); err != nil {
		return nil, err
	}
	m, err := e.registry.SetStatus(ctx, id, status, now)
	if err != nil {
		return nil, err
	}
	s, err := e.summary(ctx, m, now)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// RoomDetails is the admin input and output of SetRoomDetails.
type RoomDetails struct {
	RoomID       string `json:"room_id"`
	RoomPassword string `json:"room_password"`
	Enabled      *bool  `json:"enabled,omitempty"`
}

// SetRoomDetails stores a room credential, generating a password when none
// is given.
func (e *Engine) SetRoomDetails(ctx context.Context, token string, id uint, in RoomDetails) (RoomDetails, error) {
	now := e.clock.Now()
	caller, err := e.guard.Authorize(ctx, token, now)
	if err != nil {
		return RoomDetails{}, err
	}
	if in.RoomPassword == "" && caller.IsAdmin() {
		if in.RoomPassword, err = utils.GenerateRoomPassword(generatedPasswordLength); err != nil {
			return RoomDetails{}, fmt.Errorf("generate room password: %w", err)
		}
	}
	if err := e.gate.SetCredential(ctx, caller.Role, id, in.RoomID, in.RoomPassword, in.Enabled); err != nil {
		return RoomDetails{}, err
	}
	return in, nil
}

// Ban applies an admin ban action to userID.
func (e *Engine) Ban(ctx context.Context, token string, userID uint, req session.BanRequest) (user.UserResponse, error) {
	now := e.clock.Now()
	caller, err := e.guard.Authorize(ctx, token, now)
	if err != nil {
		return user.UserResponse{}, err
	}
	u, err := e.guard.Ban(ctx, caller, userID, req, now)
	if err != nil {
		return user.UserResponse{}, err
	}
	return user.FilterUserRecord(u, now), nil
}

func (e *Engine) ListUsers(ctx context.Context, token string) ([]user.UserResponse, error) {
	now := e.clock.Now()
	if _, err := e.guard.Authorize(ctx, token, now, user.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := e.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]user.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, user.FilterUserRecord(&users[i], now))
	}
	return out, nil
}

// Authenticate checks token at the current time. With roles the caller
// must hold one of them.
func (e *Engine) Authenticate(ctx context.Context, token string, roles ...user.Role) (session.Identity, error) {
	return e.guard.Authorize(ctx, token, e.clock.Now(), roles...)
}

// CheckSession is the polling endpoint clients hit every
// session.RevalidationInterval.
func (e *Engine) CheckSession(ctx context.Context, token string) (session.Identity, error) {
	return e.guard.Authorize(ctx, token, e.clock.Now())
}

// SignOut revokes the presented token.
func (e *Engine) SignOut(ctx context.Context, token string) error {
	now := e.clock.Now()
	caller, err := e.guard.Authorize(ctx, token, now)
	if err != nil {
		return err
	}
	return e.guard.SignOut(ctx, caller, now)
}
