package credential

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DhavalSuthar-24/arena/internal/common"
	"github.com/DhavalSuthar-24/arena/internal/keylock"
	"github.com/DhavalSuthar-24/arena/internal/match"
	"github.com/DhavalSuthar-24/arena/internal/roster"
	"github.com/DhavalSuthar-24/arena/internal/user"
)

var t0 = time.Date(2026, 8, 15, 19, 0, 0, 0, time.UTC)

type env struct {
	registry *match.Registry
	roster   *roster.Roster
	gate     *Gate
	match    *match.Match
}

// newEnv creates a match starting at t0+30m with user 1 joined.
func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	locks := keylock.New()
	rosterRepo := roster.NewMemoryRosterRepository()
	registry := match.NewRegistry(match.NewMemoryMatchRepository(), rosterRepo, locks, nil)
	rost := roster.NewRoster(rosterRepo, registry, locks, nil)

	m, err := registry.CreateMatch(ctx, match.Spec{
		Title:         "Duo Cup",
		GameType:      match.GameTypeDuo,
		MapName:       match.MapMiramar,
		MaxPlayers:    10,
		ScheduledTime: t0.Add(30 * time.Minute),
	}, t0)
	require.NoError(t, err)
	_, err = rost.Join(ctx, roster.JoinRequest{MatchID: m.ID, UserID: 1}, t0)
	require.NoError(t, err)

	return &env{registry: registry, roster: rost, gate: NewGate(registry, rost, nil), match: m}
}

func TestViewNotJoined(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.gate.SetCredential(context.Background(), user.RoleAdmin, e.match.ID, "R1", "P1", nil))

	v, err := e.gate.View(context.Background(), e.match.ID, 2, e.match.ScheduledTime)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotJoined, v.Outcome)
	assert.Empty(t, v.RoomPassword)
}

func TestViewPendingCountsDown(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.gate.SetCredential(ctx, user.RoleAdmin, e.match.ID, "R1", "P1", nil))

	// Cutoff is scheduled-15m; five minutes before that.
	v, err := e.gate.View(ctx, e.match.ID, 1, e.match.ScheduledTime.Add(-20*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, View{Outcome: OutcomePending, MinutesRemaining: 5}, v)

	v, err = e.gate.View(ctx, e.match.ID, 1, e.match.ScheduledTime.Add(-20*time.Minute+time.Second))
	require.NoError(t, err)
	assert.Equal(t, 5, v.MinutesRemaining, "partial minutes round up")
}

func TestViewVisibleAtCutoff(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.gate.SetCredential(ctx, user.RoleAdmin, e.match.ID, "R1", "P1", nil))

	v, err := e.gate.View(ctx, e.match.ID, 1, e.match.Cutoff())
	require.NoError(t, err)
	assert.Equal(t, View{Outcome: OutcomeVisible, RoomID: "R1", RoomPassword: "P1"}, v)
}

func TestViewPendingWithoutCredential(t *testing.T) {
	e := newEnv(t)

	v, err := e.gate.View(context.Background(), e.match.ID, 1, e.match.ScheduledTime)
	require.NoError(t, err)
	assert.Equal(t, View{Outcome: OutcomePending, MinutesRemaining: 0}, v)
}

func TestViewPendingWhenSwitchedOff(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	off := false
	require.NoError(t, e.gate.SetCredential(ctx, user.RoleAdmin, e.match.ID, "R1", "P1", &off))

	v, err := e.gate.View(ctx, e.match.ID, 1, e.match.ScheduledTime)
	require.NoError(t, err)
	assert.Equal(t, OutcomePending, v.Outcome)

	on := true
	require.NoError(t, e.gate.SetCredential(ctx, user.RoleAdmin, e.match.ID, "R2", "P2", &on))
	v, err = e.gate.View(ctx, e.match.ID, 1, e.match.ScheduledTime)
	require.NoError(t, err)
	assert.Equal(t, OutcomeVisible, v.Outcome)
	assert.Equal(t, "R2", v.RoomID)
}

func TestViewAfterExit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.gate.SetCredential(ctx, user.RoleAdmin, e.match.ID, "R1", "P1", nil))
	require.NoError(t, e.roster.Exit(ctx, e.match.ID, 1, t0))

	v, err := e.gate.View(ctx, e.match.ID, 1, e.match.ScheduledTime)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotJoined, v.Outcome)
}

func TestViewUnknownMatch(t *testing.T) {
	e := newEnv(t)
	_, err := e.gate.View(context.Background(), 500, 1, t0)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSetCredentialRequiresAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	err := e.gate.SetCredential(ctx, user.RoleUser, e.match.ID, "R1", "P1", nil)
	assert.ErrorIs(t, err, common.ErrPermission)

	err = e.gate.SetCredential(ctx, user.RoleAdmin, e.match.ID, " ", "P1", nil)
	assert.ErrorIs(t, err, common.ErrValidation)

	err = e.gate.SetCredential(ctx, user.RoleAdmin, 500, "R1", "P1", nil)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMinutesUntil(t *testing.T) {
	assert.Equal(t, 0, MinutesUntil(t0, t0))
	assert.Equal(t, 0, MinutesUntil(t0, t0.Add(time.Hour)))
	assert.Equal(t, 1, MinutesUntil(t0.Add(time.Second), t0))
	assert.Equal(t, 2, MinutesUntil(t0.Add(2*time.Minute), t0))
}
