package housekeeping

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DhavalSuthar-24/arena/internal/clock"
	"github.com/DhavalSuthar-24/arena/internal/keylock"
	"github.com/DhavalSuthar-24/arena/internal/match"
	"github.com/DhavalSuthar-24/arena/internal/roster"
	"github.com/DhavalSuthar-24/arena/internal/session"
	"github.com/DhavalSuthar-24/arena/internal/user"
)

var t0 = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type countingJobs struct {
	checkpoints atomic.Int32
	sweeps      atomic.Int32
	failSweep   bool
}

func (c *countingJobs) CheckpointStatuses(context.Context, time.Time) (int, error) {
	c.checkpoints.Add(1)
	return 0, nil
}

func (c *countingJobs) SweepExpiredBans(context.Context, time.Time) (int64, error) {
	c.sweeps.Add(1)
	if c.failSweep {
		return 0, errors.New("database is down")
	}
	return 0, nil
}

func TestRunOnceCheckpointsAndSweeps(t *testing.T) {
	ctx := context.Background()
	c := clock.NewFake(t0)

	repo := match.NewMemoryMatchRepository()
	rosterRepo := roster.NewMemoryRosterRepository()
	registry := match.NewRegistry(repo, rosterRepo, keylock.New(), nil)
	m, err := registry.CreateMatch(ctx, match.Spec{
		Title:         "Noon Solo",
		GameType:      match.GameTypeSolo,
		MapName:       match.MapSanhok,
		MaxPlayers:    10,
		ScheduledTime: t0.Add(time.Minute),
	}, t0)
	require.NoError(t, err)

	users := user.NewMemoryUserRepository()
	banned := &user.User{Username: "cheater", Email: "cheater@example.com"}
	require.NoError(t, users.CreateUser(ctx, banned))
	until := t0.Add(30 * time.Second)
	require.NoError(t, users.UpdateBan(ctx, banned.ID, true, &until))
	guard := session.NewGuard(nil, users, session.NewMemoryRevocations(c), 0, nil)

	s, err := New(registry, guard, c, time.Minute, nil)
	require.NoError(t, err)

	s.RunOnce(ctx)
	stored, err := repo.GetMatchByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, match.StatusUpcoming, stored.Status)

	c.Advance(time.Minute)
	s.RunOnce(ctx)
	stored, err = repo.GetMatchByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, match.StatusLive, stored.Status)

	u, err := users.GetUserByID(ctx, banned.ID)
	require.NoError(t, err)
	assert.False(t, u.Banned)
}

func TestStartRunsJobsOnInterval(t *testing.T) {
	jobs := &countingJobs{failSweep: true}
	s, err := New(jobs, jobs, clock.Real(), 20*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	defer func() { assert.NoError(t, s.Shutdown()) }()

	assert.Eventually(t, func() bool {
		return jobs.checkpoints.Load() >= 2 && jobs.sweeps.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}
