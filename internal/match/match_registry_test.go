package match

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DhavalSuthar-24/arena/internal/common"
	"github.com/DhavalSuthar-24/arena/internal/keylock"
)

var t0 = time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)

type stubCounter struct {
	mu     sync.Mutex
	joined map[uint]int64
}

func (s *stubCounter) CountJoined(_ context.Context, matchID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.joined[matchID], nil
}

func (s *stubCounter) set(matchID uint, n int64) {
	s.mu.Lock()
	s.joined[matchID] = n
	s.mu.Unlock()
}

func newRegistry() (*Registry, *stubCounter) {
	counter := &stubCounter{joined: map[uint]int64{}}
	return NewRegistry(NewMemoryMatchRepository(), counter, keylock.New(), nil), counter
}

func validSpec() Spec {
	return Spec{
		Title:         "Sunday Squad Scrim",
		GameType:      GameTypeSquad,
		MapName:       MapErangel,
		MaxPlayers:    4,
		EntryFee:      20,
		PrizePerKill:  5,
		ScheduledTime: t0.Add(2 * time.Hour),
		RankPrizes:    []RankPrize{{Rank: 1, PrizeAmount: 500}, {Rank: 2, PrizeAmount: 200}},
	}
}

func TestEffectiveStatus(t *testing.T) {
	m := &Match{Status: StatusUpcoming, ScheduledTime: t0}

	assert.Equal(t, StatusUpcoming, m.EffectiveStatus(t0.Add(-time.Second)))
	assert.Equal(t, StatusLive, m.EffectiveStatus(t0))
	assert.Equal(t, StatusLive, m.EffectiveStatus(t0.Add(time.Hour)))

	m.Status = StatusCancelled
	assert.Equal(t, StatusCancelled, m.EffectiveStatus(t0.Add(time.Hour)))
}

func TestCreateMatch(t *testing.T) {
	reg, _ := newRegistry()
	ctx := context.Background()

	m, err := reg.CreateMatch(ctx, validSpec(), t0)
	require.NoError(t, err)
	assert.NotZero(t, m.ID)
	assert.Equal(t, StatusUpcoming, m.Status)
	assert.Equal(t, "sunday-squad-scrim", m.Slug)
	assert.Len(t, m.RankPrizes, 2)
	assert.Equal(t, t0, m.CreatedAt)
}

func TestTimestampsFollowOperationTime(t *testing.T) {
	reg, _ := newRegistry()
	ctx := context.Background()

	m, err := reg.CreateMatch(ctx, validSpec(), t0)
	require.NoError(t, err)

	title := "Renamed"
	editedAt := t0.Add(time.Minute)
	updated, err := reg.UpdateMatch(ctx, m.ID, Patch{Title: &title}, editedAt)
	require.NoError(t, err)
	assert.Equal(t, t0, updated.CreatedAt)
	assert.Equal(t, editedAt, updated.UpdatedAt)

	cancelledAt := t0.Add(2 * time.Minute)
	_, err = reg.SetStatus(ctx, m.ID, StatusCancelled, cancelledAt)
	require.NoError(t, err)
	stored, err := reg.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, cancelledAt, stored.UpdatedAt)
}

func TestCreateMatchValidation(t *testing.T) {
	reg, _ := newRegistry()
	ctx := context.Background()

	cases := map[string]func(*Spec){
		"past time":        func(s *Spec) { s.ScheduledTime = t0.Add(-time.Minute) },
		"time equal now":   func(s *Spec) { s.ScheduledTime = t0 },
		"zero capacity":    func(s *Spec) { s.MaxPlayers = 0 },
		"duplicate rank":   func(s *Spec) { s.RankPrizes = []RankPrize{{Rank: 1}, {Rank: 1}} },
		"unknown map":      func(s *Spec) { s.MapName = "NUSA" },
		"negative fee":     func(s *Spec) { s.EntryFee = -1 },
		"blank title":      func(s *Spec) { s.Title = "  " },
		"unknown gametype": func(s *Spec) { s.GameType = "TRIO" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			spec := validSpec()
			mutate(&spec)
			_, err := reg.CreateMatch(ctx, spec, t0)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestUpdateMatchOnlyWhileUpcoming(t *testing.T) {
	reg, _ := newRegistry()
	ctx := context.Background()
	m, err := reg.CreateMatch(ctx, validSpec(), t0)
	require.NoError(t, err)

	title := "Renamed Scrim"
	updated, err := reg.UpdateMatch(ctx, m.ID, Patch{Title: &title}, t0)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Scrim", updated.Title)
	assert.Equal(t, "renamed-scrim", updated.Slug)

	// Past the scheduled time the match is effectively LIVE.
	_, err = reg.UpdateMatch(ctx, m.ID, Patch{Title: &title}, m.ScheduledTime)
	assert.ErrorIs(t, err, common.ErrInvalidState)
}

func TestUpdateMatchCapacityFloor(t *testing.T) {
	reg, counter := newRegistry()
	ctx := context.Background()
	m, err := reg.CreateMatch(ctx, validSpec(), t0)
	require.NoError(t, err)
	counter.set(m.ID, 3)

	two := 2
	_, err = reg.UpdateMatch(ctx, m.ID, Patch{MaxPlayers: &two}, t0)
	assert.ErrorIs(t, err, common.ErrValidation)

	three := 3
	updated, err := reg.UpdateMatch(ctx, m.ID, Patch{MaxPlayers: &three}, t0)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.MaxPlayers)
}

func TestDeleteMatch(t *testing.T) {
	reg, counter := newRegistry()
	ctx := context.Background()
	m, err := reg.CreateMatch(ctx, validSpec(), t0)
	require.NoError(t, err)

	counter.set(m.ID, 1)
	assert.ErrorIs(t, reg.DeleteMatch(ctx, m.ID), common.ErrConflict)

	counter.set(m.ID, 0)
	require.NoError(t, reg.DeleteMatch(ctx, m.ID))

	_, err = reg.GetMatch(ctx, m.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, reg.DeleteMatch(ctx, m.ID), common.ErrNotFound)
}

func TestSetStatusStateMachine(t *testing.T) {
	ctx := context.Background()

	t.Run("cancel upcoming then terminal", func(t *testing.T) {
		reg, _ := newRegistry()
		m, _ := reg.CreateMatch(ctx, validSpec(), t0)

		got, err := reg.SetStatus(ctx, m.ID, StatusCancelled, t0)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, got.Status)

		for _, to := range []Status{StatusUpcoming, StatusLive, StatusFinished, StatusCancelled} {
			_, err = reg.SetStatus(ctx, m.ID, to, t0)
			assert.ErrorIs(t, err, common.ErrInvalidState, "from CANCELLED to %s", to)
		}
	})

	t.Run("no-show finish", func(t *testing.T) {
		reg, _ := newRegistry()
		m, _ := reg.CreateMatch(ctx, validSpec(), t0)

		got, err := reg.SetStatus(ctx, m.ID, StatusFinished, t0)
		require.NoError(t, err)
		assert.Equal(t, StatusFinished, got.Status)
	})

	t.Run("live only after scheduled time", func(t *testing.T) {
		reg, _ := newRegistry()
		m, _ := reg.CreateMatch(ctx, validSpec(), t0)

		_, err := reg.SetStatus(ctx, m.ID, StatusLive, t0)
		assert.ErrorIs(t, err, common.ErrInvalidState)

		got, err := reg.SetStatus(ctx, m.ID, StatusLive, m.ScheduledTime)
		require.NoError(t, err)
		assert.Equal(t, StatusLive, got.Status)

		_, err = reg.SetStatus(ctx, m.ID, StatusLive, m.ScheduledTime)
		assert.ErrorIs(t, err, common.ErrInvalidState, "already persisted LIVE")
	})

	t.Run("live cannot be cancelled", func(t *testing.T) {
		reg, _ := newRegistry()
		m, _ := reg.CreateMatch(ctx, validSpec(), t0)
		after := m.ScheduledTime.Add(time.Minute)

		_, err := reg.SetStatus(ctx, m.ID, StatusCancelled, after)
		assert.ErrorIs(t, err, common.ErrInvalidState)

		got, err := reg.SetStatus(ctx, m.ID, StatusFinished, after)
		require.NoError(t, err)
		assert.Equal(t, StatusFinished, got.Status)
	})

	t.Run("unknown match", func(t *testing.T) {
		reg, _ := newRegistry()
		_, err := reg.SetStatus(ctx, 42, StatusCancelled, t0)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestCheckpointStatuses(t *testing.T) {
	reg, _ := newRegistry()
	ctx := context.Background()

	early := validSpec()
	early.ScheduledTime = t0.Add(10 * time.Minute)
	late := validSpec()
	late.ScheduledTime = t0.Add(3 * time.Hour)

	a, _ := reg.CreateMatch(ctx, early, t0)
	b, _ := reg.CreateMatch(ctx, late, t0)

	moved, err := reg.CheckpointStatuses(ctx, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	gotA, _ := reg.GetMatch(ctx, a.ID)
	gotB, _ := reg.GetMatch(ctx, b.ID)
	assert.Equal(t, StatusLive, gotA.Status)
	assert.Equal(t, StatusUpcoming, gotB.Status)
}

func TestRoomCredentialOverwriteAnyStatus(t *testing.T) {
	reg, _ := newRegistry()
	ctx := context.Background()
	m, _ := reg.CreateMatch(ctx, validSpec(), t0)
	_, err := reg.SetStatus(ctx, m.ID, StatusFinished, t0)
	require.NoError(t, err)

	require.NoError(t, reg.SetRoomCredential(ctx, m.ID, "room-1", "pw-1"))
	require.NoError(t, reg.SetRoomCredential(ctx, m.ID, "room-2", "pw-2"))
	got, _ := reg.GetMatch(ctx, m.ID)
	assert.Equal(t, "room-2", got.RoomID)
	assert.Equal(t, "pw-2", got.RoomPassword)

	require.NoError(t, reg.SetRoomDetailsEnabled(ctx, m.ID, false))
	got, _ = reg.GetMatch(ctx, m.ID)
	assert.True(t, got.RoomDetailsDisabled)

	assert.ErrorIs(t, reg.SetRoomCredential(ctx, 99, "x", "y"), common.ErrNotFound)
}
