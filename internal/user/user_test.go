package user

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func TestBanActive(t *testing.T) {
	later := now.Add(time.Hour)
	earlier := now.Add(-time.Hour)

	assert.False(t, (&User{}).BanActive(now))
	assert.True(t, (&User{Banned: true}).BanActive(now), "permanent ban")
	assert.True(t, (&User{Banned: true, BanExpiresAt: &later}).BanActive(now))
	assert.False(t, (&User{Banned: true, BanExpiresAt: &earlier}).BanActive(now))
	assert.False(t, (&User{Banned: true, BanExpiresAt: &now}).BanActive(now), "expiry instant is exclusive")
}

func TestFilterUserRecordHidesExpiredBan(t *testing.T) {
	earlier := now.Add(-time.Minute)
	u := &User{Username: "neo", Password: "hash", Banned: true, BanExpiresAt: &earlier}

	resp := FilterUserRecord(u, now)
	assert.False(t, resp.Banned)
	assert.Nil(t, resp.BanExpiresAt)
}

func TestMemoryRepositoryBanLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	u := &User{Username: "trinity", Email: "t@example.com"}
	require.NoError(t, repo.CreateUser(ctx, u))
	assert.Equal(t, RoleUser, u.Role)
	assert.Error(t, repo.CreateUser(ctx, &User{Username: "other", Email: "t@example.com"}))

	expiry := now.Add(time.Hour)
	require.NoError(t, repo.UpdateBan(ctx, u.ID, true, &expiry))

	n, err := repo.ClearExpiredBans(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.ClearExpiredBans(ctx, expiry)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := repo.GetUserByEmail(ctx, "t@example.com")
	require.NoError(t, err)
	assert.False(t, got.Banned)

	missing, err := repo.GetUserByID(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db, mock
}

func TestGormClearExpiredBans(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.ClearExpiredBans(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormGetUserByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	u, err := repo.GetUserByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryClearExpiredBanIsConditional(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	u := &User{Username: "morpheus", Email: "m@example.com"}
	require.NoError(t, repo.CreateUser(ctx, u))

	expiry := now.Add(time.Minute)
	require.NoError(t, repo.UpdateBan(ctx, u.ID, true, &expiry))
	cleared, err := repo.ClearExpiredBan(ctx, u.ID, now)
	require.NoError(t, err)
	assert.False(t, cleared, "ban still running")

	require.NoError(t, repo.UpdateBan(ctx, u.ID, true, nil))
	cleared, err = repo.ClearExpiredBan(ctx, u.ID, expiry.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, cleared, "permanent ban")

	require.NoError(t, repo.UpdateBan(ctx, u.ID, true, &expiry))
	cleared, err = repo.ClearExpiredBan(ctx, u.ID, expiry)
	require.NoError(t, err)
	assert.True(t, cleared)

	got, err := repo.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.Banned)
	assert.Nil(t, got.BanExpiresAt)
}

func TestGormClearExpiredBanMatchesOnlyExpiredTemporaryBan(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormUserRepository(db)

	mock.ExpectExec(`UPDATE "users" SET .* WHERE .*id = \$\d+ AND banned = \$\d+ AND ban_expires_at IS NOT NULL AND ban_expires_at <= \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	cleared, err := repo.ClearExpiredBan(context.Background(), 3, now)
	require.NoError(t, err)
	assert.False(t, cleared)
	assert.NoError(t, mock.ExpectationsWereMet())
}
