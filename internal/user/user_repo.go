package user

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// UserRepository is the account store. Lookups return (nil, nil) when the
// record does not exist.
type UserRepository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id uint) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateBan(ctx context.Context, id uint, banned bool, expiresAt *time.Time) error
	ClearExpiredBans(ctx context.Context, now time.Time) (int64, error)
	// ClearExpiredBan lifts id's ban only if it is temporary and has run
	// out at now, and reports whether it did.
	ClearExpiredBan(ctx context.Context, id uint, now time.Time) (bool, error)
}

type gormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) CreateUser(ctx context.Context, u *User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *gormUserRepository) first(ctx context.Context, query string, arg interface{}) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *gormUserRepository) GetUserByID(ctx context.Context, id uint) (*User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *gormUserRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *gormUserRepository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *gormUserRepository) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *gormUserRepository) UpdateBan(ctx context.Context, id uint, banned bool, expiresAt *time.Time) error {
	return r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"banned": banned, "ban_expires_at": expiresAt}).Error
}

func (r *gormUserRepository) ClearExpiredBans(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&User{}).
		Where("banned = ? AND ban_expires_at IS NOT NULL AND ban_expires_at <= ?", true, now).
		Updates(map[string]interface{}{"banned": false, "ban_expires_at": nil})
	return result.RowsAffected, result.Error
}

func (r *gormUserRepository) ClearExpiredBan(ctx context.Context, id uint, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&User{}).
		Where("id = ? AND banned = ? AND ban_expires_at IS NOT NULL AND ban_expires_at <= ?", id, true, now).
		Updates(map[string]interface{}{"banned": false, "ban_expires_at": nil})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
