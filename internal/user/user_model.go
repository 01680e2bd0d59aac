package user

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is an account plus the ban state owned by the session guard.
// Banned with a nil BanExpiresAt is a permanent ban.
type User struct {
	gorm.Model
	Username     string     `gorm:"uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Password     string     `json:"-"`
	Role         Role       `gorm:"type:varchar(16);not null;default:'USER'" json:"role"`
	Banned       bool       `gorm:"not null;default:false" json:"banned"`
	BanExpiresAt *time.Time `json:"ban_expires_at,omitempty"`
}

// BanActive reports whether the account is locked out at now.
func (u *User) BanActive(now time.Time) bool {
	if !u.Banned {
		return false
	}
	if u.BanExpiresAt == nil {
		return true
	}
	return now.Before(*u.BanExpiresAt)
}

// BanExpired reports a temporary ban whose expiry has passed but which is
// still recorded.
func (u *User) BanExpired(now time.Time) bool {
	return u.Banned && u.BanExpiresAt != nil && !now.Before(*u.BanExpiresAt)
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// UserResponse is the public view of an account.
type UserResponse struct {
	ID           uint       `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Role         Role       `json:"role"`
	Banned       bool       `json:"banned"`
	BanExpiresAt *time.Time `json:"ban_expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// FilterUserRecord strips credentials from u. Expired bans are reported as
// lifted.
func FilterUserRecord(u *User, now time.Time) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		Banned:    u.BanActive(now),
		CreatedAt: u.CreatedAt,
	}
	if resp.Banned {
		resp.BanExpiresAt = u.BanExpiresAt
	}
	return resp
}
