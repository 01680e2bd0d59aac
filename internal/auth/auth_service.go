package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DhavalSuthar-24/arena/internal/clock"
	"github.com/DhavalSuthar-24/arena/internal/common"
	"github.com/DhavalSuthar-24/arena/internal/session"
	"github.com/DhavalSuthar-24/arena/internal/user"
	"github.com/DhavalSuthar-24/arena/pkg/token"
	"github.com/DhavalSuthar-24/arena/utils"
)

// BanClearer lifts temporary bans that have run out.
type BanClearer interface {
	ClearExpiredBan(ctx context.Context, userID uint, now time.Time) (bool, error)
}

// Service registers accounts and exchanges passwords for access tokens.
type Service struct {
	users      user.UserRepository
	tokens     *token.Manager
	bans       BanClearer
	clock      clock.Clock
	bcryptCost int
	log        *slog.Logger
}

func NewService(users user.UserRepository, tokens *token.Manager, bans BanClearer, clk clock.Clock, bcryptCost int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:      users,
		tokens:     tokens,
		bans:       bans,
		clock:      clk,
		bcryptCost: bcryptCost,
		log:        logger.With("component", "auth"),
	}
}

// Register creates a USER account and signs it in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return nil, common.Errorf(common.KindConflict, "user with this email already exists")
	}
	if existing, err = s.users.GetUserByUsername(ctx, req.Username); err != nil {
		return nil, fmt.Errorf("lookup username: %w", err)
	}
	if existing != nil {
		return nil, common.Errorf(common.KindConflict, "user with this username already exists")
	}

	hashed, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.clock.Now()
	u := &user.User{
		Username: req.Username,
		Email:    email,
		Password: hashed,
		Role:     user.RoleUser,
	}
	u.CreatedAt, u.UpdatedAt = now, now
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user registered", "user_id", u.ID)
	return s.issue(u, now)
}

// Login checks the password and refuses accounts under an active ban. A
// temporary ban that has run out is cleared through the session guard.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	identifier := strings.TrimSpace(req.LoginIdentifier)

	var (
		u   *user.User
		err error
	)
	if strings.Contains(identifier, "@") {
		u, err = s.users.GetUserByEmail(ctx, strings.ToLower(identifier))
	} else {
		u, err = s.users.GetUserByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil || !utils.CheckPassword(u.Password, req.Password) {
		return nil, common.Errorf(common.KindUnauthenticated, "invalid credentials")
	}

	now := s.clock.Now()
	if u.BanActive(now) {
		return nil, session.BannedError(u)
	}
	if u.BanExpired(now) {
		cleared, err := s.bans.ClearExpiredBan(ctx, u.ID, now)
		if err != nil {
			return nil, err
		}
		if cleared {
			u.Banned, u.BanExpiresAt = false, nil
		} else if u, err = s.reload(ctx, u.ID, now); err != nil {
			return nil, err
		}
	}
	return s.issue(u, now)
}

// reload re-reads a user whose ban changed after the login lookup.
func (s *Service) reload(ctx context.Context, id uint, now time.Time) (*user.User, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	if u == nil {
		return nil, common.Errorf(common.KindUnauthenticated, "invalid credentials")
	}
	if u.BanActive(now) {
		return nil, session.BannedError(u)
	}
	return u, nil
}

func (s *Service) issue(u *user.User, now time.Time) (*AuthResponse, error) {
	raw, claims, err := s.tokens.Issue(u.ID, string(u.Role), now)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResponse{
		AccessToken: raw,
		TokenType:   "Bearer",
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        user.FilterUserRecord(u, now),
	}, nil
}

// SeedAdmin creates an ADMIN account unless one with the email exists.
func (s *Service) SeedAdmin(ctx context.Context, username, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	existing, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup admin: %w", err)
	}
	if existing != nil {
		return nil
	}
	hashed, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	admin := &user.User{Username: username, Email: email, Password: hashed, Role: user.RoleAdmin}
	admin.CreatedAt = s.clock.Now()
	admin.UpdatedAt = admin.CreatedAt
	if err := s.users.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	s.log.Info("admin account seeded", "user_id", admin.ID)
	return nil
}
