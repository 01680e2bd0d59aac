// Package session validates bearer tokens against the user store and owns
// every change to a user's ban state.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DhavalSuthar-24/arena/internal/common"
	"github.com/DhavalSuthar-24/arena/internal/user"
	"github.com/DhavalSuthar-24/arena/pkg/token"
)

// RevalidationInterval is how often clients are expected to re-check
// their session. A ban takes effect on the next check.
const RevalidationInterval = 30 * time.Second

// DefaultTemporaryBan applies when a TEMPORARY ban names no duration.
const DefaultTemporaryBan = 24 * time.Hour

type BanKind string

const (
	BanPermanent BanKind = "PERMANENT"
	BanTemporary BanKind = "TEMPORARY"
	BanLift      BanKind = "UNBAN"
)

// Identity is an authorized caller.
type Identity struct {
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	Role      user.Role `json:"role"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (id Identity) IsAdmin() bool { return id.Role == user.RoleAdmin }

// TokenResolver turns a raw bearer token into claims.
type TokenResolver interface {
	Resolve(raw string, now time.Time) (*token.Claims, error)
}

type Guard struct {
	tokens     TokenResolver
	users      user.UserRepository
	revoked    Revocations
	defaultBan time.Duration
	log        *slog.Logger
}

func NewGuard(tokens TokenResolver, users user.UserRepository, revoked Revocations, defaultBan time.Duration, logger *slog.Logger) *Guard {
	if defaultBan <= 0 {
		defaultBan = DefaultTemporaryBan
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		tokens:     tokens,
		users:      users,
		revoked:    revoked,
		defaultBan: defaultBan,
		log:        logger.With("component", "session_guard"),
	}
}

// Authorize validates raw at now. With required roles the caller must hold
// one of them. Failures: Unauthenticated, Banned, Permission.
func (g *Guard) Authorize(ctx context.Context, raw string, now time.Time, required ...user.Role) (Identity, error) {
	if raw == "" {
		return Identity{}, common.Errorf(common.KindUnauthenticated, "authentication required")
	}
	claims, err := g.tokens.Resolve(raw, now)
	if err != nil {
		return Identity{}, common.Wrap(common.KindUnauthenticated, err, "invalid or expired token")
	}
	revoked, err := g.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Identity{}, fmt.Errorf("check token revocation: %w", err)
	}
	if revoked {
		return Identity{}, common.Errorf(common.KindUnauthenticated, "session has been signed out")
	}

	u, err := g.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return Identity{}, fmt.Errorf("load user %d: %w", claims.UserID, err)
	}
	if u == nil {
		return Identity{}, common.Errorf(common.KindUnauthenticated, "user no longer exists")
	}
	if u.BanActive(now) {
		return Identity{}, BannedError(u)
	}

	id := Identity{UserID: u.ID, Username: u.Username, Role: u.Role, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	if len(required) > 0 && !hasRole(u.Role, required) {
		return Identity{}, common.Errorf(common.KindPermission, "this action requires the %s role", required[0])
	}
	return id, nil
}

func hasRole(role user.Role, required []user.Role) bool {
	for _, r := range required {
		if role == r {
			return true
		}
	}
	return false
}

// BannedError describes u's active ban.
func BannedError(u *user.User) error {
	if u.BanExpiresAt == nil {
		return common.Errorf(common.KindBanned, "your account has been permanently banned")
	}
	return common.Errorf(common.KindBanned, "your account is banned until %s", u.BanExpiresAt.UTC().Format(time.RFC3339))
}

// BanRequest is a ban mutation. Duration is read for TEMPORARY only; zero
// means the guard default.
type BanRequest struct {
	Kind     BanKind
	Duration time.Duration
}

// Ban applies req to target on behalf of actor. The change is visible to
// the next Authorize call for target.
func (g *Guard) Ban(ctx context.Context, actor Identity, target uint, req BanRequest, now time.Time) (*user.User, error) {
	if !actor.IsAdmin() {
		return nil, common.Errorf(common.KindPermission, "only admins can change bans")
	}
	if actor.UserID == target {
		return nil, common.Errorf(common.KindValidation, "cannot ban yourself")
	}
	u, err := g.users.GetUserByID(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", target, err)
	}
	if u == nil {
		return nil, common.Errorf(common.KindNotFound, "user %d not found", target)
	}

	var (
		banned  bool
		expires *time.Time
	)
	switch req.Kind {
	case BanPermanent:
		banned = true
	case BanTemporary:
		d := req.Duration
		if d < 0 {
			return nil, common.Errorf(common.KindValidation, "ban duration must be positive")
		}
		if d == 0 {
			d = g.defaultBan
		}
		until := now.Add(d)
		banned, expires = true, &until
	case BanLift:
	default:
		return nil, common.Errorf(common.KindValidation, "unknown ban kind %q", req.Kind)
	}

	if err := g.users.UpdateBan(ctx, target, banned, expires); err != nil {
		return nil, fmt.Errorf("update ban for user %d: %w", target, err)
	}
	u.Banned, u.BanExpiresAt = banned, expires
	g.log.Info("ban updated", "actor_id", actor.UserID, "user_id", target, "kind", req.Kind, "expires_at", expires)
	return u, nil
}

// SignOut revokes the token behind id until it would have expired anyway.
func (g *Guard) SignOut(ctx context.Context, id Identity, now time.Time) error {
	ttl := id.ExpiresAt.Sub(now)
	if id.TokenID == "" || ttl <= 0 {
		return nil
	}
	if err := g.revoked.Revoke(ctx, id.TokenID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	g.log.Info("signed out", "user_id", id.UserID)
	return nil
}

// SweepExpiredBans clears temporary bans whose expiry has passed. Authorize
// already ignores them; this keeps the stored flag honest.
func (g *Guard) SweepExpiredBans(ctx context.Context, now time.Time) (int64, error) {
	n, err := g.users.ClearExpiredBans(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("clear expired bans: %w", err)
	}
	if n > 0 {
		g.log.Info("expired bans cleared", "count", n)
	}
	return n, nil
}

// ClearExpiredBan lifts userID's temporary ban if it has run out at now. A
// ban changed since the caller last read the user is left alone.
func (g *Guard) ClearExpiredBan(ctx context.Context, userID uint, now time.Time) (bool, error) {
	cleared, err := g.users.ClearExpiredBan(ctx, userID, now)
	if err != nil {
		return false, fmt.Errorf("clear expired ban for user %d: %w", userID, err)
	}
	if cleared {
		g.log.Info("expired ban cleared", "user_id", userID)
	}
	return cleared, nil
}
