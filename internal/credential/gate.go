// Package credential decides when a joined player may see a match's room
// ID and password.
package credential

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DhavalSuthar-24/arena/internal/common"
	"github.com/DhavalSuthar-24/arena/internal/match"
	"github.com/DhavalSuthar-24/arena/internal/user"
)

type Outcome string

const (
	OutcomeNotJoined Outcome = "NOT_JOINED"
	OutcomePending   Outcome = "PENDING"
	OutcomeVisible   Outcome = "VISIBLE"
)

// View is the result of a credential read. RoomID and RoomPassword are set
// only when Outcome is VISIBLE; MinutesRemaining only when PENDING.
type View struct {
	Outcome          Outcome `json:"outcome"`
	MinutesRemaining int     `json:"minutes_remaining"`
	RoomID           string  `json:"room_id,omitempty"`
	RoomPassword     string  `json:"room_password,omitempty"`
}

// Matches is the part of the match registry the gate needs.
type Matches interface {
	GetMatch(ctx context.Context, id uint) (*match.Match, error)
	SetRoomCredential(ctx context.Context, id uint, roomID, roomPassword string) error
	SetRoomDetailsEnabled(ctx context.Context, id uint, enabled bool) error
}

// Membership answers whether a user currently holds a seat.
type Membership interface {
	IsJoined(ctx context.Context, matchID, userID uint) (bool, error)
}

type Gate struct {
	matches Matches
	members Membership
	log     *slog.Logger
}

func NewGate(matches Matches, members Membership, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{matches: matches, members: members, log: logger.With("component", "credential_gate")}
}

// View returns what userID may see for matchID at now. The credential is
// visible only to a joined user, with a credential set, with the display
// switch on, at or after the cutoff.
func (g *Gate) View(ctx context.Context, matchID, userID uint, now time.Time) (View, error) {
	m, err := g.matches.GetMatch(ctx, matchID)
	if err != nil {
		return View{}, err
	}
	joined, err := g.members.IsJoined(ctx, matchID, userID)
	if err != nil {
		return View{}, fmt.Errorf("check membership in match %d: %w", matchID, err)
	}
	if !joined {
		return View{Outcome: OutcomeNotJoined}, nil
	}

	cutoff := m.Cutoff()
	if now.Before(cutoff) || !m.HasCredential() || m.RoomDetailsDisabled {
		return View{Outcome: OutcomePending, MinutesRemaining: MinutesUntil(cutoff, now)}, nil
	}
	return View{Outcome: OutcomeVisible, RoomID: m.RoomID, RoomPassword: m.RoomPassword}, nil
}

// MinutesUntil rounds the time left until t up to whole minutes, never
// below zero.
func MinutesUntil(t, now time.Time) int {
	d := t.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Minute - 1) / time.Minute)
}

// SetCredential overwrites the room credential. Only admins may call it;
// enabled, when non-nil, also flips the display switch.
func (g *Gate) SetCredential(ctx context.Context, role user.Role, matchID uint, roomID, roomPassword string, enabled *bool) error {
	if role != user.RoleAdmin {
		return common.Errorf(common.KindPermission, "only admins can set room details")
	}
	roomID = strings.TrimSpace(roomID)
	if roomID == "" || roomPassword == "" {
		return common.Errorf(common.KindValidation, "room id and room password are required")
	}
	if err := g.matches.SetRoomCredential(ctx, matchID, roomID, roomPassword); err != nil {
		return err
	}
	if enabled != nil {
		if err := g.matches.SetRoomDetailsEnabled(ctx, matchID, *enabled); err != nil {
			return err
		}
	}
	g.log.Info("room details updated", "match_id", matchID)
	return nil
}
