package lifecycle

import (
	"fmt"
	"time"

	"github.com/DhavalSuthar-24/arena/internal/common"
	"github.com/DhavalSuthar-24/arena/internal/match"
	"github.com/DhavalSuthar-24/arena/internal/session"
)

// --- DTOs (Data Transfer Objects) for requests ---

type RankPrizeRequest struct {
	Rank        int     `json:"rank" binding:"required,min=1"`
	PrizeAmount float64 `json:"prize_amount" binding:"min=0"`
}

type CreateMatchRequest struct {
	Title         string             `json:"title" binding:"required,min=3,max=200"`
	GameType      string             `json:"game_type" binding:"required,gametype"`
	MapName       string             `json:"map_name" binding:"required,mapname"`
	MaxPlayers    int                `json:"max_players" binding:"required,min=1,max=100"`
	EntryFee      float64            `json:"entry_fee" binding:"min=0"`
	PrizePerKill  float64            `json:"prize_per_kill" binding:"min=0"`
	ScheduledTime time.Time          `json:"scheduled_time" binding:"required"`
	RankPrizes    []RankPrizeRequest `json:"rank_prizes" binding:"omitempty,dive"`
}

// UpdateMatchRequest is a partial update; absent fields are left as they
// are. A present rank_prizes list replaces the stored one.
type UpdateMatchRequest struct {
	Title         *string            `json:"title" binding:"omitempty,min=3,max=200"`
	GameType      *string            `json:"game_type" binding:"omitempty,gametype"`
	MapName       *string            `json:"map_name" binding:"omitempty,mapname"`
	MaxPlayers    *int               `json:"max_players" binding:"omitempty,min=1,max=100"`
	EntryFee      *float64           `json:"entry_fee" binding:"omitempty,min=0"`
	PrizePerKill  *float64           `json:"prize_per_kill" binding:"omitempty,min=0"`
	ScheduledTime *time.Time         `json:"scheduled_time"`
	RankPrizes    []RankPrizeRequest `json:"rank_prizes" binding:"omitempty,dive"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required,oneof=LIVE FINISHED CANCELLED"`
}

type JoinMatchRequest struct {
	InGameName string `json:"in_game_name" binding:"omitempty,max=64"`
}

type RoomDetailsRequest struct {
	RoomID       string `json:"room_id" binding:"required,max=64"`
	RoomPassword string `json:"room_password" binding:"omitempty,max=64"`
	Enabled      *bool  `json:"enabled"`
}

// BanUserRequest carries the admin ban action. Duration applies to
// TEMPORARY_BAN only and defaults to the configured temporary ban.
type BanUserRequest struct {
	Action   string `json:"action" binding:"required,oneof=PERMANENT_BAN TEMPORARY_BAN UNBAN"`
	Duration string `json:"duration" binding:"omitempty,duration"`
}

// SessionResponse is returned by the session poll.
type SessionResponse struct {
	session.Identity
	RevalidateAfterSeconds int `json:"revalidate_after_seconds"`
}

func toRankPrizes(in []RankPrizeRequest) []match.RankPrize {
	out := make([]match.RankPrize, 0, len(in))
	for _, p := range in {
		out = append(out, match.RankPrize{Rank: p.Rank, PrizeAmount: p.PrizeAmount})
	}
	return out
}

func (r CreateMatchRequest) spec() match.Spec {
	return match.Spec{
		Title:         r.Title,
		GameType:      match.GameType(r.GameType),
		MapName:       match.MapName(r.MapName),
		MaxPlayers:    r.MaxPlayers,
		EntryFee:      r.EntryFee,
		PrizePerKill:  r.PrizePerKill,
		ScheduledTime: r.ScheduledTime,
		RankPrizes:    toRankPrizes(r.RankPrizes),
	}
}

func (r UpdateMatchRequest) patch() match.Patch {
	p := match.Patch{
		Title:         r.Title,
		MaxPlayers:    r.MaxPlayers,
		EntryFee:      r.EntryFee,
		PrizePerKill:  r.PrizePerKill,
		ScheduledTime: r.ScheduledTime,
	}
	if r.GameType != nil {
		gt := match.GameType(*r.GameType)
		p.GameType = &gt
	}
	if r.MapName != nil {
		mn := match.MapName(*r.MapName)
		p.MapName = &mn
	}
	if r.RankPrizes != nil {
		prizes := toRankPrizes(r.RankPrizes)
		p.RankPrizes = &prizes
	}
	return p
}

func (r BanUserRequest) banRequest() (session.BanRequest, error) {
	var req session.BanRequest
	switch r.Action {
	case "PERMANENT_BAN":
		req.Kind = session.BanPermanent
	case "TEMPORARY_BAN":
		req.Kind = session.BanTemporary
	case "UNBAN":
		req.Kind = session.BanLift
	default:
		return req, common.Errorf(common.KindValidation, "unknown ban action %q", r.Action)
	}
	if r.Duration != "" && req.Kind == session.BanTemporary {
		d, err := time.ParseDuration(r.Duration)
		if err != nil {
			return req, common.Wrap(common.KindValidation, fmt.Errorf("parse %q: %w", r.Duration, err), "invalid ban duration")
		}
		if d <= 0 {
			return req, common.Errorf(common.KindValidation, "ban duration must be positive")
		}
		req.Duration = d
	}
	return req, nil
}
