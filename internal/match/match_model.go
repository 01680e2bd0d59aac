package match

import (
	"time"

	"gorm.io/gorm"
)

type GameType string

const (
	GameTypeSolo  GameType = "SOLO"
	GameTypeDuo   GameType = "DUO"
	GameTypeSquad GameType = "SQUAD"
)

type MapName string

const (
	MapErangel MapName = "ERANGEL"
	MapMiramar MapName = "MIRAMAR"
	MapSanhok  MapName = "SANHOK"
	MapVikendi MapName = "VIKENDI"
)

type Status string

const (
	StatusUpcoming  Status = "UPCOMING"
	StatusLive      Status = "LIVE"
	StatusFinished  Status = "FINISHED"
	StatusCancelled Status = "CANCELLED"
)

// CutoffLead is how long before the scheduled start the exit window
// closes and room credentials become visible.
const CutoffLead = 15 * time.Minute

// Terminal reports FINISHED and CANCELLED.
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

func ValidGameType(v string) bool {
	switch GameType(v) {
	case GameTypeSolo, GameTypeDuo, GameTypeSquad:
		return true
	}
	return false
}

func ValidMapName(v string) bool {
	switch MapName(v) {
	case MapErangel, MapMiramar, MapSanhok, MapVikendi:
		return true
	}
	return false
}

// RankPrize is the payout for one finishing position.
type RankPrize struct {
	ID          uint    `gorm:"primaryKey" json:"-"`
	MatchID     uint    `gorm:"uniqueIndex:idx_rank_prize_match_rank;not null" json:"-"`
	Rank        int     `gorm:"column:prize_rank;uniqueIndex:idx_rank_prize_match_rank;not null" json:"rank"`
	PrizeAmount float64 `gorm:"not null" json:"prize_amount"`
}

// Match is a scheduled game with a capacity-limited roster. The stored
// Status may lag behind the clock; callers read EffectiveStatus.
type Match struct {
	gorm.Model
	Title         string      `gorm:"not null" json:"title"`
	Slug          string      `gorm:"index" json:"slug"`
	GameType      GameType    `gorm:"type:varchar(16);not null" json:"game_type"`
	MapName       MapName     `gorm:"type:varchar(16);not null" json:"map_name"`
	MaxPlayers    int         `gorm:"not null" json:"max_players"`
	EntryFee      float64     `gorm:"not null;default:0" json:"entry_fee"`
	PrizePerKill  float64     `gorm:"not null;default:0" json:"prize_per_kill"`
	ScheduledTime time.Time   `gorm:"index;not null" json:"scheduled_time"`
	Status        Status      `gorm:"type:varchar(16);index;not null;default:'UPCOMING'" json:"status"`
	RankPrizes    []RankPrize `gorm:"foreignKey:MatchID;constraint:OnDelete:CASCADE" json:"rank_prizes"`

	RoomID       string `json:"-"`
	RoomPassword string `json:"-"`
	// RoomDetailsDisabled switches credential display off. It never opens
	// the time gate.
	RoomDetailsDisabled bool `gorm:"not null;default:false" json:"room_details_disabled"`
}

// EffectiveStatus is LIVE once an UPCOMING match reaches its scheduled
// time, otherwise the stored status.
func (m *Match) EffectiveStatus(now time.Time) Status {
	if m.Status == StatusUpcoming && !now.Before(m.ScheduledTime) {
		return StatusLive
	}
	return m.Status
}

// Cutoff is the instant the exit window closes.
func (m *Match) Cutoff() time.Time {
	return m.ScheduledTime.Add(-CutoffLead)
}

func (m *Match) HasCredential() bool {
	return m.RoomID != "" && m.RoomPassword != ""
}

func (m *Match) clone() *Match {
	cp := *m
	if m.RankPrizes != nil {
		cp.RankPrizes = append([]RankPrize(nil), m.RankPrizes...)
	}
	return &cp
}

// Spec is the admin input for a new match.
type Spec struct {
	Title         string
	GameType      GameType
	MapName       MapName
	MaxPlayers    int
	EntryFee      float64
	PrizePerKill  float64
	ScheduledTime time.Time
	RankPrizes    []RankPrize
}

// Patch holds the editable fields; nil leaves a field unchanged.
type Patch struct {
	Title         *string
	GameType      *GameType
	MapName       *MapName
	MaxPlayers    *int
	EntryFee      *float64
	PrizePerKill  *float64
	ScheduledTime *time.Time
	RankPrizes    *[]RankPrize
}
