package roster

import (
	"time"

	"github.com/DhavalSuthar-24/arena/internal/match"
)

type Status string

const (
	StatusJoined Status = "JOINED"
	StatusExited Status = "EXITED"
)

// Participant is one user's seat in one match. Rows are never deleted by
// the roster; exiting flips Status and a re-join reuses the row.
type Participant struct {
	ID           uint       `gorm:"primaryKey" json:"-"`
	MatchID      uint       `gorm:"uniqueIndex:idx_participant_match_user;not null" json:"match_id"`
	UserID       uint       `gorm:"uniqueIndex:idx_participant_match_user;index;not null" json:"user_id"`
	Username     string     `json:"username"`
	InGameName   string     `json:"in_game_name,omitempty"`
	Status       Status     `gorm:"type:varchar(16);index;not null" json:"status"`
	JoinedAt     time.Time  `gorm:"not null" json:"joined_at"`
	ExitedAt     *time.Time `json:"exited_at,omitempty"`
	Kills        int        `gorm:"not null;default:0" json:"kills"`
	PositionRank *int       `json:"position_rank,omitempty"`
	PrizeMoney   float64    `gorm:"not null;default:0" json:"prize_money"`
	CreatedAt    time.Time  `json:"-"`
	UpdatedAt    time.Time  `json:"-"`

	Match match.Match `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (p *Participant) Joined() bool { return p.Status == StatusJoined }
