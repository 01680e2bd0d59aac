package roster

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DhavalSuthar-24/arena/internal/match"
)

// ErrSeatsFull is returned by Reserve when every seat is taken.
var ErrSeatsFull = errors.New("roster: no seats left")

// RosterRepository stores participants. Reserve and Release are each one
// atomic unit against the store.
type RosterRepository interface {
	GetParticipant(ctx context.Context, matchID, userID uint) (*Participant, error)
	CountJoined(ctx context.Context, matchID uint) (int64, error)
	CountJoinedByMatch(ctx context.Context) (map[uint]int64, error)
	// ListJoined returns JOINED participants ordered by join time, then user id.
	ListJoined(ctx context.Context, matchID uint) ([]Participant, error)
	JoinedMatchIDs(ctx context.Context, userID uint) ([]uint, error)
	// Reserve counts JOINED rows and, if fewer than maxPlayers, upserts p
	// as JOINED on (match_id, user_id).
	Reserve(ctx context.Context, p *Participant, maxPlayers int) error
	// Release marks a JOINED participant EXITED and reports whether a row
	// changed.
	Release(ctx context.Context, matchID, userID uint, at time.Time) (bool, error)
}

type GormRosterRepository struct {
	db *gorm.DB
}

func NewGormRosterRepository(db *gorm.DB) *GormRosterRepository {
	return &GormRosterRepository{db: db}
}

// WithTransaction implements transaction support
func (r *GormRosterRepository) WithTransaction(ctx context.Context, txFunc func(*GormRosterRepository) error) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	txRepo := &GormRosterRepository{db: tx}
	if err := txFunc(txRepo); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

func (r *GormRosterRepository) GetParticipant(ctx context.Context, matchID, userID uint) (*Participant, error) {
	var p Participant
	err := r.db.WithContext(ctx).Where("match_id = ? AND user_id = ?", matchID, userID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *GormRosterRepository) CountJoined(ctx context.Context, matchID uint) (int64, error) {
	var joined int64
	err := r.db.WithContext(ctx).Model(&Participant{}).
		Where("match_id = ? AND status = ?", matchID, StatusJoined).
		Count(&joined).Error
	return joined, err
}

func (r *GormRosterRepository) CountJoinedByMatch(ctx context.Context) (map[uint]int64, error) {
	var rows []struct {
		MatchID uint
		Joined  int64
	}
	err := r.db.WithContext(ctx).Model(&Participant{}).
		Select("match_id, count(*) AS joined").
		Where("status = ?", StatusJoined).
		Group("match_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.MatchID] = row.Joined
	}
	return counts, nil
}

func (r *GormRosterRepository) ListJoined(ctx context.Context, matchID uint) ([]Participant, error) {
	var players []Participant
	err := r.db.WithContext(ctx).
		Where("match_id = ? AND status = ?", matchID, StatusJoined).
		Order("joined_at ASC").Order("user_id ASC").
		Find(&players).Error
	return players, err
}

func (r *GormRosterRepository) JoinedMatchIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&Participant{}).
		Where("user_id = ? AND status = ?", userID, StatusJoined).
		Pluck("match_id", &ids).Error
	return ids, err
}

// Reserve locks the match row so concurrent reservations from any process
// see each other's inserts.
func (r *GormRosterRepository) Reserve(ctx context.Context, p *Participant, maxPlayers int) error {
	return r.WithTransaction(ctx, func(tx *GormRosterRepository) error {
		var locked match.Match
		if err := tx.db.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&locked, p.MatchID).Error; err != nil {
			return err
		}
		var joined int64
		if err := tx.db.Model(&Participant{}).
			Where("match_id = ? AND status = ?", p.MatchID, StatusJoined).
			Count(&joined).Error; err != nil {
			return err
		}
		if joined >= int64(maxPlayers) {
			return ErrSeatsFull
		}
		p.Status = StatusJoined
		p.ExitedAt = nil
		return tx.db.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "match_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "username", "in_game_name", "joined_at", "exited_at", "updated_at"}),
		}).Create(p).Error
	})
}

func (r *GormRosterRepository) Release(ctx context.Context, matchID, userID uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Participant{}).
		Where("match_id = ? AND user_id = ? AND status = ?", matchID, userID, StatusJoined).
		Updates(map[string]interface{}{"status": StatusExited, "exited_at": at, "updated_at": at})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
