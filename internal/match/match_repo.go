package match

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// MatchRepository persists matches. Lookups return (nil, nil) when the
// record does not exist.
type MatchRepository interface {
	CreateMatch(ctx context.Context, m *Match) error
	GetMatchByID(ctx context.Context, id uint) (*Match, error)
	ListMatches(ctx context.Context) ([]Match, error)
	// ListDue returns stored-UPCOMING matches whose scheduled time is at
	// or before now.
	ListDue(ctx context.Context, now time.Time) ([]Match, error)
	UpdateMatch(ctx context.Context, m *Match) error
	DeleteMatch(ctx context.Context, id uint) error
	// CompareAndSetStatus moves id from one stored status to another,
	// stamping at, and reports whether the row was still in the expected
	// state.
	CompareAndSetStatus(ctx context.Context, id uint, from, to Status, at time.Time) (bool, error)
	SetRoomCredential(ctx context.Context, id uint, roomID, roomPassword string) error
	SetRoomDetailsDisabled(ctx context.Context, id uint, disabled bool) error
}

// GormMatchRepository implements MatchRepository using GORM
type GormMatchRepository struct {
	db *gorm.DB
}

// NewGormMatchRepository creates a new GormMatchRepository
func NewGormMatchRepository(db *gorm.DB) *GormMatchRepository {
	return &GormMatchRepository{db: db}
}

// WithTransaction runs txFunc against a repository bound to one transaction.
func (r *GormMatchRepository) WithTransaction(ctx context.Context, txFunc func(*GormMatchRepository) error) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	txRepo := &GormMatchRepository{db: tx}
	if err := txFunc(txRepo); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

func (r *GormMatchRepository) CreateMatch(ctx context.Context, m *Match) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *GormMatchRepository) GetMatchByID(ctx context.Context, id uint) (*Match, error) {
	var m Match
	result := r.db.WithContext(ctx).
		Preload("RankPrizes", func(db *gorm.DB) *gorm.DB { return db.Order("prize_rank ASC") }).
		First(&m, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &m, nil
}

func (r *GormMatchRepository) ListMatches(ctx context.Context) ([]Match, error) {
	var matches []Match
	result := r.db.WithContext(ctx).
		Preload("RankPrizes", func(db *gorm.DB) *gorm.DB { return db.Order("prize_rank ASC") }).
		Order("scheduled_time ASC").Order("id ASC").
		Find(&matches)
	if result.Error != nil {
		return nil, result.Error
	}
	return matches, nil
}

func (r *GormMatchRepository) ListDue(ctx context.Context, now time.Time) ([]Match, error) {
	var matches []Match
	result := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_time <= ?", StatusUpcoming, now).
		Order("scheduled_time ASC").
		Find(&matches)
	if result.Error != nil {
		return nil, result.Error
	}
	return matches, nil
}

// UpdateMatch saves the editable columns and replaces the prize table.
func (r *GormMatchRepository) UpdateMatch(ctx context.Context, m *Match) error {
	return r.WithTransaction(ctx, func(tx *GormMatchRepository) error {
		err := tx.db.Model(m).Select(
			"title", "slug", "game_type", "map_name", "max_players",
			"entry_fee", "prize_per_kill", "scheduled_time", "updated_at",
		).Updates(m).Error
		if err != nil {
			return err
		}
		if err := tx.db.Where("match_id = ?", m.ID).Delete(&RankPrize{}).Error; err != nil {
			return err
		}
		if len(m.RankPrizes) == 0 {
			return nil
		}
		for i := range m.RankPrizes {
			m.RankPrizes[i].ID = 0
			m.RankPrizes[i].MatchID = m.ID
		}
		return tx.db.Create(&m.RankPrizes).Error
	})
}

// DeleteMatch removes the row permanently; prizes and roster rows cascade.
func (r *GormMatchRepository) DeleteMatch(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&Match{}, id).Error
}

func (r *GormMatchRepository) CompareAndSetStatus(ctx context.Context, id uint, from, to Status, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Match{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": at})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *GormMatchRepository) SetRoomCredential(ctx context.Context, id uint, roomID, roomPassword string) error {
	return r.db.WithContext(ctx).Model(&Match{}).Where("id = ?", id).
		Updates(map[string]interface{}{"room_id": roomID, "room_password": roomPassword}).Error
}

func (r *GormMatchRepository) SetRoomDetailsDisabled(ctx context.Context, id uint, disabled bool) error {
	return r.db.WithContext(ctx).Model(&Match{}).Where("id = ?", id).
		Update("room_details_disabled", disabled).Error
}
