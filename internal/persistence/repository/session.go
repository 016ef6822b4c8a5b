package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hilthontt/spinwheel/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) domain.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	record, err := toSessionRecord(session)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *sessionRepository) GetActive(ctx context.Context, id string, now time.Time) (*domain.Session, error) {
	var record sessionRecord
	err := r.db.WithContext(ctx).
		Where("id = ? AND expires_at > ?", id, now).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return record.toDomain()
}

// Exists reports any row with id, expired or not, so that ids are only
// reused once the reaper has removed the old session.
func (r *sessionRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&sessionRecord{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *sessionRepository) Update(ctx context.Context, session *domain.Session) error {
	state, err := json.Marshal(session.State)
	if err != nil {
		return fmt.Errorf("encode game state: %w", err)
	}

	result := r.db.WithContext(ctx).
		Model(&sessionRecord{}).
		Where("id = ?", session.ID).
		Updates(map[string]any{
			"state":      datatypes.JSON(state),
			"revision":   session.State.Revision,
			"updated_at": session.UpdatedAt,
			"expires_at": session.ExpiresAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// DeleteExpired removes expired sessions together with their members.
func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&sessionRecord{}).Select("id").Where("expires_at <= ?", now)
		if err := tx.Where("session_id IN (?)", expired).Delete(&memberRecord{}).Error; err != nil {
			return err
		}

		result := tx.Where("expires_at <= ?", now).Delete(&sessionRecord{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	return deleted, err
}

func (r *sessionRepository) Stats(ctx context.Context, now time.Time) (domain.SessionStats, error) {
	var stats domain.SessionStats

	db := r.db.WithContext(ctx)
	if err := db.Model(&sessionRecord{}).Where("expires_at > ?", now).Count(&stats.ActiveSessions).Error; err != nil {
		return stats, err
	}

	active := db.Model(&sessionRecord{}).Select("id").Where("expires_at > ?", now)
	if err := db.Model(&memberRecord{}).Where("session_id IN (?)", active).Count(&stats.ActiveMembers).Error; err != nil {
		return stats, err
	}
	return stats, nil
}

func toSessionRecord(s *domain.Session) (*sessionRecord, error) {
	state, err := json.Marshal(s.State)
	if err != nil {
		return nil, fmt.Errorf("encode game state: %w", err)
	}
	return &sessionRecord{
		ID:        s.ID,
		State:     datatypes.JSON(state),
		Revision:  s.State.Revision,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		ExpiresAt: s.ExpiresAt,
	}, nil
}

func (r sessionRecord) toDomain() (*domain.Session, error) {
	var state domain.GameState
	if err := json.Unmarshal(r.State, &state); err != nil {
		return nil, fmt.Errorf("decode game state of %s: %w", r.ID, err)
	}
	return &domain.Session{
		ID:        r.ID,
		State:     state,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		ExpiresAt: r.ExpiresAt,
	}, nil
}
