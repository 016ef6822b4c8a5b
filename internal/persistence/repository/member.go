package repository

import (
	"context"

	"github.com/hilthontt/spinwheel/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type memberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) domain.MemberRepository {
	return &memberRepository{db: db}
}

// Upsert inserts on first join and otherwise only refreshes username and
// last seen, so JoinedAt and JoinSeq keep the original rank.
func (r *memberRepository) Upsert(ctx context.Context, member *domain.Member) error {
	record := memberRecord{
		SessionID: member.SessionID,
		MemberID:  member.MemberID,
		Username:  member.Username,
		JoinedAt:  member.JoinedAt,
		LastSeen:  member.LastSeen,
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "member_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "last_seen"}),
		}).Create(&record).Error
		if err != nil {
			return err
		}

		var stored memberRecord
		if err := tx.Where("session_id = ? AND member_id = ?", member.SessionID, member.MemberID).
			First(&stored).Error; err != nil {
			return err
		}

		*member = stored.toDomain()
		return nil
	})
}

func (r *memberRepository) Delete(ctx context.Context, sessionID, memberID string) error {
	return r.db.WithContext(ctx).
		Where("session_id = ? AND member_id = ?", sessionID, memberID).
		Delete(&memberRecord{}).Error
}

func (r *memberRepository) ListByJoin(ctx context.Context, sessionID string) ([]domain.Member, error) {
	var records []memberRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("join_seq ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	members := make([]domain.Member, 0, len(records))
	for _, rec := range records {
		members = append(members, rec.toDomain())
	}
	return members, nil
}

func (r memberRecord) toDomain() domain.Member {
	return domain.Member{
		SessionID: r.SessionID,
		MemberID:  r.MemberID,
		Username:  r.Username,
		JoinedAt:  r.JoinedAt,
		LastSeen:  r.LastSeen,
		JoinSeq:   r.JoinSeq,
	}
}
