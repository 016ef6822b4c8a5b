package repository

import (
	"time"

	"gorm.io/datatypes"
)

// sessionRecord keeps the game state as one versioned JSON document.
type sessionRecord struct {
	ID        string         `gorm:"primaryKey;size:6"`
	State     datatypes.JSON `gorm:"type:jsonb;not null"`
	Revision  int64          `gorm:"not null;default:0"`
	CreatedAt time.Time      `gorm:"autoCreateTime:false;not null"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:false;not null"`
	ExpiresAt time.Time      `gorm:"index;not null"`
}

func (sessionRecord) TableName() string { return "sessions" }

// memberRecord ranks members by JoinSeq, a bigserial handed out on insert.
type memberRecord struct {
	JoinSeq   int64     `gorm:"primaryKey;autoIncrement"`
	SessionID string    `gorm:"size:6;not null;uniqueIndex:idx_session_member"`
	MemberID  string    `gorm:"size:64;not null;uniqueIndex:idx_session_member"`
	Username  string    `gorm:"size:64;not null"`
	JoinedAt  time.Time `gorm:"not null"`
	LastSeen  time.Time `gorm:"not null"`
}

func (memberRecord) TableName() string { return "session_members" }

type catalogRecord struct {
	ID       uint   `gorm:"primaryKey"`
	Name     string `gorm:"size:128;not null;uniqueIndex"`
	Genre    string `gorm:"size:64;index"`
	Platform string `gorm:"size:64;index"`
}

func (catalogRecord) TableName() string { return "game_catalog" }

// Models lists every table for auto migration.
func Models() []any {
	return []any{&sessionRecord{}, &memberRecord{}, &catalogRecord{}}
}
