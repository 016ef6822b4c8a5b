package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SessionEventType string

const (
	EventSessionCreated SessionEventType = "session_created"
	EventSessionExpired SessionEventType = "session_expired"
	EventMemberJoined   SessionEventType = "member_joined"
	EventMemberLeft     SessionEventType = "member_left"
	EventMemberKicked   SessionEventType = "member_kicked"
	EventLimitChanged   SessionEventType = "limit_changed"
	EventGamesCleared   SessionEventType = "games_cleared"
	EventSpinStarted    SessionEventType = "spin_started"
	EventSpinCompleted  SessionEventType = "spin_completed"
)

type SessionAuditLog struct {
	ID        string           `bson:"_id" json:"id"`
	SessionID string           `bson:"session_id" json:"sessionId"`
	EventType SessionEventType `bson:"event_type" json:"eventType"`
	MemberID  string           `bson:"member_id,omitempty" json:"memberId,omitempty"`
	Timestamp time.Time        `bson:"timestamp" json:"timestamp"`
	Metadata  map[string]any   `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

type SessionAuditRepository interface {
	Log(ctx context.Context, log *SessionAuditLog) error
	GetBySessionID(ctx context.Context, sessionID string, limit int) ([]SessionAuditLog, error)
	CountByEventType(ctx context.Context, eventType SessionEventType, since time.Time) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

func newAuditLog(sessionID string, eventType SessionEventType, memberID string, metadata map[string]any) *SessionAuditLog {
	return &SessionAuditLog{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		EventType: eventType,
		MemberID:  memberID,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}

func NewSessionCreatedLog(sessionID string, expiresAt time.Time) *SessionAuditLog {
	return newAuditLog(sessionID, EventSessionCreated, "", map[string]any{
		"expires_at": expiresAt,
	})
}

func NewMemberJoinedLog(sessionID, memberID string, memberCount int) *SessionAuditLog {
	return newAuditLog(sessionID, EventMemberJoined, memberID, map[string]any{
		"member_count": memberCount,
	})
}

func NewMemberLeftLog(sessionID, memberID string, memberCount int) *SessionAuditLog {
	return newAuditLog(sessionID, EventMemberLeft, memberID, map[string]any{
		"member_count": memberCount,
	})
}

func NewMemberKickedLog(sessionID, memberID, kickedBy string) *SessionAuditLog {
	return newAuditLog(sessionID, EventMemberKicked, memberID, map[string]any{
		"kicked_by": kickedBy,
	})
}

func NewLimitChangedLog(sessionID, memberID string, limit *int) *SessionAuditLog {
	meta := map[string]any{"limit": nil}
	if limit != nil {
		meta["limit"] = *limit
	}
	return newAuditLog(sessionID, EventLimitChanged, memberID, meta)
}

func NewGamesClearedLog(sessionID, memberID string, cleared int) *SessionAuditLog {
	return newAuditLog(sessionID, EventGamesCleared, memberID, map[string]any{
		"cleared": cleared,
	})
}

func NewSpinStartedLog(sessionID, memberID string, spin SpinRecord, candidates int) *SessionAuditLog {
	return newAuditLog(sessionID, EventSpinStarted, memberID, map[string]any{
		"spin_id":     spin.SpinID,
		"duration_ms": spin.Duration,
		"candidates":  candidates,
	})
}

func NewSpinCompletedLog(sessionID string, spinID string, winner GameEntry) *SessionAuditLog {
	return newAuditLog(sessionID, EventSpinCompleted, "", map[string]any{
		"spin_id": spinID,
		"winner":  winner.Name,
	})
}
