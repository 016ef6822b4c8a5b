package domain

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const sessionIDDigits = 6

var sessionIDSpace = big.NewInt(1_000_000)

type Session struct {
	ID        string    `json:"id"`
	State     GameState `json:"gameState"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func NewSession(id string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        id,
		State:     NewGameState(),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (s *Session) Clone() *Session {
	out := *s
	out.State = s.State.Clone()
	return &out
}

// NewSessionID returns a random zero-padded 6-digit code.
func NewSessionID() (string, error) {
	n, err := rand.Int(rand.Reader, sessionIDSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", sessionIDDigits, n.Int64()), nil
}

type SessionStats struct {
	ActiveSessions int64 `json:"activeSessions"`
	ActiveMembers  int64 `json:"activeMembers"`
}

type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetActive(ctx context.Context, id string, now time.Time) (*Session, error)
	Exists(ctx context.Context, id string) (bool, error)
	Update(ctx context.Context, session *Session) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Stats(ctx context.Context, now time.Time) (SessionStats, error)
}

// SessionCache is the fast, shared store consulted before SessionRepository.
type SessionCache interface {
	GetSession(ctx context.Context, id string) (*Session, bool, error)
	SetSession(ctx context.Context, session *Session, ttl time.Duration) error
	GetMembers(ctx context.Context, sessionID string) ([]Member, bool, error)
	SetMembers(ctx context.Context, sessionID string, members []Member, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
}
