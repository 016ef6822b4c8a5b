package sessions

import (
	"time"

	"github.com/hilthontt/spinwheel/internal/domain"
)

type memberResponse struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	JoinedAt  time.Time `json:"joinedAt"`
	IsCreator bool      `json:"isCreator"`
	Online    bool      `json:"online"`
}

type sessionResponse struct {
	SessionID   string           `json:"sessionId"`
	GameState   domain.GameState `json:"gameState"`
	Users       []memberResponse `json:"users"`
	Connections int              `json:"connections"`
	CreatedAt   time.Time        `json:"createdAt"`
	ExpiresAt   time.Time        `json:"expiresAt"`
}

type historyResponse struct {
	SessionID string                   `json:"sessionId"`
	Events    []domain.SessionAuditLog `json:"events"`
}

type statsResponse struct {
	domain.SessionStats
	LocalConnections int `json:"localConnections"`
}
