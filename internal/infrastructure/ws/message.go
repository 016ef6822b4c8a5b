package ws

import (
	"encoding/json"
	"time"

	"github.com/hilthontt/spinwheel/internal/domain"
)

// Client -> server
const (
	TypeCreateSession = "create_session"
	TypeJoinSession   = "join_session"
	TypeGameAction    = "game_action"
	TypeKickUser      = "kick_user"
	TypeSetGameLimit  = "set_game_limit"
	TypeHeartbeat     = "heartbeat"
)

// Server -> client
const (
	TypeSessionCreated  = "session_created"
	TypeSessionJoined   = "session_joined"
	TypeGameStateUpdate = "game_state_update"
	TypeUserJoined      = "user_joined"
	TypeUserLeft        = "user_left"
	TypeKicked          = "kicked"
	TypeError           = "error"
	TypeHeartbeatAck    = "heartbeat_ack"
)

const (
	ActionAddGame       = "add_game"
	ActionRemoveGame    = "remove_game"
	ActionClearAllGames = "clear_all_games"
	ActionStartSpin     = "start_spin"
)

// Inbound is a client frame; Data is decoded once Type is known.
type Inbound struct {
	Type      string          `json:"type" validate:"required"`
	SessionID string          `json:"sessionId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type JoinSessionPayload struct {
	SessionID string `json:"sessionId" validate:"required,sessionid"`
	Username  string `json:"username" validate:"required,notblank,max=32"`
	UserID    string `json:"userId,omitempty" validate:"omitempty,max=64"`
}

type GameInput struct {
	Name     string `json:"name" validate:"max=100"`
	Genre    string `json:"genre,omitempty" validate:"max=50"`
	Platform string `json:"platform,omitempty" validate:"max=50"`
}

type GameActionPayload struct {
	Action string    `json:"action" validate:"required,oneof=add_game remove_game clear_all_games start_spin"`
	Data   GameInput `json:"data"`
}

type KickUserPayload struct {
	UserID string `json:"userId" validate:"required"`
}

// SetGameLimitPayload carries a nil limit to remove the cap.
type SetGameLimitPayload struct {
	Limit *int `json:"limit" validate:"omitempty,gte=1,max=100"`
}

type Message struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
}

type SessionCreatedPayload struct {
	SessionID string `json:"sessionId"`
}

type UserPayload struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	JoinedAt  time.Time `json:"joinedAt"`
	IsCreator bool      `json:"isCreator"`
}

type SessionJoinedPayload struct {
	SessionID string           `json:"sessionId"`
	UserID    string           `json:"userId"`
	GameState domain.GameState `json:"gameState"`
	Users     []UserPayload    `json:"users"`
}

type GameStatePayload struct {
	GameState domain.GameState `json:"gameState"`
}

type UsersPayload struct {
	Users []UserPayload `json:"users"`
}

type TextPayload struct {
	Message string `json:"message"`
}

// Users renders members in join order with the creator flagged.
func Users(members []domain.Member) []UserPayload {
	sorted := make([]domain.Member, len(members))
	copy(sorted, members)
	domain.SortByJoin(sorted)

	out := make([]UserPayload, 0, len(sorted))
	for i, m := range sorted {
		out = append(out, UserPayload{
			UserID:    m.MemberID,
			Username:  m.Username,
			JoinedAt:  m.JoinedAt,
			IsCreator: i == 0,
		})
	}
	return out
}

func NewSessionCreated(sessionID string) Message {
	return Message{
		Type:      TypeSessionCreated,
		SessionID: sessionID,
		Data:      SessionCreatedPayload{SessionID: sessionID},
	}
}

func NewSessionJoined(session *domain.Session, memberID string, members []domain.Member) Message {
	return Message{
		Type:      TypeSessionJoined,
		SessionID: session.ID,
		Data: SessionJoinedPayload{
			SessionID: session.ID,
			UserID:    memberID,
			GameState: session.State,
			Users:     Users(members),
		},
	}
}

func NewGameStateUpdate(session *domain.Session) Message {
	return Message{
		Type:      TypeGameStateUpdate,
		SessionID: session.ID,
		Data:      GameStatePayload{GameState: session.State},
	}
}

func NewUserJoined(sessionID string, members []domain.Member) Message {
	return Message{
		Type:      TypeUserJoined,
		SessionID: sessionID,
		Data:      UsersPayload{Users: Users(members)},
	}
}

func NewUserLeft(sessionID string, members []domain.Member) Message {
	return Message{
		Type:      TypeUserLeft,
		SessionID: sessionID,
		Data:      UsersPayload{Users: Users(members)},
	}
}

func NewKicked(sessionID string) Message {
	return Message{
		Type:      TypeKicked,
		SessionID: sessionID,
		Data:      TextPayload{Message: "You have been removed from the session"},
	}
}

func NewError(sessionID, message string) Message {
	return Message{
		Type:      TypeError,
		SessionID: sessionID,
		Data:      TextPayload{Message: message},
	}
}

func NewHeartbeatAck(sessionID string) Message {
	return Message{
		Type:      TypeHeartbeatAck,
		SessionID: sessionID,
	}
}

func Encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
