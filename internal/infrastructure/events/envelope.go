package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindBroadcast Kind = "broadcast"
	KindKick      Kind = "kick"
)

// Envelope is the unit of cross-instance replication. Message is an already
// encoded client frame and is replayed verbatim.
type Envelope struct {
	ID              string          `json:"id"`
	Origin          string          `json:"origin"`
	Kind            Kind            `json:"kind"`
	SessionID       string          `json:"sessionId"`
	ExcludeMemberID string          `json:"excludeMemberId,omitempty"`
	TargetMemberID  string          `json:"targetMemberId,omitempty"`
	Message         json.RawMessage `json:"message"`
	SentAt          time.Time       `json:"sentAt"`
}

func newEnvelope(kind Kind, sessionID string, message []byte) Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		Kind:      kind,
		SessionID: sessionID,
		Message:   message,
		SentAt:    time.Now().UTC(),
	}
}

func NewBroadcast(sessionID string, message []byte, excludeMemberID string) Envelope {
	env := newEnvelope(KindBroadcast, sessionID, message)
	env.ExcludeMemberID = excludeMemberID
	return env
}

func NewKick(sessionID, memberID string, message []byte) Envelope {
	env := newEnvelope(KindKick, sessionID, message)
	env.TargetMemberID = memberID
	return env
}
