package ws

import (
	"context"

	"github.com/hilthontt/spinwheel/internal/domain"
	"github.com/hilthontt/spinwheel/internal/infrastructure/events"
	"github.com/hilthontt/spinwheel/internal/infrastructure/logging"
)

// Notifier turns session changes into protocol frames and fans them out to
// every instance.
type Notifier struct {
	fanout *events.Fanout
	logger logging.Logger
}

func NewNotifier(fanout *events.Fanout, logger logging.Logger) *Notifier {
	return &Notifier{
		fanout: fanout,
		logger: logger,
	}
}

func (n *Notifier) encode(msg Message) ([]byte, bool) {
	frame, err := Encode(msg)
	if err != nil {
		n.logger.Error(logging.WebSocket, logging.Publish, "failed to encode frame", map[logging.ExtraKey]any{
			logging.MessageType:  msg.Type,
			logging.SessionID:    msg.SessionID,
			logging.ErrorMessage: err.Error(),
		})
		return nil, false
	}
	return frame, true
}

func (n *Notifier) StateChanged(ctx context.Context, session *domain.Session) {
	if frame, ok := n.encode(NewGameStateUpdate(session)); ok {
		n.fanout.Broadcast(ctx, session.ID, frame, "")
	}
}

func (n *Notifier) MemberJoined(ctx context.Context, sessionID string, members []domain.Member, joinedMemberID string) {
	if frame, ok := n.encode(NewUserJoined(sessionID, members)); ok {
		n.fanout.Broadcast(ctx, sessionID, frame, joinedMemberID)
	}
}

func (n *Notifier) MemberLeft(ctx context.Context, sessionID string, members []domain.Member) {
	if frame, ok := n.encode(NewUserLeft(sessionID, members)); ok {
		n.fanout.Broadcast(ctx, sessionID, frame, "")
	}
}

func (n *Notifier) MemberKicked(ctx context.Context, sessionID, memberID string) {
	if frame, ok := n.encode(NewKicked(sessionID)); ok {
		n.fanout.Kick(ctx, sessionID, memberID, frame)
	}
}
