package events

import (
	"context"

	"github.com/hilthontt/spinwheel/internal/infrastructure/logging"
)

// Fanout delivers a frame to this instance's connections and then hands it
// to the bus for every other instance.
type Fanout struct {
	local  LocalDelivery
	bus    *Bus
	logger logging.Logger
}

func NewFanout(local LocalDelivery, bus *Bus, logger logging.Logger) *Fanout {
	return &Fanout{
		local:  local,
		bus:    bus,
		logger: logger,
	}
}

func (f *Fanout) Broadcast(ctx context.Context, sessionID string, frame []byte, excludeMemberID string) {
	f.local.Broadcast(sessionID, frame, excludeMemberID)
	f.publish(ctx, NewBroadcast(sessionID, frame, excludeMemberID))
}

func (f *Fanout) Kick(ctx context.Context, sessionID, memberID string, frame []byte) {
	f.local.DisconnectMember(sessionID, memberID, frame)
	f.publish(ctx, NewKick(sessionID, memberID, frame))
}

func (f *Fanout) publish(ctx context.Context, env Envelope) {
	if f.bus == nil {
		return
	}
	// remote instances catch up from the cache on their next read
	if err := f.bus.Publish(ctx, env); err != nil {
		f.logger.Error(logging.Replication, logging.Publish, "replication publish failed", map[logging.ExtraKey]any{
			logging.SessionID:    env.SessionID,
			logging.ErrorMessage: err.Error(),
		})
	}
}
