package realtime

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hilthontt/spinwheel/internal/application/session"
	"github.com/hilthontt/spinwheel/internal/domain"
	"github.com/hilthontt/spinwheel/internal/infrastructure/logging"
	"github.com/hilthontt/spinwheel/internal/infrastructure/metrics"
	"github.com/hilthontt/spinwheel/internal/infrastructure/ratelimiter"
	"github.com/hilthontt/spinwheel/internal/infrastructure/ws"
)

// Sessions is the part of the session registry the socket protocol drives.
type Sessions interface {
	CreateSession(ctx context.Context) (*domain.Session, error)
	Join(ctx context.Context, id, memberID, username string) (session.JoinResult, error)
	Leave(ctx context.Context, id, memberID string) error
	Kick(ctx context.Context, id, requesterID, targetID string) (session.Outcome, error)
	Mutate(ctx context.Context, id string, op session.Op) (session.Result, error)
	EnrichGame(ctx context.Context, entry domain.GameEntry) domain.GameEntry
}

type Presence interface {
	Touch(ctx context.Context, sessionID, memberID string) error
	Clear(ctx context.Context, sessionID, memberID string) error
}

type Config struct {
	Client        ws.ClientOptions
	Messages      ratelimiter.Rule
	CreateSession ratelimiter.Rule
	// ActionTimeout bounds the work done for one inbound frame.
	ActionTimeout time.Duration
}

type Handler struct {
	cfg      Config
	sessions Sessions
	router   *ws.Router
	limiter  *ratelimiter.Limiter
	presence Presence
	upgrader *websocket.Upgrader
	logger   logging.Logger
	metrics  *metrics.Recorder
}

func NewHandler(
	cfg Config,
	sessions Sessions,
	router *ws.Router,
	limiter *ratelimiter.Limiter,
	presence Presence,
	logger logging.Logger,
	m *metrics.Recorder,
) *Handler {
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = 5 * time.Second
	}
	return &Handler{
		cfg:      cfg,
		sessions: sessions,
		router:   router,
		limiter:  limiter,
		presence: presence,
		upgrader: ws.NewUpgrader(cfg.Client),
		logger:   logger,
		metrics:  m,
	}
}

// ServeWS godoc
// @Summary      Open the session socket
// @Description  Upgrades to a WebSocket speaking the {type, sessionId, data} envelope
// @Tags         realtime
// @Success      101
// @Router       /ws [get]
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(logging.WebSocket, logging.Connect, "websocket upgrade failed", map[logging.ExtraKey]any{
			logging.ClientIp:     r.RemoteAddr,
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	c := &peer{
		client: ws.NewClient(conn, h.cfg.Client),
		source: h.limiter.GetSourceKey(r),
	}

	h.logger.Debug(logging.WebSocket, logging.Connect, "connection opened", map[logging.ExtraKey]any{
		"connection":     c.client.ID,
		logging.ClientIp: c.source,
	})

	go c.client.WritePump()
	c.client.ReadPump(func(frame []byte) {
		h.handleFrame(c, frame)
	})

	h.disconnect(c)
}

func (h *Handler) handleFrame(c *peer, frame []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.ActionTimeout)
	defer cancel()

	h.Dispatch(ctx, c, frame)
}

// disconnect drops the connection and, when it was the member's last one
// here, removes the member from the session.
func (h *Handler) disconnect(c *peer) {
	sessionID, memberID := c.client.SessionID(), c.client.MemberID()

	// a kicked member was already deregistered by the kick itself
	if !h.router.Unregister(c.client) || sessionID == "" {
		return
	}
	if h.router.HasMember(sessionID, memberID) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.ActionTimeout)
	defer cancel()

	if err := h.presence.Clear(ctx, sessionID, memberID); err != nil {
		h.logger.Warn(logging.Redis, logging.ExternalService, "failed to clear presence", map[logging.ExtraKey]any{
			logging.SessionID:    sessionID,
			logging.MemberID:     memberID,
			logging.ErrorMessage: err.Error(),
		})
	}
	if err := h.sessions.Leave(ctx, sessionID, memberID); err != nil {
		h.logger.Warn(logging.Session, logging.Members, "failed to remove member on disconnect", map[logging.ExtraKey]any{
			logging.SessionID:    sessionID,
			logging.MemberID:     memberID,
			logging.ErrorMessage: err.Error(),
		})
	}
}

// peer is a connection plus the rate-limit identity of its remote end.
type peer struct {
	client *ws.Client
	source string
}

// identity is what per-message limits are counted against: the member once
// joined, the connection before that.
func (p *peer) identity() string {
	if id := p.client.MemberID(); id != "" {
		return "member:" + id
	}
	return "conn:" + p.client.ID
}
