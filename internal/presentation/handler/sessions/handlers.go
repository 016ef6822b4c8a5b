package sessions

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hilthontt/spinwheel/internal/domain"
	"github.com/hilthontt/spinwheel/internal/infrastructure/json"
	"github.com/hilthontt/spinwheel/internal/infrastructure/logging"
	"github.com/hilthontt/spinwheel/internal/infrastructure/validate"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type Reader interface {
	GetState(ctx context.Context, id string) (*domain.Session, error)
	Members(ctx context.Context, id string) ([]domain.Member, error)
	Stats(ctx context.Context) (domain.SessionStats, error)
}

type Presence interface {
	Online(ctx context.Context, sessionID string, memberIDs []string) (map[string]bool, error)
}

type Connections interface {
	ConnectionCount(sessionID string) int
	TotalConnections() int
}

type Handler struct {
	sessions    Reader
	presence    Presence
	connections Connections
	audit       domain.SessionAuditRepository
	logger      logging.Logger
}

// NewHandler builds the REST view of sessions. audit may be nil when the
// audit store is disabled.
func NewHandler(sessions Reader, presence Presence, connections Connections, audit domain.SessionAuditRepository, logger logging.Logger) *Handler {
	return &Handler{
		sessions:    sessions,
		presence:    presence,
		connections: connections,
		audit:       audit,
		logger:      logger,
	}
}

// GetSessionHandler godoc
// @Summary      Look up a session
// @Description  Returns the current game state and members with their presence
// @Tags         sessions
// @Produce      json
// @Param        sessionId path string true "6-digit session code"
// @Success      200 {object} sessionResponse
// @Failure      400 {object} map[string]interface{} "Invalid session code"
// @Failure      404 {object} map[string]interface{} "Session not found"
// @Router       /sessions/{sessionId} [get]
func (h *Handler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	s, err := h.sessions.GetState(ctx, id)
	if err != nil {
		h.writeLookupError(w, id, err)
		return
	}

	members, err := h.sessions.Members(ctx, id)
	if err != nil {
		h.writeLookupError(w, id, err)
		return
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.MemberID
	}
	online, err := h.presence.Online(ctx, id, ids)
	if err != nil {
		h.logger.Warn(logging.Redis, logging.ExternalService, "presence lookup failed", map[logging.ExtraKey]any{
			logging.SessionID:    id,
			logging.ErrorMessage: err.Error(),
		})
		online = map[string]bool{}
	}

	domain.SortByJoin(members)
	users := make([]memberResponse, 0, len(members))
	for i, m := range members {
		users = append(users, memberResponse{
			UserID:    m.MemberID,
			Username:  m.Username,
			JoinedAt:  m.JoinedAt,
			IsCreator: i == 0,
			Online:    online[m.MemberID],
		})
	}

	json.Write(w, http.StatusOK, sessionResponse{
		SessionID:   s.ID,
		GameState:   s.State,
		Users:       users,
		Connections: h.connections.ConnectionCount(id),
		CreatedAt:   s.CreatedAt,
		ExpiresAt:   s.ExpiresAt,
	})
}

// GetHistoryHandler godoc
// @Summary      Session history
// @Description  Lists the most recent audit events of a session, newest first
// @Tags         sessions
// @Produce      json
// @Param        sessionId path string true "6-digit session code"
// @Param        limit query int false "Maximum number of events (default 50)"
// @Success      200 {object} historyResponse
// @Failure      501 {object} map[string]interface{} "History is disabled"
// @Router       /sessions/{sessionId}/history [get]
func (h *Handler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	if h.audit == nil {
		json.WriteNotImplementedError(w, "Session history is not enabled")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || validate.Var(n, "gte=1,lte=500") != nil {
			json.WriteBadRequestError(w, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	events, err := h.audit.GetBySessionID(r.Context(), id, min(limit, maxHistoryLimit))
	if err != nil {
		h.logger.Error(logging.MongoDB, logging.ExternalService, "failed to read session history", map[logging.ExtraKey]any{
			logging.SessionID:    id,
			logging.ErrorMessage: err.Error(),
		})
		json.WriteInternalError(w)
		return
	}

	json.Write(w, http.StatusOK, historyResponse{SessionID: id, Events: events})
}

// GetStatsHandler godoc
// @Summary      Service statistics
// @Description  Active sessions and members across instances, connections on this one
// @Tags         sessions
// @Produce      json
// @Success      200 {object} statsResponse
// @Router       /stats [get]
func (h *Handler) GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sessions.Stats(r.Context())
	if err != nil {
		h.logger.Error(logging.Postgres, logging.ExternalService, "failed to read stats", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		json.WriteInternalError(w)
		return
	}

	json.Write(w, http.StatusOK, statsResponse{
		SessionStats:     stats,
		LocalConnections: h.connections.TotalConnections(),
	})
}

func sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "sessionId")
	if err := validate.Var(id, "required,sessionid"); err != nil {
		json.WriteBadRequestError(w, "sessionId must be a 6-digit session code")
		return "", false
	}
	return id, true
}

func (h *Handler) writeLookupError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, domain.ErrSessionNotFound) {
		json.WriteNotFoundError(w, "Session not found")
		return
	}
	h.logger.Error(logging.Session, logging.ExternalService, "session lookup failed", map[logging.ExtraKey]any{
		logging.SessionID:    id,
		logging.ErrorMessage: err.Error(),
	})
	json.WriteInternalError(w)
}
