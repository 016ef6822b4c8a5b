package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hilthontt/spinwheel/internal/application/session"
	"github.com/hilthontt/spinwheel/internal/domain"
	"github.com/hilthontt/spinwheel/internal/infrastructure/logging"
	"github.com/hilthontt/spinwheel/internal/infrastructure/ratelimiter"
	"github.com/hilthontt/spinwheel/internal/infrastructure/validate"
	"github.com/hilthontt/spinwheel/internal/infrastructure/ws"
)

const (
	msgInvalidFormat   = "Invalid message format"
	msgRateLimited     = "Too many requests, please slow down"
	msgNotJoined       = "Join a session first"
	msgSessionNotFound = "Session not found"
	msgInternal        = "Something went wrong, please try again"
)

// Dispatch handles one inbound frame from c.
func (h *Handler) Dispatch(ctx context.Context, c *peer, frame []byte) {
	var in ws.Inbound
	if err := json.Unmarshal(frame, &in); err != nil {
		h.reply(c, ws.NewError(c.client.SessionID(), msgInvalidFormat))
		return
	}
	if err := validate.Struct(in); err != nil {
		h.reply(c, ws.NewError(c.client.SessionID(), err.Error()))
		return
	}

	if !h.allow(ctx, c, ratelimiter.ScopeMessage, c.identity(), h.cfg.Messages) {
		return
	}

	sessionID, memberID := c.client.SessionID(), c.client.MemberID()
	if memberID != "" {
		if err := h.presence.Touch(ctx, sessionID, memberID); err != nil {
			h.logger.Debug(logging.Redis, logging.ExternalService, "presence refresh failed", map[logging.ExtraKey]any{
				logging.SessionID:    sessionID,
				logging.ErrorMessage: err.Error(),
			})
		}
	}

	switch in.Type {
	case ws.TypeCreateSession:
		h.createSession(ctx, c)
	case ws.TypeJoinSession:
		h.joinSession(ctx, c, in)
	case ws.TypeGameAction:
		h.gameAction(ctx, c, in)
	case ws.TypeKickUser:
		h.kickUser(ctx, c, in)
	case ws.TypeSetGameLimit:
		h.setGameLimit(ctx, c, in)
	case ws.TypeHeartbeat:
		h.reply(c, ws.NewHeartbeatAck(sessionID))
	default:
		h.reply(c, ws.NewError(sessionID, fmt.Sprintf("Unknown message type %q", in.Type)))
	}
}

// allow applies rule and answers the client when it is exceeded. Counter
// failures let the frame through.
func (h *Handler) allow(ctx context.Context, c *peer, scope, source string, rule ratelimiter.Rule) bool {
	if rule.Limit <= 0 {
		return true
	}

	d, err := h.limiter.Allow(ctx, scope, source, rule)
	if err != nil {
		h.logger.Warn(logging.Redis, logging.RateLimiting, "rate limiter unavailable", map[logging.ExtraKey]any{
			"scope":              scope,
			logging.ErrorMessage: err.Error(),
		})
		return true
	}
	if d.Allowed {
		return true
	}

	h.metrics.RateLimited(scope)
	h.logger.Warn(logging.General, logging.RateLimiting, "rate limit exceeded", map[logging.ExtraKey]any{
		"scope":           scope,
		"source":          source,
		logging.SessionID: c.client.SessionID(),
	})
	h.reply(c, ws.NewError(c.client.SessionID(), msgRateLimited))
	return false
}

func (h *Handler) createSession(ctx context.Context, c *peer) {
	if !h.allow(ctx, c, ratelimiter.ScopeCreateSession, c.source, h.cfg.CreateSession) {
		return
	}

	s, err := h.sessions.CreateSession(ctx)
	if err != nil {
		h.reply(c, ws.NewError("", msgInternal))
		return
	}
	h.reply(c, ws.NewSessionCreated(s.ID))
}

func (h *Handler) joinSession(ctx context.Context, c *peer, in ws.Inbound) {
	var p ws.JoinSessionPayload
	if !h.decode(c, in, &p) {
		return
	}

	// switching session or identity leaves the previous membership first
	if prev := c.client.SessionID(); prev != "" && (prev != p.SessionID || p.UserID != c.client.MemberID()) {
		h.disconnect(c)
		c.client.Bind("", "")
	}

	res, err := h.sessions.Join(ctx, p.SessionID, p.UserID, p.Username)
	if err != nil {
		h.replyErr(c, p.SessionID, err)
		return
	}

	c.client.Bind(p.SessionID, res.Member.MemberID)
	h.router.Register(c.client)
	_ = h.presence.Touch(ctx, p.SessionID, res.Member.MemberID)

	h.reply(c, ws.NewSessionJoined(res.Session, res.Member.MemberID, res.Members))
}

func (h *Handler) gameAction(ctx context.Context, c *peer, in ws.Inbound) {
	sessionID, memberID, ok := h.bound(c)
	if !ok {
		return
	}

	var p ws.GameActionPayload
	if !h.decode(c, in, &p) {
		return
	}

	var op session.Op
	switch p.Action {
	case ws.ActionAddGame:
		entry := h.sessions.EnrichGame(ctx, domain.GameEntry{
			Name:     p.Data.Name,
			Genre:    p.Data.Genre,
			Platform: p.Data.Platform,
		})
		op = session.AddGame{Entry: entry, MemberID: memberID}
	case ws.ActionRemoveGame:
		op = session.RemoveGame{Game: p.Data.Name}
	case ws.ActionClearAllGames:
		op = session.ClearAll{RequesterID: memberID}
	case ws.ActionStartSpin:
		op = session.StartSpin{RequesterID: memberID}
	}

	h.mutate(ctx, c, sessionID, op)
}

func (h *Handler) setGameLimit(ctx context.Context, c *peer, in ws.Inbound) {
	sessionID, memberID, ok := h.bound(c)
	if !ok {
		return
	}

	var p ws.SetGameLimitPayload
	if !h.decode(c, in, &p) {
		return
	}

	h.mutate(ctx, c, sessionID, session.SetLimit{Limit: p.Limit, RequesterID: memberID})
}

func (h *Handler) kickUser(ctx context.Context, c *peer, in ws.Inbound) {
	sessionID, memberID, ok := h.bound(c)
	if !ok {
		return
	}

	var p ws.KickUserPayload
	if !h.decode(c, in, &p) {
		return
	}

	outcome, err := h.sessions.Kick(ctx, sessionID, memberID, p.UserID)
	if err != nil {
		h.replyErr(c, sessionID, err)
		return
	}
	if outcome != session.Applied {
		h.logger.Debug(logging.Session, logging.Members, "kick ignored", map[logging.ExtraKey]any{
			logging.SessionID: sessionID,
			logging.MemberID:  memberID,
			logging.Outcome:   outcome,
		})
	}
}

func (h *Handler) mutate(ctx context.Context, c *peer, sessionID string, op session.Op) {
	res, err := h.sessions.Mutate(ctx, sessionID, op)
	if err != nil {
		h.replyErr(c, sessionID, err)
		return
	}
	if !surfaced(op, res.Outcome) {
		return
	}
	h.reply(c, ws.NewError(sessionID, rejectionMessage(op, res)))
}

// surfaced reports whether the requester hears about the outcome. A game
// added mid-spin is user input that would otherwise vanish, so it is
// reported even though other mid-spin rejections stay quiet.
func surfaced(op session.Op, outcome session.Outcome) bool {
	if _, ok := op.(session.AddGame); ok && outcome == session.AlreadySpinning {
		return true
	}
	return !outcome.Silent()
}

func (h *Handler) bound(c *peer) (string, string, bool) {
	sessionID, memberID := c.client.SessionID(), c.client.MemberID()
	if sessionID == "" || memberID == "" {
		h.reply(c, ws.NewError("", msgNotJoined))
		return "", "", false
	}
	return sessionID, memberID, true
}

// decode reads the payload of in into dst and validates it, replying with
// the first problem found.
func (h *Handler) decode(c *peer, in ws.Inbound, dst any) bool {
	data := in.Data
	if len(data) == 0 {
		data = []byte("{}")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		h.reply(c, ws.NewError(c.client.SessionID(), msgInvalidFormat))
		return false
	}
	if err := validate.Struct(dst); err != nil {
		h.reply(c, ws.NewError(c.client.SessionID(), err.Error()))
		return false
	}
	return true
}

func (h *Handler) replyErr(c *peer, sessionID string, err error) {
	if errors.Is(err, domain.ErrSessionNotFound) {
		h.reply(c, ws.NewError(sessionID, msgSessionNotFound))
		return
	}
	h.reply(c, ws.NewError(sessionID, msgInternal))
}

func (h *Handler) reply(c *peer, msg ws.Message) {
	if !c.client.SendMessage(msg) {
		h.logger.Debug(logging.WebSocket, logging.Dispatch, "reply dropped", map[logging.ExtraKey]any{
			logging.MessageType: msg.Type,
			logging.SessionID:   msg.SessionID,
		})
	}
}

// rejectionMessage is the text sent back for a surfaced rejection.
func rejectionMessage(op session.Op, res session.Result) string {
	switch res.Outcome {
	case session.DuplicateName:
		if add, ok := op.(session.AddGame); ok {
			return fmt.Sprintf("%q is already on the wheel", add.Entry.Name)
		}
		return "That game is already on the wheel"
	case session.LimitExceeded:
		if res.Session != nil && res.Session.State.GameLimit != nil {
			return fmt.Sprintf("You can only add %d game(s) to this wheel", *res.Session.State.GameLimit)
		}
		return "You have reached the game limit"
	case session.LimitBelowUsage:
		return "Someone already added more games than that limit"
	case session.InvalidLimit:
		return "Limit must be a positive number"
	case session.InvalidGame:
		return "Game name is required"
	case session.AlreadySpinning:
		return "The wheel is spinning; add games after it stops"
	}
	if res.Reason != nil {
		return res.Reason.Error()
	}
	return msgInternal
}
