package ws

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hilthontt/spinwheel/internal/infrastructure/metrics"
)

// Router maps session ids to the live connections of this instance.
type Router struct {
	mu       sync.RWMutex
	sessions map[string]mapset.Set[*Client]
	metrics  *metrics.Recorder
}

func NewRouter(m *metrics.Recorder) *Router {
	return &Router{
		sessions: make(map[string]mapset.Set[*Client]),
		metrics:  m,
	}
}

// Register adds c under its bound session.
func (r *Router) Register(c *Client) {
	sessionID := c.SessionID()
	if sessionID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sessions[sessionID]
	if !ok {
		set = mapset.NewThreadUnsafeSet[*Client]()
		r.sessions[sessionID] = set
	}
	if set.Add(c) {
		r.metrics.ConnectionOpened()
	}
}

// Unregister removes c and reports whether it was still registered.
func (r *Router) Unregister(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(c.SessionID(), c)
}

func (r *Router) removeLocked(sessionID string, c *Client) bool {
	set, ok := r.sessions[sessionID]
	if !ok || !set.Contains(c) {
		return false
	}

	set.Remove(c)
	if set.Cardinality() == 0 {
		delete(r.sessions, sessionID)
	}
	r.metrics.ConnectionClosed()
	return true
}

func (r *Router) clients(sessionID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	return set.ToSlice()
}

// Broadcast queues frame on every connection of the session except those
// of excludeMemberID. It returns the number of connections reached.
func (r *Router) Broadcast(sessionID string, frame []byte, excludeMemberID string) int {
	n := 0
	for _, c := range r.clients(sessionID) {
		if excludeMemberID != "" && c.MemberID() == excludeMemberID {
			continue
		}
		if c.Send(frame) {
			n++
		}
	}
	return n
}

// DisconnectMember sends frame to the member's connections, deregisters and
// closes them.
func (r *Router) DisconnectMember(sessionID, memberID string, frame []byte) int {
	var targets []*Client
	for _, c := range r.clients(sessionID) {
		if c.MemberID() == memberID {
			targets = append(targets, c)
		}
	}

	for _, c := range targets {
		if frame != nil {
			c.Send(frame)
		}
		r.mu.Lock()
		r.removeLocked(sessionID, c)
		r.mu.Unlock()
		c.Close()
	}
	return len(targets)
}

func (r *Router) HasMember(sessionID, memberID string) bool {
	for _, c := range r.clients(sessionID) {
		if c.MemberID() == memberID {
			return true
		}
	}
	return false
}

func (r *Router) ConnectionCount(sessionID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if set, ok := r.sessions[sessionID]; ok {
		return set.Cardinality()
	}
	return 0
}

func (r *Router) TotalConnections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, set := range r.sessions {
		n += set.Cardinality()
	}
	return n
}

// CloseAll closes every connection; used at shutdown.
func (r *Router) CloseAll() {
	r.mu.Lock()
	all := make([]*Client, 0)
	for id, set := range r.sessions {
		all = append(all, set.ToSlice()...)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, c := range all {
		c.Close()
	}
}
