package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hilthontt/spinwheel/internal/domain"
)

// memStore backs both session and member repositories.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	members  map[string]map[string]domain.Member
	seq      int64
	updates  int

	// onGet and onList, when set, run before every GetActive / ListByJoin
	// outside the store lock
	onGet  func()
	onList func()
}

func (m *memStore) hooks(get, list func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onGet, m.onList = get, list
}

func newMemStore() *memStore {
	return &memStore{
		sessions: make(map[string]*domain.Session),
		members:  make(map[string]map[string]domain.Member),
	}
}

func (m *memStore) Create(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *memStore) GetActive(_ context.Context, id string, now time.Time) (*domain.Session, error) {
	m.mu.Lock()
	hook := m.onGet
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.IsExpired(now) {
		return nil, domain.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *memStore) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	return ok, nil
}

func (m *memStore) Update(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return domain.ErrSessionNotFound
	}
	m.sessions[s.ID] = s.Clone()
	m.updates++
	return nil
}

func (m *memStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.IsExpired(now) {
			delete(m.sessions, id)
			delete(m.members, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) Stats(_ context.Context, now time.Time) (domain.SessionStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var st domain.SessionStats
	for id, s := range m.sessions {
		if !s.IsExpired(now) {
			st.ActiveSessions++
			st.ActiveMembers += int64(len(m.members[id]))
		}
	}
	return st, nil
}

func (m *memStore) stored(id string) *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s.Clone()
	}
	return nil
}

func (m *memStore) Upsert(_ context.Context, member *domain.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.members[member.SessionID]
	if !ok {
		set = make(map[string]domain.Member)
		m.members[member.SessionID] = set
	}
	if existing, ok := set[member.MemberID]; ok {
		member.JoinedAt = existing.JoinedAt
		member.JoinSeq = existing.JoinSeq
	} else {
		m.seq++
		member.JoinSeq = m.seq
	}
	set[member.MemberID] = *member
	return nil
}

func (m *memStore) Delete(_ context.Context, sessionID, memberID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.members[sessionID], memberID)
	return nil
}

func (m *memStore) ListByJoin(_ context.Context, sessionID string) ([]domain.Member, error) {
	m.mu.Lock()
	hook := m.onList
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Member, 0, len(m.members[sessionID]))
	for _, mem := range m.members[sessionID] {
		out = append(out, mem)
	}
	domain.SortByJoin(out)
	return out, nil
}

type memCache struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	members  map[string][]domain.Member
	failing  bool
}

var errCacheDown = errors.New("cache unavailable")

// fail makes every write and delete return an error while reads keep working.
func (c *memCache) fail(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failing = on
}

func newMemCache() *memCache {
	return &memCache{
		sessions: make(map[string]*domain.Session),
		members:  make(map[string][]domain.Member),
	}
}

func (c *memCache) GetSession(_ context.Context, id string) (*domain.Session, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return nil, false, nil
	}
	return s.Clone(), true, nil
}

func (c *memCache) SetSession(_ context.Context, s *domain.Session, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errCacheDown
	}
	if ttl <= 0 {
		delete(c.sessions, s.ID)
		return nil
	}
	c.sessions[s.ID] = s.Clone()
	return nil
}

func (c *memCache) GetMembers(_ context.Context, id string) ([]domain.Member, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list, ok := c.members[id]
	if !ok {
		return nil, false, nil
	}
	return append([]domain.Member{}, list...), true, nil
}

func (c *memCache) SetMembers(_ context.Context, id string, members []domain.Member, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errCacheDown
	}
	if ttl <= 0 {
		delete(c.members, id)
		return nil
	}
	c.members[id] = append([]domain.Member{}, members...)
	return nil
}

func (c *memCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errCacheDown
	}
	delete(c.sessions, id)
	delete(c.members, id)
	return nil
}

func (c *memCache) evict(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
}

func (c *memCache) evictMembers(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.members, id)
}

type recNotifier struct {
	mu     sync.Mutex
	states []*domain.Session
	joined []string
	left   int
	kicked []string
}

func (n *recNotifier) StateChanged(_ context.Context, s *domain.Session) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.states = append(n.states, s.Clone())
}

func (n *recNotifier) MemberJoined(_ context.Context, _ string, _ []domain.Member, id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.joined = append(n.joined, id)
}

func (n *recNotifier) MemberLeft(context.Context, string, []domain.Member) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.left++
}

func (n *recNotifier) MemberKicked(_ context.Context, _ string, id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kicked = append(n.kicked, id)
}

func (n *recNotifier) stateCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.states)
}

type fakeCatalog struct {
	games map[string]domain.CatalogGame
}

func (c fakeCatalog) FindByName(_ context.Context, name string) (*domain.CatalogGame, error) {
	g, ok := c.games[name]
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return &g, nil
}

func (c fakeCatalog) List(context.Context, domain.CatalogFilter) ([]domain.CatalogGame, error) {
	return nil, nil
}
