package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/hilthontt/spinwheel/internal/application/spin"
	"github.com/hilthontt/spinwheel/internal/domain"
	"github.com/hilthontt/spinwheel/internal/infrastructure/logging"
	"github.com/hilthontt/spinwheel/internal/infrastructure/metrics"
	"github.com/hilthontt/spinwheel/internal/infrastructure/reporting"
	"github.com/hilthontt/spinwheel/internal/infrastructure/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxIDAttempts = 32

type ExpiryPolicy string

const (
	// ExpiryFixed keeps the expiry chosen at creation.
	ExpiryFixed ExpiryPolicy = "fixed"
	// ExpirySliding pushes the expiry forward on every applied mutation.
	ExpirySliding ExpiryPolicy = "sliding"
)

// Notifier fans session changes out to connected members.
type Notifier interface {
	StateChanged(ctx context.Context, session *domain.Session)
	MemberJoined(ctx context.Context, sessionID string, members []domain.Member, joinedMemberID string)
	MemberLeft(ctx context.Context, sessionID string, members []domain.Member)
	MemberKicked(ctx context.Context, sessionID, memberID string)
}

type Config struct {
	TTL           time.Duration
	CacheTTL      time.Duration
	ExpiryPolicy  ExpiryPolicy
	MutateTimeout time.Duration
}

type Deps struct {
	Store    domain.SessionRepository
	Members  domain.MemberRepository
	Cache    domain.SessionCache
	Catalog  domain.CatalogRepository
	Audit    domain.SessionAuditRepository
	Engine   *spin.Engine
	Notifier Notifier
	Logger   logging.Logger
	Metrics  *metrics.Recorder
	Reporter *reporting.Reporter
}

// Result is the state after a mutation together with what happened to it.
// Reason carries the rejection when Outcome is not Applied.
type Result struct {
	Session *domain.Session
	Outcome Outcome
	Reason  error
}

type JoinResult struct {
	Session *domain.Session
	Member  domain.Member
	Members []domain.Member
}

// Registry owns every session's authoritative state and funnels all writes
// for a session through a single FIFO lock.
type Registry struct {
	cfg      Config
	store    domain.SessionRepository
	members  domain.MemberRepository
	cache    domain.SessionCache
	catalog  domain.CatalogRepository
	audit    domain.SessionAuditRepository
	engine   *spin.Engine
	notifier Notifier
	logger   logging.Logger
	metrics  *metrics.Recorder
	reporter *reporting.Reporter
	tracer   trace.Tracer
	locks    *keyedMutex
	now      func() time.Time

	// ids whose cached copy may be older than the store because both the
	// refresh and the delete failed; the next locked load bypasses the cache
	staleSessions mapset.Set[string]
	staleMembers  mapset.Set[string]
}

type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

func NewRegistry(cfg Config, deps Deps, opts ...Option) *Registry {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.ExpiryPolicy == "" {
		cfg.ExpiryPolicy = ExpiryFixed
	}
	if cfg.MutateTimeout <= 0 {
		cfg.MutateTimeout = 5 * time.Second
	}

	r := &Registry{
		cfg:      cfg,
		store:    deps.Store,
		members:  deps.Members,
		cache:    deps.Cache,
		catalog:  deps.Catalog,
		audit:    deps.Audit,
		engine:   deps.Engine,
		notifier: deps.Notifier,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
		reporter: deps.Reporter,
		tracer:   tracing.GetTracer("spinwheel/session"),
		locks:    newKeyedMutex(),
		now:      time.Now,

		staleSessions: mapset.NewSet[string](),
		staleMembers:  mapset.NewSet[string](),
	}
	if r.notifier == nil {
		r.notifier = nopNotifier{}
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	if r.engine == nil {
		r.engine = spin.NewEngine(spin.DefaultOptions())
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateSession allocates an unused 6-digit id and stores an empty session.
func (r *Registry) CreateSession(ctx context.Context) (*domain.Session, error) {
	ctx, span := r.tracer.Start(ctx, "session.Create")
	defer span.End()

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := domain.NewSessionID()
		if err != nil {
			return nil, r.fail(ctx, span, "", fmt.Errorf("generate session id: %w", err))
		}

		taken, err := r.idTaken(ctx, id)
		if err != nil {
			return nil, r.fail(ctx, span, id, err)
		}
		if taken {
			continue
		}

		s := domain.NewSession(id, r.now(), r.cfg.TTL)
		if err := r.store.Create(ctx, s); err != nil {
			return nil, r.fail(ctx, span, id, fmt.Errorf("create session: %w", err))
		}
		r.cacheSession(ctx, s)

		span.SetAttributes(attribute.String("session.id", id))
		r.metrics.SessionCreated()
		r.record(domain.NewSessionCreatedLog(id, s.ExpiresAt))
		r.logger.Info(logging.Session, logging.Mutation, "session created", map[logging.ExtraKey]any{
			logging.SessionID: id,
		})
		return s.Clone(), nil
	}

	return nil, r.fail(ctx, span, "", domain.ErrSessionIDExhausted)
}

func (r *Registry) idTaken(ctx context.Context, id string) (bool, error) {
	if _, ok, err := r.cache.GetSession(ctx, id); err != nil {
		return false, fmt.Errorf("check cache for %s: %w", id, err)
	} else if ok {
		return true, nil
	}

	exists, err := r.store.Exists(ctx, id)
	if err != nil {
		return false, fmt.Errorf("check store for %s: %w", id, err)
	}
	return exists, nil
}

// GetState returns the current session, finalizing an overdue spin first.
func (r *Registry) GetState(ctx context.Context, id string) (*domain.Session, error) {
	s, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.State.SpinOverdue(r.now()) {
		res, err := r.Mutate(ctx, id, CompleteSpin{SpinID: s.State.SpinData.SpinID})
		if err != nil {
			return nil, err
		}
		return res.Session, nil
	}

	return s, nil
}

// Mutate applies op to session id. Rule rejections come back as a non-Applied
// outcome with a nil error; the error is reserved for missing sessions and
// infrastructure failures.
func (r *Registry) Mutate(ctx context.Context, id string, op Op) (Result, error) {
	ctx, span := r.tracer.Start(ctx, "session.Mutate", trace.WithAttributes(
		attribute.String("session.id", id),
		attribute.String("session.op", op.Name()),
	))
	defer span.End()

	unlock, err := r.locks.Lock(ctx, id)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	held := time.Now()
	res, err := r.mutateLocked(ctx, id, op)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return Result{}, r.fail(ctx, span, id, err)
		}
		return Result{}, err
	}

	span.SetAttributes(attribute.String("session.outcome", string(res.Outcome)))
	r.metrics.Mutation(op.Name(), string(res.Outcome), time.Since(held))
	return res, nil
}

func (r *Registry) mutateLocked(ctx context.Context, id string, op Op) (Result, error) {
	current, err := r.loadLocked(ctx, id)
	if err != nil {
		return Result{}, err
	}

	now := r.now()
	next := current.Clone()

	// a restart or a lost timer can leave a finished spin behind
	var reconciled *domain.SpinRecord
	if _, completing := op.(CompleteSpin); !completing && next.State.SpinOverdue(now) {
		record := *next.State.SpinData
		if err := next.State.CompleteSpin(record.SpinID); err == nil {
			reconciled = &record
		}
	}

	ac := &applyContext{
		engine:  r.engine,
		members: func() ([]domain.Member, error) { return r.loadMembers(ctx, current) },
	}

	applyErr := op.apply(ac, &next.State)
	outcome, isRule := outcomeFor(applyErr)
	if !isRule {
		return Result{}, fmt.Errorf("%s on %s: %w", op.Name(), id, applyErr)
	}

	if outcome != Applied && reconciled == nil {
		return Result{Session: current, Outcome: outcome, Reason: applyErr}, nil
	}

	if outcome != Applied {
		// the op was rejected but the reconciled spin still has to be kept
		next = current.Clone()
		_ = next.State.CompleteSpin(reconciled.SpinID)
	}

	if err := r.commit(ctx, next, now); err != nil {
		return Result{}, err
	}

	if reconciled != nil {
		r.spinCompleted(id, *reconciled)
	}
	if outcome == Applied {
		r.afterApply(ctx, next, op, ac)
	}

	r.notifier.StateChanged(ctx, next)

	return Result{Session: next.Clone(), Outcome: outcome, Reason: applyErr}, nil
}

// commit bumps the revision, persists and refreshes the cache.
func (r *Registry) commit(ctx context.Context, s *domain.Session, now time.Time) error {
	s.State.Revision++
	s.UpdatedAt = now
	if r.cfg.ExpiryPolicy == ExpirySliding {
		s.ExpiresAt = now.Add(r.cfg.TTL)
	}

	if err := s.State.Validate(); err != nil {
		return fmt.Errorf("refusing to persist %s: %w", s.ID, err)
	}
	if err := r.store.Update(ctx, s); err != nil {
		return fmt.Errorf("persist session %s: %w", s.ID, err)
	}
	r.cacheSession(ctx, s)
	return nil
}

func (r *Registry) afterApply(ctx context.Context, s *domain.Session, op Op, ac *applyContext) {
	switch o := op.(type) {
	case StartSpin:
		if ac.spin == nil {
			return
		}
		record := *ac.spin
		r.metrics.SpinStarted()
		r.record(domain.NewSpinStartedLog(s.ID, o.RequesterID, record, len(s.State.SelectedGames)))
		r.engine.ScheduleCompletion(s.ID, record, func() {
			r.completeSpin(s.ID, record.SpinID)
		})
		r.logger.Info(logging.Session, logging.Spin, "spin started", map[logging.ExtraKey]any{
			logging.SessionID: s.ID,
			logging.SpinID:    record.SpinID,
			"winner":          record.Winner.Name,
			"duration_ms":     record.Duration,
		})

	case CompleteSpin:
		if ac.spin != nil {
			r.spinCompleted(s.ID, *ac.spin)
		}

	case ClearAll:
		if ac.aborted != "" {
			r.engine.CancelCompletion(s.ID, ac.aborted)
		}
		r.record(domain.NewGamesClearedLog(s.ID, o.RequesterID, ac.cleared))

	case SetLimit:
		r.record(domain.NewLimitChangedLog(s.ID, o.RequesterID, o.Limit))
	}
}

func (r *Registry) spinCompleted(sessionID string, record domain.SpinRecord) {
	r.metrics.SpinCompleted()
	r.record(domain.NewSpinCompletedLog(sessionID, record.SpinID, record.Winner))
	r.logger.Info(logging.Session, logging.Spin, "spin completed", map[logging.ExtraKey]any{
		logging.SessionID: sessionID,
		logging.SpinID:    record.SpinID,
		"winner":          record.Winner.Name,
	})
}

// completeSpin runs from the scheduler once a spin's duration has elapsed.
func (r *Registry) completeSpin(sessionID, spinID string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.MutateTimeout)
	defer cancel()

	res, err := r.Mutate(ctx, sessionID, CompleteSpin{SpinID: spinID})
	if err != nil {
		r.logger.Warn(logging.Session, logging.Spin, "deferred spin completion failed", map[logging.ExtraKey]any{
			logging.SessionID:    sessionID,
			logging.SpinID:       spinID,
			logging.ErrorMessage: err.Error(),
		})
		return
	}
	if res.Outcome != Applied {
		r.logger.Debug(logging.Session, logging.Spin, "stale spin completion ignored", map[logging.ExtraKey]any{
			logging.SessionID: sessionID,
			logging.SpinID:    spinID,
			logging.Outcome:   res.Outcome,
		})
	}
}

// EnrichGame fills a missing genre or platform from the catalog. Lookup
// failures leave the entry as submitted.
func (r *Registry) EnrichGame(ctx context.Context, entry domain.GameEntry) domain.GameEntry {
	entry.Name = strings.TrimSpace(entry.Name)
	if r.catalog == nil || entry.Name == "" || (entry.Genre != "" && entry.Platform != "") {
		return entry
	}

	game, err := r.catalog.FindByName(ctx, entry.Name)
	if err != nil || game == nil {
		if err != nil && !errors.Is(err, domain.ErrGameNotFound) {
			r.logger.Warn(logging.Postgres, logging.ExternalService, "catalog lookup failed", map[logging.ExtraKey]any{
				"game":               entry.Name,
				logging.ErrorMessage: err.Error(),
			})
		}
		return entry
	}

	if entry.Genre == "" {
		entry.Genre = game.Genre
	}
	if entry.Platform == "" {
		entry.Platform = game.Platform
	}
	return entry
}

// Join adds or refreshes memberID in session id. An empty memberID gets a
// fresh one. Rejoining keeps the original join rank.
func (r *Registry) Join(ctx context.Context, id, memberID, username string) (JoinResult, error) {
	ctx, span := r.tracer.Start(ctx, "session.Join", trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	unlock, err := r.locks.Lock(ctx, id)
	if err != nil {
		return JoinResult{}, err
	}
	defer unlock()

	s, err := r.loadLocked(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return JoinResult{}, err
		}
		return JoinResult{}, r.fail(ctx, span, id, err)
	}

	if memberID == "" {
		memberID = uuid.NewString()
	}

	now := r.now()
	member := &domain.Member{
		SessionID: id,
		MemberID:  memberID,
		Username:  strings.TrimSpace(username),
		JoinedAt:  now,
		LastSeen:  now,
	}
	if err := r.members.Upsert(ctx, member); err != nil {
		return JoinResult{}, r.fail(ctx, span, id, fmt.Errorf("upsert member: %w", err))
	}

	list, err := r.refreshMembers(ctx, s)
	if err != nil {
		return JoinResult{}, r.fail(ctx, span, id, err)
	}

	r.notifier.MemberJoined(ctx, id, list, memberID)
	r.record(domain.NewMemberJoinedLog(id, memberID, len(list)))

	if s.State.SpinOverdue(now) {
		unlock()
		s, err = r.GetState(ctx, id)
		if err != nil {
			return JoinResult{}, err
		}
	}

	return JoinResult{Session: s, Member: *member, Members: list}, nil
}

// Leave removes memberID and tells the rest of the session.
func (r *Registry) Leave(ctx context.Context, id, memberID string) error {
	unlock, err := r.locks.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	if err := r.members.Delete(ctx, id, memberID); err != nil {
		return r.fail(ctx, nil, id, fmt.Errorf("delete member: %w", err))
	}

	s, err := r.loadLocked(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return r.fail(ctx, nil, id, err)
	}

	list, err := r.refreshMembers(ctx, s)
	if err != nil {
		return r.fail(ctx, nil, id, err)
	}

	r.notifier.MemberLeft(ctx, id, list)
	r.record(domain.NewMemberLeftLog(id, memberID, len(list)))
	return nil
}

// Kick removes targetID on behalf of requesterID. Only the creator may kick
// and never themself; anything else comes back Forbidden with no change.
func (r *Registry) Kick(ctx context.Context, id, requesterID, targetID string) (Outcome, error) {
	unlock, err := r.locks.Lock(ctx, id)
	if err != nil {
		return "", err
	}
	defer unlock()

	s, err := r.loadLocked(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return "", err
		}
		return "", r.fail(ctx, nil, id, err)
	}

	list, err := r.loadMembers(ctx, s)
	if err != nil {
		return "", r.fail(ctx, nil, id, err)
	}

	if !domain.IsCreator(list, requesterID) || targetID == requesterID {
		return Forbidden, nil
	}
	if _, ok := domain.FindMember(list, targetID); !ok {
		return MemberNotFound, nil
	}

	if err := r.members.Delete(ctx, id, targetID); err != nil {
		return "", r.fail(ctx, nil, id, fmt.Errorf("delete member: %w", err))
	}

	list, err = r.refreshMembers(ctx, s)
	if err != nil {
		return "", r.fail(ctx, nil, id, err)
	}

	r.notifier.MemberKicked(ctx, id, targetID)
	r.notifier.MemberLeft(ctx, id, list)
	r.record(domain.NewMemberKickedLog(id, targetID, requesterID))
	r.logger.Info(logging.Session, logging.Members, "member kicked", map[logging.ExtraKey]any{
		logging.SessionID: id,
		logging.MemberID:  targetID,
	})
	return Applied, nil
}

// Members lists the session's members in join order.
func (r *Registry) Members(ctx context.Context, id string) ([]domain.Member, error) {
	if _, err := r.load(ctx, id); err != nil {
		return nil, err
	}
	if list, ok := r.cachedMembers(ctx, id); ok {
		return list, nil
	}

	unlock, err := r.locks.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, err := r.loadLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.loadMembers(ctx, s)
}

func (r *Registry) Stats(ctx context.Context) (domain.SessionStats, error) {
	return r.store.Stats(ctx, r.now())
}

// ReapExpired deletes sessions past their expiry from durable storage.
func (r *Registry) ReapExpired(ctx context.Context) (int64, error) {
	n, err := r.store.DeleteExpired(ctx, r.now())
	if err != nil {
		return 0, fmt.Errorf("reap expired sessions: %w", err)
	}
	r.metrics.SessionsReaped(n)
	return n, nil
}

// load serves readers that do not hold the session lock. A cache hit is
// returned directly; a miss is filled under the lock so a store snapshot
// can never land on top of a newer committed document.
func (r *Registry) load(ctx context.Context, id string) (*domain.Session, error) {
	if s, ok := r.cachedSession(ctx, id); ok {
		if s.IsExpired(r.now()) {
			return nil, fmt.Errorf("%s: %w", id, domain.ErrSessionNotFound)
		}
		return s, nil
	}

	unlock, err := r.locks.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return r.loadLocked(ctx, id)
}

// loadLocked reads the session from cache, falling back to the store and
// repopulating the cache. Callers hold the session lock. Expired sessions
// are reported as not found.
func (r *Registry) loadLocked(ctx context.Context, id string) (*domain.Session, error) {
	now := r.now()

	if s, ok := r.cachedSession(ctx, id); ok {
		if s.IsExpired(now) {
			return nil, fmt.Errorf("%s: %w", id, domain.ErrSessionNotFound)
		}
		return s, nil
	}

	s, err := r.store.GetActive(ctx, id, now)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, fmt.Errorf("%s: %w", id, domain.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	r.cacheSession(ctx, s)
	return s, nil
}

func (r *Registry) cachedSession(ctx context.Context, id string) (*domain.Session, bool) {
	if r.staleSessions.Contains(id) {
		return nil, false
	}

	s, ok, err := r.cache.GetSession(ctx, id)
	if err != nil {
		r.logger.Warn(logging.Redis, logging.ExternalService, "session cache read failed, using store", map[logging.ExtraKey]any{
			logging.SessionID:    id,
			logging.ErrorMessage: err.Error(),
		})
		return nil, false
	}
	return s, ok
}

func (r *Registry) cachedMembers(ctx context.Context, id string) ([]domain.Member, bool) {
	if r.staleMembers.Contains(id) {
		return nil, false
	}

	list, ok, err := r.cache.GetMembers(ctx, id)
	if err != nil || !ok {
		return nil, false
	}
	domain.SortByJoin(list)
	return list, true
}

// loadMembers must run under the session lock.
func (r *Registry) loadMembers(ctx context.Context, s *domain.Session) ([]domain.Member, error) {
	if list, ok := r.cachedMembers(ctx, s.ID); ok {
		return list, nil
	}
	return r.refreshMembers(ctx, s)
}

// refreshMembers reads members from the store and rewrites the cached list.
// Callers hold the session lock.
func (r *Registry) refreshMembers(ctx context.Context, s *domain.Session) ([]domain.Member, error) {
	list, err := r.members.ListByJoin(ctx, s.ID)
	if err != nil {
		return nil, fmt.Errorf("list members of %s: %w", s.ID, err)
	}
	domain.SortByJoin(list)

	if err := r.cache.SetMembers(ctx, s.ID, list, r.cacheTTL(s)); err != nil {
		r.logger.Warn(logging.Redis, logging.ExternalService, "member cache write failed", map[logging.ExtraKey]any{
			logging.SessionID:    s.ID,
			logging.ErrorMessage: err.Error(),
		})
		r.dropCached(ctx, s.ID, r.staleMembers)
	} else {
		r.staleMembers.Remove(s.ID)
	}
	return list, nil
}

func (r *Registry) cacheTTL(s *domain.Session) time.Duration {
	ttl := r.cfg.CacheTTL
	if left := s.ExpiresAt.Sub(r.now()); left < ttl {
		ttl = left
	}
	return ttl
}

// cacheSession refreshes the cached copy. The store already holds the write,
// so a failure only drops the stale copy.
func (r *Registry) cacheSession(ctx context.Context, s *domain.Session) {
	if err := r.cache.SetSession(ctx, s, r.cacheTTL(s)); err != nil {
		r.logger.Warn(logging.Redis, logging.ExternalService, "session cache write failed", map[logging.ExtraKey]any{
			logging.SessionID:    s.ID,
			logging.ErrorMessage: err.Error(),
		})
		r.dropCached(ctx, s.ID, r.staleSessions)
		return
	}
	r.staleSessions.Remove(s.ID)
}

// dropCached deletes the cached entries for id. If even that fails the id is
// marked so this instance stops trusting the cache for it until a refresh
// succeeds.
func (r *Registry) dropCached(ctx context.Context, id string, stale mapset.Set[string]) {
	if err := r.cache.Delete(ctx, id); err != nil {
		stale.Add(id)
		r.logger.Warn(logging.Redis, logging.ExternalService, "session cache delete failed, bypassing cache", map[logging.ExtraKey]any{
			logging.SessionID:    id,
			logging.ErrorMessage: err.Error(),
		})
	}
}

func (r *Registry) record(entry *domain.SessionAuditLog) {
	if r.audit == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.MutateTimeout)
		defer cancel()

		if err := r.audit.Log(ctx, entry); err != nil {
			r.logger.Warn(logging.MongoDB, logging.ExternalService, "audit log write failed", map[logging.ExtraKey]any{
				logging.SessionID:    entry.SessionID,
				"event":              entry.EventType,
				logging.ErrorMessage: err.Error(),
			})
		}
	}()
}

func (r *Registry) fail(ctx context.Context, span trace.Span, sessionID string, err error) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	r.reporter.Capture(ctx, err, sessionID)
	r.logger.Error(logging.Session, logging.Mutation, "session operation failed", map[logging.ExtraKey]any{
		logging.SessionID:    sessionID,
		logging.ErrorMessage: err.Error(),
	})
	return err
}

type nopNotifier struct{}

func (nopNotifier) StateChanged(context.Context, *domain.Session)                 {}
func (nopNotifier) MemberJoined(context.Context, string, []domain.Member, string) {}
func (nopNotifier) MemberLeft(context.Context, string, []domain.Member)           {}
func (nopNotifier) MemberKicked(context.Context, string, string)                  {}
