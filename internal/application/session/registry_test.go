package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hilthontt/spinwheel/internal/application/spin"
	"github.com/hilthontt/spinwheel/internal/domain"
)

type fixture struct {
	reg    *Registry
	store  *memStore
	cache  *memCache
	notif  *recNotifier
	engine *spin.Engine
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFixture(t *testing.T, spinFor time.Duration, cfg Config, clock *testClock) *fixture {
	t.Helper()

	engineOpts := []spin.Option{}
	regOpts := []Option{}
	if clock != nil {
		engineOpts = append(engineOpts, spin.WithClock(clock.Now))
		regOpts = append(regOpts, WithClock(clock.Now))
	}

	engine := spin.NewEngine(spin.Options{
		MinTurns:    10,
		MaxTurns:    14,
		MinDuration: spinFor,
		MaxDuration: spinFor,
	}, engineOpts...)
	t.Cleanup(engine.Stop)

	f := &fixture{
		store:  newMemStore(),
		cache:  newMemCache(),
		notif:  &recNotifier{},
		engine: engine,
	}
	f.reg = NewRegistry(cfg, Deps{
		Store:    f.store,
		Members:  f.store,
		Cache:    f.cache,
		Engine:   engine,
		Notifier: f.notif,
	}, regOpts...)
	return f
}

// sessionWith creates a session and joins the given members in order.
func (f *fixture) sessionWith(t *testing.T, members ...string) string {
	t.Helper()
	ctx := context.Background()

	s, err := f.reg.CreateSession(ctx)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	for _, m := range members {
		if _, err := f.reg.Join(ctx, s.ID, m, "user-"+m); err != nil {
			t.Fatalf("join %s: %v", m, err)
		}
	}
	return s.ID
}

func (f *fixture) mustMutate(t *testing.T, id string, op Op) Result {
	t.Helper()
	res, err := f.reg.Mutate(context.Background(), id, op)
	if err != nil {
		t.Fatalf("%s: unexpected error %v", op.Name(), err)
	}
	return res
}

func limit(n int) *int { return &n }

func TestCreateSession(t *testing.T) {
	f := newFixture(t, time.Second, Config{TTL: time.Hour}, nil)

	s, err := f.reg.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(s.ID) != 6 {
		t.Fatalf("expected a 6-digit id, got %q", s.ID)
	}
	if f.store.stored(s.ID) == nil {
		t.Fatalf("session should be persisted")
	}
	if _, ok, _ := f.cache.GetSession(context.Background(), s.ID); !ok {
		t.Fatalf("session should be cached")
	}
	if len(s.State.SelectedGames) != 0 || s.State.Spinning() {
		t.Fatalf("new session should start empty, got %+v", s.State)
	}
}

func TestScenarioA_AddGame(t *testing.T) {
	f := newFixture(t, time.Second, Config{}, nil)
	id := f.sessionWith(t, "A")

	res := f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: "Chess"}, MemberID: "A"})
	if res.Outcome != Applied {
		t.Fatalf("expected applied, got %s", res.Outcome)
	}

	st := res.Session.State
	if len(st.SelectedGames) != 1 || st.SelectedGames[0].Name != "Chess" || st.SelectedGames[0].AddedBy != "A" {
		t.Fatalf("unexpected selection %+v", st.SelectedGames)
	}
	if len(st.UserGameCounts) != 1 || st.UserGameCounts["A"] != 1 {
		t.Fatalf("expected counts {A:1}, got %v", st.UserGameCounts)
	}
	if f.notif.stateCount() != 1 {
		t.Fatalf("an applied mutation should fan out once, got %d", f.notif.stateCount())
	}
	if stored := f.store.stored(id); stored.State.Revision != st.Revision || !stored.State.HasGame("Chess") {
		t.Fatalf("durable copy should match the returned state")
	}
}

func TestScenarioB_LimitExceeded(t *testing.T) {
	f := newFixture(t, time.Second, Config{}, nil)
	id := f.sessionWith(t, "A")

	if res := f.mustMutate(t, id, SetLimit{Limit: limit(1), RequesterID: "A"}); res.Outcome != Applied {
		t.Fatalf("creator should set the limit, got %s", res.Outcome)
	}
	before := f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: "Chess"}, MemberID: "A"}).Session

	res := f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: "Go"}, MemberID: "A"})
	if res.Outcome != LimitExceeded {
		t.Fatalf("expected limit exceeded, got %s", res.Outcome)
	}
	if !errors.Is(res.Reason, domain.ErrLimitExceeded) {
		t.Fatalf("reason should wrap ErrLimitExceeded, got %v", res.Reason)
	}
	if res.Outcome.Silent() {
		t.Fatalf("capacity errors must be surfaced")
	}

	after, err := f.reg.GetState(context.Background(), id)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if after.State.Revision != before.State.Revision || len(after.State.SelectedGames) != 1 {
		t.Fatalf("rejected add should not change state: before=%+v after=%+v", before.State, after.State)
	}
}

func TestScenarioC_SpinCompletes(t *testing.T) {
	f := newFixture(t, 40*time.Millisecond, Config{}, nil)
	id := f.sessionWith(t, "A")

	for _, g := range []string{"Chess", "Go", "Shogi"} {
		f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: g}, MemberID: "A"})
	}

	res := f.mustMutate(t, id, StartSpin{RequesterID: "A"})
	if res.Outcome != Applied {
		t.Fatalf("expected spin to start, got %s", res.Outcome)
	}
	st := res.Session.State
	if !st.Spinning() || st.SpinData == nil || st.Winner != nil {
		t.Fatalf("expected spinning state, got %+v", st)
	}
	picked := st.SpinData.Winner
	if !st.HasGame(picked.Name) {
		t.Fatalf("winner %q should be one of the selection", picked.Name)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		stored := f.store.stored(id)
		if stored.State.SpinData == nil {
			if stored.State.Winner == nil || stored.State.Winner.Name != picked.Name {
				t.Fatalf("expected winner %q, got %+v", picked.Name, stored.State.Winner)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("spin never completed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if f.engine.Scheduler().Pending() != 0 {
		t.Fatalf("no completion should remain scheduled")
	}
}

func TestScenarioD_ClearMidSpin(t *testing.T) {
	f := newFixture(t, 40*time.Millisecond, Config{}, nil)
	id := f.sessionWith(t, "A")

	f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: "Chess"}, MemberID: "A"})
	f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: "Go"}, MemberID: "A"})
	f.mustMutate(t, id, StartSpin{RequesterID: "A"})

	res := f.mustMutate(t, id, ClearAll{RequesterID: "A"})
	st := res.Session.State
	if res.Outcome != Applied || len(st.SelectedGames) != 0 || st.Spinning() || st.Winner != nil || len(st.UserGameCounts) != 0 {
		t.Fatalf("clear should reset everything, got %s %+v", res.Outcome, st)
	}
	revision := st.Revision
	notified := f.notif.stateCount()

	if f.engine.Scheduler().Pending() != 0 {
		t.Fatalf("clear should cancel the pending completion")
	}
	time.Sleep(80 * time.Millisecond)

	stored := f.store.stored(id)
	if stored.State.Revision != revision || stored.State.Winner != nil {
		t.Fatalf("cleared session must stay untouched, got %+v", stored.State)
	}
	if f.notif.stateCount() != notified {
		t.Fatalf("cleared session must not fan out again")
	}
}

func TestScenarioE_ConcurrentDuplicate(t *testing.T) {
	f := newFixture(t, time.Second, Config{}, nil)
	id := f.sessionWith(t, "A", "B")

	var wg sync.WaitGroup
	outcomes := make([]Outcome, 2)
	for i, member := range []string{"A", "B"} {
		wg.Add(1)
		go func(i int, member string) {
			defer wg.Done()
			res, err := f.reg.Mutate(context.Background(), id, AddGame{Entry: domain.GameEntry{Name: "Chess"}, MemberID: member})
			if err != nil {
				t.Errorf("mutate: %v", err)
				return
			}
			outcomes[i] = res.Outcome
		}(i, member)
	}
	wg.Wait()

	applied, dup := 0, 0
	for _, o := range outcomes {
		switch o {
		case Applied:
			applied++
		case DuplicateName:
			dup++
		}
	}
	if applied != 1 || dup != 1 {
		t.Fatalf("expected one applied and one duplicate, got %v", outcomes)
	}

	st := f.store.stored(id).State
	if len(st.SelectedGames) != 1 {
		t.Fatalf("exactly one Chess should survive, got %+v", st.SelectedGames)
	}
	if err := st.Validate(); err != nil {
		t.Fatalf("invariants broken: %v", err)
	}
}

func TestLimitHoldsUnderConcurrency(t *testing.T) {
	f := newFixture(t, time.Second, Config{}, nil)
	id := f.sessionWith(t, "A")
	f.mustMutate(t, id, SetLimit{Limit: limit(3), RequesterID: "A"})

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = f.reg.Mutate(context.Background(), id, AddGame{Entry: domain.GameEntry{Name: fmt.Sprintf("game-%02d", i)}, MemberID: "A"})
		}(i)
	}
	wg.Wait()

	st := f.store.stored(id).State
	if st.CountFor("A") != 3 || len(st.SelectedGames) != 3 {
		t.Fatalf("limit of 3 should hold, got count=%d games=%d", st.CountFor("A"), len(st.SelectedGames))
	}
	if f.reg.locks.size() != 0 {
		t.Fatalf("idle session locks should be released")
	}
}

func TestCompletionIsIdempotent(t *testing.T) {
	f := newFixture(t, time.Hour, Config{}, nil)
	id := f.sessionWith(t, "A")
	f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: "Chess"}, MemberID: "A"})
	spinID := f.mustMutate(t, id, StartSpin{RequesterID: "A"}).Session.State.SpinData.SpinID

	first := f.mustMutate(t, id, CompleteSpin{SpinID: spinID})
	if first.Outcome != Applied || first.Session.State.Winner == nil {
		t.Fatalf("first completion should apply, got %s", first.Outcome)
	}

	second := f.mustMutate(t, id, CompleteSpin{SpinID: spinID})
	if second.Outcome != StaleSpin {
		t.Fatalf("second completion should be stale, got %s", second.Outcome)
	}
	if second.Session.State.Revision != first.Session.State.Revision {
		t.Fatalf("second completion must not change state")
	}
}

func TestStartSpinRejections(t *testing.T) {
	f := newFixture(t, time.Hour, Config{}, nil)
	id := f.sessionWith(t, "A")

	if res := f.mustMutate(t, id, StartSpin{RequesterID: "A"}); res.Outcome != EmptySelection || !res.Outcome.Silent() {
		t.Fatalf("empty selection should be a silent rejection, got %s", res.Outcome)
	}

	f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: "Chess"}, MemberID: "A"})
	f.mustMutate(t, id, StartSpin{RequesterID: "A"})

	if res := f.mustMutate(t, id, StartSpin{RequesterID: "A"}); res.Outcome != AlreadySpinning || !res.Outcome.Silent() {
		t.Fatalf("second spin should be a silent rejection, got %s", res.Outcome)
	}
	if res := f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: "Go"}, MemberID: "A"}); res.Outcome != AlreadySpinning {
		t.Fatalf("selection is frozen while spinning, got %s", res.Outcome)
	}
}

func TestCreatorOnly(t *testing.T) {
	f := newFixture(t, time.Second, Config{}, nil)
	id := f.sessionWith(t, "A", "B", "C")
	ctx := context.Background()

	before := f.store.stored(id).State.Revision

	if res := f.mustMutate(t, id, SetLimit{Limit: limit(2), RequesterID: "B"}); res.Outcome != Forbidden {
		t.Fatalf("non-creator limit should be forbidden, got %s", res.Outcome)
	}
	if f.store.stored(id).State.Revision != before || f.store.stored(id).State.GameLimit != nil {
		t.Fatalf("forbidden limit must not change state")
	}

	if out, err := f.reg.Kick(ctx, id, "B", "C"); err != nil || out != Forbidden {
		t.Fatalf("non-creator kick should be forbidden, got %s %v", out, err)
	}
	if out, _ := f.reg.Kick(ctx, id, "A", "A"); out != Forbidden {
		t.Fatalf("creator cannot kick themself, got %s", out)
	}
	members, _ := f.reg.Members(ctx, id)
	if len(members) != 3 || len(f.notif.kicked) != 0 {
		t.Fatalf("forbidden kicks must not change membership")
	}

	if out, err := f.reg.Kick(ctx, id, "A", "C"); err != nil || out != Applied {
		t.Fatalf("creator kick should apply, got %s %v", out, err)
	}
	members, _ = f.reg.Members(ctx, id)
	if len(members) != 2 || len(f.notif.kicked) != 1 || f.notif.kicked[0] != "C" {
		t.Fatalf("C should be removed and notified, members=%+v kicked=%v", members, f.notif.kicked)
	}

	if out, _ := f.reg.Kick(ctx, id, "A", "nobody"); out != MemberNotFound {
		t.Fatalf("unknown target should be reported, got %s", out)
	}
}

func TestCreatorSurvivesRejoin(t *testing.T) {
	f := newFixture(t, time.Second, Config{}, nil)
	id := f.sessionWith(t, "A", "B")
	ctx := context.Background()

	if _, err := f.reg.Join(ctx, id, "A", "renamed"); err != nil {
		t.Fatalf("rejoin: %v", err)
	}

	members, _ := f.reg.Members(ctx, id)
	creator, _ := domain.Creator(members)
	if creator.MemberID != "A" || creator.Username != "renamed" {
		t.Fatalf("A should stay creator after rejoining, got %+v", creator)
	}
}

func TestJoinAssignsMemberID(t *testing.T) {
	f := newFixture(t, time.Second, Config{}, nil)
	id := f.sessionWith(t)

	res, err := f.reg.Join(context.Background(), id, "", "ana")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if res.Member.MemberID == "" || res.Member.Username != "ana" {
		t.Fatalf("expected a generated id, got %+v", res.Member)
	}
	if len(res.Members) != 1 || len(f.notif.joined) != 1 {
		t.Fatalf("join should list and announce the member")
	}
}

func TestLeave(t *testing.T) {
	f := newFixture(t, time.Second, Config{}, nil)
	id := f.sessionWith(t, "A", "B")

	if err := f.reg.Leave(context.Background(), id, "A"); err != nil {
		t.Fatalf("leave: %v", err)
	}

	members, _ := f.reg.Members(context.Background(), id)
	if len(members) != 1 || members[0].MemberID != "B" {
		t.Fatalf("B should be the only member left, got %+v", members)
	}
	if !domain.IsCreator(members, "B") {
		t.Fatalf("B should inherit creator capabilities")
	}
	if f.notif.left != 1 {
		t.Fatalf("leave should be announced once")
	}
}

func TestSetLimitBelowUsage(t *testing.T) {
	f := newFixture(t, time.Second, Config{}, nil)
	id := f.sessionWith(t, "A")
	f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: "Chess"}, MemberID: "A"})
	f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: "Go"}, MemberID: "A"})

	res := f.mustMutate(t, id, SetLimit{Limit: limit(1), RequesterID: "A"})
	if res.Outcome != LimitBelowUsage || res.Outcome.Silent() {
		t.Fatalf("expected a surfaced limit-below-usage rejection, got %s", res.Outcome)
	}

	if res := f.mustMutate(t, id, SetLimit{Limit: nil, RequesterID: "A"}); res.Outcome != Applied || res.Session.State.GameLimit != nil {
		t.Fatalf("nil limit should remove the cap, got %s", res.Outcome)
	}
}

func TestRemoveGame(t *testing.T) {
	f := newFixture(t, time.Second, Config{}, nil)
	id := f.sessionWith(t, "A", "B")
	f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: "Chess"}, MemberID: "A"})

	res := f.mustMutate(t, id, RemoveGame{Game: " Chess "})
	if res.Outcome != Applied || len(res.Session.State.SelectedGames) != 0 || res.Session.State.CountFor("A") != 0 {
		t.Fatalf("remove should drop the entry and the count, got %s %+v", res.Outcome, res.Session.State)
	}

	if res := f.mustMutate(t, id, RemoveGame{Game: "Chess"}); res.Outcome != GameNotFound {
		t.Fatalf("removing twice should report not found, got %s", res.Outcome)
	}
}

func TestGetStateNotFound(t *testing.T) {
	f := newFixture(t, time.Second, Config{}, nil)

	_, err := f.reg.GetState(context.Background(), "000000")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if _, err := f.reg.Mutate(context.Background(), "000000", ClearAll{}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("mutating a missing session should be not found, got %v", err)
	}
}

func TestGetStateFallsBackToStore(t *testing.T) {
	f := newFixture(t, time.Second, Config{}, nil)
	id := f.sessionWith(t, "A")
	f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: "Chess"}, MemberID: "A"})

	f.cache.evict(id)

	s, err := f.reg.GetState(context.Background(), id)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if !s.State.HasGame("Chess") {
		t.Fatalf("store copy should be served")
	}
	if _, ok, _ := f.cache.GetSession(context.Background(), id); !ok {
		t.Fatalf("cache should be repopulated")
	}
}

func TestExpiry(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	f := newFixture(t, time.Second, Config{TTL: time.Hour}, clock)
	id := f.sessionWith(t, "A")

	clock.Advance(time.Hour)

	if _, err := f.reg.GetState(context.Background(), id); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expired session should be not found, got %v", err)
	}

	n, err := f.reg.ReapExpired(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("reaper should delete one session, got %d %v", n, err)
	}
}

func TestSlidingExpiry(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	f := newFixture(t, time.Second, Config{TTL: time.Hour, ExpiryPolicy: ExpirySliding}, clock)
	id := f.sessionWith(t, "A")

	clock.Advance(50 * time.Minute)
	res := f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: "Chess"}, MemberID: "A"})

	want := clock.Now().Add(time.Hour)
	if !res.Session.ExpiresAt.Equal(want) {
		t.Fatalf("sliding expiry should move to %s, got %s", want, res.Session.ExpiresAt)
	}

	clock.Advance(30 * time.Minute)
	if _, err := f.reg.GetState(context.Background(), id); err != nil {
		t.Fatalf("activity should keep the session alive: %v", err)
	}
}

func TestFixedExpiryIgnoresActivity(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	f := newFixture(t, time.Second, Config{TTL: time.Hour}, clock)
	id := f.sessionWith(t, "A")
	created := f.store.stored(id).ExpiresAt

	clock.Advance(50 * time.Minute)
	res := f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: "Chess"}, MemberID: "A"})
	if !res.Session.ExpiresAt.Equal(created) {
		t.Fatalf("fixed expiry should not move, got %s want %s", res.Session.ExpiresAt, created)
	}
}

func TestOverdueSpinReconciledOnAccess(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	f := newFixture(t, 3*time.Second, Config{TTL: time.Hour}, clock)
	id := f.sessionWith(t, "A")
	f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: "Chess"}, MemberID: "A"})
	f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: "Go"}, MemberID: "A"})
	picked := f.mustMutate(t, id, StartSpin{RequesterID: "A"}).Session.State.SpinData.Winner

	// simulate a restart: the timer is gone
	f.engine.Stop()
	clock.Advance(3 * time.Second)

	s, err := f.reg.GetState(context.Background(), id)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if s.State.Spinning() || s.State.Winner == nil || s.State.Winner.Name != picked.Name {
		t.Fatalf("overdue spin should be finalized with %q, got %+v", picked.Name, s.State)
	}
	if stored := f.store.stored(id); stored.State.Spinning() {
		t.Fatalf("reconciled state should be persisted")
	}
}

func TestOverdueSpinReconciledBeforeRejectedOp(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	f := newFixture(t, 3*time.Second, Config{TTL: time.Hour}, clock)
	id := f.sessionWith(t, "A")
	f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: "Chess"}, MemberID: "A"})
	f.mustMutate(t, id, StartSpin{RequesterID: "A"})
	f.engine.Stop()
	clock.Advance(4 * time.Second)

	res := f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: "Chess"}, MemberID: "A"})
	if res.Outcome != DuplicateName {
		t.Fatalf("expected duplicate, got %s", res.Outcome)
	}
	if res.Session.State.Spinning() || res.Session.State.Winner == nil {
		t.Fatalf("the overdue spin should still be finalized, got %+v", res.Session.State)
	}
}

func TestEnrichGame(t *testing.T) {
	f := newFixture(t, time.Second, Config{}, nil)
	f.reg.catalog = fakeCatalog{games: map[string]domain.CatalogGame{
		"Hades": {Name: "Hades", Genre: "Roguelike", Platform: "PC"},
	}}

	got := f.reg.EnrichGame(context.Background(), domain.GameEntry{Name: " Hades ", Platform: "Switch"})
	if got.Name != "Hades" || got.Genre != "Roguelike" || got.Platform != "Switch" {
		t.Fatalf("expected genre filled and platform kept, got %+v", got)
	}

	unknown := f.reg.EnrichGame(context.Background(), domain.GameEntry{Name: "Homebrew"})
	if unknown.Genre != "" || unknown.Platform != "" {
		t.Fatalf("unknown games stay as submitted, got %+v", unknown)
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t, time.Second, Config{}, nil)
	f.sessionWith(t, "A", "B")
	f.sessionWith(t, "C")

	st, err := f.reg.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.ActiveSessions != 2 || st.ActiveMembers != 3 {
		t.Fatalf("expected 2 sessions and 3 members, got %+v", st)
	}
}

// pauseOnce returns a hook that blocks its first caller until release is
// closed and reports that caller on entered.
func pauseOnce(entered, release chan struct{}) func() {
	var first atomic.Bool
	return func() {
		if first.CompareAndSwap(false, true) {
			close(entered)
			<-release
		}
	}
}

func TestCacheMissReadKeepsConcurrentMutation(t *testing.T) {
	f := newFixture(t, time.Second, Config{}, nil)
	ctx := context.Background()
	id := f.sessionWith(t, "A")
	f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: "Chess"}, MemberID: "A"})
	f.cache.evict(id)

	entered, release := make(chan struct{}), make(chan struct{})
	f.store.hooks(pauseOnce(entered, release), nil)

	readErr := make(chan error, 1)
	go func() {
		_, err := f.reg.GetState(ctx, id)
		readErr <- err
	}()
	<-entered

	mutateErr := make(chan error, 1)
	go func() {
		_, err := f.reg.Mutate(ctx, id, AddGame{Entry: domain.GameEntry{Name: "Go"}, MemberID: "A"})
		mutateErr <- err
	}()
	waitQueued(t, f.reg.locks, id, 1)

	close(release)
	if err := <-readErr; err != nil {
		t.Fatalf("get state: %v", err)
	}
	if err := <-mutateErr; err != nil {
		t.Fatalf("add Go: %v", err)
	}
	f.store.hooks(nil, nil)

	f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: "Catan"}, MemberID: "A"})

	stored := f.store.stored(id)
	for _, name := range []string{"Chess", "Go", "Catan"} {
		if !stored.State.HasGame(name) {
			t.Fatalf("%s should be persisted, got %+v", name, stored.State.SelectedGames)
		}
	}
	if stored.State.CountFor("A") != 3 {
		t.Fatalf("expected A to own 3 games, got %d", stored.State.CountFor("A"))
	}

	cached, ok, _ := f.cache.GetSession(ctx, id)
	if !ok || cached.State.Revision != stored.State.Revision {
		t.Fatalf("cache should hold the latest revision %d", stored.State.Revision)
	}
}

func TestMembersCacheMissKeepsConcurrentKick(t *testing.T) {
	f := newFixture(t, time.Second, Config{}, nil)
	ctx := context.Background()
	id := f.sessionWith(t, "A", "B")
	f.cache.evictMembers(id)

	entered, release := make(chan struct{}), make(chan struct{})
	f.store.hooks(nil, pauseOnce(entered, release))

	readErr := make(chan error, 1)
	go func() {
		_, err := f.reg.Members(ctx, id)
		readErr <- err
	}()
	<-entered

	kicked := make(chan Outcome, 1)
	go func() {
		out, _ := f.reg.Kick(ctx, id, "A", "B")
		kicked <- out
	}()
	waitQueued(t, f.reg.locks, id, 1)

	close(release)
	if err := <-readErr; err != nil {
		t.Fatalf("members: %v", err)
	}
	if out := <-kicked; out != Applied {
		t.Fatalf("creator kick should apply, got %s", out)
	}

	list, err := f.reg.Members(ctx, id)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(list) != 1 || list[0].MemberID != "A" {
		t.Fatalf("kicked member should stay gone, got %+v", list)
	}
}

func TestFailedCacheRefreshFallsBackToStore(t *testing.T) {
	f := newFixture(t, time.Second, Config{}, nil)
	ctx := context.Background()
	id := f.sessionWith(t, "A")
	f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: "Chess"}, MemberID: "A"})

	// neither the refresh nor the delete lands, so the cache keeps Chess only
	f.cache.fail(true)
	if res := f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: "Go"}, MemberID: "A"}); res.Outcome != Applied {
		t.Fatalf("store write should still apply, got %s", res.Outcome)
	}
	f.cache.fail(false)

	s, err := f.reg.GetState(ctx, id)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if !s.State.HasGame("Go") {
		t.Fatalf("reads should bypass the outdated cache, got %+v", s.State.SelectedGames)
	}

	f.mustMutate(t, id, AddGame{Entry: domain.GameEntry{Name: "Catan"}, MemberID: "A"})
	stored := f.store.stored(id)
	if len(stored.State.SelectedGames) != 3 || stored.State.CountFor("A") != 3 {
		t.Fatalf("no applied mutation may be lost, got %+v", stored.State)
	}
}
