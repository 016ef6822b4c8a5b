package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hilthontt/spinwheel/internal/domain"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*SessionCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewSessionCache(client, "test:"), mr
}

func TestSessionRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	now := time.UnixMilli(1_700_000_000_000).UTC()
	s := domain.NewSession("123456", now, time.Hour)
	if err := s.State.AddGame(domain.GameEntry{Name: "Hades"}, "m1"); err != nil {
		t.Fatalf("add game: %v", err)
	}

	if err := c.SetSession(ctx, s, time.Minute); err != nil {
		t.Fatalf("set session: %v", err)
	}
	if ttl := mr.TTL("test:session:123456"); ttl != time.Minute {
		t.Fatalf("expected ttl 1m, got %s", ttl)
	}

	got, ok, err := c.GetSession(ctx, "123456")
	if err != nil || !ok {
		t.Fatalf("should find cached session, ok=%v err=%v", ok, err)
	}
	if !got.State.HasGame("Hades") || got.State.CountFor("m1") != 1 {
		t.Fatalf("cached state lost data: %+v", got.State)
	}
	if !got.ExpiresAt.Equal(s.ExpiresAt) {
		t.Fatalf("expected expiry %s, got %s", s.ExpiresAt, got.ExpiresAt)
	}
}

func TestSessionMiss(t *testing.T) {
	c, _ := newTestCache(t)

	_, ok, err := c.GetSession(context.Background(), "000000")
	if err != nil {
		t.Fatalf("a miss should not be an error: %v", err)
	}
	if ok {
		t.Fatalf("should report a miss")
	}
}

func TestMembersAndDelete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	members := []domain.Member{{SessionID: "123456", MemberID: "m1", Username: "ana", JoinSeq: 1}}
	if err := c.SetMembers(ctx, "123456", members, time.Minute); err != nil {
		t.Fatalf("set members: %v", err)
	}

	got, ok, err := c.GetMembers(ctx, "123456")
	if err != nil || !ok || len(got) != 1 || got[0].Username != "ana" {
		t.Fatalf("unexpected members %+v ok=%v err=%v", got, ok, err)
	}

	if err := c.Delete(ctx, "123456"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := c.GetMembers(ctx, "123456"); ok {
		t.Fatalf("members should be gone after delete")
	}
}
