package presence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestTracker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	tr := NewTracker(client, "", 30*time.Second)
	ctx := context.Background()

	if err := tr.Touch(ctx, "123456", "m1"); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if ttl := mr.TTL("presence:123456:m1"); ttl != 30*time.Second {
		t.Fatalf("expected 30s ttl, got %s", ttl)
	}

	online, err := tr.Online(ctx, "123456", []string{"m1", "m2"})
	if err != nil {
		t.Fatalf("online: %v", err)
	}
	if !online["m1"] || online["m2"] {
		t.Fatalf("expected only m1 online, got %v", online)
	}

	mr.FastForward(31 * time.Second)

	online, err = tr.Online(ctx, "123456", []string{"m1"})
	if err != nil {
		t.Fatalf("online after ttl: %v", err)
	}
	if online["m1"] {
		t.Fatalf("marker should lapse after the ttl")
	}
}

func TestTouchIgnoresAnonymous(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	tr := NewTracker(client, "", 0)
	if err := tr.Touch(context.Background(), "", "m1"); err != nil {
		t.Fatalf("touch without a session should be a no-op: %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("no key should be written, got %v", mr.Keys())
	}
}
