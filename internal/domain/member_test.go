package domain

import (
	"testing"
	"time"
)

func TestCreatorUsesJoinOrder(t *testing.T) {
	at := time.Unix(1_700_000_000, 0)
	members := []Member{
		{MemberID: "late", JoinedAt: at.Add(time.Second), JoinSeq: 3},
		{MemberID: "tie-second", JoinedAt: at, JoinSeq: 2},
		{MemberID: "tie-first", JoinedAt: at, JoinSeq: 1},
	}

	creator, ok := Creator(members)
	if !ok || creator.MemberID != "tie-first" {
		t.Fatalf("expected tie-first, got %+v", creator)
	}
	if members[0].MemberID != "late" {
		t.Fatalf("Creator must not reorder its input")
	}
	if !IsCreator(members, "tie-first") || IsCreator(members, "late") || IsCreator(members, "") {
		t.Fatalf("IsCreator disagrees with Creator")
	}
}

func TestCreatorEmpty(t *testing.T) {
	if _, ok := Creator(nil); ok {
		t.Fatalf("no members means no creator")
	}
	if IsCreator(nil, "a") {
		t.Fatalf("nobody is creator of an empty session")
	}
}

func TestSortByJoinFallsBackToTime(t *testing.T) {
	at := time.Unix(1_700_000_000, 0)
	members := []Member{
		{MemberID: "b", JoinedAt: at.Add(time.Minute)},
		{MemberID: "a", JoinedAt: at},
	}

	SortByJoin(members)
	if members[0].MemberID != "a" {
		t.Fatalf("unranked members sort by join time, got %+v", members)
	}
}

func TestFindMember(t *testing.T) {
	members := []Member{{MemberID: "a", Username: "ana"}}
	if m, ok := FindMember(members, "a"); !ok || m.Username != "ana" {
		t.Fatalf("expected to find a")
	}
	if _, ok := FindMember(members, "b"); ok {
		t.Fatalf("b is not a member")
	}
}

func TestNewSessionID(t *testing.T) {
	for i := 0; i < 100; i++ {
		id, err := NewSessionID()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(id) != 6 {
			t.Fatalf("expected 6 digits, got %q", id)
		}
		for _, r := range id {
			if r < '0' || r > '9' {
				t.Fatalf("expected digits only, got %q", id)
			}
		}
	}
}

func TestSessionExpiry(t *testing.T) {
	at := time.Unix(1_700_000_000, 0)
	s := NewSession("123456", at, time.Hour)

	if s.IsExpired(at.Add(59 * time.Minute)) {
		t.Fatalf("session should still be live")
	}
	if !s.IsExpired(at.Add(time.Hour)) {
		t.Fatalf("session should expire at its deadline")
	}
}
