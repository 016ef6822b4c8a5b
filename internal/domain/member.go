package domain

import (
	"context"
	"sort"
	"time"
)

// Member is one participant of a session. JoinSeq is a monotonic rank handed
// out by durable storage on first join and kept across reconnects.
type Member struct {
	SessionID string    `json:"sessionId"`
	MemberID  string    `json:"userId"`
	Username  string    `json:"username"`
	JoinedAt  time.Time `json:"joinedAt"`
	LastSeen  time.Time `json:"lastSeen"`
	JoinSeq   int64     `json:"joinSeq"`
}

// SortByJoin orders members by join rank, falling back to join time for
// records written before ranks existed.
func SortByJoin(members []Member) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if a.JoinSeq != 0 && b.JoinSeq != 0 && a.JoinSeq != b.JoinSeq {
			return a.JoinSeq < b.JoinSeq
		}
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.JoinSeq < b.JoinSeq
	})
}

// Creator returns the earliest member of the list.
func Creator(members []Member) (Member, bool) {
	if len(members) == 0 {
		return Member{}, false
	}
	sorted := make([]Member, len(members))
	copy(sorted, members)
	SortByJoin(sorted)
	return sorted[0], true
}

func IsCreator(members []Member, memberID string) bool {
	creator, ok := Creator(members)
	return ok && memberID != "" && creator.MemberID == memberID
}

func FindMember(members []Member, memberID string) (Member, bool) {
	for _, m := range members {
		if m.MemberID == memberID {
			return m, true
		}
	}
	return Member{}, false
}

type MemberRepository interface {
	// Upsert inserts the member or refreshes username and last-seen of an
	// existing one. JoinedAt and JoinSeq are filled from storage.
	Upsert(ctx context.Context, member *Member) error
	Delete(ctx context.Context, sessionID, memberID string) error
	ListByJoin(ctx context.Context, sessionID string) ([]Member, error)
}
