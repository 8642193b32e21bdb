package models

import (
	"testing"
	"time"
)

func TestDedupedMembers(t *testing.T) {
	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	g := &GroupConversation{Members: []Membership{
		{UserID: "a", JoinedAt: early, UnreadCount: 3},
		{UserID: "b", JoinedAt: early},
		{UserID: "a", JoinedAt: late}, // historical duplicate
	}}

	got := g.DedupedMembers()
	if len(got) != 2 {
		t.Fatalf("expected 2 members, got %d", len(got))
	}
	// First entry wins.
	if got[0].UserID != "a" || got[0].UnreadCount != 3 || !got[0].JoinedAt.Equal(early) {
		t.Fatalf("expected first duplicate kept, got %+v", got[0])
	}
}

func TestMemberLookup(t *testing.T) {
	g := &GroupConversation{Members: []Membership{{UserID: "a"}}}

	if m := g.Member("a"); m == nil {
		t.Fatal("expected membership for a")
	}
	if m := g.Member("b"); m != nil {
		t.Fatalf("expected nil for absent user, got %+v", m)
	}
	if !g.HasMember("a") || g.HasMember("b") {
		t.Fatal("HasMember mismatch")
	}

	// Member returns a pointer into the set so counters mutate in place.
	g.Member("a").UnreadCount = 7
	if g.Members[0].UnreadCount != 7 {
		t.Fatal("expected mutation through Member pointer")
	}
}
