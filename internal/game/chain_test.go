package game

import (
	"fmt"
	"testing"

	"sketch-chain/internal/db"
)

func testRoster(n int) []db.Player {
	roster := make([]db.Player, 0, n)
	for i := 1; i <= n; i++ {
		roster = append(roster, db.Player{
			UserID:    fmt.Sprintf("user-%d", i),
			JoinOrder: i,
		})
	}
	return roster
}

func TestChainStarterIdentityInRoundOne(t *testing.T) {
	for n := 2; n <= 8; n++ {
		for order := 1; order <= n; order++ {
			if got := ChainStarterOrder(n, order, 1); got != order {
				t.Fatalf("n=%d join_order=%d round=1: got starter %d, want %d", n, order, got, order)
			}
		}
	}
}

func TestChainAssignmentIsPermutationEveryRound(t *testing.T) {
	for n := 2; n <= 8; n++ {
		for round := 1; round <= n; round++ {
			seen := make(map[int]bool)
			for order := 1; order <= n; order++ {
				starter := ChainStarterOrder(n, order, round)
				if starter < 1 || starter > n {
					t.Fatalf("n=%d round=%d join_order=%d: starter %d out of range", n, round, order, starter)
				}
				if seen[starter] {
					t.Fatalf("n=%d round=%d: chain %d assigned twice", n, round, starter)
				}
				seen[starter] = true
			}
			if len(seen) != n {
				t.Fatalf("n=%d round=%d: only %d chains assigned", n, round, len(seen))
			}
		}
	}
}

func TestEveryPlayerTouchesEveryChainOverFullCycle(t *testing.T) {
	for n := 2; n <= 8; n++ {
		for order := 1; order <= n; order++ {
			seen := make(map[int]bool)
			for round := 1; round <= n; round++ {
				seen[ChainStarterOrder(n, order, round)] = true
			}
			if len(seen) != n {
				t.Fatalf("n=%d join_order=%d: touched %d chains over %d rounds, want all %d", n, order, len(seen), n, n)
			}
		}
	}
}

func TestChainRotationThreePlayers(t *testing.T) {
	// Round 2 with three players rotates backward: p1 continues p3's
	// chain, p2 continues p1's, p3 continues p2's.
	cases := []struct {
		round int
		want  map[int]int
	}{
		{round: 1, want: map[int]int{1: 1, 2: 2, 3: 3}},
		{round: 2, want: map[int]int{1: 3, 2: 1, 3: 2}},
		{round: 3, want: map[int]int{1: 2, 2: 3, 3: 1}},
	}
	for _, tc := range cases {
		for order, want := range tc.want {
			if got := ChainStarterOrder(3, order, tc.round); got != want {
				t.Errorf("round %d join_order %d: got starter %d, want %d", tc.round, order, got, want)
			}
		}
	}
}

func TestRoundKindAlternates(t *testing.T) {
	if got := RoundKind(1); got != db.KindPrompt {
		t.Fatalf("round 1: got %s, want %s", got, db.KindPrompt)
	}
	if got := RoundKind(2); got != db.KindDrawing {
		t.Fatalf("round 2: got %s, want %s", got, db.KindDrawing)
	}
	if got := RoundKind(3); got != db.KindPrompt {
		t.Fatalf("round 3: got %s, want %s", got, db.KindPrompt)
	}
}

func TestBuildRoundEntries(t *testing.T) {
	roster := testRoster(3)
	entries, err := BuildRoundEntries(7, roster, 2)
	if err != nil {
		t.Fatalf("build entries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	byPlayer := make(map[string]db.RoundEntry)
	for _, entry := range entries {
		if entry.SessionID != 7 || entry.RoundNumber != 2 || entry.Kind != db.KindDrawing {
			t.Fatalf("unexpected entry fields: %+v", entry)
		}
		if entry.Submitted() {
			t.Fatalf("new entry should be empty: %+v", entry)
		}
		byPlayer[entry.PlayerID] = entry
	}
	if byPlayer["user-1"].ChainStarterID != "user-3" {
		t.Errorf("user-1 continues %s, want user-3", byPlayer["user-1"].ChainStarterID)
	}
	if byPlayer["user-2"].ChainStarterID != "user-1" {
		t.Errorf("user-2 continues %s, want user-1", byPlayer["user-2"].ChainStarterID)
	}
	if byPlayer["user-3"].ChainStarterID != "user-2" {
		t.Errorf("user-3 continues %s, want user-2", byPlayer["user-3"].ChainStarterID)
	}
}

func TestBuildRoundEntriesRejectsBadInput(t *testing.T) {
	roster := testRoster(3)
	if _, err := BuildRoundEntries(1, roster, 4); err == nil {
		t.Error("round beyond player count should be rejected")
	}
	if _, err := BuildRoundEntries(1, roster, 0); err == nil {
		t.Error("round zero should be rejected")
	}
	if _, err := BuildRoundEntries(1, nil, 1); err == nil {
		t.Error("empty roster should be rejected")
	}
	gapped := []db.Player{
		{UserID: "a", JoinOrder: 1},
		{UserID: "b", JoinOrder: 3},
	}
	if _, err := BuildRoundEntries(1, gapped, 1); err == nil {
		t.Error("non-contiguous join orders should be rejected")
	}
}
