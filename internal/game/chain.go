package game

import (
	"fmt"

	"sketch-chain/internal/db"
)

// ChainStarterOrder maps a player's join order to the join order of the
// player whose chain they continue in the given round. Round 1 is the
// identity: everyone starts their own chain. Each later round rotates every
// chain backward one position, so over N rounds each player contributes to
// every chain exactly once and no chain returns early.
//
// Pure and deterministic: every client evaluating advancement and the
// controller building next-round entries must agree on the result.
// Defined only for 1 <= roundNumber <= playerCount.
func ChainStarterOrder(playerCount, joinOrder, roundNumber int) int {
	return ((joinOrder-1)-(roundNumber-1)+playerCount)%playerCount + 1
}

// RoundKind returns what a round collects: prompts on odd rounds, drawings
// on even. With the backward rotation a chain's position count always
// equals the round number, so parity is fixed at entry creation instead of
// inferred later from existing rows.
func RoundKind(roundNumber int) string {
	if roundNumber%2 == 1 {
		return db.KindPrompt
	}
	return db.KindDrawing
}

// BuildRoundEntries constructs the N empty entries of one round, one per
// roster player, each tagged with the chain it continues. The roster must
// be ordered by join order and contiguous from 1, which is what makes the
// rotation arithmetic valid.
func BuildRoundEntries(sessionID uint, roster []db.Player, roundNumber int) ([]db.RoundEntry, error) {
	if err := checkRoster(roster); err != nil {
		return nil, err
	}
	if roundNumber < 1 || roundNumber > len(roster) {
		return nil, fmt.Errorf("round %d out of range for %d players", roundNumber, len(roster))
	}
	entries := make([]db.RoundEntry, 0, len(roster))
	for _, player := range roster {
		starter := roster[ChainStarterOrder(len(roster), player.JoinOrder, roundNumber)-1]
		entries = append(entries, db.RoundEntry{
			SessionID:      sessionID,
			RoundNumber:    roundNumber,
			PlayerID:       player.UserID,
			ChainStarterID: starter.UserID,
			Kind:           RoundKind(roundNumber),
		})
	}
	return entries, nil
}

func checkRoster(roster []db.Player) error {
	if len(roster) == 0 {
		return fmt.Errorf("empty roster")
	}
	for i, player := range roster {
		if player.JoinOrder != i+1 {
			return fmt.Errorf("roster join orders are not contiguous: position %d has join_order %d", i, player.JoinOrder)
		}
	}
	return nil
}
