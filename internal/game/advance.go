package game

import (
	"context"
	"log"

	"sketch-chain/internal/db"
	"sketch-chain/internal/store"
)

// Advancer is the round-advancement machine. Every connected client may
// evaluate it on any change notification, but only an evaluation running as
// the host performs the advancing write; the unique index on round entries
// is the backstop if even that fires twice.
//
// Evaluation always re-reads state from the store. Notifications carry no
// trusted payload and arrive at-least-once, unordered.
type Advancer struct {
	store *store.Store
}

func NewAdvancer(st *store.Store) *Advancer {
	return &Advancer{store: st}
}

// MaybeAdvance checks whether the current round is fully submitted and, if
// so, creates the next round's entries and/or moves the session status
// forward. Safe to call any number of times from any interleaving; a call
// that finds nothing to do returns nil.
func (a *Advancer) MaybeAdvance(ctx context.Context, sessionID uint, viewerID string) error {
	session, err := a.store.SessionByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	if viewerID != session.HostID {
		// every client evaluates, only the host acts
		return nil
	}
	if session.Status != db.StatusPrompting && session.Status != db.StatusPlaying {
		return nil
	}
	roster, err := a.store.PlayersBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	playerCount := len(roster)
	if playerCount == 0 {
		return nil
	}
	// In prompting the current round is round 1 by definition; afterwards
	// it is the highest round with entries. Deriving it this way lets a
	// half-applied advancement (entries created, status write lost) heal
	// itself on the next evaluation.
	round := 1
	if session.Status == db.StatusPlaying {
		round, err = a.store.CurrentRound(ctx, sessionID)
		if err != nil {
			return err
		}
	}
	if round == 0 {
		return nil
	}
	submitted, err := a.store.SubmittedCount(ctx, sessionID, round)
	if err != nil {
		return err
	}
	if submitted < int64(playerCount) {
		return nil
	}

	next := round + 1
	if next > playerCount {
		changed, err := a.store.UpdateSessionStatus(ctx, sessionID,
			[]string{db.StatusPrompting, db.StatusPlaying}, db.StatusResults)
		if err != nil {
			return err
		}
		if changed {
			if err := a.store.AppendEvent(ctx, sessionID, "game_completed", EventPayload{
				RoundNumber: round,
				Status:      db.StatusResults,
			}); err != nil {
				log.Printf("append event failed session_id=%d type=game_completed error=%v", sessionID, err)
			}
			log.Printf("game completed session_id=%d rounds=%d", sessionID, round)
		}
		return nil
	}

	entries, err := BuildRoundEntries(sessionID, roster, next)
	if err != nil {
		return err
	}
	created, err := a.store.InsertEntries(ctx, entries)
	if err != nil {
		return err
	}
	// created == 0 means a concurrent evaluation already opened the round;
	// the status update below is guarded, so falling through is harmless.
	if round == 1 {
		if _, err := a.store.UpdateSessionStatus(ctx, sessionID,
			[]string{db.StatusPrompting}, db.StatusPlaying); err != nil {
			return err
		}
	}
	if created > 0 {
		if err := a.store.AppendEvent(ctx, sessionID, "round_advanced", EventPayload{
			RoundNumber: next,
			Kind:        RoundKind(next),
		}); err != nil {
			log.Printf("append event failed session_id=%d type=round_advanced error=%v", sessionID, err)
		}
		log.Printf("round advanced session_id=%d round=%d kind=%s", sessionID, next, RoundKind(next))
	}
	return nil
}
