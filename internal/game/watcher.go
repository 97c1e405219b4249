package game

import (
	"context"
	"log"

	"sketch-chain/internal/db"
	"sketch-chain/internal/store"
)

// Watcher runs the host's side of the reactive loop for one session: it
// subscribes to the session's change feed and re-evaluates advancement on
// every round-entry change. Failures are logged and dropped; a fully
// submitted round stays fully submitted, so the next notification retries
// naturally.
type Watcher struct {
	store    *store.Store
	advancer *Advancer
}

func NewWatcher(st *store.Store, advancer *Advancer) *Watcher {
	return &Watcher{store: st, advancer: advancer}
}

// Watch blocks until the context is cancelled or the session reaches a
// terminal status.
func (w *Watcher) Watch(ctx context.Context, sessionID uint) {
	changes, cancel := w.store.Notifier().Subscribe(sessionID)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			if change.Table != store.TableEntries {
				if w.sessionDone(ctx, sessionID) {
					return
				}
				continue
			}
			session, err := w.store.SessionByID(ctx, sessionID)
			if err != nil {
				log.Printf("advance evaluation read failed session_id=%d error=%v", sessionID, err)
				continue
			}
			if session == nil {
				return
			}
			if err := w.advancer.MaybeAdvance(ctx, sessionID, session.HostID); err != nil {
				log.Printf("advance evaluation failed session_id=%d error=%v", sessionID, err)
			}
			if session.Status == db.StatusResults || session.Status == db.StatusFinished {
				return
			}
		}
	}
}

// sessionDone reports whether there is no advancement left to evaluate.
func (w *Watcher) sessionDone(ctx context.Context, sessionID uint) bool {
	session, err := w.store.SessionByID(ctx, sessionID)
	if err != nil {
		return false
	}
	return session == nil || session.Status == db.StatusResults || session.Status == db.StatusFinished
}
