package game

import (
	"context"
	"log"
	"time"

	"sketch-chain/internal/db"
	"sketch-chain/internal/store"

	"github.com/robfig/cron/v3"
)

// Reaper closes sessions that never got off the ground: still in lobby or
// prompting past the stale threshold with zero roster rows. Such sessions
// would otherwise block their channel forever. Sessions with even one
// player are left alone; abandoning a joined game is the host's call.
type Reaper struct {
	store      *store.Store
	staleAfter time.Duration
}

func NewReaper(st *store.Store, staleAfter time.Duration) *Reaper {
	return &Reaper{store: st, staleAfter: staleAfter}
}

// ReapOnce runs a single pass as one bulk conditional update, so a pass
// never partially applies.
func (r *Reaper) ReapOnce(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-r.staleAfter)
	reaped, err := r.store.ReapStale(ctx, []string{db.StatusLobby, db.StatusPrompting}, cutoff)
	if err != nil {
		return 0, err
	}
	if reaped > 0 {
		log.Printf("stale sessions reaped count=%d cutoff=%s", reaped, cutoff.Format(time.RFC3339))
	}
	return reaped, nil
}

// Run executes ReapOnce on the cron schedule until the context is
// cancelled. A failed pass is reported and the next tick retries.
func (r *Reaper) Run(ctx context.Context, schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := r.ReapOnce(ctx); err != nil {
			log.Printf("reap pass failed error=%v", err)
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	return nil
}
