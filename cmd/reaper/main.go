package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"sketch-chain/internal/config"
	"sketch-chain/internal/db"
	"sketch-chain/internal/game"
	"sketch-chain/internal/store"
)

// The reaper runs out-of-band from any live client: it closes sessions that
// are stuck in a pre-game status with no players, which would otherwise
// block their channel forever.
func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	conn, err := db.Open()
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reaper := game.NewReaper(store.New(conn), time.Duration(cfg.StaleAfterMinutes)*time.Minute)
	if _, err := reaper.ReapOnce(ctx); err != nil {
		log.Printf("initial reap pass failed: %v", err)
	}
	log.Printf("reaper running schedule=%q stale_after_minutes=%d", cfg.ReapSchedule, cfg.StaleAfterMinutes)
	if err := reaper.Run(ctx, cfg.ReapSchedule); err != nil {
		log.Fatalf("reaper schedule failed: %v", err)
	}
}
