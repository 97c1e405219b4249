package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"sketch-chain/internal/config"
	"sketch-chain/internal/db"
	"sketch-chain/internal/server"
	"sketch-chain/internal/store"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	conn, err := db.Open()
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}
	if err := db.ConfigurePool(conn,
		cfg.DBMaxOpenConns,
		cfg.DBMaxIdleConns,
		time.Duration(cfg.DBConnMaxLifetimeSeconds)*time.Second,
		time.Duration(cfg.DBConnMaxIdleTimeSeconds)*time.Second,
	); err != nil {
		log.Fatalf("database pool setup failed: %v", err)
	}

	srv := server.New(store.New(conn), cfg)
	if err := srv.ResumeLoops(context.Background()); err != nil {
		log.Printf("failed to resume session loops: %v", err)
	}

	addr := ":8080"
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}
	log.Printf("sketch-chain server listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatal(err)
	}
}
