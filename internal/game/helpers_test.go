package game

import (
	"context"
	"fmt"
	"testing"

	"sketch-chain/internal/config"
	"sketch-chain/internal/db"
	"sketch-chain/internal/store"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB creates an in-memory SQLite database with the real schema,
// including the unique indexes the advancement guard relies on. The shared
// cache keeps every pooled connection on the same database.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := conn.AutoMigrate(
		&db.Session{},
		&db.Player{},
		&db.RoundEntry{},
		&db.Event{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(testDB(t))
}

func testController(st *store.Store) *Controller {
	return NewController(st, config.Default())
}

// lobbySession creates a session with the given players joined, host first.
func lobbySession(t *testing.T, st *store.Store, c *Controller, users ...string) *db.Session {
	t.Helper()
	ctx := context.Background()
	session, err := c.CreateSession(ctx, "channel-1", users[0], db.GameTypeChain)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	for _, user := range users[1:] {
		if err := c.JoinSession(ctx, session.ID, user); err != nil {
			t.Fatalf("join %s: %v", user, err)
		}
	}
	return session
}

func sessionStatus(t *testing.T, st *store.Store, sessionID uint) string {
	t.Helper()
	session, err := st.SessionByID(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("read session: %v", err)
	}
	if session == nil {
		t.Fatalf("session %d disappeared", sessionID)
	}
	return session.Status
}

// submitRound fills every entry of the round with a payload matching its
// kind.
func submitRound(t *testing.T, st *store.Store, c *Controller, sessionID uint, round int, users ...string) {
	t.Helper()
	ctx := context.Background()
	for _, user := range users {
		payload := SubmitPayload{}
		if RoundKind(round) == db.KindPrompt {
			payload.Prompt = fmt.Sprintf("prompt from %s round %d", user, round)
		} else {
			payload.Drawing = "data:image/png;base64,iVBORw0KGgo="
		}
		if err := c.SubmitEntry(ctx, sessionID, user, round, payload); err != nil {
			t.Fatalf("submit round %d for %s: %v", round, user, err)
		}
	}
}
