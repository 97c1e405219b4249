package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"sketch-chain/internal/db"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := conn.AutoMigrate(&db.Session{}, &db.Player{}, &db.RoundEntry{}, &db.Event{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return New(conn)
}

func createSession(t *testing.T, st *Store, channelID string) *db.Session {
	t.Helper()
	session := &db.Session{
		ChannelID: channelID,
		HostID:    "host",
		GameType:  db.GameTypeChain,
		Status:    db.StatusLobby,
	}
	host := &db.Player{UserID: "host", JoinOrder: 1}
	if err := st.CreateSession(context.Background(), session, host); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return session
}

func TestInsertEntriesIgnoresDuplicates(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	session := createSession(t, st, "ch-1")

	entries := []db.RoundEntry{
		{SessionID: session.ID, RoundNumber: 1, PlayerID: "host", ChainStarterID: "host", Kind: db.KindPrompt},
		{SessionID: session.ID, RoundNumber: 1, PlayerID: "bob", ChainStarterID: "bob", Kind: db.KindPrompt},
	}
	created, err := st.InsertEntries(ctx, entries)
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if created != 2 {
		t.Fatalf("first insert created %d rows, want 2", created)
	}

	// Same tuples again: the unique index swallows them instead of
	// duplicating the round.
	again := []db.RoundEntry{
		{SessionID: session.ID, RoundNumber: 1, PlayerID: "host", ChainStarterID: "host", Kind: db.KindPrompt},
		{SessionID: session.ID, RoundNumber: 1, PlayerID: "bob", ChainStarterID: "bob", Kind: db.KindPrompt},
	}
	created, err = st.InsertEntries(ctx, again)
	if err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	if created != 0 {
		t.Fatalf("duplicate insert created %d rows, want 0", created)
	}
	count, err := st.EntryCount(ctx, session.ID, 1)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("round has %d entries, want 2", count)
	}
}

func TestAddPlayerDuplicateJoinOrderIsUniqueViolation(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	session := createSession(t, st, "ch-1")

	if err := st.AddPlayer(ctx, &db.Player{SessionID: session.ID, UserID: "bob", JoinOrder: 2}); err != nil {
		t.Fatalf("add player: %v", err)
	}
	err := st.AddPlayer(ctx, &db.Player{SessionID: session.ID, UserID: "carol", JoinOrder: 2})
	if err == nil {
		t.Fatal("duplicate join order accepted")
	}
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func TestFillEntryIsConditionalOnEmpty(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	session := createSession(t, st, "ch-1")
	if _, err := st.InsertEntries(ctx, []db.RoundEntry{
		{SessionID: session.ID, RoundNumber: 1, PlayerID: "host", ChainStarterID: "host", Kind: db.KindPrompt},
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	ok, err := st.FillEntry(ctx, session.ID, 1, "host", ColumnPromptText, "a cat")
	if err != nil || !ok {
		t.Fatalf("first fill: ok=%t err=%v", ok, err)
	}
	ok, err = st.FillEntry(ctx, session.ID, 1, "host", ColumnPromptText, "a dog")
	if err != nil {
		t.Fatalf("second fill: %v", err)
	}
	if ok {
		t.Fatal("second fill reported success")
	}
	entry, err := st.EntryFor(ctx, session.ID, 1, "host")
	if err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if entry.PromptText == nil || *entry.PromptText != "a cat" {
		t.Fatalf("entry overwritten: %+v", entry)
	}

	submitted, err := st.SubmittedCount(ctx, session.ID, 1)
	if err != nil {
		t.Fatalf("submitted count: %v", err)
	}
	if submitted != 1 {
		t.Fatalf("submitted count %d, want 1", submitted)
	}
}

func TestUpdateSessionStatusGuardsCurrentStatus(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	session := createSession(t, st, "ch-1")

	changed, err := st.UpdateSessionStatus(ctx, session.ID, []string{db.StatusLobby}, db.StatusPrompting)
	if err != nil || !changed {
		t.Fatalf("lobby->prompting: changed=%t err=%v", changed, err)
	}
	// A writer still assuming lobby loses, and the status stays put.
	changed, err = st.UpdateSessionStatus(ctx, session.ID, []string{db.StatusLobby}, db.StatusPrompting)
	if err != nil {
		t.Fatalf("stale transition: %v", err)
	}
	if changed {
		t.Fatal("stale transition reported success")
	}
	current, err := st.SessionByID(ctx, session.ID)
	if err != nil {
		t.Fatalf("read session: %v", err)
	}
	if current.Status != db.StatusPrompting {
		t.Fatalf("status %s, want %s", current.Status, db.StatusPrompting)
	}
}

func TestCurrentRoundTracksHighestRound(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	session := createSession(t, st, "ch-1")

	round, err := st.CurrentRound(ctx, session.ID)
	if err != nil {
		t.Fatalf("current round: %v", err)
	}
	if round != 0 {
		t.Fatalf("empty session current round %d, want 0", round)
	}
	for r := 1; r <= 3; r++ {
		if _, err := st.InsertEntries(ctx, []db.RoundEntry{
			{SessionID: session.ID, RoundNumber: r, PlayerID: "host", ChainStarterID: "host", Kind: db.KindPrompt},
		}); err != nil {
			t.Fatalf("insert round %d: %v", r, err)
		}
	}
	round, err = st.CurrentRound(ctx, session.ID)
	if err != nil {
		t.Fatalf("current round: %v", err)
	}
	if round != 3 {
		t.Fatalf("current round %d, want 3", round)
	}
}

func TestNotifierDeliversToSessionSubscribers(t *testing.T) {
	n := NewNotifier()
	changes, cancel := n.Subscribe(1)
	defer cancel()
	other, cancelOther := n.Subscribe(2)
	defer cancelOther()

	n.Publish(Change{Table: TableEntries, Type: ChangeInsert, SessionID: 1})

	select {
	case change := <-changes:
		if change.Table != TableEntries || change.Type != ChangeInsert || change.SessionID != 1 {
			t.Fatalf("unexpected change: %+v", change)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive the change")
	}
	select {
	case change := <-other:
		t.Fatalf("subscriber for session 2 received %+v", change)
	default:
	}
}

func TestNotifierCancelStopsDelivery(t *testing.T) {
	n := NewNotifier()
	changes, cancel := n.Subscribe(1)
	cancel()
	if _, open := <-changes; open {
		t.Fatal("channel still open after cancel")
	}
	// Publishing after cancel must not panic.
	n.Publish(Change{Table: TableSessions, Type: ChangeUpdate, SessionID: 1})
	cancel()
}

func TestStoreWritesPublishChanges(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	session := createSession(t, st, "ch-1")

	changes, cancel := st.Notifier().Subscribe(session.ID)
	defer cancel()

	if _, err := st.InsertEntries(ctx, []db.RoundEntry{
		{SessionID: session.ID, RoundNumber: 1, PlayerID: "host", ChainStarterID: "host", Kind: db.KindPrompt},
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	select {
	case change := <-changes:
		if change.Table != TableEntries || change.Type != ChangeInsert {
			t.Fatalf("unexpected change: %+v", change)
		}
	case <-time.After(time.Second):
		t.Fatal("no change notification for entry insert")
	}

	if _, err := st.FillEntry(ctx, session.ID, 1, "host", ColumnPromptText, "a cat"); err != nil {
		t.Fatalf("fill: %v", err)
	}
	select {
	case change := <-changes:
		if change.Table != TableEntries || change.Type != ChangeUpdate {
			t.Fatalf("unexpected change: %+v", change)
		}
	case <-time.After(time.Second):
		t.Fatal("no change notification for entry update")
	}
}
