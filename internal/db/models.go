package db

import (
	"time"

	"gorm.io/datatypes"
)

// Session statuses. Transitions only move forward: lobby -> prompting ->
// playing -> results -> finished.
const (
	StatusLobby     = "lobby"
	StatusPrompting = "prompting"
	StatusPlaying   = "playing"
	StatusResults   = "results"
	StatusFinished  = "finished"
)

// Round entry kinds. Odd rounds collect prompts, even rounds drawings.
const (
	KindPrompt  = "prompt"
	KindDrawing = "drawing"
)

// GameTypeChain is the only game type this service orchestrates.
const GameTypeChain = "chain"

type Session struct {
	ID        uint      `gorm:"primaryKey"`
	ChannelID string    `gorm:"size:64;index;not null"`
	HostID    string    `gorm:"size:64;not null"`
	GameType  string    `gorm:"size:32;not null"`
	Status    string    `gorm:"size:32;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Players   []Player
	Entries   []RoundEntry
	Events    []Event
}

type Player struct {
	ID        uint      `gorm:"primaryKey"`
	SessionID uint      `gorm:"not null;uniqueIndex:idx_players_session_user;uniqueIndex:idx_players_session_order"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_players_session_user"`
	JoinOrder int       `gorm:"not null;uniqueIndex:idx_players_session_order"`
	IsReady   bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// RoundEntry is one player's slot in one round. The unique index on
// (session_id, round_number, player_id) is the backstop against a racing
// advancement creating the same round twice.
type RoundEntry struct {
	ID             uint      `gorm:"primaryKey"`
	SessionID      uint      `gorm:"not null;uniqueIndex:idx_entries_session_round_player"`
	RoundNumber    int       `gorm:"not null;uniqueIndex:idx_entries_session_round_player"`
	PlayerID       string    `gorm:"size:64;not null;uniqueIndex:idx_entries_session_round_player"`
	ChainStarterID string    `gorm:"size:64;not null"`
	Kind           string    `gorm:"size:16;not null"`
	PromptText     *string   `gorm:"size:280"`
	DrawingData    *string
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// Submitted reports whether the entry has been filled in. Exactly one of
// the two payload columns is ever set.
func (e *RoundEntry) Submitted() bool {
	return e.PromptText != nil || e.DrawingData != nil
}

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	SessionID uint           `gorm:"index;not null"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
