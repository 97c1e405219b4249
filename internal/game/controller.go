package game

import (
	"context"
	"fmt"
	"log"
	"strings"

	"sketch-chain/internal/config"
	"sketch-chain/internal/db"
	"sketch-chain/internal/store"
)

// Controller owns the session lifecycle: create, join, start, submit,
// close. It never messages clients directly; every mutation goes through
// the store and fans out to subscribers as a change notification.
type Controller struct {
	store *store.Store
	cfg   config.Config
}

func NewController(st *store.Store, cfg config.Config) *Controller {
	return &Controller{store: st, cfg: cfg}
}

// CreateSession opens a lobby in the channel and enrolls the host as the
// first roster entry. At most one non-finished session may exist per
// channel.
func (c *Controller) CreateSession(ctx context.Context, channelID, hostID, gameType string) (*db.Session, error) {
	if channelID == "" || hostID == "" {
		return nil, fmt.Errorf("%w: channel and host are required", ErrValidation)
	}
	if gameType != db.GameTypeChain {
		return nil, fmt.Errorf("%w: unsupported game type %q", ErrValidation, gameType)
	}
	active, err := c.store.ActiveSessionByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, fmt.Errorf("%w: channel %s already has an active session", ErrConflict, channelID)
	}
	session := &db.Session{
		ChannelID: channelID,
		HostID:    hostID,
		GameType:  gameType,
		Status:    db.StatusLobby,
	}
	host := &db.Player{
		UserID:    hostID,
		JoinOrder: 1,
	}
	if err := c.store.CreateSession(ctx, session, host); err != nil {
		return nil, err
	}
	if err := c.store.AppendEvent(ctx, session.ID, "session_created", EventPayload{
		ChannelID: channelID,
		UserID:    hostID,
	}); err != nil {
		log.Printf("append event failed session_id=%d type=session_created error=%v", session.ID, err)
	}
	log.Printf("session created session_id=%d channel_id=%s host_id=%s", session.ID, channelID, hostID)
	return session, nil
}

// JoinSession adds a player to the lobby with the next join order. The
// order is computed from an authoritative count right before the insert;
// if two joins race, the (session_id, join_order) unique index rejects one
// and we retry once with a fresh count.
func (c *Controller) JoinSession(ctx context.Context, sessionID uint, userID string) error {
	session, err := c.store.SessionByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
	}
	if session.Status != db.StatusLobby {
		return fmt.Errorf("%w: session %d is %s, joining is lobby-only", ErrInvalidState, sessionID, session.Status)
	}
	joined, err := c.store.PlayerInSession(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if joined {
		return fmt.Errorf("%w: %s already joined session %d", ErrConflict, userID, sessionID)
	}
	for attempt := 0; attempt < 2; attempt++ {
		count, err := c.store.PlayerCount(ctx, sessionID)
		if err != nil {
			return err
		}
		if c.cfg.MaxPlayers > 0 && count >= int64(c.cfg.MaxPlayers) {
			return fmt.Errorf("%w: session %d lobby is full", ErrInvalidState, sessionID)
		}
		player := &db.Player{
			SessionID: sessionID,
			UserID:    userID,
			JoinOrder: int(count) + 1,
		}
		err = c.store.AddPlayer(ctx, player)
		if err == nil {
			if err := c.store.AppendEvent(ctx, sessionID, "player_joined", EventPayload{
				UserID:    userID,
				JoinOrder: player.JoinOrder,
			}); err != nil {
				log.Printf("append event failed session_id=%d type=player_joined error=%v", sessionID, err)
			}
			log.Printf("player joined session_id=%d user_id=%s join_order=%d", sessionID, userID, player.JoinOrder)
			return nil
		}
		if !store.IsUniqueViolation(err) {
			return err
		}
	}
	return fmt.Errorf("%w: join order contended for session %d", ErrConflict, sessionID)
}

// StartGame creates the N round-1 entries (each player starts their own
// chain) and moves the session to prompting. Host-only.
func (c *Controller) StartGame(ctx context.Context, sessionID uint, requesterID string) error {
	session, err := c.store.SessionByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
	}
	if requesterID != session.HostID {
		return fmt.Errorf("%w: only the host may start session %d", ErrPermission, sessionID)
	}
	if session.Status != db.StatusLobby {
		return fmt.Errorf("%w: session %d is %s, not lobby", ErrInvalidState, sessionID, session.Status)
	}
	roster, err := c.store.PlayersBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(roster) < c.cfg.MinPlayers {
		return fmt.Errorf("%w: session %d has %d players, need %d", ErrInvalidState, sessionID, len(roster), c.cfg.MinPlayers)
	}
	entries, err := BuildRoundEntries(sessionID, roster, 1)
	if err != nil {
		return err
	}
	if _, err := c.store.InsertEntries(ctx, entries); err != nil {
		return err
	}
	if _, err := c.store.UpdateSessionStatus(ctx, sessionID, []string{db.StatusLobby}, db.StatusPrompting); err != nil {
		return err
	}
	if err := c.store.AppendEvent(ctx, sessionID, "game_started", EventPayload{
		UserID:  requesterID,
		Players: len(roster),
	}); err != nil {
		log.Printf("append event failed session_id=%d type=game_started error=%v", sessionID, err)
	}
	log.Printf("game started session_id=%d players=%d", sessionID, len(roster))
	return nil
}

// SubmitPayload carries exactly one of a text prompt or an opaque drawing
// reference. The core never decodes drawing data.
type SubmitPayload struct {
	Prompt  string
	Drawing string
}

// SubmitEntry fills the caller's entry for the round. The write is
// conditional on the entry being empty, so a duplicate submission is
// rejected rather than overwriting. Advancement is not performed here; the
// host's evaluation reacts to the change notification.
func (c *Controller) SubmitEntry(ctx context.Context, sessionID uint, userID string, roundNumber int, payload SubmitPayload) error {
	column, value, err := c.validatePayload(payload)
	if err != nil {
		return err
	}
	session, err := c.store.SessionByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
	}
	if session.Status != db.StatusPrompting && session.Status != db.StatusPlaying {
		return fmt.Errorf("%w: session %d is %s, not accepting submissions", ErrInvalidState, sessionID, session.Status)
	}
	entry, err := c.store.EntryFor(ctx, sessionID, roundNumber, userID)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("%w: no round %d entry for %s in session %d", ErrInvalidState, roundNumber, userID, sessionID)
	}
	if entry.Submitted() {
		return fmt.Errorf("%w: round %d entry for %s already submitted", ErrInvalidState, roundNumber, userID)
	}
	if (entry.Kind == db.KindPrompt) != (column == store.ColumnPromptText) {
		return fmt.Errorf("%w: round %d takes a %s", ErrValidation, roundNumber, entry.Kind)
	}
	ok, err := c.store.FillEntry(ctx, sessionID, roundNumber, userID, column, value)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: round %d entry for %s already submitted", ErrInvalidState, roundNumber, userID)
	}
	if err := c.store.AppendEvent(ctx, sessionID, "entry_submitted", EventPayload{
		UserID:      userID,
		RoundNumber: roundNumber,
		Kind:        entry.Kind,
	}); err != nil {
		log.Printf("append event failed session_id=%d type=entry_submitted error=%v", sessionID, err)
	}
	log.Printf("entry submitted session_id=%d user_id=%s round=%d kind=%s", sessionID, userID, roundNumber, entry.Kind)
	return nil
}

func (c *Controller) validatePayload(payload SubmitPayload) (column, value string, err error) {
	prompt := strings.TrimSpace(payload.Prompt)
	drawing := payload.Drawing
	switch {
	case prompt == "" && drawing == "":
		return "", "", fmt.Errorf("%w: submission needs a prompt or a drawing", ErrValidation)
	case prompt != "" && drawing != "":
		return "", "", fmt.Errorf("%w: submission must be a prompt or a drawing, not both", ErrValidation)
	case prompt != "":
		if len(prompt) > c.cfg.MaxPromptLength {
			return "", "", fmt.Errorf("%w: prompt exceeds %d characters", ErrValidation, c.cfg.MaxPromptLength)
		}
		return store.ColumnPromptText, prompt, nil
	default:
		if len(drawing) > c.cfg.MaxDrawingBytes {
			return "", "", fmt.Errorf("%w: drawing exceeds %d bytes", ErrValidation, c.cfg.MaxDrawingBytes)
		}
		return store.ColumnDrawingData, drawing, nil
	}
}

// CloseSession force-finishes the session. Host-only, idempotent: closing
// an already-finished session is a no-op.
func (c *Controller) CloseSession(ctx context.Context, sessionID uint, requesterID string) error {
	session, err := c.store.SessionByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
	}
	if requesterID != session.HostID {
		return fmt.Errorf("%w: only the host may close session %d", ErrPermission, sessionID)
	}
	if session.Status == db.StatusFinished {
		return nil
	}
	changed, err := c.store.UpdateSessionStatus(ctx, sessionID, []string{
		db.StatusLobby, db.StatusPrompting, db.StatusPlaying, db.StatusResults,
	}, db.StatusFinished)
	if err != nil {
		return err
	}
	if changed {
		if err := c.store.AppendEvent(ctx, sessionID, "session_closed", EventPayload{
			UserID: requesterID,
		}); err != nil {
			log.Printf("append event failed session_id=%d type=session_closed error=%v", sessionID, err)
		}
		log.Printf("session closed session_id=%d by=%s", sessionID, requesterID)
	}
	return nil
}

// EventPayload is the JSON body of audit events.
type EventPayload struct {
	ChannelID   string `json:"channel_id,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	JoinOrder   int    `json:"join_order,omitempty"`
	RoundNumber int    `json:"round_number,omitempty"`
	Kind        string `json:"kind,omitempty"`
	Players     int    `json:"players,omitempty"`
	Status      string `json:"status,omitempty"`
	Reaped      int    `json:"reaped,omitempty"`
}
