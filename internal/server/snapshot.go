package server

import (
	"context"

	"sketch-chain/internal/db"
)

// snapshot builds the full client-facing view of a session from fresh
// store reads. During play only submission flags are exposed; the chain
// contents appear once the session reaches results, for playback.
func (s *Server) snapshot(ctx context.Context, sessionID uint) (map[string]any, error) {
	session, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}
	players, err := s.store.PlayersBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.EntriesBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	revealed := session.Status == db.StatusResults || session.Status == db.StatusFinished

	roster := make([]map[string]any, 0, len(players))
	for _, player := range players {
		roster = append(roster, map[string]any{
			"user_id":    player.UserID,
			"join_order": player.JoinOrder,
			"is_ready":   player.IsReady,
		})
	}

	currentRound := 0
	rounds := make(map[int][]map[string]any)
	for _, entry := range entries {
		if entry.RoundNumber > currentRound {
			currentRound = entry.RoundNumber
		}
		view := map[string]any{
			"player_id":        entry.PlayerID,
			"chain_starter_id": entry.ChainStarterID,
			"kind":             entry.Kind,
			"submitted":        entry.Submitted(),
		}
		if revealed {
			if entry.PromptText != nil {
				view["prompt"] = *entry.PromptText
			}
			if entry.DrawingData != nil {
				view["drawing"] = *entry.DrawingData
			}
		}
		rounds[entry.RoundNumber] = append(rounds[entry.RoundNumber], view)
	}

	submitted := 0
	for _, view := range rounds[currentRound] {
		if view["submitted"] == true {
			submitted++
		}
	}

	return map[string]any{
		"session_id":      session.ID,
		"channel_id":      session.ChannelID,
		"host_id":         session.HostID,
		"game_type":       session.GameType,
		"status":          session.Status,
		"players":         roster,
		"current_round":   currentRound,
		"round_submitted": submitted,
		"rounds":          rounds,
	}, nil
}
