package server

import (
	"net/http"

	"sketch-chain/internal/db"
	"sketch-chain/internal/game"
)

type createSessionRequest struct {
	ChannelID string `json:"channel_id"`
	HostID    string `json:"host_id"`
	GameType  string `json:"game_type"`
}

type joinRequest struct {
	UserID string `json:"user_id"`
}

type startRequest struct {
	UserID string `json:"user_id"`
}

type submitRequest struct {
	UserID      string `json:"user_id"`
	RoundNumber int    `json:"round_number"`
	Prompt      string `json:"prompt,omitempty"`
	Drawing     string `json:"drawing,omitempty"`
}

type closeRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.GameType == "" {
		req.GameType = db.GameTypeChain
	}
	session, err := s.controller.CreateSession(r.Context(), req.ChannelID, req.HostID, req.GameType)
	if err != nil {
		writeGameError(w, err)
		return
	}
	s.ensureSessionLoops(session.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": session.ID,
		"channel_id": session.ChannelID,
		"status":     session.Status,
	})
}

func (s *Server) handleSessionSubroutes(w http.ResponseWriter, r *http.Request) {
	sessionID, action, ok := parseSessionPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch {
	case r.Method == http.MethodGet && action == "":
		s.handleSessionSnapshot(w, r, sessionID)
	case r.Method == http.MethodPost && action == "join":
		s.handleJoin(w, r, sessionID)
	case r.Method == http.MethodPost && action == "start":
		s.handleStart(w, r, sessionID)
	case r.Method == http.MethodPost && action == "entries":
		s.handleSubmit(w, r, sessionID)
	case r.Method == http.MethodPost && action == "close":
		s.handleClose(w, r, sessionID)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleSessionSnapshot(w http.ResponseWriter, r *http.Request, sessionID uint) {
	snap, err := s.snapshot(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if snap == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request, sessionID uint) {
	var req joinRequest
	if err := readJSON(w, r, &req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.controller.JoinSession(r.Context(), sessionID, req.UserID); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "joined"})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request, sessionID uint) {
	var req startRequest
	if err := readJSON(w, r, &req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.controller.StartGame(r.Context(), sessionID, req.UserID); err != nil {
		writeGameError(w, err)
		return
	}
	s.ensureSessionLoops(sessionID)
	writeJSON(w, http.StatusOK, map[string]string{"result": "started"})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, sessionID uint) {
	var req submitRequest
	if err := readJSON(w, r, &req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := s.controller.SubmitEntry(r.Context(), sessionID, req.UserID, req.RoundNumber, game.SubmitPayload{
		Prompt:  req.Prompt,
		Drawing: req.Drawing,
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "submitted"})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request, sessionID uint) {
	var req closeRequest
	if err := readJSON(w, r, &req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.controller.CloseSession(r.Context(), sessionID, req.UserID); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "closed"})
}
