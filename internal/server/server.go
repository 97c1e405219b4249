package server

import (
	"context"
	"log"
	"net/http"
	"sync"

	"sketch-chain/internal/config"
	"sketch-chain/internal/db"
	"sketch-chain/internal/game"
	"sketch-chain/internal/store"
)

type Server struct {
	store      *store.Store
	controller *game.Controller
	advancer   *game.Advancer
	cfg        config.Config
	ws         *wsHub
	loopsMu    sync.Mutex
	loops      map[uint]struct{}
}

func New(st *store.Store, cfg config.Config) *Server {
	advancer := game.NewAdvancer(st)
	return &Server{
		store:      st,
		controller: game.NewController(st, cfg),
		advancer:   advancer,
		cfg:        cfg,
		ws:         newWSHub(),
		loops:      make(map[uint]struct{}),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/", s.handleSessionSubroutes)
	mux.HandleFunc("POST /api/sessions/", s.handleSessionSubroutes)
	mux.HandleFunc("GET /ws/sessions/", s.handleWebsocket)
	return mux
}

// ResumeLoops restarts the advancement watcher and snapshot relay for
// sessions that were active when the process last stopped.
func (s *Server) ResumeLoops(ctx context.Context) error {
	sessions, err := s.store.ActiveSessions(ctx, db.GameTypeChain)
	if err != nil {
		return err
	}
	for _, session := range sessions {
		s.ensureSessionLoops(session.ID)
	}
	if len(sessions) > 0 {
		log.Printf("session loops resumed count=%d", len(sessions))
	}
	return nil
}

// ensureSessionLoops starts, once per session, the two background
// consumers of its change feed: the host-side advancement watcher and the
// websocket snapshot relay.
func (s *Server) ensureSessionLoops(sessionID uint) {
	s.loopsMu.Lock()
	if _, running := s.loops[sessionID]; running {
		s.loopsMu.Unlock()
		return
	}
	s.loops[sessionID] = struct{}{}
	s.loopsMu.Unlock()

	watcher := game.NewWatcher(s.store, s.advancer)
	go watcher.Watch(context.Background(), sessionID)
	go s.relaySnapshots(sessionID)
}

// relaySnapshots pushes a fresh snapshot to the session's websocket group
// on every change notification. State is re-read each time; the change
// itself carries nothing.
func (s *Server) relaySnapshots(sessionID uint) {
	ctx := context.Background()
	changes, cancel := s.store.Notifier().Subscribe(sessionID)
	defer cancel()
	defer func() {
		s.loopsMu.Lock()
		delete(s.loops, sessionID)
		s.loopsMu.Unlock()
	}()
	for range changes {
		snap, err := s.snapshot(ctx, sessionID)
		if err != nil {
			log.Printf("snapshot build failed session_id=%d error=%v", sessionID, err)
			continue
		}
		if snap == nil {
			return
		}
		s.ws.Broadcast(sessionID, snap)
		if snap["status"] == db.StatusFinished {
			return
		}
	}
}
