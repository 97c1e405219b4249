package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"sketch-chain/internal/db"

	"github.com/jackc/pgconn"
	"gorm.io/gorm"
)

// Store wraps the durable tables behind the narrow contract the game core
// needs: filtered reads, conflict-guarded inserts, conditional updates, and
// row-change notifications published after every successful write.
type Store struct {
	db       *gorm.DB
	notifier *Notifier
}

func New(conn *gorm.DB) *Store {
	return &Store{
		db:       conn,
		notifier: NewNotifier(),
	}
}

func (s *Store) Notifier() *Notifier {
	return s.notifier
}

// CreateSession inserts the session together with the host's roster row.
func (s *Store) CreateSession(ctx context.Context, session *db.Session, host *db.Player) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		host.SessionID = session.ID
		return tx.Create(host).Error
	})
	if err != nil {
		return err
	}
	s.notifier.Publish(Change{Table: TableSessions, Type: ChangeInsert, SessionID: session.ID})
	s.notifier.Publish(Change{Table: TablePlayers, Type: ChangeInsert, SessionID: session.ID})
	return nil
}

func (s *Store) SessionByID(ctx context.Context, id uint) (*db.Session, error) {
	var session db.Session
	err := s.db.WithContext(ctx).First(&session, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ActiveSessionByChannel returns the non-finished session bound to the
// channel, or nil when there is none.
func (s *Store) ActiveSessionByChannel(ctx context.Context, channelID string) (*db.Session, error) {
	var session db.Session
	err := s.db.WithContext(ctx).
		Where("channel_id = ? AND status <> ?", channelID, db.StatusFinished).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ActiveSessions lists every non-finished session of the given game type.
func (s *Store) ActiveSessions(ctx context.Context, gameType string) ([]db.Session, error) {
	var sessions []db.Session
	err := s.db.WithContext(ctx).
		Where("game_type = ? AND status <> ?", gameType, db.StatusFinished).
		Order("id asc").
		Find(&sessions).Error
	return sessions, err
}

// UpdateSessionStatus moves the session to the target status only if it is
// currently in one of the expected statuses. Returns false when another
// writer got there first, which callers treat as success already applied.
func (s *Store) UpdateSessionStatus(ctx context.Context, sessionID uint, from []string, to string) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&db.Session{}).
		Where("id = ? AND status IN ?", sessionID, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	s.notifier.Publish(Change{Table: TableSessions, Type: ChangeUpdate, SessionID: sessionID})
	return true, nil
}

func (s *Store) AddPlayer(ctx context.Context, player *db.Player) error {
	if err := s.db.WithContext(ctx).Create(player).Error; err != nil {
		return err
	}
	s.notifier.Publish(Change{Table: TablePlayers, Type: ChangeInsert, SessionID: player.SessionID})
	return nil
}

// PlayersBySession returns the roster ordered by join order, which is the
// rotation index of the chain assignment.
func (s *Store) PlayersBySession(ctx context.Context, sessionID uint) ([]db.Player, error) {
	var players []db.Player
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("join_order asc").
		Find(&players).Error
	return players, err
}

func (s *Store) PlayerCount(ctx context.Context, sessionID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&db.Player{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}

func (s *Store) PlayerInSession(ctx context.Context, sessionID uint, userID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&db.Player{}).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Count(&count).Error
	return count > 0, err
}

// ReapStale force-finishes sessions in the given statuses created before the
// cutoff that never collected a single roster row. A single bulk UPDATE, so
// a pass either applies to all matching sessions or none.
func (s *Store) ReapStale(ctx context.Context, statuses []string, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&db.Session{}).
		Where("status IN ? AND created_at < ?", statuses, before).
		Where("NOT EXISTS (SELECT 1 FROM players WHERE players.session_id = sessions.id)").
		Update("status", db.StatusFinished)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// IsUniqueViolation reports whether err is a uniqueness-constraint failure
// from Postgres or from the SQLite driver used in tests.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
