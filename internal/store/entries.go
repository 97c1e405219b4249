package store

import (
	"context"
	"errors"

	"sketch-chain/internal/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InsertEntries creates a batch of round entries, ignoring rows that already
// exist. The (session_id, round_number, player_id) unique index makes a
// duplicate advancement attempt a no-op instead of a double round; callers
// read RowsAffected to learn whether they won the race.
func (s *Store) InsertEntries(ctx context.Context, entries []db.RoundEntry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entries)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		s.notifier.Publish(Change{Table: TableEntries, Type: ChangeInsert, SessionID: entries[0].SessionID})
	}
	return result.RowsAffected, nil
}

func (s *Store) EntryFor(ctx context.Context, sessionID uint, roundNumber int, playerID string) (*db.RoundEntry, error) {
	var entry db.RoundEntry
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND round_number = ? AND player_id = ?", sessionID, roundNumber, playerID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Payload columns a submission may fill. Internal vocabulary, never caller
// input.
const (
	ColumnPromptText  = "prompt_text"
	ColumnDrawingData = "drawing_data"
)

// FillEntry writes the submission payload into an entry that has not been
// submitted yet. Returns false when the entry was already filled (or does
// not exist), which the controller surfaces as a duplicate submission.
func (s *Store) FillEntry(ctx context.Context, sessionID uint, roundNumber int, playerID, column, value string) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&db.RoundEntry{}).
		Where("session_id = ? AND round_number = ? AND player_id = ?", sessionID, roundNumber, playerID).
		Where("prompt_text IS NULL AND drawing_data IS NULL").
		Update(column, value)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	s.notifier.Publish(Change{Table: TableEntries, Type: ChangeUpdate, SessionID: sessionID})
	return true, nil
}

// SubmittedCount counts the filled entries of one round. Advancement
// decisions are made from this fresh count, never from notification
// payloads, so duplicate or reordered deliveries cannot mislead them.
func (s *Store) SubmittedCount(ctx context.Context, sessionID uint, roundNumber int) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&db.RoundEntry{}).
		Where("session_id = ? AND round_number = ?", sessionID, roundNumber).
		Where("prompt_text IS NOT NULL OR drawing_data IS NOT NULL").
		Count(&count).Error
	return count, err
}

// CurrentRound returns the highest round number that has entries, or zero
// before the game starts.
func (s *Store) CurrentRound(ctx context.Context, sessionID uint) (int, error) {
	var round int
	err := s.db.WithContext(ctx).
		Model(&db.RoundEntry{}).
		Where("session_id = ?", sessionID).
		Select("COALESCE(MAX(round_number), 0)").
		Scan(&round).Error
	if err != nil {
		return 0, err
	}
	return round, nil
}

func (s *Store) EntriesBySession(ctx context.Context, sessionID uint) ([]db.RoundEntry, error) {
	var entries []db.RoundEntry
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("round_number asc, id asc").
		Find(&entries).Error
	return entries, err
}

func (s *Store) EntryCount(ctx context.Context, sessionID uint, roundNumber int) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&db.RoundEntry{}).
		Where("session_id = ? AND round_number = ?", sessionID, roundNumber).
		Count(&count).Error
	return count, err
}
