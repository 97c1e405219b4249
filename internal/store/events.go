package store

import (
	"context"
	"encoding/json"

	"sketch-chain/internal/db"

	"gorm.io/datatypes"
)

// AppendEvent records a lifecycle transition in the audit table.
func (s *Store) AppendEvent(ctx context.Context, sessionID uint, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	record := db.Event{
		SessionID: sessionID,
		Type:      eventType,
		Payload:   datatypes.JSON(data),
	}
	return s.db.WithContext(ctx).Create(&record).Error
}

func (s *Store) EventsBySession(ctx context.Context, sessionID uint) ([]db.Event, error) {
	var events []db.Event
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id asc").
		Find(&events).Error
	return events, err
}
