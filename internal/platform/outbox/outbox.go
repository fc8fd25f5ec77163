// Package outbox implements the transactional outbox: event records are
// written in the same unit of work as the state change and dispatched to the
// message bus afterwards, so consumers never observe uncommitted state.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/commercekit/commerce-core/internal/shared/events"
)

// Recorder appends event records inside the caller's unit of work.
type Recorder interface {
	Record(ctx context.Context, tx *gorm.DB, evts ...events.Event) error
}

// Record is one pending or sent outbox row.
type Record struct {
	ID        int64           `gorm:"primaryKey;column:id;autoIncrement"`
	EventID   string          `gorm:"column:event_id;uniqueIndex"`
	Topic     string          `gorm:"column:topic;type:varchar(128);index"`
	Key       string          `gorm:"column:key"`
	Payload   json.RawMessage `gorm:"column:payload;type:jsonb"`
	CreatedAt time.Time       `gorm:"column:created_at;index"`
	SentAt    *time.Time      `gorm:"column:sent_at;index"`
}

func (Record) TableName() string { return "outbox" }

// Store persists outbox rows through GORM.
type Store struct {
	db *gorm.DB
}

// NewStore wires a database-backed outbox. Caller manages DB lifecycle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Record inserts rows using the supplied transaction handle so the events
// commit or roll back together with the aggregate they describe.
func (s *Store) Record(ctx context.Context, tx *gorm.DB, evts ...events.Event) error {
	if tx == nil {
		tx = s.db
	}
	if tx == nil {
		return errors.New("outbox store not configured")
	}
	for _, evt := range evts {
		payload, err := json.Marshal(evt)
		if err != nil {
			return err
		}
		record := Record{
			EventID:   evt.EventID,
			Topic:     events.TopicFor(evt.Type),
			Key:       evt.SubjectGUID,
			Payload:   payload,
			CreatedAt: evt.CreatedAt,
		}
		if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
			return err
		}
	}
	return nil
}

// FetchPending returns unsent rows in insertion order.
func (s *Store) FetchPending(ctx context.Context, limit int) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("outbox store not configured")
	}
	var records []Record
	err := s.db.WithContext(ctx).
		Where("sent_at IS NULL").
		Order("id").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// MarkSent stamps a row as dispatched.
func (s *Store) MarkSent(ctx context.Context, id int64) error {
	if s == nil || s.db == nil {
		return errors.New("outbox store not configured")
	}
	now := time.Now().UTC()
	return s.db.WithContext(ctx).
		Model(&Record{}).
		Where("id = ?", id).
		Update("sent_at", &now).Error
}
