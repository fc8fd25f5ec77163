package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/commercekit/commerce-core/internal/domains/customers/ports"
)

var _ ports.SessionStore = (*SessionStore)(nil)

// SessionStore persists shopper sessions in PostgreSQL. Expiry is enforced on
// read; the purge command reclaims rows past their TTL.
type SessionStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// DefaultSessionTTL provides the fallback TTL when none is configured.
const DefaultSessionTTL = 24 * time.Hour

// NewSessionStore wires a PostgreSQL-backed session store. Caller owns DB lifecycle.
func NewSessionStore(db *gorm.DB, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{db: db, ttl: ttl}
}

type sessionRecord struct {
	CustomerGUID string    `gorm:"primaryKey;column:customer_guid;size:64"`
	Token        string    `gorm:"column:token;size:512"`
	ExpiresAt    time.Time `gorm:"column:expires_at;index"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (sessionRecord) TableName() string { return "customer_sessions" }

// Save upserts the session token keyed by customer guid.
func (s *SessionStore) Save(ctx context.Context, customerGUID, token string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	customerGUID = strings.TrimSpace(customerGUID)
	token = strings.TrimSpace(token)
	if customerGUID == "" || token == "" {
		return errors.New("customer guid and token are required")
	}
	record := sessionRecord{
		CustomerGUID: customerGUID,
		Token:        token,
		ExpiresAt:    time.Now().Add(s.ttl),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_guid"}},
			DoUpdates: clause.AssignmentColumns([]string{"token", "expires_at", "updated_at"}),
		}).
		Create(&record).Error
}

// Get returns the live token, treating expired rows as absent.
func (s *SessionStore) Get(ctx context.Context, customerGUID string) (string, error) {
	if err := s.ensureDB(); err != nil {
		return "", err
	}
	var record sessionRecord
	err := s.db.WithContext(ctx).
		First(&record, "customer_guid = ? AND expires_at > ?", customerGUID, time.Now()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ports.ErrNoSession
	}
	if err != nil {
		return "", err
	}
	return record.Token, nil
}

// Delete removes the session for a customer.
func (s *SessionStore) Delete(ctx context.Context, customerGUID string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	customerGUID = strings.TrimSpace(customerGUID)
	if customerGUID == "" {
		return nil
	}
	return s.db.WithContext(ctx).Delete(&sessionRecord{}, "customer_guid = ?", customerGUID).Error
}

// PurgeExpired removes all expired sessions. Use for housekeeping or cron.
func (s *SessionStore) PurgeExpired(ctx context.Context) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now()).
		Delete(&sessionRecord{}).Error
}

func (s *SessionStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres session store not configured")
	}
	return nil
}
