package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/commercekit/commerce-core/internal/domains/customers/domain"
	"github.com/commercekit/commerce-core/internal/domains/customers/ports"
	"github.com/commercekit/commerce-core/internal/platform/outbox"
	"github.com/commercekit/commerce-core/internal/shared/events"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists customers in PostgreSQL using GORM.
type Repository struct {
	db  *gorm.DB
	box *outbox.Store
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB, box *outbox.Store) *Repository {
	return &Repository{db: db, box: box}
}

type customerRecord struct {
	GUID       string    `gorm:"primaryKey;column:guid;size:64"`
	StoreCode  string    `gorm:"column:store_code;size:64;uniqueIndex:ux_customer_user,priority:1"`
	UserID     string    `gorm:"column:user_id;size:128;uniqueIndex:ux_customer_user,priority:2"`
	Email      string    `gorm:"column:email;size:255"`
	Name       string    `gorm:"column:name;size:255"`
	Status     string    `gorm:"column:status;type:varchar(16)"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	ModifiedAt time.Time `gorm:"column:modified_at"`
}

func (customerRecord) TableName() string { return "customers" }

// Save upserts the customer keyed by guid; outbox events share the transaction.
func (r *Repository) Save(ctx context.Context, customer *domain.Customer, recording ...events.Event) (*domain.Customer, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, errors.New("customer is nil")
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	record := toRecord(customer)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "guid"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "name", "status", "modified_at"}),
		}).Create(&record).Error; err != nil {
			return err
		}
		if r.box != nil && len(recording) > 0 {
			return r.box.Record(ctx, tx, recording...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByGUID(ctx, customer.GUID)
}

func (r *Repository) GetByGUID(ctx context.Context, guid string) (*domain.Customer, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record customerRecord
	if err := r.db.WithContext(ctx).First(&record, "guid = ?", guid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) FindByUserID(ctx context.Context, storeCode, userID string) (*domain.Customer, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record customerRecord
	err := r.db.WithContext(ctx).
		First(&record, "store_code = ? AND user_id = ?", storeCode, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) Delete(ctx context.Context, guid string) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Where("guid = ?", guid).Delete(&customerRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context, storeCode string) ([]*domain.Customer, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []customerRecord
	if err := r.db.WithContext(ctx).
		Where("store_code = ?", storeCode).
		Order("created_at").
		Find(&records).Error; err != nil {
		return nil, err
	}
	customers := make([]*domain.Customer, 0, len(records))
	for i := range records {
		customers = append(customers, records[i].toDomain())
	}
	return customers, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres customer repository not configured")
	}
	return nil
}

func toRecord(customer *domain.Customer) customerRecord {
	return customerRecord{
		GUID:       customer.GUID,
		StoreCode:  customer.StoreCode,
		UserID:     customer.UserID,
		Email:      customer.Email,
		Name:       customer.Name,
		Status:     string(customer.Status),
		CreatedAt:  customer.CreatedAt,
		ModifiedAt: customer.ModifiedAt,
	}
}

func (r customerRecord) toDomain() *domain.Customer {
	return &domain.Customer{
		GUID:       r.GUID,
		StoreCode:  r.StoreCode,
		UserID:     r.UserID,
		Email:      r.Email,
		Name:       r.Name,
		Status:     domain.Status(r.Status),
		CreatedAt:  r.CreatedAt,
		ModifiedAt: r.ModifiedAt,
	}
}
