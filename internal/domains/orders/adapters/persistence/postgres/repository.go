package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/commercekit/commerce-core/internal/domains/orders/domain"
	"github.com/commercekit/commerce-core/internal/domains/orders/ports"
	"github.com/commercekit/commerce-core/internal/platform/outbox"
	"github.com/commercekit/commerce-core/internal/shared/events"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists order aggregates in PostgreSQL using GORM. Aggregate,
// shipments, payment rows, and outbox events commit in one transaction.
type Repository struct {
	db  *gorm.DB
	box *outbox.Store
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB, box *outbox.Store) *Repository {
	return &Repository{db: db, box: box}
}

type orderRecord struct {
	GUID         string          `gorm:"primaryKey;column:guid;size:64"`
	CustomerGUID string          `gorm:"column:customer_guid;size:64;index"`
	StoreCode    string          `gorm:"column:store_code;size:64;index"`
	Status       string          `gorm:"column:status;type:varchar(32);index"`
	Total        decimal.Decimal `gorm:"column:total;type:numeric(19,4)"`
	Exchange     bool            `gorm:"column:exchange"`
	CreatedAt    time.Time       `gorm:"column:created_at;index"`
	ModifiedAt   time.Time       `gorm:"column:modified_at"`
}

func (orderRecord) TableName() string { return "orders" }

type shipmentRecord struct {
	GUID      string           `gorm:"primaryKey;column:guid;size:64"`
	OrderGUID string           `gorm:"column:order_guid;size:64;index"`
	Type      string           `gorm:"column:type;type:varchar(16)"`
	Status    string           `gorm:"column:status;type:varchar(32);index"`
	Total     decimal.Decimal  `gorm:"column:total;type:numeric(19,4)"`
	Lines     []domain.SKULine `gorm:"column:lines;serializer:json"`
}

func (shipmentRecord) TableName() string { return "order_shipments" }

// paymentRecord rows are insert-only; the ledger never mutates prior entries.
type paymentRecord struct {
	ID              int64           `gorm:"primaryKey;column:id;autoIncrement"`
	GUID            string          `gorm:"column:guid;size:64;uniqueIndex"`
	OrderGUID       string          `gorm:"column:order_guid;size:64;index"`
	ShipmentGUID    string          `gorm:"column:shipment_guid;size:64;index"`
	TransactionType string          `gorm:"column:transaction_type;type:varchar(32)"`
	Amount          decimal.Decimal `gorm:"column:amount;type:numeric(19,4)"`
	Status          string          `gorm:"column:status;type:varchar(16)"`
	PaymentMethod   string          `gorm:"column:payment_method;size:64"`
	ReferenceID     string          `gorm:"column:reference_id;size:128;index"`
	CreatedAt       time.Time       `gorm:"column:created_at"`
}

func (paymentRecord) TableName() string { return "order_payments" }

// Save upserts the aggregate and appends any ledger rows and events not yet
// persisted, all in one transaction.
func (r *Repository) Save(ctx context.Context, order *domain.Order, recording ...events.Event) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := toOrderRecord(order)
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "guid"}},
			DoUpdates: clause.Assignments(map[string]any{
				"status":      record.Status,
				"total":       record.Total,
				"modified_at": record.ModifiedAt,
			}),
		}).Create(&record).Error; err != nil {
			return err
		}
		for _, shipment := range order.Shipments {
			sr := toShipmentRecord(order.GUID, shipment)
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "guid"}},
				DoUpdates: clause.Assignments(map[string]any{
					"status": sr.Status,
					"total":  sr.Total,
					"lines":  gorm.Expr("excluded.lines"),
				}),
			}).Create(&sr).Error; err != nil {
				return err
			}
		}
		for _, entry := range order.Payments {
			pr := toPaymentRecord(order.GUID, entry)
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "guid"}},
				DoNothing: true,
			}).Create(&pr).Error; err != nil {
				return err
			}
		}
		if r.box != nil && len(recording) > 0 {
			if err := r.box.Record(ctx, tx, recording...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByGUID(ctx, order.GUID)
}

// GetByGUID loads an order with its shipments and ledger in insertion order.
func (r *Repository) GetByGUID(ctx context.Context, guid string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).First(&record, "guid = ?", guid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return r.hydrate(ctx, record)
}

func (r *Repository) ListByCustomer(ctx context.Context, customerGUID string) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	if err := r.db.WithContext(ctx).
		Where("customer_guid = ?", customerGUID).
		Order("created_at").
		Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for _, record := range records {
		order, err := r.hydrate(ctx, record)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (r *Repository) hydrate(ctx context.Context, record orderRecord) (*domain.Order, error) {
	var shipments []shipmentRecord
	if err := r.db.WithContext(ctx).
		Where("order_guid = ?", record.GUID).
		Order("guid").
		Find(&shipments).Error; err != nil {
		return nil, err
	}
	var payments []paymentRecord
	if err := r.db.WithContext(ctx).
		Where("order_guid = ?", record.GUID).
		Order("id").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return toDomainOrder(record, shipments, payments), nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toOrderRecord(order *domain.Order) orderRecord {
	return orderRecord{
		GUID:         order.GUID,
		CustomerGUID: order.CustomerGUID,
		StoreCode:    order.StoreCode,
		Status:       string(order.Status),
		Total:        order.Total,
		Exchange:     order.Exchange,
		CreatedAt:    order.CreatedAt,
		ModifiedAt:   order.ModifiedAt,
	}
}

func toShipmentRecord(orderGUID string, shipment *domain.Shipment) shipmentRecord {
	return shipmentRecord{
		GUID:      shipment.GUID,
		OrderGUID: orderGUID,
		Type:      string(shipment.Type),
		Status:    string(shipment.Status),
		Total:     shipment.Total,
		Lines:     shipment.Lines,
	}
}

func toPaymentRecord(orderGUID string, entry domain.PaymentEntry) paymentRecord {
	return paymentRecord{
		GUID:            entry.GUID,
		OrderGUID:       orderGUID,
		ShipmentGUID:    entry.ShipmentGUID,
		TransactionType: string(entry.TransactionType),
		Amount:          entry.Amount,
		Status:          string(entry.Status),
		PaymentMethod:   entry.PaymentMethod,
		ReferenceID:     entry.ReferenceID,
		CreatedAt:       entry.CreatedAt,
	}
}

func toDomainOrder(record orderRecord, shipments []shipmentRecord, payments []paymentRecord) *domain.Order {
	order := &domain.Order{
		GUID:         record.GUID,
		CustomerGUID: record.CustomerGUID,
		StoreCode:    record.StoreCode,
		Status:       domain.Status(record.Status),
		Total:        record.Total,
		Exchange:     record.Exchange,
		CreatedAt:    record.CreatedAt,
		ModifiedAt:   record.ModifiedAt,
	}
	for _, sr := range shipments {
		order.Shipments = append(order.Shipments, &domain.Shipment{
			GUID:   sr.GUID,
			Type:   domain.ShipmentType(sr.Type),
			Status: domain.ShipmentStatus(sr.Status),
			Total:  sr.Total,
			Lines:  sr.Lines,
		})
	}
	for _, pr := range payments {
		order.Payments = append(order.Payments, domain.PaymentEntry{
			GUID:            pr.GUID,
			ShipmentGUID:    pr.ShipmentGUID,
			TransactionType: domain.TransactionType(pr.TransactionType),
			Amount:          pr.Amount,
			Status:          domain.PaymentStatus(pr.Status),
			PaymentMethod:   pr.PaymentMethod,
			ReferenceID:     pr.ReferenceID,
			CreatedAt:       pr.CreatedAt,
		})
	}
	return order
}
