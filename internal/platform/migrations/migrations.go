package migrations

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&orderRecord{},
		&shipmentRecord{},
		&paymentRecord{},
		&changeSetRecord{},
		&memberRecord{},
		&customerRecord{},
		&sessionRecord{},
		&outboxRecord{},
	)
}

// Order schema mirrors the orders Postgres adapter.
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
	GUID      string          `gorm:"primaryKey;column:guid;size:64"`
	OrderGUID string          `gorm:"column:order_guid;size:64;index"`
	Type      string          `gorm:"column:type;type:varchar(16)"`
	Status    string          `gorm:"column:status;type:varchar(32);index"`
	Total     decimal.Decimal `gorm:"column:total;type:numeric(19,4)"`
	Lines     string          `gorm:"column:lines;type:jsonb"`
}

func (shipmentRecord) TableName() string { return "order_shipments" }

// Payment rows are append-only; the id keeps ledger ordering stable.
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

// Change-set schema mirrors the changesets Postgres adapter.
type changeSetRecord struct {
	GUID          string         `gorm:"primaryKey;column:guid;size:64"`
	Name          string         `gorm:"column:name;size:255"`
	State         string         `gorm:"column:state;type:varchar(32);index"`
	CreatedBy     string         `gorm:"column:created_by;size:64"`
	AssignedUsers pq.StringArray `gorm:"column:assigned_users;type:text[]"`
	CreatedAt     time.Time      `gorm:"column:created_at"`
	ModifiedAt    time.Time      `gorm:"column:modified_at"`
}

func (changeSetRecord) TableName() string { return "change_sets" }

type memberRecord struct {
	ID            int64     `gorm:"primaryKey;column:id;autoIncrement"`
	ChangeSetGUID string    `gorm:"column:change_set_guid;size:64;index;uniqueIndex:ux_change_set_member,priority:1"`
	ObjectType    string    `gorm:"column:object_type;size:64;uniqueIndex:ux_change_set_member,priority:2;index:ix_member_descriptor,priority:1"`
	ObjectID      string    `gorm:"column:object_id;size:128;uniqueIndex:ux_change_set_member,priority:3;index:ix_member_descriptor,priority:2"`
	Metadata      string    `gorm:"column:metadata;type:jsonb"`
	AddedAt       time.Time `gorm:"column:added_at"`
}

func (memberRecord) TableName() string { return "change_set_members" }

// Customer schema mirrors the customers Postgres adapter.
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

// Session schema mirrors the customer session store.
type sessionRecord struct {
	CustomerGUID string    `gorm:"primaryKey;column:customer_guid;size:64"`
	Token        string    `gorm:"column:token;size:512"`
	ExpiresAt    time.Time `gorm:"column:expires_at;index"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (sessionRecord) TableName() string { return "customer_sessions" }

// Outbox schema mirrors the transactional outbox store.
type outboxRecord struct {
	ID        int64      `gorm:"primaryKey;column:id;autoIncrement"`
	EventID   string     `gorm:"column:event_id;uniqueIndex"`
	Topic     string     `gorm:"column:topic;type:varchar(128);index"`
	Key       string     `gorm:"column:key"`
	Payload   []byte     `gorm:"column:payload;type:jsonb"`
	CreatedAt time.Time  `gorm:"column:created_at;index"`
	SentAt    *time.Time `gorm:"column:sent_at;index"`
}

func (outboxRecord) TableName() string { return "outbox" }
