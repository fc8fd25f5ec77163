package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/commercekit/commerce-core/internal/domains/changesets/domain"
	"github.com/commercekit/commerce-core/internal/domains/changesets/ports"
	"github.com/commercekit/commerce-core/internal/platform/outbox"
	"github.com/commercekit/commerce-core/internal/shared/events"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists change sets in PostgreSQL using GORM. Member rows live
// in their own table with an auto-increment id so pagination stays stable in
// insertion order.
type Repository struct {
	db  *gorm.DB
	box *outbox.Store
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB, box *outbox.Store) *Repository {
	return &Repository{db: db, box: box}
}

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
	ID            int64             `gorm:"primaryKey;column:id;autoIncrement"`
	ChangeSetGUID string            `gorm:"column:change_set_guid;size:64;index;uniqueIndex:ux_change_set_member,priority:1"`
	ObjectType    string            `gorm:"column:object_type;size:64;uniqueIndex:ux_change_set_member,priority:2;index:ix_member_descriptor,priority:1"`
	ObjectID      string            `gorm:"column:object_id;size:128;uniqueIndex:ux_change_set_member,priority:3;index:ix_member_descriptor,priority:2"`
	Metadata      map[string]string `gorm:"column:metadata;serializer:json"`
	AddedAt       time.Time         `gorm:"column:added_at"`
}

func (memberRecord) TableName() string { return "change_set_members" }

// Save upserts the set and reconciles its member rows in one transaction.
func (r *Repository) Save(ctx context.Context, changeSet *domain.ChangeSet, recording ...events.Event) (*domain.ChangeSet, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if changeSet == nil {
		return nil, errors.New("change set is nil")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.saveInTx(tx, changeSet); err != nil {
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
	return r.GetByGUID(ctx, changeSet.GUID)
}

// SavePair commits both sets in one transaction so a move lands atomically.
func (r *Repository) SavePair(ctx context.Context, first, second *domain.ChangeSet, recording ...events.Event) (*domain.ChangeSet, *domain.ChangeSet, error) {
	if err := r.ensureDB(); err != nil {
		return nil, nil, err
	}
	if first == nil || second == nil {
		return nil, nil, errors.New("change set is nil")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.saveInTx(tx, first); err != nil {
			return err
		}
		if err := r.saveInTx(tx, second); err != nil {
			return err
		}
		if r.box != nil && len(recording) > 0 {
			return r.box.Record(ctx, tx, recording...)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	savedFirst, err := r.GetByGUID(ctx, first.GUID)
	if err != nil {
		return nil, nil, err
	}
	savedSecond, err := r.GetByGUID(ctx, second.GUID)
	if err != nil {
		return nil, nil, err
	}
	return savedFirst, savedSecond, nil
}

func (r *Repository) saveInTx(tx *gorm.DB, changeSet *domain.ChangeSet) error {
	record := toChangeSetRecord(changeSet)
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "guid"}},
		DoUpdates: clause.Assignments(map[string]any{
			"name":           record.Name,
			"state":          record.State,
			"assigned_users": record.AssignedUsers,
			"modified_at":    record.ModifiedAt,
		}),
	}).Create(&record).Error; err != nil {
		return err
	}
	// Removed members must drop their rows, so delete then re-insert keeps
	// the table in lockstep with the aggregate.
	if err := tx.Where("change_set_guid = ?", changeSet.GUID).Delete(&memberRecord{}).Error; err != nil {
		return err
	}
	for _, member := range changeSet.Members {
		mr := toMemberRecord(changeSet.GUID, member)
		if err := tx.Create(&mr).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByGUID loads a change set with members in insertion order.
func (r *Repository) GetByGUID(ctx context.Context, guid string) (*domain.ChangeSet, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record changeSetRecord
	if err := r.db.WithContext(ctx).First(&record, "guid = ?", guid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	var members []memberRecord
	if err := r.db.WithContext(ctx).
		Where("change_set_guid = ?", guid).
		Order("id").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return toDomainChangeSet(record, members), nil
}

// FindActiveByDescriptor resolves which non-finalized set, if any, holds the
// object.
func (r *Repository) FindActiveByDescriptor(ctx context.Context, descriptor domain.ObjectDescriptor) (*domain.ChangeSet, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var member memberRecord
	err := r.db.WithContext(ctx).
		Joins("JOIN change_sets ON change_sets.guid = change_set_members.change_set_guid").
		Where("change_set_members.object_type = ? AND change_set_members.object_id = ?", descriptor.ObjectType, descriptor.ObjectID).
		Where("change_sets.state <> ?", string(domain.StateFinalized)).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.GetByGUID(ctx, member.ChangeSetGUID)
}

// ListMembers pages member rows ordered by insertion id.
func (r *Repository) ListMembers(ctx context.Context, guid string, page ports.PageRequest) (*ports.MemberPage, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record changeSetRecord
	if err := r.db.WithContext(ctx).First(&record, "guid = ?", guid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&memberRecord{}).
		Where("change_set_guid = ?", guid).
		Count(&total).Error; err != nil {
		return nil, err
	}
	var records []memberRecord
	if err := r.db.WithContext(ctx).
		Where("change_set_guid = ?", guid).
		Order("id").
		Offset(page.StartIndex).
		Limit(page.PageSize).
		Find(&records).Error; err != nil {
		return nil, err
	}
	members := make([]domain.Member, 0, len(records))
	for _, mr := range records {
		members = append(members, toDomainMember(mr))
	}
	return &ports.MemberPage{
		Members:    members,
		TotalCount: int(total),
		StartIndex: page.StartIndex,
		PageSize:   page.PageSize,
	}, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres change set repository not configured")
	}
	return nil
}

func toChangeSetRecord(changeSet *domain.ChangeSet) changeSetRecord {
	return changeSetRecord{
		GUID:          changeSet.GUID,
		Name:          changeSet.Name,
		State:         string(changeSet.State),
		CreatedBy:     changeSet.CreatedBy,
		AssignedUsers: pq.StringArray(changeSet.AssignedUsers),
		CreatedAt:     changeSet.CreatedAt,
		ModifiedAt:    changeSet.ModifiedAt,
	}
}

func toMemberRecord(changeSetGUID string, member domain.Member) memberRecord {
	return memberRecord{
		ChangeSetGUID: changeSetGUID,
		ObjectType:    member.Descriptor.ObjectType,
		ObjectID:      member.Descriptor.ObjectID,
		Metadata:      member.Metadata,
		AddedAt:       member.AddedAt,
	}
}

func toDomainChangeSet(record changeSetRecord, members []memberRecord) *domain.ChangeSet {
	changeSet := &domain.ChangeSet{
		GUID:          record.GUID,
		Name:          record.Name,
		State:         domain.StateCode(record.State),
		CreatedBy:     record.CreatedBy,
		AssignedUsers: []string(record.AssignedUsers),
		CreatedAt:     record.CreatedAt,
		ModifiedAt:    record.ModifiedAt,
	}
	for _, mr := range members {
		changeSet.Members = append(changeSet.Members, toDomainMember(mr))
	}
	return changeSet
}

func toDomainMember(mr memberRecord) domain.Member {
	return domain.Member{
		Descriptor: domain.ObjectDescriptor{ObjectType: mr.ObjectType, ObjectID: mr.ObjectID},
		Metadata:   mr.Metadata,
		AddedAt:    mr.AddedAt,
	}
}
