//go:build integration
// +build integration

// To enable gopls support for this file, add the following to your VSCode settings.json:
// "gopls": {
//   "buildFlags": ["-tags=integration"]
// }

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/commercekit/commerce-core/internal/domains/customers/domain"
	"github.com/commercekit/commerce-core/internal/domains/customers/ports"
	"github.com/commercekit/commerce-core/internal/platform/migrations"
)

func setupPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("commerce_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func newCustomer(t *testing.T, userID string) *domain.Customer {
	t.Helper()
	customer, err := domain.NewCustomer(uuid.NewString(), "store", userID, userID+"@example.com", "Test Customer")
	require.NoError(t, err)
	return customer
}

func TestPostgresRepository_SaveAndFind(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db, nil)
	ctx := context.Background()

	customer := newCustomer(t, "shopper-1")
	saved, err := repo.Save(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, saved.Status)

	byGUID, err := repo.GetByGUID(ctx, customer.GUID)
	require.NoError(t, err)
	assert.Equal(t, "shopper-1", byGUID.UserID)

	byUserID, err := repo.FindByUserID(ctx, "store", "shopper-1")
	require.NoError(t, err)
	assert.Equal(t, customer.GUID, byUserID.GUID)

	_, err = repo.FindByUserID(ctx, "other-store", "shopper-1")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestPostgresRepository_UpdatePersists(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db, nil)
	ctx := context.Background()

	customer := newCustomer(t, "shopper-1")
	_, err := repo.Save(ctx, customer)
	require.NoError(t, err)

	require.NoError(t, customer.UpdateProfile("Renamed", "renamed@example.com"))
	customer.Disable()
	updated, err := repo.Save(ctx, customer)
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "renamed@example.com", updated.Email)
	assert.Equal(t, domain.StatusDisabled, updated.Status)
}

func TestPostgresRepository_DuplicateUserIDRejectedByIndex(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db, nil)
	ctx := context.Background()

	_, err := repo.Save(ctx, newCustomer(t, "shopper-1"))
	require.NoError(t, err)

	// Same store and user id under a different GUID violates ux_customer_user.
	_, err = repo.Save(ctx, newCustomer(t, "shopper-1"))
	require.Error(t, err)
}

func TestPostgresRepository_Delete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db, nil)
	ctx := context.Background()

	customer := newCustomer(t, "shopper-1")
	_, err := repo.Save(ctx, customer)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, customer.GUID))
	_, err = repo.GetByGUID(ctx, customer.GUID)
	assert.ErrorIs(t, err, ports.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, customer.GUID), ports.ErrNotFound)
}

func TestPostgresSessionStore_SaveGetPurge(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSessionStore(db, 50*time.Millisecond)

	require.NoError(t, store.Save(ctx, "cust-1", "token-1"))
	token, err := store.Get(ctx, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)

	time.Sleep(80 * time.Millisecond)
	_, err = store.Get(ctx, "cust-1")
	assert.ErrorIs(t, err, ports.ErrNoSession)

	require.NoError(t, store.PurgeExpired(ctx))
	require.NoError(t, store.Delete(ctx, "cust-1"))
}
