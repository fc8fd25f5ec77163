package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/commercekit/commerce-core/internal/domains/customers/domain"
	"github.com/commercekit/commerce-core/internal/domains/customers/ports"
	"github.com/commercekit/commerce-core/internal/shared/events"
)

// Service exposes customer bounded context use cases.
type Service struct {
	repo     ports.Repository
	sessions ports.SessionStore
}

func NewService(repo ports.Repository, sessions ports.SessionStore) *Service {
	if sessions == nil {
		sessions = ports.NoopSessionStore
	}
	return &Service{repo: repo, sessions: sessions}
}

// Register creates an active customer after checking the user id is free
// within the store.
func (s *Service) Register(ctx context.Context, storeCode, userID, email, name string) (*domain.Customer, error) {
	customer, err := domain.NewCustomer(uuid.NewString(), storeCode, userID, email, name)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByUserID(ctx, customer.StoreCode, customer.UserID)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, domain.DuplicateUserID(customer.StoreCode, customer.UserID)
	}
	return s.repo.Save(ctx, customer, events.New(events.TypeCustomerRegistered, customer.GUID, map[string]string{
		"store_code": customer.StoreCode,
		"user_id":    customer.UserID,
	}))
}

func (s *Service) Get(ctx context.Context, guid string) (*domain.Customer, error) {
	return s.repo.GetByGUID(ctx, guid)
}

func (s *Service) GetByUserID(ctx context.Context, storeCode, userID string) (*domain.Customer, error) {
	return s.repo.FindByUserID(ctx, storeCode, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, guid, name, email string) (*domain.Customer, error) {
	customer, err := s.repo.GetByGUID(ctx, guid)
	if err != nil {
		return nil, err
	}
	if err := customer.UpdateProfile(name, email); err != nil {
		return nil, err
	}
	return s.repo.Save(ctx, customer)
}

// Delete removes the account and revokes its session.
func (s *Service) Delete(ctx context.Context, guid string) error {
	_ = s.sessions.Delete(ctx, guid)
	return s.repo.Delete(ctx, guid)
}

// StartSession issues a session token for an active account.
func (s *Service) StartSession(ctx context.Context, guid string) (string, error) {
	customer, err := s.repo.GetByGUID(ctx, guid)
	if err != nil {
		return "", err
	}
	if customer.Status != domain.StatusActive {
		return "", ports.ErrAccountDisabled
	}
	token := fmt.Sprintf("%s:%d", uuid.NewString(), time.Now().UnixNano())
	if err := s.sessions.Save(ctx, guid, token); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Service) EndSession(ctx context.Context, guid string) error {
	return s.sessions.Delete(ctx, guid)
}

var _ ports.Service = (*Service)(nil)
