package test

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/domain/model"
	"github.com/polkiloo/autoorder/internal/domain/repository"
)

// UserRepositoryStub keeps merchant accounts keyed by login; ids are assigned from 1.
type UserRepositoryStub struct {
	Users map[string]*model.User
	Next  int64
	Err   error
}

func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{Users: make(map[string]*model.User), Next: 1}
}

func (s *UserRepositoryStub) Create(_ context.Context, login, passwordHash string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if _, exists := s.Users[login]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	user := &model.User{ID: s.Next, Login: login, PasswordHash: passwordHash, CreatedAt: time.Now()}
	s.Next++
	s.Users[login] = user
	return user, nil
}

func (s *UserRepositoryStub) GetByLogin(_ context.Context, login string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.Users[login]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// OrderRepositoryStub keeps dispatch records and tracking in memory.
type OrderRepositoryStub struct {
	mu sync.Mutex

	Owners        map[string]int64
	StoreOrderIDs map[string]string
	States        map[string]model.DispatchState
	SupplierItems map[string][]model.OrderItem
	Tracking      map[string]string
	Awaiting      []model.TrackingTarget

	Records []model.DispatchRecord
	Applied []AppliedTracking

	OwnerErr  error
	RecordErr error
	ApplyErr  error
	ListErr   error
	ClaimFn   func(context.Context, int, time.Duration) ([]model.TrackingTarget, error)
}

// AppliedTracking captures an ApplyTracking call that changed the order.
type AppliedTracking struct {
	Target model.TrackingTarget
	Info   model.TrackingInfo
	Event  model.FulfillmentEvent
}

// NewOrderRepositoryStub constructs stub repository with initialized maps.
func NewOrderRepositoryStub() *OrderRepositoryStub {
	return &OrderRepositoryStub{
		Owners:        make(map[string]int64),
		StoreOrderIDs: make(map[string]string),
		States:        make(map[string]model.DispatchState),
		SupplierItems: make(map[string][]model.OrderItem),
		Tracking:      make(map[string]string),
	}
}

// Get returns the last recorded state of the order.
func (s *OrderRepositoryStub) Get(ctx context.Context, userID int64, orderID string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Owners[orderID] != userID {
		return nil, domainErrors.ErrNotFound
	}
	state := s.States[orderID]
	return &model.Order{
		ID:                orderID,
		UserID:            userID,
		StoreOrderID:      s.StoreOrderIDs[orderID],
		Status:            state.Status,
		FulfillmentStatus: state.Fulfillment,
		SupplierOrderIDs:  state.SupplierOrderIDs,
	}, nil
}

// Owner returns the configured owner of the order.
func (s *OrderRepositoryStub) Owner(ctx context.Context, orderID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.OwnerErr != nil {
		return 0, s.OwnerErr
	}
	owner, ok := s.Owners[orderID]
	if !ok {
		return 0, domainErrors.ErrNotFound
	}
	return owner, nil
}

// RecordDispatch stores the record and merges it into the order state unless RecordErr is set.
func (s *OrderRepositoryStub) RecordDispatch(ctx context.Context, record model.DispatchRecord) (model.DispatchState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RecordErr != nil {
		return model.DispatchState{}, s.RecordErr
	}
	if owner, ok := s.Owners[record.OrderID]; ok && owner != record.UserID {
		return model.DispatchState{}, domainErrors.ErrNotFound
	}
	s.Records = append(s.Records, record)
	s.Owners[record.OrderID] = record.UserID
	if record.StoreOrderID != "" {
		s.StoreOrderIDs[record.OrderID] = record.StoreOrderID
	}
	for _, res := range record.Outcome.Results {
		if res.Success && res.SupplierOrderID != "" {
			if _, ok := s.SupplierItems[res.SupplierOrderID]; !ok {
				s.SupplierItems[res.SupplierOrderID] = record.Items[res.Supplier]
			}
		}
	}
	state := s.States[record.OrderID].Apply(record.Outcome.Results)
	s.States[record.OrderID] = state
	return state, nil
}

// ApplyTracking accepts targets of known orders and reports whether the number changed.
func (s *OrderRepositoryStub) ApplyTracking(ctx context.Context, target model.TrackingTarget, info model.TrackingInfo, event model.FulfillmentEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ApplyErr != nil {
		return false, s.ApplyErr
	}
	if owner, ok := s.Owners[target.OrderID]; !ok || owner != target.UserID {
		return false, domainErrors.ErrUnknownSupplierOrder
	}
	if s.Tracking[target.SupplierOrderID] == info.TrackingNumber {
		return false, nil
	}
	s.Tracking[target.SupplierOrderID] = info.TrackingNumber
	s.Applied = append(s.Applied, AppliedTracking{Target: target, Info: info, Event: event})
	return true, nil
}

// ListAwaitingTracking returns configured targets of the user.
func (s *OrderRepositoryStub) ListAwaitingTracking(ctx context.Context, userID int64) ([]model.TrackingTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	var out []model.TrackingTarget
	for _, t := range s.Awaiting {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

// ClaimAwaitingTracking returns at most limit configured targets.
func (s *OrderRepositoryStub) ClaimAwaitingTracking(ctx context.Context, limit int, backoff time.Duration) ([]model.TrackingTarget, error) {
	if s.ClaimFn != nil {
		return s.ClaimFn(ctx, limit, backoff)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > len(s.Awaiting) {
		limit = len(s.Awaiting)
	}
	return append([]model.TrackingTarget(nil), s.Awaiting[:limit]...), nil
}

// FulfillmentScope returns the storefront id of the order and the items of the supplier order.
func (s *OrderRepositoryStub) FulfillmentScope(ctx context.Context, userID int64, orderID, supplierOrderID string) (*model.FulfillmentScope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Owners[orderID] != userID {
		return nil, domainErrors.ErrUnknownSupplierOrder
	}
	return &model.FulfillmentScope{StoreOrderID: s.StoreOrderIDs[orderID], Items: s.SupplierItems[supplierOrderID]}, nil
}

// CredentialRepositoryStub stores sealed credentials in memory per user.
// Items holds the credential last written for each supplier.
type CredentialRepositoryStub struct {
	Items map[model.SupplierType]*repository.SealedCredential
	Err   error

	byUser map[int64]map[model.SupplierType]*repository.SealedCredential
}

// NewCredentialRepositoryStub constructs an empty vault.
func NewCredentialRepositoryStub() *CredentialRepositoryStub {
	return &CredentialRepositoryStub{
		Items:  make(map[model.SupplierType]*repository.SealedCredential),
		byUser: make(map[int64]map[model.SupplierType]*repository.SealedCredential),
	}
}

// GetActive returns the active credential of supplier.
func (s *CredentialRepositoryStub) GetActive(ctx context.Context, userID int64, supplier model.SupplierType) (*repository.SealedCredential, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	cred, ok := s.byUser[userID][supplier]
	if !ok || cred.ConnectionStatus != model.ConnectionActive {
		return nil, domainErrors.ErrNotFound
	}
	return cred, nil
}

// Upsert replaces the stored credential.
func (s *CredentialRepositoryStub) Upsert(ctx context.Context, cred repository.SealedCredential) error {
	if s.Err != nil {
		return s.Err
	}
	if s.byUser[cred.UserID] == nil {
		s.byUser[cred.UserID] = make(map[model.SupplierType]*repository.SealedCredential)
	}
	s.byUser[cred.UserID][cred.Supplier] = &cred
	s.Items[cred.Supplier] = &cred
	return nil
}

// Deactivate marks the stored credential inactive.
func (s *CredentialRepositoryStub) Deactivate(ctx context.Context, userID int64, supplier model.SupplierType) error {
	if s.Err != nil {
		return s.Err
	}
	cred, ok := s.byUser[userID][supplier]
	if !ok {
		return domainErrors.ErrNotFound
	}
	cred.ConnectionStatus = model.ConnectionInactive
	return nil
}

// IntegrationRepositoryStub stores storefront integrations in memory.
type IntegrationRepositoryStub struct {
	Items map[string]*repository.SealedIntegration
	Err   error
}

// NewIntegrationRepositoryStub constructs an empty store.
func NewIntegrationRepositoryStub() *IntegrationRepositoryStub {
	return &IntegrationRepositoryStub{Items: make(map[string]*repository.SealedIntegration)}
}

// GetActive returns the integration of platform.
func (s *IntegrationRepositoryStub) GetActive(ctx context.Context, userID int64, platform string) (*repository.SealedIntegration, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	in, ok := s.Items[platform]
	if !ok || in.UserID != userID {
		return nil, domainErrors.ErrNotFound
	}
	return in, nil
}

// Upsert stores integration and returns its identifier.
func (s *IntegrationRepositoryStub) Upsert(ctx context.Context, integration repository.SealedIntegration) (int64, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	if prev, ok := s.Items[integration.Platform]; ok {
		integration.ID = prev.ID
	} else {
		integration.ID = int64(len(s.Items) + 1)
	}
	s.Items[integration.Platform] = &integration
	return integration.ID, nil
}

var (
	_ repository.UserRepository        = (*UserRepositoryStub)(nil)
	_ repository.OrderRepository       = (*OrderRepositoryStub)(nil)
	_ repository.CredentialRepository  = (*CredentialRepositoryStub)(nil)
	_ repository.IntegrationRepository = (*IntegrationRepositoryStub)(nil)
)
