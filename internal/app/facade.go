package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/polkiloo/autoorder/internal/domain/model"
	"github.com/polkiloo/autoorder/internal/usecase"
)

// FulfillmentFacade is the single entry point the HTTP layer and the background workers talk to.
type FulfillmentFacade struct {
	auth         *usecase.AuthUseCase
	dispatch     *usecase.DispatchUseCase
	queue        *usecase.QueueUseCase
	tracking     *usecase.TrackingUseCase
	credentials  *usecase.CredentialUseCase
	integrations *usecase.IntegrationUseCase
}

func NewFulfillmentFacade(
	auth *usecase.AuthUseCase,
	dispatch *usecase.DispatchUseCase,
	queue *usecase.QueueUseCase,
	tracking *usecase.TrackingUseCase,
	credentials *usecase.CredentialUseCase,
	integrations *usecase.IntegrationUseCase,
) *FulfillmentFacade {
	return &FulfillmentFacade{
		auth:         auth,
		dispatch:     dispatch,
		queue:        queue,
		tracking:     tracking,
		credentials:  credentials,
		integrations: integrations,
	}
}

func (f *FulfillmentFacade) Register(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Register(ctx, login, password)
	return token, err
}

func (f *FulfillmentFacade) Authenticate(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, login, password)
	return token, err
}

func (f *FulfillmentFacade) ParseToken(token string) (int64, error) {
	return f.auth.ParseToken(token)
}

func (f *FulfillmentFacade) TokenTTL() time.Duration {
	return f.auth.TokenTTL()
}

func (f *FulfillmentFacade) PlaceOrder(ctx context.Context, userID int64, req model.PlaceOrderRequest) (*model.DispatchOutcome, error) {
	return f.dispatch.PlaceOrder(ctx, userID, req)
}

func (f *FulfillmentFacade) Order(ctx context.Context, userID int64, orderID string) (*model.Order, error) {
	return f.dispatch.Order(ctx, userID, orderID)
}

func (f *FulfillmentFacade) EnqueueOrder(ctx context.Context, userID int64, req model.PlaceOrderRequest) (*model.QueueItem, error) {
	return f.queue.Enqueue(ctx, userID, req)
}

func (f *FulfillmentFacade) QueueStatus(ctx context.Context, userID int64, orderID string) (*model.QueueOverview, error) {
	return f.queue.Status(ctx, userID, orderID)
}

func (f *FulfillmentFacade) CancelQueued(ctx context.Context, userID int64, id uuid.UUID) (*model.QueueItem, error) {
	return f.queue.Cancel(ctx, userID, id)
}

func (f *FulfillmentFacade) RetryQueued(ctx context.Context, userID int64, id uuid.UUID) (*model.QueueItem, error) {
	return f.queue.RetryNow(ctx, userID, id)
}

// ProcessQueue runs one pass of the queue worker.
func (f *FulfillmentFacade) ProcessQueue(ctx context.Context) (*model.QueueReport, error) {
	return f.queue.Process(ctx)
}

func (f *FulfillmentFacade) SyncOrderTracking(ctx context.Context, userID int64, target model.TrackingTarget) (*model.TrackingSyncResult, error) {
	return f.tracking.Sync(ctx, userID, target)
}

func (f *FulfillmentFacade) BatchSyncTracking(ctx context.Context, userID int64) (*model.BatchSyncReport, error) {
	return f.tracking.BatchSync(ctx, userID)
}

func (f *FulfillmentFacade) SupplierStatus(ctx context.Context, userID int64, supplier model.SupplierType, supplierOrderID string) (*model.TrackingInfo, error) {
	return f.tracking.Status(ctx, userID, supplier, supplierOrderID)
}

func (f *FulfillmentFacade) ConnectSupplier(ctx context.Context, userID int64, supplier model.SupplierType, in model.CredentialInput) error {
	return f.credentials.Connect(ctx, userID, supplier, in)
}

func (f *FulfillmentFacade) DisconnectSupplier(ctx context.Context, userID int64, supplier model.SupplierType) error {
	return f.credentials.Disconnect(ctx, userID, supplier)
}

func (f *FulfillmentFacade) ConnectShopify(ctx context.Context, userID int64, shopDomain, accessToken string) (*model.StoreIntegration, error) {
	return f.integrations.ConnectShopify(ctx, userID, shopDomain, accessToken)
}

// ClaimPendingTracking hands the sweeper a batch of supplier orders not checked within backoff.
func (f *FulfillmentFacade) ClaimPendingTracking(ctx context.Context, limit int, backoff time.Duration) ([]model.TrackingTarget, error) {
	return f.tracking.ClaimPending(ctx, limit, backoff)
}

func (f *FulfillmentFacade) SyncTracking(ctx context.Context, target model.TrackingTarget) model.TrackingSyncResult {
	return f.tracking.SyncTarget(ctx, target)
}
