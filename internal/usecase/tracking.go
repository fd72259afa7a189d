package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/polkiloo/autoorder/internal/adapter/supplier"
	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/domain/model"
	"github.com/polkiloo/autoorder/internal/domain/repository"
)

// StorefrontPropagator pushes tracking to the storefront the order came from.
// Only the lines in scope are fulfilled.
type StorefrontPropagator interface {
	UpdateFulfillment(ctx context.Context, integration model.StoreIntegration, scope model.FulfillmentScope, tracking model.TrackingInfo) error
}

// TrackingUseCase pulls tracking numbers from suppliers and forwards them to the storefront.
type TrackingUseCase struct {
	orders       repository.OrderRepository
	registry     *supplier.Registry
	credentials  *CredentialResolver
	integrations *IntegrationUseCase
	storefront   StorefrontPropagator
	logger       *slog.Logger
	now          func() time.Time
}

// NewTrackingUseCase constructs TrackingUseCase.
func NewTrackingUseCase(
	orders repository.OrderRepository,
	registry *supplier.Registry,
	credentials *CredentialResolver,
	integrations *IntegrationUseCase,
	storefront StorefrontPropagator,
	logger *slog.Logger,
) *TrackingUseCase {
	return &TrackingUseCase{
		orders:       orders,
		registry:     registry,
		credentials:  credentials,
		integrations: integrations,
		storefront:   storefront,
		logger:       logger,
		now:          time.Now,
	}
}

// Sync fetches tracking for one supplier order and stores it when it changed.
// Storefront propagation is best effort and never fails the sync.
func (u *TrackingUseCase) Sync(ctx context.Context, userID int64, target model.TrackingTarget) (*model.TrackingSyncResult, error) {
	target.UserID = userID
	target.OrderID = strings.TrimSpace(target.OrderID)
	target.SupplierOrderID = strings.TrimSpace(target.SupplierOrderID)
	if target.OrderID == "" || target.SupplierOrderID == "" {
		return nil, domainErrors.ErrMissingOrderID
	}

	info, err := u.lookup(ctx, userID, target.Supplier, target.SupplierOrderID)
	if err != nil {
		return nil, err
	}
	result := &model.TrackingSyncResult{OrderID: target.OrderID, SupplierOrderID: target.SupplierOrderID}
	if info == nil {
		return result, nil
	}
	tracking := info.WithURL()
	result.Tracking = &tracking

	event := model.FulfillmentEvent{
		ID:      uuid.New(),
		OrderID: target.OrderID,
		Type:    model.EventTrackingSynced,
		Data: map[string]any{
			"supplier":          target.Supplier,
			"supplier_order_id": target.SupplierOrderID,
			"tracking_number":   tracking.TrackingNumber,
			"carrier":           tracking.Carrier,
			"tracking_url":      tracking.URL,
		},
		CreatedAt: u.now().UTC(),
	}
	changed, err := u.orders.ApplyTracking(ctx, target, tracking, event)
	if err != nil {
		return nil, err
	}
	result.Updated = changed
	if changed {
		result.Propagated = u.propagate(ctx, target, tracking)
	}
	return result, nil
}

// BatchSync runs Sync for every supplier order of the user still awaiting tracking.
// Failures are reported per pair and never stop the batch.
func (u *TrackingUseCase) BatchSync(ctx context.Context, userID int64) (*model.BatchSyncReport, error) {
	targets, err := u.orders.ListAwaitingTracking(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.syncAll(ctx, targets), nil
}

// SweepPending claims awaiting supplier orders across all users and syncs them.
func (u *TrackingUseCase) SweepPending(ctx context.Context, limit int, backoff time.Duration) (*model.BatchSyncReport, error) {
	targets, err := u.orders.ClaimAwaitingTracking(ctx, limit, backoff)
	if err != nil {
		return nil, err
	}
	return u.syncAll(ctx, targets), nil
}

// SyncTarget syncs a claimed target on behalf of its owner.
func (u *TrackingUseCase) SyncTarget(ctx context.Context, target model.TrackingTarget) model.TrackingSyncResult {
	res, err := u.Sync(ctx, target.UserID, target)
	if err != nil {
		return model.TrackingSyncResult{OrderID: target.OrderID, SupplierOrderID: target.SupplierOrderID, Error: err.Error()}
	}
	return *res
}

// ClaimPending exposes the claim step for workers that fan out syncs themselves.
func (u *TrackingUseCase) ClaimPending(ctx context.Context, limit int, backoff time.Duration) ([]model.TrackingTarget, error) {
	return u.orders.ClaimAwaitingTracking(ctx, limit, backoff)
}

// Status returns what the supplier currently reports for a supplier order without storing it.
func (u *TrackingUseCase) Status(ctx context.Context, userID int64, supplierType model.SupplierType, supplierOrderID string) (*model.TrackingInfo, error) {
	supplierOrderID = strings.TrimSpace(supplierOrderID)
	if supplierOrderID == "" {
		return nil, domainErrors.ErrMissingOrderID
	}
	return u.lookup(ctx, userID, supplierType, supplierOrderID)
}

func (u *TrackingUseCase) syncAll(ctx context.Context, targets []model.TrackingTarget) *model.BatchSyncReport {
	report := &model.BatchSyncReport{Results: make([]model.TrackingSyncResult, 0, len(targets))}
	for _, target := range targets {
		if ctx.Err() != nil {
			break
		}
		res := u.SyncTarget(ctx, target)
		if res.Error != "" {
			u.logger.Warn("tracking sync failed",
				slog.String("order_id", target.OrderID),
				slog.String("supplier_order_id", target.SupplierOrderID),
				slog.String("error", res.Error),
			)
		}
		report.Results = append(report.Results, res)
	}
	report.Synced = len(report.Results)
	return report
}

func (u *TrackingUseCase) lookup(ctx context.Context, userID int64, supplierType model.SupplierType, supplierOrderID string) (*model.TrackingInfo, error) {
	supplierType = model.ParseSupplierType(string(supplierType))
	adapter, ok := u.registry.Lookup(supplierType)
	if !supplierType.Supported() || !ok {
		return nil, fmt.Errorf("%w: %s", domainErrors.ErrUnsupportedSupplier, supplierType)
	}
	cred := u.credentials.Resolve(ctx, userID, supplierType)
	if cred == nil {
		return nil, domainErrors.ErrCredentialsMissing
	}
	return adapter.GetTracking(ctx, *cred, supplierOrderID)
}

func (u *TrackingUseCase) propagate(ctx context.Context, target model.TrackingTarget, tracking model.TrackingInfo) bool {
	scope, err := u.orders.FulfillmentScope(ctx, target.UserID, target.OrderID, target.SupplierOrderID)
	if err != nil || scope.StoreOrderID == "" {
		if err != nil {
			u.logger.Warn("store order lookup failed", slog.String("order_id", target.OrderID), slog.String("error", err.Error()))
		}
		return false
	}

	integration, err := u.integrations.Shopify(ctx, target.UserID)
	if err != nil {
		if !errors.Is(err, domainErrors.ErrNotFound) {
			u.logger.Warn("storefront integration lookup failed", slog.Int64("user_id", target.UserID), slog.String("error", err.Error()))
		}
		return false
	}

	if err := u.storefront.UpdateFulfillment(ctx, *integration, *scope, tracking); err != nil {
		u.logger.Warn("tracking propagation failed",
			slog.String("order_id", target.OrderID),
			slog.String("supplier_order_id", target.SupplierOrderID),
			slog.String("store_order_id", scope.StoreOrderID),
			slog.String("platform", integration.Platform),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}
