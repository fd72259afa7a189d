package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polkiloo/autoorder/internal/adapter/supplier"
	"github.com/polkiloo/autoorder/internal/config"
	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/domain/model"
	"github.com/polkiloo/autoorder/internal/storage/cache"
	testhelpers "github.com/polkiloo/autoorder/internal/test"
)

type dispatchFixture struct {
	uc     *DispatchUseCase
	orders *testhelpers.OrderRepositoryStub
	creds  *testhelpers.CredentialRepositoryStub
	store  *cache.InMemoryIdempotencyStore
	cj     *testhelpers.SupplierAdapterStub
	ali    *testhelpers.SupplierAdapterStub
	bigbuy *testhelpers.SupplierAdapterStub
}

func newDispatchFixture(t *testing.T, limits supplier.Limits, connected ...model.SupplierType) *dispatchFixture {
	t.Helper()
	cipher := newTestCipher(t)
	f := &dispatchFixture{
		orders: testhelpers.NewOrderRepositoryStub(),
		creds:  testhelpers.NewCredentialRepositoryStub(),
		store:  cache.NewInMemoryIdempotencyStore(time.Minute),
		cj:     &testhelpers.SupplierAdapterStub{Supplier: model.SupplierCJ},
		ali:    &testhelpers.SupplierAdapterStub{Supplier: model.SupplierAliExpress},
		bigbuy: &testhelpers.SupplierAdapterStub{Supplier: model.SupplierBigBuy},
	}
	t.Cleanup(func() { _ = f.store.Close() })
	for _, s := range connected {
		connectSupplier(t, f.creds, cipher, 1, s)
	}
	registry := supplier.NewRegistry(limits, f.cj, f.ali, f.bigbuy)
	resolver := NewCredentialResolver(f.creds, cipher, discardLogger())
	f.uc = NewDispatchUseCase(f.orders, registry, resolver, f.store, &config.Config{IdempotencyTTL: time.Hour}, discardLogger())
	f.uc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func item(sku string, s model.SupplierType) model.OrderItem {
	return model.OrderItem{ProductID: "p-" + sku, SKU: sku, Quantity: 1, Price: decimal.RequireFromString("9.99"), SupplierType: s}
}

func placeRequest(items ...model.OrderItem) model.PlaceOrderRequest {
	return model.PlaceOrderRequest{
		OrderID:      "3f2a9c1e-0000-4000-8000-000000000001",
		StoreOrderID: "5551234",
		Items:        items,
		Shipping:     validAddress(),
	}
}

func TestGroupItemsKeepsFirstSeenOrder(t *testing.T) {
	groups := GroupItems([]model.OrderItem{
		item("a", "bigbuy"),
		item("b", "CJ"),
		item("c", "bigbuy"),
		item("d", ""),
		item("e", "temu"),
	})
	require.Len(t, groups, 3)
	assert.Equal(t, model.SupplierBigBuy, groups[0].Supplier)
	assert.Equal(t, []string{"a", "c"}, []string{groups[0].Items[0].SKU, groups[0].Items[1].SKU})
	assert.Equal(t, model.SupplierCJ, groups[1].Supplier)
	assert.Equal(t, model.SupplierCJ, groups[1].Items[0].SupplierType)
	assert.Equal(t, model.SupplierGeneric, groups[2].Supplier)
	assert.Len(t, groups[2].Items, 2)
}

func TestSupplierReference(t *testing.T) {
	assert.Equal(t, "ORD-3f2a9c1e", SupplierReference("3f2a9c1e-0000-4000-8000-000000000001"))
	assert.Equal(t, "ORD-42", SupplierReference("42"))
}

func TestPlaceOrderAllSuppliersSucceed(t *testing.T) {
	f := newDispatchFixture(t, supplier.Limits{}, model.SupplierCJ, model.SupplierBigBuy)

	out, err := f.uc.PlaceOrder(context.Background(), 1, placeRequest(item("a", model.SupplierCJ), item("b", model.SupplierBigBuy), item("c", model.SupplierCJ)))
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.False(t, out.PartialSuccess)
	assert.Equal(t, model.OrderStatusOrdered, out.Status)
	assert.Equal(t, model.FulfillmentSupplierOrdered, out.Fulfillment)
	assert.NotNil(t, out.TrackingNumbers)
	assert.Empty(t, out.TrackingNumbers)
	require.Len(t, out.Results, 2)
	assert.Equal(t, model.SupplierCJ, out.Results[0].Supplier)
	assert.Equal(t, "cj-"+out.OrderID, out.Results[0].SupplierOrderID)
	assert.Equal(t, model.SupplierBigBuy, out.Results[1].Supplier)

	require.Len(t, f.cj.Requests, 1)
	req := f.cj.Requests[0]
	assert.Equal(t, "ORD-3f2a9c1e", req.Reference)
	assert.Len(t, req.Items, 2)
	assert.Equal(t, 0, f.ali.Calls())

	require.Len(t, f.orders.Records, 1)
	rec := f.orders.Records[0]
	assert.Equal(t, int64(1), rec.UserID)
	assert.Equal(t, "5551234", rec.StoreOrderID)
	assert.Equal(t, model.EventAutoOrderPlaced, rec.Event.Type)
	assert.Equal(t, "Auto-order placed: 2/2 suppliers successful", rec.Activity.Description)
	assert.Equal(t, "order", rec.Activity.EntityType)
}

func TestPlaceOrderIsolatesGroupFailures(t *testing.T) {
	f := newDispatchFixture(t, supplier.Limits{}, model.SupplierCJ, model.SupplierBigBuy)
	f.bigbuy.CreateErr = domainErrors.OrderFailure(model.SupplierBigBuy, "product out of stock")

	out, err := f.uc.PlaceOrder(context.Background(), 1, placeRequest(
		item("a", model.SupplierCJ),
		item("b", model.SupplierBigBuy),
		item("c", model.SupplierAliExpress),
		item("d", "unknown"),
	))
	require.NoError(t, err)

	assert.False(t, out.Success)
	assert.True(t, out.PartialSuccess)
	assert.Equal(t, model.OrderStatusPartiallyOrdered, out.Status)
	require.Len(t, out.Results, 4)

	assert.True(t, out.Results[0].Success)

	assert.False(t, out.Results[1].Success)
	assert.Equal(t, model.ErrorKindSupplierOrderFailure, out.Results[1].ErrorKind)
	assert.Equal(t, "product out of stock", out.Results[1].Error)

	assert.Equal(t, model.ErrorKindCredentialsMissing, out.Results[2].ErrorKind)
	assert.Equal(t, 0, f.ali.Calls())

	assert.Equal(t, model.SupplierGeneric, out.Results[3].Supplier)
	assert.Equal(t, model.ErrorKindUnsupportedSupplier, out.Results[3].ErrorKind)
	assert.Contains(t, out.Results[3].Error, "generic")

	require.Len(t, f.orders.Records, 1)
	assert.Equal(t, "Auto-order placed: 1/4 suppliers successful", f.orders.Records[0].Activity.Description)
}

func TestPlaceOrderAllGroupsFail(t *testing.T) {
	f := newDispatchFixture(t, supplier.Limits{})

	out, err := f.uc.PlaceOrder(context.Background(), 1, placeRequest(item("a", model.SupplierCJ)))
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.False(t, out.PartialSuccess)
	assert.Equal(t, model.OrderStatusFailed, out.Status)
	assert.Equal(t, model.FulfillmentPending, out.Fulfillment)
	require.Len(t, f.orders.Records, 1)
}

func TestPlaceOrderTimeoutIsUnavailable(t *testing.T) {
	f := newDispatchFixture(t, supplier.Limits{Timeout: 20 * time.Millisecond}, model.SupplierCJ)
	f.cj.CreateFn = func(ctx context.Context, _ model.SupplierCredential, _ supplier.OrderRequest) (*model.Placement, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	out, err := f.uc.PlaceOrder(context.Background(), 1, placeRequest(item("a", model.SupplierCJ)))
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, model.ErrorKindSupplierUnavailable, out.Results[0].ErrorKind)
}

func TestPlaceOrderRejectsInvalidInput(t *testing.T) {
	f := newDispatchFixture(t, supplier.Limits{}, model.SupplierCJ)
	ctx := context.Background()

	req := placeRequest(item("a", model.SupplierCJ))
	req.Shipping.Phone = ""
	_, err := f.uc.PlaceOrder(ctx, 1, req)
	var verr domainErrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "phone", verr.Field)

	_, err = f.uc.PlaceOrder(ctx, 1, placeRequest())
	assert.ErrorIs(t, err, domainErrors.ErrEmptyItems)

	req = placeRequest(item("a", model.SupplierCJ))
	req.OrderID = "  "
	_, err = f.uc.PlaceOrder(ctx, 1, req)
	assert.ErrorIs(t, err, domainErrors.ErrMissingOrderID)

	assert.Equal(t, 0, f.cj.Calls())
	assert.Empty(t, f.orders.Records)
}

func TestPlaceOrderRejectsForeignOrder(t *testing.T) {
	f := newDispatchFixture(t, supplier.Limits{}, model.SupplierCJ)
	req := placeRequest(item("a", model.SupplierCJ))
	f.orders.Owners[req.OrderID] = 2

	_, err := f.uc.PlaceOrder(context.Background(), 1, req)
	assert.ErrorIs(t, err, domainErrors.ErrNotFound)
	assert.Equal(t, 0, f.cj.Calls())
}

func TestPlaceOrderReturnsRecordFailure(t *testing.T) {
	f := newDispatchFixture(t, supplier.Limits{}, model.SupplierCJ)
	f.orders.RecordErr = errors.New("tx aborted")

	_, err := f.uc.PlaceOrder(context.Background(), 1, placeRequest(item("a", model.SupplierCJ)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record dispatch")
	assert.Equal(t, 1, f.cj.Calls())
}

func TestPlaceOrderReplaysIdempotentDispatch(t *testing.T) {
	f := newDispatchFixture(t, supplier.Limits{}, model.SupplierCJ)
	req := placeRequest(item("a", model.SupplierCJ))
	req.IdempotencyKey = "retry-1"
	ctx := context.Background()

	first, err := f.uc.PlaceOrder(ctx, 1, req)
	require.NoError(t, err)
	second, err := f.uc.PlaceOrder(ctx, 1, req)
	require.NoError(t, err)

	assert.Equal(t, 1, f.cj.Calls())
	assert.Equal(t, first.Results[0].SupplierOrderID, second.Results[0].SupplierOrderID)
	assert.True(t, second.Success)
}

func TestPlaceOrderReportsDispatchInProgress(t *testing.T) {
	f := newDispatchFixture(t, supplier.Limits{}, model.SupplierCJ)
	req := placeRequest(item("a", model.SupplierCJ))
	req.IdempotencyKey = "retry-1"
	ok, err := f.store.Claim(context.Background(), IdempotencyKey(1, req.OrderID, "retry-1", model.SupplierCJ), time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	out, err := f.uc.PlaceOrder(context.Background(), 1, req)
	require.NoError(t, err)

	assert.Equal(t, 0, f.cj.Calls())
	assert.Equal(t, model.ErrorKindDispatchInProgress, out.Results[0].ErrorKind)
}

func TestPlaceOrderReleasesClaimOnFailure(t *testing.T) {
	f := newDispatchFixture(t, supplier.Limits{}, model.SupplierCJ)
	f.cj.CreateErr = domainErrors.OrderFailure(model.SupplierCJ, "invalid sku")
	req := placeRequest(item("a", model.SupplierCJ))
	req.IdempotencyKey = "retry-2"
	ctx := context.Background()

	out, err := f.uc.PlaceOrder(ctx, 1, req)
	require.NoError(t, err)
	assert.False(t, out.Results[0].Success)

	f.cj.CreateErr = nil
	out, err = f.uc.PlaceOrder(ctx, 1, req)
	require.NoError(t, err)
	assert.True(t, out.Results[0].Success)
	assert.Equal(t, 2, f.cj.Calls())
}

func TestIdempotencyKeyIsScoped(t *testing.T) {
	base := IdempotencyKey(1, "ord-a", "k", model.SupplierCJ)
	assert.Equal(t, "1:ord-a:k:cj", base)
	assert.NotEqual(t, base, IdempotencyKey(2, "ord-a", "k", model.SupplierCJ))
	assert.NotEqual(t, base, IdempotencyKey(1, "ord-b", "k", model.SupplierCJ))
	assert.NotEqual(t, base, IdempotencyKey(1, "ord-a", "k", model.SupplierBigBuy))
}

func TestPlaceOrderIdempotencyKeyDoesNotCrossUsersOrOrders(t *testing.T) {
	f := newDispatchFixture(t, supplier.Limits{}, model.SupplierCJ)
	connectSupplier(t, f.creds, newTestCipher(t), 2, model.SupplierCJ)
	ctx := context.Background()

	request := func(orderID string) model.PlaceOrderRequest {
		req := placeRequest(item("a", model.SupplierCJ))
		req.OrderID = orderID
		req.IdempotencyKey = "checkout-1"
		return req
	}

	first, err := f.uc.PlaceOrder(ctx, 1, request("order-a"))
	require.NoError(t, err)
	otherOrder, err := f.uc.PlaceOrder(ctx, 1, request("order-b"))
	require.NoError(t, err)
	otherUser, err := f.uc.PlaceOrder(ctx, 2, request("order-c"))
	require.NoError(t, err)

	assert.Equal(t, 3, f.cj.Calls())
	assert.Equal(t, "cj-order-a", first.Results[0].SupplierOrderID)
	assert.Equal(t, "cj-order-b", otherOrder.Results[0].SupplierOrderID)
	assert.Equal(t, "cj-order-c", otherUser.Results[0].SupplierOrderID)
	assert.True(t, otherUser.Success)

	replayed, err := f.uc.PlaceOrder(ctx, 1, request("order-a"))
	require.NoError(t, err)
	assert.Equal(t, 3, f.cj.Calls())
	assert.Equal(t, "cj-order-a", replayed.Results[0].SupplierOrderID)
}

func TestPlaceOrderRetryOfFailedGroupKeepsEarlierOrders(t *testing.T) {
	f := newDispatchFixture(t, supplier.Limits{}, model.SupplierCJ, model.SupplierBigBuy)
	f.bigbuy.CreateErr = domainErrors.OrderFailure(model.SupplierBigBuy, "product out of stock")
	ctx := context.Background()

	req := placeRequest(item("a", model.SupplierCJ), item("b", model.SupplierBigBuy))
	req.IdempotencyKey = "checkout-2"
	out, err := f.uc.PlaceOrder(ctx, 1, req)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPartiallyOrdered, out.Status)

	// Only the failed group is resent and it fails again.
	retry := placeRequest(item("b", model.SupplierBigBuy))
	retry.IdempotencyKey = "checkout-2"
	out, err = f.uc.PlaceOrder(ctx, 1, retry)
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, model.OrderStatusPartiallyOrdered, out.Status)
	assert.Equal(t, model.FulfillmentSupplierOrdered, out.Fulfillment)
	state := f.orders.States[req.OrderID]
	assert.Equal(t, []string{"cj-" + req.OrderID}, state.SupplierOrderIDs)
	assert.Equal(t, []model.SupplierType{model.SupplierBigBuy}, state.FailedSuppliers)

	f.bigbuy.CreateErr = nil
	out, err = f.uc.PlaceOrder(ctx, 1, retry)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, model.OrderStatusOrdered, out.Status)

	order, err := f.uc.Order(ctx, 1, req.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusOrdered, order.Status)
	assert.Equal(t, []string{"cj-" + req.OrderID, "bigbuy-" + req.OrderID}, order.SupplierOrderIDs)
	assert.Equal(t, 1, f.cj.Calls())
	assert.Equal(t, 3, f.bigbuy.Calls())
}

func TestPlaceOrderFullRetryReplaysSucceededGroups(t *testing.T) {
	f := newDispatchFixture(t, supplier.Limits{}, model.SupplierCJ, model.SupplierBigBuy)
	f.bigbuy.CreateErr = domainErrors.OrderFailure(model.SupplierBigBuy, "product out of stock")
	ctx := context.Background()

	req := placeRequest(item("a", model.SupplierCJ), item("b", model.SupplierBigBuy))
	req.IdempotencyKey = "checkout-3"
	_, err := f.uc.PlaceOrder(ctx, 1, req)
	require.NoError(t, err)

	f.bigbuy.CreateErr = nil
	out, err := f.uc.PlaceOrder(ctx, 1, req)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, model.OrderStatusOrdered, out.Status)
	assert.Equal(t, 1, f.cj.Calls())
	assert.Equal(t, []model.OrderItem{item("b", model.SupplierBigBuy)}, f.orders.SupplierItems["bigbuy-"+req.OrderID])
}
