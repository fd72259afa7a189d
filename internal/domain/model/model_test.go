package model

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestParseSupplierType(t *testing.T) {
	cases := []struct {
		raw  string
		want SupplierType
	}{
		{"cj", SupplierCJ},
		{"CJ_Dropshipping", SupplierCJ},
		{"aliexpress", SupplierAliExpress},
		{" bigbuy ", SupplierBigBuy},
		{"", SupplierGeneric},
		{"temu", SupplierGeneric},
	}

	for _, tc := range cases {
		if got := ParseSupplierType(tc.raw); got != tc.want {
			t.Fatalf("ParseSupplierType(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestSupplierTypeVaultKey(t *testing.T) {
	if SupplierCJ.VaultKey() != "cj_dropshipping" {
		t.Fatalf("unexpected cj vault key %q", SupplierCJ.VaultKey())
	}
	if SupplierBigBuy.VaultKey() != "bigbuy" {
		t.Fatalf("unexpected bigbuy vault key %q", SupplierBigBuy.VaultKey())
	}
	if SupplierGeneric.Supported() {
		t.Fatal("generic supplier must not be supported")
	}
}

func TestAggregateStatus(t *testing.T) {
	ok := SupplierOrderResult{Success: true}
	fail := SupplierOrderResult{Success: false}

	cases := []struct {
		name        string
		results     []SupplierOrderResult
		status      OrderStatus
		fulfillment FulfillmentStatus
	}{
		{"all succeed", []SupplierOrderResult{ok, ok}, OrderStatusOrdered, FulfillmentSupplierOrdered},
		{"mixed", []SupplierOrderResult{ok, fail}, OrderStatusPartiallyOrdered, FulfillmentSupplierOrdered},
		{"all fail", []SupplierOrderResult{fail, fail}, OrderStatusFailed, FulfillmentPending},
		{"empty", nil, OrderStatusFailed, FulfillmentPending},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, fulfillment := AggregateStatus(tc.results)
			if status != tc.status || fulfillment != tc.fulfillment {
				t.Fatalf("got %s/%s, want %s/%s", status, fulfillment, tc.status, tc.fulfillment)
			}
		})
	}
}

func TestDispatchStateApply(t *testing.T) {
	ok := func(s SupplierType, id string) SupplierOrderResult {
		return SupplierOrderResult{Supplier: s, Success: true, SupplierOrderID: id}
	}
	fail := func(s SupplierType) SupplierOrderResult {
		return SupplierOrderResult{Supplier: s, Error: "rejected", ErrorKind: ErrorKindSupplierOrderFailure}
	}

	first := DispatchState{}.Apply([]SupplierOrderResult{ok(SupplierCJ, "CJ-1"), fail(SupplierBigBuy)})
	want := DispatchState{
		Status:           OrderStatusPartiallyOrdered,
		Fulfillment:      FulfillmentSupplierOrdered,
		SupplierOrderIDs: []string{"CJ-1"},
		FailedSuppliers:  []SupplierType{SupplierBigBuy},
	}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("first attempt: got %+v, want %+v", first, want)
	}

	// Retrying only the failed group keeps the CJ order and completes the order.
	retried := first.Apply([]SupplierOrderResult{ok(SupplierBigBuy, "BB-9")})
	want = DispatchState{
		Status:           OrderStatusOrdered,
		Fulfillment:      FulfillmentSupplierOrdered,
		SupplierOrderIDs: []string{"CJ-1", "BB-9"},
	}
	if !reflect.DeepEqual(retried, want) {
		t.Fatalf("retry: got %+v, want %+v", retried, want)
	}

	// A retry that fails again does not regress the order.
	again := first.Apply([]SupplierOrderResult{fail(SupplierBigBuy)})
	if again.Status != OrderStatusPartiallyOrdered || !reflect.DeepEqual(again.SupplierOrderIDs, []string{"CJ-1"}) {
		t.Fatalf("failed retry regressed state: %+v", again)
	}

	// Replayed results do not duplicate supplier order ids.
	replayed := retried.Apply([]SupplierOrderResult{ok(SupplierCJ, "CJ-1"), ok(SupplierBigBuy, "BB-9")})
	if !reflect.DeepEqual(replayed.SupplierOrderIDs, []string{"CJ-1", "BB-9"}) {
		t.Fatalf("replay duplicated ids: %v", replayed.SupplierOrderIDs)
	}

	inProgress := first.Apply([]SupplierOrderResult{{Supplier: SupplierBigBuy, ErrorKind: ErrorKindDispatchInProgress}})
	if !reflect.DeepEqual(inProgress, first) {
		t.Fatalf("in-progress result changed state: %+v", inProgress)
	}

	shipped := DispatchState{Status: OrderStatusOrdered, Fulfillment: FulfillmentShipped, SupplierOrderIDs: []string{"CJ-1"}}
	if got := shipped.Apply([]SupplierOrderResult{fail(SupplierBigBuy)}); got.Fulfillment != FulfillmentShipped {
		t.Fatalf("fulfillment moved back from shipped: %+v", got)
	}

	if got := (DispatchState{}).Apply([]SupplierOrderResult{fail(SupplierCJ)}); got.Status != OrderStatusFailed || got.Fulfillment != FulfillmentPending {
		t.Fatalf("all failed: %+v", got)
	}
}

func TestTrackingURL(t *testing.T) {
	if got := TrackingURL("DHL Express", "123"); !strings.HasPrefix(got, "https://www.dhl.com/") {
		t.Fatalf("expected dhl url, got %s", got)
	}
	if got := TrackingURL("", "A B"); got != "https://www.17track.net/en/track?nums=A+B" {
		t.Fatalf("unexpected fallback url %s", got)
	}

	info := TrackingInfo{TrackingNumber: "LP1", Carrier: "Cainiao"}.WithURL()
	if !strings.Contains(info.URL, "cainiao") {
		t.Fatalf("expected cainiao url, got %s", info.URL)
	}
	kept := TrackingInfo{TrackingNumber: "LP1", URL: "https://x"}.WithURL()
	if kept.URL != "https://x" {
		t.Fatalf("expected url to be kept, got %s", kept.URL)
	}
}

func TestOrderItemSupplierReference(t *testing.T) {
	if (OrderItem{SKU: "a", SupplierSKU: "b"}).SupplierReference() != "b" {
		t.Fatal("expected supplier sku")
	}
	if (OrderItem{SKU: "a"}).SupplierReference() != "a" {
		t.Fatal("expected sku fallback")
	}
}

func TestShippingAddressStreet(t *testing.T) {
	a := ShippingAddress{Address1: "1 Main St", Address2: "Apt 2"}
	if a.Street() != "1 Main St Apt 2" {
		t.Fatalf("unexpected street %q", a.Street())
	}
	a.Address2 = ""
	if a.Street() != "1 Main St" {
		t.Fatalf("unexpected street %q", a.Street())
	}
}

func TestRetryDelay(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Minute},
		{1, 2 * time.Minute},
		{3, 8 * time.Minute},
		{5, 32 * time.Minute},
		{6, time.Hour},
		{40, time.Hour},
		{-1, time.Minute},
	}
	for _, tc := range cases {
		if got := RetryDelay(tc.attempt, 0); got != tc.want {
			t.Errorf("RetryDelay(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
	if got := RetryDelay(1, 7*time.Second); got != 2*time.Minute+7*time.Second {
		t.Errorf("expected jitter on top of the delay, got %v", got)
	}
}

func TestCountQueue(t *testing.T) {
	items := []QueueItem{
		{Status: QueuePending}, {Status: QueuePending}, {Status: QueueRetry},
		{Status: QueueFailed}, {Status: QueueCompleted}, {Status: QueueCancelled}, {Status: QueueProcessing},
	}
	want := QueueStats{Pending: 2, Processing: 1, Completed: 1, Failed: 1, Retry: 1, Cancelled: 1}
	if got := CountQueue(items); got != want {
		t.Fatalf("CountQueue = %+v, want %+v", got, want)
	}
	for status, active := range map[QueueStatus]bool{
		QueuePending: true, QueueProcessing: true, QueueRetry: true,
		QueueCompleted: false, QueueFailed: false, QueueCancelled: false,
	} {
		if status.Active() != active {
			t.Errorf("%s.Active() = %v", status, !active)
		}
	}
}
