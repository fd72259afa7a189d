package bigbuy

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polkiloo/autoorder/internal/adapter/supplier"
	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/domain/model"
)

var cred = model.SupplierCredential{AccessToken: "bb-key"}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(srv.URL, srv.Client(), slog.New(slog.NewJSONHandler(io.Discard, nil)))
	require.NoError(t, err)
	return client
}

func sampleRequest() supplier.OrderRequest {
	return supplier.OrderRequest{
		OrderID:   "order-1",
		Reference: "ORD-order-1",
		Shipping: model.ShippingAddress{
			Name: "Marie Claire Dupont", Address1: "3 rue de la Paix", City: "Paris",
			Province: "IDF", PostalCode: "75002", CountryCode: "FR", Phone: "0102030405", Email: "m@example.com",
		},
		Items: []model.OrderItem{{SKU: "BB-SKU", Quantity: 3, SupplierType: model.SupplierBigBuy}},
	}
}

func TestSplitName(t *testing.T) {
	cases := []struct {
		in, first, last string
	}{
		{"Marie Claire Dupont", "Marie", "Claire Dupont"},
		{"Cher", "Cher", "Cher"},
		{"  Jean  ", "Jean", "Jean"},
	}
	for _, tc := range cases {
		first, last := splitName(tc.in)
		assert.Equal(t, tc.first, first, tc.in)
		assert.Equal(t, tc.last, last, tc.in)
	}
}

func TestCreateOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/order/create.json", r.URL.Path)
		assert.Equal(t, "Bearer bb-key", r.Header.Get("Authorization"))
		var body map[string]orderPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		order := body["order"]
		assert.Equal(t, "ORD-order-1", order.InternalReference)
		assert.Equal(t, "Marie", order.Delivery.FirstName)
		assert.Equal(t, "Claire Dupont", order.Delivery.LastName)
		assert.Equal(t, "FR", order.Delivery.Country)
		assert.Equal(t, []product{{Reference: "BB-SKU", Quantity: 3}}, order.Products)
		assert.Equal(t, []carrier{{Name: "standard"}}, order.Carriers)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id": 778899}`)
	})

	placement, err := client.CreateOrder(context.Background(), cred, sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "778899", placement.SupplierOrderID)
}

func TestCreateOrderErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		kind   model.ErrorKind
	}{
		{"error payload", http.StatusOK, `{"error":{"message":"Product without stock"}}`, model.ErrorKindSupplierOrderFailure},
		{"missing id", http.StatusOK, `{}`, model.ErrorKindSupplierOrderFailure},
		{"rejected", http.StatusConflict, `{"message":"duplicated reference"}`, model.ErrorKindSupplierOrderFailure},
		{"unavailable", http.StatusServiceUnavailable, ``, model.ErrorKindSupplierUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			_, err := client.CreateOrder(context.Background(), cred, sampleRequest())
			require.Error(t, err)
			assert.Equal(t, tc.kind, domainErrors.KindOf(err))
		})
	}
}

func TestGetTracking(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/tracking/order/1.json":
			_, _ = io.WriteString(w, `[{"id":1,"trackings":[{"trackingNumber":""},{"trackingNumber":"CP123","carrier":{"name":"Colissimo"}}]}]`)
		case "/rest/tracking/order/2.json":
			_, _ = io.WriteString(w, `[{"id":2,"trackings":[]}]`)
		default:
			http.NotFound(w, r)
		}
	})

	info, err := client.GetTracking(context.Background(), cred, "1")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "CP123", info.TrackingNumber)
	assert.Equal(t, "Colissimo", info.Carrier)
	assert.Contains(t, info.URL, "laposte.fr")

	info, err = client.GetTracking(context.Background(), cred, "2")
	require.NoError(t, err)
	assert.Nil(t, info)

	info, err = client.GetTracking(context.Background(), cred, "3")
	require.NoError(t, err)
	assert.Nil(t, info)
}
