// Package bigbuy integrates BigBuy order placement and delivery tracking.
package bigbuy

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/polkiloo/autoorder/internal/adapter/supplier"
	"github.com/polkiloo/autoorder/internal/adapter/supplier/transport"
	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/domain/model"
)

const (
	createOrderPath = "/rest/order/create.json"
	trackingPath    = "/rest/tracking/order"
)

// Client implements supplier.Adapter for BigBuy.
type Client struct {
	baseURL   *url.URL
	transport *transport.Client
}

type delivery struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Country      string `json:"isoCountry"`
	PostCode     string `json:"postcode"`
	Town         string `json:"town"`
	Address      string `json:"address"`
	AddressLine2 string `json:"addressLine2"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
}

type product struct {
	Reference string `json:"reference"`
	Quantity  int    `json:"quantity"`
}

type carrier struct {
	Name string `json:"name"`
}

type orderPayload struct {
	InternalReference string    `json:"internalReference"`
	Delivery          delivery  `json:"delivery"`
	Products          []product `json:"products"`
	Carriers          []carrier `json:"carriers"`
}

type createOrderResponse struct {
	ID    transport.FlexibleID `json:"id"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type trackingEntry struct {
	TrackingNumber string `json:"trackingNumber"`
	TrackingURL    string `json:"trackingUrl"`
	Carrier        struct {
		Name string `json:"name"`
	} `json:"carrier"`
}

type orderTracking struct {
	ID        transport.FlexibleID `json:"id"`
	Trackings []trackingEntry      `json:"trackings"`
}

// New creates BigBuy client rooted at baseURL.
func New(baseURL string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	parsed, err := transport.ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{baseURL: parsed, transport: transport.New(model.SupplierBigBuy, httpClient, logger)}, nil
}

// Type identifies the supplier.
func (c *Client) Type() model.SupplierType {
	return model.SupplierBigBuy
}

// CreateOrder submits the order with the standard carrier.
func (c *Client) CreateOrder(ctx context.Context, cred model.SupplierCredential, req supplier.OrderRequest) (*model.Placement, error) {
	first, last := splitName(req.Shipping.Name)
	payload := orderPayload{
		InternalReference: req.Reference,
		Delivery: delivery{
			FirstName:    first,
			LastName:     last,
			Country:      req.Shipping.CountryCode,
			PostCode:     req.Shipping.PostalCode,
			Town:         req.Shipping.City,
			Address:      req.Shipping.Address1,
			AddressLine2: req.Shipping.Address2,
			Phone:        req.Shipping.Phone,
			Email:        req.Shipping.Email,
		},
		Products: make([]product, 0, len(req.Items)),
		Carriers: []carrier{{Name: "standard"}},
	}
	for _, item := range req.Items {
		payload.Products = append(payload.Products, product{Reference: item.SKU, Quantity: item.Quantity})
	}

	var resp createOrderResponse
	body := map[string]orderPayload{"order": payload}
	if err := c.transport.JSON(ctx, http.MethodPost, c.endpoint(createOrderPath), c.header(cred), body, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		msg := resp.Error.Message
		if msg == "" {
			msg = "BigBuy order failed"
		}
		return nil, domainErrors.OrderFailure(model.SupplierBigBuy, msg)
	}
	if resp.ID == "" {
		return nil, domainErrors.OrderFailure(model.SupplierBigBuy, "BigBuy returned no order id")
	}
	return &model.Placement{SupplierOrderID: string(resp.ID), OrderNumber: req.Reference, Confirmed: true}, nil
}

// GetTracking returns the first tracking number BigBuy reports for the order.
func (c *Client) GetTracking(ctx context.Context, cred model.SupplierCredential, supplierOrderID string) (*model.TrackingInfo, error) {
	var resp []orderTracking
	endpoint := c.endpoint(path.Join(trackingPath, url.PathEscape(supplierOrderID)+".json"))
	if err := c.transport.JSON(ctx, http.MethodGet, endpoint, c.header(cred), nil, &resp); err != nil {
		if transport.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	for _, order := range resp {
		for _, t := range order.Trackings {
			if t.TrackingNumber == "" {
				continue
			}
			info := model.TrackingInfo{
				TrackingNumber: t.TrackingNumber,
				Carrier:        t.Carrier.Name,
				URL:            t.TrackingURL,
			}.WithURL()
			return &info, nil
		}
	}
	return nil, nil
}

func (c *Client) endpoint(p string) string {
	u := *c.baseURL
	u.Path = path.Join(u.Path, p)
	return u.String()
}

func (c *Client) header(cred model.SupplierCredential) http.Header {
	return http.Header{"Authorization": {"Bearer " + cred.AccessToken}}
}

// splitName splits a full name on the first space; single names are used for both parts.
func splitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	first, rest, found := strings.Cut(full, " ")
	rest = strings.TrimSpace(rest)
	if !found || rest == "" {
		return full, full
	}
	return first, rest
}

var _ supplier.Adapter = (*Client)(nil)
