// Package cj integrates CJ Dropshipping order placement and tracking.
package cj

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"path"

	"github.com/polkiloo/autoorder/internal/adapter/supplier"
	"github.com/polkiloo/autoorder/internal/adapter/supplier/transport"
	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/domain/model"
)

const (
	createOrderPath  = "/shopping/order/createOrder"
	confirmOrderPath = "/shopping/order/confirmOrder"
	orderDetailPath  = "/shopping/order/getOrderDetail"
	tokenHeader      = "CJ-Access-Token"
)

// Client implements supplier.Adapter for CJ Dropshipping.
type Client struct {
	baseURL   *url.URL
	transport *transport.Client
	logger    *slog.Logger
}

type envelope[T any] struct {
	Code    int    `json:"code"`
	Result  bool   `json:"result"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func (e envelope[T]) ok() bool {
	return e.Code == http.StatusOK || e.Result
}

type orderProduct struct {
	VID      string `json:"vid"`
	Quantity int    `json:"quantity"`
}

type createOrderRequest struct {
	OrderNumber          string         `json:"orderNumber"`
	ShippingZip          string         `json:"shippingZip"`
	ShippingCountryCode  string         `json:"shippingCountryCode"`
	ShippingProvince     string         `json:"shippingProvince"`
	ShippingCity         string         `json:"shippingCity"`
	ShippingAddress      string         `json:"shippingAddress"`
	ShippingCustomerName string         `json:"shippingCustomerName"`
	ShippingPhone        string         `json:"shippingPhone"`
	Email                string         `json:"email,omitempty"`
	Products             []orderProduct `json:"products"`
}

type createOrderData struct {
	OrderID  string `json:"orderId"`
	OrderNum string `json:"orderNum"`
}

type orderDetail struct {
	OrderID      string `json:"orderId"`
	OrderStatus  string `json:"orderStatus"`
	TrackNumber  string `json:"trackNumber"`
	LogisticName string `json:"logisticName"`
	TrackingURL  string `json:"trackingUrl"`
}

// New creates CJ client rooted at baseURL.
func New(baseURL string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	parsed, err := transport.ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:   parsed,
		transport: transport.New(model.SupplierCJ, httpClient, logger),
		logger:    logger,
	}, nil
}

// Type identifies the supplier.
func (c *Client) Type() model.SupplierType {
	return model.SupplierCJ
}

// CreateOrder places the order and confirms it. A failed confirmation still reports the order as created.
func (c *Client) CreateOrder(ctx context.Context, cred model.SupplierCredential, req supplier.OrderRequest) (*model.Placement, error) {
	payload := createOrderRequest{
		OrderNumber:          req.Reference,
		ShippingZip:          req.Shipping.PostalCode,
		ShippingCountryCode:  req.Shipping.CountryCode,
		ShippingProvince:     req.Shipping.Province,
		ShippingCity:         req.Shipping.City,
		ShippingAddress:      req.Shipping.Street(),
		ShippingCustomerName: req.Shipping.Name,
		ShippingPhone:        req.Shipping.Phone,
		Email:                req.Shipping.Email,
		Products:             make([]orderProduct, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		payload.Products = append(payload.Products, orderProduct{VID: item.SupplierReference(), Quantity: item.Quantity})
	}

	var resp envelope[createOrderData]
	if err := c.transport.JSON(ctx, http.MethodPost, c.endpoint(createOrderPath), c.header(cred), payload, &resp); err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, domainErrors.OrderFailure(model.SupplierCJ, messageOr(resp.Message, "CJ order creation failed"))
	}
	if resp.Data.OrderID == "" {
		return nil, domainErrors.OrderFailure(model.SupplierCJ, "CJ returned no order id")
	}

	placement := &model.Placement{SupplierOrderID: resp.Data.OrderID, OrderNumber: resp.Data.OrderNum}
	placement.Confirmed = c.confirm(ctx, cred, resp.Data.OrderID)
	return placement, nil
}

func (c *Client) confirm(ctx context.Context, cred model.SupplierCredential, orderID string) bool {
	var resp envelope[any]
	err := c.transport.JSON(ctx, http.MethodPatch, c.endpoint(confirmOrderPath), c.header(cred), map[string]string{"orderId": orderID}, &resp)
	if err == nil && !resp.ok() {
		err = domainErrors.OrderFailure(model.SupplierCJ, messageOr(resp.Message, "confirmation rejected"))
	}
	if err != nil {
		c.logger.Warn("cj order confirmation failed",
			slog.String("supplier_order_id", orderID),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

// GetTracking reads the tracking number from the order detail.
func (c *Client) GetTracking(ctx context.Context, cred model.SupplierCredential, supplierOrderID string) (*model.TrackingInfo, error) {
	endpoint := c.endpoint(orderDetailPath) + "?" + url.Values{"orderId": {supplierOrderID}}.Encode()

	var resp envelope[*orderDetail]
	if err := c.transport.JSON(ctx, http.MethodGet, endpoint, c.header(cred), nil, &resp); err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, domainErrors.OrderFailure(model.SupplierCJ, messageOr(resp.Message, "CJ order lookup failed"))
	}
	if resp.Data == nil || resp.Data.TrackNumber == "" {
		return nil, nil
	}
	info := model.TrackingInfo{
		TrackingNumber: resp.Data.TrackNumber,
		Carrier:        resp.Data.LogisticName,
		URL:            resp.Data.TrackingURL,
	}.WithURL()
	return &info, nil
}

func (c *Client) endpoint(p string) string {
	u := *c.baseURL
	u.Path = path.Join(u.Path, p)
	return u.String()
}

func (c *Client) header(cred model.SupplierCredential) http.Header {
	return http.Header{tokenHeader: {cred.AccessToken}}
}

func messageOr(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}

var _ supplier.Adapter = (*Client)(nil)
