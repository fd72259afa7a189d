// Package shopify pushes supplier tracking numbers to Shopify as per-supplier fulfillments.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/polkiloo/autoorder/internal/domain/model"
)

const (
	accessTokenHeader = "X-Shopify-Access-Token"
	defaultTimeout    = 30 * time.Second
)

var (
	// ErrNoOpenFulfillmentOrder is returned when the supplier's lines have nothing left to fulfill.
	ErrNoOpenFulfillmentOrder = errors.New("shopify order has no open fulfillment orders")
	// ErrNoMatchingLineItems is returned when no Shopify line item belongs to the supplier order.
	ErrNoMatchingLineItems = errors.New("no shopify line items match the supplier order")
)

// Client calls the Shopify Admin REST API.
type Client struct {
	httpClient *http.Client
	apiVersion string
	scheme     string
	logger     *slog.Logger
}

// New creates Shopify Admin client for the given API version.
func New(httpClient *http.Client, apiVersion string, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{httpClient: httpClient, apiVersion: apiVersion, scheme: "https", logger: logger}
}

type orderLineItem struct {
	ID        int64  `json:"id"`
	SKU       string `json:"sku"`
	VariantID int64  `json:"variant_id"`
	ProductID int64  `json:"product_id"`
}

type orderResponse struct {
	Order struct {
		LineItems []orderLineItem `json:"line_items"`
	} `json:"order"`
}

type fulfillmentOrderLineItem struct {
	ID                  int64 `json:"id"`
	LineItemID          int64 `json:"line_item_id"`
	FulfillableQuantity int   `json:"fulfillable_quantity"`
}

type fulfillmentOrder struct {
	ID        int64                      `json:"id"`
	Status    string                     `json:"status"`
	LineItems []fulfillmentOrderLineItem `json:"line_items"`
}

type fulfillmentOrdersResponse struct {
	FulfillmentOrders []fulfillmentOrder `json:"fulfillment_orders"`
}

type fulfillmentLine struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

type lineItemsByFulfillmentOrder struct {
	FulfillmentOrderID int64             `json:"fulfillment_order_id"`
	LineItems          []fulfillmentLine `json:"fulfillment_order_line_items"`
}

type trackingInfo struct {
	Number  string `json:"number"`
	URL     string `json:"url,omitempty"`
	Company string `json:"company,omitempty"`
}

type fulfillmentRequest struct {
	Fulfillment struct {
		LineItems      []lineItemsByFulfillmentOrder `json:"line_items_by_fulfillment_order"`
		TrackingInfo   trackingInfo                  `json:"tracking_info"`
		NotifyCustomer bool                          `json:"notify_customer"`
	} `json:"fulfillment"`
}

// UpdateFulfillment fulfills the Shopify lines of one supplier order with its tracking.
// Lines of other suppliers on the same store order are left open.
func (c *Client) UpdateFulfillment(ctx context.Context, integration model.StoreIntegration, scope model.FulfillmentScope, tracking model.TrackingInfo) error {
	base := c.adminURL(integration.ShopDomain)
	orderPath := fmt.Sprintf("%s/orders/%s", base, url.PathEscape(scope.StoreOrderID))

	var order orderResponse
	if err := c.do(ctx, http.MethodGet, orderPath+".json?fields=line_items", integration.AccessToken, nil, &order); err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	wanted := matchLineItems(order.Order.LineItems, scope.Items)
	if len(wanted) == 0 {
		return ErrNoMatchingLineItems
	}

	var listed fulfillmentOrdersResponse
	if err := c.do(ctx, http.MethodGet, orderPath+"/fulfillment_orders.json", integration.AccessToken, nil, &listed); err != nil {
		return fmt.Errorf("list fulfillment orders: %w", err)
	}

	var req fulfillmentRequest
	for _, fo := range listed.FulfillmentOrders {
		if fo.Status != "open" && fo.Status != "in_progress" {
			continue
		}
		group := lineItemsByFulfillmentOrder{FulfillmentOrderID: fo.ID}
		for _, li := range fo.LineItems {
			qty := min(wanted[li.LineItemID], li.FulfillableQuantity)
			if qty <= 0 {
				continue
			}
			wanted[li.LineItemID] -= qty
			group.LineItems = append(group.LineItems, fulfillmentLine{ID: li.ID, Quantity: qty})
		}
		if len(group.LineItems) > 0 {
			req.Fulfillment.LineItems = append(req.Fulfillment.LineItems, group)
		}
	}
	if len(req.Fulfillment.LineItems) == 0 {
		return ErrNoOpenFulfillmentOrder
	}
	req.Fulfillment.TrackingInfo = trackingInfo{
		Number:  tracking.TrackingNumber,
		URL:     tracking.URL,
		Company: tracking.Carrier,
	}
	req.Fulfillment.NotifyCustomer = true

	if err := c.do(ctx, http.MethodPost, base+"/fulfillments.json", integration.AccessToken, req, nil); err != nil {
		return fmt.Errorf("create fulfillment: %w", err)
	}
	c.logger.Info("tracking pushed to shopify",
		slog.String("shop", integration.ShopDomain),
		slog.String("store_order_id", scope.StoreOrderID),
		slog.Int("fulfillment_orders", len(req.Fulfillment.LineItems)),
	)
	return nil
}

// matchLineItems maps Shopify line item ids to the quantity the supplier order covers.
// An item matches by SKU first, then by variant or product id.
func matchLineItems(lines []orderLineItem, items []model.OrderItem) map[int64]int {
	wanted := make(map[int64]int)
	used := make(map[int64]bool, len(lines))
	for _, item := range items {
		for _, li := range lines {
			if used[li.ID] || !lineMatches(li, item) {
				continue
			}
			used[li.ID] = true
			wanted[li.ID] += item.Quantity
			break
		}
	}
	return wanted
}

func lineMatches(li orderLineItem, item model.OrderItem) bool {
	switch {
	case item.SKU != "" && li.SKU != "":
		return item.SKU == li.SKU
	case item.VariantID != "" && li.VariantID != 0:
		return item.VariantID == strconv.FormatInt(li.VariantID, 10)
	default:
		return item.ProductID != "" && item.ProductID == strconv.FormatInt(li.ProductID, 10)
	}
}

func (c *Client) adminURL(shop string) string {
	shop = strings.TrimSuffix(strings.TrimSpace(shop), "/")
	if !strings.Contains(shop, "://") {
		shop = c.scheme + "://" + shop
	}
	return fmt.Sprintf("%s/admin/api/%s", shop, c.apiVersion)
}

func (c *Client) do(ctx context.Context, method, endpoint, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set(accessTokenHeader, token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("shopify returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
