// Package aliexpress integrates the AliExpress Open Platform dropshipping API.
package aliexpress

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/polkiloo/autoorder/internal/adapter/supplier"
	"github.com/polkiloo/autoorder/internal/adapter/supplier/transport"
	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/domain/model"
)

const (
	syncPath         = "/sync"
	placeOrderMethod = "aliexpress.trade.buy.placeorder"
	orderGetMethod   = "aliexpress.ds.trade.order.get"
	logisticsService = "CAINIAO_STANDARD"
	defaultPhoneCode = "+1"
)

var phoneCountryCodes = map[string]string{
	"US": "+1", "FR": "+33", "GB": "+44", "DE": "+49", "ES": "+34",
	"IT": "+39", "NL": "+31", "BE": "+32", "CA": "+1", "AU": "+61",
}

// Client implements supplier.Adapter for AliExpress.
type Client struct {
	baseURL   *url.URL
	transport *transport.Client
	now       func() time.Time
}

type logisticsAddress struct {
	ContactPerson string `json:"contact_person"`
	FullName      string `json:"full_name"`
	Address       string `json:"address"`
	Address2      string `json:"address2,omitempty"`
	City          string `json:"city"`
	Province      string `json:"province"`
	Zip           string `json:"zip"`
	Country       string `json:"country"`
	PhoneCountry  string `json:"phone_country"`
	MobileNo      string `json:"mobile_no"`
}

type productItem struct {
	ProductID            string `json:"product_id"`
	ProductCount         int    `json:"product_count"`
	SKUAttr              string `json:"sku_attr,omitempty"`
	LogisticsServiceName string `json:"logistics_service_name"`
}

type placeOrderRequest struct {
	OutOrderID       string           `json:"out_order_id"`
	LogisticsAddress logisticsAddress `json:"logistics_address"`
	ProductItems     []productItem    `json:"product_items"`
}

type errorResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

type placeOrderResponse struct {
	Response *struct {
		Result struct {
			IsSuccess bool   `json:"is_success"`
			ErrorCode string `json:"error_code"`
			ErrorMsg  string `json:"error_msg"`
			OrderList struct {
				Number []transport.FlexibleID `json:"number"`
			} `json:"order_list"`
		} `json:"result"`
	} `json:"aliexpress_trade_buy_placeorder_response"`
	Error *errorResponse `json:"error_response"`
}

type logisticsInfo struct {
	LogisticsNo      string `json:"logistics_no"`
	LogisticsService string `json:"logistics_service"`
}

type orderGetResponse struct {
	Response *struct {
		Result struct {
			LogisticsInfoList struct {
				Info []logisticsInfo `json:"aeop_order_logistics_info"`
			} `json:"logistics_info_list"`
		} `json:"result"`
	} `json:"aliexpress_ds_trade_order_get_response"`
	Error *errorResponse `json:"error_response"`
}

// New creates AliExpress client rooted at baseURL.
func New(baseURL string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	parsed, err := transport.ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:   parsed,
		transport: transport.New(model.SupplierAliExpress, httpClient, logger),
		now:       time.Now,
	}, nil
}

// Type identifies the supplier.
func (c *Client) Type() model.SupplierType {
	return model.SupplierAliExpress
}

// CreateOrder places a dropship order shipped with the Cainiao standard service.
func (c *Client) CreateOrder(ctx context.Context, cred model.SupplierCredential, req supplier.OrderRequest) (*model.Placement, error) {
	payload := placeOrderRequest{
		OutOrderID: req.Reference,
		LogisticsAddress: logisticsAddress{
			ContactPerson: req.Shipping.Name,
			FullName:      req.Shipping.Name,
			Address:       req.Shipping.Address1,
			Address2:      req.Shipping.Address2,
			City:          req.Shipping.City,
			Province:      req.Shipping.Province,
			Zip:           req.Shipping.PostalCode,
			Country:       req.Shipping.CountryCode,
			PhoneCountry:  PhoneCountryCode(req.Shipping.CountryCode),
			MobileNo:      digitsOnly(req.Shipping.Phone),
		},
		ProductItems: make([]productItem, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		payload.ProductItems = append(payload.ProductItems, productItem{
			ProductID:            item.ProductID,
			ProductCount:         item.Quantity,
			SKUAttr:              item.VariantID,
			LogisticsServiceName: logisticsService,
		})
	}

	var resp placeOrderResponse
	if err := c.call(ctx, cred, placeOrderMethod, "param_place_order_request4_open_api_d_t_o", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, domainErrors.OrderFailure(model.SupplierAliExpress, fmt.Sprintf("AliExpress error %s: %s", resp.Error.Code, resp.Error.Msg))
	}
	if resp.Response == nil {
		return nil, domainErrors.OrderFailure(model.SupplierAliExpress, "AliExpress returned empty response")
	}
	result := resp.Response.Result
	if !result.IsSuccess {
		msg := result.ErrorMsg
		if msg == "" {
			msg = result.ErrorCode
		}
		if msg == "" {
			msg = "AliExpress order placement failed"
		}
		return nil, domainErrors.OrderFailure(model.SupplierAliExpress, msg)
	}
	if len(result.OrderList.Number) == 0 || result.OrderList.Number[0] == "" {
		return nil, domainErrors.OrderFailure(model.SupplierAliExpress, "AliExpress returned no order id")
	}
	return &model.Placement{
		SupplierOrderID: string(result.OrderList.Number[0]),
		OrderNumber:     req.Reference,
		Confirmed:       true,
	}, nil
}

// GetTracking returns the first logistics number attached to the order.
func (c *Client) GetTracking(ctx context.Context, cred model.SupplierCredential, supplierOrderID string) (*model.TrackingInfo, error) {
	query := map[string]string{"order_id": supplierOrderID}

	var resp orderGetResponse
	if err := c.call(ctx, cred, orderGetMethod, "single_order_query", query, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, domainErrors.OrderFailure(model.SupplierAliExpress, fmt.Sprintf("AliExpress error %s: %s", resp.Error.Code, resp.Error.Msg))
	}
	if resp.Response == nil {
		return nil, nil
	}
	for _, li := range resp.Response.Result.LogisticsInfoList.Info {
		if li.LogisticsNo == "" {
			continue
		}
		info := model.TrackingInfo{TrackingNumber: li.LogisticsNo, Carrier: li.LogisticsService}.WithURL()
		return &info, nil
	}
	return nil, nil
}

func (c *Client) call(ctx context.Context, cred model.SupplierCredential, method, paramName string, param, out any) error {
	if cred.AppKey == "" || cred.AppSecret == "" {
		return &domainErrors.SupplierError{
			Kind:     model.ErrorKindCredentialsMissing,
			Supplier: model.SupplierAliExpress,
			Message:  "AliExpress app key and secret are required",
			Err:      domainErrors.ErrCredentialsMissing,
		}
	}
	encoded, err := json.Marshal(param)
	if err != nil {
		return fmt.Errorf("encode aliexpress %s: %w", method, err)
	}

	params := map[string]string{
		"method":      method,
		"app_key":     cred.AppKey,
		"session":     cred.AccessToken,
		"timestamp":   strconv.FormatInt(c.now().UnixMilli(), 10),
		"sign_method": "sha256",
		paramName:     string(encoded),
	}
	params["sign"] = Sign(params, cred.AppSecret)

	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}
	u := *c.baseURL
	u.Path = path.Join(u.Path, syncPath)
	return c.transport.Form(ctx, u.String(), values, out)
}

// Sign computes the Open Platform signature: HMAC-SHA256 over the sorted key/value
// concatenation, hex encoded in upper case. The sign parameter itself is excluded.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "sign" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(b.String()))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

// PhoneCountryCode returns the dialing prefix for an ISO country code, +1 when unknown.
func PhoneCountryCode(country string) string {
	if code, ok := phoneCountryCodes[strings.ToUpper(country)]; ok {
		return code
	}
	return defaultPhoneCode
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var _ supplier.Adapter = (*Client)(nil)
