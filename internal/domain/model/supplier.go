package model

import "strings"

// SupplierType identifies an upstream dropship vendor.
type SupplierType string

const (
	SupplierCJ         SupplierType = "cj"
	SupplierAliExpress SupplierType = "aliexpress"
	SupplierBigBuy     SupplierType = "bigbuy"
	SupplierGeneric    SupplierType = "generic"
)

// ParseSupplierType normalizes raw supplier identifiers. Unknown values fall into the generic group.
func ParseSupplierType(raw string) SupplierType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "cj", "cj_dropshipping", "cjdropshipping":
		return SupplierCJ
	case "aliexpress", "ali_express":
		return SupplierAliExpress
	case "bigbuy", "big_buy":
		return SupplierBigBuy
	default:
		return SupplierGeneric
	}
}

// Supported reports whether an adapter exists for the supplier.
func (s SupplierType) Supported() bool {
	switch s {
	case SupplierCJ, SupplierAliExpress, SupplierBigBuy:
		return true
	}
	return false
}

// VaultKey is the identifier the supplier is stored under in the credential vault.
func (s SupplierType) VaultKey() string {
	if s == SupplierCJ {
		return "cj_dropshipping"
	}
	return string(s)
}

// ErrorKind classifies a failed supplier group.
type ErrorKind string

const (
	ErrorKindCredentialsMissing   ErrorKind = "credentials_missing"
	ErrorKindSupplierOrderFailure ErrorKind = "supplier_order_failure"
	ErrorKindSupplierUnavailable  ErrorKind = "supplier_unavailable"
	ErrorKindUnsupportedSupplier  ErrorKind = "unsupported_supplier"
	ErrorKindDispatchInProgress   ErrorKind = "dispatch_in_progress"
)

// SupplierOrderResult is the outcome of dispatching one supplier group. Retries produce new results.
type SupplierOrderResult struct {
	Supplier        SupplierType `json:"supplier"`
	Success         bool         `json:"success"`
	SupplierOrderID string       `json:"supplier_order_id,omitempty"`
	OrderNumber     string       `json:"order_number,omitempty"`
	TrackingNumber  *string      `json:"tracking_number"`
	Error           string       `json:"error,omitempty"`
	ErrorKind       ErrorKind    `json:"error_kind,omitempty"`
}

// Placement is what a supplier returns after accepting an order.
type Placement struct {
	SupplierOrderID string
	OrderNumber     string
	Confirmed       bool
}

// SupplierCredential holds decrypted per-user supplier access data.
type SupplierCredential struct {
	UserID      int64
	Supplier    SupplierType
	AccessToken string
	AppKey      string
	AppSecret   string
	Status      ConnectionStatus
}

// ConnectionStatus of a vault record.
type ConnectionStatus string

const (
	ConnectionActive   ConnectionStatus = "active"
	ConnectionInactive ConnectionStatus = "inactive"
)

// CredentialInput carries plaintext supplier secrets submitted by a merchant.
type CredentialInput struct {
	AccessToken string
	AppKey      string
	AppSecret   string
}
