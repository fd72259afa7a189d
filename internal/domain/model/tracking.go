package model

import (
	"net/url"
	"strings"
)

// TrackingInfo describes a shipment reported by a supplier.
type TrackingInfo struct {
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier,omitempty"`
	URL            string `json:"tracking_url,omitempty"`
}

var carrierTrackingURLs = []struct {
	carrier string
	prefix  string
}{
	{"yanwen", "https://www.17track.net/en/track?nums="},
	{"cainiao", "https://global.cainiao.com/detail.htm?mailNoList="},
	{"dhl", "https://www.dhl.com/en/express/tracking.html?AWB="},
	{"fedex", "https://www.fedex.com/fedextrack/?trknbr="},
	{"ups", "https://www.ups.com/track?tracknum="},
	{"usps", "https://tools.usps.com/go/TrackConfirmAction?tLabels="},
	{"colissimo", "https://www.laposte.fr/outils/suivre-vos-envois?code="},
	{"chronopost", "https://www.chronopost.fr/tracking-no-code/?liession="},
}

// TrackingURL builds a public tracking page for the carrier, falling back to 17track.
func TrackingURL(carrier, number string) string {
	lower := strings.ToLower(carrier)
	escaped := url.QueryEscape(number)
	for _, c := range carrierTrackingURLs {
		if strings.Contains(lower, c.carrier) {
			return c.prefix + escaped
		}
	}
	return "https://www.17track.net/en/track?nums=" + escaped
}

// WithURL fills a missing tracking URL from the carrier table.
func (t TrackingInfo) WithURL() TrackingInfo {
	if t.URL == "" && t.TrackingNumber != "" {
		t.URL = TrackingURL(t.Carrier, t.TrackingNumber)
	}
	return t
}

// TrackingTarget is a supplier order awaiting a tracking number.
type TrackingTarget struct {
	OrderID         string
	UserID          int64
	SupplierOrderID string
	Supplier        SupplierType
}

// FulfillmentScope is the storefront order and the lines one supplier order covers.
type FulfillmentScope struct {
	StoreOrderID string
	Items        []OrderItem
}

// TrackingSyncResult reports one sync attempt.
type TrackingSyncResult struct {
	OrderID         string        `json:"order_id"`
	SupplierOrderID string        `json:"supplier_id"`
	Tracking        *TrackingInfo `json:"tracking"`
	Updated         bool          `json:"updated"`
	Propagated      bool          `json:"propagated"`
	Error           string        `json:"error,omitempty"`
}

// BatchSyncReport aggregates a batch sync run.
type BatchSyncReport struct {
	Synced  int                  `json:"synced"`
	Results []TrackingSyncResult `json:"results"`
}
