// Package transport issues HTTP calls to supplier APIs and classifies their failures.
package transport

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
	"strings"

	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/domain/model"
)

const maxErrorBody = 4 << 10

// StatusError carries an unexpected HTTP status from a supplier.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// IsNotFound reports whether err was caused by a 404 response.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// Client performs JSON requests on behalf of one supplier.
type Client struct {
	supplier   model.SupplierType
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a client; call budgets come from the request context.
func New(supplier model.SupplierType, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{supplier: supplier, httpClient: httpClient, logger: logger}
}

// ParseBaseURL validates a supplier base URL.
func ParseBaseURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse supplier url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("supplier url must be absolute")
	}
	return parsed, nil
}

// JSON sends body encoded as JSON and decodes the response into out.
func (c *Client) JSON(ctx context.Context, method, endpoint string, header http.Header, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", c.supplier, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

// Form posts url-encoded values and decodes the JSON response into out.
func (c *Client) Form(ctx context.Context, endpoint string, values url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domainErrors.Unavailable(c.supplier, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		_, _ = io.Copy(io.Discard, resp.Body)
		return domainErrors.Unavailable(c.supplier, &StatusError{Code: resp.StatusCode})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Error("supplier request failed",
			slog.String("supplier", string(c.supplier)),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		message := extractMessage(body)
		if message == "" {
			message = fmt.Sprintf("%s error: %s", c.supplier, resp.Status)
		}
		return &domainErrors.SupplierError{
			Kind:     model.ErrorKindSupplierOrderFailure,
			Supplier: c.supplier,
			Message:  message,
			Err:      &StatusError{Code: resp.StatusCode},
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domainErrors.OrderFailure(c.supplier, fmt.Sprintf("%s returned malformed response: %v", c.supplier, err))
	}
	return nil
}

func extractMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Msg     string `json:"msg"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	switch {
	case payload.Message != "":
		return payload.Message
	case payload.Msg != "":
		return payload.Msg
	}
	switch e := payload.Error.(type) {
	case string:
		return e
	case map[string]any:
		if m, ok := e["message"].(string); ok {
			return m
		}
	}
	return ""
}

// FlexibleID decodes identifiers suppliers send either as numbers or strings.
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = FlexibleID(n.String())
	return nil
}
