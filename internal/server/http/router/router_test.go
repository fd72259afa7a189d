package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/autoorder/internal/domain/model"
	pkgAuth "github.com/polkiloo/autoorder/internal/pkg/auth"
	"github.com/polkiloo/autoorder/internal/server/http/handlers"
	testhelpers "github.com/polkiloo/autoorder/internal/test"
)

func newEngine(facade testhelpers.FulfillmentFacadeStub) *gin.Engine {
	return newEngineWithHealth(facade, testhelpers.HealthCheckerStub{})
}

func newEngineWithHealth(facade testhelpers.FulfillmentFacadeStub, health testhelpers.HealthCheckerStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return Setup(Params{Facade: facade, Health: health, Logger: logger})
}

func serve(engine *gin.Engine, method, path, token string, body []byte) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	return resp
}

func TestSetupRoutes(t *testing.T) {
	engine := newEngine(testhelpers.FulfillmentFacadeStub{
		OrderFacadeStub: testhelpers.OrderFacadeStub{
			OrderFn: func(_ context.Context, userID int64, id string) (*model.Order, error) {
				return &model.Order{ID: id, UserID: userID, Status: model.OrderStatusOrdered}, nil
			},
		},
	})

	if resp := serve(engine, http.MethodGet, "/healthz", "", nil); resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for health, got %d", resp.Code)
	}

	body, _ := json.Marshal(map[string]string{"login": "user", "password": "long-enough"})
	if resp := serve(engine, http.MethodPost, "/api/user/register", "", body); resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for register, got %d", resp.Code)
	}

	if resp := serve(engine, http.MethodGet, "/api/orders/o-1", "token", nil); resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for order, got %d", resp.Code)
	}

	if resp := serve(engine, http.MethodPost, "/auto-order-complete", "token", []byte(`{"action":"batch_sync_tracking"}`)); resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for batch sync, got %d", resp.Code)
	}

	if resp := serve(engine, http.MethodPost, "/auto-order-queue", "token", []byte(`{"action":"get_status"}`)); resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for queue status, got %d", resp.Code)
	}

	creds := []byte(`{"access_token":"t"}`)
	if resp := serve(engine, http.MethodPut, "/api/suppliers/bigbuy/credentials", "token", creds); resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 for credentials, got %d", resp.Code)
	}
	if resp := serve(engine, http.MethodDelete, "/api/suppliers/bigbuy/credentials", "token", nil); resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 for disconnect, got %d", resp.Code)
	}
	shop := []byte(`{"shop_domain":"demo.myshopify.com","access_token":"t"}`)
	if resp := serve(engine, http.MethodPut, "/api/integrations/shopify", "token", shop); resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for shopify, got %d", resp.Code)
	}
}

func TestSetupRequiresAuth(t *testing.T) {
	engine := newEngine(testhelpers.FulfillmentFacadeStub{
		AuthFacadeStub: testhelpers.AuthFacadeStub{ParseErr: pkgAuth.ErrInvalidToken},
	})

	if resp := serve(engine, http.MethodPost, "/auto-order-complete", "", []byte(`{"action":"batch_sync_tracking"}`)); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", resp.Code)
	}
	if resp := serve(engine, http.MethodPost, "/auto-order-queue", "", []byte(`{"action":"get_status"}`)); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for queue without token, got %d", resp.Code)
	}
	if resp := serve(engine, http.MethodGet, "/api/orders/o-1", "bad", nil); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for bad token, got %d", resp.Code)
	}
}

func TestSetupHealthIsPublic(t *testing.T) {
	engine := newEngineWithHealth(testhelpers.FulfillmentFacadeStub{}, testhelpers.HealthCheckerStub{Err: errors.New("db down")})
	if resp := serve(engine, http.MethodGet, "/healthz", "", nil); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 when the database is down, got %d", resp.Code)
	}
}

func TestSetupRejectsOversizedBodies(t *testing.T) {
	engine := newEngine(testhelpers.FulfillmentFacadeStub{})
	huge := append([]byte(`{"action":"place_order","order_id":"`), bytes.Repeat([]byte("x"), maxRequestBody)...)
	huge = append(huge, []byte(`"}`)...)
	if resp := serve(engine, http.MethodPost, "/auto-order-complete", "token", huge); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for oversized body, got %d", resp.Code)
	}
}

var _ handlers.FulfillmentFacade = (*testhelpers.FulfillmentFacadeStub)(nil)
