package middleware

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	pkgAuth "github.com/polkiloo/autoorder/internal/pkg/auth"
	testhelpers "github.com/polkiloo/autoorder/internal/test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAuthRequired(t *testing.T) {
	cases := []struct {
		name   string
		parser testhelpers.TokenParserStub
		header string
		want   int
	}{
		{"missing token", testhelpers.TokenParserStub{ID: 1}, "", http.StatusUnauthorized},
		{"invalid token", testhelpers.TokenParserStub{Err: pkgAuth.ErrInvalidToken}, "Bearer token", http.StatusUnauthorized},
		{"parser failure", testhelpers.TokenParserStub{Err: context.DeadlineExceeded}, "Bearer token", http.StatusInternalServerError},
		{"lowercase scheme", testhelpers.TokenParserStub{ID: 3}, "bearer token", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.Use(AuthRequired(tc.parser))
			router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)
			if resp.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.Code)
			}
		})
	}
}

func TestAuthRequiredStoresUserID(t *testing.T) {
	var storedID int64
	router := gin.New()
	router.Use(AuthRequired(testhelpers.TokenParserStub{ID: 42}))
	router.GET("/", func(c *gin.Context) {
		storedID = c.GetInt64(UserIDContextKey)
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: authCookieName, Value: "cookie-token"})
	router.ServeHTTP(httptest.NewRecorder(), req)
	if storedID != 42 {
		t.Fatalf("expected user id 42, got %d", storedID)
	}
}

func TestSetAuthCookie(t *testing.T) {
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/user/login", nil)
	SetAuthCookie(c, "token", time.Hour)

	if got := recorder.Header().Get("Authorization"); got != "Bearer token" {
		t.Fatalf("expected auth header, got %q", got)
	}
	result := recorder.Result()
	t.Cleanup(func() { _ = result.Body.Close() })
	cookies := result.Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %+v", cookies)
	}
	cookie := cookies[0]
	if cookie.Name != authCookieName || cookie.Value != "token" {
		t.Fatalf("unexpected cookie %+v", cookie)
	}
	if cookie.MaxAge != 3600 || !cookie.HttpOnly || cookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("expected hour-long strict http-only cookie, got %+v", cookie)
	}
}

func TestExtractToken(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if token := extractToken(c); token != "" {
		t.Fatalf("expected empty token, got %q", token)
	}
	c.Request.AddCookie(&http.Cookie{Name: authCookieName, Value: "cookie"})
	if token := extractToken(c); token != "cookie" {
		t.Fatalf("expected token from cookie, got %q", token)
	}
	c.Request.Header.Set("Authorization", "Bearer  abc ")
	if token := extractToken(c); token != "abc" {
		t.Fatalf("expected header to win over cookie, got %q", token)
	}
}

func gzipped(t *testing.T, payload string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(payload)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func newEchoRouter(maxBytes int64) *gin.Engine {
	router := gin.New()
	router.Use(DecompressRequest(maxBytes))
	router.POST("/", func(c *gin.Context) {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.String(http.StatusOK, string(data))
	})
	return router
}

func TestDecompressRequest(t *testing.T) {
	router := newEchoRouter(1024)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(gzipped(t, `{"action":"place_order"}`)))
	req.Header.Set("Content-Encoding", "gzip")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Body.String() != `{"action":"place_order"}` {
		t.Fatalf("expected decompressed payload, got %q", resp.Body.String())
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("plain")))
	if resp.Body.String() != "plain" {
		t.Fatalf("expected plain body, got %q", resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not gzip"))
	req.Header.Set("Content-Encoding", "gzip")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for corrupt gzip, got %d", resp.Code)
	}
}

func TestDecompressRequestLimits(t *testing.T) {
	router := newEchoRouter(16)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", 64))))
	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected plain body over limit to fail, got %d", resp.Code)
	}

	bomb := gzipped(t, strings.Repeat("a", 4096))
	if int64(len(bomb)) > 64 {
		t.Fatalf("expected highly compressible payload, got %d bytes", len(bomb))
	}
	router = newEchoRouter(64)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(bomb))
	req.Header.Set("Content-Encoding", "gzip")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected inflated body over limit to fail, got %d", resp.Code)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(RequestLogger(logger))
	router.GET("/api/orders/:id", func(c *gin.Context) {
		c.Set(UserIDContextKey, int64(9))
		c.Status(http.StatusBadGateway)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/orders/o-1", nil)
	req.Header.Set(requestIDHeader, "req-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if got := resp.Header().Get(requestIDHeader); got != "req-1" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log entry: %v", err)
	}
	if entry["level"] != "ERROR" || entry["request_id"] != "req-1" || entry["path"] != "/api/orders/:id" {
		t.Fatalf("unexpected log entry %v", entry)
	}
	if entry["user_id"] != float64(9) || entry["status"] != float64(http.StatusBadGateway) {
		t.Fatalf("expected user and status in log entry, got %v", entry)
	}
}

func TestRequestLoggerGeneratesID(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	router := gin.New()
	router.Use(RequestLogger(logger))
	var fromContext string
	router.GET("/", func(c *gin.Context) {
		fromContext = c.GetString(RequestIDContextKey)
		c.Status(http.StatusOK)
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	header := resp.Header().Get(requestIDHeader)
	if header == "" || header != fromContext {
		t.Fatalf("expected generated id in header and context, got %q and %q", header, fromContext)
	}
}
