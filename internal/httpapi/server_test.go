package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"leadscout/internal/auth"
)

func TestNewServerAppliesDefaults(t *testing.T) {
	t.Parallel()

	server := NewServer(nil, zerolog.Nop(), Options{})
	if server.opts.Host != "0.0.0.0" {
		t.Fatalf("unexpected default host: %q", server.opts.Host)
	}
	if server.opts.Port != 8090 {
		t.Fatalf("unexpected default port: %d", server.opts.Port)
	}
	if server.opts.ReadTimeout != 10*time.Second || server.opts.WriteTimeout != 30*time.Second {
		t.Fatalf("unexpected default timeouts: %+v", server.opts)
	}
	if len(server.opts.AllowedOrigins) != 1 || server.opts.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected default origins: %v", server.opts.AllowedOrigins)
	}
}

func newAuthTestContext(t *testing.T, header string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestBearerAuthOpenWhenNoHashConfigured(t *testing.T) {
	t.Parallel()

	server := NewServer(nil, zerolog.Nop(), Options{})
	handler := server.bearerAuth(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	c, rec := newAuthTestContext(t, "")
	if err := handler(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected open access, got %d", rec.Code)
	}
}

func TestBearerAuthChecksToken(t *testing.T) {
	t.Parallel()

	hash, err := auth.HashToken("right-token")
	if err != nil {
		t.Fatalf("hash token: %v", err)
	}

	server := NewServer(nil, zerolog.Nop(), Options{APITokenHash: hash})
	handler := server.bearerAuth(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	c, rec := newAuthTestContext(t, "Bearer right-token")
	if err := handler(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected valid token to pass, got %d", rec.Code)
	}

	c, rec = newAuthTestContext(t, "Bearer wrong-token")
	if err := handler(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong token, got %d", rec.Code)
	}

	c, rec = newAuthTestContext(t, "")
	if err := handler(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}

	c, rec = newAuthTestContext(t, "Basic dXNlcjpwYXNz")
	if err := handler(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-bearer auth, got %d", rec.Code)
	}
}

func TestParsePositiveInt(t *testing.T) {
	t.Parallel()

	if got, err := parsePositiveInt("", 50, 1, 500); err != nil || got != 50 {
		t.Fatalf("expected default, got %d err=%v", got, err)
	}
	if got, err := parsePositiveInt(" 25 ", 50, 1, 500); err != nil || got != 25 {
		t.Fatalf("expected 25, got %d err=%v", got, err)
	}
	if _, err := parsePositiveInt("abc", 50, 1, 500); err == nil {
		t.Fatalf("expected non-integer to fail")
	}
	if _, err := parsePositiveInt("501", 50, 1, 500); err == nil {
		t.Fatalf("expected out-of-range value to fail")
	}
}
