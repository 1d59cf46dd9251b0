package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ifixandrepair/shop-api/internal/metrics"
	"github.com/ifixandrepair/shop-api/internal/middleware"
	"github.com/ifixandrepair/shop-api/internal/ratelimit"
)

type stubSessions struct {
	ok  bool
	err error
}

func (s stubSessions) Authenticated(ctx context.Context, r *http.Request) (bool, error) {
	return s.ok, s.err
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAdmin_Authenticated(t *testing.T) {
	handler := middleware.RequireAdmin(stubSessions{ok: true}, nil)(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestRequireAdmin_NotAuthenticated(t *testing.T) {
	handler := middleware.RequireAdmin(stubSessions{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if !strings.Contains(rr.Body.String(), "Authentication required") {
		t.Errorf("unexpected body %s", rr.Body.String())
	}
}

func TestRequireAdmin_StoreError(t *testing.T) {
	handler := middleware.RequireAdmin(stubSessions{err: errors.New("db down")}, nil)(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

// --- Rate limit ---

type stubLimiter struct {
	res  *ratelimit.Result
	err  error
	keys []string
}

func (s *stubLimiter) Allow(ctx context.Context, key string) (*ratelimit.Result, error) {
	s.keys = append(s.keys, key)
	return s.res, s.err
}

func TestLoginRateLimit_Denied(t *testing.T) {
	limiter := &stubLimiter{res: &ratelimit.Result{Allowed: false, RetryAfter: 2500 * time.Millisecond}}
	handler := middleware.LoginRateLimit(limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusTooManyRequests)
	}
	if got := rr.Header().Get("Retry-After"); got != "3" {
		t.Errorf("Retry-After: got %q, want 3", got)
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "login:10.1.2.3" {
		t.Errorf("unexpected keys %v", limiter.keys)
	}
}

func TestLoginRateLimit_AllowedAndFailOpen(t *testing.T) {
	for name, limiter := range map[string]middleware.Limiter{
		"allowed":      &stubLimiter{res: &ratelimit.Result{Allowed: true}},
		"redis error":  &stubLimiter{err: errors.New("connection refused")},
		"unconfigured": (*ratelimit.TokenBucket)(nil),
	} {
		t.Run(name, func(t *testing.T) {
			handler := middleware.LoginRateLimit(limiter, nil)(okHandler())
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest("POST", "/api/auth/login", nil))
			if rr.Code != http.StatusOK {
				t.Errorf("status: got %d, want %d", rr.Code, http.StatusOK)
			}
		})
	}
}

// --- Logging, recovery and metrics ---

func TestRequestLogger_LogsRoutePattern(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(zap.New(core)))
	r.Get("/api/pos/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/api/pos/orders/abc", nil))

	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["route"] != "/api/pos/orders/{id}" {
		t.Errorf("route: got %v", fields["route"])
	}
	if fields["status"] != int64(http.StatusNotFound) {
		t.Errorf("status: got %v", fields["status"])
	}
	if fields["request_id"] == "" {
		t.Error("expected request id")
	}
}

func TestRequestLogger_ServerErrorAtErrorLevel(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := middleware.RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if n := logs.FilterLevelExact(zap.ErrorLevel).Len(); n != 1 {
		t.Errorf("expected 1 error entry, got %d", n)
	}
}

func TestRecoverer(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := middleware.Recoverer(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Error("expected panic log")
	}
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.New()
	r := chi.NewRouter()
	r.Use(middleware.Metrics(m))
	r.Get("/api/employees", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/employees", nil))

	expected := `
# HELP shop_http_requests_total HTTP requests by method, route, and status.
# TYPE shop_http_requests_total counter
shop_http_requests_total{method="GET",route="/api/employees",status="200"} 1
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "shop_http_requests_total"); err != nil {
		t.Error(err)
	}
}
