package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ifixandrepair/shop-api/internal/database"
	"github.com/ifixandrepair/shop-api/internal/handler"
)

// --- Mock store ---

type mockCustomerStore struct {
	customers []database.Customer
	err       error
}

func (m *mockCustomerStore) SearchCustomerByPhone(_ context.Context, phone string) (database.Customer, error) {
	if m.err != nil {
		return database.Customer{}, m.err
	}
	for _, c := range m.customers {
		if strings.Contains(c.Phone, phone) {
			return c, nil
		}
	}
	return database.Customer{}, pgx.ErrNoRows
}

func setupCustomerRouter(store handler.CustomerStore) *chi.Mux {
	h := handler.NewCustomerHandler(store, nil)
	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)
	return r
}

// --- Tests ---

func TestCustomerSearch_Found(t *testing.T) {
	id := uuid.New()
	store := &mockCustomerStore{customers: []database.Customer{{
		ID:        id,
		Name:      "Jane Doe",
		Phone:     "3125550100",
		Email:     text("jane@example.com"),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}}}
	router := setupCustomerRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/api/customers/search?phone=5550100", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeMap(t, rr)
	if body["found"] != true {
		t.Fatalf("found: got %v, want true", body["found"])
	}
	customer := body["customer"].(map[string]interface{})
	if customer["id"] != id.String() || customer["name"] != "Jane Doe" || customer["email"] != "jane@example.com" {
		t.Fatalf("customer: got %v", customer)
	}
}

func TestCustomerSearch_NotFound(t *testing.T) {
	router := setupCustomerRouter(&mockCustomerStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/customers/search?phone=999", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeMap(t, rr)
	if body["found"] != false {
		t.Fatalf("found: got %v, want false", body["found"])
	}
	if _, ok := body["customer"]; ok {
		t.Fatal("customer must be omitted when not found")
	}
}

func TestCustomerSearch_PhoneRequired(t *testing.T) {
	router := setupCustomerRouter(&mockCustomerStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/customers/search?phone=%20", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assertError(t, rr, http.StatusBadRequest, "Phone number is required")
}

func TestCustomerSearch_StoreError(t *testing.T) {
	router := setupCustomerRouter(&mockCustomerStore{err: errors.New("db down")})

	req := httptest.NewRequest(http.MethodGet, "/api/customers/search?phone=312", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assertError(t, rr, http.StatusInternalServerError, "internal server error")
}
