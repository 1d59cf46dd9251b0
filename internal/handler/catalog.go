package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ifixandrepair/shop-api/internal/database"
)

// CatalogStore defines the database methods needed by the inventory and
// employee listings.
// Satisfied by *database.Queries; narrow interface for testability.
type CatalogStore interface {
	ListInventory(ctx context.Context) ([]database.Inventory, error)
	ListActiveEmployees(ctx context.Context) ([]database.Employee, error)
}

// CatalogHandler serves the read-only inventory and staff lists.
type CatalogHandler struct {
	store CatalogStore
	log   *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(store CatalogStore, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{store: store, log: handlerLogger(log, "catalog")}
}

// RegisterRoutes registers catalog endpoints on the given Chi router.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/inventory", h.Inventory)
	r.Get("/employees", h.Employees)
}

// --- Response types ---

type inventoryResponse struct {
	ID                uuid.UUID `json:"id"`
	Brand             string    `json:"brand"`
	ProductLine       string    `json:"productLine"`
	Model             string    `json:"model"`
	PartType          string    `json:"partType"`
	Quantity          int32     `json:"quantity"`
	UnitCost          *string   `json:"unitCost"`
	SellingPrice      *string   `json:"sellingPrice"`
	LowStockThreshold int32     `json:"lowStockThreshold"`
	LowStock          bool      `json:"lowStock"`
	Supplier          *string   `json:"supplier"`
	SKU               *string   `json:"sku"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type employeeResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	Phone    *string   `json:"phone"`
	Email    *string   `json:"email"`
	IsActive bool      `json:"isActive"`
	HireDate *string   `json:"hireDate"`
}

func toInventoryResponse(i database.Inventory) inventoryResponse {
	return inventoryResponse{
		ID:                i.ID,
		Brand:             i.Brand,
		ProductLine:       i.ProductLine,
		Model:             i.Model,
		PartType:          i.PartType,
		Quantity:          i.Quantity,
		UnitCost:          moneyPtr(i.UnitCost),
		SellingPrice:      moneyPtr(i.SellingPrice),
		LowStockThreshold: i.LowStockThreshold,
		LowStock:          i.Quantity <= i.LowStockThreshold,
		Supplier:          textPtr(i.Supplier),
		SKU:               textPtr(i.Sku),
		UpdatedAt:         i.UpdatedAt,
	}
}

func toEmployeeResponse(e database.Employee) employeeResponse {
	resp := employeeResponse{
		ID:       e.ID,
		Name:     e.Name,
		Role:     e.Role,
		Phone:    textPtr(e.Phone),
		Email:    textPtr(e.Email),
		IsActive: e.IsActive,
	}
	if e.HireDate.Valid {
		d := e.HireDate.Time.Format("2006-01-02")
		resp.HireDate = &d
	}
	return resp
}

// --- Handlers ---

// Inventory lists parts ordered by brand, product line and model.
func (h *CatalogHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListInventory(r.Context())
	if err != nil {
		h.log.Error("list inventory failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]inventoryResponse, len(items))
	for i, item := range items {
		resp[i] = toInventoryResponse(item)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Employees lists active employees by name.
func (h *CatalogHandler) Employees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.store.ListActiveEmployees(r.Context())
	if err != nil {
		h.log.Error("list employees failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]employeeResponse, len(employees))
	for i, e := range employees {
		resp[i] = toEmployeeResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}
