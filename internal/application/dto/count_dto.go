package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateCountRequest body para POST /api/counts.
type CreateCountRequest struct {
	BranchID    string     `json:"branch_id" validate:"required"`
	Responsible string     `json:"responsible" validate:"max=120"`
	Notes       string     `json:"notes" validate:"max=1000"`
	Date        *time.Time `json:"date,omitempty"`
}

// PhysicalEntry cantidad contada para un producto.
type PhysicalEntry struct {
	ProductID        string          `json:"product_id" validate:"required"`
	PhysicalQuantity decimal.Decimal `json:"physical_quantity"`
}

// UpdateCountItemsRequest body para PUT /api/counts/:id/items.
type UpdateCountItemsRequest struct {
	Items []PhysicalEntry `json:"items" validate:"required,min=1,dive"`
}

// EqualizeRequest body para POST /api/counts/:id/equalize; Confirm debe ser true.
type EqualizeRequest struct {
	Confirm bool `json:"confirm"`
}

// CountItemResponse línea de un conteo.
type CountItemResponse struct {
	ID                  string          `json:"id"`
	ProductID           string          `json:"product_id"`
	ProductName         string          `json:"product_name"`
	InitialQuantity     decimal.Decimal `json:"initial_quantity"`
	InflowQuantity      decimal.Decimal `json:"inflow_quantity"`
	OutflowQuantity     decimal.Decimal `json:"outflow_quantity"`
	TheoreticalQuantity decimal.Decimal `json:"theoretical_quantity"`
	PhysicalQuantity    decimal.Decimal `json:"physical_quantity"`
	Difference          decimal.Decimal `json:"difference"`
}

// CountListResponse lista paginada de conteos.
type CountListResponse struct {
	Items []*CountResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}

// CountResponse conteo con sus líneas.
type CountResponse struct {
	ID                 string              `json:"id"`
	Date               time.Time           `json:"date"`
	BranchID           string              `json:"branch_id"`
	Responsible        string              `json:"responsible"`
	Status             string              `json:"status"`
	Notes              string              `json:"notes"`
	AdjustmentsApplied bool                `json:"adjustments_applied"`
	Items              []CountItemResponse `json:"items,omitempty"`
}

// ApplyAdjustmentsResponse resultado de aplicar los ajustes de un conteo.
type ApplyAdjustmentsResponse struct {
	CountID         string `json:"count_id"`
	RemissionNumber string `json:"remission_number"`
	Movements       int    `json:"movements"`
}
