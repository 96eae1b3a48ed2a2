package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements (entrada, salida o ajuste).
// Quantity es magnitud positiva para inflow/outflow; en adjustment el signo indica la dirección.
type RegisterMovementRequest struct {
	ProductID          string          `json:"product_id" validate:"required"`
	BranchID           string          `json:"branch_id" validate:"required"`
	Type               string          `json:"type" validate:"required,oneof=inflow outflow adjustment"`
	Quantity           decimal.Decimal `json:"quantity"`
	PriceAtTransaction decimal.Decimal `json:"price_at_transaction"`
	Date               *time.Time      `json:"date,omitempty"`
	RemissionNumber    string          `json:"remission_number,omitempty" validate:"max=80"`
	Comment            string          `json:"comment,omitempty" validate:"max=500"`
}

// TransferRequest body para POST /api/inventory/transfers.
// Si PriceAtTransaction es cero se usa el costo promedio FIFO de la sucursal origen.
type TransferRequest struct {
	ProductID          string          `json:"product_id" validate:"required"`
	FromBranchID       string          `json:"from_branch_id" validate:"required"`
	ToBranchID         string          `json:"to_branch_id" validate:"required,nefield=FromBranchID"`
	Quantity           decimal.Decimal `json:"quantity"`
	PriceAtTransaction decimal.Decimal `json:"price_at_transaction"`
	Date               *time.Time      `json:"date,omitempty"`
	RemissionNumber    string          `json:"remission_number,omitempty" validate:"max=80"`
	Comment            string          `json:"comment,omitempty" validate:"max=500"`
}

// ConversionRequest body para POST /api/inventory/conversions (ej. bulto de 50 kg -> 50 bolsas de 1 kg).
// Si TargetPrice es cero se reparte el valor de la fuente entre las unidades destino.
type ConversionRequest struct {
	BranchID        string          `json:"branch_id" validate:"required"`
	SourceProductID string          `json:"source_product_id" validate:"required"`
	SourceQuantity  decimal.Decimal `json:"source_quantity"`
	SourcePrice     decimal.Decimal `json:"source_price"`
	TargetProductID string          `json:"target_product_id" validate:"required,nefield=SourceProductID"`
	TargetQuantity  decimal.Decimal `json:"target_quantity"`
	TargetPrice     decimal.Decimal `json:"target_price"`
	Date            *time.Time      `json:"date,omitempty"`
	RemissionNumber string          `json:"remission_number,omitempty" validate:"max=80"`
	Comment         string          `json:"comment,omitempty" validate:"max=500"`
}

// UpdateMovementRequest body para PUT /api/inventory/movements/:id. Campos nil no se modifican.
type UpdateMovementRequest struct {
	Quantity           *decimal.Decimal `json:"quantity,omitempty"`
	PriceAtTransaction *decimal.Decimal `json:"price_at_transaction,omitempty"`
	Comment            *string          `json:"comment,omitempty" validate:"omitempty,max=500"`
}

// MovementResponse salida de un movimiento del libro.
type MovementResponse struct {
	ID                 string          `json:"id"`
	ProductID          string          `json:"product_id"`
	BranchID           string          `json:"branch_id"`
	Type               string          `json:"type"`
	Quantity           decimal.Decimal `json:"quantity"`
	PriceAtTransaction decimal.Decimal `json:"price_at_transaction"`
	Date               time.Time       `json:"date"`
	RemissionNumber    string          `json:"remission_number"`
	IndexInTransaction int             `json:"index_in_transaction"`
	Comment            string          `json:"comment,omitempty"`
	CreatedBy          string          `json:"created_by,omitempty"`
}

// MutationResponse resultado de editar o borrar movimientos.
// Warning avisa que la remisión tiene filas pareadas que deben mantenerse consistentes.
type MutationResponse struct {
	Affected        int64  `json:"affected"`
	RemissionNumber string `json:"remission_number,omitempty"`
	Warning         string `json:"warning,omitempty"`
}

// StockLogResponse página del kardex; cada elemento es una remisión completa.
type StockLogResponse struct {
	Items []RemissionGroupDTO `json:"items"`
	Page  PageResponse        `json:"page"`
}

// RemissionGroupDTO una transacción lógica del kardex.
type RemissionGroupDTO struct {
	RemissionNumber string             `json:"remission_number"`
	Type            string             `json:"type"`
	Date            time.Time          `json:"date"`
	Movements       []MovementResponse `json:"movements"`
}

// CostLayerDTO capa FIFO viva.
type CostLayerDTO struct {
	Quantity   decimal.Decimal `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	Date       time.Time       `json:"date"`
	MovementID string          `json:"movement_id,omitempty"`
}

// IntegrityWarningDTO sobreventa detectada durante el consumo FIFO.
type IntegrityWarningDTO struct {
	MovementID string          `json:"movement_id"`
	Date       time.Time       `json:"date"`
	Deficit    decimal.Decimal `json:"deficit"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
}

// RejectedMovementDTO movimiento excluido de la agregación por estar mal formado.
type RejectedMovementDTO struct {
	MovementID string `json:"movement_id"`
	Field      string `json:"field"`
	Reason     string `json:"reason"`
}

// InventoryPositionDTO posición valorizada de un producto en una sucursal.
type InventoryPositionDTO struct {
	ProductID   string                `json:"product_id"`
	ProductName string                `json:"product_name"`
	BranchID    string                `json:"branch_id"`
	BranchName  string                `json:"branch_name"`
	Quantity    decimal.Decimal       `json:"quantity"`
	AverageCost decimal.Decimal       `json:"average_cost"`
	TotalValue  decimal.Decimal       `json:"total_value"`
	LayerCount  int                   `json:"layer_count"`
	Layers      []CostLayerDTO        `json:"layers,omitempty"`
	Oversold    bool                  `json:"oversold"`
	Warnings    []IntegrityWarningDTO `json:"warnings,omitempty"`
	Rejected    []RejectedMovementDTO `json:"rejected,omitempty"`
}

// ImportRow fila ya interpretada de un archivo de carga masiva de entradas.
type ImportRow struct {
	Line        int             `json:"line"`
	ProductName string          `json:"product_name"`
	BranchName  string          `json:"branch_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Date        time.Time       `json:"date"`
	Comment     string          `json:"comment,omitempty"`
}

// ImportRejection fila no importada y su motivo.
type ImportRejection struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportResult resumen de una carga masiva.
type ImportResult struct {
	RemissionNumber string            `json:"remission_number,omitempty"`
	Imported        int               `json:"imported"`
	Rejected        []ImportRejection `json:"rejected,omitempty"`
}
