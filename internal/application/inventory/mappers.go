package inventory

import (
	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/inventory"
)

func toMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:                 m.ID,
		ProductID:          m.ProductID,
		BranchID:           m.BranchID,
		Type:               m.Type,
		Quantity:           m.Quantity,
		PriceAtTransaction: m.PriceAtTransaction,
		Date:               m.Date,
		RemissionNumber:    m.RemissionNumber,
		IndexInTransaction: m.IndexInTransaction,
		Comment:            m.Comment,
		CreatedBy:          m.CreatedBy,
	}
}

func toPositionDTO(pos inventory.InventoryPosition, product *entity.Product, branch *entity.Branch, withLayers bool) dto.InventoryPositionDTO {
	out := dto.InventoryPositionDTO{
		ProductID:   pos.ProductID,
		ProductName: product.Name,
		BranchID:    pos.BranchID,
		BranchName:  branch.Name,
		Quantity:    pos.Quantity,
		AverageCost: pos.AverageCost,
		TotalValue:  pos.TotalValue,
		LayerCount:  len(pos.CostLayers),
		Oversold:    pos.Oversold(),
		Rejected:    toRejectedDTO(pos.Rejected),
	}
	if withLayers {
		out.Layers = make([]dto.CostLayerDTO, 0, len(pos.CostLayers))
		for _, l := range pos.CostLayers {
			out.Layers = append(out.Layers, dto.CostLayerDTO{Quantity: l.Quantity, UnitCost: l.UnitCost, Date: l.Date, MovementID: l.MovementID})
		}
	}
	for _, w := range pos.Warnings {
		out.Warnings = append(out.Warnings, dto.IntegrityWarningDTO{MovementID: w.MovementID, Date: w.Date, Deficit: w.Deficit, UnitCost: w.UnitCost})
	}
	return out
}

func toRejectedDTO(rejected []domain.ValidationError) []dto.RejectedMovementDTO {
	if len(rejected) == 0 {
		return nil
	}
	out := make([]dto.RejectedMovementDTO, 0, len(rejected))
	for _, r := range rejected {
		out = append(out, dto.RejectedMovementDTO{MovementID: r.MovementID, Field: r.Field, Reason: r.Reason})
	}
	return out
}

func toCountResponse(c *entity.InventoryCount, items []*entity.InventoryCountItem) *dto.CountResponse {
	out := &dto.CountResponse{
		ID:                 c.ID,
		Date:               c.Date,
		BranchID:           c.BranchID,
		Responsible:        c.Responsible,
		Status:             c.Status,
		Notes:              c.Notes,
		AdjustmentsApplied: c.AdjustmentsApplied,
	}
	for _, it := range items {
		out.Items = append(out.Items, dto.CountItemResponse{
			ID:                  it.ID,
			ProductID:           it.ProductID,
			ProductName:         it.ProductName,
			InitialQuantity:     it.InitialQuantity,
			InflowQuantity:      it.InflowQuantity,
			OutflowQuantity:     it.OutflowQuantity,
			TheoreticalQuantity: it.TheoreticalQuantity,
			PhysicalQuantity:    it.PhysicalQuantity,
			Difference:          it.Difference,
		})
	}
	return out
}

func derefMovements(ms []*entity.StockMovement) []entity.StockMovement {
	out := make([]entity.StockMovement, 0, len(ms))
	for _, m := range ms {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out
}

func derefCounts(cs []*entity.InventoryCount) []entity.InventoryCount {
	out := make([]entity.InventoryCount, 0, len(cs))
	for _, c := range cs {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out
}
