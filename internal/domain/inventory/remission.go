package inventory

import (
	"sort"
	"time"

	"github.com/jhoicas/agro-inventario/internal/domain/entity"
)

// RemissionGroup es una transacción lógica del kardex: una factura, un traslado,
// una conversión o un lote de ajustes.
type RemissionGroup struct {
	RemissionNumber string
	Type            string
	Date            time.Time
	Movements       []entity.StockMovement
}

// GroupType devuelve el tipo a mostrar para un grupo: los lotes de ajuste por conteo
// se etiquetan "adjustment" aunque cada fila guarde inflow/outflow.
func GroupType(remission string, movements []entity.StockMovement) string {
	if IsAdjustmentRemission(remission) {
		return entity.MovementTypeAdjustment
	}
	if len(movements) == 0 {
		return ""
	}
	return movements[0].Type
}

// GroupByRemission agrupa movimientos por número de remisión. Los movimientos sin remisión
// forman su propio grupo. Los grupos van del más reciente al más antiguo y sus filas por índice.
func GroupByRemission(movements []entity.StockMovement) []RemissionGroup {
	index := make(map[string]int)
	var groups []RemissionGroup
	for _, m := range movements {
		key := m.RemissionNumber
		if key == "" {
			key = "\x00" + m.ID
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, RemissionGroup{RemissionNumber: m.RemissionNumber, Date: m.Date})
		}
		g := &groups[i]
		g.Movements = append(g.Movements, m)
		if m.Date.Before(g.Date) {
			g.Date = m.Date
		}
	}

	for i := range groups {
		g := &groups[i]
		sort.SliceStable(g.Movements, func(a, b int) bool {
			return g.Movements[a].IndexInTransaction < g.Movements[b].IndexInTransaction
		})
		g.Type = GroupType(g.RemissionNumber, g.Movements)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		if !groups[a].Date.Equal(groups[b].Date) {
			return groups[a].Date.After(groups[b].Date)
		}
		return groups[a].RemissionNumber > groups[b].RemissionNumber
	})
	return groups
}
