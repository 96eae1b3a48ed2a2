package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostLayer es el remanente de una entrada con su costo unitario, consumido en orden FIFO.
type CostLayer struct {
	Quantity   decimal.Decimal `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	Date       time.Time       `json:"date"`
	MovementID string          `json:"movement_id,omitempty"`
}

// Value devuelve cantidad * costo unitario.
func (l CostLayer) Value() decimal.Decimal {
	return l.Quantity.Mul(l.UnitCost)
}

// CostLayers es una secuencia de capas, la más antigua primero.
type CostLayers []CostLayer

// TotalQuantity suma las cantidades de todas las capas.
func (ls CostLayers) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, l := range ls {
		total = total.Add(l.Quantity)
	}
	return total
}

// TotalValue suma el valor de todas las capas.
func (ls CostLayers) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, l := range ls {
		total = total.Add(l.Value())
	}
	return total
}

// layerQueue es una cola FIFO de capas con puntero de cabeza: consumir la capa
// más antigua no desplaza el arreglo.
type layerQueue struct {
	layers []CostLayer
	head   int
}

func (q *layerQueue) push(l CostLayer) {
	q.layers = append(q.layers, l)
}

func (q *layerQueue) len() int {
	return len(q.layers) - q.head
}

// front devuelve la capa más antigua viva; nil si la cola está vacía.
func (q *layerQueue) front() *CostLayer {
	if q.len() == 0 {
		return nil
	}
	return &q.layers[q.head]
}

func (q *layerQueue) pop() {
	if q.len() == 0 {
		return
	}
	q.layers[q.head] = CostLayer{}
	q.head++
	// compacta cuando la mitad del arreglo son capas consumidas
	if q.head > 32 && q.head*2 >= len(q.layers) {
		n := copy(q.layers, q.layers[q.head:])
		q.layers = q.layers[:n]
		q.head = 0
	}
}

// snapshot copia las capas vivas para exponerlas sin compartir memoria con la cola.
func (q *layerQueue) snapshot() CostLayers {
	out := make(CostLayers, q.len())
	copy(out, q.layers[q.head:])
	return out
}
