// Package notify avisa a sistemas vecinos cuando cambia una remisión del libro.
package notify

import (
	"context"

	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

const eventRemissionChanged = "remission.changed"

var _ inventory.InvoiceTotals = (*RemissionLog)(nil)

// RemissionLog emite un evento estructurado por cada remisión editada o borrada.
// Facturación consume esos eventos desde el colector de logs y recalcula sus totales.
type RemissionLog struct {
	log *logger.Logger
}

// NewRemissionLog instancia el aviso.
func NewRemissionLog(log *logger.Logger) *RemissionLog {
	if log == nil {
		log = logger.Nop()
	}
	return &RemissionLog{log: log}
}

func (r *RemissionLog) RecalculateRemission(ctx context.Context, remission string) error {
	if remission == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.log.Info().
		Str("event", eventRemissionChanged).
		Str("remission", remission).
		Msg("remisión modificada, recalcular totales de factura")
	return nil
}
