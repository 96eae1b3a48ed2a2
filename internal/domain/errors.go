package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")

	// ErrInvalidState se devuelve cuando una transición del conteo no es válida
	// (aplicar ajustes dos veces, aplicar antes de completar, editar un conteo cerrado).
	ErrInvalidState = errors.New("estado del conteo no permite la operación")

	// ErrConfirmationRequired protege operaciones que sobrescriben datos capturados.
	ErrConfirmationRequired = errors.New("la operación requiere confirmación explícita")

	// ErrInvalidMovementDate es un error duro: un movimiento sin fecha no puede ordenarse.
	ErrInvalidMovementDate = errors.New("movimiento con fecha inválida")
)

// ValidationError describe un movimiento mal formado que se excluyó de la agregación.
type ValidationError struct {
	MovementID string `json:"movement_id"`
	Field      string `json:"field"`
	Reason     string `json:"reason"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("movimiento %s: campo %s: %s", e.MovementID, e.Field, e.Reason)
}

// Is permite errors.Is(err, ErrInvalidInput) sobre un ValidationError.
func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
