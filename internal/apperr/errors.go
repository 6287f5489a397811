// Package apperr define los errores de negocio del motor de órdenes.
// El controller los traduce a códigos HTTP; los sentinels y tipos se
// comparan con errors.Is / errors.As.
package apperr

import (
	"errors"
	"fmt"
	"time"

	"order-lifecycle-service/internal/model"
)

var (
	ErrNotFound  = errors.New("orden no encontrada")
	ErrForbidden = errors.New("forbidden")

	// ErrVersionConflict lo devuelve el repositorio cuando pierde la
	// carrera de escritura optimista. Nunca llega al controller: el
	// service lo convierte en InvalidStateError o en un no-op.
	ErrVersionConflict = errors.New("conflicto de versión")
)

// ValidationError: entrada malformada. No se reintenta.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError: el usuario ya tiene una orden abierta. Lleva la orden
// existente para que el cliente pueda redirigir en vez de reintentar.
type ConflictError struct {
	Existing *model.Order
}

func (e *ConflictError) Error() string {
	return "el usuario ya tiene una orden pendiente de pago"
}

// InvalidStateError: transición ilegal desde el estado actual.
type InvalidStateError struct {
	OrderID string
	From    model.Status
	To      model.Status
	Msg     string
}

func (e *InvalidStateError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("transición de estado inválida: %s → %s", e.From, e.To)
}

// ExpiredError: la fecha límite de pago ya pasó.
type ExpiredError struct {
	OrderID  string
	Deadline time.Time
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("la orden venció el %s", e.Deadline.Format(time.RFC3339))
}

// OutOfStockError: la reserva de stock falló para algún producto.
// Nunca deja reservas parciales aplicadas.
type OutOfStockError struct {
	ProductID string
	Requested int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para el producto %s (pedido: %d)", e.ProductID, e.Requested)
}
