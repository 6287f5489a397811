package repository

import (
	"context"
	"time"

	"order-lifecycle-service/internal/model"
)

// OrderRepository es la fuente de verdad de las órdenes.
//
// Insert hace cumplir el lock de orden pendiente: si el usuario ya tiene
// una orden abierta devuelve *apperr.ConflictError con esa orden.
//
// Update es un compare-and-set sobre Version: si la versión en el store
// no coincide devuelve apperr.ErrVersionConflict y no escribe nada. Toda
// transición de estado (cambio de status + history + campos asociados)
// se confirma en esa única escritura.
type OrderRepository interface {
	Insert(ctx context.Context, o *model.Order) error
	Update(ctx context.Context, o *model.Order) error
	Delete(ctx context.Context, id string) error

	FindByID(ctx context.Context, id string) (*model.Order, error)
	FindOpenByUser(ctx context.Context, userID string) (*model.Order, error)
	FindByUser(ctx context.Context, userID string, status *model.Status) ([]*model.Order, error)
	FindByStatus(ctx context.Context, status model.Status) ([]*model.Order, error)
	FindAll(ctx context.Context) ([]*model.Order, error)

	// FindExpirable devuelve las órdenes abiertas cuya fecha límite de
	// pago ya pasó. Lo usa únicamente el sweeper.
	FindExpirable(ctx context.Context, now time.Time) ([]*model.Order, error)
}

// ProductRepository guarda el stock. Los decrementos son condicionales
// (stock >= cantidad) y linealizables por producto.
type ProductRepository interface {
	Upsert(ctx context.Context, p *model.Product) error
	FindProduct(ctx context.Context, id string) (*model.Product, error)

	// DecrementStock falla con *apperr.OutOfStockError si no hay stock
	// suficiente o el producto no existe.
	DecrementStock(ctx context.Context, productID string, qty int) error

	// IncrementStock devuelve stock. Un producto inexistente se ignora:
	// la devolución de una orden no falla porque un producto fue borrado.
	IncrementStock(ctx context.Context, productID string, qty int) error
}
