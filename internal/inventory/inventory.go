// Package inventory maneja la reserva de stock atada al ciclo de vida
// de una orden.
package inventory

import (
	"context"
	"log"

	"order-lifecycle-service/internal/model"
	"order-lifecycle-service/internal/repository"
)

type Reserver struct {
	products repository.ProductRepository
}

func New(products repository.ProductRepository) *Reserver {
	return &Reserver{products: products}
}

// Reserve descuenta stock para todos los renglones de la orden, todo o
// nada: si un renglón falla se devuelven los descuentos ya aplicados en
// esta misma llamada y se retorna *apperr.OutOfStockError.
func (r *Reserver) Reserve(ctx context.Context, items []model.OrderItem) error {
	applied := make([]model.OrderItem, 0, len(items))
	for _, it := range items {
		if err := r.products.DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			r.rollback(ctx, applied)
			return err
		}
		applied = append(applied, it)
	}
	return nil
}

// Release devuelve el stock reservado. Productos borrados desde la
// reserva se ignoran: la devolución de una orden no puede quedar a
// medias por un catálogo que cambió.
func (r *Reserver) Release(ctx context.Context, items []model.OrderItem) error {
	var firstErr error
	for _, it := range items {
		if err := r.products.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			log.Printf("❌ Error devolviendo stock del producto %s: %v", it.ProductID, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Reserver) rollback(ctx context.Context, applied []model.OrderItem) {
	for _, it := range applied {
		if err := r.products.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			log.Printf("❌ Error revirtiendo reserva del producto %s: %v", it.ProductID, err)
		}
	}
}
