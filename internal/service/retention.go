package service

import (
	"context"
	"time"

	"order-lifecycle-service/internal/apperr"
	"order-lifecycle-service/internal/model"
	"order-lifecycle-service/internal/repository"
)

// Estados desde los que un admin puede archivar: terminales más shipped
// (cierre administrativo de una orden ya despachada).
var archivableStatuses = map[model.Status]struct{}{
	model.StatusShipped:   {},
	model.StatusDelivered: {},
	model.StatusCanceled:  {},
	model.StatusExpired:   {},
}

// RetentionService gobierna archivado y borrado definitivo. El borrado
// de una orden cancelada exige la ventana de retención cumplida; la
// confirmación tipeada del cliente es solo UX, acá no cuenta.
type RetentionService struct {
	orders        repository.OrderRepository
	retentionDays int
	now           func() time.Time
}

func NewRetentionService(orders repository.OrderRepository, retentionDays int) *RetentionService {
	return &RetentionService{
		orders:        orders,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// ArchiveOrder saca la orden del conjunto activo sin borrar nada.
// Idempotente: archivar dos veces no es un error.
func (s *RetentionService) ArchiveOrder(ctx context.Context, orderID string) (*model.Order, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Archived {
		return o, nil
	}
	if _, ok := archivableStatuses[o.Status]; !ok {
		return nil, &apperr.InvalidStateError{
			OrderID: o.ID, From: o.Status, To: o.Status,
			Msg: "la orden todavía no se puede archivar",
		}
	}

	now := s.now().UTC()
	o.Archived = true
	o.ArchivedAt = &now
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *RetentionService) UnarchiveOrder(ctx context.Context, orderID string) (*model.Order, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Archived {
		return o, nil
	}
	o.Archived = false
	o.ArchivedAt = nil
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// DeleteArchived borra definitivamente una orden archivada. Solo las
// canceladas tienen regla de retención; para el resto no hay política
// de borrado definida y se rechaza siempre.
func (s *RetentionService) DeleteArchived(ctx context.Context, orderID string) error {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !o.Archived {
		return &apperr.InvalidStateError{
			OrderID: o.ID, From: o.Status, To: o.Status,
			Msg: "solo se borran órdenes archivadas",
		}
	}
	if o.Status != model.StatusCanceled || o.CanceledAt == nil {
		return &apperr.InvalidStateError{
			OrderID: o.ID, From: o.Status, To: o.Status,
			Msg: "no hay política de borrado para órdenes no canceladas",
		}
	}

	window := time.Duration(s.retentionDays) * 24 * time.Hour
	elapsed := s.now().UTC().Sub(*o.CanceledAt)
	if elapsed < window {
		remaining := int((window - elapsed).Hours()/24) + 1
		return apperr.Validationf("la orden recién se puede borrar en %d día(s)", remaining)
	}

	return s.orders.Delete(ctx, orderID)
}
