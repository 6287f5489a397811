package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"order-lifecycle-service/internal/apperr"
	"order-lifecycle-service/internal/inventory"
	"order-lifecycle-service/internal/metrics"
	"order-lifecycle-service/internal/model"
	"order-lifecycle-service/internal/notify"
	"order-lifecycle-service/internal/repository"
)

// Actor identifica a quién ejecuta una operación (cliente o admin).
type Actor struct {
	ID    string
	Admin bool
}

// El sweeper actúa como sistema, sin usuario detrás.
var systemActor = Actor{ID: "system"}

// OrderService es el único escritor de status: toda transición pasa por
// acá y se confirma con una única escritura compare-and-set en el
// repositorio. Ante una carrera perdida el llamador observa el estado
// nuevo como InvalidStateError, nunca un historial corrupto.
type OrderService struct {
	orders   repository.OrderRepository
	stock    *inventory.Reserver
	notifier notify.Notifier
	metrics  *metrics.Engine

	pendingWindow time.Duration
	now           func() time.Time
}

func NewOrderService(
	orders repository.OrderRepository,
	stock *inventory.Reserver,
	notifier notify.Notifier,
	m *metrics.Engine,
	pendingWindow time.Duration,
) *OrderService {
	return &OrderService{
		orders:        orders,
		stock:         stock,
		notifier:      notifier,
		metrics:       m,
		pendingWindow: pendingWindow,
		now:           time.Now,
	}
}

func newOrderNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", at.Format("20060102"), suffix)
}

func validateItems(items []model.OrderItem) error {
	if len(items) == 0 {
		return apperr.Validationf("la orden no tiene items")
	}
	for _, it := range items {
		if it.ProductID == "" {
			return apperr.Validationf("item sin producto")
		}
		if it.Quantity < 1 {
			return apperr.Validationf("cantidad inválida para el producto %s", it.ProductID)
		}
		if it.UnitPrice.IsNegative() {
			return apperr.Validationf("precio inválido para el producto %s", it.ProductID)
		}
	}
	return nil
}

func validateAddress(a model.Address) error {
	required := map[string]string{
		"street":     a.Street,
		"city":       a.City,
		"postalCode": a.PostalCode,
		"country":    a.Country,
	}
	for field, v := range required {
		if strings.TrimSpace(v) == "" {
			return apperr.Validationf("el campo %s de la dirección es obligatorio", field)
		}
	}
	return nil
}

// CreateOrder aplica el lock de orden pendiente, reserva stock todo o
// nada y persiste la orden con su fecha límite de pago.
func (s *OrderService) CreateOrder(
	ctx context.Context,
	userID string,
	items []model.OrderItem,
	address model.Address,
	paymentMethodType, paymentMethodName string,
) (*model.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Validationf("falta el usuario")
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}
	if err := validateAddress(address); err != nil {
		return nil, err
	}
	if strings.TrimSpace(paymentMethodType) == "" {
		return nil, apperr.Validationf("falta el método de pago")
	}

	// chequeo temprano para devolver la orden existente sin tocar stock;
	// la garantía real la da el Insert
	if existing, err := s.orders.FindOpenByUser(ctx, userID); err == nil {
		return nil, &apperr.ConflictError{Existing: existing}
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	if err := s.stock.Reserve(ctx, items); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	items, totals := model.ComputeTotals(items)

	order := &model.Order{
		ID:                uuid.NewString(),
		OrderNumber:       newOrderNumber(now),
		UserID:            userID,
		Items:             items,
		ShippingAddress:   address, // copia, no referencia al address book
		Totals:            totals,
		PaymentMethodType: paymentMethodType,
		PaymentMethodName: paymentMethodName,
		Status:            model.StatusPending,
		PaymentDeadline:   now.Add(s.pendingWindow),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	order.AppendHistory(model.StatusPending, now, "Orden creada", userID)

	if err := s.orders.Insert(ctx, order); err != nil {
		// el insert no llegó a aplicar: se devuelve la reserva completa
		s.stock.Release(ctx, items)
		return nil, err
	}

	s.metrics.OrdersCreated.Inc()
	return order, nil
}

// SubmitPaymentProof adjunta el comprobante. La re-subida sobreescribe
// el comprobante anterior sin duplicar el registro de historial.
func (s *OrderService) SubmitPaymentProof(ctx context.Context, orderID, proofURL, referenceNumber, actorID string) (*model.Order, error) {
	if strings.TrimSpace(proofURL) == "" {
		return nil, apperr.Validationf("falta el comprobante")
	}
	if strings.TrimSpace(referenceNumber) == "" {
		return nil, apperr.Validationf("falta el número de referencia")
	}

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Status.Open() {
		return nil, &apperr.InvalidStateError{OrderID: o.ID, From: o.Status, To: model.StatusProofUploaded}
	}
	now := s.now().UTC()
	if now.After(o.PaymentDeadline) {
		return nil, &apperr.ExpiredError{OrderID: o.ID, Deadline: o.PaymentDeadline}
	}

	from := o.Status
	o.PaymentProofURL = proofURL
	o.ReferenceNumber = referenceNumber
	if o.Status == model.StatusPending {
		o.Status = model.StatusProofUploaded
		o.AppendHistory(model.StatusProofUploaded, now, "Comprobante de pago enviado", actorID)
	}

	if err := s.commit(ctx, o, model.StatusProofUploaded); err != nil {
		return nil, err
	}
	if from == model.StatusPending {
		s.metrics.Transitions.WithLabelValues(string(from), string(o.Status)).Inc()
	}
	return o, nil
}

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// ReviewProof resuelve el comprobante: approve pasa a paid, reject
// vuelve a pending con el comprobante limpio. La fecha límite original
// sigue vigente: un rechazo nunca la extiende.
func (s *OrderService) ReviewProof(ctx context.Context, orderID, decision, note, reviewerID string) (*model.Order, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	from := o.Status

	switch decision {
	case DecisionApprove:
		if o.Status != model.StatusProofUploaded {
			return nil, &apperr.InvalidStateError{OrderID: o.ID, From: o.Status, To: model.StatusPaid}
		}
		if note == "" {
			note = "Pago confirmado"
		}
		o.Status = model.StatusPaid
		o.AppendHistory(model.StatusPaid, now, note, reviewerID)

		if err := s.commit(ctx, o, model.StatusPaid); err != nil {
			return nil, err
		}
		s.metrics.Transitions.WithLabelValues(string(from), string(o.Status)).Inc()
		s.sendNotification(ctx, o.UserID,
			"Pago confirmado",
			fmt.Sprintf("El pago de tu orden %s fue confirmado.", o.OrderNumber),
			"/orders/"+o.ID)
		return o, nil

	case DecisionReject:
		if strings.TrimSpace(note) == "" {
			return nil, apperr.Validationf("el rechazo de un comprobante requiere un motivo")
		}
		if o.Status != model.StatusProofUploaded {
			return nil, &apperr.InvalidStateError{OrderID: o.ID, From: o.Status, To: model.StatusPending}
		}
		o.Status = model.StatusPending
		o.PaymentProofURL = ""
		o.ReferenceNumber = ""
		o.AppendHistory(model.StatusPending, now, "Comprobante rechazado: "+note, reviewerID)

		if err := s.commit(ctx, o, model.StatusPending); err != nil {
			return nil, err
		}
		s.metrics.Transitions.WithLabelValues(string(from), string(o.Status)).Inc()
		s.sendNotification(ctx, o.UserID,
			"Comprobante rechazado",
			fmt.Sprintf("El comprobante de tu orden %s fue rechazado. Motivo: %s", o.OrderNumber, note),
			"/orders/"+o.ID)
		return o, nil

	default:
		return nil, apperr.Validationf("decisión desconocida: %s", decision)
	}
}

// AdvanceFulfillment avanza la orden por el camino de entrega, sin
// saltear etapas: paid → shipped → delivered.
func (s *OrderService) AdvanceFulfillment(ctx context.Context, orderID string, next model.Status, actorID string) (*model.Order, error) {
	if next != model.StatusShipped && next != model.StatusDelivered {
		return nil, apperr.Validationf("estado de entrega desconocido: %s", next)
	}

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(o.Status, next) {
		return nil, &apperr.InvalidStateError{OrderID: o.ID, From: o.Status, To: next}
	}

	now := s.now().UTC()
	from := o.Status
	note := "Orden enviada"
	title := "Orden enviada"
	body := fmt.Sprintf("Tu orden %s fue despachada.", o.OrderNumber)
	if next == model.StatusDelivered {
		note = "Orden entregada"
		title = "Orden entregada"
		body = fmt.Sprintf("Tu orden %s fue entregada.", o.OrderNumber)
	}

	o.Status = next
	o.AppendHistory(next, now, note, actorID)

	if err := s.commit(ctx, o, next); err != nil {
		return nil, err
	}
	s.metrics.Transitions.WithLabelValues(string(from), string(next)).Inc()
	s.sendNotification(ctx, o.UserID, title, body, "/orders/"+o.ID)
	return o, nil
}

// CancelOrder cancela la orden y devuelve el stock exactamente una vez,
// solo si la orden nunca llegó a paid. El motivo es obligatorio cuando
// un admin cancela una orden ya pagada.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, reason string, actor Actor) (*model.Order, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && actor.ID != o.UserID {
		return nil, apperr.ErrForbidden
	}
	if !model.CanTransition(o.Status, model.StatusCanceled) {
		return nil, &apperr.InvalidStateError{OrderID: o.ID, From: o.Status, To: model.StatusCanceled}
	}
	if actor.Admin && !o.Status.Open() && strings.TrimSpace(reason) == "" {
		return nil, apperr.Validationf("cancelar una orden pagada requiere un motivo")
	}

	now := s.now().UTC()
	from := o.Status
	note := reason
	if note == "" {
		note = "Orden cancelada"
	}

	restore := o.Status.Open() && !o.StockRestored

	o.Status = model.StatusCanceled
	o.CancellationReason = reason
	o.CanceledAt = &now
	if restore {
		o.StockRestored = true
	}
	o.AppendHistory(model.StatusCanceled, now, note, actor.ID)

	if err := s.commit(ctx, o, model.StatusCanceled); err != nil {
		return nil, err
	}

	// la devolución corre después del commit: el flag StockRestored ya
	// quedó persistido en la misma escritura que la cancelación
	if restore {
		s.stock.Release(ctx, o.Items)
	}

	s.metrics.OrdersCanceled.Inc()
	s.metrics.Transitions.WithLabelValues(string(from), string(model.StatusCanceled)).Inc()
	s.sendNotification(ctx, o.UserID,
		"Orden cancelada",
		fmt.Sprintf("Tu orden %s fue cancelada.", o.OrderNumber),
		"/orders/"+o.ID)
	return o, nil
}

// ExpireOrder lo invoca únicamente el sweeper. Es idempotente: sobre
// una orden ya terminal no hace nada y devuelve éxito, para que varios
// sweepers concurrentes no se pisen.
func (s *OrderService) ExpireOrder(ctx context.Context, orderID string) error {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status.Terminal() {
		return nil
	}
	if !o.Status.Open() {
		return &apperr.InvalidStateError{OrderID: o.ID, From: o.Status, To: model.StatusExpired}
	}
	now := s.now().UTC()
	if !now.After(o.PaymentDeadline) {
		return &apperr.InvalidStateError{
			OrderID: o.ID, From: o.Status, To: model.StatusExpired,
			Msg: "la orden todavía no venció",
		}
	}

	from := o.Status
	restore := !o.StockRestored

	o.Status = model.StatusExpired
	if restore {
		o.StockRestored = true
	}
	o.AppendHistory(model.StatusExpired, now, "Orden expirada por falta de pago", systemActor.ID)

	if err := s.orders.Update(ctx, o); err != nil {
		if errors.Is(err, apperr.ErrVersionConflict) {
			// otro actor ganó la carrera; si la orden quedó terminal el
			// trabajo ya está hecho
			fresh, ferr := s.orders.FindByID(ctx, o.ID)
			if ferr != nil {
				return ferr
			}
			if fresh.Status.Terminal() {
				return nil
			}
			return &apperr.InvalidStateError{OrderID: o.ID, From: fresh.Status, To: model.StatusExpired}
		}
		return err
	}

	if restore {
		s.stock.Release(ctx, o.Items)
	}

	s.metrics.OrdersExpired.Inc()
	s.metrics.Transitions.WithLabelValues(string(from), string(model.StatusExpired)).Inc()
	s.sendNotification(ctx, o.UserID,
		"Orden expirada",
		fmt.Sprintf("Tu orden %s expiró por falta de pago.", o.OrderNumber),
		"/orders/"+o.ID)
	return nil
}

// UpdateItems reemplaza los items mientras la orden siga pendiente y
// sin comprobante. Reserva los items nuevos antes de soltar los viejos
// para no dejar la orden sin respaldo de stock en ningún momento.
func (s *OrderService) UpdateItems(ctx context.Context, orderID string, items []model.OrderItem, actor Actor) (*model.Order, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && actor.ID != o.UserID {
		return nil, apperr.ErrForbidden
	}
	if o.Status != model.StatusPending || o.PaymentProofURL != "" {
		return nil, &apperr.InvalidStateError{
			OrderID: o.ID, From: o.Status, To: o.Status,
			Msg: "los items solo se editan con la orden pendiente y sin comprobante",
		}
	}

	if err := s.stock.Reserve(ctx, items); err != nil {
		return nil, err
	}

	previous := o.Items
	o.Items, o.Totals = model.ComputeTotals(items)

	if err := s.commit(ctx, o, o.Status); err != nil {
		s.stock.Release(ctx, items)
		return nil, err
	}

	s.stock.Release(ctx, previous)
	return o, nil
}

// ChangePaymentMethod solo mientras la orden está pendiente.
func (s *OrderService) ChangePaymentMethod(ctx context.Context, orderID, methodType, methodName string, actor Actor) (*model.Order, error) {
	if strings.TrimSpace(methodType) == "" {
		return nil, apperr.Validationf("falta el método de pago")
	}

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && actor.ID != o.UserID {
		return nil, apperr.ErrForbidden
	}
	if o.Status != model.StatusPending {
		return nil, &apperr.InvalidStateError{
			OrderID: o.ID, From: o.Status, To: o.Status,
			Msg: "el método de pago solo se cambia con la orden pendiente",
		}
	}

	o.PaymentMethodType = methodType
	o.PaymentMethodName = methodName
	if err := s.commit(ctx, o, o.Status); err != nil {
		return nil, err
	}
	return o, nil
}

// Getters

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	return s.orders.FindByID(ctx, orderID)
}

func (s *OrderService) GetUserOrders(ctx context.Context, userID string, status *model.Status) ([]*model.Order, error) {
	return s.orders.FindByUser(ctx, userID, status)
}

// FindOpenOrder devuelve la única orden abierta del usuario, si existe.
func (s *OrderService) FindOpenOrder(ctx context.Context, userID string) (*model.Order, error) {
	return s.orders.FindOpenByUser(ctx, userID)
}

func (s *OrderService) ListOrders(ctx context.Context, status *model.Status) ([]*model.Order, error) {
	if status == nil {
		return s.orders.FindAll(ctx)
	}
	return s.orders.FindByStatus(ctx, *status)
}

// ExpirableOrders lista las órdenes abiertas vencidas. Lo usa el sweeper.
func (s *OrderService) ExpirableOrders(ctx context.Context) ([]*model.Order, error) {
	return s.orders.FindExpirable(ctx, s.now().UTC())
}

// commit escribe la orden con CAS. Si otra llamada concurrente ya mutó
// la orden, el que pierde observa el estado nuevo como InvalidStateError.
func (s *OrderService) commit(ctx context.Context, o *model.Order, to model.Status) error {
	err := s.orders.Update(ctx, o)
	if errors.Is(err, apperr.ErrVersionConflict) {
		fresh, ferr := s.orders.FindByID(ctx, o.ID)
		if ferr != nil {
			return ferr
		}
		return &apperr.InvalidStateError{OrderID: o.ID, From: fresh.Status, To: to}
	}
	return err
}

// sendNotification es fire-and-forget: una transición confirmada nunca
// se revierte porque falló el aviso.
func (s *OrderService) sendNotification(ctx context.Context, userID, title, body, actionURL string) {
	if err := s.notifier.Notify(ctx, userID, title, body, actionURL); err != nil {
		log.Printf("❌ Error enviando notificación a %s: %v", userID, err)
	}
}
