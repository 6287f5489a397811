// models.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status es el estado del ciclo de vida de una orden.
type Status string

const (
	StatusPending       Status = "pending"
	StatusProofUploaded Status = "proof_uploaded"
	StatusPaid          Status = "paid"
	StatusShipped       Status = "shipped"
	StatusDelivered     Status = "delivered"
	StatusCanceled      Status = "canceled"
	StatusExpired       Status = "expired"
)

var validStatuses = map[Status]struct{}{
	StatusPending:       {},
	StatusProofUploaded: {},
	StatusPaid:          {},
	StatusShipped:       {},
	StatusDelivered:     {},
	StatusCanceled:      {},
	StatusExpired:       {},
}

func ToStatus(s string) (Status, bool) {
	st := Status(s)
	_, ok := validStatuses[st]
	return st, ok
}

// Tabla de transiciones permitidas. Es la única fuente de verdad:
// el service nunca valida transiciones por su cuenta.
var transitions = map[Status][]Status{
	StatusPending:       {StatusProofUploaded, StatusCanceled, StatusExpired},
	StatusProofUploaded: {StatusPaid, StatusPending, StatusCanceled, StatusExpired},
	StatusPaid:          {StatusShipped, StatusCanceled},
	StatusShipped:       {StatusDelivered, StatusCanceled},
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal indica si la orden ya no admite ninguna transición.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCanceled || s == StatusExpired
}

// Open indica si la orden sigue esperando la resolución del pago.
// Solo los estados abiertos pueden expirar automáticamente.
func (s Status) Open() bool {
	return s == StatusPending || s == StatusProofUploaded
}

func OpenStatuses() []Status {
	return []Status{StatusPending, StatusProofUploaded}
}

type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals recalcula subtotales por renglón y el total de la orden.
// Se invoca al crear y al editar items; nunca de forma implícita después.
func ComputeTotals(items []OrderItem) ([]OrderItem, Totals) {
	subtotal := decimal.Zero
	out := make([]OrderItem, len(items))
	for i, it := range items {
		it.Subtotal = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(it.Subtotal)
		out[i] = it
	}
	t := Totals{
		Subtotal: subtotal,
		Tax:      decimal.Zero,
		Shipping: decimal.Zero,
		Discount: decimal.Zero,
	}
	t.Total = t.Subtotal.Add(t.Tax).Add(t.Shipping).Sub(t.Discount)
	return out, t
}

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Province   string `json:"province"`
	Country    string `json:"country"`
	Comments   string `json:"comments"`
}

type StatusRecord struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note"`
	ActorID   string    `json:"actorId"`
}

type Order struct {
	ID          string `json:"id"`
	OrderNumber string `json:"orderNumber"`
	UserID      string `json:"userId"`

	Items           []OrderItem `json:"items"`
	ShippingAddress Address     `json:"shippingAddress"` // snapshot, no referencia
	Totals          Totals      `json:"totals"`

	PaymentMethodType string `json:"paymentMethodType"`
	PaymentMethodName string `json:"paymentMethodName"`

	Status          Status    `json:"status"`
	PaymentDeadline time.Time `json:"paymentDeadline"`

	PaymentProofURL string `json:"paymentProofUrl,omitempty"`
	ReferenceNumber string `json:"referenceNumber,omitempty"`

	StatusHistory []StatusRecord `json:"statusHistory"`

	CancellationReason string     `json:"cancellationReason,omitempty"`
	CanceledAt         *time.Time `json:"canceledAt,omitempty"`

	Archived   bool       `json:"archived"`
	ArchivedAt *time.Time `json:"archivedAt,omitempty"`

	// StockRestored marca que la reserva de stock ya fue devuelta.
	// Se setea en la misma escritura que confirma cancel/expire para que
	// la devolución nunca se aplique dos veces.
	StockRestored bool `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Version es el token de concurrencia optimista del repositorio.
	Version int64 `json:"-"`
}

// AppendHistory agrega un registro manteniendo el invariante de que el
// último registro siempre coincide con el estado actual.
func (o *Order) AppendHistory(status Status, at time.Time, note, actorID string) {
	o.StatusHistory = append(o.StatusHistory, StatusRecord{
		Status:    status,
		Timestamp: at,
		Note:      note,
		ActorID:   actorID,
	})
}

type Product struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}
