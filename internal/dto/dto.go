// dto.go
package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"order-lifecycle-service/internal/model"
)

type OrderItemDTO struct {
	ProductID string          `json:"productId" binding:"required"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

func (d OrderItemDTO) ToModel() model.OrderItem {
	return model.OrderItem{
		ProductID: d.ProductID,
		Name:      d.Name,
		Quantity:  d.Quantity,
		UnitPrice: d.UnitPrice,
	}
}

type AddressDTO struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Province   string `json:"province"`
	Country    string `json:"country"`
	Comments   string `json:"comments"`
}

func (d AddressDTO) ToModel() model.Address {
	return model.Address{
		Street:     d.Street,
		City:       d.City,
		PostalCode: d.PostalCode,
		Province:   d.Province,
		Country:    d.Country,
		Comments:   d.Comments,
	}
}

type PaymentMethodDTO struct {
	Type string `json:"type" binding:"required"`
	Name string `json:"name"`
}

type CreateOrderRequest struct {
	// UserID es opcional: si falta se usa el usuario autenticado. Solo
	// un admin puede crear órdenes a nombre de otro.
	UserID        string           `json:"userId"`
	Items         []OrderItemDTO   `json:"items" binding:"required"`
	Address       AddressDTO       `json:"address"`
	PaymentMethod PaymentMethodDTO `json:"paymentMethod" binding:"required"`
}

type UpdateItemsRequest struct {
	Items []OrderItemDTO `json:"items" binding:"required"`
}

type ChangePaymentMethodRequest struct {
	PaymentMethod PaymentMethodDTO `json:"paymentMethod" binding:"required"`
}

// UpdateStatusRequest es la transición administrativa: aprobar/rechazar
// el comprobante, avanzar la entrega o cancelar.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// OrderSummaryResponse es la vista compacta para listados.
type OrderSummaryResponse struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	UserID          string          `json:"userId"`
	Status          model.Status    `json:"status"`
	Total           decimal.Decimal `json:"total"`
	PaymentDeadline time.Time       `json:"paymentDeadline"`
	Archived        bool            `json:"archived"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func ToSummary(o *model.Order) OrderSummaryResponse {
	return OrderSummaryResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Status:          o.Status,
		Total:           o.Totals.Total,
		PaymentDeadline: o.PaymentDeadline,
		Archived:        o.Archived,
		CreatedAt:       o.CreatedAt,
	}
}
