package rabbit

import (
	"context"
	"encoding/json"
	"log"

	"github.com/shopspring/decimal"

	"order-lifecycle-service/internal/dto"
	"order-lifecycle-service/internal/model"
	"order-lifecycle-service/internal/service"
)

type PlaceOrderConsumer struct {
	Service *service.OrderService
}

func NewPlaceOrderConsumer(s *service.OrderService) *PlaceOrderConsumer {
	return &PlaceOrderConsumer{Service: s}
}

// Mensaje que publica el checkout en el exchange order_placed.
type PlacedOrderMessage struct {
	CorrelationID string `json:"correlation_id"`
	Exchange      string `json:"exchange"`
	RoutingKey    string `json:"routing_key"`
	Message       struct {
		UserID   string `json:"userId"`
		CartID   string `json:"cartId"`
		Articles []struct {
			ArticleID string          `json:"articleId"`
			Name      string          `json:"name"`
			Quantity  int             `json:"quantity"`
			UnitPrice decimal.Decimal `json:"unitPrice"`
		} `json:"articles"`
		Shipping      dto.AddressDTO `json:"shipping"`
		PaymentMethod struct {
			Type string `json:"type"`
			Name string `json:"name"`
		} `json:"paymentMethod"`
	} `json:"message"`
}

// Handle crea la orden por el mismo camino que la API: aplican el lock
// de orden pendiente y la reserva de stock. Un fallo de negocio se
// loguea y el mensaje no se reintenta (reintentar no cambia el resultado).
func (c *PlaceOrderConsumer) Handle(msg []byte) error {
	log.Println("[Rabbit] Evento recibido: order_placed")

	var event PlacedOrderMessage
	if err := json.Unmarshal(msg, &event); err != nil {
		log.Println("Error parseando mensaje:", err)
		return err
	}

	items := make([]model.OrderItem, len(event.Message.Articles))
	for i, a := range event.Message.Articles {
		items[i] = model.OrderItem{
			ProductID: a.ArticleID,
			Name:      a.Name,
			Quantity:  a.Quantity,
			UnitPrice: a.UnitPrice,
		}
	}

	order, err := c.Service.CreateOrder(
		context.Background(),
		event.Message.UserID,
		items,
		event.Message.Shipping.ToModel(),
		event.Message.PaymentMethod.Type,
		event.Message.PaymentMethod.Name,
	)
	if err != nil {
		log.Println("❌ Error creando orden desde el evento:", err)
		return err
	}

	log.Printf("✔ Orden %s creada para el usuario %s", order.OrderNumber, order.UserID)
	return nil
}
