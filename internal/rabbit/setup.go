// setup.go
package rabbit

import (
	"log"

	"github.com/rabbitmq/amqp091-go"

	"order-lifecycle-service/internal/service"
)

func SetupConsumers(ch *amqp091.Channel, svc *service.OrderService) {
	consumer := NewPlaceOrderConsumer(svc)

	// 1. Declarar la queue propia del servicio
	q, err := ch.QueueDeclare(
		"order_lifecycle_service_orders",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Println("❌ Error declarando queue:", err)
		return
	}

	// 2. Bindear al exchange fanout del checkout. Se declara también acá
	// por si este servicio arranca antes que el checkout.
	err = ch.ExchangeDeclare(
		"order_placed",
		"fanout",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Println("❌ Error declarando exchange:", err)
		return
	}

	err = ch.QueueBind(
		q.Name,
		"", // fanout ignora routing key
		"order_placed",
		false,
		nil,
	)
	if err != nil {
		log.Println("❌ Error binding exchange:", err)
		return
	}

	// 3. Consumir
	msgs, err := ch.Consume(
		q.Name,
		"",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Println("❌ Error al consumir queue:", err)
		return
	}

	go func() {
		for m := range msgs {
			consumer.Handle(m.Body)
		}
	}()

	log.Println("🐰 Suscrito a exchange order_placed (fanout)")
}
