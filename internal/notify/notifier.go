// Package notify abstrae el envío de notificaciones al usuario. El motor
// solo consume la capacidad "avisar al usuario"; la entrega real la hace
// otro servicio que consume el exchange.
package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type Notifier interface {
	Notify(ctx context.Context, userID, title, body, actionURL string) error
}

const NotificationsExchange = "user_notifications"

type notificationMessage struct {
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	ActionURL string    `json:"actionUrl,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RabbitNotifier publica las notificaciones en un exchange fanout.
type RabbitNotifier struct {
	ch *amqp091.Channel
}

func NewRabbitNotifier(ch *amqp091.Channel) (*RabbitNotifier, error) {
	err := ch.ExchangeDeclare(
		NotificationsExchange,
		"fanout",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, err
	}
	return &RabbitNotifier{ch: ch}, nil
}

func (n *RabbitNotifier) Notify(ctx context.Context, userID, title, body, actionURL string) error {
	msg := notificationMessage{
		UserID:    userID,
		Title:     title,
		Body:      body,
		ActionURL: actionURL,
		Timestamp: time.Now().UTC(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return n.ch.PublishWithContext(ctx,
		NotificationsExchange,
		"", // fanout ignora routing key
		false,
		false,
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        payload,
		},
	)
}

// LogNotifier escribe al log. Se usa sin RabbitMQ configurado y en tests.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, userID, title, body, _ string) error {
	log.Printf("🔔 Notificación para %s: %s — %s", userID, title, body)
	return nil
}
