package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"downtodine/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

var (
	rabbitConn     *amqp.Connection
	rabbitChannel  *amqp.Channel
	eventsExchange = "dtd.events"
)

// FriendAcceptedEvent is emitted whenever a friendship forms, regardless
// of which code path (accept, auto-accept, direct add) formed it.
type FriendAcceptedEvent struct {
	UserID    int64     `json:"user_id"`
	FriendID  int64     `json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`
}

type AvailabilitySetEvent struct {
	UserID    int64          `json:"user_id"`
	Date      string         `json:"date"`
	Hours     models.HourSet `json:"hours"`
	CreatedAt time.Time      `json:"created_at"`
}

// InitRabbitMQ connects and declares the topic exchange. The publisher is
// optional: when this is never called, publish helpers are no-ops.
func InitRabbitMQ(url string) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		eventsExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,   // args
	); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	rabbitConn = conn
	rabbitChannel = ch
	logrus.WithField("url", url).Info("RabbitMQ initialized")
	return nil
}

func CloseRabbitMQ() {
	if rabbitChannel != nil {
		_ = rabbitChannel.Close()
		rabbitChannel = nil
	}
	if rabbitConn != nil {
		_ = rabbitConn.Close()
		rabbitConn = nil
	}
}

func publishEvent(ctx context.Context, routingKey string, event interface{}) error {
	if rabbitChannel == nil {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return rabbitChannel.PublishWithContext(ctx,
		eventsExchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// Publishing is best-effort: a broker failure must never fail the request
// that triggered the event.
func publishFriendAccepted(ctx context.Context, userID, friendID int64) {
	event := FriendAcceptedEvent{UserID: userID, FriendID: friendID, CreatedAt: time.Now().UTC()}
	if err := publishEvent(ctx, "friend.accepted", event); err != nil {
		logrus.WithError(err).Warn("failed to publish friend.accepted event")
	}
}

func publishAvailabilitySet(ctx context.Context, userID int64, date string, hours models.HourSet) {
	event := AvailabilitySetEvent{UserID: userID, Date: date, Hours: hours, CreatedAt: time.Now().UTC()}
	if err := publishEvent(ctx, "availability.set", event); err != nil {
		logrus.WithError(err).Warn("failed to publish availability.set event")
	}
}
