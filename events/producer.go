// events/producer.go
package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Routing keys published by this service.
const (
	RoutingLevelChanged   = "creator.level_changed"
	RoutingIntegrityAlert = "fund.integrity_alert"
)

// Publisher is the interface implemented by event publishers.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
	Close()
}

// Producer publishes JSON events to a RabbitMQ topic exchange.
type Producer struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

// Fallback is a no-op publisher used when RabbitMQ is not configured.
type Fallback struct {
	Log logrus.FieldLogger
}

func (p *Fallback) Publish(ctx context.Context, routingKey string, body interface{}) error {
	if p.Log != nil {
		p.Log.WithField("routing_key", routingKey).Debug("[MQ-FALLBACK] event not published")
	}
	return nil
}

func (p *Fallback) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewProducer dials RabbitMQ and declares the topic exchange once.
func NewProducer(amqpURL, exchange string) (*Producer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Producer{conn: conn, channel: ch, exchange: exchange}, nil
}

// Publish sends body as JSON with the given routing key.
func (p *Producer) Publish(ctx context.Context, routingKey string, body interface{}) error {
	if p.channel == nil {
		return errors.New("rabbitmq channel not initialized")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	return p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Body:         payload,
		Timestamp:    time.Now(),
	})
}

// Close closes the RabbitMQ connection.
func (p *Producer) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// LevelChanged is the payload of RoutingLevelChanged.
type LevelChanged struct {
	CreatorID string    `json:"creator_id"`
	UserID    string    `json:"user_id"`
	Position  int       `json:"position"`
	OldLevel  string    `json:"old_level"`
	NewLevel  string    `json:"new_level"`
	Score     int64     `json:"score"`
	ChangedAt time.Time `json:"changed_at"`
}

// IntegrityAlert is the payload of RoutingIntegrityAlert.
type IntegrityAlert struct {
	ActiveFundCount   int64     `json:"active_fund_count"`
	ExpectedFundValue string    `json:"expected_fund_value"`
	ActualFundValue   string    `json:"actual_fund_value"`
	Difference        string    `json:"difference"`
	Problems          []string  `json:"problems"`
	CheckedAt         time.Time `json:"checked_at"`
}
