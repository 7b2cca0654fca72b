package amqp

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	petri "github.com/jt05610/xschema"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the part of *amqp091.Channel a Publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher is a report listener publishing each state report as JSON.
type Publisher struct {
	ch       Channel
	exchange string
	key      string
	timeout  time.Duration
}

func NewPublisher(ch Channel, exchange, key string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange, key: key, timeout: 5 * time.Second}
}

func (p *Publisher) Report(r *petri.StateReport) error {
	body, err := json.Marshal(r)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	return p.ch.PublishWithContext(ctx, p.exchange, p.key, false, false, amqp.Publishing{
		Body:         body,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers: amqp.Table{
			"x-run-id": r.RunID,
			"x-round":  strconv.Itoa(r.Round),
		},
	})
}
