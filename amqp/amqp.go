// Package amqp carries external signals into a running net and publishes
// its state reports over an AMQP broker.
package amqp

import (
	"fmt"

	"github.com/jt05610/xschema/env"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys are "<queue>.signal" for signals into the net and
// "<queue>.report" for state reports out of it.
const (
	signalKey = "signal"
	reportKey = "report"
)

type Connection struct {
	*amqp.Connection
	*amqp.Channel
	Queue    amqp.Queue
	Exchange string
	prefix   string
}

func (c *Connection) Close() error {
	if c.Channel != nil {
		err := c.Channel.Close()
		if err != nil {
			return err
		}
	}
	return c.Connection.Close()
}

// SignalKey is the routing key signals are published with.
func (c *Connection) SignalKey() string { return c.prefix + "." + signalKey }

// ReportKey is the routing key reports are published with.
func (c *Connection) ReportKey() string { return c.prefix + "." + reportKey }

// Dial connects to the broker, declares the topic exchange and binds a queue
// to the signal routing key.
func Dial(environ *env.Environment) (*Connection, error) {
	conn, err := amqp.Dial(environ.URI)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", environ.Exchange, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	c := &Connection{Connection: conn, Channel: ch, Exchange: environ.Exchange, prefix: environ.Queue}
	err = ch.ExchangeDeclare(
		environ.Exchange, // name
		"topic",          // type
		false,            // durable
		false,            // delete when unused
		false,            // internal
		false,            // no-wait
		nil,              // arguments
	)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", environ.Exchange, err)
	}
	c.Queue, err = ch.QueueDeclare(
		environ.Queue, // name
		false,         // durable
		true,          // delete when unused
		false,         // exclusive
		false,         // no-wait
		nil,           // arguments
	)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("declare queue %s: %w", environ.Queue, err)
	}
	if err := ch.QueueBind(c.Queue.Name, c.SignalKey(), environ.Exchange, false, nil); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("bind queue %s: %w", c.Queue.Name, err)
	}
	return c, nil
}

// Consume starts delivering signals. Deliveries must be acknowledged.
func (c *Connection) Consume() (<-chan amqp.Delivery, error) {
	return c.Channel.Consume(
		c.Queue.Name, // queue
		"",           // consumer
		false,        // auto-ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // args
	)
}
