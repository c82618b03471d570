// Package amqp connects the ledger to RabbitMQ: rollover requests go onto a
// durable queue for the worker, and applied batches are announced on a
// second queue for anything downstream.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"duoledger/internal/core"

	"github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn          *amqp091.Connection
	channel       *amqp091.Channel
	exchangeName  string
	rolloverQueue string
	eventsQueue   string
}

func NewClient(url, exchangeName, rolloverQueue, eventsQueue string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:          conn,
		channel:       channel,
		exchangeName:  exchangeName,
		rolloverQueue: rolloverQueue,
		eventsQueue:   eventsQueue,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, queue := range []string{c.rolloverQueue, c.eventsQueue} {
		_, err = c.channel.QueueDeclare(
			queue, // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}

		// Routing key matches the queue name on the direct exchange
		if err := c.channel.QueueBind(queue, queue, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	return nil
}

// PublishRolloverRequest asks the worker to roll the given period forward.
func (c *Client) PublishRolloverRequest(ctx context.Context, period core.PeriodKey) error {
	msg := NewRolloverRequestMessage(period.Key())
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, c.rolloverQueue, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published rollover request",
		"period", period.Key(),
		"exchange", c.exchangeName,
		"queue", c.rolloverQueue)
	return nil
}

// PublishBatchApplied implements ledger.Events.
func (c *Client) PublishBatchApplied(ctx context.Context, period core.PeriodKey, created, updated, deleted int) error {
	msg := NewBatchAppliedMessage(period.Key(), created, updated, deleted)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, c.eventsQueue, body); err != nil {
		return err
	}

	slog.DebugContext(ctx, "Published batch event",
		"period", period.Key(),
		"created", created,
		"updated", updated,
		"deleted", deleted)
	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// ConsumeRolloverRequests consumes rollover requests with manual ack.
// Malformed messages are rejected without requeue; handler failures requeue.
func (c *Client) ConsumeRolloverRequests(ctx context.Context, handler func(*RolloverRequestMessage) error) error {
	msgs, err := c.channel.Consume(
		c.rolloverQueue, // queue
		"",              // consumer
		false,           // auto-ack (we want manual ack)
		false,           // exclusive
		false,           // no-local
		false,           // no-wait
		nil,             // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming rollover requests", "queue", c.rolloverQueue)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := RolloverRequestMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			if err := handler(msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle rollover request",
					"error", err,
					"period", msg.PeriodKey)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false)
			slog.InfoContext(ctx, "Processed rollover request", "period", msg.PeriodKey)
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
