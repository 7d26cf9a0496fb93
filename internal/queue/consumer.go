package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer consumes dispatch jobs from RabbitMQ
type Consumer struct {
	conn      *Connection
	queueName string
	handler   DispatchHandler
	stopChan  chan struct{}
	doneChan  chan struct{}
}

// DispatchHandler processes one dispatch job
type DispatchHandler func(ctx context.Context, job *DispatchJob) error

// NewConsumer creates a new consumer instance
func NewConsumer(conn *Connection, queueName string, handler DispatchHandler) (*Consumer, error) {
	if conn == nil {
		return nil, errors.New("connection cannot be nil")
	}
	if queueName == "" {
		return nil, errors.New("queue name cannot be empty")
	}
	if handler == nil {
		return nil, errors.New("handler cannot be nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	// Same settings as the publisher side
	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &Consumer{
		conn:      conn,
		queueName: queueName,
		handler:   handler,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}, nil
}

// Start starts consuming dispatch jobs. One job runs at a time; a job
// that errors is logged and dropped, never redelivered. A crash leaves
// the delivery unacked, and the broker hands it to the next worker,
// which is safe because jobs re-check campaign state before sending.
func (c *Consumer) Start(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to get channel: %w", err)
	}

	err = ch.Qos(
		1,     // prefetch count
		0,     // prefetch size
		false, // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		c.queueName,
		"",    // consumer tag (auto-generated)
		false, // auto-ack (manual acknowledgement)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	go func() {
		defer close(c.doneChan)

		for {
			select {
			case <-c.stopChan:
				log.Println("Consumer stopping...")
				return
			case d, ok := <-msgs:
				if !ok {
					log.Println("Delivery channel closed")
					return
				}

				if err := c.processDelivery(ctx, d); err != nil {
					// Drop it: recovery is a manual re-send, not a redelivery
					log.Printf("❌ Dispatch job failed: %v", err)
				}
				d.Ack(false)
			}
		}
	}()

	log.Printf("Consumer started, listening on queue: %s", c.queueName)
	return nil
}

// Stop stops consuming after the in-flight job finishes
func (c *Consumer) Stop() error {
	close(c.stopChan)
	<-c.doneChan

	log.Println("Consumer stopped successfully")
	return nil
}

// processDelivery parses and runs a single dispatch job
func (c *Consumer) processDelivery(ctx context.Context, d amqp.Delivery) error {
	var job DispatchJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		return fmt.Errorf("failed to unmarshal dispatch job: %w", err)
	}

	if err := c.handler(ctx, &job); err != nil {
		return fmt.Errorf("campaign %d: %w", job.CampaignID, err)
	}

	return nil
}
