package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DispatchQueue is the queue the worker consumes dispatch jobs from
const DispatchQueue = "campaign_dispatch"

// DispatchJob tells the worker to run one campaign send. All state
// lives in the database; the job carries only the campaign id, so a
// duplicate or stale delivery is harmless.
type DispatchJob struct {
	CampaignID int `json:"campaign_id"`
}

// Publisher publishes dispatch jobs to RabbitMQ
type Publisher struct {
	conn      *Connection
	queueName string
	waitName  string
}

// NewPublisher creates a new publisher instance and declares the
// dispatch queue plus its wait queue for delayed jobs
func NewPublisher(conn *Connection, queueName string) (*Publisher, error) {
	if conn == nil {
		return nil, errors.New("connection cannot be nil")
	}
	if queueName == "" {
		return nil, errors.New("queue name cannot be empty")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

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

	// Jobs parked here expire into the dispatch queue after their
	// per-message TTL
	waitName := queueName + "_wait"
	_, err = ch.QueueDeclare(
		waitName,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": queueName,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare wait queue: %w", err)
	}

	return &Publisher{
		conn:      conn,
		queueName: queueName,
		waitName:  waitName,
	}, nil
}

// PublishDispatch enqueues a dispatch job for immediate processing
func (p *Publisher) PublishDispatch(campaignID int) error {
	return p.publish(p.queueName, campaignID, amqp.Publishing{})
}

// PublishDispatchIn parks a dispatch job until the delay elapses.
// Expiry only happens at the head of the wait queue, so a job behind a
// longer-delayed one arrives late; the schedule sweep covers that gap.
func (p *Publisher) PublishDispatchIn(campaignID int, delay time.Duration) error {
	if delay <= 0 {
		return p.PublishDispatch(campaignID)
	}

	return p.publish(p.waitName, campaignID, amqp.Publishing{
		Expiration: strconv.FormatInt(delay.Milliseconds(), 10),
	})
}

func (p *Publisher) publish(routingKey string, campaignID int, template amqp.Publishing) error {
	job := DispatchJob{CampaignID: campaignID}

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch job: %w", err)
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to get channel: %w", err)
	}

	template.DeliveryMode = amqp.Persistent
	template.ContentType = "application/json"
	template.Body = body

	err = ch.Publish(
		"",         // exchange (default)
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		template,
	)
	if err != nil {
		return fmt.Errorf("failed to publish dispatch job: %w", err)
	}

	return nil
}

// Close closes the publisher (no-op, connection managed externally)
func (p *Publisher) Close() error {
	return nil
}
