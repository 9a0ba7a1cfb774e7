package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// Producer publishes a message body to a single queue.
type Producer interface {
	Publish(body []byte, messageID string) error
}

const confirmTimeout = 5 * time.Second

// Broker owns one AMQP connection and channel shared by the queue producers.
type Broker struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	confirms chan amqp.Confirmation

	mu      sync.Mutex // guards channel publishing and nextTag
	nextTag uint64     // delivery tag of the next publish, starting at 1
}

// Dial connects to the broker and puts the channel in confirm mode. Every publish
// waits for the broker's ack.
func Dial(url string) (*Broker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp confirm mode: %w", err)
	}
	confirms := ch.NotifyPublish(make(chan amqp.Confirmation, 16))

	notifyClose := make(chan *amqp.Error, 1)
	conn.NotifyClose(notifyClose)
	go func() {
		if err := <-notifyClose; err != nil {
			logrus.WithError(err).Error("amqp connection closed")
		}
	}()

	return &Broker{conn: conn, channel: ch, confirms: confirms, nextTag: 1}, nil
}

// Producer declares a durable queue and returns a producer bound to it.
func (b *Broker) Producer(queueName string) (Producer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	queue, err := b.channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue %q: %w", queueName, err)
	}
	return &queueProducer{broker: b, queue: queue.Name}, nil
}

func (b *Broker) Close() error {
	if err := b.channel.Close(); err != nil {
		b.conn.Close()
		return err
	}
	return b.conn.Close()
}

type queueProducer struct {
	broker *Broker
	queue  string
}

func (p *queueProducer) Publish(body []byte, messageID string) error {
	p.broker.mu.Lock()
	defer p.broker.mu.Unlock()
	err := p.broker.channel.Publish(
		"",      // exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish a message: %w", err)
	}
	tag := p.broker.nextTag
	p.broker.nextTag++
	return awaitConfirm(p.broker.confirms, tag, confirmTimeout)
}

// awaitConfirm waits for the confirmation of tag. Confirmations for earlier tags
// belong to publishes that already timed out and are skipped.
func awaitConfirm(confirms <-chan amqp.Confirmation, tag uint64, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case c, ok := <-confirms:
			if !ok {
				return errors.New("amqp channel closed before the publish was confirmed")
			}
			if c.DeliveryTag < tag {
				continue
			}
			if !c.Ack {
				return fmt.Errorf("broker rejected message %d", tag)
			}
			return nil
		case <-timer.C:
			return fmt.Errorf("no confirmation for message %d after %s", tag, timeout)
		}
	}
}

// QueueNotifier serialises events to JSON and hands them to a producer.
type QueueNotifier struct {
	producer Producer
}

func NewQueueNotifier(producer Producer) *QueueNotifier {
	return &QueueNotifier{producer: producer}
}

func (n *QueueNotifier) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.producer.Publish(body, event.ID)
}

// EmailMessage is the payload consumed by the mail worker.
type EmailMessage struct {
	ID       string            `json:"id"`
	Template string            `json:"template"`
	To       string            `json:"to"`
	Vars     map[string]string `json:"vars"`
}

const templatePasswordReset = "password_reset"

// QueueEmailSender enqueues email for an out-of-process mail worker.
type QueueEmailSender struct {
	producer Producer
}

func NewQueueEmailSender(producer Producer) *QueueEmailSender {
	return &QueueEmailSender{producer: producer}
}

func (s *QueueEmailSender) SendPasswordResetCode(ctx context.Context, to, name, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := EmailMessage{
		ID:       uuid.NewString(),
		Template: templatePasswordReset,
		To:       to,
		Vars:     map[string]string{"name": name, "code": code},
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal email message: %w", err)
	}
	return s.producer.Publish(body, msg.ID)
}

// LogEmailSender stands in when no broker is configured. The code itself is never logged.
type LogEmailSender struct{}

func (LogEmailSender) SendPasswordResetCode(_ context.Context, to, _, _ string) error {
	logrus.WithField("to", to).Warn("email delivery disabled; password reset code not sent")
	return nil
}
