// Package broker publishes payment lifecycle events for downstream
// reconciliation. Publishing is best-effort: a broker failure never
// blocks or reverses a payment outcome.
package broker

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	EventPaymentCreated   = "payment.created"
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
)

type PaymentEvent struct {
	Type      string    `json:"type"`
	PaymentID int       `json:"payment_id"`
	AccountID int       `json:"account_id"`
	Amount    float64   `json:"amount"`
	Reference string    `json:"reference,omitempty"`
	At        time.Time `json:"at"`
}

type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewProducer(brokers []string, topic string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForLocal

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, errors.Wrap(err, "failed creating kafka producer")
	}

	return &Producer{
		producer: producer,
		topic:    topic,
	}, nil
}

// PublishPaymentEvent emits one lifecycle event keyed by reference so a
// record's events land in order on one partition. Failures are logged.
func (p *Producer) PublishPaymentEvent(event PaymentEvent) {
	if p == nil {
		return
	}

	event.At = time.Now()

	body, err := json.Marshal(event)
	if err != nil {
		log.WithFields(log.Fields{"error": err}).Error("failed marshaling payment event")
		return
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.Reference),
		Value: sarama.ByteEncoder(body),
	})
	if err != nil {
		log.WithFields(log.Fields{
			"type":      event.Type,
			"reference": event.Reference,
			"error":     err,
		}).Error("failed publishing payment event")
	}
}

func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.producer.Close()
}
