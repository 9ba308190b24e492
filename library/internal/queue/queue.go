package queue

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-web/pkg/circuit_breaker"
	"github.com/Astemirdum/library-web/pkg/kafka"
)

type Publisher interface {
	Publish(ctx context.Context, event kafka.EventBorrowing) error
}

type publisher struct {
	producer sarama.SyncProducer
	topic    string
	cb       circuit_breaker.CircuitBreaker
	log      *zap.Logger
}

func NewPublisher(producer sarama.SyncProducer, topic string, cb circuit_breaker.CircuitBreaker, log *zap.Logger) Publisher {
	return &publisher{
		producer: producer,
		topic:    topic,
		cb:       cb,
		log:      log.Named("queue"),
	}
}

// Publish keys messages by book so events of one book stay ordered.
func (p *publisher) Publish(ctx context.Context, event kafka.EventBorrowing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(event.BookID, 10)),
		Value: sarama.ByteEncoder(data),
	}
	err = p.cb.Call(func() error {
		partition, offset, err := p.producer.SendMessage(msg)
		if err != nil {
			return err
		}
		p.log.Debug("event published",
			zap.String("id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Int32("partition", partition),
			zap.Int64("offset", offset))
		return nil
	})
	return errors.Wrap(err, "publish borrowing event")
}

type nopPublisher struct{}

// NewNopPublisher is used when Kafka is not configured.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, kafka.EventBorrowing) error {
	return nil
}
