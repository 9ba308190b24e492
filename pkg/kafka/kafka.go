package kafka

import (
	"time"

	"github.com/IBM/sarama"
)

const (
	BorrowingTopic = "library.borrowing"
)

type Config struct {
	Addrs []string `yaml:"addrs" envconfig:"KAFKA_ADDRS"`
}

func (c Config) Enabled() bool {
	return len(c.Addrs) > 0
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true
	defaultCfg.Producer.Retry.Max = 3
	defaultCfg.Producer.Timeout = 5 * time.Second

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

type EventType string

const (
	EventBorrowed EventType = "BORROWED"
	EventReturned EventType = "RETURNED"
)

// EventBorrowing is published on BorrowingTopic after a transition commits.
type EventBorrowing struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	BookID     int64     `json:"bookId"`
	UserID     int64     `json:"userId"`
	OccurredAt time.Time `json:"occurredAt"`
}
