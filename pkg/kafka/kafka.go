package kafka

import (
	"time"

	"github.com/segmentio/kafka-go"
)

type Option struct {
	Brokers []string
}

// NewWriter builds a topic-less writer; the topic is set per message by the
// publisher.
func NewWriter(opt Option) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(opt.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
}
