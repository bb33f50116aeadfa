package pubsub

import (
	"context"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, key string, headers map[string]string, message []byte) error
	Close() error
}

type kafkaPublisher struct {
	logger *logrus.Logger
	writer *kafka.Writer
}

func PublisherFromKafkaWriter(logger *logrus.Logger, writer *kafka.Writer) Publisher {
	return &kafkaPublisher{
		logger: logger,
		writer: writer,
	}
}

// Publish implements Publisher.
func (p *kafkaPublisher) Publish(ctx context.Context, topic string, key string, headers map[string]string, message []byte) error {
	kafkaHeaders := make([]kafka.Header, 0, len(headers))
	for k, v := range headers {
		kafkaHeaders = append(kafkaHeaders, kafka.Header{Key: k, Value: []byte(v)})
	}

	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     []byte(key),
		Headers: kafkaHeaders,
		Value:   message,
	})
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).WithField("topic", topic).Error()
		return err
	}

	return nil
}

// Close implements Publisher.
func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}
