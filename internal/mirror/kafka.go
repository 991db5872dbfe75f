package mirror

import (
	"context"

	"github.com/segmentio/kafka-go"
)

const DEFAULT_KAFKA_TOPIC = "sawmill.telemetry"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(broker, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DEFAULT_KAFKA_TOPIC
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(broker),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, key string, payload []byte) error {
	return p.writer.WriteMessages(ctx,
		kafka.Message{
			Key:   []byte(key),
			Value: payload,
		},
	)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
