package repository

import (
	"context"

	"UnslugCity/internal/domain/models"
	"UnslugCity/internal/domain/repository"
	pkgkafka "UnslugCity/pkg/kafka"
)

// KafkaOutputPublisher publishes scored organism outputs to a Kafka topic,
// keyed by symbol so one symbol's outputs stay ordered within a partition.
type KafkaOutputPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaOutputPublisher creates a Kafka-backed Publisher.
func NewKafkaOutputPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaOutputPublisher{producer: producer, topic: topic}
}

func (p *KafkaOutputPublisher) Publish(ctx context.Context, out models.OrganismOutput) error {
	return p.producer.Publish(ctx, p.topic, []byte(out.Symbol), out)
}

func (p *KafkaOutputPublisher) PublishBatch(ctx context.Context, outs []models.OrganismOutput) error {
	if len(outs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(outs))
	for i, out := range outs {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(out.Symbol),
			Value: out,
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaOutputPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
