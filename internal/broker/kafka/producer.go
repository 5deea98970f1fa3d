package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"print-packager/internal/domain"

	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
)

type ProducerClient struct {
	producer *wbkafka.Producer
	topic    string
	retries  retry.Strategy
}

func NewProducerClient(brokers []string, topic string, retries retry.Strategy) *ProducerClient {
	return &ProducerClient{
		producer: wbkafka.NewProducer(brokers, topic),
		topic:    topic,
		retries:  retries,
	}
}

func (p *ProducerClient) Send(ctx context.Context, key, value []byte) error {
	if err := p.producer.SendWithRetry(ctx, p.retries, key, value); err != nil {
		return fmt.Errorf("failed to send to %s: %w", p.topic, err)
	}
	return nil
}

// SendTask keys the task by batch so all messages of a batch share a
// partition.
func (p *ProducerClient) SendTask(ctx context.Context, task *domain.BatchTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	return p.Send(ctx, []byte(task.BatchID), data)
}

func (p *ProducerClient) SendProgress(ctx context.Context, event domain.ProgressEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	return p.Send(ctx, []byte(event.BatchID), data)
}

func (p *ProducerClient) Close() error {
	return p.producer.Close()
}
