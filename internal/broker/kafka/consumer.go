package kafka

import (
	"context"

	"print-packager/internal/broker"

	kafka "github.com/segmentio/kafka-go"
	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
)

type ConsumerClient struct {
	consumer *wbkafka.Consumer
}

func NewConsumerClient(brokers []string, topic, groupID string) *ConsumerClient {
	return &ConsumerClient{
		consumer: wbkafka.NewConsumer(brokers, topic, groupID),
	}
}

// NewTailConsumerClient reads only messages published after the group first
// joins the topic.
func NewTailConsumerClient(brokers []string, topic, groupID string) *ConsumerClient {
	return &ConsumerClient{
		consumer: &wbkafka.Consumer{
			Reader: kafka.NewReader(kafka.ReaderConfig{
				Brokers:     brokers,
				Topic:       topic,
				GroupID:     groupID,
				StartOffset: kafka.LastOffset,
			}),
		},
	}
}

// Start forwards fetched messages to out until ctx is done. out is not
// closed.
func (c *ConsumerClient) Start(ctx context.Context, out chan<- *broker.Message, strategy retry.Strategy) {
	raw := make(chan kafka.Message, cap(out))
	go c.consumer.StartConsuming(ctx, raw, strategy)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-raw:
				if !ok {
					return
				}
				select {
				case out <- fromKafka(m):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}

func (c *ConsumerClient) Fetch(ctx context.Context, strategy retry.Strategy) (*broker.Message, error) {
	m, err := c.consumer.FetchWithRetry(ctx, strategy)
	if err != nil {
		return nil, err
	}
	return fromKafka(m), nil
}

func (c *ConsumerClient) Commit(ctx context.Context, msg *broker.Message) error {
	return c.consumer.Commit(ctx, kafka.Message{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Key:       msg.Key,
	})
}

func (c *ConsumerClient) Close() error {
	return c.consumer.Close()
}

func fromKafka(m kafka.Message) *broker.Message {
	return &broker.Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Key:       m.Key,
		Value:     m.Value,
		Offset:    m.Offset,
	}
}
