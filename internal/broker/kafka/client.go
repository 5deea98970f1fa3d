package kafka

import (
	"errors"
	"os"
	"strings"

	"print-packager/internal/config"

	"github.com/google/uuid"
)

// NewTaskProducer publishes batch tasks for the workers.
func NewTaskProducer(cfg *config.Config) *ProducerClient {
	return NewProducerClient(cfg.Kafka.Brokers, cfg.Kafka.TasksTopic, cfg.DefaultRetryStrategy())
}

// NewProgressProducer publishes progress of running batches.
func NewProgressProducer(cfg *config.Config) *ProducerClient {
	return NewProducerClient(cfg.Kafka.Brokers, cfg.Kafka.ProgressTopic, cfg.DefaultRetryStrategy())
}

// NewTaskConsumer joins the shared worker group so each task runs once.
func NewTaskConsumer(cfg *config.Config) *ConsumerClient {
	return NewConsumerClient(cfg.Kafka.Brokers, cfg.Kafka.TasksTopic, cfg.Kafka.GroupID)
}

// NewProgressConsumer uses one group per host so every server instance sees
// every progress event. A restart resumes the group instead of replaying the
// topic, and a fresh group starts at the newest offset.
func NewProgressConsumer(cfg *config.Config) *ConsumerClient {
	host, _ := os.Hostname()
	return NewTailConsumerClient(cfg.Kafka.Brokers, cfg.Kafka.ProgressTopic, ProgressGroupID(cfg.Kafka.GroupID, host))
}

// ProgressGroupID names the progress group of a server host. An unknown host
// gets a random name.
func ProgressGroupID(base, host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		host = uuid.NewString()
	}
	return base + "-progress-" + host
}

// KafkaClient bundles the worker side: tasks in, progress out.
type KafkaClient struct {
	Tasks    *ConsumerClient
	Progress *ProducerClient
}

func NewKafkaClient(cfg *config.Config) *KafkaClient {
	return &KafkaClient{
		Tasks:    NewTaskConsumer(cfg),
		Progress: NewProgressProducer(cfg),
	}
}

func (k *KafkaClient) Close() error {
	var errs []error

	if k.Tasks != nil {
		if err := k.Tasks.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if k.Progress != nil {
		if err := k.Progress.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
