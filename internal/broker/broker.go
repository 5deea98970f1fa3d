package broker

import (
	"context"

	"print-packager/internal/domain"

	"github.com/wb-go/wbf/retry"
)

type Message struct {
	Topic     string
	Partition int
	Key       []byte
	Value     []byte
	Offset    int64
}

type TaskProducer interface {
	SendTask(ctx context.Context, task *domain.BatchTask) error
	Close() error
}

type ProgressPublisher interface {
	SendProgress(ctx context.Context, event domain.ProgressEvent) error
	Close() error
}

type Consumer interface {
	Start(ctx context.Context, out chan<- *Message, strategy retry.Strategy)
	Commit(ctx context.Context, msg *Message) error
	Close() error
}
