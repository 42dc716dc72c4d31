package broker

import (
	"context"

	"github.com/wb-go/wbf/retry"
)

type Message struct {
	Topic     string
	Partition int
	Key       []byte
	Value     []byte
	Offset    int64
}

type Producer interface {
	Send(ctx context.Context, strategy retry.Strategy, key, value []byte) error
	Close() error
}

type Consumer interface {
	Fetch(ctx context.Context, strategy retry.Strategy) (*Message, error)
	Commit(ctx context.Context, msg *Message) error
	// Start fetches until ctx is done and closes out afterwards.
	Start(ctx context.Context, out chan<- *Message, strategy retry.Strategy)
	Close() error
}
