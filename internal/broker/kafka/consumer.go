package kafka

import (
	"context"
	"errors"
	"time"

	"image-labeler/internal/broker"
	"image-labeler/internal/config"

	kafka "github.com/segmentio/kafka-go"
	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

const fetchBackoff = time.Second

type ConsumerClient struct {
	consumer *wbkafka.Consumer
	logger   *zlog.Zerolog
}

// NewConsumerClient reads job requests.
func NewConsumerClient(cfg *config.Config, logger *zlog.Zerolog) *ConsumerClient {
	return &ConsumerClient{
		consumer: wbkafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.JobsTopic, cfg.Kafka.GroupID),
		logger:   logger,
	}
}

func toMessage(m kafka.Message) *broker.Message {
	return &broker.Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Key:       m.Key,
		Value:     m.Value,
		Offset:    m.Offset,
	}
}

func (c *ConsumerClient) Fetch(ctx context.Context, strategy retry.Strategy) (*broker.Message, error) {
	m, err := c.consumer.FetchWithRetry(ctx, strategy)
	if err != nil {
		return nil, err
	}
	return toMessage(m), nil
}

func (c *ConsumerClient) Commit(ctx context.Context, msg *broker.Message) error {
	return c.consumer.Commit(ctx, kafka.Message{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Key:       msg.Key,
	})
}

func (c *ConsumerClient) Start(ctx context.Context, out chan<- *broker.Message, strategy retry.Strategy) {
	go func() {
		defer close(out)
		for {
			msg, err := c.Fetch(ctx, strategy)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					return
				}
				c.logger.Error().Err(err).Msg("Failed to fetch message")
				select {
				case <-ctx.Done():
					return
				case <-time.After(fetchBackoff):
				}
				continue
			}

			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (c *ConsumerClient) Close() error {
	return c.consumer.Close()
}
