package kafka

import (
	"context"
	"errors"

	"image-labeler/internal/broker"
	"image-labeler/internal/config"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// Client pairs the job request consumer with the run event producer.
type Client struct {
	*ConsumerClient
	producer *ProducerClient
}

func NewClient(cfg *config.Config, logger *zlog.Zerolog) *Client {
	return &Client{
		ConsumerClient: NewConsumerClient(cfg, logger),
		producer:       NewProducerClient(cfg),
	}
}

func (k *Client) Send(ctx context.Context, strategy retry.Strategy, key, value []byte) error {
	return k.producer.Send(ctx, strategy, key, value)
}

func (k *Client) Producer() broker.Producer {
	return k.producer
}

func (k *Client) Close() error {
	var errs []error

	if k.producer != nil {
		if err := k.producer.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if k.ConsumerClient != nil {
		if err := k.ConsumerClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
