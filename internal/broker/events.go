package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"image-labeler/internal/domain"

	"github.com/wb-go/wbf/retry"
)

// EventPublisher sends run events as JSON keyed by run id.
type EventPublisher struct {
	producer Producer
	strategy retry.Strategy
}

func NewEventPublisher(producer Producer, strategy retry.Strategy) *EventPublisher {
	return &EventPublisher{
		producer: producer,
		strategy: strategy,
	}
}

func (p *EventPublisher) Publish(ctx context.Context, ev domain.Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.producer.Send(ctx, p.strategy, []byte(ev.RunID), value); err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}
	return nil
}
