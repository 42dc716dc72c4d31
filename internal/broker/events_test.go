package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"image-labeler/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"
)

type fakeProducer struct {
	key, value []byte
	err        error
}

func (p *fakeProducer) Send(ctx context.Context, strategy retry.Strategy, key, value []byte) error {
	p.key, p.value = key, value
	return p.err
}

func (p *fakeProducer) Close() error { return nil }

func TestEventPublisher_Publish(t *testing.T) {
	prod := &fakeProducer{}
	pub := NewEventPublisher(prod, retry.Strategy{Attempts: 1})

	err := pub.Publish(context.Background(), domain.Event{
		Type:      domain.EventProgress,
		RunID:     "run-9",
		Processed: 2,
		Total:     5,
	})
	require.NoError(t, err)

	assert.Equal(t, "run-9", string(prod.key))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(prod.value, &got))
	assert.Equal(t, "progress", got["type"])
	assert.EqualValues(t, 2, got["processed"])
	assert.NotContains(t, got, "Preview")
}

func TestEventPublisher_SendError(t *testing.T) {
	boom := errors.New("broker down")
	pub := NewEventPublisher(&fakeProducer{err: boom}, retry.Strategy{Attempts: 1})

	err := pub.Publish(context.Background(), domain.Event{Type: domain.EventDone, RunID: "x"})
	assert.ErrorIs(t, err, boom)
}
