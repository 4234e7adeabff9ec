package ws

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"social-relay/observability"
)

func TestClient_ConsumeQueuesEnvelope(t *testing.T) {
	req := require.New(t)
	stats := observability.NewRelayStats()
	client := NewClient("conn-1", nil, slog.Default(), stats)

	// When an event is consumed
	req.NoError(client.Consume(context.Background(), "user_status", map[string]string{"userId": "alice"}))

	// Then it sits in the send queue as a wire envelope
	envelope := <-client.send
	req.Equal("user_status", envelope.Event)
	req.JSONEq(`{"userId":"alice"}`, string(envelope.Data))
}

func TestClient_ConsumeDropsWhenBufferFull(t *testing.T) {
	req := require.New(t)
	stats := observability.NewRelayStats()
	client := NewClient("conn-1", nil, slog.Default(), stats)

	// Given a completely full send buffer
	for i := 0; i < sendBufferSize; i++ {
		req.NoError(client.Consume(context.Background(), "new_message", nil))
	}

	// When one more event arrives
	req.NoError(client.Consume(context.Background(), "new_message", nil))

	// Then it is dropped and counted, never blocking the caller
	snapshot := stats.Snapshot()
	req.EqualValues(1, snapshot["DroppedDeliveries"])
	req.Len(client.send, sendBufferSize)
}

func TestClient_ConsumeAfterCloseDropsInsteadOfPanicking(t *testing.T) {
	req := require.New(t)
	stats := observability.NewRelayStats()
	client := NewClient("conn-1", nil, slog.Default(), stats)

	// Given a connection already torn down
	client.Close()

	// When a racing room emission still reaches the sink
	req.NotPanics(func() {
		req.NoError(client.Consume(context.Background(), "user_status", nil))
	})

	// Then the frame is just another counted best-effort drop
	snapshot := stats.Snapshot()
	req.EqualValues(1, snapshot["DroppedDeliveries"])

	// And closing again is harmless
	req.NotPanics(client.Close)
}

func TestClient_ConsumeRejectsUnmarshalablePayload(t *testing.T) {
	req := require.New(t)
	client := NewClient("conn-1", nil, slog.Default(), observability.NewRelayStats())

	err := client.Consume(context.Background(), "new_message", func() {})
	req.Error(err)
}
