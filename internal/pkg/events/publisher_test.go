package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *captureWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublisher_WritesEnvelope(t *testing.T) {
	w := &captureWriter{}
	p := NewPublisher(w)
	fixed := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	payload := map[string]interface{}{"title": "Run", "currentStreak": 2}
	require.NoError(t, p.Publish(context.Background(), "habit.completed", "65f1c2a9e4b0a1b2c3d4e5f6", payload))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	require.Equal(t, "65f1c2a9e4b0a1b2c3d4e5f6", string(msg.Key))
	require.Equal(t, fixed, msg.Time)
	require.Equal(t, "event-type", msg.Headers[0].Key)
	require.Equal(t, "habit.completed", string(msg.Headers[0].Value))

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	require.Equal(t, "habit.completed", env.EventType)
	require.True(t, env.OccurredAt.Equal(fixed))
	_, err := uuid.Parse(env.EventID)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Payload, &body))
	require.Equal(t, "Run", body["title"])
}

func TestPublisher_UniqueEventIDs(t *testing.T) {
	w := &captureWriter{}
	p := NewPublisher(w)

	for i := 0; i < 3; i++ {
		require.NoError(t, p.Publish(context.Background(), "habit.created", "k", struct{}{}))
	}

	seen := map[string]bool{}
	for _, m := range w.messages {
		var env Envelope
		require.NoError(t, json.Unmarshal(m.Value, &env))
		require.False(t, seen[env.EventID])
		seen[env.EventID] = true
	}
}

func TestPublisher_WriteError(t *testing.T) {
	w := &captureWriter{err: errors.New("leader not available")}
	p := NewPublisher(w)

	err := p.Publish(context.Background(), "habit.deleted", "k", struct{}{})
	require.ErrorIs(t, err, w.err)

	require.NoError(t, p.Close())
	require.True(t, w.closed)
}

func TestPublisher_UnmarshalablePayload(t *testing.T) {
	p := NewPublisher(&captureWriter{})
	err := p.Publish(context.Background(), "habit.updated", "k", make(chan int))
	require.Error(t, err)
}
