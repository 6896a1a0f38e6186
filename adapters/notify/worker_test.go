package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestNewDeliveryWorker(t *testing.T) {
	client, _, _ := setupTest(t)
	defer client.Close()

	tests := []struct {
		name      string
		client    *redis.Client
		stream    string
		group     string
		consumer  string
		deliverer IDeliverer
		wantErr   string
	}{
		{
			name:      "valid configuration",
			client:    client,
			stream:    "test-stream",
			group:     "test-group",
			consumer:  "worker-1",
			deliverer: &recordingDeliverer{},
		},
		{
			name:      "nil client",
			client:    nil,
			stream:    "test-stream",
			group:     "test-group",
			consumer:  "worker-1",
			deliverer: &recordingDeliverer{},
			wantErr:   "redis client cannot be nil",
		},
		{
			name:      "empty stream",
			client:    client,
			stream:    "",
			group:     "test-group",
			consumer:  "worker-1",
			deliverer: &recordingDeliverer{},
			wantErr:   "stream, group and consumer cannot be empty",
		},
		{
			name:      "empty group",
			client:    client,
			stream:    "test-stream",
			group:     "",
			consumer:  "worker-1",
			deliverer: &recordingDeliverer{},
			wantErr:   "stream, group and consumer cannot be empty",
		},
		{
			name:     "nil deliverer",
			client:   client,
			stream:   "test-stream",
			group:    "test-group",
			consumer: "worker-1",
			wantErr:  "deliverer cannot be nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			worker, err := NewDeliveryWorker(tt.client, tt.stream, tt.group, tt.consumer, tt.deliverer)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, worker)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, worker)
			}
		})
	}
}

func TestDeliveryWorker_ConsumesAndAcks(t *testing.T) {
	defer goleak.VerifyNone(t)
	client, mock, cleanup := setupTest(t)
	defer cleanup()

	event := sampleEvent()
	message, err := ParseToMessage(event)
	require.NoError(t, err)

	mock.ExpectXGroupCreateMkStream("test-stream", "test-group", "0").SetVal("OK")
	mock.ExpectXReadGroup(&redis.XReadGroupArgs{
		Group:    "test-group",
		Consumer: "worker-1",
		Streams:  []string{"test-stream", ">"},
		Count:    1,
		Block:    time.Second,
	}).SetVal([]redis.XStream{
		{
			Stream: "test-stream",
			Messages: []redis.XMessage{
				{ID: "1234-0", Values: map[string]any{"data": message["data"]}},
			},
		},
	})
	mock.ExpectXAck("test-stream", "test-group", "1234-0").SetVal(1)

	deliverer := &recordingDeliverer{}
	worker, err := NewDeliveryWorker(client, "test-stream", "test-group", "worker-1", deliverer,
		WithDeliveryWorkerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	require.NoError(t, worker.Start())
	waitFor(t, func() bool { return len(deliverer.delivered()) == 1 })
	require.NoError(t, worker.Close())

	delivered := deliverer.delivered()
	assert.Equal(t, event.Type, delivered[0].Type)
	assert.Equal(t, event.Payload, delivered[0].Payload)
}

func TestDeliveryWorker_ExistingGroupIsNotAnError(t *testing.T) {
	defer goleak.VerifyNone(t)
	client, mock, cleanup := setupTest(t)
	defer cleanup()

	mock.ExpectXGroupCreateMkStream("test-stream", "test-group", "0").
		SetErr(errors.New("BUSYGROUP Consumer Group name already exists"))

	worker, err := NewDeliveryWorker(client, "test-stream", "test-group", "worker-1", &recordingDeliverer{},
		WithDeliveryWorkerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	require.NoError(t, worker.Start())
	require.NoError(t, worker.Close())
}

func TestDeliveryWorker_HandleMessage(t *testing.T) {
	t.Run("unparsable message goes to the dead-letter stream", func(t *testing.T) {
		client, mock, cleanup := setupTest(t)
		defer cleanup()

		mock.ExpectXAdd(&redis.XAddArgs{
			Stream: "test-stream:dead-letter",
			Values: map[string]any{
				"data":  "garbage",
				"error": "schema mismatch",
			},
		}).SetVal("9999-0")
		mock.ExpectXAck("test-stream", "test-group", "1234-0").SetVal(1)

		worker, err := NewDeliveryWorker(client, "test-stream", "test-group", "worker-1", &recordingDeliverer{},
			WithDeliveryWorkerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			WithDeliveryWorkerParseFunc(func(map[string]any) (Event, error) {
				return Event{}, errors.New("schema mismatch")
			}))
		require.NoError(t, err)

		worker.handleMessage(context.Background(), redis.XMessage{
			ID:     "1234-0",
			Values: map[string]any{"data": "garbage"},
		})
	})

	t.Run("delivery failure goes to the dead-letter stream", func(t *testing.T) {
		client, mock, cleanup := setupTest(t)
		defer cleanup()

		message, err := ParseToMessage(sampleEvent())
		require.NoError(t, err)

		mock.ExpectXAdd(&redis.XAddArgs{
			Stream: "test-stream:dead-letter",
			Values: map[string]any{
				"data":  message["data"],
				"error": "smtp unavailable",
			},
		}).SetVal("9999-0")
		mock.ExpectXAck("test-stream", "test-group", "1234-0").SetVal(1)

		deliverer := &recordingDeliverer{err: errors.New("smtp unavailable")}
		worker, err := NewDeliveryWorker(client, "test-stream", "test-group", "worker-1", deliverer,
			WithDeliveryWorkerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
		require.NoError(t, err)

		worker.handleMessage(context.Background(), redis.XMessage{
			ID:     "1234-0",
			Values: map[string]any{"data": message["data"]},
		})
		assert.Empty(t, deliverer.delivered())
	})
}
