package notify

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func init() {
	// 將日誌輸出重定向到io.Discard
	log.SetOutput(io.Discard)
}

func setupTest(t *testing.T) (*redis.Client, redismock.ClientMock, func()) {
	db, mock := redismock.NewClientMock()
	return db, mock, func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	}
}

func sampleEvent() Event {
	return Event{
		Type: EventOfferSubmitted,
		Recipients: []Recipient{{
			UserID: uuid.New(),
			Name:   "Test Customer",
			Email:  "customer@example.com",
		}},
		Payload: map[string]string{
			"year":         "2022",
			"make":         "Toyota",
			"model":        "Camry",
			"offeredPrice": "28500.00",
		},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

// recordingDeliverer 記錄收到的事件，可設定固定的遞送錯誤
type recordingDeliverer struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (d *recordingDeliverer) Deliver(_ context.Context, event Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDeliverer) delivered() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Event(nil), d.events...)
}

// waitFor 輪詢直到條件成立或逾時
func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
