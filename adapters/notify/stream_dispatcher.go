package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/smallnest/chanx"
)

type streamDispatcherOptions struct {
	logger     *slog.Logger
	bufferSize int
	parseFunc  func(Event) (map[string]any, error)
}

type StreamDispatcherOption func(*streamDispatcherOptions)

// WithStreamDispatcherLogger 設置日誌記錄器
func WithStreamDispatcherLogger(logger *slog.Logger) StreamDispatcherOption {
	return func(o *streamDispatcherOptions) {
		o.logger = logger
	}
}

// WithStreamDispatcherBufferSize 設置緩衝大小
func WithStreamDispatcherBufferSize(size int) StreamDispatcherOption {
	return func(o *streamDispatcherOptions) {
		o.bufferSize = size
	}
}

// WithStreamDispatcherParseFunc 設置事件序列化函數
func WithStreamDispatcherParseFunc(fn func(Event) (map[string]any, error)) StreamDispatcherOption {
	return func(o *streamDispatcherOptions) {
		o.parseFunc = fn
	}
}

// StreamDispatcher 將通知事件發佈到Redis Stream
// 事件先進到無上限channel，由背景goroutine負責XADD，呼叫端永遠不會被Redis阻塞；
// 實際遞送由訂閱同一個stream的DeliveryWorker處理，達成at-least-once-attempted
type StreamDispatcher struct {
	client     *redis.Client
	stream     string
	upstream   *chanx.UnboundedChan[map[string]any]
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	closed     bool
	logger     *slog.Logger
	options    streamDispatcherOptions
}

func NewStreamDispatcher(client *redis.Client, stream string, opts ...StreamDispatcherOption) (*StreamDispatcher, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if stream == "" {
		return nil, errors.New("stream cannot be empty")
	}

	// 默認選項
	options := streamDispatcherOptions{
		logger:     slog.Default(),
		bufferSize: 100,
		parseFunc:  ParseToMessage,
	}

	// 應用自定義選項
	for _, opt := range opts {
		opt(&options)
	}

	dispatcher := &StreamDispatcher{
		client:  client,
		stream:  stream,
		closed:  true,
		logger:  options.logger.With(slog.String("caller", "StreamDispatcher"), slog.String("stream", stream)),
		options: options,
	}

	return dispatcher, nil
}

func (d *StreamDispatcher) Start() {
	if !d.closed {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.upstream = chanx.NewUnboundedChan[map[string]any](ctx, d.options.bufferSize)
	d.cancelFunc = cancel
	d.closed = false
	d.logger.Info("starting stream dispatcher")

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.logger.Info("dispatcher goroutine stopped")

		for {
			select {
			case <-ctx.Done():
				return
			case message := <-d.upstream.Out:
				id, err := d.client.XAdd(ctx, &redis.XAddArgs{
					Stream: d.stream,
					Values: message,
				}).Result()

				if err != nil {
					if errors.Is(err, context.Canceled) {
						return
					}
					// 發佈失敗只記錄，不影響已提交的核心狀態
					d.logger.Error("publish event error", slog.Any("error", err))
					continue
				}

				d.logger.Debug("event published", slog.String("messageId", id))
			}
		}
	}()
}

func (d *StreamDispatcher) Notify(event Event) error {
	if d.closed {
		return ErrDispatcherClosed
	}

	message, err := d.options.parseFunc(event)
	if err != nil {
		return fmt.Errorf("parse event error: %w", err)
	}

	d.upstream.In <- message
	return nil
}

func (d *StreamDispatcher) Close() {
	if d.closed {
		return
	}
	d.logger.Info("closing stream dispatcher")
	d.closed = true
	d.cancelFunc()
	d.wg.Wait()
	d.logger.Info("stream dispatcher closed")
}
