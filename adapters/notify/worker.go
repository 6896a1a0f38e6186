package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type deliveryWorkerOptions struct {
	logger       *slog.Logger
	parseFunc    func(map[string]any) (Event, error)
	blockTimeout time.Duration
}

type DeliveryWorkerOption func(*deliveryWorkerOptions)

// WithDeliveryWorkerLogger 設置日誌記錄器
func WithDeliveryWorkerLogger(logger *slog.Logger) DeliveryWorkerOption {
	return func(o *deliveryWorkerOptions) {
		o.logger = logger
	}
}

// WithDeliveryWorkerParseFunc 設置訊息解析函數
func WithDeliveryWorkerParseFunc(fn func(map[string]any) (Event, error)) DeliveryWorkerOption {
	return func(o *deliveryWorkerOptions) {
		o.parseFunc = fn
	}
}

// WithDeliveryWorkerBlockTimeout 設置阻塞讀取超時時間
func WithDeliveryWorkerBlockTimeout(d time.Duration) DeliveryWorkerOption {
	return func(o *deliveryWorkerOptions) {
		o.blockTimeout = d
	}
}

// DeliveryWorker 從Redis Stream讀取通知事件並交給deliverer遞送
// 使用consumer group讓多個服務實例分攤遞送工作；遞送是best-effort，
// 解析或遞送失敗的訊息會被移到dead-letter stream，不會無限重試
type DeliveryWorker struct {
	client     *redis.Client
	stream     string
	group      string
	consumer   string
	deliverer  IDeliverer
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	closed     bool
	logger     *slog.Logger
	options    deliveryWorkerOptions
}

func NewDeliveryWorker(
	client *redis.Client,
	stream, group, consumer string,
	deliverer IDeliverer,
	opts ...DeliveryWorkerOption,
) (*DeliveryWorker, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if stream == "" || group == "" || consumer == "" {
		return nil, errors.New("stream, group and consumer cannot be empty")
	}
	if deliverer == nil {
		return nil, errors.New("deliverer cannot be nil")
	}

	// 默認選項
	options := deliveryWorkerOptions{
		logger:       slog.Default(),
		parseFunc:    ParseFromMessage,
		blockTimeout: time.Second,
	}

	// 應用自定義選項
	for _, opt := range opts {
		opt(&options)
	}

	worker := &DeliveryWorker{
		client:    client,
		stream:    stream,
		group:     group,
		consumer:  consumer,
		deliverer: deliverer,
		closed:    true,
		logger:    options.logger.With(slog.String("caller", "DeliveryWorker"), slog.String("stream", stream), slog.String("group", group), slog.String("consumer", consumer)),
		options:   options,
	}

	return worker, nil
}

func (w *DeliveryWorker) Start() error {
	if !w.closed {
		return nil
	}

	// 確保consumer group存在，已存在的BUSYGROUP錯誤可以忽略
	if err := w.client.XGroupCreateMkStream(context.Background(), w.stream, w.group, "0").Err(); err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancelFunc = cancel
	w.closed = false
	w.logger.Info("starting delivery worker")

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.logger.Info("delivery worker goroutine stopped")

		for {
			if ctx.Err() != nil {
				return
			}
			message, err := w.fetchNextMessage(ctx)
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				if errors.Is(err, context.Canceled) {
					return
				}
				// 其他的錯誤一般是跟redis之間的通訊異常，重試即可
				w.logger.Error("fetch message error", slog.Any("error", err))
				continue
			}
			w.handleMessage(ctx, message)
		}
	}()

	return nil
}

func (w *DeliveryWorker) Close() error {
	if w.closed {
		return nil
	}
	w.logger.Info("closing delivery worker")
	w.closed = true
	w.cancelFunc()
	w.wg.Wait()
	w.logger.Info("delivery worker closed gracefully")
	return nil
}

func (w *DeliveryWorker) fetchNextMessage(ctx context.Context) (redis.XMessage, error) {
	var message redis.XMessage

	streams, err := w.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    w.group,
		Consumer: w.consumer,
		Streams:  []string{w.stream, ">"},
		Count:    1,
		Block:    w.options.blockTimeout,
	}).Result()
	if len(streams) > 0 && len(streams[0].Messages) > 0 {
		message = streams[0].Messages[0]
	}

	return message, err
}

func (w *DeliveryWorker) handleMessage(ctx context.Context, message redis.XMessage) {
	event, err := w.options.parseFunc(message.Values)
	if err != nil {
		// 解析失敗不會因為重試就成功，移到dead-letter後繼續處理下一條
		w.logger.Error("failed to parse message",
			slog.String("messageId", message.ID),
			slog.Any("error", err),
		)
		if deadLetterErr := w.moveToDeadLetter(ctx, message, err); deadLetterErr != nil {
			w.logger.Error("error moving message to dead letter",
				slog.String("messageId", message.ID),
				slog.Any("error", deadLetterErr),
			)
		}
		return
	}

	if err := w.deliverer.Deliver(ctx, event); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		// 遞送是best-effort，失敗的事件進dead-letter留待人工處理
		w.logger.Error("failed to deliver event",
			slog.String("messageId", message.ID),
			slog.String("type", string(event.Type)),
			slog.Any("error", err),
		)
		if deadLetterErr := w.moveToDeadLetter(ctx, message, err); deadLetterErr != nil {
			w.logger.Error("error moving message to dead letter",
				slog.String("messageId", message.ID),
				slog.Any("error", deadLetterErr),
			)
		}
		return
	}

	if err := w.client.XAck(ctx, w.stream, w.group, message.ID).Err(); err != nil {
		w.logger.Error("failed to ack message",
			slog.String("messageId", message.ID),
			slog.Any("error", err),
		)
		return
	}
	w.logger.Debug("event delivered", slog.String("messageId", message.ID), slog.String("type", string(event.Type)))
}

// moveToDeadLetter 將處理失敗的訊息移到dead-letter stream並確認原訊息
func (w *DeliveryWorker) moveToDeadLetter(ctx context.Context, message redis.XMessage, failErr error) error {
	values := make(map[string]any, len(message.Values)+1)
	for k, v := range message.Values {
		values[k] = v
	}
	values["error"] = failErr.Error()

	err := w.client.XAdd(ctx, &redis.XAddArgs{
		Stream: w.stream + ":dead-letter",
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to move message to dead letter queue: %w", err)
	}

	// 確認原消息
	return w.client.XAck(ctx, w.stream, w.group, message.ID).Err()
}
