//go:generate mockgen -package=notify -destination=mock.go -source=dispatcher.go

package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/smallnest/chanx"
)

var (
	ErrDispatcherClosed = errors.New("dispatcher is closed")
)

// IDispatcher 定義了通知派送器的操作介面
// Notify 只保證「已進入佇列或已記錄失敗」，絕不阻塞呼叫端，
// 也絕不因為派送失敗影響已提交的核心狀態
type IDispatcher interface {
	Start()
	Notify(event Event) error
	Close()
}

// IDeliverer 定義了實際遞送通知的介面
// 信件寄送是外部協作者，核心只依賴這個抽象
type IDeliverer interface {
	Deliver(ctx context.Context, event Event) error
}

// LogDeliverer 只記錄通知內容，作為沒有設定外部遞送服務時的預設實作
type LogDeliverer struct {
	Logger *slog.Logger
}

func (d *LogDeliverer) Deliver(_ context.Context, event Event) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, recipient := range event.Recipients {
		logger.Info("deliver notification",
			slog.String("type", string(event.Type)),
			slog.String("recipient", recipient.Email),
			slog.Any("payload", event.Payload),
		)
	}
	return nil
}

// ChannelDispatcher 是行程內的通知派送器
// 透過無上限channel緩衝事件，由背景goroutine逐一交給deliverer遞送，
// 用於沒有設定Redis的單節點部署
type ChannelDispatcher struct {
	deliverer  IDeliverer
	upstream   *chanx.UnboundedChan[Event]
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	closed     bool
	logger     *slog.Logger
	bufferSize int
}

type ChannelDispatcherOption func(*ChannelDispatcher)

// WithChannelDispatcherLogger 設置日誌記錄器
func WithChannelDispatcherLogger(logger *slog.Logger) ChannelDispatcherOption {
	return func(d *ChannelDispatcher) {
		d.logger = logger
	}
}

// WithChannelDispatcherBufferSize 設置初始緩衝大小
func WithChannelDispatcherBufferSize(size int) ChannelDispatcherOption {
	return func(d *ChannelDispatcher) {
		d.bufferSize = size
	}
}

func NewChannelDispatcher(deliverer IDeliverer, opts ...ChannelDispatcherOption) (*ChannelDispatcher, error) {
	if deliverer == nil {
		return nil, errors.New("deliverer cannot be nil")
	}

	dispatcher := &ChannelDispatcher{
		deliverer:  deliverer,
		closed:     true,
		logger:     slog.Default(),
		bufferSize: 100,
	}
	for _, opt := range opts {
		opt(dispatcher)
	}
	dispatcher.logger = dispatcher.logger.With(slog.String("caller", "ChannelDispatcher"))

	return dispatcher, nil
}

func (d *ChannelDispatcher) Start() {
	if !d.closed {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.upstream = chanx.NewUnboundedChan[Event](ctx, d.bufferSize)
	d.cancelFunc = cancel
	d.closed = false
	d.logger.Info("starting channel dispatcher")

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.logger.Info("dispatcher goroutine stopped")

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-d.upstream.Out:
				if err := d.deliverer.Deliver(ctx, event); err != nil {
					if errors.Is(err, context.Canceled) {
						return
					}
					// 遞送失敗只記錄，不回滾任何核心狀態
					d.logger.Error("deliver event error",
						slog.String("type", string(event.Type)),
						slog.Any("error", err),
					)
					continue
				}
				d.logger.Debug("event delivered", slog.String("type", string(event.Type)))
			}
		}
	}()
}

func (d *ChannelDispatcher) Notify(event Event) error {
	if d.closed {
		return ErrDispatcherClosed
	}
	d.upstream.In <- event
	return nil
}

func (d *ChannelDispatcher) Close() {
	if d.closed {
		return
	}
	d.logger.Info("closing channel dispatcher")
	d.closed = true
	d.cancelFunc()
	d.wg.Wait()
	d.logger.Info("channel dispatcher closed")
}
