package app

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/jamroom/internal/metrics"
	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/Freeeeeet/jamroom/internal/notify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sendTimeout = 10 * time.Second

// Dispatcher доставляет уведомления в фоне: Notify кладёт сообщение в
// ограниченную очередь, воркер раздаёт его всем отправителям.
// Всё, что принято в очередь до остановки, будет доставлено.
type Dispatcher struct {
	senders  []notify.Sender
	queue    chan model.Notification
	logger   *zap.Logger
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// mu разделяет постановку в очередь и закрытие диспетчера
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher создаёт диспетчер с очередью размера queueSize
func NewDispatcher(queueSize int, logger *zap.Logger, senders ...notify.Sender) *Dispatcher {
	return &Dispatcher{
		senders:  senders,
		queue:    make(chan model.Notification, queueSize),
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start запускает воркер доставки
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("Starting notification dispatcher", zap.Int("senders", len(d.senders)))

	go d.run(ctx)
}

// Stop останавливает воркер; уже поставленные в очередь уведомления доставляются
func (d *Dispatcher) Stop() {
	d.shutdown()
	<-d.done
}

func (d *Dispatcher) shutdown() {
	d.stopOnce.Do(func() {
		d.logger.Info("Stopping notification dispatcher")
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		close(d.stopChan)
	})
}

// Notify ставит уведомление в очередь и никогда не блокирует вызывающего.
// При переполненной очереди уведомление отбрасывается.
func (d *Dispatcher) Notify(_ context.Context, n model.Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(n, "dispatcher stopped")
		return
	}

	select {
	case d.queue <- n:
		metrics.NotificationQueueDepth.Set(float64(len(d.queue)))
	default:
		d.drop(n, "queue full")
	}
}

func (d *Dispatcher) drop(n model.Notification, reason string) {
	metrics.NotificationsTotal.WithLabelValues("dispatcher", "dropped").Inc()
	d.logger.Warn("Notification dropped",
		zap.String("reason", reason),
		zap.String("notification_id", n.ID),
		zap.Int64("user_id", n.UserID),
		zap.String("kind", string(n.Kind)),
	)
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)

	for {
		select {
		case n := <-d.queue:
			d.deliver(ctx, n)
		case <-d.stopChan:
			d.drain(ctx)
			d.logger.Info("Notification dispatcher stopped")
			return
		case <-ctx.Done():
			d.shutdown()
			d.drain(ctx)
			d.logger.Info("Notification dispatcher cancelled")
			return
		}
	}
}

// drain вызывается после закрытия: новых уведомлений в очереди уже не будет
func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case n := <-d.queue:
			d.deliver(ctx, n)
		default:
			return
		}
	}
}

// deliver отправляет уведомление всеми отправителями; ошибки только логируются
func (d *Dispatcher) deliver(ctx context.Context, n model.Notification) {
	metrics.NotificationQueueDepth.Set(float64(len(d.queue)))

	for _, sender := range d.senders {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
		err := sender.Send(sendCtx, n)
		cancel()

		if err != nil {
			metrics.NotificationsTotal.WithLabelValues(sender.Name(), "failed").Inc()
			d.logger.Warn("Failed to deliver notification",
				zap.String("sender", sender.Name()),
				zap.String("notification_id", n.ID),
				zap.Int64("user_id", n.UserID),
				zap.Error(err),
			)
			continue
		}
		metrics.NotificationsTotal.WithLabelValues(sender.Name(), "sent").Inc()
	}
}
