package notify

import (
	"context"
	"sync"
	"time"

	"github.com/DRSN-tech/ordering-backend/pkg/logger"
)

const defaultSendTimeout = 5 * time.Second

// Dispatcher: асинхронная очередь уведомлений.
// Publish никогда не блокирует запрос: при переполненной или закрытой очереди событие отбрасывается.
// Ошибки доставки логируются и не повторяются.
type Dispatcher struct {
	sink        Sink
	logger      logger.Logger
	observer    Observer
	queue       chan *Event
	sendTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(sink Sink, queueSize int, logger logger.Logger, observer Observer) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}

	return &Dispatcher{
		sink:        sink,
		logger:      logger,
		observer:    observer,
		queue:       make(chan *Event, queueSize),
		sendTimeout: defaultSendTimeout,
	}
}

// Publish ставит событие в очередь и сразу возвращает управление.
func (d *Dispatcher) Publish(_ context.Context, channel string, payload any) {
	ev, err := NewEvent(channel, payload)
	if err != nil {
		d.logger.Errorf(err, "failed to encode notification. channel: %s", channel)
		d.observe(channel, OutcomeFailed)
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warnf("notification dropped, dispatcher is stopped. channel: %s", channel)
		d.observe(channel, OutcomeDropped)
		return
	}

	select {
	case d.queue <- ev:
	default:
		d.logger.Warnf("notification dropped, queue is full. channel: %s, event_id: %s", channel, ev.ID)
		d.observe(channel, OutcomeDropped)
	}
}

// Start запускает воркер, который доставляет события до закрытия очереди.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run()
	}()
}

// Stop закрывает очередь и ждёт, пока воркер доставит оставшиеся события.
// Если ctx истекает раньше, Stop возвращает ошибку контекста.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	for ev := range d.queue {
		d.deliver(ev)
	}
	d.logger.Infof("notification dispatcher stopped")
}

func (d *Dispatcher) deliver(ev *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	if err := d.sink.Send(ctx, ev); err != nil {
		d.logger.Errorf(err, "failed to deliver notification. channel: %s, event_id: %s", ev.Channel, ev.ID)
		d.observe(ev.Channel, OutcomeFailed)
		return
	}

	d.observe(ev.Channel, OutcomePublished)
}

func (d *Dispatcher) observe(channel, outcome string) {
	if d.observer != nil {
		d.observer.ObserveNotification(channel, outcome)
	}
}
