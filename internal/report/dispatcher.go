package report

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"scam-honeypot/internal/session"
)

var (
	ErrAlreadySent = session.ErrAlreadySent
	ErrInFlight    = session.ErrInFlight
	ErrClosed      = errors.New("dispatcher closed")
)

// Outcome is the result of one delivery attempt.
type Outcome struct {
	DeliveryID string
	SessionID  string
	Report     Report
	Err        error
	Duration   time.Duration
}

// Observer receives delivery results, typically for metrics.
type Observer interface {
	ObserveDelivery(result string, d time.Duration)
}

type job struct {
	snap session.State
	out  chan Outcome
}

// Dispatcher delivers reports on a small worker pool. Offer never blocks
// the caller; Flush delivers on the caller's goroutine.
type Dispatcher struct {
	store    *session.Store
	sender   Sender
	minTurns int
	workers  int
	now      func() time.Time
	logger   *zap.Logger
	observer Observer

	jobs   chan job
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

type Option func(*Dispatcher)

func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

func WithQueue(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.jobs = make(chan job, n)
		}
	}
}

// WithMinTurns sets how many recorded turns a conversation needs before
// Offer will claim it.
func WithMinTurns(n int) Option {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.minTurns = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.observer = o }
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDispatcher starts the workers. Call Close to stop them.
func NewDispatcher(store *session.Store, sender Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:    store,
		sender:   sender,
		minTurns: 2,
		workers:  2,
		now:      time.Now,
		logger:   zap.NewNop(),
		jobs:     make(chan job, 64),
	}
	for _, o := range opts {
		o(d)
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.group = new(errgroup.Group)
	for i := 0; i < d.workers; i++ {
		d.group.Go(d.work)
	}
	return d
}

func (d *Dispatcher) work() error {
	for j := range d.jobs {
		j.out <- d.deliver(d.ctx, j.snap)
		close(j.out)
	}
	return nil
}

// Offer claims id for delivery if it is eligible and queues the send. The
// channel yields exactly one Outcome. ok is false when nothing was queued.
func (d *Dispatcher) Offer(id string) (<-chan Outcome, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, false
	}

	snap, err := d.store.Claim(id, d.minTurns, false)
	if err != nil {
		return nil, false
	}
	j := job{snap: snap, out: make(chan Outcome, 1)}
	select {
	case d.jobs <- j:
		d.logger.Debug("report queued", zap.String("session_id", id), zap.Int("turns", len(snap.Turns)))
		return j.out, true
	default:
		d.store.Complete(id, false)
		d.observe("queue_full", 0)
		d.logger.Warn("report queue full, will retry on next turn", zap.String("session_id", id))
		return nil, false
	}
}

// Flush builds and delivers the report for id now, without the turn and
// scam checks Offer applies. It returns ErrAlreadySent once a report has
// been delivered and ErrInFlight while a queued delivery is running.
func (d *Dispatcher) Flush(ctx context.Context, id string) (Outcome, error) {
	d.mu.RLock()
	closed := d.closed
	d.mu.RUnlock()
	if closed {
		return Outcome{}, ErrClosed
	}

	snap, err := d.store.Claim(id, 0, true)
	if err != nil {
		return Outcome{SessionID: id}, err
	}
	out := d.deliver(ctx, snap)
	return out, out.Err
}

func (d *Dispatcher) deliver(ctx context.Context, snap session.State) Outcome {
	start := d.now()
	out := Outcome{
		DeliveryID: uuid.NewString(),
		SessionID:  snap.ID,
		Report:     Build(snap, start),
	}
	out.Err = d.sender.Send(ctx, out.Report)
	out.Duration = time.Since(start)
	d.store.Complete(snap.ID, out.Err == nil)

	log := d.logger.With(
		zap.String("session_id", snap.ID),
		zap.String("delivery_id", out.DeliveryID),
		zap.Duration("took", out.Duration),
	)
	if out.Err != nil {
		d.observe("failed", out.Duration)
		log.Warn("report delivery failed", zap.Error(out.Err))
		return out
	}
	d.observe("sent", out.Duration)
	log.Info("report delivered",
		zap.Bool("scam_detected", out.Report.ScamDetected),
		zap.Int("messages", out.Report.TotalMessagesExchanged),
	)
	return out
}

func (d *Dispatcher) observe(result string, took time.Duration) {
	if d.observer != nil {
		d.observer.ObserveDelivery(result, took)
	}
}

// Pending is the number of queued deliveries.
func (d *Dispatcher) Pending() int { return len(d.jobs) }

// Close stops accepting work, lets queued deliveries finish and waits for
// the workers. Deliveries still running when ctx ends are cancelled.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- d.group.Wait() }()
	select {
	case err := <-done:
		d.cancel()
		return err
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}
