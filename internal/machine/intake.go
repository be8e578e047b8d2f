package machine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"election-simulator/internal/logging"
	"election-simulator/internal/pubsub"

	"github.com/sirupsen/logrus"
)

// ErrIntakeClosed is returned by Submit once the intake stops accepting lines
var ErrIntakeClosed = errors.New("intake is closed")

// ElectionClosed is published on the bus when the intake consumer stops
const ElectionClosed pubsub.EventType = iota

// ClosedPayload describes why the intake stopped
type ClosedPayload struct {
	ElectionID string
	// Terminated is true when an Exit command ended the election, false when the intake was closed or cancelled first
	Terminated bool
	Processed  int
}

// Line is one submitted input line and the voting machine it came from
type Line struct {
	Source string
	Text   string
}

type QueueMetrics interface {
	RecordQueued()
}

// Intake lets several voting machines submit lines concurrently. A single consumer (Run) steps them through the
// Dispatcher in arrival order.
type Intake struct {
	dispatcher *Dispatcher
	queue      chan Line

	// mu guards closed and keeps Close from closing the queue under a sender
	mu     sync.RWMutex
	closed bool

	closing   chan struct{}
	closeOnce sync.Once
	stopped   chan struct{}
	stopOnce  sync.Once

	bus     *pubsub.Bus
	metrics QueueMetrics
	logger  logrus.FieldLogger
}

type IntakeOption func(*Intake)

// WithBus publishes ElectionClosed on bus when the consumer stops
func WithBus(bus *pubsub.Bus) IntakeOption {
	return func(in *Intake) {
		in.bus = bus
	}
}

func WithQueueMetrics(metrics QueueMetrics) IntakeOption {
	return func(in *Intake) {
		in.metrics = metrics
	}
}

func WithIntakeLogger(logger logrus.FieldLogger) IntakeOption {
	return func(in *Intake) {
		in.logger = logger
	}
}

// NewIntake creates an intake whose queue holds up to size pending lines
func NewIntake(d *Dispatcher, size int, opts ...IntakeOption) *Intake {
	if size < 0 {
		size = 0
	}

	in := &Intake{
		dispatcher: d,
		queue:      make(chan Line, size),
		closing:    make(chan struct{}),
		stopped:    make(chan struct{}),
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.logger = logging.Component(in.logger, "intake", d.Election().ID().String())
	return in
}

// Submit queues text for the consumer. The voting machine name is taken from ctx (see WithSource). It blocks while
// the queue is full and returns ErrIntakeClosed once the intake has been closed or the election has ended.
func (in *Intake) Submit(ctx context.Context, text string) error {
	in.mu.RLock()
	defer in.mu.RUnlock()

	if in.closed {
		return ErrIntakeClosed
	}
	select {
	case <-in.stopped:
		return ErrIntakeClosed
	default:
	}

	source, _ := SourceFrom(ctx)
	select {
	case in.queue <- Line{Source: source, Text: text}:
		if in.metrics != nil {
			in.metrics.RecordQueued()
		}
		return nil
	case <-in.closing:
		return ErrIntakeClosed
	case <-in.stopped:
		return ErrIntakeClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting lines. Lines already queued are still processed by Run. It is safe to call more than once.
func (in *Intake) Close() {
	in.closeOnce.Do(func() {
		// Wake blocked submitters before waiting for the lock they hold
		close(in.closing)

		in.mu.Lock()
		in.closed = true
		close(in.queue)
		in.mu.Unlock()

		in.logger.Debug("[INTAKE] Closed")
	})
}

// Done is closed when the consumer has stopped
func (in *Intake) Done() <-chan struct{} {
	return in.stopped
}

// Run consumes queued lines until the election terminates, the intake is closed and drained, or ctx is cancelled.
// Only one goroutine may call Run.
func (in *Intake) Run(ctx context.Context) error {
	processed := 0
	defer func() {
		in.stop(processed)
	}()

	if in.dispatcher.Terminated() {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-in.queue:
			if !ok {
				return nil
			}

			outcome, err := in.dispatcher.Step(line.Text)
			if err != nil {
				return fmt.Errorf("step line from %q: %w", line.Source, err)
			}
			processed++

			in.logger.WithFields(logrus.Fields{
				"source":  line.Source,
				"outcome": outcome.String(),
			}).Debugf("[INTAKE] %s", line.Text)

			if in.dispatcher.Terminated() {
				return nil
			}
		}
	}
}

func (in *Intake) stop(processed int) {
	in.stopOnce.Do(func() {
		close(in.stopped)

		in.mu.Lock()
		in.closed = true
		in.mu.Unlock()

		payload := ClosedPayload{
			ElectionID: in.dispatcher.Election().ID().String(),
			Terminated: in.dispatcher.Terminated(),
			Processed:  processed,
		}
		in.logger.Infof("[INTAKE] Stopped after %d lines (terminated=%t)", processed, payload.Terminated)

		if in.bus != nil {
			pubsub.Publish(in.bus, pubsub.NewEvent(ElectionClosed, payload))
		}
	})
}

// Feed submits every line of r as source until r is exhausted or the election closes. A closed election is not an
// error for a producer. Feed watches for ElectionClosed on the intake's bus (or for the intake to stop when there is
// no bus), so it returns as soon as the election is over even while r is blocked waiting for more input.
func Feed(ctx context.Context, in *Intake, source string, r io.Reader) error {
	ctx = WithSource(ctx, source)
	logger := in.logger.WithField("source", source)

	var events chan *pubsub.Event[ClosedPayload]
	var stopped <-chan struct{}
	if in.bus != nil {
		events = make(chan *pubsub.Event[ClosedPayload], 1)
		id := pubsub.Subscribe(in.bus, ElectionClosed, events, pubsub.SubscriptionOptions{})
		defer func() {
			if n := in.bus.Dropped(ElectionClosed, id); n > 0 {
				logger.Warnf("[INTAKE] Missed %d close events", n)
			}
			in.bus.Unsubscribe(ElectionClosed, id)
		}()
	} else {
		stopped = in.Done()
	}

	// The event was published before the subscription existed
	select {
	case <-in.Done():
		return nil
	default:
	}

	lines := make(chan string)
	readErr := make(chan error, 1)
	quit := make(chan struct{})
	defer close(quit)

	go func() {
		defer close(lines)
		scanner := newLineScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-quit:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if ok {
				logger.Infof("[INTAKE] Election closed after %d lines (terminated=%t), stopping",
					ev.Payload.Processed, ev.Payload.Terminated)
			}
			return nil
		case <-stopped:
			return nil
		case text, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("read commands from %s: %w", source, err)
				}
				return nil
			}

			err := in.Submit(ctx, text)
			if errors.Is(err, ErrIntakeClosed) {
				return nil
			}
			if err != nil {
				return err
			}
		}
	}
}
