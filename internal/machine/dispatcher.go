package machine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"election-simulator/internal/command"
	"election-simulator/internal/election"
	"election-simulator/internal/logging"

	"github.com/sirupsen/logrus"
)

// ErrUnhandledCommand is returned when a parsed command has no handler
var ErrUnhandledCommand = errors.New("unhandled command")

// MaxLineSize is the longest input line that can be read. A longer line fails the read with bufio.ErrTooLong.
const MaxLineSize = 16 << 20

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	return scanner
}

// State of the dispatcher
type State int

const (
	Running State = iota
	Terminated
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// Outcome is what happened to one input line
type Outcome int

const (
	// Applied means the command ran and changed or reported state
	Applied Outcome = iota
	// Rejected means the command failed with a domain error, which was written to the record
	Rejected
	// Skipped means the line was not a recognized command
	Skipped
	// Ignored means the line arrived after the election terminated
	Ignored
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "Applied"
	case Rejected:
		return "Rejected"
	case Skipped:
		return "Skipped"
	case Ignored:
		return "Ignored"
	default:
		return "Unknown"
	}
}

// MetricsCollector receives one call per stepped line
type MetricsCollector interface {
	RecordApplied(tag string, latency time.Duration)
	RecordRejected(tag, kind string, latency time.Duration)
	RecordSkipped()
}

type noopMetrics struct{}

func (noopMetrics) RecordApplied(string, time.Duration)          {}
func (noopMetrics) RecordRejected(string, string, time.Duration) {}
func (noopMetrics) RecordSkipped()                               {}

// Dispatcher turns input lines into operations on an Election. Like the Election it drives, it belongs to a single
// goroutine.
type Dispatcher struct {
	election *election.Election
	state    State

	logger  logrus.FieldLogger
	metrics MetricsCollector
}

type Option func(*Dispatcher)

func WithLogger(logger logrus.FieldLogger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithMetrics(metrics MetricsCollector) Option {
	return func(d *Dispatcher) {
		d.metrics = metrics
	}
}

func NewDispatcher(e *election.Election, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		election: e,
		state:    Running,
		logger:   logging.Discard(),
		metrics:  noopMetrics{},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.Component(d.logger, "dispatcher", e.ID().String())
	if e.Done() {
		d.state = Terminated
	}
	return d
}

func (d *Dispatcher) Election() *election.Election {
	return d.election
}

func (d *Dispatcher) State() State {
	return d.state
}

func (d *Dispatcher) Terminated() bool {
	return d.state == Terminated
}

// Step processes one input line. Domain errors are not returned: they are written to the record and reported as
// Rejected. A non-nil error means the dispatcher itself failed.
func (d *Dispatcher) Step(line string) (Outcome, error) {
	if d.state == Terminated {
		d.logger.WithField("line", line).Debug("[DISPATCH] Ignoring line after exit")
		return Ignored, nil
	}

	cmd, ok := command.Parse(line)
	if !ok {
		d.logger.WithField("line", line).Debug("[DISPATCH] Skipping unrecognized line")
		d.metrics.RecordSkipped()
		return Skipped, nil
	}

	tag := string(cmd.Tag())
	start := time.Now()
	err := d.apply(cmd)
	latency := time.Since(start)

	if err != nil {
		de, ok := election.AsError(err)
		if !ok {
			return Rejected, fmt.Errorf("apply %s: %w", tag, err)
		}

		d.election.Record().Reject(de.LogMessage())
		d.metrics.RecordRejected(tag, de.Kind.String(), latency)
		d.logger.WithFields(logrus.Fields{
			"tag":  tag,
			"kind": de.Kind.String(),
		}).Infof("[DISPATCH] Rejected %s", cmd)
		return Rejected, nil
	}

	d.metrics.RecordApplied(tag, latency)
	d.logger.WithField("tag", tag).Debugf("[DISPATCH] Applied %s", cmd)

	if d.election.Done() {
		d.state = Terminated
		d.logger.Info("[DISPATCH] Election terminated")
	}
	return Applied, nil
}

func (d *Dispatcher) apply(cmd command.Command) error {
	e := d.election

	switch c := cmd.(type) {
	case command.Vote:
		return e.CastVote(c.Candidate, c.Voter)
	case command.Register:
		e.RegisterVoter(c.Voter, c.Party)
	case command.Reset:
		e.Reset()
	case command.Candidate:
		e.RegisterCandidate(c.Name, c.Party)
	case command.List:
		_, err := e.ListCandidates(c.Voter)
		return err
	case command.Tally:
		e.Tally()
	case command.Dump:
		e.Dump()
	case command.Exit:
		e.Exit()
	default:
		return fmt.Errorf("%w: %T", ErrUnhandledCommand, cmd)
	}
	return nil
}

// Process steps every line of r until the election terminates, r is exhausted or ctx is cancelled
func (d *Dispatcher) Process(ctx context.Context, r io.Reader) error {
	scanner := newLineScanner(r)

	for d.state == Running && scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := d.Step(scanner.Text()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read commands: %w", err)
	}
	return nil
}
