package alert

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"stockbot/internal/logging"
)

// State is the scheduler state.
type State int32

const (
	StateIdle State = iota
	StateEvaluating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEvaluating:
		return "evaluating"
	default:
		return "unknown"
	}
}

// Cycler runs one evaluation cycle. *Evaluator implements it.
type Cycler interface {
	RunCycle(ctx context.Context) (CycleReport, error)
}

// Loop runs cycles back to back with a fixed delay between the end of one
// cycle and the start of the next.
type Loop struct {
	cycler   Cycler
	interval time.Duration
	state    atomic.Int32
	logger   zerolog.Logger
}

// NewLoop creates a Loop. A non-positive interval defaults to one minute.
func NewLoop(cycler Cycler, interval time.Duration, logger zerolog.Logger) *Loop {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Loop{
		cycler:   cycler,
		interval: interval,
		logger:   logging.WithComponent(logger, "alert-loop"),
	}
}

// State reports whether a cycle is in flight.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Run starts a cycle immediately and keeps going until ctx is cancelled.
// Cycle errors are logged and never stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info().Dur("interval", l.interval).Msg("Notification loop started")

	for {
		if _, err := l.RunOnce(ctx); err != nil && ctx.Err() == nil {
			l.logger.Error().Err(err).Msg("Evaluation cycle failed")
		}

		timer := time.NewTimer(l.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			l.logger.Info().Msg("Notification loop stopped")
			return nil
		case <-timer.C:
		}
	}
}

// RunOnce runs a single cycle.
func (l *Loop) RunOnce(ctx context.Context) (CycleReport, error) {
	l.state.Store(int32(StateEvaluating))
	defer l.state.Store(int32(StateIdle))

	report, err := l.cycler.RunCycle(ctx)
	if err != nil {
		return report, err
	}

	l.logger.Debug().
		Int("rules", report.Rules).
		Int("symbols", report.Symbols).
		Int("triggered", report.Triggered).
		Int("skipped", report.Skipped).
		Int("send_failures", report.SendFailures).
		Dur("duration", report.Duration).
		Msg("Evaluation cycle finished")
	return report, nil
}
