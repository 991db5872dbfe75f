package sim

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"sawmill/internal/sink"
)

const DEFAULT_TICK_INTERVAL = 1 * time.Second

type SchedulerState int32

const (
	Stopped SchedulerState = iota
	Running
)

func (s SchedulerState) String() string {
	if s == Running {
		return "RUNNING"
	}
	return "STOPPED"
}

// Observer is handed every tick result together with a copy of the state
// after the tick. Observers run on the tick goroutine and must not block.
type Observer interface {
	ObserveTick(res TickResult, state SimulationState)
}

type ObserverFunc func(res TickResult, state SimulationState)

func (f ObserverFunc) ObserveTick(res TickResult, state SimulationState) { f(res, state) }

// Scheduler drives the engine once per interval until stopped.
type Scheduler struct {
	engine    *Engine
	sink      sink.Sink
	state     *SimulationState
	interval  time.Duration
	clock     func() time.Time
	log       logrus.FieldLogger
	observers []Observer

	running  atomic.Int32
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	doneOnce sync.Once
}

func NewScheduler(
	engine *Engine,
	s sink.Sink,
	state *SimulationState,
	interval time.Duration,
	log logrus.FieldLogger,
	observers ...Observer,
) *Scheduler {
	if interval <= 0 {
		interval = DEFAULT_TICK_INTERVAL
	}
	return &Scheduler{
		engine:    engine,
		sink:      s,
		state:     state,
		interval:  interval,
		clock:     time.Now,
		log:       log.WithField("component", "scheduler"),
		observers: observers,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// WithClock replaces the wall clock used to time ticks.
func (s *Scheduler) WithClock(clock func() time.Time) *Scheduler {
	s.clock = clock
	return s
}

func (s *Scheduler) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

func (s *Scheduler) State() SchedulerState {
	return SchedulerState(s.running.Load())
}

// Done is closed once Run has returned, including when Run refused to start
// because Stop came first.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

func (s *Scheduler) finish() {
	s.doneOnce.Do(func() { close(s.done) })
}

// Run blocks, ticking once per interval, until Stop is called or ctx is
// cancelled. The stop condition is only checked between ticks: a tick that
// has started always runs to completion.
func (s *Scheduler) Run(ctx context.Context) error {
	select {
	case <-s.stopCh:
		s.finish()
		return errors.New("scheduler already stopped")
	default:
	}
	if !s.running.CompareAndSwap(int32(Stopped), int32(Running)) {
		return errors.New("scheduler already running")
	}
	defer s.finish()

	s.log.WithField("interval", s.interval).Info("Simulation started")

	tickCtx := context.WithoutCancel(ctx)
	sleeper := time.NewTimer(s.interval)
	sleeper.Stop()

	for s.State() == Running {
		res := s.engine.Tick(tickCtx, s.clock(), s.sink, s.state)
		if res.Err != nil {
			s.log.WithError(res.Err).Error("Error in simulation update, tick abandoned")
		}
		for _, o := range s.observers {
			o.ObserveTick(res, *s.state)
		}

		sleeper.Reset(s.interval)
		select {
		case <-sleeper.C:
		case <-s.stopCh:
			sleeper.Stop()
		case <-ctx.Done():
			sleeper.Stop()
			s.running.Store(int32(Stopped))
		}
	}

	s.log.WithField("ticks", s.state.Ticks).Info("Simulation stopped")
	return nil
}

// Stop moves the scheduler to STOPPED. It is safe to call more than once and
// before Run.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.running.Store(int32(Stopped))
		close(s.stopCh)
	})
}
