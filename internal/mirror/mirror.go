package mirror

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"sawmill/internal/points"
	"sawmill/internal/sim"
)

const DEFAULT_QUEUE_SIZE = 64

// Mirror is a scheduler observer. It snapshots the registry after every
// completed tick and hands the snapshot to a background publisher; when the
// queue is full the snapshot is dropped.
type Mirror struct {
	runID     string
	profile   string
	reg       *points.Registry
	publisher Publisher
	log       logrus.FieldLogger

	queue   chan Snapshot
	dropped atomic.Uint64
	failed  atomic.Uint64
	sent    atomic.Uint64

	wg        sync.WaitGroup
	closeOnce sync.Once
}

func New(runID, profile string, reg *points.Registry, p Publisher, queueSize int, log logrus.FieldLogger) *Mirror {
	if queueSize <= 0 {
		queueSize = DEFAULT_QUEUE_SIZE
	}
	return &Mirror{
		runID:     runID,
		profile:   profile,
		reg:       reg,
		publisher: p,
		log:       log.WithField("component", "mirror"),
		queue:     make(chan Snapshot, queueSize),
	}
}

// ObserveTick never blocks.
func (m *Mirror) ObserveTick(res sim.TickResult, state sim.SimulationState) {
	if res.Err != nil {
		return
	}
	snap := Snapshot{
		RunID:   m.runID,
		Tick:    state.Ticks,
		Time:    res.Time,
		Profile: m.profile,
		Alarm:   res.Alarm.String(),
		Points:  m.reg.Snapshot(),
	}
	select {
	case m.queue <- snap:
	default:
		if m.dropped.Add(1)%100 == 1 {
			m.log.WithField("dropped", m.dropped.Load()).Warn("Mirror queue full, dropping snapshots")
		}
	}
}

// Start publishes queued snapshots until Close.
func (m *Mirror) Start(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for snap := range m.queue {
			m.publish(ctx, snap)
		}
	}()
}

func (m *Mirror) publish(ctx context.Context, snap Snapshot) {
	payload, err := snap.Encode()
	if err != nil {
		m.log.WithError(err).Error("Failed to encode snapshot")
		m.failed.Add(1)
		return
	}
	if err := m.publisher.Publish(ctx, m.runID+"/"+strconv.FormatUint(snap.Tick, 10), payload); err != nil {
		if m.failed.Add(1)%100 == 1 {
			m.log.WithError(err).Warn("Failed to publish snapshot")
		}
		return
	}
	m.sent.Add(1)
}

// Close drains the queue, waits for the publisher goroutine and closes the
// publisher. The mirror must not be observed after Close.
func (m *Mirror) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.queue)
		m.wg.Wait()
		err = m.publisher.Close()
		m.log.WithFields(logrus.Fields{
			"sent":    m.sent.Load(),
			"failed":  m.failed.Load(),
			"dropped": m.dropped.Load(),
		}).Info("Mirror closed")
	})
	return err
}

func (m *Mirror) Sent() uint64    { return m.sent.Load() }
func (m *Mirror) Failed() uint64  { return m.failed.Load() }
func (m *Mirror) Dropped() uint64 { return m.dropped.Load() }
