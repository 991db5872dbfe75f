// Package metrics exports tick results and point values to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"sawmill/internal/points"
	"sawmill/internal/sim"
)

const namespace = "sawmill"

const (
	RESULT_OK        = "ok"
	RESULT_READ_ERR  = "read_error"
	RESULT_WRITE_ERR = "write_error"
	RESULT_OTHER_ERR = "error"
)

type Metrics struct {
	Registry *prometheus.Registry

	ticks        *prometheus.CounterVec
	tickDuration prometheus.Histogram
	toggles      prometheus.Counter
	alarms       *prometheus.CounterVec
	pieces       prometheus.Gauge
	points       *prometheus.GaugeVec
	active       prometheus.Gauge

	reg *points.Registry
}

func New(reg *points.Registry) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		reg:      reg,
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Simulation ticks by result.",
		}, []string{"result"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent in one simulation tick.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		toggles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_toggles_total",
			Help:      "Machine on/off toggles.",
		}),
		alarms: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alarms_total",
			Help:      "Alarms and faults raised, by reason.",
		}, []string{"reason"}),
		pieces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pieces",
			Help:      "Current value of the pieces counter.",
		}),
		points: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "point_value",
			Help:      "Last value exchanged with the sink, booleans as 0/1.",
		}, []string{"point", "group"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "machine_active",
			Help:      "1 while the machine is active.",
		}),
	}

	m.Registry.MustRegister(
		m.ticks, m.tickDuration, m.toggles, m.alarms, m.pieces, m.points, m.active,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveTick is the scheduler observer.
func (m *Metrics) ObserveTick(res sim.TickResult, state sim.SimulationState) {
	m.ticks.WithLabelValues(resultLabel(res.Err)).Inc()
	m.tickDuration.Observe(res.Duration.Seconds())
	if res.Err != nil {
		return
	}

	if res.Toggled {
		m.toggles.Inc()
	}
	if res.Alarm != sim.AlarmNone {
		m.alarms.WithLabelValues(res.Alarm.String()).Inc()
	}
	m.pieces.Set(float64(state.Counters.PiecesCount))
	m.active.Set(boolValue(state.Machine.Active))

	for _, d := range m.reg.Definitions() {
		v, err := m.reg.Get(d.Name)
		if err != nil {
			continue
		}
		if f, ok := numeric(v); ok {
			m.points.WithLabelValues(d.Name, string(d.Group)).Set(f)
		}
	}
}

func resultLabel(err error) string {
	switch err.(type) {
	case nil:
		return RESULT_OK
	case *sim.SinkReadError:
		return RESULT_READ_ERR
	case *sim.SinkWriteError:
		return RESULT_WRITE_ERR
	default:
		return RESULT_OTHER_ERR
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case bool:
		return boolValue(x), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}
