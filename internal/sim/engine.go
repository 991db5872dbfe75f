package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"sawmill/internal/points"
	"sawmill/internal/sink"
)

type AlarmReason int

const (
	AlarmNone AlarmReason = iota
	AlarmHighPower
	AlarmHighTemperature
	AlarmHighVibration
	AlarmRandomFault
)

func (r AlarmReason) String() string {
	switch r {
	case AlarmNone:
		return "none"
	case AlarmHighPower:
		return "high_power"
	case AlarmHighTemperature:
		return "high_temperature"
	case AlarmHighVibration:
		return "high_vibration"
	case AlarmRandomFault:
		return "random_fault"
	default:
		return fmt.Sprintf("alarm(%d)", int(r))
	}
}

// TickResult reports what one tick did. Err is a *SinkReadError or
// *SinkWriteError when the tick was abandoned.
type TickResult struct {
	Time       time.Time
	Duration   time.Duration
	Toggled    bool
	Active     bool
	Working    bool
	Updated    bool
	PieceAdded bool
	Alarm      AlarmReason
	Err        error
}

type Engine struct {
	profile Profile
	cadence Cadence
	rnd     Rand
	log     logrus.FieldLogger
}

func NewEngine(profile Profile, cadence Cadence, rnd Rand, log logrus.FieldLogger) *Engine {
	profile.Validate()
	return &Engine{
		profile: profile,
		cadence: cadence,
		rnd:     rnd,
		log:     log.WithField("component", "engine"),
	}
}

func (e *Engine) Profile() Profile {
	return e.profile
}

// Tick runs one simulation step against s at wall-clock time now.
func (e *Engine) Tick(ctx context.Context, now time.Time, s sink.Sink, state *SimulationState) (res TickResult) {
	start := time.Now()
	res.Time = now
	defer func() {
		res.Duration = time.Since(start)
		if res.Err == nil {
			state.Ticks++
		}
	}()

	io := &tickIO{ctx: ctx, sink: s, state: state}

	active, err := io.readBool(points.IS_ACTIVE)
	if err != nil {
		res.Err = err
		return res
	}
	working, err := io.readBool(points.IS_WORKING)
	if err != nil {
		res.Err = err
		return res
	}

	// 1. Duty cycle.
	if e.cadence.Due(now) {
		active, working = !active, !working
		if res.Err = io.writeAll(
			points.IS_ACTIVE, active,
			points.IS_WORKING, working,
			points.IS_STOPPED, !active,
		); res.Err != nil {
			return res
		}
		res.Toggled = true
		e.log.WithFields(logrus.Fields{"active": active, "working": working}).Info("Toggled machine state")
	}
	res.Active, res.Working = active, working

	// 2. An idle machine keeps every reading as it is.
	if !active {
		return res
	}

	// 3-4. Sensors and derived power.
	fresh, err := e.walkSensors(io)
	if err != nil {
		res.Err = err
		return res
	}
	res.Updated = true

	if !working {
		return res
	}

	// 5a. Output counter.
	if e.rnd.Float64() < e.profile.PieceProbability {
		pieces, err := io.readInt32(points.PIECES_COUNT)
		if err != nil {
			res.Err = err
			return res
		}
		if res.Err = io.write(points.PIECES_COUNT, pieces+1); res.Err != nil {
			return res
		}
		res.PieceAdded = true
	}

	// 5b. Alarms.
	res.Alarm, res.Err = e.evaluateAlarms(io, fresh)
	if res.Err == nil {
		state.LastAlarm = res.Alarm
	}
	return res
}

// walkSensors advances every walked point and the derived power, writing
// each value as soon as it is computed. It returns the fresh values by point.
func (e *Engine) walkSensors(io *tickIO) (map[string]float64, error) {
	fresh := make(map[string]float64, 4+len(e.profile.Sensors))

	step := func(w Walk) (float64, error) {
		prev, err := io.readFloat(w.Point)
		if err != nil {
			return 0, err
		}
		next := w.Next(prev, e.rnd)
		if err := io.write(w.Point, next); err != nil {
			return 0, err
		}
		fresh[w.Point] = next
		return next, nil
	}

	cutting, err := step(e.profile.CuttingSpeed)
	if err != nil {
		return nil, err
	}

	motor, err := step(e.profile.MotorSpeed)
	if err != nil {
		return nil, err
	}
	if e.profile.MotorMirror != "" {
		if err := io.write(e.profile.MotorMirror, motor); err != nil {
			return nil, err
		}
		fresh[e.profile.MotorMirror] = motor
	}

	power := e.profile.Power.Next(cutting, e.rnd)
	if err := io.write(points.POWER_CONSUMPTION, power); err != nil {
		return nil, err
	}
	fresh[points.POWER_CONSUMPTION] = power

	for _, w := range e.profile.Sensors {
		if _, err := step(w); err != nil {
			return nil, err
		}
	}

	return fresh, nil
}

// evaluateAlarms applies the alarm rules in priority order. A threshold hit
// only sets has_alarm and a random fault only sets has_error; both flags are
// cleared when nothing fires.
func (e *Engine) evaluateAlarms(io *tickIO, fresh map[string]float64) (AlarmReason, error) {
	for _, rule := range e.profile.Alarms {
		v, ok := fresh[rule.Point]
		if !ok || v <= rule.Threshold {
			continue
		}
		if err := io.write(points.HAS_ALARM, true); err != nil {
			return AlarmNone, err
		}
		e.log.WithFields(logrus.Fields{
			"reason":    rule.Reason.String(),
			"point":     rule.Point,
			"value":     fmt.Sprintf("%.1f", v),
			"threshold": rule.Threshold,
		}).Warn("Alarm triggered")
		return rule.Reason, nil
	}

	if e.rnd.Float64() < e.profile.FaultProbability {
		if err := io.write(points.HAS_ERROR, true); err != nil {
			return AlarmNone, err
		}
		e.log.Warn("Random error triggered")
		return AlarmRandomFault, nil
	}

	if err := io.writeAll(points.HAS_ALARM, false, points.HAS_ERROR, false); err != nil {
		return AlarmNone, err
	}
	return AlarmNone, nil
}

// tickIO funnels every sink access of a tick, wraps failures in the tick
// error types and keeps the simulation state in step with what was
// exchanged.
type tickIO struct {
	ctx   context.Context
	sink  sink.Sink
	state *SimulationState
}

func (t *tickIO) read(name string) (any, error) {
	v, err := t.sink.Read(t.ctx, name)
	if err != nil {
		return nil, &SinkReadError{Point: name, Err: err}
	}
	if err := t.state.apply(name, v); err != nil {
		return nil, &SinkReadError{Point: name, Err: err}
	}
	return v, nil
}

func (t *tickIO) readBool(name string) (bool, error) {
	v, err := t.read(name)
	if err != nil {
		return false, err
	}
	return asBool(name, v)
}

func (t *tickIO) readFloat(name string) (float64, error) {
	v, err := t.read(name)
	if err != nil {
		return 0, err
	}
	return asFloat(name, v)
}

func (t *tickIO) readInt32(name string) (int32, error) {
	v, err := t.read(name)
	if err != nil {
		return 0, err
	}
	return asInt32(name, v)
}

func (t *tickIO) write(name string, value any) error {
	if err := t.sink.Write(t.ctx, name, value); err != nil {
		return &SinkWriteError{Point: name, Err: err}
	}
	return t.state.apply(name, value)
}

// writeAll writes name/value pairs in order and stops at the first failure.
func (t *tickIO) writeAll(pairs ...any) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := t.write(pairs[i].(string), pairs[i+1]); err != nil {
			return err
		}
	}
	return nil
}
