package sim

import (
	"github.com/pkg/errors"

	"sawmill/internal/points"
)

type MachineState struct {
	Active  bool
	Working bool
	Stopped bool
}

type SensorReadings struct {
	CuttingSpeed     float64 // m/min
	MotorSpeed       float64 // RPM
	PowerConsumption float64 // kW
	Temperature      float64 // °C
	Vibration        float64 // mm/s RMS
	Pressure         float64 // bar
	Speed            float64 // mirrors MotorSpeed
}

type Counters struct {
	PiecesCount int32
}

type AlarmState struct {
	HasAlarm bool
	HasError bool
}

// SimulationState is the single live copy of everything the simulation
// mutates. It is owned by the scheduler and handed to each tick by pointer.
type SimulationState struct {
	Machine   MachineState
	Sensors   SensorReadings
	Counters  Counters
	Alarms    AlarmState
	LastAlarm AlarmReason
	Ticks     uint64
}

// NewSimulationState builds the startup state from the registry seeds.
func NewSimulationState(reg *points.Registry) *SimulationState {
	s := &SimulationState{}
	for _, d := range reg.Definitions() {
		_ = s.apply(d.Name, d.Seed)
	}
	return s
}

// apply records a value exchanged with the sink under its point name.
func (s *SimulationState) apply(name string, value any) error {
	switch name {
	case points.IS_ACTIVE:
		return setBool(&s.Machine.Active, name, value)
	case points.IS_WORKING:
		return setBool(&s.Machine.Working, name, value)
	case points.IS_STOPPED:
		return setBool(&s.Machine.Stopped, name, value)
	case points.HAS_ALARM:
		return setBool(&s.Alarms.HasAlarm, name, value)
	case points.HAS_ERROR:
		return setBool(&s.Alarms.HasError, name, value)
	case points.CUTTING_SPEED:
		return setFloat(&s.Sensors.CuttingSpeed, name, value)
	case points.MOTOR_SPEED:
		return setFloat(&s.Sensors.MotorSpeed, name, value)
	case points.POWER_CONSUMPTION:
		return setFloat(&s.Sensors.PowerConsumption, name, value)
	case points.TEMPERATURE:
		return setFloat(&s.Sensors.Temperature, name, value)
	case points.VIBRATION:
		return setFloat(&s.Sensors.Vibration, name, value)
	case points.PRESSURE:
		return setFloat(&s.Sensors.Pressure, name, value)
	case points.SPEED:
		return setFloat(&s.Sensors.Speed, name, value)
	case points.PIECES_COUNT:
		n, err := asInt32(name, value)
		if err != nil {
			return err
		}
		s.Counters.PiecesCount = n
		return nil
	default:
		return &points.UnknownPointError{Name: name}
	}
}

func setBool(dst *bool, name string, value any) error {
	b, err := asBool(name, value)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func setFloat(dst *float64, name string, value any) error {
	f, err := asFloat(name, value)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}

func asBool(name string, value any) (bool, error) {
	b, ok := value.(bool)
	if !ok {
		return false, errors.Errorf("point %s: expected bool, got %T", name, value)
	}
	return b, nil
}

// asFloat accepts any numeric type; remote servers may hand back floats of a
// different width than the ones written.
func asFloat(name string, value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	default:
		return 0, errors.Errorf("point %s: expected number, got %T", name, value)
	}
}

func asInt32(name string, value any) (int32, error) {
	switch v := value.(type) {
	case int32:
		return v, nil
	case int64:
		return int32(v), nil
	case int:
		return int32(v), nil
	case uint32:
		return int32(v), nil
	case int16:
		return int32(v), nil
	default:
		return 0, errors.Errorf("point %s: expected integer, got %T", name, value)
	}
}
