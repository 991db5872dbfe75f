package sim

import (
	"math"

	"github.com/pkg/errors"

	"sawmill/internal/points"
	u "sawmill/internal/utils"
)

const (
	PROFILE_FULL  = "full"
	PROFILE_BASIC = "basic"
)

// Walk is a bounded random walk: next = clamp(prev + U(StepLow, StepHigh), Min, Max).
type Walk struct {
	Point    string
	StepLow  float64
	StepHigh float64
	Min      float64
	Max      float64
}

func (w Walk) Next(prev float64, rnd Rand) float64 {
	return clamp(prev+uniform(rnd, w.StepLow, w.StepHigh), w.Min, w.Max)
}

// PowerModel derives power consumption from the cutting speed:
// Base + (cutting_speed - SpeedTarget) * Slope + U(-Noise, Noise), clamped.
type PowerModel struct {
	Base        float64
	SpeedTarget float64
	Slope       float64
	Noise       float64
	Min         float64
	Max         float64
}

// Raw is the power before clamping for a given noise term.
func (p PowerModel) Raw(cuttingSpeed, noise float64) float64 {
	return p.Base + (cuttingSpeed-p.SpeedTarget)*p.Slope + noise
}

func (p PowerModel) Next(cuttingSpeed float64, rnd Rand) float64 {
	return clamp(p.Raw(cuttingSpeed, uniform(rnd, -p.Noise, p.Noise)), p.Min, p.Max)
}

// AlarmRule raises has_alarm when Point's fresh value exceeds Threshold.
type AlarmRule struct {
	Point     string
	Threshold float64
	Reason    AlarmReason
}

// Profile is one parameter set of the simulation rules.
type Profile struct {
	Name         string
	CuttingSpeed Walk
	MotorSpeed   Walk
	// Sensors are walked after the derived power, in order.
	Sensors []Walk
	// MotorMirror receives a copy of the motor speed when set.
	MotorMirror      string
	Power            PowerModel
	PieceProbability float64
	FaultProbability float64
	// Alarms are evaluated in priority order; the first match wins.
	Alarms      []AlarmRule
	Definitions func() []points.Definition
}

func FullProfile() Profile {
	return Profile{
		Name:         PROFILE_FULL,
		CuttingSpeed: Walk{Point: points.CUTTING_SPEED, StepLow: -2, StepHigh: 2, Min: 15, Max: 25},
		MotorSpeed: Walk{
			Point:   points.MOTOR_SPEED,
			StepLow: -90, StepHigh: 90,
			Min: points.SEED_MOTOR_SPEED - 90, Max: points.SEED_MOTOR_SPEED + 90,
		},
		Sensors: []Walk{
			{Point: points.TEMPERATURE, StepLow: -0.2, StepHigh: 0.3, Min: 40, Max: 60},
			{Point: points.VIBRATION, StepLow: -0.3, StepHigh: 0.3, Min: 2, Max: 10},
			{Point: points.PRESSURE, StepLow: -2, StepHigh: 2, Min: 150, Max: 200},
		},
		MotorMirror: points.SPEED,
		Power: PowerModel{
			Base:        points.SEED_POWER_FULL,
			SpeedTarget: points.SEED_CUTTING_SPEED,
			Slope:       2.0,
			Noise:       1.0,
			Min:         60,
			Max:         90,
		},
		PieceProbability: 0.2,
		FaultProbability: 0.01,
		Alarms: []AlarmRule{
			{Point: points.POWER_CONSUMPTION, Threshold: 85, Reason: AlarmHighPower},
			{Point: points.TEMPERATURE, Threshold: 55, Reason: AlarmHighTemperature},
			{Point: points.VIBRATION, Threshold: 8, Reason: AlarmHighVibration},
		},
		Definitions: points.FullDefinitions,
	}
}

// BasicProfile has no Sensors folder and a small-machine power baseline.
func BasicProfile() Profile {
	return Profile{
		Name:         PROFILE_BASIC,
		CuttingSpeed: Walk{Point: points.CUTTING_SPEED, StepLow: -2, StepHigh: 2, Min: 15, Max: 25},
		MotorSpeed: Walk{
			Point:   points.MOTOR_SPEED,
			StepLow: -90, StepHigh: 90,
			Min: points.SEED_MOTOR_SPEED - 90, Max: points.SEED_MOTOR_SPEED + 90,
		},
		Power: PowerModel{
			Base:        points.SEED_POWER_BASIC,
			SpeedTarget: points.SEED_CUTTING_SPEED,
			Slope:       0.2,
			Noise:       0.1,
			Min:         6,
			Max:         10,
		},
		PieceProbability: 0.2,
		FaultProbability: 0.01,
		Alarms: []AlarmRule{
			{Point: points.POWER_CONSUMPTION, Threshold: 9.5, Reason: AlarmHighPower},
		},
		Definitions: points.BasicDefinitions,
	}
}

func ProfileByName(name string) (Profile, error) {
	switch name {
	case PROFILE_FULL, "":
		return FullProfile(), nil
	case PROFILE_BASIC:
		return BasicProfile(), nil
	default:
		return Profile{}, errors.Errorf("unknown simulation profile %q", name)
	}
}

// Validate panics when the profile references points its own definitions
// do not register.
func (p Profile) Validate() {
	reg := points.NewRegistry(p.Definitions())

	checks := []u.Assertion{
		{Message: "cutting speed point registered", Condition: reg.Has(p.CuttingSpeed.Point)},
		{Message: "motor speed point registered", Condition: reg.Has(p.MotorSpeed.Point)},
		{Message: "motor mirror registered", Condition: p.MotorMirror == "" || reg.Has(p.MotorMirror)},
		{Message: "power range ordered", Condition: p.Power.Min <= p.Power.Max},
	}
	for _, w := range append([]Walk{p.CuttingSpeed, p.MotorSpeed}, p.Sensors...) {
		checks = append(checks,
			u.Assertion{Message: w.Point + " registered", Condition: reg.Has(w.Point)},
			u.Assertion{Message: w.Point + " range ordered", Condition: w.Min <= w.Max},
		)
	}
	for _, a := range p.Alarms {
		checks = append(checks, u.Assertion{Message: a.Point + " alarm point registered", Condition: reg.Has(a.Point)})
	}

	u.AssertMultiple("Profile.Validate("+p.Name+")", checks)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func uniform(rnd Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rnd.Float64()
}
