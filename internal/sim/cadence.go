package sim

import (
	"math/rand/v2"
	"time"

	"github.com/pkg/errors"
)

const (
	CADENCE_WALLCLOCK = "wallclock"
	CADENCE_COUNTDOWN = "countdown"

	DEFAULT_TOGGLE_EVERY = 10
)

// Cadence decides on which ticks the machine's on/off state flips.
type Cadence interface {
	Due(now time.Time) bool
}

// WallClockCadence fires whenever the current second of the minute is a
// multiple of Every. It is a level check: a late or early tick can skip or
// repeat a toggle. Every must divide 60 or the minute wrap shortens the last
// period.
type WallClockCadence struct {
	Every int
}

func (c WallClockCadence) Due(now time.Time) bool {
	return now.Second()%c.Every == 0
}

// CountdownCadence fires once every Every ticks, independent of wall time.
type CountdownCadence struct {
	Every     int
	remaining int
}

func NewCountdownCadence(every int) *CountdownCadence {
	return &CountdownCadence{Every: every, remaining: every}
}

func (c *CountdownCadence) Due(time.Time) bool {
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = c.Every
		return true
	}
	return false
}

func CadenceByName(name string, every int) (Cadence, error) {
	if every <= 0 {
		every = DEFAULT_TOGGLE_EVERY
	}
	switch name {
	case CADENCE_WALLCLOCK, "":
		if 60%every != 0 {
			return nil, errors.Errorf("wallclock cadence needs a divisor of 60, got %d", every)
		}
		return WallClockCadence{Every: every}, nil
	case CADENCE_COUNTDOWN:
		return NewCountdownCadence(every), nil
	default:
		return nil, errors.Errorf("unknown toggle cadence %q", name)
	}
}

// Rand is the source of uniform draws in [0, 1).
type Rand interface {
	Float64() float64
}

func NewRand() Rand {
	seed := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(seed, seed>>17))
}
