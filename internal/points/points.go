package points

import "fmt"

// Group is the folder a point lives under in the address space.
type Group string

const (
	GROUP_STATES     Group = "States"
	GROUP_PARAMETERS Group = "Parameters"
	GROUP_COUNTERS   Group = "Counters"
	GROUP_ALARMS     Group = "Alarms"
	GROUP_SENSORS    Group = "Sensors"
)

// GroupOrder is the order folders are created and listed in.
var GroupOrder = []Group{GROUP_STATES, GROUP_PARAMETERS, GROUP_COUNTERS, GROUP_ALARMS, GROUP_SENSORS}

// Kind is the wire type of a point's value.
type Kind int

const (
	KindBool Kind = iota
	KindDouble
	KindInt32
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindDouble:
		return "double"
	case KindInt32:
		return "int32"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Accepts reports whether v has the Go type used for values of this kind.
func (k Kind) Accepts(v any) bool {
	switch v.(type) {
	case bool:
		return k == KindBool
	case float64:
		return k == KindDouble
	case int32:
		return k == KindInt32
	default:
		return false
	}
}

// Point names.
const (
	IS_ACTIVE  = "is_active"
	IS_WORKING = "is_working"
	IS_STOPPED = "is_stopped"

	CUTTING_SPEED     = "cutting_speed"
	MOTOR_SPEED       = "motor_speed"
	POWER_CONSUMPTION = "power_consumption"

	PIECES_COUNT = "pieces_count"

	HAS_ALARM = "has_alarm"
	HAS_ERROR = "has_error"

	TEMPERATURE = "temperature"
	VIBRATION   = "vibration"
	PRESSURE    = "pressure"
	SPEED       = "speed"
)

// Definition describes one simulated telemetry point.
type Definition struct {
	Seed       any
	Name       string
	Group      Group
	BrowseName string
	Kind       Kind
}

// Path is the slash separated location of the point below the SawMill root,
// e.g. "SawMill/States/IsActive". It doubles as the string node identifier.
func (d Definition) Path() string {
	return ROOT_FOLDER + "/" + string(d.Group) + "/" + d.BrowseName
}

const ROOT_FOLDER = "SawMill"

// Seed values shared by both profiles.
const (
	SEED_CUTTING_SPEED = 20.0
	SEED_MOTOR_SPEED   = 1800.0
	SEED_POWER_FULL    = 75.0
	SEED_POWER_BASIC   = 8.0
	SEED_TEMPERATURE   = 45.0
	SEED_VIBRATION     = 4.0
	SEED_PRESSURE      = 175.0
)

func baseDefinitions(powerSeed float64) []Definition {
	return []Definition{
		{Name: IS_ACTIVE, Group: GROUP_STATES, BrowseName: "IsActive", Kind: KindBool, Seed: false},
		{Name: IS_WORKING, Group: GROUP_STATES, BrowseName: "IsWorking", Kind: KindBool, Seed: false},
		{Name: IS_STOPPED, Group: GROUP_STATES, BrowseName: "IsStopped", Kind: KindBool, Seed: true},

		{Name: CUTTING_SPEED, Group: GROUP_PARAMETERS, BrowseName: "CuttingSpeed", Kind: KindDouble, Seed: SEED_CUTTING_SPEED},
		{Name: MOTOR_SPEED, Group: GROUP_PARAMETERS, BrowseName: "MotorSpeed", Kind: KindDouble, Seed: SEED_MOTOR_SPEED},
		{Name: POWER_CONSUMPTION, Group: GROUP_PARAMETERS, BrowseName: "PowerConsumption", Kind: KindDouble, Seed: powerSeed},

		{Name: PIECES_COUNT, Group: GROUP_COUNTERS, BrowseName: "PiecesCount", Kind: KindInt32, Seed: int32(0)},

		{Name: HAS_ALARM, Group: GROUP_ALARMS, BrowseName: "HasAlarm", Kind: KindBool, Seed: false},
		{Name: HAS_ERROR, Group: GROUP_ALARMS, BrowseName: "HasError", Kind: KindBool, Seed: false},
	}
}

// FullDefinitions is the point set of the full sensor variant.
func FullDefinitions() []Definition {
	return append(baseDefinitions(SEED_POWER_FULL),
		Definition{Name: TEMPERATURE, Group: GROUP_SENSORS, BrowseName: "Temperature", Kind: KindDouble, Seed: SEED_TEMPERATURE},
		Definition{Name: VIBRATION, Group: GROUP_SENSORS, BrowseName: "Vibration", Kind: KindDouble, Seed: SEED_VIBRATION},
		Definition{Name: PRESSURE, Group: GROUP_SENSORS, BrowseName: "Pressure", Kind: KindDouble, Seed: SEED_PRESSURE},
		Definition{Name: SPEED, Group: GROUP_SENSORS, BrowseName: "Speed", Kind: KindDouble, Seed: SEED_MOTOR_SPEED},
	)
}

// BasicDefinitions is the reduced variant without the Sensors folder.
func BasicDefinitions() []Definition {
	return baseDefinitions(SEED_POWER_BASIC)
}
