package points

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullRegistrySeeds(t *testing.T) {
	r := NewRegistry(FullDefinitions())

	expected := map[string]any{
		IS_ACTIVE:         false,
		IS_WORKING:        false,
		IS_STOPPED:        true,
		CUTTING_SPEED:     20.0,
		MOTOR_SPEED:       1800.0,
		POWER_CONSUMPTION: 75.0,
		PIECES_COUNT:      int32(0),
		HAS_ALARM:         false,
		HAS_ERROR:         false,
		TEMPERATURE:       45.0,
		VIBRATION:         4.0,
		PRESSURE:          175.0,
		SPEED:             1800.0,
	}

	require.Len(t, r.Names(), len(expected))
	for name, want := range expected {
		got, err := r.Get(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestBasicRegistryHasNoSensors(t *testing.T) {
	r := NewRegistry(BasicDefinitions())

	assert.Equal(t, []Group{GROUP_STATES, GROUP_PARAMETERS, GROUP_COUNTERS, GROUP_ALARMS}, r.Groups())
	assert.False(t, r.Has(TEMPERATURE))
	assert.False(t, r.Has(SPEED))

	power, err := r.Get(POWER_CONSUMPTION)
	require.NoError(t, err)
	assert.Equal(t, 8.0, power)
}

func TestGetUnknownPoint(t *testing.T) {
	r := NewRegistry(BasicDefinitions())

	_, err := r.Get("blade_angle")
	require.Error(t, err)

	var unknown *UnknownPointError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "blade_angle", unknown.Name)

	err = r.Set("blade_angle", 1.0)
	require.True(t, errors.As(err, &unknown))
}

func TestSetDoesNotValidateRange(t *testing.T) {
	r := NewRegistry(FullDefinitions())

	require.NoError(t, r.Set(CUTTING_SPEED, 999.0))
	v, err := r.Get(CUTTING_SPEED)
	require.NoError(t, err)
	assert.Equal(t, 999.0, v)

	r.Reset()
	v, _ = r.Get(CUTTING_SPEED)
	assert.Equal(t, 20.0, v)
}

func TestSnapshotIsACopy(t *testing.T) {
	r := NewRegistry(BasicDefinitions())

	snap := r.Snapshot()
	snap[IS_ACTIVE] = true

	v, _ := r.Get(IS_ACTIVE)
	assert.Equal(t, false, v)
}

func TestDefinitionPaths(t *testing.T) {
	r := NewRegistry(FullDefinitions())

	cases := map[string]string{
		IS_ACTIVE:     "SawMill/States/IsActive",
		CUTTING_SPEED: "SawMill/Parameters/CuttingSpeed",
		PIECES_COUNT:  "SawMill/Counters/PiecesCount",
		HAS_ERROR:     "SawMill/Alarms/HasError",
		SPEED:         "SawMill/Sensors/Speed",
	}
	for name, path := range cases {
		d, err := r.Definition(name)
		require.NoError(t, err)
		assert.Equal(t, path, d.Path())
	}

	sensors := r.InGroup(GROUP_SENSORS)
	require.Len(t, sensors, 4)
	assert.Equal(t, TEMPERATURE, sensors[0].Name)
}

func TestDuplicateDefinitionPanics(t *testing.T) {
	defs := append(BasicDefinitions(), Definition{Name: IS_ACTIVE, Group: GROUP_STATES, BrowseName: "Again", Kind: KindBool, Seed: false})
	assert.Panics(t, func() { NewRegistry(defs) })
}

func TestSeedKindMismatchPanics(t *testing.T) {
	defs := []Definition{{Name: PIECES_COUNT, Group: GROUP_COUNTERS, BrowseName: "PiecesCount", Kind: KindInt32, Seed: 0}}
	assert.Panics(t, func() { NewRegistry(defs) })
}
