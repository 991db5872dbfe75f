package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"sawmill/internal/config"
	"sawmill/internal/mirror"
	"sawmill/internal/points"
	"sawmill/internal/sim"
)

func TestGraphIsValid(t *testing.T) {
	require.NoError(t, fx.ValidateApp(Options(config.Files{})))
}

func TestMemorySimulationRuns(t *testing.T) {
	t.Setenv("SAWMILL_SINK", config.SINK_MEMORY)
	t.Setenv("SAWMILL_PROFILE", sim.PROFILE_BASIC)
	t.Setenv("SAWMILL_CADENCE", sim.CADENCE_COUNTDOWN)
	t.Setenv("SAWMILL_CADENCE_TICKS", "1")
	t.Setenv("SAWMILL_INTERVAL", "5ms")
	t.Setenv("METRICS_ADDR", "127.0.0.1:0")
	t.Setenv("LOG_LEVEL", "off")
	t.Setenv("MQTT_BROKER", "")
	t.Setenv("KAFKA_BROKER", "")

	var (
		reg   *points.Registry
		sched *sim.Scheduler
		mir   *mirror.Mirror
	)
	app := fxtest.New(t, Options(config.Files{}), fx.Populate(&reg, &sched, &mir))
	assert.Nil(t, mir)

	app.RequireStart()

	// With a toggle on every tick the machine alternates between states.
	seen := map[bool]bool{}
	require.Eventually(t, func() bool {
		v, err := reg.Get(points.IS_ACTIVE)
		if err != nil {
			return false
		}
		seen[v.(bool)] = true
		return seen[true] && seen[false]
	}, 2*time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, app.Stop(ctx))
	assert.Equal(t, sim.Stopped, sched.State())
}
