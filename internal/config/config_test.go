package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sawmill/internal/metrics"
	"sawmill/internal/mirror"
	"sawmill/internal/net/opcua"
	"sawmill/internal/net/plc"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadConfiguration(Files{})
	require.NoError(t, err)

	assert.Equal(t, "full", cfg.Simulation.Profile)
	assert.Equal(t, "wallclock", cfg.Simulation.Cadence)
	assert.Equal(t, 10, cfg.Simulation.CadenceTicks)
	assert.Equal(t, time.Second, cfg.Simulation.Interval)
	assert.Equal(t, SINK_OPCUA, cfg.Sink)
	assert.Equal(t, "opc.tcp://0.0.0.0:4840/freeopcua/server/", cfg.OPCUA.Endpoint)
	assert.Equal(t, "Sawmill OPC UA Server", cfg.OPCUA.ServerName)
	assert.Equal(t, "http://examples.freeopcua.github.io", cfg.OPCUA.NamespaceURI)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
	assert.Empty(t, cfg.MQTT.Broker)
	assert.Empty(t, cfg.Kafka.Broker)
}

func TestLayering(t *testing.T) {
	yamlPath := writeFile(t, "sawmill.yaml", `
simulation:
  profile: basic
  interval: 250ms
sink: memory
mqtt:
  broker: tcp://localhost:1883
metrics:
  addr: ":9200"
`)
	envPath := writeFile(t, "sawmill.env", "SAWMILL_CADENCE=countdown\nMETRICS_ADDR=:9300\n")
	t.Cleanup(func() { _ = os.Unsetenv("SAWMILL_CADENCE") })
	t.Setenv("SAWMILL_CADENCE_TICKS", "4")
	t.Setenv("METRICS_ADDR", ":9400")

	cfg, err := LoadConfiguration(Files{YAML: yamlPath, Env: envPath})
	require.NoError(t, err)

	assert.Equal(t, "basic", cfg.Simulation.Profile)
	assert.Equal(t, 250*time.Millisecond, cfg.Simulation.Interval)
	assert.Equal(t, SINK_MEMORY, cfg.Sink)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, "countdown", cfg.Simulation.Cadence)
	assert.Equal(t, 4, cfg.Simulation.CadenceTicks)
	// godotenv never overrides variables already set in the environment.
	assert.Equal(t, ":9400", cfg.Metrics.Addr)
}

func TestDefaultsMatchComponents(t *testing.T) {
	assert.Equal(t, opcua.DEFAULT_ENDPOINT, DEFAULT_OPCUA_ENDPOINT)
	assert.Equal(t, opcua.DEFAULT_SERVER_NAME, DEFAULT_SERVER_NAME)
	assert.Equal(t, opcua.DEFAULT_NAMESPACE_URI, DEFAULT_NAMESPACE_URI)
	assert.Equal(t, opcua.DEFAULT_PKI_DIR, DEFAULT_PKI_DIR)
	assert.Equal(t, plc.OPCUA_ENDPOINT, DEFAULT_REMOTE_ENDPOINT)
	assert.EqualValues(t, plc.DEFAULT_NAMESPACE, DEFAULT_REMOTE_NAMESPACE)
	assert.Equal(t, mirror.DEFAULT_MQTT_TOPIC, DEFAULT_MQTT_TOPIC)
	assert.Equal(t, mirror.DEFAULT_KAFKA_TOPIC, DEFAULT_KAFKA_TOPIC)
	assert.Equal(t, metrics.DEFAULT_ADDR, DEFAULT_METRICS_ADDR)
}

func TestWallClockTicksMustDivideMinute(t *testing.T) {
	t.Setenv("SAWMILL_CADENCE_TICKS", "7")
	_, err := LoadConfiguration(Files{})
	assert.ErrorContains(t, err, "divisor of 60")

	t.Setenv("SAWMILL_CADENCE", "countdown")
	cfg, err := LoadConfiguration(Files{})
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Simulation.CadenceTicks)
}

func TestInvalidValues(t *testing.T) {
	cases := map[string]string{
		"SAWMILL_PROFILE":       "industrial",
		"SAWMILL_CADENCE":       "hourly",
		"SAWMILL_SINK":          "file",
		"SAWMILL_CADENCE_TICKS": "45",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadConfiguration(Files{})
			assert.Error(t, err)
		})
	}
}

func TestMissingFiles(t *testing.T) {
	_, err := LoadConfiguration(Files{YAML: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)

	_, err = LoadConfiguration(Files{Env: filepath.Join(t.TempDir(), "missing.env")})
	assert.Error(t, err)
}
