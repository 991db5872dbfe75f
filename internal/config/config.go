package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"sawmill/internal/sim"
)

const (
	SINK_OPCUA  = "opcua"
	SINK_REMOTE = "remote"
	SINK_MEMORY = "memory"
)

const (
	DEFAULT_OPCUA_ENDPOINT   = "opc.tcp://0.0.0.0:4840/freeopcua/server/"
	DEFAULT_SERVER_NAME      = "Sawmill OPC UA Server"
	DEFAULT_NAMESPACE_URI    = "http://examples.freeopcua.github.io"
	DEFAULT_PKI_DIR          = "./pki"
	DEFAULT_REMOTE_ENDPOINT  = "opc.tcp://127.0.0.1:4840/freeopcua/server/"
	DEFAULT_REMOTE_NAMESPACE = 2
	DEFAULT_MQTT_TOPIC       = "sawmill/telemetry"
	DEFAULT_KAFKA_TOPIC      = "sawmill.telemetry"
	DEFAULT_METRICS_ADDR     = ":9100"
	DEFAULT_LOG_LEVEL        = "info"
)

// AppConfig holds every runtime setting. Values are layered: defaults, then
// the optional YAML file, then the .env file, then the process environment.
type AppConfig struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Sink       string           `yaml:"sink"`
	OPCUA      OPCUAConfig      `yaml:"opcua"`
	Remote     RemoteConfig     `yaml:"remote"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	LogLevel   string           `yaml:"log_level"`
}

type SimulationConfig struct {
	Profile      string        `yaml:"profile"`
	Cadence      string        `yaml:"cadence"`
	CadenceTicks int           `yaml:"cadence_ticks"`
	Interval     time.Duration `yaml:"interval"`
}

type OPCUAConfig struct {
	Endpoint     string `yaml:"endpoint"`
	ServerName   string `yaml:"server_name"`
	NamespaceURI string `yaml:"namespace_uri"`
	PKIDir       string `yaml:"pki_dir"`
}

type RemoteConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Namespace int    `yaml:"namespace"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type KafkaConfig struct {
	Broker string `yaml:"broker"`
	Topic  string `yaml:"topic"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Files names the optional configuration sources.
type Files struct {
	YAML string
	Env  string
}

func Default() *AppConfig {
	return &AppConfig{
		Simulation: SimulationConfig{
			Profile:      sim.PROFILE_FULL,
			Cadence:      sim.CADENCE_WALLCLOCK,
			CadenceTicks: sim.DEFAULT_TOGGLE_EVERY,
			Interval:     sim.DEFAULT_TICK_INTERVAL,
		},
		Sink: SINK_OPCUA,
		OPCUA: OPCUAConfig{
			Endpoint:     DEFAULT_OPCUA_ENDPOINT,
			ServerName:   DEFAULT_SERVER_NAME,
			NamespaceURI: DEFAULT_NAMESPACE_URI,
			PKIDir:       DEFAULT_PKI_DIR,
		},
		Remote: RemoteConfig{
			Endpoint:  DEFAULT_REMOTE_ENDPOINT,
			Namespace: DEFAULT_REMOTE_NAMESPACE,
		},
		MQTT:     MQTTConfig{Topic: DEFAULT_MQTT_TOPIC},
		Kafka:    KafkaConfig{Topic: DEFAULT_KAFKA_TOPIC},
		Metrics:  MetricsConfig{Addr: DEFAULT_METRICS_ADDR},
		LogLevel: DEFAULT_LOG_LEVEL,
	}
}

// LoadConfiguration builds the configuration from all layers and validates it.
func LoadConfiguration(files Files) (*AppConfig, error) {
	cfg := Default()

	if files.YAML != "" {
		raw, err := os.ReadFile(files.YAML)
		if err != nil {
			return nil, errors.Wrapf(err, "reading config file %s", files.YAML)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, errors.Wrapf(err, "parsing config file %s", files.YAML)
		}
	}

	if files.Env != "" {
		if err := godotenv.Load(files.Env); err != nil {
			return nil, errors.Wrapf(err, "loading env file %s", files.Env)
		}
	} else {
		_ = godotenv.Load()
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	cfg.Simulation.Profile = getEnv("SAWMILL_PROFILE", cfg.Simulation.Profile)
	cfg.Simulation.Cadence = getEnv("SAWMILL_CADENCE", cfg.Simulation.Cadence)
	cfg.Simulation.CadenceTicks = getEnvAsInt("SAWMILL_CADENCE_TICKS", cfg.Simulation.CadenceTicks)
	cfg.Simulation.Interval = getEnvAsDuration("SAWMILL_INTERVAL", cfg.Simulation.Interval)
	cfg.Sink = getEnv("SAWMILL_SINK", cfg.Sink)

	cfg.OPCUA.Endpoint = getEnv("OPCUA_ENDPOINT", cfg.OPCUA.Endpoint)
	cfg.OPCUA.ServerName = getEnv("OPCUA_SERVER_NAME", cfg.OPCUA.ServerName)
	cfg.OPCUA.NamespaceURI = getEnv("OPCUA_NAMESPACE_URI", cfg.OPCUA.NamespaceURI)
	cfg.OPCUA.PKIDir = getEnv("OPCUA_PKI_DIR", cfg.OPCUA.PKIDir)

	cfg.Remote.Endpoint = getEnv("REMOTE_ENDPOINT", cfg.Remote.Endpoint)
	cfg.Remote.Namespace = getEnvAsInt("REMOTE_NAMESPACE", cfg.Remote.Namespace)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", cfg.MQTT.Broker)
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", cfg.MQTT.Topic)
	cfg.MQTT.User = getEnv("MQTT_USER", cfg.MQTT.User)
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", cfg.MQTT.Password)

	cfg.Kafka.Broker = getEnv("KAFKA_BROKER", cfg.Kafka.Broker)
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", cfg.Kafka.Topic)

	cfg.Metrics.Addr = getEnv("METRICS_ADDR", cfg.Metrics.Addr)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
}

func (c *AppConfig) Validate() error {
	if _, err := sim.ProfileByName(c.Simulation.Profile); err != nil {
		return err
	}
	if _, err := sim.CadenceByName(c.Simulation.Cadence, c.Simulation.CadenceTicks); err != nil {
		return err
	}
	if c.Simulation.Interval <= 0 {
		return errors.Errorf("simulation interval must be positive, got %s", c.Simulation.Interval)
	}
	switch c.Sink {
	case SINK_OPCUA, SINK_REMOTE, SINK_MEMORY:
	default:
		return errors.Errorf("unknown sink %q", c.Sink)
	}
	if c.Remote.Namespace < 0 || c.Remote.Namespace > 0xFFFF {
		return errors.Errorf("remote namespace %d out of range", c.Remote.Namespace)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(name string, defaultValue int) int {
	valueStr := getEnv(name, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(name string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
