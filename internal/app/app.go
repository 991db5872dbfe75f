package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/fx"

	"sawmill/internal/config"
	"sawmill/internal/logging"
	"sawmill/internal/metrics"
	"sawmill/internal/mirror"
	"sawmill/internal/net/opcua"
	"sawmill/internal/net/plc"
	"sawmill/internal/points"
	"sawmill/internal/sim"
	"sawmill/internal/sink"
)

// RunID identifies one process run in published snapshots.
type RunID string

func New(files config.Files) *fx.App {
	return fx.New(fx.NopLogger, Options(files))
}

// Options is the full dependency graph of the simulator.
func Options(files config.Files) fx.Option {
	return fx.Options(
		fx.Supply(files),
		fx.Provide(
			// Config
			config.LoadConfiguration,
			newLogger,
			newRunID,

			// Simulation
			newProfile,
			newRegistry,
			newState,
			newEngine,
			newSink,
			newScheduler,

			// Observers
			newMetrics,
			newMirror,
		),
		fx.Invoke(
			startServices,
		),
	)
}

func newLogger(cfg *config.AppConfig) logrus.FieldLogger {
	return logging.New(cfg.LogLevel)
}

func newRunID() RunID {
	return RunID(uuid.NewString())
}

func newProfile(cfg *config.AppConfig) (sim.Profile, error) {
	return sim.ProfileByName(cfg.Simulation.Profile)
}

func newRegistry(p sim.Profile) *points.Registry {
	return points.NewRegistry(p.Definitions())
}

func newState(reg *points.Registry) *sim.SimulationState {
	return sim.NewSimulationState(reg)
}

func newEngine(cfg *config.AppConfig, p sim.Profile, log logrus.FieldLogger) (*sim.Engine, error) {
	cadence, err := sim.CadenceByName(cfg.Simulation.Cadence, cfg.Simulation.CadenceTicks)
	if err != nil {
		return nil, err
	}
	return sim.NewEngine(p, cadence, sim.NewRand(), log), nil
}

// newSink builds the configured backing sink and registers its lifecycle:
// the backing starts first and is seeded before anything else runs.
func newSink(lc fx.Lifecycle, cfg *config.AppConfig, reg *points.Registry, log logrus.FieldLogger) (sink.Sink, error) {
	var s sink.Sink

	switch cfg.Sink {
	case config.SINK_MEMORY:
		s = sink.NewMemory(reg)

	case config.SINK_REMOTE:
		client, err := plc.NewClient(cfg.Remote.Endpoint, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return client.ConnectWithRetry(ctx, plc.CONNECT_MAX_RETRIES, plc.CONNECT_MAX_ELAPSED)
			},
			OnStop: func(ctx context.Context) error {
				return client.Close(ctx)
			},
		})
		s = sink.NewMirrored(plc.NewRemoteSink(client, reg, uint16(cfg.Remote.Namespace)), reg)

	case config.SINK_OPCUA:
		srv, err := opcua.NewServer(opcua.ServerConfig{
			Endpoint:     cfg.OPCUA.Endpoint,
			Name:         cfg.OPCUA.ServerName,
			NamespaceURI: cfg.OPCUA.NamespaceURI,
			PKIDir:       cfg.OPCUA.PKIDir,
		}, reg, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				srv.Start()
				return nil
			},
			OnStop: func(context.Context) error {
				return srv.Close()
			},
		})
		s = sink.NewMirrored(srv.Sink(), reg)

	default:
		return nil, errors.Errorf("unknown sink %q", cfg.Sink)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return sink.Seed(ctx, s, reg)
		},
	})
	return s, nil
}

func newScheduler(
	cfg *config.AppConfig,
	engine *sim.Engine,
	s sink.Sink,
	state *sim.SimulationState,
	log logrus.FieldLogger,
) *sim.Scheduler {
	return sim.NewScheduler(engine, s, state, cfg.Simulation.Interval, log)
}

func newMetrics(reg *points.Registry) *metrics.Metrics {
	return metrics.New(reg)
}

// newMirror returns nil when no broker is configured. A broker that cannot
// be reached is logged and left out.
func newMirror(cfg *config.AppConfig, runID RunID, p sim.Profile, reg *points.Registry, log logrus.FieldLogger) *mirror.Mirror {
	var pubs mirror.Fanout

	if cfg.MQTT.Broker != "" {
		mp, err := mirror.NewMQTTPublisher(mirror.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			User:     cfg.MQTT.User,
			Password: cfg.MQTT.Password,
		}, log)
		if err != nil {
			log.WithError(err).Error("MQTT mirror disabled")
		} else {
			pubs = append(pubs, mirror.NewBreakerPublisher(mp, breakerConfig("mqtt"), log))
		}
	}

	if cfg.Kafka.Broker != "" {
		kp := mirror.NewKafkaPublisher(cfg.Kafka.Broker, cfg.Kafka.Topic)
		pubs = append(pubs, mirror.NewBreakerPublisher(kp, breakerConfig("kafka"), log))
	}

	if len(pubs) == 0 {
		return nil
	}
	return mirror.New(string(runID), p.Name, reg, pubs, mirror.DEFAULT_QUEUE_SIZE, log)
}

func breakerConfig(name string) mirror.BreakerConfig {
	bc := mirror.DefaultBreakerConfig
	bc.Name = name
	return bc
}

type services struct {
	fx.In

	Config    *config.AppConfig
	Log       logrus.FieldLogger
	RunID     RunID
	Profile   sim.Profile
	Scheduler *sim.Scheduler
	Metrics   *metrics.Metrics
	Mirror    *mirror.Mirror
}

func startServices(lc fx.Lifecycle, s services) {
	metricsServer := metrics.NewServer(s.Config.Metrics.Addr, s.Metrics, s.Log)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return metricsServer.Start()
		},
		OnStop: func(ctx context.Context) error {
			return metricsServer.Shutdown(ctx)
		},
	})
	s.Scheduler.AddObserver(s.Metrics)

	if s.Mirror != nil {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				s.Mirror.Start(context.Background())
				return nil
			},
			OnStop: func(context.Context) error {
				return s.Mirror.Close()
			},
		})
		s.Scheduler.AddObserver(s.Mirror)
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.Log.WithFields(logrus.Fields{
				"run_id":  s.RunID,
				"profile": s.Profile.Name,
				"sink":    s.Config.Sink,
			}).Info("Starting sawmill simulation")
			go func() {
				if err := s.Scheduler.Run(context.Background()); err != nil {
					s.Log.WithError(err).Error("Scheduler exited")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.Scheduler.Stop()
			select {
			case <-s.Scheduler.Done():
				return nil
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), "waiting for the in-flight tick")
			}
		},
	})
}
