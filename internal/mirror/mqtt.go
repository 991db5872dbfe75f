package mirror

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_MQTT_TOPIC = "sawmill/telemetry"

	mqttMaxRetries   = 5
	mqttMaxElapsed   = 10 * time.Second
	mqttDisconnectMs = 250
)

type MQTTConfig struct {
	Broker   string
	Topic    string
	User     string
	Password string
	ClientID string
}

type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	log    logrus.FieldLogger
}

// NewMQTTPublisher connects to the broker, retrying with exponential backoff.
func NewMQTTPublisher(cfg MQTTConfig, log logrus.FieldLogger) (*MQTTPublisher, error) {
	log = log.WithField("component", "mqtt")
	if cfg.ClientID == "" {
		cfg.ClientID = "sawmill-" + uuid.NewString()
	}
	if cfg.Topic == "" {
		cfg.Topic = DEFAULT_MQTT_TOPIC
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = mqttMaxElapsed

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.WithError(token.Error()).Warn("Failed to connect to MQTT broker")
			return token.Error()
		}
		return nil
	}, backoff.WithMaxRetries(bo, uint64(mqttMaxRetries-1)))
	if err != nil {
		return nil, errors.Wrapf(err, "could not establish MQTT connection to %s after retries", cfg.Broker)
	}

	log.Infof("Connected to MQTT broker at %s", cfg.Broker)
	return &MQTTPublisher{client: client, topic: cfg.Topic, log: log}, nil
}

// Publish sends payload to the configured topic at QoS 0. The key is unused:
// MQTT has no partitioning.
func (p *MQTTPublisher) Publish(ctx context.Context, _ string, payload []byte) error {
	token := p.client.Publish(p.topic, 0, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *MQTTPublisher) Close() error {
	if p.client.IsConnected() {
		p.client.Disconnect(mqttDisconnectMs)
		p.log.Info("MQTT connection closed")
	}
	return nil
}
