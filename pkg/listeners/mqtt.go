package listeners

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const mqttDisconnectQuiesceMs = 250

// mqttListener subscribes to a broker topic where LoRa gateways publish
// uplink envelopes.
type mqttListener struct {
	id     string
	typ    string
	cfg    MQTTListenerConfig
	client mqtt.Client
	log    Logger
}

// newMQTTListener creates an MQTT listener from the given configuration.
func newMQTTListener(cfg ListenerConfig, log Logger) (Listener, error) {
	if cfg.MQTT == nil {
		return nil, fmt.Errorf("listener %q missing mqtt configuration", cfg.ID)
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTT.BrokerURL).
		SetClientID(cfg.MQTT.ClientID).
		SetCleanSession(false).
		SetOrderMatters(false).
		SetKeepAlive(60 * time.Second).
		SetConnectRetry(true).
		SetConnectRetryInterval(30 * time.Second)
	if cfg.MQTT.Username != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}

	return &mqttListener{
		id:     cfg.ID,
		typ:    TypeMQTT,
		cfg:    *cfg.MQTT,
		client: mqtt.NewClient(opts),
		log:    ensureLogger(log),
	}, nil
}

func (m *mqttListener) ID() string   { return m.id }
func (m *mqttListener) Type() string { return m.typ }

// Listen connects, subscribes, and dispatches uplinks until the context is
// cancelled. MQTT has no per-message reject, so failed invocations are logged
// and dropped; QoS handles transport-level redelivery.
func (m *mqttListener) Listen(ctx context.Context, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("mqtt listener %q requires a handler", m.id)
	}

	if token := m.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect mqtt broker: %w", token.Error())
	}

	token := m.client.Subscribe(m.cfg.Topic, byte(m.cfg.QoS), func(_ mqtt.Client, msg mqtt.Message) {
		up, err := parseUplink(m.id, msg.Payload())
		if err != nil {
			m.log.WarnObj("mqtt uplink envelope rejected", "listener_mqtt_reject", map[string]any{
				"listener_id": m.id,
				"topic":       msg.Topic(),
				"error":       err.Error(),
			})
			return
		}
		if err := handler(ctx, up); err != nil {
			m.log.ErrorObj("mqtt uplink handling failed", "listener_mqtt_error", map[string]any{
				"listener_id": m.id,
				"device_eui":  up.DeviceEUI,
				"error":       err.Error(),
			})
		}
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %q: %w", m.cfg.Topic, token.Error())
	}

	m.log.InfoObj("mqtt listener subscribed", "listener_mqtt_state", map[string]any{
		"listener_id": m.id,
		"topic":       m.cfg.Topic,
		"qos":         m.cfg.QoS,
	})

	<-ctx.Done()

	if token := m.client.Unsubscribe(m.cfg.Topic); token.Wait() && token.Error() != nil {
		m.log.WarnObj("mqtt unsubscribe failed", "listener_mqtt_error", map[string]any{
			"listener_id": m.id,
			"error":       token.Error().Error(),
		})
	}
	return nil
}

// Close disconnects from the broker.
func (m *mqttListener) Close() error {
	if m == nil || m.client == nil {
		return nil
	}
	m.client.Disconnect(mqttDisconnectQuiesceMs)
	return nil
}
