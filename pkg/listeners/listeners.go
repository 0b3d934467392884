package listeners

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Package listeners contains pluggable ingestion endpoint configs (YAML/JSON)
// and the broker listeners built from them.

const (
	// Supported listener types.
	TypeMQTT = "mqtt"
	TypeAMQP = "amqp"

	mqttDefaultQoS      = 1
	amqpDefaultExchange = "uplinks"
	amqpDefaultQueue    = "vicpack-uplinks"
)

// configFile represents the structure of the listeners configuration file.
type configFile struct {
	Listeners []ListenerConfig `json:"listeners" yaml:"listeners"`
}

// ListenerConfig represents a single ingestion endpoint declared in config files.
type ListenerConfig struct {
	ID      string              `json:"id" yaml:"id"`
	Type    string              `json:"type" yaml:"type"`
	Enabled *bool               `json:"enabled" yaml:"enabled"`
	MQTT    *MQTTListenerConfig `json:"mqtt" yaml:"mqtt"`
	AMQP    *AMQPListenerConfig `json:"amqp" yaml:"amqp"`
}

// MQTTListenerConfig holds MQTT broker subscription settings.
type MQTTListenerConfig struct {
	BrokerURL string `json:"broker_url" yaml:"broker_url"`
	Topic     string `json:"topic" yaml:"topic"`
	ClientID  string `json:"client_id" yaml:"client_id"`
	QoS       int    `json:"qos" yaml:"qos"`
	Username  string `json:"username" yaml:"username"`
	Password  string `json:"password" yaml:"password"`
}

// AMQPListenerConfig holds RabbitMQ consumer settings.
type AMQPListenerConfig struct {
	URL          string `json:"url" yaml:"url"`
	Exchange     string `json:"exchange" yaml:"exchange"`
	ExchangeType string `json:"exchange_type" yaml:"exchange_type"`
	Queue        string `json:"queue" yaml:"queue"`
	RoutingKey   string `json:"routing_key" yaml:"routing_key"`
	Durable      bool   `json:"durable" yaml:"durable"`
}

// ConfigRegistry materializes listener definitions loaded from config files.
type ConfigRegistry struct {
	mu        sync.RWMutex
	listeners []ListenerConfig
	idx       map[string]ListenerConfig
}

// LoadRegistry loads the listener registry from a YAML/JSON file.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("listeners file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open listeners file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read listeners file: %w", err)
	}

	fileReg, err := parseListenerRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(fileReg.Listeners) == 0 {
		return nil, errors.New("listeners file contains no listeners entries")
	}

	reg := &ConfigRegistry{
		listeners: make([]ListenerConfig, len(fileReg.Listeners)),
		idx:       make(map[string]ListenerConfig, len(fileReg.Listeners)),
	}

	for i := range fileReg.Listeners {
		cfg := sanitizeListenerConfig(fileReg.Listeners[i])
		if err := validateListenerConfig(cfg); err != nil {
			return nil, fmt.Errorf("listeners[%d]: %w", i, err)
		}
		if _, exists := reg.idx[cfg.ID]; exists {
			return nil, fmt.Errorf("duplicate listener id %q", cfg.ID)
		}
		reg.listeners[i] = cfg
		reg.idx[cfg.ID] = cfg
	}

	return reg, nil
}

// parseListenerRegistry attempts to decode the listeners file content.
func parseListenerRegistry(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if reg, err := unmarshalListenerRegistry(d.name, data, d.fn); err == nil {
			return reg, nil
		}
	}

	return configFile{}, errors.New("listeners file format not recognized (expected YAML or JSON)")
}

// unmarshalListenerRegistry decodes the listeners file using the provided function.
func unmarshalListenerRegistry(name string, data []byte, fn func([]byte, any) error) (configFile, error) {
	var reg configFile
	if err := fn(data, &reg); err != nil {
		return configFile{}, fmt.Errorf("decode %s listeners: %w", name, err)
	}
	return reg, nil
}

// sanitizeListenerConfig trims and normalizes the listener config fields.
func sanitizeListenerConfig(cfg ListenerConfig) ListenerConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))

	if cfg.Enabled == nil {
		def := true
		cfg.Enabled = &def
	}
	if cfg.MQTT != nil {
		c := *cfg.MQTT
		c.BrokerURL = strings.TrimSpace(c.BrokerURL)
		c.Topic = strings.TrimSpace(c.Topic)
		c.ClientID = strings.TrimSpace(c.ClientID)
		if c.ClientID == "" {
			c.ClientID = "vicpack-relay-" + cfg.ID
		}
		// QoS 0 gives no broker redelivery, so unset defaults to at-least-once.
		if c.QoS <= 0 || c.QoS > 2 {
			c.QoS = mqttDefaultQoS
		}
		cfg.MQTT = &c
	}
	if cfg.AMQP != nil {
		c := *cfg.AMQP
		c.URL = strings.TrimSpace(c.URL)
		c.Exchange = strings.TrimSpace(c.Exchange)
		if c.Exchange == "" {
			c.Exchange = amqpDefaultExchange
		}
		c.ExchangeType = strings.ToLower(strings.TrimSpace(c.ExchangeType))
		if c.ExchangeType == "" {
			c.ExchangeType = "fanout"
		}
		c.Queue = strings.TrimSpace(c.Queue)
		if c.Queue == "" {
			c.Queue = amqpDefaultQueue
		}
		c.RoutingKey = strings.TrimSpace(c.RoutingKey)
		cfg.AMQP = &c
	}

	return cfg
}

// validateListenerConfig checks that required fields are present.
func validateListenerConfig(cfg ListenerConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	if cfg.Type == "" {
		return fmt.Errorf("type is required for listener %q", cfg.ID)
	}
	switch cfg.Type {
	case TypeMQTT:
		if cfg.MQTT == nil {
			return fmt.Errorf("mqtt config required for listener %q", cfg.ID)
		}
		if cfg.MQTT.BrokerURL == "" {
			return fmt.Errorf("mqtt.broker_url is required for listener %q", cfg.ID)
		}
		if cfg.MQTT.Topic == "" {
			return fmt.Errorf("mqtt.topic is required for listener %q", cfg.ID)
		}
	case TypeAMQP:
		if cfg.AMQP == nil {
			return fmt.Errorf("amqp config required for listener %q", cfg.ID)
		}
		if cfg.AMQP.URL == "" {
			return fmt.Errorf("amqp.url is required for listener %q", cfg.ID)
		}
	}
	return nil
}

// ByID returns the listener config by id.
func (r *ConfigRegistry) ByID(id string) (ListenerConfig, bool) {
	if r == nil {
		return ListenerConfig{}, false
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return ListenerConfig{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.idx[id]
	return cfg, ok
}

// All returns all configured listeners.
func (r *ConfigRegistry) All() []ListenerConfig {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ListenerConfig, len(r.listeners))
	copy(out, r.listeners)
	return out
}

// Enabled returns listeners that are enabled.
func (r *ConfigRegistry) Enabled() []ListenerConfig {
	if r == nil {
		return nil
	}

	all := r.All()
	if len(all) == 0 {
		return nil
	}

	out := make([]ListenerConfig, 0, len(all))
	for _, cfg := range all {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue returns enabled flag defaulting to true.
func (cfg ListenerConfig) EnabledValue() bool {
	if cfg.Enabled == nil {
		return true
	}
	return *cfg.Enabled
}
