package listeners

import (
	"fmt"
	"strings"
	"sync"
)

// Builder creates a Listener from a config entry.
type Builder func(cfg ListenerConfig, log Logger) (Listener, error)

// Registry maps listener types to builders.
type Registry interface {
	Register(typ string, builder Builder)
	ListenerFor(cfg ListenerConfig, log Logger) (Listener, error)
}

type registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns a registry with optional pre-registered builders.
func NewRegistry(builders map[string]Builder) Registry {
	r := &registry{
		builders: make(map[string]Builder),
	}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

// Register associates a builder with a listener type.
func (r *registry) Register(typ string, builder Builder) {
	if typ = strings.TrimSpace(strings.ToLower(typ)); typ == "" || builder == nil {
		return
	}

	r.mu.Lock()
	r.builders[typ] = builder
	r.mu.Unlock()
}

// ListenerFor returns the listener built for the provided config.
func (r *registry) ListenerFor(cfg ListenerConfig, log Logger) (Listener, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("listener %q has no type configured", cfg.ID)
	}

	r.mu.RLock()
	builder := r.builders[strings.ToLower(cfg.Type)]
	r.mu.RUnlock()

	if builder == nil {
		return nil, fmt.Errorf("no listener registered for type %q", cfg.Type)
	}
	return builder(cfg, log)
}

// DefaultRegistry wires up known listeners.
func DefaultRegistry() Registry {
	builders := map[string]Builder{
		TypeMQTT: newMQTTListener,
		TypeAMQP: newAMQPListener,
	}
	return NewRegistry(builders)
}

// BuildAll instantiates listeners for configs using the registry.
func BuildAll(reg Registry, cfgs []ListenerConfig, log Logger) ([]Listener, error) {
	if reg == nil || len(cfgs) == 0 {
		return nil, nil
	}

	var ls []Listener
	for _, cfg := range cfgs {
		l, err := reg.ListenerFor(cfg, log)
		if err != nil {
			return nil, err
		}
		ls = append(ls, l)
	}
	return ls, nil
}
