// Package storage provides the local dedup DB abstraction.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store tracks relayed packet ids per device so broker redeliveries are not
// forwarded twice.
type Store interface {
	Close() error
	SeenPacket(deviceEUI string, packetID int) (bool, error)
	MarkPacket(deviceEUI string, packetID int) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	PacketTTL       time.Duration
	CleanupInterval time.Duration
}

const (
	defaultPacketTTL       = time.Hour
	defaultCleanupInterval = 30 * time.Minute
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.PacketTTL <= 0 {
		opts.PacketTTL = defaultPacketTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                         { return nil }
func (noopStore) SeenPacket(string, int) (bool, error) { return false, nil }
func (noopStore) MarkPacket(string, int) error         { return nil }
