package relay

import (
	"context"

	"github.com/virinco/vicpack-relay/pkg/publishers"
)

// EventPublisher fans decoded telemetry events out to distribution endpoints.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
	Size() int
}

// PacketStore remembers which packet ids have already been relayed per device.
type PacketStore interface {
	SeenPacket(deviceEUI string, packetID int) (bool, error)
	MarkPacket(deviceEUI string, packetID int) error
}
