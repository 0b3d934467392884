package relay

import (
	"context"
	"fmt"

	"github.com/virinco/vicpack-relay/internal/domain"
	"github.com/virinco/vicpack-relay/internal/logger"
	"github.com/virinco/vicpack-relay/pkg/publishers"
	"github.com/virinco/vicpack-relay/pkg/vicpack"
)

// Service relays device uplinks: it decodes the VicPack frame, suppresses
// duplicate deliveries, and forwards the decoded record downstream.
type Service struct {
	fanout EventPublisher
	store  PacketStore
	log    logger.Logger
}

// NewService wires a relay service with its distribution fanout and the
// packet dedup store. Store may be nil when duplicate suppression is off.
func NewService(fanout EventPublisher, store PacketStore, log logger.Logger) *Service {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Service{
		fanout: fanout,
		store:  store,
		log:    log,
	}
}

// HandleUplink processes a single raw uplink end to end. Malformed frames
// return an error wrapping domain.ErrMalformedUplink so listeners can
// reject them without redelivery; nothing is published for them.
func (s *Service) HandleUplink(ctx context.Context, up domain.Uplink) error {
	if s == nil || s.fanout == nil {
		return fmt.Errorf("relay service is not initialized")
	}

	if len(up.Payload) == 0 {
		return fmt.Errorf("%w: device %s sent an empty payload", domain.ErrMalformedUplink, up.DeviceEUI)
	}

	packet, err := vicpack.Decode(up.Payload)
	if err != nil {
		return fmt.Errorf("%w: decode packet from device %s: %v", domain.ErrMalformedUplink, up.DeviceEUI, err)
	}

	if s.store != nil {
		seen, err := s.store.SeenPacket(up.DeviceEUI, packet.ID)
		if err != nil {
			s.log.WarnObj("dedup lookup failed; relaying anyway", "dedup_error", map[string]any{
				"device_eui": up.DeviceEUI,
				"packet_id":  packet.ID,
				"error":      err.Error(),
			})
		} else if seen {
			s.log.DebugObj("duplicate packet suppressed", "packet_meta", map[string]any{
				"device_eui": up.DeviceEUI,
				"packet_id":  packet.ID,
				"listener":   up.ListenerID,
			})
			return nil
		}
	}

	record := packet.Export()
	evt := publishers.NewEvent(up.ListenerID, up.DeviceEUI, up.ReceivedAt, record)

	published, err := s.fanout.Publish(ctx, evt)
	if err != nil {
		return fmt.Errorf("publish packet %d from device %s: %w", packet.ID, up.DeviceEUI, err)
	}

	if s.store != nil {
		if err := s.store.MarkPacket(up.DeviceEUI, packet.ID); err != nil {
			s.log.WarnObj("dedup mark failed", "dedup_error", map[string]any{
				"device_eui": up.DeviceEUI,
				"packet_id":  packet.ID,
				"error":      err.Error(),
			})
		}
	}

	s.log.InfoObj("uplink relayed", "relay_result", map[string]any{
		"device_eui": up.DeviceEUI,
		"packet_id":  packet.ID,
		"sensors":    len(record.Sensors),
		"published":  published,
		"listener":   up.ListenerID,
	})
	return nil
}
