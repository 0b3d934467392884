package publishers

import (
	"time"

	"github.com/google/uuid"
	"github.com/virinco/vicpack-relay/pkg/vicpack"
)

// Event is the payload published downstream for one decoded uplink.
type Event struct {
	EventID    string         `json:"event_id"`
	ListenerID string         `json:"listener_id"`
	DeviceEUI  string         `json:"device_eui"`
	Record     vicpack.Record `json:"record"`
	ReceivedAt time.Time      `json:"received_at"`
	RelayedAt  time.Time      `json:"relayed_at"`
}

// NewEvent constructs an Event for the given uplink + decoded record.
func NewEvent(listenerID, deviceEUI string, receivedAt time.Time, record vicpack.Record) Event {
	return Event{
		EventID:    uuid.NewString(),
		ListenerID: listenerID,
		DeviceEUI:  deviceEUI,
		Record:     record,
		ReceivedAt: receivedAt,
		RelayedAt:  time.Now().UTC(),
	}
}
