// Package domain contains core models shared between listeners, relay, and
// publishers.
package domain

import (
	"errors"
	"time"
)

// ErrMalformedUplink marks payloads that can never decode. Listeners use it
// to reject without redelivery.
var ErrMalformedUplink = errors.New("malformed uplink")

// Uplink is a single raw device transmission handed over by an ingestion
// endpoint. Payload carries the untouched VicPack frame.
type Uplink struct {
	ListenerID string
	DeviceEUI  string
	Payload    []byte
	ReceivedAt time.Time
}
