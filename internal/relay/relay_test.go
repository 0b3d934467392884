package relay

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/virinco/vicpack-relay/internal/domain"
	"github.com/virinco/vicpack-relay/pkg/publishers"
)

// fa | version | id=1 | req=0 | count=3, then driver_info (SENSOR_DEBUG,
// slot 0, index 2, enabled) and two gpio_value measurements.
const goldenFrameHex = "fa0101000301100002012a000000002a00000000ced399"

type fakeFanout struct {
	events  []publishers.Event
	failErr error
}

func (f *fakeFanout) Publish(_ context.Context, evt publishers.Event) (int, error) {
	if f.failErr != nil {
		return 0, f.failErr
	}
	f.events = append(f.events, evt)
	return 1, nil
}

func (f *fakeFanout) Size() int { return 1 }

type fakeStore struct {
	seen    map[string]bool
	seenErr error
	markErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{seen: make(map[string]bool)}
}

func (f *fakeStore) key(eui string, id int) string { return fmt.Sprintf("%s/%d", eui, id) }

func (f *fakeStore) SeenPacket(eui string, id int) (bool, error) {
	if f.seenErr != nil {
		return false, f.seenErr
	}
	return f.seen[f.key(eui, id)], nil
}

func (f *fakeStore) MarkPacket(eui string, id int) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.seen[f.key(eui, id)] = true
	return nil
}

func goldenUplink(t *testing.T) domain.Uplink {
	t.Helper()
	payload, err := hex.DecodeString(goldenFrameHex)
	if err != nil {
		t.Fatalf("decode golden frame: %v", err)
	}
	return domain.Uplink{
		ListenerID: "gw-north",
		DeviceEUI:  "70b3d5e75e00491c",
		Payload:    payload,
		ReceivedAt: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
	}
}

func TestHandleUplinkForwardsExactlyOnce(t *testing.T) {
	fanout := &fakeFanout{}
	svc := NewService(fanout, newFakeStore(), nil)

	up := goldenUplink(t)
	if err := svc.HandleUplink(context.Background(), up); err != nil {
		t.Fatalf("HandleUplink: %v", err)
	}

	if len(fanout.events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(fanout.events))
	}
	evt := fanout.events[0]
	if evt.DeviceEUI != up.DeviceEUI || evt.ListenerID != up.ListenerID {
		t.Fatalf("event identity mismatch: %+v", evt)
	}
	if !evt.ReceivedAt.Equal(up.ReceivedAt) {
		t.Fatalf("event received_at = %v, want %v", evt.ReceivedAt, up.ReceivedAt)
	}
	if evt.EventID == "" {
		t.Fatalf("event id not assigned")
	}
}

func TestHandleUplinkRecordMatchesDecoder(t *testing.T) {
	fanout := &fakeFanout{}
	svc := NewService(fanout, nil, nil)

	if err := svc.HandleUplink(context.Background(), goldenUplink(t)); err != nil {
		t.Fatalf("HandleUplink: %v", err)
	}

	record := fanout.events[0].Record
	if record.PacketID != 1 || record.RequestID != 0 {
		t.Fatalf("header = id %d req %d", record.PacketID, record.RequestID)
	}
	if len(record.Sensors) != 1 {
		t.Fatalf("expected one sensor group, got %d", len(record.Sensors))
	}
	sensor := record.Sensors[0]
	if sensor.SensorType != "SENSOR_DEBUG" || sensor.Slot != 0 {
		t.Fatalf("sensor = %s slot %d", sensor.SensorType, sensor.Slot)
	}
	if len(sensor.Measurements) != 2 {
		t.Fatalf("expected two measurements, got %d", len(sensor.Measurements))
	}
	for _, m := range sensor.Measurements {
		if m.Key != "gpio_value" {
			t.Fatalf("measurement key = %q", m.Key)
		}
	}
}

func TestHandleUplinkRejectsMalformedFrames(t *testing.T) {
	cases := []struct {
		name    string
		payload []byte
	}{
		{name: "empty payload", payload: nil},
		{name: "header only", payload: []byte{0xfa, 0x01, 0x01, 0x00, 0x01}},
		{name: "truncated measurement", payload: []byte{0xfa, 0x01, 0x01, 0x00, 0x02, 0x2a, 0, 0, 0, 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fanout := &fakeFanout{}
			svc := NewService(fanout, newFakeStore(), nil)

			up := goldenUplink(t)
			up.Payload = tc.payload

			err := svc.HandleUplink(context.Background(), up)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, domain.ErrMalformedUplink) {
				t.Fatalf("error %v not marked malformed", err)
			}
			if len(fanout.events) != 0 {
				t.Fatalf("malformed uplink must not publish, got %d events", len(fanout.events))
			}
		})
	}
}

func TestHandleUplinkSuppressesDuplicates(t *testing.T) {
	fanout := &fakeFanout{}
	store := newFakeStore()
	svc := NewService(fanout, store, nil)

	up := goldenUplink(t)
	for i := 0; i < 3; i++ {
		if err := svc.HandleUplink(context.Background(), up); err != nil {
			t.Fatalf("HandleUplink pass %d: %v", i, err)
		}
	}

	if len(fanout.events) != 1 {
		t.Fatalf("expected one forward across redeliveries, got %d", len(fanout.events))
	}
}

func TestHandleUplinkSamePacketIDAcrossDevices(t *testing.T) {
	fanout := &fakeFanout{}
	svc := NewService(fanout, newFakeStore(), nil)

	first := goldenUplink(t)
	second := goldenUplink(t)
	second.DeviceEUI = "70b3d5e75e004aff"

	if err := svc.HandleUplink(context.Background(), first); err != nil {
		t.Fatalf("first device: %v", err)
	}
	if err := svc.HandleUplink(context.Background(), second); err != nil {
		t.Fatalf("second device: %v", err)
	}

	if len(fanout.events) != 2 {
		t.Fatalf("dedup must be per device, got %d events", len(fanout.events))
	}
}

func TestHandleUplinkPublishFailureNotMarkedSeen(t *testing.T) {
	store := newFakeStore()
	fanout := &fakeFanout{failErr: errors.New("sink unavailable")}
	svc := NewService(fanout, store, nil)

	up := goldenUplink(t)
	err := svc.HandleUplink(context.Background(), up)
	if err == nil {
		t.Fatalf("expected publish error")
	}
	if errors.Is(err, domain.ErrMalformedUplink) {
		t.Fatalf("transient publish failure must not look malformed: %v", err)
	}

	// A redelivery after the sink recovers must still go out.
	fanout.failErr = nil
	if err := svc.HandleUplink(context.Background(), up); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(fanout.events) != 1 {
		t.Fatalf("expected one event after recovery, got %d", len(fanout.events))
	}
}

func TestHandleUplinkStoreErrorsAreNonFatal(t *testing.T) {
	fanout := &fakeFanout{}
	store := newFakeStore()
	store.seenErr = errors.New("db locked")
	store.markErr = errors.New("db locked")
	svc := NewService(fanout, store, nil)

	if err := svc.HandleUplink(context.Background(), goldenUplink(t)); err != nil {
		t.Fatalf("HandleUplink: %v", err)
	}
	if len(fanout.events) != 1 {
		t.Fatalf("expected relay despite store errors, got %d events", len(fanout.events))
	}
}
