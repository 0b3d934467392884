package listeners

import (
	"errors"
	"testing"
	"time"

	"github.com/virinco/vicpack-relay/internal/domain"
)

func TestParseUplink(t *testing.T) {
	body := []byte(`{"device_eui":"70B3D5E75E00491C","payload":"fa0101000101100002019b7c","received_at":"2026-08-29T10:15:00Z"}`)

	up, err := parseUplink("gw-north", body)
	if err != nil {
		t.Fatalf("parseUplink: %v", err)
	}
	if up.ListenerID != "gw-north" {
		t.Fatalf("listener id = %q", up.ListenerID)
	}
	if up.DeviceEUI != "70b3d5e75e00491c" {
		t.Fatalf("device eui not lowercased: %q", up.DeviceEUI)
	}
	if len(up.Payload) != 12 || up.Payload[0] != 0xfa {
		t.Fatalf("payload decoded badly: %x", up.Payload)
	}
	want := time.Date(2026, 8, 29, 10, 15, 0, 0, time.UTC)
	if !up.ReceivedAt.Equal(want) {
		t.Fatalf("received_at = %v, want %v", up.ReceivedAt, want)
	}
}

func TestParseUplinkDefaultsReceivedAt(t *testing.T) {
	before := time.Now().UTC()
	up, err := parseUplink("gw-1", []byte(`{"device_eui":"aa","payload":"fa"}`))
	if err != nil {
		t.Fatalf("parseUplink: %v", err)
	}
	if up.ReceivedAt.Before(before) || up.ReceivedAt.After(time.Now().UTC()) {
		t.Fatalf("received_at not defaulted to now: %v", up.ReceivedAt)
	}
}

func TestParseUplinkRejectsMalformedEnvelopes(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "not json", body: "fa0101"},
		{name: "missing device eui", body: `{"payload":"fa01"}`},
		{name: "missing payload", body: `{"device_eui":"aa"}`},
		{name: "non-hex payload", body: `{"device_eui":"aa","payload":"zz"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseUplink("gw-1", []byte(tc.body))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, domain.ErrMalformedUplink) {
				t.Fatalf("error %v not marked malformed", err)
			}
		})
	}
}
