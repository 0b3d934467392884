package listeners

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/virinco/vicpack-relay/internal/domain"
)

// uplinkEnvelope is the JSON body LoRa gateways publish per device
// transmission. The VicPack frame travels hex encoded.
type uplinkEnvelope struct {
	DeviceEUI  string    `json:"device_eui"`
	PayloadHex string    `json:"payload"`
	ReceivedAt time.Time `json:"received_at"`
}

// parseUplink validates an envelope body and returns the raw uplink.
func parseUplink(listenerID string, body []byte) (domain.Uplink, error) {
	var env uplinkEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.Uplink{}, fmt.Errorf("%w: decode uplink envelope: %v", domain.ErrMalformedUplink, err)
	}

	env.DeviceEUI = strings.ToLower(strings.TrimSpace(env.DeviceEUI))
	if env.DeviceEUI == "" {
		return domain.Uplink{}, fmt.Errorf("%w: envelope missing device_eui", domain.ErrMalformedUplink)
	}

	env.PayloadHex = strings.TrimSpace(env.PayloadHex)
	if env.PayloadHex == "" {
		return domain.Uplink{}, fmt.Errorf("%w: envelope missing payload", domain.ErrMalformedUplink)
	}
	payload, err := hex.DecodeString(env.PayloadHex)
	if err != nil {
		return domain.Uplink{}, fmt.Errorf("%w: payload is not hex: %v", domain.ErrMalformedUplink, err)
	}

	receivedAt := env.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	return domain.Uplink{
		ListenerID: listenerID,
		DeviceEUI:  env.DeviceEUI,
		Payload:    payload,
		ReceivedAt: receivedAt,
	}, nil
}
