// Package vicpack decodes Vicotee VicPack telemetry frames.
//
// A frame is a byte string with a five byte header followed by fixed width
// measurement cells:
//
//	byte 0    SOP
//	byte 1    protocol version
//	byte 2    packet id
//	byte 3    request id
//	byte 4    number of measurements
//	byte 5..  measurement cells, 5 bytes each: type byte + 4 data bytes (big endian)
//
// Trailing bytes (CRC16 + EOP) are not part of the measurement area and are
// left untouched.
package vicpack

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	packetIndexOffset   = 2 // packet id position in the header
	packetRequestOffset = 3 // request id position in the header
	packetCountOffset   = 4 // measurement count position in the header
	packetHeaderLen     = 5 // offset from SOP to the first measurement
	measurementLen      = 5 // bytes per measurement cell
)

// Packet is a parsed VicPack frame.
type Packet struct {
	ID        int
	RequestID int
	Count     int
	raw       []byte
}

// Decode parses a raw VicPack frame.
func Decode(raw []byte) (*Packet, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("vicpack: empty payload")
	}
	if len(raw) < packetHeaderLen {
		return nil, fmt.Errorf("vicpack: payload too short (%d bytes, header needs %d)", len(raw), packetHeaderLen)
	}

	count := int(raw[packetCountOffset])
	if count == 0 {
		return nil, fmt.Errorf("vicpack: packet declares zero measurements")
	}
	if need := packetHeaderLen + count*measurementLen; len(raw) < need {
		return nil, fmt.Errorf("vicpack: truncated packet: %d measurements need %d bytes, have %d", count, need, len(raw))
	}

	return &Packet{
		ID:        int(raw[packetIndexOffset]),
		RequestID: int(raw[packetRequestOffset]),
		Count:     count,
		raw:       raw,
	}, nil
}

// DecodeHex parses a hex encoded VicPack frame, the form gateways deliver.
func DecodeHex(s string) (*Packet, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("vicpack: empty payload")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("vicpack: payload is not hex: %w", err)
	}
	return Decode(raw)
}

// Size returns the total frame length in bytes.
func (p *Packet) Size() int { return len(p.raw) }

// measurement returns the type byte and big endian data word of cell i.
func (p *Packet) measurement(i int) (byte, uint32) {
	off := packetHeaderLen + i*measurementLen
	typ := p.raw[off]
	var data uint32
	for b := 0; b < 4; b++ {
		data = data<<8 | uint32(p.raw[off+1+b])
	}
	return typ, data
}

// Measurement is one decoded reading.
type Measurement struct {
	Key    string    `json:"key"`
	Values []float64 `json:"values"`
	Units  []string  `json:"units"`
}

// Sensor groups the measurements reported by one driver slot.
type Sensor struct {
	Slot         int           `json:"slot"`
	SensorType   string        `json:"sensorType"`
	Index        int           `json:"index"`
	Enabled      bool          `json:"enabled"`
	Measurements []Measurement `json:"measurements"`
}

// Record is the structured export of a packet, ready for publishing.
type Record struct {
	PacketID  int      `json:"packetId"`
	RequestID int      `json:"requestId"`
	Sensors   []Sensor `json:"sensors"`
}

const (
	// DefaultSlot marks measurements that arrived without a preceding
	// driver_info cell (async packets).
	DefaultSlot = -1
	// DefaultSensorType is the sensor name used for such measurements.
	DefaultSensorType = "UNKNOWN"
)

// Export walks the measurement cells and groups them into sensor slots.
// A driver_info cell opens a new slot; anything before the first driver_info
// lands in a synthetic UNKNOWN slot.
func (p *Packet) Export() Record {
	rec := Record{
		PacketID:  p.ID,
		RequestID: p.RequestID,
		Sensors:   []Sensor{},
	}

	cur := Sensor{
		Slot:         DefaultSlot,
		SensorType:   DefaultSensorType,
		Measurements: []Measurement{},
	}
	open := false

	for i := 0; i < p.Count; i++ {
		typ, data := p.measurement(i)
		if typ == typeDriverInfo {
			if open || len(cur.Measurements) > 0 {
				rec.Sensors = append(rec.Sensors, cur)
			}
			info := decodeDriverInfo(data)
			cur = Sensor{
				Slot:         info.Slot,
				SensorType:   SensorName(info.Driver),
				Index:        info.Index,
				Enabled:      info.Enabled,
				Measurements: []Measurement{},
			}
			open = true
			continue
		}
		cur.Measurements = append(cur.Measurements, decodeMeasurement(typ, data))
	}

	rec.Sensors = append(rec.Sensors, cur)
	return rec
}

// decodeMeasurement resolves the type table entry for a cell. Unknown type
// codes fall back to the raw value so that newer firmware does not break
// older relays.
func decodeMeasurement(typ byte, data uint32) Measurement {
	info, ok := typeTable[typ]
	if !ok {
		return Measurement{
			Key:    "no_measurement",
			Values: []float64{float64(data)},
			Units:  []string{""},
		}
	}
	return Measurement{
		Key:    info.key,
		Values: info.convert(data),
		Units:  info.units,
	}
}

// String renders a short packet summary used in structured logs.
func (p *Packet) String() string {
	return fmt.Sprintf("id: %03d, request: %03d, measurements: %02d, size: %d bytes",
		p.ID, p.RequestID, p.Count, len(p.raw))
}
