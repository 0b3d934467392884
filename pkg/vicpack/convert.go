package vicpack

import "math"

// Conversion rules for the raw 32-bit data words. Several sensors ship their
// 16-bit result little endian inside the word, hence the swap16 dance.

// swap16 swaps the byte order of the low 16 bits.
func swap16(m uint32) uint32 {
	return ((m >> 8) & 0xFF) | ((m & 0xFF) << 8)
}

func rawValue(m uint32) []float64 {
	return []float64{float64(m)}
}

// DriverInfo describes one sensor driver entry of a packet.
type DriverInfo struct {
	Slot    int
	Driver  int
	Index   int
	Enabled bool
}

func decodeDriverInfo(m uint32) DriverInfo {
	return DriverInfo{
		Driver:  int(m >> 24),
		Slot:    int((m & 0x00FF0000) >> 16),
		Index:   int((m & 0x0000FF00) >> 8),
		Enabled: m&0x000000FF != 0,
	}
}

func driverInfoValues(m uint32) []float64 {
	info := decodeDriverInfo(m)
	enabled := 0.0
	if info.Enabled {
		enabled = 1.0
	}
	return []float64{float64(info.Slot), float64(info.Driver), float64(info.Index), enabled}
}

func onDieVoltage(m uint32) []float64 {
	return []float64{float64(m) / 1000.0}
}

func batteryVoltage(m uint32) []float64 {
	return []float64{float64(m) / 1000000.0}
}

func onDieTemperature(m uint32) []float64 {
	return []float64{float64(int16(m)) / 100.0}
}

func externalTemperature(m uint32) []float64 {
	return []float64{float64(m)*175.72/65536.0 - 46.85}
}

func externalHumidity(m uint32) []float64 {
	return []float64{float64(m)*125.0/65536.0 - 6.0}
}

func switchValue(m uint32) []float64 {
	return []float64{float64(m >> 8), float64(m & 255)}
}

func acceleration(m uint32) []float64 {
	return []float64{float64(int16(m)>>6) * 0.0039}
}

func charge(m uint32) []float64 {
	return []float64{float64(uint16(m))}
}

func extCurrent(m uint32) []float64 {
	return []float64{float64(m) * 0.0000322911}
}

func extVoltage(m uint32) []float64 {
	return []float64{float64(m) * 0.0484438}
}

// ambientLight decodes the OPT-style half precision value: 4 exponent bits
// over a 12 bit mantissa, 0.01 lux resolution.
func ambientLight(m uint32) []float64 {
	m = swap16(m)
	exp := m >> 12
	man := m & 4095
	return []float64{0.01 * math.Pow(2, float64(exp)) * float64(man)}
}

func errorCode(m uint32) []float64 {
	return []float64{float64(int32(m)) * -1}
}

func swVersion(m uint32) []float64 {
	return []float64{
		float64((m >> 16) & 0xFF),
		float64((m >> 8) & 0xFF),
		float64(m & 0xFF),
	}
}

func vocIAQ(m uint32) []float64 {
	m = swap16(m)
	return []float64{float64(m & 0x3FFF), float64((m >> 14) & 3)}
}

func vocTemperature(m uint32) []float64 {
	m = swap16(m)
	return []float64{float64(m&0xFFFF) / 10.0}
}

func vocHumidity(m uint32) []float64 {
	m = swap16(m)
	return []float64{float64(m) / 100.0}
}

func vocPressure(m uint32) []float64 {
	m = swap16(m)
	return []float64{float64(m&0xFFFF) * 10.0}
}

func vocAmbientLight(m uint32) []float64 {
	return ambientLight(m)
}

// vocSoundLevel converts the raw microphone reading to dB SPL using the
// analog front end characteristics (82k feedback, 1k series, 11.23 mV/Pa).
func vocSoundLevel(m uint32) []float64 {
	m = swap16(m)
	const (
		rf   = 82000.0
		rs   = 1000.0
		vref = 11.23
	)
	vmic := -((math.Pow(2, -1-16) * rs * 3.0 * (math.Pow(2, 16) - 2*float64(m))) / rf)
	if vmic/vref <= 0 {
		return []float64{0}
	}
	dbspl := 20*math.Log10(vmic/vref) + (-42) + 94
	return []float64{dbspl}
}

func tofDistance(m uint32) []float64 {
	m = swap16(m)
	return []float64{float64(m & 0x1FFF), float64((m >> 13) & 7)}
}

func terminalVoltage(m uint32) []float64 {
	m = swap16(m)
	return []float64{float64(m) * (3.0 / 65536.0)}
}

func terminalVoltageDiff(m uint32) []float64 {
	m = swap16(m)
	return []float64{float64(m) * (3.0 / 32768.0)}
}

var (
	siIncPrefixes = []string{"k", "M", "G", "T", "P", "E", "Z", "Y"}
	siDecPrefixes = []string{"m", "u", "n", "p", "f", "a", "z", "y"}
)

// SIScale rescales a value into the 1..1000 range and returns the matching
// SI prefix, for human readable rendering of si-tagged measurements.
func SIScale(v float64) (float64, string) {
	if v == 0 {
		return 0, ""
	}
	degree := int(math.Floor(math.Log10(math.Abs(v)) / 3))
	if degree == 0 {
		return v, ""
	}

	var prefix string
	if degree > 0 {
		if degree-1 < len(siIncPrefixes) {
			prefix = siIncPrefixes[degree-1]
		} else {
			prefix = siIncPrefixes[len(siIncPrefixes)-1]
			degree = len(siIncPrefixes)
		}
	} else {
		if -degree-1 < len(siDecPrefixes) {
			prefix = siDecPrefixes[-degree-1]
		} else {
			prefix = siDecPrefixes[len(siDecPrefixes)-1]
			degree = -len(siDecPrefixes)
		}
	}
	return v * math.Pow(1000, float64(-degree)), prefix
}
