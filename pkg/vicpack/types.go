package vicpack

// Measurement type codes as emitted by device firmware.
const (
	typeDriverInfo byte = 1
	typeAck        byte = 126
)

// converter turns the raw 32-bit data word of one cell into engineering values.
type converter func(uint32) []float64

type typeInfo struct {
	key     string
	units   []string
	si      bool
	convert converter
}

// typeTable maps firmware measurement type codes to their decode rules.
var typeTable = map[byte]typeInfo{
	0:   {key: "no_measurement", units: []string{""}, convert: rawValue},
	1:   {key: "driver_info", units: []string{""}, convert: driverInfoValues},
	2:   {key: "sampling_time", units: []string{"sec"}, convert: rawValue},
	3:   {key: "sampling_time_lsb", units: []string{""}, convert: rawValue},
	4:   {key: "sampling_time_offset", units: []string{"usec"}, convert: rawValue},
	7:   {key: "internal_battery_on_die", units: []string{"V"}, si: true, convert: onDieVoltage},
	8:   {key: "internal_battery", units: []string{"V"}, si: true, convert: batteryVoltage},
	11:  {key: "internal_temperature", units: []string{"C"}, si: true, convert: onDieTemperature},
	13:  {key: "voltage_real_part", units: []string{"V"}, si: true, convert: extVoltage},
	14:  {key: "voltage_imag_part", units: []string{"V"}, si: true, convert: rawValue},
	15:  {key: "current_real_part", units: []string{"A"}, si: true, convert: extCurrent},
	16:  {key: "current_imag_part", units: []string{"A"}, si: true, convert: rawValue},
	19:  {key: "charge", units: []string{"C"}, si: true, convert: charge},
	20:  {key: "temperature", units: []string{"C"}, convert: externalTemperature},
	21:  {key: "humidity", units: []string{"RH"}, convert: externalHumidity},
	22:  {key: "pressure", units: []string{"bar"}, convert: rawValue},
	23:  {key: "acceleration_x", units: []string{"g"}, si: true, convert: acceleration},
	24:  {key: "acceleration_y", units: []string{"g"}, si: true, convert: acceleration},
	25:  {key: "acceleration_z", units: []string{"g"}, si: true, convert: acceleration},
	26:  {key: "switch_interrupt", units: []string{"pin", "value"}, convert: switchValue},
	27:  {key: "audio_average", units: []string{"count"}, convert: rawValue},
	28:  {key: "audio_max", units: []string{"count"}, convert: rawValue},
	29:  {key: "audio_spl", units: []string{"dB"}, convert: rawValue},
	30:  {key: "ambient_light_visible", units: []string{"lux"}, convert: ambientLight},
	31:  {key: "ambient_light_ir", units: []string{"lux"}, convert: rawValue},
	32:  {key: "ambient_light_uv", units: []string{""}, convert: rawValue},
	33:  {key: "co2_level", units: []string{"g"}, convert: rawValue},
	34:  {key: "distance", units: []string{"mm"}, convert: rawValue},
	35:  {key: "sample_rate", units: []string{"msec"}, convert: rawValue},
	40:  {key: "magnetometer", units: []string{""}, convert: rawValue},
	41:  {key: "fft_data", units: []string{""}, convert: rawValue},
	42:  {key: "gpio_value", units: []string{""}, convert: rawValue},
	43:  {key: "voc_iaq", units: []string{"index", "state"}, convert: vocIAQ},
	44:  {key: "voc_temperature", units: []string{"C"}, convert: vocTemperature},
	45:  {key: "voc_humidity", units: []string{"RH%"}, convert: vocHumidity},
	46:  {key: "voc_pressure", units: []string{"pA"}, convert: vocPressure},
	47:  {key: "voc_ambient_light", units: []string{"lux"}, convert: vocAmbientLight},
	48:  {key: "voc_sound_level", units: []string{"dbSpl"}, convert: vocSoundLevel},
	49:  {key: "tof_distance", units: []string{"mm", "state"}, convert: tofDistance},
	50:  {key: "accelerometer_status", units: []string{"state"}, convert: rawValue},
	51:  {key: "gps", units: []string{"state"}, convert: rawValue},
	52:  {key: "voltage", units: []string{"V"}, convert: terminalVoltage},
	53:  {key: "voltage_diff", units: []string{"V"}, convert: terminalVoltageDiff},
	54:  {key: "voltage_ref", units: []string{"V"}, convert: terminalVoltage},
	100: {key: "advertisement", units: []string{""}, convert: rawValue},
	121: {key: "stream_start", units: []string{""}, convert: rawValue},
	122: {key: "stream_stop", units: []string{""}, convert: rawValue},
	123: {key: "value_raw", units: []string{""}, convert: rawValue},
	124: {key: "app_sw_ver", units: []string{""}, convert: swVersion},
	125: {key: "driver_resp", units: []string{""}, convert: rawValue},
	126: {key: "packet_ack", units: []string{""}, convert: rawValue},
	127: {key: "error_code", units: []string{""}, convert: errorCode},
	128: {key: "crc_code", units: []string{""}, convert: rawValue},
	129: {key: "shutdown", units: []string{""}, convert: rawValue},
	130: {key: "variable_length", units: []string{""}, convert: rawValue},
	131: {key: "device_id", units: []string{""}, convert: rawValue},
	132: {key: "device_pin", units: []string{""}, convert: rawValue},
	133: {key: "rssi_level", units: []string{""}, convert: rawValue},
	134: {key: "cell_id", units: []string{""}, convert: rawValue},
	135: {key: "config_ver", units: []string{""}, convert: rawValue},
}

// sensorNames maps driver numbers from driver_info cells to sensor names.
var sensorNames = []string{
	"SENSOR_NO_SENSOR",       // 0
	"SENSOR_SI7050_TEMP",     // 1
	"SENSOR_SI7020_HUMIDITY", // 2
	"SENSOR_SWITCH",          // 3
	"SENSOR_INTERNAL_ADC",    // 4
	"SENSOR_LTC1864L_ADC",    // 5
	"SENSOR_420MA_LOOP",      // 6
	"SENSOR_UART",            // 7
	"SENSOR_ACCELEROMETER",   // 8
	"SENSOR_DIGITAL_MIC",     // 9
	"SENSOR_AMBIENT_LIGHT",   // 10
	"SENSOR_CO2_MODULE",      // 11
	"SENSOR_CUSTOM_1",        // 12
	"SENSOR_CUSTOM_2",        // 13
	"SENSOR_CUSTOM_3",        // 14
	"SENSOR_CUSTOM_4",        // 15
	"SENSOR_DEBUG",           // 16
	"SENSOR_ENVIRONMENTAL",   // 17
	"SENSOR_GPS",             // 18
	"SENSOR_TERMINAL",        // 19
	"SENSOR_TOF",             // 20
	"SENSOR_PIR",             // 21
	"SENSOR_CAPA",            // 22
	"SENSOR_SONAR",           // 23
}

// SensorName returns the sensor name for a driver number.
func SensorName(driver int) string {
	if driver < 0 || driver >= len(sensorNames) {
		return DefaultSensorType
	}
	return sensorNames[driver]
}

// errorNames maps firmware error codes reported via error_code cells.
var errorNames = []string{
	"No Error",
	"Generic Error",
	"No Resources",
	"Invalid value",
	"Timeout",
	"Object not found",
	"Invalid state",
	"Hardware error",
	"Device busy",
	"Corrupted resource",
	"Resource in use",
	"Comparison error",
	"Readonly resource",
	"Flash erase",
	"Read error",
	"Write error",
	"Resource already exists",
	"Not supported",
	"Invalid size",
	"Invalid type",
	"Unknown parameter",
	"Access denied",
	"Low voltage",
}

// ErrorName returns the firmware error name for a decoded error_code value.
func ErrorName(code int) string {
	if code < 0 || code >= len(errorNames) {
		return "Unknown error"
	}
	return errorNames[code]
}
