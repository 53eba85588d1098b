package types

import "time"

// ------------------------
// Temperature & humidity
// ------------------------

// Kind tags the supported sensor chip protocols.
type Kind string

const (
	KindAHT20 Kind = "aht20" // Variant A: 4-byte calibrated humidity/temperature chip
	KindSHT4x Kind = "sht4x" // Variant B: mode-configurable precision/heater chip
)

// Sample is one measurement as produced by a sensor: native Celsius and
// relative humidity in percent.
type Sample struct {
	Celsius  float32   `json:"celsius"`
	Humidity float32   `json:"humidity"`
	TS       time.Time `json:"ts"`
}

// SensorInfo describes the probed sensor.
type SensorInfo struct {
	Kind   Kind   `json:"kind"`
	Addr   uint16 `json:"addr"`
	Detail string `json:"detail,omitempty"` // e.g. sht4x serial number or mode
}
