// Package sht4x provides a driver for the SHT4x family of temperature/humidity
// sensors. A measurement is a single command byte whose value selects the
// precision and heater setting (see Mode), followed by a 6-byte read:
//
//	[T msb, T lsb, T crc, RH msb, RH lsb, RH crc]
package sht4x

import (
	"context"
	"errors"
	"strings"
	"time"

	"homeclimate-go/x/mathx"
	"homeclimate-go/x/timex"

	"tinygo.org/x/drivers"
)

// I2C address.
const Address = 0x44

const (
	cmdReadSerial = 0x89
	cmdSoftReset  = 0x94
)

// Errors returned by the driver.
var (
	ErrCRC         = errors.New("sht4x: crc mismatch")
	ErrUnknownMode = errors.New("sht4x: unknown mode")
)

// Mode selects precision and heater use for a measurement.
type Mode uint8

const (
	NoHeatHighPrecision Mode = iota
	NoHeatMedPrecision
	NoHeatLowPrecision
	HighHeat1s
	HighHeat100ms
	MedHeat1s
	MedHeat100ms
	LowHeat1s
	LowHeat100ms
)

var modeNames = [...]string{
	NoHeatHighPrecision: "NoHeatHighPrecision",
	NoHeatMedPrecision:  "NoHeatMedPrecision",
	NoHeatLowPrecision:  "NoHeatLowPrecision",
	HighHeat1s:          "HighHeat1s",
	HighHeat100ms:       "HighHeat100ms",
	MedHeat1s:           "MedHeat1s",
	MedHeat100ms:        "MedHeat100ms",
	LowHeat1s:           "LowHeat1s",
	LowHeat100ms:        "LowHeat100ms",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "Mode(?)"
}

// Command is the measurement command byte for m.
func (m Mode) Command() byte {
	switch m {
	case NoHeatHighPrecision:
		return 0xFD
	case NoHeatMedPrecision:
		return 0xF6
	case NoHeatLowPrecision:
		return 0xE0
	case HighHeat1s:
		return 0x39
	case HighHeat100ms:
		return 0x32
	case MedHeat1s:
		return 0x2F
	case MedHeat100ms:
		return 0x24
	case LowHeat1s:
		return 0x1E
	case LowHeat100ms:
		return 0x15
	}
	return 0xFD
}

// Delay is the conversion time to wait before reading back.
func (m Mode) Delay() time.Duration {
	switch m {
	case NoHeatHighPrecision:
		return 10 * time.Millisecond
	case NoHeatMedPrecision:
		return 5 * time.Millisecond
	case NoHeatLowPrecision:
		return 2 * time.Millisecond
	case HighHeat1s, MedHeat1s, LowHeat1s:
		return 1100 * time.Millisecond
	case HighHeat100ms, MedHeat100ms, LowHeat100ms:
		return 110 * time.Millisecond
	}
	return 10 * time.Millisecond
}

// ParseMode maps a mode name (case-insensitive) to a Mode.
func ParseMode(s string) (Mode, error) {
	for i, n := range modeNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return Mode(i), nil
		}
	}
	return 0, ErrUnknownMode
}

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	Address uint16 // defaults to 0x44
	Mode    Mode   // defaults to NoHeatHighPrecision
	// CheckCRC verifies the CRC byte of each word.
	CheckCRC bool
	// ResetSettle is waited after the soft reset. Default 1 ms.
	ResetSettle time.Duration
	// DelayScale shrinks mode delays; tests use it. Zero means 1.
	DelayScale float64
}

// Device wraps an I2C connection to an SHT4x device.
type Device struct {
	bus     drivers.I2C
	Address uint16

	cfg Config
	buf [6]byte
}

// New creates the Device object without touching the bus.
func New(bus drivers.I2C) *Device {
	return &Device{bus: bus, Address: Address}
}

// Configure applies cfg and soft-resets the chip. A NACK here means no
// SHT4x is present.
func (d *Device) Configure(ctx context.Context, cfgs ...Config) error {
	if len(cfgs) > 0 {
		d.cfg = cfgs[0]
	}
	if d.cfg.Address != 0 {
		d.Address = d.cfg.Address
	}
	if d.cfg.ResetSettle <= 0 {
		d.cfg.ResetSettle = time.Millisecond
	}
	return d.Reset(ctx)
}

// Reset issues a soft reset and waits for the chip to settle.
func (d *Device) Reset(ctx context.Context) error {
	if err := d.bus.Tx(d.Address, []byte{cmdSoftReset}, nil); err != nil {
		return err
	}
	return timex.Sleep(ctx, d.cfg.ResetSettle)
}

// SetMode changes the mode used by subsequent measurements.
func (d *Device) SetMode(m Mode) { d.cfg.Mode = m }

// Mode returns the active measurement mode.
func (d *Device) Mode() Mode { return d.cfg.Mode }

func (d *Device) wait(ctx context.Context, dur time.Duration) error {
	if d.cfg.DelayScale > 0 {
		dur = time.Duration(float64(dur) * d.cfg.DelayScale)
	}
	return timex.Sleep(ctx, dur)
}

// Read runs one measurement in the active mode.
func (d *Device) Read(ctx context.Context) (Sample, error) {
	m := d.cfg.Mode
	if err := d.bus.Tx(d.Address, []byte{m.Command()}, nil); err != nil {
		return Sample{}, err
	}
	if err := d.wait(ctx, m.Delay()); err != nil {
		return Sample{}, err
	}
	data := d.buf[:]
	if err := d.bus.Tx(d.Address, nil, data); err != nil {
		return Sample{}, err
	}
	if d.cfg.CheckCRC {
		if CRC8(data[0:2]) != data[2] || CRC8(data[3:5]) != data[5] {
			return Sample{}, ErrCRC
		}
	}
	var s Sample
	copy(s.Raw[:], data)
	return s, nil
}

// SerialNumber reads the 32-bit chip serial number.
func (d *Device) SerialNumber(ctx context.Context) (uint32, error) {
	if err := d.bus.Tx(d.Address, []byte{cmdReadSerial}, nil); err != nil {
		return 0, err
	}
	if err := timex.Sleep(ctx, 10*time.Millisecond); err != nil {
		return 0, err
	}
	var buf [6]byte
	if err := d.bus.Tx(d.Address, nil, buf[:]); err != nil {
		return 0, err
	}
	return uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[3])<<8 | uint32(buf[4]), nil
}

// Sample holds one raw 6-byte measurement frame.
type Sample struct {
	Raw [6]byte
}

func (s Sample) Celsius() float32     { return DecodeTemperature(s.Raw) }
func (s Sample) RelHumidity() float32 { return DecodeHumidity(s.Raw) }

// DecodeTemperature converts the first word to °C: -45 + 175*raw/65535.
func DecodeTemperature(buf [6]byte) float32 {
	raw := uint16(buf[0])<<8 | uint16(buf[1])
	return -45 + 175*float32(raw)/65535
}

// DecodeHumidity converts the second word to %RH: -6 + 125*raw/65535,
// clamped to [0, 100].
func DecodeHumidity(buf [6]byte) float32 {
	raw := uint16(buf[3])<<8 | uint16(buf[4])
	return mathx.Clamp(-6+125*float32(raw)/65535, 0, 100)
}

// CRC8 is the Sensirion checksum (poly 0x31, init 0xFF).
func CRC8(data []byte) byte {
	crc := byte(0xFF)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
