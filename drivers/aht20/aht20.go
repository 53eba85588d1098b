// Package aht20 provides a driver for the AHT20 temperature/humidity sensor.
// It exposes a two-phase measurement API:
//
//	d.Trigger()              // start a measurement (fast)
//	err := d.Collect(&s)     // fetch when ready; returns ErrNotReady while busy
//
// For convenience, d.Read(ctx) performs trigger, the conversion wait and
// bounded polling until ready.
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when both
// w and r are provided, without releasing the bus.
package aht20

import (
	"context"
	"errors"
	"time"

	"homeclimate-go/x/timex"

	"tinygo.org/x/drivers"
)

// I2C address.
const Address = 0x38

// Commands and status bits (per datasheet/common driver practice).
const (
	cmdTrigger    = 0xAC
	cmdInitialize = 0xBE
	cmdSoftReset  = 0xBA
	cmdStatus     = 0x71

	statusBusy       = 0x80
	statusCalibrated = 0x08
)

// Errors returned by the driver.
var (
	ErrTimeout  = errors.New("aht20: timeout")
	ErrNotReady = errors.New("aht20: not ready")
)

// Config controls timing. All fields are optional.
type Config struct {
	// Address defaults to 0x38 if zero.
	Address uint16
	// InitSettle is waited after the init command and again after the status
	// read. Default 80 ms.
	InitSettle time.Duration
	// Conversion is waited between Trigger and the first Collect. Default 80 ms.
	Conversion time.Duration
	// PollInterval is used by Read() between Collect() attempts for ErrNotReady.
	// Default 15 ms.
	PollInterval time.Duration
	// CollectTimeout bounds the polling in Read() after the conversion wait.
	// Default 250 ms.
	CollectTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Address == 0 {
		c.Address = Address
	}
	if c.InitSettle <= 0 {
		c.InitSettle = 80 * time.Millisecond
	}
	if c.Conversion <= 0 {
		c.Conversion = 80 * time.Millisecond
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 15 * time.Millisecond
	}
	if c.CollectTimeout <= 0 {
		c.CollectTimeout = 250 * time.Millisecond
	}
	return c
}

// Status is the decoded status byte.
type Status struct {
	Raw        byte
	Busy       bool
	Calibrated bool
}

func decodeStatus(b byte) Status {
	return Status{Raw: b, Busy: b&statusBusy != 0, Calibrated: b&statusCalibrated != 0}
}

// Device wraps an I2C connection to an AHT20 device.
type Device struct {
	bus     drivers.I2C
	Address uint16

	cfg Config
	buf [7]byte // reuse buffer to avoid allocations
}

// New creates a new AHT20 connection. The I2C bus must already be configured.
// This function only creates the Device object; it does not touch the device.
func New(bus drivers.I2C) *Device {
	return &Device{
		bus:     bus,
		Address: Address,
		cfg:     Config{}.withDefaults(),
	}
}

// Configure sends the init command, waits the settle delay and reads the
// status byte. A bus error (typically a NACK when no chip is present) is
// returned as-is. The calibration bit is reported, not enforced.
func (d *Device) Configure(ctx context.Context, cfgs ...Config) (Status, error) {
	if len(cfgs) > 0 {
		d.cfg = cfgs[0].withDefaults()
	}
	d.Address = d.cfg.Address

	if err := d.bus.Tx(d.Address, []byte{cmdInitialize, 0x08, 0x00}, nil); err != nil {
		return Status{}, err
	}
	if err := timex.Sleep(ctx, d.cfg.InitSettle); err != nil {
		return Status{}, err
	}
	st, err := d.Status()
	if err != nil {
		return Status{}, err
	}
	if err := timex.Sleep(ctx, d.cfg.InitSettle); err != nil {
		return Status{}, err
	}
	return st, nil
}

// Reset issues a soft reset. Give the device ~20ms afterwards before using.
func (d *Device) Reset() error {
	return d.bus.Tx(d.Address, []byte{cmdSoftReset}, nil)
}

// Status reads and decodes the status byte.
func (d *Device) Status() (Status, error) {
	data := []byte{0}
	if err := d.bus.Tx(d.Address, []byte{cmdStatus}, data); err != nil {
		return Status{}, err
	}
	return decodeStatus(data[0]), nil
}

// Trigger starts a measurement. It is a quick register write with no blocking.
func (d *Device) Trigger() error {
	return d.bus.Tx(d.Address, []byte{cmdTrigger, 0x33, 0x00}, nil)
}

// Collect reads the 7-byte measurement frame into out. If the device is still
// converting, ErrNotReady is returned. Any bus error is returned as-is.
func (d *Device) Collect(out *Sample) error {
	data := d.buf[:]
	if err := d.bus.Tx(d.Address, nil, data); err != nil {
		return err
	}
	if data[0]&statusBusy != 0 {
		return ErrNotReady
	}
	if out != nil {
		copy(out.Raw[:], data)
	}
	return nil
}

// Read performs a full measurement cycle: Trigger, the conversion wait, then
// bounded polling until Collect succeeds or the timeout elapses.
func (d *Device) Read(ctx context.Context) (Sample, error) {
	var s Sample
	if err := d.Trigger(); err != nil {
		return s, err
	}
	if err := timex.Sleep(ctx, d.cfg.Conversion); err != nil {
		return s, err
	}
	deadline := time.Now().Add(d.cfg.CollectTimeout)
	for {
		err := d.Collect(&s)
		switch err {
		case nil:
			return s, nil
		case ErrNotReady:
			if time.Now().After(deadline) {
				return s, ErrTimeout
			}
			if err := timex.Sleep(ctx, d.cfg.PollInterval); err != nil {
				return s, err
			}
		default:
			return s, err
		}
	}
}

// Sample holds one raw 7-byte measurement frame: status, 20-bit humidity,
// 20-bit temperature, CRC.
type Sample struct {
	Raw [7]byte
}

// Celsius returns the decoded temperature.
func (s Sample) Celsius() float32 { return DecodeTemperature(s.Raw) }

// RelHumidity returns the decoded relative humidity in percent.
func (s Sample) RelHumidity() float32 { return DecodeHumidity(s.Raw) }

// RawTemp is the 20-bit temperature field spanning bytes 3..5.
func RawTemp(buf [7]byte) uint32 {
	return (uint32(buf[3]&0x0F) << 16) | (uint32(buf[4]) << 8) | uint32(buf[5])
}

// RawHumidity is the 20-bit humidity field spanning bytes 1..3.
func RawHumidity(buf [7]byte) uint32 {
	return (uint32(buf[1]) << 12) | (uint32(buf[2]) << 4) | (uint32(buf[3]) >> 4)
}

// DecodeTemperature converts a frame to °C: raw/2^20*200 - 50.
func DecodeTemperature(buf [7]byte) float32 {
	return float32(RawTemp(buf))/float32(1<<20)*200 - 50
}

// DecodeHumidity converts a frame to %RH: raw/2^20*100.
func DecodeHumidity(buf [7]byte) float32 {
	return float32(RawHumidity(buf)) / float32(1<<20) * 100
}
