//go:build rp2040 || rp2350

package platform

import (
	"device/arm"
	"machine"

	"homeclimate-go/services/config"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// Active is the wiring Open uses.
var Active = PicoW

type cpuResetter struct{}

// Reset does not return.
func (cpuResetter) Reset(reason string) error {
	log.Warnf("cpu reset: %s", reason)
	arm.SystemReset()
	return nil
}

// Open configures i2c0 and, for the serial transport, uart0.
func Open(cfg *config.Reporter) (*Board, error) {
	p := Active
	sda, scl := machine.Pin(p.I2C.SDA), machine.Pin(p.I2C.SCL)
	sda.Configure(machine.PinConfig{Mode: machine.PinI2C})
	scl.Configure(machine.PinConfig{Mode: machine.PinI2C})
	if err := machine.I2C0.Configure(machine.I2CConfig{SCL: scl, SDA: sda, Frequency: p.I2C.Hz}); err != nil {
		return nil, err
	}

	b := &Board{Reset: cpuResetter{}}
	b.I2C = NewBus(machine.I2C0, DefaultTxTimeout)
	b.closers = append(b.closers, b.I2C)

	if cfg.Transport == "serial" {
		baud := p.UART.Baud
		if cfg.Serial.Baud > 0 {
			baud = uint32(cfg.Serial.Baud)
		}
		if err := uartx.UART0.Configure(uartx.UARTConfig{
			BaudRate: baud,
			TX:       machine.Pin(p.UART.TX),
			RX:       machine.Pin(p.UART.RX),
		}); err != nil {
			_ = b.Close()
			return nil, err
		}
		b.Serial = uartx.UART0
	}
	return b, nil
}
