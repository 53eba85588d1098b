//go:build !(rp2040 || rp2350)

package platform

import (
	"fmt"

	"homeclimate-go/drivers/i2cdev"
	"homeclimate-go/services/config"
	"homeclimate-go/services/serialcapture"
)

// Open opens the adapter named by cfg.I2C.Device and, for the serial
// transport, the tty in cfg.Serial.
func Open(cfg *config.Reporter) (*Board, error) {
	n, err := i2cdev.ParsePath(cfg.I2C.Device)
	if err != nil {
		return nil, err
	}
	dev, err := i2cdev.Open(n)
	if err != nil {
		return nil, err
	}
	b := &Board{Reset: NewExecResetter(cfg.RestartCommand)}
	b.closers = append(b.closers, dev)
	b.I2C = NewBus(dev, DefaultTxTimeout)
	b.closers = append(b.closers, b.I2C)

	if cfg.Transport == "serial" {
		port, name, err := serialcapture.OpenPort(cfg.Serial.Device, cfg.Serial.Baud, 0)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("serial transport: %w", err)
		}
		log.Infof("serial transport on %s at %d baud", name, cfg.Serial.Baud)
		b.Serial = port
		b.closers = append(b.closers, port)
	}
	log.Infof("i2c on %s", i2cdev.Path(n))
	return b, nil
}
