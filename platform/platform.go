// Package platform opens the hardware a reporter needs: the sensor bus,
// the optional serial link and a way to restart. The host build uses
// /dev/i2c-N and a tty; the rp2 build uses the on-chip peripherals.
package platform

import (
	"errors"
	"io"

	"homeclimate-go/x/logx"
)

var log = logx.New("platform")

// Resetter restarts the process or the board.
type Resetter interface {
	Reset(reason string) error
}

// Board is the opened hardware.
type Board struct {
	I2C    *Bus
	Serial io.Writer // nil unless the serial transport is configured
	Reset  Resetter

	closers []io.Closer
}

// Close releases everything Open acquired, in reverse order.
func (b *Board) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
