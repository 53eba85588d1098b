// Package i2cdev exposes a Linux /dev/i2c-N character device as a
// tinygo drivers.I2C so the chip drivers run unchanged on a host.
package i2cdev

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrClosed is returned by Tx after Close.
var ErrClosed = errors.New("i2cdev: closed")

// Path returns the device node for bus n.
func Path(n int) string { return fmt.Sprintf("/dev/i2c-%d", n) }

// ParsePath accepts "/dev/i2c-N" or a bare "N" and returns N.
func ParsePath(dev string) (int, error) {
	s := strings.TrimPrefix(strings.TrimSpace(dev), "/dev/i2c-")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("i2cdev: bad device %q", dev)
	}
	return n, nil
}
