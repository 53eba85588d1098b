//go:build linux && !(rp2040 || rp2350)

package i2cdev

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
	"tinygo.org/x/drivers"
)

// ioctl requests and message flags from linux/i2c-dev.h and linux/i2c.h.
const (
	i2cSlave = 0x0703
	i2cRdwr  = 0x0707

	flagRead = 0x0001
)

type i2cMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   uintptr
}

type rdwrData struct {
	msgs  uintptr
	nmsgs uint32
}

var _ drivers.I2C = (*Bus)(nil)

// Bus is an open adapter. Tx is safe for concurrent use.
type Bus struct {
	mu   sync.Mutex
	fd   int
	addr int
	path string
}

// Open opens /dev/i2c-n.
func Open(n int) (*Bus, error) {
	p := Path(n)
	fd, err := unix.Open(p, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	return &Bus{fd: fd, addr: -1, path: p}, nil
}

// Tx performs a write, a read, or a write followed by a repeated-start
// read in a single I2C_RDWR transfer.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fd < 0 {
		return ErrClosed
	}
	switch {
	case len(w) > 0 && len(r) > 0:
		return b.rdwr(addr, w, r)
	case len(w) > 0:
		if err := b.setAddr(addr); err != nil {
			return err
		}
		_, err := unix.Write(b.fd, w)
		return err
	case len(r) > 0:
		if err := b.setAddr(addr); err != nil {
			return err
		}
		_, err := unix.Read(b.fd, r)
		return err
	}
	return nil
}

func (b *Bus) setAddr(addr uint16) error {
	if b.addr == int(addr) {
		return nil
	}
	if err := unix.IoctlSetInt(b.fd, i2cSlave, int(addr)); err != nil {
		return fmt.Errorf("%s: select 0x%02x: %w", b.path, addr, err)
	}
	b.addr = int(addr)
	return nil
}

func (b *Bus) rdwr(addr uint16, w, r []byte) error {
	msgs := [2]i2cMsg{
		{addr: addr, len: uint16(len(w)), buf: uintptr(unsafe.Pointer(&w[0]))},
		{addr: addr, flags: flagRead, len: uint16(len(r)), buf: uintptr(unsafe.Pointer(&r[0]))},
	}
	data := rdwrData{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: 2}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(b.fd), i2cRdwr, uintptr(unsafe.Pointer(&data)))
	if errno != 0 {
		return errno
	}
	return nil
}

// Close releases the file descriptor.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fd < 0 {
		return nil
	}
	err := unix.Close(b.fd)
	b.fd = -1
	return err
}
