// Package i2cfake is a scripted in-memory I2C bus for driver and probe tests.
package i2cfake

import (
	"errors"
	"sync"

	"tinygo.org/x/drivers"
)

// ErrNACK is returned for transactions to an address with no attached device.
var ErrNACK = errors.New("i2cfake: nack")

var _ drivers.I2C = (*Bus)(nil)

// Device answers reads with the reply registered for the first byte of the
// most recent write, falling back to Default.
type Device struct {
	Replies map[byte][]byte
	Default []byte
	Fail    error // when set, every transaction fails with it

	last []byte
}

// Tx is one recorded transaction.
type Tx struct {
	Addr uint16
	W    []byte
	R    []byte
}

// Bus implements drivers.I2C.
type Bus struct {
	mu      sync.Mutex
	devices map[uint16]*Device
	log     []Tx
}

func New() *Bus {
	return &Bus{devices: map[uint16]*Device{}}
}

// Attach places d at addr.
func (b *Bus) Attach(addr uint16, d *Device) *Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	if d.Replies == nil {
		d.Replies = map[byte][]byte{}
	}
	b.devices[addr] = d
	return d
}

func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	d, ok := b.devices[addr]
	if !ok {
		return ErrNACK
	}
	if d.Fail != nil {
		return d.Fail
	}
	if len(w) > 0 {
		d.last = append(d.last[:0], w...)
	}
	if len(r) > 0 {
		reply := d.Default
		if len(d.last) > 0 {
			if rr, ok := d.Replies[d.last[0]]; ok {
				reply = rr
			}
		}
		for i := range r {
			r[i] = 0
		}
		copy(r, reply)
	}
	b.log = append(b.log, Tx{
		Addr: addr,
		W:    append([]byte(nil), w...),
		R:    append([]byte(nil), r...),
	})
	return nil
}

// Writes returns every non-empty write sent to addr, in order.
func (b *Bus) Writes(addr uint16) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out [][]byte
	for _, tx := range b.log {
		if tx.Addr == addr && len(tx.W) > 0 {
			out = append(out, tx.W)
		}
	}
	return out
}

// Log returns a copy of all recorded transactions.
func (b *Bus) Log() []Tx {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Tx(nil), b.log...)
}
