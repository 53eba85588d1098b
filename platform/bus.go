package platform

import (
	"sync"
	"time"

	"homeclimate-go/errcode"

	"tinygo.org/x/drivers"
)

// DefaultTxTimeout bounds one transaction on a Bus.
const DefaultTxTimeout = 500 * time.Millisecond

type txReq struct {
	addr uint16
	w, r []byte
	done chan error // buffered(1); worker replies best-effort
}

// Bus serialises transactions on one I2C peripheral through a single
// worker goroutine and gives every call a deadline. A wedged transfer
// costs the caller errcode.Timeout rather than the whole loop.
type Bus struct {
	hw      drivers.I2C
	timeout time.Duration
	reqs    chan txReq
	quit    chan struct{}
	once    sync.Once
}

var _ drivers.I2C = (*Bus)(nil)

// NewBus starts the worker. timeout <= 0 means no deadline.
func NewBus(hw drivers.I2C, timeout time.Duration) *Bus {
	b := &Bus{
		hw:      hw,
		timeout: timeout,
		reqs:    make(chan txReq, 16),
		quit:    make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *Bus) loop() {
	for {
		select {
		case req := <-b.reqs:
			err := b.hw.Tx(req.addr, req.w, req.r)
			select {
			case req.done <- err:
			default:
			}
		case <-b.quit:
			return
		}
	}
}

func (b *Bus) Tx(addr uint16, w, r []byte) error {
	select {
	case <-b.quit:
		return errcode.Closed
	default:
	}
	req := txReq{addr: addr, w: w, r: r, done: make(chan error, 1)}

	var deadline <-chan time.Time
	if b.timeout > 0 {
		t := time.NewTimer(b.timeout)
		defer t.Stop()
		deadline = t.C
	}

	select {
	case b.reqs <- req:
	case <-b.quit:
		return errcode.Closed
	case <-deadline:
		return errcode.Busy
	}

	select {
	case err := <-req.done:
		return err
	case <-b.quit:
		return errcode.Closed
	case <-deadline:
		log.Warnf("i2c tx to 0x%02x timed out after %s", addr, b.timeout)
		return errcode.Timeout
	}
}

// Close stops the worker. The underlying peripheral is left alone.
func (b *Bus) Close() error {
	b.once.Do(func() { close(b.quit) })
	return nil
}
