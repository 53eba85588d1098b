package platform

import (
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"homeclimate-go/drivers/i2cfake"
	"homeclimate-go/errcode"
	"homeclimate-go/x/logx"
)

func TestMain(m *testing.M) {
	logx.SetOutput(io.Discard, logx.Error)
	os.Exit(m.Run())
}

func TestBusForwards(t *testing.T) {
	fake := i2cfake.New()
	fake.Attach(0x44, &i2cfake.Device{Replies: map[byte][]byte{0x89: {1, 2, 3}}})
	b := NewBus(fake, time.Second)
	defer b.Close()

	r := make([]byte, 3)
	if err := b.Tx(0x44, []byte{0x89}, r); err != nil {
		t.Fatalf("Tx: %v", err)
	}
	if r[0] != 1 || r[2] != 3 {
		t.Fatalf("read %v", r)
	}
	if err := b.Tx(0x38, []byte{0x71}, r[:1]); !errors.Is(err, i2cfake.ErrNACK) {
		t.Fatalf("absent device: %v", err)
	}
}

type stuckI2C struct{ release chan struct{} }

func (s stuckI2C) Tx(uint16, []byte, []byte) error {
	<-s.release
	return nil
}

func TestBusTimeout(t *testing.T) {
	hw := stuckI2C{release: make(chan struct{})}
	defer close(hw.release)
	b := NewBus(hw, 20*time.Millisecond)
	defer b.Close()

	if err := b.Tx(0x38, []byte{0xAC}, nil); errcode.Of(err) != errcode.Timeout {
		t.Fatalf("err = %v, want timeout", err)
	}
}

func TestBusClosed(t *testing.T) {
	b := NewBus(i2cfake.New(), 0)
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	_ = b.Close()
	if err := b.Tx(0x38, nil, nil); errcode.Of(err) != errcode.Closed {
		t.Fatalf("err = %v, want closed", err)
	}
}

func TestBusSerialises(t *testing.T) {
	fake := i2cfake.New()
	fake.Attach(0x38, &i2cfake.Device{})
	b := NewBus(fake, time.Second)
	defer b.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := b.Tx(0x38, []byte{byte(i)}, nil); err != nil {
				t.Errorf("Tx: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if got := len(fake.Writes(0x38)); got != 8 {
		t.Fatalf("writes = %d, want 8", got)
	}
}
