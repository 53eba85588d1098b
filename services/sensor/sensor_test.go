package sensor

import (
	"context"
	"errors"
	"testing"
	"time"

	"homeclimate-go/drivers/aht20"
	"homeclimate-go/drivers/i2cfake"
	"homeclimate-go/drivers/sht4x"
	"homeclimate-go/errcode"
	"homeclimate-go/types"
)

var fast = Options{
	AHT20: aht20.Config{
		InitSettle:     time.Millisecond,
		Conversion:     time.Millisecond,
		PollInterval:   time.Millisecond,
		CollectTimeout: 5 * time.Millisecond,
	},
}

func TestProbePrefersAHT20(t *testing.T) {
	bus := i2cfake.New()
	bus.Attach(aht20.Address, &i2cfake.Device{
		Replies: map[byte][]byte{0x71: {0x18}},
		Default: []byte{0x1C, 0x80, 0x00, 0x08, 0x00, 0x00, 0x00},
	})
	bus.Attach(sht4x.Address, &i2cfake.Device{})

	s, info, err := Probe(context.Background(), bus, fast)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if s.Kind() != types.KindAHT20 || info.Kind != types.KindAHT20 || info.Addr != aht20.Address {
		t.Fatalf("kind = %v info = %+v", s.Kind(), info)
	}
	r, err := s.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if r.Celsius != 50 || r.Humidity != 50 || r.TS.IsZero() {
		t.Fatalf("reading = %+v", r)
	}
	if len(bus.Writes(sht4x.Address)) != 0 {
		t.Fatal("sht4x must not be touched when aht20 answers")
	}
}

func TestProbeFallsBackToSHT4x(t *testing.T) {
	bus := i2cfake.New()
	bus.Attach(sht4x.Address, &i2cfake.Device{
		Replies: map[byte][]byte{0xFD: {0x66, 0x39, 0x2E, 0x43, 0x33, 0x5C}},
	})

	s, info, err := Probe(context.Background(), bus, fast)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if s.Kind() != types.KindSHT4x || info.Addr != sht4x.Address {
		t.Fatalf("kind = %v info = %+v", s.Kind(), info)
	}
	r, err := s.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if r.Celsius < 24.87 || r.Celsius > 24.89 {
		t.Fatalf("celsius = %v", r.Celsius)
	}
}

func TestProbeNoSensor(t *testing.T) {
	_, _, err := Probe(context.Background(), i2cfake.New(), fast)
	if errcode.Of(err) != errcode.SensorAbsent {
		t.Fatalf("Probe err = %v, want sensor_absent", err)
	}
	if !errors.Is(err, i2cfake.ErrNACK) {
		t.Fatalf("cause not kept: %v", err)
	}
}
