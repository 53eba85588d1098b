// Package sensor turns the two supported chip drivers into one capability:
// something that yields a temperature/humidity Sample on demand.
package sensor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"homeclimate-go/drivers/aht20"
	"homeclimate-go/drivers/sht4x"
	"homeclimate-go/errcode"
	"homeclimate-go/types"
	"homeclimate-go/x/logx"

	"tinygo.org/x/drivers"
)

var log = logx.New("sensor")

// Sensor produces one reading per call. Implementations own the bus for
// the duration of Read and are not safe for concurrent use.
type Sensor interface {
	Kind() types.Kind
	Read(ctx context.Context) (types.Sample, error)
}

// Options carries per-variant driver settings used during probing.
type Options struct {
	AHT20 aht20.Config
	SHT4x sht4x.Config
}

// Probe initialises Variant A (AHT20) and falls back to Variant B (SHT4x).
// When neither answers the returned error carries errcode.SensorAbsent.
func Probe(ctx context.Context, bus drivers.I2C, o Options) (Sensor, types.SensorInfo, error) {
	a := aht20.New(bus)
	st, errA := a.Configure(ctx, o.AHT20)
	if errA == nil {
		if !st.Calibrated {
			log.Warnf("aht20 at 0x%02x reports uncalibrated (status 0x%02x)", a.Address, st.Raw)
		}
		info := types.SensorInfo{Kind: types.KindAHT20, Addr: a.Address, Detail: fmt.Sprintf("status=0x%02x", st.Raw)}
		log.Infof("using aht20 at 0x%02x", a.Address)
		return &ahtSensor{dev: a}, info, nil
	}
	if ctx.Err() != nil {
		return nil, types.SensorInfo{}, ctx.Err()
	}
	log.Debugf("aht20 probe failed: %v", errA)

	b := sht4x.New(bus)
	errB := b.Configure(ctx, o.SHT4x)
	if errB == nil {
		info := types.SensorInfo{Kind: types.KindSHT4x, Addr: b.Address, Detail: "mode=" + b.Mode().String()}
		if sn, err := b.SerialNumber(ctx); err == nil {
			info.Detail += fmt.Sprintf(" serial=%08x", sn)
		} else {
			log.Warnf("sht4x serial number: %v", err)
		}
		log.Infof("using sht4x at 0x%02x (%s)", b.Address, info.Detail)
		return &shtSensor{dev: b}, info, nil
	}
	return nil, types.SensorInfo{}, errcode.Wrap(errcode.SensorAbsent, "probe",
		errors.Join(fmt.Errorf("aht20: %w", errA), fmt.Errorf("sht4x: %w", errB)))
}

type ahtSensor struct{ dev *aht20.Device }

func (s *ahtSensor) Kind() types.Kind { return types.KindAHT20 }

func (s *ahtSensor) Read(ctx context.Context) (types.Sample, error) {
	raw, err := s.dev.Read(ctx)
	if err != nil {
		return types.Sample{}, err
	}
	return types.Sample{Celsius: raw.Celsius(), Humidity: raw.RelHumidity(), TS: time.Now()}, nil
}

type shtSensor struct{ dev *sht4x.Device }

func (s *shtSensor) Kind() types.Kind { return types.KindSHT4x }

func (s *shtSensor) Read(ctx context.Context) (types.Sample, error) {
	raw, err := s.dev.Read(ctx)
	if err != nil {
		return types.Sample{}, err
	}
	return types.Sample{Celsius: raw.Celsius(), Humidity: raw.RelHumidity(), TS: time.Now()}, nil
}
