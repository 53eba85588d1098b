// Package reporter runs the firmware reading loop: read the sensor on a
// fixed period, hand the sample to a transport, and reset the whole
// process when a cycle hangs or the uptime ceiling is reached.
package reporter

import (
	"context"
	"sync/atomic"
	"time"

	"homeclimate-go/errcode"
	"homeclimate-go/services/sensor"
	"homeclimate-go/types"
	"homeclimate-go/x/logx"
	"homeclimate-go/x/timex"
)

var log = logx.New("reporter")

// State of the reading loop.
type State int32

const (
	Starting State = iota
	Running
	Resetting
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	default:
		return "resetting"
	}
}

// Transport delivers one sample for a location.
type Transport interface {
	Send(ctx context.Context, location string, s types.Sample) error
}

// Resetter restarts the process or the board. On hardware it does not
// return; a returned error means the restart could not be started.
type Resetter interface {
	Reset(reason string) error
}

// Reasons passed to Resetter.Reset.
const (
	ReasonHung   = "report timeout"
	ReasonUptime = "uptime ceiling"
)

type Config struct {
	Location      string
	Period        time.Duration // default 60s
	ReportTimeout time.Duration // default 10s
	ResetGrace    time.Duration // default 1s
	MaxUptime     time.Duration // default 4h
	WarmupReads   int           // readings discarded at start; negative means none
}

func (c Config) withDefaults() Config {
	if c.Period <= 0 {
		c.Period = time.Minute
	}
	if c.ReportTimeout <= 0 {
		c.ReportTimeout = 10 * time.Second
	}
	if c.ResetGrace < 0 {
		c.ResetGrace = 0
	}
	if c.MaxUptime <= 0 {
		c.MaxUptime = 4 * time.Hour
	}
	if c.WarmupReads < 0 {
		c.WarmupReads = 0
	}
	return c
}

type Reporter struct {
	cfg    Config
	sensor sensor.Sensor
	tr     Transport
	reset  Resetter
	now    func() time.Time

	state atomic.Int32
}

func New(cfg Config, s sensor.Sensor, tr Transport, rs Resetter) *Reporter {
	return &Reporter{
		cfg:    cfg.withDefaults(),
		sensor: s,
		tr:     tr,
		reset:  rs,
		now:    time.Now,
	}
}

// State reports the current loop state.
func (r *Reporter) State() State { return State(r.state.Load()) }

// Run blocks until ctx is cancelled or a reset is triggered. After a
// reset it returns an error carrying errcode.Hung or errcode.Timeout.
func (r *Reporter) Run(ctx context.Context) error {
	start := r.now()
	r.state.Store(int32(Starting))

	for i := 0; i < r.cfg.WarmupReads; i++ {
		rctx, cancel := context.WithTimeout(ctx, r.cfg.ReportTimeout)
		_, err := r.sensor.Read(rctx)
		cancel()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Debugf("warm-up read %d discarded (err=%v)", i+1, err)
	}

	r.state.Store(int32(Running))
	log.Infof("running: location=%s period=%s timeout=%s", r.cfg.Location, r.cfg.Period, r.cfg.ReportTimeout)

	tick := time.NewTicker(r.cfg.Period)
	defer tick.Stop()

	for {
		if err := r.cycle(ctx); err != nil {
			return err
		}
		if up := r.now().Sub(start); up > r.cfg.MaxUptime {
			log.Warnf("uptime %s exceeds %s", up.Round(time.Second), r.cfg.MaxUptime)
			return r.doReset(ctx, ReasonUptime, errcode.Timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}

// cycle races one report against the timeout. Only a hang or ctx
// cancellation ends the loop; report failures are logged and dropped.
func (r *Reporter) cycle(ctx context.Context) error {
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.report(cctx) }()

	timer := time.NewTimer(r.cfg.ReportTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			log.Warnf("cycle dropped: %v", err)
		}
		return nil
	case <-timer.C:
		log.Errorf("report did not finish within %s", r.cfg.ReportTimeout)
		return r.doReset(ctx, ReasonHung, errcode.Hung)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Reporter) report(ctx context.Context) error {
	s, err := r.sensor.Read(ctx)
	if err != nil {
		return errcode.Wrap(errcode.Of(err), "sensor read", err)
	}
	log.Debugf("read %.2fC %.2f%%", s.Celsius, s.Humidity)
	return r.tr.Send(ctx, r.cfg.Location, s)
}

func (r *Reporter) doReset(ctx context.Context, reason string, code errcode.Code) error {
	r.state.Store(int32(Resetting))
	if err := timex.Sleep(ctx, r.cfg.ResetGrace); err != nil {
		return err
	}
	log.Errorf("resetting: %s", reason)
	if err := r.reset.Reset(reason); err != nil {
		return errcode.Wrap(code, "reset", err)
	}
	return errcode.New(code, "reset", reason)
}
