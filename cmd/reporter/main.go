// Command reporter reads the climate sensor once a period and sends each
// reading to the collector over HTTP or as a serial frame.
package main

import (
	"context"
	"fmt"
	"os"

	"homeclimate-go/drivers/sht4x"
	"homeclimate-go/platform"
	"homeclimate-go/services/config"
	"homeclimate-go/services/reporter"
	"homeclimate-go/services/sensor"
	"homeclimate-go/services/transport"
	"homeclimate-go/x/logx"
)

var log = logx.New("main")

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "reporter:", err)
		os.Exit(1)
	}
	ctx, stop := notifyContext()
	defer stop()
	if err := run(ctx, cfg); err != nil {
		fmt.Fprintln(os.Stderr, "reporter:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Reporter) error {
	if err := logx.Init(logx.Options{Level: cfg.Logging.Level, File: cfg.Logging.File, Console: cfg.Logging.Console}); err != nil {
		return err
	}
	defer logx.Close()

	board, err := platform.Open(cfg)
	if err != nil {
		return err
	}
	defer board.Close()

	mode, err := sht4x.ParseMode(cfg.SHT4x.Mode)
	if err != nil {
		return err
	}
	s, info, err := sensor.Probe(ctx, board.I2C, sensor.Options{
		SHT4x: sht4x.Config{Mode: mode, CheckCRC: cfg.SHT4x.CheckCRC},
	})
	if err != nil {
		return err
	}
	log.Infof("sensor %s at 0x%02x %s", info.Kind, info.Addr, info.Detail)

	var tr reporter.Transport
	switch cfg.Transport {
	case "serial":
		tr = transport.NewSerial(board.Serial)
	default:
		h := transport.NewHTTP(cfg.ServerURL, transport.HTTPOptions{
			Timeout:       cfg.ReportTimeout,
			MaxRequestLen: cfg.MaxRequestLen,
		})
		defer h.Close()
		tr = h
	}

	r := reporter.New(reporter.Config{
		Location:      cfg.Location,
		Period:        cfg.Period,
		ReportTimeout: cfg.ReportTimeout,
		ResetGrace:    cfg.ResetGrace,
		MaxUptime:     cfg.MaxUptime,
		WarmupReads:   cfg.WarmupReads,
	}, s, tr, board.Reset)

	err = r.Run(ctx)
	if ctx.Err() != nil {
		log.Infof("stopped")
		return nil
	}
	// A reset was handed off or failed. Exit non-zero so a supervisor
	// still brings us back.
	return err
}
