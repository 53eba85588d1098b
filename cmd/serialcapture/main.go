// Command serialcapture reads "T:x:H:y:" frames from a serial port, shows
// the latest values with a sparkline and logs them to a CSV at a fixed
// interval.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"homeclimate-go/services/config"
	"homeclimate-go/services/serialcapture"
	"homeclimate-go/x/logx"
)

var log = logx.New("main")

func main() {
	cfgPath := flag.String("config", "", "path to a YAML config file")
	port := flag.String("port", "", "serial port (overrides config)")
	flag.Parse()

	if err := run(*cfgPath, *port); err != nil {
		fmt.Fprintln(os.Stderr, "serialcapture:", err)
		os.Exit(1)
	}
}

func run(cfgPath, portName string) error {
	cfg, err := config.LoadCapture(cfgPath)
	if err != nil {
		return err
	}
	if portName != "" {
		cfg.Port = portName
	}
	if err := logx.Init(logx.Options{Level: cfg.Logging.Level, File: cfg.Logging.File, Console: cfg.Logging.Console}); err != nil {
		return err
	}
	defer logx.Close()

	p, name, err := serialcapture.OpenPort(cfg.Port, cfg.Baud, cfg.ReadTimeout)
	if err != nil {
		return err
	}
	defer p.Close()
	log.Infof("reading %s at %d baud, logging to %s every %s", name, cfg.Baud, cfg.LogFile, cfg.PersistEvery)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := serialcapture.New(serialcapture.Options{
		LogFile:      cfg.LogFile,
		PersistEvery: cfg.PersistEvery,
		History:      cfg.History,
		Console:      os.Stdout,
	})
	if err := c.Run(ctx, p); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
