//go:build rp2040 || rp2350

package main

import (
	"context"
	"time"

	"homeclimate-go/services/config"
)

// Set at link time, e.g. -ldflags "-X main.location=kitchen".
var (
	location      string
	transportKind = "serial"
)

func loadConfig() (*config.Reporter, error) {
	// Allow USB CDC to enumerate before we log.
	time.Sleep(2 * time.Second)
	cfg, err := config.DefaultReporter()
	if err != nil {
		return nil, err
	}
	cfg.Location = location
	cfg.Transport = transportKind
	if cfg.Transport == "serial" && cfg.Serial.Device == "" {
		cfg.Serial.Device = "uart0"
	}
	return cfg, cfg.Validate()
}

func notifyContext() (context.Context, context.CancelFunc) {
	return context.WithCancel(context.Background())
}
