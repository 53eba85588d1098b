//go:build !(rp2040 || rp2350)

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"homeclimate-go/services/config"
)

func loadConfig() (*config.Reporter, error) {
	cfgPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()
	return config.LoadReporter(*cfgPath)
}

func notifyContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
