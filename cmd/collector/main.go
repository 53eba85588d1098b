// Command collector receives readings over HTTP, appends them to one CSV
// per location and serves plots and an index page.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homeclimate-go/bus"
	"homeclimate-go/services/collector"
	"homeclimate-go/services/config"
	"homeclimate-go/services/heartbeat"
	"homeclimate-go/services/mirror"
	"homeclimate-go/services/plot"
	"homeclimate-go/services/store"
	"homeclimate-go/x/logx"
)

var log = logx.New("main")

func main() {
	cfgPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*cfgPath); err != nil {
		fmt.Fprintln(os.Stderr, "collector:", err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := config.LoadCollector(cfgPath)
	if err != nil {
		return err
	}
	if err := logx.Init(logx.Options{Level: cfg.Logging.Level, File: cfg.Logging.File, Console: cfg.Logging.Console}); err != nil {
		return err
	}
	defer logx.Close()

	reg, err := store.Open(cfg.LogDir)
	if err != nil {
		return err
	}
	defer reg.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := bus.NewBus(16)

	sinks, err := openSinks(cfg)
	if err != nil {
		return err
	}
	var mirrorDone <-chan struct{}
	if len(sinks) > 0 {
		m := mirror.New(sinks...)
		defer m.Close()
		mirrorDone = m.Start(ctx, b.NewConnection("mirror"), collector.TopicReading)
	}

	srv := collector.New(reg, b.NewConnection("collector"), collector.Options{
		MIAAfter:       cfg.MIAAfter,
		MaxPoints:      cfg.Plot.MaxPoints,
		Plot:           plot.Options{Width: cfg.Plot.Width, Height: cfg.Plot.Height},
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})
	hb := heartbeat.New(func() []heartbeat.Status {
		var out []heartbeat.Status
		for _, ls := range srv.Status() {
			out = append(out, heartbeat.Status{Location: string(ls.Location), LastSeen: ls.LastModified, MIA: ls.MIA})
		}
		return out
	}, cfg.Heartbeat)
	hbDone := hb.Start(ctx, b.NewConnection("heartbeat"))

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s, logs in %s", cfg.Listen, reg.Dir())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Infof("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("shutdown: %v", err)
	}
	stop()
	<-hbDone
	if mirrorDone != nil {
		<-mirrorDone
	}
	return nil
}

func openSinks(cfg *config.Collector) ([]mirror.Sink, error) {
	var sinks []mirror.Sink
	if cfg.Influx.Enabled() {
		sinks = append(sinks, mirror.NewInflux(cfg.Influx.URL, cfg.Influx.Token, cfg.Influx.Org, cfg.Influx.Bucket))
		log.Infof("mirroring to influx %s bucket %s", cfg.Influx.URL, cfg.Influx.Bucket)
	}
	if cfg.Database.Driver != "" {
		db, err := mirror.OpenSQL(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			for _, s := range sinks {
				_ = s.Close()
			}
			return nil, err
		}
		sinks = append(sinks, db)
		log.Infof("mirroring to %s database", cfg.Database.Driver)
	}
	return sinks, nil
}
