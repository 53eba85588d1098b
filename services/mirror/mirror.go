// Package mirror copies accepted readings from the bus into external
// stores. Sinks are best effort: a failed write is logged and dropped.
package mirror

import (
	"context"
	"errors"
	"time"

	"homeclimate-go/bus"
	"homeclimate-go/services/store"
	"homeclimate-go/x/logx"
)

var log = logx.New("mirror")

// Sink receives each accepted reading.
type Sink interface {
	Name() string
	Write(ctx context.Context, a store.Accepted) error
	Close() error
}

// WriteTimeout bounds one sink write.
var WriteTimeout = 5 * time.Second

type Service struct {
	sinks []Sink
}

func New(sinks ...Sink) *Service {
	return &Service{sinks: sinks}
}

// Start subscribes to reading/+ on conn and forwards in a goroutine until
// ctx ends. The returned channel closes when the loop exits.
func (s *Service) Start(ctx context.Context, conn *bus.Connection, topic string) <-chan struct{} {
	sub := conn.Subscribe(bus.Topic{topic, "+"})
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer conn.Unsubscribe(sub)
		s.serviceLoop(ctx, sub)
	}()
	return done
}

func (s *Service) serviceLoop(ctx context.Context, sub *bus.Subscription) {
	for {
		select {
		case <-ctx.Done():
			log.Infof("mirror stopping")
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			a, ok := msg.Payload.(store.Accepted)
			if !ok {
				log.Warnf("unexpected payload on %s: %T", msg.Topic, msg.Payload)
				continue
			}
			s.forward(ctx, a)
		}
	}
}

func (s *Service) forward(ctx context.Context, a store.Accepted) {
	for _, sk := range s.sinks {
		wctx, cancel := context.WithTimeout(ctx, WriteTimeout)
		err := sk.Write(wctx, a)
		cancel()
		if err != nil {
			log.Warnf("%s: %s: %v", sk.Name(), a.Location, err)
		}
	}
}

// Close closes every sink.
func (s *Service) Close() error {
	var errs []error
	for _, sk := range s.sinks {
		if err := sk.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
