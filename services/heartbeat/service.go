// Package heartbeat watches per-location liveness for the collector. On
// each tick it takes a status snapshot, logs locations that went missing
// or came back, and publishes every change retained on status/<location>.
package heartbeat

import (
	"context"
	"time"

	"homeclimate-go/bus"
	"homeclimate-go/x/logx"
)

var log = logx.New("heartbeat")

var topicConfigHeartbeat = bus.Topic{"config", "heartbeat"}

// TopicStatus prefixes the retained per-location status topic.
const TopicStatus = "status"

// Status is the payload published on status/<location>.
type Status struct {
	Location string
	LastSeen *time.Time
	MIA      bool
}

// Source returns the current status of every known location.
type Source func() []Status

// Config may be published on config/heartbeat to change the interval.
type Config struct {
	Interval time.Duration
}

type Service struct {
	src      Source
	interval time.Duration
	last     map[string]bool
}

func New(src Source, interval time.Duration) *Service {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Service{src: src, interval: interval, last: map[string]bool{}}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	s.check(conn)
	for {
		select {
		case <-ctx.Done():
			log.Infof("heartbeat service stopping")
			return
		case <-tick.C:
			s.check(conn)
		case msg := <-cfgSub.Channel():
			if c, ok := msg.Payload.(Config); ok && c.Interval > 0 {
				s.interval = c.Interval
				tick.Reset(c.Interval)
				log.Infof("heartbeat interval set to %s", c.Interval)
			}
		}
	}
}

// check publishes locations whose MIA flag changed since the last call.
// The first sighting of a location always publishes.
func (s *Service) check(conn *bus.Connection) {
	for _, st := range s.src() {
		prev, seen := s.last[st.Location]
		if seen && prev == st.MIA {
			continue
		}
		s.last[st.Location] = st.MIA
		switch {
		case st.MIA:
			log.Warnf("%s is missing in action", st.Location)
		case seen:
			log.Infof("%s is reporting again", st.Location)
		}
		conn.Publish(conn.NewMessage(bus.Topic{TopicStatus, st.Location}, st, true))
	}
}

// Start runs the service until ctx ends. The returned channel closes
// when it has stopped.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.serviceLoop(ctx, conn)
	}()
	return done
}
