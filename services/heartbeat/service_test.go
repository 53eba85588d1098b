package heartbeat

import (
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"homeclimate-go/bus"
	"homeclimate-go/x/logx"
)

func TestMain(m *testing.M) {
	logx.SetOutput(io.Discard, logx.Error)
	os.Exit(m.Run())
}

type fakeSource struct {
	mu  sync.Mutex
	st  []Status
	hit int
}

func (f *fakeSource) set(st ...Status) {
	f.mu.Lock()
	f.st = st
	f.mu.Unlock()
}

func (f *fakeSource) get() []Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hit++
	return append([]Status(nil), f.st...)
}

func (f *fakeSource) hits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hit
}

func recv(t *testing.T, sub *bus.Subscription) *bus.Message {
	t.Helper()
	select {
	case m := <-sub.Channel():
		return m
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for status")
	}
	return nil
}

func expectNone(t *testing.T, sub *bus.Subscription) {
	t.Helper()
	select {
	case m := <-sub.Channel():
		t.Fatalf("unexpected status on %s: %+v", m.Topic, m.Payload)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestCheckPublishesTransitionsOnly(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("heartbeat")
	sub := b.NewConnection("ui").Subscribe(bus.Topic{TopicStatus, "#"})

	src := &fakeSource{}
	s := New(src.get, time.Minute)

	src.set(Status{Location: "kitchen"}, Status{Location: "attic", MIA: true})
	s.check(conn)
	first := map[string]bool{}
	for i := 0; i < 2; i++ {
		m := recv(t, sub)
		st := m.Payload.(Status)
		if !m.Retained || m.Topic.String() != "status/"+st.Location {
			t.Fatalf("message %+v", m)
		}
		first[st.Location] = st.MIA
	}
	if first["kitchen"] || !first["attic"] {
		t.Fatalf("first sighting = %v", first)
	}

	s.check(conn)
	expectNone(t, sub)

	src.set(Status{Location: "kitchen", MIA: true}, Status{Location: "attic", MIA: true})
	s.check(conn)
	m := recv(t, sub)
	if st := m.Payload.(Status); st.Location != "kitchen" || !st.MIA {
		t.Fatalf("transition = %+v", st)
	}
	expectNone(t, sub)
}

func TestRetainedStatusForLateSubscriber(t *testing.T) {
	b := bus.NewBus(8)
	src := &fakeSource{}
	src.set(Status{Location: "garage", MIA: true})
	New(src.get, time.Minute).check(b.NewConnection("heartbeat"))

	sub := b.NewConnection("late").Subscribe(bus.Topic{TopicStatus, "garage"})
	if st := recv(t, sub).Payload.(Status); !st.MIA {
		t.Fatalf("retained = %+v", st)
	}
}

func TestIntervalFromConfig(t *testing.T) {
	b := bus.NewBus(8)
	src := &fakeSource{}
	s := New(src.get, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := s.Start(ctx, b.NewConnection("heartbeat"))

	deadline := time.Now().Add(time.Second)
	for src.hits() < 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cfg := b.NewConnection("config")
	cfg.Publish(cfg.NewMessage(topicConfigHeartbeat, Config{Interval: 5 * time.Millisecond}, false))

	for src.hits() < 4 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done
	if n := src.hits(); n < 4 {
		t.Fatalf("source polled %d times after interval change", n)
	}
}
