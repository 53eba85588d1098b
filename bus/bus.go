// Package bus is a small in-process publish/subscribe hub. Topics are
// string paths; subscriptions may use "+" for exactly one level and a
// trailing "#" for any number of remaining levels (including none).
package bus

import (
	"strings"
	"sync"
)

// Topic is a sequence of path levels, e.g. Topic{"reading", "kitchen"}.
type Topic []string

const (
	wildOne  = "+"
	wildRest = "#"
)

// ParseTopic splits "a/b/c" into a Topic.
func ParseTopic(s string) Topic { return Topic(strings.Split(s, "/")) }

func (t Topic) String() string { return strings.Join(t, "/") }

// Match reports whether the concrete topic t is covered by pattern p.
func (p Topic) Match(t Topic) bool {
	for i, lv := range p {
		if lv == wildRest {
			return true
		}
		if i >= len(t) {
			return false
		}
		if lv != wildOne && lv != t[i] {
			return false
		}
	}
	return len(p) == len(t)
}

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
}

type Subscription struct {
	pattern Topic
	ch      chan *Message
	conn    *Connection
	closed  bool
}

func (s *Subscription) Topic() Topic             { return s.pattern }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

// Bus fans messages out to matching subscriptions. A subscriber that
// falls behind loses its oldest queued message, never blocks publishers.
type Bus struct {
	mu       sync.Mutex
	subs     map[*Subscription]struct{}
	retained map[string]*Message
	qLen     int
}

// NewBus creates a bus whose subscriptions queue up to queueLen messages.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8
	}
	return &Bus{
		subs:     map[*Subscription]struct{}{},
		retained: map[string]*Message{},
		qLen:     queueLen,
	}
}

func (b *Bus) NewMessage(t Topic, payload any, retained bool) *Message {
	return &Message{Topic: t, Payload: payload, Retained: retained}
}

func deliver(sub *Subscription, msg *Message) {
	for {
		select {
		case sub.ch <- msg:
			return
		default:
		}
		select {
		case <-sub.ch:
		default:
		}
	}
}

// Publish delivers msg to every matching subscription. A retained message
// replaces the stored one for its topic; a retained nil payload clears it.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if msg.Retained {
		key := msg.Topic.String()
		if msg.Payload == nil {
			delete(b.retained, key)
		} else {
			b.retained[key] = msg
		}
	}
	for sub := range b.subs {
		if sub.pattern.Match(msg.Topic) {
			deliver(sub, msg)
		}
	}
}

func (b *Bus) subscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[sub] = struct{}{}
	for _, m := range b.retained {
		if sub.pattern.Match(m.Topic) {
			deliver(sub, m)
		}
	}
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub.closed {
		return
	}
	delete(b.subs, sub)
	sub.closed = true
	close(sub.ch)
}

// Connection groups the subscriptions of one component so they can be
// dropped together.
type Connection struct {
	bus  *Bus
	id   string
	mu   sync.Mutex
	subs []*Subscription
}

func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{bus: b, id: id}
}

// ID names the connection in logs.
func (c *Connection) ID() string { return c.id }

func (c *Connection) NewMessage(t Topic, payload any, retained bool) *Message {
	return c.bus.NewMessage(t, payload, retained)
}

func (c *Connection) Publish(msg *Message) { c.bus.Publish(msg) }

func (c *Connection) Subscribe(pattern Topic) *Subscription {
	sub := &Subscription{
		pattern: append(Topic(nil), pattern...),
		ch:      make(chan *Message, c.bus.qLen),
		conn:    c,
	}
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	c.bus.subscribe(sub)
	return sub
}

// Unsubscribe closes sub's channel. It is safe to call more than once.
func (c *Connection) Unsubscribe(sub *Subscription) {
	c.mu.Lock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	c.bus.unsubscribe(sub)
}

// Disconnect closes every subscription owned by c.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()
	for _, sub := range subs {
		c.bus.unsubscribe(sub)
	}
}
