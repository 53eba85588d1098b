// Package serialcapture reads "T:<temp>:H:<humid>:" frames from a serial
// line, shows the latest values on the console, and appends them to a
// CSV log at a fixed interval.
package serialcapture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"homeclimate-go/x/logx"
)

var log = logx.New("capture")

// StampLayout is the datetime column of the capture log.
const StampLayout = "1/2/2006 3:04:05 PM"

// maxPending bounds bytes held while waiting for a line end.
const maxPending = 256

type Options struct {
	LogFile      string        // default log/env_log.csv
	PersistEvery time.Duration // default 60s
	History      int           // sparkline length; default 60
	Console      io.Writer     // status lines; nil disables
}

// Capture holds the latest decoded values. It is driven by Run from a
// single goroutine.
type Capture struct {
	opts        Options
	temp, humid float64
	lastPersist time.Time
	hist        *History
	now         func() time.Time
}

func New(o Options) *Capture {
	if o.LogFile == "" {
		o.LogFile = filepath.Join("log", "env_log.csv")
	}
	if o.PersistEvery <= 0 {
		o.PersistEvery = time.Minute
	}
	return &Capture{opts: o, hist: NewHistory(o.History), now: time.Now}
}

// Latest returns the most recent temperature and humidity.
func (c *Capture) Latest() (temp, humid float64) { return c.temp, c.humid }

// Run reads r until ctx ends or r fails. Read timeouts that return zero
// bytes are not errors.
func (c *Capture) Run(ctx context.Context, r io.Reader) error {
	c.lastPersist = c.now()
	buf := make([]byte, 32)
	var pending []byte
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			pending = c.consume(pending)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(pending) > 0 {
					c.Feed(pending)
				}
				return nil
			}
			return fmt.Errorf("serial read: %w", err)
		}
	}
}

// consume feeds every complete line in p and returns the remainder.
func (c *Capture) consume(p []byte) []byte {
	for {
		i := indexLineEnd(p)
		if i < 0 {
			break
		}
		if i > 0 {
			c.Feed(p[:i])
		}
		p = p[i+1:]
	}
	if len(p) > maxPending {
		c.Feed(p)
		p = p[:0]
	}
	return p
}

func indexLineEnd(p []byte) int {
	for i, b := range p {
		if b == '\n' || b == '\r' {
			return i
		}
	}
	return -1
}

// Feed applies one buffer: decoded values replace the latest ones, the
// console line is refreshed, and the log is appended when due.
func (c *Capture) Feed(buf []byte) {
	v := ScanFrame(buf)
	if !v.HasTemp && !v.HasHumid {
		log.Debugf("ignored %q", buf)
		return
	}
	if v.HasTemp {
		c.temp = v.Temp
		c.hist.Push(v.Temp)
	}
	if v.HasHumid {
		c.humid = v.Humid
	}
	if c.opts.Console != nil {
		fmt.Fprintln(c.opts.Console, Render(c.temp, c.humid, c.hist))
	}
	if now := c.now(); now.Sub(c.lastPersist) > c.opts.PersistEvery {
		c.lastPersist = now
		if err := c.persist(now); err != nil {
			log.Errorf("persist: %v", err)
		}
	}
}

// Line renders one log line: "M/D/YYYY h:mm:ss AM/PM,temp,humid".
func Line(at time.Time, temp, humid float64) string {
	return fmt.Sprintf("%s,%v,%v\n", at.Format(StampLayout), temp, humid)
}

func (c *Capture) persist(at time.Time) error {
	if err := os.MkdirAll(filepath.Dir(c.opts.LogFile), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(c.opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(Line(at, c.temp, c.humid))
	if err == nil {
		log.Infof("logged %v/%v to %s", c.temp, c.humid, c.opts.LogFile)
	}
	return err
}
