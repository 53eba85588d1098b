package transport

import (
	"context"
	"fmt"
	"io"
	"sync"

	"homeclimate-go/errcode"
	"homeclimate-go/types"
)

// Frame renders a sample as "T:21.3:H:33.9:" (Celsius, one decimal).
func Frame(s types.Sample) string {
	return fmt.Sprintf("T:%0.1f:H:%0.1f:", s.Celsius, s.Humidity)
}

// Serial writes one Frame per sample, newline terminated. The location is
// not part of the frame; the capture side has one sensor per port.
type Serial struct {
	mu sync.Mutex
	w  io.Writer
}

func NewSerial(w io.Writer) *Serial { return &Serial{w: w} }

func (s *Serial) Send(ctx context.Context, _ string, smp types.Sample) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, Frame(smp)+"\r\n"); err != nil {
		log.Warnf("serial write: %v", err)
		return errcode.Wrap(errcode.Transport, "serial write", err)
	}
	return nil
}
