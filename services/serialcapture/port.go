package serialcapture

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// OpenPort opens name, or the first port the system reports when name is
// empty.
func OpenPort(name string, baud int, readTimeout time.Duration) (serial.Port, string, error) {
	if name == "" {
		ports, err := serial.GetPortsList()
		if err != nil {
			return nil, "", fmt.Errorf("list serial ports: %w", err)
		}
		if len(ports) == 0 {
			return nil, "", fmt.Errorf("no serial ports found")
		}
		name = ports[0]
	}
	p, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", name, err)
	}
	if readTimeout > 0 {
		if err := p.SetReadTimeout(readTimeout); err != nil {
			_ = p.Close()
			return nil, "", fmt.Errorf("set read timeout on %s: %w", name, err)
		}
	}
	return p, name, nil
}
