package device

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// ErrBaud is returned when opening a port at an unsupported rate.
var ErrBaud = errors.New("unsupported baud rate")

// Bauds lists the supported baud rates.
var Bauds = []int{4800, 9600, 19200, 38400, 57600, 115200, 250000}

// DefaultReadTimeout bounds each blocking read from the port.
const DefaultReadTimeout = 100 * time.Millisecond

// Port is an open connection to a device.
type Port interface {
	io.ReadWriteCloser

	// Flush discards any input not yet read.
	Flush() error
}

type Config struct {
	// Name is the device path, or NullName for the loopback device.
	Name string
	Baud int

	// ReadTimeout is the longest a single read blocks waiting for a byte.
	ReadTimeout time.Duration
}

// ValidBaud returns true if baud is one of Bauds.
func ValidBaud(baud int) bool {
	for _, b := range Bauds {
		if b == baud {
			return true
		}
	}
	return false
}

// Open opens the named device as 8N1 with no flow control.
func Open(cfg Config) (Port, error) {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Name == NullName {
		return NewNull(cfg.ReadTimeout), nil
	}
	if !ValidBaud(cfg.Baud) {
		return nil, fmt.Errorf("%w: %d", ErrBaud, cfg.Baud)
	}

	p, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Name,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Name, err)
	}
	return p, nil
}
