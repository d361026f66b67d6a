package dispatch

import (
	"fmt"
	"io"
	"time"

	"github.com/mastercactapus/austerus/device"
)

// Greet reads the line a device prints after it resets on open and relays
// it to out. Input is discarded before and after, pausing around each flush
// to let the device settle.
func Greet(dev device.Port, out io.Writer, timeout, pause time.Duration) error {
	flush := func() error {
		time.Sleep(pause)
		if err := dev.Flush(); err != nil {
			return &DeviceError{Op: "flush", Err: err}
		}
		time.Sleep(pause)
		return nil
	}

	if err := flush(); err != nil {
		return err
	}
	s, err := device.NewLineReader(dev).ReadLine(timeout)
	if err != nil {
		return &DeviceError{Op: "read greeting", Err: err}
	}
	_, err = fmt.Fprintln(out, s)
	if err != nil {
		return err
	}
	return flush()
}
