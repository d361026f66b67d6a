package dispatch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mastercactapus/austerus/device"
	"github.com/mastercactapus/austerus/gcode"
	"github.com/mastercactapus/austerus/vm"
	"go.uber.org/zap"
)

type Config struct {
	// Window is the most lines sent but not yet acknowledged. Zero sends
	// without waiting for acknowledgements at all.
	Window int

	// SerialTimeout bounds the wait for each device line.
	SerialTimeout time.Duration

	// MaxTimeouts is the number of consecutive timeouts tolerated before
	// giving up. Zero tolerates any number.
	MaxTimeouts int

	// Log, if set, receives a copy of every line sent to the device.
	Log io.Writer

	// Machine, if set, interprets each line before it is sent; a line that
	// fails to parse or apply stops the run.
	Machine *vm.Machine
	Parse   gcode.Options

	Logger *zap.Logger
}

// Stats counts dispatcher activity.
type Stats struct {
	Sent     int
	Acked    int
	Timeouts int
	Relayed  int
}

// Dispatcher streams lines to a device while bounding the number of
// unacknowledged lines in flight. Every line read from the device is relayed
// to out.
type Dispatcher struct {
	cfg Config
	dev device.Port
	lr  *device.LineReader
	out io.Writer
	log *zap.Logger

	outstanding int
	timeouts    int
	line        int
	stats       Stats
}

func New(dev device.Port, out io.Writer, cfg Config) *Dispatcher {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		cfg: cfg,
		dev: dev,
		lr:  device.NewLineReader(dev),
		out: out,
		log: log,
	}
}

// Outstanding returns the number of sent lines not yet acknowledged.
func (d *Dispatcher) Outstanding() int { return d.outstanding }

func (d *Dispatcher) Stats() Stats { return d.stats }

type input struct {
	s   string
	err error
}

func readInput(in io.Reader, ch chan<- input, done <-chan struct{}) {
	br := bufio.NewReader(in)
	for {
		s, err := br.ReadString('\n')
		if s != "" {
			select {
			case ch <- input{s: s}:
			case <-done:
				return
			}
		}
		if err != nil {
			select {
			case ch <- input{err: err}:
			case <-done:
			}
			return
		}
	}
}

func (d *Dispatcher) windowOpen() bool {
	return d.cfg.Window == 0 || d.outstanding < d.cfg.Window
}

// Run sends every line from in until EOF or an exit directive, then waits
// for the remaining acknowledgements. The device and log are left open.
func (d *Dispatcher) Run(ctx context.Context, in io.Reader) error {
	ch := make(chan input)
	done := make(chan struct{})
	defer close(done)
	go readInput(in, ch, done)

	for {
		for d.windowOpen() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var u input
			select {
			case <-ctx.Done():
				return ctx.Err()
			case u = <-ch:
			}
			if u.err == io.EOF {
				return d.shutdown(ctx)
			}
			if u.err != nil {
				return fmt.Errorf("read input: %w", u.err)
			}

			exit, err := d.send(u.s)
			if err != nil {
				return err
			}
			if exit {
				return d.shutdown(ctx)
			}
		}

		for !d.windowOpen() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := d.receive(); err != nil {
				return err
			}
		}
	}
}

// send handles one input line, returning true if it asked to exit.
func (d *Dispatcher) send(s string) (bool, error) {
	d.line++

	if name, ok := ParseDirective(s); ok {
		if name == DirectiveExit {
			d.log.Info("exit requested", zap.Int("line", d.line))
			return true, nil
		}
		d.log.Warn("unknown directive", zap.String("directive", name), zap.Int("line", d.line))
		return false, nil
	}
	if strings.TrimSpace(s) == "" {
		return false, nil
	}

	if d.cfg.Machine != nil {
		l, err := gcode.ParseLine(s, d.cfg.Parse)
		if err == nil {
			err = d.cfg.Machine.Step(l)
		}
		if err != nil {
			return false, &vm.LineError{Line: d.line, Err: err}
		}
	}

	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err := io.WriteString(d.dev, s)
	if err != nil {
		return false, &DeviceError{Op: "write", Err: err}
	}
	if d.cfg.Log != nil {
		_, err = io.WriteString(d.cfg.Log, s)
		if err != nil {
			return false, fmt.Errorf("write log: %w", err)
		}
	}

	d.outstanding++
	d.stats.Sent++
	d.log.Debug("sent",
		zap.String("line", strings.TrimSpace(s)),
		zap.Int("outstanding", d.outstanding),
	)
	return false, nil
}

// receive reads and relays one device line, or recovers from a timeout.
func (d *Dispatcher) receive() error {
	s, err := d.lr.ReadLine(d.cfg.SerialTimeout)
	if errors.Is(err, device.ErrTimeout) {
		d.stats.Timeouts++
		d.timeouts++
		d.log.Warn("serial timeout, clearing serial buffer",
			zap.Int("outstanding", d.outstanding),
			zap.Int("consecutive", d.timeouts),
		)
		d.outstanding = 0
		if err := d.dev.Flush(); err != nil {
			return &DeviceError{Op: "flush", Err: err}
		}
		if d.cfg.MaxTimeouts > 0 && d.timeouts > d.cfg.MaxTimeouts {
			return ErrStalled
		}
		return nil
	}
	if err != nil {
		return &DeviceError{Op: "read", Err: err}
	}
	d.timeouts = 0

	if IsAck(s) && d.outstanding > 0 {
		d.outstanding--
		d.stats.Acked++
	}

	_, err = io.WriteString(d.out, s+"\n")
	if err != nil {
		return fmt.Errorf("relay: %w", err)
	}
	d.stats.Relayed++
	return nil
}

// shutdown waits for the acknowledgements still in flight.
func (d *Dispatcher) shutdown(ctx context.Context) error {
	for d.cfg.Window > 0 && d.outstanding > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.receive(); err != nil {
			return err
		}
	}
	d.log.Info("dispatcher exiting", zap.Int("sent", d.stats.Sent), zap.Int("acked", d.stats.Acked))
	return nil
}
