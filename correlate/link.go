package correlate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/mastercactapus/austerus/device"
	"github.com/mastercactapus/austerus/dispatch"
)

// Link connects the correlator to a running dispatcher.
type Link interface {
	// Commands receives program lines; closing it ends the dispatcher input.
	Commands() io.WriteCloser

	// Feedback carries every line relayed from the device.
	Feedback() io.Reader

	// Done is closed once the dispatcher has finished.
	Done() <-chan struct{}

	// Wait blocks until the dispatcher has finished and returns its status.
	Wait() error
}

// ExitError reports a dispatcher that finished unsuccessfully.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dispatcher exited with status %d: %s", e.Code, e.Err)
	}
	return fmt.Sprintf("dispatcher exited with status %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ProcessLink runs the dispatcher as a child process.
type ProcessLink struct {
	cmd      *exec.Cmd
	commands io.WriteCloser
	feedback *os.File

	done chan struct{}
	err  error
}

var _ Link = &ProcessLink{}

// StartProcess starts name with args, adding env to the current
// environment. The child's standard error is passed through to stderr.
func StartProcess(name string, args, env []string, stderr io.Writer) (*ProcessLink, error) {
	cmd := exec.Command(name, args...)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stderr = stderr

	commands, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	// not cmd.StdoutPipe: Wait would close it before the feedback is drained
	pr, pw, err := os.Pipe()
	if err != nil {
		commands.Close()
		return nil, err
	}
	cmd.Stdout = pw

	err = cmd.Start()
	pw.Close()
	if err != nil {
		commands.Close()
		pr.Close()
		return nil, fmt.Errorf("start dispatcher: %w", err)
	}

	l := &ProcessLink{
		cmd:      cmd,
		commands: commands,
		feedback: pr,
		done:     make(chan struct{}),
	}
	go func() {
		l.err = cmd.Wait()
		close(l.done)
	}()
	return l, nil
}

func (l *ProcessLink) Commands() io.WriteCloser { return l.commands }
func (l *ProcessLink) Feedback() io.Reader      { return l.feedback }
func (l *ProcessLink) Done() <-chan struct{}    { return l.done }
func (l *ProcessLink) Pid() int                 { return l.cmd.Process.Pid }

func (l *ProcessLink) Wait() error {
	<-l.done
	l.feedback.Close()

	var ee *exec.ExitError
	if errors.As(l.err, &ee) {
		return &ExitError{Code: ee.ExitCode()}
	}
	return l.err
}

// LocalLink runs a dispatcher in-process on its own goroutine.
type LocalLink struct {
	commands *io.PipeWriter
	feedback *io.PipeReader

	done chan struct{}
	err  error
}

var _ Link = &LocalLink{}

// StartLocal runs a dispatcher for dev until its input is closed. The
// device is closed when the dispatcher finishes.
func StartLocal(ctx context.Context, dev device.Port, cfg dispatch.Config) *LocalLink {
	cr, cw := io.Pipe()
	fr, fw := io.Pipe()
	l := &LocalLink{
		commands: cw,
		feedback: fr,
		done:     make(chan struct{}),
	}

	go func() {
		d := dispatch.New(dev, fw, cfg)
		l.err = d.Run(ctx, cr)
		cr.CloseWithError(io.ErrClosedPipe)
		dev.Close()
		fw.Close()
		close(l.done)
	}()
	return l
}

func (l *LocalLink) Commands() io.WriteCloser { return l.commands }
func (l *LocalLink) Feedback() io.Reader      { return l.feedback }
func (l *LocalLink) Done() <-chan struct{}    { return l.done }

func (l *LocalLink) Wait() error {
	<-l.done
	if l.err == nil {
		return nil
	}
	code := 1
	if errors.Is(l.err, context.Canceled) {
		code = 2
	}
	return &ExitError{Code: code, Err: l.err}
}
