package device

import (
	"bytes"
	"io"
	"sync"
	"time"
)

// NullName selects the loopback device instead of a serial port.
const NullName = "NULL"

// Null is a loopback device that acknowledges every line written to it.
type Null struct {
	timeout time.Duration

	mx     sync.Mutex
	buf    bytes.Buffer
	lines  int
	ready  chan struct{}
	closed chan struct{}
	once   sync.Once
}

var _ Port = &Null{}

func NewNull(readTimeout time.Duration) *Null {
	return &Null{
		timeout: readTimeout,
		ready:   make(chan struct{}, 1),
		closed:  make(chan struct{}),
	}
}

func (n *Null) Write(p []byte) (int, error) {
	select {
	case <-n.closed:
		return 0, io.ErrClosedPipe
	default:
	}

	c := bytes.Count(p, []byte{'\n'})
	n.mx.Lock()
	n.lines += c
	for i := 0; i < c; i++ {
		n.buf.WriteString("ok\n")
	}
	n.mx.Unlock()

	select {
	case n.ready <- struct{}{}:
	default:
	}
	return len(p), nil
}

// Read returns pending acknowledgements, or (0, io.EOF) after the read
// timeout when there are none.
func (n *Null) Read(p []byte) (int, error) {
	select {
	case <-n.closed:
		return 0, io.ErrClosedPipe
	default:
	}

	t := time.NewTimer(n.timeout)
	defer t.Stop()
	for {
		n.mx.Lock()
		if n.buf.Len() > 0 {
			c, _ := n.buf.Read(p)
			n.mx.Unlock()
			return c, nil
		}
		n.mx.Unlock()

		select {
		case <-n.ready:
		case <-n.closed:
			return 0, io.ErrClosedPipe
		case <-t.C:
			return 0, io.EOF
		}
	}
}

func (n *Null) Flush() error {
	n.mx.Lock()
	n.buf.Reset()
	n.mx.Unlock()
	return nil
}

func (n *Null) Close() error {
	n.once.Do(func() { close(n.closed) })
	return nil
}

// Lines returns the number of lines written so far.
func (n *Null) Lines() int {
	n.mx.Lock()
	defer n.mx.Unlock()
	return n.lines
}
