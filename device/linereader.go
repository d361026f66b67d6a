package device

import (
	"errors"
	"io"
	"strings"
	"time"
)

// ErrTimeout is returned when no complete line arrives in time.
var ErrTimeout = errors.New("serial timeout")

// LineReader assembles lines from a port one byte at a time.
//
// The underlying reader must return periodically when idle (as a port with a
// read timeout does) so that ReadLine can observe its deadline. An idle read
// may report either (0, nil) or (0, io.EOF).
type LineReader struct {
	r   io.Reader
	buf []byte
	b   [1]byte
}

func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: r, buf: make([]byte, 0, 256)}
}

// ReadLine returns the next line without its line ending. The timeout is
// measured from the last byte received; any partial line is discarded on
// timeout.
func (lr *LineReader) ReadLine(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		n, err := lr.r.Read(lr.b[:])
		if n == 1 {
			deadline = time.Now().Add(timeout)
			if lr.b[0] == '\n' {
				s := strings.TrimRight(string(lr.buf), "\r")
				lr.buf = lr.buf[:0]
				return s, nil
			}
			lr.buf = append(lr.buf, lr.b[0])
			continue
		}
		if err != nil && err != io.EOF {
			return "", err
		}
		if time.Now().After(deadline) {
			lr.buf = lr.buf[:0]
			return "", ErrTimeout
		}
	}
}
