package correlate

import (
	"bufio"
	"io"
	"strings"
)

// LineReader reads lines in the background so that callers can poll for
// them without blocking.
type LineReader struct {
	ch  chan string
	err error
}

func NewLineReader(r io.Reader) *LineReader {
	lr := &LineReader{ch: make(chan string, 1024)}
	go lr.loop(r)
	return lr
}

func (lr *LineReader) loop(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lr.ch <- strings.TrimRight(sc.Text(), "\r")
	}
	lr.err = sc.Err()
	close(lr.ch)
}

// Poll returns the next line if one is ready.
func (lr *LineReader) Poll() (string, bool) {
	select {
	case s, ok := <-lr.ch:
		return s, ok
	default:
		return "", false
	}
}

// Lines is closed once the underlying reader is exhausted.
func (lr *LineReader) Lines() <-chan string { return lr.ch }

// Err returns the read error, if any, after Lines is closed.
func (lr *LineReader) Err() error { return lr.err }

// discard keeps reading so the writer never blocks on a full pipe.
func (lr *LineReader) discard() {
	go func() {
		for range lr.ch {
		}
	}()
}
