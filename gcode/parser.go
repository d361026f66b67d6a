package gcode

import (
	"bufio"
	"errors"
	"io"

	"go.uber.org/zap"
)

// Parser reads program lines from a stream.
//
// Every record is returned, including blank and comment lines, so that line
// numbers and per-line bookkeeping stay aligned with the source.
type Parser struct {
	br   *bufio.Reader
	opts Options
	log  *zap.Logger
	n    int
}

func NewParser(r io.Reader, opts Options, log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Parser{br: br, opts: opts, log: log}
}

// Read returns the next line, or io.EOF once the stream is exhausted.
func (p *Parser) Read() (Line, error) {
	s, err := p.br.ReadString('\n')
	if err == io.EOF && s != "" {
		err = nil
	}
	if err != nil {
		return Line{}, err
	}
	p.n++

	l, err := ParseLine(s, p.opts)
	l.Number = p.n
	if err != nil {
		var se *SyntaxError
		if errors.As(err, &se) {
			se.Line = p.n
		}
		return l, err
	}
	if l.Warn != nil {
		if se, ok := l.Warn.(*SyntaxError); ok {
			se.Line = p.n
		}
		p.log.Warn("discarding malformed input", zap.Int("line", p.n), zap.Error(l.Warn))
	}
	return l, nil
}

// LineNumber returns the number of lines read so far.
func (p *Parser) LineNumber() int { return p.n }
