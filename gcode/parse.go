package gcode

import (
	"io"
	"strings"
)

// Parse parses every line of data.
func Parse(data string, opts Options) ([]Line, error) {
	r := NewParser(strings.NewReader(data), opts, nil)
	var lines []Line
	for {
		l, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func MustParse(data string) []Line {
	l, err := Parse(data, Options{Strict: true})
	if err != nil {
		panic(err)
	}
	return l
}
