package ui

import (
	"bufio"
	"io"
	"strings"
)

// InputReader reads trimmed lines of user input
type InputReader struct {
	scanner *bufio.Scanner
}

// NewInputReader creates a reader over r
func NewInputReader(r io.Reader) *InputReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	return &InputReader{scanner: s}
}

// ReadLine returns the next line without surrounding whitespace, or io.EOF
func (r *InputReader) ReadLine() (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(r.scanner.Text()), nil
}
