package messages

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformed marks a line that could be read but not decoded. The stream
// itself is still usable.
var ErrMalformed = errors.New("malformed message")

// Encode renders a message as a single JSON line.
func Encode(msg *Message) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %v", err)
	}
	return append(b, '\n'), nil
}

// Decode parses one JSON message, with or without a trailing newline.
func Decode(line []byte) (*Message, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, fmt.Errorf("%w: empty line", ErrMalformed)
	}
	msg := &Message{}
	if err := json.Unmarshal(line, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("%w: no type", ErrMalformed)
	}
	return msg, nil
}

// LineReader reads newline delimited JSON messages.
type LineReader struct {
	scanner *bufio.Scanner
}

func NewLineReader(r io.Reader) *LineReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), MaxLineSize)
	return &LineReader{scanner: scanner}
}

// Read returns the next message. Blank lines are skipped; io.EOF is returned
// once the stream ends.
func (r *LineReader) Read() (*Message, error) {
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		return Decode(line)
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}
