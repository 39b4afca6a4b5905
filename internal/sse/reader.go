package sse

import (
	"bufio"
	"io"
	"strings"
)

// Event is one parsed server-sent event.
type Event struct {
	// Name is the event type. Events without an explicit "event:" field
	// carry the protocol default, "message".
	Name string
	// Data is the payload, multiple data lines joined with newlines.
	Data string
}

// Reader incrementally parses a text/event-stream body.
type Reader struct {
	r *bufio.Reader
}

// NewReader wraps a stream body. The caller retains ownership of r and is
// responsible for closing it. Lines are not length-capped: a complete
// event carries an entire rendered grid, so its size is unbounded.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next complete event from the stream. It returns io.EOF
// when the stream ends cleanly, or the underlying read error otherwise.
// A partial event cut off by EOF is discarded, per the protocol.
func (r *Reader) Next() (*Event, error) {
	event := &Event{Name: "message"}
	var data []string
	sawField := false

	for {
		line, err := r.r.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")

		// Blank line dispatches the accumulated event
		if line == "" {
			if !sawField {
				continue
			}
			event.Data = strings.Join(data, "\n")
			return event, nil
		}

		// Comment lines keep the connection alive and carry no data
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			event.Name = value
			sawField = true
		case "data":
			data = append(data, value)
			sawField = true
		case "id", "retry":
			// Accepted but unused: this consumer never reconnects
			sawField = true
		}
	}
}
