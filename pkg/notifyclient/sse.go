package notifyclient

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

const maxFrameLine = 1 << 20

// Frame is one dispatched server-sent event block.
type Frame struct {
	Event string
	ID    string
	Data  []byte
	// Comment holds the text of comment lines (": keep-alive"). A frame
	// with a comment and no data is a liveness signal only.
	Comment string
	hasData bool
}

// IsKeepAlive reports whether the frame carries no payload.
func (f Frame) IsKeepAlive() bool { return !f.hasData }

// StreamReader splits a text/event-stream body into frames.
type StreamReader struct {
	sc *bufio.Scanner
}

func NewStreamReader(r io.Reader) *StreamReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxFrameLine)
	return &StreamReader{sc: sc}
}

// Next blocks until a complete frame (terminated by a blank line) is
// available. A trailing partial frame is discarded and io.EOF returned.
func (r *StreamReader) Next() (Frame, error) {
	var (
		f        Frame
		data     bytes.Buffer
		comments []string
		started  bool
	)
	for r.sc.Scan() {
		line := strings.TrimSuffix(r.sc.Text(), "\r")
		if line == "" {
			if !started {
				continue
			}
			f.Comment = strings.Join(comments, "\n")
			f.Data = data.Bytes()
			return f, nil
		}
		started = true
		if strings.HasPrefix(line, ":") {
			comments = append(comments, strings.TrimPrefix(line[1:], " "))
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "data":
			if f.hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			f.hasData = true
		case "event":
			f.Event = value
		case "id":
			f.ID = value
		}
	}
	if err := r.sc.Err(); err != nil {
		return Frame{}, err
	}
	return Frame{}, io.EOF
}
