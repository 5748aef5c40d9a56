package agentview

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
)

// Frame is one dispatched server-sent-event record. ID and Retry reflect the
// session-scoped reconnection state as of the moment the frame was dispatched.
type Frame struct {
	Data  string
	Event string
	ID    string
	// Retry is the last reconnection hint seen, in milliseconds, or -1 when
	// the stream has not sent one.
	Retry int
}

// FrameScanner incrementally parses SSE framing from a byte stream. It is
// pull-based: each Next call dispatches at most one frame, buffering any
// incomplete trailing line so byte chunks may split lines or frame boundaries
// arbitrarily without desynchronizing.
type FrameScanner struct {
	ctx    context.Context
	reader *bufio.Reader
	body   io.ReadCloser

	lastEventID string
	retry       int
	closed      bool
	done        bool
}

// NewFrameScanner wraps body in an SSE frame parser. The context aborts
// reading; frames already yielded are not retracted.
func NewFrameScanner(ctx context.Context, body io.ReadCloser) *FrameScanner {
	if ctx == nil {
		ctx = context.Background()
	}
	return &FrameScanner{
		ctx:    ctx,
		reader: bufio.NewReader(body),
		body:   body,
		retry:  -1,
	}
}

// Next returns the next dispatched frame, or ok=false once the stream ends.
// A frame is only dispatched when at least one data line was accumulated;
// blank lines with no pending data reset the frame buffers silently.
func (s *FrameScanner) Next() (Frame, bool, error) {
	if s.closed || s.done {
		return Frame{}, false, nil
	}
	if err := s.ctx.Err(); err != nil {
		_ = s.Close()
		return Frame{}, false, err
	}

	var data []string
	var eventName string
	sawData := false

	dispatch := func() Frame {
		return Frame{
			Data:  strings.Join(data, "\n"),
			Event: eventName,
			ID:    s.lastEventID,
			Retry: s.retry,
		}
	}

	for {
		line, err := s.reader.ReadString('\n')
		eof := false
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return Frame{}, false, err
			}
			// A trailing line without a final newline is still parsed as a
			// last, best-effort line.
			eof = true
		}
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")

		if line != "" {
			s.consumeLine(line, &data, &eventName, &sawData)
		}

		if eof {
			s.done = true
			if sawData {
				return dispatch(), true, nil
			}
			return Frame{}, false, nil
		}
		if line == "" {
			if sawData {
				return dispatch(), true, nil
			}
			// Frame had no data; reset buffers and keep scanning.
			data = data[:0]
			eventName = ""
		}
	}
}

// consumeLine applies one non-blank SSE line to the current frame buffers and
// the session-scoped id/retry state.
func (s *FrameScanner) consumeLine(line string, data *[]string, eventName *string, sawData *bool) {
	if strings.HasPrefix(line, ":") {
		// Comment/heartbeat line.
		return
	}
	field := line
	value := ""
	if idx := strings.IndexByte(line, ':'); idx >= 0 {
		field = line[:idx]
		value = strings.TrimPrefix(line[idx+1:], " ")
	}
	switch field {
	case "data":
		*data = append(*data, value)
		*sawData = true
	case "event":
		*eventName = value
	case "id":
		// Persists across frames until reassigned.
		s.lastEventID = value
	case "retry":
		if ms, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			s.retry = ms
		}
	}
}

// LastEventID returns the most recent id field seen on the stream.
func (s *FrameScanner) LastEventID() string { return s.lastEventID }

// Close releases the underlying byte stream. Safe to call more than once.
func (s *FrameScanner) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
