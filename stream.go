package agentview

import (
	"context"
	"io"
)

// TraceStream pairs a FrameScanner with a Session: each pull parses one SSE
// frame, decodes it, and reduces it into the session. It is pull-based with no
// internal buffering beyond the current frame, so slow consumers backpressure
// the producer naturally.
type TraceStream struct {
	ctx     context.Context
	scanner *FrameScanner
	session *Session
}

// NewTraceStream wraps body (typically an SSE response body) around session.
// A nil session gets a fresh default one. The caller owns closing the stream;
// ctx aborts reading.
func NewTraceStream(ctx context.Context, body io.ReadCloser, session *Session) *TraceStream {
	if ctx == nil {
		ctx = context.Background()
	}
	if session == nil {
		session = NewSession(SessionConfig{})
	}
	return &TraceStream{
		ctx:     ctx,
		scanner: NewFrameScanner(ctx, body),
		session: session,
	}
}

// Session exposes the owned session for snapshot reads and subscriptions.
func (s *TraceStream) Session() *Session { return s.session }

// Next advances the stream by one frame: parse, decode, apply. Returns the
// decoded event (error-kind for malformed frames), ok=false once the stream
// completes. Errors are transport-level only; malformed content never ends the
// stream.
func (s *TraceStream) Next() (Event, bool, error) {
	frame, ok, err := s.scanner.Next()
	if err != nil || !ok {
		return Event{}, ok, err
	}
	if s.session.telemetry.OnFrame != nil {
		s.session.telemetry.OnFrame(frame)
	}
	ev := DecodeEvent([]byte(frame.Data))
	annotateSpan(s.ctx, ev)
	s.session.Apply(ev)
	return ev, true, nil
}

// Run drains the stream to completion, respecting context cancellation
// between pulls. The stream is closed when the call returns.
func (s *TraceStream) Run(ctx context.Context) error {
	//nolint:errcheck // best-effort cleanup on return
	defer func() { _ = s.Close() }()
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, ok, err := s.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

// Close terminates the underlying byte stream. Already-applied events are not
// retracted; the session stays readable.
func (s *TraceStream) Close() error {
	return s.scanner.Close()
}
