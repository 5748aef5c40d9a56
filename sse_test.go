package agentview

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// chunkedReader yields at most n bytes per Read so tests can split lines and
// frame boundaries at arbitrary positions.
type chunkedReader struct {
	data string
	n    int
	pos  int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	end := r.pos + r.n
	if end > len(r.data) {
		end = len(r.data)
	}
	count := copy(p, r.data[r.pos:end])
	r.pos += count
	return count, nil
}

func (r *chunkedReader) Close() error { return nil }

func scanAll(t *testing.T, body io.ReadCloser) []Frame {
	t.Helper()
	s := NewFrameScanner(context.Background(), body)
	var frames []Frame
	for {
		frame, ok, err := s.Next()
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		if !ok {
			return frames
		}
		frames = append(frames, frame)
	}
}

func TestFrameScannerRoundTrip(t *testing.T) {
	type record struct {
		event string
		id    string
		data  string
	}
	records := []record{
		{event: "update", id: "1", data: `{"kind":"lifecycle"}`},
		{event: "", id: "2", data: "line one\nline two"},
		{event: "update", id: "", data: "tail"},
	}

	var encoded strings.Builder
	for _, rec := range records {
		if rec.event != "" {
			encoded.WriteString("event: " + rec.event + "\n")
		}
		if rec.id != "" {
			encoded.WriteString("id: " + rec.id + "\n")
		}
		for _, line := range strings.Split(rec.data, "\n") {
			encoded.WriteString("data: " + line + "\n")
		}
		encoded.WriteString("\n")
	}

	variants := map[string]string{
		"lf":   encoded.String(),
		"crlf": strings.ReplaceAll(encoded.String(), "\n", "\r\n"),
	}
	for name, text := range variants {
		for _, chunk := range []int{1, 3, 7, len(text)} {
			frames := scanAll(t, &chunkedReader{data: text, n: chunk})
			if len(frames) != len(records) {
				t.Fatalf("%s chunk=%d: got %d frames, want %d", name, chunk, len(frames), len(records))
			}
			for i, rec := range records {
				if frames[i].Data != rec.data {
					t.Fatalf("%s chunk=%d frame %d: data %q, want %q", name, chunk, i, frames[i].Data, rec.data)
				}
				if frames[i].Event != rec.event {
					t.Fatalf("%s chunk=%d frame %d: event %q, want %q", name, chunk, i, frames[i].Event, rec.event)
				}
			}
			// The last record sets no id, so the id from the second record persists.
			if frames[2].ID != "2" {
				t.Fatalf("%s chunk=%d: id %q did not persist", name, chunk, frames[2].ID)
			}
		}
	}
}

func TestFrameScannerHeartbeatsEmitNothing(t *testing.T) {
	text := ": ping\n\n: keepalive\n\ndata: real\n\n: trailing\n\n"
	frames := scanAll(t, io.NopCloser(strings.NewReader(text)))
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if frames[0].Data != "real" {
		t.Fatalf("unexpected data %q", frames[0].Data)
	}
}

func TestFrameScannerBlankLineWithoutDataResets(t *testing.T) {
	text := "event: tick\n\ndata: body\n\n"
	frames := scanAll(t, io.NopCloser(strings.NewReader(text)))
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	// The event buffer from the dataless frame must not leak into the next one.
	if frames[0].Event != "" {
		t.Fatalf("event %q leaked across frame reset", frames[0].Event)
	}
}

func TestFrameScannerMultiDataJoinedWithNewline(t *testing.T) {
	text := "data: a\ndata: b\ndata: c\n\n"
	frames := scanAll(t, io.NopCloser(strings.NewReader(text)))
	if len(frames) != 1 || frames[0].Data != "a\nb\nc" {
		t.Fatalf("unexpected frames %+v", frames)
	}
}

func TestFrameScannerRetryHint(t *testing.T) {
	text := "retry: 1500\ndata: x\n\nretry: nope\ndata: y\n\n"
	frames := scanAll(t, io.NopCloser(strings.NewReader(text)))
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0].Retry != 1500 {
		t.Fatalf("retry %d, want 1500", frames[0].Retry)
	}
	// Unparseable retry values are ignored; the previous hint stands.
	if frames[1].Retry != 1500 {
		t.Fatalf("retry %d, want 1500 after ignored hint", frames[1].Retry)
	}
}

func TestFrameScannerFinalLineWithoutNewline(t *testing.T) {
	text := "data: first\n\ndata: last"
	frames := scanAll(t, io.NopCloser(strings.NewReader(text)))
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[1].Data != "last" {
		t.Fatalf("unexpected trailing frame %+v", frames[1])
	}
}

func TestFrameScannerTrailingDataWithoutBlankLine(t *testing.T) {
	text := "data: buffered\n"
	frames := scanAll(t, io.NopCloser(strings.NewReader(text)))
	if len(frames) != 1 || frames[0].Data != "buffered" {
		t.Fatalf("unexpected frames %+v", frames)
	}
}

func TestFrameScannerAbort(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewFrameScanner(ctx, io.NopCloser(strings.NewReader("data: x\n\n")))
	_, ok, err := s.Next()
	if ok {
		t.Fatalf("expected no frame after abort")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFrameScannerCloseIdempotent(t *testing.T) {
	s := NewFrameScanner(context.Background(), io.NopCloser(strings.NewReader("")))
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, ok, err := s.Next(); ok || err != nil {
		t.Fatalf("Next after close: ok=%v err=%v", ok, err)
	}
}
