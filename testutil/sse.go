// Package testutil provides helpers for engine tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"time"
)

// SSEStep describes one raw byte chunk to emit with an optional delay. Chunks
// are written verbatim, so steps may split lines or frame boundaries at
// arbitrary positions.
type SSEStep struct {
	Delay time.Duration
	Chunk string
}

// SSEServerConfig configures the SSE test server.
type SSEServerConfig struct {
	Status     int
	Headers    map[string]string
	FinalDelay time.Duration
}

// NewSSEServer returns an httptest server that streams the given byte chunks
// with delays, flushing after each one.
func NewSSEServer(steps []SSEStep, cfg SSEServerConfig) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status := cfg.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for k, v := range cfg.Headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(status)
		flusher, _ := w.(http.Flusher)
		for _, step := range steps {
			if step.Delay > 0 {
				time.Sleep(step.Delay)
			}
			_, _ = w.Write([]byte(step.Chunk))
			if flusher != nil {
				flusher.Flush()
			}
		}
		if cfg.FinalDelay > 0 {
			time.Sleep(cfg.FinalDelay)
		}
	}))
}
