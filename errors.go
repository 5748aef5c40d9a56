package agentview

import (
	"encoding/json"
	"fmt"
)

// StreamError is the structured failure surfaced for error-kind events. The
// engine never raises these itself; it passes them through as data so the host
// stream keeps operating.
type StreamError struct {
	Code    string
	Message string
	// Raw is the original frame data the error was decoded from.
	Raw string
}

// Error implements the error interface.
func (e StreamError) Error() string {
	code := e.Code
	if code == "" {
		code = "STREAM_ERROR"
	}
	msg := e.Message
	if msg == "" {
		msg = "unspecified stream error"
	}
	return fmt.Sprintf("%s: %s", code, msg)
}

// ErrorFromEvent extracts a StreamError from an error-kind event. Reports
// ok=false for every other kind.
func ErrorFromEvent(ev Event) (StreamError, bool) {
	if ev.Kind != KindError {
		return StreamError{}, false
	}
	se := StreamError{Message: ev.Reason, Raw: string(ev.Raw)}
	if len(ev.Raw) == 0 {
		return se, true
	}
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(ev.Raw, &payload); err != nil {
		return se, true
	}
	if payload.Error.Code != "" {
		se.Code = payload.Error.Code
	} else if payload.Code != "" {
		se.Code = payload.Code
	}
	if payload.Error.Message != "" {
		se.Message = payload.Error.Message
	} else if payload.Message != "" {
		se.Message = payload.Message
	}
	return se, true
}
