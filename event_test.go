package agentview

import (
	"strings"
	"testing"
)

func TestDecodeEventArgumentsDelta(t *testing.T) {
	data := `{"kind":"tool.arguments.delta","item_id":"it1","tool_call_id":"tc1","tool_name":"lookup","delta":"{\"q\":","output_index":0,"server_timestamp":1712000000000}`
	ev := DecodeEvent([]byte(data))
	if ev.Kind != KindToolArgsDelta {
		t.Fatalf("kind %q", ev.Kind)
	}
	if ev.ItemID != "it1" || ev.ToolCallID != "tc1" || ev.ToolName != "lookup" {
		t.Fatalf("unexpected identifiers %+v", ev)
	}
	if ev.Delta != `{"q":` {
		t.Fatalf("delta %q", ev.Delta)
	}
	if ev.OutputIndex == nil || *ev.OutputIndex != 0 {
		t.Fatalf("output index %+v", ev.OutputIndex)
	}
	if ev.ServerTimestamp != 1712000000000 {
		t.Fatalf("timestamp %d", ev.ServerTimestamp)
	}
}

func TestDecodeEventChunkTarget(t *testing.T) {
	data := `{"kind":"chunk.delta","target":{"entity_kind":"tool_call","entity_id":"tc9","field":"partial_image_b64","part_index":2},"encoding":"base64","chunk_index":1,"data":"QUJD"}`
	ev := DecodeEvent([]byte(data))
	if ev.Kind != KindChunkDelta || ev.Target == nil {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Target.EntityID != "tc9" || ev.Target.Field != "partial_image_b64" {
		t.Fatalf("unexpected target %+v", ev.Target)
	}
	if ev.Target.PartIndex == nil || *ev.Target.PartIndex != 2 {
		t.Fatalf("part index %+v", ev.Target.PartIndex)
	}
	if ev.Encoding != EncodingBase64 || ev.ChunkIndex != 1 || ev.Data != "QUJD" {
		t.Fatalf("unexpected chunk fields %+v", ev)
	}
}

func TestDecodeEventMalformedJSON(t *testing.T) {
	ev := DecodeEvent([]byte("not json at all"))
	if ev.Kind != KindError {
		t.Fatalf("kind %q, want error", ev.Kind)
	}
	if string(ev.Raw) != "not json at all" {
		t.Fatalf("raw %q not preserved", ev.Raw)
	}
	if !strings.Contains(ev.Reason, "invalid JSON") {
		t.Fatalf("reason %q", ev.Reason)
	}
}

func TestDecodeEventEmptyData(t *testing.T) {
	ev := DecodeEvent(nil)
	if ev.Kind != KindError || ev.Reason == "" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestDecodeEventMissingKind(t *testing.T) {
	ev := DecodeEvent([]byte(`{"item_id":"it1"}`))
	if ev.Kind != KindError {
		t.Fatalf("kind %q, want error", ev.Kind)
	}
}

func TestUnknownKindIgnoredByReducer(t *testing.T) {
	session := NewSession(SessionConfig{})
	ev := DecodeEvent([]byte(`{"kind":"tool.telepathy","tool_call_id":"tc1"}`))
	if ev.Kind.Known() {
		t.Fatalf("kind %q should be unknown", ev.Kind)
	}
	session.Apply(ev)
	if tools := session.ToolsSorted(); len(tools) != 0 {
		t.Fatalf("unknown kind created tools: %+v", tools)
	}
}

func TestKindPassthrough(t *testing.T) {
	for _, k := range []Kind{KindRawResponse, KindLifecycle, KindAgentUpdate, KindUsage, KindError} {
		if !k.Passthrough() {
			t.Fatalf("%q should be passthrough", k)
		}
	}
	for _, k := range []Kind{KindToolStatus, KindChunkDelta, KindOutputItemAdded} {
		if k.Passthrough() {
			t.Fatalf("%q should not be passthrough", k)
		}
	}
}

func TestErrorFromEvent(t *testing.T) {
	ev := DecodeEvent([]byte(`{"kind":"error","reason":"upstream hiccup"}`))
	se, ok := ErrorFromEvent(ev)
	if !ok {
		t.Fatalf("expected stream error")
	}
	if se.Message != "upstream hiccup" {
		t.Fatalf("message %q", se.Message)
	}
	if !strings.Contains(se.Error(), "upstream hiccup") {
		t.Fatalf("format %q", se.Error())
	}

	nested := Event{Kind: KindError, Raw: []byte(`{"error":{"code":"RATE_LIMITED","message":"slow down"}}`)}
	se, ok = ErrorFromEvent(nested)
	if !ok || se.Code != "RATE_LIMITED" || se.Message != "slow down" {
		t.Fatalf("unexpected %+v", se)
	}

	if _, ok := ErrorFromEvent(Event{Kind: KindUsage}); ok {
		t.Fatalf("usage event should not convert")
	}
}
