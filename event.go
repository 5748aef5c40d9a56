package agentview

import (
	"bytes"
	"encoding/json"
)

// Kind discriminates the closed set of protocol events carried in frame data.
type Kind string

const (
	KindToolStatus      Kind = "tool.status"
	KindToolArgsDelta   Kind = "tool.arguments.delta"
	KindToolArgsDone    Kind = "tool.arguments.done"
	KindToolCodeDelta   Kind = "tool.code.delta"
	KindToolCodeDone    Kind = "tool.code.done"
	KindToolOutput      Kind = "tool.output"
	KindToolApproval    Kind = "tool.approval"
	KindChunkDelta      Kind = "chunk.delta"
	KindChunkDone       Kind = "chunk.done"
	KindOutputItemAdded Kind = "output_item.added"

	// Passthrough kinds bypass tool reduction entirely.
	KindRawResponse Kind = "raw_response"
	KindLifecycle   Kind = "lifecycle"
	KindAgentUpdate Kind = "agent_update"
	KindUsage       Kind = "usage"
	KindError       Kind = "error"
)

// Passthrough reports whether events of this kind bypass tool reduction.
func (k Kind) Passthrough() bool {
	switch k {
	case KindRawResponse, KindLifecycle, KindAgentUpdate, KindUsage, KindError:
		return true
	}
	return false
}

// Known reports whether k belongs to the closed protocol set. Unknown kinds
// decode fine and are ignored by the reducer (forward compatibility).
func (k Kind) Known() bool {
	switch k {
	case KindToolStatus, KindToolArgsDelta, KindToolArgsDone,
		KindToolCodeDelta, KindToolCodeDone, KindToolOutput, KindToolApproval,
		KindChunkDelta, KindChunkDone, KindOutputItemAdded,
		KindRawResponse, KindLifecycle, KindAgentUpdate, KindUsage, KindError:
		return true
	}
	return false
}

// Target identifies one chunked payload stream: an entity, a field on it, and
// an optional part index for multi-part payloads.
type Target struct {
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id"`
	Field      string `json:"field"`
	PartIndex  *int   `json:"part_index,omitempty"`
}

// ToolStatusInfo is the status-specific sub-object on tool.status events. The
// populated fields depend on the tool type; absent fields stay zero.
type ToolStatusInfo struct {
	Status        string          `json:"status"`
	Queries       []string        `json:"queries,omitempty"`
	Results       json.RawMessage `json:"results,omitempty"`
	Code          string          `json:"code,omitempty"`
	Outputs       json.RawMessage `json:"outputs,omitempty"`
	Format        string          `json:"format,omitempty"`
	RevisedPrompt string          `json:"revised_prompt,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// Event is one decoded protocol event. Which fields are set depends on Kind;
// every event may carry a server timestamp and the transient identifiers the
// backend used for the tool call it concerns.
type Event struct {
	Kind              Kind            `json:"kind"`
	ItemID            string          `json:"item_id,omitempty"`
	ToolCallID        string          `json:"tool_call_id,omitempty"`
	OutputIndex       *int            `json:"output_index,omitempty"`
	ServerTimestamp   int64           `json:"server_timestamp,omitempty"`
	Tool              *ToolStatusInfo `json:"tool,omitempty"`
	Target            *Target         `json:"target,omitempty"`
	Encoding          string          `json:"encoding,omitempty"`
	ChunkIndex        int             `json:"chunk_index,omitempty"`
	Data              string          `json:"data,omitempty"`
	Delta             string          `json:"delta,omitempty"`
	ArgumentsText     string          `json:"arguments_text,omitempty"`
	ArgumentsJSON     json.RawMessage `json:"arguments_json,omitempty"`
	Code              string          `json:"code,omitempty"`
	Output            json.RawMessage `json:"output,omitempty"`
	ToolName          string          `json:"tool_name,omitempty"`
	ToolType          string          `json:"tool_type,omitempty"`
	ServerLabel       string          `json:"server_label,omitempty"`
	Approved          *bool           `json:"approved,omitempty"`
	Reason            string          `json:"reason,omitempty"`
	ApprovalRequestID string          `json:"approval_request_id,omitempty"`
	ItemType          string          `json:"item_type,omitempty"`

	// Raw holds the original frame data for passthrough consumers.
	Raw []byte `json:"-"`
}

// DecodeEvent parses one frame's data into an Event. It never fails: malformed
// input degrades to a KindError event carrying the raw text and a synthetic
// failure reason, so a bad frame cannot terminate the stream.
func DecodeEvent(data []byte) Event {
	raw := append([]byte(nil), data...)
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Event{Kind: KindError, Reason: "empty frame data", Raw: raw}
	}
	var ev Event
	if err := json.Unmarshal(trimmed, &ev); err != nil {
		return Event{Kind: KindError, Reason: "invalid JSON: " + err.Error(), Raw: raw}
	}
	if ev.Kind == "" {
		return Event{Kind: KindError, Reason: "missing event kind", Raw: raw}
	}
	ev.Raw = raw
	return ev
}
