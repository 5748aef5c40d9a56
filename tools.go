package agentview

import (
	"encoding/json"
	"strings"
)

// ToolType identifies the kind of tool a call belongs to.
type ToolType string

const (
	ToolTypeWebSearch       ToolType = "web_search"
	ToolTypeFileSearch      ToolType = "file_search"
	ToolTypeCodeInterpreter ToolType = "code_interpreter"
	ToolTypeImageGeneration ToolType = "image_generation"
	ToolTypeFunction        ToolType = "function"
	ToolTypeMCP             ToolType = "mcp"
)

// ParseToolType normalizes a wire tool_type string. Anything unrecognized is
// treated as an MCP tool.
func ParseToolType(val string) ToolType {
	switch strings.TrimSpace(strings.ToLower(val)) {
	case "web_search":
		return ToolTypeWebSearch
	case "file_search":
		return ToolTypeFileSearch
	case "code_interpreter":
		return ToolTypeCodeInterpreter
	case "image_generation":
		return ToolTypeImageGeneration
	case "function":
		return ToolTypeFunction
	default:
		return ToolTypeMCP
	}
}

// toolTypeForItemType maps streamed output item types to tool placeholders.
func toolTypeForItemType(itemType string) (ToolType, bool) {
	switch itemType {
	case "web_search_call":
		return ToolTypeWebSearch, true
	case "file_search_call":
		return ToolTypeFileSearch, true
	case "code_interpreter_call":
		return ToolTypeCodeInterpreter, true
	case "image_generation_call":
		return ToolTypeImageGeneration, true
	case "mcp_call":
		return ToolTypeMCP, true
	case "function_call", "custom_tool_call":
		return ToolTypeFunction, true
	}
	return "", false
}

// ToolStatus is the UI lifecycle status of a tool call. Statuses form a
// lattice ordered by completeness; merges never move backward in it.
type ToolStatus string

const (
	StatusInputStreaming  ToolStatus = "input-streaming"
	StatusInputAvailable  ToolStatus = "input-available"
	StatusOutputAvailable ToolStatus = "output-available"
	StatusOutputError     ToolStatus = "output-error"
)

// statusRank assigns the explicit total order over the lattice. The two
// terminal statuses share the top rank; the first one recorded wins.
func statusRank(s ToolStatus) int {
	switch s {
	case StatusInputStreaming:
		return 1
	case StatusInputAvailable:
		return 2
	case StatusOutputAvailable, StatusOutputError:
		return 3
	}
	return 0
}

// upgradeStatus resolves old and next via the lattice: the more complete
// status is kept, so a partial state can never overwrite a full one.
func upgradeStatus(old, next ToolStatus) ToolStatus {
	if statusRank(next) > statusRank(old) {
		return next
	}
	return old
}

// statusFromProvider maps a provider-native status string to the UI lattice.
func statusFromProvider(val string) ToolStatus {
	switch strings.TrimSpace(strings.ToLower(val)) {
	case "completed", "complete", "done":
		return StatusOutputAvailable
	case "failed", "error":
		return StatusOutputError
	default:
		// in_progress, searching, interpreting, generating, queued, ...: the
		// tool is executing, so its input is known.
		return StatusInputAvailable
	}
}

// ToolInput carries the type-appropriate input shape for one tool call.
type ToolInput struct {
	ArgumentsText string          `json:"arguments_text,omitempty"`
	Arguments     json.RawMessage `json:"arguments,omitempty"`
	Code          string          `json:"code,omitempty"`
	Queries       []string        `json:"queries,omitempty"`
	ServerLabel   string          `json:"server_label,omitempty"`
}

// ApprovalRecord is the structured output stored for tool.approval events.
type ApprovalRecord struct {
	Approved          bool   `json:"approved"`
	Reason            string `json:"reason,omitempty"`
	ApprovalRequestID string `json:"approval_request_id,omitempty"`
}

// ToolState is the reduced view of one logical tool call, keyed by its
// canonical id.
type ToolState struct {
	ID          string
	Name        string
	OutputIndex *int
	Status      ToolStatus
	Input       *ToolInput
	Output      any
	ErrorText   string
}

// clone returns a copy safe to hand to consumers: pointer-shaped fields are
// duplicated so later reducer mutations never leak into emitted snapshots.
func (s *ToolState) clone() ToolState {
	out := *s
	if s.OutputIndex != nil {
		idx := *s.OutputIndex
		out.OutputIndex = &idx
	}
	if s.Input != nil {
		in := *s.Input
		out.Input = &in
	}
	if frames, ok := s.Output.([]ImageFrame); ok {
		out.Output = append([]ImageFrame(nil), frames...)
	}
	return out
}

func (s *ToolState) input() *ToolInput {
	if s.Input == nil {
		s.Input = &ToolInput{}
	}
	return s.Input
}

// mergeToolState folds the losing record src into the winning record dst:
// first non-null wins with dst preferred, status resolved via the lattice.
func mergeToolState(dst, src *ToolState) {
	if dst.Name == "" {
		dst.Name = src.Name
	}
	if dst.OutputIndex == nil {
		dst.OutputIndex = src.OutputIndex
	}
	dst.Status = upgradeStatus(dst.Status, src.Status)
	if dst.Input == nil {
		dst.Input = src.Input
	} else if src.Input != nil {
		mergeToolInput(dst.Input, src.Input)
	}
	if dst.Output == nil {
		dst.Output = src.Output
	}
	if dst.ErrorText == "" {
		dst.ErrorText = src.ErrorText
	}
}

func mergeToolInput(dst, src *ToolInput) {
	if dst.ArgumentsText == "" {
		dst.ArgumentsText = src.ArgumentsText
	}
	if len(dst.Arguments) == 0 {
		dst.Arguments = src.Arguments
	}
	if dst.Code == "" {
		dst.Code = src.Code
	}
	if len(dst.Queries) == 0 {
		dst.Queries = src.Queries
	}
	if dst.ServerLabel == "" {
		dst.ServerLabel = src.ServerLabel
	}
}
