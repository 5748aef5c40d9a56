package agentview

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionConfig wires telemetry and test seams for a Session.
type SessionConfig struct {
	Telemetry TelemetryHooks
	// Clock overrides the time source for first-seen timestamps (tests).
	Clock func() time.Time
}

// Session owns all reconstruction state for one trace stream: the alias table,
// chunk accumulators, per-tool records, and auxiliary text buffers. It is
// constructed per stream and discarded when the stream ends; there is no
// process-wide state. All methods assume a single logical writer.
type Session struct {
	// ID identifies the session in logs and span attributes.
	ID uuid.UUID

	telemetry TelemetryHooks
	observers []SnapshotObserver
	clock     func() time.Time

	ids    *aliasTable
	chunks *chunkTable

	tools   map[string]*ToolState
	order   map[string]int
	nextOrd int

	argText   map[string]*strings.Builder
	codeText  map[string]*strings.Builder
	images    map[string]*imageMeta
	firstSeen map[string]time.Time
}

// NewSession constructs an empty session.
func NewSession(cfg SessionConfig) *Session {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Session{
		ID:        uuid.New(),
		telemetry: cfg.Telemetry,
		clock:     clock,
		ids:       newAliasTable(),
		chunks:    newChunkTable(),
		tools:     make(map[string]*ToolState),
		order:     make(map[string]int),
		argText:   make(map[string]*strings.Builder),
		codeText:  make(map[string]*strings.Builder),
		images:    make(map[string]*imageMeta),
		firstSeen: make(map[string]time.Time),
	}
}

// SubscribeSnapshots registers an observer that receives the full sorted tool
// snapshot after every mutation.
func (s *Session) SubscribeSnapshots(obs SnapshotObserver) {
	if obs == nil {
		return
	}
	s.observers = append(s.observers, obs)
}

// Apply reduces one decoded protocol event into the session state. It never
// returns an error and never panics on malformed events: unknown kinds are
// ignored, passthrough kinds leave tool state untouched, and events missing
// their identifiers are inert.
func (s *Session) Apply(ev Event) {
	if s.telemetry.OnEvent != nil {
		s.telemetry.OnEvent(ev)
	}
	s.telemetry.metric("engine_events_total", 1, map[string]string{"kind": string(ev.Kind)})

	switch ev.Kind {
	case KindToolStatus:
		s.applyToolStatus(ev)
	case KindToolArgsDelta:
		s.applyArgumentsDelta(ev)
	case KindToolArgsDone:
		s.applyArgumentsDone(ev)
	case KindToolCodeDelta:
		s.applyCodeDelta(ev)
	case KindToolCodeDone:
		s.applyCodeDone(ev)
	case KindToolOutput:
		s.applyToolOutput(ev)
	case KindToolApproval:
		s.applyApproval(ev)
	case KindChunkDelta:
		s.applyChunkDelta(ev)
	case KindChunkDone:
		s.applyChunkDone(ev)
	case KindOutputItemAdded:
		s.EnsurePlaceholderForOutputItem(OutputItemRef{
			ItemID:      ev.ItemID,
			ItemType:    ev.ItemType,
			OutputIndex: ev.OutputIndex,
		})
	case KindError:
		s.telemetry.log(LogLevelError, "stream_error_event", map[string]any{
			"session_id": s.ID.String(),
			"reason":     ev.Reason,
		})
	default:
		// Passthrough and unknown kinds bypass tool reduction.
	}
}

// Canonicalize returns the canonical id for any observed identifier (itself
// when unseen).
func (s *Session) Canonicalize(id string) string {
	return s.ids.Resolve(id)
}

// ToolByID returns a copy of the tool state the identifier resolves to.
func (s *Session) ToolByID(id string) (ToolState, bool) {
	canon := s.ids.Resolve(id)
	st, ok := s.tools[canon]
	if !ok {
		return ToolState{}, false
	}
	return st.clone(), true
}

// FirstSeenMs returns the epoch-millisecond timestamp at which the tool the
// identifier resolves to was first referenced, or 0 when unknown.
func (s *Session) FirstSeenMs(id string) int64 {
	canon := s.ids.Resolve(id)
	ts, ok := s.firstSeen[canon]
	if !ok {
		return 0
	}
	return ts.UnixMilli()
}

// OutputItemRef identifies a streamed output item that may become a tool row.
type OutputItemRef struct {
	ItemID      string
	ItemType    string
	OutputIndex *int
}

// EnsurePlaceholderForOutputItem materializes a provisional tool row for a
// known tool item type so the UI shows a slot before the first real event
// arrives. An existing row keeps its status and output index.
func (s *Session) EnsurePlaceholderForOutputItem(ref OutputItemRef) {
	if ref.ItemID == "" {
		return
	}
	toolType, ok := toolTypeForItemType(ref.ItemType)
	if !ok {
		return
	}
	canon := s.ids.Resolve(ref.ItemID)
	st := s.tool(canon)
	if st.Name == "" {
		st.Name = string(toolType)
	}
	if ref.OutputIndex != nil && st.OutputIndex == nil {
		idx := *ref.OutputIndex
		st.OutputIndex = &idx
	}
	s.emit()
}

// tool loads or lazily creates the record for a canonical id. New rows start
// at input-streaming.
func (s *Session) tool(canon string) *ToolState {
	if st, ok := s.tools[canon]; ok {
		return st
	}
	st := &ToolState{ID: canon, Status: StatusInputStreaming}
	s.tools[canon] = st
	if _, ok := s.order[canon]; !ok {
		s.order[canon] = s.nextOrd
		s.nextOrd++
	}
	if _, ok := s.firstSeen[canon]; !ok {
		s.firstSeen[canon] = s.clock()
	}
	return st
}

func (s *Session) imageMetaFor(canon string) *imageMeta {
	meta := s.images[canon]
	if meta == nil {
		meta = newImageMeta()
		s.images[canon] = meta
	}
	return meta
}

func (s *Session) argBuilder(canon string) *strings.Builder {
	b := s.argText[canon]
	if b == nil {
		b = &strings.Builder{}
		s.argText[canon] = b
	}
	return b
}

func (s *Session) codeBuilder(canon string) *strings.Builder {
	b := s.codeText[canon]
	if b == nil {
		b = &strings.Builder{}
		s.codeText[canon] = b
	}
	return b
}

// canonicalFor resolves the identifiers an event carries. When both an item id
// and a tool-call id are present the two are bound, with the tool-call id as
// the canonical side; any state already accumulated under the other id is
// merged at that moment.
func (s *Session) canonicalFor(itemID, toolCallID string) string {
	switch {
	case itemID != "" && toolCallID != "":
		return s.bindAlias(itemID, toolCallID)
	case toolCallID != "":
		return s.ids.Resolve(toolCallID)
	case itemID != "":
		return s.ids.Resolve(itemID)
	}
	return ""
}

// bindAlias declares two identifiers equal and merges all state accumulated
// under the losing root into the winning root. Safe to call repeatedly with
// the same pair.
func (s *Session) bindAlias(alias, canonical string) string {
	winner, loser, merged := s.ids.Bind(alias, canonical)
	if !merged {
		return winner
	}
	s.mergeRecords(winner, loser)
	return winner
}

// mergeRecords moves every per-id buffer from loser to winner, preferring the
// winner's existing value when both are present.
func (s *Session) mergeRecords(winner, loser string) {
	lost, hadTool := s.tools[loser]
	if hadTool {
		won, ok := s.tools[winner]
		if !ok {
			lost.ID = winner
			s.tools[winner] = lost
		} else {
			mergeToolState(won, lost)
		}
		delete(s.tools, loser)
	}
	if _, ok := s.order[winner]; !ok {
		if ord, ok := s.order[loser]; ok {
			s.order[winner] = ord
		}
	}
	delete(s.order, loser)

	if _, ok := s.argText[winner]; !ok {
		if b, ok := s.argText[loser]; ok {
			s.argText[winner] = b
		}
	}
	delete(s.argText, loser)

	if _, ok := s.codeText[winner]; !ok {
		if b, ok := s.codeText[loser]; ok {
			s.codeText[winner] = b
		}
	}
	delete(s.codeText, loser)

	if _, ok := s.images[winner]; !ok {
		if m, ok := s.images[loser]; ok {
			s.images[winner] = m
		}
	}
	delete(s.images, loser)

	if _, ok := s.firstSeen[winner]; !ok {
		if ts, ok := s.firstSeen[loser]; ok {
			s.firstSeen[winner] = ts
		}
	}
	delete(s.firstSeen, loser)
}

func (s *Session) applyToolStatus(ev Event) {
	canon := s.canonicalFor(ev.ItemID, ev.ToolCallID)
	if canon == "" {
		return
	}
	st := s.tool(canon)
	toolType := ParseToolType(ev.ToolType)
	if ev.ToolName != "" {
		st.Name = ev.ToolName
	} else if st.Name == "" {
		st.Name = string(toolType)
	}
	if ev.OutputIndex != nil && st.OutputIndex == nil {
		idx := *ev.OutputIndex
		st.OutputIndex = &idx
	}

	info := ev.Tool
	if info != nil {
		if info.Status != "" {
			st.Status = upgradeStatus(st.Status, statusFromProvider(info.Status))
		}
		switch toolType {
		case ToolTypeWebSearch, ToolTypeFileSearch:
			if len(info.Queries) > 0 {
				st.input().Queries = info.Queries
			}
			if len(info.Results) > 0 {
				st.Output = info.Results
			}
		case ToolTypeCodeInterpreter:
			if info.Code != "" {
				st.input().Code = info.Code
			}
			if len(info.Outputs) > 0 {
				st.Output = info.Outputs
			}
		case ToolTypeImageGeneration:
			meta := s.imageMetaFor(canon)
			if info.Format != "" {
				meta.format = info.Format
			}
			if info.RevisedPrompt != "" {
				meta.revisedPrompt = info.RevisedPrompt
			}
		case ToolTypeFunction:
			// Arguments arrive via tool.arguments events.
		default:
			if ev.ServerLabel != "" {
				st.input().ServerLabel = ev.ServerLabel
			}
			if len(info.Outputs) > 0 {
				st.Output = info.Outputs
			}
		}
		if strings.EqualFold(strings.TrimSpace(info.Status), "failed") {
			st.Status = upgradeStatus(st.Status, StatusOutputError)
			if info.Error != "" {
				st.ErrorText = info.Error
			} else if st.ErrorText == "" {
				st.ErrorText = "tool call failed"
			}
		}
	}
	s.emit()
}

func (s *Session) applyArgumentsDelta(ev Event) {
	canon := s.canonicalFor(ev.ItemID, ev.ToolCallID)
	if canon == "" {
		return
	}
	st := s.tool(canon)
	if ev.ToolName != "" {
		st.Name = ev.ToolName
	}
	if ev.OutputIndex != nil && st.OutputIndex == nil {
		idx := *ev.OutputIndex
		st.OutputIndex = &idx
	}
	b := s.argBuilder(canon)
	b.WriteString(ev.Delta)
	st.input().ArgumentsText = b.String()
	st.Status = upgradeStatus(st.Status, StatusInputStreaming)
	s.emit()
}

func (s *Session) applyArgumentsDone(ev Event) {
	canon := s.canonicalFor(ev.ItemID, ev.ToolCallID)
	if canon == "" {
		return
	}
	st := s.tool(canon)
	if ev.ToolName != "" {
		st.Name = ev.ToolName
	}
	text := ev.ArgumentsText
	if text == "" {
		if b, ok := s.argText[canon]; ok {
			text = b.String()
		}
	}
	in := st.input()
	if text != "" {
		in.ArgumentsText = text
	}
	if len(ev.ArgumentsJSON) > 0 {
		in.Arguments = ev.ArgumentsJSON
	}
	st.Status = upgradeStatus(st.Status, StatusInputAvailable)
	s.emit()
}

func (s *Session) applyCodeDelta(ev Event) {
	canon := s.canonicalFor(ev.ItemID, ev.ToolCallID)
	if canon == "" {
		return
	}
	st := s.tool(canon)
	if st.Name == "" {
		st.Name = string(ToolTypeCodeInterpreter)
	}
	b := s.codeBuilder(canon)
	b.WriteString(ev.Delta)
	st.input().Code = b.String()
	st.Status = upgradeStatus(st.Status, StatusInputStreaming)
	s.emit()
}

func (s *Session) applyCodeDone(ev Event) {
	canon := s.canonicalFor(ev.ItemID, ev.ToolCallID)
	if canon == "" {
		return
	}
	st := s.tool(canon)
	if st.Name == "" {
		st.Name = string(ToolTypeCodeInterpreter)
	}
	code := ev.Code
	if code == "" {
		if b, ok := s.codeText[canon]; ok {
			code = b.String()
		}
	}
	if code != "" {
		st.input().Code = code
	}
	st.Status = upgradeStatus(st.Status, StatusInputAvailable)
	s.emit()
}

func (s *Session) applyToolOutput(ev Event) {
	canon := s.canonicalFor(ev.ItemID, ev.ToolCallID)
	if canon == "" {
		return
	}
	st := s.tool(canon)
	if len(ev.Output) > 0 {
		st.Output = ev.Output
	}
	st.Status = upgradeStatus(st.Status, StatusOutputAvailable)
	s.emit()
}

func (s *Session) applyApproval(ev Event) {
	canon := s.canonicalFor(ev.ItemID, ev.ToolCallID)
	if canon == "" {
		return
	}
	st := s.tool(canon)
	rec := ApprovalRecord{
		Reason:            ev.Reason,
		ApprovalRequestID: ev.ApprovalRequestID,
	}
	if ev.Approved != nil {
		rec.Approved = *ev.Approved
	}
	st.Output = rec
	st.Status = upgradeStatus(st.Status, StatusOutputAvailable)
	s.emit()
}

func (s *Session) applyChunkDelta(ev Event) {
	if ev.Target == nil {
		return
	}
	data := ev.Data
	if data == "" {
		data = ev.Delta
	}
	s.chunks.applyDelta(*ev.Target, ev.Encoding, ev.ChunkIndex, data)
	// Accumulation alone is not an observable mutation; no snapshot yet.
}

func (s *Session) applyChunkDone(ev Event) {
	if ev.Target == nil {
		return
	}
	payload, ok := s.chunks.take(*ev.Target)
	if !ok {
		// Late or duplicate completion.
		return
	}
	target := *ev.Target
	if target.EntityKind == entityKindToolCall && target.Field == fieldPartialImage {
		canon := s.ids.Resolve(target.EntityID)
		part := 0
		if target.PartIndex != nil {
			part = *target.PartIndex
		}
		s.applyImageChunk(canon, part, payload)
		s.emit()
		return
	}
	// Reassembled fields without a reducer binding stay visible to the host.
	s.telemetry.metric("engine_chunks_unrouted_total", 1, map[string]string{"field": target.Field})
}
