package agentview

import (
	"sort"
	"strings"
)

// Chunk encodings carried on chunk.delta events. The reassembler itself is
// encoding-agnostic; downstream consumers interpret the concatenated payload.
const (
	EncodingBase64 = "base64"
	EncodingText   = "text"
)

// targetKey is the comparable form of a Target used as a map key. Equality is
// structural; part is -1 when the target carries no part index.
type targetKey struct {
	entityKind string
	entityID   string
	field      string
	part       int
}

func (t Target) key() targetKey {
	part := -1
	if t.PartIndex != nil {
		part = *t.PartIndex
	}
	return targetKey{entityKind: t.EntityKind, entityID: t.EntityID, field: t.Field, part: part}
}

// ChunkPayload is one fully reassembled chunk stream.
type ChunkPayload struct {
	Encoding string
	Data     string
}

type chunkAccumulator struct {
	encoding string
	parts    map[int]*strings.Builder
}

// chunkTable accumulates ordered fragments per target until an explicit
// completion takes them. Accumulators are created lazily on first delta.
type chunkTable struct {
	pending map[targetKey]*chunkAccumulator
}

func newChunkTable() *chunkTable {
	return &chunkTable{pending: make(map[targetKey]*chunkAccumulator)}
}

// applyDelta appends data under chunkIndex for the target. Chunk indexes are
// advisory ordering metadata: fragments may arrive in any order and are
// concatenated in index order when the accumulator is taken, not arrival order.
func (t *chunkTable) applyDelta(target Target, encoding string, chunkIndex int, data string) {
	key := target.key()
	acc := t.pending[key]
	if acc == nil {
		acc = &chunkAccumulator{parts: make(map[int]*strings.Builder)}
		t.pending[key] = acc
	}
	if encoding != "" {
		acc.encoding = encoding
	}
	part := acc.parts[chunkIndex]
	if part == nil {
		part = &strings.Builder{}
		acc.parts[chunkIndex] = part
	}
	part.WriteString(data)
}

// take returns the reassembled payload for target and deletes the accumulator.
// Reading is single-consumption: a completion with nothing pending (late or
// duplicate) reports ok=false and is not an error.
func (t *chunkTable) take(target Target) (ChunkPayload, bool) {
	key := target.key()
	acc := t.pending[key]
	if acc == nil {
		return ChunkPayload{}, false
	}
	delete(t.pending, key)

	indexes := make([]int, 0, len(acc.parts))
	for idx := range acc.parts {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	var out strings.Builder
	for _, idx := range indexes {
		out.WriteString(acc.parts[idx].String())
	}
	return ChunkPayload{Encoding: acc.encoding, Data: out.String()}, true
}
