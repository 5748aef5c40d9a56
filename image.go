package agentview

import (
	"sort"
	"strconv"
)

// Chunk routing constants for progressive image payloads.
const (
	entityKindToolCall = "tool_call"
	fieldPartialImage  = "partial_image_b64"
)

// ImageFrame is one progressive frame of a generated image. OutputIndex is the
// part index the frame was delivered under.
type ImageFrame struct {
	ID            string `json:"id"`
	Src           string `json:"src"`
	Status        string `json:"status"`
	OutputIndex   int    `json:"output_index"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// imageMeta holds per-tool image assembly state. The ordered frame list is
// derived from the part map on every update, never stored redundantly.
type imageMeta struct {
	format        string
	revisedPrompt string
	frames        map[int]ImageFrame
}

func newImageMeta() *imageMeta {
	return &imageMeta{frames: make(map[int]ImageFrame)}
}

// orderedFrames recomputes the frame list sorted by part index. O(frames) and
// deterministic regardless of part arrival order.
func (m *imageMeta) orderedFrames() []ImageFrame {
	indexes := make([]int, 0, len(m.frames))
	for idx := range m.frames {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	out := make([]ImageFrame, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, m.frames[idx])
	}
	return out
}

// applyImageChunk stores one completed progressive-image part for the tool and
// recomputes its output as the ordered frame list.
func (s *Session) applyImageChunk(canon string, part int, payload ChunkPayload) {
	meta := s.imageMetaFor(canon)
	state := s.tool(canon)

	src := payload.Data
	if payload.Encoding == EncodingBase64 {
		format := meta.format
		if format == "" {
			format = "png"
		}
		src = "data:image/" + format + ";base64," + payload.Data
	}

	status := "completed"
	if state.Status == StatusOutputError {
		status = "failed"
	}
	meta.frames[part] = ImageFrame{
		ID:            canon + "-" + strconv.Itoa(part),
		Src:           src,
		Status:        status,
		OutputIndex:   part,
		RevisedPrompt: meta.revisedPrompt,
	}

	state.Name = string(ToolTypeImageGeneration)
	state.Output = meta.orderedFrames()
}
