package agentview

import "sort"

// SnapshotObserver receives the full sorted tool snapshot after every
// mutation. Observers run synchronously on the reducer's goroutine; they must
// not block.
type SnapshotObserver interface {
	OnToolSnapshot(tools []ToolState)
}

// SnapshotObserverFunc adapts a plain function to SnapshotObserver.
type SnapshotObserverFunc func(tools []ToolState)

// OnToolSnapshot implements SnapshotObserver.
func (f SnapshotObserverFunc) OnToolSnapshot(tools []ToolState) { f(tools) }

// SubscribeSnapshotChannel registers a buffered channel subscriber and returns
// its receive side. When the buffer is full the oldest pending snapshot is
// dropped so the reducer never blocks; consumers always converge on the most
// recent state.
func (s *Session) SubscribeSnapshotChannel(buffer int) <-chan []ToolState {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan []ToolState, buffer)
	s.SubscribeSnapshots(SnapshotObserverFunc(func(tools []ToolState) {
		for {
			select {
			case ch <- tools:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	}))
	return ch
}

// ToolsSorted returns every known tool state ordered by output index
// ascending, tools lacking an index last, ties broken by insertion order. The
// returned slice and its elements are fresh copies on every call.
func (s *Session) ToolsSorted() []ToolState {
	ids := make([]string, 0, len(s.tools))
	for id := range s.tools {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.order[ids[i]] < s.order[ids[j]]
	})
	sort.SliceStable(ids, func(i, j int) bool {
		a := s.tools[ids[i]].OutputIndex
		b := s.tools[ids[j]].OutputIndex
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})

	out := make([]ToolState, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.tools[id].clone())
	}
	return out
}

// emit hands the current snapshot to every subscriber. Called after every
// mutating operation.
func (s *Session) emit() {
	if len(s.observers) == 0 && s.telemetry.OnSnapshot == nil {
		return
	}
	snap := s.ToolsSorted()
	if s.telemetry.OnSnapshot != nil {
		s.telemetry.OnSnapshot(snap)
	}
	for _, obs := range s.observers {
		obs.OnToolSnapshot(snap)
	}
}
