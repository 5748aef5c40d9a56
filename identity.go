package agentview

// aliasTable resolves the transient identifiers a backend may use for one
// logical tool call (item ids, tool-call ids) into a single canonical id. It is
// a union-find with point-to-root compression on every lookup, so resolution
// stays amortized-constant and transitive aliases are never missed.
type aliasTable struct {
	parent map[string]string
}

func newAliasTable() *aliasTable {
	return &aliasTable{parent: make(map[string]string)}
}

// Resolve returns the current root for id (self if unseen), compressing every
// visited link to point directly at the root.
func (t *aliasTable) Resolve(id string) string {
	root := id
	for {
		next, ok := t.parent[root]
		if !ok || next == root {
			break
		}
		root = next
	}
	cur := id
	for cur != root {
		next := t.parent[cur]
		t.parent[cur] = root
		cur = next
	}
	return root
}

// Bind declares alias and canonical to denote the same logical tool call. The
// canonical side wins: the alias's root is pointed at the canonical root.
// Returns the winning root and, when two distinct roots were actually joined,
// the losing root whose accumulated state the caller must merge. Binding the
// same pair again is a no-op (merged=false) and can never produce a cycle.
func (t *aliasTable) Bind(alias, canonical string) (winner, loser string, merged bool) {
	a := t.Resolve(alias)
	c := t.Resolve(canonical)
	if a == c {
		return c, "", false
	}
	t.parent[a] = c
	return c, a, true
}
