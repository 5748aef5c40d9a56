package agentview

// Version is the published engine version.
// 0.3.0: Add SubscribeSnapshotChannel with drop-oldest back-pressure.
// 0.2.0: Breaking - EnsurePlaceholderForOutputItem takes an OutputItemRef
// instead of positional item id/type/index arguments.
// 0.1.0: Initial reduction engine: SSE framing, chunk reassembly, identity
// canonicalization, tool-state snapshots.
const Version = "0.3.0"
