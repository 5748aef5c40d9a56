package agentview

// IntPtr is a convenience helper for optional index fields.
func IntPtr(v int) *int { return &v }

// BoolPtr is a convenience helper for optional boolean fields.
func BoolPtr(b bool) *bool { return &b }
