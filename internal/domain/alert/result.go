package alert

import "maps"

// DispatchResult aggregates the outcome of one fan-out.
type DispatchResult struct {
	AlertID     string
	SentCount   int
	FailedCount int
	// Failures maps each failed delivery address to the transport's reason.
	Failures map[string]string
	// Unreachable lists responders without a usable address. They were never
	// part of the send batch and are not counted in FailedCount.
	Unreachable []string
}

// Success reports whether at least one device received the alert.
func (r *DispatchResult) Success() bool {
	return r != nil && r.SentCount > 0
}

// Clone returns a deep copy of the result.
func (r *DispatchResult) Clone() *DispatchResult {
	if r == nil {
		return nil
	}

	cloned := *r
	cloned.Failures = maps.Clone(r.Failures)
	cloned.Unreachable = append([]string(nil), r.Unreachable...)

	return &cloned
}
