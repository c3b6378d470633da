package domain

// SnapshotDiff describes what changed between two consecutive snapshots of a
// NodeExecution. It is what the inspection API renders as history.
type SnapshotDiff struct {
	ID      string `json:"id"`
	Version int64  `json:"version"`

	Status      *Status        `json:"status,omitempty"`
	Mode        *ExecutionMode `json:"mode,omitempty"`
	Ended       bool           `json:"ended,omitempty"`
	SkipInfo    *SkipInfo      `json:"skip_info,omitempty"`
	NodeRunInfo *NodeRunInfo   `json:"node_run_info,omitempty"`
	FailureInfo *FailureInfo   `json:"failure_info,omitempty"`
}

// Diff calculates the difference between oldExec and newExec.
// If oldExec is nil, the diff represents the whole of newExec.
// It returns nil when nothing observable changed.
func Diff(oldExec, newExec *NodeExecution) *SnapshotDiff {
	if newExec == nil {
		return nil
	}

	diff := &SnapshotDiff{
		ID:      newExec.ID,
		Version: newExec.Version,
	}

	if oldExec == nil || oldExec.Status != newExec.Status {
		status := newExec.Status
		diff.Status = &status
	}
	if newExec.Mode != "" && (oldExec == nil || oldExec.Mode != newExec.Mode) {
		mode := newExec.Mode
		diff.Mode = &mode
	}
	if !newExec.EndTs.IsZero() && (oldExec == nil || oldExec.EndTs.IsZero()) {
		diff.Ended = true
	}
	if newExec.SkipInfo != nil && (oldExec == nil || oldExec.SkipInfo == nil) {
		diff.SkipInfo = newExec.SkipInfo
	}
	if newExec.NodeRunInfo != nil && (oldExec == nil || oldExec.NodeRunInfo == nil) {
		diff.NodeRunInfo = newExec.NodeRunInfo
	}
	if newExec.FailureInfo != nil && (oldExec == nil || oldExec.FailureInfo == nil) {
		diff.FailureInfo = newExec.FailureInfo
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// DiffHistory turns an ordered list of snapshots into the list of changes.
// Snapshots that changed nothing are dropped.
func DiffHistory(snapshots []*NodeExecution) []*SnapshotDiff {
	var out []*SnapshotDiff
	var prev *NodeExecution
	for _, s := range snapshots {
		if d := Diff(prev, s); d != nil {
			out = append(out, d)
		}
		prev = s
	}
	return out
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return d.Status == nil &&
		d.Mode == nil &&
		!d.Ended &&
		d.SkipInfo == nil &&
		d.NodeRunInfo == nil &&
		d.FailureInfo == nil
}
