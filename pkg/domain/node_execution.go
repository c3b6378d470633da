package domain

import "time"

// NodeExecution is the runtime record of one PlanNode instantiated within one
// Ambiance. Its ID is the runtime id of the ambiance's leaf level.
//
// Records are versioned: every accepted change bumps Version and is kept as a
// snapshot by the store.
type NodeExecution struct {
	ID         string        `json:"id"`
	Ambiance   Ambiance      `json:"ambiance"`
	PlanNodeID string        `json:"plan_node_id"`
	Name       string        `json:"name"`
	Identifier string        `json:"identifier"`
	StepType   StepType      `json:"step_type"`
	Module     string        `json:"module,omitempty"`
	ParentID   string        `json:"parent_id,omitempty"`
	Status     Status        `json:"status"`
	Mode       ExecutionMode `json:"mode,omitempty"`
	StartTs    time.Time     `json:"start_ts"`
	EndTs      time.Time     `json:"end_ts,omitzero"`
	Version    int64         `json:"version"`

	SkipInfo    *SkipInfo    `json:"skip_info,omitempty"`
	NodeRunInfo *NodeRunInfo `json:"node_run_info,omitempty"`
	FailureInfo *FailureInfo `json:"failure_info,omitempty"`
}

// NewNodeExecution creates the QUEUED record for node running under ambiance.
func NewNodeExecution(ambiance Ambiance, node PlanNode, startTs time.Time) *NodeExecution {
	return &NodeExecution{
		ID:         ambiance.CurrentRuntimeID(),
		Ambiance:   ambiance,
		PlanNodeID: node.ID,
		Name:       node.Name,
		Identifier: node.Identifier,
		StepType:   node.StepType,
		Module:     node.ServiceName,
		ParentID:   ambiance.ParentRuntimeID(),
		Status:     StatusQueued,
		StartTs:    startTs,
	}
}

// Snapshot returns a deep enough copy for the store to keep without sharing
// mutable state with the caller.
func (n *NodeExecution) Snapshot() *NodeExecution {
	if n == nil {
		return nil
	}
	out := *n
	out.Ambiance = n.Ambiance.Clone(n.Ambiance.Depth())
	if n.SkipInfo != nil {
		s := *n.SkipInfo
		out.SkipInfo = &s
	}
	if n.NodeRunInfo != nil {
		r := *n.NodeRunInfo
		r.Expressions = append([]ExpressionBlock(nil), n.NodeRunInfo.Expressions...)
		out.NodeRunInfo = &r
	}
	if n.FailureInfo != nil {
		f := *n.FailureInfo
		f.FailureTypes = append([]FailureType(nil), n.FailureInfo.FailureTypes...)
		out.FailureInfo = &f
	}
	return &out
}

// IsFinal reports whether the record reached a terminal status.
func (n *NodeExecution) IsFinal() bool {
	return n.Status.IsFinal()
}
