package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventCheck      EventType = "check"
	EventNodeStart  EventType = "node_start"
	EventNodeFinish EventType = "node_finish"
	EventError      EventType = "error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp       time.Time `json:"timestamp"`
	Type            EventType `json:"type"`
	PlanExecutionID string    `json:"plan_execution_id"`
	NodeExecutionID string    `json:"node_execution_id"`
}

// CheckEvent is emitted after every checker verdict.
type CheckEvent struct {
	EventBase
	Checker  string         `json:"checker"`
	PlanNode string         `json:"plan_node"`
	Check    ExecutionCheck `json:"check"`
}

// NodeEvent represents the start or the terminal transition of a node.
type NodeEvent struct {
	EventBase
	Identifier string `json:"identifier"`
	Status     Status `json:"status"`
}

// ErrorEvent represents an engine-level error for a node.
type ErrorEvent struct {
	EventBase
	Err error `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnCheck      func(context.Context, *CheckEvent)
	OnNodeStart  func(context.Context, *NodeEvent)
	OnNodeFinish func(context.Context, *NodeEvent)
	OnError      func(context.Context, *ErrorEvent)
}

// NewEventBase fills the common fields from an ambiance.
func NewEventBase(t EventType, ambiance Ambiance, now time.Time) EventBase {
	return EventBase{
		Timestamp:       now,
		Type:            t,
		PlanExecutionID: ambiance.PlanExecutionID,
		NodeExecutionID: ambiance.CurrentRuntimeID(),
	}
}
