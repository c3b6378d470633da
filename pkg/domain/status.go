package domain

// Status is the runtime state of a NodeExecution.
type Status string

const (
	StatusQueued       Status = "QUEUED"
	StatusRunning      Status = "RUNNING"
	StatusAsyncWaiting Status = "ASYNC_WAITING"
	StatusTaskWaiting  Status = "TASK_WAITING"
	StatusSkipped      Status = "SKIPPED"
	StatusSucceeded    Status = "SUCCEEDED"
	StatusFailed       Status = "FAILED"
	StatusErrored      Status = "ERRORED"
	StatusAborted      Status = "ABORTED"
	StatusExpired      Status = "EXPIRED"
)

var finalStatuses = map[Status]bool{
	StatusSkipped:   true,
	StatusSucceeded: true,
	StatusFailed:    true,
	StatusErrored:   true,
	StatusAborted:   true,
	StatusExpired:   true,
}

var knownStatuses = map[Status]bool{
	StatusQueued:       true,
	StatusRunning:      true,
	StatusAsyncWaiting: true,
	StatusTaskWaiting:  true,
}

// IsFinal reports whether the status ends the lifecycle of a node.
func (s Status) IsFinal() bool {
	return finalStatuses[s]
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	return finalStatuses[s] || knownStatuses[s]
}

// NonFinalStatuses lists every status a node can still move out of.
func NonFinalStatuses() []Status {
	return []Status{StatusQueued, StatusRunning, StatusAsyncWaiting, StatusTaskWaiting}
}

// CanTransition reports whether a record in status from may move to status to.
// Final statuses only accept themselves, which callers treat as a no-op.
func CanTransition(from, to Status) bool {
	if !to.IsValid() {
		return false
	}
	if from.IsFinal() {
		return from == to
	}
	return true
}

// ExecutionMode describes how a step is executed once facilitated.
type ExecutionMode string

const (
	ModeSync     ExecutionMode = "SYNC"
	ModeAsync    ExecutionMode = "ASYNC"
	ModeTask     ExecutionMode = "TASK"
	ModeChild    ExecutionMode = "CHILD"
	ModeChildren ExecutionMode = "CHILDREN"
)
