package domain

// ExecutionCheck is the verdict of a single pre-facilitation checker.
// Reason is only set on a veto that the checker did not resolve itself.
type ExecutionCheck struct {
	Proceed bool   `json:"proceed"`
	Reason  string `json:"reason,omitempty"`
}

// Proceed lets the node continue to the next checker.
func Proceed() ExecutionCheck {
	return ExecutionCheck{Proceed: true}
}

// Veto stops the chain. An empty reason means the outcome was already
// reported to the orchestrator.
func Veto(reason string) ExecutionCheck {
	return ExecutionCheck{Proceed: false, Reason: reason}
}
