package expression

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/facilitator/pkg/domain"
)

// Keys the status helpers record their own result under. They describe how a
// helper was computed, not something the user referenced, so they are left
// out of expression blocks.
const (
	KeyOnPipelineStatus = "onPipelineStatus"
	KeyOnStageStatus    = "onStageStatus"
)

var internalKeys = map[string]bool{
	KeyOnPipelineStatus: true,
	KeyOnStageStatus:    true,
}

// UsageTracker counts the values every referenced expression resolved to.
// Safe for concurrent use.
type UsageTracker struct {
	mu    sync.Mutex
	usage map[string]map[any]int
}

// NewUsageTracker creates an empty tracker.
func NewUsageTracker() *UsageTracker {
	return &UsageTracker{usage: make(map[string]map[any]int)}
}

// Track records one observation of value for expression.
func (t *UsageTracker) Track(expression string, value any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	values, ok := t.usage[expression]
	if !ok {
		values = make(map[any]int)
		t.usage[expression] = values
	}
	values[usageKey(value)]++
}

// Usage returns a copy of the tracked usage.
func (t *UsageTracker) Usage() map[string]map[any]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]map[any]int, len(t.usage))
	for expr, values := range t.usage {
		cp := make(map[any]int, len(values))
		for v, n := range values {
			cp[v] = n
		}
		out[expr] = cp
	}
	return out
}

// usageKey makes value usable as a map key.
func usageKey(value any) any {
	switch v := value.(type) {
	case nil:
		return "null"
	case string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// ExpressionBlocks flattens usage into one block per (expression, value)
// pair. Helper bookkeeping keys are skipped. Blocks are sorted by expression
// and then by rendered value.
func ExpressionBlocks(usage map[string]map[any]int) []domain.ExpressionBlock {
	var blocks []domain.ExpressionBlock
	for expression, values := range usage {
		if internalKeys[expression] {
			continue
		}
		for value, count := range values {
			blocks = append(blocks, domain.ExpressionBlock{
				Expression:      expression,
				ExpressionValue: fmt.Sprint(value),
				Count:           count,
			})
		}
	}
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].Expression != blocks[j].Expression {
			return blocks[i].Expression < blocks[j].Expression
		}
		return blocks[i].ExpressionValue < blocks[j].ExpressionValue
	})
	return blocks
}
