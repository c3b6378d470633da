package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/facilitator/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunNodeExecutionStoreContract runs a suite of tests to verify that a
// NodeExecutionStore implementation adheres to the interface contract.
func RunNodeExecutionStoreContract(t *testing.T, store NodeExecutionStore) {
	ctx := context.Background()
	planExecutionID := "contract-plan-" + time.Now().Format("20060102150405.000000000")

	newExec := func(runtimeID string) *domain.NodeExecution {
		ambiance := domain.Ambiance{
			PlanExecutionID: planExecutionID,
			Levels: []domain.Level{
				{RuntimeID: "parent-" + runtimeID, SetupID: "stage-node"},
				{RuntimeID: runtimeID, SetupID: "step-node", Identifier: "step"},
			},
		}
		node := domain.PlanNode{
			ID:          "step-node",
			Name:        "Step",
			Identifier:  "step",
			StepType:    domain.StepType{Type: "SHELL_SCRIPT", Category: domain.CategoryStep},
			ServiceName: "CD",
		}
		return domain.NewNodeExecution(ambiance, node, time.Unix(1700000000, 0).UTC())
	}

	t.Run("Save and Get", func(t *testing.T) {
		exec := newExec("rt-save")
		require.NoError(t, store.Save(ctx, exec), "Save should not return error")

		loaded, err := store.Get(ctx, exec.ID)
		require.NoError(t, err)
		assert.Equal(t, exec.ID, loaded.ID)
		assert.Equal(t, domain.StatusQueued, loaded.Status)
		assert.Equal(t, int64(0), loaded.Version)
		assert.Equal(t, "parent-rt-save", loaded.ParentID)
		assert.Equal(t, "CD", loaded.Module)
		assert.True(t, exec.StartTs.Equal(loaded.StartTs))
		assert.Equal(t, 2, loaded.Ambiance.Depth())
	})

	t.Run("Save Duplicate", func(t *testing.T) {
		exec := newExec("rt-dup")
		require.NoError(t, store.Save(ctx, exec))
		err := store.Save(ctx, newExec("rt-dup"))
		assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	})

	t.Run("Find By Ambiance", func(t *testing.T) {
		exec := newExec("rt-find")
		require.NoError(t, store.Save(ctx, exec))

		found, err := store.Find(ctx, exec.Ambiance)
		require.NoError(t, err)
		assert.Equal(t, exec.ID, found.ID)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "missing-"+planExecutionID)
		assert.ErrorIs(t, err, domain.ErrNodeExecutionNotFound)

		_, err = store.Find(ctx, domain.Ambiance{Levels: []domain.Level{{RuntimeID: "missing-" + planExecutionID}}})
		assert.ErrorIs(t, err, domain.ErrNodeExecutionNotFound)
	})

	t.Run("Update Versions", func(t *testing.T) {
		exec := newExec("rt-update")
		require.NoError(t, store.Save(ctx, exec))

		exec.Status = domain.StatusSkipped
		exec.EndTs = time.Unix(1700000100, 0).UTC()
		exec.SkipInfo = &domain.SkipInfo{SkipCondition: "<+skip>", EvaluatedCondition: true}
		require.NoError(t, store.Update(ctx, exec))
		assert.Equal(t, int64(1), exec.Version)

		loaded, err := store.Get(ctx, exec.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSkipped, loaded.Status)
		assert.Equal(t, int64(1), loaded.Version)
		require.NotNil(t, loaded.SkipInfo)
		assert.Equal(t, "<+skip>", loaded.SkipInfo.SkipCondition)
		assert.True(t, loaded.SkipInfo.EvaluatedCondition)

		history, err := store.History(ctx, exec.ID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, domain.StatusQueued, history[0].Status)
		assert.Equal(t, domain.StatusSkipped, history[1].Status)
		assert.Equal(t, int64(0), history[0].Version)
		assert.Equal(t, int64(1), history[1].Version)
	})

	t.Run("Update Stale Version", func(t *testing.T) {
		exec := newExec("rt-stale")
		require.NoError(t, store.Save(ctx, exec))

		first, err := store.Get(ctx, exec.ID)
		require.NoError(t, err)
		second, err := store.Get(ctx, exec.ID)
		require.NoError(t, err)

		first.Status = domain.StatusRunning
		require.NoError(t, store.Update(ctx, first))

		second.Status = domain.StatusErrored
		err = store.Update(ctx, second)
		assert.ErrorIs(t, err, domain.ErrVersionConflict)

		loaded, err := store.Get(ctx, exec.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusRunning, loaded.Status)
	})

	t.Run("Update Non-Existent", func(t *testing.T) {
		err := store.Update(ctx, newExec("rt-never-saved"))
		assert.ErrorIs(t, err, domain.ErrNodeExecutionNotFound)
	})

	t.Run("Stored Copies Are Isolated", func(t *testing.T) {
		exec := newExec("rt-isolated")
		require.NoError(t, store.Save(ctx, exec))
		exec.Status = domain.StatusFailed

		loaded, err := store.Get(ctx, exec.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusQueued, loaded.Status)
	})

	t.Run("List By Plan Execution", func(t *testing.T) {
		other := newExec("rt-other-plan")
		other.Ambiance.PlanExecutionID = "another-" + planExecutionID
		require.NoError(t, store.Save(ctx, other))

		list, err := store.ListByPlanExecution(ctx, planExecutionID)
		require.NoError(t, err)

		ids := make([]string, 0, len(list))
		for _, e := range list {
			ids = append(ids, e.ID)
		}
		for _, id := range []string{"rt-save", "rt-find", "rt-update"} {
			assert.Contains(t, ids, id, fmt.Sprintf("plan listing should contain %s", id))
		}
		assert.NotContains(t, ids, "rt-other-plan")
	})

	t.Run("List By Plan Execution Orders By Start Time", func(t *testing.T) {
		orderedPlan := "ordered-" + planExecutionID
		starts := map[string]time.Time{
			"b-whole-second": time.Unix(100, 0).UTC(),
			"a-half-second":  time.Unix(100, 5e8).UTC(),
			"c-earliest":     time.Unix(99, 250).UTC(),
			"d-tie":          time.Unix(100, 5e8).UTC(),
		}
		for id, start := range starts {
			exec := newExec(id)
			exec.Ambiance.PlanExecutionID = orderedPlan
			exec.StartTs = start
			require.NoError(t, store.Save(ctx, exec))
		}

		list, err := store.ListByPlanExecution(ctx, orderedPlan)
		require.NoError(t, err)

		ids := make([]string, 0, len(list))
		for _, e := range list {
			ids = append(ids, e.ID)
		}
		assert.Equal(t, []string{"c-earliest", "b-whole-second", "a-half-second", "d-tie"}, ids,
			"records should be ordered by start time, then id")
	})
}
