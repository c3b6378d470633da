package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/facilitator/pkg/adapters/sqlite"
	"github.com/aretw0/facilitator/pkg/domain"
	"github.com/aretw0/facilitator/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSqliteStore_Contract(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "executions.db"))
	ports.RunNodeExecutionStoreContract(t, store)
}

func TestSqliteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "executions.db")
	ctx := context.Background()

	first, err := sqlite.Open(path)
	require.NoError(t, err)

	ambiance := domain.Ambiance{
		PlanExecutionID: "plan-reopen",
		Levels:          []domain.Level{{RuntimeID: "ne-reopen", SetupID: "node"}},
	}
	exec := domain.NewNodeExecution(ambiance, domain.PlanNode{ID: "node"}, time.Unix(10, 0).UTC())
	require.NoError(t, first.Save(ctx, exec))
	exec.Status = domain.StatusRunning
	require.NoError(t, first.Update(ctx, exec))
	require.NoError(t, first.Close())

	second := openTestStore(t, path)
	loaded, err := second.Get(ctx, "ne-reopen")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, loaded.Status)
	assert.Equal(t, int64(1), loaded.Version)

	history, err := second.History(ctx, "ne-reopen")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestSqliteStore_ConcurrentWriters(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "executions.db"))
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("ne-%02d", i)
			exec := domain.NewNodeExecution(domain.Ambiance{
				PlanExecutionID: "plan-concurrent",
				Levels:          []domain.Level{{RuntimeID: id, SetupID: "node"}},
			}, domain.PlanNode{ID: "node"}, time.Unix(int64(i), 0).UTC())
			if err := store.Save(ctx, exec); err != nil {
				errs <- err
				return
			}
			exec.Status = domain.StatusRunning
			errs <- store.Update(ctx, exec)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	list, err := store.ListByPlanExecution(ctx, "plan-concurrent")
	require.NoError(t, err)
	require.Len(t, list, 16)
	assert.Equal(t, "ne-00", list[0].ID)
	assert.Equal(t, "ne-15", list[15].ID)
}
