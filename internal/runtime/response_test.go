package runtime_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/facilitator/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queued saves a QUEUED record under the pipeline ambiance and returns its ambiance.
func queued(t *testing.T, store interface {
	Save(context.Context, *domain.NodeExecution) error
}, runtimeID string) domain.Ambiance {
	t.Helper()
	amb := pipelineAmbiance().CloneForChild(domain.Level{RuntimeID: runtimeID, SetupID: "node-" + runtimeID})
	require.NoError(t, store.Save(context.Background(), domain.NewNodeExecution(amb, stepNode("node-"+runtimeID), fixedNow)))
	return amb
}

func TestEngine_ProcessStepResponse_Idempotent(t *testing.T) {
	rec := &recorder{}
	engine, store := newTestEngine(t, rec)
	ctx := context.Background()
	amb := queued(t, store, "rt-x")
	resp := domain.Skipped("true", true)

	require.NoError(t, engine.ProcessStepResponse(ctx, amb, resp))
	first, err := store.Get(ctx, "rt-x")
	require.NoError(t, err)

	require.NoError(t, engine.ProcessStepResponse(ctx, amb, resp))
	second, err := store.Get(ctx, "rt-x")
	require.NoError(t, err)

	assert.Equal(t, first.Version, second.Version)
	assert.Equal(t, []domain.Status{domain.StatusSkipped}, rec.finishes)
}

func TestEngine_ProcessStepResponse_TerminalConflict(t *testing.T) {
	engine, store := newTestEngine(t, nil)
	ctx := context.Background()
	amb := queued(t, store, "rt-x")

	require.NoError(t, engine.ProcessStepResponse(ctx, amb, domain.Skipped("true", true)))
	err := engine.ProcessStepResponse(ctx, amb, domain.StepResponse{Status: domain.StatusSucceeded})

	assert.ErrorIs(t, err, domain.ErrTerminalTransition)
	exec, err := store.Get(ctx, "rt-x")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSkipped, exec.Status)
}

func TestEngine_ProcessStepResponse_Errors(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	ctx := context.Background()

	err := engine.ProcessStepResponse(ctx, domain.Ambiance{}, domain.StepResponse{Status: domain.StatusRunning})
	assert.ErrorIs(t, err, domain.ErrEmptyAmbiance)

	err = engine.ProcessStepResponse(ctx, pipelineAmbiance(), domain.StepResponse{Status: domain.StatusRunning})
	assert.ErrorIs(t, err, domain.ErrNodeExecutionNotFound)

	err = engine.ProcessStepResponse(ctx, pipelineAmbiance(), domain.StepResponse{Status: domain.StatusSkipped})
	assert.ErrorIs(t, err, domain.ErrInvalidStepResponse)
}

func TestEngine_ProcessStepResponse_Concurrent(t *testing.T) {
	rec := &recorder{}
	engine, store := newTestEngine(t, rec)
	ctx := context.Background()
	amb := queued(t, store, "rt-x")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, engine.ProcessStepResponse(ctx, amb, domain.StepResponse{Status: domain.StatusSucceeded}))
		}()
	}
	wg.Wait()

	exec, err := store.Get(ctx, "rt-x")
	require.NoError(t, err)
	assert.Equal(t, int64(1), exec.Version)
	assert.Len(t, rec.finishes, 1)
}

func TestEngine_HandleError(t *testing.T) {
	rec := &recorder{}
	engine, store := newTestEngine(t, rec)
	ctx := context.Background()
	amb := queued(t, store, "rt-x")

	require.NoError(t, engine.HandleError(ctx, amb, errors.New("boom")))

	exec, err := store.Get(ctx, "rt-x")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusErrored, exec.Status)
	assert.Equal(t, "boom", exec.FailureInfo.Message)
	assert.Equal(t, 1, rec.errors)
}

func TestEngine_HandleError_AfterFinal(t *testing.T) {
	rec := &recorder{}
	engine, store := newTestEngine(t, rec)
	ctx := context.Background()
	amb := queued(t, store, "rt-x")

	require.NoError(t, engine.ProcessStepResponse(ctx, amb, domain.StepResponse{Status: domain.StatusSucceeded}))
	require.NoError(t, engine.HandleError(ctx, amb, errors.New("late")))

	exec, err := store.Get(ctx, "rt-x")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSucceeded, exec.Status)
	assert.Nil(t, exec.FailureInfo)
	assert.Equal(t, 0, rec.errors, "an unrecorded error is not reported")
	assert.Len(t, rec.finishes, 1)
}

func TestEngine_HandleError_MissingNode(t *testing.T) {
	rec := &recorder{}
	engine, _ := newTestEngine(t, rec)

	err := engine.HandleError(context.Background(), pipelineAmbiance(), errors.New("boom"))
	assert.ErrorIs(t, err, domain.ErrNodeExecutionNotFound)
	assert.Equal(t, 0, rec.errors)
}
