package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/facilitator/pkg/domain"
	"github.com/aretw0/facilitator/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooks_RecordMetrics(t *testing.T) {
	metrics := observability.NewMetrics()
	hooks := observability.Hooks(nil, metrics)
	ctx := context.Background()

	hooks.OnCheck(ctx, &domain.CheckEvent{Checker: "depth", Check: domain.Proceed()})
	hooks.OnCheck(ctx, &domain.CheckEvent{Checker: "when_condition", Check: domain.Veto("")})
	hooks.OnNodeStart(ctx, &domain.NodeEvent{})
	hooks.OnNodeFinish(ctx, &domain.NodeEvent{Status: domain.StatusSkipped})
	hooks.OnNodeFinish(ctx, &domain.NodeEvent{Status: domain.StatusSkipped})
	hooks.OnError(ctx, &domain.ErrorEvent{})

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Checks.WithLabelValues("depth", observability.VerdictProceed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Checks.WithLabelValues("when_condition", observability.VerdictVeto)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.NodeStarts))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.NodeFinishes.WithLabelValues("SKIPPED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Errors))
}

func TestHooks_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.Hooks(logger, nil)

	hooks.OnNodeFinish(context.Background(), &domain.NodeEvent{
		EventBase: domain.EventBase{NodeExecutionID: "rt-1"},
		Status:    domain.StatusErrored,
	})

	assert.Contains(t, buf.String(), "node_finish")
	assert.Contains(t, buf.String(), "node_execution_id=rt-1")
	assert.Contains(t, buf.String(), "status=ERRORED")
}

func TestCompose(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnError: func(context.Context, *domain.ErrorEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{
		OnError:     func(context.Context, *domain.ErrorEvent) { calls = append(calls, "b") },
		OnNodeStart: func(context.Context, *domain.NodeEvent) { calls = append(calls, "start") },
	}

	hooks := observability.Compose(a, domain.LifecycleHooks{}, b)
	hooks.OnError(context.Background(), &domain.ErrorEvent{})
	hooks.OnNodeStart(context.Background(), &domain.NodeEvent{})

	assert.Equal(t, []string{"a", "b", "start"}, calls)
	assert.Nil(t, hooks.OnCheck)
}

func TestMetrics_Handler(t *testing.T) {
	metrics := observability.NewMetrics()
	metrics.ObserveEvaluation(2 * time.Millisecond)
	metrics.ObserveCheck("depth", domain.Veto("too deep"))

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "facilitator_expression_evaluation_seconds_count 1")
	assert.Contains(t, body, `facilitator_checks_total{checker="depth",verdict="veto"} 1`)
}
