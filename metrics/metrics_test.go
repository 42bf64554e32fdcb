package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/mediaplan/agent"
	"github.com/tbxark/mediaplan/interpret"
	"github.com/tbxark/mediaplan/loopguard"
	"github.com/tbxark/mediaplan/types"
)

func TestHooksRecordEvents(t *testing.T) {
	c := New()
	h := c.Hooks(nil)
	ctx := context.Background()

	h.OnTurnEnd(ctx, &agent.TurnEvent{Rule: "budget", Stage: types.StageAnalysis, Duration: time.Second})
	h.OnTurnEnd(ctx, &agent.TurnEvent{Rule: "budget", Stage: types.StageAnalysis, Err: errors.New("boom")})
	h.OnTransition(ctx, &agent.TransitionEvent{From: types.StageAnalysis, To: types.StageRefinement})
	h.OnLoopGuard(ctx, &agent.LoopGuardEvent{Trip: loopguard.Trip{Guard: loopguard.GuardTermination, Fingerprint: "budget"}})
	h.FallbackObserver()(interpret.CategoryBudgetExtraction, "capability_error")
	h.OnPlanAssembled(ctx, &agent.PlanEvent{Channels: 3, Duration: 2 * time.Second})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.turns.WithLabelValues("budget", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.turns.WithLabelValues("budget", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.transitions.WithLabelValues("analysis", "refinement")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.loopGuardTrips.WithLabelValues("termination", "budget")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.fallbacks.WithLabelValues("budget_extraction", "capability_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.plans))
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := New()
	c.Hooks(nil).OnTransition(context.Background(), &agent.TransitionEvent{From: types.StageInitial, To: types.StageDataGathering})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `mediaplan_stage_transitions_total{from="initial",to="data_gathering"} 1`)
}
