// Package metrics records conversation metrics with prometheus.
package metrics

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tbxark/mediaplan/agent"
	"github.com/tbxark/mediaplan/internal/logging"
)

const namespace = "mediaplan"

type Collector struct {
	registry *prometheus.Registry

	turns          *prometheus.CounterVec
	turnDuration   *prometheus.HistogramVec
	transitions    *prometheus.CounterVec
	loopGuardTrips *prometheus.CounterVec
	fallbacks      *prometheus.CounterVec
	plans          prometheus.Counter
	planDuration   prometheus.Histogram
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "turns_total",
				Help:      "Total number of conversation turns by handling rule and outcome",
			},
			[]string{"rule", "outcome"},
		),
		turnDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "turn_duration_seconds",
				Help:      "Duration of conversation turns",
				Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_transitions_total",
				Help:      "Total number of stage transitions",
			},
			[]string{"from", "to"},
		),
		loopGuardTrips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loop_guard_trips_total",
				Help:      "Total number of loop guard trips",
			},
			[]string{"guard", "fingerprint"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "interpreter_fallbacks_total",
				Help:      "Total number of interpretations answered by the category default",
			},
			[]string{"category", "reason"},
		),
		plans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_assembled_total",
			Help:      "Total number of assembled media plans",
		}),
		planDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_assembly_duration_seconds",
			Help:      "Duration of plan assembly",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
	c.registry.MustRegister(
		c.turns, c.turnDuration, c.transitions, c.loopGuardTrips,
		c.fallbacks, c.plans, c.planDuration,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Hooks records every orchestrator event and logs it with logger.
func (c *Collector) Hooks(logger *slog.Logger) agent.Hooks {
	if logger == nil {
		logger = logging.NewNop()
	}
	return agent.Hooks{
		OnTurnStart: func(ctx context.Context, e *agent.TurnEvent) {
			logger.Debug("turn_start", "session_id", e.SessionID, "message_id", e.MessageID, "stage", e.Stage)
		},
		OnTurnEnd: func(ctx context.Context, e *agent.TurnEvent) {
			outcome := "ok"
			if e.Err != nil {
				outcome = "error"
			}
			c.turns.WithLabelValues(e.Rule, outcome).Inc()
			c.turnDuration.WithLabelValues(string(e.Stage)).Observe(e.Duration.Seconds())
			logger.Info("turn_end",
				"session_id", e.SessionID,
				"rule", e.Rule,
				"outcome", outcome,
				"duration", e.Duration,
			)
		},
		OnTransition: func(ctx context.Context, e *agent.TransitionEvent) {
			c.transitions.WithLabelValues(string(e.From), string(e.To)).Inc()
		},
		OnLoopGuard: func(ctx context.Context, e *agent.LoopGuardEvent) {
			c.loopGuardTrips.WithLabelValues(e.Trip.Guard, e.Trip.Fingerprint).Inc()
		},
		OnInterpreterFallback: func(ctx context.Context, e *agent.FallbackEvent) {
			c.fallbacks.WithLabelValues(string(e.Category), e.Reason).Inc()
			logger.Debug("interpreter_fallback", "category", e.Category, "reason", e.Reason)
		},
		OnPlanAssembled: func(ctx context.Context, e *agent.PlanEvent) {
			c.plans.Inc()
			c.planDuration.Observe(e.Duration.Seconds())
			logger.Info("plan_assembled", "session_id", e.SessionID, "channels", e.Channels, "duration", e.Duration)
		},
	}
}
