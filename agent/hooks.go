package agent

import (
	"context"
	"time"

	"github.com/tbxark/mediaplan/interpret"
	"github.com/tbxark/mediaplan/loopguard"
	"github.com/tbxark/mediaplan/types"
)

// TurnEvent describes one inbound message.
type TurnEvent struct {
	SessionID string
	MessageID string
	Stage     types.Stage
	// Rule is the policy rule or loop guard that handled the turn. Set on end.
	Rule     string
	Duration time.Duration
	Err      error
}

type TransitionEvent struct {
	SessionID string
	From      types.Stage
	To        types.Stage
	Cause     string
}

type LoopGuardEvent struct {
	SessionID string
	Trip      loopguard.Trip
}

type FallbackEvent struct {
	Category interpret.Category
	Reason   string
}

type PlanEvent struct {
	SessionID string
	Channels  int
	Duration  time.Duration
}

// Hooks are optional callbacks fired by the orchestrator.
type Hooks struct {
	OnTurnStart           func(context.Context, *TurnEvent)
	OnTurnEnd             func(context.Context, *TurnEvent)
	OnTransition          func(context.Context, *TransitionEvent)
	OnLoopGuard           func(context.Context, *LoopGuardEvent)
	OnInterpreterFallback func(context.Context, *FallbackEvent)
	OnPlanAssembled       func(context.Context, *PlanEvent)
}

// ChainHooks calls every set callback of hooks in order.
func ChainHooks(hooks ...Hooks) Hooks {
	var out Hooks
	for _, h := range hooks {
		out.OnTurnStart = chain(out.OnTurnStart, h.OnTurnStart)
		out.OnTurnEnd = chain(out.OnTurnEnd, h.OnTurnEnd)
		out.OnTransition = chain(out.OnTransition, h.OnTransition)
		out.OnLoopGuard = chain(out.OnLoopGuard, h.OnLoopGuard)
		out.OnInterpreterFallback = chain(out.OnInterpreterFallback, h.OnInterpreterFallback)
		out.OnPlanAssembled = chain(out.OnPlanAssembled, h.OnPlanAssembled)
	}
	return out
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}

// FallbackObserver adapts OnInterpreterFallback for interpret.WithFallbackObserver.
func (h Hooks) FallbackObserver() interpret.FallbackObserver {
	return func(category interpret.Category, reason string) {
		if h.OnInterpreterFallback != nil {
			h.OnInterpreterFallback(context.Background(), &FallbackEvent{Category: category, Reason: reason})
		}
	}
}

func fire[E any](ctx context.Context, fn func(context.Context, *E), e *E) {
	if fn != nil {
		fn(ctx, e)
	}
}
