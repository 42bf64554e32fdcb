package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tbxark/mediaplan/dialogue"
	"github.com/tbxark/mediaplan/internal/logging"
	"github.com/tbxark/mediaplan/interpret"
	"github.com/tbxark/mediaplan/loopguard"
	"github.com/tbxark/mediaplan/plan"
	"github.com/tbxark/mediaplan/policy"
	"github.com/tbxark/mediaplan/research"
	"github.com/tbxark/mediaplan/session"
	"github.com/tbxark/mediaplan/types"
)

const structuredPlanID = "final-plan-structured"

type Interpreter interface {
	Interpret(ctx context.Context, utterance string, hints interpret.Hints, category interpret.Category) (interpret.Answer, error)
}

type Researcher interface {
	Business(ctx context.Context, website string) (types.BusinessProfile, error)
	Competitors(ctx context.Context, profile types.BusinessProfile) (*research.CompetitorReport, error)
}

type Assembler interface {
	Assemble(ctx context.Context, s *types.ConversationState) (*plan.MediaPlan, string)
}

var (
	_ Interpreter = (*interpret.Interpreter)(nil)
	_ Researcher  = (*research.Researcher)(nil)
	_ Assembler   = (*plan.Assembler)(nil)
)

// Inbound is one user message. ID deduplicates re-deliveries.
type Inbound struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Orchestrator runs one conversation turn: loop guard, policy, at most one
// interpretation, then the decided actions.
type Orchestrator struct {
	interpreter Interpreter
	researcher  Researcher
	assembler   Assembler

	table     *policy.Table
	guard     *loopguard.Guard
	generator dialogue.Generator
	hooks     Hooks
	logger    *slog.Logger
}

type Option func(*Orchestrator)

func WithDialogueGenerator(g dialogue.Generator) Option {
	return func(o *Orchestrator) {
		if g != nil {
			o.generator = g
		}
	}
}

func WithPolicyTable(t *policy.Table) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.table = t
		}
	}
}

func WithLoopGuard(cfg loopguard.Config) Option {
	return func(o *Orchestrator) {
		o.guard = loopguard.New(cfg)
	}
}

func WithHooks(h Hooks) Option {
	return func(o *Orchestrator) {
		o.hooks = h
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func NewOrchestrator(interpreter Interpreter, researcher Researcher, assembler Assembler, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		interpreter: interpreter,
		researcher:  researcher,
		assembler:   assembler,
		table:       policy.DefaultTable(),
		guard:       loopguard.New(loopguard.DefaultConfig()),
		generator:   &dialogue.LocalDialogueGenerator{},
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewState returns a fresh conversation seeded with the welcome message.
func (o *Orchestrator) NewState(ctx context.Context) *types.ConversationState {
	s := types.NewConversationState()
	o.say(ctx, s, dialogue.Say(dialogue.Welcome))
	return s
}

// OnMessage applies in to state and returns the next state. It never
// fails: a faulty turn is rolled back and answered with an apology. A
// message id already present in state leaves it unchanged.
func (o *Orchestrator) OnMessage(ctx context.Context, state *types.ConversationState, in Inbound) *types.ConversationState {
	if state == nil {
		state = types.NewConversationState()
	}
	snapshot := state.Clone()
	snapshot.Normalize()

	if in.ID == "" {
		in.ID = types.NewID()
	}
	if snapshot.HasMessage(in.ID) {
		o.logger.Debug("duplicate message ignored", "message_id", in.ID)
		return state
	}

	sessionID, _ := session.SessionIDFromContext(ctx)
	start := time.Now()
	event := &TurnEvent{SessionID: sessionID, MessageID: in.ID, Stage: snapshot.Stage}
	fire(ctx, o.hooks.OnTurnStart, event)

	next, cause, err := o.runTurn(ctx, snapshot.Clone(), in)
	if err != nil {
		o.logger.Error("turn failed, state rolled back", "session_id", sessionID, "message_id", in.ID, "stage", snapshot.Stage, "err", err)
		next = snapshot.Clone()
		o.apologize(next)
	} else if next.Stage != snapshot.Stage {
		fire(ctx, o.hooks.OnTransition, &TransitionEvent{SessionID: sessionID, From: snapshot.Stage, To: next.Stage, Cause: cause})
		o.logger.Info("stage changed", "session_id", sessionID, "from", snapshot.Stage, "to", next.Stage, "cause", cause)
	}

	event.Rule = cause
	event.Duration = time.Since(start)
	event.Err = err
	fire(ctx, o.hooks.OnTurnEnd, event)
	return next
}

func (o *Orchestrator) runTurn(ctx context.Context, s *types.ConversationState, in Inbound) (out *types.ConversationState, cause string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newError(ErrorPanic, "turn panicked", fmt.Errorf("%v", r))
		}
	}()

	s.AppendUser(in.ID, in.Text)

	if trip, ok := o.checkGuards(s, in.Text); ok {
		sessionID, _ := session.SessionIDFromContext(ctx)
		fire(ctx, o.hooks.OnLoopGuard, &LoopGuardEvent{SessionID: sessionID, Trip: trip})
		o.logger.Warn("loop guard tripped", "guard", trip.Guard, "fingerprint", trip.Fingerprint, "count", trip.Count, "from", trip.From, "to", trip.To)
		if err := o.applyTrip(ctx, s, trip); err != nil {
			return nil, trip.Guard, err
		}
		return s, trip.Guard, nil
	}

	turn := policy.NewTurn(s, in.Text)
	rule, ok := o.table.Match(turn)
	if !ok {
		return nil, "", newError(ErrorNoRule, "no rule for stage "+string(s.Stage), nil)
	}

	var answer interpret.Answer
	if rule.Category != "" {
		answer, err = o.interpreter.Interpret(ctx, in.Text, policy.Hints(turn), rule.Category)
		if err != nil {
			return nil, rule.Name, newError(ErrorInterpret, string(rule.Category), err)
		}
	}

	decision := rule.Decide(turn, answer)
	slog.Debug("policy decided", "rule", decision.Rule, "stage", decision.State.Stage, "actions", len(decision.Actions))
	if err := o.execute(ctx, decision.State, decision.Actions); err != nil {
		return nil, rule.Name, err
	}
	return decision.State, rule.Name, nil
}

// checkGuards runs the loop guards in precedence order.
func (o *Orchestrator) checkGuards(s *types.ConversationState, utterance string) (loopguard.Trip, bool) {
	if trip, ok := o.guard.CheckTermination(s); ok {
		return trip, true
	}
	if trip, ok := o.guard.CheckProgress(s); ok {
		return trip, true
	}
	return o.guard.CheckClosing(s, utterance)
}

func (o *Orchestrator) applyTrip(ctx context.Context, s *types.ConversationState, trip loopguard.Trip) error {
	switch {
	case trip.Guard == loopguard.GuardTermination:
		o.guard.Backfill(&s.UserInputs)
		return o.assemble(ctx, s)
	case trip.To == types.StageAnalysis:
		s.Stage = types.StageAnalysis
		o.say(ctx, s, dialogue.Say(dialogue.AskBudget))
	case trip.To == types.StageRefinement:
		o.guard.BackfillBudget(&s.UserInputs)
		s.Stage = types.StageRefinement
		o.say(ctx, s, dialogue.Say(dialogue.AskStartDate))
	default:
		return o.assemble(ctx, s)
	}
	return nil
}

// execute carries out actions in order. An effect may replace the next
// message, for example when research finds no industry to confirm.
func (o *Orchestrator) execute(ctx context.Context, s *types.ConversationState, actions []policy.Action) error {
	var replacement *dialogue.Directive
	for _, a := range actions {
		switch {
		case a.Run != "":
			d, err := o.run(ctx, s, a.Run)
			if err != nil {
				return err
			}
			if d != nil {
				replacement = d
			}
		case a.Say != nil:
			d := *a.Say
			if replacement != nil {
				d, replacement = *replacement, nil
			}
			o.say(ctx, s, d)
		}
	}
	if replacement != nil {
		o.say(ctx, s, *replacement)
	}
	return nil
}

func (o *Orchestrator) run(ctx context.Context, s *types.ConversationState, effect policy.Effect) (*dialogue.Directive, error) {
	switch effect {
	case policy.ResearchBusiness:
		profile, err := o.researcher.Business(ctx, s.UserInputs.Website)
		if err != nil {
			o.logger.Warn("business research failed", "website", s.UserInputs.Website, "err", err)
			d := dialogue.Say(dialogue.ResearchFailed)
			return &d, nil
		}
		s.BusinessProfile = profile
		if strings.TrimSpace(profile.Industry) == "" {
			d := dialogue.Say(dialogue.AskIndustry)
			return &d, nil
		}
	case policy.ResearchCompetitors:
		report, err := o.researcher.Competitors(ctx, s.BusinessProfile)
		if err != nil {
			o.logger.Warn("competitor research failed", "industry", s.BusinessProfile.Industry, "err", err)
			return nil, nil
		}
		s.CompetitorProfiles = report.Competitors
		if report.IndustryStrategy != "" {
			s.IndustryStrategy = report.IndustryStrategy
		}
	case policy.ResetPlan:
		s.RecommendedChannels = nil
		s.BudgetAllocation = map[string]float64{}
		s.AdCreatives = nil
	case policy.AssemblePlan:
		return nil, o.assemble(ctx, s)
	default:
		return nil, fmt.Errorf("unknown effect %q", effect)
	}
	return nil, nil
}

// assemble builds the plan and delivers it as a structured message, a
// document and a follow-up question. The stage becomes final.
func (o *Orchestrator) assemble(ctx context.Context, s *types.ConversationState) error {
	start := time.Now()
	s.Stage = types.StageFinal
	p, doc := o.assembler.Assemble(ctx, s)
	if p == nil {
		o.say(ctx, s, dialogue.Say(dialogue.PlanFailed))
		return nil
	}
	data, err := p.JSON()
	if err != nil {
		return newError(ErrorPlan, "encode plan", err)
	}
	p.WriteBack(s)

	s.AppendAssistant(types.Message{ID: s.UniqueID(structuredPlanID), Text: data, Kind: types.KindPlanData})
	s.AppendAssistant(types.Message{Text: doc, Kind: types.KindPlanDocument})
	o.say(ctx, s, dialogue.Say(dialogue.PlanDelivered))

	sessionID, _ := session.SessionIDFromContext(ctx)
	fire(ctx, o.hooks.OnPlanAssembled, &PlanEvent{SessionID: sessionID, Channels: len(p.BudgetAllocation), Duration: time.Since(start)})
	return nil
}

// say renders d and appends it. A generator failure falls back to the
// canned text.
func (o *Orchestrator) say(ctx context.Context, s *types.ConversationState, d dialogue.Directive) {
	text, err := o.generator.GenerateDialogue(ctx, d, s)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			o.logger.Debug("dialogue generation failed, using template", "kind", d.Kind, "err", err)
		}
		text = dialogue.Render(d, s)
	}
	s.AppendAssistant(types.Message{Text: text, Prompt: string(d.Kind)})
}

func (o *Orchestrator) apologize(s *types.ConversationState) {
	d := dialogue.Say(dialogue.Apology)
	s.AppendAssistant(types.Message{Text: dialogue.Render(d, s), Kind: types.KindError, Prompt: string(d.Kind)})
}
