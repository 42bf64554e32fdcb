// Package policy decides the next stage and assistant actions for a turn.
// It performs no I/O: rules read the turn, work on a clone of the state and
// return a Decision for the orchestrator to carry out.
package policy

import (
	"github.com/tbxark/mediaplan/dialogue"
	"github.com/tbxark/mediaplan/interpret"
	"github.com/tbxark/mediaplan/types"
)

type Effect string

const (
	ResearchBusiness    Effect = "research_business"
	ResearchCompetitors Effect = "research_competitors"
	ResetPlan           Effect = "reset_plan"
	AssemblePlan        Effect = "assemble_plan"
)

// Action is either a message to say or an effect to run.
type Action struct {
	Say *dialogue.Directive
	Run Effect
}

func Say(kind dialogue.Kind, kv ...string) Action {
	d := dialogue.Say(kind, kv...)
	return Action{Say: &d}
}

func Run(e Effect) Action {
	return Action{Run: e}
}

type Decision struct {
	Rule    string
	State   *types.ConversationState
	Actions []Action
}

// Turn is the read-only input of a rule.
type Turn struct {
	State     *types.ConversationState
	Utterance string
	// LastAssistant is the latest assistant question before the utterance.
	LastAssistant    types.Message
	HasLastAssistant bool
}

func NewTurn(state *types.ConversationState, utterance string) *Turn {
	last, ok := state.LastAssistant()
	return &Turn{State: state, Utterance: utterance, LastAssistant: last, HasLastAssistant: ok}
}

type Rule struct {
	Name string
	From types.Stage
	When func(t *Turn) bool
	// Category is the interpretation the rule needs, empty for none.
	Category interpret.Category
	Then     func(t *Turn, next *types.ConversationState, answer interpret.Answer) []Action
}

// Decide applies the rule to a clone of the turn state.
func (r Rule) Decide(t *Turn, answer interpret.Answer) Decision {
	next := t.State.Clone()
	actions := r.Then(t, next, answer)
	return Decision{Rule: r.Name, State: next, Actions: actions}
}

type Table struct {
	rules []Rule
}

func NewTable(rules ...Rule) *Table {
	return &Table{rules: rules}
}

// Match returns the first rule whose stage and condition hold.
func (tb *Table) Match(t *Turn) (Rule, bool) {
	for _, r := range tb.rules {
		if r.From != t.State.Stage {
			continue
		}
		if r.When == nil || r.When(t) {
			return r, true
		}
	}
	return Rule{}, false
}

func (tb *Table) Rules() []Rule {
	out := make([]Rule, len(tb.rules))
	copy(out, tb.rules)
	return out
}

// Hints derives the interpreter context from the turn.
func Hints(t *Turn) interpret.Hints {
	u := t.State.UserInputs
	h := interpret.Hints{
		Industry:         t.State.BusinessProfile.Industry,
		Budget:           u.Budget,
		Focus:            u.Focus.Label(),
		StartDate:        u.StartDate,
		CampaignDuration: u.CampaignDuration,
	}
	if t.HasLastAssistant {
		h.LastQuestion = t.LastAssistant.Text
	}
	return h
}
