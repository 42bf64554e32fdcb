package loopguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/mediaplan/types"
)

func stateWith(stage types.Stage, assistant ...string) *types.ConversationState {
	s := types.NewConversationState()
	s.Stage = stage
	for _, text := range assistant {
		s.AppendAssistant(types.Message{Text: text})
	}
	return s
}

const budgetAsk = "Thanks! What is your monthly budget for marketing?"

func TestCountsIgnorePlanArtifacts(t *testing.T) {
	s := stateWith(types.StageAnalysis, budgetAsk, "WHAT IS YOUR MONTHLY BUDGET for ads?")
	s.AppendAssistant(types.Message{Text: "what is your monthly budget", Kind: types.KindPlanDocument})
	s.AppendUser("u1", "what is your monthly budget")
	assert.Equal(t, 2, Counts(s)["budget"])
}

func TestTerminationAfterThreeBudgetQuestions(t *testing.T) {
	g := New(DefaultConfig())

	s := stateWith(types.StageAnalysis, budgetAsk, budgetAsk)
	_, ok := g.CheckTermination(s)
	assert.False(t, ok)

	s.AppendAssistant(types.Message{Text: budgetAsk})
	trip, ok := g.CheckTermination(s)
	require.True(t, ok)
	assert.Equal(t, GuardTermination, trip.Guard)
	assert.Equal(t, "budget", trip.Fingerprint)
	assert.Equal(t, types.StageFinal, trip.To)

	g.Backfill(&s.UserInputs)
	assert.Equal(t, "$5000", s.UserInputs.Budget)
	require.NotNil(t, s.UserInputs.BudgetValue)
	assert.Equal(t, 5000.0, *s.UserInputs.BudgetValue)
	assert.Equal(t, "$", s.UserInputs.CurrencySymbol)
	assert.Equal(t, types.FocusSocialMedia, s.UserInputs.Focus)

	s.Stage = types.StageFinal
	_, ok = g.CheckTermination(s)
	assert.False(t, ok)
}

func TestBudgetFingerprintMatchesBothWordings(t *testing.T) {
	assert.True(t, BudgetQuestion.Matches("What is your budget?"))
	assert.True(t, BudgetQuestion.Matches(budgetAsk))
	assert.False(t, BudgetQuestion.Matches("Your budget is $5000."))

	g := New(DefaultConfig())
	s := stateWith(types.StageAnalysis, "What is your budget?", budgetAsk, "So, what is your budget?")
	assert.Equal(t, 3, Counts(s)["budget"])
	trip, ok := g.CheckTermination(s)
	require.True(t, ok)
	assert.Equal(t, "budget", trip.Fingerprint)
}

func TestBackfillKeepsNegotiatedValues(t *testing.T) {
	g := New(DefaultConfig())
	u := types.UserInputs{Budget: "20 crores", Focus: types.FocusSearchAds}
	g.Backfill(&u)
	assert.Equal(t, "20 crores", u.Budget)
	assert.Equal(t, types.FocusSearchAds, u.Focus)
}

func TestProgressionStepsOneStage(t *testing.T) {
	g := New(Config{TerminateAfter: 10, AdvanceAfter: 3})
	focus := "Would you like to focus more on social media or search ads?"

	s := stateWith(types.StageAnalysis, focus, focus, focus)
	_, ok := g.CheckProgress(s)
	assert.False(t, ok)
	_, ok = g.CheckTermination(s)
	assert.False(t, ok)

	s.AppendAssistant(types.Message{Text: focus})
	trip, ok := g.CheckProgress(s)
	require.True(t, ok)
	assert.Equal(t, types.StageAnalysis, trip.From)
	assert.Equal(t, types.StageRefinement, trip.To)

	s.Stage = types.StageInitial
	_, ok = g.CheckProgress(s)
	assert.False(t, ok)
}

func TestClosingPhrase(t *testing.T) {
	g := New(DefaultConfig())
	s := stateWith(types.StageRefinement)
	trip, ok := g.CheckClosing(s, "This looks good, let's finish")
	require.True(t, ok)
	assert.Equal(t, types.StageFinal, trip.To)

	_, ok = g.CheckClosing(s, "yes, generate")
	assert.False(t, ok)

	for _, st := range []types.Stage{types.StageFinal, types.StageAwaitingModification} {
		s.Stage = st
		_, ok = g.CheckClosing(s, "I'm satisfied")
		assert.False(t, ok, st)
	}
}

func TestNewFillsDefaults(t *testing.T) {
	g := New(Config{DefaultFocus: "tv"})
	assert.Equal(t, DefaultConfig(), g.Config())
}
