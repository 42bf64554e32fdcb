package interpret

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/mediaplan/internal/llmtest"
	"github.com/tbxark/mediaplan/types"
)

func newInterpreter(t *testing.T, m *llmtest.Model, opts ...Option) *Interpreter {
	t.Helper()
	i, err := New(m, opts...)
	require.NoError(t, err)
	return i
}

func tool(c Category) string { return "interpret_" + string(c) }

func TestInterpretUnknownCategory(t *testing.T) {
	i := newInterpreter(t, llmtest.New())
	_, err := i.Interpret(context.Background(), "hi", Hints{}, Category("weather"))
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestInterpretDefaultsOnFailure(t *testing.T) {
	m := llmtest.New()
	for _, c := range Categories() {
		m.On(tool(c), llmtest.Fail())
	}
	var fallbacks []Category
	i := newInterpreter(t, m, WithFallbackObserver(func(c Category, reason string) {
		fallbacks = append(fallbacks, c)
	}))
	ctx := context.Background()

	a, err := i.Interpret(ctx, "hmm", Hints{}, CategoryIndustryConfirmation)
	require.NoError(t, err)
	ic := a.(*IndustryConfirmation)
	assert.True(t, ic.Confirmed)
	assert.Nil(t, ic.CorrectedIndustry)

	a, err = i.Interpret(ctx, "hmm", Hints{}, CategoryBudgetExtraction)
	require.NoError(t, err)
	be := a.(*BudgetExtraction)
	assert.Nil(t, be.Amount)
	assert.Nil(t, be.OriginalFormat)

	a, err = i.Interpret(ctx, "hmm", Hints{}, CategoryMarketingFocus)
	require.NoError(t, err)
	mf := a.(*MarketingFocus)
	assert.Nil(t, mf.PrimaryFocus)
	assert.Zero(t, mf.Confidence)
	assert.Empty(t, mf.MentionedPlatforms)

	a, err = i.Interpret(ctx, "hmm", Hints{}, CategoryInstagramAllocation)
	require.NoError(t, err)
	assert.False(t, a.(*InstagramAllocation).IncreaseInstagram)

	a, err = i.Interpret(ctx, "hmm", Hints{}, CategoryCampaignStartDate)
	require.NoError(t, err)
	sd := a.(*CampaignStartDate)
	assert.False(t, sd.HasDate)
	assert.Empty(t, sd.StartDate())

	a, err = i.Interpret(ctx, "hmm", Hints{}, CategoryFinalConfirmation)
	require.NoError(t, err)
	assert.False(t, a.(*FinalConfirmation).Confirmed)

	a, err = i.Interpret(ctx, "hmm", Hints{}, CategoryPlanModification)
	require.NoError(t, err)
	assert.False(t, a.(*PlanModification).WantsChange())

	assert.Len(t, fallbacks, 7)
}

func TestInterpretBudgetCroreFallback(t *testing.T) {
	m := llmtest.New().On(tool(CategoryBudgetExtraction), llmtest.Fail())
	i := newInterpreter(t, m)

	a, err := i.Interpret(context.Background(), "around 20 crores per month", Hints{}, CategoryBudgetExtraction)
	require.NoError(t, err)
	b, ok := a.(*BudgetExtraction).Budget()
	require.True(t, ok)
	assert.Equal(t, "20 crores", b.Display)
	assert.Equal(t, 200000000.0, b.Value)
	assert.Equal(t, "rupees", b.Currency)
	assert.Equal(t, "₹", b.Symbol)
}

func TestInterpretBudgetLakhFallbackWhenModelReturnsNothing(t *testing.T) {
	m := llmtest.New().On(tool(CategoryBudgetExtraction), llmtest.ToolCall(tool(CategoryBudgetExtraction), `{"amount":null}`))
	var reasons []string
	i := newInterpreter(t, m, WithFallbackObserver(func(c Category, reason string) {
		reasons = append(reasons, reason)
	}))

	a, err := i.Interpret(context.Background(), "5 lakhs", Hints{}, CategoryBudgetExtraction)
	require.NoError(t, err)
	b, ok := a.(*BudgetExtraction).Budget()
	require.True(t, ok)
	assert.Equal(t, "5 lakhs", b.Display)
	assert.Equal(t, 500000.0, b.Value)
	assert.Equal(t, []string{"local_fallback"}, reasons)
}

func TestInterpretBudgetFromModel(t *testing.T) {
	m := llmtest.New().On(tool(CategoryBudgetExtraction), llmtest.ToolCall(tool(CategoryBudgetExtraction),
		`{"amount":10000,"currency":"USD","currency_symbol":"$","period":"monthly","flexible":false,"original_format":"$10000","converted_standard_value":10000}`))
	i := newInterpreter(t, m)

	a, err := i.Interpret(context.Background(), "$10000", Hints{Industry: "Coffee"}, CategoryBudgetExtraction)
	require.NoError(t, err)
	b, ok := a.(*BudgetExtraction).Budget()
	require.True(t, ok)
	assert.Equal(t, "$10000", b.Display)
	assert.Equal(t, 10000.0, b.Value)

	calls := m.Calls()
	require.Len(t, calls, 1)
	prompt := llmtest.LastUser(calls[0].Messages)
	assert.Contains(t, prompt, "Coffee")
	assert.Contains(t, prompt, "# User reply:\n$10000")
}

func TestInterpretParsesPlainTextAnswer(t *testing.T) {
	m := llmtest.New().On(tool(CategoryMarketingFocus), llmtest.Reply("```json\n{\"primary_focus\":\"balanced\",\"confidence\":0.9}\n```"))
	i := newInterpreter(t, m)

	a, err := i.Interpret(context.Background(), "both please", Hints{}, CategoryMarketingFocus)
	require.NoError(t, err)
	mf := a.(*MarketingFocus)
	require.NotNil(t, mf.PrimaryFocus)
	assert.Equal(t, "balanced", *mf.PrimaryFocus)
	assert.InDelta(t, 0.9, mf.Confidence, 1e-9)
}

func TestInterpretMalformedRetriesOnceThenDefaults(t *testing.T) {
	m := llmtest.New().On(tool(CategoryIndustryConfirmation), llmtest.Reply("I think they agree"))
	i := newInterpreter(t, m)

	a, err := i.Interpret(context.Background(), "yep", Hints{}, CategoryIndustryConfirmation)
	require.NoError(t, err)
	assert.True(t, a.(*IndustryConfirmation).Confirmed)
	assert.Equal(t, 2, m.CallCount(tool(CategoryIndustryConfirmation)))
}

func TestFallbackBudget(t *testing.T) {
	cases := []struct {
		in      string
		value   float64
		display string
	}{
		{"20 crores", 200000000, "20 crores"},
		{"2 cr", 20000000, "2 crores"},
		{"1.5 crore", 15000000, "1.5 crores"},
		{"5 lakhs", 500000, "5 lakhs"},
		{"10 lakh", 1000000, "10 lakhs"},
		{"3 lacs", 300000, "3 lakhs"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			be, ok := FallbackBudget(tc.in)
			require.True(t, ok)
			b, ok := be.Budget()
			require.True(t, ok)
			assert.Equal(t, tc.value, b.Value)
			assert.Equal(t, tc.display, b.Display)
		})
	}
	for _, in := range []string{"five thousand dollars", "5 lacrosse teams", "$5000 for Black Friday"} {
		_, ok := FallbackBudget(in)
		assert.False(t, ok, in)
	}
}

func TestResolveBudgetIgnoresEmbeddedMagnitudeLetters(t *testing.T) {
	cases := []struct {
		original string
		amount   float64
		value    float64
		display  string
	}{
		{"$5000 for Black Friday", 5000, 5000, "$5000"},
		{"$5000 on ad placement", 5000, 5000, "$5000"},
		{"$5000, we sponsor lacrosse", 5000, 5000, "$5000"},
		{"$5000 per month", 5000, 5000, "$5000"},
		{"5000 lacs", 5000, 500000000, "5000 lacs"},
		{"3 cr", 3, 30000000, "3 cr"},
	}
	for _, tc := range cases {
		t.Run(tc.original, func(t *testing.T) {
			b, ok := ResolveBudget(ptr(tc.amount), nil, nil, ptr(tc.original), nil)
			require.True(t, ok)
			assert.Equal(t, tc.value, b.Value)
			assert.Equal(t, tc.display, b.Display)
		})
	}
}

func TestResolveBudget(t *testing.T) {
	b, ok := ResolveBudget(ptr(5000.0), nil, nil, nil, nil)
	require.True(t, ok)
	assert.Equal(t, "$5000", b.Display)
	assert.Equal(t, "dollars", b.Currency)

	b, ok = ResolveBudget(ptr(50000.0), nil, ptr("₹"), nil, nil)
	require.True(t, ok)
	assert.Equal(t, "₹50000", b.Display)
	assert.Equal(t, "rupees", b.Currency)

	// converted value is used only when the amount is absent
	b, ok = ResolveBudget(nil, nil, nil, ptr("2 crores"), ptr(20000000.0))
	require.True(t, ok)
	assert.Equal(t, "2 crores", b.Display)
	assert.Equal(t, 20000000.0, b.Value)

	b, ok = ResolveBudget(ptr(2.0), nil, nil, ptr("2 crores"), ptr(999.0))
	require.True(t, ok)
	assert.Equal(t, 20000000.0, b.Value)

	_, ok = ResolveBudget(nil, nil, nil, nil, nil)
	assert.False(t, ok)

	var u types.UserInputs
	b.Apply(&u)
	assert.Equal(t, "2 crores", u.Budget)
	require.NotNil(t, u.BudgetValue)
	assert.Equal(t, 20000000.0, *u.BudgetValue)
}
