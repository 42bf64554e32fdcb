package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStage(t *testing.T) {
	for _, st := range Stages() {
		got, err := ParseStage(string(st))
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}
	_, err := ParseStage("done")
	assert.Error(t, err)
	assert.Len(t, Stages(), 6)
}

func TestParseFocus(t *testing.T) {
	f, ok := ParseFocus("Social Media")
	assert.True(t, ok)
	assert.Equal(t, FocusSocialMedia, f)
	assert.Equal(t, "social media", f.Label())

	f, ok = ParseFocus("search-ads")
	assert.True(t, ok)
	assert.Equal(t, FocusSearchAds, f)

	_, ok = ParseFocus("tv")
	assert.False(t, ok)
}

func TestCloneIsDeep(t *testing.T) {
	v := 100.0
	s := NewConversationState()
	s.AppendUser("1", "hi")
	s.BudgetAllocation["Google Ads"] = 60
	s.UserInputs.BudgetValue = &v
	s.CompetitorProfiles = []CompetitorProfile{{Name: "Acme", AdPlatforms: []string{"Meta"}}}

	c := s.Clone()
	c.Messages[0].Text = "changed"
	c.BudgetAllocation["Google Ads"] = 10
	*c.UserInputs.BudgetValue = 5
	c.CompetitorProfiles[0].AdPlatforms[0] = "TikTok"

	assert.Equal(t, "hi", s.Messages[0].Text)
	assert.Equal(t, 60.0, s.BudgetAllocation["Google Ads"])
	assert.Equal(t, 100.0, *s.UserInputs.BudgetValue)
	assert.Equal(t, "Meta", s.CompetitorProfiles[0].AdPlatforms[0])
}

func TestLastAssistantSkipsPlanArtifacts(t *testing.T) {
	s := NewConversationState()
	s.AppendAssistant(Message{Text: "question", Prompt: "ask_budget"})
	s.AppendAssistant(Message{Text: "{}", Kind: KindPlanData})
	last, ok := s.LastAssistant()
	require.True(t, ok)
	assert.Equal(t, "question", last.Text)
	assert.Equal(t, 1, s.CountPrompt("ask_budget"))
}

func TestUniqueID(t *testing.T) {
	s := NewConversationState()
	assert.Equal(t, "plan", s.UniqueID("plan"))
	s.AppendAssistant(Message{ID: "plan"})
	assert.Equal(t, "plan-2", s.UniqueID("plan"))
}

func TestUserInputsNegotiated(t *testing.T) {
	u := UserInputs{Budget: "$10", StartDate: "now", CampaignDuration: "1 month", Currency: "USD"}
	assert.Empty(t, u.MissingNegotiated())
	u.ClearNegotiated()
	assert.Equal(t, []string{"budget", "start_date", "campaign_duration"}, u.MissingNegotiated())
	assert.Empty(t, u.Currency)
}

func TestFormatState(t *testing.T) {
	s := NewConversationState()
	s.BusinessProfile.Industry = "Coffee"
	s.BudgetAllocation = map[string]float64{"Instagram Ads": 70, "Google Ads": 30}
	out := FormatState(s)
	assert.Contains(t, out, "# Business profile:")
	assert.Contains(t, out, "Coffee")
	assert.Less(t, strings.Index(out, "Instagram Ads"), strings.Index(out, "Google Ads"))
	assert.Equal(t, "12.5", FormatAmount(12.5))
	assert.Equal(t, "10000", FormatAmount(10000))
}
