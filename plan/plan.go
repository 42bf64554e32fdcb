// Package plan assembles the marketing media plan and its document.
package plan

import (
	"maps"
	"slices"

	"github.com/bytedance/sonic"

	"github.com/tbxark/mediaplan/types"
)

// MediaPlan is the structured plan delivered to the user.
type MediaPlan struct {
	BusinessOverview     types.BusinessProfile     `json:"business_overview" jsonschema:"description=Profile of the business"`
	CompetitorInsights   []types.CompetitorProfile `json:"competitor_insights" jsonschema:"description=Competitors and how they advertise"`
	RecommendedChannels  []string                  `json:"recommended_channels" jsonschema:"description=Marketing channels for the campaign"`
	BudgetAllocation     map[string]float64        `json:"budget_allocation" jsonschema:"description=Share of the budget per channel in percent"`
	SuggestedAdCreatives []types.AdCreative        `json:"suggested_ad_creatives" jsonschema:"description=Creative suggestions per platform"`
	IndustryStrategy     string                    `json:"industry_specific_strategy,omitempty" jsonschema:"description=Strategic advice for the industry"`
	UserInputs           types.UserInputs          `json:"user_input" jsonschema:"description=Budget and schedule agreed with the user"`
}

// FromState copies the plan relevant parts of s.
func FromState(s *types.ConversationState) *MediaPlan {
	c := s.Clone()
	return &MediaPlan{
		BusinessOverview:     c.BusinessProfile,
		CompetitorInsights:   c.CompetitorProfiles,
		RecommendedChannels:  c.RecommendedChannels,
		BudgetAllocation:     c.BudgetAllocation,
		SuggestedAdCreatives: c.AdCreatives,
		IndustryStrategy:     c.IndustryStrategy,
		UserInputs:           c.UserInputs,
	}
}

// WriteBack stores the generated parts of p on s.
func (p *MediaPlan) WriteBack(s *types.ConversationState) {
	s.RecommendedChannels = slices.Clone(p.RecommendedChannels)
	s.BudgetAllocation = maps.Clone(p.BudgetAllocation)
	if s.BudgetAllocation == nil {
		s.BudgetAllocation = map[string]float64{}
	}
	s.AdCreatives = slices.Clone(p.SuggestedAdCreatives)
	if p.IndustryStrategy != "" {
		s.IndustryStrategy = p.IndustryStrategy
	}
}

// Incomplete reports whether channels, allocation or creatives still need
// to be generated.
func (p *MediaPlan) Incomplete() bool {
	return len(p.RecommendedChannels) == 0 ||
		len(p.SuggestedAdCreatives) == 0 ||
		allocationMissing(p.BudgetAllocation)
}

// JSON renders p with sorted keys and two space indentation.
func (p *MediaPlan) JSON() (string, error) {
	raw, err := sonic.ConfigStd.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
