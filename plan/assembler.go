package plan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/mediaplan/patch"
	"github.com/tbxark/mediaplan/structured"
	"github.com/tbxark/mediaplan/types"
)

const (
	recommendToolName = "recommend_media_mix"
	recommendToolDesc = "Recommend marketing channels, a budget split and ad creatives for the business"
)

// ChannelShare is one entry of a generated budget split.
type ChannelShare struct {
	Channel    string  `json:"channel" jsonschema:"description=Channel name such as Instagram Ads or Google Search Ads"`
	Percentage float64 `json:"percentage" jsonschema:"description=Share of the budget in percent"`
}

// Recommendations is what the model proposes for the missing plan parts.
type Recommendations struct {
	RecommendedChannels []string           `json:"recommended_channels" jsonschema:"description=Channels suited to this industry and focus"`
	BudgetAllocation    []ChannelShare     `json:"budget_allocation" jsonschema:"description=Budget split over the recommended channels adding up to 100 percent"`
	AdCreatives         []types.AdCreative `json:"ad_creatives" jsonschema:"description=One or more creative ideas per channel"`
	IndustryStrategy    string             `json:"industry_specific_strategy" jsonschema:"description=Specific strategic advice for this industry"`
}

// fillPaths are the plan paths generation may populate.
var fillPaths = patch.AllowedPaths(
	"/recommended_channels",
	"/budget_allocation",
	"/budget_allocation/*",
	"/suggested_ad_creatives",
	"/industry_specific_strategy",
)

// Assembler builds the final plan. It never fails: every generation
// problem degrades to local defaults.
type Assembler struct {
	chatModel model.ToolCallingChatModel
	recommend *structured.Chain[*MediaPlan, Recommendations]
}

func NewAssembler(chatModel model.ToolCallingChatModel) (*Assembler, error) {
	recommend, err := structured.NewChain[*MediaPlan, Recommendations](
		chatModel, buildRecommendPrompt, recommendToolName, recommendToolDesc,
	)
	if err != nil {
		return nil, err
	}
	return &Assembler{chatModel: chatModel, recommend: recommend}, nil
}

// Assemble returns the plan for s and its markdown document. s is not modified.
func (a *Assembler) Assemble(ctx context.Context, s *types.ConversationState) (*MediaPlan, string) {
	p := FromState(s)
	p.BudgetAllocation = Cap(p.BudgetAllocation)
	if p.Incomplete() {
		rec, err := a.recommend.Invoke(ctx, p)
		if err != nil {
			slog.Debug("plan recommendation failed, using defaults", "err", err)
			rec = DefaultRecommendations(p.UserInputs.Focus)
		}
		p = Merge(p, rec)
	}
	return p, a.document(ctx, p)
}

// Merge fills the empty parts of p from rec without touching populated ones.
func Merge(p *MediaPlan, rec *Recommendations) *MediaPlan {
	generated := map[string]float64{}
	for _, share := range rec.BudgetAllocation {
		name := strings.TrimSpace(share.Channel)
		if name != "" && share.Percentage > 0 {
			generated[name] += share.Percentage
		}
	}
	if len(generated) == 0 {
		for _, ch := range rec.RecommendedChannels {
			generated[ch] = 1
		}
	}

	candidate := &MediaPlan{
		RecommendedChannels:  rec.RecommendedChannels,
		BudgetAllocation:     Complete(p.BudgetAllocation, generated),
		SuggestedAdCreatives: rec.AdCreatives,
		IndustryStrategy:     strings.TrimSpace(rec.IndustryStrategy),
	}
	merged, ops, err := patch.Fill(p, candidate, fillPaths)
	if err != nil {
		slog.Debug("plan merge failed", "err", err)
		return p
	}
	slog.Debug("plan gaps filled", "ops", len(ops))
	return merged
}

func (a *Assembler) document(ctx context.Context, p *MediaPlan) string {
	msgs, err := buildDocumentPrompt(p)
	if err != nil {
		slog.Debug("build plan document prompt failed", "err", err)
		return FallbackDocument(p)
	}
	resp, err := a.chatModel.Generate(ctx, msgs)
	if err != nil {
		slog.Debug("plan document generation failed", "err", err)
		return FallbackDocument(p)
	}
	doc := strings.TrimSpace(structured.StripCodeFences(resp.Content))
	if doc == "" || !hasSections(doc) {
		slog.Debug("plan document incomplete, using fallback", "length", len(doc))
		return FallbackDocument(p)
	}
	return doc
}

func buildRecommendPrompt(ctx context.Context, p *MediaPlan) ([]*schema.Message, error) {
	industry := orDefault(p.BusinessOverview.Industry, "the client's")
	system := fmt.Sprintf(`You are a marketing strategist with deep knowledge of the %s industry.
Recommend the marketing channels, a budget split adding up to 100 percent and ad creatives for the business below.
Follow the user's focus: social media favours social platforms, search ads favours search engines, balanced mixes both.
Keep any budget shares the user already chose and split the rest.
Make every recommendation specific to the industry, never generic.
Call the '%s' tool with the result.`, industry, recommendToolName)
	return []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(planTables(p)),
	}, nil
}

// DefaultRecommendations is used when the model cannot recommend a mix.
func DefaultRecommendations(focus types.Focus) *Recommendations {
	var shares []ChannelShare
	switch focus {
	case types.FocusSocialMedia:
		shares = []ChannelShare{{"Instagram Ads", 40}, {"Facebook Ads", 35}, {"Google Search Ads", 25}}
	case types.FocusSearchAds:
		shares = []ChannelShare{{"Google Search Ads", 60}, {"Microsoft Bing Ads", 20}, {"Instagram Ads", 20}}
	default:
		shares = []ChannelShare{{"Google Search Ads", 40}, {"Instagram Ads", 30}, {"Facebook Ads", 30}}
	}
	rec := &Recommendations{BudgetAllocation: shares}
	for _, s := range shares {
		rec.RecommendedChannels = append(rec.RecommendedChannels, s.Channel)
		rec.AdCreatives = append(rec.AdCreatives, types.AdCreative{
			Platform: s.Channel,
			AdType:   defaultAdType(s.Channel),
			Creative: "Showcase the main product with a clear call to action aimed at the target audience.",
		})
	}
	return rec
}

func defaultAdType(channel string) string {
	lower := strings.ToLower(channel)
	switch {
	case strings.Contains(lower, "instagram"):
		return "Reels and carousel"
	case strings.Contains(lower, "facebook"):
		return "Feed image"
	default:
		return "Responsive search"
	}
}
