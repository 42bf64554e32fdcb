package plan

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"
	"github.com/eino-contrib/jsonschema"

	"github.com/tbxark/mediaplan/types"
)

// Sections lists the document headings in the order they must appear.
var Sections = []string{
	"Executive Summary",
	"Business Overview",
	"Competitor Analysis",
	"Marketing Strategy",
	"Channel Recommendations",
	"Budget Allocation",
	"Creative Direction",
	"Implementation Timeline",
	"Performance Metrics (KPIs)",
}

// Schema returns the JSON schema of MediaPlan.
func Schema() (string, error) {
	s := jsonschema.Reflect(&MediaPlan{})
	s.Title = "Marketing media plan"
	s.Description = "Structured marketing media plan assembled from research and the user's inputs."
	raw, err := sonic.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal media plan schema failed: %w", err)
	}
	return string(raw), nil
}

func buildDocumentPrompt(p *MediaPlan) ([]*schema.Message, error) {
	planJSON, err := p.JSON()
	if err != nil {
		return nil, fmt.Errorf("marshal media plan failed: %w", err)
	}
	planSchema, err := Schema()
	if err != nil {
		return nil, err
	}
	industry := orDefault(p.BusinessOverview.Industry, "the client's")

	var headings strings.Builder
	for i, s := range Sections {
		fmt.Fprintf(&headings, "%d. %s\n", i+1, s)
	}
	system := fmt.Sprintf(`You are a senior marketing strategist with deep expertise in the %s industry.
Write a professional marketing media plan in markdown from the structured plan you are given.
Use exactly these second level headings, in this order:
%s
Be concrete and specific to the industry: name platforms, ad formats and creative approaches that work in it.
Budget Allocation must use the shares of the structured plan. Implementation Timeline must start at the agreed start date and cover the agreed duration with milestones.`,
		industry, strings.TrimRight(headings.String(), "\n"))

	sections := []string{
		"# Plan schema:\n" + planSchema,
		"# Plan JSON:\n" + planJSON,
		planTables(p),
	}
	return []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(strings.Join(sections, "\n\n")),
	}, nil
}

// planTables renders the plan as prompt tables.
func planTables(p *MediaPlan) string {
	s := types.NewConversationState()
	s.BusinessProfile = p.BusinessOverview
	s.CompetitorProfiles = p.CompetitorInsights
	s.RecommendedChannels = p.RecommendedChannels
	s.BudgetAllocation = p.BudgetAllocation
	s.AdCreatives = p.SuggestedAdCreatives
	s.UserInputs = p.UserInputs
	s.Stage = types.StageFinal
	return types.FormatState(s)
}

// hasSections reports whether doc mentions every heading in order.
func hasSections(doc string) bool {
	lower := strings.ToLower(doc)
	offset := 0
	for _, s := range Sections {
		name := strings.ToLower(s)
		if i := strings.Index(name, " ("); i > 0 {
			name = name[:i]
		}
		idx := strings.Index(lower[offset:], name)
		if idx < 0 {
			return false
		}
		offset += idx + len(name)
	}
	return true
}

// FallbackDocument renders a minimal document with every section from the
// plan alone.
func FallbackDocument(p *MediaPlan) string {
	u := p.UserInputs
	business := "your business"
	if p.BusinessOverview.Industry != "" {
		business = "a " + p.BusinessOverview.Industry + " business"
	}
	budget := orDefault(u.Budget, "the agreed budget")
	start := orDefault(u.StartDate, "the agreed start date")
	duration := orDefault(u.CampaignDuration, "the agreed duration")

	var b strings.Builder
	b.WriteString("# Marketing Media Plan\n\n")

	section := func(title string, body string) {
		b.WriteString("## " + title + "\n\n" + strings.TrimSpace(body) + "\n\n")
	}

	section(Sections[0], fmt.Sprintf("A %s marketing plan for %s with a monthly budget of %s, starting %s and running for %s.",
		focusLabel(u.Focus), business, budget, start, duration))

	var overview strings.Builder
	fmt.Fprintf(&overview, "- Industry: %s\n", orDefault(p.BusinessOverview.Industry, "not specified"))
	if len(p.BusinessOverview.Products) > 0 {
		fmt.Fprintf(&overview, "- Products: %s\n", strings.Join(p.BusinessOverview.Products, ", "))
	}
	if p.BusinessOverview.TargetAudience != "" {
		fmt.Fprintf(&overview, "- Target audience: %s\n", p.BusinessOverview.TargetAudience)
	}
	if p.BusinessOverview.ExistingMarketing != "" {
		fmt.Fprintf(&overview, "- Existing marketing: %s\n", p.BusinessOverview.ExistingMarketing)
	}
	section(Sections[1], overview.String())

	var competitors strings.Builder
	for _, c := range p.CompetitorInsights {
		fmt.Fprintf(&competitors, "- %s", c.Name)
		if len(c.AdPlatforms) > 0 {
			fmt.Fprintf(&competitors, ": advertises on %s", strings.Join(c.AdPlatforms, ", "))
		}
		competitors.WriteString("\n")
	}
	section(Sections[2], orDefault(competitors.String(), "No competitor data was available."))

	section(Sections[3], orDefault(p.IndustryStrategy,
		fmt.Sprintf("Concentrate spend on the channels that best reach the target audience with a %s focus, and review results every two weeks.", focusLabel(u.Focus))))

	var channels strings.Builder
	for _, ch := range p.RecommendedChannels {
		channels.WriteString("- " + ch + "\n")
	}
	section(Sections[4], orDefault(channels.String(), "Channels will be selected with you."))

	allocation := types.FormatAllocationSection(p.BudgetAllocation)
	if allocation != "" {
		allocation = strings.TrimPrefix(allocation, "# Budget allocation:\n")
	}
	section(Sections[5], orDefault(allocation, "The budget will be split across the recommended channels."))

	var creatives strings.Builder
	for _, c := range p.SuggestedAdCreatives {
		fmt.Fprintf(&creatives, "- %s (%s): %s\n", c.Platform, c.AdType, c.Creative)
	}
	section(Sections[6], orDefault(creatives.String(), "Creatives will follow the brand's existing voice."))

	section(Sections[7], fmt.Sprintf("- Start: %s\n- Duration: %s\n- First review two weeks after launch\n- Budget rebalancing at the midpoint", start, duration))
	section(Sections[8], "- Reach and impressions\n- Click-through rate\n- Cost per acquisition\n- Conversion rate\n- Return on ad spend")

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func focusLabel(f types.Focus) string {
	if f == "" {
		return "balanced"
	}
	return f.Label()
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
