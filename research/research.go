// Package research looks up a business and its competitors on the web and
// condenses the findings with the chat model.
package research

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"

	"github.com/tbxark/mediaplan/structured"
	"github.com/tbxark/mediaplan/types"
)

const (
	businessToolName       = "record_business_profile"
	businessToolDesc       = "Record the profile of the business behind the website"
	competitorToolName     = "record_competitors"
	competitorToolDesc     = "Record the main competitors of the business and the current marketing trends of its industry"
	defaultResultsPerQuery = 5
)

// CompetitorReport is the outcome of competitor and trend research.
type CompetitorReport struct {
	Competitors      []types.CompetitorProfile `json:"competitors" jsonschema:"description=Two to five competitors with their marketing approach"`
	Trends           []string                  `json:"trends" jsonschema:"description=Recent marketing trends and keywords of the industry"`
	IndustryStrategy string                    `json:"industry_strategy" jsonschema:"description=Short marketing strategy summary for businesses in this industry"`
}

type businessRequest struct {
	Website   string
	Business  []Result
	Marketing []Result
}

type competitorRequest struct {
	Industry    string
	Profile     types.BusinessProfile
	Competitors []Result
	Trends      []Result
}

type Researcher struct {
	searcher    Searcher
	perQuery    int
	business    *structured.Chain[*businessRequest, types.BusinessProfile]
	competitors *structured.Chain[*competitorRequest, CompetitorReport]
}

type Option func(*Researcher)

// WithResultsPerQuery sets how many search results feed each prompt.
func WithResultsPerQuery(n int) Option {
	return func(r *Researcher) {
		if n > 0 {
			r.perQuery = n
		}
	}
}

func NewResearcher(chatModel model.ToolCallingChatModel, searcher Searcher, opts ...Option) (*Researcher, error) {
	if searcher == nil {
		searcher = NopSearcher{}
	}
	business, err := structured.NewChain[*businessRequest, types.BusinessProfile](
		chatModel, buildBusinessPrompt, businessToolName, businessToolDesc,
	)
	if err != nil {
		return nil, err
	}
	competitors, err := structured.NewChain[*competitorRequest, CompetitorReport](
		chatModel, buildCompetitorPrompt, competitorToolName, competitorToolDesc,
	)
	if err != nil {
		return nil, err
	}
	r := &Researcher{
		searcher:    searcher,
		perQuery:    defaultResultsPerQuery,
		business:    business,
		competitors: competitors,
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Business builds the profile of the business behind website. Search
// failures are tolerated; a model failure is returned.
func (r *Researcher) Business(ctx context.Context, website string) (types.BusinessProfile, error) {
	req := &businessRequest{
		Website:   website,
		Business:  r.search(ctx, fmt.Sprintf("information about business at %s including industry, products, services and target audience", website)),
		Marketing: r.search(ctx, fmt.Sprintf("marketing strategies and social media presence of business at %s", website)),
	}
	profile, err := r.business.Invoke(ctx, req)
	if err != nil {
		return types.BusinessProfile{}, fmt.Errorf("business research failed: %w", err)
	}
	profile.Industry = strings.TrimSpace(profile.Industry)
	return *profile, nil
}

// Competitors researches the competitors and trends of the industry.
func (r *Researcher) Competitors(ctx context.Context, profile types.BusinessProfile) (*CompetitorReport, error) {
	industry := strings.TrimSpace(profile.Industry)
	if industry == "" {
		return &CompetitorReport{}, nil
	}
	req := &competitorRequest{
		Industry:    industry,
		Profile:     profile,
		Competitors: r.search(ctx, fmt.Sprintf("top competitors in %s industry and their marketing strategies", industry)),
		Trends:      r.search(ctx, fmt.Sprintf("recent trends and keywords in %s marketing", industry)),
	}
	report, err := r.competitors.Invoke(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("competitor research failed: %w", err)
	}
	kept := report.Competitors[:0]
	for _, c := range report.Competitors {
		if strings.TrimSpace(c.Name) != "" {
			kept = append(kept, c)
		}
	}
	report.Competitors = kept
	return report, nil
}

func (r *Researcher) search(ctx context.Context, query string) []Result {
	results, err := r.searcher.Search(ctx, query, r.perQuery)
	if err != nil {
		slog.Debug("web search failed", "query", query, "err", err)
		return nil
	}
	return results
}

func buildBusinessPrompt(ctx context.Context, req *businessRequest) ([]*schema.Message, error) {
	system := fmt.Sprintf(`You are a marketing analyst. Build a profile of the business behind a website from web search results.
Report the industry or niche in a few words, the main products or services, the target audience (demographics and interests) and the existing marketing activity.
When the results say nothing useful, infer what you can from the website address itself.
Call the '%s' tool with the profile.`, businessToolName)
	sections := []string{
		"# Website:\n" + req.Website,
		formatResults("Business search results", req.Business),
		formatResults("Marketing search results", req.Marketing),
	}
	return []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(joinSections(sections)),
	}, nil
}

func buildCompetitorPrompt(ctx context.Context, req *competitorRequest) ([]*schema.Message, error) {
	system := fmt.Sprintf(`You are a marketing analyst. Identify the top competitors of a business in the %s industry and how they market themselves.
Include two to five competitors with their ad platforms, audience and an estimated budget when one can be inferred.
Summarize recent industry trends and give a short strategy recommendation for the industry.
Call the '%s' tool with the result.`, req.Industry, competitorToolName)
	sections := []string{
		types.FormatKeyValueSection("Business profile", []types.KeyValue{
			{Key: "Industry", Value: req.Profile.Industry},
			{Key: "Products", Value: strings.Join(req.Profile.Products, ", ")},
			{Key: "Target audience", Value: req.Profile.TargetAudience},
		}),
		formatResults("Competitor search results", req.Competitors),
		formatResults("Industry trend search results", req.Trends),
	}
	return []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(joinSections(sections)),
	}, nil
}

func formatResults(title string, results []Result) string {
	if len(results) == 0 {
		return "# " + title + ":\nNo results."
	}
	var buf strings.Builder
	buf.WriteString("# " + title + ":\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Title", "URL", "Snippet")
	for _, res := range results {
		_ = table.Append(res.Title, res.URL, res.Snippet)
	}
	_ = table.Render()
	return buf.String()
}

func joinSections(sections []string) string {
	kept := sections[:0]
	for _, s := range sections {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "\n\n")
}
