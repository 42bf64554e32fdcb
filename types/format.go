package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

// KeyValue is one row of a two column prompt table.
type KeyValue struct {
	Key   string
	Value string
}

// FormatKeyValueSection renders rows as a markdown table under a heading.
// Rows with an empty value are skipped; an empty section renders as "".
func FormatKeyValueSection(title string, rows []KeyValue) string {
	var kept []KeyValue
	for _, r := range rows {
		if strings.TrimSpace(r.Value) != "" {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	data := make([][]string, len(kept))
	for i, r := range kept {
		data[i] = []string{r.Key, r.Value}
	}
	return markdownSection(title, []string{"Field", "Value"}, data)
}

// markdownSection renders a titled markdown table.
func markdownSection(title string, header []string, data [][]string) string {
	var buf strings.Builder
	buf.WriteString("# " + title + ":\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header(cells(header)...)
	for _, row := range data {
		_ = table.Append(cells(row)...)
	}
	_ = table.Render()
	return buf.String()
}

func formatBusinessSection(p BusinessProfile) string {
	return FormatKeyValueSection("Business profile", []KeyValue{
		{"Industry", p.Industry},
		{"Products", strings.Join(p.Products, ", ")},
		{"Target audience", p.TargetAudience},
		{"Existing marketing", p.ExistingMarketing},
	})
}

func formatCompetitorsSection(competitors []CompetitorProfile) string {
	if len(competitors) == 0 {
		return ""
	}
	data := make([][]string, 0, len(competitors))
	for _, c := range competitors {
		data = append(data, []string{c.Name, strings.Join(c.AdPlatforms, ", "), c.Audience, c.BudgetEstimate})
	}
	return markdownSection("Competitors", []string{"Name", "Ad platforms", "Audience", "Budget estimate"}, data)
}

func formatInputsSection(u UserInputs) string {
	value := ""
	if u.BudgetValue != nil {
		value = FormatAmount(*u.BudgetValue)
	}
	return FormatKeyValueSection("User inputs", []KeyValue{
		{"Website", u.Website},
		{"Budget", u.Budget},
		{"Budget value", value},
		{"Currency", u.Currency},
		{"Focus", u.Focus.Label()},
		{"Start date", u.StartDate},
		{"Campaign duration", u.CampaignDuration},
		{"Mentioned platforms", strings.Join(u.MentionedPlatforms, ", ")},
		{"Marketing goals", strings.Join(u.MarketingGoals, ", ")},
	})
}

// FormatAllocationSection renders channel shares sorted by descending share.
func FormatAllocationSection(allocation map[string]float64) string {
	if len(allocation) == 0 {
		return ""
	}
	channels := make([]string, 0, len(allocation))
	for ch := range allocation {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(i, j int) bool {
		if allocation[channels[i]] == allocation[channels[j]] {
			return channels[i] < channels[j]
		}
		return allocation[channels[i]] > allocation[channels[j]]
	})
	data := make([][]string, 0, len(channels))
	for _, ch := range channels {
		data = append(data, []string{ch, FormatAmount(allocation[ch])})
	}
	return markdownSection("Budget allocation", []string{"Channel", "Share (%)"}, data)
}

func formatCreativesSection(creatives []AdCreative) string {
	if len(creatives) == 0 {
		return ""
	}
	data := make([][]string, 0, len(creatives))
	for _, c := range creatives {
		data = append(data, []string{c.Platform, c.AdType, c.Creative})
	}
	return markdownSection("Ad creatives", []string{"Platform", "Ad type", "Creative"}, data)
}

func cells(row []string) []any {
	out := make([]any, len(row))
	for i, c := range row {
		out[i] = c
	}
	return out
}

// FormatState renders the accumulated research and inputs as prompt sections.
func FormatState(s *ConversationState) string {
	sections := []string{fmt.Sprintf("# Current stage:\n%s", s.Stage)}
	for _, sec := range []string{
		formatBusinessSection(s.BusinessProfile),
		formatCompetitorsSection(s.CompetitorProfiles),
		formatInputsSection(s.UserInputs),
		FormatAllocationSection(s.BudgetAllocation),
		formatCreativesSection(s.AdCreatives),
	} {
		if sec != "" {
			sections = append(sections, sec)
		}
	}
	if len(s.RecommendedChannels) > 0 {
		sections = append(sections, "# Recommended channels:\n- "+strings.Join(s.RecommendedChannels, "\n- "))
	}
	return strings.Join(sections, "\n\n")
}

// FormatAmount prints integers without a fractional part and trims trailing zeros otherwise.
func FormatAmount(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
