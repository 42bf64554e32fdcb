package types

import (
	"fmt"
	"strings"
)

type Stage string

const (
	StageInitial              Stage = "initial"
	StageDataGathering        Stage = "data_gathering"
	StageAnalysis             Stage = "analysis"
	StageRefinement           Stage = "refinement"
	StageFinal                Stage = "final"
	StageAwaitingModification Stage = "awaiting_plan_modification_details"
)

var stages = []Stage{
	StageInitial,
	StageDataGathering,
	StageAnalysis,
	StageRefinement,
	StageFinal,
	StageAwaitingModification,
}

// Stages returns every stage the conversation can be in.
func Stages() []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages)
	return out
}

func (s Stage) Valid() bool {
	for _, st := range stages {
		if s == st {
			return true
		}
	}
	return false
}

func ParseStage(s string) (Stage, error) {
	st := Stage(strings.TrimSpace(s))
	if !st.Valid() {
		return "", fmt.Errorf("unknown stage %q", s)
	}
	return st, nil
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type MessageKind string

const (
	KindChat         MessageKind = "chat"
	KindPlanData     MessageKind = "plan_data"
	KindPlanDocument MessageKind = "plan_document"
	KindError        MessageKind = "error"
)

type Message struct {
	ID     string      `json:"id"`
	Role   Role        `json:"role"`
	Text   string      `json:"text"`
	Stage  Stage       `json:"stage,omitempty"`
	Kind   MessageKind `json:"kind,omitempty"`
	Prompt string      `json:"prompt,omitempty"`
}

// IsChat reports whether the message is part of the conversational exchange
// rather than a generated plan artifact.
func (m Message) IsChat() bool {
	return m.Kind == "" || m.Kind == KindChat
}

type Focus string

const (
	FocusSocialMedia Focus = "social_media"
	FocusSearchAds   Focus = "search_ads"
	FocusBalanced    Focus = "balanced"
)

func (f Focus) Valid() bool {
	switch f {
	case FocusSocialMedia, FocusSearchAds, FocusBalanced:
		return true
	}
	return false
}

// Label is the human readable form used in assistant messages and prompts.
func (f Focus) Label() string {
	switch f {
	case FocusSocialMedia:
		return "social media"
	case FocusSearchAds:
		return "search ads"
	case FocusBalanced:
		return "balanced"
	}
	return string(f)
}

// ParseFocus accepts both enum values and labels ("social media").
func ParseFocus(s string) (Focus, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, " ", "_")
	norm = strings.ReplaceAll(norm, "-", "_")
	f := Focus(norm)
	return f, f.Valid()
}

type UserInputs struct {
	Website            string   `json:"website,omitempty"`
	Budget             string   `json:"budget,omitempty"`
	BudgetValue        *float64 `json:"budget_value,omitempty"`
	Currency           string   `json:"currency,omitempty"`
	CurrencySymbol     string   `json:"currency_symbol,omitempty"`
	Focus              Focus    `json:"focus,omitempty"`
	StartDate          string   `json:"start_date,omitempty"`
	CampaignDuration   string   `json:"campaign_duration,omitempty"`
	MentionedPlatforms []string `json:"mentioned_platforms,omitempty"`
	MarketingGoals     []string `json:"marketing_goals,omitempty"`
}

// ClearNegotiated drops the budget and schedule so they can be collected again.
func (u *UserInputs) ClearNegotiated() {
	u.Budget = ""
	u.BudgetValue = nil
	u.Currency = ""
	u.CurrencySymbol = ""
	u.StartDate = ""
	u.CampaignDuration = ""
}

// MissingNegotiated lists which of budget, start date and duration are unset.
func (u UserInputs) MissingNegotiated() []string {
	var missing []string
	if u.Budget == "" {
		missing = append(missing, "budget")
	}
	if u.StartDate == "" {
		missing = append(missing, "start_date")
	}
	if u.CampaignDuration == "" {
		missing = append(missing, "campaign_duration")
	}
	return missing
}

type BusinessProfile struct {
	Industry          string   `json:"industry" jsonschema:"description=The industry or niche of the business"`
	Products          []string `json:"products" jsonschema:"description=Main products or services"`
	TargetAudience    string   `json:"target_audience" jsonschema:"description=Demographics and interests of the target audience"`
	ExistingMarketing string   `json:"existing_marketing" jsonschema:"description=Current marketing activity such as social presence and ads"`
}

type CompetitorProfile struct {
	Name           string   `json:"competitor_name" jsonschema:"description=Competitor name"`
	AdPlatforms    []string `json:"ad_platforms" jsonschema:"description=Advertising platforms the competitor uses"`
	Audience       string   `json:"audience" jsonschema:"description=Target audience of the competitor"`
	BudgetEstimate string   `json:"budget_estimate" jsonschema:"description=Estimated marketing budget if known"`
}

type AdCreative struct {
	Platform string `json:"platform" jsonschema:"description=Platform the creative runs on"`
	AdType   string `json:"ad_type" jsonschema:"description=Ad format"`
	Creative string `json:"creative" jsonschema:"description=Creative suggestion tailored to the business"`
}
