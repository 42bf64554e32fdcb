package policy

import (
	"slices"
	"strings"

	"github.com/tbxark/mediaplan/dialogue"
	"github.com/tbxark/mediaplan/intent"
	"github.com/tbxark/mediaplan/interpret"
	"github.com/tbxark/mediaplan/types"
)

const (
	InstagramChannel          = "Instagram Ads"
	defaultInstagramShare     = 50
	defaultAlternativeShare   = 40
	minFocusConfidence        = 0.5
	startDateAsksBeforeAssume = 2
	assumedStartDate          = "next month"
)

var startDateAsks = []string{
	string(dialogue.AskStartDate),
	string(dialogue.StartDateAffirmative),
	string(dialogue.AskStartDateAgain),
}

// DefaultTable is the marketing plan conversation. Order matters: the
// first matching rule wins.
func DefaultTable() *Table {
	return NewTable(
		Rule{
			Name: "website_received",
			From: types.StageInitial,
			When: func(t *Turn) bool { return intent.ContainsURL(t.Utterance) },
			Then: func(t *Turn, next *types.ConversationState, _ interpret.Answer) []Action {
				next.UserInputs.Website = intent.ExtractURL(t.Utterance)
				next.Stage = types.StageDataGathering
				return []Action{Run(ResearchBusiness), Say(dialogue.ConfirmIndustry)}
			},
		},
		Rule{
			Name: "greeting",
			From: types.StageInitial,
			When: func(t *Turn) bool { return intent.IsGreeting(t.Utterance) },
			Then: func(*Turn, *types.ConversationState, interpret.Answer) []Action {
				return []Action{Say(dialogue.AskURL)}
			},
		},
		Rule{
			Name: "website_missing",
			From: types.StageInitial,
			Then: func(*Turn, *types.ConversationState, interpret.Answer) []Action {
				return []Action{Say(dialogue.AskValidURL)}
			},
		},
		Rule{
			Name:     "industry_confirmation",
			From:     types.StageDataGathering,
			Category: interpret.CategoryIndustryConfirmation,
			Then:     confirmIndustry,
		},
		Rule{
			Name:     "budget",
			From:     types.StageAnalysis,
			When:     func(t *Turn) bool { return t.State.UserInputs.Budget == "" },
			Category: interpret.CategoryBudgetExtraction,
			Then:     collectBudget,
		},
		Rule{
			Name:     "marketing_focus",
			From:     types.StageAnalysis,
			When:     func(t *Turn) bool { return t.State.UserInputs.Focus == "" },
			Category: interpret.CategoryMarketingFocus,
			Then:     collectFocus,
		},
		Rule{
			Name: "analysis_complete",
			From: types.StageAnalysis,
			Then: func(_ *Turn, next *types.ConversationState, _ interpret.Answer) []Action {
				next.Stage = types.StageRefinement
				return []Action{Say(dialogue.AskStartDate)}
			},
		},
		Rule{
			Name: "instagram_allocation",
			From: types.StageRefinement,
			When: func(t *Turn) bool {
				u := t.State.UserInputs
				return u.Focus == types.FocusSocialMedia && u.StartDate == "" &&
					t.HasLastAssistant && dialogue.AsksInstagram(t.LastAssistant)
			},
			Category: interpret.CategoryInstagramAllocation,
			Then:     allocateInstagram,
		},
		Rule{
			Name:     "start_date",
			From:     types.StageRefinement,
			When:     func(t *Turn) bool { return t.State.UserInputs.StartDate == "" },
			Category: interpret.CategoryCampaignStartDate,
			Then:     collectStartDate,
		},
		Rule{
			Name:     "campaign_duration",
			From:     types.StageRefinement,
			When:     func(t *Turn) bool { return t.State.UserInputs.CampaignDuration == "" },
			Category: interpret.CategoryCampaignStartDate,
			Then:     collectDuration,
		},
		Rule{
			Name: "final_confirmation",
			From: types.StageRefinement,
			When: func(t *Turn) bool {
				return t.HasLastAssistant && dialogue.AsksFinalConfirmation(t.LastAssistant)
			},
			Category: interpret.CategoryFinalConfirmation,
			Then:     confirmFinal,
		},
		Rule{
			Name: "refinement_complete",
			From: types.StageRefinement,
			Then: func(*Turn, *types.ConversationState, interpret.Answer) []Action {
				return []Action{Say(dialogue.AskFinalConfirmation)}
			},
		},
		Rule{
			Name:     "plan_modification",
			From:     types.StageFinal,
			Category: interpret.CategoryPlanModification,
			Then:     modifyPlan,
		},
		Rule{
			Name:     "modification_details",
			From:     types.StageAwaitingModification,
			Category: interpret.CategoryPlanModification,
			Then:     completeModification,
		},
	)
}

func confirmIndustry(_ *Turn, next *types.ConversationState, answer interpret.Answer) []Action {
	a, _ := answer.(*interpret.IndustryConfirmation)
	next.Stage = types.StageAnalysis
	if a != nil {
		if corrected := strings.TrimSpace(deref(a.CorrectedIndustry)); corrected != "" {
			next.BusinessProfile.Industry = corrected
			return []Action{Run(ResearchCompetitors), Say(dialogue.IndustryCorrected)}
		}
	}
	return []Action{Run(ResearchCompetitors), Say(dialogue.AskBudget)}
}

func collectBudget(_ *Turn, next *types.ConversationState, answer interpret.Answer) []Action {
	a, _ := answer.(*interpret.BudgetExtraction)
	if a == nil {
		return []Action{Say(dialogue.BudgetUnclear)}
	}
	budget, ok := a.Budget()
	if !ok {
		return []Action{Say(dialogue.BudgetUnclear)}
	}
	budget.Apply(&next.UserInputs)
	return []Action{Say(dialogue.AskFocus)}
}

func collectFocus(_ *Turn, next *types.ConversationState, answer interpret.Answer) []Action {
	a, _ := answer.(*interpret.MarketingFocus)
	if a == nil || a.PrimaryFocus == nil || a.Confidence < minFocusConfidence {
		return []Action{Say(dialogue.FocusUnclear)}
	}
	focus, ok := types.ParseFocus(*a.PrimaryFocus)
	if !ok {
		return []Action{Say(dialogue.FocusUnclear)}
	}
	u := &next.UserInputs
	u.Focus = focus
	u.MentionedPlatforms = appendUnique(u.MentionedPlatforms, a.MentionedPlatforms...)
	u.MarketingGoals = appendUnique(u.MarketingGoals, a.MarketingGoals...)
	next.Stage = types.StageRefinement
	if focus == types.FocusSocialMedia {
		return []Action{Say(dialogue.AskInstagram)}
	}
	return []Action{Say(dialogue.AskStartDate)}
}

func allocateInstagram(_ *Turn, next *types.ConversationState, answer interpret.Answer) []Action {
	a, _ := answer.(*interpret.InstagramAllocation)
	if a != nil {
		if next.BudgetAllocation == nil {
			next.BudgetAllocation = map[string]float64{}
		}
		if a.IncreaseInstagram {
			share := float64(defaultInstagramShare)
			if a.SpecifiedPercentage != nil && *a.SpecifiedPercentage > 0 && *a.SpecifiedPercentage <= 100 {
				share = *a.SpecifiedPercentage
			}
			next.BudgetAllocation[InstagramChannel] = share
		}
		if alt := strings.TrimSpace(deref(a.AlternativePlatform)); alt != "" {
			if _, exists := next.BudgetAllocation[alt]; !exists {
				if share := min(float64(defaultAlternativeShare), 100-allocated(next.BudgetAllocation)); share > 0 {
					next.BudgetAllocation[alt] = share
				}
			}
		}
	}
	return []Action{Say(dialogue.AskStartDate)}
}

func allocated(a map[string]float64) float64 {
	total := 0.0
	for _, v := range a {
		if v > 0 {
			total += v
		}
	}
	return total
}

func collectStartDate(t *Turn, next *types.ConversationState, answer interpret.Answer) []Action {
	a, _ := answer.(*interpret.CampaignStartDate)
	if a == nil {
		a = &interpret.CampaignStartDate{}
	}
	u := &next.UserInputs
	start := strings.TrimSpace(a.StartDate())
	duration := strings.TrimSpace(a.Duration())

	switch {
	case a.IsAffirmativeOnly && start == "" && duration == "":
		return []Action{Say(dialogue.StartDateAffirmative)}
	case start != "":
		u.StartDate = start
		if duration != "" {
			u.CampaignDuration = duration
		}
	case duration != "":
		u.CampaignDuration = duration
		return []Action{Say(dialogue.AskStartDateAgain)}
	case t.State.CountPrompt(startDateAsks...) >= startDateAsksBeforeAssume:
		u.StartDate = assumedStartDate
	default:
		return []Action{Say(dialogue.AskStartDateAgain)}
	}

	if u.CampaignDuration != "" {
		return []Action{Say(dialogue.AskFinalConfirmation)}
	}
	return []Action{Say(dialogue.AskDuration)}
}

func collectDuration(_ *Turn, next *types.ConversationState, answer interpret.Answer) []Action {
	a, _ := answer.(*interpret.CampaignStartDate)
	if a == nil {
		a = &interpret.CampaignStartDate{}
	}
	u := &next.UserInputs
	duration := strings.TrimSpace(a.Duration())
	start := strings.TrimSpace(a.StartDate())

	switch {
	case duration != "" && meaningfulDuration(duration, a.IsAffirmativeOnly):
		u.CampaignDuration = duration
		return []Action{Say(dialogue.AskFinalConfirmation)}
	case duration != "":
		return []Action{Say(dialogue.DurationAffirmative)}
	case start != "" && !strings.EqualFold(start, u.StartDate):
		u.StartDate = start
		u.CampaignDuration = ""
		return []Action{Say(dialogue.AskDuration, "updated", "true")}
	case a.IsAffirmativeOnly:
		return []Action{Say(dialogue.DurationAffirmative)}
	}
	return []Action{Say(dialogue.DurationUnclear)}
}

func confirmFinal(_ *Turn, next *types.ConversationState, answer interpret.Answer) []Action {
	a, _ := answer.(*interpret.FinalConfirmation)
	switch {
	case a == nil:
		return []Action{Say(dialogue.AskFinalConfirmation, "generic", "true")}
	case a.Confirmed:
		next.Stage = types.StageFinal
		return []Action{Run(AssemblePlan)}
	case len(a.RequestedChanges) > 0:
		return []Action{Say(dialogue.AcknowledgeChanges, "changes", strings.Join(a.RequestedChanges, ", "))}
	case len(a.NeedsInformation) > 0:
		return []Action{Say(dialogue.AnswerQuestions, "topics", strings.Join(a.NeedsInformation, ", "))}
	case a.Hesitant:
		return []Action{Say(dialogue.Reassure)}
	}
	return []Action{Say(dialogue.AskFinalConfirmation, "generic", "true")}
}

func modifyPlan(_ *Turn, next *types.ConversationState, answer interpret.Answer) []Action {
	a, _ := answer.(*interpret.PlanModification)
	if a == nil {
		return []Action{Say(dialogue.ModificationUnclear)}
	}
	if a.WantsChange() {
		u := &next.UserInputs
		u.ClearNegotiated()
		var noted []string
		if b, ok := a.Budget(); ok {
			b.Apply(u)
			noted = append(noted, "new budget of "+u.Budget)
		}
		if s := strings.TrimSpace(deref(a.NewStartDate)); s != "" {
			u.StartDate = s
			noted = append(noted, "new start date of "+s)
		}
		if d := strings.TrimSpace(deref(a.NewCampaignDuration)); d != "" {
			u.CampaignDuration = d
			noted = append(noted, "new campaign duration of "+d)
		}
		if missing := u.MissingNegotiated(); len(missing) > 0 {
			next.Stage = types.StageAwaitingModification
			return []Action{Say(dialogue.ModificationDetails,
				"missing", strings.Join(missing, ","),
				"noted", strings.Join(noted, ", and "),
			)}
		}
		next.Stage = types.StageRefinement
		return []Action{Run(ResetPlan), Say(dialogue.Regenerating), Run(AssemblePlan)}
	}
	if a.ConfirmedHappyWithPlan || a.RequestedDownloadOrEmail {
		return []Action{Say(dialogue.PlanClosing)}
	}
	return []Action{Say(dialogue.ModificationUnclear)}
}

func completeModification(_ *Turn, next *types.ConversationState, answer interpret.Answer) []Action {
	u := &next.UserInputs
	if a, _ := answer.(*interpret.PlanModification); a != nil {
		if u.Budget == "" {
			if b, ok := a.Budget(); ok {
				b.Apply(u)
			}
		}
		if u.StartDate == "" {
			u.StartDate = strings.TrimSpace(deref(a.NewStartDate))
		}
		if u.CampaignDuration == "" {
			u.CampaignDuration = strings.TrimSpace(deref(a.NewCampaignDuration))
		}
	}
	if missing := u.MissingNegotiated(); len(missing) > 0 {
		return []Action{Say(dialogue.StillMissing, "missing", strings.Join(missing, ","))}
	}
	next.Stage = types.StageRefinement
	return []Action{Run(ResetPlan), Say(dialogue.Regenerating, "received", "true"), Run(AssemblePlan)}
}

var vagueDurations = []string{"yes", "ok", "okay", "sure", "fine", "good"}

// meaningfulDuration rejects bare acknowledgements mistaken for a duration.
func meaningfulDuration(d string, affirmativeOnly bool) bool {
	lower := strings.ToLower(strings.TrimSpace(d))
	if !slices.Contains(vagueDurations, lower) && !affirmativeOnly {
		return true
	}
	if strings.ContainsAny(lower, "0123456789") {
		return true
	}
	for _, w := range []string{"day", "week", "month", "year", "quarter"} {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" && !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
