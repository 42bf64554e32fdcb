package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/tbxark/mediaplan/types"
)

// LocalDialogueGenerator renders directives with fixed templates. The
// templates keep the loop guard fingerprints intact.
type LocalDialogueGenerator struct{}

func (g *LocalDialogueGenerator) GenerateDialogue(ctx context.Context, d Directive, s *types.ConversationState) (string, error) {
	return Render(d, s), nil
}

// Render returns the canned text for d.
func Render(d Directive, s *types.ConversationState) string {
	u := s.UserInputs
	switch d.Kind {
	case Welcome:
		return "Welcome to the AI-Powered Marketing Media Plan Generator! Please provide your business website URL to start."
	case AskURL:
		return "Hello! Welcome to the Marketing Media Plan Generator. Please provide your business website URL to analyze (starting with http:// or https://)."
	case AskValidURL:
		return "I need your business website URL to get started. Please share it in a form like https://example.com."
	case ConfirmIndustry:
		return fmt.Sprintf("I found that your business is in the %s industry. Is that correct?", s.BusinessProfile.Industry)
	case AskIndustry:
		return "I've analyzed your website. Could you confirm what industry your business operates in?"
	case ResearchFailed:
		return "I had trouble analyzing your website. Could you tell me what industry your business is in?"
	case AskBudget:
		return "What is your monthly budget for marketing?"
	case IndustryCorrected:
		return fmt.Sprintf("Thank you for the correction. So your business is in the %s industry. What is your monthly budget for marketing?", s.BusinessProfile.Industry)
	case BudgetUnclear:
		return "I couldn't understand the budget amount. What is your monthly budget for marketing? For example, '$5000', '₹50,000', '₹10 lakhs', or '₹2 crores'."
	case AskFocus:
		return fmt.Sprintf("Great! I'll plan with a budget of %s. Would you like to focus more on social media or search ads?", budgetLabel(u))
	case FocusUnclear:
		return "I'm not sure I understood your preference. Would you like to focus more on social media or search ads, or prefer a balanced approach with both?"
	case AskInstagram:
		return "Would you like to allocate a larger portion of your budget to Instagram ads?"
	case AskStartDate:
		return "When would you like to start the marketing campaign?"
	case StartDateAffirmative:
		return "I understand you're ready to set a start date. When would you like to start the marketing campaign? Please give a date or timeframe (e.g., 'next Monday', 'July 1st', 'in two weeks')."
	case AskStartDateAgain:
		if u.CampaignDuration != "" {
			return fmt.Sprintf("Got the campaign duration as %s. When would you like to start the marketing campaign? Please provide a specific date or timeframe.", u.CampaignDuration)
		}
		return "When would you like to start the marketing campaign? Please provide a date or timeframe (e.g., 'next Monday', 'July 1st', 'in two weeks')."
	case AskDuration:
		if d.Value("updated") != "" {
			return fmt.Sprintf("Okay, updated campaign start to %s. How long should the campaign run (e.g., '3 months', '6 weeks')?", u.StartDate)
		}
		return fmt.Sprintf("Okay, campaign start is set for %s. How long should the campaign run (e.g., '3 months', '6 weeks')?", u.StartDate)
	case DurationAffirmative:
		return "I understand you're ready to set the duration. Could you please specify how long the campaign should run (e.g., '3 months', '6 weeks')?"
	case DurationUnclear:
		return "How long should the campaign run? For example, '3 months' or '6 weeks'."
	case AskFinalConfirmation:
		if d.Value("generic") != "" || u.StartDate == "" || u.CampaignDuration == "" {
			return "Would you like me to generate the final marketing media plan now? Please confirm."
		}
		return fmt.Sprintf("Great! We'll set the campaign to start %s and run for %s. Are you ready to generate the final marketing plan now?", u.StartDate, u.CampaignDuration)
	case AcknowledgeChanges:
		return fmt.Sprintf("I understand you'd like to adjust %s. Let me know when you're ready for me to generate the final marketing plan.", d.Value("changes"))
	case AnswerQuestions:
		return fmt.Sprintf("I'll be happy to provide more information about %s. After that, would you like me to generate the final marketing plan?", d.Value("topics"))
	case Reassure:
		return "I understand you may have some hesitations. Is there anything specific you'd like to adjust before I generate the final marketing plan?"
	case Regenerating:
		if d.Value("received") != "" {
			return fmt.Sprintf("Excellent, all details received! I'll regenerate the plan with the budget: %s, start date: %s, and campaign duration: %s. Generating now...", u.Budget, u.StartDate, u.CampaignDuration)
		}
		return fmt.Sprintf("Great! I'll regenerate the plan with the updated budget: %s, start date: %s, and campaign duration: %s. Generating now...", u.Budget, u.StartDate, u.CampaignDuration)
	case ModificationDetails:
		var sb strings.Builder
		sb.WriteString("Okay, you'd like to refine the plan. ")
		if noted := d.Value("noted"); noted != "" {
			sb.WriteString("I've noted your request for " + noted + ". ")
		}
		sb.WriteString("To regenerate the plan, please also provide " + joinFields(d.Value("missing")) + ".")
		return sb.String()
	case StillMissing:
		return fmt.Sprintf("Thanks for that information. To regenerate the plan, I still need you to provide %s.", joinFields(d.Value("missing")))
	case PlanClosing:
		return "Great! If you need anything else, just let me know. You can ask to download or email the plan again if you need to."
	case ModificationUnclear:
		return "I'm not sure I understood. Are you happy with the current plan, or would you like to change the budget, campaign start date, or campaign duration to regenerate it? You can also ask to download or email the plan."
	case PlanDelivered:
		return "Your marketing plan is ready! Would you like to download it or have it emailed? If you'd like to make changes to the budget, start date or campaign duration, let me know and I can regenerate it."
	case PlanFailed:
		return "I encountered an error generating your plan. Please try again."
	case Apology:
		return "I seem to be having trouble processing that. Could you please try again?"
	}
	return "Could you tell me a bit more?"
}

func budgetLabel(u types.UserInputs) string {
	if u.Currency != "" && !strings.HasPrefix(u.Budget, u.CurrencySymbol) {
		return u.Budget + " (" + u.Currency + ")"
	}
	return u.Budget
}

var fieldLabels = map[string]string{
	"budget":            "the new budget",
	"start_date":        "the new campaign start date",
	"campaign_duration": "the new campaign duration",
}

// joinFields turns "budget,start_date" into "the new budget and the new campaign start date".
func joinFields(csv string) string {
	var labels []string
	for _, f := range strings.Split(csv, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if l, ok := fieldLabels[f]; ok {
			f = l
		}
		labels = append(labels, f)
	}
	switch len(labels) {
	case 0:
		return "the missing details"
	case 1:
		return labels[0]
	}
	return strings.Join(labels[:len(labels)-1], ", ") + " and " + labels[len(labels)-1]
}
