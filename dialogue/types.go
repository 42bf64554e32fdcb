package dialogue

import (
	"context"
	"strings"

	"github.com/tbxark/mediaplan/types"
)

// Kind names what an assistant message is for. It is stored on the message
// as its prompt tag.
type Kind string

const (
	Welcome              Kind = "welcome"
	AskURL               Kind = "ask_url"
	AskValidURL          Kind = "ask_valid_url"
	ConfirmIndustry      Kind = "confirm_industry"
	AskIndustry          Kind = "ask_industry"
	ResearchFailed       Kind = "research_failed"
	AskBudget            Kind = "ask_budget"
	IndustryCorrected    Kind = "industry_corrected"
	BudgetUnclear        Kind = "budget_unclear"
	AskFocus             Kind = "ask_focus"
	FocusUnclear         Kind = "focus_unclear"
	AskInstagram         Kind = "ask_instagram"
	AskStartDate         Kind = "ask_start_date"
	StartDateAffirmative Kind = "start_date_affirmative"
	AskStartDateAgain    Kind = "ask_start_date_again"
	AskDuration          Kind = "ask_duration"
	DurationAffirmative  Kind = "duration_affirmative"
	DurationUnclear      Kind = "duration_unclear"
	AskFinalConfirmation Kind = "ask_final_confirmation"
	AcknowledgeChanges   Kind = "acknowledge_changes"
	AnswerQuestions      Kind = "answer_questions"
	Reassure             Kind = "reassure"
	Regenerating         Kind = "regenerating"
	ModificationDetails  Kind = "modification_details"
	StillMissing         Kind = "modification_still_missing"
	PlanClosing          Kind = "plan_closing"
	ModificationUnclear  Kind = "modification_unclear"
	PlanDelivered        Kind = "plan_delivered"
	PlanFailed           Kind = "plan_failed"
	Apology              Kind = "apology"
)

// Directive asks for one assistant message. Values carry the details the
// text needs (industry, changes, missing fields) beyond the state itself.
type Directive struct {
	Kind   Kind
	Values map[string]string
}

// Say builds a directive from alternating key/value pairs.
func Say(kind Kind, kv ...string) Directive {
	d := Directive{Kind: kind}
	if len(kv) > 1 {
		d.Values = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			d.Values[kv[i]] = kv[i+1]
		}
	}
	return d
}

func (d Directive) Value(key string) string {
	return d.Values[key]
}

type Generator interface {
	GenerateDialogue(ctx context.Context, d Directive, state *types.ConversationState) (string, error)
}

var finalConfirmationKinds = []Kind{AskFinalConfirmation, AcknowledgeChanges, AnswerQuestions, Reassure}

// AsksFinalConfirmation reports whether msg asked the user to confirm plan
// generation. Untagged messages are recognised by their wording.
func AsksFinalConfirmation(msg types.Message) bool {
	if msg.Prompt != "" {
		for _, k := range finalConfirmationKinds {
			if Kind(msg.Prompt) == k {
				return true
			}
		}
		return false
	}
	lower := strings.ToLower(msg.Text)
	return strings.Contains(lower, "generate") && (strings.Contains(lower, "final") || strings.Contains(lower, "plan"))
}

// AsksInstagram reports whether msg asked about a larger Instagram share.
func AsksInstagram(msg types.Message) bool {
	if msg.Prompt != "" {
		return Kind(msg.Prompt) == AskInstagram
	}
	lower := strings.ToLower(msg.Text)
	return strings.Contains(lower, "allocate a larger portion") && strings.Contains(lower, "instagram ads")
}
