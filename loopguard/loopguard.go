package loopguard

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/tbxark/mediaplan/types"
)

// Fingerprint identifies a repeated assistant question by a literal
// substring. Text is the wording the assistant uses; Variants are other
// wordings of the same question.
type Fingerprint struct {
	Name     string
	Text     string
	Variants []string
}

var (
	FocusQuestion    = Fingerprint{Name: "focus", Text: "focus more on social media or search ads"}
	BudgetQuestion   = Fingerprint{Name: "budget", Text: "what is your monthly budget", Variants: []string{"what is your budget"}}
	CampaignQuestion = Fingerprint{Name: "campaign_start", Text: "start the marketing campaign"}
)

// Matches reports whether text contains any wording of the question,
// ignoring case.
func (f Fingerprint) Matches(text string) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, f.Text) {
		return true
	}
	for _, v := range f.Variants {
		if strings.Contains(lower, v) {
			return true
		}
	}
	return false
}

// Fingerprints returns the watched questions.
func Fingerprints() []Fingerprint {
	return []Fingerprint{FocusQuestion, BudgetQuestion, CampaignQuestion}
}

var closingPhrases = []string{"final plan", "generate plan", "create plan", "looks good", "satisfied"}

type Config struct {
	TerminateAfter int
	AdvanceAfter   int
	DefaultBudget  string
	DefaultFocus   types.Focus
}

func DefaultConfig() Config {
	return Config{
		TerminateAfter: 2,
		AdvanceAfter:   3,
		DefaultBudget:  "$5000",
		DefaultFocus:   types.FocusSocialMedia,
	}
}

type Guard struct {
	cfg Config
}

func New(cfg Config) *Guard {
	def := DefaultConfig()
	if cfg.TerminateAfter <= 0 {
		cfg.TerminateAfter = def.TerminateAfter
	}
	if cfg.AdvanceAfter <= 0 {
		cfg.AdvanceAfter = def.AdvanceAfter
	}
	if cfg.DefaultBudget == "" {
		cfg.DefaultBudget = def.DefaultBudget
	}
	if !cfg.DefaultFocus.Valid() {
		cfg.DefaultFocus = def.DefaultFocus
	}
	return &Guard{cfg: cfg}
}

func (g *Guard) Config() Config { return g.cfg }

// Counts returns how many chat assistant messages contain each fingerprint.
// Matching is case-insensitive.
func Counts(s *types.ConversationState) map[string]int {
	counts := make(map[string]int, 3)
	for _, text := range s.AssistantTexts() {
		for _, fp := range Fingerprints() {
			if fp.Matches(text) {
				counts[fp.Name]++
			}
		}
	}
	return counts
}

// Trip describes why a guard fired.
type Trip struct {
	Guard       string
	Fingerprint string
	Count       int
	From        types.Stage
	To          types.Stage
}

const (
	GuardTermination = "termination"
	GuardProgression = "progression"
	GuardClosing     = "closing_phrase"
)

func exceeded(counts map[string]int, limit int) (string, int, bool) {
	for _, fp := range Fingerprints() {
		if n := counts[fp.Name]; n > limit {
			return fp.Name, n, true
		}
	}
	return "", 0, false
}

// CheckTermination fires when any watched question was asked more than
// TerminateAfter times and no plan has been delivered yet.
func (g *Guard) CheckTermination(s *types.ConversationState) (Trip, bool) {
	if s.Stage == types.StageFinal || s.Stage == types.StageAwaitingModification {
		return Trip{}, false
	}
	name, n, ok := exceeded(Counts(s), g.cfg.TerminateAfter)
	if !ok {
		return Trip{}, false
	}
	return Trip{Guard: GuardTermination, Fingerprint: name, Count: n, From: s.Stage, To: types.StageFinal}, true
}

// CheckProgress fires when any watched question was asked more than
// AdvanceAfter times. It moves one stage forward and never skips from
// analysis to final.
func (g *Guard) CheckProgress(s *types.ConversationState) (Trip, bool) {
	var next types.Stage
	switch s.Stage {
	case types.StageDataGathering:
		next = types.StageAnalysis
	case types.StageAnalysis:
		next = types.StageRefinement
	case types.StageRefinement:
		next = types.StageFinal
	default:
		return Trip{}, false
	}
	name, n, ok := exceeded(Counts(s), g.cfg.AdvanceAfter)
	if !ok {
		return Trip{}, false
	}
	return Trip{Guard: GuardProgression, Fingerprint: name, Count: n, From: s.Stage, To: next}, true
}

// CheckClosing fires when the utterance asks to wrap up before the plan
// exists. The modification stage handles its own replies.
func (g *Guard) CheckClosing(s *types.ConversationState, utterance string) (Trip, bool) {
	if s.Stage == types.StageFinal || s.Stage == types.StageAwaitingModification {
		return Trip{}, false
	}
	if !IsClosing(utterance) {
		return Trip{}, false
	}
	return Trip{Guard: GuardClosing, From: s.Stage, To: types.StageFinal}, true
}

// IsClosing reports whether text contains an explicit closing phrase.
func IsClosing(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range closingPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// BackfillBudget sets the default budget when none was negotiated.
func (g *Guard) BackfillBudget(u *types.UserInputs) {
	if u.Budget != "" {
		return
	}
	u.Budget = g.cfg.DefaultBudget
	if v, sym, ok := parsePlainAmount(g.cfg.DefaultBudget); ok {
		u.BudgetValue = &v
		u.CurrencySymbol = sym
		if sym == "$" {
			u.Currency = "dollars"
		}
	}
}

// Backfill sets the default budget and focus where they are missing.
func (g *Guard) Backfill(u *types.UserInputs) {
	g.BackfillBudget(u)
	if u.Focus == "" {
		u.Focus = g.cfg.DefaultFocus
	}
}

func parsePlainAmount(s string) (float64, string, bool) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsDigit)
	if i < 0 {
		return 0, "", false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s[i:], ",", ""), 64)
	if err != nil {
		return 0, "", false
	}
	return v, strings.TrimSpace(s[:i]), true
}
