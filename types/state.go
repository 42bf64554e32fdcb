package types

import (
	"maps"
	"slices"
	"strconv"

	"github.com/google/uuid"
)

// NewID generates message and session identifiers. Tests may replace it.
var NewID = func() string { return uuid.NewString() }

type ConversationState struct {
	Messages            []Message           `json:"messages"`
	BusinessProfile     BusinessProfile     `json:"business_profile"`
	CompetitorProfiles  []CompetitorProfile `json:"competitor_profiles"`
	RecommendedChannels []string            `json:"recommended_channels"`
	BudgetAllocation    map[string]float64  `json:"budget_allocation"`
	AdCreatives         []AdCreative        `json:"ad_creatives"`
	IndustryStrategy    string              `json:"industry_strategy,omitempty"`
	UserInputs          UserInputs          `json:"user_inputs"`
	Stage               Stage               `json:"stage"`
}

func NewConversationState() *ConversationState {
	return &ConversationState{
		Messages:         []Message{},
		BudgetAllocation: map[string]float64{},
		Stage:            StageInitial,
	}
}

// Clone returns a deep copy so a turn can be rolled back.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = slices.Clone(s.Messages)
	out.BusinessProfile.Products = slices.Clone(s.BusinessProfile.Products)
	out.CompetitorProfiles = make([]CompetitorProfile, len(s.CompetitorProfiles))
	for i, c := range s.CompetitorProfiles {
		c.AdPlatforms = slices.Clone(c.AdPlatforms)
		out.CompetitorProfiles[i] = c
	}
	out.RecommendedChannels = slices.Clone(s.RecommendedChannels)
	out.BudgetAllocation = maps.Clone(s.BudgetAllocation)
	if out.BudgetAllocation == nil {
		out.BudgetAllocation = map[string]float64{}
	}
	out.AdCreatives = slices.Clone(s.AdCreatives)
	out.UserInputs.MentionedPlatforms = slices.Clone(s.UserInputs.MentionedPlatforms)
	out.UserInputs.MarketingGoals = slices.Clone(s.UserInputs.MarketingGoals)
	if s.UserInputs.BudgetValue != nil {
		v := *s.UserInputs.BudgetValue
		out.UserInputs.BudgetValue = &v
	}
	return &out
}

// Normalize fills nil collections and an empty stage so a state decoded from
// storage or supplied by a caller is safe to mutate.
func (s *ConversationState) Normalize() {
	if s.Messages == nil {
		s.Messages = []Message{}
	}
	if s.BudgetAllocation == nil {
		s.BudgetAllocation = map[string]float64{}
	}
	if s.Stage == "" {
		s.Stage = StageInitial
	}
}

func (s *ConversationState) HasMessage(id string) bool {
	for _, m := range s.Messages {
		if m.ID == id {
			return true
		}
	}
	return false
}

// LastAssistant returns the latest conversational assistant message.
func (s *ConversationState) LastAssistant() (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		m := s.Messages[i]
		if m.Role == RoleAssistant && m.IsChat() {
			return m, true
		}
	}
	return Message{}, false
}

// AssistantTexts returns the text of every conversational assistant message.
func (s *ConversationState) AssistantTexts() []string {
	var out []string
	for _, m := range s.Messages {
		if m.Role == RoleAssistant && m.IsChat() {
			out = append(out, m.Text)
		}
	}
	return out
}

// CountPrompt counts assistant messages produced for the given prompt tag.
func (s *ConversationState) CountPrompt(prompts ...string) int {
	n := 0
	for _, m := range s.Messages {
		if m.Role != RoleAssistant || m.Prompt == "" {
			continue
		}
		if slices.Contains(prompts, m.Prompt) {
			n++
		}
	}
	return n
}

func (s *ConversationState) AppendUser(id, text string) Message {
	msg := Message{ID: id, Role: RoleUser, Text: text, Stage: s.Stage, Kind: KindChat}
	s.Messages = append(s.Messages, msg)
	return msg
}

func (s *ConversationState) AppendAssistant(msg Message) Message {
	if msg.ID == "" {
		msg.ID = NewID()
	}
	msg.Role = RoleAssistant
	if msg.Kind == "" {
		msg.Kind = KindChat
	}
	if msg.Stage == "" {
		msg.Stage = s.Stage
	}
	s.Messages = append(s.Messages, msg)
	return msg
}

// UniqueID returns base when it is unused, otherwise base with a numeric suffix.
func (s *ConversationState) UniqueID(base string) string {
	if !s.HasMessage(base) {
		return base
	}
	for i := 2; ; i++ {
		id := base + "-" + strconv.Itoa(i)
		if !s.HasMessage(id) {
			return id
		}
	}
}
