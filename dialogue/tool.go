package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/mediaplan/structured"
	"github.com/tbxark/mediaplan/types"
)

const (
	acknowledgeToolName        = "acknowledge_reply"
	acknowledgeToolDescription = "Write one short sentence acknowledging the user's last reply."
)

// DefaultDialogueSystemPromptTemplate is used by ToolBasedDialogueGenerator.
// The "%s" placeholder is replaced by the reply language.
const DefaultDialogueSystemPromptTemplate = `You are a friendly marketing consultant helping a small business build a media plan.
Write ONE short sentence that warmly acknowledges the user's last reply.
- Do not ask any question; the next question is added after your sentence.
- Do not repeat the question that follows.
- Reply in %s.

Call the '` + acknowledgeToolName + `' tool with the sentence.`

type acknowledgement struct {
	Message string `json:"message" jsonschema:"required,description=One short acknowledging sentence without a question"`
}

type acknowledgeRequest struct {
	Directive Directive
	State     *types.ConversationState
	Question  string
}

type dialogueGeneratorOptions struct {
	lang  string
	kinds []Kind
}

type GeneratorOption func(*dialogueGeneratorOptions)

// WithDialogueLang sets the language of the acknowledgement.
func WithDialogueLang(lang string) GeneratorOption {
	return func(o *dialogueGeneratorOptions) {
		o.lang = lang
	}
}

// WithAcknowledgedKinds sets which directives get a model written lead-in.
func WithAcknowledgedKinds(kinds ...Kind) GeneratorOption {
	return func(o *dialogueGeneratorOptions) {
		o.kinds = kinds
	}
}

// ToolBasedDialogueGenerator prefixes the canned question with a sentence
// written by the model. The canned text is always kept verbatim so
// fingerprints and prompt tags stay reliable.
type ToolBasedDialogueGenerator struct {
	chain *structured.Chain[acknowledgeRequest, acknowledgement]
	kinds map[Kind]bool
}

func NewToolBasedDialogueGenerator(chatModel model.ToolCallingChatModel, opts ...GeneratorOption) (*ToolBasedDialogueGenerator, error) {
	options := dialogueGeneratorOptions{
		lang:  "English",
		kinds: []Kind{IndustryCorrected, AskFocus, AskStartDate, AskDuration, AskFinalConfirmation},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	systemPrompt := fmt.Sprintf(DefaultDialogueSystemPromptTemplate, options.lang)
	chain, err := structured.NewChain[acknowledgeRequest, acknowledgement](
		chatModel,
		func(ctx context.Context, req acknowledgeRequest) ([]*schema.Message, error) {
			return []*schema.Message{
				schema.SystemMessage(systemPrompt),
				schema.UserMessage(formatAcknowledgeRequest(req)),
			}, nil
		},
		acknowledgeToolName,
		acknowledgeToolDescription,
		structured.WithReformatRetries(0),
	)
	if err != nil {
		return nil, err
	}
	kinds := make(map[Kind]bool, len(options.kinds))
	for _, k := range options.kinds {
		kinds[k] = true
	}
	return &ToolBasedDialogueGenerator{chain: chain, kinds: kinds}, nil
}

func (g *ToolBasedDialogueGenerator) GenerateDialogue(ctx context.Context, d Directive, s *types.ConversationState) (string, error) {
	question := Render(d, s)
	if !g.kinds[d.Kind] {
		return question, nil
	}
	out, err := g.chain.Invoke(ctx, acknowledgeRequest{Directive: d, State: s, Question: question})
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	lead := strings.TrimSpace(out.Message)
	if lead == "" || strings.Contains(lead, "?") {
		return question, nil
	}
	return lead + " " + question, nil
}

func formatAcknowledgeRequest(req acknowledgeRequest) string {
	var lastUser string
	for i := len(req.State.Messages) - 1; i >= 0; i-- {
		if req.State.Messages[i].Role == types.RoleUser {
			lastUser = req.State.Messages[i].Text
			break
		}
	}
	return fmt.Sprintf("%s\n\n# User reply:\n%s\n\n# Question that follows:\n%s", types.FormatState(req.State), lastUser, req.Question)
}

type FailbackDialogueGenerator struct {
	generators []Generator
}

func NewFailbackDialogueGenerator(generators ...Generator) *FailbackDialogueGenerator {
	return &FailbackDialogueGenerator{generators: generators}
}

func (g *FailbackDialogueGenerator) GenerateDialogue(ctx context.Context, d Directive, s *types.ConversationState) (string, error) {
	var lastErr error
	for _, generator := range g.generators {
		text, err := generator.GenerateDialogue(ctx, d, s)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("all dialogue generators failed: %w", lastErr)
}
