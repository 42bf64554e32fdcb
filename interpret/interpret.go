package interpret

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/mediaplan/structured"
	"github.com/tbxark/mediaplan/types"
)

var ErrUnknownCategory = errors.New("unknown interpretation category")

// FallbackObserver is told whenever a category default replaces a model answer.
type FallbackObserver func(category Category, reason string)

// Hints is the conversation context passed alongside the user reply.
type Hints struct {
	Industry         string
	Budget           string
	Focus            string
	StartDate        string
	CampaignDuration string
	LastQuestion     string
}

type request struct {
	Utterance string
	Hints     Hints
}

type variant struct {
	invoke   func(ctx context.Context, req request) (Answer, error)
	fallback func(utterance string) Answer
	// accept rejects a decoded answer that is unusable for this category.
	accept func(a Answer) bool
}

type Interpreter struct {
	variants map[Category]variant
	observer FallbackObserver
}

type Option func(*Interpreter)

func WithFallbackObserver(o FallbackObserver) Option {
	return func(i *Interpreter) {
		i.observer = o
	}
}

// New builds one structured chain per category on top of chatModel.
func New(chatModel model.ToolCallingChatModel, opts ...Option) (*Interpreter, error) {
	i := &Interpreter{variants: map[Category]variant{}}
	for _, o := range opts {
		o(i)
	}

	for _, build := range []variantBuilder{
		register(defaultIndustryConfirmation, nil),
		register(budgetFallback, func(a *BudgetExtraction) bool {
			_, ok := a.Budget()
			return ok
		}),
		register(defaultMarketingFocus, nil),
		register(defaultInstagramAllocation, nil),
		register(defaultCampaignStartDate, nil),
		register(defaultFinalConfirmation, nil),
		register(defaultPlanModification, nil),
	} {
		category, v, err := build(chatModel)
		if err != nil {
			return nil, fmt.Errorf("build %s interpreter failed: %w", category, err)
		}
		i.variants[category] = v
	}
	return i, nil
}

type variantBuilder func(chatModel model.ToolCallingChatModel) (Category, variant, error)

// register binds an answer type to its default constructor. The tool schema
// is derived from the answer type.
func register[T any, PT interface {
	*T
	Answer
}](fallback func(string) PT, accept func(PT) bool) variantBuilder {
	return func(chatModel model.ToolCallingChatModel) (Category, variant, error) {
		category := PT(new(T)).Category()
		toolName := "interpret_" + string(category)
		chain, err := structured.NewChain[request, T](
			chatModel,
			promptBuilder(category, toolName),
			toolName,
			"Record the structured reading of the user's reply",
		)
		if err != nil {
			return category, variant{}, err
		}
		v := variant{
			invoke: func(ctx context.Context, req request) (Answer, error) {
				out, err := chain.Invoke(ctx, req)
				if err != nil {
					return nil, err
				}
				return PT(out), nil
			},
			fallback: func(utterance string) Answer { return fallback(utterance) },
		}
		if accept != nil {
			v.accept = func(a Answer) bool {
				typed, ok := a.(PT)
				return ok && accept(typed)
			}
		}
		return category, v, nil
	}
}

func promptBuilder(category Category, toolName string) structured.PromptBuilder[request] {
	return func(ctx context.Context, req request) ([]*schema.Message, error) {
		system := instructions[category] + "\n\nCall the '" + toolName + "' tool with the result."
		return []*schema.Message{
			schema.SystemMessage(system),
			schema.UserMessage(formatRequest(req)),
		}, nil
	}
}

// Interpret reads utterance as an answer of the given category. Model and
// parse failures never surface: the category default is returned instead.
func (i *Interpreter) Interpret(ctx context.Context, utterance string, hints Hints, category Category) (Answer, error) {
	v, ok := i.variants[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	answer, err := v.invoke(ctx, request{Utterance: utterance, Hints: hints})
	if err != nil {
		slog.Debug("interpretation failed, using default", "category", category, "err", err)
		i.observe(category, "capability_error")
		return v.fallback(utterance), nil
	}
	if v.accept != nil && !v.accept(answer) {
		fb := v.fallback(utterance)
		if v.accept(fb) {
			i.observe(category, "local_fallback")
			return fb, nil
		}
		return answer, nil
	}
	return answer, nil
}

func (i *Interpreter) observe(category Category, reason string) {
	if i.observer != nil {
		i.observer(category, reason)
	}
}

func budgetFallback(utterance string) *BudgetExtraction {
	if b, ok := FallbackBudget(utterance); ok {
		return b
	}
	return &BudgetExtraction{}
}

func formatRequest(req request) string {
	section := types.FormatKeyValueSection("Conversation context", []types.KeyValue{
		{Key: "Industry", Value: req.Hints.Industry},
		{Key: "Budget", Value: req.Hints.Budget},
		{Key: "Focus", Value: req.Hints.Focus},
		{Key: "Start date", Value: req.Hints.StartDate},
		{Key: "Campaign duration", Value: req.Hints.CampaignDuration},
		{Key: "Last question", Value: req.Hints.LastQuestion},
	})
	reply := "# User reply:\n" + req.Utterance
	if section == "" {
		return reply
	}
	return section + "\n" + reply
}
