package structured

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

const reformatPrompt = "Your previous answer could not be parsed. Return only the JSON object for the '%s' tool, with no prose and no code fences."

type PromptBuilder[TInput any] func(ctx context.Context, input TInput) ([]*schema.Message, error)

type Chain[TInput, TOutput any] struct {
	PromptBuilder   PromptBuilder[TInput]
	ChatModel       model.ToolCallingChatModel
	ToolInfo        *schema.ToolInfo
	ReformatRetries int
}

type ChainOption func(*chainOptions)

type chainOptions struct {
	reformatRetries int
}

// WithReformatRetries sets how many "return only JSON" follow-ups are sent
// after an unparsable answer. The default is one.
func WithReformatRetries(n int) ChainOption {
	return func(o *chainOptions) {
		if n >= 0 {
			o.reformatRetries = n
		}
	}
}

func NewChain[TInput, TOutput any](
	chatModel model.ToolCallingChatModel,
	promptBuilder PromptBuilder[TInput],
	toolName string,
	toolDesc string,
	opts ...ChainOption,
) (*Chain[TInput, TOutput], error) {
	options := chainOptions{reformatRetries: 1}
	for _, o := range opts {
		o(&options)
	}
	toolInfo, err := utils.GoStruct2ToolInfo[TOutput](toolName, toolDesc)
	if err != nil {
		return nil, fmt.Errorf("convert tool info failed: %w", err)
	}
	return &Chain[TInput, TOutput]{
		PromptBuilder:   promptBuilder,
		ChatModel:       chatModel,
		ToolInfo:        toolInfo,
		ReformatRetries: options.reformatRetries,
	}, nil
}

// Invoke asks the model for a forced tool call and decodes its arguments.
// Plain text answers are decoded too. Unparsable answers are followed up
// with a reformat request at most ReformatRetries times.
func (s *Chain[TInput, TOutput]) Invoke(ctx context.Context, input TInput) (*TOutput, error) {
	messages, err := s.PromptBuilder(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("build prompt failed: %w", err)
	}

	raw, err := s.generate(ctx, messages)
	if err != nil {
		return nil, err
	}
	result, decodeErr := Decode[TOutput](raw)
	if decodeErr == nil {
		return result, nil
	}

	for attempt := 0; attempt < s.ReformatRetries; attempt++ {
		slog.Debug("structured output unparsable, requesting reformat", "tool", s.ToolInfo.Name, "attempt", attempt+1, "err", decodeErr)
		retry := make([]*schema.Message, 0, len(messages)+2)
		retry = append(retry, messages...)
		retry = append(retry,
			schema.AssistantMessage(raw, nil),
			schema.UserMessage(fmt.Sprintf(reformatPrompt, s.ToolInfo.Name)),
		)
		raw, err = s.generate(ctx, retry)
		if err != nil {
			return nil, err
		}
		result, decodeErr = Decode[TOutput](raw)
		if decodeErr == nil {
			return result, nil
		}
	}
	return nil, fmt.Errorf("parse %s output failed: %w", s.ToolInfo.Name, decodeErr)
}

func (s *Chain[TInput, TOutput]) generate(ctx context.Context, messages []*schema.Message) (string, error) {
	response, err := s.ChatModel.Generate(ctx, messages,
		model.WithTools([]*schema.ToolInfo{s.ToolInfo}),
		model.WithToolChoice(schema.ToolChoiceForced, s.ToolInfo.Name),
	)
	if err != nil {
		return "", fmt.Errorf("call model failed: %w", err)
	}
	if response == nil {
		return "", fmt.Errorf("call model failed: empty response")
	}
	if len(response.ToolCalls) > 0 {
		return response.ToolCalls[0].Function.Arguments, nil
	}
	return response.Content, nil
}

func (s *Chain[TInput, TOutput]) GetToolInfo() *schema.ToolInfo {
	return s.ToolInfo
}
