// Package llmtest provides a scripted chat model for tests.
package llmtest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Handler answers one Generate call.
type Handler func(msgs []*schema.Message) (*schema.Message, error)

// Call records one Generate call.
type Call struct {
	Tool     string
	Messages []*schema.Message
}

// Model routes Generate calls by the forced tool name. Calls without tools
// go to Text. Handlers queued with Push are consumed before the fixed ones.
type Model struct {
	mu       sync.Mutex
	handlers map[string]Handler
	queued   map[string][]Handler
	Text     Handler
	calls    []Call
}

var _ model.ToolCallingChatModel = (*Model)(nil)

func New() *Model {
	return &Model{
		handlers: map[string]Handler{},
		queued:   map[string][]Handler{},
	}
}

// On sets the default handler for a tool.
func (m *Model) On(tool string, h Handler) *Model {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[tool] = h
	return m
}

// Push queues a one shot handler for a tool.
func (m *Model) Push(tool string, h Handler) *Model {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued[tool] = append(m.queued[tool], h)
	return m
}

// Calls returns the recorded calls.
func (m *Model) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount counts calls for a tool; "" counts plain text calls.
func (m *Model) CallCount(tool string) int {
	n := 0
	for _, c := range m.Calls() {
		if c.Tool == tool {
			n++
		}
	}
	return n
}

func (m *Model) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	options := model.GetCommonOptions(&model.Options{}, opts...)
	tool := ""
	if len(options.Tools) > 0 {
		tool = options.Tools[0].Name
	}

	m.mu.Lock()
	m.calls = append(m.calls, Call{Tool: tool, Messages: input})
	var h Handler
	if q := m.queued[tool]; len(q) > 0 {
		h = q[0]
		m.queued[tool] = q[1:]
	} else if tool == "" {
		h = m.Text
	} else {
		h = m.handlers[tool]
	}
	m.mu.Unlock()

	if h == nil {
		return nil, fmt.Errorf("llmtest: no handler for tool %q", tool)
	}
	return h(input)
}

func (m *Model) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *Model) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

// ToolCall answers with a tool call carrying args.
func ToolCall(name, args string) Handler {
	return func([]*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage("", []schema.ToolCall{{
			ID:       "call-" + name,
			Function: schema.FunctionCall{Name: name, Arguments: args},
		}}), nil
	}
}

// Reply answers with plain assistant text.
func Reply(text string) Handler {
	return func([]*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage(text, nil), nil
	}
}

// ErrUnavailable is returned by Fail.
var ErrUnavailable = errors.New("llmtest: model unavailable")

// Fail answers with ErrUnavailable.
func Fail() Handler {
	return func([]*schema.Message) (*schema.Message, error) {
		return nil, ErrUnavailable
	}
}

// LastUser returns the content of the last user message in msgs.
func LastUser(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == schema.User {
			return msgs[i].Content
		}
	}
	return ""
}
