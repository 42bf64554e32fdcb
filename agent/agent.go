package agent

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/mediaplan/session"
	"github.com/tbxark/mediaplan/types"
)

var _ adk.Agent = (*Agent)(nil)

const (
	defaultSessionID = "default"
	// MessageIDExtra is the schema.Message Extra key carrying the inbound id.
	MessageIDExtra = "message_id"
	// KindExtra is the Extra key carrying the kind of an emitted message.
	KindExtra = "kind"
)

// Agent exposes the orchestrator as an eino adk agent. The session is taken
// from the context, see session.WithSessionID.
type Agent struct {
	name         string
	description  string
	orchestrator *Orchestrator
	sessions     *session.Manager
}

func NewAgent(name, description string, orchestrator *Orchestrator, sessions *session.Manager) *Agent {
	return &Agent{
		name:         name,
		description:  description,
		orchestrator: orchestrator,
		sessions:     sessions,
	}
}

func (a *Agent) Name(ctx context.Context) string {
	return a.name
}

func (a *Agent) Description(ctx context.Context) string {
	return a.description
}

func (a *Agent) Run(ctx context.Context, input *adk.AgentInput, options ...adk.AgentRunOption) *adk.AsyncIterator[*adk.AgentEvent] {
	iter, gen := adk.NewAsyncIteratorPair[*adk.AgentEvent]()
	go func() {
		defer func() {
			e := recover()
			if e != nil {
				gen.Send(&adk.AgentEvent{
					Err: fmt.Errorf("recover from panic: %v", e),
				})
			}
			gen.Close()
		}()
		if len(input.Messages) == 0 {
			gen.Send(&adk.AgentEvent{
				Err: fmt.Errorf("no messages in input"),
			})
			return
		}
		replies, err := a.Turn(ctx, inboundFrom(input.Messages[len(input.Messages)-1]))
		if err != nil {
			gen.Send(&adk.AgentEvent{
				Err: fmt.Errorf("turn failed: %w", err),
			})
			return
		}
		for _, msg := range replies {
			gen.Send(&adk.AgentEvent{
				AgentName: a.name,
				Output: &adk.AgentOutput{
					MessageOutput: &adk.MessageVariant{
						IsStreaming: false,
						Message:     ToSchemaMessage(msg),
						Role:        schema.Assistant,
					},
				},
			})
		}
	}()
	return iter
}

// Turn runs one message against the session in ctx and returns the
// assistant messages it produced.
func (a *Agent) Turn(ctx context.Context, in Inbound) ([]types.Message, error) {
	id, ok := session.SessionIDFromContext(ctx)
	if !ok {
		id = defaultSessionID
	}
	if _, err := a.sessions.LoadOrCreate(ctx, id, func() *types.ConversationState {
		return a.orchestrator.NewState(ctx)
	}); err != nil {
		return nil, err
	}
	var replies []types.Message
	_, err := a.sessions.Update(ctx, id, func(ctx context.Context, s *types.ConversationState) (*types.ConversationState, error) {
		before := len(s.Messages)
		next := a.orchestrator.OnMessage(ctx, s, in)
		replies = Appended(next, before)
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return replies, nil
}

// Appended returns the assistant messages added after the first before messages.
func Appended(s *types.ConversationState, before int) []types.Message {
	if before > len(s.Messages) {
		return nil
	}
	var out []types.Message
	for _, m := range s.Messages[before:] {
		if m.Role == types.RoleAssistant {
			out = append(out, m)
		}
	}
	return out
}

// ToSchemaMessage converts a conversation message for eino consumers.
func ToSchemaMessage(m types.Message) *schema.Message {
	msg := &schema.Message{
		Role:    schema.Assistant,
		Content: m.Text,
		Extra: map[string]any{
			MessageIDExtra: m.ID,
			KindExtra:      string(m.Kind),
		},
	}
	if m.Role == types.RoleUser {
		msg.Role = schema.User
	}
	return msg
}

func inboundFrom(msg *schema.Message) Inbound {
	in := Inbound{Text: msg.Content}
	if id, ok := msg.Extra[MessageIDExtra].(string); ok {
		in.ID = id
	}
	return in
}
