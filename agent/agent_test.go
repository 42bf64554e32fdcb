package agent

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/mediaplan/dialogue"
	"github.com/tbxark/mediaplan/internal/llmtest"
	"github.com/tbxark/mediaplan/session"
	"github.com/tbxark/mediaplan/types"
)

func TestAgentTurnUsesSessionFromContext(t *testing.T) {
	sessions := session.NewManager(session.NewMemoryStore())
	a := NewAgent("MediaPlanner", "plans", newOrchestrator(t, llmtest.New()), sessions)
	ctx := session.WithSessionID(context.Background(), "s1")

	replies, err := a.Turn(ctx, Inbound{ID: "m1", Text: "hello"})
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, string(dialogue.AskURL), replies[0].Prompt)

	replies, err = a.Turn(ctx, Inbound{ID: "m1", Text: "hello"})
	require.NoError(t, err)
	assert.Empty(t, replies)

	s, err := sessions.Load(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, s.Messages, 3)
	assert.Equal(t, string(dialogue.Welcome), s.Messages[0].Prompt)
	assert.Equal(t, "m1", s.Messages[1].ID)
}

func TestAgentRunEmitsAssistantMessages(t *testing.T) {
	sessions := session.NewManager(session.NewMemoryStore())
	a := NewAgent("MediaPlanner", "plans", newOrchestrator(t, llmtest.New()), sessions)
	assert.Equal(t, "MediaPlanner", a.Name(context.Background()))

	runner := adk.NewRunner(context.Background(), adk.RunnerConfig{Agent: a})
	msg := schema.UserMessage("hi there")
	msg.Extra = map[string]any{MessageIDExtra: "m1"}
	iter := runner.Run(session.WithSessionID(context.Background(), "s2"), []adk.Message{msg})

	var contents []string
	for {
		event, ok := iter.Next()
		if !ok {
			break
		}
		require.NoError(t, event.Err)
		out, err := event.Output.MessageOutput.GetMessage()
		require.NoError(t, err)
		assert.Equal(t, schema.Assistant, out.Role)
		assert.Equal(t, string(types.KindChat), out.Extra[KindExtra])
		contents = append(contents, out.Content)
	}
	require.Len(t, contents, 1)
	assert.Contains(t, contents[0], "URL")

	s, err := sessions.Load(context.Background(), "s2")
	require.NoError(t, err)
	assert.Len(t, s.Messages, 3)
}

func TestAgentRunWithoutMessages(t *testing.T) {
	a := NewAgent("MediaPlanner", "plans", newOrchestrator(t, llmtest.New()), session.NewManager(session.NewMemoryStore()))
	iter := a.Run(context.Background(), &adk.AgentInput{})
	event, ok := iter.Next()
	require.True(t, ok)
	assert.Error(t, event.Err)
}
