package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/mediaplan/agent"
	"github.com/tbxark/mediaplan/internal/llmtest"
	"github.com/tbxark/mediaplan/interpret"
	"github.com/tbxark/mediaplan/plan"
	"github.com/tbxark/mediaplan/research"
	"github.com/tbxark/mediaplan/session"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	m := llmtest.New()
	interpreter, err := interpret.New(m)
	require.NoError(t, err)
	researcher, err := research.NewResearcher(m, research.NopSearcher{})
	require.NoError(t, err)
	assembler, err := plan.NewAssembler(m)
	require.NoError(t, err)
	return &app{
		orchestrator: agent.NewOrchestrator(interpreter, researcher, assembler),
		sessions:     session.NewManager(session.NewMemoryStore()),
	}
}

func TestChatPrintsWelcomeAndReplies(t *testing.T) {
	a := newTestApp(t)
	ctx := session.WithSessionID(context.Background(), "cli")
	var out bytes.Buffer

	require.NoError(t, chat(ctx, a, strings.NewReader("hi\n\n"), &out, false))

	text := out.String()
	assert.Equal(t, 2, strings.Count(text, "Assistant:"))
	assert.Contains(t, text, "URL")

	state, err := a.sessions.Load(ctx, "cli")
	require.NoError(t, err)
	assert.Len(t, state.Messages, 3)
}
