package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tbxark/mediaplan/agent"
	"github.com/tbxark/mediaplan/session"
	"github.com/tbxark/mediaplan/types"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the planner in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		sessionID, _ := cmd.Flags().GetString("session")
		showData, _ := cmd.Flags().GetBool("show-data")

		ctx := cmd.Context()
		a, err := loadApp(ctx, path)
		if err != nil {
			return err
		}
		defer func() {
			_ = a.Close()
		}()
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		return chat(session.WithSessionID(ctx, sessionID), a, os.Stdin, os.Stdout, showData)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("session", "s", "", "Session id to resume, a new one is generated when empty")
	chatCmd.Flags().Bool("show-data", false, "Print the structured plan JSON")
}

func chat(ctx context.Context, a *app, in io.Reader, out io.Writer, showData bool) error {
	id, _ := session.SessionIDFromContext(ctx)
	state, err := a.sessions.LoadOrCreate(ctx, id, func() *types.ConversationState {
		return a.orchestrator.NewState(ctx)
	})
	if err != nil {
		return err
	}
	render := newRenderer()
	if n := len(state.Messages); n > 0 {
		_, _ = fmt.Fprintf(out, "Assistant: %s\n======\n", state.Messages[n-1].Text)
	}

	runner := adk.NewRunner(ctx, adk.RunnerConfig{
		Agent: agent.NewAgent(
			"MediaPlanner",
			"An agent that builds a marketing media plan through conversation",
			a.orchestrator,
			a.sessions,
		),
	})
	reader := bufio.NewReader(in)
	for {
		_, _ = fmt.Fprint(out, "You: ")
		input, rErr := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input != "" {
			msg := schema.UserMessage(input)
			msg.Extra = map[string]any{agent.MessageIDExtra: uuid.NewString()}
			if err := printReplies(runner.Run(ctx, []adk.Message{msg}), out, render, showData); err != nil {
				return err
			}
		}
		if rErr != nil {
			_, _ = fmt.Fprintln(out)
			return nil
		}
	}
}

func printReplies(iter *adk.AsyncIterator[*adk.AgentEvent], out io.Writer, render func(string) string, showData bool) error {
	for {
		event, ok := iter.Next()
		if !ok {
			return nil
		}
		if event.Err != nil {
			return event.Err
		}
		msg, err := event.Output.MessageOutput.GetMessage()
		if err != nil {
			return err
		}
		kind, _ := msg.Extra[agent.KindExtra].(string)
		switch types.MessageKind(kind) {
		case types.KindPlanData:
			if showData {
				_, _ = fmt.Fprintf(out, "\n%s\n", msg.Content)
			}
		case types.KindPlanDocument:
			_, _ = fmt.Fprintf(out, "\n%s\n", render(msg.Content))
		default:
			_, _ = fmt.Fprintf(out, "\nAssistant: %s\n======\n", msg.Content)
		}
	}
}

func newRenderer() func(string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return func(s string) string { return s }
	}
	return func(s string) string {
		out, err := r.Render(s)
		if err != nil {
			return s
		}
		return out
	}
}
