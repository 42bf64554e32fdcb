package testcases

import (
	"context"
	"os"
	"testing"

	"github.com/cloudwego/eino-ext/components/model/openai"

	"github.com/tbxark/mediaplan/agent"
	"github.com/tbxark/mediaplan/config"
	"github.com/tbxark/mediaplan/interpret"
	"github.com/tbxark/mediaplan/plan"
	"github.com/tbxark/mediaplan/research"
)

// InitChatModel builds the live model from MEDIAPLAN_* variables and skips
// unless MEDIAPLAN_RUN_LIVE_TESTS=1.
func InitChatModel(t *testing.T) *openai.ChatModel {
	if os.Getenv("MEDIAPLAN_RUN_LIVE_TESTS") != "1" {
		t.Skip("set MEDIAPLAN_RUN_LIVE_TESTS=1 to run live LLM tests")
		return nil
	}

	conf, err := config.Load(os.Getenv("MEDIAPLAN_CONFIG"))
	if err != nil {
		t.Skipf("failed to load config: %v", err)
		return nil
	}
	if conf.LLM.APIKey == "" {
		t.Skip("MEDIAPLAN_LLM_API_KEY is empty")
		return nil
	}
	chatModel, err := openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
		APIKey:  conf.LLM.APIKey,
		Model:   conf.LLM.Model,
		BaseURL: conf.LLM.BaseURL,
	})
	if err != nil {
		t.Fatalf("failed to init chat model: %v", err)
		return nil
	}
	return chatModel
}

func NewTestInterpreter(t *testing.T) *interpret.Interpreter {
	chatModel := InitChatModel(t)
	if chatModel == nil {
		return nil
	}
	interpreter, err := interpret.New(chatModel, interpret.WithFallbackObserver(func(category interpret.Category, reason string) {
		t.Logf("fallback used for %s: %s", category, reason)
	}))
	if err != nil {
		t.Fatalf("create interpreter failed: %v", err)
	}
	return interpreter
}

func NewTestOrchestrator(t *testing.T, opts ...agent.Option) *agent.Orchestrator {
	chatModel := InitChatModel(t)
	if chatModel == nil {
		return nil
	}
	interpreter, err := interpret.New(chatModel)
	if err != nil {
		t.Fatalf("create interpreter failed: %v", err)
	}
	researcher, err := research.NewResearcher(chatModel, research.NopSearcher{})
	if err != nil {
		t.Fatalf("create researcher failed: %v", err)
	}
	assembler, err := plan.NewAssembler(chatModel)
	if err != nil {
		t.Fatalf("create assembler failed: %v", err)
	}
	return agent.NewOrchestrator(interpreter, researcher, assembler, opts...)
}
