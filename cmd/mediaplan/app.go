package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/redis/go-redis/v9"

	"github.com/tbxark/mediaplan/agent"
	"github.com/tbxark/mediaplan/config"
	"github.com/tbxark/mediaplan/dialogue"
	"github.com/tbxark/mediaplan/internal/logging"
	"github.com/tbxark/mediaplan/interpret"
	"github.com/tbxark/mediaplan/metrics"
	"github.com/tbxark/mediaplan/plan"
	"github.com/tbxark/mediaplan/research"
	"github.com/tbxark/mediaplan/session"
)

// app wires the configured components together.
type app struct {
	conf         *config.Config
	logger       *slog.Logger
	orchestrator *agent.Orchestrator
	sessions     *session.Manager
	metrics      *metrics.Collector
	closers      []func() error
}

func loadApp(ctx context.Context, path string) (*app, error) {
	conf, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(conf.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.New(level)
	slog.SetDefault(logger)

	if conf.LLM.APIKey == "" {
		conf.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  conf.LLM.APIKey,
		Model:   conf.LLM.Model,
		BaseURL: conf.LLM.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat model failed: %w", err)
	}

	a := &app{conf: conf, logger: logger, metrics: metrics.New()}
	hooks := a.metrics.Hooks(logger)

	orchestrator, err := newOrchestrator(conf, cm, hooks, logger)
	if err != nil {
		return nil, err
	}
	a.orchestrator = orchestrator

	a.sessions, err = a.newSessions(ctx)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func newOrchestrator(conf *config.Config, cm model.ToolCallingChatModel, hooks agent.Hooks, logger *slog.Logger) (*agent.Orchestrator, error) {
	searcher, err := research.NewSearcher(
		research.Provider(conf.Search.Provider),
		conf.Search.APIKey,
		research.WithHTTPClient(&http.Client{Timeout: conf.Search.Timeout}),
	)
	if err != nil {
		return nil, err
	}
	researcher, err := research.NewResearcher(cm, searcher, research.WithResultsPerQuery(conf.Search.ResultsPerQuery))
	if err != nil {
		return nil, fmt.Errorf("create researcher failed: %w", err)
	}
	interpreter, err := interpret.New(cm, interpret.WithFallbackObserver(hooks.FallbackObserver()))
	if err != nil {
		return nil, fmt.Errorf("create interpreter failed: %w", err)
	}
	assembler, err := plan.NewAssembler(cm)
	if err != nil {
		return nil, fmt.Errorf("create assembler failed: %w", err)
	}

	var generator dialogue.Generator = &dialogue.LocalDialogueGenerator{}
	if conf.LLM.DialogueLang != "" {
		toolGen, err := dialogue.NewToolBasedDialogueGenerator(cm, dialogue.WithDialogueLang(conf.LLM.DialogueLang))
		if err != nil {
			return nil, fmt.Errorf("create dialogue generator failed: %w", err)
		}
		generator = dialogue.NewFailbackDialogueGenerator(toolGen, generator)
	}

	return agent.NewOrchestrator(interpreter, researcher, assembler,
		agent.WithDialogueGenerator(generator),
		agent.WithLoopGuard(conf.LoopGuardConfig()),
		agent.WithHooks(hooks),
		agent.WithLogger(logger),
	), nil
}

func (a *app) newSessions(ctx context.Context) (*session.Manager, error) {
	opts := []session.Option{
		session.WithLockTTL(a.conf.Session.LockTTL),
		session.WithLogger(a.logger),
	}
	if a.conf.Session.Backend != config.BackendRedis {
		return session.NewManager(session.NewMemoryStore(), opts...), nil
	}

	rc := a.conf.Session.Redis
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis failed: %w", err)
	}
	store := session.NewRedisStore(client, session.WithTTL(a.conf.Session.TTL), session.WithPrefix(rc.Prefix))
	a.closers = append(a.closers, client.Close)
	opts = append(opts, session.WithLocker(session.NewRedisLocker(client, rc.Prefix)))
	a.logger.Info("using redis sessions", "addr", rc.Addr, "db", rc.DB)
	return session.NewManager(store, opts...), nil
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
