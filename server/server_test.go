package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/mediaplan/agent"
	"github.com/tbxark/mediaplan/dialogue"
	"github.com/tbxark/mediaplan/internal/llmtest"
	"github.com/tbxark/mediaplan/interpret"
	"github.com/tbxark/mediaplan/metrics"
	"github.com/tbxark/mediaplan/plan"
	"github.com/tbxark/mediaplan/research"
	"github.com/tbxark/mediaplan/session"
	"github.com/tbxark/mediaplan/types"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	m := llmtest.New()
	interpreter, err := interpret.New(m)
	require.NoError(t, err)
	researcher, err := research.NewResearcher(m, research.NopSearcher{})
	require.NoError(t, err)
	assembler, err := plan.NewAssembler(m)
	require.NoError(t, err)

	collector := metrics.New()
	orchestrator := agent.NewOrchestrator(interpreter, researcher, assembler, agent.WithHooks(collector.Hooks(nil)))
	srv := New(orchestrator, session.NewManager(session.NewMemoryStore()), WithMetricsHandler(collector.Handler()))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)

	code, body := do(t, http.MethodPost, ts.URL+"/sessions", "")
	require.Equal(t, http.StatusCreated, code)
	var created SessionResponse
	require.NoError(t, sonic.Unmarshal(body, &created))
	require.NotEmpty(t, created.ID)
	require.Len(t, created.State.Messages, 1)
	assert.Equal(t, string(dialogue.Welcome), created.State.Messages[0].Prompt)

	code, body = do(t, http.MethodPost, ts.URL+"/sessions/"+created.ID+"/messages", `{"id":"m1","text":"hi"}`)
	require.Equal(t, http.StatusOK, code)
	var turn TurnResponse
	require.NoError(t, sonic.Unmarshal(body, &turn))
	assert.Equal(t, types.StageInitial, turn.Stage)
	require.Len(t, turn.Messages, 1)
	assert.Equal(t, string(dialogue.AskURL), turn.Messages[0].Prompt)
	assert.Len(t, turn.State.Messages, 3)

	code, body = do(t, http.MethodPost, ts.URL+"/sessions/"+created.ID+"/messages", `{"id":"m1","text":"hi"}`)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, sonic.Unmarshal(body, &turn))
	assert.Empty(t, turn.Messages)
	assert.Len(t, turn.State.Messages, 3)

	code, body = do(t, http.MethodGet, ts.URL+"/sessions", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), created.ID)

	code, _ = do(t, http.MethodGet, ts.URL+"/sessions/"+created.ID, "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, http.MethodDelete, ts.URL+"/sessions/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = do(t, http.MethodGet, ts.URL+"/sessions/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPostMessageErrors(t *testing.T) {
	ts := newTestServer(t)

	code, _ := do(t, http.MethodPost, ts.URL+"/sessions/unknown/messages", `{"text":"hi"}`)
	assert.Equal(t, http.StatusNotFound, code)

	_, body := do(t, http.MethodPost, ts.URL+"/sessions", "")
	var created SessionResponse
	require.NoError(t, sonic.Unmarshal(body, &created))

	code, _ = do(t, http.MethodPost, ts.URL+"/sessions/"+created.ID+"/messages", `{"text":"  "}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = do(t, http.MethodPost, ts.URL+"/sessions/"+created.ID+"/messages", `not json`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	code, body := do(t, http.MethodGet, ts.URL+"/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	_, created := do(t, http.MethodPost, ts.URL+"/sessions", "")
	var resp SessionResponse
	require.NoError(t, sonic.Unmarshal(created, &resp))
	do(t, http.MethodPost, ts.URL+"/sessions/"+resp.ID+"/messages", `{"text":"https://example.com"}`)

	code, body = do(t, http.MethodGet, ts.URL+"/metrics", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), "mediaplan_turns_total")
	assert.Contains(t, string(body), `mediaplan_stage_transitions_total{from="initial",to="data_gathering"} 1`)
}
