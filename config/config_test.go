package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/mediaplan/types"
)

func TestLoadDefaults(t *testing.T) {
	conf, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", conf.Server.Addr)
	assert.Equal(t, BackendMemory, conf.Session.Backend)
	assert.Equal(t, 24*time.Hour, conf.Session.TTL)
	assert.Equal(t, 90*time.Second, conf.TurnTimeout)

	lg := conf.LoopGuardConfig()
	assert.Equal(t, 2, lg.TerminateAfter)
	assert.Equal(t, 3, lg.AdvanceAfter)
	assert.Equal(t, "$5000", lg.DefaultBudget)
	assert.Equal(t, types.FocusSocialMedia, lg.DefaultFocus)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
session:
  backend: redis
  redis:
    addr: "redis:6379"
loop_guard:
  terminate_after: 4
  default_focus: search_ads
`), 0o600))
	t.Setenv("MEDIAPLAN_LLM_MODEL", "gpt-test")
	t.Setenv("MEDIAPLAN_TURN_TIMEOUT", "30s")

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", conf.Server.Addr)
	assert.Equal(t, BackendRedis, conf.Session.Backend)
	assert.Equal(t, "redis:6379", conf.Session.Redis.Addr)
	assert.Equal(t, "gpt-test", conf.LLM.Model)
	assert.Equal(t, 30*time.Second, conf.TurnTimeout)
	assert.Equal(t, 4, conf.LoopGuardConfig().TerminateAfter)
	assert.Equal(t, types.FocusSearchAds, conf.LoopGuardConfig().DefaultFocus)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("MEDIAPLAN_SESSION_BACKEND", "postgres")
	t.Setenv("MEDIAPLAN_SEARCH_PROVIDER", "serper")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown session backend")
	assert.Contains(t, err.Error(), "needs an api key")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
