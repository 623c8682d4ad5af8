package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, BackendGemini, cfg.Backend)
	assert.Equal(t, "gemini-2.0-flash", cfg.ActiveBackend().Model)
	assert.Equal(t, 5*time.Second, cfg.UI.BannerDwell())
	assert.Equal(t, 10*time.Second, cfg.UI.AffordanceTTL())
	assert.Equal(t, 20*time.Second, cfg.Requests.Timeout())
	assert.Contains(t, cfg.Credential.Env, "GEMINI_API_KEY")
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
backend = "openai"

[openai]
model = "local-model"
base_url = "http://localhost:8080/v1"

[ui]
banner_dwell_ms = 3000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("SIMPLYREAD_REQUESTS_PER_MINUTE", "12")

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, BackendOpenAI, cfg.Backend)
	assert.Equal(t, "local-model", cfg.ActiveBackend().Model)
	assert.Equal(t, "http://localhost:8080/v1", cfg.ActiveBackend().BaseURL)
	assert.Equal(t, 3*time.Second, cfg.UI.BannerDwell())
	assert.Equal(t, 12, cfg.Requests.PerMinute)
}

func TestLoadDiscoversUserConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "simplyread"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "simplyread", "config.toml"),
		[]byte("[speech]\ncommand = \"espeak-ng --stdin -s 150\"\n"), 0o644))

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "espeak-ng --stdin -s 150", cfg.Speech.Command)
}

func TestValidate(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	v := New()
	v.Set("backend", "carrier-pigeon")
	_, err := Load(v, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")

	v = New()
	v.Set("requests.per_minute", 0)
	_, err = Load(v, "")
	require.Error(t, err)
}

func TestMissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestStateDir(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	assert.Equal(t, filepath.Join("/tmp/state", "simplyread"), StateDir())
}
