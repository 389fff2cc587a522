package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchDefaultsFillZeroValues(t *testing.T) {
	cfg := RetrievalConfig{}.SearchDefaults()

	assert.Equal(t, 0.7, cfg.Threshold)
	assert.Equal(t, 10, cfg.MaxResults)
	assert.Equal(t, 0.7, cfg.SemanticWeight)
	assert.Equal(t, 0.3, cfg.KeywordWeight)
	assert.Equal(t, 4000, cfg.MaxTokens)
	assert.Equal(t, 5, cfg.MaxSources)
	assert.Equal(t, 10000, cfg.TimeoutMs)
	assert.NoError(t, cfg.Validate())
}

func TestSearchDefaultsKeepExplicitValues(t *testing.T) {
	rc := RetrievalConfig{}
	rc.Search.Threshold = 0.5
	rc.Search.SemanticWeight = 0.6
	rc.Search.KeywordWeight = 0.4

	cfg := rc.SearchDefaults()
	assert.Equal(t, 0.5, cfg.Threshold)
	assert.Equal(t, 0.6, cfg.SemanticWeight)
	assert.Equal(t, 0.4, cfg.KeywordWeight)
}

func TestMustLoadBaseConfigFromFile(t *testing.T) {
	raw := `
addr = "127.0.0.1:8080"

[log]
level = "warn"

[postgres]
dsn = "postgres://local/test"

[chunker]
size = 800
overlap = 80

[retrieval.search]
threshold = 0.6

[[selector.models]]
id = "gpt-4o-mini"
provider = "openai"
context_window = 128000
priority = 1
supports_code = true
`
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg := MustLoadBaseConfig(path)

	assert.Equal(t, "127.0.0.1:8080", cfg.Addr)
	assert.Equal(t, "postgres://local/test", cfg.Postgres.FormatDSN())
	assert.Equal(t, 800, cfg.Chunker.Size)
	assert.Equal(t, 0.6, cfg.Retrieval.Search.Threshold)
	require.Len(t, cfg.Selector.Models, 1)
	assert.Equal(t, "gpt-4o-mini", cfg.Selector.Models[0].ID)
	assert.True(t, cfg.Selector.Models[0].SupportsCode)
}

func TestLoadCustomConfig(t *testing.T) {
	raw := `
addr = ":80"

[custom_config]
flag = "enabled"
`
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg := MustLoadBaseConfig(path)

	payload := NewCustomConfigPayload[struct {
		Flag string `toml:"flag"`
	}]()
	require.NoError(t, cfg.LoadCustomConfig(&payload))
	assert.Equal(t, "enabled", payload.CustomConfig.Flag)
}

func TestLoadBaseConfigFromENV(t *testing.T) {
	t.Setenv("VIEAGENT_SERVICE_ADDRESS", ":9090")
	t.Setenv("VIEAGENT_POSTGRESQL_DSN", "postgres://env/test")
	t.Setenv("VIEAGENT_REDIS_ADDR", "127.0.0.1:6379")
	t.Setenv("VIEAGENT_LOG_LEVEL", "error")

	cfg := LoadBaseConfigFromENV()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "postgres://env/test", cfg.Postgres.DSN)
	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
	assert.Equal(t, "error", cfg.Log.Level)
}
