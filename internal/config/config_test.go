package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  host: db.internal
  port: 3306
  user: app
  name: ideacritic
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Debate.DefaultRounds)
	assert.Equal(t, 5, cfg.Debate.MaxRounds)
	assert.Equal(t, 5, cfg.Tavily.MaxResults)
	assert.Equal(t, "https://api.tavily.com/search", cfg.Tavily.BaseURL)
	assert.Equal(t, 2048, cfg.OpenAI.MaxTokens)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("TAVILY_API_KEY", "tvly-env")

	path := writeConfig(t, `
openai:
  apiKey: sk-file
  model: gpt-4o-mini
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
	assert.Equal(t, "tvly-env", cfg.Tavily.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
}

func TestDSNBuilders(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: postgres
  host: localhost
  port: 5432
  user: idea
  password: secret
  name: critic
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t,
		"host=localhost port=5432 user=idea password=secret dbname=critic sslmode=disable",
		cfg.PostgresDSN())
	assert.Equal(t,
		"idea:secret@tcp(localhost:5432)/critic?parseTime=true&charset=utf8mb4&loc=UTC",
		cfg.MySQLDSN())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
