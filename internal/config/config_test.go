package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadJSONAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"databases": {"sqlite3": {"dsn": "data/dormbot.db"}},
		"chat": {"bot_id": "bot"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8090", cfg.BasicConfig.ServerAddress)
	assert.Equal(t, "sqlite3", cfg.BasicConfig.Database)
	assert.Equal(t, "http", cfg.NLU.Provider)
	assert.Equal(t, 5*time.Second, cfg.NLU.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Redis.PromptTTL)
	assert.Equal(t, "bot", cfg.Chat.BotID)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "data/dormbot.db"), cfg.Databases["sqlite3"].DSN)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
basic_config:
  server_address: ":9000"
  database: mysql
databases:
  mysql:
    host: db
    port: 3306
    username: dorm
    db_name: dorm
nlu:
  endpoint: http://nlu:5005/parse
  timeout: 2s
chat:
  bot_id: faq-bot
  admin_bot_id: admin-bot
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.BasicConfig.ServerAddress)
	assert.Equal(t, "db", cfg.Databases["mysql"].Host)
	assert.Equal(t, 3306, cfg.Databases["mysql"].Port)
	assert.Equal(t, 2*time.Second, cfg.NLU.Timeout)
	assert.Equal(t, "admin-bot", cfg.Chat.AdminBotID)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"databases": {"sqlite3": {"dsn": ":memory:"}},
		"chat": {"bot_id": "bot"}
	}`)
	t.Setenv("DORMBOT_CHAT_BOT_ID", "env-bot")
	t.Setenv("DORMBOT_NLU_ENDPOINT", "http://env-nlu/parse")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-bot", cfg.Chat.BotID)
	assert.Equal(t, "http://env-nlu/parse", cfg.NLU.Endpoint)
	assert.Equal(t, ":memory:", cfg.Databases["sqlite3"].DSN)
}

func TestLoadValidation(t *testing.T) {
	missingBot := writeConfig(t, "config.json", `{"databases": {"sqlite3": {"dsn": ":memory:"}}}`)
	_, err := Load(missingBot)
	assert.ErrorContains(t, err, "chat.bot_id")

	missingDB := writeConfig(t, "config.json", `{"chat": {"bot_id": "bot"}}`)
	_, err = Load(missingDB)
	assert.ErrorContains(t, err, "database config for sqlite3 not found")

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
