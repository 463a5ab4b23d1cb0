package storage

import (
	"path/filepath"
	"testing"
	"time"

	"dormbot/internal/config"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {DSN: filepath.Join(t.TempDir(), "dormbot.db")},
		},
	}
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	db, err := Open("sqlite3", sqliteConfig(t))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db, "sqlite3"))
	// Migrations are re-runnable.
	require.NoError(t, Migrate(db, "sqlite3"))

	for _, table := range []string{"chat_sessions", "session_members", "messages", "prompts", "users", "rooms", "tenancies"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	cfg := &config.Config{Databases: map[string]config.DatabaseConfig{"postgres": {DSN: "x"}}}
	_, err := Open("postgres", cfg)
	require.Error(t, err)

	_, err = Open("mysql", cfg)
	require.Error(t, err)
}

func TestMigrateUnknownDriver(t *testing.T) {
	db, err := Open("sqlite3", sqliteConfig(t))
	require.NoError(t, err)
	defer db.Close()

	require.Error(t, Migrate(db, "oracle"))
}

func TestIsUniqueViolation(t *testing.T) {
	db, err := Open("sqlite3", sqliteConfig(t))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, Migrate(db, "sqlite3"))

	now := time.Now().UTC()
	_, err = db.Exec(`INSERT INTO chat_sessions (pair_key, created_at) VALUES (?, ?)`, "a|b", now)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO chat_sessions (pair_key, created_at) VALUES (?, ?)`, "a|b", now)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	_, err = db.Exec(`INSERT INTO messages (session_id, sender_id, receiver_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		999, "a", "b", "hi", now)
	require.Error(t, err, "foreign keys should be enforced")
	assert.False(t, IsUniqueViolation(err))

	assert.False(t, IsUniqueViolation(nil))
	assert.True(t, IsUniqueViolation(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.False(t, IsUniqueViolation(&mysql.MySQLError{Number: 1452}))
}

func TestDriverName(t *testing.T) {
	assert.Equal(t, "sqlite3", DriverName("sqlite"))
	assert.Equal(t, "sqlite3", DriverName("SQLite3"))
	assert.Equal(t, "mysql", DriverName("MySQL"))
}
