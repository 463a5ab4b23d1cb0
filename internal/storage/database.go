package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dormbot/internal/config"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// Open connects to the database configured for dbType (sqlite3 or mysql).
func Open(dbType string, cfg *config.Config) (*sql.DB, error) {
	dbCfg, ok := cfg.Databases[dbType]
	if !ok {
		return nil, fmt.Errorf("database config for %s not found", dbType)
	}

	var (
		db  *sql.DB
		err error
	)

	switch strings.ToLower(dbType) {
	case "sqlite", "sqlite3":
		if dbCfg.DSN == "" {
			return nil, fmt.Errorf("sqlite dsn must be provided")
		}
		db, err = sql.Open("sqlite3", dbCfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		// One writer at a time; also keeps :memory: databases on a single connection.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	case "mysql":
		params := dbCfg.Params
		if params == "" {
			params = "parseTime=true&loc=UTC&charset=utf8mb4"
		}
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			dbCfg.Username,
			dbCfg.Password,
			dbCfg.Host,
			dbCfg.Port,
			dbCfg.DBName,
			params,
		)
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", dbType)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// DriverName maps a configured database key to the database/sql driver name.
func DriverName(dbType string) string {
	switch strings.ToLower(dbType) {
	case "sqlite", "sqlite3":
		return "sqlite3"
	}
	return strings.ToLower(dbType)
}

// IsUniqueViolation reports whether err is a unique or primary key constraint
// failure from either supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return false
}

// Migrate ensures the required tables are present.
func Migrate(db *sql.DB, driver string) error {
	var stmts []string
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS chat_sessions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				pair_key TEXT NOT NULL UNIQUE,
				created_at DATETIME NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS session_members (
				session_id INTEGER NOT NULL,
				participant_id TEXT NOT NULL,
				PRIMARY KEY (session_id, participant_id),
				FOREIGN KEY(session_id) REFERENCES chat_sessions(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_session_members_participant ON session_members(participant_id)`,
			`CREATE TABLE IF NOT EXISTS messages (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				session_id INTEGER NOT NULL,
				sender_id TEXT NOT NULL,
				receiver_id TEXT NOT NULL,
				content TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				FOREIGN KEY(session_id) REFERENCES chat_sessions(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id)`,
			`CREATE TABLE IF NOT EXISTS prompts (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				query TEXT NOT NULL,
				response TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				first_name TEXT NOT NULL DEFAULT '',
				last_name TEXT NOT NULL DEFAULT '',
				email TEXT NOT NULL DEFAULT '',
				phone TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE TABLE IF NOT EXISTS rooms (
				id TEXT PRIMARY KEY,
				room_number TEXT NOT NULL,
				capacity INTEGER NOT NULL DEFAULT 0,
				occupancy INTEGER NOT NULL DEFAULT 0,
				price REAL NOT NULL DEFAULT 0,
				has_aircon BOOLEAN NOT NULL DEFAULT 0,
				has_wifi BOOLEAN NOT NULL DEFAULT 0,
				has_bathroom BOOLEAN NOT NULL DEFAULT 0
			)`,
			`CREATE INDEX IF NOT EXISTS idx_rooms_number ON rooms(room_number)`,
			`CREATE TABLE IF NOT EXISTS tenancies (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				room_id TEXT NOT NULL,
				rent REAL NOT NULL DEFAULT 0,
				start_date DATETIME,
				end_date DATETIME,
				payment_status TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'active',
				FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
				FOREIGN KEY(room_id) REFERENCES rooms(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_tenancies_user ON tenancies(user_id)`,
			`CREATE INDEX IF NOT EXISTS idx_tenancies_room ON tenancies(room_id)`,
		}
	case "mysql":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS chat_sessions (
				id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				pair_key VARCHAR(512) NOT NULL,
				created_at DATETIME NOT NULL,
				PRIMARY KEY (id),
				UNIQUE KEY uniq_chat_sessions_pair (pair_key)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS session_members (
				session_id BIGINT UNSIGNED NOT NULL,
				participant_id VARCHAR(255) NOT NULL,
				PRIMARY KEY (session_id, participant_id),
				INDEX idx_session_members_participant (participant_id),
				CONSTRAINT fk_session_members_session FOREIGN KEY (session_id) REFERENCES chat_sessions(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS messages (
				id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				session_id BIGINT UNSIGNED NOT NULL,
				sender_id VARCHAR(255) NOT NULL,
				receiver_id VARCHAR(255) NOT NULL,
				content MEDIUMTEXT NOT NULL,
				created_at DATETIME(6) NOT NULL,
				PRIMARY KEY (id),
				INDEX idx_messages_session (session_id),
				CONSTRAINT fk_messages_session FOREIGN KEY (session_id) REFERENCES chat_sessions(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS prompts (
				id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				query TEXT NOT NULL,
				response MEDIUMTEXT NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				PRIMARY KEY (id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS users (
				id VARCHAR(64) NOT NULL,
				first_name VARCHAR(255) NOT NULL DEFAULT '',
				last_name VARCHAR(255) NOT NULL DEFAULT '',
				email VARCHAR(255) NOT NULL DEFAULT '',
				phone VARCHAR(64) NOT NULL DEFAULT '',
				PRIMARY KEY (id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS rooms (
				id VARCHAR(64) NOT NULL,
				room_number VARCHAR(32) NOT NULL,
				capacity INT NOT NULL DEFAULT 0,
				occupancy INT NOT NULL DEFAULT 0,
				price DECIMAL(12,2) NOT NULL DEFAULT 0,
				has_aircon BOOLEAN NOT NULL DEFAULT FALSE,
				has_wifi BOOLEAN NOT NULL DEFAULT FALSE,
				has_bathroom BOOLEAN NOT NULL DEFAULT FALSE,
				PRIMARY KEY (id),
				INDEX idx_rooms_number (room_number)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS tenancies (
				id VARCHAR(64) NOT NULL,
				user_id VARCHAR(64) NOT NULL,
				room_id VARCHAR(64) NOT NULL,
				rent DECIMAL(12,2) NOT NULL DEFAULT 0,
				start_date DATETIME NULL,
				end_date DATETIME NULL,
				payment_status VARCHAR(50) NOT NULL DEFAULT '',
				status VARCHAR(20) NOT NULL DEFAULT 'active',
				PRIMARY KEY (id),
				INDEX idx_tenancies_user (user_id),
				INDEX idx_tenancies_room (room_id),
				CONSTRAINT fk_tenancies_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
				CONSTRAINT fk_tenancies_room FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		}
	default:
		return fmt.Errorf("unsupported driver for migration: %s", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate (%s): %w", driver, err)
		}
	}
	return nil
}
