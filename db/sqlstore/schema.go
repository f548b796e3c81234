package sqlstore

import (
	"context"
	"fmt"

	"github.com/navbryce/next-post-be/config"
)

func schemaStatements(adapter string) []string {
	timestamp := "TIMESTAMP"
	if adapter == config.DbAdapterMySQL {
		timestamp = "DATETIME"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS profiles (
	user_id VARCHAR(128) NOT NULL PRIMARY KEY,
	email VARCHAR(320) NOT NULL UNIQUE,
	role VARCHAR(16) NOT NULL DEFAULT 'user'
)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS posts (
	id VARCHAR(36) NOT NULL PRIMARY KEY,
	title VARCHAR(255) NOT NULL,
	description TEXT NOT NULL,
	main_content TEXT NOT NULL,
	email VARCHAR(320) NOT NULL,
	content TEXT NULL,
	content_type VARCHAR(255) NULL,
	is_public BOOLEAN NOT NULL DEFAULT FALSE,
	created_at %[1]s NOT NULL,
	updated_at %[1]s NOT NULL
)`, timestamp),
		`CREATE TABLE IF NOT EXISTS credentials (
	email VARCHAR(320) NOT NULL PRIMARY KEY,
	user_id VARCHAR(128) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL
)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS sessions (
	id VARCHAR(36) NOT NULL PRIMARY KEY,
	user_id VARCHAR(128) NOT NULL,
	email VARCHAR(320) NOT NULL,
	expires_at %s NOT NULL
)`, timestamp),
	}
}

// EnsureSchema creates missing tables. Existing tables are left untouched.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements(s.adapter) {
		if _, err := s.sess.SQL().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
