package models

import (
	"context"
	"fmt"

	"github.com/marshallshelly/pebble-record/pkg/runtime"
)

// DDL creates the tables backing User and Post.
var DDL = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		email_verified_at DATETIME NULL,
		password VARCHAR(255) NULL,
		created_at DATETIME NULL,
		updated_at DATETIME NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	`CREATE TABLE IF NOT EXISTS posts (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		title VARCHAR(255) NOT NULL,
		content TEXT NULL,
		created_at DATETIME NULL,
		updated_at DATETIME NULL,
		CONSTRAINT posts_user_id_foreign FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
}

// DropDDL removes the tables in dependency order.
var DropDDL = []string{
	`DROP TABLE IF EXISTS posts`,
	`DROP TABLE IF EXISTS users`,
}

// CreateTables runs DDL in order.
func CreateTables(ctx context.Context, db *runtime.DB) error {
	return run(ctx, db, DDL)
}

// DropTables runs DropDDL in order.
func DropTables(ctx context.Context, db *runtime.DB) error {
	return run(ctx, db, DropDDL)
}

func run(ctx context.Context, db *runtime.DB, statements []string) error {
	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt, nil); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
