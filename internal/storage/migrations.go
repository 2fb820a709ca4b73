package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial catalog schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					slug TEXT UNIQUE NOT NULL,
					name TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS elements (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					category_id INTEGER NOT NULL,
					code TEXT NOT NULL,
					name TEXT NOT NULL,
					parent_element_id INTEGER,
					variant_code TEXT,
					question_hint TEXT,
					keywords TEXT NOT NULL DEFAULT '[]',
					aliases TEXT NOT NULL DEFAULT '[]',
					multi_select_keywords TEXT NOT NULL DEFAULT '[]',
					fields TEXT NOT NULL DEFAULT '[]',
					required_images TEXT NOT NULL DEFAULT '[]',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(category_id, code),
					FOREIGN KEY (category_id) REFERENCES categories(id),
					FOREIGN KEY (parent_element_id) REFERENCES elements(id)
				)`,
				`CREATE INDEX idx_elements_category ON elements(category_id)`,
				`CREATE INDEX idx_elements_parent ON elements(parent_element_id)`,

				`CREATE TABLE IF NOT EXISTS tariff_tiers (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					category_id INTEGER NOT NULL,
					code TEXT NOT NULL,
					name TEXT NOT NULL,
					price TEXT NOT NULL DEFAULT '0',
					min_elements INTEGER,
					max_elements INTEGER,
					sort_order INTEGER NOT NULL DEFAULT 0,
					classification_rules TEXT NOT NULL DEFAULT '[]',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(category_id, code),
					FOREIGN KEY (category_id) REFERENCES categories(id)
				)`,
				`CREATE INDEX idx_tiers_category ON tariff_tiers(category_id)`,

				`CREATE TABLE IF NOT EXISTS tier_inclusions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					tier_id INTEGER NOT NULL,
					element_id INTEGER,
					included_tier_id INTEGER,
					min_qty INTEGER,
					max_qty INTEGER,
					notes TEXT,
					FOREIGN KEY (tier_id) REFERENCES tariff_tiers(id),
					FOREIGN KEY (element_id) REFERENCES elements(id),
					FOREIGN KEY (included_tier_id) REFERENCES tariff_tiers(id)
				)`,
				`CREATE INDEX idx_inclusions_tier ON tier_inclusions(tier_id)`,

				`CREATE TABLE IF NOT EXISTS warnings (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					code TEXT NOT NULL,
					message TEXT NOT NULL,
					severity TEXT NOT NULL DEFAULT 'warning',
					category_id INTEGER,
					tier_id INTEGER,
					element_id INTEGER,
					trigger_conditions TEXT NOT NULL DEFAULT '{}',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Case state persistence",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS cases (
					id TEXT PRIMARY KEY,
					step TEXT NOT NULL,
					state TEXT NOT NULL,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_cases_step ON cases(step)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		slog.Info("Applying migration",
			"version", migration.Version,
			"description", migration.Description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := migration.Up(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("failed to roll back migration", "error", rbErr)
			}
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		// PRAGMA does not accept bound parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("failed to roll back migration", "error", rbErr)
			}
			return fmt.Errorf("failed to set schema version: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
