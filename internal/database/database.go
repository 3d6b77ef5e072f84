package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"mr-tracker/internal/activities"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

type Database struct {
	db *sql.DB
}

func New(path string, cat *activities.Catalog) (*Database, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite has a single writer; one connection keeps updates serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	d := &Database{db: db}
	if err := d.init(cat); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Str("path", path).Msg("✅ database initialized")
	return d, nil
}

func (d *Database) init(cat *activities.Catalog) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS daily_logs (
			id TEXT PRIMARY KEY,
			date TEXT UNIQUE NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT 0,
			total_duration INTEGER,
			total_gap_time INTEGER,
			routine_end_time TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS weekly_reports (
			id TEXT PRIMARY KEY,
			week_start TEXT NOT NULL,
			week_end TEXT NOT NULL,
			days_completed INTEGER NOT NULL,
			days_total INTEGER NOT NULL,
			avg_wake_up_time TEXT,
			avg_duration INTEGER,
			avg_gap_time INTEGER,
			weight_start REAL,
			weight_end REAL,
			weight_delta REAL,
			most_skipped TEXT,
			sent_to TEXT NOT NULL,
			email_sent BOOLEAN NOT NULL DEFAULT 0,
			sent_at TEXT,
			created_at TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_weekly_reports_week ON weekly_reports(week_start)`,
	}

	for _, query := range queries {
		if _, err := d.db.Exec(query); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	return d.ensureActivityColumns(cat)
}

// ensureActivityColumns adds a column for every catalog slot that the table
// does not have yet. Columns are never dropped.
func (d *Database) ensureActivityColumns(cat *activities.Catalog) error {
	existing, err := d.tableColumns("daily_logs")
	if err != nil {
		return err
	}

	for _, col := range cat.Columns() {
		if existing[col.Name] {
			continue
		}
		ddl := fmt.Sprintf("ALTER TABLE daily_logs ADD COLUMN %s %s", col.Name, sqlType(col.Kind))
		if _, err := d.db.Exec(ddl); err != nil {
			return fmt.Errorf("add column %s: %w", col.Name, err)
		}
		log.Debug().Str("column", col.Name).Msg("➕ daily_logs column added")
	}
	return nil
}

func (d *Database) tableColumns(table string) (map[string]bool, error) {
	rows, err := d.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan %s columns: %w", table, err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

func sqlType(kind activities.ColumnKind) string {
	switch kind {
	case activities.KindNumber:
		return "REAL"
	case activities.KindFlag:
		return "BOOLEAN NOT NULL DEFAULT 0"
	default:
		return "TEXT"
	}
}

func (d *Database) Close() error {
	return d.db.Close()
}
