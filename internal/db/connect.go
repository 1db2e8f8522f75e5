package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:surveyforge.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/surveyforge?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS catalog_questions (
  test_type TEXT NOT NULL,
  lang TEXT NOT NULL,
  pos INTEGER NOT NULL,
  id TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  params_json TEXT NOT NULL DEFAULT '{}',
  PRIMARY KEY (test_type, lang, pos)
);

CREATE TABLE IF NOT EXISTS catalog_profiles (
  test_type TEXT NOT NULL,
  lang TEXT NOT NULL,
  code TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  extra_json TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (test_type, lang, code)
);

CREATE TABLE IF NOT EXISTS catalog_thresholds (
  test_type TEXT NOT NULL,
  lang TEXT NOT NULL,
  pos INTEGER NOT NULL,
  code TEXT NOT NULL,
  audience TEXT NOT NULL DEFAULT '',
  axis TEXT NOT NULL DEFAULT '',
  expr TEXT NOT NULL DEFAULT '',
  profile TEXT NOT NULL DEFAULT '',
  recommendation TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (test_type, lang, pos)
);

CREATE TABLE IF NOT EXISTS report_blocks (
  test_type TEXT NOT NULL DEFAULT '',
  lang TEXT NOT NULL,
  level TEXT NOT NULL DEFAULT '',
  profile TEXT NOT NULL DEFAULT '',
  element TEXT NOT NULL,
  ord INTEGER NOT NULL,
  content TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS deployments (
  id TEXT PRIMARY KEY,
  test_type TEXT NOT NULL,
  title TEXT NOT NULL,
  status TEXT NOT NULL,
  config_json TEXT NOT NULL DEFAULT '{}',
  created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS responses (
  id TEXT PRIMARY KEY,
  deployment_id TEXT NOT NULL REFERENCES deployments(id) ON DELETE CASCADE,
  lang TEXT NOT NULL DEFAULT '',
  answers_json TEXT NOT NULL DEFAULT '{}',
  result_json TEXT NOT NULL DEFAULT '',
  deliver_after TIMESTAMP,
  delivered_at TIMESTAMP,
  submitted_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS drive_files (
  name TEXT PRIMARY KEY,
  url TEXT NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS catalog_questions (
  test_type TEXT NOT NULL,
  lang TEXT NOT NULL,
  pos INTEGER NOT NULL,
  id TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  params_json TEXT NOT NULL DEFAULT '{}',
  PRIMARY KEY (test_type, lang, pos)
);

CREATE TABLE IF NOT EXISTS catalog_profiles (
  test_type TEXT NOT NULL,
  lang TEXT NOT NULL,
  code TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  extra_json TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (test_type, lang, code)
);

CREATE TABLE IF NOT EXISTS catalog_thresholds (
  test_type TEXT NOT NULL,
  lang TEXT NOT NULL,
  pos INTEGER NOT NULL,
  code TEXT NOT NULL,
  audience TEXT NOT NULL DEFAULT '',
  axis TEXT NOT NULL DEFAULT '',
  expr TEXT NOT NULL DEFAULT '',
  profile TEXT NOT NULL DEFAULT '',
  recommendation TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (test_type, lang, pos)
);

CREATE TABLE IF NOT EXISTS report_blocks (
  test_type TEXT NOT NULL DEFAULT '',
  lang TEXT NOT NULL,
  level TEXT NOT NULL DEFAULT '',
  profile TEXT NOT NULL DEFAULT '',
  element TEXT NOT NULL,
  ord INTEGER NOT NULL,
  content TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS deployments (
  id TEXT PRIMARY KEY,
  test_type TEXT NOT NULL,
  title TEXT NOT NULL,
  status TEXT NOT NULL,
  config_json TEXT NOT NULL DEFAULT '{}',
  created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS responses (
  id TEXT PRIMARY KEY,
  deployment_id TEXT NOT NULL REFERENCES deployments(id) ON DELETE CASCADE,
  lang TEXT NOT NULL DEFAULT '',
  answers_json TEXT NOT NULL DEFAULT '{}',
  result_json TEXT NOT NULL DEFAULT '',
  deliver_after TIMESTAMPTZ,
  delivered_at TIMESTAMPTZ,
  submitted_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS drive_files (
  name TEXT PRIMARY KEY,
  url TEXT NOT NULL
);
`
