package factory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLFileDirectory resolves [FILE_LINK:...] names through the drive_files
// table, which maps document names to shareable URLs.
type SQLFileDirectory struct {
	db *sql.DB
}

func NewSQLFileDirectory(db *sql.DB) *SQLFileDirectory { return &SQLFileDirectory{db: db} }

func (d *SQLFileDirectory) Link(ctx context.Context, name string) (string, error) {
	var url string
	err := d.db.QueryRowContext(ctx, `SELECT url FROM drive_files WHERE name=$1`, name).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("factory: no file named %q", name)
	}
	if err != nil {
		return "", err
	}
	return url, nil
}

func (d *SQLFileDirectory) Put(ctx context.Context, name, url string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO drive_files (name, url) VALUES ($1,$2)
		 ON CONFLICT (name) DO UPDATE SET url=excluded.url`, name, url)
	return err
}
