package report

import (
	"context"
	"database/sql"
	"sync"
)

// BlockStore provides the email composition table.
type BlockStore interface {
	// LoadBlocks returns every block for a language, across test types
	// (rows with an empty test type apply to all). Ordered by position.
	LoadBlocks(ctx context.Context, lang string) ([]Block, error)
	PutBlocks(ctx context.Context, lang string, blocks []Block) error
}

// SQLBlockStore keeps composition blocks in the report_blocks table.
type SQLBlockStore struct {
	db *sql.DB
}

func NewSQLBlockStore(db *sql.DB) *SQLBlockStore { return &SQLBlockStore{db: db} }

func (s *SQLBlockStore) LoadBlocks(ctx context.Context, lang string) ([]Block, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT test_type, lang, level, profile, element, ord, content FROM report_blocks
		 WHERE lang=$1 ORDER BY ord`, lang)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Block
	for rows.Next() {
		var b Block
		if err := rows.Scan(&b.TestType, &b.Lang, &b.Level, &b.Profile, &b.Element, &b.Order, &b.Content); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLBlockStore) PutBlocks(ctx context.Context, lang string, blocks []Block) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM report_blocks WHERE lang=$1`, lang); err != nil {
		return err
	}
	for _, b := range blocks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO report_blocks (test_type, lang, level, profile, element, ord, content)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			b.TestType, lang, b.Level, b.Profile, b.Element, b.Order, b.Content); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// memoryBlockStore backs tests and offline runs.
type memoryBlockStore struct {
	mu     sync.RWMutex
	byLang map[string][]Block
}

func NewInMemoryBlockStore() BlockStore {
	return &memoryBlockStore{byLang: map[string][]Block{}}
}

func (m *memoryBlockStore) LoadBlocks(_ context.Context, lang string) ([]Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Block, len(m.byLang[lang]))
	copy(out, m.byLang[lang])
	return out, nil
}

func (m *memoryBlockStore) PutBlocks(_ context.Context, lang string, blocks []Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byLang[lang] = append([]Block(nil), blocks...)
	return nil
}
