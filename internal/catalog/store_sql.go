package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
)

// SQLStore keeps catalog partitions in relational tables with the
// mode-specific parameter payload serialized as JSON in a TEXT column.
// Works against both drivers wired in internal/db ("sqlite", "postgres").
type SQLStore struct {
	db     *sql.DB
	driver string
	logf   func(format string, args ...interface{})
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver, logf: log.Printf}
}

func (s *SQLStore) LoadQuestions(ctx context.Context, testType, lang string) (map[string]Question, error) {
	qs, err := s.ListQuestions(ctx, testType, lang)
	if err != nil || qs == nil {
		return nil, err
	}
	out := make(map[string]Question, len(qs))
	for _, q := range qs {
		out[q.ID] = q
	}
	return out, nil
}

func (s *SQLStore) ListQuestions(ctx context.Context, testType, lang string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, params_json FROM catalog_questions
		 WHERE test_type=$1 AND lang=$2 ORDER BY pos`, testType, lang)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	skipped := 0
	for rows.Next() {
		var q Question
		var paramsJSON string
		if err := rows.Scan(&q.ID, &q.Title, &q.Description, &paramsJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(paramsJSON), &q.Params); err != nil {
			skipped++
			continue
		}
		q.Mode = CanonicalMode(q.Params.Mode)
		if q.ID == "" || q.Mode == "" {
			skipped++
			continue
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if skipped > 0 {
		s.logf("catalog: questions %s/%s: skipped %d corrupt row(s)", testType, lang, skipped)
	}
	// Partition absent: not an error, the caller treats nil as
	// "no scoring possible".
	return out, nil
}

func (s *SQLStore) LoadProfiles(ctx context.Context, testType, lang string) map[string]Profile {
	out := map[string]Profile{}
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, name, description, extra_json FROM catalog_profiles
		 WHERE test_type=$1 AND lang=$2`, testType, lang)
	if err != nil {
		s.logf("catalog: profiles %s/%s: %v", testType, lang, err)
		return out
	}
	defer rows.Close()
	for rows.Next() {
		var p Profile
		var extraJSON string
		if err := rows.Scan(&p.Code, &p.Name, &p.Description, &extraJSON); err != nil {
			s.logf("catalog: profiles %s/%s: %v", testType, lang, err)
			continue
		}
		if p.Code == "" {
			continue
		}
		if extraJSON != "" {
			if err := json.Unmarshal([]byte(extraJSON), &p.Extra); err != nil {
				s.logf("catalog: profile %s extra payload: %v", p.Code, err)
			}
		}
		out[p.Code] = p
	}
	if err := rows.Err(); err != nil {
		s.logf("catalog: profiles %s/%s: %v", testType, lang, err)
	}
	return out
}

func (s *SQLStore) LoadThresholds(ctx context.Context, testType, lang string) []ThresholdRule {
	var out []ThresholdRule
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, audience, axis, expr, profile, recommendation FROM catalog_thresholds
		 WHERE test_type=$1 AND lang=$2 ORDER BY pos`, testType, lang)
	if err != nil {
		s.logf("catalog: thresholds %s/%s: %v", testType, lang, err)
		return nil
	}
	defer rows.Close()
	for rows.Next() {
		var r ThresholdRule
		if err := rows.Scan(&r.Code, &r.Audience, &r.Axis, &r.Expr, &r.Profile, &r.Recommendation); err != nil {
			s.logf("catalog: thresholds %s/%s: %v", testType, lang, err)
			continue
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		s.logf("catalog: thresholds %s/%s: %v", testType, lang, err)
	}
	return out
}

func (s *SQLStore) PutQuestions(ctx context.Context, testType, lang string, qs []Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM catalog_questions WHERE test_type=$1 AND lang=$2`, testType, lang); err != nil {
		return err
	}
	for i, q := range qs {
		if q.Params.Mode == "" {
			q.Params.Mode = q.Mode
		}
		pj, err := json.Marshal(q.Params)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO catalog_questions (test_type, lang, pos, id, title, description, params_json)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			testType, lang, i, q.ID, q.Title, q.Description, string(pj)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) PutProfiles(ctx context.Context, testType, lang string, ps []Profile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM catalog_profiles WHERE test_type=$1 AND lang=$2`, testType, lang); err != nil {
		return err
	}
	for _, p := range ps {
		extra := ""
		if len(p.Extra) > 0 {
			buf, err := json.Marshal(p.Extra)
			if err != nil {
				return err
			}
			extra = string(buf)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO catalog_profiles (test_type, lang, code, name, description, extra_json)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			testType, lang, p.Code, p.Name, p.Description, extra); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) PutThresholds(ctx context.Context, testType, lang string, rules []ThresholdRule) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM catalog_thresholds WHERE test_type=$1 AND lang=$2`, testType, lang); err != nil {
		return err
	}
	for i, r := range rules {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO catalog_thresholds (test_type, lang, pos, code, audience, axis, expr, profile, recommendation)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			testType, lang, i, r.Code, r.Audience, r.Axis, r.Expr, r.Profile, r.Recommendation); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) Languages(ctx context.Context, testType string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT lang FROM catalog_questions WHERE test_type=$1 ORDER BY lang`, testType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
