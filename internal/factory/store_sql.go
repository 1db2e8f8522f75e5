package factory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"
)

// SQLStore keeps deployments and responses in the deployments and responses
// tables. Variable-shape fields (recipients, meta ids, answers, result) ride
// in JSON columns the way catalog parameters do.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

type deploymentDoc struct {
	Subtitle         string     `json:"subtitle,omitempty"`
	MaxQuestions     int        `json:"max_questions,omitempty"`
	MetaIDs          []string   `json:"meta_ids,omitempty"`
	EmailLevel       string     `json:"email_level,omitempty"`
	Recipients       any        `json:"recipients"`
	SendConfirmation bool       `json:"send_confirmation"`
	ConfirmationText string     `json:"confirmation_text,omitempty"`
	DeliverAfter     *time.Time `json:"deliver_after,omitempty"`
}

func (s *SQLStore) CreateDeployment(ctx context.Context, d Deployment) error {
	doc, err := json.Marshal(deploymentDoc{
		Subtitle:         d.Subtitle,
		MaxQuestions:     d.MaxQuestions,
		MetaIDs:          d.MetaIDs,
		EmailLevel:       d.EmailLevel,
		Recipients:       d.Recipients,
		SendConfirmation: d.SendConfirmation,
		ConfirmationText: d.ConfirmationText,
		DeliverAfter:     d.DeliverAfter,
	})
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO deployments (id, test_type, title, status, config_json, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		d.ID, d.TestType, d.Title, d.Status, string(doc), d.CreatedAt)
	return err
}

func (s *SQLStore) GetDeployment(ctx context.Context, id string) (Deployment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, test_type, title, status, config_json, created_at FROM deployments WHERE id=$1`, id)
	return scanDeployment(row)
}

func (s *SQLStore) UpdateDeploymentStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE deployments SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrDeploymentNotFound
	}
	return nil
}

func (s *SQLStore) ListDeployments(ctx context.Context) ([]Deployment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, test_type, title, status, config_json, created_at FROM deployments ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Deployment
	for rows.Next() {
		d, err := scanDeployment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeployment(row rowScanner) (Deployment, error) {
	var d Deployment
	var doc string
	err := row.Scan(&d.ID, &d.TestType, &d.Title, &d.Status, &doc, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Deployment{}, ErrDeploymentNotFound
	}
	if err != nil {
		return Deployment{}, err
	}
	var cfg struct {
		deploymentDoc
		Recipients json.RawMessage `json:"recipients"`
	}
	if err := json.Unmarshal([]byte(doc), &cfg); err != nil {
		return Deployment{}, err
	}
	d.Subtitle = cfg.Subtitle
	d.MaxQuestions = cfg.MaxQuestions
	d.MetaIDs = cfg.MetaIDs
	d.EmailLevel = cfg.EmailLevel
	d.SendConfirmation = cfg.SendConfirmation
	d.ConfirmationText = cfg.ConfirmationText
	d.DeliverAfter = cfg.DeliverAfter
	if len(cfg.Recipients) > 0 {
		if err := json.Unmarshal(cfg.Recipients, &d.Recipients); err != nil {
			return Deployment{}, err
		}
	}
	return d, nil
}

func (s *SQLStore) CreateResponse(ctx context.Context, r Response) error {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return err
	}
	result := ""
	if r.Result != nil {
		doc, err := json.Marshal(r.Result)
		if err != nil {
			return err
		}
		result = string(doc)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO responses (id, deployment_id, lang, answers_json, result_json, deliver_after, delivered_at, submitted_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		r.ID, r.DeploymentID, r.Lang, string(answers), result, r.DeliverAfter, r.DeliveredAt, r.SubmittedAt)
	return err
}

func (s *SQLStore) GetResponse(ctx context.Context, id string) (Response, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, deployment_id, lang, answers_json, result_json, deliver_after, delivered_at, submitted_at
		 FROM responses WHERE id=$1`, id)
	return scanResponse(row)
}

func (s *SQLStore) PendingResponses(ctx context.Context, now time.Time) ([]Response, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, deployment_id, lang, answers_json, result_json, deliver_after, delivered_at, submitted_at
		 FROM responses
		 WHERE delivered_at IS NULL AND (deliver_after IS NULL OR deliver_after <= $1)
		 ORDER BY submitted_at`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Response
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE responses SET delivered_at=$1 WHERE id=$2`, at, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrResponseNotFound
	}
	return nil
}

func (s *SQLStore) SetResult(ctx context.Context, id string, result map[string]string) error {
	doc, err := json.Marshal(result)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE responses SET result_json=$1 WHERE id=$2`, string(doc), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrResponseNotFound
	}
	return nil
}

func scanResponse(row rowScanner) (Response, error) {
	var r Response
	var answers, result string
	err := row.Scan(&r.ID, &r.DeploymentID, &r.Lang, &answers, &result, &r.DeliverAfter, &r.DeliveredAt, &r.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Response{}, ErrResponseNotFound
	}
	if err != nil {
		return Response{}, err
	}
	if answers != "" {
		if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
			return Response{}, err
		}
	}
	if result != "" {
		if err := json.Unmarshal([]byte(result), &r.Result); err != nil {
			return Response{}, err
		}
	}
	return r, nil
}

/* ---- in-memory store for tests and offline runs ---- */

type memoryStore struct {
	mu          sync.RWMutex
	deployments map[string]Deployment
	responses   map[string]Response
}

// NewInMemoryStore backs tests and single-process setups without a database.
func NewInMemoryStore() *memoryStore {
	return &memoryStore{deployments: map[string]Deployment{}, responses: map[string]Response{}}
}

func (m *memoryStore) CreateDeployment(_ context.Context, d Deployment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deployments[d.ID] = d
	return nil
}

func (m *memoryStore) GetDeployment(_ context.Context, id string) (Deployment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.deployments[id]
	if !ok {
		return Deployment{}, ErrDeploymentNotFound
	}
	return d, nil
}

func (m *memoryStore) UpdateDeploymentStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deployments[id]
	if !ok {
		return ErrDeploymentNotFound
	}
	d.Status = status
	m.deployments[id] = d
	return nil
}

func (m *memoryStore) ListDeployments(_ context.Context) ([]Deployment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Deployment, 0, len(m.deployments))
	for _, d := range m.deployments {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStore) CreateResponse(_ context.Context, r Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[r.ID] = r
	return nil
}

func (m *memoryStore) GetResponse(_ context.Context, id string) (Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.responses[id]
	if !ok {
		return Response{}, ErrResponseNotFound
	}
	return r, nil
}

func (m *memoryStore) PendingResponses(_ context.Context, now time.Time) ([]Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Response
	for _, r := range m.responses {
		if r.DeliveredAt != nil {
			continue
		}
		if r.DeliverAfter != nil && r.DeliverAfter.After(now) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func (m *memoryStore) MarkDelivered(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.responses[id]
	if !ok {
		return ErrResponseNotFound
	}
	r.DeliveredAt = &at
	m.responses[id] = r
	return nil
}

func (m *memoryStore) SetResult(_ context.Context, id string, result map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.responses[id]
	if !ok {
		return ErrResponseNotFound
	}
	r.Result = result
	m.responses[id] = r
	return nil
}
