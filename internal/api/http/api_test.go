package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/surveyforge/surveyforge/internal/catalog"
	"github.com/surveyforge/surveyforge/internal/factory"
	"github.com/surveyforge/surveyforge/internal/report"
	"github.com/surveyforge/surveyforge/internal/scoring"
)

type capturingMailer struct {
	sent []report.Message
}

func (m *capturingMailer) Send(_ context.Context, msg report.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

type testEnv struct {
	router   *chi.Mux
	mailer   *capturingMailer
	pipeline *Pipeline
}

func colorQuestionRows() []map[string]string {
	return []map[string]string{
		{"id": "Q1", "title": "Pick a color", "params": `{"mode":"QCU_CAT","options":[{"label":"Red","profile":"X","value":2},{"label":"Blue","profile":"Y","value":2}]}`},
		{"id": "Q2", "title": "Rate it", "params": `{"mode":"ECHELLE_NOTE","profile":"X","min":1,"max":5}`},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	cat := catalog.NewInMemoryStore()
	if err := cat.PutQuestions(ctx, "Colors", "EN", catalog.ParseQuestionRows(colorQuestionRows())); err != nil {
		t.Fatal(err)
	}
	if err := cat.PutProfiles(ctx, "Colors", "EN", []catalog.Profile{
		{Code: "X", Name: "Crimson", Description: "warm"},
		{Code: "Y", Name: "Azure"},
	}); err != nil {
		t.Fatal(err)
	}

	blocks := report.NewInMemoryBlockStore()
	if err := blocks.PutBlocks(ctx, "EN", []report.Block{
		{Lang: "EN", Element: report.ElementSubject, Order: 1, Content: "Your colors: {{profile_name}}"},
		{Lang: "EN", Element: report.ElementBody, Order: 2, Content: "You scored as {{profile_name}}."},
	}); err != nil {
		t.Fatal(err)
	}

	mailer := &capturingMailer{}
	sender := report.NewSender(mailer, nil, nil)
	sender.RetryPause = 0

	fstore := factory.NewInMemoryStore()
	pipeline := &Pipeline{
		Scoring:     scoring.NewService(cat, nil),
		Deployments: fstore,
		Responses:   fstore,
		Blocks:      blocks,
		Sender:      sender,
		From:        "noreply@surveyforge.local",
		Developer:   "dev@surveyforge.local",
	}
	builder := factory.NewBuilder(cat, nil, nil)

	r := chi.NewRouter()
	r.Post("/deployments", CreateDeploymentHandler(fstore, builder))
	r.Get("/deployments/{deploymentID}", GetDeploymentHandler(fstore))
	r.Get("/deployments/{deploymentID}/form", GetDeploymentFormHandler(fstore, builder))
	r.Post("/deployments/{deploymentID}/responses", SubmitResponseHandler(pipeline))
	r.Post("/score", ScoreHandler(pipeline.Scoring))
	r.Get("/responses/{responseID}", GetResponseHandler(fstore))
	r.Post("/responses/process", ProcessPendingHandler(pipeline))
	r.Post("/catalogs/{testType}/{lang}/questions", UploadQuestionsHandler(cat))
	r.Get("/catalogs/{testType}/{lang}", GetCatalogHandler(cat))

	return &testEnv{router: r, mailer: mailer, pipeline: pipeline}
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func createDeployment(t *testing.T, env *testEnv, d factory.Deployment) (string, map[string]interface{}) {
	t.Helper()
	rr := doJSON(t, env.router, http.MethodPost, "/deployments", d)
	if rr.Code != http.StatusOK {
		t.Fatalf("create deployment: %d %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Deployment factory.Deployment     `json:"deployment"`
		Form       map[string]interface{} `json:"form"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Deployment.Status != factory.StatusActive {
		t.Fatalf("deployment not active after create: %+v", out.Deployment)
	}
	return out.Deployment.ID, out.Form
}

func TestCreateDeploymentReturnsForm(t *testing.T) {
	env := newTestEnv(t)
	_, form := createDeployment(t, env, factory.Deployment{TestType: "Colors", Title: "Team colors"})
	pages, ok := form["pages"].([]interface{})
	if !ok || len(pages) != 1 {
		t.Fatalf("form pages: %v", form["pages"])
	}
}

func TestCreateDeploymentUnknownTestType(t *testing.T) {
	env := newTestEnv(t)
	rr := doJSON(t, env.router, http.MethodPost, "/deployments", factory.Deployment{TestType: "Nope", Title: "T"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d", rr.Code)
	}
}

func TestSubmitScoresStoresAndMails(t *testing.T) {
	env := newTestEnv(t)
	id, _ := createDeployment(t, env, factory.Deployment{TestType: "Colors", Title: "Team colors"})

	rr := doJSON(t, env.router, http.MethodPost, "/deployments/"+id+"/responses", map[string]interface{}{
		"lang": "EN",
		"answers": map[string]string{
			"Q1: Pick a color":   "Red",
			"Q2: Rate it":        "3",
			"Your email address": "resp@example.com",
			"Langue / Language":  "English",
		},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", rr.Code, rr.Body.String())
	}
	var out struct {
		ID        string            `json:"id"`
		Result    map[string]string `json:"result"`
		Delivered bool              `json:"delivered"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Result["profile_final"] != "X" {
		t.Fatalf("result: %v", out.Result)
	}
	if out.Result["score_X"] != "5" {
		t.Fatalf("score_X: %v", out.Result)
	}
	if !out.Delivered {
		t.Fatal("results should have been delivered immediately")
	}

	// respondent + developer copy
	if len(env.mailer.sent) != 2 {
		t.Fatalf("sent %d messages: %+v", len(env.mailer.sent), env.mailer.sent)
	}
	if env.mailer.sent[0].Subject != "Your colors: Crimson" {
		t.Fatalf("subject %q", env.mailer.sent[0].Subject)
	}

	// stored response is retrievable
	rr = doJSON(t, env.router, http.MethodGet, "/responses/"+out.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get response: %d", rr.Code)
	}
}

func TestSubmitDeferredDelivery(t *testing.T) {
	env := newTestEnv(t)
	later := time.Now().Add(time.Hour).UTC()
	id, _ := createDeployment(t, env, factory.Deployment{
		TestType: "Colors", Title: "T", DeliverAfter: &later,
	})

	rr := doJSON(t, env.router, http.MethodPost, "/deployments/"+id+"/responses", map[string]interface{}{
		"lang": "EN",
		"answers": map[string]string{
			"Q1: Pick a color":   "Blue",
			"Your email address": "resp@example.com",
		},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Delivered bool `json:"delivered"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &out)
	if out.Delivered {
		t.Fatal("delivery should have been deferred")
	}
	if len(env.mailer.sent) != 0 {
		t.Fatalf("nothing should have been mailed yet, got %+v", env.mailer.sent)
	}

	// The pending pass before the window opens does nothing.
	rr = doJSON(t, env.router, http.MethodPost, "/responses/process", nil)
	var pass struct {
		Pending   int `json:"pending"`
		Delivered int `json:"delivered"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &pass)
	if pass.Pending != 0 || pass.Delivered != 0 {
		t.Fatalf("pass before window: %+v", pass)
	}
}

func TestSubmitConfirmationEmail(t *testing.T) {
	env := newTestEnv(t)
	later := time.Now().Add(time.Hour).UTC()
	id, _ := createDeployment(t, env, factory.Deployment{
		TestType: "Colors", Title: "T",
		SendConfirmation: true,
		DeliverAfter:     &later, // keep results out of the mailbox
	})

	rr := doJSON(t, env.router, http.MethodPost, "/deployments/"+id+"/responses", map[string]interface{}{
		"lang": "EN",
		"answers": map[string]string{
			"Q1: Pick a color":   "Red",
			"Your email address": "resp@example.com",
		},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", rr.Code, rr.Body.String())
	}
	if len(env.mailer.sent) != 1 {
		t.Fatalf("expected only the confirmation, got %+v", env.mailer.sent)
	}
	if env.mailer.sent[0].Subject != "Submission received" {
		t.Fatalf("confirmation subject %q", env.mailer.sent[0].Subject)
	}
	if env.mailer.sent[0].To != "resp@example.com" {
		t.Fatalf("confirmation recipient %q", env.mailer.sent[0].To)
	}
}

func TestSubmitToInactiveDeployment(t *testing.T) {
	env := newTestEnv(t)
	d := factory.NewDeployment(factory.Deployment{TestType: "Colors", Title: "T"})
	if err := env.pipeline.Deployments.CreateDeployment(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	rr := doJSON(t, env.router, http.MethodPost, "/deployments/"+d.ID+"/responses", map[string]interface{}{
		"answers": map[string]string{"Q1: Pick a color": "Red"},
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("got %d", rr.Code)
	}
}

func TestScoreEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rr := doJSON(t, env.router, http.MethodPost, "/score", map[string]interface{}{
		"test_type": "Colors",
		"lang":      "EN",
		"answers": map[string]string{
			"Q1: Pick a color": "Red",
			"Q2: Rate it":      "4",
		},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("score: %d %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Scores  map[string]float64 `json:"scores"`
		Profile string             `json:"profile"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Scores["X"] != 6 || out.Profile != "X" {
		t.Fatalf("got %+v", out)
	}
}

func TestCatalogUploadAndFetch(t *testing.T) {
	env := newTestEnv(t)
	rr := doJSON(t, env.router, http.MethodPost, "/catalogs/Animals/fr/questions", []map[string]string{
		{"id": "A1", "title": "Choisir", "params": `{"mode":"QCU_CAT","options":[{"label":"Chat","profile":"C"}]}`},
		{"id": "", "title": "broken"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Stored int `json:"stored"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &out)
	if out.Stored != 1 {
		t.Fatalf("stored %d", out.Stored)
	}

	rr = doJSON(t, env.router, http.MethodGet, "/catalogs/Animals/FR", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("fetch: %d", rr.Code)
	}
	rr = doJSON(t, env.router, http.MethodGet, "/catalogs/Animals/EN", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing partition: %d", rr.Code)
	}
}
