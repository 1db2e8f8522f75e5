package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/surveyforge/surveyforge/internal/factory"
	"github.com/surveyforge/surveyforge/internal/lang"
	"github.com/surveyforge/surveyforge/internal/report"
	"github.com/surveyforge/surveyforge/internal/scoring"
)

// Pipeline bundles everything a submission touches: scoring, persistence,
// composition and delivery. Sender may be nil (no SMTP configured), in which
// case submissions are scored and stored but nothing is mailed.
type Pipeline struct {
	Scoring     *scoring.Service
	Deployments factory.DeploymentStore
	Responses   factory.ResponseStore
	Blocks      report.BlockStore
	Sender      *report.Sender
	From        string
	Developer   string
	Logger      *log.Logger
}

func (p *Pipeline) logf(format string, args ...interface{}) {
	if p.Logger != nil {
		p.Logger.Printf(format, args...)
	}
}

// languageAnswerHeaders are the selector titles whose answer carries the
// respondent's language.
var languageAnswerHeaders = []string{"Langue / Language", "Langue___Language", "lang"}

func answerLanguage(answers map[string]string) string {
	for _, h := range languageAnswerHeaders {
		if v := answers[h]; v != "" {
			return lang.LanguageCode(v)
		}
	}
	return ""
}

// cleanAnswerData re-keys the raw answers by cleaned header for placeholder
// substitution and recipient lookup.
func cleanAnswerData(answers map[string]string) map[string]string {
	out := make(map[string]string, len(answers))
	for k, v := range answers {
		out[lang.CleanHeader(k)] = v
	}
	return out
}

// SubmitResponseHandler scores a submission against the deployment's test
// type, stores it, sends the confirmation email when enabled, and either
// delivers the results immediately or leaves them for the pending pass when
// the deployment defers delivery.
func SubmitResponseHandler(p *Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Lang    string            `json:"lang,omitempty"`
			Answers map[string]string `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if len(req.Answers) == 0 {
			http.Error(w, "answers required", http.StatusBadRequest)
			return
		}

		d, err := p.Deployments.GetDeployment(r.Context(), chi.URLParam(r, "deploymentID"))
		if errors.Is(err, factory.ErrDeploymentNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if d.Status != factory.StatusActive {
			http.Error(w, "deployment is not active", http.StatusConflict)
			return
		}

		code := lang.LanguageCode(req.Lang)
		if code == "" {
			code = answerLanguage(req.Answers)
		}
		if code == "" {
			code = "FR"
		}

		result, err := p.Scoring.Compute(r.Context(), req.Answers, d.TestType, code, code)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		resp := factory.NewResponse(d.ID, code, req.Answers)
		resp.DeliverAfter = d.DeliverAfter
		resp.Result = result.Flatten()
		if err := p.Responses.CreateResponse(r.Context(), resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		data := cleanAnswerData(req.Answers)
		if d.SendConfirmation {
			p.sendConfirmation(r.Context(), d, code, data)
		}

		delivered := false
		if d.DeliverAfter == nil || !d.DeliverAfter.After(time.Now()) {
			if p.deliverResults(r.Context(), d, resp, result, data) {
				now := time.Now().UTC()
				if err := p.Responses.MarkDelivered(r.Context(), resp.ID, now); err != nil {
					p.logf("api: marking response %s delivered: %v", resp.ID, err)
				}
				delivered = true
			}
		}

		writeJSON(w, map[string]interface{}{
			"id":        resp.ID,
			"result":    resp.Result,
			"delivered": delivered,
		})
	}
}

// deliverResults composes and mails the results email. Returns false when
// there is nothing to send (no mailer, no recipients).
func (p *Pipeline) deliverResults(ctx context.Context, d factory.Deployment, resp factory.Response, result scoring.Result, data map[string]string) bool {
	if p.Sender == nil {
		return false
	}

	recipients := d.Recipients
	if recipients.Respondent == "" {
		if addr := report.RespondentEmail(data); addr != "" {
			recipients.Respondent = addr
			recipients.RespondentEnabled = true
		}
	}
	if recipients.Developer == "" {
		recipients.Developer = p.Developer
	}
	to := recipients.Resolve()
	if len(to) == 0 {
		p.logf("api: response %s: no recipients, skipping delivery", resp.ID)
		return false
	}

	blocks, err := p.Blocks.LoadBlocks(ctx, resp.Lang)
	if err != nil {
		p.logf("api: loading report blocks for %s: %v", resp.Lang, err)
		return false
	}
	draft := report.Compose(blocks, d.TestType, resp.Lang, d.EmailLevel, result, data)
	p.Sender.Deliver(ctx, draft, to, recipients.Respondent, resp.Lang, p.From)
	return true
}

// Per-language confirmation defaults, overridable per deployment.
var confirmationDefaults = map[string][2]string{
	"FR": {"Confirmation de réception", "Nous avons bien reçu vos réponses. Vos résultats vous parviendront prochainement."},
	"EN": {"Submission received", "We have received your answers. Your results will follow shortly."},
	"ES": {"Confirmación de recepción", "Hemos recibido sus respuestas. Sus resultados llegarán en breve."},
	"DE": {"Eingangsbestätigung", "Wir haben Ihre Antworten erhalten. Ihre Ergebnisse folgen in Kürze."},
}

func (p *Pipeline) sendConfirmation(ctx context.Context, d factory.Deployment, langCode string, data map[string]string) {
	if p.Sender == nil {
		return
	}
	addr := d.Recipients.Respondent
	if addr == "" {
		addr = report.RespondentEmail(data)
	}
	if addr == "" {
		p.logf("api: confirmation skipped, no respondent address")
		return
	}

	def, ok := confirmationDefaults[langCode]
	if !ok {
		def = confirmationDefaults["EN"]
	}
	subject, body := def[0], def[1]
	if d.ConfirmationText != "" {
		body = report.Substitute(d.ConfirmationText, data)
	}
	msg := report.Message{From: p.From, To: addr, Subject: subject, HTMLBody: body}
	if err := p.Sender.Mailer.Send(ctx, msg); err != nil {
		p.logf("api: confirmation to %s: %v", addr, err)
	}
}

func GetResponseHandler(store factory.ResponseStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := store.GetResponse(r.Context(), chi.URLParam(r, "responseID"))
		if errors.Is(err, factory.ErrResponseNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, resp)
	}
}

// ProcessPendingHandler runs one delivery pass over responses whose deferral
// window has passed. Deferred delivery stays an explicit invocation (cron or
// operator action), not an in-process timer.
func ProcessPendingHandler(p *Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pending, err := p.Responses.PendingResponses(r.Context(), time.Now())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		delivered := 0
		for _, resp := range pending {
			d, err := p.Deployments.GetDeployment(r.Context(), resp.DeploymentID)
			if err != nil {
				p.logf("api: pending response %s: %v", resp.ID, err)
				continue
			}
			result, err := p.Scoring.Compute(r.Context(), resp.Answers, d.TestType, resp.Lang, resp.Lang)
			if err != nil {
				p.logf("api: rescoring response %s: %v", resp.ID, err)
				continue
			}
			data := cleanAnswerData(resp.Answers)
			if !p.deliverResults(r.Context(), d, resp, result, data) {
				continue
			}
			now := time.Now().UTC()
			if err := p.Responses.MarkDelivered(r.Context(), resp.ID, now); err != nil {
				p.logf("api: marking response %s delivered: %v", resp.ID, err)
				continue
			}
			delivered++
		}
		writeJSON(w, map[string]interface{}{"pending": len(pending), "delivered": delivered})
	}
}

// ScoreHandler is the pure computation endpoint: answers in, result out,
// nothing stored, nothing mailed.
func ScoreHandler(svc *scoring.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TestType   string            `json:"test_type"`
			Lang       string            `json:"lang"`
			OriginLang string            `json:"origin_lang,omitempty"`
			Answers    map[string]string `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.TestType == "" {
			http.Error(w, "test_type required", http.StatusBadRequest)
			return
		}
		result, err := svc.Compute(r.Context(), req.Answers, req.TestType, req.Lang, req.OriginLang)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]interface{}{
			"scores":         result.Scores,
			"profile":        result.Profile,
			"recommendation": result.Recommendation,
			"fields":         result.Fields,
		})
	}
}
