// Package report assembles the result email from ordered content blocks:
// subject line, intro/body paragraphs, document attachments, templated
// score lines and the copy banner shown to non-respondent recipients.
// Composition is pure data transformation; sending is behind Mailer.
package report

import (
	"sort"
	"strconv"
	"strings"

	"github.com/surveyforge/surveyforge/internal/scoring"
)

// Block element kinds, as stored in the composition table.
const (
	ElementSubject   = "subject"
	ElementIntro     = "intro"
	ElementBody      = "body"
	ElementDocument  = "document"
	ElementScoreLine = "score_line"
	ElementCopyInfo  = "copy_info"
)

// Block is one ordered row of the email composition table. TestType and
// Profile narrow the block ("" matches any test / any profile); Level is a
// comma-tolerant list of email level codes the block belongs to.
type Block struct {
	TestType string `json:"test_type,omitempty"`
	Lang     string `json:"lang"`
	Level    string `json:"level"`
	Profile  string `json:"profile,omitempty"`
	Element  string `json:"element"`
	Order    int    `json:"order"`
	Content  string `json:"content"`
}

// Draft is a composed-but-unaddressed email: subject, HTML body, the copy
// banner for forwarded copies, and the attachment ids collected from
// document blocks.
type Draft struct {
	Subject       string
	HTMLBody      string
	CopyInfo      string
	AttachmentIDs []string
}

// Compose filters and orders the blocks for one (test type, language, level,
// final profile) and renders them against the result and the flattened
// answer data. Placeholder substitution applies to the subject, the body and
// the copy banner; score-line blocks are expanded once per profile, sorted
// by descending score.
func Compose(blocks []Block, testType, langCode, level string, result scoring.Result, data map[string]string) Draft {
	selected := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if b.TestType != "" && !strings.EqualFold(strings.TrimSpace(b.TestType), strings.TrimSpace(testType)) {
			continue
		}
		if !strings.EqualFold(b.Lang, langCode) {
			continue
		}
		if level != "" && !strings.Contains(b.Level, level) {
			continue
		}
		if b.Profile != "" && strings.TrimSpace(b.Profile) != strings.TrimSpace(result.Profile) {
			continue
		}
		selected = append(selected, b)
	}
	sort.SliceStable(selected, func(i, j int) bool { return selected[i].Order < selected[j].Order })

	draft := Draft{Subject: "Your " + testType + " results"}
	var body strings.Builder
	seenAttachments := map[string]bool{}

	for _, b := range selected {
		switch b.Element {
		case ElementSubject:
			draft.Subject = b.Content
		case ElementIntro, ElementBody:
			body.WriteString(b.Content)
			body.WriteString("<br>")
		case ElementDocument:
			id := strings.TrimSpace(b.Content)
			if id != "" && !seenAttachments[id] {
				seenAttachments[id] = true
				draft.AttachmentIDs = append(draft.AttachmentIDs, id)
			}
		case ElementScoreLine:
			for _, line := range result.ScoreLines() {
				rendered := Substitute(b.Content, map[string]string{
					"profile_name": line.Name,
					"score":        formatScore(line.Score),
				})
				body.WriteString(rendered)
				body.WriteString("<br>")
			}
		case ElementCopyInfo:
			draft.CopyInfo = b.Content
		}
	}

	merged := make(map[string]string, len(data)+len(result.Fields))
	for k, v := range data {
		merged[k] = v
	}
	for k, v := range result.Flatten() {
		merged[k] = v
	}

	draft.Subject = Substitute(draft.Subject, merged)
	draft.HTMLBody = Substitute(body.String(), merged)
	draft.CopyInfo = Substitute(draft.CopyInfo, merged)
	return draft
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
