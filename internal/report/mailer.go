package report

import (
	"context"
	"log"
	"strings"
	"time"
)

// Message is one addressed, ready-to-send email.
type Message struct {
	From        string
	To          string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// Attachment is a fetched document ready to attach.
type Attachment struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Mailer delivers a composed message. The transport lives behind this
// interface; the engine never blocks on delivery semantics beyond the call.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// AttachmentStore fetches attachment documents by id.
type AttachmentStore interface {
	Fetch(ctx context.Context, id string) (Attachment, error)
}

const attachmentTries = 3

// Sender turns a Draft into per-recipient messages and delivers them.
// Delivery is best-effort throughout: a recipient that fails is logged and
// skipped, an attachment that cannot be fetched after three tries is
// dropped.
type Sender struct {
	Mailer      Mailer
	Attachments AttachmentStore
	Logger      *log.Logger

	// pause between attachment retries, swappable in tests
	RetryPause time.Duration
}

func NewSender(mailer Mailer, attachments AttachmentStore, logger *log.Logger) *Sender {
	return &Sender{Mailer: mailer, Attachments: attachments, Logger: logger, RetryPause: time.Second}
}

var copyPrefixes = map[string]string{
	"FR": "Copie : ",
	"ES": "Copia: ",
	"DE": "Kopie: ",
}

func copyPrefix(langCode string) string {
	if p, ok := copyPrefixes[strings.ToUpper(langCode)]; ok {
		return p
	}
	return "Copy: "
}

// Deliver sends the draft to every recipient. Non-respondent recipients get
// the language's copy prefix on the subject and the copy banner prepended to
// the body.
func (s *Sender) Deliver(ctx context.Context, draft Draft, recipients []string, respondent, langCode, fromAlias string) {
	attachments := s.fetchAttachments(ctx, draft.AttachmentIDs)
	for _, addr := range recipients {
		subject := draft.Subject
		body := draft.HTMLBody
		if !strings.EqualFold(addr, respondent) {
			subject = copyPrefix(langCode) + subject
			if draft.CopyInfo != "" {
				body = draft.CopyInfo + body
			}
		}
		msg := Message{From: fromAlias, To: addr, Subject: subject, HTMLBody: body, Attachments: attachments}
		if err := s.Mailer.Send(ctx, msg); err != nil {
			s.logf("report: sending results to %s: %v", addr, err)
			continue
		}
		s.logf("report: results [%s] sent to %s", langCode, addr)
	}
}

func (s *Sender) fetchAttachments(ctx context.Context, ids []string) []Attachment {
	if s.Attachments == nil || len(ids) == 0 {
		return nil
	}
	var out []Attachment
	for _, id := range ids {
		var att Attachment
		var err error
		for try := 1; try <= attachmentTries; try++ {
			att, err = s.Attachments.Fetch(ctx, id)
			if err == nil {
				break
			}
			s.logf("report: attachment %s try %d: %v", id, try, err)
			if try < attachmentTries {
				select {
				case <-ctx.Done():
					return out
				case <-time.After(s.RetryPause):
				}
			}
		}
		if err != nil {
			s.logf("report: dropping attachment %s after %d tries", id, attachmentTries)
			continue
		}
		out = append(out, att)
	}
	return out
}

func (s *Sender) logf(format string, args ...interface{}) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}
