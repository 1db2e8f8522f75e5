package report

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
)

// SMTPMailer sends through a plain SMTP relay. The pack carries no mail
// library, so this stays on net/smtp with a hand-built multipart body.
type SMTPMailer struct {
	Addr string // host:port
	From string // default sender, used when the message has no alias
	Auth smtp.Auth
}

func (m *SMTPMailer) Send(_ context.Context, msg Message) error {
	from := msg.From
	if from == "" {
		from = m.From
	}
	if from == "" {
		return fmt.Errorf("smtp: no sender address configured")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	bodyHdr := textproto.MIMEHeader{}
	bodyHdr.Set("Content-Type", "text/html; charset=utf-8")
	part, err := mw.CreatePart(bodyHdr)
	if err != nil {
		return err
	}
	if _, err := part.Write([]byte(msg.HTMLBody)); err != nil {
		return err
	}

	for _, att := range msg.Attachments {
		hdr := textproto.MIMEHeader{}
		ct := att.MIMEType
		if ct == "" {
			ct = "application/octet-stream"
		}
		hdr.Set("Content-Type", ct)
		hdr.Set("Content-Transfer-Encoding", "base64")
		hdr.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Name))
		part, err := mw.CreatePart(hdr)
		if err != nil {
			return err
		}
		enc := base64.StdEncoding.EncodeToString(att.Data)
		// 76-char lines per RFC 2045
		for len(enc) > 76 {
			if _, err := part.Write([]byte(enc[:76] + "\r\n")); err != nil {
				return err
			}
			enc = enc[76:]
		}
		if _, err := part.Write([]byte(enc + "\r\n")); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}

	to := []string{strings.TrimSpace(msg.To)}
	return smtp.SendMail(m.Addr, m.Auth, from, to, buf.Bytes())
}
