package report

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"
)

// LinkResolver maps a document name from an attachment block to a
// downloadable URL. The file directory in internal/factory satisfies this.
type LinkResolver interface {
	Link(ctx context.Context, name string) (string, error)
}

// Attachments larger than this are refused rather than buffered.
const maxAttachmentBytes = 25 << 20

// URLAttachmentStore fetches attachment documents over HTTP, resolving each
// block's document name through the directory first.
type URLAttachmentStore struct {
	Resolver LinkResolver
	Client   *http.Client
}

func NewURLAttachmentStore(resolver LinkResolver) *URLAttachmentStore {
	return &URLAttachmentStore{
		Resolver: resolver,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *URLAttachmentStore) Fetch(ctx context.Context, name string) (Attachment, error) {
	url, err := s.Resolver.Link(ctx, name)
	if err != nil {
		return Attachment{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Attachment{}, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return Attachment{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Attachment{}, fmt.Errorf("report: fetching %s: status %s", name, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentBytes+1))
	if err != nil {
		return Attachment{}, err
	}
	if len(data) > maxAttachmentBytes {
		return Attachment{}, fmt.Errorf("report: attachment %s exceeds %d bytes", name, maxAttachmentBytes)
	}

	return Attachment{
		Name:     attachmentFileName(name, url),
		MIMEType: attachmentMIMEType(resp.Header.Get("Content-Type"), url),
		Data:     data,
	}, nil
}

// attachmentFileName keeps the directory name as the visible filename,
// borrowing the URL's extension when the name has none.
func attachmentFileName(name, url string) string {
	if path.Ext(name) != "" {
		return name
	}
	if ext := path.Ext(strings.SplitN(path.Base(url), "?", 2)[0]); ext != "" {
		return name + ext
	}
	return name
}

func attachmentMIMEType(contentType, url string) string {
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt != "application/octet-stream" {
			return mt
		}
	}
	if ext := path.Ext(strings.SplitN(path.Base(url), "?", 2)[0]); ext != "" {
		if mt := mime.TypeByExtension(ext); mt != "" {
			return mt
		}
	}
	return "application/octet-stream"
}
