package factory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Response is one stored submission: the raw answers keyed by header, the
// flattened result fields once scored, and the delivery bookkeeping.
type Response struct {
	ID           string            `json:"id"`
	DeploymentID string            `json:"deployment_id"`
	Lang         string            `json:"lang"`
	Answers      map[string]string `json:"answers"`
	Result       map[string]string `json:"result,omitempty"`

	// DeliverAfter is copied from the deployment at submission time;
	// DeliveredAt stays nil until the results email went out.
	DeliverAfter *time.Time `json:"deliver_after,omitempty"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`

	SubmittedAt time.Time `json:"submitted_at"`
}

// NewResponse stamps a fresh submission.
func NewResponse(deploymentID, langCode string, answers map[string]string) Response {
	return Response{
		ID:           uuid.NewString(),
		DeploymentID: deploymentID,
		Lang:         langCode,
		Answers:      answers,
		SubmittedAt:  time.Now().UTC(),
	}
}

// ResponseStore persists submissions and their scored results.
type ResponseStore interface {
	CreateResponse(ctx context.Context, r Response) error
	GetResponse(ctx context.Context, id string) (Response, error)
	// PendingResponses returns undelivered responses whose DeliverAfter
	// has passed (or was never set), for a delivery pass to pick up.
	PendingResponses(ctx context.Context, now time.Time) ([]Response, error)
	MarkDelivered(ctx context.Context, id string, at time.Time) error
	SetResult(ctx context.Context, id string, result map[string]string) error
}

var ErrResponseNotFound = errors.New("factory: response not found")
