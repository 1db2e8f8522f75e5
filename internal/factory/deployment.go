package factory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/surveyforge/surveyforge/internal/report"
)

// Deployment statuses. A deployment is editable while under construction and
// starts accepting responses once activated.
const (
	StatusUnderConstruction = "under_construction"
	StatusActive            = "active"
	StatusClosed            = "closed"
)

var ErrNotUnderConstruction = errors.New("factory: deployment is not under construction")

// Deployment is one configured instance of a test: which catalog it draws
// from, how the form is titled, who receives the results and when.
type Deployment struct {
	ID       string `json:"id"`
	TestType string `json:"test_type"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Status   string `json:"status"`

	// MaxQuestions caps each language page; 0 means the full catalog.
	MaxQuestions int      `json:"max_questions,omitempty"`
	MetaIDs      []string `json:"meta_ids,omitempty"`

	// Email level selects which composition blocks apply (L1, L2, ...).
	EmailLevel string `json:"email_level,omitempty"`

	Recipients report.RecipientConfig `json:"recipients"`

	// SendConfirmation controls the immediate acknowledgement email;
	// ConfirmationText overrides the per-language default when set.
	SendConfirmation bool   `json:"send_confirmation"`
	ConfirmationText string `json:"confirmation_text,omitempty"`

	// DeliverAfter defers the results email: a submission before this
	// instant is scored and stored, and delivery is left to a later
	// processing pass. Nil means deliver immediately.
	DeliverAfter *time.Time `json:"deliver_after,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// FileName is the canonical artifact name for a deployment.
func (d Deployment) FileName() string {
	return "[" + d.TestType + "] " + d.Title
}

// Validate checks the fields a deployment cannot function without.
func (d Deployment) Validate() error {
	if strings.TrimSpace(d.TestType) == "" {
		return fmt.Errorf("factory: deployment needs a test type")
	}
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("factory: deployment needs a title")
	}
	return nil
}

// NewDeployment fills in the generated fields of a fresh deployment.
func NewDeployment(d Deployment) Deployment {
	d.ID = uuid.NewString()
	d.Status = StatusUnderConstruction
	d.CreatedAt = time.Now().UTC()
	return d
}

// Activate moves a deployment out of construction. Only deployments still
// under construction can be activated; everything else is left alone so a
// double click on "deploy" cannot re-create artifacts.
func Activate(d *Deployment) error {
	if d.Status != StatusUnderConstruction {
		return ErrNotUnderConstruction
	}
	d.Status = StatusActive
	return nil
}

// DeploymentStore persists deployments.
type DeploymentStore interface {
	CreateDeployment(ctx context.Context, d Deployment) error
	GetDeployment(ctx context.Context, id string) (Deployment, error)
	UpdateDeploymentStatus(ctx context.Context, id, status string) error
	ListDeployments(ctx context.Context) ([]Deployment, error)
}

var ErrDeploymentNotFound = errors.New("factory: deployment not found")
