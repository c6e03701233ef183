package storage

import (
	"context"

	"github.com/your-org/casetrack/internal/models"
)

// Repository is the case store contract shared by the Postgres and SQLite
// backends. Single-row reads return (nil, nil) when the row does not exist;
// detail projections return a zero value instead.
type Repository interface {
	CreateRegisteredCase(ctx context.Context, c *models.RegisteredCase) (string, error)
	CreatePublicSubmission(ctx context.Context, p *models.PublicSubmission) (string, error)

	ListRegisteredCases(ctx context.Context, submitter string, filter models.StatusFilter) ([]models.CaseSummary, error)
	ListPublicSubmissions(ctx context.Context, filter models.StatusFilter, mode models.ProjectionMode) ([]models.SubmissionRow, error)
	ListTrainingCases(ctx context.Context, submitter string) ([]models.TrainingRow, error)

	GetRegisteredCase(ctx context.Context, id string) (*models.RegisteredCase, error)
	GetPublicSubmission(ctx context.Context, id string) (*models.PublicSubmission, error)
	GetRegisteredCaseDetail(ctx context.Context, id string) (models.CaseDetail, error)
	GetPublicSubmissionDetail(ctx context.Context, id string) (models.SubmissionDetail, error)

	// UpdateStatusAndMatch marks both entities FOUND and links the case to the
	// submission in one transaction. It fails with errs.ErrConflict when either
	// side is no longer NOT_FOUND.
	UpdateStatusAndMatch(ctx context.Context, registeredID, publicID string) error
	WriteGeneratedField(ctx context.Context, id string, field models.GeneratedField, text string) error

	CountByStatus(ctx context.Context, submitter string, status models.Status) (int, error)
	Ping(ctx context.Context) error
}

var (
	_ Repository = (*PostgresStore)(nil)
	_ Repository = (*SQLiteStore)(nil)
)
