// Package workflow orchestrates case registration, public submissions and
// match confirmation on top of the case store and the text-generation client.
//
// State changes are durable before any text is generated. Generation failures
// are reported on the returned outcome and never undo a committed change.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/your-org/casetrack/internal/errs"
	"github.com/your-org/casetrack/internal/models"
	"github.com/your-org/casetrack/internal/observability"
	"github.com/your-org/casetrack/internal/storage"
	"github.com/your-org/casetrack/internal/textgen"
)

var tracer = otel.Tracer("github.com/your-org/casetrack/internal/workflow")

// endSpan records err on span and ends it.
func endSpan(span trace.Span, err error, degraded bool) {
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case degraded:
		span.SetAttributes(attribute.Bool("generation.degraded", true))
	}
	span.End()
}

// Notifier receives lifecycle events after the corresponding change commits.
type Notifier interface {
	PublishCaseEvent(ctx context.Context, evt models.CaseEvent) error
}

type Engine struct {
	store    storage.Repository
	gen      *textgen.Client
	notifier Notifier
}

// NewEngine builds an engine. notifier may be nil.
func NewEngine(store storage.Repository, gen *textgen.Client, notifier Notifier) *Engine {
	return &Engine{store: store, gen: gen, notifier: notifier}
}

func (e *Engine) notify(ctx context.Context, evt models.CaseEvent) {
	if e.notifier == nil {
		return
	}
	evt.Timestamp = time.Now().UTC()
	if err := e.notifier.PublishCaseEvent(ctx, evt); err != nil {
		slog.Warn("publish case event", "type", evt.Type, "case_id", evt.CaseID, "error", err)
	}
}

func required(fields ...[2]string) error {
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			return fmt.Errorf("%w: %s is required", errs.ErrValidation, f[0])
		}
	}
	return nil
}

// softWriteErr reports a failed write of generated text without turning it
// into an operation failure.
func softWriteErr(field models.GeneratedField, err error) error {
	return fmt.Errorf("%w: store %s: %w", errs.ErrGenerationSoft, field, err)
}

// --- Registration ---

type RegisterCaseInput struct {
	SubmittedBy       string
	Name              string
	FatherName        string
	Age               string
	ComplainantName   string
	ComplainantMobile string
	NationalID        string
	LastSeen          string
	Address           string
	FaceMesh          string
	BirthMarks        string
}

// Registration is the result of RegisterCase. Alert holds the generated text,
// or an "[LLM ERROR]" string when GenerationErr is set.
type Registration struct {
	CaseID        string
	Alert         string
	GenerationErr error
}

func (r Registration) Degraded() bool { return r.GenerationErr != nil }

// RegisterCase stores a new NOT_FOUND case and drafts a public alert for it.
// The case is kept when alert generation fails.
func (e *Engine) RegisterCase(ctx context.Context, in RegisterCaseInput) (reg Registration, err error) {
	ctx, span := tracer.Start(ctx, "workflow.RegisterCase")
	defer func() { endSpan(span, err, reg.Degraded()) }()

	if err := required(
		[2]string{"name", in.Name},
		[2]string{"complainant_name", in.ComplainantName},
		[2]string{"complainant_mobile", in.ComplainantMobile},
		[2]string{"submitted_by", in.SubmittedBy},
	); err != nil {
		return Registration{}, err
	}

	c := &models.RegisteredCase{
		SubmittedBy:       strings.TrimSpace(in.SubmittedBy),
		Name:              strings.TrimSpace(in.Name),
		FatherName:        in.FatherName,
		Age:               in.Age,
		ComplainantName:   strings.TrimSpace(in.ComplainantName),
		ComplainantMobile: strings.TrimSpace(in.ComplainantMobile),
		NationalID:        in.NationalID,
		LastSeen:          in.LastSeen,
		Address:           in.Address,
		FaceMesh:          in.FaceMesh,
		BirthMarks:        in.BirthMarks,
	}
	id, err := e.store.CreateRegisteredCase(ctx, c)
	if err != nil {
		return Registration{}, err
	}
	observability.CasesRegistered.Inc()
	slog.Info("case registered", "case_id", id, "submitted_by", c.SubmittedBy)

	span.SetAttributes(attribute.String("case.id", id))
	reg = Registration{CaseID: id}
	res := e.gen.Generate(ctx, "registration_alert",
		textgen.RegistrationAlertPrompt(c.Name, c.Age, c.LastSeen, c.BirthMarks), e.gen.Defaults())
	reg.Alert = res.String()
	if !res.OK() {
		reg.GenerationErr = res.Err
		slog.Warn("alert generation failed", "case_id", id, "error", res.Err)
	} else if err := e.store.WriteGeneratedField(ctx, id, models.FieldAlertDraft, res.Text); err != nil {
		reg.GenerationErr = softWriteErr(models.FieldAlertDraft, err)
		slog.Error("store alert draft", "case_id", id, "error", err)
	}

	e.notify(ctx, models.CaseEvent{
		Type:        models.EventCaseRegistered,
		CaseID:      id,
		SubmittedBy: c.SubmittedBy,
		Status:      models.StatusNotFound,
		Degraded:    reg.Degraded(),
	})
	return reg, nil
}

type SubmitPublicInput struct {
	SubmittedBy string
	FaceMesh    string
	Location    string
	Mobile      string
	Email       string
	BirthMarks  string
}

// SubmitPublic stores a citizen sighting report with status NOT_FOUND.
func (e *Engine) SubmitPublic(ctx context.Context, in SubmitPublicInput) (string, error) {
	if err := required([2]string{"mobile", in.Mobile}); err != nil {
		return "", err
	}
	p := &models.PublicSubmission{
		SubmittedBy: strings.TrimSpace(in.SubmittedBy),
		FaceMesh:    in.FaceMesh,
		Location:    in.Location,
		Mobile:      strings.TrimSpace(in.Mobile),
		Email:       in.Email,
		BirthMarks:  in.BirthMarks,
		Status:      models.StatusNotFound,
	}
	id, err := e.store.CreatePublicSubmission(ctx, p)
	if err != nil {
		return "", err
	}
	observability.SubmissionsReceived.Inc()
	slog.Info("public submission received", "submission_id", id)

	e.notify(ctx, models.CaseEvent{
		Type:         models.EventSubmissionReceived,
		SubmissionID: id,
		SubmittedBy:  p.SubmittedBy,
		Status:       models.StatusNotFound,
	})
	return id, nil
}

// --- Matching ---

// MatchOutcome reports a committed match. Explanation and WitnessSummary are
// the generation results; GenerationErr joins every failure after the commit.
type MatchOutcome struct {
	CaseID         string
	SubmissionID   string
	Explanation    textgen.Result
	WitnessSummary textgen.Result
	GenerationErr  error
}

func (m MatchOutcome) Degraded() bool { return m.GenerationErr != nil }

// Message summarizes the outcome for display.
func (m MatchOutcome) Message() string {
	if m.Degraded() {
		return "match recorded, generation failed"
	}
	return "match recorded"
}

// ConfirmMatch links a NOT_FOUND case to a NOT_FOUND public submission and
// marks both FOUND. The transition commits before any text is generated and
// is never rolled back by a later generation or write failure.
//
// An id that names no record fails with errs.ErrNotFound. A case or
// submission that is already FOUND fails with errs.ErrConflict.
func (e *Engine) ConfirmMatch(ctx context.Context, registeredID, publicID string) (out MatchOutcome, err error) {
	ctx, span := tracer.Start(ctx, "workflow.ConfirmMatch", trace.WithAttributes(
		attribute.String("case.id", registeredID),
		attribute.String("submission.id", publicID),
	))
	defer func() { endSpan(span, err, out.Degraded()) }()

	if err := required([2]string{"registered_id", registeredID}, [2]string{"public_id", publicID}); err != nil {
		return MatchOutcome{}, err
	}
	if err := e.checkMatchable(ctx, registeredID, publicID); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			observability.MatchConflicts.Inc()
		}
		return MatchOutcome{}, err
	}

	// The store re-checks both statuses inside the transaction, so a racing
	// call that passed the check above still fails with ErrConflict here.
	if err := e.store.UpdateStatusAndMatch(ctx, registeredID, publicID); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			observability.MatchConflicts.Inc()
		}
		return MatchOutcome{}, err
	}
	observability.MatchesConfirmed.Inc()
	slog.Info("match confirmed", "case_id", registeredID, "submission_id", publicID)

	out = MatchOutcome{CaseID: registeredID, SubmissionID: publicID}
	out.GenerationErr = e.describeMatch(ctx, &out)
	if out.GenerationErr != nil {
		slog.Warn("match recorded, generation failed", "case_id", registeredID, "error", out.GenerationErr)
	}

	e.notify(ctx, models.CaseEvent{
		Type:         models.EventCaseMatched,
		CaseID:       registeredID,
		SubmissionID: publicID,
		Status:       models.StatusFound,
		Degraded:     out.Degraded(),
	})
	return out, nil
}

func (e *Engine) checkMatchable(ctx context.Context, registeredID, publicID string) error {
	c, err := e.store.GetRegisteredCase(ctx, registeredID)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("%w: registered case %s", errs.ErrNotFound, registeredID)
	}
	if c.Status != models.StatusNotFound || c.MatchedWith != nil {
		return fmt.Errorf("%w: registered case %s is already %s", errs.ErrConflict, registeredID, c.Status)
	}

	p, err := e.store.GetPublicSubmission(ctx, publicID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: public submission %s", errs.ErrNotFound, publicID)
	}
	if p.Status != models.StatusNotFound {
		return fmt.Errorf("%w: public submission %s is already %s", errs.ErrConflict, publicID, p.Status)
	}
	return nil
}

// describeMatch generates and stores the explanation and the witness summary
// of a committed match. Every failure is soft.
func (e *Engine) describeMatch(ctx context.Context, out *MatchOutcome) error {
	cd, err := e.store.GetRegisteredCaseDetail(ctx, out.CaseID)
	if err != nil {
		return fmt.Errorf("%w: load case detail: %w", errs.ErrGenerationSoft, err)
	}
	sd, err := e.store.GetPublicSubmissionDetail(ctx, out.SubmissionID)
	if err != nil {
		return fmt.Errorf("%w: load submission detail: %w", errs.ErrGenerationSoft, err)
	}

	var failures []error
	out.Explanation = e.gen.Generate(ctx, "match_explanation", textgen.MatchExplanationPrompt(cd, sd), e.gen.Defaults())
	out.WitnessSummary = e.gen.Generate(ctx, "submission_summary", textgen.SubmissionSummaryPrompt(sd), e.gen.Defaults())

	for _, g := range []struct {
		field models.GeneratedField
		res   textgen.Result
	}{
		{models.FieldMatchExplanation, out.Explanation},
		{models.FieldWitnessSummary, out.WitnessSummary},
	} {
		if !g.res.OK() {
			failures = append(failures, g.res.Err)
			continue
		}
		if err := e.store.WriteGeneratedField(ctx, out.CaseID, g.field, g.res.Text); err != nil {
			failures = append(failures, softWriteErr(g.field, err))
		}
	}
	return errors.Join(failures...)
}

// --- Alerts ---

// RegeneratedAlert carries the structured alert. Alert.Err is set when the
// alert was built from the fallback template.
type RegeneratedAlert struct {
	CaseID string
	Alert  textgen.Alert
}

func (r RegeneratedAlert) Degraded() bool { return r.Alert.Err != nil }

// RegenerateAlert rebuilds the alert from the current case detail and
// overwrites alert_draft with its markdown rendering. A template alert is
// stored when the provider fails.
func (e *Engine) RegenerateAlert(ctx context.Context, caseID string) (RegeneratedAlert, error) {
	cd, err := e.caseDetail(ctx, caseID)
	if err != nil {
		return RegeneratedAlert{}, err
	}
	alert := e.gen.GenerateAlert(ctx, textgen.AlertCaseFromDetail(cd))
	if alert.Err != nil {
		slog.Warn("alert regenerated from template", "case_id", caseID, "error", alert.Err)
	}
	if err := e.store.WriteGeneratedField(ctx, caseID, models.FieldAlertDraft, alert.Markdown); err != nil {
		return RegeneratedAlert{}, err
	}
	return RegeneratedAlert{CaseID: caseID, Alert: alert}, nil
}

// --- Supplementary generation ---

// ExplainCandidates explains why each submission may match the case. Nothing is stored.
func (e *Engine) ExplainCandidates(ctx context.Context, caseID string, submissionIDs []string) (textgen.Result, error) {
	if len(submissionIDs) == 0 {
		return textgen.Result{}, fmt.Errorf("%w: at least one submission id is required", errs.ErrValidation)
	}
	cd, err := e.caseDetail(ctx, caseID)
	if err != nil {
		return textgen.Result{}, err
	}
	candidates := make([]models.SubmissionDetail, 0, len(submissionIDs))
	for _, id := range submissionIDs {
		sd, err := e.store.GetPublicSubmissionDetail(ctx, id)
		if err != nil {
			return textgen.Result{}, err
		}
		if sd.Empty() {
			return textgen.Result{}, fmt.Errorf("%w: public submission %s", errs.ErrNotFound, id)
		}
		candidates = append(candidates, sd)
	}
	return e.gen.ExplainMatches(ctx, cd, candidates), nil
}

// PrioritizeLeads asks the provider to rank leads for a case and stores the
// ranking in lead_priority. A failed ranking leaves the stored one untouched.
func (e *Engine) PrioritizeLeads(ctx context.Context, caseID string, leads []textgen.Lead) (textgen.Result, error) {
	if len(leads) == 0 {
		return textgen.Result{}, fmt.Errorf("%w: at least one lead is required", errs.ErrValidation)
	}
	if _, err := e.caseDetail(ctx, caseID); err != nil {
		return textgen.Result{}, err
	}
	res := e.gen.PrioritizeLeads(ctx, leads)
	if !res.OK() {
		return res, nil
	}
	if err := e.store.WriteGeneratedField(ctx, caseID, models.FieldLeadPriority, res.Text); err != nil {
		return textgen.Result{}, err
	}
	return res, nil
}

// SummarizeWitness digests a witness statement for a case and stores the
// rendered bullets in witness_summary. The fallback digest is stored too.
func (e *Engine) SummarizeWitness(ctx context.Context, caseID, statement string) (textgen.WitnessSummary, error) {
	if err := required([2]string{"statement", statement}); err != nil {
		return textgen.WitnessSummary{}, err
	}
	if _, err := e.caseDetail(ctx, caseID); err != nil {
		return textgen.WitnessSummary{}, err
	}
	ws := e.gen.SummarizeWitness(ctx, statement)
	if ws.Err != nil {
		slog.Warn("witness summary fell back", "case_id", caseID, "error", ws.Err)
	}
	if err := e.store.WriteGeneratedField(ctx, caseID, models.FieldWitnessSummary, ws.Render()); err != nil {
		return textgen.WitnessSummary{}, err
	}
	return ws, nil
}

// --- Reads ---

type Dashboard struct {
	Found    int `json:"found"`
	NotFound int `json:"not_found"`
}

// DashboardCounts counts the submitter's cases in each status.
func (e *Engine) DashboardCounts(ctx context.Context, submitter string) (Dashboard, error) {
	found, err := e.store.CountByStatus(ctx, submitter, models.StatusFound)
	if err != nil {
		return Dashboard{}, err
	}
	notFound, err := e.store.CountByStatus(ctx, submitter, models.StatusNotFound)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{Found: found, NotFound: notFound}, nil
}

func (e *Engine) GetCase(ctx context.Context, id string) (*models.RegisteredCase, error) {
	c, err := e.store.GetRegisteredCase(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: registered case %s", errs.ErrNotFound, id)
	}
	return c, nil
}

func (e *Engine) GetSubmission(ctx context.Context, id string) (*models.PublicSubmission, error) {
	p, err := e.store.GetPublicSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: public submission %s", errs.ErrNotFound, id)
	}
	return p, nil
}

func (e *Engine) ListCases(ctx context.Context, submitter string, filter models.StatusFilter) ([]models.CaseSummary, error) {
	return e.store.ListRegisteredCases(ctx, submitter, filter)
}

func (e *Engine) ListSubmissions(ctx context.Context, filter models.StatusFilter, mode models.ProjectionMode) ([]models.SubmissionRow, error) {
	return e.store.ListPublicSubmissions(ctx, filter, mode)
}

// TrainingCases returns face meshes of the submitter's open cases.
func (e *Engine) TrainingCases(ctx context.Context, submitter string) ([]models.TrainingRow, error) {
	if err := required([2]string{"submitted_by", submitter}); err != nil {
		return nil, err
	}
	return e.store.ListTrainingCases(ctx, submitter)
}

// Ping checks the store.
func (e *Engine) Ping(ctx context.Context) error {
	return e.store.Ping(ctx)
}

func (e *Engine) caseDetail(ctx context.Context, id string) (models.CaseDetail, error) {
	cd, err := e.store.GetRegisteredCaseDetail(ctx, id)
	if err != nil {
		return models.CaseDetail{}, err
	}
	if cd.Empty() {
		return models.CaseDetail{}, fmt.Errorf("%w: registered case %s", errs.ErrNotFound, id)
	}
	return cd, nil
}
