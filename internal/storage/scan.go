package storage

import (
	"time"

	"github.com/your-org/casetrack/internal/models"
)

// rowScanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const registeredCaseColumns = `id, submitted_by, name, father_name, age, complainant_name, complainant_mobile,
	national_id, last_seen, address, face_mesh, submitted_on, status, birth_marks, matched_with,
	alert_draft, match_explanation, lead_priority, witness_summary`

func scanRegisteredCase(row rowScanner) (*models.RegisteredCase, error) {
	c := &models.RegisteredCase{}
	err := row.Scan(&c.ID, &c.SubmittedBy, &c.Name, &c.FatherName, &c.Age, &c.ComplainantName,
		&c.ComplainantMobile, &c.NationalID, &c.LastSeen, &c.Address, &c.FaceMesh, &c.SubmittedOn,
		&c.Status, &c.BirthMarks, &c.MatchedWith,
		&c.AlertDraft, &c.MatchExplanation, &c.LeadPriority, &c.WitnessSummary)
	if err != nil {
		return nil, err
	}
	return c, nil
}

const publicSubmissionColumns = `id, submitted_by, face_mesh, location, mobile, email, status, birth_marks, submitted_on`

func scanPublicSubmission(row rowScanner) (*models.PublicSubmission, error) {
	p := &models.PublicSubmission{}
	err := row.Scan(&p.ID, &p.SubmittedBy, &p.FaceMesh, &p.Location, &p.Mobile, &p.Email,
		&p.Status, &p.BirthMarks, &p.SubmittedOn)
	if err != nil {
		return nil, err
	}
	return p, nil
}

const caseSummaryColumns = `id, name, age, status, last_seen, matched_with`

func scanCaseSummary(row rowScanner) (models.CaseSummary, error) {
	var s models.CaseSummary
	err := row.Scan(&s.ID, &s.Name, &s.Age, &s.Status, &s.LastSeen, &s.MatchedWith)
	return s, err
}

const submissionDisplayColumns = `id, status, location, mobile, birth_marks, submitted_on, submitted_by`

func scanSubmissionRow(row rowScanner, mode models.ProjectionMode) (models.SubmissionRow, error) {
	var r models.SubmissionRow
	if mode == models.ProjectionTraining {
		err := row.Scan(&r.ID, &r.FaceMesh)
		return r, err
	}
	var on time.Time
	err := row.Scan(&r.ID, &r.Status, &r.Location, &r.Mobile, &r.BirthMarks, &on, &r.SubmittedBy)
	if err == nil {
		r.SubmittedOn = &on
	}
	return r, err
}

const caseDetailColumns = `id, name, complainant_mobile, age, last_seen, birth_marks, address, submitted_by`

func scanCaseDetail(row rowScanner) (models.CaseDetail, error) {
	var d models.CaseDetail
	err := row.Scan(&d.ID, &d.Name, &d.ComplainantMobile, &d.Age, &d.LastSeen, &d.BirthMarks, &d.Address, &d.SubmittedBy)
	return d, err
}

const submissionDetailColumns = `id, location, submitted_by, mobile, birth_marks`

func scanSubmissionDetail(row rowScanner) (models.SubmissionDetail, error) {
	var d models.SubmissionDetail
	err := row.Scan(&d.ID, &d.Location, &d.SubmittedBy, &d.Mobile, &d.BirthMarks)
	return d, err
}
