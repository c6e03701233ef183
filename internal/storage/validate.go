package storage

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/your-org/casetrack/internal/errs"
	"github.com/your-org/casetrack/internal/models"
)

// Column widths of the two tables. Oversized values are rejected, never truncated.
const (
	maxCaseSubmittedBy       = 64
	maxSubmissionSubmittedBy = 128
	maxName                  = 128
	maxAge                   = 8
	maxMobile                = 10
	maxNationalID            = 12
	maxLastSeen              = 64
	maxLocation              = 128
	maxEmail                 = 64
	maxLongText              = 512
)

type fieldCheck struct {
	name     string
	value    string
	max      int
	required bool
}

func checkFields(checks []fieldCheck) error {
	for _, f := range checks {
		if f.required && strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", errs.ErrValidation, f.name)
		}
		if n := utf8.RuneCountInString(f.value); f.max > 0 && n > f.max {
			return fmt.Errorf("%w: %s exceeds %d characters (got %d)", errs.ErrValidation, f.name, f.max, n)
		}
	}
	return nil
}

func validateRegisteredCase(c *models.RegisteredCase) error {
	return checkFields([]fieldCheck{
		{"submitted_by", c.SubmittedBy, maxCaseSubmittedBy, true},
		{"name", c.Name, maxName, true},
		{"father_name", c.FatherName, maxName, false},
		{"age", c.Age, maxAge, false},
		{"complainant_name", c.ComplainantName, maxName, true},
		{"complainant_mobile", c.ComplainantMobile, maxMobile, false},
		{"national_id", c.NationalID, maxNationalID, false},
		{"last_seen", c.LastSeen, maxLastSeen, false},
		{"address", c.Address, maxLongText, false},
		{"birth_marks", c.BirthMarks, maxLongText, false},
	})
}

func validatePublicSubmission(p *models.PublicSubmission) error {
	if err := checkFields([]fieldCheck{
		{"submitted_by", p.SubmittedBy, maxSubmissionSubmittedBy, false},
		{"location", p.Location, maxLocation, false},
		{"mobile", p.Mobile, maxMobile, true},
		{"email", p.Email, maxEmail, false},
		{"birth_marks", p.BirthMarks, maxLongText, false},
	}); err != nil {
		return err
	}
	if p.Status != "" && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", errs.ErrValidation, p.Status)
	}
	return nil
}

func validateGeneratedField(field models.GeneratedField) error {
	if !field.Valid() {
		return fmt.Errorf("%w: unknown generated field %q", errs.ErrValidation, field)
	}
	return nil
}

func statusStrings(filter models.StatusFilter) []string {
	statuses := filter.Statuses()
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", errs.ErrPersistence, op, err)
}
