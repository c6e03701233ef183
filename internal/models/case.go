package models

import "time"

type RegisteredCase struct {
	ID                string    `json:"id"`
	SubmittedBy       string    `json:"submitted_by"`
	Name              string    `json:"name"`
	FatherName        string    `json:"father_name"`
	Age               string    `json:"age"`
	ComplainantName   string    `json:"complainant_name"`
	ComplainantMobile string    `json:"complainant_mobile"`
	NationalID        string    `json:"national_id"`
	LastSeen          string    `json:"last_seen"`
	Address           string    `json:"address"`
	FaceMesh          string    `json:"face_mesh"`
	SubmittedOn       time.Time `json:"submitted_on"`
	Status            Status    `json:"status"`
	BirthMarks        string    `json:"birth_marks"`
	MatchedWith       *string   `json:"matched_with,omitempty"`

	AlertDraft       *string `json:"alert_draft,omitempty"`
	MatchExplanation *string `json:"match_explanation,omitempty"`
	LeadPriority     *string `json:"lead_priority,omitempty"`
	WitnessSummary   *string `json:"witness_summary,omitempty"`
}

// Consistent reports whether the matched_with/status invariant holds.
func (c *RegisteredCase) Consistent() bool {
	return (c.MatchedWith != nil) == (c.Status == StatusFound)
}

// CaseSummary is the list projection of a registered case.
type CaseSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Age         string  `json:"age"`
	Status      Status  `json:"status"`
	LastSeen    string  `json:"last_seen"`
	MatchedWith *string `json:"matched_with,omitempty"`
}

// CaseDetail is the fixed projection used to build generation prompts.
// A zero value means the case does not exist.
type CaseDetail struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	ComplainantMobile string `json:"complainant_mobile"`
	Age               string `json:"age"`
	LastSeen          string `json:"last_seen"`
	BirthMarks        string `json:"birth_marks"`
	Address           string `json:"address,omitempty"`
	SubmittedBy       string `json:"submitted_by,omitempty"`
}

func (d CaseDetail) Empty() bool { return d.ID == "" }

// TrainingRow pairs an entity id with its face-mesh payload.
type TrainingRow struct {
	ID       string `json:"id"`
	FaceMesh string `json:"face_mesh"`
}

// GeneratedField names one of the provider-written text columns of a registered case.
type GeneratedField string

const (
	FieldAlertDraft       GeneratedField = "alert_draft"
	FieldMatchExplanation GeneratedField = "match_explanation"
	FieldLeadPriority     GeneratedField = "lead_priority"
	FieldWitnessSummary   GeneratedField = "witness_summary"
)

func (f GeneratedField) Valid() bool {
	switch f {
	case FieldAlertDraft, FieldMatchExplanation, FieldLeadPriority, FieldWitnessSummary:
		return true
	}
	return false
}
