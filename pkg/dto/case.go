package dto

import "github.com/your-org/casetrack/internal/models"

// TimeFormat is the layout used for every timestamp in API responses.
const TimeFormat = "2006-01-02T15:04:05Z"

// CreateCaseRequest carries the registration form. The submitter comes from
// the X-Submitted-By header, not the body.
type CreateCaseRequest struct {
	Name              string `json:"name"`
	FatherName        string `json:"father_name"`
	Age               string `json:"age"`
	ComplainantName   string `json:"complainant_name"`
	ComplainantMobile string `json:"complainant_mobile"`
	NationalID        string `json:"national_id"`
	LastSeen          string `json:"last_seen"`
	Address           string `json:"address"`
	FaceMesh          string `json:"face_mesh"`
	BirthMarks        string `json:"birth_marks"`
}

type RegisterCaseResponse struct {
	ID      string        `json:"id"`
	Status  models.Status `json:"status"`
	Alert   string        `json:"alert"`
	Warning string        `json:"warning,omitempty"`
}

type CaseResponse struct {
	ID                string        `json:"id"`
	SubmittedBy       string        `json:"submitted_by"`
	Name              string        `json:"name"`
	FatherName        string        `json:"father_name,omitempty"`
	Age               string        `json:"age,omitempty"`
	ComplainantName   string        `json:"complainant_name"`
	ComplainantMobile string        `json:"complainant_mobile"`
	NationalID        string        `json:"national_id,omitempty"`
	LastSeen          string        `json:"last_seen,omitempty"`
	Address           string        `json:"address,omitempty"`
	BirthMarks        string        `json:"birth_marks,omitempty"`
	Status            models.Status `json:"status"`
	MatchedWith       *string       `json:"matched_with"`
	AlertDraft        *string       `json:"alert_draft,omitempty"`
	MatchExplanation  *string       `json:"match_explanation,omitempty"`
	LeadPriority      *string       `json:"lead_priority,omitempty"`
	WitnessSummary    *string       `json:"witness_summary,omitempty"`
	SubmittedOn       string        `json:"submitted_on"`
}

// NewCaseResponse converts a stored case. The face mesh is omitted; it is
// served only by the training endpoint.
func NewCaseResponse(c *models.RegisteredCase) CaseResponse {
	return CaseResponse{
		ID:                c.ID,
		SubmittedBy:       c.SubmittedBy,
		Name:              c.Name,
		FatherName:        c.FatherName,
		Age:               c.Age,
		ComplainantName:   c.ComplainantName,
		ComplainantMobile: c.ComplainantMobile,
		NationalID:        c.NationalID,
		LastSeen:          c.LastSeen,
		Address:           c.Address,
		BirthMarks:        c.BirthMarks,
		Status:            c.Status,
		MatchedWith:       c.MatchedWith,
		AlertDraft:        c.AlertDraft,
		MatchExplanation:  c.MatchExplanation,
		LeadPriority:      c.LeadPriority,
		WitnessSummary:    c.WitnessSummary,
		SubmittedOn:       c.SubmittedOn.Format(TimeFormat),
	}
}

type CaseListResponse struct {
	Cases []models.CaseSummary `json:"cases"`
	Total int                  `json:"total"`
}

type CaseQuery struct {
	SubmittedBy string `form:"submitted_by"`
	Status      string `form:"status"`
}

type TrainingListResponse struct {
	Rows  []models.TrainingRow `json:"rows"`
	Total int                  `json:"total"`
}

type AlertResponse struct {
	CaseID   string `json:"case_id"`
	Short    string `json:"short"`
	Long     string `json:"long"`
	Markdown string `json:"markdown"`
	Fallback bool   `json:"fallback"`
	Warning  string `json:"warning,omitempty"`
}

type ExplainRequest struct {
	SubmissionIDs []string `json:"submission_ids" binding:"required"`
}

// GeneratedTextResponse carries free-text provider output. On a soft failure
// Text holds the "[LLM ERROR]" string and Warning is set.
type GeneratedTextResponse struct {
	CaseID  string `json:"case_id"`
	Text    string `json:"text"`
	Warning string `json:"warning,omitempty"`
}

type Lead struct {
	ID                 string  `json:"id" binding:"required"`
	Score              float64 `json:"score"`
	TimeSecondsAgo     int64   `json:"time_seconds_ago"`
	WitnessReliability float64 `json:"witness_reliability"`
}

type LeadsRequest struct {
	Leads []Lead `json:"leads" binding:"required,dive"`
}

type WitnessRequest struct {
	Statement string `json:"statement"`
}

type WitnessResponse struct {
	CaseID   string   `json:"case_id"`
	Summary  []string `json:"summary"`
	Persons  []string `json:"persons"`
	Places   []string `json:"places"`
	Times    []string `json:"times"`
	Fallback bool     `json:"fallback"`
	Warning  string   `json:"warning,omitempty"`
}

type DashboardResponse struct {
	Submitter string `json:"submitter"`
	Found     int    `json:"found"`
	NotFound  int    `json:"not_found"`
}
