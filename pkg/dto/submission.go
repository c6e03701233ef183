package dto

import "github.com/your-org/casetrack/internal/models"

type CreateSubmissionRequest struct {
	FaceMesh   string `json:"face_mesh"`
	Location   string `json:"location"`
	Mobile     string `json:"mobile"`
	Email      string `json:"email"`
	BirthMarks string `json:"birth_marks"`
}

type CreateSubmissionResponse struct {
	ID     string        `json:"id"`
	Status models.Status `json:"status"`
}

type SubmissionResponse struct {
	ID          string        `json:"id"`
	SubmittedBy string        `json:"submitted_by,omitempty"`
	Location    string        `json:"location,omitempty"`
	Mobile      string        `json:"mobile"`
	Email       string        `json:"email,omitempty"`
	BirthMarks  string        `json:"birth_marks,omitempty"`
	Status      models.Status `json:"status"`
	SubmittedOn string        `json:"submitted_on"`
}

func NewSubmissionResponse(p *models.PublicSubmission) SubmissionResponse {
	return SubmissionResponse{
		ID:          p.ID,
		SubmittedBy: p.SubmittedBy,
		Location:    p.Location,
		Mobile:      p.Mobile,
		Email:       p.Email,
		BirthMarks:  p.BirthMarks,
		Status:      p.Status,
		SubmittedOn: p.SubmittedOn.Format(TimeFormat),
	}
}

type SubmissionListResponse struct {
	Submissions []models.SubmissionRow `json:"submissions"`
	Total       int                    `json:"total"`
}

type SubmissionQuery struct {
	Status string `form:"status"`
	Mode   string `form:"mode"`
}
