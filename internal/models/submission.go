package models

import "time"

type PublicSubmission struct {
	ID          string    `json:"id"`
	SubmittedBy string    `json:"submitted_by,omitempty"`
	FaceMesh    string    `json:"face_mesh"`
	Location    string    `json:"location,omitempty"`
	Mobile      string    `json:"mobile"`
	Email       string    `json:"email,omitempty"`
	Status      Status    `json:"status"`
	BirthMarks  string    `json:"birth_marks,omitempty"`
	SubmittedOn time.Time `json:"submitted_on"`
}

// SubmissionRow is a list projection. In TRAINING mode only ID and FaceMesh are set.
type SubmissionRow struct {
	ID          string     `json:"id"`
	FaceMesh    string     `json:"face_mesh,omitempty"`
	Status      Status     `json:"status,omitempty"`
	Location    string     `json:"location,omitempty"`
	Mobile      string     `json:"mobile,omitempty"`
	BirthMarks  string     `json:"birth_marks,omitempty"`
	SubmittedOn *time.Time `json:"submitted_on,omitempty"`
	SubmittedBy string     `json:"submitted_by,omitempty"`
}

// SubmissionDetail is the fixed projection used to build generation prompts.
type SubmissionDetail struct {
	ID          string `json:"id"`
	Location    string `json:"location"`
	SubmittedBy string `json:"submitted_by"`
	Mobile      string `json:"mobile"`
	BirthMarks  string `json:"birth_marks"`
}

func (d SubmissionDetail) Empty() bool { return d.ID == "" }
