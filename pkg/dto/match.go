package dto

import "github.com/your-org/casetrack/internal/models"

type ConfirmMatchRequest struct {
	RegisteredID string `json:"registered_id" binding:"required"`
	PublicID     string `json:"public_id" binding:"required"`
}

// MatchResponse reports a committed match. Warning is set when the match was
// recorded but explanation or summary generation failed.
type MatchResponse struct {
	CaseID         string        `json:"case_id"`
	SubmissionID   string        `json:"submission_id"`
	Status         models.Status `json:"status"`
	Message        string        `json:"message"`
	Explanation    string        `json:"explanation"`
	WitnessSummary string        `json:"witness_summary"`
	Warning        string        `json:"warning,omitempty"`
}

type PhotoResponse struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type PhotoListResponse struct {
	Photos []string `json:"photos"`
	Total  int      `json:"total"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
