package models

import "time"

type CaseEventType string

const (
	EventCaseRegistered     CaseEventType = "case_registered"
	EventCaseMatched        CaseEventType = "case_matched"
	EventSubmissionReceived CaseEventType = "submission_received"
)

// CaseEvent is published to NATS after a state change commits and relayed
// to websocket clients.
type CaseEvent struct {
	Type         CaseEventType `json:"type"`
	CaseID       string        `json:"case_id,omitempty"`
	SubmissionID string        `json:"submission_id,omitempty"`
	SubmittedBy  string        `json:"submitted_by,omitempty"`
	Status       Status        `json:"status"`
	Degraded     bool          `json:"degraded,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
}
