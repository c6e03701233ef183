package models

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state shared by registered cases and public submissions.
type Status string

const (
	StatusNotFound Status = "NOT_FOUND"
	StatusFound    Status = "FOUND"
)

func (s Status) Valid() bool {
	return s == StatusNotFound || s == StatusFound
}

// StatusFilter selects rows by status on list operations.
type StatusFilter string

const (
	FilterAll      StatusFilter = "ALL"
	FilterFound    StatusFilter = "FOUND"
	FilterNotFound StatusFilter = "NOT_FOUND"
)

// Statuses expands the filter into the underlying status domain.
func (f StatusFilter) Statuses() []Status {
	switch f {
	case FilterFound:
		return []Status{StatusFound}
	case FilterNotFound:
		return []Status{StatusNotFound}
	default:
		return []Status{StatusNotFound, StatusFound}
	}
}

// ParseStatusFilter accepts the canonical names case-insensitively. Empty means ALL.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(FilterAll):
		return FilterAll, nil
	case string(FilterFound):
		return FilterFound, nil
	case string(FilterNotFound):
		return FilterNotFound, nil
	default:
		return "", fmt.Errorf("unknown status filter %q", s)
	}
}

// ProjectionMode selects the columns returned when listing public submissions.
type ProjectionMode string

const (
	// ProjectionTraining returns only id and face mesh.
	ProjectionTraining ProjectionMode = "TRAINING"
	// ProjectionDisplay returns the columns shown in submission tables.
	ProjectionDisplay ProjectionMode = "DISPLAY"
)

func ParseProjectionMode(s string) (ProjectionMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(ProjectionDisplay):
		return ProjectionDisplay, nil
	case string(ProjectionTraining):
		return ProjectionTraining, nil
	default:
		return "", fmt.Errorf("unknown projection mode %q", s)
	}
}
