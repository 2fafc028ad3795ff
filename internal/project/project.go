// Package project owns project records and the analysis job state machine:
// created, queued, analyzing, then completed or failed.
package project

import (
	"errors"
	"time"

	"github.com/julianshen/codesage/internal/model"
)

// Status is the lifecycle state of a project. Only the Controller writes it.
type Status string

const (
	StatusCreated   Status = "created"
	StatusQueued    Status = "queued"
	StatusAnalyzing Status = "analyzing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether s ends an analysis run.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

var (
	// ErrNotFound is returned for unknown projects and missing analyses.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller does not own the project.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated is returned when no caller identity is supplied.
	ErrUnauthenticated = errors.New("missing caller identity")
	// ErrInvalidURL is returned when a project is created with a URL the
	// fetcher cannot clone.
	ErrInvalidURL = errors.New("invalid repository url")
)

// Project is the persisted project record.
type Project struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	RemoteURL   string         `json:"remote_url" yaml:"remote_url"`
	OwnerUID    string         `json:"owner_uid" yaml:"owner_uid"`
	Status      Status         `json:"status" yaml:"status"`
	Error       string         `json:"error,omitempty" yaml:"error,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Summary     *model.Summary `json:"summary,omitempty" yaml:"summary,omitempty"`
	Settings    map[string]any `json:"settings" yaml:"settings"`
	CreatedAt   time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" yaml:"updated_at"`
	AnalyzedAt  *time.Time     `json:"analyzed_at,omitempty" yaml:"analyzed_at,omitempty"`
}
