package model

import "time"

// RunStatus represents the current state of an extraction run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusEmpty    RunStatus = "empty"
	RunStatusFailed   RunStatus = "failed"
)

// Run is a persisted extraction run: the query that triggered it, the
// strategies executed, and the outcome summary. Leads are stored separately
// keyed by run ID.
type Run struct {
	ID         string    `json:"id"`
	Niche      string    `json:"niche"`
	Location   string    `json:"location"`
	Strategies []string  `json:"strategies"`
	Status     RunStatus `json:"status"`
	LeadCount  int       `json:"lead_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
