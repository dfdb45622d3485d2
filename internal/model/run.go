package model

import "time"

// RunStatus represents the current state of an enrichment run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run represents one pass over a lead workbook.
type Run struct {
	ID        string     `json:"id"`
	InputFile string     `json:"input_file"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult summarizes a completed run.
type RunResult struct {
	Leads          int         `json:"leads"`
	Skipped        int         `json:"skipped"`
	PriorityCounts map[int]int `json:"priority_counts,omitempty"`
	QualityCounts  map[string]int `json:"quality_counts,omitempty"`
	DurationMs     int64       `json:"duration_ms"`
	OutputFile     string      `json:"output_file,omitempty"`
	Error          string      `json:"error,omitempty"`
}

// LeadResult is the per-lead decision record persisted for audit.
type LeadResult struct {
	ID           string    `json:"id"`
	RunID        string    `json:"run_id"`
	TaxID        string    `json:"tax_id"`
	CompanyName  string    `json:"company_name"`
	Priority     int       `json:"priority"`
	Quality      Quality   `json:"quality"`
	Completeness float64   `json:"completeness"`
	Confidence   float64   `json:"confidence"`
	Sources      string    `json:"sources,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
