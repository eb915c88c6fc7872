package models

import (
	"time"
)

// RunStatus is the lifecycle state of a research run
type RunStatus string

const (
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusError      RunStatus = "error"
)

// IsTerminal reports whether the status ends an execution
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusError
}

// CanTransition enforces in_progress -> {completed, error} and
// {completed, error} -> in_progress (feedback resubmission). Nothing else.
func (s RunStatus) CanTransition(next RunStatus) bool {
	switch s {
	case RunStatusInProgress:
		return next.IsTerminal()
	case RunStatusCompleted, RunStatusError:
		return next == RunStatusInProgress
	default:
		return false
	}
}

// RunState is the coordinator's record of one run
type RunState struct {
	RunID       string        `json:"run_id"`
	Topic       string        `json:"topic"`
	MaxAnalysts int           `json:"max_analysts"`
	Feedback    string        `json:"feedback,omitempty"`
	Status      RunStatus     `json:"status"`
	Analysts    []Analyst     `json:"analysts,omitempty"`
	Sections    []string      `json:"sections,omitempty"`
	FinalReport string        `json:"final_report,omitempty"`
	Error       string        `json:"error,omitempty"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     *time.Time    `json:"end_time,omitempty"`
	Exports     *ExportResult `json:"exports,omitempty"`
}

// Clone returns a deep copy safe to hand to callers outside the run lock
func (r *RunState) Clone() RunState {
	clone := *r
	if r.Analysts != nil {
		clone.Analysts = make([]Analyst, len(r.Analysts))
		copy(clone.Analysts, r.Analysts)
	}
	if r.Sections != nil {
		clone.Sections = make([]string, len(r.Sections))
		copy(clone.Sections, r.Sections)
	}
	if r.EndTime != nil {
		end := *r.EndTime
		clone.EndTime = &end
	}
	if r.Exports != nil {
		exports := *r.Exports
		clone.Exports = &exports
	}
	return clone
}

// Duration returns the elapsed run time, up to now for unfinished runs
func (r *RunState) Duration() time.Duration {
	if r.EndTime != nil {
		return r.EndTime.Sub(r.StartTime)
	}
	return time.Since(r.StartTime)
}

// ExportResult records where a completed run's documents were written.
// Each format is independent; a failed format carries its error and no path.
type ExportResult struct {
	Dir       string `json:"dir"`
	DOCXPath  string `json:"docx_path,omitempty"`
	PDFPath   string `json:"pdf_path,omitempty"`
	PDFPages  int    `json:"pdf_pages,omitempty"`
	DOCXError string `json:"docx_error,omitempty"`
	PDFError  string `json:"pdf_error,omitempty"`
}
