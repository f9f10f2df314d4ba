package models

import "time"

// CycleStatus is the outcome of one scheduling cycle.
type CycleStatus string

const (
	// CycleStatusSucceeded means every registered runner executed.
	CycleStatusSucceeded CycleStatus = "succeeded"
	// CycleStatusPartial means the cycle stopped on a scheduling deadlock; the
	// runners listed in CycleReport.Skipped never executed.
	CycleStatusPartial CycleStatus = "partial"
	// CycleStatusFailed means a runner exhausted its retries and aborted the cycle.
	CycleStatusFailed CycleStatus = "failed"
)

// PendingRunner describes a runner that never became ready in a cycle.
type PendingRunner struct {
	Name    string         `json:"name"`
	Missing []LogicalTable `json:"missing_tables"`
}

// CycleReport summarizes one execution of the scheduler.
type CycleReport struct {
	CycleID    string          `json:"cycle_id" example:"0b7b5f7e-2d40-4b5f-8a1e-0f1f5c9f3a10"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Status     CycleStatus     `json:"status" example:"succeeded"`
	Passes     int             `json:"passes" example:"3"`
	Executed   []string        `json:"executed"`
	Skipped    []PendingRunner `json:"skipped,omitempty"`
	Filled     []LogicalTable  `json:"filled"`
	Error      string          `json:"error,omitempty"`
} // @name CycleReport

// Duration returns how long the cycle ran.
func (r *CycleReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunnerInfo describes a registered runner and its place in the execution plan.
type RunnerInfo struct {
	Position int            `json:"position" example:"1"`
	Name     string         `json:"name" example:"ProvidersWeeklyRunner"`
	Fills    []LogicalTable `json:"fills"`
	Depends  []LogicalTable `json:"depends"`
} // @name RunnerInfo

// ExecutionPlan is the order a cycle would execute runners in, computed
// without running anything.
type ExecutionPlan struct {
	Order      []RunnerInfo    `json:"order"`
	Deadlocked []PendingRunner `json:"deadlocked,omitempty"`
} // @name ExecutionPlan

// AggregationRun is a persisted cycle outcome, as stored in aggregation_runs.
type AggregationRun struct {
	ID            string      `json:"id"`
	Status        CycleStatus `json:"status"`
	StartedAt     time.Time   `json:"started_at"`
	FinishedAt    time.Time   `json:"finished_at"`
	ExecutedCount int         `json:"executed_count"`
	SkippedCount  int         `json:"skipped_count"`
	ErrorMessage  *string     `json:"error_message,omitempty"`
} // @name AggregationRun

// ListRunsQuery represents query parameters for listing aggregation runs.
type ListRunsQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=succeeded partial failed" example:"failed"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100" example:"20"`
} // @name ListRunsQuery

// RunFromReport converts a cycle report to its persisted form.
func RunFromReport(r *CycleReport) AggregationRun {
	run := AggregationRun{
		ID:            r.CycleID,
		Status:        r.Status,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
		ExecutedCount: len(r.Executed),
		SkippedCount:  len(r.Skipped),
	}
	if r.Error != "" {
		msg := r.Error
		run.ErrorMessage = &msg
	}
	return run
}
