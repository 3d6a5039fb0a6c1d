package guidance

import (
	"time"

	"github.com/Abraxas-365/compass/pkg/kernel"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

type ProcessingStep string

const (
	StepIntake    ProcessingStep = "intake"
	StepRouting   ProcessingStep = "routing"
	StepAnalysis  ProcessingStep = "analysis"
	StepTailoring ProcessingStep = "tailoring"
	StepRendering ProcessingStep = "rendering"
	StepSaving    ProcessingStep = "saving"
)

// PlanJob tracks one queued plan-generation request
type PlanJob struct {
	ID     kernel.JobID   `db:"id" json:"id"`
	PlanID *kernel.PlanID `db:"plan_id" json:"plan_id,omitempty"`

	Status JobStatus `db:"status" json:"status"`

	AttemptCount int `db:"attempt_count" json:"attempt_count"`
	MaxAttempts  int `db:"max_attempts" json:"max_attempts"`

	ErrorMessage string         `db:"error_message" json:"error_message,omitempty"`
	ErrorDetails map[string]any `db:"error_details" json:"error_details,omitempty"`

	CurrentStep        *ProcessingStep `db:"current_step" json:"current_step,omitempty"`
	ProgressPercentage int             `db:"progress_percentage" json:"progress_percentage"`

	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	StartedAt   *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	FailedAt    *time.Time `db:"failed_at" json:"failed_at,omitempty"`
	NextRetryAt *time.Time `db:"next_retry_at" json:"next_retry_at,omitempty"`

	RequestPayload GeneratePlanRequest `db:"request_payload" json:"request_payload"`
}

// JobStatusResponse is returned by status queries
type JobStatusResponse struct {
	JobID       kernel.JobID    `json:"job_id"`
	Status      JobStatus       `json:"status"`
	Message     string          `json:"message"`
	Progress    int             `json:"progress"`
	CurrentStep *ProcessingStep `json:"current_step,omitempty"`
	PlanID      *kernel.PlanID  `json:"plan_id,omitempty"`
	Error       *JobError       `json:"error,omitempty"`

	AttemptCount int        `json:"attempt_count,omitempty"`
	NextRetryAt  *time.Time `json:"next_retry_at,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`
}

// JobError carries failure details for failed jobs
type JobError struct {
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
