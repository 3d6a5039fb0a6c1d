package guidance

import (
	"context"
	"time"

	"github.com/Abraxas-365/compass/pkg/kernel"
)

// Repository persists completed career plans
type Repository interface {
	// Create creates a new plan
	Create(ctx context.Context, plan *CareerPlan) error

	// GetByID retrieves a plan by ID
	GetByID(ctx context.Context, id kernel.PlanID) (*CareerPlan, error)

	// Delete deletes a plan
	Delete(ctx context.Context, id kernel.PlanID) error

	// List retrieves the given plans with pagination, newest first.
	// Listing is always scoped to explicit IDs; plans are anonymous and
	// there is no global enumeration.
	List(ctx context.Context, ids []kernel.PlanID, pagination kernel.PaginationOptions) (*kernel.Paginated[CareerPlan], error)

	// UpdateResumePDFPath records where the generated PDF was stored
	UpdateResumePDFPath(ctx context.Context, id kernel.PlanID, path string) error

	// SimilarPlans finds plans whose profile embedding is closest to the
	// given plan's, excluding the plan itself
	SimilarPlans(ctx context.Context, req SimilarPlansRequest) ([]SimilarPlanResult, error)
}

// JobRepository persists plan-generation jobs
type JobRepository interface {
	Create(ctx context.Context, job *PlanJob) error
	Update(ctx context.Context, job *PlanJob) error
	GetByID(ctx context.Context, jobID kernel.JobID) (*PlanJob, error)

	// Status helpers
	MarkAsProcessing(ctx context.Context, jobID kernel.JobID) error
	MarkAsCompleted(ctx context.Context, jobID kernel.JobID, planID kernel.PlanID) error
	MarkAsFailed(ctx context.Context, jobID kernel.JobID, errorMsg string, errorDetails map[string]any) error
	UpdateProgress(ctx context.Context, jobID kernel.JobID, step ProcessingStep, percentage int) error
}

// JobQueue is the queue carrying pending plan jobs to workers
type JobQueue interface {
	// Enqueue adds a job to the queue
	Enqueue(ctx context.Context, jobID kernel.JobID, payload any) error

	// Dequeue gets a job from the queue (blocking with timeout)
	Dequeue(ctx context.Context, timeout time.Duration) ([]byte, error)

	// EnqueueDelayed schedules a job for later processing (for retries)
	EnqueueDelayed(ctx context.Context, jobID kernel.JobID, payload any, delay time.Duration) error

	// MoveDelayedToReady moves delayed jobs that are ready to the main queue
	MoveDelayedToReady(ctx context.Context) (int, error)

	// GetQueueSize returns the number of jobs in the queue
	GetQueueSize(ctx context.Context) (int64, error)

	// Clear removes all jobs from the queue (use with caution)
	Clear(ctx context.Context) error
}

// Completer abstracts the LLM call shapes used by the pipeline so tests
// can substitute a mock
type Completer interface {
	// CompleteJSON runs a prompt in JSON mode and decodes into out
	CompleteJSON(ctx context.Context, system, user string, out any) error

	// Complete runs a prompt and returns the raw text response
	Complete(ctx context.Context, system, user string) (string, error)
}

// ProfileScraper fetches visible text from a public profile URL
type ProfileScraper interface {
	FetchProfileText(ctx context.Context, url string) (string, error)
}

// ChatHistoryStore keeps the rolling follow-up chat history per plan
type ChatHistoryStore interface {
	Append(ctx context.Context, planID kernel.PlanID, role, content string) error
	History(ctx context.Context, planID kernel.PlanID, limit int) ([]ChatTurn, error)
	Clear(ctx context.Context, planID kernel.PlanID) error
}

// ChatTurn is one message of the follow-up conversation
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
