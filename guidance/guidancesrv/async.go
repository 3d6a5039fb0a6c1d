package guidancesrv

import (
	"context"
	"fmt"
	"time"

	"github.com/Abraxas-365/compass/guidance"
	"github.com/Abraxas-365/compass/internal/ai/embeddings"
	"github.com/Abraxas-365/compass/pkg/kernel"
	"github.com/Abraxas-365/compass/pkg/logx"
	"github.com/google/uuid"
)

// GeneratePlanAsync - Queue the plan request for background processing
func (s *Service) GeneratePlanAsync(ctx context.Context, req guidance.GeneratePlanRequest) (*guidance.JobStatusResponse, error) {
	logx.Infof("Queueing plan generation: File=%s, RoleChoice=%s", req.ResumeFileName, req.RoleChoice)

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	// Create job record
	jobID := kernel.NewJobID(uuid.NewString())
	job := &guidance.PlanJob{
		ID:                 jobID,
		Status:             guidance.JobStatusPending,
		AttemptCount:       0,
		MaxAttempts:        3,
		ProgressPercentage: 0,
		CreatedAt:          time.Now(),
		RequestPayload:     req,
	}

	// Save job to database
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, guidance.ErrJobCreationFailed().
			WithDetail("file_name", req.ResumeFileName).
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	// Enqueue to Redis
	if err := s.queue.Enqueue(ctx, jobID, job); err != nil {
		// Mark job as failed if we can't queue it
		_ = s.jobRepo.MarkAsFailed(ctx, jobID, "failed to enqueue", map[string]any{
			"error": err.Error(),
		})

		return nil, guidance.ErrQueueEnqueueFailed().
			WithDetail("job_id", jobID).
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	logx.Infof("Job queued successfully: JobID=%s", jobID)

	return &guidance.JobStatusResponse{
		JobID:     jobID,
		Status:    guidance.JobStatusPending,
		Message:   "Plan generation queued",
		Progress:  0,
		CreatedAt: job.CreatedAt,
	}, nil
}

// ProcessPlanJob - Worker function to process a queued plan job
func (s *Service) ProcessPlanJob(ctx context.Context, job *guidance.PlanJob) error {
	logx.Infof("Processing job: JobID=%s, Attempt=%d/%d", job.ID, job.AttemptCount+1, job.MaxAttempts)

	// Mark as processing
	if err := s.jobRepo.MarkAsProcessing(ctx, job.ID); err != nil {
		return guidance.ErrJobUpdateFailed().
			WithDetail("job_id", job.ID).
			WithDetail("status", "processing").
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	req := job.RequestPayload

	// Intake: read the resume, extract text, scrape LinkedIn
	_ = s.jobRepo.UpdateProgress(ctx, job.ID, guidance.StepIntake, 10)
	profile, err := s.buildProfile(ctx, req)
	if err != nil {
		return s.handleJobError(ctx, job, "intake_failed", err)
	}

	// Routing: resolve the target career
	_ = s.jobRepo.UpdateProgress(ctx, job.ID, guidance.StepRouting, 25)
	career, err := s.resolveCareer(ctx, req, profile.Text)
	if err != nil {
		return s.handleJobError(ctx, job, "role_resolution_failed", err)
	}

	// Analysis: market analyst
	_ = s.jobRepo.UpdateProgress(ctx, job.ID, guidance.StepAnalysis, 40)
	overview, analysis, err := s.analyzeMarket(ctx, career)
	if err != nil {
		return s.handleJobError(ctx, job, "market_analysis_failed", err)
	}

	// Tailoring: reviewer and tailor, then the action plan
	_ = s.jobRepo.UpdateProgress(ctx, job.ID, guidance.StepTailoring, 55)
	result := &pipelineResult{
		ChosenCareer:   career,
		CareerOverview: overview,
		SkillAnalysis:  analysis,
	}

	feedback, err := s.reviewProfile(ctx, profile.Text, career, analysis)
	if err != nil {
		return s.handleJobError(ctx, job, "profile_review_failed", err)
	}
	result.ProfileFeedback = feedback

	tailored, err := s.tailorResume(ctx, profile.Text, career, analysis)
	if err != nil {
		return s.handleJobError(ctx, job, "resume_tailoring_failed", err)
	}
	result.TailoredResume = tailored

	roadmap, portfolio, err := s.createActionPlan(ctx, career, analysis, feedback)
	if err != nil {
		return s.handleJobError(ctx, job, "action_plan_failed", err)
	}
	result.LearningRoadmap = roadmap
	result.PortfolioPlan = portfolio

	plan := s.assemblePlan(req, profile, result)

	// Rendering: tailored resume PDF (non-fatal)
	_ = s.jobRepo.UpdateProgress(ctx, job.ID, guidance.StepRendering, 75)
	if plan.TailoredResume.IsRenderable() {
		if pdfPath, renderErr := s.renderAndStoreResumePDF(ctx, plan); renderErr != nil {
			logx.Warnf("Resume PDF render failed for plan %s: %v", plan.ID, renderErr)
		} else {
			plan.ResumePDFPath = pdfPath
		}
	}

	// Saving: embedding (non-fatal) and the plan record
	_ = s.jobRepo.UpdateProgress(ctx, job.ID, guidance.StepSaving, 90)
	if embedding, embedErr := s.embedder.Generate(ctx, profile.Text); embedErr != nil {
		logx.Warnf("Profile embedding failed for plan %s: %v", plan.ID, embedErr)
	} else {
		plan.ProfileEmbedding = embedding
		plan.EmbeddingModel = embeddings.Model
	}

	if err := s.repo.Create(ctx, plan); err != nil {
		return s.handleJobError(ctx, job, "save_failed", err)
	}

	// Mark as completed
	if err := s.jobRepo.MarkAsCompleted(ctx, job.ID, plan.ID); err != nil {
		logx.Errorf("Failed to mark job as completed: %v", err)
		// Don't fail the job if we can't update status - plan was created successfully
	}

	_ = s.jobRepo.UpdateProgress(ctx, job.ID, guidance.StepSaving, 100)

	logx.Infof("Job completed successfully: JobID=%s, PlanID=%s", job.ID, plan.ID)
	return nil
}

// handleJobError handles job processing errors with retry logic
func (s *Service) handleJobError(ctx context.Context, job *guidance.PlanJob, errorType string, err error) error {
	job.AttemptCount++

	errorDetails := map[string]any{
		"error":        err.Error(),
		"error_type":   errorType,
		"attempt":      job.AttemptCount,
		"max_attempts": job.MaxAttempts,
		"file_path":    job.RequestPayload.ResumeFilePath,
		"file_name":    job.RequestPayload.ResumeFileName,
	}

	// Check if we should retry
	if job.AttemptCount < job.MaxAttempts {
		// Calculate exponential backoff: 2^attempt minutes
		retryDelay := time.Duration(1<<uint(job.AttemptCount)) * time.Minute
		nextRetry := time.Now().Add(retryDelay)
		job.NextRetryAt = &nextRetry

		logx.Warnf("Job failed, will retry: JobID=%s, Attempt=%d/%d, NextRetry=%v, Error=%s",
			job.ID, job.AttemptCount, job.MaxAttempts, nextRetry, errorType)

		// Enqueue for retry
		if queueErr := s.queue.EnqueueDelayed(ctx, job.ID, job, retryDelay); queueErr != nil {
			logx.Errorf("Failed to enqueue for retry: %v", queueErr)

			// If we can't enqueue, mark as failed
			_ = s.jobRepo.MarkAsFailed(ctx, job.ID,
				fmt.Sprintf("%s (retry enqueue failed)", errorType),
				errorDetails)

			return guidance.ErrJobRetryFailed().
				WithDetail("job_id", job.ID).
				WithDetail("error_type", errorType).
				WithDetails(errorDetails)
		}

		// Update job with retry info
		job.ErrorMessage = fmt.Sprintf("%s (will retry)", errorType)
		job.ErrorDetails = errorDetails
		job.Status = guidance.JobStatusPending // Reset to pending for retry

		if updateErr := s.jobRepo.Update(ctx, job); updateErr != nil {
			logx.Errorf("Failed to update job for retry: %v", updateErr)
		}

		return guidance.ErrJobFailed().
			WithDetail("job_id", job.ID).
			WithDetail("error_type", errorType).
			WithDetail("will_retry", true).
			WithDetail("next_retry_at", nextRetry).
			WithDetails(errorDetails)
	}

	// Max attempts reached - mark as permanently failed
	logx.Errorf("Job permanently failed: JobID=%s, Error=%s, Attempts=%d/%d",
		job.ID, errorType, job.AttemptCount, job.MaxAttempts)

	_ = s.jobRepo.MarkAsFailed(ctx, job.ID, errorType, errorDetails)

	return guidance.ErrJobMaxRetriesReached().
		WithDetail("job_id", job.ID).
		WithDetail("error_type", errorType).
		WithDetail("final_attempt", job.AttemptCount).
		WithDetails(errorDetails)
}

// GetJobStatus retrieves the current status of a job
func (s *Service) GetJobStatus(ctx context.Context, jobID kernel.JobID) (*guidance.JobStatusResponse, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, guidance.ErrJobNotFound().
			WithDetail("job_id", jobID)
	}

	response := &guidance.JobStatusResponse{
		JobID:     job.ID,
		Status:    job.Status,
		Progress:  job.ProgressPercentage,
		CreatedAt: job.CreatedAt,
	}

	// Set message based on status
	switch job.Status {
	case guidance.JobStatusPending:
		if job.AttemptCount > 0 {
			response.Message = fmt.Sprintf("Job pending retry (attempt %d/%d)", job.AttemptCount, job.MaxAttempts)
		} else {
			response.Message = "Job queued and waiting to be processed"
		}
		if job.NextRetryAt != nil {
			response.NextRetryAt = job.NextRetryAt
		}

	case guidance.JobStatusProcessing:
		response.Message = fmt.Sprintf("Generating plan: %v", job.CurrentStep)
		response.CurrentStep = job.CurrentStep
		response.StartedAt = job.StartedAt

	case guidance.JobStatusCompleted:
		response.Message = "Career plan generated successfully"
		response.PlanID = job.PlanID
		response.CompletedAt = job.CompletedAt

	case guidance.JobStatusFailed:
		response.Message = job.ErrorMessage
		response.Error = &guidance.JobError{
			Message: job.ErrorMessage,
			Details: job.ErrorDetails,
		}
		response.FailedAt = job.FailedAt
		response.AttemptCount = job.AttemptCount
	}

	return response, nil
}

// RetryFailedJob manually retries a failed job
func (s *Service) RetryFailedJob(ctx context.Context, jobID kernel.JobID) (*guidance.JobStatusResponse, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, guidance.ErrJobNotFound().
			WithDetail("job_id", jobID)
	}

	// Can only retry failed jobs
	if job.Status != guidance.JobStatusFailed {
		return nil, guidance.ErrJobUpdateFailed().
			WithDetail("job_id", jobID).
			WithDetail("current_status", job.Status).
			WithDetail("required_status", guidance.JobStatusFailed)
	}

	// Reset job for retry
	job.Status = guidance.JobStatusPending
	job.AttemptCount = 0 // Reset attempt count for manual retry
	job.ErrorMessage = ""
	job.ErrorDetails = nil
	job.FailedAt = nil
	job.NextRetryAt = nil
	job.ProgressPercentage = 0
	job.CurrentStep = nil

	// Update in database
	if err := s.jobRepo.Update(ctx, job); err != nil {
		return nil, guidance.ErrJobUpdateFailed().
			WithDetail("job_id", jobID).
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	// Re-enqueue
	if err := s.queue.Enqueue(ctx, jobID, job); err != nil {
		// Mark as failed again
		_ = s.jobRepo.MarkAsFailed(ctx, jobID, "failed to re-enqueue", map[string]any{
			"error": err.Error(),
		})

		return nil, guidance.ErrQueueEnqueueFailed().
			WithDetail("job_id", jobID).
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	logx.Infof("Job manually retried: JobID=%s", jobID)

	return &guidance.JobStatusResponse{
		JobID:     jobID,
		Status:    guidance.JobStatusPending,
		Message:   "Job requeued for processing",
		Progress:  0,
		CreatedAt: job.CreatedAt,
	}, nil
}
