package guidancesrv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abraxas-365/compass/guidance"
	"github.com/Abraxas-365/compass/pkg/kernel"
	"github.com/stretchr/testify/require"
)

func validAsyncRequest() guidance.GeneratePlanRequest {
	return guidance.GeneratePlanRequest{
		ResumeFilePath: "uploads/2026/08/abc.pdf",
		ResumeFileName: "resume.pdf",
		RoleChoice:     "Data Analyst",
	}
}

func TestGeneratePlanAsyncQueuesJob(t *testing.T) {
	h := newTestHarness()

	resp, err := h.service.GeneratePlanAsync(context.Background(), validAsyncRequest())
	require.NoError(t, err)
	require.Equal(t, guidance.JobStatusPending, resp.Status)
	require.False(t, resp.JobID.IsEmpty())
	require.Equal(t, 0, resp.Progress)

	// The job record exists and the payload is on the queue
	job, err := h.jobRepo.GetByID(context.Background(), resp.JobID)
	require.NoError(t, err)
	require.Equal(t, guidance.JobStatusPending, job.Status)
	require.Equal(t, 3, job.MaxAttempts)
	require.Equal(t, "resume.pdf", job.RequestPayload.ResumeFileName)

	size, err := h.queue.GetQueueSize(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), size)
}

func TestGeneratePlanAsyncValidatesRequest(t *testing.T) {
	h := newTestHarness()

	_, err := h.service.GeneratePlanAsync(context.Background(), guidance.GeneratePlanRequest{
		RoleChoice: "Data Analyst",
	})
	requireErrCode(t, err, guidance.CodeInvalidInput)

	_, err = h.service.GeneratePlanAsync(context.Background(), guidance.GeneratePlanRequest{
		ResumeFilePath: "uploads/abc.pdf",
		ResumeFileName: "resume.pdf",
	})
	requireErrCode(t, err, guidance.CodeInvalidInput)
}

func TestGeneratePlanAsyncEnqueueFailureMarksJobFailed(t *testing.T) {
	h := newTestHarness()
	h.queue.enqueueErr = errors.New("redis down")

	_, err := h.service.GeneratePlanAsync(context.Background(), validAsyncRequest())
	requireErrCode(t, err, guidance.CodeQueueEnqueueFailed)

	// The orphaned job record must be marked failed
	var failed int
	for _, job := range h.jobRepo.jobs {
		if job.Status == guidance.JobStatusFailed {
			failed++
		}
	}
	require.Equal(t, 1, failed)
}

////////////////////////////////////////////////////////////////////////////////

func TestProcessPlanJobRetriesOnFailure(t *testing.T) {
	h := newTestHarness()

	// A non-PDF upload fails intake deterministically
	req := validAsyncRequest()
	req.ResumeFileName = "resume.docx"

	resp, err := h.service.GeneratePlanAsync(context.Background(), req)
	require.NoError(t, err)

	job, err := h.jobRepo.GetByID(context.Background(), resp.JobID)
	require.NoError(t, err)

	err = h.service.ProcessPlanJob(context.Background(), job)
	requireErrCode(t, err, guidance.CodeJobFailed)

	// First failure schedules a delayed retry and resets the job to pending
	require.Len(t, h.queue.delayed, 1)
	require.Equal(t, 2*time.Minute, h.queue.delayed[0].delay)

	stored, err := h.jobRepo.GetByID(context.Background(), resp.JobID)
	require.NoError(t, err)
	require.Equal(t, guidance.JobStatusPending, stored.Status)
	require.Equal(t, 1, stored.AttemptCount)
	require.Contains(t, stored.ErrorMessage, "intake_failed")
	require.Contains(t, stored.ErrorMessage, "will retry")
}

func TestProcessPlanJobMaxRetriesFailsPermanently(t *testing.T) {
	h := newTestHarness()

	req := validAsyncRequest()
	req.ResumeFileName = "resume.docx"

	resp, err := h.service.GeneratePlanAsync(context.Background(), req)
	require.NoError(t, err)

	job, err := h.jobRepo.GetByID(context.Background(), resp.JobID)
	require.NoError(t, err)
	job.AttemptCount = job.MaxAttempts - 1

	err = h.service.ProcessPlanJob(context.Background(), job)
	requireErrCode(t, err, guidance.CodeJobMaxRetries)

	require.Empty(t, h.queue.delayed)

	stored, err := h.jobRepo.GetByID(context.Background(), resp.JobID)
	require.NoError(t, err)
	require.Equal(t, guidance.JobStatusFailed, stored.Status)
	require.Equal(t, "intake_failed", stored.ErrorMessage)
	require.NotNil(t, stored.FailedAt)
}

func TestProcessPlanJobCompletes(t *testing.T) {
	h := newTestHarness()
	h.cannedPipelineResponses()
	h.extractor.text = extractedResumeText

	resp, err := h.service.GeneratePlanAsync(context.Background(), intakeRequest(t, h))
	require.NoError(t, err)

	job, err := h.jobRepo.GetByID(context.Background(), resp.JobID)
	require.NoError(t, err)
	require.NoError(t, h.service.ProcessPlanJob(context.Background(), job))

	stored, err := h.jobRepo.GetByID(context.Background(), resp.JobID)
	require.NoError(t, err)
	require.Equal(t, guidance.JobStatusCompleted, stored.Status)
	require.NotNil(t, stored.PlanID)
	require.Equal(t, 100, stored.ProgressPercentage)

	plan, err := h.repo.GetByID(context.Background(), *stored.PlanID)
	require.NoError(t, err)
	require.Equal(t, "Data Analyst", plan.ChosenCareer)
	require.True(t, plan.HasResumePDF())
	require.True(t, plan.HasEmbedding())
}

////////////////////////////////////////////////////////////////////////////////

func TestGetJobStatusMessages(t *testing.T) {
	h := newTestHarness()

	resp, err := h.service.GeneratePlanAsync(context.Background(), validAsyncRequest())
	require.NoError(t, err)

	status, err := h.service.GetJobStatus(context.Background(), resp.JobID)
	require.NoError(t, err)
	require.Equal(t, guidance.JobStatusPending, status.Status)
	require.Equal(t, "Job queued and waiting to be processed", status.Message)

	// Completed jobs surface the plan ID
	planID := storedPlan(h, true).ID
	require.NoError(t, h.jobRepo.MarkAsCompleted(context.Background(), resp.JobID, planID))

	status, err = h.service.GetJobStatus(context.Background(), resp.JobID)
	require.NoError(t, err)
	require.Equal(t, guidance.JobStatusCompleted, status.Status)
	require.NotNil(t, status.PlanID)
	require.Equal(t, planID, *status.PlanID)
	require.Equal(t, 100, status.Progress)
}

func TestGetJobStatusUnknownJob(t *testing.T) {
	h := newTestHarness()

	_, err := h.service.GetJobStatus(context.Background(), kernel.NewJobID("missing"))
	requireErrCode(t, err, guidance.CodeJobNotFound)
}

////////////////////////////////////////////////////////////////////////////////

func TestRetryFailedJobResetsAndRequeues(t *testing.T) {
	h := newTestHarness()

	resp, err := h.service.GeneratePlanAsync(context.Background(), validAsyncRequest())
	require.NoError(t, err)
	require.NoError(t, h.jobRepo.MarkAsFailed(context.Background(), resp.JobID, "intake_failed", nil))
	require.NoError(t, h.queue.Clear(context.Background()))

	retried, err := h.service.RetryFailedJob(context.Background(), resp.JobID)
	require.NoError(t, err)
	require.Equal(t, guidance.JobStatusPending, retried.Status)

	stored, err := h.jobRepo.GetByID(context.Background(), resp.JobID)
	require.NoError(t, err)
	require.Equal(t, guidance.JobStatusPending, stored.Status)
	require.Equal(t, 0, stored.AttemptCount)
	require.Empty(t, stored.ErrorMessage)

	size, err := h.queue.GetQueueSize(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), size)
}

func TestRetryFailedJobRejectsNonFailedJobs(t *testing.T) {
	h := newTestHarness()

	resp, err := h.service.GeneratePlanAsync(context.Background(), validAsyncRequest())
	require.NoError(t, err)

	_, err = h.service.RetryFailedJob(context.Background(), resp.JobID)
	requireErrCode(t, err, guidance.CodeJobUpdateFailed)
}
