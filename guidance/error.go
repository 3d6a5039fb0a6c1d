package guidance

import (
	"net/http"

	"github.com/Abraxas-365/compass/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("GUIDANCE")

// Error codes - Plan Operations
var (
	CodePlanNotFound       = ErrRegistry.Register("PLAN_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Career plan not found")
	CodeInvalidInput       = ErrRegistry.Register("INVALID_INPUT", errx.TypeValidation, http.StatusBadRequest, "Invalid plan request")
	CodeEmptyResume        = ErrRegistry.Register("EMPTY_RESUME", errx.TypeValidation, http.StatusBadRequest, "Resume contains no readable text")
	CodeFileReadFailed     = ErrRegistry.Register("FILE_READ_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to read uploaded file")
	CodeInvalidFileFormat  = ErrRegistry.Register("INVALID_FILE_FORMAT", errx.TypeValidation, http.StatusBadRequest, "Invalid file format")
	CodeStageFailed        = ErrRegistry.Register("STAGE_FAILED", errx.TypeExternal, http.StatusBadGateway, "A guidance stage failed")
	CodePDFRenderFailed    = ErrRegistry.Register("PDF_RENDER_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to render resume PDF")
	CodePDFNotAvailable    = ErrRegistry.Register("PDF_NOT_AVAILABLE", errx.TypeBusiness, http.StatusUnprocessableEntity, "Tailored resume is not renderable")
	CodePlanCreationFailed = ErrRegistry.Register("PLAN_CREATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to save career plan")
	CodePlanStorageFailed  = ErrRegistry.Register("PLAN_STORAGE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Plan storage operation failed")
	CodeSearchFailed       = ErrRegistry.Register("SEARCH_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Similarity search failed")
	CodeChatFailed         = ErrRegistry.Register("CHAT_FAILED", errx.TypeExternal, http.StatusBadGateway, "Chat completion failed")
)

// Error codes - Job/Queue Operations
var (
	CodeJobNotFound        = ErrRegistry.Register("JOB_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Processing job not found")
	CodeJobFailed          = ErrRegistry.Register("JOB_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Job processing failed")
	CodeJobMaxRetries      = ErrRegistry.Register("JOB_MAX_RETRIES", errx.TypeInternal, http.StatusInternalServerError, "Job exceeded maximum retry attempts")
	CodeJobCreationFailed  = ErrRegistry.Register("JOB_CREATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to create job record")
	CodeJobUpdateFailed    = ErrRegistry.Register("JOB_UPDATE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to update job status")
	CodeJobRetryFailed     = ErrRegistry.Register("JOB_RETRY_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to schedule job retry")
	CodeQueueEnqueueFailed = ErrRegistry.Register("QUEUE_ENQUEUE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to enqueue job")
	CodePlanAccessDenied   = ErrRegistry.Register("PLAN_ACCESS_DENIED", errx.TypeAuthorization, http.StatusForbidden, "Token does not grant access to this plan")
)

// Helper functions - Plan Operations
func ErrPlanNotFound() *errx.Error {
	return ErrRegistry.New(CodePlanNotFound)
}

func ErrInvalidInput() *errx.Error {
	return ErrRegistry.New(CodeInvalidInput)
}

func ErrEmptyResume() *errx.Error {
	return ErrRegistry.New(CodeEmptyResume)
}

func ErrFileReadFailed() *errx.Error {
	return ErrRegistry.New(CodeFileReadFailed)
}

func ErrInvalidFileFormat() *errx.Error {
	return ErrRegistry.New(CodeInvalidFileFormat)
}

func ErrStageFailed() *errx.Error {
	return ErrRegistry.New(CodeStageFailed)
}

func ErrPDFRenderFailed() *errx.Error {
	return ErrRegistry.New(CodePDFRenderFailed)
}

func ErrPDFNotAvailable() *errx.Error {
	return ErrRegistry.New(CodePDFNotAvailable)
}

func ErrPlanCreationFailed() *errx.Error {
	return ErrRegistry.New(CodePlanCreationFailed)
}

func ErrSearchFailed() *errx.Error {
	return ErrRegistry.New(CodeSearchFailed)
}

func ErrChatFailed() *errx.Error {
	return ErrRegistry.New(CodeChatFailed)
}

// Helper functions - Job/Queue Operations
func ErrJobNotFound() *errx.Error {
	return ErrRegistry.New(CodeJobNotFound)
}

func ErrJobFailed() *errx.Error {
	return ErrRegistry.New(CodeJobFailed)
}

func ErrJobMaxRetriesReached() *errx.Error {
	return ErrRegistry.New(CodeJobMaxRetries)
}

func ErrJobCreationFailed() *errx.Error {
	return ErrRegistry.New(CodeJobCreationFailed)
}

func ErrJobUpdateFailed() *errx.Error {
	return ErrRegistry.New(CodeJobUpdateFailed)
}

func ErrJobRetryFailed() *errx.Error {
	return ErrRegistry.New(CodeJobRetryFailed)
}

func ErrQueueEnqueueFailed() *errx.Error {
	return ErrRegistry.New(CodeQueueEnqueueFailed)
}

func ErrPlanAccessDenied() *errx.Error {
	return ErrRegistry.New(CodePlanAccessDenied)
}
