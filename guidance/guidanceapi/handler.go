package guidanceapi

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Abraxas-365/compass/guidance"
	"github.com/Abraxas-365/compass/guidance/guidanceauth"
	"github.com/Abraxas-365/compass/guidance/guidancesrv"
	"github.com/Abraxas-365/compass/pkg/fsx"
	"github.com/Abraxas-365/compass/pkg/kernel"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// maxUploadSize caps resume uploads at 10MB
const maxUploadSize = int64(10 * 1024 * 1024)

type GuidanceHandlers struct {
	service    *guidancesrv.Service
	fileSystem fsx.FileSystem
	tokens     *guidanceauth.TokenService
}

func NewGuidanceHandlers(service *guidancesrv.Service, fileSystem fsx.FileSystem, tokens *guidanceauth.TokenService) *GuidanceHandlers {
	return &GuidanceHandlers{
		service:    service,
		fileSystem: fileSystem,
		tokens:     tokens,
	}
}

func (h *GuidanceHandlers) RegisterRoutes(app *fiber.App) {
	// Browser pages. These take the token as a query parameter since
	// plain navigation can't set an Authorization header.
	app.Get("/", h.Index)
	app.Get("/plans/:id/page", h.PlanPage)
	app.Get("/plans/:id/resume.pdf", h.ResumePDF)

	plans := app.Group("/api/v1/plans")

	plans.Post("/", h.SubmitPlan) // Upload resume and queue generation (ASYNC)

	authed := plans.Group("", guidanceauth.Middleware(h.tokens))
	authed.Get("/", h.ListPlans)
	authed.Get("/jobs/:job_id", h.GetJobStatus)
	authed.Post("/jobs/:job_id/retry", h.RetryJob)
	authed.Get("/:id", h.GetPlan)
	authed.Delete("/:id", h.DeletePlan)
	authed.Post("/:id/chat", h.Chat)
	authed.Get("/:id/similar", h.SimilarPlans)
}

// ============================================================================
// Browser Pages
// ============================================================================

// Index renders the submission form
// GET /
func (h *GuidanceHandlers) Index(c *fiber.Ctx) error {
	return c.Render("index", fiber.Map{
		"Title": "Career Compass",
	})
}

// PlanPage renders the full career plan as HTML
// GET /plans/:id/page?token=...
func (h *GuidanceHandlers) PlanPage(c *fiber.Ctx) error {
	planID, err := h.authorizePlanFromQuery(c)
	if err != nil {
		return err
	}

	plan, err := h.service.GetPlan(c.Context(), planID)
	if err != nil {
		return err
	}

	return c.Render("result", fiber.Map{
		"Title":   "Your Career Plan",
		"Plan":    plan,
		"Token":   c.Query("token"),
		"PDFLink": fmt.Sprintf("/plans/%s/resume.pdf?token=%s", planID, c.Query("token")),
	})
}

// ResumePDF streams the generated tailored resume PDF
// GET /plans/:id/resume.pdf?token=...
func (h *GuidanceHandlers) ResumePDF(c *fiber.Ctx) error {
	planID, err := h.authorizePlanFromQuery(c)
	if err != nil {
		return err
	}

	data, err := h.service.GetResumePDF(c.Context(), planID)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="tailored_resume.pdf"`)
	return c.Send(data)
}

// ============================================================================
// Plan Submission
// ============================================================================

// SubmitPlan accepts the resume upload and queues plan generation
// POST /api/v1/plans
func (h *GuidanceHandlers) SubmitPlan(c *fiber.Ctx) error {
	file, err := c.FormFile("resume")
	if err != nil {
		return guidance.ErrInvalidInput().
			WithDetail("reason", "resume file is required")
	}

	if file.Size > maxUploadSize {
		return guidance.ErrInvalidInput().
			WithDetail("reason", "file too large").
			WithDetail("max_size", "10MB").
			WithDetail("size", file.Size)
	}

	if ext := strings.ToLower(filepath.Ext(file.Filename)); ext != ".pdf" {
		return guidance.ErrInvalidFileFormat().
			WithDetail("file_name", file.Filename).
			WithDetail("supported_formats", []string{"pdf"})
	}

	roleChoice := c.FormValue("role_choice")
	if roleChoice == "" {
		return guidance.ErrInvalidInput().
			WithDetail("reason", "role choice is required")
	}

	uploadedFile, err := file.Open()
	if err != nil {
		return guidance.ErrFileReadFailed().
			WithDetail("file_name", file.Filename)
	}
	defer uploadedFile.Close()

	// Format: uploads/{year}/{month}/{uuid}.pdf
	now := time.Now()
	filePath := h.fileSystem.Join(
		"uploads",
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		uuid.New().String()+".pdf",
	)

	if err := h.fileSystem.WriteFileStream(c.Context(), filePath, uploadedFile); err != nil {
		return guidance.ErrFileReadFailed().
			WithDetail("file_name", file.Filename).
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	req := guidance.GeneratePlanRequest{
		ResumeFilePath: filePath,
		ResumeFileName: file.Filename,
		LinkedInURL:    strings.TrimSpace(c.FormValue("linkedin_url")),
		RoleChoice:     roleChoice,
		CustomRole:     strings.TrimSpace(c.FormValue("custom_role")),
	}

	jobResponse, err := h.service.GeneratePlanAsync(c.Context(), req)
	if err != nil {
		// If queueing fails, clean up the uploaded file
		_ = h.fileSystem.DeleteFile(c.Context(), filePath)
		return err
	}

	token, err := h.tokens.IssueToken(jobResponse.JobID, "")
	if err != nil {
		return guidance.ErrRegistry.NewWithCause(guidance.CodeJobCreationFailed, err).
			WithDetail("job_id", jobResponse.JobID).
			WithDetail("operation", "issue_token")
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message":      "Resume uploaded, plan generation started",
		"job":          jobResponse,
		"access_token": token,
		"status_url":   fmt.Sprintf("/api/v1/plans/jobs/%s", jobResponse.JobID),
	})
}

// ============================================================================
// Job Handlers
// ============================================================================

// GetJobStatus retrieves the status of a plan generation job. Once the job
// completes the response carries a token upgraded with the plan claim.
// GET /api/v1/plans/jobs/:job_id
func (h *GuidanceHandlers) GetJobStatus(c *fiber.Ctx) error {
	jobID := kernel.JobID(c.Params("job_id"))
	if jobID.IsEmpty() {
		return guidance.ErrInvalidInput().
			WithDetail("reason", "invalid job ID")
	}

	if err := guidanceauth.RequireJobAccess(c, jobID); err != nil {
		return err
	}

	jobStatus, err := h.service.GetJobStatus(c.Context(), jobID)
	if err != nil {
		return err
	}

	response := fiber.Map{"job": jobStatus}

	if jobStatus.Status == guidance.JobStatusCompleted && jobStatus.PlanID != nil {
		planToken, tokenErr := h.tokens.IssueToken(jobID, *jobStatus.PlanID)
		if tokenErr == nil {
			response["plan_token"] = planToken
			response["plan_url"] = fmt.Sprintf("/plans/%s/page?token=%s", *jobStatus.PlanID, planToken)
		}
	}

	return c.JSON(response)
}

// RetryJob retries a failed job
// POST /api/v1/plans/jobs/:job_id/retry
func (h *GuidanceHandlers) RetryJob(c *fiber.Ctx) error {
	jobID := kernel.JobID(c.Params("job_id"))
	if jobID.IsEmpty() {
		return guidance.ErrInvalidInput().
			WithDetail("reason", "invalid job ID")
	}

	if err := guidanceauth.RequireJobAccess(c, jobID); err != nil {
		return err
	}

	jobStatus, err := h.service.RetryFailedJob(c.Context(), jobID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "job retried successfully",
		"job":     jobStatus,
	})
}

// ============================================================================
// Plan Handlers
// ============================================================================

// GetPlan retrieves the full plan as JSON
// GET /api/v1/plans/:id
func (h *GuidanceHandlers) GetPlan(c *fiber.Ctx) error {
	planID, err := h.authorizePlan(c)
	if err != nil {
		return err
	}

	response, err := h.service.GetPlan(c.Context(), planID)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// DeletePlan deletes a plan, its chat history, and its stored files
// DELETE /api/v1/plans/:id
func (h *GuidanceHandlers) DeletePlan(c *fiber.Ctx) error {
	planID, err := h.authorizePlan(c)
	if err != nil {
		return err
	}

	if err := h.service.DeletePlan(c.Context(), planID); err != nil {
		return err
	}
	return c.Status(fiber.StatusNoContent).Send(nil)
}

// Chat answers a follow-up question about a plan
// POST /api/v1/plans/:id/chat
func (h *GuidanceHandlers) Chat(c *fiber.Ctx) error {
	planID, err := h.authorizePlan(c)
	if err != nil {
		return err
	}

	var req guidance.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return guidance.ErrInvalidInput().
			WithDetail("reason", "invalid request body")
	}

	response, err := h.service.Chat(c.Context(), planID, req)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// ListPlans lists summaries of the plans the caller's token grants
// access to, newest first
// GET /api/v1/plans?page=1&page_size=20
func (h *GuidanceHandlers) ListPlans(c *fiber.Ctx) error {
	access, ok := guidanceauth.GetPlanAccess(c)
	if !ok {
		return guidanceauth.ErrMissingToken()
	}

	pagination := kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", kernel.DefaultPageSize),
	}

	page, err := h.service.ListPlans(c.Context(), h.accessiblePlanIDs(c, access), pagination)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// SimilarPlans finds plans generated from similar profiles
// GET /api/v1/plans/:id/similar?top_k=5
func (h *GuidanceHandlers) SimilarPlans(c *fiber.Ctx) error {
	planID, err := h.authorizePlan(c)
	if err != nil {
		return err
	}

	req := guidance.SimilarPlansRequest{
		PlanID: planID,
		TopK:   c.QueryInt("top_k", guidancesrv.DefaultSimilarTopK),
	}

	matches, err := h.service.SimilarPlans(c.Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"matches": matches})
}

// ============================================================================
// Authorization Helpers
// ============================================================================

// authorizePlan resolves the :id param and checks the token grants access
// to that plan, either directly or through the job that produced it.
func (h *GuidanceHandlers) authorizePlan(c *fiber.Ctx) (kernel.PlanID, error) {
	planID := kernel.PlanID(c.Params("id"))
	if planID.IsEmpty() {
		return "", guidance.ErrInvalidInput().
			WithDetail("reason", "invalid plan ID")
	}

	if err := guidanceauth.RequirePlanAccess(c, planID); err == nil {
		return planID, nil
	}

	access, ok := guidanceauth.GetPlanAccess(c)
	if !ok {
		return "", guidanceauth.ErrMissingToken()
	}

	// Tokens issued at submission only carry the job claim. Resolve the
	// job to see whether it produced this plan.
	if !access.JobID.IsEmpty() {
		jobStatus, err := h.service.GetJobStatus(c.Context(), access.JobID)
		if err == nil && jobStatus.PlanID != nil && *jobStatus.PlanID == planID {
			return planID, nil
		}
	}

	return "", guidance.ErrPlanAccessDenied().
		WithDetail("plan_id", planID)
}

// accessiblePlanIDs collects the plan IDs reachable from the token: the
// plan claim itself plus the plan produced by the job claim, if any.
func (h *GuidanceHandlers) accessiblePlanIDs(c *fiber.Ctx, access *guidanceauth.PlanAccess) []kernel.PlanID {
	ids := make([]kernel.PlanID, 0, 2)
	if !access.PlanID.IsEmpty() {
		ids = append(ids, access.PlanID)
	}

	if !access.JobID.IsEmpty() {
		jobStatus, err := h.service.GetJobStatus(c.Context(), access.JobID)
		if err == nil && jobStatus.PlanID != nil && *jobStatus.PlanID != access.PlanID {
			ids = append(ids, *jobStatus.PlanID)
		}
	}
	return ids
}

// authorizePlanFromQuery is the browser-page variant of authorizePlan that
// reads the token from the query string.
func (h *GuidanceHandlers) authorizePlanFromQuery(c *fiber.Ctx) (kernel.PlanID, error) {
	planID := kernel.PlanID(c.Params("id"))
	if planID.IsEmpty() {
		return "", guidance.ErrInvalidInput().
			WithDetail("reason", "invalid plan ID")
	}

	tokenString := c.Query("token")
	if tokenString == "" {
		return "", guidanceauth.ErrMissingToken()
	}

	access, err := h.tokens.VerifyToken(tokenString)
	if err != nil {
		return "", guidanceauth.ErrInvalidToken().
			WithDetail("reason", err.Error())
	}
	if access.PlanID == planID {
		return planID, nil
	}

	if !access.JobID.IsEmpty() {
		jobStatus, err := h.service.GetJobStatus(c.Context(), access.JobID)
		if err == nil && jobStatus.PlanID != nil && *jobStatus.PlanID == planID {
			return planID, nil
		}
	}

	return "", guidance.ErrPlanAccessDenied().
		WithDetail("plan_id", planID)
}
