package guidancesrv

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/Abraxas-365/compass/guidance"
	"github.com/Abraxas-365/compass/internal/ai/embeddings"
	"github.com/Abraxas-365/compass/internal/ai/resumevision"
	"github.com/Abraxas-365/compass/internal/pdf"
	"github.com/Abraxas-365/compass/internal/resumepdf"
	"github.com/Abraxas-365/compass/pkg/fsx"
	"github.com/Abraxas-365/compass/pkg/kernel"
	"github.com/Abraxas-365/compass/pkg/logx"
	"github.com/google/uuid"
)

const DefaultSimilarTopK = 5

// Embedder generates a profile embedding for similarity search
type Embedder interface {
	Generate(ctx context.Context, text string) ([]float32, error)
}

// VisionTranscriber reads resume text out of rendered page images. Used as
// a fallback for scanned PDFs with no extractable text layer.
type VisionTranscriber interface {
	TranscribePages(ctx context.Context, pages [][]byte) (*resumevision.Transcript, error)
}

// ResumeExtractor pulls text and page images out of an uploaded PDF
type ResumeExtractor interface {
	ExtractText(data []byte) (string, error)
	ConvertToImages(data []byte) ([][]byte, error)
}

// localExtractor is the production extractor backed by internal/pdf
type localExtractor struct{}

func (localExtractor) ExtractText(data []byte) (string, error) {
	return pdf.ExtractText(data)
}

func (localExtractor) ConvertToImages(data []byte) ([][]byte, error) {
	return pdf.ConvertPDFToImages(data)
}

type Service struct {
	repo      guidance.Repository
	jobRepo   guidance.JobRepository
	queue     guidance.JobQueue
	llm       guidance.Completer
	embedder  Embedder
	scraper   guidance.ProfileScraper
	vision    VisionTranscriber
	extractor ResumeExtractor
	files     fsx.FileSystem
	chats     guidance.ChatHistoryStore
}

// NewService creates a new guidance service
func NewService(
	repo guidance.Repository,
	jobRepo guidance.JobRepository,
	queue guidance.JobQueue,
	llm guidance.Completer,
	embedder Embedder,
	scraper guidance.ProfileScraper,
	vision VisionTranscriber,
	files fsx.FileSystem,
	chats guidance.ChatHistoryStore,
) *Service {
	return &Service{
		repo:      repo,
		jobRepo:   jobRepo,
		queue:     queue,
		llm:       llm,
		embedder:  embedder,
		scraper:   scraper,
		vision:    vision,
		extractor: localExtractor{},
		files:     files,
		chats:     chats,
	}
}

// ============================================================================
// Generate Plan (synchronous)
// ============================================================================

// GeneratePlan runs the full guidance pipeline and persists the result
func (s *Service) GeneratePlan(ctx context.Context, req guidance.GeneratePlanRequest) (*guidance.PlanResponse, error) {
	logx.Infof("Starting GeneratePlan for file: %s", req.ResumeFileName)

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	profile, err := s.buildProfile(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := s.runPipeline(ctx, req, profile.Text)
	if err != nil {
		return nil, err
	}

	plan := s.assemblePlan(req, profile, result)

	// Render the tailored resume PDF before saving so the plan record
	// already points at the stored file. Render failures are not fatal,
	// the PDF can be regenerated on demand.
	if plan.TailoredResume.IsRenderable() {
		if pdfPath, renderErr := s.renderAndStoreResumePDF(ctx, plan); renderErr != nil {
			logx.Warnf("Resume PDF render failed for plan %s: %v", plan.ID, renderErr)
		} else {
			plan.ResumePDFPath = pdfPath
		}
	}

	// Embedding failures are not fatal either, the plan just won't show
	// up in similarity searches.
	if embedding, embedErr := s.embedder.Generate(ctx, profile.Text); embedErr != nil {
		logx.Warnf("Profile embedding failed for plan %s: %v", plan.ID, embedErr)
	} else {
		plan.ProfileEmbedding = embedding
		plan.EmbeddingModel = embeddings.Model
	}

	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, guidance.ErrPlanCreationFailed().
			WithDetail("file_name", req.ResumeFileName).
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	logx.Infof("Plan created: PlanID=%s, Career=%s", plan.ID, plan.ChosenCareer)
	return guidance.ToPlanResponse(plan), nil
}

// ============================================================================
// Profile Intake
// ============================================================================

// builtProfile is the composite text the pipeline prompts run against
type builtProfile struct {
	Text         string
	LinkedInUsed bool
}

// buildProfile reads the uploaded resume, extracts its text (falling back
// to vision transcription for scanned PDFs), optionally scrapes the
// LinkedIn profile, and composes the pipeline input text.
func (s *Service) buildProfile(ctx context.Context, req guidance.GeneratePlanRequest) (*builtProfile, error) {
	if ext := strings.ToLower(path.Ext(req.ResumeFileName)); ext != ".pdf" {
		return nil, guidance.ErrInvalidFileFormat().
			WithDetail("file_name", req.ResumeFileName).
			WithDetail("supported_formats", []string{"pdf"})
	}

	fileData, err := s.files.ReadFile(ctx, req.ResumeFilePath)
	if err != nil {
		return nil, guidance.ErrFileReadFailed().
			WithDetail("file_path", req.ResumeFilePath).
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	resumeText, err := s.extractResumeText(ctx, fileData)
	if err != nil {
		return nil, err
	}
	if !pdf.HasUsableText(resumeText) {
		return nil, guidance.ErrEmptyResume().
			WithDetail("file_name", req.ResumeFileName)
	}

	profile := &builtProfile{}

	var sb strings.Builder
	sb.WriteString("--- RESUME ---\n")
	sb.WriteString(strings.TrimSpace(resumeText))

	if req.LinkedInURL != "" {
		linkedinText, scrapeErr := s.scraper.FetchProfileText(ctx, req.LinkedInURL)
		if scrapeErr != nil {
			// LinkedIn is supplementary. Scrape failures degrade to a
			// resume-only profile instead of failing the request.
			logx.Warnf("LinkedIn scrape failed for %s: %v", req.LinkedInURL, scrapeErr)
		} else if strings.TrimSpace(linkedinText) != "" {
			sb.WriteString("\n\n--- LINKEDIN PROFILE ---\n")
			sb.WriteString(strings.TrimSpace(linkedinText))
			profile.LinkedInUsed = true
		}
	}

	profile.Text = sb.String()
	return profile, nil
}

// extractResumeText pulls the text layer out of the PDF, falling back to
// rendering pages and transcribing them with the vision model when the
// document has no usable text layer.
func (s *Service) extractResumeText(ctx context.Context, fileData []byte) (string, error) {
	text, err := s.extractor.ExtractText(fileData)
	if err == nil && pdf.HasUsableText(text) {
		return text, nil
	}
	if err != nil {
		logx.Debugf("Text extraction failed, trying vision fallback: %v", err)
	}

	pages, convErr := s.extractor.ConvertToImages(fileData)
	if convErr != nil {
		return "", guidance.ErrInvalidFileFormat().
			WithDetails(map[string]any{
				"error": convErr.Error(),
			})
	}
	if len(pages) == 0 {
		return "", guidance.ErrEmptyResume()
	}

	transcript, visionErr := s.vision.TranscribePages(ctx, pages)
	if visionErr != nil {
		return "", guidance.ErrStageFailed().
			WithDetail("stage", "vision_transcription").
			WithDetails(map[string]any{
				"error": visionErr.Error(),
			})
	}
	return transcript.Text(), nil
}

// ============================================================================
// Plan Retrieval & Management
// ============================================================================

// GetPlan retrieves a plan by ID
func (s *Service) GetPlan(ctx context.Context, id kernel.PlanID) (*guidance.PlanResponse, error) {
	plan, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, guidance.ErrPlanNotFound().
			WithDetail("plan_id", id)
	}
	return guidance.ToPlanResponse(plan), nil
}

// DeletePlan deletes a plan and its stored resume PDF
func (s *Service) DeletePlan(ctx context.Context, id kernel.PlanID) error {
	plan, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return guidance.ErrPlanNotFound().
			WithDetail("plan_id", id)
	}

	if plan.HasResumePDF() {
		if delErr := s.files.DeleteFile(ctx, plan.ResumePDFPath); delErr != nil {
			logx.Warnf("Failed to delete resume PDF %s: %v", plan.ResumePDFPath, delErr)
		}
	}
	_ = s.chats.Clear(ctx, id)

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return nil
}

// ListPlans lists the plans the caller's token grants access to, newest
// first. There is no global listing; plans are anonymous and only
// reachable through the IDs resolved from the token.
func (s *Service) ListPlans(ctx context.Context, ids []kernel.PlanID, pagination kernel.PaginationOptions) (*kernel.Paginated[guidance.PlanSummaryResponse], error) {
	pagination = pagination.Normalize()

	if len(ids) == 0 {
		empty := kernel.NewPaginated([]guidance.PlanSummaryResponse{}, pagination.Page, pagination.PageSize, 0)
		return &empty, nil
	}

	paginated, err := s.repo.List(ctx, ids, pagination)
	if err != nil {
		return nil, err
	}

	summaries := make([]guidance.PlanSummaryResponse, len(paginated.Items))
	for i := range paginated.Items {
		summaries[i] = *guidance.ToPlanSummaryResponse(&paginated.Items[i])
	}

	page := kernel.NewPaginated(summaries, paginated.Page.Number, paginated.Page.Size, paginated.Page.Total)
	return &page, nil
}

// SimilarPlans finds plans generated from the most similar profiles
func (s *Service) SimilarPlans(ctx context.Context, req guidance.SimilarPlansRequest) ([]guidance.SimilarPlanResult, error) {
	plan, err := s.repo.GetByID(ctx, req.PlanID)
	if err != nil {
		return nil, guidance.ErrPlanNotFound().
			WithDetail("plan_id", req.PlanID)
	}
	if !plan.HasEmbedding() {
		return []guidance.SimilarPlanResult{}, nil
	}

	if req.TopK <= 0 {
		req.TopK = DefaultSimilarTopK
	}

	matches, err := s.repo.SimilarPlans(ctx, req)
	if err != nil {
		return nil, guidance.ErrSearchFailed().
			WithDetail("plan_id", req.PlanID).
			WithDetails(map[string]any{
				"error": err.Error(),
				"top_k": req.TopK,
			})
	}
	return matches, nil
}

// ============================================================================
// Resume PDF
// ============================================================================

// GetResumePDF returns the generated resume PDF bytes, re-rendering and
// re-storing it when the stored copy is missing.
func (s *Service) GetResumePDF(ctx context.Context, id kernel.PlanID) ([]byte, error) {
	plan, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, guidance.ErrPlanNotFound().
			WithDetail("plan_id", id)
	}

	if plan.HasResumePDF() {
		data, readErr := s.files.ReadFile(ctx, plan.ResumePDFPath)
		if readErr == nil {
			return data, nil
		}
		logx.Warnf("Stored resume PDF missing for plan %s, re-rendering: %v", id, readErr)
	}

	if !plan.TailoredResume.IsRenderable() {
		return nil, guidance.ErrPDFNotAvailable().
			WithDetail("plan_id", id)
	}

	pdfPath, err := s.renderAndStoreResumePDF(ctx, plan)
	if err != nil {
		return nil, guidance.ErrPDFRenderFailed().
			WithDetail("plan_id", id).
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	if updateErr := s.repo.UpdateResumePDFPath(ctx, id, pdfPath); updateErr != nil {
		logx.Warnf("Failed to record resume PDF path for plan %s: %v", id, updateErr)
	}

	return s.files.ReadFile(ctx, pdfPath)
}

// renderAndStoreResumePDF builds the tailored resume PDF and writes it to
// storage, returning the storage path.
func (s *Service) renderAndStoreResumePDF(ctx context.Context, plan *guidance.CareerPlan) (string, error) {
	data, err := resumepdf.Build(toResumeContent(plan.TailoredResume))
	if err != nil {
		return "", err
	}

	pdfPath := s.files.Join("plans", plan.ID.String(), "tailored_resume.pdf")
	if err := s.files.WriteFile(ctx, pdfPath, data); err != nil {
		return "", err
	}
	return pdfPath, nil
}

// toResumeContent maps the tailored resume to the PDF builder's input
func toResumeContent(t guidance.TailoredResume) resumepdf.Content {
	experiences := make([]resumepdf.Experience, len(t.Experiences))
	for i, exp := range t.Experiences {
		experiences[i] = resumepdf.Experience{
			Title:   exp.Title,
			Company: exp.Company,
			Dates:   exp.Dates,
			Bullets: exp.Description,
		}
	}
	return resumepdf.Content{
		FullName:    t.FullName,
		Email:       t.Email,
		Phone:       t.Phone,
		Summary:     t.Summary,
		Experiences: experiences,
		Education:   t.Education,
		Skills:      t.Skills,
	}
}

// ============================================================================
// Private Helpers
// ============================================================================

// assemblePlan builds the domain model out of the pipeline result
func (s *Service) assemblePlan(req guidance.GeneratePlanRequest, profile *builtProfile, result *pipelineResult) *guidance.CareerPlan {
	return &guidance.CareerPlan{
		ID:              kernel.NewPlanID(uuid.NewString()),
		RoleChoice:      req.RoleChoice,
		ProfileText:     profile.Text,
		LinkedInURL:     req.LinkedInURL,
		LinkedInUsed:    profile.LinkedInUsed,
		ResumeFilePath:  req.ResumeFilePath,
		ResumeFileName:  req.ResumeFileName,
		ChosenCareer:    result.ChosenCareer,
		CareerOverview:  result.CareerOverview,
		SkillAnalysis:   result.SkillAnalysis,
		ProfileFeedback: result.ProfileFeedback,
		TailoredResume:  result.TailoredResume,
		LearningRoadmap: result.LearningRoadmap,
		PortfolioPlan:   result.PortfolioPlan,
		CreatedAt:       time.Now(),
	}
}

// validateRequest checks the minimum viable submission
func validateRequest(req guidance.GeneratePlanRequest) error {
	if req.ResumeFilePath == "" || req.ResumeFileName == "" {
		return guidance.ErrInvalidInput().
			WithDetail("reason", "resume file is required")
	}
	if strings.TrimSpace(req.RoleChoice) == "" {
		return guidance.ErrInvalidInput().
			WithDetail("reason", "role choice is required")
	}
	if req.EffectiveRole() == "" && !guidance.RoleChoice(req.RoleChoice).NeedsSuggestion() {
		return guidance.ErrInvalidInput().
			WithDetail("reason", "a target role or suggestion mode is required")
	}
	return nil
}
