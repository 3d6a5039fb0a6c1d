package guidance

import (
	"strings"
	"time"

	"github.com/Abraxas-365/compass/pkg/kernel"
)

// ============================================================================
// Request DTOs
// ============================================================================

// GeneratePlanRequest is the payload behind a plan submission. The resume
// file has already been uploaded to storage by the handler.
type GeneratePlanRequest struct {
	ResumeFilePath string `json:"resume_file_path" validate:"required"`
	ResumeFileName string `json:"resume_file_name" validate:"required"`
	LinkedInURL    string `json:"linkedin_url,omitempty"`
	RoleChoice     string `json:"role_choice" validate:"required"`
	CustomRole     string `json:"custom_role,omitempty"`
}

// EffectiveRole resolves the role choice: a custom role wins over the
// "Other" placeholder, otherwise the raw choice is used as submitted.
func (r GeneratePlanRequest) EffectiveRole() string {
	custom := strings.TrimSpace(r.CustomRole)
	if strings.EqualFold(r.RoleChoice, "Other") && custom != "" {
		return custom
	}
	return strings.TrimSpace(r.RoleChoice)
}

// ChatRequest is a follow-up question about a completed plan
type ChatRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

// ChatResponse carries the assistant's answer
type ChatResponse struct {
	Response string `json:"response"`
}

// SimilarPlansRequest finds plans generated from similar profiles
type SimilarPlansRequest struct {
	PlanID kernel.PlanID `json:"plan_id" validate:"required"`
	TopK   int           `json:"top_k" validate:"min=1,max=20"`
}

// ============================================================================
// Response DTOs
// ============================================================================

// PlanResponse is the full plan payload rendered to clients
type PlanResponse struct {
	ID              kernel.PlanID   `json:"id"`
	ChosenCareer    string          `json:"chosen_career"`
	CareerOverview  string          `json:"career_overview"`
	SkillAnalysis   SkillAnalysis   `json:"skill_analysis"`
	ProfileFeedback ProfileFeedback `json:"profile_feedback"`
	TailoredResume  TailoredResume  `json:"tailored_resume"`
	LearningRoadmap string          `json:"learning_roadmap"`
	PortfolioPlan   string          `json:"portfolio_plan"`
	LinkedInUsed    bool            `json:"linkedin_used"`
	HasResumePDF    bool            `json:"has_resume_pdf"`
	CreatedAt       time.Time       `json:"created_at"`
}

// PlanSummaryResponse is a lightweight listing entry
type PlanSummaryResponse struct {
	ID           kernel.PlanID `json:"id"`
	ChosenCareer string        `json:"chosen_career"`
	FullName     string        `json:"full_name"`
	CreatedAt    time.Time     `json:"created_at"`
}

// SimilarPlanResult is one similarity match
type SimilarPlanResult struct {
	Plan            PlanSummaryResponse `json:"plan"`
	SimilarityScore float64             `json:"similarity_score"`
}

// ============================================================================
// Mapper Functions
// ============================================================================

// ToPlanResponse converts a CareerPlan domain model to its response DTO
func ToPlanResponse(p *CareerPlan) *PlanResponse {
	return &PlanResponse{
		ID:              p.ID,
		ChosenCareer:    p.ChosenCareer,
		CareerOverview:  p.CareerOverview,
		SkillAnalysis:   p.SkillAnalysis,
		ProfileFeedback: p.ProfileFeedback,
		TailoredResume:  p.TailoredResume,
		LearningRoadmap: p.LearningRoadmap,
		PortfolioPlan:   p.PortfolioPlan,
		LinkedInUsed:    p.LinkedInUsed,
		HasResumePDF:    p.HasResumePDF(),
		CreatedAt:       p.CreatedAt,
	}
}

// ToPlanSummaryResponse converts a CareerPlan to its listing entry
func ToPlanSummaryResponse(p *CareerPlan) *PlanSummaryResponse {
	return &PlanSummaryResponse{
		ID:           p.ID,
		ChosenCareer: p.ChosenCareer,
		FullName:     p.TailoredResume.FullName,
		CreatedAt:    p.CreatedAt,
	}
}
