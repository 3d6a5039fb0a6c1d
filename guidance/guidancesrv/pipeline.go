package guidancesrv

import (
	"context"
	"fmt"
	"strings"

	"github.com/Abraxas-365/compass/guidance"
	"github.com/Abraxas-365/compass/pkg/logx"
	"golang.org/x/sync/errgroup"
)

// pipelineResult aggregates every stage output
type pipelineResult struct {
	ChosenCareer    string
	CareerOverview  string
	SkillAnalysis   guidance.SkillAnalysis
	ProfileFeedback guidance.ProfileFeedback
	TailoredResume  guidance.TailoredResume
	LearningRoadmap string
	PortfolioPlan   string
}

// runPipeline drives the staged prompt sequence:
//
//	suggest role (only when the student asked for a suggestion)
//	-> analyze market
//	-> review profile || tailor resume (independent, run concurrently)
//	-> create action plan
//
// Every stage is one JSON-mode completion. A stage failure aborts the
// pipeline since later stages depend on earlier output.
func (s *Service) runPipeline(ctx context.Context, req guidance.GeneratePlanRequest, profileText string) (*pipelineResult, error) {
	result := &pipelineResult{}

	career, err := s.resolveCareer(ctx, req, profileText)
	if err != nil {
		return nil, err
	}
	result.ChosenCareer = career
	logx.Infof("Pipeline target career: %s", career)

	overview, analysis, err := s.analyzeMarket(ctx, career)
	if err != nil {
		return nil, err
	}
	result.CareerOverview = overview
	result.SkillAnalysis = analysis

	// The reviewer and the tailor both depend only on the market analysis,
	// so they run concurrently.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		feedback, reviewErr := s.reviewProfile(gctx, profileText, career, analysis)
		if reviewErr != nil {
			return reviewErr
		}
		result.ProfileFeedback = feedback
		return nil
	})
	g.Go(func() error {
		tailored, tailorErr := s.tailorResume(gctx, profileText, career, analysis)
		if tailorErr != nil {
			return tailorErr
		}
		result.TailoredResume = tailored
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	roadmap, portfolio, err := s.createActionPlan(ctx, career, analysis, result.ProfileFeedback)
	if err != nil {
		return nil, err
	}
	result.LearningRoadmap = roadmap
	result.PortfolioPlan = portfolio

	return result, nil
}

// resolveCareer either takes the student's explicit role or asks the model
// to suggest one based on the requested suggestion mode.
func (s *Service) resolveCareer(ctx context.Context, req guidance.GeneratePlanRequest, profileText string) (string, error) {
	choice := guidance.RoleChoice(req.RoleChoice)
	if !choice.NeedsSuggestion() {
		return req.EffectiveRole(), nil
	}
	return s.suggestRole(ctx, profileText, choice)
}

// ============================================================================
// Stage 1: Role Suggester
// ============================================================================

const roleSuggesterSystem = `You are a career advisor for students and early-career
professionals. You read a candidate profile and suggest exactly one realistic
target career. Respond with a JSON object: {"career": "<job title>"}.`

func (s *Service) suggestRole(ctx context.Context, profileText string, choice guidance.RoleChoice) (string, error) {
	var instruction string
	switch choice {
	case guidance.RoleChoiceMarketDemand:
		instruction = "Suggest the career with the strongest current market demand that this candidate could realistically grow into."
	default:
		instruction = "Suggest the career that best matches this candidate's existing background and skills."
	}

	prompt := fmt.Sprintf("%s\n\nCandidate profile:\n%s", instruction, profileText)

	var out struct {
		Career string `json:"career"`
	}
	if err := s.llm.CompleteJSON(ctx, roleSuggesterSystem, prompt, &out); err != nil {
		return "", stageError("suggest_role", err)
	}

	career := strings.TrimSpace(out.Career)
	if career == "" {
		return "", stageError("suggest_role", fmt.Errorf("model returned no career"))
	}
	return career, nil
}

// ============================================================================
// Stage 2: Market Analyst
// ============================================================================

const marketAnalystSystem = `You are a labor market analyst. Given a target career,
describe it briefly and list the skills employers currently demand for it.
Respond with a JSON object:
{"overview": "...", "technical_skills": ["..."], "soft_skills": ["..."]}.`

func (s *Service) analyzeMarket(ctx context.Context, career string) (string, guidance.SkillAnalysis, error) {
	prompt := fmt.Sprintf("Target career: %s\n\nProvide a short overview of this career and the technical and soft skills currently in demand for it.", career)

	var out struct {
		Overview        string   `json:"overview"`
		TechnicalSkills []string `json:"technical_skills"`
		SoftSkills      []string `json:"soft_skills"`
	}
	if err := s.llm.CompleteJSON(ctx, marketAnalystSystem, prompt, &out); err != nil {
		return "", guidance.SkillAnalysis{}, stageError("analyze_market", err)
	}

	analysis := guidance.SkillAnalysis{
		TechnicalSkills: out.TechnicalSkills,
		SoftSkills:      out.SoftSkills,
	}
	if len(analysis.TechnicalSkills) == 0 {
		return "", guidance.SkillAnalysis{}, stageError("analyze_market", fmt.Errorf("model returned no technical skills"))
	}
	return out.Overview, analysis, nil
}

// ============================================================================
// Stage 3a: Profile Reviewer
// ============================================================================

const profileReviewerSystem = `You are a resume and LinkedIn reviewer. Compare a
candidate profile against the skills a target career demands and give concrete,
actionable feedback. Respond with a JSON object:
{"resume_strengths": ["..."], "resume_gaps": ["..."], "linkedin_suggestions": ["..."]}.
If the profile contains no LinkedIn section, suggest what a strong LinkedIn
profile for this career should contain.`

func (s *Service) reviewProfile(ctx context.Context, profileText, career string, analysis guidance.SkillAnalysis) (guidance.ProfileFeedback, error) {
	prompt := fmt.Sprintf(
		"Target career: %s\nSkills in demand: %s\n\nCandidate profile:\n%s",
		career, strings.Join(analysis.AllSkills(), ", "), profileText,
	)

	var out guidance.ProfileFeedback
	if err := s.llm.CompleteJSON(ctx, profileReviewerSystem, prompt, &out); err != nil {
		return guidance.ProfileFeedback{}, stageError("review_profile", err)
	}
	return out, nil
}

// ============================================================================
// Stage 3b: Resume Tailor
// ============================================================================

const resumeTailorSystem = `You are a professional resume writer. Rewrite the
candidate's resume so it targets the given career, emphasizing relevant
experience and the skills in demand. Never invent experience the candidate
does not have. Respond with a JSON object:
{"full_name": "...", "email": "...", "phone": "...", "summary": "...",
 "experiences": [{"title": "...", "company": "...", "dates": "...", "description": ["..."]}],
 "education": "...", "skills": ["..."]}.`

func (s *Service) tailorResume(ctx context.Context, profileText, career string, analysis guidance.SkillAnalysis) (guidance.TailoredResume, error) {
	prompt := fmt.Sprintf(
		"Target career: %s\nSkills in demand: %s\n\nCandidate profile:\n%s",
		career, strings.Join(analysis.AllSkills(), ", "), profileText,
	)

	var out guidance.TailoredResume
	if err := s.llm.CompleteJSON(ctx, resumeTailorSystem, prompt, &out); err != nil {
		return guidance.TailoredResume{}, stageError("tailor_resume", err)
	}
	if out.FullName == "" {
		return guidance.TailoredResume{}, stageError("tailor_resume", fmt.Errorf("model returned no candidate name"))
	}
	return out, nil
}

// ============================================================================
// Stage 4: Action Planner
// ============================================================================

const actionPlannerSystem = `You are a career coach. Given a target career, the
skills it demands, and the gaps found in the candidate's profile, produce a
concrete action plan. Respond with a JSON object:
{"learning_roadmap": "...", "portfolio_plan": "..."}.
The learning roadmap is a step-by-step plan (courses, certifications,
practice) to close the skill gaps. The portfolio plan describes projects the
candidate should build to demonstrate the target skills.`

func (s *Service) createActionPlan(ctx context.Context, career string, analysis guidance.SkillAnalysis, feedback guidance.ProfileFeedback) (string, string, error) {
	prompt := fmt.Sprintf(
		"Target career: %s\nSkills in demand: %s\nIdentified gaps: %s",
		career,
		strings.Join(analysis.AllSkills(), ", "),
		strings.Join(feedback.ResumeGaps, "; "),
	)

	var out struct {
		LearningRoadmap string `json:"learning_roadmap"`
		PortfolioPlan   string `json:"portfolio_plan"`
	}
	if err := s.llm.CompleteJSON(ctx, actionPlannerSystem, prompt, &out); err != nil {
		return "", "", stageError("create_plan", err)
	}
	if out.LearningRoadmap == "" {
		return "", "", stageError("create_plan", fmt.Errorf("model returned no roadmap"))
	}
	return out.LearningRoadmap, out.PortfolioPlan, nil
}

// stageError wraps a stage failure with the stage name for diagnostics
func stageError(stage string, err error) error {
	return guidance.ErrStageFailed().
		WithDetail("stage", stage).
		WithDetails(map[string]any{
			"error": err.Error(),
		})
}
