package guidancesrv

import (
	"context"
	"errors"
	"testing"

	"github.com/Abraxas-365/compass/guidance"
	"github.com/Abraxas-365/compass/pkg/errx"
	"github.com/stretchr/testify/require"
)

const testProfileText = "--- RESUME ---\nAda Lovelace\nBSc Mathematics, strong analytical background."

func TestRunPipelineWithExplicitRole(t *testing.T) {
	h := newTestHarness()
	h.cannedPipelineResponses()

	req := guidance.GeneratePlanRequest{RoleChoice: "Software Engineer"}
	result, err := h.service.runPipeline(context.Background(), req, testProfileText)
	require.NoError(t, err)

	require.Equal(t, "Software Engineer", result.ChosenCareer)
	require.Equal(t, "Data analysts turn raw data into business decisions.", result.CareerOverview)
	require.Equal(t, []string{"SQL", "Python", "Tableau"}, result.SkillAnalysis.TechnicalSkills)
	require.Equal(t, []string{"No SQL experience listed"}, result.ProfileFeedback.ResumeGaps)
	require.Equal(t, "Ada Lovelace", result.TailoredResume.FullName)
	require.Contains(t, result.LearningRoadmap, "SQL fundamentals")
	require.NotEmpty(t, result.PortfolioPlan)

	// An explicit role choice must never hit the role suggester
	require.Equal(t, 0, h.llm.callCount(roleSuggesterSystem))
	require.Equal(t, 1, h.llm.callCount(marketAnalystSystem))
	require.Equal(t, 1, h.llm.callCount(profileReviewerSystem))
	require.Equal(t, 1, h.llm.callCount(resumeTailorSystem))
	require.Equal(t, 1, h.llm.callCount(actionPlannerSystem))
}

////////////////////////////////////////////////////////////////////////////////

func TestRunPipelineSuggestsRoleFromResume(t *testing.T) {
	h := newTestHarness()
	h.cannedPipelineResponses()

	req := guidance.GeneratePlanRequest{RoleChoice: string(guidance.RoleChoiceResumeBased)}
	result, err := h.service.runPipeline(context.Background(), req, testProfileText)
	require.NoError(t, err)

	require.Equal(t, "Data Analyst", result.ChosenCareer)
	require.Equal(t, 1, h.llm.callCount(roleSuggesterSystem))
}

func TestRunPipelineSuggestsRoleFromMarketDemand(t *testing.T) {
	h := newTestHarness()
	h.cannedPipelineResponses()

	req := guidance.GeneratePlanRequest{RoleChoice: string(guidance.RoleChoiceMarketDemand)}
	result, err := h.service.runPipeline(context.Background(), req, testProfileText)
	require.NoError(t, err)

	require.Equal(t, "Data Analyst", result.ChosenCareer)
	require.Equal(t, 1, h.llm.callCount(roleSuggesterSystem))
}

////////////////////////////////////////////////////////////////////////////////

func TestRunPipelineSuggestRoleEmptyCareer(t *testing.T) {
	h := newTestHarness()
	h.cannedPipelineResponses()
	h.llm.responses[roleSuggesterSystem] = `{"career": "  "}`

	req := guidance.GeneratePlanRequest{RoleChoice: string(guidance.RoleChoiceResumeBased)}
	_, err := h.service.runPipeline(context.Background(), req, testProfileText)
	require.Error(t, err)
	requireStageError(t, err, "suggest_role")

	// Nothing after the failed stage should have run
	require.Equal(t, 0, h.llm.callCount(marketAnalystSystem))
}

func TestRunPipelineMarketAnalysisFailureAborts(t *testing.T) {
	h := newTestHarness()
	h.cannedPipelineResponses()
	h.llm.failures[marketAnalystSystem] = errors.New("rate limited")

	req := guidance.GeneratePlanRequest{RoleChoice: "Data Analyst"}
	_, err := h.service.runPipeline(context.Background(), req, testProfileText)
	require.Error(t, err)
	requireStageError(t, err, "analyze_market")

	require.Equal(t, 0, h.llm.callCount(profileReviewerSystem))
	require.Equal(t, 0, h.llm.callCount(resumeTailorSystem))
}

func TestRunPipelineNoTechnicalSkillsFails(t *testing.T) {
	h := newTestHarness()
	h.cannedPipelineResponses()
	h.llm.responses[marketAnalystSystem] = `{"overview": "ok", "technical_skills": [], "soft_skills": ["Teamwork"]}`

	req := guidance.GeneratePlanRequest{RoleChoice: "Data Analyst"}
	_, err := h.service.runPipeline(context.Background(), req, testProfileText)
	require.Error(t, err)
	requireStageError(t, err, "analyze_market")
}

func TestRunPipelineTailorWithoutNameFails(t *testing.T) {
	h := newTestHarness()
	h.cannedPipelineResponses()
	h.llm.responses[resumeTailorSystem] = `{"full_name": "", "skills": ["Python"]}`

	req := guidance.GeneratePlanRequest{RoleChoice: "Data Analyst"}
	_, err := h.service.runPipeline(context.Background(), req, testProfileText)
	require.Error(t, err)
	requireStageError(t, err, "tailor_resume")

	require.Equal(t, 0, h.llm.callCount(actionPlannerSystem))
}

func TestRunPipelineEmptyRoadmapFails(t *testing.T) {
	h := newTestHarness()
	h.cannedPipelineResponses()
	h.llm.responses[actionPlannerSystem] = `{"learning_roadmap": "", "portfolio_plan": "projects"}`

	req := guidance.GeneratePlanRequest{RoleChoice: "Data Analyst"}
	_, err := h.service.runPipeline(context.Background(), req, testProfileText)
	require.Error(t, err)
	requireStageError(t, err, "create_plan")
}

////////////////////////////////////////////////////////////////////////////////

func requireStageError(t *testing.T, err error, stage string) {
	t.Helper()
	var e *errx.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, guidance.CodeStageFailed, e.Code)
	require.Equal(t, stage, e.Details["stage"])
}
