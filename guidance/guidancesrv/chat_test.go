package guidancesrv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abraxas-365/compass/guidance"
	"github.com/Abraxas-365/compass/pkg/errx"
	"github.com/Abraxas-365/compass/pkg/kernel"
	"github.com/stretchr/testify/require"
)

func storedPlan(h *testHarness, complete bool) *guidance.CareerPlan {
	plan := &guidance.CareerPlan{
		ID:        kernel.NewPlanID("plan-1"),
		CreatedAt: time.Now(),
	}
	if complete {
		plan.ChosenCareer = "Data Analyst"
		plan.CareerOverview = "Turns raw data into decisions."
		plan.SkillAnalysis = guidance.SkillAnalysis{
			TechnicalSkills: []string{"SQL", "Python"},
			SoftSkills:      []string{"Communication"},
		}
		plan.ProfileFeedback = guidance.ProfileFeedback{
			ResumeGaps: []string{"No SQL experience"},
		}
		plan.LearningRoadmap = "Month 1: SQL."
		plan.PortfolioPlan = "Build a dashboard."
		plan.TailoredResume = guidance.TailoredResume{FullName: "Ada Lovelace"}
	}
	h.repo.plans[plan.ID] = plan
	return plan
}

func TestChatAnswersFromPlanContext(t *testing.T) {
	h := newTestHarness()
	plan := storedPlan(h, true)
	h.llm.chatReply = "Start with SQL, it closes your biggest gap."

	resp, err := h.service.Chat(context.Background(), plan.ID, guidance.ChatRequest{
		Message: "Which skill should I learn first?",
	})
	require.NoError(t, err)
	require.Equal(t, "Start with SQL, it closes your biggest gap.", resp.Response)

	// The prompt must carry the plan context and the question
	require.Contains(t, h.llm.chatUser, "Target career: Data Analyst")
	require.Contains(t, h.llm.chatUser, "Skills in demand: SQL, Python, Communication")
	require.Contains(t, h.llm.chatUser, "Identified gaps: No SQL experience")
	require.Contains(t, h.llm.chatUser, "Learning roadmap: Month 1: SQL.")
	require.Contains(t, h.llm.chatUser, "Portfolio plan: Build a dashboard.")
	require.Contains(t, h.llm.chatUser, "Student: Which skill should I learn first?")

	// Both turns land in the history
	turns, err := h.chatStore.History(context.Background(), plan.ID, MaxChatHistoryTurns)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	require.Equal(t, guidance.ChatTurn{Role: "user", Content: "Which skill should I learn first?"}, turns[0])
	require.Equal(t, guidance.ChatTurn{Role: "assistant", Content: "Start with SQL, it closes your biggest gap."}, turns[1])
}

////////////////////////////////////////////////////////////////////////////////

func TestChatReplaysHistory(t *testing.T) {
	h := newTestHarness()
	plan := storedPlan(h, true)
	h.llm.chatReply = "Yes, Tableau is a good next step."

	require.NoError(t, h.chatStore.Append(context.Background(), plan.ID, "user", "Which skill first?"))
	require.NoError(t, h.chatStore.Append(context.Background(), plan.ID, "assistant", "Start with SQL."))

	_, err := h.service.Chat(context.Background(), plan.ID, guidance.ChatRequest{
		Message: "And after that?",
	})
	require.NoError(t, err)

	require.Contains(t, h.llm.chatUser, "Conversation so far:")
	require.Contains(t, h.llm.chatUser, "user: Which skill first?")
	require.Contains(t, h.llm.chatUser, "assistant: Start with SQL.")
}

func TestChatIncompletePlanFallsBack(t *testing.T) {
	h := newTestHarness()
	plan := storedPlan(h, false)

	resp, err := h.service.Chat(context.Background(), plan.ID, guidance.ChatRequest{
		Message: "What should I do?",
	})
	require.NoError(t, err)
	require.Equal(t, chatFallbackMessage, resp.Response)

	// The fallback never calls the model or stores turns
	require.Empty(t, h.llm.chatUser)
	turns, err := h.chatStore.History(context.Background(), plan.ID, MaxChatHistoryTurns)
	require.NoError(t, err)
	require.Empty(t, turns)
}

func TestChatUnknownPlan(t *testing.T) {
	h := newTestHarness()

	_, err := h.service.Chat(context.Background(), kernel.NewPlanID("nope"), guidance.ChatRequest{
		Message: "Hello?",
	})
	requireErrCode(t, err, guidance.CodePlanNotFound)
}

func TestChatEmptyMessage(t *testing.T) {
	h := newTestHarness()
	plan := storedPlan(h, true)

	_, err := h.service.Chat(context.Background(), plan.ID, guidance.ChatRequest{Message: "   "})
	requireErrCode(t, err, guidance.CodeInvalidInput)
}

func TestChatHistoryFailureDegrades(t *testing.T) {
	h := newTestHarness()
	plan := storedPlan(h, true)
	h.llm.chatReply = "Focus on SQL."
	h.chatStore.histErr = errors.New("redis down")

	resp, err := h.service.Chat(context.Background(), plan.ID, guidance.ChatRequest{
		Message: "Which skill first?",
	})
	require.NoError(t, err)
	require.Equal(t, "Focus on SQL.", resp.Response)
}

func TestChatCompletionFailure(t *testing.T) {
	h := newTestHarness()
	plan := storedPlan(h, true)
	h.llm.chatErr = errors.New("rate limited")

	_, err := h.service.Chat(context.Background(), plan.ID, guidance.ChatRequest{
		Message: "Which skill first?",
	})
	requireErrCode(t, err, guidance.CodeChatFailed)
}

////////////////////////////////////////////////////////////////////////////////

func requireErrCode(t *testing.T, err error, code errx.ErrorCode) {
	t.Helper()
	var e *errx.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, code, e.Code)
}
