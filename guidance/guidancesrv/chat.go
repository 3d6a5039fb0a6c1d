package guidancesrv

import (
	"context"
	"fmt"
	"strings"

	"github.com/Abraxas-365/compass/guidance"
	"github.com/Abraxas-365/compass/pkg/kernel"
	"github.com/Abraxas-365/compass/pkg/logx"
)

const (
	// MaxChatHistoryTurns caps how much prior conversation is replayed
	// into the advisor prompt.
	MaxChatHistoryTurns = 20

	chatFallbackMessage = "I don't have your career plan loaded yet. Please generate a plan first, then ask me about it."
)

const chatAdvisorSystem = `You are a friendly career advisor chatting with a student
about their personal career plan. Answer questions using the plan context
provided. Stay grounded in the plan; if asked about something outside it,
relate your answer back to the student's target career. Keep answers concise
and encouraging.`

// Chat answers a follow-up question grounded in the stored plan. A missing
// or incomplete plan context degrades to a fixed fallback message rather
// than an error.
func (s *Service) Chat(ctx context.Context, planID kernel.PlanID, req guidance.ChatRequest) (*guidance.ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, guidance.ErrInvalidInput().
			WithDetail("reason", "message is required")
	}

	plan, err := s.repo.GetByID(ctx, planID)
	if err != nil {
		return nil, guidance.ErrPlanNotFound().
			WithDetail("plan_id", planID)
	}

	if !plan.IsComplete() {
		return &guidance.ChatResponse{Response: chatFallbackMessage}, nil
	}

	history, histErr := s.chats.History(ctx, planID, MaxChatHistoryTurns)
	if histErr != nil {
		// Losing the history degrades the conversation, it doesn't break it
		logx.Warnf("Failed to load chat history for plan %s: %v", planID, histErr)
		history = nil
	}

	prompt := buildChatPrompt(plan, history, message)

	answer, err := s.llm.Complete(ctx, chatAdvisorSystem, prompt)
	if err != nil {
		return nil, guidance.ErrChatFailed().
			WithDetail("plan_id", planID).
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	if appendErr := s.chats.Append(ctx, planID, "user", message); appendErr != nil {
		logx.Warnf("Failed to store chat turn for plan %s: %v", planID, appendErr)
	}
	if appendErr := s.chats.Append(ctx, planID, "assistant", answer); appendErr != nil {
		logx.Warnf("Failed to store chat turn for plan %s: %v", planID, appendErr)
	}

	return &guidance.ChatResponse{Response: answer}, nil
}

// buildChatPrompt folds the plan context, the recent history, and the new
// question into one prompt.
func buildChatPrompt(plan *guidance.CareerPlan, history []guidance.ChatTurn, message string) string {
	var sb strings.Builder

	sb.WriteString("Career plan context:\n")
	fmt.Fprintf(&sb, "Target career: %s\n", plan.ChosenCareer)
	fmt.Fprintf(&sb, "Career overview: %s\n", plan.CareerOverview)
	fmt.Fprintf(&sb, "Skills in demand: %s\n", strings.Join(plan.SkillAnalysis.AllSkills(), ", "))
	if len(plan.ProfileFeedback.ResumeGaps) > 0 {
		fmt.Fprintf(&sb, "Identified gaps: %s\n", strings.Join(plan.ProfileFeedback.ResumeGaps, "; "))
	}
	fmt.Fprintf(&sb, "Learning roadmap: %s\n", plan.LearningRoadmap)
	if plan.PortfolioPlan != "" {
		fmt.Fprintf(&sb, "Portfolio plan: %s\n", plan.PortfolioPlan)
	}

	if len(history) > 0 {
		sb.WriteString("\nConversation so far:\n")
		for _, turn := range history {
			fmt.Fprintf(&sb, "%s: %s\n", turn.Role, turn.Content)
		}
	}

	sb.WriteString("\nStudent: ")
	sb.WriteString(message)
	return sb.String()
}
