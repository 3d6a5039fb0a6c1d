package guidanceinfra

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Abraxas-365/compass/guidance"
	"github.com/Abraxas-365/compass/pkg/kernel"
	"github.com/pgvector/pgvector-go"
)

// planRow is the database model for career_plans with JSONB columns kept
// as raw text until decoded.
type planRow struct {
	ID             string `db:"id"`
	RoleChoice     string `db:"role_choice"`
	ProfileText    string `db:"profile_text"`
	LinkedInURL    string `db:"linkedin_url"`
	LinkedInUsed   bool   `db:"linkedin_used"`
	ResumeFilePath string `db:"resume_file_path"`
	ResumeFileName string `db:"resume_file_name"`

	ChosenCareer    string `db:"chosen_career"`
	CareerOverview  string `db:"career_overview"`
	SkillAnalysis   []byte `db:"skill_analysis"`
	ProfileFeedback []byte `db:"profile_feedback"`
	TailoredResume  []byte `db:"tailored_resume"`
	LearningRoadmap string `db:"learning_roadmap"`
	PortfolioPlan   string `db:"portfolio_plan"`

	ResumePDFPath sql.NullString `db:"resume_pdf_path"`

	ProfileEmbedding sql.NullString `db:"profile_embedding"`
	EmbeddingModel   sql.NullString `db:"embedding_model"`

	CreatedAt time.Time `db:"created_at"`
}

// ToDomain converts the row to the domain model
func (r *planRow) ToDomain() (*guidance.CareerPlan, error) {
	plan := &guidance.CareerPlan{
		ID:              kernel.PlanID(r.ID),
		RoleChoice:      r.RoleChoice,
		ProfileText:     r.ProfileText,
		LinkedInURL:     r.LinkedInURL,
		LinkedInUsed:    r.LinkedInUsed,
		ResumeFilePath:  r.ResumeFilePath,
		ResumeFileName:  r.ResumeFileName,
		ChosenCareer:    r.ChosenCareer,
		CareerOverview:  r.CareerOverview,
		LearningRoadmap: r.LearningRoadmap,
		PortfolioPlan:   r.PortfolioPlan,
		ResumePDFPath:   r.ResumePDFPath.String,
		EmbeddingModel:  r.EmbeddingModel.String,
		CreatedAt:       r.CreatedAt,
	}

	if len(r.SkillAnalysis) > 0 {
		if err := json.Unmarshal(r.SkillAnalysis, &plan.SkillAnalysis); err != nil {
			return nil, fmt.Errorf("unmarshal skill_analysis: %w", err)
		}
	}
	if len(r.ProfileFeedback) > 0 {
		if err := json.Unmarshal(r.ProfileFeedback, &plan.ProfileFeedback); err != nil {
			return nil, fmt.Errorf("unmarshal profile_feedback: %w", err)
		}
	}
	if len(r.TailoredResume) > 0 {
		if err := json.Unmarshal(r.TailoredResume, &plan.TailoredResume); err != nil {
			return nil, fmt.Errorf("unmarshal tailored_resume: %w", err)
		}
	}

	if r.ProfileEmbedding.Valid {
		plan.ProfileEmbedding = vectorToFloat32Slice(r.ProfileEmbedding.String)
	}

	return plan, nil
}

// float32SliceToVectorOrNil converts []float32 to pgvector.Vector, NULL
// when the plan carries no embedding.
func float32SliceToVectorOrNil(slice []float32) any {
	if len(slice) == 0 {
		return nil
	}
	return pgvector.NewVector(slice)
}

// vectorToFloat32Slice converts pgvector text format to []float32
func vectorToFloat32Slice(vectorStr string) []float32 {
	if vectorStr == "" || vectorStr == "[]" {
		return nil
	}

	vec := pgvector.Vector{}
	if err := vec.Scan(vectorStr); err != nil {
		return nil
	}
	return vec.Slice()
}
