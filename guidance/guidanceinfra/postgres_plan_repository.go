package guidanceinfra

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Abraxas-365/compass/guidance"
	"github.com/Abraxas-365/compass/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const planColumns = `
	id, role_choice, profile_text, linkedin_url, linkedin_used,
	resume_file_path, resume_file_name,
	chosen_career, career_overview, skill_analysis, profile_feedback,
	tailored_resume, learning_roadmap, portfolio_plan,
	resume_pdf_path, profile_embedding::text, embedding_model, created_at`

type PostgresPlanRepository struct {
	db *sqlx.DB
}

func NewPostgresPlanRepository(db *sqlx.DB) *PostgresPlanRepository {
	return &PostgresPlanRepository{db: db}
}

// ============================================================================
// CRUD Operations
// ============================================================================

// Create creates a new career plan
func (r *PostgresPlanRepository) Create(ctx context.Context, plan *guidance.CareerPlan) error {
	query := `
		INSERT INTO career_plans (
			id, role_choice, profile_text, linkedin_url, linkedin_used,
			resume_file_path, resume_file_name,
			chosen_career, career_overview, skill_analysis, profile_feedback,
			tailored_resume, learning_roadmap, portfolio_plan,
			resume_pdf_path, profile_embedding, embedding_model, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7,
			$8, $9, $10, $11,
			$12, $13, $14,
			$15, $16, $17, $18
		)`

	skillAnalysis, err := json.Marshal(plan.SkillAnalysis)
	if err != nil {
		return guidance.ErrPlanCreationFailed().
			WithDetail("field", "skill_analysis").
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	profileFeedback, err := json.Marshal(plan.ProfileFeedback)
	if err != nil {
		return guidance.ErrPlanCreationFailed().
			WithDetail("field", "profile_feedback").
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	tailoredResume, err := json.Marshal(plan.TailoredResume)
	if err != nil {
		return guidance.ErrPlanCreationFailed().
			WithDetail("field", "tailored_resume").
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	_, err = r.db.ExecContext(ctx, query,
		plan.ID, plan.RoleChoice, plan.ProfileText, plan.LinkedInURL, plan.LinkedInUsed,
		plan.ResumeFilePath, plan.ResumeFileName,
		plan.ChosenCareer, plan.CareerOverview, skillAnalysis, profileFeedback,
		tailoredResume, plan.LearningRoadmap, plan.PortfolioPlan,
		nullableString(plan.ResumePDFPath), float32SliceToVectorOrNil(plan.ProfileEmbedding),
		nullableString(plan.EmbeddingModel), plan.CreatedAt,
	)
	if err != nil {
		// Check for duplicate key error
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return guidance.ErrPlanCreationFailed().
				WithDetail("plan_id", plan.ID).
				WithDetail("reason", "duplicate plan id")
		}
		return guidance.ErrRegistry.NewWithCause(guidance.CodePlanCreationFailed, err).
			WithDetail("plan_id", plan.ID).
			WithDetail("operation", "insert")
	}

	return nil
}

// GetByID retrieves a plan by ID
func (r *PostgresPlanRepository) GetByID(ctx context.Context, id kernel.PlanID) (*guidance.CareerPlan, error) {
	query := `SELECT ` + planColumns + `
		FROM career_plans
		WHERE id = $1`

	row := &planRow{}
	err := r.db.GetContext(ctx, row, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, guidance.ErrPlanNotFound().
				WithDetail("plan_id", id)
		}
		return nil, guidance.ErrRegistry.NewWithCause(guidance.CodePlanStorageFailed, err).
			WithDetail("plan_id", id).
			WithDetail("operation", "get")
	}

	plan, err := row.ToDomain()
	if err != nil {
		return nil, guidance.ErrRegistry.NewWithCause(guidance.CodePlanStorageFailed, err).
			WithDetail("plan_id", id).
			WithDetail("operation", "decode")
	}
	return plan, nil
}

// Delete deletes a plan
func (r *PostgresPlanRepository) Delete(ctx context.Context, id kernel.PlanID) error {
	query := `DELETE FROM career_plans WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return guidance.ErrRegistry.NewWithCause(guidance.CodePlanStorageFailed, err).
			WithDetail("plan_id", id).
			WithDetail("operation", "delete")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return guidance.ErrRegistry.NewWithCause(guidance.CodePlanStorageFailed, err).
			WithDetail("plan_id", id)
	}
	if rows == 0 {
		return guidance.ErrPlanNotFound().
			WithDetail("plan_id", id)
	}

	return nil
}

// List retrieves the given plans newest first with pagination
func (r *PostgresPlanRepository) List(ctx context.Context, ids []kernel.PlanID, pagination kernel.PaginationOptions) (*kernel.Paginated[guidance.CareerPlan], error) {
	planIDs := make([]string, len(ids))
	for i, id := range ids {
		planIDs[i] = id.String()
	}

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM career_plans WHERE id = ANY($1)`, pq.Array(planIDs)); err != nil {
		return nil, guidance.ErrRegistry.NewWithCause(guidance.CodePlanStorageFailed, err).
			WithDetail("operation", "count")
	}

	query := `SELECT ` + planColumns + `
		FROM career_plans
		WHERE id = ANY($1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows := []planRow{}
	err := r.db.SelectContext(ctx, &rows, query, pq.Array(planIDs), pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, guidance.ErrRegistry.NewWithCause(guidance.CodePlanStorageFailed, err).
			WithDetail("operation", "list").
			WithDetails(map[string]any{
				"page":      pagination.Page,
				"page_size": pagination.PageSize,
			})
	}

	plans := make([]guidance.CareerPlan, len(rows))
	for i, row := range rows {
		plan, err := row.ToDomain()
		if err != nil {
			return nil, guidance.ErrRegistry.NewWithCause(guidance.CodePlanStorageFailed, err).
				WithDetail("row_index", i).
				WithDetail("operation", "decode")
		}
		plans[i] = *plan
	}

	paginated := kernel.NewPaginated(plans, pagination.Page, pagination.PageSize, total)
	return &paginated, nil
}

// UpdateResumePDFPath records where the generated resume PDF was stored
func (r *PostgresPlanRepository) UpdateResumePDFPath(ctx context.Context, id kernel.PlanID, path string) error {
	query := `UPDATE career_plans SET resume_pdf_path = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, path)
	if err != nil {
		return guidance.ErrRegistry.NewWithCause(guidance.CodePlanStorageFailed, err).
			WithDetail("plan_id", id).
			WithDetail("operation", "update_pdf_path")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return guidance.ErrRegistry.NewWithCause(guidance.CodePlanStorageFailed, err).
			WithDetail("plan_id", id)
	}
	if rows == 0 {
		return guidance.ErrPlanNotFound().
			WithDetail("plan_id", id)
	}

	return nil
}

// ============================================================================
// Similarity Search with pgvector
// ============================================================================

// SimilarPlans finds plans whose profile embedding is closest to the given
// plan's, by cosine similarity, excluding the plan itself.
func (r *PostgresPlanRepository) SimilarPlans(ctx context.Context, req guidance.SimilarPlansRequest) ([]guidance.SimilarPlanResult, error) {
	query := `
		SELECT
			p.id,
			p.chosen_career,
			p.tailored_resume->>'full_name' AS full_name,
			p.created_at,
			1 - (p.profile_embedding <=> ref.profile_embedding) AS similarity_score
		FROM career_plans p,
			(SELECT profile_embedding FROM career_plans WHERE id = $1) ref
		WHERE p.id != $1
			AND p.profile_embedding IS NOT NULL
			AND ref.profile_embedding IS NOT NULL
		ORDER BY p.profile_embedding <=> ref.profile_embedding
		LIMIT $2`

	type matchRow struct {
		ID              string    `db:"id"`
		ChosenCareer    string    `db:"chosen_career"`
		FullName        string    `db:"full_name"`
		CreatedAt       time.Time `db:"created_at"`
		SimilarityScore float64   `db:"similarity_score"`
	}

	rows := []matchRow{}
	err := r.db.SelectContext(ctx, &rows, query, req.PlanID, req.TopK)
	if err != nil {
		return nil, guidance.ErrRegistry.NewWithCause(guidance.CodeSearchFailed, err).
			WithDetail("plan_id", req.PlanID).
			WithDetail("operation", "similar_plans")
	}

	results := make([]guidance.SimilarPlanResult, len(rows))
	for i, row := range rows {
		results[i] = guidance.SimilarPlanResult{
			Plan: guidance.PlanSummaryResponse{
				ID:           kernel.PlanID(row.ID),
				ChosenCareer: row.ChosenCareer,
				FullName:     row.FullName,
				CreatedAt:    row.CreatedAt,
			},
			SimilarityScore: row.SimilarityScore,
		}
	}
	return results, nil
}

// nullableString maps "" to NULL
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
