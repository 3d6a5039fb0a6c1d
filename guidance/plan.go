package guidance

import (
	"time"

	"github.com/Abraxas-365/compass/pkg/kernel"
)

// RoleChoice is how the student asked for their target career to be picked
type RoleChoice string

const (
	// RoleChoiceResumeBased asks the model to suggest a career from the resume
	RoleChoiceResumeBased RoleChoice = "resume_based"
	// RoleChoiceMarketDemand asks the model to suggest an in-demand career
	RoleChoiceMarketDemand RoleChoice = "market_demand"
)

// NeedsSuggestion reports whether the role suggester stage must run
func (r RoleChoice) NeedsSuggestion() bool {
	return r == RoleChoiceResumeBased || r == RoleChoiceMarketDemand
}

// CareerPlan is the completed output of the guidance pipeline
type CareerPlan struct {
	ID kernel.PlanID `db:"id" json:"id"`

	// Inputs
	RoleChoice     string `db:"role_choice" json:"role_choice"`
	ProfileText    string `db:"profile_text" json:"profile_text"`
	LinkedInURL    string `db:"linkedin_url" json:"linkedin_url,omitempty"`
	LinkedInUsed   bool   `db:"linkedin_used" json:"linkedin_used"`
	ResumeFilePath string `db:"resume_file_path" json:"resume_file_path"`
	ResumeFileName string `db:"resume_file_name" json:"resume_file_name"`

	// Pipeline outputs
	ChosenCareer    string          `db:"chosen_career" json:"chosen_career"`
	CareerOverview  string          `db:"career_overview" json:"career_overview"`
	SkillAnalysis   SkillAnalysis   `db:"skill_analysis" json:"skill_analysis"`
	ProfileFeedback ProfileFeedback `db:"profile_feedback" json:"profile_feedback"`
	TailoredResume  TailoredResume  `db:"tailored_resume" json:"tailored_resume"`
	LearningRoadmap string          `db:"learning_roadmap" json:"learning_roadmap"`
	PortfolioPlan   string          `db:"portfolio_plan" json:"portfolio_plan"`

	// Generated resume PDF in storage
	ResumePDFPath string `db:"resume_pdf_path" json:"resume_pdf_path,omitempty"`

	// Profile embedding for similarity search
	ProfileEmbedding []float32 `db:"profile_embedding" json:"-"`
	EmbeddingModel   string    `db:"embedding_model" json:"embedding_model,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SkillAnalysis is the market analyst stage output
type SkillAnalysis struct {
	TechnicalSkills []string `json:"technical_skills"`
	SoftSkills      []string `json:"soft_skills"`
}

// ProfileFeedback is the profile reviewer stage output
type ProfileFeedback struct {
	ResumeStrengths     []string `json:"resume_strengths"`
	ResumeGaps          []string `json:"resume_gaps"`
	LinkedInSuggestions []string `json:"linkedin_suggestions"`
}

// JobExperience is one rewritten experience entry of the tailored resume
type JobExperience struct {
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Dates       string   `json:"dates"`
	Description []string `json:"description"`
}

// TailoredResume is the resume tailor stage output
type TailoredResume struct {
	FullName    string          `json:"full_name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Summary     string          `json:"summary"`
	Experiences []JobExperience `json:"experiences"`
	Education   string          `json:"education"`
	Skills      []string        `json:"skills"`
}

// ============================================================================
// Domain Methods
// ============================================================================

// HasLinkedIn reports whether a profile URL was submitted
func (p *CareerPlan) HasLinkedIn() bool {
	return p.LinkedInURL != ""
}

// HasEmbedding reports whether the profile embedding was generated
func (p *CareerPlan) HasEmbedding() bool {
	return len(p.ProfileEmbedding) > 0
}

// HasResumePDF reports whether a generated PDF is stored
func (p *CareerPlan) HasResumePDF() bool {
	return p.ResumePDFPath != ""
}

// IsComplete checks that every pipeline stage produced output
func (p *CareerPlan) IsComplete() bool {
	return p.ChosenCareer != "" &&
		p.CareerOverview != "" &&
		len(p.SkillAnalysis.TechnicalSkills) > 0 &&
		p.LearningRoadmap != "" &&
		p.TailoredResume.FullName != ""
}

// AllSkills returns technical and soft skills as one flat list
func (a SkillAnalysis) AllSkills() []string {
	skills := make([]string, 0, len(a.TechnicalSkills)+len(a.SoftSkills))
	skills = append(skills, a.TechnicalSkills...)
	skills = append(skills, a.SoftSkills...)
	return skills
}

// IsRenderable checks the tailored resume has the minimum content for a PDF
func (t TailoredResume) IsRenderable() bool {
	return t.FullName != "" && (len(t.Experiences) > 0 || t.Education != "" || len(t.Skills) > 0)
}
