// internal/workers/predictors/career-compass/models.go
package careercompass

import (
	"opportunity-engine/internal/common/logger"
	"opportunity-engine/internal/common/observability"
	"opportunity-engine/pkg/registry"
)

const (
	ModelName         = "career_compass"
	Confidence        = 0.85
	IndustryBenchmark = 65.0
	MaxBatchSize      = 100
)

// FeatureNames is the model input order.
var FeatureNames = []string{
	"years_experience",
	"current_salary",
	"education_level",
	"industry_growth",
	"skills_score",
	"leadership_score",
	"certifications",
	"location_index",
	"company_size",
}

// Requirement is registered at startup so a missing model fails fast.
func Requirement() registry.Requirement {
	return registry.Requirement{Name: ModelName, Features: append([]string(nil), FeatureNames...)}
}

// Profile is the Zeebe job payload for predict-career-growth. Optional
// pointers fall back to the documented defaults.
type Profile struct {
	UserID          string   `json:"userId" validate:"required"`
	YearsExperience float64  `json:"yearsExperience" validate:"min=0,max=50"`
	CurrentSalary   float64  `json:"currentSalary" validate:"min=0"`
	EducationLevel  int      `json:"educationLevel" validate:"min=1,max=5"`
	IndustryGrowth  *float64 `json:"industryGrowth,omitempty"`
	SkillsScore     float64  `json:"skillsScore" validate:"min=0,max=100"`
	LeadershipScore *float64 `json:"leadershipScore,omitempty" validate:"omitempty,min=0,max=100"`
	Certifications  int      `json:"certifications" validate:"min=0"`
	LocationIndex   *float64 `json:"locationIndex,omitempty" validate:"omitempty,min=0.5,max=1.6"`
	CompanySize     *int     `json:"companySize,omitempty" validate:"omitempty,min=1"`
	TargetRole      string   `json:"targetRole,omitempty"`
	TargetIndustry  string   `json:"targetIndustry,omitempty"`
	TimelineMonths  *int     `json:"timelineMonths,omitempty" validate:"omitempty,min=6,max=120"`
}

func (p Profile) leadership() float64 {
	if p.LeadershipScore == nil {
		return 50
	}
	return *p.LeadershipScore
}

// Features returns the model input vector in FeatureNames order.
func (p Profile) Features() []float64 {
	growth, location, size := 0.04, 1.0, 100
	if p.IndustryGrowth != nil {
		growth = *p.IndustryGrowth
	}
	if p.LocationIndex != nil {
		location = *p.LocationIndex
	}
	if p.CompanySize != nil {
		size = *p.CompanySize
	}
	return []float64{
		p.YearsExperience,
		p.CurrentSalary,
		float64(p.EducationLevel),
		growth,
		p.SkillsScore,
		p.leadership(),
		float64(p.Certifications),
		location,
		float64(size),
	}
}

type SkillGap struct {
	Skill     string   `json:"skill"`
	Current   float64  `json:"current"`
	Target    float64  `json:"target"`
	Priority  string   `json:"priority"`
	Resources []string `json:"resources"`
}

type Action struct {
	Action    string `json:"action"`
	Impact    string `json:"impact"`
	Timeframe string `json:"timeframe"`
	Details   string `json:"details"`
}

type Prediction struct {
	UserID             string             `json:"userId"`
	CareerGrowthScore  float64            `json:"careerGrowthScore"`
	Confidence         float64            `json:"confidence"`
	SalaryProjection   map[string]float64 `json:"salaryProjection"`
	RoleTrajectory     []string           `json:"roleTrajectory"`
	SkillGaps          []SkillGap         `json:"skillGaps"`
	RecommendedActions []Action           `json:"recommendedActions"`
	PeerPercentile     float64            `json:"peerPercentile"`
	IndustryBenchmark  float64            `json:"industryBenchmark"`
	ModelVersion       string             `json:"modelVersion"`
}

type BatchRequest struct {
	Profiles []Profile `json:"profiles" validate:"min=1,max=100,dive"`
}

type BatchResponse struct {
	Predictions      []Prediction `json:"predictions"`
	ProcessingTimeMs float64      `json:"processingTimeMs"`
}

type FeatureImportance struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"`
}

type ServiceDependencies struct {
	Logger        logger.Logger
	Observability *observability.Observability
	Registry      *registry.Registry
}
