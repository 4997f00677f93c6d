// internal/workers/predictors/income-stream/models.go
package incomestream

import (
	"opportunity-engine/internal/common/logger"
	"opportunity-engine/internal/common/observability"
)

type StreamType string

const (
	StreamEmployment StreamType = "employment"
	StreamFreelance  StreamType = "freelance"
	StreamBusiness   StreamType = "business"
	StreamPassive    StreamType = "passive"
	StreamCreator    StreamType = "creator"
	StreamMentoring  StreamType = "mentoring"
)

type RiskTolerance string

const (
	RiskLow    RiskTolerance = "low"
	RiskMedium RiskTolerance = "medium"
	RiskHigh   RiskTolerance = "high"
)

type IncomeStream struct {
	Type          StreamType `json:"type,omitempty"`
	Name          string     `json:"name,omitempty"`
	MonthlyIncome float64    `json:"monthlyIncome,omitempty" validate:"min=0"`
}

// Profile is the Zeebe job payload for predict-income.
type Profile struct {
	UserID          string         `json:"userId" validate:"required"`
	CurrentIncome   float64        `json:"currentIncome" validate:"min=0"`
	IncomeStreams   []IncomeStream `json:"incomeStreams,omitempty" validate:"omitempty,dive"`
	Skills          []string       `json:"skills"`
	Industry        string         `json:"industry"`
	ExperienceYears float64        `json:"experienceYears" validate:"min=0"`
	// AvailableHours is per week; nil means 40.
	AvailableHours *int          `json:"availableHoursPerWeek,omitempty" validate:"omitempty,min=0,max=80"`
	RiskTolerance  RiskTolerance `json:"riskTolerance,omitempty" validate:"omitempty,oneof=low medium high"`
	Location       string        `json:"location,omitempty"`
	HasBusiness    bool          `json:"hasBusiness"`
}

func (p Profile) hours() int {
	if p.AvailableHours == nil {
		return 40
	}
	return *p.AvailableHours
}

func (p Profile) risk() RiskTolerance {
	if p.RiskTolerance == "" {
		return RiskMedium
	}
	return p.RiskTolerance
}

type IncomeRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Expected float64 `json:"expected"`
}

type Resource struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type Opportunity struct {
	OpportunityID          string        `json:"opportunityId"`
	StreamType             StreamType    `json:"streamType"`
	Title                  string        `json:"title"`
	Description            string        `json:"description"`
	EstimatedMonthlyIncome IncomeRange   `json:"estimatedMonthlyIncome"`
	TimeInvestmentHours    int           `json:"timeInvestmentHours"`
	StartupCost            float64       `json:"startupCost"`
	RiskLevel              RiskTolerance `json:"riskLevel"`
	SkillMatch             float64       `json:"skillMatch"`
	Requirements           []string      `json:"requirements"`
	Resources              []Resource    `json:"resources"`
}

type Prediction struct {
	UserID               string        `json:"userId"`
	CurrentMonthlyIncome float64       `json:"currentMonthlyIncome"`
	PredictedPotential   float64       `json:"predictedPotential"`
	IncomeGap            float64       `json:"incomeGap"`
	Opportunities        []Opportunity `json:"opportunities"`
	DiversificationScore float64       `json:"diversificationScore"`
	Recommendations      []string      `json:"recommendations"`
}

type EvaluateRequest struct {
	Profile         Profile                `json:"profile"`
	OpportunityType StreamType             `json:"opportunityType" validate:"required,oneof=employment freelance business passive creator mentoring"`
	Details         map[string]interface{} `json:"details,omitempty"`
}

type Evaluation struct {
	FitScore       float64  `json:"fitScore"`
	Recommendation string   `json:"recommendation"`
	Considerations []string `json:"considerations"`
}

type ServiceDependencies struct {
	Logger        logger.Logger
	Observability *observability.Observability
}
