// internal/workers/predictors/income-stream/service.go
package incomestream

import (
	"context"
	"math"
	"time"

	"opportunity-engine/internal/common/errors"
	"opportunity-engine/internal/common/logger"
	"opportunity-engine/internal/common/metrics"
	"opportunity-engine/internal/common/observability"
	"opportunity-engine/internal/common/validation"
)

const predictorName = "income_stream"

type Service struct {
	config *Config
	logger logger.Logger
	obs    *observability.Observability
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		logger: deps.Logger,
		obs:    deps.Observability,
	}
}

// Predict lists the income opportunities open to a profile and the potential
// they add on top of current income.
func (s *Service) Predict(ctx context.Context, profile *Profile) (out *Prediction, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "income.predict")
	defer span.End()
	defer func() { s.obs.RecordOperation(ctx, "income_predict", observability.Status(err), time.Since(start)) }()

	if profile == nil {
		return nil, errors.NewInvalidInputError("profile cannot be nil")
	}
	if stdErr := validation.ValidateStruct(profile); stdErr != nil {
		return nil, stdErr
	}

	opportunities := Opportunities(*profile)
	potential := potential(profile.CurrentIncome, opportunities)

	out = &Prediction{
		UserID:               profile.UserID,
		CurrentMonthlyIncome: profile.CurrentIncome,
		PredictedPotential:   potential,
		IncomeGap:            potential - profile.CurrentIncome,
		Opportunities:        opportunities,
		DiversificationScore: Diversification(len(profile.IncomeStreams)),
		Recommendations:      recommendations(*profile),
	}

	metrics.Predictions.WithLabelValues(predictorName, "success").Inc()
	s.logger.Info("income prediction completed", map[string]interface{}{
		"userId":        profile.UserID,
		"opportunities": len(opportunities),
		"incomeGap":     out.IncomeGap,
	})
	return out, nil
}

// EvaluateOpportunity rates how well one stream type suits a profile.
func (s *Service) EvaluateOpportunity(ctx context.Context, req *EvaluateRequest) (*Evaluation, error) {
	_, span := observability.StartSpan(ctx, "income.evaluate_opportunity")
	defer span.End()

	if req == nil {
		return nil, errors.NewInvalidInputError("request cannot be nil")
	}
	if stdErr := validation.ValidateStruct(req); stdErr != nil {
		return nil, stdErr
	}

	fit := 70.0
	if req.OpportunityType == StreamBusiness || req.OpportunityType == StreamCreator {
		switch req.Profile.risk() {
		case RiskHigh:
			fit += 15
		case RiskLow:
			fit -= 20
		}
	}

	recommendation := "consider_alternatives"
	if fit >= 60 {
		recommendation = "pursue"
	}
	return &Evaluation{
		FitScore:       fit,
		Recommendation: recommendation,
		Considerations: []string{"Time investment", "Market demand", "Competition"},
	}, nil
}

// Opportunities returns the opportunities a profile qualifies for, in a
// fixed order.
func Opportunities(p Profile) []Opportunity {
	out := []Opportunity{}
	if len(p.Skills) > 0 && p.hours() >= 10 {
		out = append(out, Opportunity{
			OpportunityID:          "opp_freelance_1",
			StreamType:             StreamFreelance,
			Title:                  "Freelance Consulting",
			Description:            "Leverage your skills for consulting projects",
			EstimatedMonthlyIncome: IncomeRange{Min: 500, Max: 5000, Expected: 2000},
			TimeInvestmentHours:    15,
			RiskLevel:              RiskLow,
			SkillMatch:             85,
			Requirements:           []string{"Portfolio", "Professional profile"},
			Resources:              []Resource{{Type: "guide", URL: "/guides/freelancing"}},
		})
	}
	if p.ExperienceYears >= 3 {
		out = append(out, Opportunity{
			OpportunityID:          "opp_creator_1",
			StreamType:             StreamCreator,
			Title:                  "Content Creation",
			Description:            "Share expertise through content",
			EstimatedMonthlyIncome: IncomeRange{Min: 100, Max: 10000, Expected: 1500},
			TimeInvestmentHours:    10,
			StartupCost:            200,
			RiskLevel:              RiskMedium,
			SkillMatch:             70,
			Requirements:           []string{"Content strategy", "Consistent posting"},
			Resources:              []Resource{{Type: "course", URL: "/courses/creator-economy"}},
		})
	}
	if p.ExperienceYears >= 5 {
		out = append(out, Opportunity{
			OpportunityID:          "opp_mentor_1",
			StreamType:             StreamMentoring,
			Title:                  "Professional Mentoring",
			Description:            "Guide others in your field",
			EstimatedMonthlyIncome: IncomeRange{Min: 200, Max: 3000, Expected: 800},
			TimeInvestmentHours:    5,
			RiskLevel:              RiskLow,
			SkillMatch:             90,
			Requirements:           []string{"Industry expertise", "Communication skills"},
			Resources:              []Resource{{Type: "program", URL: "/mentors/become-mentor"}},
		})
	}
	return out
}

// potential discounts the expected income of the first three opportunities
// by half.
func potential(current float64, opportunities []Opportunity) float64 {
	var additional float64
	for i, o := range opportunities {
		if i == 3 {
			break
		}
		additional += o.EstimatedMonthlyIncome.Expected
	}
	return current + additional*0.5
}

// Diversification scores the number of existing income streams.
func Diversification(streams int) float64 {
	switch streams {
	case 0:
		return 20
	case 1:
		return 40
	case 2:
		return 65
	default:
		return math.Min(100, float64(70+10*streams))
	}
}

func recommendations(p Profile) []string {
	out := []string{}
	if len(p.IncomeStreams) < 2 {
		out = append(out, "Consider diversifying with a secondary income stream")
	}
	if p.risk() == RiskLow {
		out = append(out, "Focus on stable, recurring income opportunities")
	}
	if p.hours() < 10 {
		out = append(out, "Consider passive income options given time constraints")
	}
	return out
}
