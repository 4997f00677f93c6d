// internal/workers/predictors/career-compass/service.go
package careercompass

import (
	"context"
	stderrors "errors"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"opportunity-engine/internal/common/errors"
	"opportunity-engine/internal/common/logger"
	"opportunity-engine/internal/common/metrics"
	"opportunity-engine/internal/common/observability"
	"opportunity-engine/internal/common/validation"
	"opportunity-engine/pkg/registry"
)

const predictorName = "career_compass"

var trajectories = map[string][]string{
	"high":   {"Senior Specialist", "Team Lead", "Manager", "Director"},
	"medium": {"Senior Role", "Specialist", "Team Lead"},
	"low":    {"Mid-level Role", "Senior Role"},
}

type Service struct {
	config   *Config
	logger   logger.Logger
	obs      *observability.Observability
	registry *registry.Registry
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:   config,
		logger:   deps.Logger,
		obs:      deps.Observability,
		registry: deps.Registry,
	}
}

func (s *Service) model() (*registry.Model, error) {
	m, ok := s.registry.Get(ModelName)
	if !ok {
		return nil, errors.NewModelNotLoadedError(ModelName)
	}
	return m, nil
}

// Predict scores one profile with the career model and derives the
// projections from that score.
func (s *Service) Predict(ctx context.Context, profile *Profile) (out *Prediction, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "career.predict")
	defer span.End()
	defer func() { s.obs.RecordOperation(ctx, "career_predict", observability.Status(err), time.Since(start)) }()

	if profile == nil {
		return nil, errors.NewInvalidInputError("profile cannot be nil")
	}
	if stdErr := validation.ValidateStruct(profile); stdErr != nil {
		return nil, stdErr
	}

	model, err := s.model()
	if err != nil {
		return nil, err
	}
	out, err = s.predict(model, profile)
	if err != nil {
		metrics.Predictions.WithLabelValues(predictorName, "error").Inc()
		return nil, err
	}

	metrics.Predictions.WithLabelValues(predictorName, "success").Inc()
	s.logger.Info("career prediction completed", map[string]interface{}{
		"userId":      profile.UserID,
		"score":       out.CareerGrowthScore,
		"placeholder": model.Placeholder,
	})
	return out, nil
}

// BatchPredict scores up to MaxBatchSize profiles concurrently. Results keep
// request order; the first failure fails the batch.
func (s *Service) BatchPredict(ctx context.Context, req *BatchRequest) (out *BatchResponse, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "career.batch_predict")
	defer span.End()
	defer func() { s.obs.RecordOperation(ctx, "career_batch_predict", observability.Status(err), time.Since(start)) }()

	if req == nil {
		return nil, errors.NewInvalidInputError("request cannot be nil")
	}
	if stdErr := validation.ValidateStruct(req); stdErr != nil {
		return nil, stdErr
	}
	span.SetAttributes(attribute.Int("profiles", len(req.Profiles)))

	model, err := s.model()
	if err != nil {
		return nil, err
	}

	predictions := make([]Prediction, len(req.Profiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.BatchWorkers)
	for i := range req.Profiles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := s.predict(model, &req.Profiles[i])
			if err != nil {
				return err
			}
			predictions[i] = *p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.Predictions.WithLabelValues(predictorName, "error").Inc()
		var stdErr *errors.StandardError
		if stderrors.As(err, &stdErr) {
			return nil, stdErr
		}
		return nil, errors.NewPredictionFailedError(err)
	}

	metrics.Predictions.WithLabelValues(predictorName, "success").Add(float64(len(predictions)))
	elapsed := time.Since(start)
	s.logger.Info("career batch prediction completed", map[string]interface{}{
		"profiles":   len(predictions),
		"durationMs": elapsed.Milliseconds(),
	})
	return &BatchResponse{
		Predictions:      predictions,
		ProcessingTimeMs: math.Round(float64(elapsed.Microseconds())/10) / 100,
	}, nil
}

// FeatureImportance returns the model's importances, largest first.
func (s *Service) FeatureImportance() ([]FeatureImportance, error) {
	model, err := s.model()
	if err != nil {
		return nil, err
	}
	imps := model.FeatureImportances()
	out := make([]FeatureImportance, len(imps))
	for i, fi := range imps {
		out[i] = FeatureImportance{Name: fi.Feature, Importance: math.Round(fi.Importance*1e4) / 1e4}
	}
	return out, nil
}

func (s *Service) predict(model *registry.Model, p *Profile) (*Prediction, error) {
	raw, err := model.Predict(p.Features())
	if err != nil {
		return nil, errors.NewPredictionFailedError(err)
	}
	score := math.Max(0, math.Min(100, raw))

	return &Prediction{
		UserID:             p.UserID,
		CareerGrowthScore:  round2(score),
		Confidence:         Confidence,
		SalaryProjection:   SalaryProjection(p.CurrentSalary, score),
		RoleTrajectory:     append([]string(nil), trajectories[Trajectory(score)]...),
		SkillGaps:          skillGaps(p),
		RecommendedActions: recommendedActions(p, score),
		PeerPercentile:     PeerPercentile(score),
		IndustryBenchmark:  IndustryBenchmark,
		ModelVersion:       model.Version,
	}, nil
}

// SalaryProjection compounds salary at 3% to 10% a year depending on score.
func SalaryProjection(salary, score float64) map[string]float64 {
	rate := 0.03 + score/100*0.07
	project := func(years float64) float64 {
		return math.Round(salary * math.Pow(1+rate, years))
	}
	return map[string]float64{
		"year_1": project(1),
		"year_2": project(2),
		"year_3": project(3),
		"year_5": project(5),
	}
}

// Trajectory buckets a score into high, medium or low.
func Trajectory(score float64) string {
	switch {
	case score >= 70:
		return "high"
	case score >= 40:
		return "medium"
	default:
		return "low"
	}
}

func PeerPercentile(score float64) float64 {
	switch {
	case score >= 80:
		return 90
	case score >= 60:
		return 70
	case score >= 40:
		return 50
	default:
		return 30
	}
}

func skillGaps(p *Profile) []SkillGap {
	gaps := []SkillGap{}
	if p.SkillsScore < 70 {
		gaps = append(gaps, SkillGap{
			Skill: "Technical Skills", Current: p.SkillsScore, Target: 80, Priority: "high",
			Resources: []string{"Online courses", "Certifications", "Projects"},
		})
	}
	if p.leadership() < 60 {
		gaps = append(gaps, SkillGap{
			Skill: "Leadership", Current: p.leadership(), Target: 70, Priority: "medium",
			Resources: []string{"Leadership workshops", "Mentorship", "Team projects"},
		})
	}
	if p.Certifications < 2 {
		gaps = append(gaps, SkillGap{
			Skill: "Professional Certifications", Current: float64(p.Certifications), Target: 3, Priority: "medium",
			Resources: []string{"Industry certifications", "Professional development"},
		})
	}
	return gaps
}

func recommendedActions(p *Profile, score float64) []Action {
	var actions []Action
	if score < 50 {
		actions = append(actions, Action{
			Action: "Upskill in high-demand areas", Impact: "high", Timeframe: "3-6 months",
			Details: "Focus on technical skills that are in demand in your industry",
		})
	}
	if p.YearsExperience >= 5 && p.leadership() < 60 {
		actions = append(actions, Action{
			Action: "Develop leadership capabilities", Impact: "high", Timeframe: "6-12 months",
			Details: "Seek leadership opportunities or formal training",
		})
	}
	return append(actions, Action{
		Action: "Expand professional network", Impact: "medium", Timeframe: "ongoing",
		Details: "Connect with mentors and industry professionals",
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
