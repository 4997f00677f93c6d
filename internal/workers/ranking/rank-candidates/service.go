// internal/workers/ranking/rank-candidates/service.go
package rankcandidates

import (
	"context"
	stderrors "errors"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"opportunity-engine/internal/common/errors"
	"opportunity-engine/internal/common/logger"
	"opportunity-engine/internal/common/metrics"
	"opportunity-engine/internal/common/observability"
	"opportunity-engine/internal/common/validation"
	"opportunity-engine/internal/engine"
)

type Service struct {
	config *Config
	logger logger.Logger
	obs    *observability.Observability
	engine *engine.RankingEngine
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		logger: deps.Logger,
		obs:    deps.Observability,
		engine: engine.NewRankingEngine(),
	}
}

// Rank scores and orders the candidates. Strategy defaults to light and
// diversityFactor to 0.2.
func (s *Service) Rank(ctx context.Context, input *Input) (out *Output, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "ranker.rank")
	defer span.End()
	defer func() { s.obs.RecordOperation(ctx, "rank", observability.Status(err), time.Since(start)) }()

	if input == nil {
		return nil, errors.NewInvalidInputError("input cannot be nil")
	}
	if stdErr := validation.ValidateStruct(input); stdErr != nil {
		return nil, stdErr
	}

	strategy := input.Strategy
	if strategy == "" {
		strategy = engine.StrategyLight
	}
	diversity := DefaultDiversityFactor
	if input.DiversityFactor != nil {
		diversity = *input.DiversityFactor
	}
	span.SetAttributes(
		attribute.String("strategy", string(strategy)),
		attribute.Int("candidates", len(input.Candidates)),
	)

	items, err := s.engine.Rank(engine.RankRequest{
		Candidates:      input.Candidates,
		Context:         input.UserContext,
		Strategy:        strategy,
		TopK:            input.TopK,
		DiversityFactor: diversity,
	})
	if err != nil {
		return nil, mapEngineError(err)
	}

	scorer, _ := engine.ScorerFor(strategy)
	metrics.RankingRequests.WithLabelValues(string(strategy)).Inc()
	metrics.CandidatesScored.WithLabelValues(scorer.Name()).Add(float64(len(input.Candidates)))

	ranked := make([]RankedItem, len(items))
	for i, item := range items {
		ranked[i] = RankedItem{
			ID:          item.ID,
			Type:        item.Type,
			Score:       item.Score,
			Rank:        item.Position,
			Breakdown:   item.Breakdown,
			Explanation: item.Reason,
		}
	}

	elapsed := time.Since(start)
	s.logger.Info("ranking completed", map[string]interface{}{
		"strategy":    strategy,
		"inputCount":  len(input.Candidates),
		"outputCount": len(ranked),
		"durationMs":  elapsed.Milliseconds(),
	})
	if elapsed > s.config.SlowThreshold {
		s.logger.Warn("ranking exceeded budget", map[string]interface{}{
			"durationMs": elapsed.Milliseconds(),
			"budgetMs":   s.config.SlowThreshold.Milliseconds(),
		})
	}

	return &Output{
		RankedItems:      ranked,
		Strategy:         strategy,
		TotalCandidates:  len(input.Candidates),
		ProcessingTimeMs: math.Round(float64(elapsed.Microseconds())/10) / 100,
		DiversityApplied: diversity > 0,
	}, nil
}

// ScoreSingle scores one candidate with the fast scorer.
func (s *Service) ScoreSingle(ctx context.Context, input *ScoreInput) (*ScoreOutput, error) {
	_, span := observability.StartSpan(ctx, "ranker.score_single")
	defer span.End()

	if input == nil || input.Candidate.ID == "" {
		return nil, errors.NewInvalidInputError("candidate.id is required")
	}

	total, breakdown := engine.FastScorer{}.Score(input.Candidate, input.UserContext)
	metrics.CandidatesScored.WithLabelValues(engine.FastScorer{}.Name()).Inc()

	return &ScoreOutput{
		ID:        input.Candidate.ID,
		Score:     total,
		Breakdown: breakdown,
	}, nil
}

func mapEngineError(err error) error {
	if stderrors.Is(err, engine.ErrInvalidInput) {
		return errors.NewInvalidInputError(err.Error())
	}
	return errors.NewRankingFailedError(err)
}
