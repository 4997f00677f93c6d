// internal/workers/feed/generate-feed/service.go
package generatefeed

import (
	"context"
	stderrors "errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"

	"opportunity-engine/internal/common/errors"
	"opportunity-engine/internal/common/logger"
	"opportunity-engine/internal/common/metrics"
	"opportunity-engine/internal/common/observability"
	"opportunity-engine/internal/common/validation"
	"opportunity-engine/internal/engine"
)

type Service struct {
	config   *Config
	logger   logger.Logger
	obs      *observability.Observability
	source   CandidateSource
	cache    PageCache
	composer *engine.FeedComposer
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		config:   config,
		logger:   deps.Logger,
		obs:      deps.Observability,
		source:   deps.Source,
		cache:    deps.Cache,
		composer: engine.NewFeedComposer(now),
	}
}

// Generate composes one feed page. Cached pages are served as-is with
// cached=true; cache errors never fail the request.
func (s *Service) Generate(ctx context.Context, input *Input) (out *Output, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "feed.generate")
	defer span.End()
	defer func() { s.obs.RecordOperation(ctx, "feed_generate", observability.Status(err), time.Since(start)) }()

	if input == nil {
		return nil, errors.NewInvalidInputError("input cannot be nil")
	}
	if stdErr := validation.ValidateStruct(input); stdErr != nil {
		return nil, stdErr
	}
	if input.UserContext.UserID == "" {
		return nil, errors.NewInvalidInputError("userContext.userId is required")
	}

	feedContext := input.UserContext.FeedContext
	if feedContext == "" {
		feedContext = engine.FeedHome
	}
	span.SetAttributes(
		attribute.String("user_id", input.UserContext.UserID),
		attribute.String("feed_context", string(feedContext)),
	)

	cacheKey := s.cacheKey(input)
	if cached := s.lookup(ctx, cacheKey); cached != nil {
		cached.Cached = true
		cached.GenerationTimeMs = elapsedMs(start)
		metrics.FeedPages.WithLabelValues(string(feedContext), "hit").Inc()
		return cached, nil
	}

	candidates := input.Candidates
	if len(candidates) == 0 && input.FetchCandidates {
		candidates, err = s.fetch(ctx, input.UserContext)
		if err != nil {
			return nil, err
		}
	}

	page, err := s.composer.Compose(engine.ComposeRequest{
		Candidates: candidates,
		Context:    input.UserContext,
		Page:       input.Page,
		PageSize:   input.PageSize,
		Ratios:     input.MixRatios,
	})
	if err != nil {
		if stderrors.Is(err, engine.ErrInvalidInput) {
			return nil, errors.NewInvalidInputError(err.Error())
		}
		return nil, errors.NewFeedGenerationFailedError(err)
	}

	pageSize := input.PageSize
	if pageSize == 0 {
		pageSize = engine.DefaultPageSize
	}
	items := make([]FeedItem, len(page.Items))
	for i, item := range page.Items {
		items[i] = FeedItem{
			ID:        item.ID,
			Type:      item.Type,
			Score:     math.Round(item.Score*100) / 100,
			Position:  item.Position,
			Reason:    item.Reason,
			Sponsored: item.Sponsored,
		}
	}

	out = &Output{
		FeedID:           uuid.New().String(),
		UserID:           input.UserContext.UserID,
		FeedContext:      feedContext,
		Items:            items,
		Page:             page.Page,
		PageSize:         pageSize,
		HasMore:          page.HasMore,
		MixRatios:        page.Ratios,
		TotalCandidates:  len(candidates),
		GenerationTimeMs: elapsedMs(start),
	}

	cacheStatus := "off"
	if cacheKey != "" {
		cacheStatus = "miss"
		if err := s.cache.Set(ctx, cacheKey, out); err != nil {
			s.logger.Warn("feed cache write failed", map[string]interface{}{
				"key":   cacheKey,
				"error": err.Error(),
			})
		}
	}
	metrics.FeedPages.WithLabelValues(string(feedContext), cacheStatus).Inc()
	metrics.CandidatesScored.WithLabelValues("feed").Add(float64(len(candidates)))

	s.logger.Info("feed generated", map[string]interface{}{
		"userId":      out.UserID,
		"feedId":      out.FeedID,
		"feedContext": feedContext,
		"candidates":  len(candidates),
		"items":       len(items),
		"page":        out.Page,
		"durationMs":  out.GenerationTimeMs,
	})
	if elapsed := time.Since(start); elapsed > s.config.SlowThreshold {
		s.logger.Warn("feed generation exceeded budget", map[string]interface{}{
			"durationMs": elapsed.Milliseconds(),
			"budgetMs":   s.config.SlowThreshold.Milliseconds(),
		})
	}

	return out, nil
}

// MixConfig returns the default ratios for a feed context.
func (s *Service) MixConfig(feedContext engine.FeedContext) (engine.MixRatios, error) {
	ratios, err := engine.MixRatiosFor(feedContext)
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}
	return ratios, nil
}

func (s *Service) cacheKey(input *Input) string {
	if s.cache == nil || s.config.CacheTTL <= 0 {
		return ""
	}
	key, err := PageKey(input)
	if err != nil {
		s.logger.Warn("feed cache key failed", map[string]interface{}{"error": err.Error()})
		return ""
	}
	return key
}

func (s *Service) lookup(ctx context.Context, key string) *Output {
	if key == "" {
		return nil
	}
	page, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("feed cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil
	}
	return page
}

func (s *Service) fetch(ctx context.Context, uc engine.UserContext) ([]engine.Candidate, error) {
	if s.source == nil {
		return nil, errors.NewInvalidInputError("fetchCandidates requested but no candidate source is configured")
	}

	ctx, span := observability.StartSpan(ctx, "feed.fetch_candidates")
	defer span.End()

	candidates, err := s.source.Fetch(ctx, uc, s.config.FetchLimit)
	if err != nil {
		stdErr := errors.NewSearchQueryFailedError(s.config.CandidateIndex, err)
		if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
			stdErr.WithMetadata("breaker", "open")
		}
		return nil, stdErr
	}
	return candidates, nil
}

func elapsedMs(start time.Time) float64 {
	return math.Round(float64(time.Since(start).Microseconds())/10) / 100
}
