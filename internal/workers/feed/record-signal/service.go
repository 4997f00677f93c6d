// internal/workers/feed/record-signal/service.go
package recordsignal

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"opportunity-engine/internal/common/aws"
	"opportunity-engine/internal/common/database"
	"opportunity-engine/internal/common/errors"
	"opportunity-engine/internal/common/logger"
	"opportunity-engine/internal/common/metrics"
	"opportunity-engine/internal/common/observability"
	"opportunity-engine/internal/common/validation"
	"opportunity-engine/internal/engine"
	generatefeed "opportunity-engine/internal/workers/feed/generate-feed"
)

type Service struct {
	config    *Config
	logger    logger.Logger
	obs       *observability.Observability
	rdb       redis.Cmdable
	publisher aws.SignalPublisher
	now       func() time.Time
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = aws.NoopPublisher{}
	}
	return &Service{
		config:    config,
		logger:    deps.Logger,
		obs:       deps.Observability,
		rdb:       deps.Redis,
		publisher: publisher,
		now:       now,
	}
}

func SignalsKey(userID string) string { return "feed:signals:" + userID }
func HistoryKey(userID string) string { return "feed:history:" + userID }
func ItemKey(itemID string) string    { return "feed:item:" + itemID }

type historyEntry struct {
	SignalID       string             `json:"signalId"`
	SignalType     string             `json:"signalType"`
	FeedContext    engine.FeedContext `json:"feedContext,omitempty"`
	ItemID         string             `json:"itemId,omitempty"`
	EngagementType EngagementType     `json:"engagementType,omitempty"`
	DwellSeconds   float64            `json:"dwellSeconds,omitempty"`
	At             time.Time          `json:"at"`
}

// Record dispatches a job payload to RecordRefresh or RecordEngagement.
func (s *Service) Record(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidInputError("input cannot be nil")
	}
	if stdErr := validation.ValidateStruct(input); stdErr != nil {
		return nil, stdErr
	}

	if input.SignalType == SignalRefresh {
		feedContext := input.FeedContext
		if feedContext == "" {
			feedContext = engine.FeedHome
		}
		return s.RecordRefresh(ctx, &RefreshInput{UserID: input.UserID, FeedContext: feedContext})
	}
	return s.RecordEngagement(ctx, &EngagementInput{
		UserID:         input.UserID,
		ItemID:         input.ItemID,
		EngagementType: input.EngagementType,
		DwellSeconds:   input.DwellSeconds,
	})
}

// RecordRefresh counts a feed refresh and drops the user's cached pages so
// the next request is composed fresh.
func (s *Service) RecordRefresh(ctx context.Context, input *RefreshInput) (out *Output, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "feed.record_refresh")
	defer span.End()
	defer func() { s.obs.RecordOperation(ctx, "record_refresh", observability.Status(err), time.Since(start)) }()

	if stdErr := validation.ValidateStruct(input); stdErr != nil {
		return nil, stdErr
	}

	out = &Output{
		Status:      "recorded",
		SignalID:    uuid.New().String(),
		SignalType:  SignalRefresh,
		UserID:      input.UserID,
		FeedContext: input.FeedContext,
		RecordedAt:  s.now().UTC(),
	}
	entry := historyEntry{
		SignalID:    out.SignalID,
		SignalType:  SignalRefresh,
		FeedContext: input.FeedContext,
		At:          out.RecordedAt,
	}

	if s.rdb != nil {
		err = s.persist(ctx, input.UserID, entry, func(pipe redis.Pipeliner) {
			pipe.HIncrBy(ctx, SignalsKey(input.UserID), "refresh", 1)
			pipe.HIncrBy(ctx, SignalsKey(input.UserID), "refresh:"+string(input.FeedContext), 1)
		})
		if err != nil {
			return nil, err
		}

		removed, delErr := database.DeleteByPattern(ctx, s.rdb, generatefeed.PagePattern(input.UserID))
		if delErr != nil {
			s.logger.Warn("feed page invalidation failed", map[string]interface{}{
				"userId": input.UserID,
				"error":  delErr.Error(),
			})
		}
		out.InvalidatedPages = removed
	}

	out.Published = s.publish(ctx, aws.Signal{
		ID:         out.SignalID,
		Kind:       "feed.refresh",
		UserID:     input.UserID,
		OccurredAt: out.RecordedAt,
		Payload:    map[string]interface{}{"feedContext": input.FeedContext},
	})

	metrics.SignalsRecorded.WithLabelValues("refresh").Inc()
	s.logger.Info("refresh signal recorded", map[string]interface{}{
		"userId":           input.UserID,
		"feedContext":      input.FeedContext,
		"signalId":         out.SignalID,
		"invalidatedPages": out.InvalidatedPages,
	})
	return out, nil
}

// RecordEngagement counts an engagement against both the user and the item.
func (s *Service) RecordEngagement(ctx context.Context, input *EngagementInput) (out *Output, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "feed.record_engagement")
	defer span.End()
	defer func() { s.obs.RecordOperation(ctx, "record_engagement", observability.Status(err), time.Since(start)) }()

	if stdErr := validation.ValidateStruct(input); stdErr != nil {
		return nil, stdErr
	}

	var dwell float64
	if input.DwellSeconds != nil {
		dwell = *input.DwellSeconds
	}

	out = &Output{
		Status:         "recorded",
		SignalID:       uuid.New().String(),
		SignalType:     SignalEngagement,
		UserID:         input.UserID,
		ItemID:         input.ItemID,
		EngagementType: input.EngagementType,
		RecordedAt:     s.now().UTC(),
	}
	entry := historyEntry{
		SignalID:       out.SignalID,
		SignalType:     SignalEngagement,
		ItemID:         input.ItemID,
		EngagementType: input.EngagementType,
		DwellSeconds:   dwell,
		At:             out.RecordedAt,
	}

	if s.rdb != nil {
		err = s.persist(ctx, input.UserID, entry, func(pipe redis.Pipeliner) {
			field := "engagement:" + string(input.EngagementType)
			pipe.HIncrBy(ctx, SignalsKey(input.UserID), field, 1)
			pipe.HIncrBy(ctx, ItemKey(input.ItemID), string(input.EngagementType), 1)
			if dwell > 0 {
				pipe.HIncrByFloat(ctx, ItemKey(input.ItemID), "dwell_seconds", dwell)
			}
		})
		if err != nil {
			return nil, err
		}
	}

	payload := map[string]interface{}{
		"itemId":         input.ItemID,
		"engagementType": input.EngagementType,
	}
	if input.DwellSeconds != nil {
		payload["dwellSeconds"] = dwell
	}
	out.Published = s.publish(ctx, aws.Signal{
		ID:         out.SignalID,
		Kind:       "feed.engagement",
		UserID:     input.UserID,
		OccurredAt: out.RecordedAt,
		Payload:    payload,
	})

	metrics.SignalsRecorded.WithLabelValues("engagement_" + string(input.EngagementType)).Inc()
	s.logger.Info("engagement signal recorded", map[string]interface{}{
		"userId":         input.UserID,
		"itemId":         input.ItemID,
		"engagementType": input.EngagementType,
		"signalId":       out.SignalID,
	})
	return out, nil
}

// History returns the user's most recent signals, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int64) ([]json.RawMessage, error) {
	if s.rdb == nil {
		return nil, nil
	}
	raw, err := s.rdb.LRange(ctx, HistoryKey(userID), 0, limit-1).Result()
	if err != nil {
		return nil, errors.NewCacheUnavailableError(err)
	}
	out := make([]json.RawMessage, len(raw))
	for i, r := range raw {
		out[i] = json.RawMessage(r)
	}
	return out, nil
}

// persist applies counters and appends to the capped history in one
// transaction.
func (s *Service) persist(ctx context.Context, userID string, entry historyEntry, counters func(redis.Pipeliner)) error {
	encoded, err := json.Marshal(entry)
	if err != nil {
		return errors.NewSignalRecordFailedError(err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		counters(pipe)
		pipe.LPush(ctx, HistoryKey(userID), encoded)
		pipe.LTrim(ctx, HistoryKey(userID), 0, int64(s.config.HistoryLimit-1))
		return nil
	})
	if err != nil {
		return errors.NewSignalRecordFailedError(fmt.Errorf("persist %s signal: %w", entry.SignalType, err))
	}
	return nil
}

// publish fans the signal out. Failures are logged; the signal is already
// recorded and retrying the job would double count it.
func (s *Service) publish(ctx context.Context, signal aws.Signal) bool {
	if _, noop := s.publisher.(aws.NoopPublisher); noop {
		return false
	}
	if err := s.publisher.Publish(ctx, signal); err != nil {
		s.logger.Warn("signal publish failed", map[string]interface{}{
			"signalId": signal.ID,
			"kind":     signal.Kind,
			"error":    errors.NewSignalPublishFailedError(err).Error(),
		})
		return false
	}
	return true
}
