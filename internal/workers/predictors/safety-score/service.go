// internal/workers/predictors/safety-score/service.go
package safetyscore

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"opportunity-engine/internal/common/aws"
	"opportunity-engine/internal/common/errors"
	"opportunity-engine/internal/common/logger"
	"opportunity-engine/internal/common/metrics"
	"opportunity-engine/internal/common/observability"
	"opportunity-engine/internal/common/validation"
)

const predictorName = "safety_score"

var flaggedKeywords = []string{"scam", "fake", "spam"}

var componentWeights = map[string]ComponentWeight{
	ComponentVerification: {Weight: 0.25, Description: "Identity verification status"},
	ComponentBehavior:     {Weight: 0.30, Description: "Behavioral patterns and history"},
	ComponentCommunity:    {Weight: 0.25, Description: "Community standing and interactions"},
	ComponentContent:      {Weight: 0.20, Description: "Content quality and compliance"},
}

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

func SignalsKey(userID string) string { return "safety:signals:" + userID }

// Calculate scores a user profile across the four weighted components.
func (s *Service) Calculate(ctx context.Context, profile *Profile) (out *Result, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "safety.calculate")
	defer span.End()
	defer func() { s.obs.RecordOperation(ctx, "safety_calculate", observability.Status(err), time.Since(start)) }()

	if profile == nil {
		return nil, errors.NewInvalidInputError("profile cannot be nil")
	}
	if stdErr := validation.ValidateStruct(profile); stdErr != nil {
		return nil, stdErr
	}

	var risks []RiskFactor

	verification := 30.0
	if profile.IsVerified {
		verification += 40
	}
	verification += float64(profile.VerificationLevel * 10)
	if profile.AccountAgeDays > 180 {
		verification += 10
	} else if profile.AccountAgeDays < 7 {
		verification -= 20
		risks = append(risks, RiskFactor{Factor: "new_account", Severity: "medium"})
	}
	verification = clamp(verification, 0, 100)

	behavior := 70.0
	if profile.ReportsReceived > 0 {
		behavior -= math.Min(40, float64(profile.ReportsReceived*10))
		severity := "medium"
		if profile.ReportsReceived > 3 {
			severity = "high"
		}
		risks = append(risks, RiskFactor{Factor: "reports_received", Severity: severity, Count: profile.ReportsReceived})
	}
	if profile.BlocksReceived > 2 {
		behavior -= 15
		risks = append(risks, RiskFactor{Factor: "multiple_blocks", Severity: "medium"})
	}
	behavior = math.Max(0, behavior)

	community := 50.0
	if profile.TotalInteractions > 0 {
		ratio := float64(profile.PositiveInteractions) / float64(profile.TotalInteractions)
		community = 30 + ratio*70
	}
	if profile.responseRate() > 0.7 {
		community += 10
	}
	community = math.Min(100, community)

	content := 80.0
	if profile.ContentFlags > 0 {
		content -= math.Min(50, float64(profile.ContentFlags*15))
		risks = append(risks, RiskFactor{Factor: "content_flags", Severity: "high"})
	}
	if profile.ContentApproved > 10 {
		content += 10
	}
	content = clamp(content, 0, 100)

	for _, signal := range profile.CustomSignals {
		impact := signal.Value * signal.confidence() * 10
		switch signal.SignalType {
		case SignalVerification:
			verification = math.Min(100, verification+impact)
		case SignalBehavioral:
			behavior = clamp(behavior+impact, 0, 100)
		}
	}

	overall := verification*componentWeights[ComponentVerification].Weight +
		behavior*componentWeights[ComponentBehavior].Weight +
		community*componentWeights[ComponentCommunity].Weight +
		content*componentWeights[ComponentContent].Weight

	mitigations := []string{}
	if verification < 60 {
		mitigations = append(mitigations, "Complete identity verification to improve score")
	}
	if behavior < 60 {
		mitigations = append(mitigations, "Maintain positive interactions to rebuild trust")
	}
	if community < 60 {
		mitigations = append(mitigations, "Engage more with the community")
	}
	if risks == nil {
		risks = []RiskFactor{}
	}

	now := s.now().UTC()
	out = &Result{
		UserID:      profile.UserID,
		SafetyScore: round1(overall),
		RiskLevel:   RiskLevelFor(overall),
		Confidence:  0.85,
		Components: map[string]float64{
			ComponentVerification: round1(verification),
			ComponentBehavior:     round1(behavior),
			ComponentCommunity:    round1(community),
			ComponentContent:      round1(content),
		},
		RiskFactors:      risks,
		Mitigations:      mitigations,
		CalculatedAt:     now,
		ValidUntil:       now.Add(s.config.ValidFor),
		AlgorithmVersion: AlgorithmVersion,
	}

	metrics.Predictions.WithLabelValues(predictorName, string(out.RiskLevel)).Inc()
	s.logger.Info("safety score calculated", map[string]interface{}{
		"userId":      profile.UserID,
		"safetyScore": out.SafetyScore,
		"riskLevel":   out.RiskLevel,
		"riskFactors": len(risks),
	})
	return out, nil
}

// RiskLevelFor maps an overall score onto the threshold bands.
func RiskLevelFor(score float64) RiskLevel {
	switch {
	case score >= 70:
		return RiskLow
	case score >= 40:
		return RiskMedium
	case score >= 20:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// EvaluateInteraction rates a proposed interaction between two users by type.
func (s *Service) EvaluateInteraction(ctx context.Context, req *InteractionRequest) (*InteractionResult, error) {
	_, span := observability.StartSpan(ctx, "safety.evaluate_interaction")
	defer span.End()

	if req == nil {
		return nil, errors.NewInvalidInputError("request cannot be nil")
	}
	if stdErr := validation.ValidateStruct(req); stdErr != nil {
		return nil, stdErr
	}

	risk := 20.0
	recommendations := []string{}
	switch req.InteractionType {
	case "transaction":
		risk += 20
		recommendations = append(recommendations, "Use platform's secure payment system")
	case "meeting":
		risk += 15
		recommendations = append(recommendations,
			"Meet in a public place for first meeting",
			"Share meeting details with a trusted contact",
		)
	}

	warnings := []string{}
	if risk >= 30 {
		warnings = append(warnings, "Exercise caution with new connections")
	}
	level := RiskLow
	if risk >= 30 {
		level = RiskMedium
	}

	return &InteractionResult{
		IsSafe:               risk < 50,
		RiskLevel:            level,
		RiskScore:            risk,
		Warnings:             warnings,
		Recommendations:      recommendations,
		RequiresVerification: risk >= 40,
	}, nil
}

// ModerateContent runs the keyword screen over the content text.
func (s *Service) ModerateContent(ctx context.Context, req *ModerationRequest) (*ModerationResult, error) {
	_, span := observability.StartSpan(ctx, "safety.moderate_content")
	defer span.End()

	if req == nil {
		return nil, errors.NewInvalidInputError("request cannot be nil")
	}
	if stdErr := validation.ValidateStruct(req); stdErr != nil {
		return nil, stdErr
	}

	text := strings.ToLower(req.ContentText)
	for _, kw := range flaggedKeywords {
		if strings.Contains(text, kw) {
			s.logger.Info("content flagged for review", map[string]interface{}{
				"contentId": req.ContentID,
				"authorId":  req.AuthorID,
				"keyword":   kw,
			})
			return &ModerationResult{
				ContentID:           req.ContentID,
				IsApproved:          false,
				RiskLevel:           RiskMedium,
				CategoriesFlagged:   []string{"potential_spam"},
				Confidence:          0.7,
				RequiresHumanReview: true,
				Explanation:         "Content flagged for review",
			}, nil
		}
	}

	return &ModerationResult{
		ContentID:         req.ContentID,
		IsApproved:        true,
		RiskLevel:         RiskLow,
		CategoriesFlagged: []string{},
		Confidence:        0.9,
		Explanation:       "Content passed automated checks",
	}, nil
}

// ReportSignal stores a reported signal in the user's capped history and
// publishes it for recalculation downstream.
func (s *Service) ReportSignal(ctx context.Context, input *ReportInput) (out *ReportOutput, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "safety.report_signal")
	defer span.End()
	defer func() { s.obs.RecordOperation(ctx, "safety_report_signal", observability.Status(err), time.Since(start)) }()

	if input == nil {
		return nil, errors.NewInvalidInputError("input cannot be nil")
	}
	if stdErr := validation.ValidateStruct(input); stdErr != nil {
		return nil, stdErr
	}

	now := s.now().UTC()
	signal := input.Signal
	if signal.Timestamp == nil {
		signal.Timestamp = &now
	}
	out = &ReportOutput{
		Status:     "signal_recorded",
		SignalID:   uuid.New().String(),
		UserID:     input.UserID,
		SignalType: signal.SignalType,
		Impact:     "pending_recalculation",
	}

	if s.rdb != nil {
		encoded, encErr := json.Marshal(map[string]interface{}{
			"signalId":   out.SignalID,
			"signal":     signal,
			"reportedBy": input.ReportedBy,
		})
		if encErr != nil {
			return nil, errors.NewSignalRecordFailedError(encErr)
		}
		_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.LPush(ctx, SignalsKey(input.UserID), encoded)
			pipe.LTrim(ctx, SignalsKey(input.UserID), 0, int64(s.config.SignalHistory-1))
			return nil
		})
		if err != nil {
			return nil, errors.NewSignalRecordFailedError(fmt.Errorf("persist safety signal: %w", err))
		}
	}

	if _, noop := s.publisher.(aws.NoopPublisher); !noop {
		pubErr := s.publisher.Publish(ctx, aws.Signal{
			ID:         out.SignalID,
			Kind:       "safety." + string(signal.SignalType),
			UserID:     input.UserID,
			OccurredAt: *signal.Timestamp,
			Payload: map[string]interface{}{
				"signalName": signal.SignalName,
				"value":      signal.Value,
				"confidence": signal.confidence(),
				"reportedBy": input.ReportedBy,
			},
		})
		if pubErr != nil {
			s.logger.Warn("safety signal publish failed", map[string]interface{}{
				"signalId": out.SignalID,
				"error":    errors.NewSignalPublishFailedError(pubErr).Error(),
			})
		}
		out.Published = pubErr == nil
	}

	metrics.SignalsRecorded.WithLabelValues("safety_" + string(signal.SignalType)).Inc()
	s.logger.Info("safety signal recorded", map[string]interface{}{
		"userId":     input.UserID,
		"signalType": signal.SignalType,
		"signalId":   out.SignalID,
	})
	return out, nil
}

// Thresholds returns the static risk bands and component weights.
func (s *Service) Thresholds() Thresholds {
	weights := make(map[string]ComponentWeight, len(componentWeights))
	for k, v := range componentWeights {
		weights[k] = v
	}
	return Thresholds{
		Thresholds: map[string]ThresholdBand{
			"low_risk":      {Min: 70, Max: 100, Level: RiskLow},
			"medium_risk":   {Min: 40, Max: 69, Level: RiskMedium},
			"high_risk":     {Min: 20, Max: 39, Level: RiskHigh},
			"critical_risk": {Min: 0, Max: 19, Level: RiskCritical},
		},
		ScoreComponents: weights,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
