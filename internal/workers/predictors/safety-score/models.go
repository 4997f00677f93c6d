// internal/workers/predictors/safety-score/models.go
package safetyscore

import (
	"time"

	"github.com/redis/go-redis/v9"

	"opportunity-engine/internal/common/aws"
	"opportunity-engine/internal/common/logger"
	"opportunity-engine/internal/common/observability"
)

const AlgorithmVersion = "1.0"

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

type SignalType string

const (
	SignalBehavioral   SignalType = "behavioral"
	SignalContent      SignalType = "content"
	SignalInteraction  SignalType = "interaction"
	SignalVerification SignalType = "verification"
	SignalReport       SignalType = "report"
)

// Score components.
const (
	ComponentVerification = "verification"
	ComponentBehavior     = "behavior"
	ComponentCommunity    = "community"
	ComponentContent      = "content"
)

type SafetySignal struct {
	SignalType SignalType             `json:"signalType" validate:"required,oneof=behavioral content interaction verification report"`
	SignalName string                 `json:"signalName" validate:"required"`
	Value      float64                `json:"value" validate:"min=-1,max=1"`
	Confidence *float64               `json:"confidence,omitempty" validate:"omitempty,min=0,max=1"`
	Timestamp  *time.Time             `json:"timestamp,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

func (s SafetySignal) confidence() float64 {
	if s.Confidence == nil {
		return 1
	}
	return *s.Confidence
}

// Profile is the Zeebe job payload for calculate-safety-score.
type Profile struct {
	UserID               string         `json:"userId" validate:"required"`
	AccountAgeDays       int            `json:"accountAgeDays" validate:"min=0"`
	IsVerified           bool           `json:"isVerified"`
	VerificationLevel    int            `json:"verificationLevel" validate:"min=0,max=3"`
	ReportsReceived      int            `json:"reportCountReceived" validate:"min=0"`
	ReportsMade          int            `json:"reportCountMade" validate:"min=0"`
	BlocksReceived       int            `json:"blockCountReceived" validate:"min=0"`
	MessageResponseRate  *float64       `json:"messageResponseRate,omitempty" validate:"omitempty,min=0,max=1"`
	TotalInteractions    int            `json:"totalInteractions" validate:"min=0"`
	PositiveInteractions int            `json:"positiveInteractions" validate:"min=0,ltefield=TotalInteractions"`
	ContentFlags         int            `json:"contentFlags" validate:"min=0"`
	ContentApproved      int            `json:"contentApproved" validate:"min=0"`
	CustomSignals        []SafetySignal `json:"customSignals,omitempty" validate:"omitempty,dive"`
}

func (p Profile) responseRate() float64 {
	if p.MessageResponseRate == nil {
		return 0.5
	}
	return *p.MessageResponseRate
}

type RiskFactor struct {
	Factor   string `json:"factor"`
	Severity string `json:"severity"`
	Count    int    `json:"count,omitempty"`
}

type Result struct {
	UserID           string             `json:"userId"`
	SafetyScore      float64            `json:"safetyScore"`
	RiskLevel        RiskLevel          `json:"riskLevel"`
	Confidence       float64            `json:"confidence"`
	Components       map[string]float64 `json:"components"`
	RiskFactors      []RiskFactor       `json:"riskFactors"`
	Mitigations      []string           `json:"mitigations"`
	CalculatedAt     time.Time          `json:"calculatedAt"`
	ValidUntil       time.Time          `json:"validUntil"`
	AlgorithmVersion string             `json:"algorithmVersion"`
}

type InteractionRequest struct {
	InitiatorID     string                 `json:"initiatorId" validate:"required"`
	RecipientID     string                 `json:"recipientId" validate:"required"`
	InteractionType string                 `json:"interactionType" validate:"required"`
	Context         map[string]interface{} `json:"context,omitempty"`
}

type InteractionResult struct {
	IsSafe               bool      `json:"isSafe"`
	RiskLevel            RiskLevel `json:"riskLevel"`
	RiskScore            float64   `json:"riskScore"`
	Warnings             []string  `json:"warnings"`
	Recommendations      []string  `json:"recommendations"`
	RequiresVerification bool      `json:"requiresVerification"`
}

type ModerationRequest struct {
	ContentID   string                 `json:"contentId" validate:"required"`
	ContentType string                 `json:"contentType" validate:"required"`
	ContentText string                 `json:"contentText,omitempty"`
	ContentURL  string                 `json:"contentUrl,omitempty" validate:"omitempty,url"`
	AuthorID    string                 `json:"authorId" validate:"required"`
	Context     map[string]interface{} `json:"context,omitempty"`
}

type ModerationResult struct {
	ContentID           string    `json:"contentId"`
	IsApproved          bool      `json:"isApproved"`
	RiskLevel           RiskLevel `json:"riskLevel"`
	CategoriesFlagged   []string  `json:"categoriesFlagged"`
	Confidence          float64   `json:"confidence"`
	RequiresHumanReview bool      `json:"requiresHumanReview"`
	Explanation         string    `json:"explanation"`
}

type ReportInput struct {
	UserID     string       `json:"userId" validate:"required"`
	Signal     SafetySignal `json:"signal"`
	ReportedBy string       `json:"reportedBy,omitempty"`
}

type ReportOutput struct {
	Status     string     `json:"status"`
	SignalID   string     `json:"signalId"`
	UserID     string     `json:"userId"`
	SignalType SignalType `json:"signalType"`
	Impact     string     `json:"impact"`
	Published  bool       `json:"published"`
}

type ThresholdBand struct {
	Min   float64   `json:"min"`
	Max   float64   `json:"max"`
	Level RiskLevel `json:"level"`
}

type ComponentWeight struct {
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

type Thresholds struct {
	Thresholds      map[string]ThresholdBand   `json:"thresholds"`
	ScoreComponents map[string]ComponentWeight `json:"scoreComponents"`
}

type ServiceDependencies struct {
	Logger        logger.Logger
	Observability *observability.Observability
	// Redis may be nil; reported signals are then only published.
	Redis     redis.Cmdable
	Publisher aws.SignalPublisher
	Now       func() time.Time
}
