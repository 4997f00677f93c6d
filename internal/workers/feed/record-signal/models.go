// internal/workers/feed/record-signal/models.go
package recordsignal

import (
	"time"

	"github.com/redis/go-redis/v9"

	"opportunity-engine/internal/common/aws"
	"opportunity-engine/internal/common/logger"
	"opportunity-engine/internal/common/observability"
	"opportunity-engine/internal/engine"
)

const (
	SignalRefresh    = "refresh"
	SignalEngagement = "engagement"
)

type EngagementType string

const (
	EngagementView    EngagementType = "view"
	EngagementLike    EngagementType = "like"
	EngagementComment EngagementType = "comment"
	EngagementShare   EngagementType = "share"
	EngagementClick   EngagementType = "click"
	EngagementDwell   EngagementType = "dwell"
)

// Input is the job payload; signalType selects which of the two signals it
// carries.
type Input struct {
	SignalType     string             `json:"signalType" validate:"required,oneof=refresh engagement"`
	UserID         string             `json:"userId" validate:"required"`
	FeedContext    engine.FeedContext `json:"feedContext,omitempty"`
	ItemID         string             `json:"itemId,omitempty"`
	EngagementType EngagementType     `json:"engagementType,omitempty"`
	DwellSeconds   *float64           `json:"dwellSeconds,omitempty"`
}

type RefreshInput struct {
	UserID      string             `json:"userId" validate:"required"`
	FeedContext engine.FeedContext `json:"feedContext" validate:"required,oneof=home explore professional learning social"`
}

type EngagementInput struct {
	UserID         string         `json:"userId" validate:"required"`
	ItemID         string         `json:"itemId" validate:"required"`
	EngagementType EngagementType `json:"engagementType" validate:"required,oneof=view like comment share click dwell"`
	DwellSeconds   *float64       `json:"dwellSeconds,omitempty" validate:"omitempty,min=0"`
}

type Output struct {
	Status           string             `json:"status"`
	SignalID         string             `json:"signalId"`
	SignalType       string             `json:"signalType"`
	UserID           string             `json:"userId"`
	FeedContext      engine.FeedContext `json:"feedContext,omitempty"`
	ItemID           string             `json:"itemId,omitempty"`
	EngagementType   EngagementType     `json:"engagementType,omitempty"`
	InvalidatedPages int                `json:"invalidatedPages"`
	Published        bool               `json:"published"`
	RecordedAt       time.Time          `json:"recordedAt"`
}

type ServiceDependencies struct {
	Logger        logger.Logger
	Observability *observability.Observability
	// Redis may be nil; signals are then only published.
	Redis     redis.Cmdable
	Publisher aws.SignalPublisher
	Now       func() time.Time
}
