// internal/workers/feed/generate-feed/models.go
package generatefeed

import (
	"time"

	"opportunity-engine/internal/common/logger"
	"opportunity-engine/internal/common/observability"
	"opportunity-engine/internal/engine"
)

type Input struct {
	UserContext     engine.UserContext `json:"userContext"`
	Candidates      []engine.Candidate `json:"candidates,omitempty" validate:"max=1000"`
	Page            int                `json:"page,omitempty" validate:"omitempty,min=1"`
	PageSize        int                `json:"pageSize,omitempty" validate:"omitempty,min=1,max=50"`
	MixRatios       engine.MixRatios   `json:"mixRatios,omitempty"`
	FetchCandidates bool               `json:"fetchCandidates,omitempty"`
}

type FeedItem struct {
	ID        string             `json:"id"`
	Type      engine.ContentType `json:"type"`
	Score     float64            `json:"score"`
	Position  int                `json:"position"`
	Reason    string             `json:"reason"`
	Sponsored bool               `json:"sponsored"`
}

type Output struct {
	FeedID           string             `json:"feedId"`
	UserID           string             `json:"userId"`
	FeedContext      engine.FeedContext `json:"feedContext"`
	Items            []FeedItem         `json:"items"`
	Page             int                `json:"page"`
	PageSize         int                `json:"pageSize"`
	HasMore          bool               `json:"hasMore"`
	MixRatios        engine.MixRatios   `json:"mixRatiosUsed"`
	TotalCandidates  int                `json:"totalCandidates"`
	GenerationTimeMs float64            `json:"generationTimeMs"`
	Cached           bool               `json:"cached"`
}

type ServiceDependencies struct {
	Logger        logger.Logger
	Observability *observability.Observability
	// Source is consulted only when a request asks to fetch its pool.
	Source CandidateSource
	// Cache may be nil; pages are then always composed.
	Cache PageCache
	Now   func() time.Time
}
