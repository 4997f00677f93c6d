// internal/workers/ranking/rank-candidates/models.go
package rankcandidates

import (
	"opportunity-engine/internal/common/logger"
	"opportunity-engine/internal/common/observability"
	"opportunity-engine/internal/engine"
)

const DefaultDiversityFactor = 0.2

type Input struct {
	Candidates      []engine.Candidate `json:"candidates" validate:"min=1,max=1000"`
	UserContext     engine.UserContext `json:"userContext"`
	Strategy        engine.Strategy    `json:"strategy,omitempty" validate:"omitempty,oneof=light heavy"`
	TopK            int                `json:"topK,omitempty" validate:"omitempty,min=1,max=100"`
	DiversityFactor *float64           `json:"diversityFactor,omitempty" validate:"omitempty,min=0,max=1"`
}

type RankedItem struct {
	ID          string                `json:"id"`
	Type        engine.ContentType    `json:"type"`
	Score       float64               `json:"score"`
	Rank        int                   `json:"rank"`
	Breakdown   engine.ScoreBreakdown `json:"scoreBreakdown"`
	Explanation string                `json:"explanation"`
}

type Output struct {
	RankedItems      []RankedItem    `json:"rankedItems"`
	Strategy         engine.Strategy `json:"strategy"`
	TotalCandidates  int             `json:"totalCandidates"`
	ProcessingTimeMs float64         `json:"processingTimeMs"`
	DiversityApplied bool            `json:"diversityApplied"`
}

type ScoreInput struct {
	Candidate   engine.Candidate   `json:"candidate"`
	UserContext engine.UserContext `json:"userContext"`
}

type ScoreOutput struct {
	ID        string                `json:"id"`
	Score     float64               `json:"score"`
	Breakdown engine.ScoreBreakdown `json:"breakdown"`
}

type ServiceDependencies struct {
	Logger        logger.Logger
	Observability *observability.Observability
}
