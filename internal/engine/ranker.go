package engine

const (
	MaxCandidates = 1000
	MaxTopK       = 100
)

// RankRequest is the input to RankingEngine.Rank. TopK 0 keeps every item.
type RankRequest struct {
	Candidates      []Candidate
	Context         UserContext
	Strategy        Strategy
	TopK            int
	DiversityFactor float64
}

// RankingEngine scores, orders, diversifies and truncates candidates.
type RankingEngine struct{}

func NewRankingEngine() *RankingEngine {
	return &RankingEngine{}
}

// Validate checks the request shape without scoring anything.
func (r RankRequest) Validate() error {
	if len(r.Candidates) > MaxCandidates {
		return invalidf("at most %d candidates allowed, got %d", MaxCandidates, len(r.Candidates))
	}
	if _, err := ScorerFor(r.Strategy); err != nil {
		return err
	}
	if r.TopK < 0 || r.TopK > MaxTopK {
		return invalidf("topK must be between 1 and %d, got %d", MaxTopK, r.TopK)
	}
	if r.DiversityFactor < 0 || r.DiversityFactor > 1 {
		return invalidf("diversityFactor must be between 0 and 1, got %v", r.DiversityFactor)
	}
	for i, c := range r.Candidates {
		if c.ID == "" {
			return invalidf("candidates[%d].id is required", i)
		}
	}
	return nil
}

// Rank returns items with Position set to their 1-based rank and Reason set
// to the breakdown explanation.
func (e *RankingEngine) Rank(req RankRequest) ([]ScoredItem, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if len(req.Candidates) == 0 {
		return []ScoredItem{}, nil
	}

	scorer, _ := ScorerFor(req.Strategy)
	items := make([]ScoredItem, len(req.Candidates))
	for i, c := range req.Candidates {
		total, breakdown := scorer.Score(c, req.Context)
		items[i] = ScoredItem{
			ID:        c.ID,
			Type:      c.Type,
			Score:     total,
			Breakdown: breakdown,
			Reason:    Explain(breakdown),
			Sponsored: c.Sponsored,
		}
	}
	sortByScore(items)

	if req.DiversityFactor > 0 {
		items = ScoreDecay(items, req.DiversityFactor)
	}

	if req.TopK > 0 && len(items) > req.TopK {
		items = items[:req.TopK]
	}

	for i := range items {
		items[i].Position = i + 1
	}
	return items, nil
}
