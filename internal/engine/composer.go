package engine

import "time"

const (
	DefaultPageSize = 20
	MaxPageSize     = 50
)

var defaultMixRatios = map[FeedContext]MixRatios{
	FeedHome: {
		"following":   0.35,
		"recommended": 0.40,
		"trending":    0.15,
		"sponsored":   0.10,
	},
	FeedExplore: {
		"following":   0.10,
		"recommended": 0.50,
		"trending":    0.30,
		"sponsored":   0.10,
	},
	FeedProfessional: {
		"jobs":                 0.40,
		"industry_news":        0.30,
		"professional_content": 0.20,
		"sponsored":            0.10,
	},
	FeedLearning: {
		"courses":   0.40,
		"tutorials": 0.30,
		"mentors":   0.20,
		"sponsored": 0.10,
	},
}

// MixRatiosFor returns a copy of the default ratios for a feed context.
// Contexts without their own table (social) use home.
func MixRatiosFor(fc FeedContext) (MixRatios, error) {
	if !fc.Valid() {
		return nil, invalidf("unknown feed context %q", fc)
	}
	if r, ok := defaultMixRatios[fc]; ok {
		return r.clone(), nil
	}
	return defaultMixRatios[FeedHome].clone(), nil
}

// ResolveRatios picks the override when present, else the context default,
// else home.
func ResolveRatios(override MixRatios, fc FeedContext) MixRatios {
	if len(override) > 0 {
		return override.clone()
	}
	if r, ok := defaultMixRatios[fc]; ok {
		return r.clone()
	}
	return defaultMixRatios[FeedHome].clone()
}

// ComposeRequest is the input to FeedComposer.Compose. PageSize 0 means 20.
type ComposeRequest struct {
	Candidates []Candidate
	Context    UserContext
	Page       int
	PageSize   int
	Ratios     MixRatios
}

func (r *ComposeRequest) normalize() error {
	if r.Page == 0 {
		r.Page = 1
	}
	if r.PageSize == 0 {
		r.PageSize = DefaultPageSize
	}
	if r.Page < 1 {
		return invalidf("page must be at least 1, got %d", r.Page)
	}
	if r.PageSize < 1 || r.PageSize > MaxPageSize {
		return invalidf("pageSize must be between 1 and %d, got %d", MaxPageSize, r.PageSize)
	}
	if r.Context.FeedContext != "" && !r.Context.FeedContext.Valid() {
		return invalidf("unknown feed context %q", r.Context.FeedContext)
	}
	for i, c := range r.Candidates {
		if c.ID == "" {
			return invalidf("candidates[%d].id is required", i)
		}
		if !c.Type.IsFeedType() {
			return invalidf("candidates[%d].type %q is not a feed content type", i, c.Type)
		}
		if c.Views < 0 || c.Likes < 0 || c.Comments < 0 || c.Shares < 0 {
			return invalidf("candidates[%d] engagement counts must not be negative", i)
		}
	}
	return r.Ratios.Validate()
}

// FeedComposer builds feed pages. Scorer.Now may be replaced in tests.
type FeedComposer struct {
	Scorer FeedScorer
}

func NewFeedComposer(now func() time.Time) *FeedComposer {
	return &FeedComposer{Scorer: FeedScorer{Now: now}}
}

// Compose scores every candidate, mixes sponsored and organic items into one
// page, breaks up type streaks and assigns positions starting at
// (page-1)*pageSize+1.
func (f *FeedComposer) Compose(req ComposeRequest) (PageResult, error) {
	if err := req.normalize(); err != nil {
		return PageResult{}, err
	}

	ratios := ResolveRatios(req.Ratios, req.Context.FeedContext)
	if len(req.Candidates) == 0 {
		return PageResult{Items: []ScoredItem{}, Page: req.Page, Ratios: ratios}, nil
	}

	scored := make([]ScoredItem, len(req.Candidates))
	for i, c := range req.Candidates {
		scored[i] = ScoredItem{
			ID:        c.ID,
			Type:      c.Type,
			Score:     f.Scorer.Score(c, req.Context),
			Reason:    f.Scorer.Reason(c, req.Context),
			Sponsored: c.Sponsored,
		}
	}

	page := StreakRewrite(MixBuckets(scored, ratios, req.PageSize))

	offset := (req.Page - 1) * req.PageSize
	for i := range page {
		page[i].Position = offset + i + 1
	}

	return PageResult{
		Items:   page,
		Page:    req.Page,
		HasMore: len(req.Candidates) > len(page),
		Ratios:  ratios,
	}, nil
}
