package engine

import (
	"math"
	"sort"
	"strings"
)

// Breakdown factor names produced by the heuristic scorers.
const (
	FactorBase          = "base"
	FactorInterestMatch = "interest_match"
	FactorSkillMatch    = "skill_match"
	FactorRecency       = "recency"
	FactorEngagement    = "engagement"
	FactorLocation      = "location"
)

// CandidateScorer maps a candidate to a total in [0,100] plus its breakdown.
type CandidateScorer interface {
	Score(c Candidate, uc UserContext) (float64, ScoreBreakdown)
	Name() string
}

// ScorerFor returns the scorer behind a ranking strategy.
func ScorerFor(s Strategy) (CandidateScorer, error) {
	switch s {
	case StrategyLight:
		return FastScorer{}, nil
	case StrategyHeavy:
		return EnhancedScorer{}, nil
	default:
		return nil, invalidf("unknown strategy %q", s)
	}
}

// FastScorer is the heuristic scorer used by the light strategy.
type FastScorer struct{}

func (FastScorer) Name() string { return "fast" }

func (FastScorer) Score(c Candidate, uc UserContext) (float64, ScoreBreakdown) {
	b := ScoreBreakdown{FactorBase: 50}

	if len(uc.Interests) > 0 {
		matches := intersectCount(uc.Interests, featureStrings(c.Features, "tags"), false)
		b[FactorInterestMatch] = math.Min(30, float64(10*matches))
	} else {
		b[FactorInterestMatch] = 10
	}

	if len(uc.Skills) > 0 && (c.Type == ContentJob || c.Type == ContentCourse) {
		matches := intersectCount(uc.Skills, featureStrings(c.Features, "required_skills"), true)
		b[FactorSkillMatch] = math.Min(25, float64(8*matches))
	} else {
		b[FactorSkillMatch] = 0
	}

	b[FactorRecency] = featureFloat(c.Features, "freshness_score", 0.5) * 15
	b[FactorEngagement] = featureFloat(c.Features, "engagement_rate", 0.1) * 20

	itemLocation := featureString(c.Features, "location")
	switch {
	case uc.Location == "" || itemLocation == "":
		b[FactorLocation] = 5
	case strings.Contains(strings.ToLower(itemLocation), strings.ToLower(uc.Location)):
		b[FactorLocation] = 10
	default:
		b[FactorLocation] = 0
	}

	var total float64
	for _, k := range fastFactors {
		total += b[k]
		b[k] = round2(b[k])
	}
	return round2(clamp(total, 0, 100)), b
}

// fastFactors fixes summation order so totals are reproducible.
var fastFactors = []string{
	FactorBase, FactorInterestMatch, FactorSkillMatch, FactorRecency, FactorEngagement, FactorLocation,
}

// EnhancedScorer is the heavy strategy: the fast score with a 5% boost.
type EnhancedScorer struct{}

func (EnhancedScorer) Name() string { return "enhanced" }

func (EnhancedScorer) Score(c Candidate, uc UserContext) (float64, ScoreBreakdown) {
	total, b := FastScorer{}.Score(c, uc)
	return round2(clamp(total*1.05, 0, 100)), b
}

var explanationPhrases = []struct {
	factor string
	phrase string
}{
	{FactorInterestMatch, "matches your interests"},
	{FactorSkillMatch, "aligns with your skills"},
	{FactorRecency, "recently posted"},
	{FactorEngagement, "highly engaging content"},
	{FactorLocation, "relevant to your location"},
}

// Explain renders the two strongest non-base factors above 5 points.
// Equal contributions keep the phrase table order.
func Explain(b ScoreBreakdown) string {
	type factor struct {
		phrase string
		value  float64
	}
	factors := make([]factor, 0, len(explanationPhrases))
	for _, p := range explanationPhrases {
		if v, ok := b[p.factor]; ok {
			factors = append(factors, factor{phrase: p.phrase, value: v})
		}
	}
	sort.SliceStable(factors, func(i, j int) bool { return factors[i].value > factors[j].value })

	reasons := make([]string, 0, 2)
	for i := 0; i < len(factors) && i < 2; i++ {
		if factors[i].value > 5 {
			reasons = append(reasons, factors[i].phrase)
		}
	}
	if len(reasons) == 0 {
		return "General recommendation based on your profile"
	}
	return "Recommended because it " + strings.Join(reasons, " and ")
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
