// internal/workers/predictors/mentor-match/service.go
package mentormatch

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"opportunity-engine/internal/common/errors"
	"opportunity-engine/internal/common/logger"
	"opportunity-engine/internal/common/metrics"
	"opportunity-engine/internal/common/observability"
	"opportunity-engine/internal/common/validation"
)

const predictorName = "mentor_match"

type Service struct {
	config *Config
	logger logger.Logger
	obs    *observability.Observability
	store  MentorStore
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		logger: deps.Logger,
		obs:    deps.Observability,
		store:  deps.Store,
	}
}

// Match scores the candidate mentors for a mentee and returns those at or
// above minScore, best first.
func (s *Service) Match(ctx context.Context, req *MatchRequest) (out *MatchResponse, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "mentor.match")
	defer span.End()
	defer func() { s.obs.RecordOperation(ctx, "mentor_match", observability.Status(err), time.Since(start)) }()

	if req == nil {
		return nil, errors.NewInvalidInputError("request cannot be nil")
	}
	if stdErr := validation.ValidateStruct(req); stdErr != nil {
		return nil, stdErr
	}

	maxResults := req.MaxResults
	if maxResults == 0 {
		maxResults = DefaultMaxResults
	}
	minScore := DefaultMinScore
	if req.MinScore != nil {
		minScore = *req.MinScore
	}

	mentors := req.Mentors
	if len(mentors) == 0 {
		if s.store == nil {
			return nil, errors.NewInvalidInputError("mentors are required when no mentor store is configured")
		}
		mentors, err = s.store.LoadMentors(ctx, req.MentorPool, s.config.CandidateLimit)
		if err != nil {
			return nil, errors.NewDatabaseQueryFailedError("load mentors", err)
		}
	}
	span.SetAttributes(attribute.Int("mentors", len(mentors)))

	matches := make([]MatchScore, 0, len(mentors))
	for _, mentor := range mentors {
		if mentor.UserID == req.Mentee.UserID {
			continue
		}
		score := Score(req.Mentee, mentor)
		if score.OverallScore >= minScore {
			matches = append(matches, score)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].OverallScore > matches[j].OverallScore })
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	metrics.Predictions.WithLabelValues(predictorName, outcome(len(matches))).Inc()
	s.logger.Info("mentor matching completed", map[string]interface{}{
		"menteeId":   req.Mentee.UserID,
		"considered": len(mentors),
		"matched":    len(matches),
		"durationMs": time.Since(start).Milliseconds(),
	})

	return &MatchResponse{
		MenteeID:         req.Mentee.UserID,
		Matches:          matches,
		TotalConsidered:  len(mentors),
		AlgorithmVersion: AlgorithmVersion,
	}, nil
}

// ScorePair validates and scores one mentee/mentor pair.
func (s *Service) ScorePair(ctx context.Context, req *ScoreRequest) (*MatchScore, error) {
	_, span := observability.StartSpan(ctx, "mentor.score")
	defer span.End()

	if req == nil {
		return nil, errors.NewInvalidInputError("request cannot be nil")
	}
	if stdErr := validation.ValidateStruct(req); stdErr != nil {
		return nil, stdErr
	}
	score := Score(req.Mentee, req.Mentor)
	return &score, nil
}

// Score computes the weighted compatibility between a mentee and a mentor.
func Score(mentee Mentee, mentor Mentor) MatchScore {
	overlap := skillOverlap(mentee.Skills, mentor.ExpertiseAreas)
	skill := math.Min(100, float64(len(overlap))/math.Max(float64(len(lowerSet(mentee.Skills))), 1)*100+20)

	goal := 70.0
	if mentee.hasGoal(GoalLeadership) && mentor.ExperienceYears >= 10 {
		goal += 15
	}
	if mentee.hasGoal(GoalEntrepreneurship) {
		goal += 10
	}
	goal = math.Min(100, goal)

	style := 80.0
	if mentee.PreferredStyle != "" && mentee.PreferredStyle == mentor.Style {
		style = 95
	}

	menteeHours := float64(mentee.hours())
	mentorHours := float64(mentor.AvailabilityHours)
	availability := math.Min(100, math.Min(menteeHours, mentorHours)/math.Max(menteeHours, 1)*100)

	var experience float64
	switch gap := mentor.ExperienceYears - mentee.ExperienceYears; {
	case gap >= 5 && gap <= 15:
		experience = 90
	case gap > 15:
		experience = 75
	default:
		experience = 60
	}

	overall := skill*0.25 + goal*0.25 + style*0.15 + availability*0.15 + experience*0.20

	return MatchScore{
		MentorID:            mentor.UserID,
		OverallScore:        round1(overall),
		SkillAlignment:      round1(skill),
		GoalCompatibility:   round1(goal),
		StyleFit:            round1(style),
		AvailabilityMatch:   round1(availability),
		ExperienceRelevance: round1(experience),
		MatchReasons:        matchReasons(mentee, mentor, overlap),
		PotentialChallenges: challenges(mentee, mentor),
		MentorSummary: map[string]interface{}{
			"userId":   mentor.UserID,
			"role":     mentor.Role,
			"industry": mentor.Industry,
			"rating":   mentor.Rating,
			"style":    mentor.Style,
		},
	}
}

func matchReasons(mentee Mentee, mentor Mentor, overlap []string) []string {
	var reasons []string
	if mentor.Industry != "" && mentor.Industry == mentee.Industry {
		reasons = append(reasons, fmt.Sprintf("Same industry experience (%s)", mentor.Industry))
	}
	if len(overlap) > 0 {
		shown := overlap
		if len(shown) > 3 {
			shown = shown[:3]
		}
		reasons = append(reasons, "Expertise in: "+strings.Join(shown, ", "))
	}
	if mentor.Rating >= 4.5 {
		reasons = append(reasons, fmt.Sprintf("Highly rated mentor (%.1f/5.0)", mentor.Rating))
	}
	if mentor.SuccessStories >= 5 {
		reasons = append(reasons, fmt.Sprintf("%d successful mentoring relationships", mentor.SuccessStories))
	}
	if len(reasons) == 0 {
		return []string{"Good overall compatibility"}
	}
	return reasons
}

func challenges(mentee Mentee, mentor Mentor) []string {
	out := []string{}
	if mentee.timezone() != mentor.Timezone {
		out = append(out, "Different timezones may affect meeting scheduling")
	}
	if !sharesAny(mentee.languages(), mentor.Languages) {
		out = append(out, "No common language preference")
	}
	if mentor.AvailabilityHours < mentee.hours() {
		out = append(out, "Mentor has limited availability")
	}
	return out
}

// RecommendGoals suggests mentorship goals for a career stage.
func RecommendGoals(experienceYears float64) []GoalRecommendation {
	switch {
	case experienceYears < 3:
		return []GoalRecommendation{
			{Goal: GoalSkillDevelopment, Priority: "high", Reason: "Early career focus on building core competencies"},
			{Goal: GoalIndustryKnowledge, Priority: "medium", Reason: "Understanding industry dynamics and expectations"},
		}
	case experienceYears < 7:
		return []GoalRecommendation{
			{Goal: GoalCareerTransition, Priority: "high", Reason: "Mid-career is optimal for strategic moves"},
			{Goal: GoalLeadership, Priority: "medium", Reason: "Building leadership skills for advancement"},
		}
	default:
		return []GoalRecommendation{
			{Goal: GoalLeadership, Priority: "high", Reason: "Senior roles require refined leadership"},
			{Goal: GoalEntrepreneurship, Priority: "medium", Reason: "Experience enables entrepreneurial ventures"},
		}
	}
}

func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}

// skillOverlap returns the case-folded intersection, sorted.
func skillOverlap(skills, expertise []string) []string {
	have := lowerSet(expertise)
	var out []string
	for s := range lowerSet(skills) {
		if _, ok := have[s]; ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func sharesAny(a, b []string) bool {
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	for _, v := range a {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

func outcome(matched int) string {
	if matched == 0 {
		return "no_match"
	}
	return "matched"
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
