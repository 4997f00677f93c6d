// internal/workers/predictors/mentor-match/models.go
package mentormatch

import (
	"opportunity-engine/internal/common/logger"
	"opportunity-engine/internal/common/observability"
)

const (
	AlgorithmVersion  = "1.0"
	DefaultMaxResults = 10
	DefaultMinScore   = 50.0
)

type Style string

const (
	StyleDirective     Style = "directive"
	StyleCollaborative Style = "collaborative"
	StyleDelegative    Style = "delegative"
	StyleCoaching      Style = "coaching"
)

type Goal string

const (
	GoalCareerTransition  Goal = "career_transition"
	GoalSkillDevelopment  Goal = "skill_development"
	GoalLeadership        Goal = "leadership"
	GoalEntrepreneurship  Goal = "entrepreneurship"
	GoalWorkLifeBalance   Goal = "work_life_balance"
	GoalIndustryKnowledge Goal = "industry_knowledge"
)

type Mentee struct {
	UserID          string   `json:"userId" validate:"required"`
	Industry        string   `json:"industry" validate:"required"`
	Role            string   `json:"role" validate:"required"`
	ExperienceYears float64  `json:"experienceYears" validate:"min=0"`
	Skills          []string `json:"skills"`
	Goals           []Goal   `json:"goals" validate:"dive,oneof=career_transition skill_development leadership entrepreneurship work_life_balance industry_knowledge"`
	PreferredStyle  Style    `json:"preferredStyle,omitempty" validate:"omitempty,oneof=directive collaborative delegative coaching"`
	// AvailabilityHours is per month; 0 means the default of 4.
	AvailabilityHours int      `json:"availabilityHoursPerMonth,omitempty" validate:"omitempty,min=1,max=20"`
	Timezone          string   `json:"timezone,omitempty"`
	Languages         []string `json:"languages,omitempty"`
}

func (m Mentee) hours() int {
	if m.AvailabilityHours == 0 {
		return 4
	}
	return m.AvailabilityHours
}

func (m Mentee) timezone() string {
	if m.Timezone == "" {
		return "UTC"
	}
	return m.Timezone
}

func (m Mentee) languages() []string {
	if len(m.Languages) == 0 {
		return []string{"English"}
	}
	return m.Languages
}

func (m Mentee) hasGoal(g Goal) bool {
	for _, goal := range m.Goals {
		if goal == g {
			return true
		}
	}
	return false
}

type Mentor struct {
	UserID            string   `json:"userId" validate:"required"`
	Industry          string   `json:"industry"`
	Role              string   `json:"role"`
	ExperienceYears   float64  `json:"experienceYears" validate:"min=0"`
	ExpertiseAreas    []string `json:"expertiseAreas"`
	Style             Style    `json:"mentoringStyle" validate:"required,oneof=directive collaborative delegative coaching"`
	AvailabilityHours int      `json:"availabilityHoursPerMonth" validate:"min=0"`
	Timezone          string   `json:"timezone"`
	Languages         []string `json:"languages"`
	Rating            float64  `json:"rating" validate:"min=0,max=5"`
	TotalMentees      int      `json:"totalMentees"`
	SuccessStories    int      `json:"successStories"`
	HourlyRate        *float64 `json:"hourlyRate,omitempty"`
	IsProBono         bool     `json:"isProBono"`
}

type MatchScore struct {
	MentorID            string                 `json:"mentorId"`
	OverallScore        float64                `json:"overallScore"`
	SkillAlignment      float64                `json:"skillAlignment"`
	GoalCompatibility   float64                `json:"goalCompatibility"`
	StyleFit            float64                `json:"styleFit"`
	AvailabilityMatch   float64                `json:"availabilityMatch"`
	ExperienceRelevance float64                `json:"experienceRelevance"`
	MatchReasons        []string               `json:"matchReasons"`
	PotentialChallenges []string               `json:"potentialChallenges"`
	MentorSummary       map[string]interface{} `json:"mentorSummary"`
}

// MatchRequest is the Zeebe job payload for match-mentors. Mentors supplied
// inline are scored as-is; otherwise they are loaded from the store.
type MatchRequest struct {
	Mentee     Mentee   `json:"mentee"`
	MentorPool []string `json:"mentorPool,omitempty"`
	Mentors    []Mentor `json:"mentors,omitempty" validate:"omitempty,max=500,dive"`
	MaxResults int      `json:"maxResults,omitempty" validate:"omitempty,min=1,max=50"`
	MinScore   *float64 `json:"minScore,omitempty" validate:"omitempty,min=0,max=100"`
}

type MatchResponse struct {
	MenteeID         string       `json:"menteeId"`
	Matches          []MatchScore `json:"matches"`
	TotalConsidered  int          `json:"totalConsidered"`
	AlgorithmVersion string       `json:"algorithmVersion"`
}

type ScoreRequest struct {
	Mentee Mentee `json:"mentee"`
	Mentor Mentor `json:"mentor"`
}

type GoalsRequest struct {
	Industry          string   `json:"industry"`
	Role              string   `json:"role"`
	ExperienceYears   float64  `json:"experienceYears" validate:"min=0"`
	CurrentChallenges []string `json:"currentChallenges,omitempty"`
}

type GoalRecommendation struct {
	Goal     Goal   `json:"goal"`
	Priority string `json:"priority"`
	Reason   string `json:"reason"`
}

type ServiceDependencies struct {
	Logger        logger.Logger
	Observability *observability.Observability
	// Store may be nil; requests must then carry their mentors inline.
	Store MentorStore
}
