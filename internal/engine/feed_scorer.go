package engine

import (
	"math"
	"time"
)

// Feed reasons, in precedence order.
const (
	ReasonSponsored      = "Sponsored"
	ReasonFollowedUser   = "From someone you follow"
	ReasonFollowedOrg    = "From an organization you follow"
	ReasonInterests      = "Based on your interests"
	ReasonRecommendedFor = "Recommended for you"
)

// FeedScorer scores feed candidates. Now defaults to time.Now.
type FeedScorer struct {
	Now func() time.Time
}

func (s FeedScorer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Score returns an unrounded total clamped to [0,100].
func (s FeedScorer) Score(c Candidate, uc UserContext) float64 {
	score := c.Quality() * 30

	if contains(uc.FollowedUsers, c.AuthorID) {
		score += 25
	}
	if contains(uc.FollowedOrganizations, c.AuthorID) {
		score += 20
	}

	score += math.Min(20, float64(5*intersectCount(uc.Interests, c.Tags, true)))

	engagement := float64(c.Likes + 2*c.Comments + 3*c.Shares)
	score += math.Min(15, engagement/100)

	// future timestamps count as brand new
	ageHours := math.Max(0, s.now().Sub(c.CreatedAt).Hours())
	score += math.Max(0, 10-ageHours/24)

	for _, t := range uc.PreferredTypes {
		if t == c.Type {
			score += 5
			break
		}
	}

	return clamp(score, 0, 100)
}

// Reason explains why c is shown to uc.
func (s FeedScorer) Reason(c Candidate, uc UserContext) string {
	switch {
	case c.Sponsored:
		return ReasonSponsored
	case contains(uc.FollowedUsers, c.AuthorID):
		return ReasonFollowedUser
	case contains(uc.FollowedOrganizations, c.AuthorID):
		return ReasonFollowedOrg
	case intersectCount(uc.Interests, c.Tags, true) > 0:
		return ReasonInterests
	default:
		return ReasonRecommendedFor
	}
}
