// Package engine scores candidates, enforces content-type diversity and
// composes feed pages. It is pure: no I/O, no shared mutable state.
package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidInput marks caller-input failures. Callers map it to INVALID_INPUT.
var ErrInvalidInput = errors.New("invalid input")

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

type ContentType string

const (
	ContentPost   ContentType = "post"
	ContentVideo  ContentType = "video"
	ContentJob    ContentType = "job"
	ContentCourse ContentType = "course"
	ContentAd     ContentType = "ad"
	ContentMentor ContentType = "mentor"
	ContentEvent  ContentType = "event"
	ContentStory  ContentType = "story"
	ContentUser   ContentType = "user" // generic ranker only
)

var feedContentTypes = map[ContentType]bool{
	ContentPost: true, ContentVideo: true, ContentJob: true, ContentCourse: true,
	ContentAd: true, ContentMentor: true, ContentEvent: true, ContentStory: true,
}

// IsFeedType reports whether t may appear in a composed feed.
func (t ContentType) IsFeedType() bool {
	return feedContentTypes[t]
}

type FeedContext string

const (
	FeedHome         FeedContext = "home"
	FeedExplore      FeedContext = "explore"
	FeedProfessional FeedContext = "professional"
	FeedLearning     FeedContext = "learning"
	FeedSocial       FeedContext = "social"
)

func (c FeedContext) Valid() bool {
	switch c {
	case FeedHome, FeedExplore, FeedProfessional, FeedLearning, FeedSocial:
		return true
	}
	return false
}

type Strategy string

const (
	StrategyLight Strategy = "light"
	StrategyHeavy Strategy = "heavy"
)

// UserContext describes the viewer. It is read-only for the duration of a request.
type UserContext struct {
	UserID                string                 `json:"userId"`
	Persona               string                 `json:"persona,omitempty"`
	Interests             []string               `json:"interests,omitempty"`
	Skills                []string               `json:"skills,omitempty"`
	FollowedUsers         []string               `json:"followedUsers,omitempty"`
	FollowedOrganizations []string               `json:"followedOrganizations,omitempty"`
	BlockedUsers          []string               `json:"blockedUsers,omitempty"` // accepted, not consulted
	Location              string                 `json:"location,omitempty"`
	PreferredTypes        []ContentType          `json:"preferredContentTypes,omitempty"`
	FeedContext           FeedContext            `json:"feedContext,omitempty"`
	Session               map[string]interface{} `json:"session,omitempty"`
}

// Candidate is an item eligible for ranking or feed inclusion.
type Candidate struct {
	ID           string                 `json:"id"`
	Type         ContentType            `json:"type"`
	AuthorID     string                 `json:"authorId,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
	Views        int                    `json:"views,omitempty"`
	Likes        int                    `json:"likes,omitempty"`
	Comments     int                    `json:"comments,omitempty"`
	Shares       int                    `json:"shares,omitempty"`
	QualityScore *float64               `json:"qualityScore,omitempty"`
	Tags         []string               `json:"tags,omitempty"`
	Sponsored    bool                   `json:"sponsored,omitempty"`
	Features     map[string]interface{} `json:"features,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

const defaultQuality = 0.5

// Quality returns the content quality in [0,1], 0.5 when unset.
func (c Candidate) Quality() float64 {
	if c.QualityScore == nil {
		return defaultQuality
	}
	return clamp(*c.QualityScore, 0, 1)
}

// ScoreBreakdown maps factor name to its contribution.
type ScoreBreakdown map[string]float64

// ScoredItem is a candidate after scoring. Position is 1-based.
type ScoredItem struct {
	ID        string         `json:"id"`
	Type      ContentType    `json:"type"`
	Score     float64        `json:"score"`
	Breakdown ScoreBreakdown `json:"breakdown,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Sponsored bool           `json:"sponsored"`
	Position  int            `json:"position"`
}

// MixRatios maps bucket name to its share of a page.
type MixRatios map[string]float64

func (r MixRatios) clone() MixRatios {
	out := make(MixRatios, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Validate rejects ratios outside [0,1].
func (r MixRatios) Validate() error {
	for name, v := range r {
		if v < 0 || v > 1 {
			return invalidf("ratio %q must be between 0 and 1, got %v", name, v)
		}
	}
	return nil
}

// PageResult is one composed feed page.
type PageResult struct {
	Items   []ScoredItem `json:"items"`
	Page    int          `json:"page"`
	HasMore bool         `json:"hasMore"`
	Ratios  MixRatios    `json:"ratios"`
}

// ==========================
// feature helpers
// ==========================

func featureFloat(features map[string]interface{}, key string, def float64) float64 {
	v, ok := features[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	}
	return def
}

func featureString(features map[string]interface{}, key string) string {
	s, _ := features[key].(string)
	return s
}

func featureStrings(features map[string]interface{}, key string) []string {
	switch v := features[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// intersectCount counts distinct values of a present in b.
func intersectCount(a, b []string, fold bool) int {
	norm := func(s string) string {
		if fold {
			return strings.ToLower(s)
		}
		return s
	}
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[norm(s)] = struct{}{}
	}
	seen := make(map[string]struct{}, len(a))
	n := 0
	for _, s := range a {
		k := norm(s)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := set[k]; ok {
			n++
		}
	}
	return n
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
