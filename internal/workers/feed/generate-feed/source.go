// internal/workers/feed/generate-feed/source.go
package generatefeed

import (
	"bytes"
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"opportunity-engine/internal/common/config"
	"opportunity-engine/internal/engine"
)

// CandidateSource loads a user's candidate pool.
type CandidateSource interface {
	Fetch(ctx context.Context, uc engine.UserContext, limit int) ([]engine.Candidate, error)
}

// ESCandidateSource searches the candidate index behind a circuit breaker.
type ESCandidateSource struct {
	client  *elasticsearch.Client
	index   string
	breaker *gobreaker.CircuitBreaker[[]engine.Candidate]
}

func NewESCandidateSource(client *elasticsearch.Client, index string, bc config.BreakerConfig) *ESCandidateSource {
	threshold := bc.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	return &ESCandidateSource{
		client: client,
		index:  index,
		breaker: gobreaker.NewCircuitBreaker[[]engine.Candidate](gobreaker.Settings{
			Name:        "feed-candidates",
			MaxRequests: bc.MaxRequests,
			Interval:    config.GetDuration(bc.Interval),
			Timeout:     config.GetDuration(bc.Timeout),
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
		}),
	}
}

func (s *ESCandidateSource) Index() string {
	return s.index
}

// State reports the breaker state, for readiness output.
func (s *ESCandidateSource) State() string {
	return s.breaker.State().String()
}

func (s *ESCandidateSource) Fetch(ctx context.Context, uc engine.UserContext, limit int) ([]engine.Candidate, error) {
	return s.breaker.Execute(func() ([]engine.Candidate, error) {
		return s.search(ctx, uc, limit)
	})
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string           `json:"_id"`
			Source engine.Candidate `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ESCandidateSource) search(ctx context.Context, uc engine.UserContext, limit int) ([]engine.Candidate, error) {
	body, err := json.Marshal(buildCandidateQuery(uc, limit))
	if err != nil {
		return nil, err
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search %s: %s", s.index, res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	candidates := make([]engine.Candidate, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		c := hit.Source
		if c.ID == "" {
			c.ID = hit.ID
		}
		if !c.Type.IsFeedType() {
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// buildCandidateQuery prefers items from followed authors and matching
// tags, newest first, within the last 30 days.
func buildCandidateQuery(uc engine.UserContext, limit int) map[string]interface{} {
	should := []interface{}{}
	if len(uc.Interests) > 0 {
		should = append(should, map[string]interface{}{
			"terms": map[string]interface{}{"tags": uc.Interests},
		})
	}
	followed := append(append([]string{}, uc.FollowedUsers...), uc.FollowedOrganizations...)
	if len(followed) > 0 {
		should = append(should, map[string]interface{}{
			"terms": map[string]interface{}{"authorId": followed, "boost": 2},
		})
	}

	return map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{
						"range": map[string]interface{}{
							"createdAt": map[string]interface{}{"gte": "now-30d/d"},
						},
					},
				},
				"should": should,
			},
		},
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"createdAt": map[string]interface{}{"order": "desc"}},
		},
	}
}

