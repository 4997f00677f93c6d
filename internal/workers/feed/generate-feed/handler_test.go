// internal/workers/feed/generate-feed/handler_test.go
package generatefeed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opportunity-engine/internal/common/config"
	"opportunity-engine/internal/common/errors"
	"opportunity-engine/internal/common/logger"
	"opportunity-engine/internal/engine"
)

// ==========================
// Test Helper Functions
// ==========================

var testNow = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func createTestConfig() *Config {
	cfg := DefaultConfig()
	cfg.CacheTTL = time.Minute
	cfg.FetchLimit = 10
	cfg.Breaker.FailureThreshold = 2
	return cfg
}

func createTestService(t *testing.T, cfg *Config, source CandidateSource, cache PageCache) *Service {
	return NewService(ServiceDependencies{
		Logger: logger.NewTestLogger(t),
		Source: source,
		Cache:  cache,
		Now:    func() time.Time { return testNow },
	}, cfg)
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func quality(v float64) *float64 { return &v }

func createTestCandidates() []engine.Candidate {
	return []engine.Candidate{
		{ID: "p1", Type: engine.ContentPost, AuthorID: "friend", CreatedAt: testNow.Add(-time.Hour), QualityScore: quality(0.9)},
		{ID: "p2", Type: engine.ContentPost, AuthorID: "x", CreatedAt: testNow.Add(-2 * time.Hour), QualityScore: quality(0.8)},
		{ID: "v1", Type: engine.ContentVideo, AuthorID: "y", CreatedAt: testNow.Add(-3 * time.Hour), QualityScore: quality(0.7), Tags: []string{"go"}},
		{ID: "j1", Type: engine.ContentJob, AuthorID: "acme", CreatedAt: testNow.Add(-5 * time.Hour), QualityScore: quality(0.6)},
		{ID: "ad1", Type: engine.ContentAd, AuthorID: "brand", CreatedAt: testNow, QualityScore: quality(0.5), Sponsored: true},
	}
}

func createTestInput() *Input {
	return &Input{
		UserContext: engine.UserContext{
			UserID:                "user-1",
			Interests:             []string{"go"},
			FollowedUsers:         []string{"friend"},
			FollowedOrganizations: []string{"acme"},
			FeedContext:           engine.FeedHome,
		},
		Candidates: createTestCandidates(),
		PageSize:   4,
	}
}

// newESServer serves search responses from hits, or status when non-zero.
func newESServer(t *testing.T, status int, hits []engine.Candidate, calls *int32) *elasticsearch.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if status != 0 {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":"boom"}`)
			return
		}

		resp := map[string]interface{}{}
		docs := make([]map[string]interface{}, len(hits))
		for i, h := range hits {
			docs[i] = map[string]interface{}{"_id": fmt.Sprintf("es-%d", i), "_source": h}
		}
		resp["hits"] = map[string]interface{}{"hits": docs}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

// ==========================
// Generate
// ==========================

func TestService_Generate(t *testing.T) {
	svc := createTestService(t, createTestConfig(), nil, nil)

	out, err := svc.Generate(context.Background(), createTestInput())
	require.NoError(t, err)

	assert.NotEmpty(t, out.FeedID)
	assert.Equal(t, "user-1", out.UserID)
	assert.Equal(t, engine.FeedHome, out.FeedContext)
	assert.Equal(t, 1, out.Page)
	assert.Equal(t, 4, out.PageSize)
	assert.False(t, out.Cached)
	assert.Equal(t, 5, out.TotalCandidates)
	require.Len(t, out.Items, 4)
	assert.True(t, out.HasMore)
	assert.Equal(t, 0.10, out.MixRatios["sponsored"])

	// one sponsored slot, placed at position 4
	assert.Equal(t, "ad1", out.Items[3].ID)
	assert.True(t, out.Items[3].Sponsored)
	assert.Equal(t, engine.ReasonSponsored, out.Items[3].Reason)

	for i, item := range out.Items {
		assert.Equal(t, i+1, item.Position)
	}
	assert.Equal(t, "p1", out.Items[0].ID)
	assert.Equal(t, engine.ReasonFollowedUser, out.Items[0].Reason)
}

func TestService_Generate_PagesAndDefaults(t *testing.T) {
	svc := createTestService(t, createTestConfig(), nil, nil)

	input := createTestInput()
	input.Page = 3
	input.PageSize = 0
	input.UserContext.FeedContext = ""

	out, err := svc.Generate(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultPageSize, out.PageSize)
	assert.Equal(t, engine.FeedHome, out.FeedContext)
	// step 20/2=10 never comes up before organic items run out
	require.Len(t, out.Items, 4)
	assert.Equal(t, 41, out.Items[0].Position)
	assert.Equal(t, 44, out.Items[3].Position)
	assert.True(t, out.HasMore)
}

func TestService_Generate_EmptyPool(t *testing.T) {
	svc := createTestService(t, createTestConfig(), nil, nil)

	input := createTestInput()
	input.Candidates = nil

	out, err := svc.Generate(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.False(t, out.HasMore)
}

func TestService_Generate_InvalidInput(t *testing.T) {
	svc := createTestService(t, createTestConfig(), nil, nil)

	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"missing user", func(in *Input) { in.UserContext.UserID = "" }},
		{"page size too large", func(in *Input) { in.PageSize = 51 }},
		{"unknown context", func(in *Input) { in.UserContext.FeedContext = "gaming" }},
		{"negative ratio", func(in *Input) { in.MixRatios = engine.MixRatios{"sponsored": -0.1} }},
		{"non-feed type", func(in *Input) { in.Candidates[0].Type = engine.ContentUser }},
		{"fetch without source", func(in *Input) { in.Candidates = nil; in.FetchCandidates = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := createTestInput()
			tt.mutate(input)

			_, err := svc.Generate(context.Background(), input)
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput), err)
		})
	}
}

func TestService_Generate_BlockedUsersNotFiltered(t *testing.T) {
	svc := createTestService(t, createTestConfig(), nil, nil)

	input := createTestInput()
	input.UserContext.BlockedUsers = []string{"friend"}

	out, err := svc.Generate(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "p1", out.Items[0].ID)
}

// ==========================
// Page cache
// ==========================

func TestService_Generate_Cache(t *testing.T) {
	mr, rdb := setupRedis(t)
	svc := createTestService(t, createTestConfig(), nil, NewRedisPageCache(rdb, time.Minute))

	first, err := svc.Generate(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.False(t, first.Cached)

	key, err := PageKey(createTestInput())
	require.NoError(t, err)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	second, err := svc.Generate(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.FeedID, second.FeedID)
	assert.Equal(t, first.Items, second.Items)

	other := createTestInput()
	other.Page = 2
	third, err := svc.Generate(context.Background(), other)
	require.NoError(t, err)
	assert.False(t, third.Cached)
}

func TestService_Generate_CacheFailureIsIgnored(t *testing.T) {
	mr, rdb := setupRedis(t)
	svc := createTestService(t, createTestConfig(), nil, NewRedisPageCache(rdb, time.Minute))
	mr.Close()

	out, err := svc.Generate(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.False(t, out.Cached)
	assert.Len(t, out.Items, 4)
}

func TestService_Generate_CacheDisabledByTTL(t *testing.T) {
	mr, rdb := setupRedis(t)
	cfg := createTestConfig()
	cfg.CacheTTL = 0
	svc := createTestService(t, cfg, nil, NewRedisPageCache(rdb, 0))

	_, err := svc.Generate(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.Empty(t, mr.Keys())
}

func TestPageKey(t *testing.T) {
	a, err := PageKey(createTestInput())
	require.NoError(t, err)
	b, err := PageKey(createTestInput())
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Regexp(t, `^feed:page:user-1:[0-9a-f]{16}$`, a)

	changed := createTestInput()
	changed.MixRatios = engine.MixRatios{"sponsored": 0.2}
	c, err := PageKey(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	assert.Equal(t, "feed:page:user-1:*", PagePattern("user-1"))
}

// ==========================
// Candidate source
// ==========================

func TestService_Generate_FetchCandidates(t *testing.T) {
	var calls int32
	hits := createTestCandidates()
	hits[1].ID = ""
	hits = append(hits, engine.Candidate{ID: "u1", Type: engine.ContentUser})
	client := newESServer(t, 0, hits, &calls)

	cfg := createTestConfig()
	source := NewESCandidateSource(client, cfg.CandidateIndex, cfg.Breaker)
	svc := createTestService(t, cfg, source, nil)

	input := createTestInput()
	input.Candidates = nil
	input.FetchCandidates = true
	input.PageSize = 10

	out, err := svc.Generate(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 5, out.TotalCandidates)

	ids := map[string]bool{}
	for _, item := range out.Items {
		ids[item.ID] = true
	}
	assert.True(t, ids["es-1"], "missing source id falls back to the document id")
	assert.False(t, ids["u1"], "non-feed types are dropped")
}

func TestESCandidateSource_BreakerOpens(t *testing.T) {
	var calls int32
	client := newESServer(t, http.StatusInternalServerError, nil, &calls)

	cfg := createTestConfig()
	source := NewESCandidateSource(client, cfg.CandidateIndex, cfg.Breaker)
	svc := createTestService(t, cfg, source, nil)

	input := createTestInput()
	input.Candidates = nil
	input.FetchCandidates = true

	for i := 0; i < 2; i++ {
		_, err := svc.Generate(context.Background(), input)
		assert.True(t, errors.IsCode(err, errors.ErrCodeSearchQueryFailed), err)
	}
	assert.Equal(t, "open", source.State())

	_, err := svc.Generate(context.Background(), input)
	require.Error(t, err)
	stdErr := errors.Normalize(err)
	assert.Equal(t, errors.ErrCodeSearchQueryFailed, stdErr.Code)
	assert.Equal(t, "open", stdErr.Metadata["breaker"])
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestBuildCandidateQuery(t *testing.T) {
	q := buildCandidateQuery(engine.UserContext{
		Interests:     []string{"go"},
		FollowedUsers: []string{"a"},
	}, 25)

	assert.Equal(t, 25, q["size"])
	should := q["query"].(map[string]interface{})["bool"].(map[string]interface{})["should"].([]interface{})
	assert.Len(t, should, 2)

	empty := buildCandidateQuery(engine.UserContext{}, 5)
	should = empty["query"].(map[string]interface{})["bool"].(map[string]interface{})["should"].([]interface{})
	assert.Empty(t, should)
}

// ==========================
// Config
// ==========================

func TestNewConfig(t *testing.T) {
	app := &config.Config{
		Workers: map[string]config.WorkerConfig{
			TaskType: {Enabled: false, MaxJobsActive: 2, Timeout: 1000},
		},
		Feed: config.FeedConfig{CacheTTL: 5000, CandidateIndex: "items", FetchLimit: 50},
	}

	cfg := NewConfig(app)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 2, cfg.MaxJobsActive)
	assert.Equal(t, time.Second, cfg.Timeout)
	assert.Equal(t, 5*time.Second, cfg.CacheTTL)
	assert.Equal(t, "items", cfg.CandidateIndex)
	assert.Equal(t, 50, cfg.FetchLimit)
	assert.Equal(t, uint32(5), cfg.Breaker.FailureThreshold)
	assert.NoError(t, cfg.Validate())
}
