// internal/workers/ranking/rank-candidates/handler_test.go
package rankcandidates

import (
	"context"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opportunity-engine/internal/common/camunda"
	"opportunity-engine/internal/common/errors"
	"opportunity-engine/internal/common/logger"
	"opportunity-engine/internal/engine"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return DefaultConfig()
}

func createTestHandler(t *testing.T) *Handler {
	log := logger.NewTestLogger(t)
	cfg := createTestConfig()
	svc := NewService(ServiceDependencies{Logger: log}, cfg)
	return NewHandler(cfg, svc, log)
}

func float(v float64) *float64 { return &v }

func createTestInput() *Input {
	return &Input{
		Candidates: []engine.Candidate{
			{ID: "post-1", Type: engine.ContentPost, Features: map[string]interface{}{"freshness_score": 0.1}},
			{ID: "job-1", Type: engine.ContentJob, Features: map[string]interface{}{
				"tags":            []interface{}{"go"},
				"required_skills": []interface{}{"Go"},
				"freshness_score": 0.9,
			}},
			{ID: "video-1", Type: engine.ContentVideo, Features: map[string]interface{}{"engagement_rate": 0.6}},
		},
		UserContext: engine.UserContext{
			UserID:    "user-1",
			Interests: []string{"go"},
			Skills:    []string{"go"},
		},
	}
}

// ==========================
// Execute
// ==========================

func TestHandler_Execute(t *testing.T) {
	h := createTestHandler(t)

	out, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	assert.Equal(t, engine.StrategyLight, out.Strategy)
	assert.True(t, out.DiversityApplied)
	assert.Equal(t, 3, out.TotalCandidates)
	require.Len(t, out.RankedItems, 3)

	assert.Equal(t, "job-1", out.RankedItems[0].ID)
	for i, item := range out.RankedItems {
		assert.Equal(t, i+1, item.Rank)
		assert.GreaterOrEqual(t, item.Score, 0.0)
		assert.LessOrEqual(t, item.Score, 100.0)
		assert.NotEmpty(t, item.Explanation)
		if i > 0 {
			assert.GreaterOrEqual(t, out.RankedItems[i-1].Score, item.Score)
		}
	}
	assert.Equal(t, "Recommended because it recently posted and matches your interests", out.RankedItems[0].Explanation)
}

func TestHandler_Execute_Options(t *testing.T) {
	h := createTestHandler(t)

	tests := []struct {
		name          string
		mutate        func(*Input)
		wantCount     int
		wantStrategy  engine.Strategy
		wantDiversity bool
	}{
		{
			name:          "topK truncates",
			mutate:        func(in *Input) { in.TopK = 2 },
			wantCount:     2,
			wantStrategy:  engine.StrategyLight,
			wantDiversity: true,
		},
		{
			name:          "heavy strategy",
			mutate:        func(in *Input) { in.Strategy = engine.StrategyHeavy },
			wantCount:     3,
			wantStrategy:  engine.StrategyHeavy,
			wantDiversity: true,
		},
		{
			name:          "diversity disabled",
			mutate:        func(in *Input) { in.DiversityFactor = float(0) },
			wantCount:     3,
			wantStrategy:  engine.StrategyLight,
			wantDiversity: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := createTestInput()
			tt.mutate(input)

			out, err := h.Execute(context.Background(), input)
			require.NoError(t, err)
			assert.Len(t, out.RankedItems, tt.wantCount)
			assert.Equal(t, tt.wantStrategy, out.Strategy)
			assert.Equal(t, tt.wantDiversity, out.DiversityApplied)
		})
	}
}

func TestHandler_Execute_HeavyBoostsScores(t *testing.T) {
	h := createTestHandler(t)

	light, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	input := createTestInput()
	input.Strategy = engine.StrategyHeavy
	heavy, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	scores := map[string]float64{}
	for _, item := range light.RankedItems {
		scores[item.ID] = item.Score
	}
	for _, item := range heavy.RankedItems {
		assert.GreaterOrEqual(t, item.Score, scores[item.ID], item.ID)
	}
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	h := createTestHandler(t)

	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"no candidates", func(in *Input) { in.Candidates = nil }},
		{"unknown strategy", func(in *Input) { in.Strategy = "medium" }},
		{"topK too large", func(in *Input) { in.TopK = 101 }},
		{"diversity above one", func(in *Input) { in.DiversityFactor = float(1.5) }},
		{"candidate without id", func(in *Input) { in.Candidates[0].ID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := createTestInput()
			tt.mutate(input)

			_, err := h.Execute(context.Background(), input)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput), err.Error())
		})
	}

	_, err := h.Execute(context.Background(), nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
}

// ==========================
// ScoreSingle
// ==========================

func TestService_ScoreSingle(t *testing.T) {
	h := createTestHandler(t)

	out, err := h.service.ScoreSingle(context.Background(), &ScoreInput{
		Candidate:   engine.Candidate{ID: "c1", Type: engine.ContentPost},
		UserContext: engine.UserContext{UserID: "u1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", out.ID)
	assert.Equal(t, 74.5, out.Score)
	assert.Equal(t, 50.0, out.Breakdown[engine.FactorBase])

	_, err = h.service.ScoreSingle(context.Background(), &ScoreInput{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
}

// ==========================
// Job variables
// ==========================

func TestDecodeVariables(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		wantCode  errors.ErrorCode
	}{
		{
			name:      "valid",
			variables: `{"candidates":[{"id":"a","type":"post"}],"userContext":{"userId":"u1"},"strategy":"heavy","processVar":1}`,
		},
		{
			name:      "missing candidates",
			variables: `{"userContext":{"userId":"u1"}}`,
			wantCode:  errors.ErrCodeInvalidInput,
		},
		{
			name:      "bad strategy",
			variables: `{"candidates":[{"id":"a","type":"post"}],"userContext":{"userId":"u1"},"strategy":"x"}`,
			wantCode:  errors.ErrCodeInvalidInput,
		},
		{
			name:      "malformed",
			variables: `{"candidates":`,
			wantCode:  errors.ErrCodeParseError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Variables: tt.variables}}

			var input Input
			err := camunda.DecodeVariables(job, GetInputSchema(), &input)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, engine.StrategyHeavy, input.Strategy)
				assert.Len(t, input.Candidates, 1)
				return
			}
			assert.True(t, errors.IsCode(err, tt.wantCode), err)
		})
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(nil)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())

	cfg.Timeout = 0
	assert.Error(t, cfg.Validate())
}
