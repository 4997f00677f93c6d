package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// ==========================
// Tests
// ==========================

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: opportunity-engine
workers:
  generate-feed:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, "feed_candidates", cfg.Feed.CandidateIndex)
	assert.Equal(t, 200, cfg.Feed.FetchLimit)
	assert.Equal(t, uint32(5), cfg.Feed.Breaker.FailureThreshold)
	assert.Equal(t, 50, cfg.Mentor.CandidateLimit)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	worker := cfg.Workers["generate-feed"]
	assert.True(t, worker.Enabled)
	assert.Equal(t, 5, worker.MaxJobsActive)
	assert.Equal(t, 30000, worker.Timeout)
	assert.Equal(t, 3, worker.MaxRetries)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_REDIS_ADDR", "cache.internal:6379")
	path := writeConfig(t, `
database:
  redis:
    enabled: true
    address: ${TEST_REDIS_ADDR}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6379", cfg.Database.Redis.Address)
}

func TestLoadFromFile_ValidatesEnabledBackendsOnly(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name: "disabled backends need no settings",
			body: `
database:
  postgres:
    enabled: false
  redis:
    enabled: false
`,
		},
		{
			name: "enabled postgres without host",
			body: `
database:
  postgres:
    enabled: true
    database: engine
    user: engine
`,
			wantErr: "database.postgres.host is required",
		},
		{
			name: "enabled elasticsearch without addresses",
			body: `
database:
  elasticsearch:
    enabled: true
`,
			wantErr: "database.elasticsearch.addresses or url is required",
		},
		{
			name: "enabled camunda without broker",
			body: `
camunda:
  enabled: true
`,
			wantErr: "camunda.broker_address is required",
		},
		{
			name: "enabled sns without topic",
			body: `
integrations:
  aws:
    sns:
      enabled: true
`,
			wantErr: "integrations.aws.sns.topic_arn is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SIGNAL_TOPIC_ARN", "")
			_, err := LoadFromFile(writeConfig(t, tt.body))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetWorkerConfig(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"rank-candidates": {Enabled: false, MaxJobsActive: 2, Timeout: 1000},
	}}

	assert.Equal(t, 2, GetWorkerConfig(cfg, "rank-candidates").MaxJobsActive)
	assert.False(t, IsWorkerEnabled(cfg, "rank-candidates"))

	fallback := GetWorkerConfig(cfg, "unknown")
	assert.True(t, fallback.Enabled)
	assert.Equal(t, 30000, fallback.Timeout)
	assert.True(t, IsWorkerEnabled(cfg, "unknown"))
}

func TestElasticsearchConfig_GetAddresses(t *testing.T) {
	assert.Equal(t, []string{"http://a:9200"}, ElasticsearchConfig{URL: "http://a:9200"}.GetAddresses())
	assert.Equal(t, []string{"http://b:9200"}, ElasticsearchConfig{
		Addresses: []string{"http://b:9200"},
		URL:       "http://a:9200",
	}.GetAddresses())
	assert.Nil(t, ElasticsearchConfig{}.GetAddresses())
}

func TestLoadFromFile_ShippedConfig(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join("..", "..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.False(t, cfg.Camunda.Enabled)
	assert.Len(t, cfg.Workers, 7)
	for name := range cfg.Workers {
		assert.True(t, IsWorkerEnabled(cfg, name), name)
	}
	assert.Equal(t, []string{"career_compass"}, cfg.Models.Required)
	assert.Equal(t, "us-east-1", cfg.Integrations.AWS.Region)
	assert.False(t, cfg.Integrations.AWS.SNS.Enabled)
}
