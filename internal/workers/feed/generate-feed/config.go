// internal/workers/feed/generate-feed/config.go
package generatefeed

import (
	"fmt"
	"time"

	"opportunity-engine/internal/common/config"
)

type Config struct {
	Enabled        bool
	MaxJobsActive  int
	Timeout        time.Duration
	MaxRetries     int
	CacheTTL       time.Duration
	CandidateIndex string
	FetchLimit     int
	SlowThreshold  time.Duration
	Breaker        config.BreakerConfig
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		MaxJobsActive:  5,
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		CandidateIndex: "feed_candidates",
		FetchLimit:     200,
		SlowThreshold:  500 * time.Millisecond,
		Breaker: config.BreakerConfig{
			MaxRequests:      1,
			Interval:         60000,
			Timeout:          30000,
			FailureThreshold: 5,
		},
	}
}

func NewConfig(appConfig *config.Config) *Config {
	cfg := DefaultConfig()
	if appConfig == nil {
		return cfg
	}

	wc := config.GetWorkerConfig(appConfig, TaskType)
	cfg.Enabled = wc.Enabled
	if wc.MaxJobsActive > 0 {
		cfg.MaxJobsActive = wc.MaxJobsActive
	}
	if wc.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wc.Timeout)
	}
	if wc.MaxRetries > 0 {
		cfg.MaxRetries = wc.MaxRetries
	}

	feed := appConfig.Feed
	cfg.CacheTTL = config.GetDuration(feed.CacheTTL)
	if feed.CandidateIndex != "" {
		cfg.CandidateIndex = feed.CandidateIndex
	}
	if feed.FetchLimit > 0 {
		cfg.FetchLimit = feed.FetchLimit
	}
	if feed.SlowMs > 0 {
		cfg.SlowThreshold = config.GetDuration(feed.SlowMs)
	}
	if feed.Breaker.FailureThreshold > 0 {
		cfg.Breaker = feed.Breaker
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.FetchLimit <= 0 {
		return fmt.Errorf("fetch_limit must be positive")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative")
	}
	return nil
}
