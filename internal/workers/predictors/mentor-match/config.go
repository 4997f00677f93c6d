// internal/workers/predictors/mentor-match/config.go
package mentormatch

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
	CandidateLimit int
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		MaxJobsActive:  5,
		Timeout:        15 * time.Second,
		MaxRetries:     3,
		CandidateLimit: 200,
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
	if appConfig.Mentor.CandidateLimit > 0 {
		cfg.CandidateLimit = appConfig.Mentor.CandidateLimit
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.CandidateLimit <= 0 {
		return fmt.Errorf("candidate_limit must be positive")
	}
	return nil
}
