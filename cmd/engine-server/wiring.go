// cmd/engine-server/wiring.go
package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"opportunity-engine/internal/api"
	"opportunity-engine/internal/common/camunda"
	"opportunity-engine/internal/common/config"
	"opportunity-engine/internal/common/logger"
	"opportunity-engine/internal/common/observability"
	generatefeed "opportunity-engine/internal/workers/feed/generate-feed"
	recordsignal "opportunity-engine/internal/workers/feed/record-signal"
	careercompass "opportunity-engine/internal/workers/predictors/career-compass"
	incomestream "opportunity-engine/internal/workers/predictors/income-stream"
	mentormatch "opportunity-engine/internal/workers/predictors/mentor-match"
	safetyscore "opportunity-engine/internal/workers/predictors/safety-score"
	rankcandidates "opportunity-engine/internal/workers/ranking/rank-candidates"
	"opportunity-engine/pkg/registry"
)

// engineApp is every service plus the job handler that serves it.
type engineApp struct {
	services api.Services
	handlers []camunda.Registrable
	checks   map[string]api.ReadinessCheck
}

type validatable interface {
	Validate() error
}

// loadRegistry loads the model manifest. career_compass is always required;
// models.required adds more names without a feature contract.
func loadRegistry(cfg *config.Config) (*registry.Registry, error) {
	required := []registry.Requirement{careercompass.Requirement()}
	for _, name := range cfg.Models.Required {
		if name == careercompass.ModelName {
			continue
		}
		required = append(required, registry.Requirement{Name: name})
	}
	return registry.Load(registry.Options{
		ManifestPath:     cfg.Models.ManifestPath,
		Required:         required,
		AllowPlaceholder: cfg.Models.AllowPlaceholder,
	})
}

func buildApp(cfg *config.Config, b *backends, reg *registry.Registry, obs *observability.Observability, log logger.Logger) (*engineApp, error) {
	var rdb redis.Cmdable
	if b.redis != nil {
		rdb = b.redis.Client
	}

	rankCfg := rankcandidates.NewConfig(cfg)
	feedCfg := generatefeed.NewConfig(cfg)
	signalCfg := recordsignal.NewConfig(cfg)
	safetyCfg := safetyscore.NewConfig(cfg)
	mentorCfg := mentormatch.NewConfig(cfg)
	incomeCfg := incomestream.NewConfig(cfg)
	careerCfg := careercompass.NewConfig(cfg)

	for name, c := range map[string]validatable{
		rankcandidates.TaskType: rankCfg,
		generatefeed.TaskType:   feedCfg,
		recordsignal.TaskType:   signalCfg,
		safetyscore.TaskType:    safetyCfg,
		mentormatch.TaskType:    mentorCfg,
		incomestream.TaskType:   incomeCfg,
		careercompass.TaskType:  careerCfg,
	} {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("invalid %s config: %w", name, err)
		}
	}

	feedDeps := generatefeed.ServiceDependencies{Logger: log, Observability: obs}
	if rdb != nil {
		feedDeps.Cache = generatefeed.NewRedisPageCache(rdb, feedCfg.CacheTTL)
	}
	if b.search != nil {
		feedDeps.Source = generatefeed.NewESCandidateSource(b.search.Client, feedCfg.CandidateIndex, feedCfg.Breaker)
	}

	checks := make(map[string]api.ReadinessCheck)
	if source, ok := feedDeps.Source.(*generatefeed.ESCandidateSource); ok {
		checks["candidate_source"] = func(context.Context) error {
			if state := source.State(); state == "open" {
				return fmt.Errorf("circuit breaker %s for index %s", state, source.Index())
			}
			return nil
		}
	}

	mentorDeps := mentormatch.ServiceDependencies{Logger: log, Observability: obs}
	if b.postgres != nil {
		mentorDeps.Store = mentormatch.NewPostgresMentorStore(b.postgres.DB)
	}

	ranker := rankcandidates.NewService(rankcandidates.ServiceDependencies{Logger: log, Observability: obs}, rankCfg)
	feed := generatefeed.NewService(feedDeps, feedCfg)
	signals := recordsignal.NewService(recordsignal.ServiceDependencies{
		Logger:        log,
		Observability: obs,
		Redis:         rdb,
		Publisher:     b.publisher,
	}, signalCfg)
	safety := safetyscore.NewService(safetyscore.ServiceDependencies{
		Logger:        log,
		Observability: obs,
		Redis:         rdb,
		Publisher:     b.publisher,
	}, safetyCfg)
	mentor := mentormatch.NewService(mentorDeps, mentorCfg)
	income := incomestream.NewService(incomestream.ServiceDependencies{Logger: log, Observability: obs}, incomeCfg)
	career := careercompass.NewService(careercompass.ServiceDependencies{
		Logger:        log,
		Observability: obs,
		Registry:      reg,
	}, careerCfg)

	return &engineApp{
		services: api.Services{
			Ranker:  ranker,
			Feed:    feed,
			Signals: signals,
			Safety:  safety,
			Mentor:  mentor,
			Income:  income,
			Career:  career,
		},
		handlers: []camunda.Registrable{
			rankcandidates.NewHandler(rankCfg, ranker, log),
			generatefeed.NewHandler(feedCfg, feed, log),
			recordsignal.NewHandler(signalCfg, signals, log),
			safetyscore.NewHandler(safetyCfg, safety, log),
			mentormatch.NewHandler(mentorCfg, mentor, log),
			incomestream.NewHandler(incomeCfg, income, log),
			careercompass.NewHandler(careerCfg, career, log),
		},
		checks: checks,
	}, nil
}
