// cmd/engine-server/backends.go
package main

import (
	"context"
	"fmt"
	"time"

	"opportunity-engine/internal/api"
	"opportunity-engine/internal/common/aws"
	"opportunity-engine/internal/common/config"
	"opportunity-engine/internal/common/database"
	"opportunity-engine/internal/common/logger"
)

// backends holds the connections for the enabled backends. Disabled ones
// stay nil and the services fall back to running without them.
type backends struct {
	redis     *database.RedisClient
	postgres  *database.PostgresClient
	search    *database.ElasticsearchClient
	publisher aws.SignalPublisher
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(operationName+" failed, retrying", map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s cancelled: %w", operationName, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func connectBackends(ctx context.Context, cfg *config.Config, log logger.Logger) (*backends, error) {
	b := &backends{publisher: aws.NoopPublisher{}}

	if cfg.Database.Redis.Enabled {
		err := retryWithBackoff(ctx, func() error {
			client, err := database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := client.Ping(ctx); err != nil {
				_ = client.Close()
				return err
			}
			b.redis = client
			return nil
		}, 10, 2*time.Second, log, "Redis connection")
		if err != nil {
			b.Close()
			return nil, err
		}
		log.Info("Redis connected successfully", nil)
	}

	if cfg.Database.Postgres.Enabled {
		err := retryWithBackoff(ctx, func() error {
			client, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := client.Ping(ctx); err != nil {
				_ = client.Close()
				return err
			}
			b.postgres = client
			return nil
		}, 15, 2*time.Second, log, "PostgreSQL connection")
		if err != nil {
			b.Close()
			return nil, err
		}
		log.Info("PostgreSQL connected successfully", nil)
	}

	if cfg.Database.Elasticsearch.Enabled {
		err := retryWithBackoff(ctx, func() error {
			client, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := client.Ping(ctx); err != nil {
				return err
			}
			b.search = client
			return nil
		}, 15, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			b.Close()
			return nil, err
		}
		log.Info("Elasticsearch connected successfully", nil)
	}

	if sns := cfg.Integrations.AWS.SNS; sns.Enabled {
		publisher, err := aws.NewSNSPublisher(ctx, cfg.Integrations.AWS.Region, sns.TopicARN)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.publisher = publisher
		log.Info("SNS signal publisher configured", map[string]interface{}{"topicArn": sns.TopicARN})
	}

	return b, nil
}

// checks returns a readiness probe per connected backend.
func (b *backends) checks() map[string]api.ReadinessCheck {
	checks := make(map[string]api.ReadinessCheck)
	if b.redis != nil {
		checks["redis"] = b.redis.Ping
	}
	if b.postgres != nil {
		checks["postgres"] = b.postgres.Ping
	}
	if b.search != nil {
		checks["elasticsearch"] = b.search.Ping
	}
	return checks
}

func (b *backends) Close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.postgres != nil {
		_ = b.postgres.Close()
	}
}
