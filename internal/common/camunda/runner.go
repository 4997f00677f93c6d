// internal/common/camunda/runner.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"opportunity-engine/internal/common/errors"
	"opportunity-engine/internal/common/logger"
	"opportunity-engine/internal/common/metrics"
	"opportunity-engine/internal/common/observability"
)

// JobFunc decodes a job and produces the variables to complete it with.
type JobFunc func(ctx context.Context) (interface{}, error)

// JobRunner carries the bookkeeping every handler does around its business
// call: active gauge, timeout, completion, failure reporting and metrics.
type JobRunner struct {
	taskType   string
	timeout    time.Duration
	logger     logger.Logger
	obs        *observability.Observability
	errHandler *errors.ErrorHandler
}

func NewJobRunner(taskType string, timeout time.Duration, log logger.Logger, obs *observability.Observability) *JobRunner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &JobRunner{
		taskType:   taskType,
		timeout:    timeout,
		logger:     log,
		obs:        obs,
		errHandler: errors.NewErrorHandler(log),
	}
}

// Run executes fn under the runner's timeout. A failing fn fails or throws
// the job and its normalized error is returned.
func (r *JobRunner) Run(client worker.JobClient, job entities.Job, fn JobFunc) error {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(r.taskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(r.taskType).Dec()

	r.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	output, err := fn(ctx)
	if err != nil {
		stdErr := r.errHandler.HandleJobError(ctx, client, job, err)
		metrics.WorkerJobsFailed.WithLabelValues(r.taskType, string(stdErr.Code)).Inc()
		r.obs.RecordJobProcessed(ctx, r.taskType, "failed")
		r.obs.RecordJobDuration(ctx, r.taskType, time.Since(start), "failed")
		return stdErr
	}

	if err := CompleteJob(ctx, client, job, output); err != nil {
		r.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return err
	}

	duration := time.Since(start)
	metrics.WorkerJobsCompleted.WithLabelValues(r.taskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(r.taskType).Observe(duration.Seconds())
	r.obs.RecordJobProcessed(ctx, r.taskType, "completed")
	r.obs.RecordJobDuration(ctx, r.taskType, duration, "completed")

	r.logger.Info("job completed", map[string]interface{}{
		"jobKey":     job.Key,
		"durationMs": duration.Milliseconds(),
	})
	return nil
}
