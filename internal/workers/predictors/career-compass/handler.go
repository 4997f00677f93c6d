// internal/workers/predictors/career-compass/handler.go
package careercompass

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"opportunity-engine/internal/common/camunda"
	"opportunity-engine/internal/common/logger"
)

const TaskType = "predict-career-growth"

type Handler struct {
	config  *Config
	logger  logger.Logger
	service *Service
	runner  *camunda.JobRunner
}

func NewHandler(config *Config, service *Service, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		logger:  log,
		service: service,
		runner:  camunda.NewJobRunner(TaskType, config.Timeout, log, service.obs),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	return h.runner.Run(client, job, func(ctx context.Context) (interface{}, error) {
		var input Profile
		if err := camunda.DecodeVariables(job, GetInputSchema(), &input); err != nil {
			return nil, err
		}
		return h.Execute(ctx, &input)
	})
}

func (h *Handler) Execute(ctx context.Context, input *Profile) (*Prediction, error) {
	return h.service.Predict(ctx, input)
}

func (h *Handler) TaskType() string {
	return TaskType
}

func (h *Handler) Options() camunda.WorkerOptions {
	return camunda.WorkerOptions{MaxJobsActive: h.config.MaxJobsActive, Timeout: h.config.Timeout}
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}
