// Package api serves the engine's operations over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"opportunity-engine/internal/common/config"
	"opportunity-engine/internal/common/logger"
	generatefeed "opportunity-engine/internal/workers/feed/generate-feed"
	recordsignal "opportunity-engine/internal/workers/feed/record-signal"
	careercompass "opportunity-engine/internal/workers/predictors/career-compass"
	incomestream "opportunity-engine/internal/workers/predictors/income-stream"
	mentormatch "opportunity-engine/internal/workers/predictors/mentor-match"
	safetyscore "opportunity-engine/internal/workers/predictors/safety-score"
	rankcandidates "opportunity-engine/internal/workers/ranking/rank-candidates"
)

const readinessTimeout = 2 * time.Second

// Services are the domain services behind the routes. All must be set.
type Services struct {
	Ranker  *rankcandidates.Service
	Feed    *generatefeed.Service
	Signals *recordsignal.Service
	Safety  *safetyscore.Service
	Mentor  *mentormatch.Service
	Income  *incomestream.Service
	Career  *careercompass.Service
}

// ReadinessCheck reports whether a backend can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Options struct {
	Services Services
	Server   config.ServerConfig
	Version  string
	Logger   logger.Logger
	// Checks run on /ready, keyed by backend name.
	Checks map[string]ReadinessCheck
}

type Server struct {
	services Services
	config   config.ServerConfig
	version  string
	logger   logger.Logger
	checks   map[string]ReadinessCheck
}

func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Server{
		services: opts.Services,
		config:   opts.Server,
		version:  opts.Version,
		logger:   log.WithFields(map[string]interface{}{"component": "http"}),
		checks:   opts.Checks,
	}
}

// Router builds the chi router with the middleware stack and every route.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsHandler(s.config))

	r.NotFound(s.notFound)
	r.MethodNotAllowed(s.methodNotAllowed)

	r.Get("/health", s.health)
	r.Get("/ready", s.ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.rateLimit(s.config))
		if s.config.MaxBodyBytes > 0 {
			r.Use(chimiddleware.RequestSize(s.config.MaxBodyBytes))
		}

		r.Route("/ranker", func(r chi.Router) {
			r.Post("/rank", s.rank)
			r.Post("/score-single", s.scoreSingle)
		})

		r.Route("/feed", func(r chi.Router) {
			r.Post("/generate", s.generateFeed)
			r.Post("/refresh-signal", s.refreshSignal)
			r.Post("/engagement-signal", s.engagementSignal)
			r.Get("/mix-config/{context}", s.mixConfig)
		})

		r.Route("/safety", func(r chi.Router) {
			r.Post("/calculate", s.calculateSafety)
			r.Post("/interaction", s.evaluateInteraction)
			r.Post("/moderate-content", s.moderateContent)
			r.Post("/report-signal", s.reportSafetySignal)
			r.Get("/thresholds", s.safetyThresholds)
		})

		r.Route("/mentor", func(r chi.Router) {
			r.Post("/match", s.matchMentors)
			r.Post("/score", s.scoreMentor)
			r.Post("/recommend-goals", s.recommendGoals)
		})

		r.Route("/income", func(r chi.Router) {
			r.Post("/predict", s.predictIncome)
			r.Post("/evaluate-opportunity", s.evaluateOpportunity)
		})

		r.Route("/career", func(r chi.Router) {
			r.Post("/predict", s.predictCareer)
			r.Post("/batch-predict", s.batchPredictCareer)
			r.Get("/feature-importance", s.careerFeatureImportance)
		})
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
	})
}

// ready runs every check concurrently and answers 503 if any fails.
func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	type result struct {
		name string
		err  error
	}
	results := make(chan result, len(s.checks))
	for name, check := range s.checks {
		go func() { results <- result{name: name, err: check(ctx)} }()
	}

	ready := true
	status := make(map[string]string, len(s.checks))
	for range s.checks {
		res := <-results
		if res.err != nil {
			ready = false
			status[res.name] = res.err.Error()
			continue
		}
		status[res.name] = "ok"
	}

	code := http.StatusOK
	state := "ready"
	if !ready {
		code = http.StatusServiceUnavailable
		state = "not_ready"
		s.logger.Warn("readiness check failed", map[string]interface{}{"checks": status})
	}
	s.writeJSON(w, r, code, &Response{
		Success: ready,
		Data:    map[string]interface{}{"status": state, "checks": status},
		Meta:    metaFor(r),
	})
}
