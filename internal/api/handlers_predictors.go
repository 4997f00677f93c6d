// internal/api/handlers_predictors.go
package api

import (
	"net/http"

	"opportunity-engine/internal/common/validation"
	careercompass "opportunity-engine/internal/workers/predictors/career-compass"
	incomestream "opportunity-engine/internal/workers/predictors/income-stream"
	mentormatch "opportunity-engine/internal/workers/predictors/mentor-match"
	safetyscore "opportunity-engine/internal/workers/predictors/safety-score"
)

// ==========================
// Safety
// ==========================

func (s *Server) calculateSafety(w http.ResponseWriter, r *http.Request) {
	var profile safetyscore.Profile
	if !s.decode(w, r, &profile) {
		return
	}
	out, err := s.services.Safety.Calculate(r.Context(), &profile)
	s.reply(w, r, out, err)
}

func (s *Server) evaluateInteraction(w http.ResponseWriter, r *http.Request) {
	var req safetyscore.InteractionRequest
	if !s.decode(w, r, &req) {
		return
	}
	out, err := s.services.Safety.EvaluateInteraction(r.Context(), &req)
	s.reply(w, r, out, err)
}

func (s *Server) moderateContent(w http.ResponseWriter, r *http.Request) {
	var req safetyscore.ModerationRequest
	if !s.decode(w, r, &req) {
		return
	}
	out, err := s.services.Safety.ModerateContent(r.Context(), &req)
	s.reply(w, r, out, err)
}

func (s *Server) reportSafetySignal(w http.ResponseWriter, r *http.Request) {
	var input safetyscore.ReportInput
	if !s.decode(w, r, &input) {
		return
	}
	out, err := s.services.Safety.ReportSignal(r.Context(), &input)
	s.reply(w, r, out, err)
}

func (s *Server) safetyThresholds(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, s.services.Safety.Thresholds())
}

// ==========================
// Mentor
// ==========================

func (s *Server) matchMentors(w http.ResponseWriter, r *http.Request) {
	var req mentormatch.MatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	out, err := s.services.Mentor.Match(r.Context(), &req)
	s.reply(w, r, out, err)
}

func (s *Server) scoreMentor(w http.ResponseWriter, r *http.Request) {
	var req mentormatch.ScoreRequest
	if !s.decode(w, r, &req) {
		return
	}
	out, err := s.services.Mentor.ScorePair(r.Context(), &req)
	s.reply(w, r, out, err)
}

func (s *Server) recommendGoals(w http.ResponseWriter, r *http.Request) {
	var req mentormatch.GoalsRequest
	if !s.decode(w, r, &req) {
		return
	}
	if stdErr := validation.ValidateStruct(&req); stdErr != nil {
		s.respondError(w, r, stdErr)
		return
	}
	s.respond(w, r, http.StatusOK, map[string]interface{}{
		"experienceYears":  req.ExperienceYears,
		"recommendedGoals": mentormatch.RecommendGoals(req.ExperienceYears),
	})
}

// ==========================
// Income
// ==========================

func (s *Server) predictIncome(w http.ResponseWriter, r *http.Request) {
	var profile incomestream.Profile
	if !s.decode(w, r, &profile) {
		return
	}
	out, err := s.services.Income.Predict(r.Context(), &profile)
	s.reply(w, r, out, err)
}

func (s *Server) evaluateOpportunity(w http.ResponseWriter, r *http.Request) {
	var req incomestream.EvaluateRequest
	if !s.decode(w, r, &req) {
		return
	}
	out, err := s.services.Income.EvaluateOpportunity(r.Context(), &req)
	s.reply(w, r, out, err)
}

// ==========================
// Career
// ==========================

func (s *Server) predictCareer(w http.ResponseWriter, r *http.Request) {
	var profile careercompass.Profile
	if !s.decode(w, r, &profile) {
		return
	}
	out, err := s.services.Career.Predict(r.Context(), &profile)
	s.reply(w, r, out, err)
}

func (s *Server) batchPredictCareer(w http.ResponseWriter, r *http.Request) {
	var req careercompass.BatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	out, err := s.services.Career.BatchPredict(r.Context(), &req)
	s.reply(w, r, out, err)
}

func (s *Server) careerFeatureImportance(w http.ResponseWriter, r *http.Request) {
	imps, err := s.services.Career.FeatureImportance()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, map[string]interface{}{
		"model":              careercompass.ModelName,
		"featureImportances": imps,
	})
}
