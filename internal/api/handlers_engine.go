// internal/api/handlers_engine.go
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"opportunity-engine/internal/engine"
	generatefeed "opportunity-engine/internal/workers/feed/generate-feed"
	recordsignal "opportunity-engine/internal/workers/feed/record-signal"
	rankcandidates "opportunity-engine/internal/workers/ranking/rank-candidates"
)

// ==========================
// Ranker
// ==========================

func (s *Server) rank(w http.ResponseWriter, r *http.Request) {
	var input rankcandidates.Input
	if !s.decode(w, r, &input) {
		return
	}
	out, err := s.services.Ranker.Rank(r.Context(), &input)
	s.reply(w, r, out, err)
}

func (s *Server) scoreSingle(w http.ResponseWriter, r *http.Request) {
	var input rankcandidates.ScoreInput
	if !s.decode(w, r, &input) {
		return
	}
	out, err := s.services.Ranker.ScoreSingle(r.Context(), &input)
	s.reply(w, r, out, err)
}

// ==========================
// Feed
// ==========================

func (s *Server) generateFeed(w http.ResponseWriter, r *http.Request) {
	var input generatefeed.Input
	if !s.decode(w, r, &input) {
		return
	}
	out, err := s.services.Feed.Generate(r.Context(), &input)
	s.reply(w, r, out, err)
}

func (s *Server) refreshSignal(w http.ResponseWriter, r *http.Request) {
	var input recordsignal.RefreshInput
	if !s.decode(w, r, &input) {
		return
	}
	if input.FeedContext == "" {
		input.FeedContext = engine.FeedHome
	}
	out, err := s.services.Signals.RecordRefresh(r.Context(), &input)
	s.reply(w, r, out, err)
}

func (s *Server) engagementSignal(w http.ResponseWriter, r *http.Request) {
	var input recordsignal.EngagementInput
	if !s.decode(w, r, &input) {
		return
	}
	out, err := s.services.Signals.RecordEngagement(r.Context(), &input)
	s.reply(w, r, out, err)
}

func (s *Server) mixConfig(w http.ResponseWriter, r *http.Request) {
	feedContext := engine.FeedContext(chi.URLParam(r, "context"))
	ratios, err := s.services.Feed.MixConfig(feedContext)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, map[string]interface{}{
		"context":   feedContext,
		"mixRatios": ratios,
	})
}
