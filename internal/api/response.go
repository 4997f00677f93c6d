// internal/api/response.go
package api

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"math"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"opportunity-engine/internal/common/errors"
)

// Response is the envelope every endpoint writes.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Meta    Meta        `json:"meta"`
}

type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type Meta struct {
	RequestID  string    `json:"requestId,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs float64   `json:"durationMs"`
}

type startKey struct{}

func withStart(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, startKey{}, t)
}

func metaFor(r *http.Request) Meta {
	now := time.Now().UTC()
	m := Meta{RequestID: chimiddleware.GetReqID(r.Context()), Timestamp: now}
	if start, ok := r.Context().Value(startKey{}).(time.Time); ok {
		m.DurationMs = math.Round(float64(now.Sub(start).Microseconds())/10) / 100
	}
	return m
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to encode response", map[string]interface{}{
			"path":  r.URL.Path,
			"error": err.Error(),
		})
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if resp.Meta.RequestID != "" {
		w.Header().Set(chimiddleware.RequestIDHeader, resp.Meta.RequestID)
	}
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("failed to write response", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	s.writeJSON(w, r, status, &Response{Success: true, Data: data, Meta: metaFor(r)})
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := errors.Normalize(err)
	status := errors.HTTPStatus(stdErr.Code)
	meta := metaFor(r)

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", map[string]interface{}{
			"path":      r.URL.Path,
			"code":      stdErr.Code,
			"error":     stdErr.Error(),
			"requestId": meta.RequestID,
		})
	}

	s.writeJSON(w, r, status, &Response{
		Error: &ErrorBody{
			Code:      string(stdErr.Code),
			Message:   stdErr.Message,
			Details:   stdErr.Details,
			RequestID: meta.RequestID,
		},
		Meta: meta,
	})
}

// reply writes out on success and the mapped error otherwise.
func (s *Server) reply(w http.ResponseWriter, r *http.Request, out interface{}, err error) {
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, out)
}

// decode reads the JSON body into dst. It writes the error response itself
// and reports whether the handler should continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.respondError(w, r, errors.NewInvalidInputError("request body too large"))
			return false
		}
		s.respondError(w, r, errors.NewParseError(err))
		return false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		s.respondError(w, r, errors.NewInvalidInputError("request body is required"))
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		s.respondError(w, r, errors.NewParseError(err))
		return false
	}
	return true
}
