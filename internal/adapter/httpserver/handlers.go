package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fairyhunter13/ai-oral-evaluator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-oral-evaluator/internal/config"
	"github.com/fairyhunter13/ai-oral-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-oral-evaluator/internal/usecase"
	"github.com/fairyhunter13/ai-oral-evaluator/pkg/textx"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg         config.Config
	Evaluate    usecase.EvaluateService
	Context     usecase.ContextService
	Sessions    domain.SessionBroker
	KBCheck     func(ctx context.Context) error
	RedisCheck  func(ctx context.Context) error
	OpenAICheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, eval usecase.EvaluateService, ctxSvc usecase.ContextService, sessions domain.SessionBroker, kbCheck, redisCheck, openaiCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Evaluate: eval, Context: ctxSvc, Sessions: sessions, KBCheck: kbCheck, RedisCheck: redisCheck, OpenAICheck: openaiCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
		return false
	}
	if err := getValidator().Struct(req); err != nil {
		verrs := map[string]string{}
		if ve, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range ve {
				verrs[strings.ToLower(fe.Field())] = fe.Tag()
			}
		}
		writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), verrs)
		return false
	}
	return true
}

// SessionHandler negotiates a realtime voice session for a topic and returns
// the ephemeral client token.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Topic string `json:"topic" validate:"required"`
		}
		if !decodeAndValidate(w, r, &req) {
			return
		}
		topic := strings.TrimSpace(req.Topic)
		if !s.Context.KnownTopic(topic) {
			writeError(w, r, fmt.Errorf("%w: invalid topic", domain.ErrInvalidArgument), map[string]string{"topic": topic})
			return
		}
		ctx := r.Context()
		instructions, err := s.Context.Instructions(ctx, topic)
		if err != nil {
			writeError(w, r, fmt.Errorf("session context: %w", err), nil)
			return
		}
		token, err := s.Sessions.CreateSession(ctx, topic, instructions)
		if err != nil {
			writeError(w, r, fmt.Errorf("create session: %w", err), nil)
			return
		}
		LoggerFrom(r).Info("realtime session created",
			slog.String("topic", topic),
			slog.String("session_id", uuid.NewString()))
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

// AnalyzeHandler scores an interview transcript against the topic's
// knowledge base and returns the full report.
func (s *Server) AnalyzeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Topic            string   `json:"topic" validate:"required"`
			InterviewerTurns []string `json:"interviewerTurns"`
			CandidateTurns   []string `json:"candidateTurns"`
		}
		if !decodeAndValidate(w, r, &req) {
			return
		}
		topic := strings.TrimSpace(req.Topic)
		report, err := s.Evaluate.Analyze(r.Context(), topic,
			sanitizeTurns(req.InterviewerTurns), sanitizeTurns(req.CandidateTurns))
		if err != nil {
			writeError(w, r, fmt.Errorf("analyze: %w", err), nil)
			return
		}
		observability.OverallScoreHistogram.Observe(report.OverallScore)
		for _, item := range report.Items {
			observability.ItemScoreHistogram.Observe(item.ItemScore)
		}
		LoggerFrom(r).Info("transcript analyzed",
			slog.String("topic", topic),
			slog.Int("items", len(report.Items)),
			slog.Float64("overall_score", report.OverallScore))
		writeJSON(w, http.StatusOK, report)
	}
}

// ContextHandler serves the compact context payload for a topic. Unknown
// topics yield an empty payload, mirroring the compactor's failure mode.
func (s *Server) ContextHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topic := chi.URLParam(r, "topic")
		payload, err := s.Context.Compact(r.Context(), topic)
		if err != nil {
			writeError(w, r, fmt.Errorf("compact context: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusOK, payload)
	}
}

// ReadyzHandler aggregates dependency checks into a readiness response.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		checks := []struct {
			name string
			fn   func(ctx context.Context) error
		}{
			{"kb", s.KBCheck},
			{"redis", s.RedisCheck},
			{"openai", s.OpenAICheck},
		}
		out := make([]check, 0, len(checks))
		allOK := true
		for _, c := range checks {
			if c.fn == nil {
				continue
			}
			res := check{Name: c.name, OK: true}
			if err := c.fn(r.Context()); err != nil {
				res.OK = false
				res.Details = err.Error()
				allOK = false
			}
			out = append(out, res)
		}
		status := http.StatusOK
		if !allOK {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]any{"ready": allOK, "checks": out})
	}
}

func sanitizeTurns(turns []string) []string {
	out := make([]string, len(turns))
	for i, t := range turns {
		out[i] = textx.SanitizeText(t)
	}
	return out
}
