// Package openai implements the external AI collaborators: expected-answer
// generation via chat completions and realtime voice session negotiation.
package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/fairyhunter13/ai-oral-evaluator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-oral-evaluator/internal/config"
	"github.com/fairyhunter13/ai-oral-evaluator/internal/domain"
)

// Client talks to an OpenAI-compatible API. It implements both the
// AnswerGenerator and SessionBroker ports.
type Client struct {
	cfg config.Config
	hc  *http.Client
}

// New constructs a Client with sensible timeouts.
func New(cfg config.Config) *Client {
	return &Client{cfg: cfg, hc: &http.Client{Timeout: 30 * time.Second}}
}

func (c *Client) backoffConfig() *backoff.ExponentialBackOff {
	expo := backoff.NewExponentialBackOff()
	expo.MaxElapsedTime, expo.InitialInterval, expo.MaxInterval, expo.Multiplier = c.cfg.GetAIBackoffConfig()
	return expo
}

const expectedAnswerSystemPrompt = "You are an expert technical interviewer."

func expectedAnswerPrompt(question, topic string) string {
	return fmt.Sprintf(`You are an expert interviewer for '%s'.

Please provide the ideal expected answer for this interview question:

Question: %q

Guidelines:
- 3 to 5 sentences only
- Clear, correct, and professional
- No repetition of the question text
- No mention of "ideal" or "expected"
- Directly give the correct explanation`, topic, question)
}

// ExpectedAnswer asks the analysis model for the ideal answer to question.
// Retries transient upstream failures with exponential backoff; 4xx
// responses other than 429 are permanent.
func (c *Client) ExpectedAnswer(ctx domain.Context, question, topic string) (string, error) {
	if c.cfg.OpenAIAPIKey == "" {
		return "", fmt.Errorf("%w: OPENAI_API_KEY missing", domain.ErrInvalidArgument)
	}
	body, _ := json.Marshal(map[string]any{
		"model":       c.cfg.AnalysisModel,
		"temperature": 0.2,
		"messages": []map[string]string{
			{"role": "system", "content": expectedAnswerSystemPrompt},
			{"role": "user", "content": expectedAnswerPrompt(question, topic)},
		},
	})

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	op := func() error {
		return c.postJSON(ctx, "/chat/completions", "expected_answer", nil, body, &out)
	}
	if err := backoff.Retry(op, backoff.WithContext(c.backoffConfig(), ctx)); err != nil {
		return "", fmt.Errorf("op=openai.ExpectedAnswer: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("op=openai.ExpectedAnswer: %w: empty choices", domain.ErrUpstreamStatus)
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// CreateSession negotiates a realtime voice session and returns the
// ephemeral client token. The session uses server-side voice activity
// detection and text transcription so the browser client only needs the
// token.
func (c *Client) CreateSession(ctx domain.Context, topic, instructions string) (string, error) {
	if c.cfg.OpenAIAPIKey == "" {
		return "", fmt.Errorf("%w: OPENAI_API_KEY missing", domain.ErrInvalidArgument)
	}
	body, _ := json.Marshal(map[string]any{
		"model":          c.cfg.RealtimeModel,
		"voice":          c.cfg.Voice,
		"modalities":     []string{"audio", "text"},
		"turn_detection": map[string]any{"type": "server_vad", "silence_duration_ms": 800},
		"instructions":   instructions,
		"input_audio_format": "pcm16",
		"input_audio_transcription": map[string]string{
			"model":    c.cfg.TranscriptionModel,
			"language": "en",
		},
	})

	var out map[string]any
	op := func() error {
		return c.postJSON(ctx, "/realtime/sessions", "create_session",
			map[string]string{"OpenAI-Beta": "realtime=v1"}, body, &out)
	}
	if err := backoff.Retry(op, backoff.WithContext(c.backoffConfig(), ctx)); err != nil {
		return "", fmt.Errorf("op=openai.CreateSession: %w", err)
	}
	token := extractToken(out)
	if token == "" {
		slog.Error("ephemeral token missing in realtime session response", slog.String("topic", topic))
		return "", fmt.Errorf("op=openai.CreateSession: %w: ephemeral token missing", domain.ErrUpstreamStatus)
	}
	return token, nil
}

// extractToken handles the response shapes the realtime API has used:
// {"client_secret":{"value":...}}, {"client_secret":"..."}, or {"value":"..."}.
func extractToken(resp map[string]any) string {
	switch cs := resp["client_secret"].(type) {
	case map[string]any:
		if v, ok := cs["value"].(string); ok {
			return v
		}
	case string:
		return cs
	}
	if v, ok := resp["value"].(string); ok {
		return v
	}
	return ""
}

func (c *Client) postJSON(ctx domain.Context, path, operation string, headers map[string]string, body []byte, out any) error {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OpenAIBaseURL+path, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIAPIKey)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.hc.Do(req)
	observability.AIRequestsTotal.WithLabelValues("openai", operation).Inc()
	observability.AIRequestDuration.WithLabelValues("openai", operation).Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		slog.Warn("ai provider rate limited", slog.String("op", operation), slog.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: status 429", domain.ErrUpstreamRateLimit)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		slog.Warn("ai provider 4xx", slog.String("op", operation), slog.Int("status", resp.StatusCode), slog.String("body", snippet(raw)))
		return backoff.Permanent(fmt.Errorf("%w: status %d", domain.ErrUpstreamStatus, resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		slog.Error("ai provider non-2xx", slog.String("op", operation), slog.Int("status", resp.StatusCode), slog.String("body", snippet(raw)))
		return fmt.Errorf("%w: status %d", domain.ErrUpstreamStatus, resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		slog.Error("ai provider decode error", slog.String("op", operation), slog.Any("error", err))
		return err
	}
	return nil
}

func snippet(b []byte) string {
	if len(b) > 512 {
		b = b[:512]
	}
	return string(b)
}

// Check probes the provider's model listing; used for readiness.
func (c *Client) Check(ctx domain.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.OpenAIBaseURL+"/models", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIAPIKey)
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d", domain.ErrUpstreamStatus, resp.StatusCode)
	}
	return nil
}
