package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-oral-evaluator/internal/adapter/ai/openai"
	"github.com/fairyhunter13/ai-oral-evaluator/internal/config"
	"github.com/fairyhunter13/ai-oral-evaluator/internal/domain"
)

func testConfig(baseURL string) config.Config {
	return config.Config{
		AppEnv:             "test",
		OpenAIAPIKey:       "sk-test",
		OpenAIBaseURL:      baseURL,
		RealtimeModel:      "gpt-4o-realtime-preview",
		AnalysisModel:      "gpt-4o-mini",
		Voice:              "alloy",
		TranscriptionModel: "whisper-1",
	}
}

func TestExpectedAnswer_Success(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req["model"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "  A via connects copper layers.  "}},
			},
		})
	}))
	defer srv.Close()

	got, err := openai.New(testConfig(srv.URL)).ExpectedAnswer(context.Background(), "what is a via?", "PCB Designer")
	require.NoError(t, err)
	assert.Equal(t, "A via connects copper layers.", got)
}

func TestExpectedAnswer_MissingKey(t *testing.T) {
	t.Parallel()
	_, err := openai.New(config.Config{AppEnv: "test"}).ExpectedAnswer(context.Background(), "q", "t")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestExpectedAnswer_EmptyChoices(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	_, err := openai.New(testConfig(srv.URL)).ExpectedAnswer(context.Background(), "q", "t")
	assert.ErrorIs(t, err, domain.ErrUpstreamStatus)
}

func TestExpectedAnswer_4xxIsPermanent(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := openai.New(testConfig(srv.URL)).ExpectedAnswer(context.Background(), "q", "t")
	assert.ErrorIs(t, err, domain.ErrUpstreamStatus)
	assert.Equal(t, int32(1), calls.Load(), "non-429 4xx must not be retried")
}

func TestExpectedAnswer_RetriesOn5xx(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": "ok"}}},
		})
	}))
	defer srv.Close()

	got, err := openai.New(testConfig(srv.URL)).ExpectedAnswer(context.Background(), "q", "t")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestCreateSession_TokenShapes(t *testing.T) {
	t.Parallel()
	shapes := []struct {
		name string
		body map[string]any
	}{
		{"nested client_secret", map[string]any{"client_secret": map[string]any{"value": "ek_abc"}}},
		{"flat client_secret", map[string]any{"client_secret": "ek_abc"}},
		{"bare value", map[string]any{"value": "ek_abc"}},
	}
	for _, tc := range shapes {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/realtime/sessions", r.URL.Path)
				assert.Equal(t, "realtime=v1", r.Header.Get("OpenAI-Beta"))

				var req map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "gpt-4o-realtime-preview", req["model"])
				assert.Equal(t, "do not read verbatim", req["instructions"])

				_ = json.NewEncoder(w).Encode(tc.body)
			}))
			defer srv.Close()

			token, err := openai.New(testConfig(srv.URL)).CreateSession(context.Background(), "PCB Designer", "do not read verbatim")
			require.NoError(t, err)
			assert.Equal(t, "ek_abc", token)
		})
	}
}

func TestCreateSession_MissingToken(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "sess_123"})
	}))
	defer srv.Close()

	_, err := openai.New(testConfig(srv.URL)).CreateSession(context.Background(), "t", "i")
	assert.ErrorIs(t, err, domain.ErrUpstreamStatus)
}

func TestCheck(t *testing.T) {
	t.Parallel()
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	assert.NoError(t, openai.New(testConfig(ok.URL)).Check(context.Background()))

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()
	assert.ErrorIs(t, openai.New(testConfig(down.URL)).Check(context.Background()), domain.ErrUpstreamStatus)
}
