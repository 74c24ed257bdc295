// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev"`
	Port   int    `env:"PORT" envDefault:"8006"`

	OpenAIAPIKey       string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL      string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	RealtimeModel      string `env:"REALTIME_MODEL" envDefault:"gpt-4o-realtime-preview"`
	AnalysisModel      string `env:"ANALYSIS_MODEL" envDefault:"gpt-4o-mini"`
	Voice              string `env:"VOICE" envDefault:"alloy"`
	TranscriptionModel string `env:"TRANSCRIPTION_MODEL" envDefault:"whisper-1"`

	// DataDir holds per-topic knowledge bases: <key>.course.json and
	// <key>.quiz.json. StaticDir is served at / for the browser client.
	DataDir   string `env:"DATA_DIR" envDefault:"data"`
	StaticDir string `env:"STATIC_DIR" envDefault:"static"`
	// TopicMapFile optionally overrides the built-in topic-to-key mapping
	// with a YAML document of "Display Name: storage_key" pairs.
	TopicMapFile string `env:"TOPIC_MAP_FILE"`

	// RedisAddr enables the expected-answer cache when set.
	RedisAddr         string        `env:"REDIS_ADDR"`
	ExpectedAnswerTTL time.Duration `env:"EXPECTED_ANSWER_TTL" envDefault:"1h"`

	CORSAllowOrigins      string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	RateLimitPerMin       int           `env:"RATE_LIMIT_PER_MIN" envDefault:"30"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	HTTPIdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`

	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"ai-oral-evaluator"`

	// AI Backoff Configuration
	AIBackoffMaxElapsedTime  time.Duration `env:"AI_BACKOFF_MAX_ELAPSED_TIME" envDefault:"60s"`
	AIBackoffInitialInterval time.Duration `env:"AI_BACKOFF_INITIAL_INTERVAL" envDefault:"1s"`
	AIBackoffMaxInterval     time.Duration `env:"AI_BACKOFF_MAX_INTERVAL" envDefault:"10s"`
	AIBackoffMultiplier      float64       `env:"AI_BACKOFF_MULTIPLIER" envDefault:"1.5"`

	Engine EngineConfig

	// TopicMap is resolved at load time from TopicMapFile or the built-in
	// defaults; it maps display topic names to knowledge-base storage keys.
	TopicMap map[string]string `env:"-"`
}

// EngineConfig carries the evaluation engine's tuning knobs. The defaults
// preserve the calibrated scoring behavior; change them only with fresh
// calibration data.
type EngineConfig struct {
	SamplerSeed             int64   `env:"ENGINE_SAMPLER_SEED" envDefault:"42"`
	PerCompetencySubskills  int     `env:"ENGINE_PER_COMPETENCY_SUBSKILLS" envDefault:"3"`
	MaxQuizSections         int     `env:"ENGINE_MAX_QUIZ_SECTIONS" envDefault:"8"`
	MaxQuizStemsPerSection  int     `env:"ENGINE_MAX_QUIZ_STEMS_PER_SECTION" envDefault:"6"`
	FloorBonus              float64 `env:"ENGINE_FLOOR_BONUS" envDefault:"1.5"`
	StrengthThreshold       float64 `env:"ENGINE_STRENGTH_THRESHOLD" envDefault:"7.5"`
	ImprovementThreshold    float64 `env:"ENGINE_IMPROVEMENT_THRESHOLD" envDefault:"4"`
	PerCompetencyQuestions  int     `env:"ENGINE_PER_COMPETENCY_QUESTIONS" envDefault:"2"`
}

// DefaultTopicMap returns the built-in topic-to-storage-key mapping.
func DefaultTopicMap() map[string]string {
	return map[string]string{
		"Product Designer":                         "product_designer",
		"PCB Designer":                             "pcb",
		"Firmware / Software Developer (Embedded)": "firmware_developer",
		"Integration Engineer":                     "integration_engineer",
		"Domain Expert & V&V Engineer":             "domain_expert_vnv",
		"Mechanical Designer":                      "mechanical_designer",
		"Procurement Specialist":                   "procurement_specialist",
	}
}

// Load parses environment variables into a Config and resolves the topic map.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	tm, err := loadTopicMap(cfg.TopicMapFile)
	if err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	cfg.TopicMap = tm
	return cfg, nil
}

func loadTopicMap(path string) (map[string]string, error) {
	if path == "" {
		return DefaultTopicMap(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("topic map read: %w", err)
	}
	m := map[string]string{}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("topic map parse: %w", err)
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("topic map %s is empty", path)
	}
	return m, nil
}

// TopicKey resolves a display topic name to its storage key.
func (c Config) TopicKey(topic string) (string, bool) {
	k, ok := c.TopicMap[strings.TrimSpace(topic)]
	return k, ok
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// GetAIBackoffConfig returns backoff configuration appropriate for the
// current environment. Test environments use much shorter intervals.
func (c Config) GetAIBackoffConfig() (maxElapsedTime, initialInterval, maxInterval time.Duration, multiplier float64) {
	if c.IsTest() {
		return 2 * time.Second, 50 * time.Millisecond, 500 * time.Millisecond, 2.0
	}
	return c.AIBackoffMaxElapsedTime, c.AIBackoffInitialInterval, c.AIBackoffMaxInterval, c.AIBackoffMultiplier
}
