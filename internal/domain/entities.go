// Package domain holds the core entities and ports of the oral-interview
// evaluation engine. The engine is stateless: every entity below except the
// knowledge-base inputs is rebuilt per request and never persisted.
package domain

import (
	"context"
	"errors"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrUpstreamTimeout   = errors.New("upstream timeout")
	ErrUpstreamRateLimit = errors.New("upstream rate limit")
	ErrUpstreamStatus    = errors.New("upstream status")
	ErrInternal          = errors.New("internal error")
)

// Reference kinds.
const (
	KindCompetency = "competency"
	KindQuiz       = "quiz"
)

// Competency is a named skill area from a topic's course data.
// Immutable input; zero or more per topic.
type Competency struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Subskills        []string `json:"subskills"`
	Responsibilities []string `json:"responsibilities"`
	RedFlags         []string `json:"red_flags"`
}

// QuizBank maps a section name to its ordered question stems.
type QuizBank map[string][]string

// ProbeTemplate is a parametrized question pattern used to steer question
// generation.
type ProbeTemplate struct {
	ID      string `json:"id"`
	Pattern string `json:"pattern"`
}

// Bundle is a topic's raw knowledge base as returned by the loader.
// Unknown topics yield the zero Bundle.
type Bundle struct {
	Competencies   []Competency
	Quiz           QuizBank
	ProbeTemplates []ProbeTemplate
}

// Empty reports whether the bundle carries no usable material.
func (b Bundle) Empty() bool {
	return len(b.Competencies) == 0 && len(b.Quiz) == 0
}

// Reference is an ephemeral knowledge-base record that an asked question is
// matched against for scoring. Invariants: Kind is one of the kind
// constants; Keywords are normalized tokens of length >= 4, deduplicated in
// first-occurrence order, capped; Stems carry literal quiz question strings
// (competency references have none).
type Reference struct {
	Kind         string
	CompetencyID string
	Name         string
	Text         string
	Keywords     []string
	Stems        []string
}

// MatchedTo identifies the reference an item was scored against.
type MatchedTo struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// EvaluationItem is the scored outcome of one question/answer turn.
type EvaluationItem struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Expected  string    `json:"expected"`
	Hits      []string  `json:"hits"`
	Misses    []string  `json:"misses"`
	ItemScore float64   `json:"item_score"`
	MatchedTo MatchedTo `json:"matched_to"`
}

// CompetencyAggregate is the per-competency mean over all items routed to it
// in one evaluation.
type CompetencyAggregate struct {
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
	Questions int     `json:"questions"`
}

// Report is the full evaluation response, constructed fresh per analyze call.
type Report struct {
	OverallScore float64               `json:"overall_score"`
	Items        []EvaluationItem      `json:"items"`
	Progress     []CompetencyAggregate `json:"progress"`
	Strengths    []string              `json:"strengths"`
	Improvements []string              `json:"improvements"`
	NextSteps    []string              `json:"next_steps"`
	Analysis     string                `json:"analysis"`
}

// Context aliases the standard context type so adapters can reference the
// domain package alone in their port signatures.
type Context = context.Context

// Ports

// KnowledgeBase loads a topic's raw competencies and quiz bank by storage
// key. Unknown keys yield an empty bundle, never an error; only I/O and
// decoding failures surface.
type KnowledgeBase interface {
	Load(ctx context.Context, key string) (Bundle, error)
}

// AnswerGenerator produces a model "ideal answer" string for display next to
// a candidate's answer. Failures are degraded to an empty string by callers,
// never propagated into the report.
type AnswerGenerator interface {
	ExpectedAnswer(ctx context.Context, question, topic string) (string, error)
}

// SessionBroker negotiates a realtime speech session with the external
// provider and returns an ephemeral client token.
type SessionBroker interface {
	CreateSession(ctx context.Context, topic, instructions string) (string, error)
}
