package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"

	"github.com/fairyhunter13/ai-oral-evaluator/internal/config"
	"github.com/fairyhunter13/ai-oral-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-oral-evaluator/pkg/textx"
)

// ContextPayload is the bounded grounding blob handed to the downstream
// question generator. It samples the knowledge base rather than dumping it;
// the generator paraphrases, it never reads content verbatim.
type ContextPayload struct {
	Topic           string                 `json:"topic"`
	Coverage        CoveragePolicy         `json:"coverage"`
	ContentSnippets []ContentSnippet       `json:"content_snippets"`
	QuizClues       []QuizClue             `json:"quiz_clues"`
	ProbeTemplates  []domain.ProbeTemplate `json:"probe_templates"`
}

// CoveragePolicy steers question distribution across competencies.
type CoveragePolicy struct {
	Policy                 string `json:"policy"`
	PerCompetencyQuestions int    `json:"per_competency_questions"`
}

// ContentSnippet is a bounded sample of one competency.
type ContentSnippet struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Subskills        []string `json:"subskills"`
	Responsibilities []string `json:"responsibilities"`
	RedFlags         []string `json:"red_flags"`
}

// QuizClue carries a few trimmed stems from one quiz section.
type QuizClue struct {
	Section string   `json:"section"`
	Stems   []string `json:"stems"`
}

// Verbatim caps for the short enumerations kept per competency.
const (
	maxResponsibilities = 5
	maxRedFlags         = 4
)

const coveragePolicyName = "breadth_then_depth_without_repetition"

// defaultProbes are the built-in parametrized question patterns, used when a
// topic supplies none of its own.
func defaultProbes() []domain.ProbeTemplate {
	return []domain.ProbeTemplate{
		{ID: "define", Pattern: "Define {subskill} in this product context."},
		{ID: "why", Pattern: "Why is {subskill} important for {competency}?"},
		{ID: "steps", Pattern: "List key steps; be concise."},
		{ID: "checks", Pattern: "What checks verify it was done correctly?"},
		{ID: "instrument", Pattern: "Which instrument verifies it and what proves success?"},
	}
}

// ContextService builds compact grounding context for question generation.
type ContextService struct {
	KB     domain.KnowledgeBase
	Topics map[string]string
	Tuning config.EngineConfig
}

// NewContextService constructs a ContextService with its dependencies.
func NewContextService(kb domain.KnowledgeBase, topics map[string]string, tuning config.EngineConfig) ContextService {
	return ContextService{KB: kb, Topics: topics, Tuning: tuning}
}

// KnownTopic reports whether topic maps to a configured knowledge base.
func (s ContextService) KnownTopic(topic string) bool {
	_, ok := s.Topics[topic]
	return ok
}

// Compact samples a bounded amount of the topic's material into a payload.
// Sampling and section shuffling use a fixed-seed generator so repeated
// calls produce identical output for the same input, which keeps generated
// question runs debuggable. Unknown topics yield an empty payload.
func (s ContextService) Compact(ctx context.Context, topic string) (ContextPayload, error) {
	payload := ContextPayload{
		Topic: topic,
		Coverage: CoveragePolicy{
			Policy:                 coveragePolicyName,
			PerCompetencyQuestions: s.Tuning.PerCompetencyQuestions,
		},
		ContentSnippets: []ContentSnippet{},
		QuizClues:       []QuizClue{},
		ProbeTemplates:  defaultProbes(),
	}

	key, ok := s.Topics[topic]
	if !ok {
		return payload, nil
	}
	bundle, err := s.KB.Load(ctx, key)
	if err != nil {
		return ContextPayload{}, fmt.Errorf("op=usecase.Compact: %w", err)
	}

	// Seeded, per-call generator: reproducible and free of cross-request
	// interference from any process-global random state.
	rnd := rand.New(rand.NewSource(s.Tuning.SamplerSeed)) //nolint:gosec // Deterministic sampling is the point.

	for _, c := range bundle.Competencies {
		payload.ContentSnippets = append(payload.ContentSnippets, ContentSnippet{
			ID:               c.ID,
			Name:             c.Name,
			Subskills:        sample(rnd, c.Subskills, s.Tuning.PerCompetencySubskills),
			Responsibilities: head(c.Responsibilities, maxResponsibilities),
			RedFlags:         head(c.RedFlags, maxRedFlags),
		})
	}

	sections := make([]string, 0, len(bundle.Quiz))
	for name := range bundle.Quiz {
		sections = append(sections, name)
	}
	sort.Strings(sections)
	rnd.Shuffle(len(sections), func(i, j int) { sections[i], sections[j] = sections[j], sections[i] })
	for _, name := range head(sections, s.Tuning.MaxQuizSections) {
		stems := head(bundle.Quiz[name], s.Tuning.MaxQuizStemsPerSection)
		trimmed := make([]string, len(stems))
		for i, st := range stems {
			trimmed[i] = textx.Trim(st, stemTrimLimit)
		}
		payload.QuizClues = append(payload.QuizClues, QuizClue{Section: name, Stems: trimmed})
	}

	if len(bundle.ProbeTemplates) > 0 {
		payload.ProbeTemplates = bundle.ProbeTemplates
	}
	return payload, nil
}

// CompactJSON returns the payload serialized without extraneous whitespace,
// ready for embedding into a downstream prompt.
func (s ContextService) CompactJSON(ctx context.Context, topic string) (string, error) {
	payload, err := s.Compact(ctx, topic)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("op=usecase.CompactJSON: %w", err)
	}
	return string(b), nil
}

// sample keeps all of xs when it fits, otherwise draws n distinct elements
// in the generator's selection order.
func sample(rnd *rand.Rand, xs []string, n int) []string {
	if n <= 0 || len(xs) <= n {
		return append([]string{}, xs...)
	}
	out := make([]string, 0, n)
	for _, i := range rnd.Perm(len(xs))[:n] {
		out = append(out, xs[i])
	}
	return out
}

func head(xs []string, n int) []string {
	if n <= 0 || len(xs) <= n {
		return xs
	}
	return xs[:n]
}
