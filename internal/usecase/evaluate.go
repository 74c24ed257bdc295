package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fairyhunter13/ai-oral-evaluator/internal/config"
	"github.com/fairyhunter13/ai-oral-evaluator/internal/domain"
)

// Report analysis strings surfaced to API clients.
const (
	AnalysisCompleted    = "Analysis completed."
	AnalysisNoReferences = "No references found."
)

// EvaluateService scores interview transcripts against a topic's knowledge
// base. Stateless; the reference corpus is rebuilt per request.
type EvaluateService struct {
	KB     domain.KnowledgeBase
	Gen    domain.AnswerGenerator
	Topics map[string]string
	Tuning config.EngineConfig
}

// NewEvaluateService constructs an EvaluateService with its dependencies.
func NewEvaluateService(kb domain.KnowledgeBase, gen domain.AnswerGenerator, topics map[string]string, tuning config.EngineConfig) EvaluateService {
	return EvaluateService{KB: kb, Gen: gen, Topics: topics, Tuning: tuning}
}

// Analyze evaluates positional question/answer pairs from one interview and
// aggregates them into a report. Unknown topics and empty knowledge bases
// degrade to an empty report; they are not errors. Unequal-length
// transcripts are truncated to the shorter side, dropping trailing turns.
func (s EvaluateService) Analyze(ctx context.Context, topic string, questions, answers []string) (domain.Report, error) {
	report := emptyReport()

	bundle, err := s.loadBundle(ctx, topic)
	if err != nil {
		return domain.Report{}, fmt.Errorf("op=usecase.Analyze: %w", err)
	}
	refs := BuildReferences(bundle)
	if len(refs) == 0 {
		report.Analysis = AnalysisNoReferences
		return report, nil
	}

	n := min(len(questions), len(answers))
	if len(questions) != len(answers) {
		slog.Warn("unequal transcript lengths, truncating",
			slog.Int("questions", len(questions)),
			slog.Int("answers", len(answers)),
			slog.Int("evaluated", n))
	}
	expected := s.expectedAnswers(ctx, topic, questions[:n])

	type aggregate struct {
		name string
		sum  float64
		n    int
	}
	aggs := map[string]*aggregate{}
	var order []string

	for i := 0; i < n; i++ {
		ref := PickReference(questions[i], refs)
		scored := s.ScoreAnswer(answers[i], ref)

		key := ref.CompetencyID
		if key == "" {
			key = "quiz::" + ref.Name
		}
		a, ok := aggs[key]
		if !ok {
			a = &aggregate{name: ref.Name}
			aggs[key] = a
			order = append(order, key)
		}
		a.sum += scored.Score
		a.n++

		report.Items = append(report.Items, domain.EvaluationItem{
			Question:  questions[i],
			Answer:    answers[i],
			Expected:  expected[i],
			Hits:      scored.Hits,
			Misses:    scored.Misses,
			ItemScore: scored.Score,
			MatchedTo: domain.MatchedTo{Kind: ref.Kind, Name: ref.Name},
		})
	}

	var sum float64
	for _, key := range order {
		a := aggs[key]
		avg := round1(a.sum / float64(a.n))
		report.Progress = append(report.Progress, domain.CompetencyAggregate{
			Name:      a.name,
			Score:     avg,
			Questions: a.n,
		})
		sum += avg
		switch s.bandFor(avg) {
		case bandStrength:
			report.Strengths = append(report.Strengths, a.name)
		case bandImprovement:
			report.Improvements = append(report.Improvements, a.name)
		default:
			report.NextSteps = append(report.NextSteps, a.name)
		}
	}
	if len(report.Progress) > 0 {
		report.OverallScore = round1(sum / float64(len(report.Progress)))
	}
	report.Analysis = AnalysisCompleted
	return report, nil
}

// expectedAnswers fans out one generation call per question. Calls are
// independent and unordered; any failure degrades that item's expected
// answer to an empty string instead of aborting the batch.
func (s EvaluateService) expectedAnswers(ctx context.Context, topic string, questions []string) []string {
	out := make([]string, len(questions))
	if s.Gen == nil {
		return out
	}
	var wg sync.WaitGroup
	for i := range questions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ans, err := s.Gen.ExpectedAnswer(ctx, questions[i], topic)
			if err != nil {
				slog.Warn("expected answer generation failed",
					slog.Int("item", i), slog.Any("error", err))
				return
			}
			out[i] = ans
		}(i)
	}
	wg.Wait()
	return out
}

func (s EvaluateService) loadBundle(ctx context.Context, topic string) (domain.Bundle, error) {
	key, ok := s.Topics[topic]
	if !ok {
		return domain.Bundle{}, nil
	}
	return s.KB.Load(ctx, key)
}

type band int

const (
	bandStrength band = iota
	bandImprovement
	bandNextStep
)

// bandFor classifies an aggregate score. Each competency lands in exactly
// one bucket; both thresholds are inclusive.
func (s EvaluateService) bandFor(score float64) band {
	switch {
	case score >= s.Tuning.StrengthThreshold:
		return bandStrength
	case score <= s.Tuning.ImprovementThreshold:
		return bandImprovement
	default:
		return bandNextStep
	}
}

func emptyReport() domain.Report {
	return domain.Report{
		Items:        []domain.EvaluationItem{},
		Progress:     []domain.CompetencyAggregate{},
		Strengths:    []string{},
		Improvements: []string{},
		NextSteps:    []string{},
	}
}
