package usecase

import (
	"math"
	"strings"

	"github.com/fairyhunter13/ai-oral-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-oral-evaluator/pkg/similarity"
	"github.com/fairyhunter13/ai-oral-evaluator/pkg/textx"
)

// Scoring weights and bounds. Coverage rewards recall of the reference's
// vocabulary; fuzz rewards holistic phrasing closeness against the reference
// text or one of its literal stems.
const (
	answerKeywordCap = 40
	coverageWeight   = 0.55
	fuzzWeight       = 0.45
	floorBelow       = 3.0
	maxScore         = 10.0
)

// AnswerScore is the outcome of scoring one answer against its reference.
type AnswerScore struct {
	Score  float64
	Hits   []string
	Misses []string
}

// ScoreAnswer scores a candidate answer against its matched reference on a
// 0-10 scale. A blank answer scores zero with no partial credit. When at
// least one keyword hit exists but the raw score lands under floorBelow, the
// configured floor bonus is added so terse keyword-dense answers are not
// scored near zero purely on weak fuzzy overlap.
func (s EvaluateService) ScoreAnswer(answer string, ref domain.Reference) AnswerScore {
	hits := make([]string, 0, answerKeywordCap)
	misses := make([]string, 0, answerKeywordCap)
	if strings.TrimSpace(answer) == "" {
		return AnswerScore{Score: 0, Hits: hits, Misses: misses}
	}

	tokens := textx.Tokens(answer)
	keys := ref.Keywords
	if len(keys) > answerKeywordCap {
		keys = keys[:answerKeywordCap]
	}
	for _, k := range keys {
		if _, ok := tokens[k]; ok {
			hits = append(hits, k)
		} else {
			misses = append(misses, k)
		}
	}
	coverage := float64(len(hits)) / math.Max(1, float64(len(keys)))

	normAnswer := textx.Normalize(answer)
	fuzz := similarity.Ratio(normAnswer, textx.Normalize(ref.Text))
	for _, stem := range capStems(ref.Stems) {
		if v := similarity.Ratio(normAnswer, textx.Normalize(stem)); v > fuzz {
			fuzz = v
		}
	}

	raw := maxScore * (coverageWeight*coverage + fuzzWeight*fuzz)
	if len(hits) > 0 && raw < floorBelow {
		raw += s.Tuning.FloorBonus
	}
	return AnswerScore{Score: round1(math.Min(maxScore, raw)), Hits: hits, Misses: misses}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
