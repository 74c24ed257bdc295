package usecase

import (
	"github.com/fairyhunter13/ai-oral-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-oral-evaluator/pkg/similarity"
)

// stemCompareCap bounds how many literal stems are compared per reference,
// keeping matching O(refs * stemCompareCap) per question.
const stemCompareCap = 6

// PickReference returns the reference most similar to the question. A
// reference can win either by whole-text similarity or by similarity to one
// of its first stems, whichever is higher. Ties keep the earliest reference
// in corpus order. refs must be non-empty.
func PickReference(question string, refs []domain.Reference) domain.Reference {
	best := refs[0]
	bestScore := -1.0
	for _, r := range refs {
		score := similarity.Blend(question, r.Text)
		for _, stem := range capStems(r.Stems) {
			if v := similarity.Blend(question, stem); v > score {
				score = v
			}
		}
		if score > bestScore {
			bestScore = score
			best = r
		}
	}
	return best
}

func capStems(stems []string) []string {
	if len(stems) > stemCompareCap {
		return stems[:stemCompareCap]
	}
	return stems
}
