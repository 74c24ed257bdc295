// Package usecase contains the answer-evaluation engine and the context
// compactor. Everything here is a pure function of its inputs apart from the
// external expected-answer generation, which is isolated behind a port.
package usecase

import (
	"regexp"
	"sort"
	"strings"

	"github.com/fairyhunter13/ai-oral-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-oral-evaluator/pkg/textx"
)

// Corpus bounds. Keyword lists are capped so a verbose competency cannot
// dominate coverage scoring; stems are bounded per quiz section.
const (
	refKeywordCap = 50
	stemCap       = 24
	stemTextCap   = 12
	stemTrimLimit = 220
)

var spreadsheetSuffix = regexp.MustCompile(`(?i)\.xlsx?$`)

// BuildReferences flattens a topic's competencies and quiz sections into a
// uniform reference corpus. Quiz sections iterate in sorted-name order so
// that matching tie-breaks stay deterministic across requests.
func BuildReferences(b domain.Bundle) []domain.Reference {
	refs := make([]domain.Reference, 0, len(b.Competencies)+len(b.Quiz))

	for _, c := range b.Competencies {
		parts := make([]string, 0, len(c.Responsibilities)+len(c.Subskills)+len(c.RedFlags))
		parts = append(parts, c.Responsibilities...)
		parts = append(parts, c.Subskills...)
		parts = append(parts, c.RedFlags...)
		blob := strings.Join(parts, "; ")
		refs = append(refs, domain.Reference{
			Kind:         domain.KindCompetency,
			CompetencyID: c.ID,
			Name:         c.Name,
			Text:         blob,
			Keywords:     textx.Keywords(blob, refKeywordCap),
			Stems:        []string{},
		})
	}

	for _, section := range sortedSections(b.Quiz) {
		name := strings.TrimSpace(spreadsheetSuffix.ReplaceAllString(section, ""))
		raw := b.Quiz[section]
		stems := make([]string, 0, min(len(raw), stemCap))
		for _, s := range raw {
			if len(stems) == stemCap {
				break
			}
			stems = append(stems, textx.Trim(s, stemTrimLimit))
		}
		joined := strings.Join(stems[:min(len(stems), stemTextCap)], " ")
		refs = append(refs, domain.Reference{
			Kind:     domain.KindQuiz,
			Name:     name,
			Text:     joined,
			Keywords: textx.Keywords(joined, refKeywordCap),
			Stems:    stems,
		})
	}

	return refs
}

func sortedSections(q domain.QuizBank) []string {
	names := make([]string, 0, len(q))
	for name := range q {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
