// Package similarity implements the lexical and fuzzy similarity primitives
// used to match spoken questions and answers against knowledge-base records.
//
// Two signals are combined: Jaccard overlap of normalized token sets, which
// rewards exact shared vocabulary, and a character-level sequence-matcher
// ratio, which tolerates paraphrase and word-order differences.
package similarity

import (
	"github.com/fairyhunter13/ai-oral-evaluator/pkg/textx"
)

// Blend weights. Vocabulary overlap dominates; the fuzzy ratio breaks ties
// between references sharing the same terms.
const (
	jaccardWeight = 0.6
	ratioWeight   = 0.4
)

// Jaccard returns |A∩B| / |A∪B| over the normalized token sets of a and b.
// Two token-less strings yield 0.
func Jaccard(a, b string) float64 {
	ta, tb := textx.Tokens(a), textx.Tokens(b)
	inter := 0
	union := len(tb)
	for t := range ta {
		if _, ok := tb[t]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Ratio returns the classic sequence-matcher similarity of a and b:
// 2*M/T, where M is the total length of matching blocks found by repeatedly
// extracting the longest common contiguous substring from the unmatched
// remainders, and T is the combined length of both strings. Both inputs
// empty yields 1.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	t := len(ra) + len(rb)
	if t == 0 {
		return 1
	}
	return 2 * float64(matchedLen(ra, rb)) / float64(t)
}

// Blend scores a against b in [0,1] by mixing Jaccard token overlap with the
// sequence ratio of the normalized strings.
func Blend(a, b string) float64 {
	return jaccardWeight*Jaccard(a, b) + ratioWeight*Ratio(textx.Normalize(a), textx.Normalize(b))
}

type block struct {
	a, b, size int
}

type span struct {
	alo, ahi, blo, bhi int
}

// matchedLen sums the sizes of all matching blocks between a and b.
func matchedLen(a, b []rune) int {
	// positions of each rune in b, in ascending order
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	total := 0
	stack := []span{{0, len(a), 0, len(b)}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		m := longestMatch(a, s, b2j)
		if m.size == 0 {
			continue
		}
		total += m.size
		stack = append(stack,
			span{s.alo, m.a, s.blo, m.b},
			span{m.a + m.size, s.ahi, m.b + m.size, s.bhi},
		)
	}
	return total
}

// longestMatch finds the longest block a[i:i+k] == b[j:j+k] within the span,
// preferring the earliest block on ties.
func longestMatch(a []rune, s span, b2j map[rune][]int) block {
	best := block{s.alo, s.blo, 0}
	// j2len[j] = length of the longest match ending at a[i-1], b[j]
	j2len := map[int]int{}
	for i := s.alo; i < s.ahi; i++ {
		next := map[int]int{}
		for _, j := range b2j[a[i]] {
			if j < s.blo {
				continue
			}
			if j >= s.bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > best.size {
				best = block{i - k + 1, j - k + 1, k}
			}
		}
		j2len = next
	}
	return best
}
