package spamcheck

import "strings"

// DefaultThreshold is the similarity cutoff used when callers do not
// supply their own.
const DefaultThreshold = 0.7

// EditDistance returns the minimum number of single-rune insertions,
// deletions, or substitutions needed to transform a into b.
func EditDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// Similarity returns a score in [0,1]: 1 for equal strings, 0 when only
// one side is empty, otherwise 1 - editDistance/maxLen.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la := len([]rune(a))
	lb := len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	return 1 - float64(EditDistance(a, b))/float64(maxLen)
}

// FuzzyContains reports whether pattern occurs in text allowing for minor
// misspellings. Both inputs are expected to be normalized already.
//
// Exact substring containment is the fast path. A single-word pattern
// matches if any word of text reaches the threshold. A multi-word pattern
// matches if its words can be matched against text's words in order,
// not necessarily contiguously.
func FuzzyContains(text, pattern string, threshold float64) bool {
	if pattern == "" || text == "" {
		return false
	}
	if strings.Contains(text, pattern) {
		return true
	}

	textWords := strings.Fields(text)
	patternWords := strings.Fields(pattern)
	if len(patternWords) == 0 {
		return false
	}

	if len(patternWords) == 1 {
		for _, w := range textWords {
			if Similarity(w, pattern) >= threshold {
				return true
			}
		}
		return false
	}

	next := 0
	for _, w := range textWords {
		if Similarity(w, patternWords[next]) >= threshold {
			next++
			if next == len(patternWords) {
				return true
			}
		}
	}
	return false
}

// FindBestFuzzyMatch returns the strongest similarity between pattern and
// text; ok is false when no match reaches the threshold.
//
// For single-word patterns this is the best per-word similarity over the
// threshold. For multi-word patterns each pattern word is matched against
// its best text word; the result is the average of those best scores, and
// every pattern word must individually reach the threshold.
func FindBestFuzzyMatch(text, pattern string, threshold float64) (score float64, ok bool) {
	if pattern == "" || text == "" {
		return 0, false
	}

	textWords := strings.Fields(text)
	patternWords := strings.Fields(pattern)
	if len(patternWords) == 0 || len(textWords) == 0 {
		return 0, false
	}

	if len(patternWords) == 1 {
		best := 0.0
		for _, w := range textWords {
			if s := Similarity(w, pattern); s >= threshold && s > best {
				best = s
				ok = true
			}
		}
		return best, ok
	}

	sum := 0.0
	for _, pw := range patternWords {
		best := 0.0
		for _, w := range textWords {
			if s := Similarity(w, pw); s > best {
				best = s
			}
		}
		if best < threshold {
			return 0, false
		}
		sum += best
	}
	return sum / float64(len(patternWords)), true
}
