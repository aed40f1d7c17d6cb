package matching

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

func normalizeName(name string) []rune {
	return []rune(strings.Join(strings.Fields(strings.ToLower(name)), " "))
}

// ratio is the indel similarity 2*matches/(len(a)+len(b)), scaled to 0-100.
func ratio(a, b []rune) float64 {
	return levenshtein.RatioForStrings(a, b, levenshtein.DefaultOptions) * 100
}

// PartialRatio scores how well the shorter string aligns with any part of the longer one, 0-100.
// Comparison is case-insensitive with runs of whitespace collapsed; an empty side scores 0.
func PartialRatio(query, candidate string) float64 {
	short, long := normalizeName(query), normalizeName(candidate)
	if len(short) == 0 || len(long) == 0 {
		return 0
	}
	if len(short) > len(long) {
		short, long = long, short
	}

	m, n := len(short), len(long)
	best := 0.0
	consider := func(window []rune) bool {
		if r := ratio(short, window); r > best {
			best = r
		}
		return best >= 100
	}

	// Windows hanging off the left edge, full-width windows, then windows hanging off the right edge.
	for i := 1; i < m; i++ {
		if consider(long[:i]) {
			return 100
		}
	}
	for i := 0; i+m <= n; i++ {
		if consider(long[i : i+m]) {
			return 100
		}
	}
	for i := n - m + 1; i < n; i++ {
		if consider(long[i:]) {
			return 100
		}
	}
	return best
}
