// Package diff implements line-level diffing, patch application and
// construct-level (semantic) comparison of source text.
package diff

import (
	"errors"
	"strings"
)

// MaxCells bounds the size of the LCS table (len(a) * len(b)).
const MaxCells = 25_000_000

var (
	// ErrTooLarge is returned when the inputs would need an LCS table
	// larger than MaxCells.
	ErrTooLarge = errors.New("inputs too large to diff")
)

// Match is a pair of indices (A into the original, B into the modified
// sequence) whose lines are equal and part of the longest common subsequence.
type Match struct {
	A int
	B int
}

// LCS returns the longest common subsequence of a and b as matched index
// pairs. Pairs are strictly increasing in both coordinates. When two
// alignments are equally long the walk advances the original side first,
// so deletions are ordered before insertions.
func LCS(a, b []string) ([]Match, error) {
	// common prefix is always part of some LCS and the walk would take it anyway
	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}

	matches := make([]Match, 0, prefix)
	for i := 0; i < prefix; i++ {
		matches = append(matches, Match{A: i, B: i})
	}

	ra, rb := a[prefix:], b[prefix:]
	n, m := len(ra), len(rb)
	if n == 0 || m == 0 {
		return matches, nil
	}
	if n*m > MaxCells {
		return nil, ErrTooLarge
	}

	// dp[i*(m+1)+j] is the LCS length of ra[i:] and rb[j:]
	width := m + 1
	dp := make([]int32, (n+1)*width)
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			switch {
			case ra[i] == rb[j]:
				dp[i*width+j] = dp[(i+1)*width+j+1] + 1
			case dp[(i+1)*width+j] >= dp[i*width+j+1]:
				dp[i*width+j] = dp[(i+1)*width+j]
			default:
				dp[i*width+j] = dp[i*width+j+1]
			}
		}
	}

	i, j := 0, 0
	for i < n && j < m {
		switch {
		case ra[i] == rb[j]:
			matches = append(matches, Match{A: prefix + i, B: prefix + j})
			i++
			j++
		case dp[(i+1)*width+j] >= dp[i*width+j+1]:
			i++
		default:
			j++
		}
	}
	return matches, nil
}

// SplitLines splits text into lines. A single trailing newline does not
// produce an extra empty line and carriage returns are dropped.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func hasTrailingNewline(s string) bool {
	return strings.HasSuffix(s, "\n")
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
