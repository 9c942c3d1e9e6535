package diff

import "strings"

// DefaultContext is the number of unchanged lines kept around each change.
const DefaultContext = 3

// Kind tags a Line as unchanged, added or removed.
type Kind int

const (
	Unchanged Kind = iota
	Addition
	Deletion
)

func (k Kind) prefix() byte {
	switch k {
	case Addition:
		return '+'
	case Deletion:
		return '-'
	default:
		return ' '
	}
}

// Line is one row of a diff. OldLine and NewLine are 1-based line numbers
// in the original and modified text; zero means the line has no position
// on that side.
type Line struct {
	Kind    Kind
	Content string
	OldLine int
	NewLine int
}

// Hunk is a contiguous run of changes plus surrounding context.
type Hunk struct {
	OldStart  int
	OldLength int
	NewStart  int
	NewLength int
	Lines     []Line

	// OldNoNewline and NewNoNewline record a "\ No newline at end of file"
	// marker after the hunk's last line on that side.
	OldNoNewline bool
	NewNoNewline bool
}

// Result is the outcome of comparing two line sequences.
type Result struct {
	Hunks []Hunk
	Stats Stats

	// OldLines and NewLines are the lengths of the compared sequences.
	OldLines int
	NewLines int
	// OldNoNewline and NewNoNewline mark texts whose last line has no
	// terminating newline. Only CompareText sets them.
	OldNoNewline bool
	NewNoNewline bool
}

// Stats counts lines by kind.
type Stats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Unchanged int `json:"unchanged"`
}

// Changed reports whether the comparison found any difference.
func (s Stats) Changed() bool {
	return s.Additions > 0 || s.Deletions > 0
}

// Identical reports whether the comparison produced no hunks.
func (r *Result) Identical() bool {
	return len(r.Hunks) == 0
}

// Compare diffs two line sequences, grouping changes into hunks padded
// with up to context unchanged lines. A negative context is treated as 0.
func Compare(a, b []string, context int) (*Result, error) {
	if context < 0 {
		context = 0
	}
	if equalLines(a, b) {
		return &Result{Stats: Stats{Unchanged: len(a)}, OldLines: len(a), NewLines: len(b)}, nil
	}
	lines, err := Lines(a, b)
	if err != nil {
		return nil, err
	}
	res := &Result{Hunks: group(lines, context), OldLines: len(a), NewLines: len(b)}
	for _, l := range lines {
		switch l.Kind {
		case Addition:
			res.Stats.Additions++
		case Deletion:
			res.Stats.Deletions++
		default:
			res.Stats.Unchanged++
		}
	}
	return res, nil
}

// unterminated is appended to a last line that lacks its newline when the
// other side's last line has one, so the two never compare equal.
const unterminated = "\x00"

// CompareText is Compare over the lines of two strings. A last line that
// differs only in its terminating newline counts as changed.
func CompareText(original, modified string, context int) (*Result, error) {
	a, b := SplitLines(original), SplitLines(modified)
	oldNoNewline := original != "" && !hasTrailingNewline(original)
	newNoNewline := modified != "" && !hasTrailingNewline(modified)
	if oldNoNewline != newNoNewline && len(a) > 0 && len(b) > 0 {
		if oldNoNewline {
			a[len(a)-1] += unterminated
		} else {
			b[len(b)-1] += unterminated
		}
	}
	res, err := Compare(a, b, context)
	if err != nil {
		return nil, err
	}
	for i := range res.Hunks {
		for j := range res.Hunks[i].Lines {
			l := &res.Hunks[i].Lines[j]
			l.Content = strings.TrimSuffix(l.Content, unterminated)
		}
	}
	res.OldNoNewline = oldNoNewline
	res.NewNoNewline = newNoNewline
	return res, nil
}

// reachesEnd reports whether a hunk side starting at start with length
// lines ends at the last of total lines.
func reachesEnd(start, length, total int) bool {
	if length == 0 {
		return start >= total
	}
	return start+length-1 >= total
}

// Lines returns the full aligned edit script of a against b. Between two
// matches, every deletion precedes every addition.
func Lines(a, b []string) ([]Line, error) {
	matches, err := LCS(a, b)
	if err != nil {
		return nil, err
	}
	out := make([]Line, 0, len(a)+len(b)-len(matches))
	i, j := 0, 0
	emitUntil := func(ai, bj int) {
		for ; i < ai; i++ {
			out = append(out, Line{Kind: Deletion, Content: a[i], OldLine: i + 1})
		}
		for ; j < bj; j++ {
			out = append(out, Line{Kind: Addition, Content: b[j], NewLine: j + 1})
		}
	}
	for _, m := range matches {
		emitUntil(m.A, m.B)
		out = append(out, Line{Kind: Unchanged, Content: a[i], OldLine: i + 1, NewLine: j + 1})
		i++
		j++
	}
	emitUntil(len(a), len(b))
	return out, nil
}

// ComputeStats counts additions, deletions and unchanged lines without
// building hunks.
func ComputeStats(a, b []string) (Stats, error) {
	if equalLines(a, b) {
		return Stats{Unchanged: len(a)}, nil
	}
	matches, err := LCS(a, b)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Additions: len(b) - len(matches),
		Deletions: len(a) - len(matches),
		Unchanged: len(matches),
	}, nil
}

// group splits an edit script into hunks. Two changes separated by at
// most 2*context unchanged lines share a hunk.
func group(lines []Line, context int) []Hunk {
	// oldBefore[k] / newBefore[k] count the lines consumed before lines[k]
	oldBefore := make([]int, len(lines)+1)
	newBefore := make([]int, len(lines)+1)
	for k, l := range lines {
		oldBefore[k+1], newBefore[k+1] = oldBefore[k], newBefore[k]
		if l.Kind != Addition {
			oldBefore[k+1]++
		}
		if l.Kind != Deletion {
			newBefore[k+1]++
		}
	}

	var hunks []Hunk
	n := len(lines)
	i := 0
	for i < n {
		if lines[i].Kind == Unchanged {
			i++
			continue
		}
		start := max(0, i-context)
		end := i + 1
		j := i + 1
		for j < n {
			if lines[j].Kind != Unchanged {
				end = j + 1
				j++
				continue
			}
			k := j
			for k < n && lines[k].Kind == Unchanged {
				k++
			}
			if k < n && k-j <= 2*context {
				j = k
				continue
			}
			break
		}
		stop := min(n, end+context)

		h := Hunk{
			OldStart:  oldBefore[start] + 1,
			OldLength: oldBefore[stop] - oldBefore[start],
			NewStart:  newBefore[start] + 1,
			NewLength: newBefore[stop] - newBefore[start],
			Lines:     append([]Line(nil), lines[start:stop]...),
		}
		// an empty side points at the line before the change
		if h.OldLength == 0 {
			h.OldStart--
		}
		if h.NewLength == 0 {
			h.NewStart--
		}
		hunks = append(hunks, h)
		i = stop
	}
	return hunks
}
