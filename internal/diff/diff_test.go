package diff

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare_SingleLineChange(t *testing.T) {
	res, err := Compare([]string{"a", "b", "c"}, []string{"a", "x", "c"}, 1)
	require.NoError(t, err)
	require.Len(t, res.Hunks, 1)

	h := res.Hunks[0]
	assert.Equal(t, 1, h.OldStart)
	assert.Equal(t, 3, h.OldLength)
	assert.Equal(t, 1, h.NewStart)
	assert.Equal(t, 3, h.NewLength)

	want := []Line{
		{Kind: Unchanged, Content: "a", OldLine: 1, NewLine: 1},
		{Kind: Deletion, Content: "b", OldLine: 2},
		{Kind: Addition, Content: "x", NewLine: 2},
		{Kind: Unchanged, Content: "c", OldLine: 3, NewLine: 3},
	}
	assert.Equal(t, want, h.Lines)

	assert.Equal(t, "@@ -1,3 +1,3 @@\n a\n-b\n+x\n c\n", Unified(res, "", ""))
}

func TestCompare_Identical(t *testing.T) {
	inputs := [][]string{
		nil,
		{""},
		{"a"},
		{"a", "b", "a", "b"},
	}
	for _, in := range inputs {
		res, err := Compare(in, append([]string(nil), in...), DefaultContext)
		require.NoError(t, err)
		assert.True(t, res.Identical())
		assert.Equal(t, NoDifferences, Unified(res, "a", "b"))
	}
}

func TestLCS_DeletionBeforeInsertion(t *testing.T) {
	lines, err := Lines([]string{"x"}, []string{"y"})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, Deletion, lines[0].Kind)
	assert.Equal(t, Addition, lines[1].Kind)

	// equal-length alternatives: prefer matching by advancing the original
	m, err := LCS([]string{"a", "b"}, []string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, []Match{{A: 1, B: 0}}, m)
}

func TestLCS_Monotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 200; iter++ {
		a := randomLines(rng, rng.Intn(30))
		b := randomLines(rng, rng.Intn(30))
		m, err := LCS(a, b)
		require.NoError(t, err)
		for k := range m {
			assert.Equal(t, a[m[k].A], b[m[k].B])
			if k > 0 {
				assert.Greater(t, m[k].A, m[k-1].A)
				assert.Greater(t, m[k].B, m[k-1].B)
			}
		}
	}
}

func TestLCS_TooLarge(t *testing.T) {
	a := make([]string, 6000)
	b := make([]string, 6000)
	for i := range a {
		a[i] = "a"
		b[i] = "b"
	}
	_, err := LCS(a, b)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestApplyPatch_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	text := func(lines []string) string {
		s := strings.Join(lines, "\n")
		if len(lines) > 0 && rng.Intn(2) == 0 {
			s += "\n"
		}
		return s
	}
	for iter := 0; iter < 500; iter++ {
		a := randomLines(rng, rng.Intn(25))
		b := mutate(rng, a)
		if rng.Intn(5) == 0 {
			a = nil
		}
		original, modified := text(a), text(b)
		for _, ctx := range []int{0, 1, 3} {
			res, err := CompareText(original, modified, ctx)
			require.NoError(t, err)
			if res.Identical() {
				continue
			}
			patch := Unified(res, "a/f", "b/f")
			got, err := ApplyPatch(original, patch)
			require.NoError(t, err, "patch:\n%s", patch)
			assert.Equal(t, modified, got, "patch:\n%s", patch)
		}
	}
}

func TestApplyPatch_EmptyOriginal(t *testing.T) {
	for _, modified := range []string{"\n", "a\n", "a\n\n", "a\nb", "a", "\n\nx\n"} {
		res, err := CompareText("", modified, DefaultContext)
		require.NoError(t, err)
		patch := Unified(res, "", "")
		got, err := ApplyPatch("", patch)
		require.NoError(t, err, "patch:\n%s", patch)
		assert.Equal(t, modified, got, "patch:\n%s", patch)
	}
}

func TestUnified_NoNewlineMarkers(t *testing.T) {
	tests := []struct {
		name               string
		original, modified string
		want               string
	}{
		{
			name:     "both unterminated",
			original: "x\ny",
			modified: "x\nz",
			want:     "@@ -1,2 +1,2 @@\n x\n-y\n\\ No newline at end of file\n+z\n\\ No newline at end of file\n",
		},
		{
			name:     "terminator added to last line",
			original: "a\nb",
			modified: "c\nb\n",
			want:     "@@ -1,2 +1,2 @@\n-a\n-b\n\\ No newline at end of file\n+c\n+b\n",
		},
		{
			name:     "change far from the end",
			original: "a\nb\nc\nd\ne",
			modified: "z\nb\nc\nd\ne",
			want:     "@@ -1,2 +1,2 @@\n-a\n+z\n b\n",
		},
		{
			name:     "terminator dropped far from the change",
			original: "a\nb\nc\nd\ne\n",
			modified: "z\nb\nc\nd\ne",
			want:     "@@ -1,2 +1,2 @@\n-a\n+z\n b\n@@ -4,2 +4,2 @@\n d\n-e\n+e\n\\ No newline at end of file\n",
		},
		{
			name:     "lines appended after an unterminated line",
			original: "a",
			modified: "a\nb",
			want:     "@@ -1,1 +1,2 @@\n-a\n\\ No newline at end of file\n+a\n+b\n\\ No newline at end of file\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := CompareText(tt.original, tt.modified, 1)
			require.NoError(t, err)
			patch := Unified(res, "", "")
			assert.Equal(t, tt.want, patch)
			got, err := ApplyPatch(tt.original, patch)
			require.NoError(t, err)
			assert.Equal(t, tt.modified, got)
		})
	}
}

func TestApplyPatch_PreservesTrailingNewline(t *testing.T) {
	patch, err := Render("one\ntwo\n", "one\n2\n", FormatUnified, Options{Context: 3})
	require.NoError(t, err)
	got, err := ApplyPatch("one\ntwo\n", patch)
	require.NoError(t, err)
	assert.Equal(t, "one\n2\n", got)
}

func TestApplyPatch_Failures(t *testing.T) {
	tests := []struct {
		name     string
		original string
		patch    string
		want     error
		contains string
	}{
		{
			name:     "no hunks",
			original: "a",
			patch:    "--- a\n+++ b\n",
			want:     ErrPatchMalformed,
			contains: "no hunks",
		},
		{
			name:     "short hunk",
			original: "a\nb",
			patch:    "@@ -1,2 +1,2 @@\n a\n",
			want:     ErrPatchMalformed,
			contains: "shorter",
		},
		{
			name:     "context mismatch",
			original: "a\nb\nc",
			patch:    "@@ -1,3 +1,3 @@\n a\n-b\n+x\n d\n",
			want:     ErrPatchConflict,
			contains: "context mismatch",
		},
		{
			name:     "deleted line mismatch",
			original: "a\nb",
			patch:    "@@ -2,1 +2,1 @@\n-z\n+y\n",
			want:     ErrPatchConflict,
			contains: "line 2",
		},
		{
			name:     "past end",
			original: "a",
			patch:    "@@ -5,1 +5,1 @@\n-a\n+b\n",
			want:     ErrPatchConflict,
			contains: "past end",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ApplyPatch(tt.original, tt.patch)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestParsePatch_DefaultLength(t *testing.T) {
	hunks, err := ParsePatch("@@ -3 +3 @@\n-old\n+new\n")
	require.NoError(t, err)
	require.Len(t, hunks, 1)
	assert.Equal(t, 1, hunks[0].OldLength)
	assert.Equal(t, 1, hunks[0].NewLength)
}

func TestCompare_MergesNearbyChanges(t *testing.T) {
	a := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12", "13", "14", "15", "16", "17", "18", "19", "20"}
	b := append([]string(nil), a...)
	b[2] = "three"
	b[7] = "eight" // 4 unchanged lines apart: merged with context 3
	b[18] = "nineteen"

	res, err := Compare(a, b, 3)
	require.NoError(t, err)
	require.Len(t, res.Hunks, 2)
	assert.Equal(t, 1, res.Hunks[0].OldStart)
	assert.Equal(t, 11, res.Hunks[0].OldLength)
	assert.Equal(t, 16, res.Hunks[1].OldStart)
	assert.Equal(t, 5, res.Hunks[1].OldLength)
	assert.Equal(t, Stats{Additions: 3, Deletions: 3, Unchanged: 17}, res.Stats)
}

func TestSideBySide(t *testing.T) {
	res, err := Compare([]string{"keep", "old", "gone"}, []string{"keep", "new"}, 3)
	require.NoError(t, err)
	out := SideBySide(res, 6)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "  keep   | keep", lines[0])
	assert.Equal(t, "~ old    | new", lines[1])
	assert.Equal(t, "- gone   |", lines[2])
}

func TestFit(t *testing.T) {
	assert.Equal(t, "ab  ", fit("ab", 4))
	assert.Equal(t, "abc…", fit("abcdef", 4))
	assert.Equal(t, "日本語 ", fit("日本語", 4))
}

func TestRender_Stats(t *testing.T) {
	out, err := Render("a\nb\nc", "a\nc\nd\ne", FormatStats, Options{})
	require.NoError(t, err)
	assert.Equal(t, "+2 additions, -1 deletions, 2 unchanged", out)

	out, err = Render("a\nb", "a\nb", FormatStats, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, NoDifferences)
}

func TestRender_Inline(t *testing.T) {
	out, err := Render("x := 1\n", "x := 2\n", FormatInline, Options{Context: 0})
	require.NoError(t, err)
	assert.Contains(t, out, "~ x := [-1-]{+2+}")
}

func TestRender_UnknownFormat(t *testing.T) {
	_, err := Render("a", "b", Format("fancy"), Options{})
	assert.Error(t, err)
}

func TestColorize(t *testing.T) {
	plain := "@@ -1,1 +1,1 @@\n-a\n+b\n"
	out := Colorize(plain)
	assert.Contains(t, out, "a")
	assert.Contains(t, out, "b")
}

func TestSemantic(t *testing.T) {
	before := `function keep() {
  return 1;
}

function change(a) {
  return a;
}

function drop() {}
`
	after := `function keep() {
  return 1;
}

function change(a) {
  const b = a * 2;
  return b;
}

class Added {
}
`
	changes, err := Semantic(before, after, "javascript")
	require.NoError(t, err)
	require.Len(t, changes, 3)

	assert.Equal(t, Modified, changes[0].Kind)
	assert.Equal(t, "change", changes[0].Name)
	require.NotNil(t, changes[0].Stats)
	assert.Equal(t, 2, changes[0].Stats.Additions)
	assert.Equal(t, 1, changes[0].Stats.Deletions)

	assert.Equal(t, SemanticChange{Kind: Removed, Name: "drop", Construct: "function"}, changes[1])
	assert.Equal(t, SemanticChange{Kind: Added, Name: "Added", Construct: "class"}, changes[2])
}

func TestSemantic_SameNameFirstWins(t *testing.T) {
	before := "def f():\n    return 1\n\ndef f():\n    return 2\n"
	after := "def f():\n    return 1\n"
	changes, err := Semantic(before, after, "python")
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func randomLines(rng *rand.Rand, n int) []string {
	alphabet := []string{"a", "b", "c", "d", "  ", "{", "}"}
	out := make([]string, n)
	for i := range out {
		out[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return out
}

func mutate(rng *rand.Rand, a []string) []string {
	b := append([]string(nil), a...)
	for k := rng.Intn(5); k >= 0; k-- {
		switch op := rng.Intn(3); {
		case op == 0 && len(b) > 0:
			i := rng.Intn(len(b))
			b = append(b[:i], b[i+1:]...)
		case op == 1:
			i := rng.Intn(len(b) + 1)
			b = append(b[:i], append([]string{randomLines(rng, 1)[0] + "x"}, b[i:]...)...)
		case len(b) > 0:
			b[rng.Intn(len(b))] = "z"
		}
	}
	return b
}
