package diff

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// NoDifferences is the rendering of two identical inputs.
const NoDifferences = "No differences found"

// DefaultWidth is the side-by-side column width.
const DefaultWidth = 60

// Format selects a rendering.
type Format string

const (
	FormatUnified    Format = "unified"
	FormatSideBySide Format = "side_by_side"
	FormatStats      Format = "stats"
	FormatInline     Format = "inline"
)

// Formats lists every supported rendering.
var Formats = []string{
	string(FormatUnified),
	string(FormatSideBySide),
	string(FormatStats),
	string(FormatInline),
}

// Options tune Render.
type Options struct {
	Context int
	Width   int
	OldName string
	NewName string
}

// Render compares two texts and renders the result in the given format.
func Render(original, modified string, format Format, opts Options) (string, error) {
	a, b := SplitLines(original), SplitLines(modified)
	if format == "" {
		format = FormatUnified
	}
	if format == FormatStats {
		st, err := ComputeStats(a, b)
		if err != nil {
			return "", err
		}
		return RenderStats(st), nil
	}

	res, err := CompareText(original, modified, opts.Context)
	if err != nil {
		return "", err
	}
	if res.Identical() {
		return NoDifferences, nil
	}

	switch format {
	case FormatUnified:
		return Unified(res, opts.OldName, opts.NewName), nil
	case FormatSideBySide:
		return SideBySide(res, opts.Width), nil
	case FormatInline:
		return Inline(res), nil
	default:
		return "", fmt.Errorf("unknown diff format: %s", format)
	}
}

// Unified renders hunks in unified diff format. File headers are written
// only when both names are set.
func Unified(res *Result, oldName, newName string) string {
	if res.Identical() {
		return NoDifferences
	}
	var sb strings.Builder
	if oldName != "" && newName != "" {
		fmt.Fprintf(&sb, "--- %s\n+++ %s\n", oldName, newName)
	}
	for i, h := range res.Hunks {
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldLength, h.NewStart, h.NewLength)
		last := i == len(res.Hunks)-1
		oldEnd := last && res.OldNoNewline && reachesEnd(h.OldStart, h.OldLength, res.OldLines)
		newEnd := last && res.NewNoNewline && reachesEnd(h.NewStart, h.NewLength, res.NewLines)
		lastOld, lastNew := -1, -1
		for j, l := range h.Lines {
			if l.Kind != Addition {
				lastOld = j
			}
			if l.Kind != Deletion {
				lastNew = j
			}
		}
		for j, l := range h.Lines {
			markOld := oldEnd && j == lastOld
			markNew := newEnd && j == lastNew
			if l.Kind == Unchanged && markOld != markNew {
				// the line ends one side but not the other
				writeLine(&sb, '-', l.Content, markOld)
				writeLine(&sb, '+', l.Content, markNew)
				continue
			}
			writeLine(&sb, l.Kind.prefix(), l.Content, markOld || markNew)
		}
	}
	return sb.String()
}

// NoNewlineMarker follows a diff line that has no terminating newline.
const NoNewlineMarker = `\ No newline at end of file`

func writeLine(sb *strings.Builder, prefix byte, content string, noNewline bool) {
	sb.WriteByte(prefix)
	sb.WriteString(content)
	sb.WriteByte('\n')
	if noNewline {
		sb.WriteString(NoNewlineMarker)
		sb.WriteByte('\n')
	}
}

// RenderStats renders line counts.
func RenderStats(st Stats) string {
	if !st.Changed() {
		return fmt.Sprintf("%s (%d unchanged lines)", NoDifferences, st.Unchanged)
	}
	return fmt.Sprintf("+%d additions, -%d deletions, %d unchanged", st.Additions, st.Deletions, st.Unchanged)
}

// row is one side-by-side line pair.
type row struct {
	marker byte
	left   string
	right  string
}

// pairRows walks a hunk and pairs each run of deletions with the additions
// that immediately follow it. Paired lines become '~' rows.
func pairRows(lines []Line) []row {
	var rows []row
	for i := 0; i < len(lines); {
		l := lines[i]
		if l.Kind == Unchanged {
			rows = append(rows, row{marker: ' ', left: l.Content, right: l.Content})
			i++
			continue
		}
		var dels, adds []string
		for i < len(lines) && lines[i].Kind == Deletion {
			dels = append(dels, lines[i].Content)
			i++
		}
		for i < len(lines) && lines[i].Kind == Addition {
			adds = append(adds, lines[i].Content)
			i++
		}
		for k := 0; k < max(len(dels), len(adds)); k++ {
			switch {
			case k < len(dels) && k < len(adds):
				rows = append(rows, row{marker: '~', left: dels[k], right: adds[k]})
			case k < len(dels):
				rows = append(rows, row{marker: '-', left: dels[k]})
			default:
				rows = append(rows, row{marker: '+', right: adds[k]})
			}
		}
	}
	return rows
}

// SideBySide renders hunks as two fixed-width columns.
func SideBySide(res *Result, width int) string {
	if res.Identical() {
		return NoDifferences
	}
	if width <= 0 {
		width = DefaultWidth
	}
	var sb strings.Builder
	for n, h := range res.Hunks {
		if n > 0 {
			sb.WriteString(strings.Repeat("-", 2*width+5))
			sb.WriteByte('\n')
		}
		for _, r := range pairRows(h.Lines) {
			line := fmt.Sprintf("%c %s | %s", r.marker, fit(r.left, width), fit(r.right, width))
			sb.WriteString(strings.TrimRight(line, " "))
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// fit truncates or pads s to exactly width runes.
func fit(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n > width {
		r := []rune(s)
		if width <= 1 {
			return string(r[:width])
		}
		return string(r[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-n)
}

// Inline renders hunks with paired changed lines merged into one line
// that marks removed text as [-x-] and inserted text as {+y+}.
func Inline(res *Result) string {
	if res.Identical() {
		return NoDifferences
	}
	dmp := diffmatchpatch.New()
	var sb strings.Builder
	for _, h := range res.Hunks {
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldLength, h.NewStart, h.NewLength)
		for _, r := range pairRows(h.Lines) {
			switch r.marker {
			case '~':
				sb.WriteString("~ ")
				sb.WriteString(inlineLine(dmp, r.left, r.right))
			case '-':
				sb.WriteString("- ")
				sb.WriteString(r.left)
			case '+':
				sb.WriteString("+ ")
				sb.WriteString(r.right)
			default:
				sb.WriteString("  ")
				sb.WriteString(r.left)
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func inlineLine(dmp *diffmatchpatch.DiffMatchPatch, a, b string) string {
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(a, b, false))
	var sb strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			sb.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			sb.WriteString("{+" + d.Text + "+}")
		default:
			sb.WriteString(d.Text)
		}
	}
	return sb.String()
}

// Colorize adds terminal colors to unified diff text.
func Colorize(unified string) string {
	bold := color.New(color.Bold)
	add := color.New(color.FgGreen)
	del := color.New(color.FgRed)
	hdr := color.New(color.FgCyan)

	lines := strings.Split(unified, "\n")
	for i, l := range lines {
		switch {
		case strings.HasPrefix(l, "+++"), strings.HasPrefix(l, "---"):
			lines[i] = bold.Sprint(l)
		case strings.HasPrefix(l, "@@"):
			lines[i] = hdr.Sprint(l)
		case strings.HasPrefix(l, "+"):
			lines[i] = add.Sprint(l)
		case strings.HasPrefix(l, "-"):
			lines[i] = del.Sprint(l)
		}
	}
	return strings.Join(lines, "\n")
}
