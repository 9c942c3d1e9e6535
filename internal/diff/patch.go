package diff

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrPatchMalformed = errors.New("malformed patch")
	ErrPatchConflict  = errors.New("patch does not apply")
)

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// PatchError explains why a patch stopped applying.
type PatchError struct {
	Hunk   int // 1-based hunk index
	Line   int // 1-based line in the original text, 0 if not applicable
	Reason string
	Err    error
}

func (e *PatchError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("hunk %d, line %d: %s", e.Hunk, e.Line, e.Reason)
	}
	return fmt.Sprintf("hunk %d: %s", e.Hunk, e.Reason)
}

func (e *PatchError) Unwrap() error { return e.Err }

// ParsePatch parses the hunks of a unified diff. File headers and any
// text before the first hunk header are skipped. A missing length in a
// header defaults to 1.
func ParsePatch(patch string) ([]Hunk, error) {
	var hunks []Hunk
	var cur *Hunk
	oldLeft, newLeft := 0, 0

	patch = strings.TrimSuffix(strings.ReplaceAll(patch, "\r\n", "\n"), "\n")
	for n, raw := range strings.Split(patch, "\n") {
		if m := hunkHeaderRe.FindStringSubmatch(raw); m != nil {
			if cur != nil && (oldLeft > 0 || newLeft > 0) {
				return nil, fmt.Errorf("%w: hunk %d is shorter than its header", ErrPatchMalformed, len(hunks))
			}
			h := Hunk{
				OldStart:  atoi(m[1]),
				OldLength: atoiDefault(m[2], 1),
				NewStart:  atoi(m[3]),
				NewLength: atoiDefault(m[4], 1),
			}
			hunks = append(hunks, h)
			cur = &hunks[len(hunks)-1]
			oldLeft, newLeft = h.OldLength, h.NewLength
			continue
		}
		if cur != nil && strings.HasPrefix(raw, `\`) {
			markNoNewline(cur)
			continue
		}
		if cur == nil || (oldLeft == 0 && newLeft == 0) {
			// headers, trailers or junk between hunks
			continue
		}
		if raw == "" {
			// some tools strip the leading space of empty context lines
			raw = " "
		}
		body := raw[1:]
		switch raw[0] {
		case ' ':
			cur.Lines = append(cur.Lines, Line{Kind: Unchanged, Content: body})
			oldLeft--
			newLeft--
		case '-':
			cur.Lines = append(cur.Lines, Line{Kind: Deletion, Content: body})
			oldLeft--
		case '+':
			cur.Lines = append(cur.Lines, Line{Kind: Addition, Content: body})
			newLeft--
		default:
			return nil, fmt.Errorf("%w: unexpected line %d: %q", ErrPatchMalformed, n+1, raw)
		}
		if oldLeft < 0 || newLeft < 0 {
			return nil, fmt.Errorf("%w: hunk %d is longer than its header", ErrPatchMalformed, len(hunks))
		}
	}
	if len(hunks) == 0 {
		return nil, fmt.Errorf("%w: no hunks found", ErrPatchMalformed)
	}
	if oldLeft > 0 || newLeft > 0 {
		return nil, fmt.Errorf("%w: hunk %d is shorter than its header", ErrPatchMalformed, len(hunks))
	}
	return hunks, nil
}

// ApplyPatch replays a unified diff against original. Hunks must appear in
// order and every context or deleted line must match the original exactly;
// otherwise a *PatchError says where application stopped. The result ends
// with a newline unless the patch marks the new side's last line with
// "\ No newline at end of file", or the last hunk stops short of the end of
// an original that has none.
func ApplyPatch(original, patch string) (string, error) {
	hunks, err := ParsePatch(patch)
	if err != nil {
		return "", err
	}
	out, err := ApplyHunks(SplitLines(original), hunks)
	if err != nil {
		return "", err
	}
	text := strings.Join(out, "\n")
	if len(out) > 0 && trailingNewline(original, hunks) {
		text += "\n"
	}
	return text, nil
}

// markNoNewline applies a "\ No newline at end of file" marker to the side
// of the line it follows.
func markNoNewline(h *Hunk) {
	if len(h.Lines) == 0 {
		return
	}
	switch h.Lines[len(h.Lines)-1].Kind {
	case Deletion:
		h.OldNoNewline = true
	case Addition:
		h.NewNoNewline = true
	default:
		h.OldNoNewline = true
		h.NewNoNewline = true
	}
}

// trailingNewline decides whether the patched text ends with a newline.
// When the last hunk reaches the end of the original, its markers decide;
// otherwise the original's ending is kept.
func trailingNewline(original string, hunks []Hunk) bool {
	last := hunks[len(hunks)-1]
	if reachesEnd(last.OldStart, last.OldLength, len(SplitLines(original))) {
		return !last.NewNoNewline
	}
	return hasTrailingNewline(original)
}

// ApplyHunks applies parsed hunks to a line slice.
func ApplyHunks(src []string, hunks []Hunk) ([]string, error) {
	out := make([]string, 0, len(src))
	cursor := 0
	// net line-count change implied by the headers
	offset := 0

	for n, h := range hunks {
		idx := n + 1
		start := h.OldStart - 1
		if h.OldLength == 0 {
			start = h.OldStart
		}
		if start < cursor {
			return nil, &PatchError{Hunk: idx, Reason: "hunk overlaps the previous hunk", Err: ErrPatchConflict}
		}
		if start > len(src) {
			return nil, &PatchError{Hunk: idx, Line: start + 1,
				Reason: fmt.Sprintf("starts past end of file (%d lines)", len(src)), Err: ErrPatchConflict}
		}
		out = append(out, src[cursor:start]...)

		pos := start
		for _, l := range h.Lines {
			switch l.Kind {
			case Unchanged, Deletion:
				what := "context"
				if l.Kind == Deletion {
					what = "deleted line"
				}
				if pos >= len(src) {
					return nil, &PatchError{Hunk: idx, Line: pos + 1,
						Reason: fmt.Sprintf("%s %q expected but file ended", what, l.Content), Err: ErrPatchConflict}
				}
				if src[pos] != l.Content {
					return nil, &PatchError{Hunk: idx, Line: pos + 1,
						Reason: fmt.Sprintf("%s mismatch: expected %q, found %q", what, l.Content, src[pos]), Err: ErrPatchConflict}
				}
				if l.Kind == Unchanged {
					out = append(out, l.Content)
				}
				pos++
			case Addition:
				out = append(out, l.Content)
			}
		}
		cursor = pos
		offset += h.NewLength - h.OldLength
	}
	out = append(out, src[cursor:]...)
	if want := len(src) + offset; want != len(out) {
		return nil, &PatchError{Hunk: len(hunks), Reason: fmt.Sprintf("result has %d lines, headers imply %d", len(out), want), Err: ErrPatchConflict}
	}
	return out, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	return atoi(s)
}
