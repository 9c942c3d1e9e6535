package diff

import (
	"fmt"
	"strings"

	"github.com/simonyos/agentcore/internal/analysis"
)

// ChangeKind classifies a construct-level change.
type ChangeKind string

const (
	Added    ChangeKind = "added"
	Removed  ChangeKind = "removed"
	Modified ChangeKind = "modified"
)

// SemanticChange is one named construct that differs between two versions.
type SemanticChange struct {
	Kind      ChangeKind
	Name      string
	Construct string // function, class, object, type
	Stats     *Stats // set for Modified only
}

// Semantic compares the named top-level constructs of two versions of a
// source file. Constructs are matched by name only: when a name occurs more
// than once in a version, the first occurrence is used. Removed and
// modified constructs come first in original order, then added ones in
// modified order.
func Semantic(original, modified, language string) ([]SemanticChange, error) {
	before := indexByName(analysis.ExtractConstructs(original, language))
	after := indexByName(analysis.ExtractConstructs(modified, language))

	var changes []SemanticChange
	for _, name := range before.order {
		old := before.byName[name]
		cur, ok := after.byName[name]
		if !ok {
			changes = append(changes, SemanticChange{Kind: Removed, Name: name, Construct: old.Kind})
			continue
		}
		if old.Body == cur.Body {
			continue
		}
		st, err := ComputeStats(SplitLines(old.Body), SplitLines(cur.Body))
		if err != nil {
			return nil, err
		}
		changes = append(changes, SemanticChange{Kind: Modified, Name: name, Construct: cur.Kind, Stats: &st})
	}
	for _, name := range after.order {
		if _, ok := before.byName[name]; !ok {
			changes = append(changes, SemanticChange{Kind: Added, Name: name, Construct: after.byName[name].Kind})
		}
	}
	return changes, nil
}

type constructIndex struct {
	order  []string
	byName map[string]analysis.Construct
}

func indexByName(cs []analysis.Construct) constructIndex {
	idx := constructIndex{byName: make(map[string]analysis.Construct, len(cs))}
	for _, c := range cs {
		if _, dup := idx.byName[c.Name]; dup {
			continue
		}
		idx.byName[c.Name] = c
		idx.order = append(idx.order, c.Name)
	}
	return idx
}

// RenderSemantic formats construct-level changes.
func RenderSemantic(changes []SemanticChange) string {
	if len(changes) == 0 {
		return "No structural changes found"
	}
	var sb strings.Builder
	for _, c := range changes {
		switch c.Kind {
		case Added:
			fmt.Fprintf(&sb, "+ %s %s (added)\n", c.Construct, c.Name)
		case Removed:
			fmt.Fprintf(&sb, "- %s %s (removed)\n", c.Construct, c.Name)
		case Modified:
			fmt.Fprintf(&sb, "~ %s %s (modified: +%d -%d)\n", c.Construct, c.Name, c.Stats.Additions, c.Stats.Deletions)
		}
	}
	return sb.String()
}
