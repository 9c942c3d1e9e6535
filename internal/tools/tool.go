package tools

import (
	"context"
	"math"
	"strings"

	"github.com/simonyos/agentcore/internal/validate"
)

// ConfirmFunc is a function that asks for user confirmation
type ConfirmFunc func(prompt string) bool

// handler performs one tool. A non-nil error fails the call; output
// returned alongside an error is kept, so a failed command can still show
// what it printed.
type handler func(ctx context.Context, c *call) (string, error)

// call is one validated invocation.
type call struct {
	projectID string
	root      string
	args      map[string]any
}

func (c *call) str(key string) string {
	s, _ := validate.Stringify(c.args[key])
	return s
}

func (c *call) strOr(key, def string) string {
	if s := strings.TrimSpace(c.str(key)); s != "" {
		return s
	}
	return def
}

func (c *call) flag(key string) bool {
	b, _ := validate.Bool(c.args[key])
	return b
}

func (c *call) has(key string) bool {
	v, ok := c.args[key]
	if !ok || v == nil {
		return false
	}
	s, isStr := v.(string)
	return !isStr || s != ""
}

// intOr returns the argument truncated to an int, or def when absent or
// not a number.
func (c *call) intOr(key string, def int) int {
	f, ok := validate.Number(c.args[key])
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return int(f)
}
