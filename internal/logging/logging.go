// Package logging builds the zap loggers used across agentcore.
package logging

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger writing to stderr. json selects the production
// encoder; otherwise output is the human-readable console format.
func New(level string, json bool) (*zap.Logger, error) {
	return NewTo(level, json, "stderr")
}

// NewTo is New with another output: a file path, "stdout" or "stderr".
func NewTo(level string, json bool, output string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
			return nil, fmt.Errorf("invalid log level %q", level)
		}
	}
	var config zap.Config
	if json {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.DisableStacktrace = true
	}
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.OutputPaths = []string{output}
	config.ErrorOutputPaths = []string{output}
	return config.Build()
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger { return zap.NewNop() }

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

var secretKeyRe = regexp.MustCompile(`(?i)(key|token|secret|password|passwd|auth|credential)`)

// Redact masks s keeping its first and last four characters. Values of
// twelve characters or fewer are fully masked.
func Redact(s string) string {
	r := []rune(s)
	if len(r) <= 12 {
		return "****"
	}
	return string(r[:4]) + "****" + string(r[len(r)-4:])
}

// Args returns a zap field for tool arguments with secret-looking values
// masked and long values shortened.
func Args(args map[string]any) zap.Field {
	safe := make(map[string]any, len(args))
	for k, v := range args {
		s, ok := v.(string)
		switch {
		case !ok:
			safe[k] = v
		case secretKeyRe.MatchString(k):
			safe[k] = Redact(s)
		case len(s) > 200:
			safe[k] = fmt.Sprintf("%s... (%d bytes)", s[:200], len(s))
		default:
			safe[k] = s
		}
	}
	return zap.Any("args", safe)
}
