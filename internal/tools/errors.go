package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/simonyos/agentcore/internal/diff"
	"github.com/simonyos/agentcore/internal/memory"
	"github.com/simonyos/agentcore/internal/project"
	"github.com/simonyos/agentcore/internal/shell"
	"github.com/simonyos/agentcore/internal/web"
)

// ErrorKind classifies a failed tool call.
type ErrorKind string

const (
	KindNone       ErrorKind = ""
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindPolicy     ErrorKind = "policy"
	KindTimeout    ErrorKind = "timeout"
	// KindFailed is an operation that ran and reported failure, such as a
	// command exiting non-zero.
	KindFailed   ErrorKind = "failed"
	KindInternal ErrorKind = "internal"
)

// Error is a handler failure with an explicit kind.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func errorf(kind ErrorKind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Classify maps an error from a handler or collaborator onto a kind.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	var se *web.StatusError
	if errors.As(err, &se) {
		if se.Code == http.StatusNotFound || se.Code == http.StatusGone {
			return KindNotFound
		}
		return KindInternal
	}
	switch {
	case errors.Is(err, shell.ErrTimeout),
		errors.Is(err, web.ErrTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, project.ErrOutsideRoot),
		errors.Is(err, project.ErrIgnored),
		errors.Is(err, project.ErrProtected),
		errors.Is(err, shell.ErrBlocked),
		errors.Is(err, shell.ErrDeclined),
		errors.Is(err, web.ErrScheme),
		errors.Is(err, web.ErrRedirect):
		return KindPolicy
	case errors.Is(err, project.ErrNotFound),
		errors.Is(err, memory.ErrNotFound):
		return KindNotFound
	case errors.Is(err, project.ErrExists),
		errors.Is(err, project.ErrIsDir),
		errors.Is(err, project.ErrNotDir),
		errors.Is(err, project.ErrTooLarge),
		errors.Is(err, project.ErrBadProject),
		errors.Is(err, diff.ErrTooLarge),
		errors.Is(err, diff.ErrPatchMalformed),
		errors.Is(err, diff.ErrPatchConflict):
		return KindValidation
	}
	return KindInternal
}
