package linker

import (
	stderrors "errors"
	"strings"

	"github.com/wippyai/aspect-linker/errors"
)

// LinkError provides context when linking fails.
type LinkError struct {
	Cause     error
	Phase     errors.Phase
	Decl      string
	Reference string
	Reason    string
}

func (e *LinkError) Error() string {
	var b strings.Builder
	b.WriteString("link failed")

	if e.Phase != "" {
		b.WriteString(" at ")
		b.WriteString(string(e.Phase))
	}

	if e.Decl != "" {
		b.WriteString(": ")
		b.WriteString(e.Decl)
	}

	if e.Reference != "" {
		b.WriteString(" (reference ")
		b.WriteString(e.Reference)
		b.WriteByte(')')
	}

	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

func (e *LinkError) Unwrap() error {
	return e.Cause
}

// linkError wraps a phase failure. Structured errors lend their phase and
// declaration; the layer becomes the reference context.
func linkError(phase errors.Phase, reason string, cause error) *LinkError {
	le := &LinkError{Phase: phase, Reason: reason, Cause: cause}
	var e *errors.Error
	if stderrors.As(cause, &e) {
		le.Phase = e.Phase
		le.Decl = e.Decl
		if e.Layer != "" {
			le.Reference = "layer " + e.Layer
		}
	}
	return le
}
