package adapter

import "context"

// Noop is the distinguished harness-validation baseline: it returns the
// payload untouched. Its role is not to be a realistic sanitizer but to
// prove the harness itself can detect execution, leaks, and navigation —
// against noop it must produce many xss/external outcomes. Weakening
// noop to reduce its outcome counts would be a contract violation.
type Noop struct{}

// NewNoop constructs the noop adapter.
func NewNoop() *Noop { return &Noop{} }

func (Noop) ID() string { return "noop" }

func (Noop) Sanitize(_ context.Context, html string, _ string, _ Policy) Result {
	return Result{HTML: html, Status: StatusOK}
}
