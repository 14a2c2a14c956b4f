package errors

import stderrors "errors"

// Standard library helpers, re-exported for callers that import this
// package as errors.
var (
	Is     = stderrors.Is
	As     = stderrors.As
	Unwrap = stderrors.Unwrap
	Join   = stderrors.Join
)
