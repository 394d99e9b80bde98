package core

import "errors"

// Build-time errors. Engine construction fails with one or more of these
// joined together.
var (
	ErrInvalidParameter         = errors.New("invalid parameter")
	ErrDuplicateVariableName    = errors.New("duplicate variable name")
	ErrDuplicateTermName        = errors.New("duplicate term name")
	ErrUnknownVariableReference = errors.New("unknown variable reference")
)

// Runtime errors returned per call.
var (
	ErrUnknownVariable = errors.New("unknown variable")
	ErrMissingInput    = errors.New("missing input")
	ErrNotComputed     = errors.New("outputs not computed")
	ErrNoRuleFired     = errors.New("no rule fired")
)

// ErrOutOfRange marks an input that was clamped into its universe. It is
// carried by clamp records and never returned as a failure.
var ErrOutOfRange = errors.New("input out of range")
