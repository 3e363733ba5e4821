package params

import "errors"

var (
	// ErrMalformedDescriptor indicates a tree or struct that cannot describe parameters.
	ErrMalformedDescriptor = errors.New("params: malformed descriptor")

	// ErrUnknownParameter indicates an update naming a key the description lacks.
	ErrUnknownParameter = errors.New("params: key not accepted")

	// ErrParameterKind indicates an update whose value kind does not match the description.
	ErrParameterKind = errors.New("params: value kind mismatch")

	// ErrParameterBounds indicates a value outside the described range or choices.
	ErrParameterBounds = errors.New("params: value out of bounds")
)

// ErrInvalidDocument indicates a persisted parameter document that fails validation.
var ErrInvalidDocument = errors.New("params: invalid parameter document")
