package booking

import (
	"samayog/services/apperror"
)

// Codes attached to booking validation errors.
const (
	CodeMissingField    = "missing_field"
	CodeInvalidMode     = "invalid_mode"
	CodeInvalidDuration = "invalid_duration"
	CodeInvalidAmount   = "invalid_amount"
	CodeInvalidFilter   = "invalid_filter"
)

func newValidationError(code, msg string) error {
	return &apperror.Error{
		Kind:    apperror.Validation,
		Code:    code,
		Message: msg,
	}
}

// opError rewrites err for display as "<op>: <reason>", keeping its kind.
func opError(op string, err error) error {
	if apperror.Is(err, apperror.Validation) {
		return err
	}
	return apperror.Rewrap(err, op+": "+apperror.MessageOf(err))
}
