package domain

import "errors"

// ValidationError indica um submit inválido; a mensagem é exibível ao cliente.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidation informa se err (ou algo que ele embrulha) é um ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
