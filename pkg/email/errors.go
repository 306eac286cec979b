package email

import "errors"

var (
	// ErrInvalidConfig indicates required email configuration is missing.
	ErrInvalidConfig = errors.New("email.invalid_config")

	// ErrInvalidParams indicates the send parameters are incomplete.
	ErrInvalidParams = errors.New("email.invalid_params")

	// ErrFailedToSendEmail indicates delivery failed.
	ErrFailedToSendEmail = errors.New("email.send_failed")
)
