package checkout

import "errors"

var (
	ErrInvalidForm      = errors.New("invalid shipping form")
	ErrSubmissionFailed = errors.New("order submission failed")
)
