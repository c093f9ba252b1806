package checkout

import "errors"

var (
	// ErrInvalidSignature means a webhook's HMAC did not match its
	// claimed payload under the shared secret.
	ErrInvalidSignature = errors.New("webhook signature does not match payload")
	// ErrSkewTooLarge means a correctly-signed webhook's timestamp is
	// outside the accepted clock-skew window.
	ErrSkewTooLarge = errors.New("webhook timestamp outside accepted skew window")
	// ErrUnknownOutcome means a webhook declared an outcome other than
	// "paid" or "failed".
	ErrUnknownOutcome = errors.New("unknown webhook outcome")
)
